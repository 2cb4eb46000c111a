package storage

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01")

type memBucket struct {
	mu       sync.Mutex
	objects  map[string][]byte
	attrs    map[string]Attrs
	closeErr error
}

func (b *memBucket) NewWriter(_ context.Context, name string, attrs Attrs) io.WriteCloser {
	return &memWriter{bucket: b, name: name, attrs: attrs}
}

type memWriter struct {
	bucket *memBucket
	name   string
	attrs  Attrs
	buf    bytes.Buffer
}

func (w *memWriter) Write(p []byte) (int, error) { return w.buf.Write(p) }

func (w *memWriter) Close() error {
	b := w.bucket
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closeErr != nil {
		return b.closeErr
	}
	if b.objects == nil {
		b.objects = map[string][]byte{}
		b.attrs = map[string]Attrs{}
	}
	b.objects[w.name] = w.buf.Bytes()
	b.attrs[w.name] = w.attrs
	return nil
}

func imageServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/cat.png":
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(pngBytes)
		case "/untyped":
			w.Header().Set("Content-Type", "application/octet-stream")
			_, _ = w.Write(pngBytes)
		case "/page":
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte("<html></html>"))
		case "/big":
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(bytes.Repeat([]byte{0}, 64))
		default:
			http.Error(w, "gone", http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestUpload(t *testing.T) {
	srv := imageServer(t)
	bucket := &memBucket{}
	u := NewUploader(bucket, Options{Prefix: "/blog-images/", PublicBaseURL: "https://cdn.example.com/"}, nil)

	url, err := u.Upload(context.Background(), srv.URL+"/cat.png", "A cat")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(url, "https://cdn.example.com/blog-images/"), url)
	require.True(t, strings.HasSuffix(url, ".png"), url)

	name := strings.TrimPrefix(url, "https://cdn.example.com/")
	require.Equal(t, pngBytes, bucket.objects[name])
	require.Equal(t, "image/png", bucket.attrs[name].ContentType)
	require.Equal(t, cacheControl, bucket.attrs[name].CacheControl)
	require.Equal(t, "A cat", bucket.attrs[name].Metadata["alt"])

	again, err := u.Upload(context.Background(), srv.URL+"/untyped", "")
	require.NoError(t, err)
	require.Equal(t, url, again, "same bytes must map to the same object")
}

func TestUpload_AlreadyExists(t *testing.T) {
	srv := imageServer(t)
	bucket := &memBucket{closeErr: &googleapi.Error{Code: http.StatusPreconditionFailed}}
	u := NewUploader(bucket, Options{PublicBaseURL: "https://cdn.example.com"}, nil)

	url, err := u.Upload(context.Background(), srv.URL+"/cat.png", "")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(url, "https://cdn.example.com/"))
}

func TestUpload_Errors(t *testing.T) {
	srv := imageServer(t)

	tests := []struct {
		name     string
		path     string
		opts     Options
		closeErr error
		want     string
	}{
		{name: "not found", path: "/missing", want: "status 404"},
		{name: "not an image", path: "/page", want: "not an image"},
		{name: "too large", path: "/big", opts: Options{MaxBytes: 16}, want: "exceeds 16 bytes"},
		{name: "write failure", path: "/cat.png", closeErr: &googleapi.Error{Code: http.StatusForbidden}, want: "finalize"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := NewUploader(&memBucket{closeErr: tt.closeErr}, tt.opts, nil)
			_, err := u.Upload(context.Background(), srv.URL+tt.path, "")
			require.ErrorContains(t, err, tt.want)
		})
	}
}
