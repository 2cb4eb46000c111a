// Package storage copies document images into a public Cloud Storage bucket.
package storage

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path"
	"strings"
	"time"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const (
	DefaultMaxBytes = 20 << 20
	cacheControl    = "public, max-age=31536000, immutable"
)

// Attrs are set on a new object.
type Attrs struct {
	ContentType  string
	CacheControl string
	Metadata     map[string]string
}

// Bucket creates objects. Writers must not overwrite an existing object;
// Close reports that case as a precondition failure.
type Bucket interface {
	NewWriter(ctx context.Context, name string, attrs Attrs) io.WriteCloser
}

type gcsBucket struct {
	h *gcs.BucketHandle
}

func (b gcsBucket) NewWriter(ctx context.Context, name string, attrs Attrs) io.WriteCloser {
	w := b.h.Object(name).If(gcs.Conditions{DoesNotExist: true}).NewWriter(ctx)
	w.ContentType = attrs.ContentType
	w.CacheControl = attrs.CacheControl
	w.Metadata = attrs.Metadata
	return w
}

// OpenBucket connects to Cloud Storage. An empty credentialsFile uses
// application default credentials. The caller closes the client.
func OpenBucket(ctx context.Context, credentialsFile, bucket string) (*gcs.Client, Bucket, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("storage client: %w", err)
	}
	return client, gcsBucket{h: client.Bucket(bucket)}, nil
}

type Options struct {
	// Prefix is prepended to object names.
	Prefix string
	// PublicBaseURL is where objects are served from, without a trailing
	// slash.
	PublicBaseURL string
	MaxBytes      int64
	HTTPClient    *http.Client
}

// Uploader downloads an image and stores it under a content-addressed name,
// so uploading the same image twice yields the same URL.
type Uploader struct {
	bucket Bucket
	opts   Options
	log    *slog.Logger
}

func NewUploader(bucket Bucket, opts Options, log *slog.Logger) *Uploader {
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxBytes
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	opts.PublicBaseURL = strings.TrimRight(opts.PublicBaseURL, "/")
	opts.Prefix = strings.Trim(opts.Prefix, "/")
	if log == nil {
		log = slog.Default()
	}
	return &Uploader{bucket: bucket, opts: opts, log: log}
}

// Upload copies sourceURI into the bucket and returns its public URL.
func (u *Uploader) Upload(ctx context.Context, sourceURI, alt string) (string, error) {
	data, contentType, err := u.download(ctx, sourceURI)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(data)
	name := hex.EncodeToString(sum[:])[:16] + extension(contentType)
	if u.opts.Prefix != "" {
		name = path.Join(u.opts.Prefix, name)
	}

	attrs := Attrs{ContentType: contentType, CacheControl: cacheControl}
	if alt != "" {
		attrs.Metadata = map[string]string{"alt": alt}
	}
	w := u.bucket.NewWriter(ctx, name, attrs)
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		if !alreadyExists(err) {
			return "", fmt.Errorf("finalize %s: %w", name, err)
		}
		u.log.Debug("image already uploaded", "object", name)
	}
	return u.opts.PublicBaseURL + "/" + name, nil
}

func (u *Uploader) download(ctx context.Context, uri string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, "", fmt.Errorf("image request: %w", err)
	}
	resp, err := u.opts.HTTPClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, "", fmt.Errorf("download image: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, u.opts.MaxBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("read image: %w", err)
	}
	if int64(len(data)) > u.opts.MaxBytes {
		return nil, "", fmt.Errorf("image exceeds %d bytes", u.opts.MaxBytes)
	}

	contentType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if !strings.HasPrefix(contentType, "image/") {
		contentType = http.DetectContentType(data)
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, "", fmt.Errorf("not an image: %s", contentType)
	}
	return data, contentType, nil
}

func alreadyExists(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusPreconditionFailed
}

var extensions = map[string]string{
	"image/png":     ".png",
	"image/jpeg":    ".jpg",
	"image/gif":     ".gif",
	"image/webp":    ".webp",
	"image/svg+xml": ".svg",
	"image/bmp":     ".bmp",
}

func extension(contentType string) string {
	if ext, ok := extensions[contentType]; ok {
		return ext
	}
	return ""
}
