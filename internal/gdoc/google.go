package gdoc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/JohannesKaufmann/dom"
	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"golang.org/x/net/html"
	"google.golang.org/api/docs/v1"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const maxExportBytes = 20 << 20

// GoogleSource reads documents through the Docs API and renders them through
// the Drive HTML export.
type GoogleSource struct {
	docs  *docs.Service
	drive *drive.Service
	md    *converter.Converter
	log   *slog.Logger
}

// NewGoogleSource builds the API clients. With an empty credentialsFile the
// application default credentials are used.
func NewGoogleSource(ctx context.Context, credentialsFile string, log *slog.Logger) (*GoogleSource, error) {
	opts := []option.ClientOption{
		option.WithScopes(docs.DocumentsReadonlyScope, drive.DriveReadonlyScope),
	}
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	docsSvc, err := docs.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("docs service: %w", err)
	}
	driveSvc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("drive service: %w", err)
	}

	return &GoogleSource{
		docs:  docsSvc,
		drive: driveSvc,
		md:    newMarkdownConverter(),
		log:   log,
	}, nil
}

func (s *GoogleSource) FetchTree(ctx context.Context, id string) (*Document, error) {
	doc, err := s.docs.Documents.Get(id).Context(ctx).Do()
	if err != nil {
		return nil, mapAPIError("get document "+id, err)
	}
	return FromAPI(doc), nil
}

// FetchRenderedText exports the document as HTML and converts it to
// Markdown. When the export fails the source tree is rendered instead.
func (s *GoogleSource) FetchRenderedText(ctx context.Context, id string) (string, error) {
	text, err := s.exportMarkdown(ctx, id)
	if err == nil {
		return text, nil
	}
	if errors.Is(err, ErrNotFound) {
		return "", err
	}

	s.log.Warn("html export failed, rendering source tree", "doc_id", id, "error", err)
	doc, treeErr := s.FetchTree(ctx, id)
	if treeErr != nil {
		return "", treeErr
	}
	return Markdown(doc), nil
}

func (s *GoogleSource) exportMarkdown(ctx context.Context, id string) (string, error) {
	resp, err := s.drive.Files.Export(id, "text/html").Context(ctx).Download()
	if err != nil {
		return "", mapAPIError("export document "+id, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("export document %s: status %d", id, resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxExportBytes))
	if err != nil {
		return "", fmt.Errorf("read export: %w", err)
	}

	md, err := s.md.ConvertString(string(raw))
	if err != nil {
		return "", fmt.Errorf("convert export: %w", err)
	}
	return strings.TrimSpace(md), nil
}

// newMarkdownConverter renders the Drive export. Exported images point at
// short-lived googleusercontent URLs, so only their alt text is kept.
func newMarkdownConverter() *converter.Converter {
	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
		),
	)
	conv.Register.RendererFor("img", converter.TagTypeInline,
		func(ctx converter.Context, w converter.Writer, n *html.Node) converter.RenderStatus {
			alt := strings.TrimSpace(dom.GetAttributeOr(n, "alt", ""))
			if alt != "" {
				w.WriteString(alt)
			}
			return converter.RenderSuccess
		},
		converter.PriorityEarly,
	)
	return conv
}

func mapAPIError(op string, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return fmt.Errorf("%s: %w", op, err)
}
