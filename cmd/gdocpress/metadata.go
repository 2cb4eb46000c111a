package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yanchenhao57/gdocs-blog-publisher-sub001/internal/app"
	"github.com/yanchenhao57/gdocs-blog-publisher-sub001/internal/config"
	"github.com/yanchenhao57/gdocs-blog-publisher-sub001/internal/extract"
)

func metadataCmd(logger func() *slog.Logger) *cobra.Command {
	var lang string
	var fallback bool

	cmd := &cobra.Command{
		Use:   "metadata <doc-id | file.md | file.docx>",
		Short: "Print the SEO metadata of an article",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logger()
			cfg := config.Load()

			text, err := articleText(ctx, args[0], cfg, log)
			if err != nil {
				return err
			}

			if fallback {
				return printJSON(cmd.OutOrStdout(), map[string]any{
					"metadata": extract.Fallback(text, lang),
					"ai":       false,
				})
			}

			if err := cfg.ValidateAI(); err != nil {
				return fmt.Errorf("%w (use --fallback to skip the model)", err)
			}
			a, err := app.New(ctx, cfg, true, log)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			m, aiUsed := a.Extractor.Generate(ctx, text, lang)
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"metadata": m,
				"ai":       aiUsed,
			})
		},
	}
	cmd.Flags().StringVar(&lang, "lang", "", "article language code (default: detected)")
	cmd.Flags().BoolVar(&fallback, "fallback", false, "use the heuristic generator only")
	return cmd
}

// articleText returns the Markdown of a local .md file or the rendered text
// of a document.
func articleText(ctx context.Context, arg string, cfg config.Config, log *slog.Logger) (string, error) {
	if ext := strings.ToLower(filepath.Ext(arg)); ext == ".md" || ext == ".markdown" {
		raw, err := os.ReadFile(arg)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", arg, err)
		}
		return string(raw), nil
	}
	src, err := openSource(ctx, arg, cfg, log)
	if err != nil {
		return "", err
	}
	return src.FetchRenderedText(ctx, arg)
}
