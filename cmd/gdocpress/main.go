package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yanchenhao57/gdocs-blog-publisher-sub001/internal/config"
	"github.com/yanchenhao57/gdocs-blog-publisher-sub001/internal/gdoc"
)

func main() {
	var verbose bool
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	root := &cobra.Command{
		Use:           "gdocpress",
		Short:         "Convert, describe and translate Google Docs articles locally",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				log = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
			}
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log progress to stderr")

	logger := func() *slog.Logger { return log }
	root.AddCommand(convertCmd(logger), metadataCmd(logger), translateCmd(logger))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// openSource picks the document source for arg: a local .docx file or a
// Google Docs id.
func openSource(ctx context.Context, arg string, cfg config.Config, log *slog.Logger) (gdoc.Source, error) {
	if strings.EqualFold(filepath.Ext(arg), ".docx") {
		return gdoc.DocxSource{}, nil
	}
	return gdoc.NewGoogleSource(ctx, cfg.GoogleCredentialsFile, log)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
