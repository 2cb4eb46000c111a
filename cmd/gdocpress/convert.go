package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/yanchenhao57/gdocs-blog-publisher-sub001/internal/app"
	"github.com/yanchenhao57/gdocs-blog-publisher-sub001/internal/config"
	"github.com/yanchenhao57/gdocs-blog-publisher-sub001/internal/richtext"
)

func convertCmd(logger func() *slog.Logger) *cobra.Command {
	var ownedDomain string

	cmd := &cobra.Command{
		Use:   "convert <doc-id | file.docx>",
		Short: "Print the rich-text JSON of a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logger()
			cfg := config.Load()
			if ownedDomain != "" {
				cfg.OwnedDomain = ownedDomain
			}

			a, err := app.New(ctx, cfg, false, log)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			src, err := openSource(ctx, args[0], cfg, log)
			if err != nil {
				return err
			}
			tree, err := src.FetchTree(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), richtext.Encode(a.Converter.Convert(ctx, tree)))
		},
	}
	cmd.Flags().StringVar(&ownedDomain, "owned-domain", "", "domain whose links open in the same tab (default: OWNED_DOMAIN)")
	return cmd
}
