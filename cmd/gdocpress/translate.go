package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yanchenhao57/gdocs-blog-publisher-sub001/internal/app"
	"github.com/yanchenhao57/gdocs-blog-publisher-sub001/internal/config"
)

func translateCmd(logger func() *slog.Logger) *cobra.Command {
	var contentPath string
	var langs string
	var schemaPath string

	cmd := &cobra.Command{
		Use:   "translate --content content.json --lang ja,zh",
		Short: "Translate a story content tree into each language",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logger()
			cfg := config.Load()
			if schemaPath != "" {
				cfg.TranslationSchemaFile = schemaPath
			}
			if err := cfg.ValidateAI(); err != nil {
				return err
			}

			var languages []string
			for _, l := range strings.Split(langs, ",") {
				if l = strings.TrimSpace(l); l != "" {
					languages = append(languages, l)
				}
			}
			if len(languages) == 0 {
				return fmt.Errorf("--lang is required")
			}

			content, err := readContent(cmd.InOrStdin(), contentPath)
			if err != nil {
				return err
			}

			a, err := app.New(ctx, cfg, true, log)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			out, err := a.Translator.Translate(ctx, content, a.Schema, a.Templates, languages)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringVar(&contentPath, "content", "", "story content JSON file, or - for stdin")
	cmd.Flags().StringVar(&langs, "lang", "", "comma-separated target language codes")
	cmd.Flags().StringVar(&schemaPath, "schema", "", "YAML translation schema (default: TRANSLATION_SCHEMA_FILE or built-in)")
	cmd.MarkFlagRequired("content")
	cmd.MarkFlagRequired("lang")
	return cmd
}

func readContent(stdin io.Reader, path string) (map[string]any, error) {
	var raw []byte
	var err error
	if path == "-" {
		raw, err = io.ReadAll(stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read content: %w", err)
	}
	var content map[string]any
	if err := json.Unmarshal(raw, &content); err != nil {
		return nil, fmt.Errorf("parse content: %w", err)
	}
	if content == nil {
		return nil, fmt.Errorf("content must be a JSON object")
	}
	return content, nil
}
