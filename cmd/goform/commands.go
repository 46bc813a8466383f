package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	goform "github.com/reoring/goform"
	"github.com/reoring/goform/middleware"
	"github.com/reoring/goform/schemafile"
)

func (a *app) parseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse <payload|file|->",
		Short: "Expand a flat form payload into a data tree",
		Example: `  goform parse 'authors[0].name=Ada&pets=cat&pets=dog'
  goform parse submission.txt`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				tree map[string]any
				err  error
			)
			if strings.Contains(args[0], "=") {
				tree, err = parsePayload(args[0])
			} else {
				tree, err = readData(args[0], cmd.InOrStdin())
			}
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), tree)
		},
	}
}

func (a *app) validateCmd() *cobra.Command {
	var schemaPath string
	cmd := &cobra.Command{
		Use:   "validate --schema <schema> <data|->",
		Short: "Validate a submission; exits non-zero when it is invalid",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, err := schemafile.Load(schemaPath)
			if err != nil {
				return err
			}
			tree, err := readData(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}
			res, err := goform.Validate(cmd.Context(), schema, tree)
			if err != nil {
				return err
			}
			if !res.OK {
				a.logger.Debug("validation failed", zap.Int("errors", len(res.Errors)))
				if err := writeJSON(cmd.OutOrStdout(), middleware.Payload(res)); err != nil {
					return err
				}
				return errInvalid
			}
			return writeJSON(cmd.OutOrStdout(), res.Data)
		},
	}
	cmd.Flags().StringVarP(&schemaPath, "schema", "s", "", "schema file (.yaml, .yml, .json or .hcl)")
	_ = cmd.MarkFlagRequired("schema")
	return cmd
}

func (a *app) jsonSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "jsonschema <schema>",
		Short: "Print the JSON Schema of a declared form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, err := schemafile.Load(args[0])
			if err != nil {
				return err
			}
			doc, err := schema.JSONSchema()
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), doc)
		},
	}
}

func (a *app) watchCmd() *cobra.Command {
	var schemaPath string
	cmd := &cobra.Command{
		Use:   "watch --schema <schema> <data>",
		Short: "Revalidate a data file whenever it or the schema changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			w, err := newWatcher(schemaPath, args[0], cmd.OutOrStdout(), a.logger)
			if err != nil {
				return err
			}
			defer w.Close()
			return w.Run(ctx)
		},
	}
	cmd.Flags().StringVarP(&schemaPath, "schema", "s", "", "schema file (.yaml, .yml, .json or .hcl)")
	_ = cmd.MarkFlagRequired("schema")
	return cmd
}

func errorLines(errs []goform.ValidationError) string {
	if len(errs) == 0 {
		return "ok"
	}
	var b strings.Builder
	for i, e := range errs {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s: %s", e.Path, e.Message)
	}
	return b.String()
}
