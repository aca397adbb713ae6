package main

import (
	"github.com/spf13/cobra"

	"github.com/vango-dev/lessonvars/internal/errors"
	"github.com/vango-dev/lessonvars/pkg/registry"
)

func checkCmd() *cobra.Command {
	var region string

	cmd := &cobra.Command{
		Use:   "check <file|s3://bucket/key>",
		Short: "Validate a declaration document",
		Long: `Parse and validate a declaration document without serving it.

Duplicate names, unknown kinds, defaults outside their range and other
declaration errors are reported with their line.

Examples:
  lessonvars check lesson/variables.yaml
  lessonvars check s3://lessons/sine/variables.yaml --region=eu-west-1`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := registry.ParseLocation(args[0])
			if err != nil {
				return err
			}
			reg, err := loadLocation(cmd.Context(), loc, region)
			if err != nil {
				errors.Fprint(cmd.ErrOrStderr(), err)
				return errReported
			}
			success(cmd.OutOrStdout(), "%s declares %d variables", loc, reg.Len())
			return nil
		},
	}

	cmd.Flags().StringVar(&region, "region", "", "AWS region for s3:// sources")

	return cmd
}
