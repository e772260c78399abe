package main

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vango-dev/gated/internal/config"
	"github.com/vango-dev/gated/internal/errors"
)

func initCmd() *cobra.Command {
	var (
		dir     string
		backend string
		bucket  string
		force   bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default gated.json",
		Long: `Write a gated.json with default settings.

The memory backend is seeded with a few sample objects so that
"gated serve" works straight away.

Examples:
  gated init
  gated init --backend=s3 --bucket=my-assets`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := filepath.Join(dir, config.ConfigFileName)
			if config.Exists(dir) && !force {
				return errors.New(errors.CodeConfigInvalid).
					WithDetail(path + " already exists").
					WithSuggestion("Pass --force to overwrite it")
			}

			cfg := config.New()
			cfg.Catalog.Backend = backend
			cfg.Catalog.Bucket = bucket
			if backend == config.BackendMemory {
				cfg.Catalog.Seed = []string{
					"docs/guide.md=18432",
					"docs/intro.md=2048",
					"images/logo.png=40960",
					"reports/2024/q1.csv=512000",
				}
			}
			if backend == config.BackendS3 {
				cfg.Catalog.Region = "us-east-1"
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := cfg.SaveTo(path); err != nil {
				return err
			}

			success(cmd.OutOrStdout(), "Wrote %s", path)
			info(cmd.OutOrStdout(), "Run 'gated serve' to start the server")
			return nil
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "Directory to write gated.json into")
	cmd.Flags().StringVar(&backend, "backend", config.BackendMemory, "Catalog backend: memory or s3")
	cmd.Flags().StringVar(&bucket, "bucket", "", "S3 bucket (s3 backend)")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing gated.json")

	return cmd
}
