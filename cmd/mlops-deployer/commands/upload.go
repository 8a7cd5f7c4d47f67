package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/careops/mlops-deployer/internal/datasets"
	"github.com/careops/mlops-deployer/internal/di"
	"github.com/careops/mlops-deployer/internal/prompt"
	"github.com/careops/mlops-deployer/internal/services"
	"github.com/careops/mlops-deployer/internal/stack"
)

// UploadDatasetCommand uploads a patient adherence dataset to the data bucket
// and starts the ETL job over it.
func UploadDatasetCommand(logger *zerolog.Logger) *cli.Command {
	flags := append(commonFlags(),
		&cli.StringFlag{
			Name:  "file",
			Usage: "dataset to upload; when omitted, .csv files in the working directory are offered",
		},
		&cli.BoolFlag{
			Name:  "no-etl",
			Usage: "upload only, without starting the ETL job",
		},
	)

	return &cli.Command{
		Name:  "upload-dataset",
		Usage: "Upload a dataset to the platform data bucket",
		Flags: flags,
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			container, err := newContainer(cfg)
			if err != nil {
				return err
			}
			ctx := logger.WithContext(c.Context)

			identity := di.MustGet[*services.IdentityService](container)
			id, err := identity.Resolve(ctx)
			if err != nil {
				return err
			}
			cfg.AccountID = id.AccountID

			path := c.String("file")
			if path == "" {
				candidates, err := datasets.Discover(".", ".csv")
				if err != nil {
					return err
				}
				if len(candidates) == 0 {
					return fmt.Errorf("no .csv files found in the working directory")
				}
				labels := make([]string, 0, len(candidates))
				for _, cand := range candidates {
					labels = append(labels, cand.Label())
				}
				idx := prompt.Select(os.Stdin, os.Stdout, "Select a dataset to upload", labels)
				if idx == prompt.Skipped {
					fmt.Println("Upload cancelled.")
					return nil
				}
				path = candidates[idx].Path
			}

			if _, err := os.Stat(path); err != nil {
				return fmt.Errorf("dataset %s: %w", path, err)
			}

			s3 := di.MustGet[*services.S3Service](container)
			bucket := cfg.DataBucket()
			key := "datasets/" + filepath.Base(path)
			if err := s3.UploadFile(ctx, bucket, key, path); err != nil {
				return err
			}
			fmt.Printf("Uploaded s3://%s/%s\n", bucket, key)

			if c.Bool("no-etl") {
				return nil
			}

			deployer := di.MustGet[*stack.Deployer](container)
			desc, err := deployer.Describe(ctx, cfg.DataPipelineStack())
			if err != nil {
				logger.Warn().Err(err).Msg("Data pipeline stack unavailable, skipping ETL")
				return nil
			}
			jobName, ok := desc.Outputs.Get("GlueJobName")
			if !ok {
				logger.Warn().Msg("Data pipeline stack exports no ETL job, skipping")
				return nil
			}

			glue := di.MustGet[*services.GlueService](container)
			runID, err := glue.StartJob(ctx, jobName, map[string]string{
				"--dataset_key": key,
				"--environment": cfg.Env,
			})
			if err != nil {
				return fmt.Errorf("failed to start ETL job %s: %w", jobName, err)
			}
			fmt.Printf("ETL job %s started (run %s)\n", jobName, runID)
			return nil
		},
	}
}
