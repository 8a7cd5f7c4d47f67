package commands

import (
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/careops/mlops-deployer/internal/di"
	"github.com/careops/mlops-deployer/internal/frontend"
	"github.com/careops/mlops-deployer/internal/services"
	"github.com/careops/mlops-deployer/internal/stack"
)

// FrontendCommand rebuilds the web frontend against the deployed API and
// republishes it, without touching the stacks.
func FrontendCommand(logger *zerolog.Logger) *cli.Command {
	flags := append(commonFlags(), dirFlags()...)
	flags = append(flags,
		&cli.BoolFlag{
			Name:  "skip-install",
			Usage: "reuse node_modules instead of reinstalling",
		},
		&cli.StringFlag{
			Name:  "branch",
			Usage: "hosting branch to release",
			Value: "main",
		},
	)

	return &cli.Command{
		Name:  "frontend",
		Usage: "Build and publish the web frontend",
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

			deployer := di.MustGet[*stack.Deployer](container)
			infra, err := deployer.Describe(ctx, cfg.InfrastructureStack())
			if err != nil {
				return fmt.Errorf("infrastructure stack required before publishing the frontend: %w", err)
			}
			endpoint, err := infra.Outputs.Require("ApiEndpoint")
			if err != nil {
				return err
			}

			if err := frontend.WriteEnv(cfg.FrontendDir, endpoint); err != nil {
				return err
			}
			if err := frontend.Build(ctx, cfg.FrontendDir, !c.Bool("skip-install")); err != nil {
				return err
			}

			s3 := di.MustGet[*services.S3Service](container)
			count, err := s3.UploadDir(ctx, cfg.WebBucket(), "", filepath.Join(cfg.FrontendDir, frontend.DistDir))
			if err != nil {
				return err
			}
			fmt.Printf("Uploaded %d files to s3://%s\n", count, cfg.WebBucket())

			hosting, err := deployer.Describe(ctx, cfg.FrontendStack())
			if err != nil {
				logger.Warn().Err(err).Msg("Frontend stack unavailable, skipping hosting release")
				return nil
			}
			if appID, ok := hosting.Outputs.Get("AmplifyAppId"); ok && appID != "" {
				amplify := di.MustGet[*services.AmplifyService](container)
				jobID, err := amplify.StartRelease(ctx, appID, c.String("branch"))
				if err != nil {
					return fmt.Errorf("failed to start hosting release: %w", err)
				}
				fmt.Printf("Hosting release started (job %s)\n", jobID)
			}
			if url, ok := hosting.Outputs.Get("FrontendURL"); ok {
				fmt.Printf("Frontend URL: %s\n", url)
			}
			return nil
		},
	}
}
