package main

import (
	"context"
	"os"

	"github.com/careops/mlops-deployer/cmd/mlops-deployer/commands"
	"github.com/careops/mlops-deployer/internal/di"
	"github.com/urfave/cli/v2"
)

func main() {
	logger := di.ProvideLogger()
	ctx := logger.WithContext(context.Background())

	app := &cli.App{
		Name:  "mlops-deployer",
		Usage: "Deployment automation for the medication-adherence MLOps platform",
		Description: `Provisions and operates the platform's AWS footprint.

This tool provides commands for:
  - Deploying the infrastructure, CI/CD, and data-pipeline stacks
  - Updating Lambda handler code and uploading datasets
  - Building and hosting the web frontend
  - Running the prediction workflow and inspecting deployments`,
		Commands: []*cli.Command{
			commands.DeployCommand(&logger),
			commands.StatusCommand(&logger),
			commands.UploadDatasetCommand(&logger),
			commands.UpdateLambdaCommand(&logger),
			commands.PipelineCommand(&logger),
			commands.FrontendCommand(&logger),
			commands.PrereqCommand(&logger),
			commands.RunsCommand(&logger),
			commands.TeardownCommand(&logger),
		},
	}

	if err := app.RunContext(ctx, os.Args); err != nil {
		logger.Error().Err(err).Msg("Application error")
		os.Exit(1)
	}
}
