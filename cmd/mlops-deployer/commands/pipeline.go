package commands

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/sfn"
	"github.com/rs/zerolog"
	"github.com/segmentio/ksuid"
	"github.com/urfave/cli/v2"

	"github.com/careops/mlops-deployer/internal/config"
	"github.com/careops/mlops-deployer/internal/di"
	"github.com/careops/mlops-deployer/internal/services"
	"github.com/careops/mlops-deployer/internal/stack"
	"github.com/careops/mlops-deployer/internal/workflow"
)

// PipelineCommand starts and inspects prediction workflow executions.
func PipelineCommand(logger *zerolog.Logger) *cli.Command {
	return &cli.Command{
		Name:  "pipeline",
		Usage: "Operate the adherence prediction workflow",
		Subcommands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Start a prediction run over an uploaded dataset",
				Flags: append(commonFlags(),
					&cli.StringFlag{
						Name:     "dataset",
						Usage:    "dataset key in the data bucket, e.g. datasets/adherence.csv",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "model",
						Usage: "model name to predict with; empty selects the latest",
					},
				),
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

					wf, err := resolveWorkflow(ctx, container, cfg)
					if err != nil {
						return err
					}

					arn, err := wf.Start(ctx, workflow.PredictionInput{
						Env:        cfg.Env,
						DatasetKey: c.String("dataset"),
						ModelName:  c.String("model"),
						RunID:      ksuid.New().String(),
					})
					if err != nil {
						return err
					}
					fmt.Printf("Execution started: %s\n", arn)
					return nil
				},
			},
			{
				Name:      "status",
				Usage:     "Show the state of a prediction run",
				ArgsUsage: "<execution-arn>",
				Flags:     commonFlags(),
				Action: func(c *cli.Context) error {
					arn := c.Args().First()
					if arn == "" {
						return fmt.Errorf("execution ARN argument is required")
					}

					cfg, err := loadConfig(c)
					if err != nil {
						return err
					}
					container, err := newContainer(cfg)
					if err != nil {
						return err
					}
					ctx := logger.WithContext(c.Context)

					client := di.MustGet[*sfn.Client](container)
					wf := workflow.New(client, "")

					status, err := wf.Status(ctx, arn)
					if err != nil {
						return err
					}

					fmt.Printf("Status:  %s\n", status.Status)
					fmt.Printf("Started: %s\n", status.StartDate)
					if status.StopDate != nil {
						fmt.Printf("Stopped: %s\n", status.StopDate)
					}
					if status.Output != "" {
						fmt.Printf("Output:  %s\n", status.Output)
					}
					return nil
				},
			},
		},
	}
}

// resolveWorkflow finds the prediction state machine via the published SSM
// parameter, falling back to the data pipeline stack outputs.
func resolveWorkflow(ctx context.Context, container di.Container, cfg *config.Config) (*workflow.Workflow, error) {
	client := di.MustGet[*sfn.Client](container)

	store := di.MustGet[services.ParameterStore](container)
	if arn, err := store.GetParameter(ctx, cfg.ParameterPrefix()+"/StateMachineArn"); err == nil && arn != "" {
		return workflow.New(client, arn), nil
	}

	deployer := di.MustGet[*stack.Deployer](container)
	desc, err := deployer.Describe(ctx, cfg.DataPipelineStack())
	if err != nil {
		return nil, fmt.Errorf("prediction workflow not deployed: %w", err)
	}
	arn, err := desc.Outputs.Require("StateMachineArn")
	if err != nil {
		return nil, err
	}
	return workflow.New(client, arn), nil
}
