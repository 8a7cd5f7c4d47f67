package commands

import (
	"errors"
	"fmt"
	"sort"

	markdown "github.com/fbiville/markdown-table-formatter/pkg/markdown"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/careops/mlops-deployer/internal/di"
	platformerrors "github.com/careops/mlops-deployer/internal/errors"
	"github.com/careops/mlops-deployer/internal/report"
	"github.com/careops/mlops-deployer/internal/stack"
)

// StatusCommand reports the state of every platform stack and its outputs.
func StatusCommand(logger *zerolog.Logger) *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show the state of the platform stacks in an environment",
		Flags: commonFlags(),
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

			deployer := di.MustGet[*stack.Deployer](container)

			names := []string{
				cfg.InfrastructureStack(),
				cfg.CICDStack(),
				cfg.DataPipelineStack(),
				cfg.FrontendStack(),
			}

			rows := make([][]string, 0, len(names))
			merged := stack.Outputs{}
			for _, name := range names {
				desc, err := deployer.Describe(ctx, name)
				if err != nil {
					if errors.Is(err, platformerrors.ErrStackNotFound) {
						rows = append(rows, []string{name, report.NotDeployed, ""})
						continue
					}
					return err
				}
				rows = append(rows, []string{name, string(desc.Status), desc.StatusReason})
				merged.Merge(desc.Outputs)
			}

			table, err := markdown.NewTableFormatterBuilder().
				WithPrettyPrint().
				Build("Stack", "Status", "Reason").
				Format(rows)
			if err != nil {
				return err
			}
			fmt.Print(table)

			if len(merged) > 0 {
				keys := make([]string, 0, len(merged))
				for k := range merged {
					keys = append(keys, k)
				}
				sort.Strings(keys)

				outputRows := make([][]string, 0, len(keys))
				for _, k := range keys {
					outputRows = append(outputRows, []string{k, merged[k]})
				}
				outputTable, err := markdown.NewTableFormatterBuilder().
					WithPrettyPrint().
					Build("Output", "Value").
					Format(outputRows)
				if err != nil {
					return err
				}
				fmt.Printf("\n%s", outputTable)
			}
			return nil
		},
	}
}
