package commands

import (
	"fmt"
	"time"

	markdown "github.com/fbiville/markdown-table-formatter/pkg/markdown"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/careops/mlops-deployer/internal/dao/rundao"
	"github.com/careops/mlops-deployer/internal/di"
)

// RunsCommand lists the recorded deployment runs for an environment.
func RunsCommand(logger *zerolog.Logger) *cli.Command {
	flags := append(commonFlags(),
		&cli.IntFlag{
			Name:  "limit",
			Usage: "maximum number of runs to show",
			Value: 10,
		},
	)

	return &cli.Command{
		Name:  "runs",
		Usage: "Show recent deployment runs",
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

			dao := di.MustGet[*rundao.DAO](container)
			records, err := dao.Query(ctx, rundao.NewPK(cfg.BaseName, cfg.Env))
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Printf("No runs recorded for %s/%s\n", cfg.BaseName, cfg.Env)
				return nil
			}

			// KSUID sort keys come back ascending; show most recent first.
			limit := c.Int("limit")
			rows := make([][]string, 0, limit)
			for i := len(records) - 1; i >= 0 && len(rows) < limit; i-- {
				r := records[i]
				mode := "full"
				if r.Quick {
					mode = "quick"
				}
				rows = append(rows, []string{
					r.SK,
					time.Unix(r.StartedAt, 0).Format(time.RFC3339),
					mode,
					string(r.Status),
					r.Dataset,
				})
			}

			table, err := markdown.NewTableFormatterBuilder().
				WithPrettyPrint().
				Build("Run", "Started", "Mode", "Status", "Dataset").
				Format(rows)
			if err != nil {
				return err
			}
			fmt.Print(table)
			return nil
		},
	}
}
