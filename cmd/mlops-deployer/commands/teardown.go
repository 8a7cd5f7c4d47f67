package commands

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/careops/mlops-deployer/internal/di"
	"github.com/careops/mlops-deployer/internal/prompt"
	"github.com/careops/mlops-deployer/internal/stack"
)

// TeardownCommand deletes the platform stacks in reverse dependency order.
// Buckets with retained data survive stack deletion and are left untouched.
func TeardownCommand(logger *zerolog.Logger) *cli.Command {
	flags := append(commonFlags(),
		&cli.BoolFlag{
			Name:    "yes",
			Aliases: []string{"y"},
			Usage:   "skip the confirmation prompt",
		},
	)

	return &cli.Command{
		Name:  "teardown",
		Usage: "Delete the platform stacks in an environment",
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

			if !c.Bool("yes") {
				question := fmt.Sprintf("Delete all %s stacks in %s?", cfg.BaseName, cfg.Env)
				if !prompt.Confirm(os.Stdin, os.Stdout, question) {
					fmt.Println("Teardown cancelled.")
					return nil
				}
			}

			deployer := di.MustGet[*stack.Deployer](container)

			// Reverse of the deploy order so dependents go first.
			names := []string{
				cfg.FrontendStack(),
				cfg.DataPipelineStack(),
				cfg.CICDStack(),
				cfg.InfrastructureStack(),
			}
			for _, name := range names {
				if err := deployer.Delete(ctx, name); err != nil {
					return fmt.Errorf("failed to delete %s: %w", name, err)
				}
				fmt.Printf("Deleted %s\n", name)
			}
			return nil
		},
	}
}
