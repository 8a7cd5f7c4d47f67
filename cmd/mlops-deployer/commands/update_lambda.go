package commands

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/careops/mlops-deployer/internal/artifact"
	"github.com/careops/mlops-deployer/internal/di"
	"github.com/careops/mlops-deployer/internal/services"
)

// UpdateLambdaCommand pushes fresh handler code to the deployed Lambda
// functions without touching the stacks.
func UpdateLambdaCommand(logger *zerolog.Logger) *cli.Command {
	flags := append(commonFlags(), dirFlags()...)
	flags = append(flags,
		&cli.StringSliceFlag{
			Name:  "handler",
			Usage: "handler short name to update (repeatable); default is all",
		},
	)

	return &cli.Command{
		Name:  "update-lambda",
		Usage: "Update Lambda handler code in place",
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

			selected := platformHandlers
			if names := c.StringSlice("handler"); len(names) > 0 {
				selected = selected[:0:0]
				for _, name := range names {
					h, ok := findHandler(name)
					if !ok {
						known := make([]string, 0, len(platformHandlers))
						for _, ph := range platformHandlers {
							known = append(known, ph.Short)
						}
						return fmt.Errorf("unknown handler %q, expected one of: %s", name, strings.Join(known, ", "))
					}
					selected = append(selected, h)
				}
			}

			lambda := di.MustGet[*services.LambdaService](container)
			for _, h := range selected {
				path := filepath.Join(cfg.LambdaDir, h.File)
				zipBytes, err := artifact.ZipFile(path, h.File)
				if err != nil {
					return fmt.Errorf("failed to package %s: %w", h.Short, err)
				}
				name := functionName(cfg, h.Short)
				sha, err := lambda.UpdateFunctionCode(ctx, name, zipBytes)
				if err != nil {
					return fmt.Errorf("failed to update %s: %w", name, err)
				}
				fmt.Printf("%s %s\n", name, sha)
			}
			return nil
		},
	}
}
