package commands

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/careops/mlops-deployer/internal/di"
	"github.com/careops/mlops-deployer/internal/services"
)

// PrereqCommand verifies the workstation can run a deployment: credentials,
// templates, handler sources, and the frontend toolchain.
func PrereqCommand(logger *zerolog.Logger) *cli.Command {
	flags := append(commonFlags(), githubFlags()...)
	flags = append(flags, dirFlags()...)

	return &cli.Command{
		Name:  "prereq",
		Usage: "Check deployment prerequisites",
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

			ok := color.New(color.FgGreen).Sprint("✓")
			fail := color.New(color.FgRed).Sprint("✗")
			warn := color.New(color.FgYellow).Sprint("-")

			failed := 0
			check := func(mandatory bool, name string, err error) {
				switch {
				case err == nil:
					fmt.Printf("%s %s\n", ok, name)
				case mandatory:
					fmt.Printf("%s %s: %v\n", fail, name, err)
					failed++
				default:
					fmt.Printf("%s %s: %v\n", warn, name, err)
				}
			}

			identity := di.MustGet[*services.IdentityService](container)
			id, err := identity.Resolve(ctx)
			if err != nil {
				check(true, "AWS credentials", err)
			} else {
				check(true, fmt.Sprintf("AWS credentials (account %s)", id.AccountID), nil)
			}

			for _, file := range []string{templateInfrastructure, templateCICD, templateDataPipeline, templateFrontend} {
				_, err := readTemplate(cfg, file)
				// Only the core templates are mandatory.
				mandatory := file == templateInfrastructure || file == templateDataPipeline
				check(mandatory, "template "+file, err)
			}

			for _, h := range platformHandlers {
				_, err := os.Stat(filepath.Join(cfg.LambdaDir, h.File))
				check(false, "handler "+h.File, err)
			}

			_, err = exec.LookPath("npm")
			check(false, "npm on PATH", err)

			if cfg.HasGitHub() {
				check(false, "GITHUB_TOKEN", nil)
			} else {
				check(false, "GITHUB_TOKEN", fmt.Errorf("not set; CI/CD and frontend hosting will be skipped"))
			}

			if failed > 0 {
				return fmt.Errorf("%d mandatory prerequisite(s) failed", failed)
			}
			return nil
		},
	}
}
