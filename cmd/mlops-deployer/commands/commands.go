// Package commands implements the mlops-deployer CLI commands.
package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/careops/mlops-deployer/internal/config"
	"github.com/careops/mlops-deployer/internal/di"
	platformerrors "github.com/careops/mlops-deployer/internal/errors"
	"github.com/careops/mlops-deployer/internal/stack"
)

// Stack template files under the template directory, one per component.
const (
	templateInfrastructure = "infrastructure.yaml"
	templateCICD           = "cicd.yaml"
	templateDataPipeline   = "data-pipeline.yaml"
	templateFrontend       = "frontend.yaml"
)

// commonFlags are shared by every command that targets an environment.
func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "env",
			Usage:   "deployment environment (dev, staging, prod)",
			EnvVars: []string{"ENV"},
		},
		&cli.StringFlag{
			Name:    "region",
			Usage:   "AWS region",
			EnvVars: []string{"AWS_REGION"},
		},
		&cli.StringFlag{
			Name:    "base-name",
			Usage:   "resource name prefix",
			EnvVars: []string{"PLATFORM_BASE_NAME"},
		},
	}
}

func githubFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "github-token",
			Usage:   "GitHub token enabling the CI/CD and frontend steps",
			EnvVars: []string{"GITHUB_TOKEN"},
		},
		&cli.StringFlag{
			Name:    "github-repo",
			Usage:   "GitHub repository as owner/name",
			EnvVars: []string{"GITHUB_REPO"},
		},
		&cli.StringFlag{
			Name:    "github-branch",
			Usage:   "branch deployed by the CI/CD pipeline",
			EnvVars: []string{"GITHUB_BRANCH"},
		},
	}
}

func dirFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "template-dir",
			Usage:   "directory holding the stack templates",
			EnvVars: []string{"TEMPLATE_DIR"},
		},
		&cli.StringFlag{
			Name:    "lambda-dir",
			Usage:   "directory holding the Lambda handler sources",
			EnvVars: []string{"LAMBDA_DIR"},
		},
		&cli.StringFlag{
			Name:    "frontend-dir",
			Usage:   "directory holding the web frontend",
			EnvVars: []string{"FRONTEND_DIR"},
		},
	}
}

// loadConfig builds the run configuration from the environment with CLI flag
// overrides applied.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	overrides := map[string]*string{
		"env":           &cfg.Env,
		"region":        &cfg.Region,
		"base-name":     &cfg.BaseName,
		"github-token":  &cfg.GitHubToken,
		"github-repo":   &cfg.GitHubRepo,
		"github-branch": &cfg.GitHubBranch,
		"template-dir":  &cfg.TemplateDir,
		"lambda-dir":    &cfg.LambdaDir,
		"frontend-dir":  &cfg.FrontendDir,
	}
	for name, target := range overrides {
		if v := c.String(name); v != "" {
			*target = v
		}
	}

	return cfg, nil
}

// newContainer builds the dependency injection container seeded with the
// resolved configuration.
func newContainer(cfg *config.Config) (di.Container, error) {
	return di.New(di.WithProviders(
		func() *config.Config { return cfg },
	))
}

// readTemplate loads a stack template body from the template directory.
func readTemplate(cfg *config.Config, file string) (string, error) {
	path := filepath.Join(cfg.TemplateDir, file)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", platformerrors.ErrTemplateNotFound, path)
		}
		return "", fmt.Errorf("failed to read template %s: %w", path, err)
	}
	return string(data), nil
}

// deployStack runs a create-or-update and returns the stack's outputs. A
// no-op update skips waiting and describes the existing stack instead.
func deployStack(ctx context.Context, deployer *stack.Deployer, name, templateBody string, params map[string]string) (stack.Outputs, error) {
	result, err := deployer.Deploy(ctx, name, templateBody, params)
	if err != nil {
		return nil, err
	}
	if result.Operation == stack.OperationNone {
		desc, err := deployer.Describe(ctx, name)
		if err != nil {
			return nil, err
		}
		return desc.Outputs, nil
	}
	desc, err := deployer.Wait(ctx, name)
	if err != nil {
		return nil, err
	}
	return desc.Outputs, nil
}

// splitRepo splits an owner/name repository reference.
func splitRepo(repo string) (owner, name string, err error) {
	parts := strings.SplitN(repo, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repository %q, expected owner/name", repo)
	}
	return parts[0], parts[1], nil
}
