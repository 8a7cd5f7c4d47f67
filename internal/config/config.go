// Package config resolves deployment parameters once at startup and derives
// every platform resource name from them. Names follow fixed interpolation
// patterns so that re-running the deployer against the same environment always
// addresses the same resources.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds the flat set of deployment parameters threaded through every
// step of a run. CLI flags override the environment-sourced values.
type Config struct {
	Env      string `env:"ENV" envDefault:"dev"`
	Region   string `env:"AWS_REGION" envDefault:"us-east-1"`
	BaseName string `env:"PLATFORM_BASE_NAME" envDefault:"mlops-platform"`

	// Optional GitHub integration. When Token is empty the CI/CD and
	// frontend hosting steps are skipped entirely.
	GitHubToken  string `env:"GITHUB_TOKEN"`
	GitHubRepo   string `env:"GITHUB_REPO"`
	GitHubBranch string `env:"GITHUB_BRANCH" envDefault:"main"`

	TemplateDir string `env:"TEMPLATE_DIR" envDefault:"infrastructure"`
	LambdaDir   string `env:"LAMBDA_DIR" envDefault:"backend/lambda"`
	FrontendDir string `env:"FRONTEND_DIR" envDefault:"frontend"`

	// AccountID is resolved from STS at the start of a run, never from the
	// environment.
	AccountID string `env:"-"`
}

// Load builds a Config from the process environment.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	return &cfg, nil
}

// StackName returns the stack name for a platform component, e.g.
// mlops-platform-infrastructure-dev.
func (c *Config) StackName(component string) string {
	return fmt.Sprintf("%s-%s-%s", c.BaseName, component, c.Env)
}

// Component stack names.
func (c *Config) InfrastructureStack() string { return c.StackName("infrastructure") }
func (c *Config) CICDStack() string           { return c.StackName("cicd") }
func (c *Config) DataPipelineStack() string   { return c.StackName("data-pipeline") }
func (c *Config) FrontendStack() string       { return c.StackName("frontend") }

// DataBucket returns the globally unique dataset bucket name:
// {base}-data-{env}-{account}.
func (c *Config) DataBucket() string {
	return fmt.Sprintf("%s-data-%s-%s", c.BaseName, c.Env, c.AccountID)
}

// ModelBucket returns the model registry bucket name.
func (c *Config) ModelBucket() string {
	return fmt.Sprintf("%s-models-%s-%s", c.BaseName, c.Env, c.AccountID)
}

// WebBucket returns the static frontend hosting bucket name.
func (c *Config) WebBucket() string {
	return fmt.Sprintf("%s-web-%s-%s", c.BaseName, c.Env, c.AccountID)
}

// RunsTable returns the DynamoDB table that records deployment runs.
func (c *Config) RunsTable() string {
	return fmt.Sprintf("%s-deploy-runs-%s", c.BaseName, c.Env)
}

// TokenSecretName returns the Secrets Manager path for the GitHub token.
func (c *Config) TokenSecretName() string {
	return fmt.Sprintf("%s/%s/github-token", c.BaseName, c.Env)
}

// ParameterPrefix returns the SSM prefix under which resolved stack outputs
// are published for the platform's Lambda handlers.
func (c *Config) ParameterPrefix() string {
	return fmt.Sprintf("/%s/%s", c.BaseName, c.Env)
}

// HasGitHub reports whether the optional GitHub integration is configured.
func (c *Config) HasGitHub() bool {
	return c.GitHubToken != ""
}
