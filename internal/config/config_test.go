package config

import "testing"

func TestDerivedNames(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		get  func(*Config) string
		want string
	}{
		{
			name: "data bucket includes env and account",
			cfg:  Config{BaseName: "mlops-platform", Env: "dev", AccountID: "123456789012"},
			get:  (*Config).DataBucket,
			want: "mlops-platform-data-dev-123456789012",
		},
		{
			name: "model bucket",
			cfg:  Config{BaseName: "mlops-platform", Env: "prod", AccountID: "999999999999"},
			get:  (*Config).ModelBucket,
			want: "mlops-platform-models-prod-999999999999",
		},
		{
			name: "web bucket",
			cfg:  Config{BaseName: "mlops-platform", Env: "dev", AccountID: "123456789012"},
			get:  (*Config).WebBucket,
			want: "mlops-platform-web-dev-123456789012",
		},
		{
			name: "infrastructure stack",
			cfg:  Config{BaseName: "mlops-platform", Env: "dev"},
			get:  (*Config).InfrastructureStack,
			want: "mlops-platform-infrastructure-dev",
		},
		{
			name: "data pipeline stack",
			cfg:  Config{BaseName: "mlops-platform", Env: "staging"},
			get:  (*Config).DataPipelineStack,
			want: "mlops-platform-data-pipeline-staging",
		},
		{
			name: "runs table",
			cfg:  Config{BaseName: "mlops-platform", Env: "dev"},
			get:  (*Config).RunsTable,
			want: "mlops-platform-deploy-runs-dev",
		},
		{
			name: "token secret path",
			cfg:  Config{BaseName: "mlops-platform", Env: "dev"},
			get:  (*Config).TokenSecretName,
			want: "mlops-platform/dev/github-token",
		},
		{
			name: "parameter prefix",
			cfg:  Config{BaseName: "mlops-platform", Env: "dev"},
			get:  (*Config).ParameterPrefix,
			want: "/mlops-platform/dev",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.get(&tt.cfg); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHasGitHub(t *testing.T) {
	cfg := Config{}
	if cfg.HasGitHub() {
		t.Error("HasGitHub() = true with no token")
	}
	cfg.GitHubToken = "ghp_example"
	if !cfg.HasGitHub() {
		t.Error("HasGitHub() = false with token set")
	}
}
