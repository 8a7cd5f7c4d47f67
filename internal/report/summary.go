// Package report renders the deployment summary: a flat text file written to
// the working directory plus a condensed terminal digest.
package report

import (
	"fmt"
	"os"
	"strings"
	"time"

	markdown "github.com/fbiville/markdown-table-formatter/pkg/markdown"
)

// NotDeployed is the placeholder substituted for optional components that
// were skipped or failed.
const NotDeployed = "Not deployed"

// DefaultFileName is where Write stores the summary by default.
const DefaultFileName = "deployment-summary.txt"

// Summary accumulates every resolved value of a deployment run.
type Summary struct {
	Env       string
	Region    string
	AccountID string
	RunID     string
	Quick     bool
	StartedAt time.Time

	InfrastructureStack string
	DataPipelineStack   string
	CICDStack           string // NotDeployed when skipped
	FrontendStack       string // NotDeployed when skipped

	APIEndpoint     string
	DataBucket      string
	ModelBucket     string
	StateMachineArn string

	Dataset      string // uploaded dataset key, or empty when skipped
	FrontendURL  string
	LambdaResult string

	StepLines []string // one "status name" line per executed step
}

// OutputsTable renders the resolved stack outputs as a markdown table.
func (s *Summary) OutputsTable() (string, error) {
	rows := [][]string{
		{"ApiEndpoint", valueOr(s.APIEndpoint, NotDeployed)},
		{"DataBucketName", valueOr(s.DataBucket, NotDeployed)},
		{"ModelBucketName", valueOr(s.ModelBucket, NotDeployed)},
		{"StateMachineArn", valueOr(s.StateMachineArn, NotDeployed)},
	}
	return markdown.NewTableFormatterBuilder().
		WithPrettyPrint().
		Build("Output", "Value").
		Format(rows)
}

// Render produces the full summary text.
func (s *Summary) Render() string {
	var b strings.Builder

	mode := "full"
	if s.Quick {
		mode = "quick"
	}

	fmt.Fprintf(&b, "MLOps Platform Deployment Summary\n")
	fmt.Fprintf(&b, "=================================\n\n")
	fmt.Fprintf(&b, "Run:         %s (%s)\n", s.RunID, mode)
	fmt.Fprintf(&b, "Date:        %s\n", s.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "Environment: %s\n", s.Env)
	fmt.Fprintf(&b, "Region:      %s\n", s.Region)
	fmt.Fprintf(&b, "Account:     %s\n\n", s.AccountID)

	fmt.Fprintf(&b, "Stacks\n------\n")
	fmt.Fprintf(&b, "Infrastructure: %s\n", valueOr(s.InfrastructureStack, NotDeployed))
	fmt.Fprintf(&b, "Data pipeline:  %s\n", valueOr(s.DataPipelineStack, NotDeployed))
	fmt.Fprintf(&b, "CI/CD:          %s\n", valueOr(s.CICDStack, NotDeployed))
	fmt.Fprintf(&b, "Frontend:       %s\n\n", valueOr(s.FrontendStack, NotDeployed))

	if table, err := s.OutputsTable(); err == nil {
		fmt.Fprintf(&b, "Outputs\n-------\n%s\n", table)
	}

	fmt.Fprintf(&b, "Lambda code:    %s\n", valueOr(s.LambdaResult, "not updated"))
	if s.Dataset != "" {
		fmt.Fprintf(&b, "Dataset:        s3://%s/%s\n", s.DataBucket, s.Dataset)
	} else {
		fmt.Fprintf(&b, "Dataset:        skipped (upload manually: aws s3 cp <file> s3://%s/datasets/)\n", valueOr(s.DataBucket, "<data-bucket>"))
	}
	fmt.Fprintf(&b, "Frontend URL:   %s\n\n", valueOr(s.FrontendURL, NotDeployed))

	if len(s.StepLines) > 0 {
		fmt.Fprintf(&b, "Steps\n-----\n")
		for _, line := range s.StepLines {
			fmt.Fprintf(&b, "%s\n", line)
		}
		fmt.Fprintf(&b, "\n")
	}

	fmt.Fprintf(&b, "Next steps\n----------\n")
	if s.APIEndpoint != "" {
		fmt.Fprintf(&b, "- Smoke test the API: curl %s/dashboard\n", s.APIEndpoint)
	}
	if s.CICDStack == NotDeployed {
		fmt.Fprintf(&b, "- Set GITHUB_TOKEN and re-run deploy to enable the CI/CD pipeline\n")
	}
	if s.Dataset != "" {
		fmt.Fprintf(&b, "- Start a prediction run: mlops-deployer pipeline run --dataset %s\n", s.Dataset)
	}

	return b.String()
}

// Digest is the condensed version echoed to the terminal.
func (s *Summary) Digest() string {
	return fmt.Sprintf("env=%s account=%s api=%s data=%s cicd=%s frontend=%s",
		s.Env,
		s.AccountID,
		valueOr(s.APIEndpoint, NotDeployed),
		valueOr(s.DataBucket, NotDeployed),
		valueOr(s.CICDStack, NotDeployed),
		valueOr(s.FrontendStack, NotDeployed),
	)
}

// Write stores the rendered summary at path.
func (s *Summary) Write(path string) error {
	if err := os.WriteFile(path, []byte(s.Render()), 0o644); err != nil {
		return fmt.Errorf("failed to write summary %s: %w", path, err)
	}
	return nil
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
