package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func sampleSummary() *Summary {
	return &Summary{
		Env:                 "dev",
		Region:              "us-east-1",
		AccountID:           "123456789012",
		RunID:               "2HFj3kLmNoPqRsTuVwXy",
		StartedAt:           time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
		InfrastructureStack: "mlops-platform-infrastructure-dev",
		DataPipelineStack:   "mlops-platform-data-pipeline-dev",
		APIEndpoint:         "https://abc123.execute-api.us-east-1.amazonaws.com/dev",
		DataBucket:          "mlops-platform-data-dev-123456789012",
		ModelBucket:         "mlops-platform-models-dev-123456789012",
	}
}

func TestRenderSubstitutesNotDeployedPlaceholders(t *testing.T) {
	s := sampleSummary()
	s.CICDStack = NotDeployed
	s.FrontendStack = NotDeployed

	out := s.Render()

	if got := strings.Count(out, NotDeployed); got < 2 {
		t.Errorf("summary contains %d %q placeholders, want at least 2", got, NotDeployed)
	}
	if !strings.Contains(out, "CI/CD:          Not deployed") {
		t.Error("CI/CD line missing placeholder")
	}
	if !strings.Contains(out, "Set GITHUB_TOKEN") {
		t.Error("next steps should mention enabling CI/CD")
	}
}

func TestRenderIncludesResolvedValues(t *testing.T) {
	s := sampleSummary()
	s.Dataset = "datasets/adherence_2026-08.csv"

	out := s.Render()

	for _, want := range []string{
		"mlops-platform-infrastructure-dev",
		"https://abc123.execute-api.us-east-1.amazonaws.com/dev",
		"mlops-platform-data-dev-123456789012",
		"s3://mlops-platform-data-dev-123456789012/datasets/adherence_2026-08.csv",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q", want)
		}
	}
}

func TestRenderSkippedDatasetHasGuidance(t *testing.T) {
	s := sampleSummary()
	out := s.Render()
	if !strings.Contains(out, "upload manually") {
		t.Error("skipped dataset should include manual upload guidance")
	}
}

func TestOutputsTable(t *testing.T) {
	s := sampleSummary()
	table, err := s.OutputsTable()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(table, "ApiEndpoint") || !strings.Contains(table, s.APIEndpoint) {
		t.Errorf("table missing endpoint row:\n%s", table)
	}
}

func TestWrite(t *testing.T) {
	s := sampleSummary()
	path := filepath.Join(t.TempDir(), DefaultFileName)
	if err := s.Write(path); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "Deployment Summary") {
		t.Error("written file missing header")
	}
}

func TestDigest(t *testing.T) {
	s := sampleSummary()
	s.CICDStack = NotDeployed
	digest := s.Digest()
	if !strings.Contains(digest, "env=dev") || !strings.Contains(digest, "cicd=Not deployed") {
		t.Errorf("unexpected digest: %s", digest)
	}
}
