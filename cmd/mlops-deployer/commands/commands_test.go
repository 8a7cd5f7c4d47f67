package commands

import (
	"testing"

	"github.com/careops/mlops-deployer/internal/config"
)

func TestSplitRepo(t *testing.T) {
	testCases := map[string]struct {
		repo      string
		wantOwner string
		wantName  string
		wantErr   bool
	}{
		"valid":         {repo: "careops/platform", wantOwner: "careops", wantName: "platform"},
		"missing slash": {repo: "careops", wantErr: true},
		"empty owner":   {repo: "/platform", wantErr: true},
		"empty name":    {repo: "careops/", wantErr: true},
		"empty":         {repo: "", wantErr: true},
	}

	for label, tc := range testCases {
		t.Run(label, func(t *testing.T) {
			owner, name, err := splitRepo(tc.repo)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("splitRepo(%q) expected error", tc.repo)
				}
				return
			}
			if err != nil {
				t.Fatalf("splitRepo(%q) error: %v", tc.repo, err)
			}
			if owner != tc.wantOwner || name != tc.wantName {
				t.Errorf("splitRepo(%q) = %q, %q; want %q, %q", tc.repo, owner, name, tc.wantOwner, tc.wantName)
			}
		})
	}
}

func TestFunctionName(t *testing.T) {
	cfg := &config.Config{BaseName: "mlops-platform", Env: "dev"}
	if got, want := functionName(cfg, "patient"), "mlops-platform-patient-dev"; got != want {
		t.Errorf("functionName = %q, want %q", got, want)
	}
}

func TestFindHandler(t *testing.T) {
	h, ok := findHandler("genai")
	if !ok || h.File != "genai_handler.py" {
		t.Errorf("findHandler(genai) = %+v, %v", h, ok)
	}
	if _, ok := findHandler("nope"); ok {
		t.Error("findHandler(nope) should not match")
	}
}
