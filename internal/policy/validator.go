// Package policy validates CloudFormation templates against the platform's
// compliance rules before any stack is provisioned. Rules are expressed in
// rego and evaluated with OPA; a template that fails validation never reaches
// CloudFormation.
package policy

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/open-policy-agent/opa/rego"
	"github.com/open-policy-agent/opa/storage/inmem"
	"gopkg.in/yaml.v3"
)

//go:embed platform.rego
var policyContent string

type Validator struct {
	prepared rego.PreparedEvalQuery
}

type ValidationResult struct {
	Allowed    bool     `json:"allowed"`
	Violations []string `json:"violations,omitempty"`
}

func NewValidator() (*Validator, error) {
	query, err := rego.New(
		rego.Query("data.platform.allow"),
		rego.Module("platform.rego", policyContent),
	).PrepareForEval(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to prepare policy query: %w", err)
	}

	return &Validator{prepared: query}, nil
}

// ValidateTemplateYAML parses a CloudFormation template body and validates it.
func (v *Validator) ValidateTemplateYAML(ctx context.Context, templateBody, env string) (*ValidationResult, error) {
	var template map[string]interface{}
	if err := yaml.Unmarshal([]byte(templateBody), &template); err != nil {
		return nil, fmt.Errorf("failed to parse CloudFormation template: %w", err)
	}
	return v.ValidateTemplate(ctx, template, env)
}

// ValidateTemplate evaluates the compliance rules against a parsed template.
func (v *Validator) ValidateTemplate(ctx context.Context, template map[string]interface{}, env string) (*ValidationResult, error) {
	input := map[string]interface{}{
		"Resources": template["Resources"],
	}
	data := map[string]interface{}{
		"env": env,
	}

	store := inmem.NewFromObject(data)
	query, err := rego.New(
		rego.Query("data.platform.allow"),
		rego.Module("platform.rego", policyContent),
		rego.Store(store),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare policy query with data: %w", err)
	}

	results, err := query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate policy: %w", err)
	}

	if len(results) == 0 {
		return &ValidationResult{
			Allowed:    false,
			Violations: []string{"policy evaluation returned no results"},
		}, nil
	}

	allowed, ok := results[0].Expressions[0].Value.(bool)
	if !ok {
		return &ValidationResult{
			Allowed:    false,
			Violations: []string{"policy evaluation returned non-boolean result"},
		}, nil
	}

	result := &ValidationResult{Allowed: allowed}
	if !allowed {
		violations, err := v.getViolations(ctx, input, data)
		if err != nil {
			return nil, fmt.Errorf("failed to get violations: %w", err)
		}
		result.Violations = violations
	}

	return result, nil
}

func (v *Validator) getViolations(ctx context.Context, input, data map[string]interface{}) ([]string, error) {
	store := inmem.NewFromObject(data)

	violationQuery, err := rego.New(
		rego.Query("data.platform.violations"),
		rego.Module("platform.rego", policyContent),
		rego.Store(store),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare violations query: %w", err)
	}

	results, err := violationQuery.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate violations: %w", err)
	}

	if len(results) == 0 {
		return []string{"unknown policy violation"}, nil
	}

	violationsInterface := results[0].Expressions[0].Value
	if violationsInterface == nil {
		return []string{"unknown policy violation"}, nil
	}

	var violations []string
	switch vv := violationsInterface.(type) {
	case []interface{}:
		for _, violation := range vv {
			if str, ok := violation.(string); ok {
				violations = append(violations, str)
			}
		}
	case map[string]interface{}:
		// Rego sets surface as maps.
		for violation := range vv {
			violations = append(violations, violation)
		}
	}

	if len(violations) == 0 {
		return []string{"policy validation failed but no specific violations found"}, nil
	}

	return violations, nil
}
