package policy

import (
	"context"
	"strings"
	"testing"
)

func TestValidator_ValidateTemplateYAML(t *testing.T) {
	validator, err := NewValidator()
	if err != nil {
		t.Fatalf("Failed to create validator: %v", err)
	}

	tests := []struct {
		name            string
		template        string
		expectAllow     bool
		expectViolation string
	}{
		{
			name: "encrypted bucket and table pass",
			template: `
Resources:
  DataBucket:
    Type: AWS::S3::Bucket
    Properties:
      BucketName: mlops-platform-data-dev-123456789012
      BucketEncryption:
        ServerSideEncryptionConfiguration:
          - ServerSideEncryptionByDefault:
              SSEAlgorithm: AES256
  PatientsTable:
    Type: AWS::DynamoDB::Table
    Properties:
      TableName: mlops-platform-patients-dev
      SSESpecification:
        SSEEnabled: true
`,
			expectAllow: true,
		},
		{
			name: "unencrypted bucket is rejected",
			template: `
Resources:
  DataBucket:
    Type: AWS::S3::Bucket
    Properties:
      BucketName: mlops-platform-data-dev-123456789012
`,
			expectAllow:     false,
			expectViolation: "BucketEncryption",
		},
		{
			name: "public bucket is rejected",
			template: `
Resources:
  WebBucket:
    Type: AWS::S3::Bucket
    Properties:
      AccessControl: PublicRead
      BucketEncryption:
        ServerSideEncryptionConfiguration: []
`,
			expectAllow:     false,
			expectViolation: "PublicRead",
		},
		{
			name: "unencrypted table is rejected",
			template: `
Resources:
  PatientsTable:
    Type: AWS::DynamoDB::Table
    Properties:
      TableName: mlops-platform-patients-dev
`,
			expectAllow:     false,
			expectViolation: "SSESpecification",
		},
		{
			name: "lambda with inline secret is rejected",
			template: `
Resources:
  GenAIFunction:
    Type: AWS::Lambda::Function
    Properties:
      FunctionName: mlops-platform-genai-dev
      Environment:
        Variables:
          API_SECRET_KEY: plaintext
`,
			expectAllow:     false,
			expectViolation: "Secrets Manager",
		},
		{
			name: "non-data resources pass",
			template: `
Resources:
  ApiGateway:
    Type: AWS::ApiGateway::RestApi
    Properties:
      Name: mlops-platform-api-dev
`,
			expectAllow: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := validator.ValidateTemplateYAML(context.Background(), tt.template, "dev")
			if err != nil {
				t.Fatalf("ValidateTemplateYAML() error: %v", err)
			}
			if result.Allowed != tt.expectAllow {
				t.Errorf("Allowed = %v, want %v (violations: %v)", result.Allowed, tt.expectAllow, result.Violations)
			}
			if tt.expectViolation != "" {
				found := false
				for _, v := range result.Violations {
					if strings.Contains(v, tt.expectViolation) {
						found = true
					}
				}
				if !found {
					t.Errorf("violations %v do not mention %q", result.Violations, tt.expectViolation)
				}
			}
		})
	}
}

func TestValidator_RejectsMalformedTemplate(t *testing.T) {
	validator, err := NewValidator()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := validator.ValidateTemplateYAML(context.Background(), "Resources: [not: a: map", "dev"); err == nil {
		t.Error("expected parse error for malformed YAML")
	}
}
