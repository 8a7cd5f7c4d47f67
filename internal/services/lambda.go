package services

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/rs/zerolog"
)

// LambdaAPI is the subset of the Lambda client used for code updates.
type LambdaAPI interface {
	UpdateFunctionCode(ctx context.Context, params *lambda.UpdateFunctionCodeInput, optFns ...func(*lambda.Options)) (*lambda.UpdateFunctionCodeOutput, error)
}

type LambdaService struct {
	client LambdaAPI
}

func NewLambdaService(cfg aws.Config) *LambdaService {
	return &LambdaService{client: lambda.NewFromConfig(cfg)}
}

func NewLambdaServiceWithClient(client LambdaAPI) *LambdaService {
	return &LambdaService{client: client}
}

// UpdateFunctionCode pushes a zip artifact to the named function and returns
// the resulting code SHA.
func (s *LambdaService) UpdateFunctionCode(ctx context.Context, functionName string, zipBytes []byte) (string, error) {
	logger := zerolog.Ctx(ctx)

	out, err := s.client.UpdateFunctionCode(ctx, &lambda.UpdateFunctionCodeInput{
		FunctionName: aws.String(functionName),
		ZipFile:      zipBytes,
	})
	if err != nil {
		return "", fmt.Errorf("failed to update function code for %s: %w", functionName, err)
	}

	sha := aws.ToString(out.CodeSha256)
	logger.Info().
		Str("function", functionName).
		Str("code_sha256", sha).
		Int("artifact_bytes", len(zipBytes)).
		Msg("Updated function code")
	return sha, nil
}
