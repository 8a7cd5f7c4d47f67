package di

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sfn"

	"github.com/careops/mlops-deployer/internal/config"
	"github.com/careops/mlops-deployer/internal/dao/rundao"
	"github.com/careops/mlops-deployer/internal/policy"
	"github.com/careops/mlops-deployer/internal/services"
	"github.com/careops/mlops-deployer/internal/stack"
)

func ProvideContext() context.Context {
	return context.Background()
}

// ProvideConfig builds a Config from the process environment alone. Commands
// that accept flag overrides pass their own config provider instead.
func ProvideConfig() (*config.Config, error) {
	return config.Load()
}

func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
}

func ProvideCloudFormation(cfg aws.Config) *cloudformation.Client {
	return cloudformation.NewFromConfig(cfg)
}

func ProvideDeployer(client *cloudformation.Client) *stack.Deployer {
	return stack.New(client)
}

func ProvideS3Service(cfg aws.Config) *services.S3Service {
	return services.NewS3Service(cfg)
}

func ProvideLambdaService(cfg aws.Config) *services.LambdaService {
	return services.NewLambdaService(cfg)
}

func ProvideGlueService(cfg aws.Config) *services.GlueService {
	return services.NewGlueService(cfg)
}

func ProvideAmplifyService(cfg aws.Config) *services.AmplifyService {
	return services.NewAmplifyService(cfg)
}

func ProvideSecretsManagerService(cfg aws.Config) *services.SecretsManagerService {
	return services.NewSecretsManagerService(cfg)
}

func ProvideParameterStore(cfg aws.Config) services.ParameterStore {
	return services.NewSSMParameterStore(cfg)
}

func ProvideIAMService(cfg aws.Config) *services.IAMService {
	return services.NewIAMService(cfg)
}

func ProvideIdentityService(cfg aws.Config) *services.IdentityService {
	return services.NewIdentityService(cfg)
}

func ProvideStepFunctions(cfg aws.Config) *sfn.Client {
	return sfn.NewFromConfig(cfg)
}

func ProvideDynamoDB(cfg aws.Config) *dynamodb.Client {
	return dynamodb.NewFromConfig(cfg)
}

func ProvideRunDAO(client *dynamodb.Client, cfg *config.Config) *rundao.DAO {
	return rundao.New(client, cfg.RunsTable())
}

func ProvideValidator() (*policy.Validator, error) {
	return policy.NewValidator()
}
