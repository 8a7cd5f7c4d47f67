package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/iam/types"
)

const (
	gitHubOIDCProviderURL = "token.actions.githubusercontent.com"
	gitHubOIDCAudience    = "sts.amazonaws.com"
)

type IAMService struct {
	client *iam.Client
}

func NewIAMService(cfg aws.Config) *IAMService {
	return &IAMService{client: iam.NewFromConfig(cfg)}
}

// EnsureGitHubOIDCProvider makes sure the GitHub Actions OIDC provider exists
// in the account and returns its ARN.
func (s *IAMService) EnsureGitHubOIDCProvider(ctx context.Context, accountID string) (string, error) {
	providerARN := fmt.Sprintf("arn:aws:iam::%s:oidc-provider/%s", accountID, gitHubOIDCProviderURL)

	_, err := s.client.GetOpenIDConnectProvider(ctx, &iam.GetOpenIDConnectProviderInput{
		OpenIDConnectProviderArn: aws.String(providerARN),
	})
	if err == nil {
		return providerARN, nil
	}

	var notFound *types.NoSuchEntityException
	if !errors.As(err, &notFound) {
		return "", fmt.Errorf("failed to check OIDC provider: %w", err)
	}

	_, err = s.client.CreateOpenIDConnectProvider(ctx, &iam.CreateOpenIDConnectProviderInput{
		Url:          aws.String("https://" + gitHubOIDCProviderURL),
		ClientIDList: []string{gitHubOIDCAudience},
		// AWS pins GitHub's certificate chain itself; the thumbprint is a
		// required placeholder.
		ThumbprintList: []string{"6938fd4d98bab03faadb97b34396831e3780aea1"},
	})
	if err != nil {
		return "", fmt.Errorf("failed to create OIDC provider: %w", err)
	}
	return providerARN, nil
}

// EnsureDeployRole creates or updates the IAM role the platform repository's
// Actions workflow assumes to update Lambda code and upload artifacts. The
// role is scoped to the given repo and platform resource prefix.
func (s *IAMService) EnsureDeployRole(ctx context.Context, accountID, roleName, owner, repo, resourcePrefix string) (string, error) {
	providerARN, err := s.EnsureGitHubOIDCProvider(ctx, accountID)
	if err != nil {
		return "", err
	}

	trustPolicy := fmt.Sprintf(`{
  "Version": "2012-10-17",
  "Statement": [
    {
      "Effect": "Allow",
      "Principal": {"Federated": "%s"},
      "Action": "sts:AssumeRoleWithWebIdentity",
      "Condition": {
        "StringEquals": {"%s:aud": "%s"},
        "StringLike": {"%s:sub": "repo:%s/%s:*"}
      }
    }
  ]
}`, providerARN, gitHubOIDCProviderURL, gitHubOIDCAudience, gitHubOIDCProviderURL, owner, repo)

	_, err = s.client.GetRole(ctx, &iam.GetRoleInput{RoleName: aws.String(roleName)})
	if err == nil {
		_, err = s.client.UpdateAssumeRolePolicy(ctx, &iam.UpdateAssumeRolePolicyInput{
			RoleName:       aws.String(roleName),
			PolicyDocument: aws.String(trustPolicy),
		})
		if err != nil {
			return "", fmt.Errorf("failed to update trust policy: %w", err)
		}
	} else {
		_, err = s.client.CreateRole(ctx, &iam.CreateRoleInput{
			RoleName:                 aws.String(roleName),
			AssumeRolePolicyDocument: aws.String(trustPolicy),
			Description:              aws.String(fmt.Sprintf("GitHub Actions deploy role for %s/%s", owner, repo)),
			Tags: []types.Tag{
				{Key: aws.String("ManagedBy"), Value: aws.String("mlops-deployer")},
			},
		})
		if err != nil {
			return "", fmt.Errorf("failed to create role: %w", err)
		}
	}

	permissionsPolicy := fmt.Sprintf(`{
  "Version": "2012-10-17",
  "Statement": [
    {
      "Effect": "Allow",
      "Action": ["lambda:UpdateFunctionCode"],
      "Resource": "arn:aws:lambda:*:%s:function:%s-*"
    },
    {
      "Effect": "Allow",
      "Action": ["s3:PutObject", "s3:ListBucket"],
      "Resource": [
        "arn:aws:s3:::%s-*",
        "arn:aws:s3:::%s-*/*"
      ]
    }
  ]
}`, accountID, resourcePrefix, resourcePrefix, resourcePrefix)

	_, err = s.client.PutRolePolicy(ctx, &iam.PutRolePolicyInput{
		RoleName:       aws.String(roleName),
		PolicyName:     aws.String("platform-deploy"),
		PolicyDocument: aws.String(permissionsPolicy),
	})
	if err != nil {
		return "", fmt.Errorf("failed to attach policy to role: %w", err)
	}

	return fmt.Sprintf("arn:aws:iam::%s:role/%s", accountID, roleName), nil
}
