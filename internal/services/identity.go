package services

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	platformerrors "github.com/careops/mlops-deployer/internal/errors"
)

// STSAPI is the subset of the STS client used for identity resolution.
type STSAPI interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// Identity is the resolved caller identity a run starts from.
type Identity struct {
	AccountID string
	ARN       string
}

type IdentityService struct {
	client STSAPI
}

func NewIdentityService(cfg aws.Config) *IdentityService {
	return &IdentityService{client: sts.NewFromConfig(cfg)}
}

func NewIdentityServiceWithClient(client STSAPI) *IdentityService {
	return &IdentityService{client: client}
}

// Resolve queries the caller identity. Failure here is always fatal; nothing
// downstream can derive resource names without an account ID.
func (s *IdentityService) Resolve(ctx context.Context) (*Identity, error) {
	out, err := s.client.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", platformerrors.ErrIdentityUnresolved, err)
	}
	if out.Account == nil {
		return nil, platformerrors.ErrIdentityUnresolved
	}
	return &Identity{
		AccountID: aws.ToString(out.Account),
		ARN:       aws.ToString(out.Arn),
	}, nil
}
