package services

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/amplify"
	"github.com/aws/aws-sdk-go-v2/service/amplify/types"
	"github.com/rs/zerolog"
)

type AmplifyService struct {
	client *amplify.Client
}

func NewAmplifyService(cfg aws.Config) *AmplifyService {
	return &AmplifyService{client: amplify.NewFromConfig(cfg)}
}

// StartRelease triggers a hosting release job for the app branch created by
// the frontend stack. Amplify pulls the connected repository itself; the job
// just has to be kicked.
func (s *AmplifyService) StartRelease(ctx context.Context, appID, branch string) (string, error) {
	logger := zerolog.Ctx(ctx)

	out, err := s.client.StartJob(ctx, &amplify.StartJobInput{
		AppId:      aws.String(appID),
		BranchName: aws.String(branch),
		JobType:    types.JobTypeRelease,
	})
	if err != nil {
		return "", fmt.Errorf("failed to start amplify job for app %s: %w", appID, err)
	}

	jobID := aws.ToString(out.JobSummary.JobId)
	logger.Info().
		Str("app_id", appID).
		Str("branch", branch).
		Str("job_id", jobID).
		Msg("Started Amplify release job")
	return jobID, nil
}
