package services

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/glue"
	"github.com/rs/zerolog"
)

type GlueService struct {
	client *glue.Client
}

func NewGlueService(cfg aws.Config) *GlueService {
	return &GlueService{client: glue.NewFromConfig(cfg)}
}

// StartJob starts the named ETL job with the given arguments and returns the
// job run ID. The data-pipeline stack's job picks up freshly uploaded
// datasets via the --dataset_key argument.
func (s *GlueService) StartJob(ctx context.Context, jobName string, args map[string]string) (string, error) {
	logger := zerolog.Ctx(ctx)

	out, err := s.client.StartJobRun(ctx, &glue.StartJobRunInput{
		JobName:   aws.String(jobName),
		Arguments: args,
	})
	if err != nil {
		return "", fmt.Errorf("failed to start glue job %s: %w", jobName, err)
	}

	runID := aws.ToString(out.JobRunId)
	logger.Info().
		Str("job", jobName).
		Str("run_id", runID).
		Msg("Started Glue job run")
	return runID, nil
}
