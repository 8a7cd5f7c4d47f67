// Package workflow operates the platform's prediction Step Functions state
// machine, created by the data-pipeline stack. The deployer can start an
// execution over a freshly uploaded dataset and inspect running executions.
package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sfn"
	"github.com/aws/aws-sdk-go-v2/service/sfn/types"
)

// API is the subset of the Step Functions client the workflow uses.
type API interface {
	StartExecution(ctx context.Context, params *sfn.StartExecutionInput, optFns ...func(*sfn.Options)) (*sfn.StartExecutionOutput, error)
	DescribeExecution(ctx context.Context, params *sfn.DescribeExecutionInput, optFns ...func(*sfn.Options)) (*sfn.DescribeExecutionOutput, error)
}

// PredictionInput is the payload for a prediction workflow execution.
type PredictionInput struct {
	Env        string `json:"env"`
	DatasetKey string `json:"dataset_key"`
	ModelName  string `json:"model_name,omitempty"`
	RunID      string `json:"run_id"`
}

// Workflow manages prediction workflow executions.
type Workflow struct {
	client          API
	stateMachineArn string
}

func New(client API, stateMachineArn string) *Workflow {
	return &Workflow{client: client, stateMachineArn: stateMachineArn}
}

// Start begins an execution and returns its ARN. The execution name embeds
// the environment and run ID so re-runs never collide.
func (w *Workflow) Start(ctx context.Context, input PredictionInput) (string, error) {
	payload, err := json.Marshal(input)
	if err != nil {
		return "", fmt.Errorf("failed to marshal workflow input: %w", err)
	}

	name := fmt.Sprintf("prediction-%s-%s", input.Env, input.RunID)
	out, err := w.client.StartExecution(ctx, &sfn.StartExecutionInput{
		StateMachineArn: aws.String(w.stateMachineArn),
		Name:            aws.String(name),
		Input:           aws.String(string(payload)),
	})
	if err != nil {
		return "", fmt.Errorf("failed to start workflow execution: %w", err)
	}
	return aws.ToString(out.ExecutionArn), nil
}

// ExecutionStatus is the observable state of one execution.
type ExecutionStatus struct {
	ExecutionArn string
	Status       types.ExecutionStatus
	StartDate    time.Time
	StopDate     *time.Time
	Output       string
}

// Status describes a running or finished execution.
func (w *Workflow) Status(ctx context.Context, executionArn string) (*ExecutionStatus, error) {
	out, err := w.client.DescribeExecution(ctx, &sfn.DescribeExecutionInput{
		ExecutionArn: aws.String(executionArn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to describe execution %s: %w", executionArn, err)
	}

	status := &ExecutionStatus{
		ExecutionArn: aws.ToString(out.ExecutionArn),
		Status:       out.Status,
		Output:       aws.ToString(out.Output),
	}
	if out.StartDate != nil {
		status.StartDate = *out.StartDate
	}
	if out.StopDate != nil {
		status.StopDate = out.StopDate
	}
	return status, nil
}
