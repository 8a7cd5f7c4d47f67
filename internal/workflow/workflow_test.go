package workflow

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sfn"
	"github.com/aws/aws-sdk-go-v2/service/sfn/types"
	"github.com/stretchr/testify/assert"
)

type fakeSFN struct {
	startInput *sfn.StartExecutionInput
	status     types.ExecutionStatus
}

func (f *fakeSFN) StartExecution(_ context.Context, in *sfn.StartExecutionInput, _ ...func(*sfn.Options)) (*sfn.StartExecutionOutput, error) {
	f.startInput = in
	return &sfn.StartExecutionOutput{
		ExecutionArn: aws.String("arn:aws:states:us-east-1:123456789012:execution:prediction:" + aws.ToString(in.Name)),
	}, nil
}

func (f *fakeSFN) DescribeExecution(_ context.Context, in *sfn.DescribeExecutionInput, _ ...func(*sfn.Options)) (*sfn.DescribeExecutionOutput, error) {
	return &sfn.DescribeExecutionOutput{
		ExecutionArn: in.ExecutionArn,
		Status:       f.status,
	}, nil
}

func TestStartBuildsExecution(t *testing.T) {
	client := &fakeSFN{}
	w := New(client, "arn:aws:states:us-east-1:123456789012:stateMachine:prediction-dev")

	arn, err := w.Start(context.Background(), PredictionInput{
		Env:        "dev",
		DatasetKey: "datasets/adherence_2026-08.csv",
		RunID:      "2HFj3kLmNoPqRsTuVwXy",
	})
	assert.NoError(t, err)
	assert.Contains(t, arn, "prediction-dev-2HFj3kLmNoPqRsTuVwXy")

	assert.Equal(t, "prediction-dev-2HFj3kLmNoPqRsTuVwXy", aws.ToString(client.startInput.Name))

	var payload PredictionInput
	assert.NoError(t, json.Unmarshal([]byte(aws.ToString(client.startInput.Input)), &payload))
	assert.Equal(t, "datasets/adherence_2026-08.csv", payload.DatasetKey)
}

func TestStatus(t *testing.T) {
	client := &fakeSFN{status: types.ExecutionStatusRunning}
	w := New(client, "arn:machine")

	status, err := w.Status(context.Background(), "arn:execution")
	assert.NoError(t, err)
	assert.Equal(t, types.ExecutionStatusRunning, status.Status)
	assert.Equal(t, "arn:execution", status.ExecutionArn)
}
