package stack

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
	"github.com/aws/smithy-go"

	platformerrors "github.com/careops/mlops-deployer/internal/errors"
)

type fakeCFN struct {
	stacks map[string]types.Stack

	createErr error
	updateErr error
	creates   int
	updates   int
	deletes   int

	// describeStatuses, when set, is consumed one status per DescribeStacks
	// call to simulate a stack moving through states.
	describeStatuses []types.StackStatus
}

func notFoundErr(name string) error {
	return &smithy.GenericAPIError{
		Code:    "ValidationError",
		Message: "Stack with id " + name + " does not exist",
	}
}

func (f *fakeCFN) CreateStack(_ context.Context, in *cloudformation.CreateStackInput, _ ...func(*cloudformation.Options)) (*cloudformation.CreateStackOutput, error) {
	f.creates++
	if f.createErr != nil {
		return nil, f.createErr
	}
	name := aws.ToString(in.StackName)
	if f.stacks == nil {
		f.stacks = map[string]types.Stack{}
	}
	f.stacks[name] = types.Stack{
		StackId:     aws.String("arn:aws:cloudformation:us-east-1:123456789012:stack/" + name),
		StackName:   in.StackName,
		StackStatus: types.StackStatusCreateComplete,
	}
	return &cloudformation.CreateStackOutput{StackId: f.stacks[name].StackId}, nil
}

func (f *fakeCFN) UpdateStack(_ context.Context, in *cloudformation.UpdateStackInput, _ ...func(*cloudformation.Options)) (*cloudformation.UpdateStackOutput, error) {
	f.updates++
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	stack := f.stacks[aws.ToString(in.StackName)]
	return &cloudformation.UpdateStackOutput{StackId: stack.StackId}, nil
}

func (f *fakeCFN) DeleteStack(_ context.Context, in *cloudformation.DeleteStackInput, _ ...func(*cloudformation.Options)) (*cloudformation.DeleteStackOutput, error) {
	f.deletes++
	delete(f.stacks, aws.ToString(in.StackName))
	return &cloudformation.DeleteStackOutput{}, nil
}

func (f *fakeCFN) DescribeStacks(_ context.Context, in *cloudformation.DescribeStacksInput, _ ...func(*cloudformation.Options)) (*cloudformation.DescribeStacksOutput, error) {
	name := aws.ToString(in.StackName)
	stack, ok := f.stacks[name]
	if !ok {
		return nil, notFoundErr(name)
	}
	if len(f.describeStatuses) > 0 {
		stack.StackStatus = f.describeStatuses[0]
		f.describeStatuses = f.describeStatuses[1:]
	}
	return &cloudformation.DescribeStacksOutput{Stacks: []types.Stack{stack}}, nil
}

func (f *fakeCFN) DescribeStackEvents(_ context.Context, _ *cloudformation.DescribeStackEventsInput, _ ...func(*cloudformation.Options)) (*cloudformation.DescribeStackEventsOutput, error) {
	return &cloudformation.DescribeStackEventsOutput{}, nil
}

func newTestDeployer(f *fakeCFN) *Deployer {
	d := New(f)
	d.pollInterval = time.Millisecond
	d.pollTimeout = time.Second
	return d
}

func TestDeployCreatesWhenMissing(t *testing.T) {
	f := &fakeCFN{}
	d := newTestDeployer(f)

	result, err := d.Deploy(context.Background(), "mlops-platform-infrastructure-dev", "{}", nil)
	if err != nil {
		t.Fatal(err)
	}
	if result.Operation != OperationCreate {
		t.Errorf("operation = %s, want CREATE", result.Operation)
	}
	if f.creates != 1 || f.updates != 0 {
		t.Errorf("creates=%d updates=%d, want 1/0", f.creates, f.updates)
	}
}

func TestDeployUpdatesWhenExists(t *testing.T) {
	f := &fakeCFN{stacks: map[string]types.Stack{
		"mlops-platform-infrastructure-dev": {
			StackId:     aws.String("arn:stack"),
			StackStatus: types.StackStatusCreateComplete,
		},
	}}
	d := newTestDeployer(f)

	result, err := d.Deploy(context.Background(), "mlops-platform-infrastructure-dev", "{}", nil)
	if err != nil {
		t.Fatal(err)
	}
	if result.Operation != OperationUpdate {
		t.Errorf("operation = %s, want UPDATE", result.Operation)
	}
}

func TestDeployNoUpdatesIsSuccess(t *testing.T) {
	f := &fakeCFN{
		stacks: map[string]types.Stack{
			"s": {StackId: aws.String("arn:stack"), StackStatus: types.StackStatusCreateComplete},
		},
		updateErr: &smithy.GenericAPIError{
			Code:    "ValidationError",
			Message: "No updates are to be performed.",
		},
	}
	d := newTestDeployer(f)

	result, err := d.Deploy(context.Background(), "s", "{}", nil)
	if err != nil {
		t.Fatalf("no-updates should be success, got %v", err)
	}
	if result.Operation != OperationNone {
		t.Errorf("operation = %s, want NONE", result.Operation)
	}
}

func TestDeployRepeatedRunsNeverFatal(t *testing.T) {
	f := &fakeCFN{
		updateErr: &smithy.GenericAPIError{
			Code:    "ValidationError",
			Message: "No updates to be performed",
		},
	}
	d := newTestDeployer(f)

	for i := 0; i < 3; i++ {
		if _, err := d.Deploy(context.Background(), "s", "{}", nil); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}
	if f.creates != 1 {
		t.Errorf("creates = %d, want 1", f.creates)
	}
}

func TestWaitPollsToTerminal(t *testing.T) {
	f := &fakeCFN{
		stacks: map[string]types.Stack{
			"s": {StackId: aws.String("arn:stack")},
		},
		describeStatuses: []types.StackStatus{
			types.StackStatusCreateInProgress,
			types.StackStatusCreateInProgress,
			types.StackStatusCreateComplete,
		},
	}
	d := newTestDeployer(f)

	desc, err := d.Wait(context.Background(), "s")
	if err != nil {
		t.Fatal(err)
	}
	if desc.Status != types.StackStatusCreateComplete {
		t.Errorf("status = %s, want CREATE_COMPLETE", desc.Status)
	}
}

func TestWaitFailedStateIsError(t *testing.T) {
	f := &fakeCFN{
		stacks: map[string]types.Stack{
			"s": {StackId: aws.String("arn:stack")},
		},
		describeStatuses: []types.StackStatus{
			types.StackStatusCreateInProgress,
			types.StackStatusRollbackComplete,
		},
	}
	d := newTestDeployer(f)

	_, err := d.Wait(context.Background(), "s")
	if !errors.Is(err, platformerrors.ErrStackFailed) {
		t.Errorf("err = %v, want ErrStackFailed", err)
	}
}

func TestDescribeMissingStack(t *testing.T) {
	d := newTestDeployer(&fakeCFN{})
	_, err := d.Describe(context.Background(), "nope")
	if !errors.Is(err, platformerrors.ErrStackNotFound) {
		t.Errorf("err = %v, want ErrStackNotFound", err)
	}
}

func TestDeleteMissingStackIsNoop(t *testing.T) {
	f := &fakeCFN{}
	d := newTestDeployer(f)
	if err := d.Delete(context.Background(), "gone"); err != nil {
		t.Fatal(err)
	}
	if f.deletes != 0 {
		t.Errorf("deletes = %d, want 0", f.deletes)
	}
}

func TestOutputs(t *testing.T) {
	stack := types.Stack{
		Outputs: []types.Output{
			{OutputKey: aws.String("ApiEndpoint"), OutputValue: aws.String("https://api.example.com/dev")},
			{OutputKey: aws.String("DataBucketName"), OutputValue: aws.String("mlops-platform-data-dev-123456789012")},
		},
	}
	outputs := OutputsFrom(stack)

	if v, ok := outputs.Get("ApiEndpoint"); !ok || v != "https://api.example.com/dev" {
		t.Errorf("Get(ApiEndpoint) = %q, %v", v, ok)
	}
	if _, ok := outputs.Get("Missing"); ok {
		t.Error("Get(Missing) reported present")
	}
	if _, err := outputs.Require("Missing"); !errors.Is(err, platformerrors.ErrOutputMissing) {
		t.Errorf("Require(Missing) err = %v, want ErrOutputMissing", err)
	}
}
