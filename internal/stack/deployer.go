// Package stack wraps CloudFormation create-or-update semantics: a stack that
// already exists is updated, an update that reports no changes is success, and
// terminal failure states surface the failing resource events. Re-running a
// deployment against existing stacks is always safe.
package stack

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
	"github.com/aws/smithy-go"
	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	platformerrors "github.com/careops/mlops-deployer/internal/errors"
)

// Operation identifies which provisioning call a Deploy resolved to.
type Operation string

const (
	OperationCreate Operation = "CREATE"
	OperationUpdate Operation = "UPDATE"
	// OperationNone means the stack was already up to date; no waiting is
	// required.
	OperationNone Operation = "NONE"
)

// API is the subset of the CloudFormation client the deployer uses.
type API interface {
	CreateStack(ctx context.Context, params *cloudformation.CreateStackInput, optFns ...func(*cloudformation.Options)) (*cloudformation.CreateStackOutput, error)
	UpdateStack(ctx context.Context, params *cloudformation.UpdateStackInput, optFns ...func(*cloudformation.Options)) (*cloudformation.UpdateStackOutput, error)
	DeleteStack(ctx context.Context, params *cloudformation.DeleteStackInput, optFns ...func(*cloudformation.Options)) (*cloudformation.DeleteStackOutput, error)
	DescribeStacks(ctx context.Context, params *cloudformation.DescribeStacksInput, optFns ...func(*cloudformation.Options)) (*cloudformation.DescribeStacksOutput, error)
	DescribeStackEvents(ctx context.Context, params *cloudformation.DescribeStackEventsInput, optFns ...func(*cloudformation.Options)) (*cloudformation.DescribeStackEventsOutput, error)
}

// Deployer provisions platform stacks.
type Deployer struct {
	client API

	pollInterval time.Duration
	pollTimeout  time.Duration
}

// New creates a Deployer with default polling intervals.
func New(client API) *Deployer {
	return &Deployer{
		client:       client,
		pollInterval: 10 * time.Second,
		pollTimeout:  30 * time.Minute,
	}
}

// Result describes the outcome of a Deploy call.
type Result struct {
	StackName string    `json:"stack_name"`
	StackID   string    `json:"stack_id"`
	Operation Operation `json:"operation"`
}

// Description is the relevant slice of a described stack.
type Description struct {
	Name         string
	StackID      string
	Status       types.StackStatus
	StatusReason string
	Outputs      Outputs
}

// Deploy creates the named stack, or updates it if it already exists. A
// "No updates are to be performed" response is success with OperationNone.
func (d *Deployer) Deploy(ctx context.Context, name, templateBody string, params map[string]string) (*Result, error) {
	logger := zerolog.Ctx(ctx)

	exists, err := d.Exists(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to check if stack exists: %w", err)
	}

	parameters := MergeParameters(params)

	if !exists {
		logger.Info().Str("stack_name", name).Msg("Creating stack")
		out, err := d.client.CreateStack(ctx, &cloudformation.CreateStackInput{
			StackName:    aws.String(name),
			TemplateBody: aws.String(templateBody),
			Parameters:   parameters,
			Capabilities: []types.Capability{
				types.CapabilityCapabilityIam,
				types.CapabilityCapabilityNamedIam,
			},
			Tags: []types.Tag{
				{Key: aws.String("ManagedBy"), Value: aws.String("mlops-deployer")},
			},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create stack %s: %w", name, err)
		}
		return &Result{StackName: name, StackID: aws.ToString(out.StackId), Operation: OperationCreate}, nil
	}

	logger.Info().Str("stack_name", name).Msg("Stack exists, updating")
	out, err := d.client.UpdateStack(ctx, &cloudformation.UpdateStackInput{
		StackName:    aws.String(name),
		TemplateBody: aws.String(templateBody),
		Parameters:   parameters,
		Capabilities: []types.Capability{
			types.CapabilityCapabilityIam,
			types.CapabilityCapabilityNamedIam,
		},
	})
	if err != nil {
		if isNoUpdates(err) {
			logger.Info().Str("stack_name", name).Msg("No updates needed for stack")
			return &Result{StackName: name, StackID: name, Operation: OperationNone}, nil
		}
		return nil, fmt.Errorf("failed to update stack %s: %w", name, err)
	}
	return &Result{StackName: name, StackID: aws.ToString(out.StackId), Operation: OperationUpdate}, nil
}

// Exists reports whether the named stack exists.
func (d *Deployer) Exists(ctx context.Context, name string) (bool, error) {
	_, err := d.client.DescribeStacks(ctx, &cloudformation.DescribeStacksInput{
		StackName: aws.String(name),
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Describe returns the current state and outputs of the named stack.
func (d *Deployer) Describe(ctx context.Context, name string) (*Description, error) {
	out, err := d.client.DescribeStacks(ctx, &cloudformation.DescribeStacksInput{
		StackName: aws.String(name),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", platformerrors.ErrStackNotFound, name)
		}
		return nil, fmt.Errorf("failed to describe stack %s: %w", name, err)
	}
	if len(out.Stacks) == 0 {
		return nil, fmt.Errorf("%w: %s", platformerrors.ErrStackNotFound, name)
	}

	stack := out.Stacks[0]
	return &Description{
		Name:         name,
		StackID:      aws.ToString(stack.StackId),
		Status:       stack.StackStatus,
		StatusReason: aws.ToString(stack.StackStatusReason),
		Outputs:      OutputsFrom(stack),
	}, nil
}

// Wait polls the stack until it reaches a terminal state and returns its
// description. A failed terminal state returns ErrStackFailed with the most
// recent failing resource events attached to the log.
func (d *Deployer) Wait(ctx context.Context, name string) (*Description, error) {
	logger := zerolog.Ctx(ctx)

	policy := backoff.NewConstantBackOff(d.pollInterval)
	var desc *Description

	operation := func() error {
		var err error
		desc, err = d.Describe(ctx, name)
		if err != nil {
			return backoff.Permanent(err)
		}
		if !isTerminal(desc.Status) {
			logger.Debug().
				Str("stack_name", name).
				Str("status", string(desc.Status)).
				Msg("Stack not yet terminal")
			return fmt.Errorf("stack %s in progress: %s", name, desc.Status)
		}
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, d.pollTimeout)
	defer cancel()

	if err := backoff.Retry(operation, backoff.WithContext(policy, ctx)); err != nil {
		return nil, err
	}

	if isFailed(desc.Status) {
		d.logFailureEvents(ctx, name)
		return nil, fmt.Errorf("%w: %s is %s (%s)", platformerrors.ErrStackFailed, name, desc.Status, desc.StatusReason)
	}

	logger.Info().
		Str("stack_name", name).
		Str("status", string(desc.Status)).
		Msg("Stack reached terminal state")
	return desc, nil
}

// Delete removes the named stack and waits for the deletion to complete.
// Deleting a stack that does not exist is a no-op.
func (d *Deployer) Delete(ctx context.Context, name string) error {
	logger := zerolog.Ctx(ctx)

	exists, err := d.Exists(ctx, name)
	if err != nil {
		return err
	}
	if !exists {
		logger.Info().Str("stack_name", name).Msg("Stack not found (already deleted)")
		return nil
	}

	if _, err := d.client.DeleteStack(ctx, &cloudformation.DeleteStackInput{
		StackName: aws.String(name),
	}); err != nil {
		return fmt.Errorf("failed to delete stack %s: %w", name, err)
	}

	_, err = d.Wait(ctx, name)
	if err != nil {
		// DELETE_COMPLETE makes the stack undescribable; not-found means done.
		if errors.Is(err, platformerrors.ErrStackNotFound) {
			return nil
		}
		return err
	}
	return nil
}

func (d *Deployer) logFailureEvents(ctx context.Context, name string) {
	logger := zerolog.Ctx(ctx)

	out, err := d.client.DescribeStackEvents(ctx, &cloudformation.DescribeStackEventsInput{
		StackName: aws.String(name),
	})
	if err != nil {
		logger.Error().Err(err).Str("stack_name", name).Msg("Failed to get stack events")
		return
	}

	count := 0
	for i := range out.StackEvents {
		if count >= 10 {
			break
		}
		event := &out.StackEvents[i]
		if event.ResourceStatus != types.ResourceStatusCreateFailed &&
			event.ResourceStatus != types.ResourceStatusUpdateFailed &&
			event.ResourceStatus != types.ResourceStatusDeleteFailed {
			continue
		}
		logger.Error().
			Str("stack_name", name).
			Str("resource_id", aws.ToString(event.LogicalResourceId)).
			Str("status", string(event.ResourceStatus)).
			Str("reason", aws.ToString(event.ResourceStatusReason)).
			Msg("Stack event")
		count++
	}
}

func isTerminal(status types.StackStatus) bool {
	return !strings.HasSuffix(string(status), "_IN_PROGRESS")
}

func isFailed(status types.StackStatus) bool {
	failedStatuses := []types.StackStatus{
		types.StackStatusCreateFailed,
		types.StackStatusUpdateFailed,
		types.StackStatusDeleteFailed,
		types.StackStatusRollbackFailed,
		types.StackStatusUpdateRollbackFailed,
		types.StackStatusRollbackComplete,
		types.StackStatusUpdateRollbackComplete,
	}
	for _, s := range failedStatuses {
		if status == s {
			return true
		}
	}
	return false
}

func isNotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		if apiErr.ErrorCode() == "ValidationError" && strings.Contains(apiErr.ErrorMessage(), "does not exist") {
			return true
		}
	}
	return false
}

func isNoUpdates(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		if apiErr.ErrorCode() == "ValidationError" &&
			(strings.Contains(apiErr.ErrorMessage(), "No updates are to be performed") ||
				strings.Contains(apiErr.ErrorMessage(), "No updates to be performed")) {
			return true
		}
	}
	return false
}
