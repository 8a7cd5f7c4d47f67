package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/rs/zerolog"
)

// ParameterStore publishes and reads platform configuration values. The
// Lambda handlers resolve their table names and endpoints from here, so the
// deployer writes every resolved stack output after a successful run.
type ParameterStore interface {
	GetParameter(ctx context.Context, name string) (string, error)
	PutParameter(ctx context.Context, name, value string) error
}

// SSMParameterStore implements ParameterStore using AWS Systems Manager
// Parameter Store.
type SSMParameterStore struct {
	client *ssm.Client
	mu     sync.RWMutex
	cache  map[string]string
}

func NewSSMParameterStore(cfg aws.Config) *SSMParameterStore {
	return &SSMParameterStore{
		client: ssm.NewFromConfig(cfg),
		cache:  make(map[string]string),
	}
}

// GetParameter retrieves a single parameter, serving repeats from cache.
func (s *SSMParameterStore) GetParameter(ctx context.Context, name string) (string, error) {
	s.mu.RLock()
	if value, ok := s.cache[name]; ok {
		s.mu.RUnlock()
		return value, nil
	}
	s.mu.RUnlock()

	result, err := s.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("failed to get parameter %s: %w", name, err)
	}

	value := aws.ToString(result.Parameter.Value)
	s.mu.Lock()
	s.cache[name] = value
	s.mu.Unlock()
	return value, nil
}

// PutParameter writes a string parameter, overwriting any existing value.
func (s *SSMParameterStore) PutParameter(ctx context.Context, name, value string) error {
	_, err := s.client.PutParameter(ctx, &ssm.PutParameterInput{
		Name:      aws.String(name),
		Value:     aws.String(value),
		Type:      types.ParameterTypeString,
		Overwrite: aws.Bool(true),
	})
	if err != nil {
		return fmt.Errorf("failed to put parameter %s: %w", name, err)
	}

	s.mu.Lock()
	s.cache[name] = value
	s.mu.Unlock()
	return nil
}

// PublishOutputs writes each output under prefix, e.g.
// /mlops-platform/dev/ApiEndpoint.
func PublishOutputs(ctx context.Context, store ParameterStore, prefix string, outputs map[string]string) error {
	logger := zerolog.Ctx(ctx)

	for key, value := range outputs {
		if value == "" {
			continue
		}
		name := fmt.Sprintf("%s/%s", prefix, key)
		if err := store.PutParameter(ctx, name, value); err != nil {
			return err
		}
		logger.Debug().Str("parameter", name).Msg("Published stack output")
	}
	return nil
}
