// Package di provides a lightweight wrapper around uber's dig dependency
// injection framework, wiring the AWS clients and services the deployer
// commands share.
package di

import (
	"go.uber.org/dig"
)

// Container defines a dependency injection container based on uber's dig.
type Container interface {
	// Invoke executes a function, injecting its dependencies from the container.
	Invoke(function any, opts ...dig.InvokeOption) error

	// Provide registers a constructor function in the container.
	Provide(constructor any, opts ...dig.ProvideOption) error
}

// MustGet returns an instance constructed via dependency injection or panics.
//
// Example:
//
//	deployer := MustGet[*stack.Deployer](container)
func MustGet[T any](container Container) (want T) {
	callback := func(got T) {
		want = got
	}
	if err := container.Invoke(callback); err != nil {
		panic(err)
	}
	return want
}

// New creates a container seeded with the core providers.
func New(opts ...Option) (Container, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	container := dig.New()

	for _, provider := range core {
		if err := container.Provide(provider); err != nil {
			return nil, err
		}
	}
	for _, provider := range o.providers {
		if err := container.Provide(provider); err != nil {
			return nil, err
		}
	}

	return container, nil
}

// core providers shared by every command. The *config.Config provider is
// supplied per command via WithProviders so that CLI flags can override the
// environment-sourced values.
var core = []any{
	ProvideContext,
	ProvideAWSConfig,
	ProvideCloudFormation,
	ProvideDeployer,
	ProvideS3Service,
	ProvideLambdaService,
	ProvideGlueService,
	ProvideAmplifyService,
	ProvideSecretsManagerService,
	ProvideParameterStore,
	ProvideIAMService,
	ProvideIdentityService,
	ProvideStepFunctions,
	ProvideDynamoDB,
	ProvideRunDAO,
	ProvideValidator,
}
