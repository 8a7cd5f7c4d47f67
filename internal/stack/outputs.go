package stack

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation/types"

	platformerrors "github.com/careops/mlops-deployer/internal/errors"
)

// Outputs holds the named string values a stack exports after reaching a
// complete state.
type Outputs map[string]string

// OutputsFrom collects the output key/value pairs of a described stack.
func OutputsFrom(stack types.Stack) Outputs {
	out := make(Outputs, len(stack.Outputs))
	for _, o := range stack.Outputs {
		out[aws.ToString(o.OutputKey)] = aws.ToString(o.OutputValue)
	}
	return out
}

// Get returns the value for key and whether it was present. Callers must not
// interpolate a missing output into URLs or paths.
func (o Outputs) Get(key string) (string, bool) {
	v, ok := o[key]
	return v, ok
}

// Require returns the value for key or an error naming the missing key.
func (o Outputs) Require(key string) (string, error) {
	v, ok := o[key]
	if !ok || v == "" {
		return "", fmt.Errorf("%w: %s", platformerrors.ErrOutputMissing, key)
	}
	return v, nil
}

// Merge overlays other on top of o, returning o for chaining.
func (o Outputs) Merge(other Outputs) Outputs {
	for k, v := range other {
		o[k] = v
	}
	return o
}
