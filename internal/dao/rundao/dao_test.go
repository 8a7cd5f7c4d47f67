package rundao

import (
	"testing"
	"time"

	"github.com/segmentio/ksuid"
	"github.com/stretchr/testify/assert"
)

func TestNewPK(t *testing.T) {
	tests := []struct {
		name string
		base string
		env  string
		want PK
	}{
		{
			name: "dev environment",
			base: "mlops-platform",
			env:  "dev",
			want: PK("mlops-platform/dev"),
		},
		{
			name: "prod environment",
			base: "mlops-platform",
			env:  "prod",
			want: PK("mlops-platform/prod"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewPK(tt.base, tt.env); got != tt.want {
				t.Errorf("NewPK() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParsePK(t *testing.T) {
	tests := []struct {
		name     string
		pk       PK
		wantBase string
		wantEnv  string
		wantErr  bool
	}{
		{
			name:     "valid PK",
			pk:       PK("mlops-platform/dev"),
			wantBase: "mlops-platform",
			wantEnv:  "dev",
		},
		{
			name:    "no separator",
			pk:      PK("mlops-platform"),
			wantErr: true,
		},
		{
			name:    "too many separators",
			pk:      PK("mlops/platform/dev"),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base, env, err := ParsePK(tt.pk)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.wantBase, base)
			assert.Equal(t, tt.wantEnv, env)
		})
	}
}

func TestNewSKIsChronological(t *testing.T) {
	first := NewSK()
	time.Sleep(time.Second)
	second := NewSK()

	// KSUIDs compare lexicographically in creation order.
	assert.Less(t, first, second)

	_, err := ksuid.Parse(first)
	assert.NoError(t, err)
}
