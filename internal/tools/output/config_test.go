package output

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		config *Config
		want   Config
	}{
		{name: "nil", config: nil, want: *DefaultConfig()},
		{name: "unset", config: &Config{}, want: *DefaultConfig()},
		{name: "negative", config: &Config{MaxItems: -1, MaxResponseBytes: -1}, want: *DefaultConfig()},
		{
			name:   "within bounds",
			config: &Config{MaxItems: 50, MaxResponseBytes: 4096},
			want:   Config{MaxItems: 50, MaxResponseBytes: 4096},
		},
		{
			name:   "over the absolute maximum",
			config: &Config{MaxItems: AbsoluteMaxItems + 1, MaxResponseBytes: AbsoluteMaxResponseBytes + 1},
			want:   Config{MaxItems: AbsoluteMaxItems, MaxResponseBytes: AbsoluteMaxResponseBytes},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var before Config
			if tt.config != nil {
				before = *tt.config
			}

			assert.Equal(t, tt.want, *tt.config.Validate())
			if tt.config != nil {
				assert.Equal(t, before, *tt.config, "Validate must not modify its receiver")
			}
		})
	}
}

func TestConfig_Clone(t *testing.T) {
	var unset *Config
	assert.Nil(t, unset.Clone())

	cfg := &Config{MaxItems: 10}
	clone := cfg.Clone()
	clone.MaxItems = 20
	assert.Equal(t, 10, cfg.MaxItems)
}
