package onnx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultGPUConfig(t *testing.T) {
	cfg := DefaultGPUConfig()
	assert.False(t, cfg.UseGPU)
	assert.Equal(t, 0, cfg.DeviceID)
	assert.Equal(t, "kNextPowerOfTwo", cfg.ArenaExtendStrategy)
	assert.NoError(t, cfg.Validate())
}

func TestGPUConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     GPUConfig
		wantErr bool
	}{
		{"disabled ignores fields", GPUConfig{DeviceID: -3, ArenaExtendStrategy: "bogus"}, false},
		{"valid gpu", GPUConfig{UseGPU: true, ArenaExtendStrategy: "kSameAsRequested", CUDNNConvAlgoSearch: "HEURISTIC"}, false},
		{"negative device", GPUConfig{UseGPU: true, DeviceID: -1}, true},
		{"bad arena", GPUConfig{UseGPU: true, ArenaExtendStrategy: "grow"}, true},
		{"bad cudnn", GPUConfig{UseGPU: true, CUDNNConvAlgoSearch: "fast"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestProviderSettings(t *testing.T) {
	cfg := GPUConfig{UseGPU: true, DeviceID: 1, GPUMemLimit: 1 << 30, CUDNNConvAlgoSearch: "DEFAULT"}
	s := cfg.providerSettings()
	assert.Equal(t, "1", s["device_id"])
	assert.Equal(t, "1073741824", s["gpu_mem_limit"])
	assert.Equal(t, "DEFAULT", s["cudnn_conv_algo_search"])
	_, ok := s["arena_extend_strategy"]
	assert.False(t, ok)
}
