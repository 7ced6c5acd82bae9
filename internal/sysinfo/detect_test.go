package sysinfo

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProfileForTakesMoreRestrictive(t *testing.T) {
	tests := []struct {
		mem  int64
		cpus int
		want Profile
	}{
		{1024, 16, ProfileLow},
		{65536, 2, ProfileLow},
		{4096, 4, ProfileMedium},
		{16384, 8, ProfileHigh},
		{32768, 6, ProfileHigh},
		{65536, 32, ProfileLarge},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, profileFor(tt.mem, tt.cpus), "%dMB/%d cpus", tt.mem, tt.cpus)
	}
}

func TestSuggestedConcurrency(t *testing.T) {
	assert.Equal(t, 1, (&Host{Profile: ProfileLow}).SuggestedConcurrency())
	assert.Equal(t, 10, (&Host{Profile: ProfileLarge}).SuggestedConcurrency())

	h := Detect()
	assert.Positive(t, h.NumCPU)
	assert.Positive(t, h.TotalMemoryMB)
	assert.GreaterOrEqual(t, h.SuggestedConcurrency(), 1)
}

func TestNewHostMeasuresMemory(t *testing.T) {
	h := newHost(8, func() (uint64, error) { return 16 << 30, nil })
	assert.Equal(t, int64(16384), h.TotalMemoryMB)
	assert.False(t, h.MemoryAssumed)
	assert.Equal(t, ProfileHigh, h.Profile)
}

func TestNewHostAssumesMemoryOnError(t *testing.T) {
	h := newHost(4, func() (uint64, error) { return 0, errors.New("unsupported") })
	assert.Equal(t, int64(assumedMemoryMB), h.TotalMemoryMB)
	assert.True(t, h.MemoryAssumed)
	assert.Equal(t, ProfileMedium, h.Profile)
}

func TestDetectCurrentHost(t *testing.T) {
	h := Detect()
	assert.Positive(t, h.NumCPU)
	assert.Positive(t, h.TotalMemoryMB)
	assert.Contains(t, profileOrder, h.Profile)
}
