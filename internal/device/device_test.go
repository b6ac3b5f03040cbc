package device

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeProber struct {
	avail Availability
}

func (f fakeProber) Probe() Availability { return f.avail }

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func gpuID(id int64) *int64 { return &id }

func TestSelect_NoGPURequested(t *testing.T) {
	sel := Select(nil, fakeProber{avail: GPUReady}, discard())
	assert.False(t, sel.UsingGPU)
	assert.Equal(t, "cpu", sel.Device)
}

func TestSelect_GPURequestedAndFound(t *testing.T) {
	sel := Select(gpuID(1), fakeProber{avail: GPUReady}, discard())
	assert.True(t, sel.UsingGPU)
	assert.Equal(t, "cuda:1", sel.Device)
	assert.True(t, sel.Deterministic)
}

func TestSelect_GPURequestedButMissingFallsBackToCPU(t *testing.T) {
	// Requesting GPU 0 on a host with no GPU is a fallback, never an error.
	sel := Select(gpuID(0), fakeProber{avail: CPUOnly}, discard())
	assert.False(t, sel.UsingGPU)
	assert.Equal(t, "cpu", sel.Device)
	assert.False(t, sel.Deterministic)
}

func TestSelect_AccelerationEntirelyUnavailable(t *testing.T) {
	sel := Select(gpuID(0), fakeProber{avail: AccelUnavailable}, discard())
	assert.False(t, sel.UsingGPU)
	assert.Equal(t, "", sel.Device)
}
