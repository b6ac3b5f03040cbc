package device

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
)

// Availability reports what the execution environment can offer.
type Availability int

const (
	// AccelUnavailable means no acceleration backend exists here at all;
	// the run proceeds with no device recorded.
	AccelUnavailable Availability = iota
	// CPUOnly means a CPU device is available but no GPU was found.
	CPUOnly
	// GPUReady means at least one GPU is visible.
	GPUReady
)

// Prober reports device availability. The default prober inspects the
// host; tests and embedders inject their own.
type Prober interface {
	Probe() Availability
}

// Selection is the outcome of device resolution, recorded into the run
// config so the persisted snapshot is self-describing.
type Selection struct {
	UsingGPU bool
	// Device is the selected device name ("cpu", "cuda:0", ...); empty
	// when no acceleration backend is available.
	Device string
	// Deterministic is set when GPU kernels were forced into
	// deterministic-but-slower mode.
	Deterministic bool
}

// Select resolves the device for a run. gpuID nil means no GPU was
// requested. All outcomes are logged; none are errors.
func Select(gpuID *int64, prober Prober, logger *slog.Logger) Selection {
	if prober == nil {
		prober = HostProber{}
	}

	avail := prober.Probe()
	if avail == AccelUnavailable {
		logger.Info("no acceleration backend found, no changes made to devices")
		return Selection{}
	}

	if gpuID == nil {
		logger.Info("using the CPU")
		return Selection{Device: "cpu"}
	}

	logger.Info("attempting to find GPU", "gpu_id", *gpuID)
	if avail != GPUReady {
		logger.Info("GPU not found, reverting to CPU")
		return Selection{Device: "cpu"}
	}

	sel := Selection{
		UsingGPU:      true,
		Device:        fmt.Sprintf("cuda:%d", *gpuID),
		Deterministic: true,
	}
	logger.Info("GPU found, forcing deterministic kernels", "device", sel.Device)
	return sel
}

// HostProber inspects the host for an NVIDIA GPU. A CPU device is always
// available to a native binary, so availability never drops below CPUOnly.
type HostProber struct{}

// Probe reports GPUReady when the NVIDIA driver tooling is present and
// devices are not masked off via CUDA_VISIBLE_DEVICES.
func (HostProber) Probe() Availability {
	if visible, ok := os.LookupEnv("CUDA_VISIBLE_DEVICES"); ok && (visible == "" || visible == "-1") {
		return CPUOnly
	}
	if _, err := exec.LookPath("nvidia-smi"); err != nil {
		return CPUOnly
	}
	return GPUReady
}
