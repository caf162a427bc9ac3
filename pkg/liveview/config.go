package liveview

import "github.com/pulsewire/pulseview/pkg/registry"

// Config bundles the engine's tunables. The diff walk itself has no
// timeouts or retries by spec — Config only reaches the registry, which
// bounds component callback execution.
type Config struct {
	Registry registry.Config
}

// DefaultConfig returns the engine's out-of-the-box tunables.
func DefaultConfig() Config {
	return Config{Registry: registry.DefaultConfig()}
}
