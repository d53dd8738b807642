package schema

import "time"

// SyncConfig controls the controller's synchronization behavior.
type SyncConfig struct {
	UpdateOnSave     bool
	SyncCursor       bool
	ReportEvalErrors bool
	EchoGuard        time.Duration
	CursorDelay      time.Duration
	HydraInitDelay   time.Duration
}

const (
	// DefaultEchoGuard absorbs the change-notification round trip of a remote edit.
	DefaultEchoGuard = 100 * time.Millisecond
	// DefaultCursorDelay lets the runtime settle before the cursor follows content.
	DefaultCursorDelay = 50 * time.Millisecond
	// DefaultHydraInitDelay waits for hydra-synth to initialize in a new page.
	DefaultHydraInitDelay = time.Second
)

// DefaultSyncConfig returns the defaults used when no configuration is loaded.
func DefaultSyncConfig() SyncConfig {
	return SyncConfig{
		UpdateOnSave:     true,
		SyncCursor:       true,
		ReportEvalErrors: true,
		EchoGuard:        DefaultEchoGuard,
		CursorDelay:      DefaultCursorDelay,
		HydraInitDelay:   DefaultHydraInitDelay,
	}
}

// NormalizeSyncConfig fills zero durations with defaults.
func NormalizeSyncConfig(cfg SyncConfig) SyncConfig {
	if cfg.EchoGuard <= 0 {
		cfg.EchoGuard = DefaultEchoGuard
	}
	if cfg.CursorDelay <= 0 {
		cfg.CursorDelay = DefaultCursorDelay
	}
	if cfg.HydraInitDelay <= 0 {
		cfg.HydraInitDelay = DefaultHydraInitDelay
	}
	return cfg
}
