// Package config defines the immutable settings record the rest of the
// miner is built around. Loading and validating it from the command line is
// an external collaborator's job; this package only fixes the shape of the
// record and the defaults/bounds a loader must enforce, plus a convenience
// YAML loader in the struct-literal immutable-config idiom.
package config

import "time"

// AccountOverride carries a per-account submission target and secret
// phrase, keyed by account id in Settings.Accounts.
type AccountOverride struct {
	AccountID           uint64 `yaml:"accountId"`
	SecretPhrase        string `yaml:"secretPhrase"`
	TargetDeadlineOverride uint64 `yaml:"targetDeadline,omitempty"`
}

// Settings is the immutable configuration record every component is
// constructed from. Once loaded it is never mutated; hot reconfiguration is
// an explicit Non-goal.
type Settings struct {
	PlotDirs []string `yaml:"plotDirs"`
	URL      string   `yaml:"url"`

	Accounts []AccountOverride `yaml:"accounts"`

	CPUWorkers    int `yaml:"cpuWorkers"`
	CPUBuffersPerDrive int `yaml:"cpuBuffersPerDrive"`
	GPUWorkers    int `yaml:"gpuWorkers"`
	GPUBuffersPerDrive int `yaml:"gpuBuffersPerDrive"`

	BufferChunks int `yaml:"bufferChunks"` // chunks of sector_size bytes per buffer

	HTTPTimeout        time.Duration `yaml:"httpTimeout"`
	MiningInfoInterval time.Duration `yaml:"miningInfoInterval"`

	GlobalTargetDeadline uint64 `yaml:"targetDeadline"`
	SubmitOnlyBest       bool   `yaml:"submitOnlyBest"`

	CPUThreadPinning bool `yaml:"cpuThreadPinning"`
	GPUMemMapping    bool `yaml:"gpuMemMapping"`
	DirectIO         bool `yaml:"directIo"`

	// ReaderMode selects between the two interchangeable driver
	// implementations: "sync" locks an OS thread per drive, "async"
	// shares the goroutine scheduler.
	ReaderMode string `yaml:"readerMode"`

	LogLevel string `yaml:"logLevel"`
}

const (
	MinHTTPTimeout = 1000 * time.Millisecond
	MaxHTTPTimeout = 300000 * time.Millisecond

	MinMiningInfoInterval = 1000 * time.Millisecond
	MaxMiningInfoInterval = 60000 * time.Millisecond

	MinBufferBytes = 64 * 1024
	MaxBufferBytes = 256 * 1024 * 1024
)

// Default returns a Settings populated with sane bounded defaults.
// Callers overlay a loaded file onto this before validating.
func Default() Settings {
	return Settings{
		CPUWorkers:         0, // 0 means "runtime.NumCPU()", resolved by the caller
		CPUBuffersPerDrive: 3,
		GPUWorkers:         0,
		GPUBuffersPerDrive: 3,
		BufferChunks:       8,
		HTTPTimeout:        10 * time.Second,
		MiningInfoInterval: 3 * time.Second,
		SubmitOnlyBest:     false,
		CPUThreadPinning:   false,
		GPUMemMapping:      false,
		DirectIO:           true,
		ReaderMode:         "sync",
		LogLevel:           "info",
	}
}

// AccountByID returns the override for an account id, if one was
// configured.
func (s Settings) AccountByID(id uint64) (AccountOverride, bool) {
	for _, a := range s.Accounts {
		if a.AccountID == id {
			return a, true
		}
	}
	return AccountOverride{}, false
}
