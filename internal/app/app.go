// Package app wires the miner's components into a running process: Plot
// Registry, Buffer Pools, Readers, Workers, Miner Controller, Submitter,
// Puzzle Source. cmd/signum-miner is intentionally a thin CLI shell
// around this package, separating node construction from the cmd/
// entry point.
package app

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/danhill2020/signum-miner/internal/bufferpool"
	"github.com/danhill2020/signum-miner/internal/config"
	"github.com/danhill2020/signum-miner/internal/cpuworker"
	"github.com/danhill2020/signum-miner/internal/diskhealth"
	"github.com/danhill2020/signum-miner/internal/gpuworker"
	"github.com/danhill2020/signum-miner/internal/logging"
	"github.com/danhill2020/signum-miner/internal/metricsink"
	"github.com/danhill2020/signum-miner/internal/miner"
	"github.com/danhill2020/signum-miner/internal/plot"
	"github.com/danhill2020/signum-miner/internal/puzzle"
	"github.com/danhill2020/signum-miner/internal/reader"
	"github.com/danhill2020/signum-miner/internal/shabal"
	"github.com/danhill2020/signum-miner/internal/submitter"
	"github.com/danhill2020/signum-miner/internal/upstream"
)

// App owns every long-lived component and their goroutines.
type App struct {
	settings   config.Settings
	log        logging.Sink
	metrics    metricsink.Sink
	registry   *plot.Registry
	health     *diskhealth.Registry
	variant    shabal.Variant
	drives     []*driveRig
	controller *miner.Controller
	submit     *submitter.Submitter
	source     *puzzle.Source
}

// driveRig bundles one drive group with its pool and reader driver; it's
// the unit RoundStarter iterates over.
type driveRig struct {
	group  *plot.DriveGroup
	pool   *bufferpool.Pool
	driver *reader.Driver
}

// New constructs an App from validated Settings. It performs the plot
// scan and buffer pool allocation eagerly so a misconfigured deployment
// fails fast at startup.
func New(settings config.Settings, log logging.Sink, metrics metricsink.Sink) (*App, error) {
	registry, err := plot.Scan(settings.PlotDirs, log)
	if err != nil {
		return nil, fmt.Errorf("app: scanning plot directories: %w", err)
	}
	if len(registry.Groups()) == 0 {
		return nil, fmt.Errorf("app: no plot files found across %v", settings.PlotDirs)
	}
	summary := registry.Summary()
	log.Info("app: plot scan complete", "plots", summary.TotalPlots, "capacity_bytes", summary.TotalCapacity, "drives", len(registry.Groups()))

	health := diskhealth.NewRegistry()
	variant := shabal.Select()
	log.Info("app: selected hashing variant", "variant", variant.Name(), "lane_width", variant.LaneWidth())

	client := upstream.NewHTTPClient(settings.URL, settings.HTTPTimeout)
	submit := submitter.New(client, log, metrics)

	a := &App{
		settings: settings,
		log:      log,
		metrics:  metrics,
		registry: registry,
		health:   health,
		variant:  variant,
		submit:   submit,
	}

	for _, g := range registry.Groups() {
		bufBytes := g.SectorSize * settings.BufferChunks
		count := settings.CPUBuffersPerDrive
		if settings.GPUWorkers > 0 {
			count += settings.GPUBuffersPerDrive
		}
		pool := bufferpool.New(count, bufBytes, g.SectorSize)
		driver := &reader.Driver{
			Group:      g,
			Pool:       pool,
			Health:     health,
			Log:        log.With("drive", g.DriveID),
			DirectIO:   settings.DirectIO,
			ChunkCount: settings.BufferChunks,
		}
		a.drives = append(a.drives, &driveRig{group: g, pool: pool, driver: driver})
	}

	hostname, _ := os.Hostname()
	capacityGB := float64(summary.TotalCapacity) / (1024 * 1024 * 1024)

	a.controller = miner.New(settings, a, submit, len(a.drives), capacityGB, hostname, log, metrics)
	a.source = puzzle.NewSource(client, settings.MiningInfoInterval, log)

	return a, nil
}

// StartRound implements miner.RoundStarter: launch one reader driver (and
// its workers) per drive group for the given round.
func (a *App) StartRound(cancel <-chan struct{}, spec reader.RoundSpec) {
	for _, rig := range a.drives {
		rig := rig
		a.startWorkers(rig, cancel)
		switch a.settings.ReaderMode {
		case "async":
			go rig.driver.RunAsync(cancel, spec)
		default:
			go rig.driver.RunSync(cancel, spec)
		}
	}
}

func (a *App) startWorkers(rig *driveRig, cancel <-chan struct{}) {
	cpuWorkers := a.settings.CPUWorkers
	if cpuWorkers <= 0 {
		cpuWorkers = runtime.NumCPU() / max1(len(a.drives))
		if cpuWorkers <= 0 {
			cpuWorkers = 1
		}
	}
	for i := 0; i < cpuWorkers; i++ {
		w := cpuworker.New(i, rig.group.DriveID, rig.pool, a.variant, a.log, a.settings.CPUThreadPinning, i)
		go w.Run(cancel, a.controller.OnCandidate)
	}

	for i := 0; i < a.settings.GPUWorkers; i++ {
		var device gpuworker.Device
		if a.settings.GPUMemMapping {
			device = gpuworker.SimDevice{}
		} else {
			device = gpuworker.NullDevice{}
		}
		w := gpuworker.New(rig.group.DriveID, device, rig.pool, a.log)
		go w.Run(cancel, a.controller.OnCandidate)
	}
}

func max1(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

// Run starts the Submitter and Puzzle Source and blocks until ctx is
// cancelled.
func (a *App) Run(ctx context.Context) {
	go a.submit.Run(ctx)
	a.source.Run(ctx, a.controller)
}

// Controller exposes the Miner Controller for diagnostics/metrics
// endpoints that may be added later without changing App's surface.
func (a *App) Controller() *miner.Controller { return a.controller }

// DiskHealth exposes per-drive health counters for a metrics exporter.
func (a *App) DiskHealth() *diskhealth.Registry { return a.health }
