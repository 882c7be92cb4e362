package plot

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/danhill2020/signum-miner/internal/logging"
)

// DriveGroup is a set of plot files sharing a physical device id.
type DriveGroup struct {
	DriveID          string
	SectorSize       int
	DirectIOEligible bool
	Files            []*File
}

// TotalNonces returns the sum of effective nonce counts across the group,
// i.e. the number of nonces hashed per round on this drive.
func (g *DriveGroup) TotalNonces() uint64 {
	var total uint64
	for _, f := range g.Files {
		total += f.EffectiveNonces
	}
	return total
}

// Registry is the immutable, post-scan view of all plot files: drive
// groups, per-drive sector sizes/bus types, and total plotted capacity.
type Registry struct {
	groups       []*DriveGroup
	totalCapacity int64
}

// Groups returns the immutable list of drive groups.
func (r *Registry) Groups() []*DriveGroup { return r.groups }

// TotalCapacity returns the total plotted capacity in bytes across all
// accepted plot files (post-overlap-trim is irrelevant here: capacity
// reflects bytes actually on disk).
func (r *Registry) TotalCapacity() int64 { return r.totalCapacity }

// Summary is a startup report: total plots, total capacity, and
// per-drive plot counts, the way a production plotting tool always
// reports its find.
type Summary struct {
	TotalPlots       int
	TotalCapacity    int64
	PlotsPerDrive    map[string]int
}

// Summary computes a Summary over the current registry state.
func (r *Registry) Summary() Summary {
	s := Summary{TotalCapacity: r.totalCapacity, PlotsPerDrive: map[string]int{}}
	for _, g := range r.groups {
		s.TotalPlots += len(g.Files)
		s.PlotsPerDrive[g.DriveID] = len(g.Files)
	}
	return s
}

// Scan walks each directory non-recursively, validates candidate plot
// files, resolves their drive group, trims nonce-range overlaps within
// each (drive, account) bucket, and returns the resulting Registry.
// Individual file errors are logged and skipped; Scan itself only fails
// if a directory cannot be read at all.
func Scan(dirs []string, log logging.Sink) (*Registry, error) {
	probe := newDriveProbe()

	type bucketKey struct {
		drive   string
		account uint64
	}
	buckets := map[bucketKey][]*File{}
	driveMeta := map[string]*DriveGroup{}
	var totalCapacity int64

	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("plot: reading directory %s: %w", dir, err)
		}
		driveID, sectorSize, directIO := probe.resolve(dir)
		if _, ok := driveMeta[driveID]; !ok {
			driveMeta[driveID] = &DriveGroup{DriveID: driveID, SectorSize: sectorSize, DirectIOEligible: directIO}
		}

		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			info, err := entry.Info()
			if err != nil {
				log.Warn("plot: stat failed", "path", filepath.Join(dir, entry.Name()), "err", err)
				continue
			}
			f, err := loadCandidate(dir, info)
			if err != nil {
				log.Error("plot: rejecting candidate", "err", err)
				continue
			}
			f.DriveID = driveID
			f.SectorSize = sectorSize
			f.DirectIOEligible = directIO
			totalCapacity += info.Size()

			key := bucketKey{drive: driveID, account: f.AccountID}
			buckets[key] = append(buckets[key], &f)
		}
	}

	for key, files := range buckets {
		kept := trimOverlaps(files, func(msg string) {
			log.Warn("plot: overlap", "drive", key.drive, "account", key.account, "detail", msg)
		})
		dg := driveMeta[key.drive]
		dg.Files = append(dg.Files, kept...)
	}

	groups := make([]*DriveGroup, 0, len(driveMeta))
	for _, dg := range driveMeta {
		if len(dg.Files) == 0 {
			continue
		}
		groups = append(groups, dg)
	}

	return &Registry{groups: groups, totalCapacity: totalCapacity}, nil
}
