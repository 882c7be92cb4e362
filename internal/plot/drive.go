package plot

import (
	"strings"

	"github.com/shirou/gopsutil/v3/disk"
)

// UnknownDriveID is the synthetic device id assigned when the platform
// probe fails.
const UnknownDriveID = "unknown"

// DefaultSectorSize is the safe fallback when sector-size probing fails.
const DefaultSectorSize = 4096

// driveProbe resolves the device id, sector size and direct-I/O
// eligibility (bus type) for the drive backing dir. Implemented with
// gopsutil's partition enumeration, which covers both Unix stat/df-style
// and Windows volume-letter probing in a single portable call.
type driveProbe struct {
	partitions []disk.PartitionStat
}

func newDriveProbe() *driveProbe {
	parts, err := disk.Partitions(true)
	if err != nil {
		return &driveProbe{}
	}
	return &driveProbe{partitions: parts}
}

// resolve returns (driveID, sectorSize, directIOEligible) for the given
// directory path. On any probe failure it returns the safe defaults:
// UnknownDriveID, DefaultSectorSize, and directIOEligible=false.
func (p *driveProbe) resolve(dir string) (string, int, bool) {
	best := disk.PartitionStat{}
	bestLen := -1
	for _, part := range p.partitions {
		if strings.HasPrefix(dir, part.Mountpoint) && len(part.Mountpoint) > bestLen {
			best = part
			bestLen = len(part.Mountpoint)
		}
	}
	if bestLen < 0 {
		return UnknownDriveID, DefaultSectorSize, false
	}
	driveID := best.Device
	if driveID == "" {
		driveID = best.Mountpoint
	}
	removable := isRemovableFsType(best.Fstype) || strings.Contains(strings.ToLower(strings.Join(best.Opts, ",")), "removable")

	sectorSize := DefaultSectorSize
	if sz, ok := probeSectorSize(best.Device); ok {
		sectorSize = sz
	}
	return driveID, sectorSize, !removable
}

func isRemovableFsType(fstype string) bool {
	switch strings.ToLower(fstype) {
	case "vfat", "exfat", "msdos", "iso9660":
		return true
	default:
		return false
	}
}
