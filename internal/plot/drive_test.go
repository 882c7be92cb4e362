package plot

import (
	"testing"

	"github.com/shirou/gopsutil/v3/disk"
	"github.com/stretchr/testify/assert"
)

func TestIsRemovableFsType(t *testing.T) {
	assert.True(t, isRemovableFsType("vfat"))
	assert.True(t, isRemovableFsType("EXFAT"))
	assert.False(t, isRemovableFsType("ext4"))
	assert.False(t, isRemovableFsType("xfs"))
}

func TestDriveProbeResolvePicksLongestMountpoint(t *testing.T) {
	p := &driveProbe{partitions: []disk.PartitionStat{
		{Device: "/dev/sda1", Mountpoint: "/", Fstype: "ext4"},
		{Device: "/dev/sdb1", Mountpoint: "/mnt/plots", Fstype: "ext4"},
	}}

	driveID, sectorSize, directOK := p.resolve("/mnt/plots/drive1")
	assert.Equal(t, "/dev/sdb1", driveID)
	assert.Equal(t, DefaultSectorSize, sectorSize)
	assert.True(t, directOK)
}

func TestDriveProbeResolveFlagsRemovableMedia(t *testing.T) {
	p := &driveProbe{partitions: []disk.PartitionStat{
		{Device: "/dev/sdc1", Mountpoint: "/mnt/usb", Fstype: "vfat"},
	}}

	_, _, directOK := p.resolve("/mnt/usb/plots")
	assert.False(t, directOK, "removable filesystems must not be marked direct-I/O eligible")
}

func TestDriveProbeResolveFlagsRemovableViaMountOpts(t *testing.T) {
	p := &driveProbe{partitions: []disk.PartitionStat{
		{Device: "/dev/sdd1", Mountpoint: "/mnt/ext", Fstype: "ext4", Opts: []string{"rw", "removable"}},
	}}

	_, _, directOK := p.resolve("/mnt/ext/plots")
	assert.False(t, directOK, "a removable mount option must disqualify direct I/O even on a non-removable fstype")
}

func TestDriveProbeResolveFallsBackWhenNoMountpointMatches(t *testing.T) {
	p := &driveProbe{}
	driveID, sectorSize, directOK := p.resolve("/nonexistent/path")
	assert.Equal(t, UnknownDriveID, driveID)
	assert.Equal(t, DefaultSectorSize, sectorSize)
	assert.False(t, directOK)
}

func TestProbeSectorSizeFallsBackOnUnopenableDevice(t *testing.T) {
	sz, ok := probeSectorSize("/dev/this-device-does-not-exist")
	assert.False(t, ok)
	assert.Equal(t, 0, sz)

	sz, ok = probeSectorSize("")
	assert.False(t, ok)
	assert.Equal(t, 0, sz)
}
