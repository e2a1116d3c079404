// Package host enumerates scan roots and identifies the machine for audit records.
package host

import (
	"context"
	"strings"

	"github.com/rpattn/assetscan/internal/logging"

	"github.com/shirou/gopsutil/v4/disk"
)

// Volume is one mounted filesystem root.
type Volume struct {
	Device     string
	Mountpoint string
	FSType     string
}

// Letter is the upper-cased first character of the mountpoint, the drive
// letter on Windows.
func (v Volume) Letter() string {
	if v.Mountpoint == "" {
		return ""
	}
	return strings.ToUpper(v.Mountpoint[:1])
}

// PartitionLister returns mounted partitions. disk.PartitionsWithContext
// satisfies it.
type PartitionLister func(ctx context.Context, all bool) ([]disk.PartitionStat, error)

// Enumerator lists scan roots.
type Enumerator struct {
	list    PartitionLister
	exclude map[string]struct{}
	logger  logging.Logger
}

// NewEnumerator creates an enumerator over the host's partitions. Partitions
// whose filesystem type is in excludeFSTypes are dropped.
func NewEnumerator(excludeFSTypes []string, logger logging.Logger) *Enumerator {
	return NewEnumeratorWithLister(disk.PartitionsWithContext, excludeFSTypes, logger)
}

// NewEnumeratorWithLister is NewEnumerator with a custom partition source.
func NewEnumeratorWithLister(list PartitionLister, excludeFSTypes []string, logger logging.Logger) *Enumerator {
	exclude := make(map[string]struct{}, len(excludeFSTypes))
	for _, fsType := range excludeFSTypes {
		exclude[strings.ToLower(fsType)] = struct{}{}
	}
	return &Enumerator{list: list, exclude: exclude, logger: logger}
}

// Volumes returns every mounted root, network and removable mounts included.
// Enumeration failures are logged and yield an empty slice.
func (e *Enumerator) Volumes(ctx context.Context) []Volume {
	partitions, err := e.list(ctx, true)
	if err != nil {
		e.logger.Error("Error retrieving drive information: %v", err)
		// gopsutil can return partial results alongside an error.
		if len(partitions) == 0 {
			return []Volume{}
		}
	}

	volumes := make([]Volume, 0, len(partitions))
	seen := make(map[string]struct{}, len(partitions))
	for _, p := range partitions {
		if p.Mountpoint == "" {
			continue
		}
		if _, skip := e.exclude[strings.ToLower(p.Fstype)]; skip {
			e.logger.Verbose("skipping %s (%s)", p.Mountpoint, p.Fstype)
			continue
		}
		if _, dup := seen[p.Mountpoint]; dup {
			continue
		}
		seen[p.Mountpoint] = struct{}{}
		volumes = append(volumes, Volume{
			Device:     p.Device,
			Mountpoint: p.Mountpoint,
			FSType:     p.Fstype,
		})
	}
	return volumes
}
