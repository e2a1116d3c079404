//go:build !linux && !darwin && !windows

package scanner

import "os"

// statTimes falls back to the modification time where the platform's stat
// layout is not known.
func statTimes(info os.FileInfo) fileTimes {
	return fileTimes{modified: info.ModTime(), accessed: info.ModTime(), created: info.ModTime()}
}
