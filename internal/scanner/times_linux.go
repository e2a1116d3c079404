//go:build linux

package scanner

import (
	"os"
	"syscall"
	"time"
)

// statTimes uses the inode change time as creation time; Linux stat does not
// report birth time.
func statTimes(info os.FileInfo) fileTimes {
	times := fileTimes{modified: info.ModTime(), accessed: info.ModTime(), created: info.ModTime()}
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return times
	}
	times.accessed = time.Unix(int64(st.Atim.Sec), int64(st.Atim.Nsec))
	times.created = time.Unix(int64(st.Ctim.Sec), int64(st.Ctim.Nsec))
	return times
}
