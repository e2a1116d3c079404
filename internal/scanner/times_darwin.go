//go:build darwin

package scanner

import (
	"os"
	"syscall"
	"time"
)

func statTimes(info os.FileInfo) fileTimes {
	times := fileTimes{modified: info.ModTime(), accessed: info.ModTime(), created: info.ModTime()}
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return times
	}
	times.accessed = time.Unix(st.Atimespec.Sec, st.Atimespec.Nsec)
	times.created = time.Unix(st.Birthtimespec.Sec, st.Birthtimespec.Nsec)
	return times
}
