//go:build windows

package scanner

import (
	"os"
	"syscall"
	"time"
)

func statTimes(info os.FileInfo) fileTimes {
	times := fileTimes{modified: info.ModTime(), accessed: info.ModTime(), created: info.ModTime()}
	data, ok := info.Sys().(*syscall.Win32FileAttributeData)
	if !ok {
		return times
	}
	times.accessed = time.Unix(0, data.LastAccessTime.Nanoseconds())
	times.created = time.Unix(0, data.CreationTime.Nanoseconds())
	return times
}
