package pipeline

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rpattn/assetscan/internal/host"
)

// Scan modes.
const (
	ModeFull   = "full"
	ModeVolume = "volume"
	ModePath   = "path"
)

// ErrInvalidSelection is returned when a selection names no usable root.
var ErrInvalidSelection = errors.New("invalid selection")

// Selection is the user's choice of what to scan.
type Selection struct {
	Mode string
	// Volume is a 1-based index, a drive letter or an exact mountpoint.
	Volume string
	// Root is the directory scanned in path mode.
	Root string
	// Err is set when no choice could be obtained from the user.
	Err error
}

// ResolveSelection turns a selection into scan roots.
func ResolveSelection(volumes []host.Volume, sel Selection) ([]string, error) {
	if sel.Err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSelection, sel.Err)
	}
	switch strings.ToLower(strings.TrimSpace(sel.Mode)) {
	case ModeFull, "":
		roots := make([]string, 0, len(volumes))
		for _, v := range volumes {
			roots = append(roots, v.Mountpoint)
		}
		return roots, nil
	case ModeVolume:
		v, err := matchVolume(volumes, sel.Volume)
		if err != nil {
			return nil, err
		}
		return []string{v.Mountpoint}, nil
	case ModePath:
		root := strings.TrimSpace(sel.Root)
		if root == "" {
			return nil, fmt.Errorf("%w: path mode needs a root directory", ErrInvalidSelection)
		}
		info, err := os.Stat(root)
		if err != nil || !info.IsDir() {
			return nil, fmt.Errorf("%w: %s is not a directory", ErrInvalidSelection, root)
		}
		return []string{root}, nil
	default:
		return nil, fmt.Errorf("%w: unknown mode %q", ErrInvalidSelection, sel.Mode)
	}
}

func matchVolume(volumes []host.Volume, choice string) (host.Volume, error) {
	choice = strings.TrimSpace(choice)
	if choice == "" {
		return host.Volume{}, fmt.Errorf("%w: no volume given", ErrInvalidSelection)
	}

	if index, err := strconv.Atoi(choice); err == nil {
		if index < 1 || index > len(volumes) {
			return host.Volume{}, fmt.Errorf("%w: volume index %d out of range 1-%d", ErrInvalidSelection, index, len(volumes))
		}
		return volumes[index-1], nil
	}

	for _, v := range volumes {
		if v.Mountpoint == choice {
			return v, nil
		}
	}

	if letter := strings.TrimRight(choice, `:\/`); len(letter) == 1 {
		for _, v := range volumes {
			if strings.EqualFold(v.Letter(), letter) {
				return v, nil
			}
		}
	}
	return host.Volume{}, fmt.Errorf("%w: no volume matches %q", ErrInvalidSelection, choice)
}
