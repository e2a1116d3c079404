package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rpattn/assetscan/internal/host"
	"github.com/rpattn/assetscan/internal/pipeline"
)

// promptSelection asks for the scan scope. An unrecognized answer is passed
// through unchanged so the pipeline reports it as an invalid selection.
func promptSelection(in io.Reader, out io.Writer, volumes []host.Volume) (pipeline.Selection, error) {
	reader := bufio.NewReader(in)

	fmt.Fprintln(out, titleStyle.Render("Select an option"))
	fmt.Fprintln(out, "  1. Full scan")
	fmt.Fprintln(out, "  2. Scan a specific volume")
	choice, err := readLine(reader, out, "Enter your choice (1/2): ")
	if err != nil {
		return pipeline.Selection{}, err
	}

	switch choice {
	case "1":
		return pipeline.Selection{Mode: pipeline.ModeFull}, nil
	case "2":
		printVolumes(out, volumes)
		volume, err := readLine(reader, out, "Enter the volume number, letter or mountpoint: ")
		if err != nil {
			return pipeline.Selection{}, err
		}
		return pipeline.Selection{Mode: pipeline.ModeVolume, Volume: volume}, nil
	default:
		return pipeline.Selection{Mode: choice}, nil
	}
}

func readLine(reader *bufio.Reader, out io.Writer, label string) (string, error) {
	fmt.Fprint(out, promptStyle.Render(label))
	line, err := reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("failed to read answer: %w", err)
	}
	return strings.TrimSpace(line), nil
}
