package cli

import (
	"fmt"
	"io"

	"github.com/rpattn/assetscan/internal/config"
	"github.com/rpattn/assetscan/internal/host"
	"github.com/rpattn/assetscan/internal/logging"

	"github.com/spf13/cobra"
)

var volumesCmd = &cobra.Command{
	Use:   "volumes",
	Short: "List the volumes a full scan would visit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(getConfigDir(cmd))
		if err != nil {
			return fmt.Errorf("%w: %v", ErrConfig, err)
		}
		logger := logging.NewRunLogger(cmd.OutOrStdout(), cmd.ErrOrStderr(), "", getVerboseFlag(cmd))
		volumes := host.NewEnumerator(cfg.Scan.ExcludeFSTypes, logger).Volumes(cmd.Context())
		printVolumes(cmd.OutOrStdout(), volumes)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(volumesCmd)
}

func printVolumes(w io.Writer, volumes []host.Volume) {
	if len(volumes) == 0 {
		printErr(w, "No volumes found")
		return
	}
	fmt.Fprintln(w, titleStyle.Render("Available volumes"))
	for i, v := range volumes {
		fmt.Fprintf(w, "  %s %-20s %s\n",
			indexStyle.Render(fmt.Sprintf("%2d.", i+1)),
			v.Mountpoint,
			mutedStyle.Render(fmt.Sprintf("%s (%s)", v.Device, v.FSType)),
		)
	}
}
