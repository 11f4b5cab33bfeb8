package cmd

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/loadexport/internal/export"
)

// Version and BuildDate are stamped with
//
//	-ldflags "-X github.com/ginjaninja78/loadexport/cmd.Version=1.2.0 -X github.com/ginjaninja78/loadexport/cmd.BuildDate=2026-04-15"
//
// An unstamped binary reports the module version recorded by the Go tool.
var (
	Version   = ""
	BuildDate = "unknown"
)

var versionShort bool

// buildVersion returns the stamped version, then the module version, then
// "devel".
func buildVersion() string {
	if Version != "" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return "devel"
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display the version and supported export formats",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		if versionShort {
			fmt.Fprintln(out, buildVersion())
			return
		}

		formats := []string{
			fmt.Sprintf("%s (%s)", export.FormatIIF, export.FormatIIF.Extension()),
			fmt.Sprintf("%s (%s)", export.FormatQBO, export.FormatQBO.Extension()),
		}
		fmt.Fprintf(out, "loadexport %s\n", buildVersion())
		fmt.Fprintf(out, "  built:   %s\n", BuildDate)
		fmt.Fprintf(out, "  go:      %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
		fmt.Fprintf(out, "  formats: %s\n", strings.Join(formats, ", "))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)

	versionCmd.Flags().BoolVar(&versionShort, "short", false, "Print only the version")
}
