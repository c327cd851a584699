package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/fetchcache/internal/version"
)

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display version information for fetchcache",
		Run:   runVersion,
	}

	return cmd
}

func runVersion(cmd *cobra.Command, _ []string) {
	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "fetchcache version %s\n", version.Version)
	_, _ = fmt.Fprintf(out, "Build date: %s\n", version.BuildDate)
	_, _ = fmt.Fprintf(out, "Git commit: %s\n", version.GitCommit)
	_, _ = fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
}
