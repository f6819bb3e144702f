package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// set by -ldflags at build time
var (
	Version   = "0.0.0"
	BuildTime = "default"
	CommitID  = "default"
)

type versionCmd struct {
	BaseCmd
}

func GetVersionCmd() *versionCmd {
	versionCmdIns := new(versionCmd)

	subCmd := &cobra.Command{
		Use:     "version",
		Short:   "view process version information.",
		Example: "xminter version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), versionString())
		},
	}
	versionCmdIns.SetCmd(subCmd)

	return versionCmdIns
}

func versionString() string {
	return fmt.Sprintf("%s-%s %s", Version, CommitID, BuildTime)
}
