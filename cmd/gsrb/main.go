// Command gsrb drives the layout repair engine from the command line:
// repairing a recorded test case against a live device, dumping a live
// hierarchy, diffing two captures, and batch-repairing a directory of
// recordings. Script parsing/rewriting beyond rendering the repaired u2
// script is out of scope; this binary is thin wiring over the repair,
// match, and device/uiautomator packages.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "gsrb",
		Short:         "UI layout matching and repair engine for Android test scripts",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().String("device", "", "target device serial (adb -s)")
	root.PersistentFlags().Int("rpc-port", 9008, "local port forwarded to the uiautomator-server JSON-RPC endpoint")
	viper.BindPFlag("device", root.PersistentFlags().Lookup("device"))
	viper.BindPFlag("rpc-port", root.PersistentFlags().Lookup("rpc-port"))
	viper.SetEnvPrefix("gsrb")
	viper.AutomaticEnv()

	root.AddCommand(newRepairCmd())
	root.AddCommand(newDumpCmd())
	root.AddCommand(newDiffCmd())
	root.AddCommand(newCountCmd())
	root.AddCommand(newBatchCmd())
	return root
}
