// Command reviewctl works the operator review queue directly against the configured store.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	if err := newRootCmd(openService).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(open serviceOpener) *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "reviewctl",
		Short:         "Inspect and decide pending recommendation reviews",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv("CONFIG_PATH"),
		"path to deployment.yaml")

	cli := &cli{configPath: &configPath, open: open}
	rootCmd.AddCommand(cli.queueCmd())
	rootCmd.AddCommand(cli.showCmd())
	rootCmd.AddCommand(cli.historyCmd())
	rootCmd.AddCommand(cli.decideCmd("approve", false))
	rootCmd.AddCommand(cli.decideCmd("override", true))

	return rootCmd
}
