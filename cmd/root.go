package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cristicbz/riakgo/cmd/kv"
)

const (
	Version = "0.1.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "riakgo",
		Short: "Riak key-value store client",
		Long: fmt.Sprintf(`riakgo (v%s)

A client for Riak-style distributed key-value stores speaking the
length-framed protocol buffers API, with connection pooling, deadlines
and sibling resolution.`, Version),
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of riakgo",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("riakgo v%s\n", Version)
		},
	}
)

func init() {
	// Add Commands
	RootCmd.AddCommand(kv.KeyValueCommands)
	RootCmd.AddCommand(versionCmd)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
