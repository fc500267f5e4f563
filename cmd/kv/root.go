package kv

import (
	"github.com/spf13/cobra"

	"github.com/cristicbz/riakgo/cmd/util"
	"github.com/cristicbz/riakgo/riak"
	"github.com/cristicbz/riakgo/rpc/common"
)

var (
	client *riak.Client

	// KeyValueCommands represents the KV command group
	KeyValueCommands = &cobra.Command{
		Use:                "kv",
		Short:              "Perform key-value operations against a Riak node",
		PersistentPreRunE:  setupKVClient,
		PersistentPostRun:  teardownKVClient,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitClientConfig)

	// Add common client flags to the KV command
	util.SetupClientFlags(KeyValueCommands)

	// Add subcommands
	KeyValueCommands.AddCommand(getCmd)
	KeyValueCommands.AddCommand(setCmd)
	KeyValueCommands.AddCommand(delCmd)
	KeyValueCommands.AddCommand(perfTestCmd)
}

// setupKVClient initializes the Riak client
func setupKVClient(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	// Get client configuration
	config := util.GetClientConfig()
	if err := common.ConfigureLogging(config.LogLevel); err != nil {
		return err
	}

	// Create the client; conflicts are delivered as-is and printed
	var err error
	client, err = riak.NewClient(*config, riak.PassThroughResolver)
	return err
}

func teardownKVClient(*cobra.Command, []string) {
	if client != nil {
		client.Close()
	}
}
