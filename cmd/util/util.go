package util

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cristicbz/riakgo/rpc/common"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		// Check if we need to wrap
		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		// Add space before word (if not first word on line)
		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		// Add the word
		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	// Add any remaining text
	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// SetupClientFlags adds common connection flags to a command
func SetupClientFlags(cmd *cobra.Command) {
	key := "host"
	cmd.PersistentFlags().String(key, "localhost", WrapString("Hostname of the Riak node; may resolve to several addresses, tried in order"))

	key = "port"
	cmd.PersistentFlags().Int(key, 8087, WrapString("Protocol buffers port of the Riak node"))

	key = "deadline-ms"
	cmd.PersistentFlags().Int(key, int(common.DefaultDeadlineMS), WrapString("Total per-request deadline in milliseconds"))

	key = "connect-timeout-ms"
	cmd.PersistentFlags().Int(key, int(common.DefaultConnectionTimeoutMS), WrapString("Per-endpoint connect timeout in milliseconds"))

	key = "connections"
	cmd.PersistentFlags().Int(key, common.DefaultMaxConnections, WrapString("Number of sockets kept to the node"))

	key = "high-watermark"
	cmd.PersistentFlags().Int(key, common.DefaultHighWatermark, WrapString("Buffered pending requests before submissions block"))

	key = "worker-threads"
	cmd.PersistentFlags().Int(key, 0, WrapString("Executor workers (0 uses hardware concurrency)"))

	key = "log-level"
	cmd.PersistentFlags().String(key, "info", WrapString("Log level (debug, info, warn, error)"))
}

// InitClientConfig initializes configuration from environment variables
func InitClientConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix("riakgo")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// GetClientConfig reads client configuration from viper
func GetClientConfig() *common.ClientConfig {
	conf := common.DefaultClientConfig(viper.GetString("host"), uint16(viper.GetInt("port")))
	conf.DeadlineMS = int64(viper.GetInt("deadline-ms"))
	conf.ConnectionTimeoutMS = int64(viper.GetInt("connect-timeout-ms"))
	conf.MaxConnections = viper.GetInt("connections")
	conf.HighWatermark = viper.GetInt("high-watermark")
	conf.WorkerThreads = viper.GetInt("worker-threads")
	conf.LogLevel = viper.GetString("log-level")
	return &conf
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}
