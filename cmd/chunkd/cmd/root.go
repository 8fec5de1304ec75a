// Package cmd implements the chunkd command line.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "chunkd",
	Short: "A content-addressable chunk store",
	Long: `Chunkd stores files as fixed-size chunks addressed by the hex
SHA-256 digest of their content. Identical chunks are stored once and
shared between files; a per-file manifest records the ordered chunk
list needed to reassemble the original bytes.

Run a server with "chunkd serve", or operate on a local store directly
with the upload, download, update and delete commands.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		applyConfig(cmd)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		wrapFatalWithCodef(1, "%v", err)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	addLogLevelFlag(rootCmd)
	addConfigFlag(rootCmd)
	addStorePathFlag(rootCmd)
	addChunkSizeFlag(rootCmd)
	addCacheSizeFlag(rootCmd)
	addWorkersFlag(rootCmd)
}

// initConfig reads in the config file and ENV variables if set.
func initConfig() {
	if params.root.config != "" {
		viper.SetConfigFile(params.root.config)
	} else {
		viper.SetConfigName("chunkd")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home)
		}
	}
	viper.SetEnvPrefix("CHUNKD")
	viper.AutomaticEnv()
	if err := viper.ReadInConfig(); err != nil {
		if params.root.config != "" {
			wrapFatalln(fmt.Sprintf("reading config %q", params.root.config), err)
		}
	}
}

// applyConfig overlays config file and environment settings on flags the
// user did not set explicitly. Flags win over config, config over defaults.
func applyConfig(cmd *cobra.Command) {
	set := func(flag, key string, assign func()) {
		if viper.IsSet(key) && !cmd.Flags().Changed(flag) {
			assign()
		}
	}
	set(logLevelFlag, "loglevel", func() { params.root.logLevel = viper.GetString("loglevel") })
	set(storePathFlag, "store", func() { params.store.path = viper.GetString("store") })
	set(chunkSizeFlag, "chunk_size", func() { params.store.chunkSize = viper.GetString("chunk_size") })
	set(cacheSizeFlag, "cache_size", func() { params.store.cacheSize = viper.GetInt("cache_size") })
	set(workersFlag, "workers", func() { params.store.workers = viper.GetInt("workers") })
	set(listenFlag, "listen", func() { params.web.listen = viper.GetString("listen") })
}
