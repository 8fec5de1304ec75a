package cmd

import (
	"time"

	"github.com/spf13/cobra"
)

// paramsT groups every flag value accepted by the CLI, one inner
// struct per concern.
type paramsT struct {
	root struct {
		logLevel string
		config   string
	}
	store struct {
		path      string
		chunkSize string
		cacheSize int
		workers   int
	}
	web struct {
		listen       string
		readTimeout  time.Duration
		writeTimeout time.Duration
	}
	file struct {
		name        string
		contentType string
		output      string
	}
}

var params = paramsT{}

const (
	logLevelFlag     = "loglevel"
	configFlag       = "config"
	storePathFlag    = "store"
	chunkSizeFlag    = "chunk-size"
	cacheSizeFlag    = "cache-size"
	workersFlag      = "workers"
	listenFlag       = "listen"
	readTimeoutFlag  = "read-timeout"
	writeTimeoutFlag = "write-timeout"
	fileNameFlag     = "name"
	contentTypeFlag  = "content-type"
	outputFlag       = "output"
)

func addLogLevelFlag(cmd *cobra.Command) string {
	cmd.PersistentFlags().StringVar(&params.root.logLevel, logLevelFlag, "info",
		"The log level, one of: info, debug, warn, none")
	return logLevelFlag
}

func addConfigFlag(cmd *cobra.Command) string {
	cmd.PersistentFlags().StringVar(&params.root.config, configFlag, "",
		"Path to a config file (default: ./chunkd.yaml, $HOME/chunkd.yaml)")
	return configFlag
}

func addStorePathFlag(cmd *cobra.Command) string {
	cmd.PersistentFlags().StringVar(&params.store.path, storePathFlag, ".chunkd",
		"Root directory holding the chunk and metadata stores")
	return storePathFlag
}

func addChunkSizeFlag(cmd *cobra.Command) string {
	cmd.PersistentFlags().StringVar(&params.store.chunkSize, chunkSizeFlag, "1MiB",
		"Fixed chunk size, with a binary unit suffix (e.g. 512KiB, 1MiB, 4MiB)")
	return chunkSizeFlag
}

func addCacheSizeFlag(cmd *cobra.Command) string {
	cmd.PersistentFlags().IntVar(&params.store.cacheSize, cacheSizeFlag, 64,
		"Number of chunks kept in the in-memory read cache")
	return cacheSizeFlag
}

func addWorkersFlag(cmd *cobra.Command) string {
	cmd.PersistentFlags().IntVar(&params.store.workers, workersFlag, 0,
		"Number of hashing workers (default: the number of CPUs)")
	return workersFlag
}

func addListenFlag(cmd *cobra.Command) string {
	cmd.Flags().StringVar(&params.web.listen, listenFlag, "localhost:8080",
		"Address to listen on")
	return listenFlag
}

func addTimeoutFlags(cmd *cobra.Command) {
	cmd.Flags().DurationVar(&params.web.readTimeout, readTimeoutFlag, 30*time.Second,
		"HTTP read timeout")
	cmd.Flags().DurationVar(&params.web.writeTimeout, writeTimeoutFlag, 5*time.Minute,
		"HTTP write timeout")
}

func addFileNameFlag(cmd *cobra.Command) string {
	cmd.Flags().StringVar(&params.file.name, fileNameFlag, "",
		"Name to store the file under (default: the base name of the source)")
	return fileNameFlag
}

func addContentTypeFlag(cmd *cobra.Command) string {
	cmd.Flags().StringVar(&params.file.contentType, contentTypeFlag, "",
		"MIME type recorded in the manifest (default: guessed from the extension)")
	return contentTypeFlag
}

func addOutputFlag(cmd *cobra.Command) string {
	cmd.Flags().StringVar(&params.file.output, outputFlag, "",
		"Destination path, or - for stdout (default: the stored name)")
	return outputFlag
}
