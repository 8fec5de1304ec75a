package cmd

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var uploadCmd = &cobra.Command{
	Use:   "upload <path>",
	Short: "Upload a file into the store",
	Long: `Upload a file into the store.

The file is split into fixed-size chunks, each chunk is stored under
the hex SHA-256 digest of its content, and a manifest with the ordered
chunk list is written. Chunks already present are not written again.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runFileIngest(args[0], false)
	},
}

var updateCmd = &cobra.Command{
	Use:   "update <path>",
	Short: "Replace the content of a stored file",
	Long: `Replace the content of a stored file.

The target must already exist. Only chunks new to the file are written
and referenced; chunks no longer used by it are released, and deleted
once no other file references them.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runFileIngest(args[0], true)
	},
}

// runFileIngest drives upload or update from a local path.
func runFileIngest(path string, update bool) {
	name := params.file.name
	if name == "" {
		name = filepath.Base(path)
	}
	contentType := params.file.contentType
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(path))
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	source, err := os.Open(path)
	if err != nil {
		wrapFatalln(fmt.Sprintf("open %q", path), err)
		return
	}
	defer source.Close()

	rt, err := newRuntime()
	if err != nil {
		wrapFatalln("initialize store", err)
		return
	}
	defer rt.Close()

	ctx := context.Background()
	if err = rt.engine.Reconcile(ctx); err != nil {
		wrapFatalln("reconcile reference counts", err)
		return
	}

	apply := rt.engine.Upload
	if update {
		apply = rt.engine.Update
	}
	meta, err := apply(ctx, source, name, contentType)
	if err != nil {
		wrapFatalln(fmt.Sprintf("store %q", name), err)
		return
	}
	infoLogger.Printf("stored %q: %d bytes in %d chunks", meta.Filename, meta.Size, len(meta.Chunks))
}

func init() {
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(updateCmd)
	for _, c := range []*cobra.Command{uploadCmd, updateCmd} {
		addFileNameFlag(c)
		addContentTypeFlag(c)
	}
}
