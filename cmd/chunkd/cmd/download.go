package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var downloadCmd = &cobra.Command{
	Use:   "download <name>",
	Short: "Download a file from the store",
	Long: `Download a file from the store.

Chunks are fetched in manifest order and reassembled into the original
bytes. Use --output - to write to stdout.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		name := args[0]
		output := params.file.output
		if output == "" {
			output = name
		}

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

		var w io.Writer
		if output == "-" {
			w = os.Stdout
		} else {
			f, ferr := os.Create(output)
			if ferr != nil {
				wrapFatalln(fmt.Sprintf("create %q", output), ferr)
				return
			}
			defer f.Close()
			w = f
		}
		meta, err := rt.engine.RetrieveTo(ctx, name, w)
		if err != nil {
			wrapFatalln(fmt.Sprintf("retrieve %q", name), err)
			return
		}
		if output != "-" {
			infoLogger.Printf("wrote %q: %d bytes (%s)", output, meta.Size, meta.ContentType)
		}
	},
}

func init() {
	rootCmd.AddCommand(downloadCmd)
	addOutputFlag(downloadCmd)
}
