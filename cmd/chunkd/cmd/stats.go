package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print store totals",
	Long:  `Print the number of stored files, referenced chunks and stored chunks.`,
	Run: func(cmd *cobra.Command, args []string) {
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
		stats, err := rt.engine.Stats(ctx)
		if err != nil {
			wrapFatalln("collect stats", err)
			return
		}
		infoLogger.Printf("files: %d, referenced chunks: %d, stored chunks: %d",
			stats.Files, stats.ReferencedChunks, stats.StoredChunks)
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
