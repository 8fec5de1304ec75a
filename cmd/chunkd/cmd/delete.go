package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a file from the store",
	Long: `Delete a file from the store.

The manifest is removed first, then every chunk reference the file
held is released. Chunks still referenced by other files remain.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		name := args[0]

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
		if err = rt.engine.Delete(ctx, name); err != nil {
			wrapFatalln(fmt.Sprintf("delete %q", name), err)
			return
		}
		infoLogger.Printf("deleted %q", name)
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}
