package main

import (
	"os"

	"github.com/spf13/cobra"
)

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Print a human-readable recursive view of the tree",
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, ctx, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer sess.Close()

		return sess.Tree.Dump(ctx, os.Stdout)
	},
}
