package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get KEY",
	Short: "Look up KEY and print its stored value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("key must be a non-negative integer: %w", err)
		}

		sess, ctx, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer sess.Close()

		handle, err := sess.Tree.Search(ctx, key)
		if err != nil {
			return err
		}
		payload, err := sess.Tree.GetValue(ctx, handle)
		if err != nil {
			return err
		}
		os.Stdout.Write(payload)
		fmt.Println()
		return nil
	},
}
