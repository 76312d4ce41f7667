package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var putCmd = &cobra.Command{
	Use:   "put KEY VALUE",
	Short: "Insert or overwrite KEY with VALUE in the tree",
	Args:  cobra.ExactArgs(2),
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

		handle, err := sess.Tree.PutValue(ctx, []byte(args[1]))
		if err != nil {
			return err
		}
		if _, err := sess.Tree.Search(ctx, key); err == nil {
			err = sess.Tree.Update(ctx, key, handle)
		} else {
			err = sess.Tree.Insert(ctx, key, handle)
		}
		if err != nil {
			return err
		}
		if err := sess.Save(); err != nil {
			return err
		}
		fmt.Printf("%d -> %s\n", key, handle.Addr)
		return nil
	},
}
