// Command protonctl exercises a proton tree end to end: check its
// invariants, dump its structure, or put/get a key against an on-disk
// (or, with no --store, scratch in-memory) tree.
//
// Grounded on the teacher's cobra command tree (cuemby-warren cmd/warren/
// main.go): a root command carrying persistent flags, subcommands
// wired in from init(), and errors surfaced via RunE rather than
// os.Exit calls scattered through handlers.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/infinit-contrib/proton"
)

func main() {
	code := run()
	os.Exit(code)
}

func run() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "protonctl: %v\n", err)
		return exitCode(err)
	}
	return 0
}

var rootCmd = &cobra.Command{
	Use:   "protonctl",
	Short: "Inspect and exercise a proton content-addressed tree",
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file (default: built-in defaults)")
	rootCmd.PersistentFlags().String("store", "", "Path to the bbolt store file (overrides config; empty means in-memory)")
	rootCmd.PersistentFlags().String("network-id", "", "Network ID scoping content addresses (overrides config)")
	rootCmd.PersistentFlags().String("log-level", "", "debug, info, warn, or error (overrides config)")

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(putCmd)
	rootCmd.AddCommand(getCmd)
}

// loadConfig builds a proton.Config from --config plus any persistent
// flag overrides, in that precedence order (flags win).
func loadConfig(cmd *cobra.Command) (proton.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")
	cfg := proton.DefaultConfig()
	if configPath != "" {
		loaded, err := proton.LoadConfig(configPath)
		if err != nil {
			return proton.Config{}, err
		}
		cfg = loaded
	}
	if store, _ := cmd.Flags().GetString("store"); store != "" {
		cfg.StorePath = store
	}
	if networkID, _ := cmd.Flags().GetString("network-id"); networkID != "" {
		cfg.NetworkID = networkID
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.LogLevel = proton.Level(level)
	}
	return cfg, nil
}

func openSession(cmd *cobra.Command) (*proton.Session, context.Context, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	ctx := context.Background()
	sess, err := proton.OpenFromConfig(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return sess, ctx, nil
}
