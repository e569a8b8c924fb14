package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"irjax/internal/cache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the traced module cache",
}

var cacheDirCmd = &cobra.Command{
	Use:   "dir",
	Short: "Print the cache directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		disk, err := cacheFor(cmd)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), disk.Dir())
		return nil
	},
}

var cacheCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove every cached module",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		disk, err := cacheFor(cmd)
		if err != nil {
			return err
		}
		if err := disk.DropAll(); err != nil {
			return fmt.Errorf("clean %s: %w", disk.Dir(), err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "cleaned %s\n", disk.Dir())
		return nil
	},
}

func init() {
	cacheCmd.PersistentFlags().String("cache-dir", "", "cache directory (default: $XDG_CACHE_HOME/irjax)")
	cacheCmd.AddCommand(cacheDirCmd, cacheCleanCmd)
}

func cacheFor(cmd *cobra.Command) (*cache.Disk, error) {
	dir, err := settingString(cmd, "cache-dir", "cache", "dir")
	if err != nil {
		return nil, err
	}
	return openCache(dir)
}
