package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/fetchcache/internal/logger"
	"github.com/glorpus-work/fetchcache/pkg/cache"
)

// NewCacheCmd creates the cache command with subcommands
func NewCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the download cache",
		Long:  "Clean, collect, and show information about the persistent download cache",
	}

	cmd.AddCommand(
		newCacheCleanCmd(),
		newCacheInfoCmd(),
		newCacheDirCmd(),
		newCacheGCCmd(),
	)

	return cmd
}

func newCacheCleanCmd() *cobra.Command {
	var (
		all     bool
		expired bool
		invalid bool
	)

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Clean the cache",
		Long:  "Remove cached entries to free up disk space. Without flags every entry is removed",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCacheClean(cmd, all, expired, invalid)
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Remove all cached entries")
	cmd.Flags().BoolVar(&expired, "expired", false, "Remove only entries older than the cache TTL")
	cmd.Flags().BoolVar(&invalid, "invalid", false, "Remove only unreadable or foreign-version entries")

	return cmd
}

func newCacheInfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show cache information",
		Long:  "Display size, entry counts and age of the download cache",
		RunE:  runCacheInfo,
	}

	return cmd
}

func newCacheDirCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dir",
		Short: "Show cache directory path",
		Long:  "Display the path to the cache directory",
		RunE:  runCacheDir,
	}

	return cmd
}

func newCacheGCCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gc",
		Short: "Collect expired cache entries",
		Long:  "Remove expired and invalid entries, as the coordinator does on shutdown",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCacheClean(cmd, false, true, true)
		},
	}

	return cmd
}

func newCacheOperation() (*cache.Operation, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	manager, err := newCacheManager(cfg)
	if err != nil {
		return nil, err
	}
	return cache.NewOperation(manager), nil
}

func runCacheClean(cmd *cobra.Command, all, expired, invalid bool) error {
	cacheOp, err := newCacheOperation()
	if err != nil {
		return err
	}

	msg, err := cacheOp.Clean(all, expired, invalid)
	if err != nil {
		return err
	}

	logger.Debug("Cache cleaning completed", logger.Fields{"directory": cacheOp.GetDirectory()})
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), msg)
	return nil
}

func runCacheInfo(cmd *cobra.Command, _ []string) error {
	cacheOp, err := newCacheOperation()
	if err != nil {
		return err
	}

	info, err := cacheOp.GetInfo()
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), info)
	return nil
}

func runCacheDir(cmd *cobra.Command, _ []string) error {
	cacheOp, err := newCacheOperation()
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), cacheOp.GetDirectory())
	return nil
}
