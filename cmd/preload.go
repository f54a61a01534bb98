/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/judgelink/apiserver/config"
	"github.com/judgelink/apiserver/internal/db"
	"github.com/judgelink/apiserver/internal/services"
	"github.com/judgelink/apiserver/internal/storage"
	"github.com/judgelink/apiserver/internal/store"
	"github.com/judgelink/apiserver/types"
	"github.com/spf13/cobra"
)

var (
	preloadFile         string
	preloadObject       string
	preloadSkipExisting bool
	preloadMaxKeys      int
)

// preloadCmd represents the preload command.
var preloadCmd = &cobra.Command{
	Use:   "preload",
	Short: "Bulk-load contest cache entries from an upstream dump",
	Long: `Bulk-load contest cache entries from a full upstream dump. The dump is read
from a local file (--file) or from the configured object storage bucket (--object)
and reshaped into the same cache entries the resolver would create lazily.`,
}

var preloadCfCmd = &cobra.Command{
	Use:   "cf",
	Short: "Preload Codeforces contests from a problemset dump",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPreload(cmd.Context(), types.PlatformCodeforces)
	},
}

var preloadAtcCmd = &cobra.Command{
	Use:   "atc",
	Short: "Preload AtCoder contests from a problems.json dump",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPreload(cmd.Context(), types.PlatformAtCoder)
	},
}

func init() {
	rootCmd.AddCommand(preloadCmd)
	preloadCmd.AddCommand(preloadCfCmd)
	preloadCmd.AddCommand(preloadAtcCmd)

	preloadCmd.PersistentFlags().StringVar(&preloadFile, "file", "", "path to a local dump file")
	preloadCmd.PersistentFlags().StringVar(&preloadObject, "object", "", "object storage key of the dump")
	preloadCmd.PersistentFlags().BoolVar(&preloadSkipExisting, "skip-existing", false, "skip contests already present in the cache")
	preloadCmd.PersistentFlags().IntVar(&preloadMaxKeys, "max-keys", 0, "maximum number of new cache keys to insert (0 = unlimited)")
}

func runPreload(ctx context.Context, platform types.Platform) error {
	cfg := config.LoadConfig()

	data, err := readDump(ctx, cfg)
	if err != nil {
		return err
	}

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() {
		_ = dbConn.Close()
	}()

	cache := store.NewContestCacheRepository(dbConn)
	preloader := services.NewPreloader(cache)

	opts := services.PreloadOptions{
		SkipExisting: preloadSkipExisting,
		MaxKeys:      preloadMaxKeys,
	}

	var stats services.PreloadStats
	switch platform {
	case types.PlatformCodeforces:
		stats, err = preloader.PreloadCodeforces(ctx, data, opts)
	case types.PlatformAtCoder:
		stats, err = preloader.PreloadAtCoder(ctx, data, opts)
	default:
		return fmt.Errorf("unsupported platform %q", platform)
	}
	if err != nil {
		return err
	}

	fmt.Printf("contests=%d inserted=%d skipped=%d\n", stats.Contests, stats.Inserted, stats.Skipped)
	return nil
}

func readDump(ctx context.Context, cfg config.Config) ([]byte, error) {
	switch {
	case preloadFile != "" && preloadObject != "":
		return nil, errors.New("--file and --object are mutually exclusive")
	case preloadFile != "":
		return os.ReadFile(preloadFile)
	case preloadObject != "":
		dumps, err := newDumpStore(ctx, cfg)
		if err != nil {
			return nil, err
		}
		reader, err := dumps.Get(ctx, preloadObject)
		if err != nil {
			return nil, fmt.Errorf("fetch dump %q: %w", preloadObject, err)
		}
		defer func() {
			_ = reader.Close()
		}()
		return io.ReadAll(reader)
	default:
		return nil, errors.New("one of --file or --object is required")
	}
}

func newDumpStore(ctx context.Context, cfg config.Config) (storage.DumpStore, error) {
	switch strings.ToLower(cfg.Storage.Backend) {
	case "minio":
		return storage.NewMinioClient(cfg.Storage.Minio)
	case "gcs":
		return storage.NewGCSClient(ctx, cfg.Storage.GCS)
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.Storage.Backend)
	}
}
