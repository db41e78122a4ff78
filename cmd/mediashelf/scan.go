package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ptrevino/mediashelf"
	"github.com/ptrevino/mediashelf/catalog"
	"github.com/ptrevino/mediashelf/config"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Reconcile the catalog against the object store",
	Long: `Walk the object store and compare it with the catalog database.

Objects present in the store but missing from the catalog are reported
as uncataloged; catalog entries whose object is gone are reported as
stale. Nothing is changed unless --adopt or --prune is set.

Examples:
  # Report drift without changing anything
  mediashelf scan

  # Register untracked store objects in the catalog
  mediashelf scan --adopt

  # Drop catalog entries whose objects are gone
  mediashelf scan --prune

  # Restrict the scan to one namespace
  mediashelf scan --prefix audio/`,
	RunE: runScan,
}

var (
	scanPrefix string
	scanAdopt  bool
	scanPrune  bool
	scanQuiet  bool
)

func init() {
	scanCmd.Flags().StringVar(&scanPrefix, "prefix", "", "restrict the scan to keys with this prefix")
	scanCmd.Flags().BoolVar(&scanAdopt, "adopt", false, "catalog store objects missing from the catalog")
	scanCmd.Flags().BoolVar(&scanPrune, "prune", false, "remove catalog entries whose store object is gone")
	scanCmd.Flags().BoolVarP(&scanQuiet, "quiet", "q", false, "suppress per-key output")
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	cat, closeCatalog, err := catalog.Connect(ctx, cfg.Catalog)
	if err != nil {
		return fmt.Errorf("connect catalog: %w", err)
	}
	defer closeCatalog()

	store, closeStore, err := buildStore(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("build store: %w", err)
	}
	defer closeStore()

	slog.Info("scanning object store", "storage", cfg.Storage.Type, "prefix", scanPrefix)

	stored := make(map[string]int64)
	skipped := 0

	walkErr := store.Walk(ctx, scanPrefix, func(key string, size int64) error {
		if _, ok := mediashelf.KeyNamespace(key); !ok {
			skipped++
			if !scanQuiet {
				slog.Warn("skipping non-conforming key", "key", key)
			}
			return nil
		}
		stored[key] = size
		return nil
	})
	if walkErr != nil {
		return fmt.Errorf("walk store: %w", walkErr)
	}

	cataloged, err := listCatalog(ctx, cat, scanPrefix)
	if err != nil {
		return fmt.Errorf("list catalog: %w", err)
	}

	adopted := 0
	refreshed := 0
	uncataloged := 0
	drifted := 0

	for key, size := range stored {
		entry, known := cataloged[key]
		if known && entry.SizeBytes == size {
			continue
		}

		if !scanAdopt {
			if known {
				drifted++
				if !scanQuiet {
					slog.Info("size drift", "key", key, "cataloged", entry.SizeBytes, "stored", size)
				}
			} else {
				uncataloged++
				if !scanQuiet {
					slog.Info("uncataloged", "key", key, "size", size)
				}
			}
			continue
		}

		ns, _ := mediashelf.KeyNamespace(key)
		_, inserted, upsertErr := cat.Upsert(ctx, mediashelf.EntryInput{
			Key:       key,
			Namespace: string(ns),
			SizeBytes: size,
		})
		if upsertErr != nil {
			return fmt.Errorf("adopt %s: %w", key, upsertErr)
		}

		if inserted {
			adopted++
		} else {
			refreshed++
		}
		if !scanQuiet {
			slog.Info("adopted", "key", key, "size", size)
		}
	}

	pruned := 0
	stale := 0

	for key := range cataloged {
		if _, ok := stored[key]; ok {
			continue
		}

		if !scanPrune {
			stale++
			if !scanQuiet {
				slog.Info("stale", "key", key)
			}
			continue
		}

		if deleteErr := cat.Delete(ctx, key); deleteErr != nil {
			return fmt.Errorf("prune %s: %w", key, deleteErr)
		}
		pruned++
		if !scanQuiet {
			slog.Info("pruned", "key", key)
		}
	}

	slog.Info("scan complete",
		"objects", len(stored),
		"entries", len(cataloged),
		"adopted", adopted,
		"refreshed", refreshed,
		"uncataloged", uncataloged,
		"drift", drifted,
		"pruned", pruned,
		"stale", stale,
		"skipped", skipped,
	)
	return nil
}

// listCatalog pages through the catalog and returns all entries under the
// given prefix keyed by storage key.
func listCatalog(ctx context.Context, cat mediashelf.Catalog, prefix string) (map[string]mediashelf.Entry, error) {
	entries := make(map[string]mediashelf.Entry)
	cursor := ""

	for {
		result, err := cat.List(ctx, mediashelf.ListQuery{
			KeyPrefix: prefix,
			Limit:     1000,
			Cursor:    cursor,
		})
		if err != nil {
			return nil, err
		}

		for _, item := range result.Items {
			entries[item.Key] = item
		}

		if result.NextCursor == "" {
			break
		}
		cursor = result.NextCursor
	}

	return entries, nil
}
