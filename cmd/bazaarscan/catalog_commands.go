package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"bazaarscan/internal/catalog"
	"bazaarscan/internal/classify"
	"bazaarscan/internal/config"
	"bazaarscan/internal/logging"
	"bazaarscan/internal/services"
)

func newCatalogCommand(ctx *commandContext) *cobra.Command {
	catalogCmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect and maintain the reference catalog",
	}

	catalogCmd.AddCommand(newCatalogListCommand(ctx))
	catalogCmd.AddCommand(newCatalogImportCommand(ctx))
	catalogCmd.AddCommand(newCatalogWarmCommand(ctx))
	catalogCmd.AddCommand(newCatalogPurgeCommand(ctx))

	return catalogCmd
}

func newCatalogListCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var itemsOnly bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalog entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			source, closeSource, err := ctx.catalogSource(cfg)
			if err != nil {
				return err
			}
			defer closeSource()

			entries, err := source.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if itemsOnly {
				entries = catalog.FilterItems(entries)
			}
			if ctx.wantJSON(cmd) {
				if entries == nil {
					entries = []catalog.Entry{}
				}
				return writeJSON(cmd, entries)
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Catalog is empty")
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				kind := e.Kind
				if kind == "" {
					kind = "-"
				}
				rows = append(rows, []string{e.ID, e.Name, kind, e.ImageURL})
			}
			printTable(cmd, columns(col("ID"), col("Name"), col("Kind"), col("Image")), rows)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum entries to list (0 for all)")
	cmd.Flags().BoolVar(&itemsOnly, "items", false, "Only list entries eligible for matching")
	return cmd
}

func newCatalogImportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "import <manifest>",
		Short: "Import a JSON or YAML manifest into the catalog database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cfg.Catalog.DatabasePath == "" {
				return services.Wrap(services.ErrConfiguration, "catalog", "import", "catalog.database_path is not set", nil)
			}
			manifestPath, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			manifest, err := catalog.ReadManifest(manifestPath)
			if err != nil {
				return err
			}
			entries := manifest.Entries(filepath.Dir(manifestPath))

			return withCatalogLock(cfg, func() error {
				store, err := catalog.OpenStore(cfg.Catalog.DatabasePath)
				if err != nil {
					return err
				}
				defer store.Close()

				changed, err := store.Upsert(cmd.Context(), entries)
				if err != nil {
					return err
				}
				total, err := store.Count(cmd.Context())
				if err != nil {
					return err
				}
				ctx.ensureLogger().Info("catalog imported",
					logging.String("manifest", manifestPath),
					logging.Int("entries", len(entries)),
					logging.Int("changed", changed),
					logging.Int("total", total),
				)
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d entries (%d changed, %d total) into %s\n", len(entries), changed, total, store.Path())
				return nil
			})
		},
	}
}

type warmReport struct {
	Considered int           `json:"considered"`
	References int           `json:"references"`
	Failed     int           `json:"failed"`
	CacheHits  int           `json:"cache_hits"`
	Truncated  int           `json:"truncated"`
	Elapsed    time.Duration `json:"elapsed"`
	Failures   []warmFailure `json:"failures,omitempty"`
}

type warmFailure struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Error string `json:"error"`
}

func newCatalogWarmCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "warm",
		Short: "Fetch and fingerprint every catalog item into the cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cfg.Catalog.CacheBackend != config.CacheBackendSQLite {
				fmt.Fprintln(cmd.ErrOrStderr(), "cache_backend is memory; warmed fingerprints will not outlive this process")
			}
			return withCatalogLock(cfg, func() error {
				source, closeSource, err := ctx.catalogSource(cfg)
				if err != nil {
					return err
				}
				defer closeSource()
				cache, closeCache, err := ctx.fingerprintCache(cfg)
				if err != nil {
					return err
				}
				defer closeCache()

				entries, err := source.List(cmd.Context(), 0)
				if err != nil {
					return err
				}
				items := catalog.FilterItems(entries)
				loader := catalog.NewLoader(classify.NewFetcher(cfg), cache, classify.LoaderPolicy(cfg), ctx.ensureLogger())
				report := loader.Load(cmd.Context(), items)

				out := warmReport{
					Considered: len(items),
					References: len(report.References()),
					Failed:     len(report.Failures()),
					CacheHits:  report.CacheHits(),
					Truncated:  report.Truncated,
					Elapsed:    report.Elapsed,
				}
				for _, f := range report.Failures() {
					out.Failures = append(out.Failures, warmFailure{ID: f.Entry.ID, Name: f.Entry.Name, Error: f.Err.Error()})
				}
				if ctx.wantJSON(cmd) {
					return writeJSON(cmd, out)
				}
				printTable(cmd,
					columns(numCol("Considered"), numCol("References"), numCol("Failed"), numCol("Cache hits"), numCol("Truncated"), numCol("Elapsed")),
					[][]string{{
						strconv.Itoa(out.Considered),
						strconv.Itoa(out.References),
						strconv.Itoa(out.Failed),
						strconv.Itoa(out.CacheHits),
						strconv.Itoa(out.Truncated),
						out.Elapsed.Round(time.Millisecond).String(),
					}},
				)
				if len(out.Failures) > 0 {
					rows := make([][]string, 0, len(out.Failures))
					for _, f := range out.Failures {
						rows = append(rows, []string{f.ID, f.Name, f.Error})
					}
					printTable(cmd, columns(col("ID"), col("Name"), col("Error")), rows)
				}
				return nil
			})
		},
	}
}

func newCatalogPurgeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "purge",
		Short: "Delete every cached reference fingerprint",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cfg.Catalog.CacheBackend != config.CacheBackendSQLite {
				fmt.Fprintln(cmd.OutOrStdout(), "Memory cache holds nothing between runs; nothing to purge")
				return nil
			}
			return withCatalogLock(cfg, func() error {
				cache, err := catalog.OpenSQLiteCache(cfg.CacheDatabasePath(), cfg.CacheTTL(), ctx.ensureLogger())
				if err != nil {
					return err
				}
				defer cache.Close()
				removed, err := cache.Purge(cmd.Context())
				if err != nil {
					return fmt.Errorf("purge fingerprint cache: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached fingerprints from %s\n", removed, cfg.CacheDatabasePath())
				return nil
			})
		},
	}
}
