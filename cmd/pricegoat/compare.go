package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/PriceGoat/internal/cache"
	"github.com/IshaanNene/PriceGoat/internal/comparator"
	"github.com/IshaanNene/PriceGoat/internal/config"
	"github.com/IshaanNene/PriceGoat/internal/fetcher"
	"github.com/IshaanNene/PriceGoat/internal/observability"
	"github.com/IshaanNene/PriceGoat/internal/scraper"
	"github.com/IshaanNene/PriceGoat/internal/storage"
	"github.com/IshaanNene/PriceGoat/internal/types"
)

// compareOptions holds the flags of the compare subcommand.
type compareOptions struct {
	reference   float64
	limit       int
	sites       string
	timeout     time.Duration
	output      string
	fetcherType string
	storageType string
	noCache     bool
}

// compareCmd creates the "compare" subcommand.
func compareCmd() *cobra.Command {
	opts := &compareOptions{}
	cmd := &cobra.Command{
		Use:   "compare [product name]",
		Short: "Compare prices for a product across sites",
		Long: `Search every enabled site for the product, keep the top listings from
each one and print the price analysis. Words after the command are joined
into a single query.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompare(cmd, opts, strings.Join(args, " "))
		},
	}

	cmd.Flags().Float64VarP(&opts.reference, "reference", "r", 0, "reference price to compare against")
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 0, "listings kept per site (0 = use config)")
	cmd.Flags().StringVar(&opts.sites, "sites", "", "comma-separated site ids to search (default: all enabled)")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", -1, "per-site timeout (-1 = use config, 0 = unbounded)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "text", "output format: text, json")
	cmd.Flags().StringVar(&opts.fetcherType, "fetcher", "", "fetcher type: http, browser")
	cmd.Flags().StringVar(&opts.storageType, "store", "", "storage backends, e.g. jsonl,mongodb")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "bypass the result cache")

	return cmd
}

// runCompare executes the compare command.
func runCompare(cmd *cobra.Command, opts *compareOptions, query string) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return errors.New("product name must not be empty")
	}
	if opts.output != "text" && opts.output != "json" {
		return fmt.Errorf("output must be 'text' or 'json', got %q", opts.output)
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyCLIOverrides(cfg, opts)
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := setupLogger(cfg.Logging)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := observability.NewMetrics(logger)
	if cfg.Metrics.Enabled {
		if err := metrics.StartServer(cfg.Metrics.Port, cfg.Metrics.Path); err != nil {
			logger.Warn("failed to start metrics server", "error", err)
		}
	}

	reg := scraper.Default(cfg, logger)
	if opts.sites != "" {
		reg, err = reg.Select(splitList(opts.sites))
		if err != nil {
			return err
		}
	}

	ref, err := referencePrice(cmd, opts)
	if err != nil {
		return err
	}

	var resultCache cache.Cache
	if !opts.noCache {
		resultCache = openCache(ctx, cfg.Cache, logger)
	}
	if resultCache != nil {
		defer resultCache.Close()
	}

	key := cache.Key(query, ref, reg.IDs(), cfg.Engine.ResultsPerSite)
	var compareErr error
	result, hit := cache.Through(ctx, resultCache, key, cfg.Cache.TTL, logger, func() *types.ComparisonResult {
		var res *types.ComparisonResult
		res, compareErr = compare(ctx, cfg, reg, metrics, logger, query, ref)
		return res
	})
	if compareErr != nil {
		return compareErr
	}
	if hit {
		metrics.RecordCacheHit()
		logger.Info("served from cache", "key", key)
	}

	if err := persist(cfg.Storage, result, metrics, logger); err != nil {
		logger.Error("storage failed", "error", err)
	}

	out := cmd.OutOrStdout()
	if opts.output == "json" {
		return writeJSON(out, result)
	}
	writeText(out, result)
	return nil
}

// compare runs one comparison over the sites in reg.
func compare(ctx context.Context, cfg *config.Config, reg *scraper.Registry, metrics *observability.Metrics, logger *slog.Logger, query string, ref *float64) (*types.ComparisonResult, error) {
	f, err := fetcher.New(cfg, metrics, logger)
	if err != nil {
		return nil, fmt.Errorf("create fetcher: %w", err)
	}
	defer f.Close()

	identities := fetcher.NewIdentityPool(
		cfg.Engine.UserAgents,
		cfg.Engine.AcceptLanguages,
		rand.New(rand.NewSource(time.Now().UnixNano())),
	)
	cmp := comparator.New(reg, f, identities, logger,
		comparator.WithResultsPerSite(cfg.Engine.ResultsPerSite),
		comparator.WithSiteTimeout(cfg.Engine.SiteTimeout),
		comparator.WithMetrics(metrics),
	)

	logger.Info("starting comparison",
		"query", query,
		"sites", reg.IDs(),
		"fetcher", f.Type(),
	)
	start := time.Now()
	result := cmp.Compare(ctx, query, ref)
	logger.Info("comparison complete",
		"elapsed", time.Since(start).Round(time.Millisecond),
		"status", result.Analysis.Status,
		"listings", len(result.Listings()),
	)
	return result, nil
}

// openCache returns the cache shared between CLI runs. An in-memory cache
// dies with the process, so it is skipped here; it only pays off inside a
// long-lived pkg/pricegoat Client.
func openCache(ctx context.Context, cfg config.CacheConfig, logger *slog.Logger) cache.Cache {
	if cfg.Type == "memory" {
		logger.Warn("memory cache does not outlive a single run, use redis to reuse results")
		return nil
	}
	c, err := cache.New(ctx, cfg, logger)
	if err != nil {
		logger.Warn("cache disabled", "error", err)
		return nil
	}
	return c
}

// referencePrice returns the --reference value when the flag was given.
// Zero is a valid reference; negative prices are rejected.
func referencePrice(cmd *cobra.Command, opts *compareOptions) (*float64, error) {
	if !cmd.Flags().Changed("reference") {
		return nil, nil
	}
	if opts.reference < 0 {
		return nil, fmt.Errorf("reference price must be >= 0, got %v", opts.reference)
	}
	ref := opts.reference
	return &ref, nil
}

// persist writes the result to the configured storage backends.
func persist(cfg config.StorageConfig, result *types.ComparisonResult, metrics *observability.Metrics, logger *slog.Logger) error {
	store, err := storage.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("create storage: %w", err)
	}
	if store == nil {
		return nil
	}
	if err := store.Store([]*types.ComparisonResult{result}); err != nil {
		_ = store.Close()
		return err
	}
	if err := store.Close(); err != nil {
		return err
	}
	metrics.RecordStored(1)
	return nil
}

func writeJSON(w io.Writer, result *types.ComparisonResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(result)
}

// writeText prints a human-readable report.
func writeText(w io.Writer, result *types.ComparisonResult) {
	fmt.Fprintf(w, "\nResults for %q\n", result.Query)
	for _, site := range result.Sites {
		fmt.Fprintf(w, "  %-14s %d listings\n", site, len(result.Results[site]))
	}

	a := result.Analysis
	if !a.IsSuccess() {
		fmt.Fprintln(w, "\nNo priced listings found.")
		return
	}

	fmt.Fprintf(w, "\nFound:    %d priced listings\n", a.TotalFound)
	fmt.Fprintf(w, "Min:      S/ %.2f\n", a.MinPrice)
	fmt.Fprintf(w, "Max:      S/ %.2f\n", a.MaxPrice)
	fmt.Fprintf(w, "Average:  S/ %.2f\n", a.AvgPrice)
	fmt.Fprintf(w, "Range:    S/ %.2f\n", a.PriceRange)
	if a.BestDeal != nil {
		fmt.Fprintf(w, "Best:     %s (%s) S/ %.2f\n          %s\n", a.BestDeal.Title, a.BestDeal.Site, a.BestDeal.Price, a.BestDeal.URL)
	}
	if ref := a.Reference; ref != nil {
		verdict := "above market average"
		if ref.ReferenceIsCompetitive {
			verdict = "competitive"
		}
		fmt.Fprintf(w, "\nReference S/ %.2f is %s (vs min %.2f, vs avg %.2f)\n",
			ref.ReferencePrice, verdict, ref.SavingsVsMin, ref.SavingsVsAvg)
	}

	fmt.Fprintln(w, "\nRanked:")
	for i, l := range comparator.Ranked(result) {
		fmt.Fprintf(w, "  %2d. S/ %10.2f  %-14s %s\n", i+1, l.Price, l.Site, l.Title)
	}
}

// applyCLIOverrides applies command-line flag values to the config.
func applyCLIOverrides(cfg *config.Config, opts *compareOptions) {
	if opts.limit > 0 {
		cfg.Engine.ResultsPerSite = opts.limit
	}
	if opts.timeout >= 0 {
		cfg.Engine.SiteTimeout = opts.timeout
	}
	if opts.fetcherType != "" {
		cfg.Fetcher.Type = strings.ToLower(opts.fetcherType)
	}
	if opts.storageType != "" {
		cfg.Storage.Type = strings.ToLower(opts.storageType)
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
