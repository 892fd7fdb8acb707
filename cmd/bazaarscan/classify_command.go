package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"bazaarscan/internal/catalog"
	"bazaarscan/internal/classify"
	"bazaarscan/internal/fingerprint"
	"bazaarscan/internal/services"
)

func newClassifyCommand(ctx *commandContext) *cobra.Command {
	var regionFlags []string
	var noMatch bool
	var forceOutcome string
	var debugCrops bool
	var diagnostics bool

	cmd := &cobra.Command{
		Use:   "classify <image>",
		Short: "Classify the item row of a screenshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger := ctx.ensureLogger()

			regions, err := parseRegions(regionFlags)
			if err != nil {
				return err
			}

			img, err := loadImage(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			req := classify.Request{
				Image:           img,
				Regions:         regions,
				MatchingEnabled: cfg.Matching.Enabled && !noMatch,
			}

			var strategy classify.Strategy
			if strings.TrimSpace(forceOutcome) != "" {
				outcome, err := classify.ParseOutcome(forceOutcome)
				if err != nil {
					return err
				}
				strategy = classify.Forced(outcome)
			} else if req.MatchingEnabled {
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
				loader := catalog.NewLoader(classify.NewFetcher(cfg), cache, classify.LoaderPolicy(cfg), logger)
				strategy = classify.NewEngine(cfg, logger, classify.WithSource(source), classify.WithLoader(loader))
			} else {
				strategy = classify.NewEngine(cfg, logger)
			}

			runCtx := services.WithRequestID(cmd.Context(), uuid.NewString())
			result, err := strategy.Classify(runCtx, req)
			if err != nil {
				return err
			}

			if debugCrops && result.Diagnostics != nil {
				classify.PruneDebugCrops(logger, cfg.Paths.DebugDir, cfg.Paths.DebugRetentionDays, time.Now())
				requestID, _ := services.RequestIDFromContext(runCtx)
				dir := filepath.Join(cfg.Paths.DebugDir, time.Now().Format("20060102-150405")+"-"+requestID[:8])
				paths, err := classify.WriteDebugCrops(dir, img, result.Diagnostics)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d debug crops to %s\n", len(paths), dir)
			}

			if diagnostics {
				return writeJSON(cmd, result)
			}
			return writeJSON(cmd, result.Contract)
		},
	}

	cmd.Flags().StringArrayVar(&regionFlags, "region", nil, "Slot region as left,top,width,height (repeatable, replaces band detection)")
	cmd.Flags().BoolVar(&noMatch, "no-match", false, "Skip catalog matching and emit a disabled contract")
	cmd.Flags().StringVar(&forceOutcome, "force-outcome", "", "Emit a synthetic contract: "+outcomeList())
	cmd.Flags().BoolVar(&debugCrops, "debug-crops", false, "Write slot and group crops to the debug directory")
	cmd.Flags().BoolVar(&diagnostics, "diagnostics", false, "Include pipeline diagnostics alongside the contract")
	return cmd
}

func outcomeList() string {
	names := make([]string, 0, len(classify.Outcomes()))
	for _, o := range classify.Outcomes() {
		names = append(names, string(o))
	}
	return strings.Join(names, ", ")
}

func parseRegions(values []string) ([]fingerprint.Region, error) {
	regions := make([]fingerprint.Region, 0, len(values))
	for _, value := range values {
		region, err := parseRegion(value)
		if err != nil {
			return nil, err
		}
		regions = append(regions, region)
	}
	return regions, nil
}

func parseRegion(value string) (fingerprint.Region, error) {
	parts := strings.Split(value, ",")
	if len(parts) != 4 {
		return fingerprint.Region{}, services.Wrap(services.ErrInvalidRegion, "cli", "parse region", fmt.Sprintf("%q is not left,top,width,height", value), nil)
	}
	nums := make([]int, 4)
	for i, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return fingerprint.Region{}, services.Wrap(services.ErrInvalidRegion, "cli", "parse region", fmt.Sprintf("%q is not left,top,width,height", value), err)
		}
		nums[i] = n
	}
	region := fingerprint.Region{Left: nums[0], Top: nums[1], Width: nums[2], Height: nums[3]}
	if region.Empty() {
		return fingerprint.Region{}, services.Wrap(services.ErrInvalidRegion, "cli", "parse region", fmt.Sprintf("%q has no area", value), nil)
	}
	return region, nil
}
