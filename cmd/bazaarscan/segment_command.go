package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"bazaarscan/internal/classify"
	"bazaarscan/internal/grouping"
	"bazaarscan/internal/segment"
)

type segmentReport struct {
	Anchor            int              `json:"anchor"`
	Slots             []segment.Slot   `json:"slots"`
	AdjacentDistances []int            `json:"adjacent_distances"`
	Groups            []grouping.Group `json:"groups"`
}

func newSegmentCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "segment <image>",
		Short: "Show detected slots and their grouping without matching",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			img, err := loadImage(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			analysis, err := segment.Analyze(img, segment.DefaultLayout())
			if err != nil {
				return err
			}
			groups, err := grouping.Consolidate(img, analysis.Slots, classify.GroupingPolicy(cfg))
			if err != nil {
				return err
			}
			report := segmentReport{
				Anchor:            analysis.Anchor,
				Slots:             analysis.Slots,
				AdjacentDistances: grouping.AdjacentDistances(analysis.Slots),
				Groups:            groups,
			}
			if ctx.wantJSON(cmd) {
				return writeJSON(cmd, report)
			}

			groupOf := make(map[int]int, len(report.Slots))
			for gi, g := range groups {
				for _, idx := range g.Indexes() {
					groupOf[idx] = gi
				}
			}
			rows := make([][]string, 0, len(report.Slots))
			for i, slot := range report.Slots {
				dist := "-"
				if i > 0 {
					dist = strconv.Itoa(report.AdjacentDistances[i-1])
				}
				rows = append(rows, []string{
					strconv.Itoa(slot.Index),
					regionLabel(&slot.Region),
					slot.Fingerprint.String(),
					dist,
					strconv.Itoa(groupOf[slot.Index]),
				})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Anchor row: %d\n", report.Anchor)
			printTable(cmd, columns(numCol("Slot"), col("Region"), col("Fingerprint"), numCol("Δ aHash"), numCol("Group")), rows)
			spans := make([]string, len(groups))
			for i, g := range groups {
				spans[i] = strconv.Itoa(g.Span)
			}
			fmt.Fprintf(out, "Group spans: %s\n", strings.Join(spans, " "))
			return nil
		},
	}
}
