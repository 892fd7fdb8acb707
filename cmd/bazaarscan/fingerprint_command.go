package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"bazaarscan/internal/fingerprint"
)

type fingerprintRow struct {
	Region      *fingerprint.Region     `json:"region,omitempty"`
	Fingerprint fingerprint.Fingerprint `json:"fingerprint"`
}

func newFingerprintCommand(ctx *commandContext) *cobra.Command {
	var regionFlags []string
	var compareTo string

	cmd := &cobra.Command{
		Use:   "fingerprint <image>",
		Short: "Print perceptual fingerprints of an image or regions of it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			regions, err := parseRegions(regionFlags)
			if err != nil {
				return err
			}
			img, err := loadImage(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			var rows []fingerprintRow
			if len(regions) == 0 {
				fp, err := fingerprint.ComputeImage(img)
				if err != nil {
					return err
				}
				rows = append(rows, fingerprintRow{Fingerprint: fp})
			}
			for i := range regions {
				fp, err := fingerprint.Compute(img, regions[i])
				if err != nil {
					return err
				}
				rows = append(rows, fingerprintRow{Region: &regions[i], Fingerprint: fp})
			}

			if compareTo != "" {
				other, err := fingerprint.ParseFingerprint(compareTo)
				if err != nil {
					return err
				}
				return printComparisons(cmd, ctx, rows, other)
			}

			if ctx.wantJSON(cmd) {
				return writeJSON(cmd, rows)
			}
			table := make([][]string, 0, len(rows))
			for _, row := range rows {
				table = append(table, []string{regionLabel(row.Region), row.Fingerprint.AHash.String(), row.Fingerprint.DHash.String(), row.Fingerprint.PHash.String()})
			}
			printTable(cmd, columns(col("Region"), col("aHash"), col("dHash"), col("pHash")), table)
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&regionFlags, "region", nil, "Region as left,top,width,height (repeatable)")
	cmd.Flags().StringVar(&compareTo, "compare", "", "Score against a fingerprint in ahash:dhash:phash form")
	cmd.Annotations = map[string]string{"skipConfigLoad": "true"}
	return cmd
}

func printComparisons(cmd *cobra.Command, ctx *commandContext, rows []fingerprintRow, other fingerprint.Fingerprint) error {
	type comparison struct {
		fingerprintRow
		Distances fingerprint.Distances `json:"distances"`
		Score     int                   `json:"score"`
	}
	out := make([]comparison, 0, len(rows))
	for _, row := range rows {
		out = append(out, comparison{
			fingerprintRow: row,
			Distances:      fingerprint.Compare(row.Fingerprint, other),
			Score:          fingerprint.Score(row.Fingerprint, other),
		})
	}
	if ctx.wantJSON(cmd) {
		return writeJSON(cmd, out)
	}
	table := make([][]string, 0, len(out))
	for _, c := range out {
		table = append(table, []string{
			regionLabel(c.Region),
			strconv.Itoa(c.Distances.AHash),
			strconv.Itoa(c.Distances.DHash),
			strconv.Itoa(c.Distances.PHash),
			strconv.Itoa(c.Score),
		})
	}
	printTable(cmd, columns(col("Region"), numCol("aHash"), numCol("dHash"), numCol("pHash"), numCol("Score")), table)
	return nil
}

func regionLabel(r *fingerprint.Region) string {
	if r == nil {
		return "full image"
	}
	return fmt.Sprintf("%d,%d %dx%d", r.Left, r.Top, r.Width, r.Height)
}
