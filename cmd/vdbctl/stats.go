package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "report document-body size statistics for the default store",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openFromFlags(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		s, err := db.Stats()
		if err != nil {
			return err
		}
		avg, median, count := db.BodySizeEstimate()

		fmt.Printf("scan:    mean=%.1f min=%.0f max=%.0f stddev=%.1f quality=%.3f\n",
			s.Mean, s.Min, s.Max, s.StdDeviation, s.DistributionQuality)
		fmt.Printf("running: count=%d avg=%d median=%d\n", count, avg, median)
		return nil
	},
}
