package cmd

import (
	"fmt"

	"github.com/theirongolddev/cxburn/internal/cli"
	"github.com/theirongolddev/cxburn/internal/model"

	"github.com/spf13/cobra"
)

var (
	flagBucket string
	flagMetric string
)

var seriesCmd = &cobra.Command{
	Use:   "series",
	Short: "Bucketed usage over time",
	RunE:  runSeries,
}

func init() {
	seriesCmd.Flags().StringVar(&flagBucket, "bucket", "day", "Bucket width: hour|day")
	seriesCmd.Flags().StringVar(&flagMetric, "metric", "tokens", "Metric: tokens|cost")
	rootCmd.AddCommand(seriesCmd)
}

func runSeries(cmd *cobra.Command, _ []string) error {
	bucket, err := model.ParseBucket(flagBucket)
	if err != nil {
		return err
	}
	metric, err := model.ParseMetric(flagMetric)
	if err != nil {
		return err
	}

	a, closer, err := openApp()
	if err != nil {
		return err
	}
	defer closer()

	if err := refresh(cmd, a); err != nil {
		return err
	}
	p, err := rangeParams()
	if err != nil {
		return err
	}
	points, err := a.Timeseries(p, bucket, metric)
	if err != nil {
		return err
	}
	if len(points) == 0 {
		fmt.Println("\n  No data in the selected time range.")
		return nil
	}

	values := make([]float64, len(points))
	for i, pt := range points {
		values[i] = pt.Value
	}

	fmt.Println()
	fmt.Printf("  %s\n", cli.RenderSparkline(values))
	fmt.Println()

	rows := make([][]string, 0, len(points))
	for _, pt := range points {
		var v string
		if metric == model.MetricCost {
			v = cli.FormatCost(pt.Value)
		} else {
			v = cli.FormatTokens(uint64(pt.Value))
		}
		rows = append(rows, []string{cli.FormatTS(pt.BucketStart), v})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Bucket", flagMetric},
		Rows:    rows,
	}))
	return nil
}
