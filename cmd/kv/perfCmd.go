package kv

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cristicbz/riakgo/riak"
)

var (
	perfTestCmd = &cobra.Command{
		Use:     "perf",
		Short:   "Performance testing tool for Riak nodes",
		RunE:    runPerf,
		PreRunE: processPerfConfig,
	}

	perfKeyPrefix = "__perf"
	perfThreads   = 10
	perfRequests  = 1000
	perfValueKB   = 1
	perfKeySpread = 100
)

func init() {
	// add flags
	key := "threads"
	perfTestCmd.Flags().Int(key, 10, "Number of concurrent workers")
	key = "requests"
	perfTestCmd.Flags().Int(key, 1000, "Store+fetch pairs per worker")
	key = "value-size"
	perfTestCmd.Flags().Int(key, 1, "Value size in KB")
	key = "keys"
	perfTestCmd.Flags().Int(key, 100, "How many distinct keys to spread the load over")
	key = "csv"
	perfTestCmd.Flags().String(key, "", "Optional path to save benchmark results as CSV")
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	perfThreads = viper.GetInt("threads")
	perfRequests = viper.GetInt("requests")
	perfValueKB = viper.GetInt("value-size")
	perfKeySpread = viper.GetInt("keys")
	return nil
}

func runPerf(cmd *cobra.Command, _ []string) error {
	value := make([]byte, perfValueKB*1024)
	for i := range value {
		value[i] = byte('a' + i%26)
	}

	storeHist := metrics.NewHistogram(metrics.NewExpDecaySample(1028, 0.015))
	fetchHist := metrics.NewHistogram(metrics.NewExpDecaySample(1028, 0.015))

	started := time.Now()
	var wg sync.WaitGroup
	var failures sync.Map

	for worker := 0; worker < perfThreads; worker++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			group := riak.NewBlockingGroup()

			for i := 0; i < perfRequests; i++ {
				key := fmt.Sprintf("%s-%d", perfKeyPrefix, (worker*perfRequests+i)%perfKeySpread)

				var storeErr error
				opStart := time.Now()
				client.AsyncStore("perf", key, value, riak.SaveHandler1(group, &storeErr))
				group.WaitAndReset()
				storeHist.Update(time.Since(opStart).Microseconds())
				if storeErr != nil {
					failures.Store(storeErr.Error(), true)
					continue
				}

				var obj riak.Object
				var fetchErr error
				opStart = time.Now()
				client.AsyncFetch("perf", key, riak.SaveHandler2(group, &obj, &fetchErr))
				group.WaitAndReset()
				fetchHist.Update(time.Since(opStart).Microseconds())
				if fetchErr != nil {
					failures.Store(fetchErr.Error(), true)
				}
			}
		}(worker)
	}
	wg.Wait()
	elapsed := time.Since(started)

	total := int64(perfThreads * perfRequests * 2)
	fmt.Printf("completed %d operations in %v (%.0f ops/sec)\n",
		total, elapsed.Round(time.Millisecond), float64(total)/elapsed.Seconds())
	printHistogram("store", storeHist)
	printHistogram("fetch", fetchHist)

	failed := false
	failures.Range(func(msg, _ any) bool {
		fmt.Printf("error seen: %s\n", msg)
		failed = true
		return true
	})
	if failed {
		return fmt.Errorf("some operations failed")
	}

	if path := viper.GetString("csv"); path != "" {
		return writeCSV(path, map[string]metrics.Histogram{
			"store": storeHist,
			"fetch": fetchHist,
		})
	}
	return nil
}

func printHistogram(name string, h metrics.Histogram) {
	fmt.Printf("%-6s p50=%.0fus p95=%.0fus p99=%.0fus mean=%.0fus max=%dus\n",
		name,
		h.Percentile(0.50), h.Percentile(0.95), h.Percentile(0.99),
		h.Mean(), h.Max())
}

func writeCSV(path string, histograms map[string]metrics.Histogram) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"op", "count", "p50_us", "p95_us", "p99_us", "mean_us", "max_us"}); err != nil {
		return err
	}
	for name, h := range histograms {
		record := []string{
			name,
			strconv.FormatInt(h.Count(), 10),
			strconv.FormatFloat(h.Percentile(0.50), 'f', 0, 64),
			strconv.FormatFloat(h.Percentile(0.95), 'f', 0, 64),
			strconv.FormatFloat(h.Percentile(0.99), 'f', 0, 64),
			strconv.FormatFloat(h.Mean(), 'f', 0, 64),
			strconv.FormatInt(h.Max(), 10),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	return nil
}
