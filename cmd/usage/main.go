// Command usage reports aggregated backend usage from the analytics
// database: calls, success counts and mean latency per model.
package main

// #region main
import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/pepper-tutor/go-brain/internal/analytics"
)

func main() {
	dbPath := flag.String("db", "", "path to the analytics database")
	jsonOut := flag.Bool("json", false, "output as JSON instead of a table")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: usage --db path/to/analytics.db [--json]")
		os.Exit(2)
	}

	recorder, err := analytics.NewRecorder(*dbPath, zap.NewNop())
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer recorder.Close()

	rows, err := recorder.UsageByModel(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "query usage: %v\n", err)
		os.Exit(1)
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rows); err != nil {
			fmt.Fprintf(os.Stderr, "encode: %v\n", err)
			os.Exit(1)
		}
		return
	}

	fmt.Printf("%-30s %8s %10s %12s\n", "MODEL", "CALLS", "SUCCESSES", "AVG MS")
	for _, row := range rows {
		fmt.Printf("%-30s %8d %10d %12.1f\n", row.ModelID, row.Calls, row.Successes, row.AvgLatency)
	}
}

// #endregion main
