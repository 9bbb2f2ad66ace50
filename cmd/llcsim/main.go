// llcsim runs memory access traces through a functional last-level cache
// model and reports the miss behavior of its replacement policies.
package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/llcsim/datarecording"
	"github.com/sarchlab/llcsim/mem/llc"
	"github.com/sarchlab/llcsim/mem/repl"
	"github.com/sarchlab/llcsim/trace"
)

var rootCmd = &cobra.Command{
	Use:   "llcsim",
	Short: "Simulate last-level-cache replacement policies.",
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a trace through the cache model.",
	Run: func(cmd *cobra.Command, args []string) {
		runTrace(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("trace", "", "Trace file to simulate")
	runCmd.Flags().String("policy", "lru",
		"Replacement policy (lru, random, drrip)")
	runCmd.Flags().Int("sets", 2048, "Number of sets")
	runCmd.Flags().Int("assoc", 16, "Number of ways per set")
	runCmd.Flags().Int("block-size", 64, "Cache line size in bytes")
	runCmd.Flags().Uint64("seed", 1, "Random sequence seed")
	runCmd.Flags().Bool("hit-policy", false,
		"Use frequency-priority hit promotion")
	runCmd.Flags().Bool("record", false, "Record results to SQLite")
	runCmd.Flags().String("db", "", "Database name used with --record")
	runCmd.Flags().Uint64("interval", 100000,
		"Accesses per recorded interval")
}

func runTrace(cmd *cobra.Command) {
	tracePath, _ := cmd.Flags().GetString("trace")
	if tracePath == "" {
		tracePath = os.Getenv("LLCSIM_TRACE")
	}
	if tracePath == "" {
		log.Fatalf("no trace file given, use --trace or LLCSIM_TRACE")
	}

	traceFile, err := os.Open(tracePath)
	if err != nil {
		log.Fatalf("cannot open trace: %v", err)
	}
	defer traceFile.Close()

	cache := buildCache(cmd)

	reader := trace.NewReader(traceFile)
	for {
		access, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Fatalf("cannot read trace: %v", err)
		}

		cache.Access(access)
	}

	cache.PrintStats(os.Stdout)
	cache.RecordSummary()
}

func buildCache(cmd *cobra.Command) *llc.Comp {
	policyName, _ := cmd.Flags().GetString("policy")
	numSets, _ := cmd.Flags().GetInt("sets")
	assoc, _ := cmd.Flags().GetInt("assoc")
	blockSize, _ := cmd.Flags().GetInt("block-size")
	seed, _ := cmd.Flags().GetUint64("seed")
	hitPolicy, _ := cmd.Flags().GetBool("hit-policy")
	record, _ := cmd.Flags().GetBool("record")
	interval, _ := cmd.Flags().GetUint64("interval")

	builder := llc.MakeBuilder().
		WithNumSets(numSets).
		WithWayAssociativity(assoc).
		WithLog2BlockSize(mustLog2(blockSize)).
		WithPolicy(parsePolicy(policyName)).
		WithSeed(seed).
		WithHitPolicy(hitPolicy).
		WithIntervalSize(interval)

	if record {
		dbName, _ := cmd.Flags().GetString("db")
		if dbName == "" {
			dbName = os.Getenv("LLCSIM_DB_NAME")
		}

		builder = builder.WithRecorder(datarecording.New(dbName))
	}

	cache, err := builder.Build()
	if err != nil {
		log.Fatalf("cannot build cache: %v", err)
	}

	return cache
}

func parsePolicy(name string) repl.Policy {
	switch name {
	case "lru":
		return repl.PolicyLRU
	case "random":
		return repl.PolicyRandom
	case "drrip", "contestant":
		return repl.PolicyContestant
	default:
		log.Fatalf("unknown policy %q, want lru, random, or drrip", name)
		return repl.PolicyLRU
	}
}

func mustLog2(blockSize int) int {
	log2 := 0
	for 1<<log2 < blockSize {
		log2++
	}

	if 1<<log2 != blockSize {
		log.Fatalf("block size must be a power of two, got %d", blockSize)
	}

	return log2
}

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		atexit.Exit(1)
	}

	atexit.Exit(0)
}
