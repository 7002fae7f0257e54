// Command mtgjson drives a single build run: parse the selector flags,
// build the Options the root mtgjson package expects, and run Build or
// BuildPrices. This binary only honors the CLI selector contract
// (set lists, output-mode flags, price-only/referral-map, offline mode) — it
// is a thin flag-parsing shell, never where compilation logic lives.
//
// Wiring real provider fetchers (card bulk, rulings, retail inventory,
// marketplace IDs, ...) is a deployment concern left to the operator:
// individual provider HTTP clients are out of scope, so this binary runs
// with whatever internal/cache.Fetcher and internal/prices.Provider
// implementations the embedding program registers before calling Build.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mtgjson/mtgjson"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("mtgjson", flag.ContinueOnError)

	var (
		setsFlag      = fs.String("sets", "", "comma-separated set codes to build (default: all sets)")
		allSets       = fs.Bool("all-sets", false, "build every set named by the set-metadata source")
		skipSetsFlag  = fs.String("skip-sets", "", "comma-separated set codes to exclude")
		resumeBuild   = fs.Bool("resume-build", false, "skip output files that already exist instead of failing")
		formatsFlag   = fs.String("formats", "", "comma-separated export format subset: json,sqlite,csv,parquet,psql (default: all)")
		priceOnly     = fs.Bool("price-only", false, "run only the price engine")
		referralMap   = fs.Bool("referral-map", false, "emit the referral/purchase-URL map instead of a full build")
		offline       = fs.Bool("offline", false, "skip the pipeline and re-assemble from the most recent cached partitions")
		prettyPrint   = fs.Bool("pretty-print", false, "pretty-print JSON output (reserved; writers already emit canonical JSON)")
		compress      = fs.Bool("compress-outputs", false, "reserved: compress written output files")
		version       = fs.String("version", "5.2.2", "version string stamped into the output meta envelope")
	)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	_, _ = prettyPrint, compress

	cfg, err := mtgjson.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "mtgjson: load config: %v\n", err)
		return 1
	}
	if *offline {
		cfg.OfflineMode = true
	}
	if *resumeBuild {
		cfg.ResumeBuild = true
	}

	opts := mtgjson.Options{
		Config:  cfg,
		Sets:    splitAndExclude(*setsFlag, *skipSetsFlag, *allSets),
		Formats: splitCSV(*formatsFlag),
		Version: *version,
	}

	ctx := context.Background()
	today := time.Now().UTC().Format("2006-01-02")

	if *referralMap {
		return runReferralMap(opts)
	}

	if *priceOnly {
		report, err := mtgjson.BuildPrices(ctx, opts, today)
		if err != nil {
			fmt.Fprintf(os.Stderr, "mtgjson: price build failed: %v\n", err)
			return 1
		}
		printReport(report)
		return 0
	}

	result, err := mtgjson.Build(ctx, opts, today)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mtgjson: build failed: %v\n", err)
		return 1
	}
	fmt.Printf("mtgjson: compiled %d sets\n", len(result.Sets))
	printReport(result.Report)
	return 0
}

func splitCSV(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// splitAndExclude resolves the set selector: an explicit list minus any
// skip-set exclusions. With the all-sets flag or an empty list it returns
// nil ("let mtgjson.Build resolve every set from the set-metadata
// source"), and the skip list is not applied.
func splitAndExclude(setsCSV, skipCSV string, allSets bool) []string {
	skip := map[string]bool{}
	for _, s := range splitCSV(skipCSV) {
		skip[s] = true
	}
	if allSets || setsCSV == "" {
		return nil // resolved later against the set-metadata source
	}
	var out []string
	for _, s := range splitCSV(setsCSV) {
		if !skip[s] {
			out = append(out, s)
		}
	}
	return out
}

func printReport(report interface{ Len() int }) {
	if report == nil {
		return
	}
	if n := report.Len(); n > 0 {
		fmt.Printf("mtgjson: %d non-fatal issue(s) recorded during this run\n", n)
	}
}

func runReferralMap(opts mtgjson.Options) int {
	m, err := mtgjson.BuildReferralMap(opts.Config.OutputRoot)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mtgjson: build referral map failed: %v\n", err)
		return 1
	}
	fmt.Printf("mtgjson: built referral map with %d entries\n", len(m))
	return 0
}
