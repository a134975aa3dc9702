package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/davecgh/go-spew/spew"

	"spendlens/internal/analytics"
	"spendlens/internal/config"
	"spendlens/internal/core"
	"spendlens/internal/ingest"
	"spendlens/internal/report"
	gsheet "spendlens/internal/sheets/google"
)

type analysisFlags struct {
	file     string
	clusters int
	seed     int64
	indexing string
}

func (f *analysisFlags) register(fs *flag.FlagSet) {
	def := analytics.DefaultConfig()
	fs.StringVar(&f.file, "file", "", "input CSV file (required)")
	fs.IntVar(&f.clusters, "clusters", def.Clusters.Count, fmt.Sprintf("number of spending types (%d-%d)", config.MinClusters, config.MaxClusters))
	fs.Int64Var(&f.seed, "seed", def.Clusters.Seed, "random seed for clustering")
	fs.StringVar(&f.indexing, "indexing", string(def.Indexing), "forecast period indexing: sequential or calendar")
}

// run loads the file and executes the pipeline with the flag overrides.
func (f *analysisFlags) run() (*analytics.Result, error) {
	if f.file == "" {
		return nil, fmt.Errorf("-file is required: %w", errUsage)
	}
	if f.clusters < config.MinClusters || f.clusters > config.MaxClusters {
		return nil, fmt.Errorf("-clusters must be between %d and %d", config.MinClusters, config.MaxClusters)
	}
	cfg := analytics.DefaultConfig()
	cfg.Clusters.Count = f.clusters
	cfg.Clusters.Seed = f.seed
	cfg.Indexing = analytics.Indexing(f.indexing)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	raw, err := ingest.ReadFile(f.file)
	if err != nil {
		return nil, err
	}
	return analytics.Run(raw, cfg)
}

func runAnalyze(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("analyze", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var af analysisFlags
	af.register(fs)
	asJSON := fs.Bool("json", false, "print the result as JSON")
	dump := fs.Bool("dump", false, "dump the raw result structure")
	if err := fs.Parse(args); err != nil {
		return err
	}

	res, err := af.run()
	if err != nil {
		return err
	}

	switch {
	case *dump:
		cfg := spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, SortKeys: true}
		cfg.Fdump(stdout, res)
		return nil
	case *asJSON:
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(jsonResult(res))
	default:
		return printResult(stdout, res)
	}
}

func runReport(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var af analysisFlags
	af.register(fs)
	formatName := fs.String("format", string(report.FormatPDF), "export format: csv, pdf or xlsx")
	out := fs.String("out", "", "output path (default expenses_report_YYYYMMDD.<format>)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	format, err := report.ParseFormat(*formatName)
	if err != nil {
		return err
	}
	res, err := af.run()
	if err != nil {
		return err
	}

	path := *out
	if path == "" {
		path = format.Filename(time.Now())
	}
	fh, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := report.Render(fh, format, res); err != nil {
		fh.Close()
		return err
	}
	if err := fh.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	fmt.Fprintf(stdout, "wrote %s\n", path)
	return nil
}

func runImportSheet(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("import-sheet", flag.ContinueOnError)
	fs.SetOutput(stderr)
	rng := fs.String("range", gsheet.DefaultRange, "A1 range holding the expense table")
	out := fs.String("out", "", "output CSV path (default stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := config.Load()
	if cfg.GoogleSpreadsheetID == "" {
		return errors.New("GOOGLE_SPREADSHEET_ID is not set")
	}
	client, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		return err
	}
	table, err := client.ReadTable(ctx, *rng)
	if err != nil {
		return err
	}

	if *out == "" {
		return ingest.WriteCSV(stdout, table)
	}
	fh, err := os.Create(*out)
	if err != nil {
		return fmt.Errorf("create %s: %w", *out, err)
	}
	if err := ingest.WriteCSV(fh, table); err != nil {
		fh.Close()
		return err
	}
	if err := fh.Close(); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "wrote %d rows to %s\n", len(table.Rows), *out)
	return nil
}

type cliResult struct {
	Status        analytics.Status         `json:"status"`
	Transactions  int                      `json:"transactions"`
	Dropped       []analytics.DroppedRow   `json:"dropped"`
	Categories    []core.CategoryAmount    `json:"categories"`
	Periods       []core.PeriodAmount      `json:"periods"`
	SpendingTypes *analytics.SpendingTypes `json:"spending_types,omitempty"`
	Forecast      *analytics.Forecast      `json:"forecast,omitempty"`
	Insights      []analytics.Insight      `json:"insights"`
	Summary       analytics.Summary        `json:"summary"`
	Notices       []analytics.Notice       `json:"notices"`
	Skipped       []string                 `json:"skipped,omitempty"`
}

func roundedForecast(f *analytics.Forecast) *analytics.Forecast {
	if f == nil {
		return nil
	}
	out := *f
	out.Predicted = core.RoundAmount(f.Predicted)
	return &out
}

func jsonResult(res *analytics.Result) cliResult {
	out := cliResult{
		Status:        res.Status(),
		Transactions:  len(res.Transactions),
		Dropped:       res.Dropped,
		Categories:    res.Aggregates.Categories.Sorted(),
		Periods:       res.Aggregates.Periods,
		SpendingTypes: res.SpendingTypes,
		Forecast:      roundedForecast(res.Forecast),
		Insights:      res.Insights,
		Summary:       res.Summary,
		Notices:       res.Notices,
	}
	for _, err := range []error{res.ClusteringErr, res.ForecastErr} {
		if err != nil {
			out.Skipped = append(out.Skipped, err.Error())
		}
	}
	return out
}

func printResult(w io.Writer, res *analytics.Result) error {
	s := res.Summary
	fmt.Fprintf(w, "Status: %s\n", res.Status())
	fmt.Fprintf(w, "Transactions: %d (dropped %d)\n", s.Count, len(res.Dropped))
	fmt.Fprintf(w, "Total: %s  Mean expense: %s  Mean monthly: %s  Largest: %s\n\n",
		core.FormatAmount(s.Total), core.FormatAmount(s.MeanExpense),
		core.FormatAmount(s.MeanMonthly), core.FormatAmount(s.Largest))

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CATEGORY\tAMOUNT")
	for _, ca := range res.Aggregates.Categories.Sorted() {
		fmt.Fprintf(tw, "%s\t%s\n", ca.Name, core.FormatAmount(ca.Amount))
	}
	fmt.Fprintln(tw)

	labels := map[core.Period]int{}
	if res.SpendingTypes != nil {
		labels = res.SpendingTypes.Assignments()
	}
	fmt.Fprintln(tw, "MONTH\tAMOUNT\tSPENDING TYPE")
	for _, pa := range res.Aggregates.Periods {
		kind := "-"
		if l, ok := labels[pa.Period]; ok {
			kind = analytics.SpendingTypeName(l)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", pa.Period, core.FormatAmount(pa.Amount), kind)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if res.ClusteringErr != nil {
		fmt.Fprintf(w, "\nSpending types: %v\n", res.ClusteringErr)
	}
	if f := res.Forecast; f != nil {
		fmt.Fprintf(w, "\nForecast for %s: %s\n", f.NextPeriod, core.FormatAmount(f.Predicted))
	} else if res.ForecastErr != nil {
		fmt.Fprintf(w, "\nForecast: %v\n", res.ForecastErr)
	}
	for _, n := range res.Notices {
		fmt.Fprintf(w, "Notice: %s\n", n.Message)
	}

	if len(res.Insights) > 0 {
		fmt.Fprintln(w, "\nInsights:")
		for _, in := range res.Insights {
			fmt.Fprintf(w, "  - %s\n", in.Message)
		}
	}
	return nil
}
