package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"maps"
	"os"
	"path"
	"path/filepath"
	"slices"
	"time"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"

	"github.com/dvloznov/fraud-analyzer/internal/app"
	"github.com/dvloznov/fraud-analyzer/internal/config"
	"github.com/dvloznov/fraud-analyzer/internal/gcsuploader"
	infra "github.com/dvloznov/fraud-analyzer/internal/infra/bigquery"
	"github.com/dvloznov/fraud-analyzer/internal/knowledge"
	"github.com/dvloznov/fraud-analyzer/internal/logger"
	"github.com/dvloznov/fraud-analyzer/internal/notionsync"
	"github.com/dvloznov/fraud-analyzer/internal/output"
	"github.com/dvloznov/fraud-analyzer/internal/pipeline"
	"github.com/dvloznov/fraud-analyzer/internal/sampledata"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "analyze":
		runAnalyze()
	case "generate":
		runGenerate()
	case "seed":
		runSeed()
	case "upload":
		runUpload()
	case "sync-notion":
		runSyncNotion()
	case "reports":
		runReports()
	case "runs":
		runRuns()
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Fraud Analyzer CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  fraud-analyzer <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  analyze       Analyze a transaction CSV and write per-account reports")
	fmt.Println("  generate      Generate a synthetic transaction table")
	fmt.Println("  seed          Load the fraud knowledge base into the warehouse")
	fmt.Println("  upload        Upload a file to GCS")
	fmt.Println("  sync-notion   Publish reports to a Notion database")
	fmt.Println("  reports       List stored reports")
	fmt.Println("  runs          List recent analysis runs")
	fmt.Println("  help          Show this help message")
	fmt.Println("\nRun 'fraud-analyzer <command> -h' for more information on a command.")
}

// setup parses the command flags, loads configuration and returns a
// context carrying the configured logger.
func setup(fs *flag.FlagSet, configPath *string, timeout time.Duration) (context.Context, context.CancelFunc, *config.Config, zerolog.Logger) {
	fs.Parse(os.Args[2:])

	cfg, err := config.Load(*configPath)
	if err != nil {
		l := logger.New()
		l.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log := logger.NewWithLevel(cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	return logger.WithContext(ctx, log), cancel, cfg, log
}

func runAnalyze() {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to YAML config (optional)")
	input := fs.String("input", "transactions.csv", "Transaction CSV, local path or gs:// URI, or \"warehouse\" for the transactions table")
	account := fs.String("account", "", "Analyze only this account")
	out := fs.String("output", "", "Report JSON destination, local path or gs:// URI (defaults to storage.output_path)")
	store := fs.Bool("store", false, "Also store each report in the warehouse or reports bucket")
	quiet := fs.Bool("quiet", false, "Print only the summary table")
	ctx, cancel, cfg, log := setup(fs, configPath, 30*time.Minute)
	defer cancel()

	if *out == "" {
		*out = cfg.Storage.OutputPath
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}
	defer a.Close()

	runner := *a.Runner
	if !*store {
		runner.Reports = nil
	} else if runner.Reports == nil {
		log.Fatal().Msg("Error: --store needs project_id or storage.reports_bucket")
	}

	log.Info().Str("input", *input).Str("account", *account).Msg("Starting analysis")

	reports, err := runner.AnalyzeSource(ctx, *input, *account)
	if err != nil {
		log.Fatal().Err(err).Msg("Analysis failed")
	}

	if !*quiet {
		for _, r := range reports {
			if err := output.RenderReport(os.Stdout, r); err != nil {
				log.Fatal().Err(err).Msg("Failed to print report")
			}
		}
	}
	if err := output.RenderSummaryTable(os.Stdout, reports); err != nil {
		log.Fatal().Err(err).Msg("Failed to print summary")
	}

	if err := output.SaveReports(ctx, *out, reports, a.Storage); err != nil {
		log.Fatal().Err(err).Msg("Failed to save reports")
	}

	fmt.Printf("\nAnalyzed %d accounts. Reports written to %s\n", len(reports), *out)
}

func runGenerate() {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to YAML config (optional)")
	dir := fs.String("dir", ".", "Output directory for transactions.csv and transactions.json")
	seed := fs.Uint64("seed", 42, "Random seed")
	normal := fs.Int("normal", 50, "Normal transactions per account")
	todayStr := fs.String("today", "", "Reference date YYYY-MM-DD (defaults to today)")
	uploadTo := fs.String("upload", "", "Also upload the CSV under this gs://bucket/prefix")
	load := fs.Bool("load", false, "Also load the rows into the warehouse transactions table")
	ctx, cancel, cfg, log := setup(fs, configPath, 10*time.Minute)
	defer cancel()

	today := civil.DateOf(time.Now())
	if *todayStr != "" {
		d, err := civil.ParseDate(*todayStr)
		if err != nil {
			log.Fatal().Err(err).Str("today", *todayStr).Msg("Error: invalid --today, expected YYYY-MM-DD")
		}
		today = d
	}

	gen := sampledata.DefaultConfig(today)
	gen.Seed = *seed
	gen.NormalPerAccount = *normal
	txs := sampledata.Generate(gen)

	csvPath, jsonPath, err := sampledata.WriteFiles(*dir, txs)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to write sample data")
	}

	sum := sampledata.Summarize(txs)
	fmt.Printf("Generated %d transactions for %d accounts (%d merchants)\n", sum.Transactions, sum.Accounts, sum.Merchants)
	fmt.Printf("Date range: %s to %s\n", sum.FirstDate, sum.LastDate)
	for _, label := range slices.Sorted(maps.Keys(sum.ByIndicator)) {
		fmt.Printf("  %-22s %d\n", label, sum.ByIndicator[label])
	}
	fmt.Printf("Wrote %s and %s\n", csvPath, jsonPath)

	source := csvPath
	if *uploadTo != "" {
		bucket, prefix, err := gcsuploader.ParseGCSURI(*uploadTo)
		if err != nil {
			log.Fatal().Err(err).Msg("Error: invalid --upload URI")
		}
		object := path.Join(prefix, sampledata.CSVFile)
		if err := gcsuploader.UploadFile(ctx, bucket, object, csvPath); err != nil {
			log.Fatal().Err(err).Msg("Upload failed")
		}
		source = fmt.Sprintf("gs://%s/%s", bucket, object)
		fmt.Printf("Uploaded to %s\n", source)
	}

	if *load {
		if err := cfg.RequireProject(); err != nil {
			log.Fatal().Err(err).Msg("Error: --load needs a warehouse")
		}
		repo, err := infra.NewRepository(ctx, app.Dataset(cfg), cfg.CredentialsFile)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create repository")
		}
		defer repo.Close()

		rows := make([]*infra.TransactionRow, len(txs))
		for i, tx := range txs {
			rows[i] = infra.NewTransactionRow(tx, source)
		}
		if err := repo.InsertTransactions(ctx, rows); err != nil {
			log.Fatal().Err(err).Msg("Failed to load transactions")
		}
		fmt.Printf("Loaded %d rows into %s.transactions\n", len(rows), cfg.Dataset)
	}
}

func runSeed() {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to YAML config (optional)")
	ctx, cancel, cfg, log := setup(fs, configPath, 10*time.Minute)
	defer cancel()

	if cfg.Knowledge.Backend == knowledge.BackendMemory {
		fmt.Println("The memory knowledge base is seeded at startup; nothing to persist.")
		return
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}
	defer a.Close()

	if err := knowledge.Seed(ctx, a.Store); err != nil {
		log.Fatal().Err(err).Msg("Seeding failed")
	}

	fmt.Printf("Seeded %d fraud patterns and %d compliance documents.\n",
		len(knowledge.FraudPatterns), len(knowledge.ComplianceDocs))
}

func runUpload() {
	fs := flag.NewFlagSet("upload", flag.ExitOnError)
	bucketName := fs.String("bucket", "", "GCS bucket name")
	objectName := fs.String("object", "", "GCS object name (defaults to filename)")
	filePath := fs.String("file", "", "Path to local file")
	fs.Parse(os.Args[2:])

	log := logger.New()
	if *bucketName == "" || *filePath == "" {
		log.Fatal().Msg("Usage: fraud-analyzer upload -bucket NAME -file PATH")
	}

	if *objectName == "" {
		*objectName = filepath.Base(*filePath)
	}

	ctx := logger.WithContext(context.Background(), log)

	log.Info().
		Str("bucket", *bucketName).
		Str("object", *objectName).
		Str("file", *filePath).
		Msg("Uploading file to GCS")

	if err := gcsuploader.UploadFile(ctx, *bucketName, *objectName, *filePath); err != nil {
		log.Fatal().Err(err).Msg("Upload failed")
	}

	fmt.Printf("Uploaded %s to gs://%s/%s\n", *filePath, *bucketName, *objectName)
}

func runSyncNotion() {
	fs := flag.NewFlagSet("sync-notion", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to YAML config (optional)")
	input := fs.String("input", "", "Report JSON, local path or gs:// URI (defaults to the warehouse)")
	account := fs.String("account", "", "Warehouse only: sync reports for this account")
	limit := fs.Int("limit", 100, "Warehouse only: maximum reports to read")
	token := fs.String("notion-token", "", "Notion API token (defaults to notion.token)")
	dbID := fs.String("notion-db-id", "", "Notion database ID (defaults to notion.reports_db_id)")
	dryRun := fs.Bool("dry-run", false, "Dry run mode - preview changes without syncing")
	prune := fs.Bool("prune", false, "Archive pages whose report is not in the input")
	ctx, cancel, cfg, log := setup(fs, configPath, 10*time.Minute)
	defer cancel()

	if *token == "" {
		*token = cfg.Notion.Token
	}
	if *dbID == "" {
		*dbID = cfg.Notion.ReportsDBID
	}
	if *token == "" {
		log.Fatal().Msg("Error: --notion-token or NOTION_TOKEN is required")
	}
	if *dbID == "" {
		log.Fatal().Msg("Error: --notion-db-id or NOTION_REPORTS_DB_ID is required")
	}

	var (
		reports []*pipeline.Report
		err     error
	)
	if *input != "" {
		reports, err = output.LoadReports(ctx, *input, gcsuploader.NewGCSStorageService())
	} else {
		reports, err = warehouseReports(ctx, cfg, *account, *limit)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read reports")
	}

	log.Info().
		Int("reports", len(reports)).
		Bool("dry_run", *dryRun).
		Bool("prune", *prune).
		Msg("Starting Notion sync")

	client := notionsync.NewNotionClient(*token)
	res, err := notionsync.SyncReports(ctx, client, *dbID, reports, notionsync.SyncOptions{DryRun: *dryRun, Prune: *prune})
	if err != nil {
		log.Fatal().Err(err).Msg("Sync failed")
	}

	fmt.Printf("Sync completed: %d created, %d skipped, %d archived, %d failed.\n",
		res.Created, res.Skipped, res.Deleted, res.Failed)
	if res.Failed > 0 {
		os.Exit(1)
	}
}

func runReports() {
	fs := flag.NewFlagSet("reports", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to YAML config (optional)")
	account := fs.String("account", "", "Only reports for this account")
	limit := fs.Int("limit", 20, "Maximum reports to list")
	asJSON := fs.Bool("json", false, "Print the full reports as JSON")
	ctx, cancel, cfg, log := setup(fs, configPath, 5*time.Minute)
	defer cancel()

	reports, err := warehouseReports(ctx, cfg, *account, *limit)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list reports")
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(reports); err != nil {
			log.Fatal().Err(err).Msg("Failed to encode reports")
		}
		return
	}
	if err := output.RenderSummaryTable(os.Stdout, reports); err != nil {
		log.Fatal().Err(err).Msg("Failed to print reports")
	}
}

func runRuns() {
	fs := flag.NewFlagSet("runs", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to YAML config (optional)")
	limit := fs.Int("limit", 20, "Maximum runs to list")
	ctx, cancel, cfg, log := setup(fs, configPath, 5*time.Minute)
	defer cancel()

	if err := cfg.RequireProject(); err != nil {
		log.Fatal().Err(err).Msg("Error: runs needs a warehouse")
	}
	repo, err := infra.NewRepository(ctx, app.Dataset(cfg), cfg.CredentialsFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to BigQuery")
	}
	defer repo.Close()

	runs, err := repo.ListAnalysisRuns(ctx, *limit)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list analysis runs")
	}

	fmt.Printf("%-36s  %-20s  %-8s  %7s  %s\n", "RUN", "STARTED", "STATUS", "REPORTS", "SOURCE")
	for _, r := range runs {
		reports := "-"
		if r.ReportsCount.Valid {
			reports = fmt.Sprint(r.ReportsCount.Int64)
		}
		fmt.Printf("%-36s  %-20s  %-8s  %7s  %s\n",
			r.RunID, r.StartedTS.Format(time.DateTime), r.Status, reports, r.SourceURI)
		if r.ErrorMessage != "" {
			fmt.Printf("    error: %s\n", r.ErrorMessage)
		}
	}
}

// warehouseReports reads stored reports, skipping rows whose payload
// cannot be decoded.
func warehouseReports(ctx context.Context, cfg *config.Config, account string, limit int) ([]*pipeline.Report, error) {
	if err := cfg.RequireProject(); err != nil {
		return nil, err
	}
	repo, err := infra.NewRepository(ctx, app.Dataset(cfg), cfg.CredentialsFile)
	if err != nil {
		return nil, err
	}
	defer repo.Close()

	rows, err := repo.ListReports(ctx, account, limit)
	if err != nil {
		return nil, err
	}

	log := logger.FromContext(ctx)
	reports := make([]*pipeline.Report, 0, len(rows))
	for _, row := range rows {
		r, err := pipeline.ReportFromRow(row)
		if err != nil {
			log.Warn().Err(err).Str("report_id", row.ReportID).Msg("Skipping unreadable report")
			continue
		}
		reports = append(reports, r)
	}
	return reports, nil
}
