package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/hctony/barcode/config"
	"github.com/hctony/barcode/core"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"

	// Database drivers for the SQL ledger
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
)

// newWorkbookFile opens the workbook each run writes into.
var newWorkbookFile = core.NewExcelFile

func main() {
	if err := run(os.Stdout, os.Args[1:]); err != nil {
		slog.Error("Generation failed", "error", err)
		os.Exit(1)
	}
}

func run(output io.Writer, args []string) error {
	flags := flag.NewFlagSet("barcode-labels", flag.ContinueOnError)
	flags.SetOutput(output)

	configFile := flags.String("config", "", "Path to YAML bundle with label stocks and batch defaults (optional)")
	start := flags.Int64("start", 0, "First code to generate")
	count := flags.Int64("count", 1000, "Number of codes to generate")
	perSheet := flags.Int64("per-sheet", 1000, "Codes per worksheet")
	outputFile := flags.String("output", "barcodes.xlsx", "Workbook path; ${start} ${end} ${count} ${date} are expanded")
	imageDir := flags.String("images", "barcodes", "Directory for label images")
	stockName := flags.String("stock", config.StockPair, "Label stock: pair, single, or one defined in -config")
	workers := flags.Int("workers", 1, "Concurrent image renderers per row")
	resume := flags.Bool("resume", false, "Start after the last code recorded in the ledger")
	ledgerType := flags.String("ledger", "none", "Issuance ledger: none, csv, mysql, postgres, dynamodb")
	ledgerPath := flags.String("ledger-path", "barcodes-ledger.csv", "CSV ledger file")
	dbDSN := flags.String("db-dsn", "", "Database connection string (DSN) for mysql/postgres ledgers")
	ledgerTable := flags.String("ledger-table", "label_batches", "Table name for SQL and DynamoDB ledgers")
	s3Bucket := flags.String("s3-bucket", "", "S3 bucket name for uploading output")
	s3Prefix := flags.String("s3-prefix", "barcode-labels", "S3 prefix (folder) for uploaded files")

	if err := flags.Parse(args); err != nil {
		return err
	}

	// Initialize structured logger
	logger := slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// 1. Load configuration; explicit flags override the bundle
	if *configFile != "" {
		slog.Info("Loading configuration bundle", "file", *configFile)
	}
	batch, stocks, err := config.LoadConfigBundle(*configFile)
	if err != nil {
		return err
	}
	flags.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "start":
			batch.Start = *start
		case "count":
			batch.Count = *count
		case "per-sheet":
			batch.PerSheet = *perSheet
		case "output":
			batch.Output = *outputFile
		case "images":
			batch.ImageDir = *imageDir
		case "stock":
			batch.Stock = *stockName
		case "workers":
			batch.Workers = *workers
		}
	})

	// 2. Prepare ledger
	ledger, closeLedger, err := openLedger(ctx, *ledgerType, *ledgerPath, *dbDSN, *ledgerTable)
	if err != nil {
		return err
	}
	defer closeLedger()

	if *resume {
		if ledger == nil {
			return fmt.Errorf("-resume requires a ledger")
		}
		next, err := core.NextStart(ctx, ledger, batch.Start)
		if err != nil {
			return fmt.Errorf("failed to read ledger: %w", err)
		}
		slog.Info("Resuming after ledger", "start", next)
		batch.Start = next
	}

	validator := config.NewValidator(config.NewMemoryConfigRegistry(stocks))
	if err := validator.ValidateBatch(batch); err != nil {
		return err
	}
	stock := stocks[batch.Stock]

	// 3. Build workbook
	symbols, err := core.NewSymbolGenerator(stock, batch.ImageDir)
	if err != nil {
		return err
	}
	genCtx := core.NewGenerationContext(batch, stock, nil)
	builder := core.NewWorkbookBuilder(genCtx, symbols)
	builder.NewFile = newWorkbookFile

	slog.Info("Building workbook",
		"start", batch.Start, "count", batch.Count, "perSheet", batch.PerSheet,
		"stock", stock.Name, "layout", stock.Layout)

	report, err := builder.Build(ctx, batch.Start, batch.Count, batch.PerSheet, batch.Output)
	if err != nil {
		return fmt.Errorf("build workbook: %w", err)
	}
	if report.Locked {
		fmt.Fprintln(output, core.LockedMessage(report.Output))
		return nil
	}

	fmt.Fprintf(output, "Workbook created: %s\n", report.Output)
	fmt.Fprintf(output, "%d sheet(s) created\n", len(report.Sheets))

	// 4. Record issued range
	if ledger != nil {
		issued := core.IssuedBatch{
			Start:     report.FirstCode,
			End:       report.LastCode,
			Sheets:    len(report.Sheets),
			Output:    report.Output,
			CreatedAt: time.Now(),
		}
		if err := ledger.Record(ctx, issued); err != nil {
			return fmt.Errorf("failed to record batch in ledger: %w", err)
		}
	}

	// 5. Upload to S3 if configured
	if *s3Bucket != "" {
		slog.Info("Starting S3 upload", "bucket", *s3Bucket, "prefix", *s3Prefix)

		cfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return fmt.Errorf("unable to load AWS SDK config for S3: %w", err)
		}

		uploader := core.NewS3Uploader(cfg, *s3Bucket, *s3Prefix)
		if err := uploader.UploadWorkbook(ctx, report.Output); err != nil {
			return err
		}
		if err := uploader.UploadDirectory(ctx, batch.ImageDir); err != nil {
			return fmt.Errorf("failed to upload images to s3: %w", err)
		}
		slog.Info("Successfully uploaded to S3")
	}

	return nil
}

func openLedger(ctx context.Context, kind, path, dsn, table string) (core.Ledger, func(), error) {
	noop := func() {}

	switch kind {
	case "", "none":
		return nil, noop, nil
	case "csv":
		slog.Info("Using CSV ledger", "file", path)
		return core.NewCSVLedger(path), noop, nil
	case "mysql", "postgres":
		if dsn == "" {
			return nil, noop, fmt.Errorf("db-dsn is required for %s ledger", kind)
		}
		slog.Info("Using SQL ledger", "type", kind, "table", table)
		db, err := sql.Open(kind, dsn)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to open db connection: %w", err)
		}
		closeDB := func() { _ = db.Close() }
		if err := db.PingContext(ctx); err != nil {
			closeDB()
			return nil, noop, fmt.Errorf("failed to ping db: %w", err)
		}
		l, err := core.NewSQLLedger(db, kind, table)
		if err != nil {
			closeDB()
			return nil, noop, err
		}
		if err := l.EnsureSchema(ctx); err != nil {
			closeDB()
			return nil, noop, err
		}
		return l, closeDB, nil
	case "dynamodb":
		slog.Info("Using DynamoDB ledger", "table", table)
		cfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, noop, fmt.Errorf("unable to load AWS SDK config: %w", err)
		}
		return core.NewDynamoDBLedger(cfg, table), noop, nil
	default:
		return nil, noop, fmt.Errorf("unknown ledger type: %s", kind)
	}
}
