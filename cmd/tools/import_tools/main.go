package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"tool-rack-lookup/internal/store"
	"tool-rack-lookup/pkg/importer"
)

func main() {
	filePath := flag.String("file", "", "path to the .xlsx workbook")
	customerID := flag.Int64("customer-id", 0, "customer that owns the imported tools")
	sheet := flag.String("sheet", "", "sheet to import (default: mapping sheet or first sheet)")
	mappingPath := flag.String("mapping", "", "YAML header mapping (default: embedded)")
	dryRun := flag.Bool("dry-run", false, "validate and roll back")
	maxErrors := flag.Int("max-errors", 50, "abort after this many row errors")
	flag.Parse()

	if *filePath == "" || *customerID <= 0 {
		fmt.Println("Usage: import_tools --file=path.xlsx --customer-id=N [--sheet=Tools] [--mapping=file.yaml] [--dry-run]")
		os.Exit(1)
	}

	_ = godotenv.Load()
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("DB_DSN environment variable is required")
	}

	ctx := context.Background()
	pool, err := store.Connect(ctx, dsn)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	file, err := os.Open(*filePath)
	if err != nil {
		log.Fatalf("Failed to open workbook: %v", err)
	}
	defer file.Close()

	fmt.Printf("Importing %s for customer_id=%d (dry_run=%v)\n", *filePath, *customerID, *dryRun)
	fmt.Println(strings.Repeat("=", 60))

	summary, err := importer.ImportExcel(ctx, pool, file, importer.ImportOptions{
		CustomerID:  *customerID,
		Sheet:       *sheet,
		MappingPath: *mappingPath,
		DryRun:      *dryRun,
		MaxErrors:   *maxErrors,
	})
	printSummary(summary)
	if err != nil {
		log.Fatalf("Import failed: %v", err)
	}
}

func printSummary(summary importer.ImportSummary) {
	fmt.Println("IMPORT SUMMARY")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("Inserted: %d\n", summary.Inserted)
	fmt.Printf("Updated:  %d\n", summary.Updated)
	fmt.Printf("Skipped:  %d\n", summary.Skipped)
	fmt.Printf("Errors:   %d\n", summary.Errors)
	fmt.Printf("Warnings: %d\n", summary.Warnings)
	fmt.Printf("Dry run:  %v\n", summary.DryRun)

	for _, sheet := range summary.Sheets {
		fmt.Printf("\n%s: inserted=%d, updated=%d, skipped=%d, errors=%d, warnings=%d\n",
			sheet.Name, sheet.Inserted, sheet.Updated, sheet.Skipped, sheet.Errors, sheet.Warnings)
		for _, e := range sheet.Samples {
			fmt.Printf("  error   row %d: %s\n", e.Row, e.Message)
		}
		for _, w := range sheet.Warned {
			fmt.Printf("  warning row %d: %s\n", w.Row, w.Message)
		}
	}
}
