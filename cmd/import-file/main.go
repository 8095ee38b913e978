// Command import-file runs a consolidation from local files, bypassing the
// HTTP upload. Useful for backfills and for reprocessing archived imports.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"bitbucket.org/camposlog/tracking_backend/config"
	"bitbucket.org/camposlog/tracking_backend/consolidation"
	"bitbucket.org/camposlog/tracking_backend/ingest"
	"bitbucket.org/camposlog/tracking_backend/models"
)

func main() {
	erpPath := flag.String("erp", "", "Path to the ERP spreadsheet (xlsx). Required.")
	logisticsPath := flag.String("logistics", "", "Optional: path to the carrier CSV.")
	flag.Parse()

	if strings.TrimSpace(*erpPath) == "" {
		fmt.Fprintln(os.Stderr, "usage: import-file -erp orders.xlsx [-logistics carrier.csv]")
		os.Exit(1)
	}

	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	if config.GetDB() == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil)")
		os.Exit(1)
	}
	models.MigrateTable()

	erpFile, err := os.Open(*erpPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not open erp file: %v\n", err)
		os.Exit(1)
	}
	defer erpFile.Close()
	erpRows, err := ingest.ReadErpXLSX(erpFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not read erp spreadsheet: %v\n", err)
		os.Exit(1)
	}

	var logisticsRows []ingest.Row
	fileNames := filepath.Base(*erpPath)
	importType := models.ImportTypeErp
	if strings.TrimSpace(*logisticsPath) != "" {
		logisticsFile, err := os.Open(*logisticsPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "could not open logistics file: %v\n", err)
			os.Exit(1)
		}
		defer logisticsFile.Close()
		logisticsRows, err = ingest.ReadLogisticsCSV(logisticsFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "could not read logistics csv: %v\n", err)
			os.Exit(1)
		}
		fileNames += ";" + filepath.Base(*logisticsPath)
		importType = models.ImportTypeBoth
	}

	run := &models.ImportRun{
		Status:      models.ImportRunStatusQueued,
		ImportType:  importType,
		FileNames:   fileNames,
		TriggeredBy: "cli",
	}
	if err := config.GetDB().WithContext(ctx).Create(run).Error; err != nil {
		fmt.Fprintf(os.Stderr, "could not create import run: %v\n", err)
		os.Exit(1)
	}

	if err := consolidation.StoreRunInput(ctx, run.ID, erpRows, logisticsRows); err != nil {
		fmt.Fprintf(os.Stderr, "could not store run input: %v\n", err)
		os.Exit(1)
	}
	if err := consolidation.ProcessImportRun(ctx, run.ID); err != nil {
		fmt.Fprintf(os.Stderr, "consolidation failed: %v\n", err)
		os.Exit(1)
	}

	finished, err := models.GetImportRun(ctx, run.ID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not reload run: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("run %d finished with status %s (%d records, %d errors)\n",
		finished.ID, finished.Status, finished.RecordCount, finished.ErrorCount)
}
