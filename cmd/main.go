package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"Crediflexi/internal/config"
	"Crediflexi/internal/jobs"
	"Crediflexi/internal/logger"
	"Crediflexi/report"
)

func main() {
	// Load .env for local dev; ignored when absent.
	_ = godotenv.Load(".env")

	var (
		group   = flag.Bool("group", false, "consolidate 5 grouped-report files instead of one individual file")
		split   = flag.Bool("collaborators", false, "also generate the separate collaborator workbook")
		cfgPath = flag.String("config", config.EnvStr("REPORT_CONFIG", ""), "optional YAML report configuration override")
		outDir  = flag.String("out", config.EnvStr("UPLOAD_FOLDER", config.DefaultUploadFolder), "output directory for generated reports")
		serve   = flag.Bool("retention", false, "keep running and sweep expired reports on schedule")
	)
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: crediflexi [flags] input.xlsx [input2.xlsx ...]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	logSvc := logger.NewLoggerService(logger.Options{
		FolderPath:    config.EnvStr("LOG_FOLDER", config.DefaultLogFolder),
		MaxFileMB:     config.EnvInt("LOG_MAX_FILE_MB", 10),
		RetentionDays: config.EnvInt("LOG_RETENTION_DAYS", 30),
	})
	if err := logSvc.Start(); err != nil {
		log.Fatal("failed to start logger:", err)
	}
	defer logSvc.Stop()
	logger.SetGlobalLogger(logSvc)

	cfg, err := config.LoadReportConfig(*cfgPath)
	if err != nil {
		log.Fatal("failed to load report config:", err)
	}
	if err := os.MkdirAll(*outDir, 0755); err != nil {
		log.Fatal("failed to create output directory:", err)
	}

	retention := jobs.NewRetentionService(jobs.RetentionConfig{
		Schedule:      config.EnvStr("RETENTION_SCHEDULE", config.DefaultRetentionSchedule),
		Folder:        *outDir,
		RetentionDays: config.EnvInt("RETENTION_DAYS", config.DefaultRetentionDays),
	})
	if *serve {
		if err := retention.Start(); err != nil {
			log.Fatal("failed to start retention service:", err)
		}
		defer retention.Stop()
	} else if removed, err := retention.SweepOnce(); err == nil && removed > 0 {
		log.Printf("removed %d expired report(s) from %s", removed, *outDir)
	}

	stamp := time.Now().Format("02012006")

	if *group {
		if flag.NArg() != 5 {
			log.Fatal("group mode requires exactly 5 input files")
		}
		files := make([][]byte, flag.NArg())
		for i, path := range flag.Args() {
			files[i] = readInput(path)
		}
		result, err := report.ProcessGroup(files, cfg, report.RenderOptions{})
		if err != nil {
			log.Fatal("group report failed: ", err)
		}
		out := filepath.Join(*outDir, fmt.Sprintf("ReporteGrupal_%s.xlsx", stamp))
		writeOutput(out, result.Workbook)
		log.Printf("group report written to %s (%d records, %d removed as fraud)",
			out, result.Summary.RowsLoaded, result.Summary.FraudRemoved)
		return
	}

	multi := flag.NArg() > 1
	for _, path := range flag.Args() {
		result, err := report.ProcessIndividual(readInput(path), *split, cfg, report.RenderOptions{})
		if err != nil {
			log.Fatalf("processing %s failed: %v", path, err)
		}
		out := filepath.Join(*outDir, outputName(path, stamp, multi, ""))
		writeOutput(out, result.MainWorkbook)
		log.Printf("report written to %s (%d rows, %d fraud removed, %d coordination sheets)",
			out, result.Summary.RowsLoaded, result.Summary.FraudRemoved, result.Summary.Coordinations)
		if result.CollaboratorWorkbook != nil {
			collabOut := filepath.Join(*outDir, outputName(path, stamp, multi, "_colaboradores"))
			writeOutput(collabOut, result.CollaboratorWorkbook)
			log.Printf("collaborator report written to %s (%d rows)", collabOut, result.Summary.CollaboratorRows)
		}
	}
}

// outputName builds the date-stamped report file name. With several
// inputs in one run the input file stem is woven in so each report gets
// its own output instead of overwriting the previous one.
func outputName(inputPath, stamp string, multi bool, suffix string) string {
	if !multi {
		return fmt.Sprintf("ReportedeAntigüedad_%s%s.xlsx", stamp, suffix)
	}
	stem := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	return fmt.Sprintf("ReportedeAntigüedad_%s_%s%s.xlsx", stem, stamp, suffix)
}

func readInput(path string) []byte {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("cannot read %s: %v", path, err)
	}
	return data
}

func writeOutput(path string, data []byte) {
	if err := os.WriteFile(path, data, 0644); err != nil {
		log.Fatalf("cannot write %s: %v", path, err)
	}
}
