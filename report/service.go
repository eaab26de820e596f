package report

import (
	"errors"
	"time"

	"Crediflexi/internal/config"
	"Crediflexi/internal/logger"

	"github.com/google/uuid"
)

// IndividualResult is the outcome of one individual-report run: the main
// workbook, the collaborator workbook when the split was requested, and
// the informational counts reported alongside success.
type IndividualResult struct {
	MainWorkbook         []byte
	CollaboratorWorkbook []byte
	Summary              RunSummary
}

// GroupResult is the outcome of one grouped-report run.
type GroupResult struct {
	Workbook []byte
	Summary  RunSummary
}

// fullSheetName defaults the full-dataset sheet to the run date so the
// liquidation VLOOKUP has a stable sheet to reference.
func fullSheetName(opts RenderOptions) string {
	if opts.FullSheetName != "" {
		return opts.FullSheetName
	}
	return time.Now().Format("02012006")
}

// ProcessIndividual runs the whole pipeline over one uploaded portfolio
// spreadsheet: resolve, clean, fraud-filter, derive, partition, render.
// When splitCollaborators is set the dataset divides into two independent
// workbooks, customers and internal staff. A run either yields a complete
// result or fails wholesale; no partial output is returned.
func ProcessIndividual(fileBytes []byte, splitCollaborators bool, cfg config.ReportConfig, opts RenderOptions) (*IndividualResult, error) {
	runID := uuid.New().String()
	logger.Audit("individual report run %s started (%d bytes)", runID, len(fileBytes))

	rows, err := ParseSpreadsheet(fileBytes)
	if err != nil {
		return nil, err
	}
	headers, data, err := headerAndData(rows)
	if err != nil {
		return nil, err
	}
	res, err := ResolveColumns(headers, cfg.ColumnAliases, config.RequiredFields)
	if err != nil {
		return nil, err
	}
	ds, stats, err := Clean(headers, data, res, cfg)
	if err != nil {
		return nil, err
	}
	ds, fraudRemoved := FilterFraud(ds, cfg.FraudCodes)
	logger.Audit("run %s: %d fraud-listed record(s) removed", runID, fraudRemoved)
	Enrich(ds, cfg)

	opts.FullSheetName = fullSheetName(opts)
	summary := RunSummary{
		RunID:           runID,
		RowsLoaded:      len(data),
		DroppedNoCode:   stats.DroppedNoCode,
		FraudRemoved:    fraudRemoved,
		PhoneFlagged:    stats.PhoneFlagged,
		MoraUnparseable: stats.MoraUnparseable,
	}

	result := &IndividualResult{}
	if splitCollaborators {
		main, collab := SplitCollaborators(ds)
		summary.CollaboratorRows = len(collab.Rows)

		mainParts := Partition(main)
		summary.Coordinations = len(mainParts.Coordinations)
		if result.MainWorkbook, err = Render(mainParts, cfg, opts); err != nil {
			return nil, err
		}
		collabParts := Partition(collab)
		if result.CollaboratorWorkbook, err = Render(collabParts, cfg, opts); err != nil {
			return nil, err
		}
	} else {
		parts := Partition(ds)
		summary.Coordinations = len(parts.Coordinations)
		if result.MainWorkbook, err = Render(parts, cfg, opts); err != nil {
			return nil, err
		}
	}

	result.Summary = summary
	logger.Audit("run %s: completed, %d record(s), %d coordination sheet(s)", runID, len(ds.Rows), summary.Coordinations)
	return result, nil
}

// ProcessGroup consolidates the five grouped-report uploads into one
// workbook. File types are detected from content, joined on account and
// group identifiers, and the consolidated dataset then follows the same
// derive/partition/render path as the individual report.
func ProcessGroup(fileBytes [][]byte, cfg config.ReportConfig, opts RenderOptions) (*GroupResult, error) {
	if len(fileBytes) != 5 {
		return nil, errors.New(ErrGroupFileCount)
	}
	runID := uuid.New().String()
	logger.Audit("group report run %s started", runID)

	parsed := make([][][]string, len(fileBytes))
	for i, b := range fileBytes {
		rows, err := ParseSpreadsheet(b)
		if err != nil {
			return nil, err
		}
		parsed[i] = rows
	}

	typed, err := detectGroupTypes(parsed, cfg)
	if err != nil {
		return nil, err
	}
	for _, tf := range typed {
		logger.Audit("run %s: file typed as %s (%d rows)", runID, tf.Type, len(tf.DS.Rows))
	}

	ds, err := MergeGroup(typed, cfg)
	if err != nil {
		return nil, err
	}
	ds, fraudRemoved := FilterFraud(ds, cfg.FraudCodes)
	logger.Audit("run %s: %d fraud-listed record(s) removed", runID, fraudRemoved)
	Enrich(ds, cfg)

	opts.FullSheetName = fullSheetName(opts)
	parts := Partition(ds)
	wb, err := Render(parts, cfg, opts)
	if err != nil {
		return nil, err
	}

	summary := RunSummary{
		RunID:         runID,
		RowsLoaded:    len(ds.Rows),
		FraudRemoved:  fraudRemoved,
		Coordinations: len(parts.Coordinations),
	}
	logger.Audit("run %s: completed, %d consolidated record(s)", runID, len(ds.Rows))
	return &GroupResult{Workbook: wb, Summary: summary}, nil
}
