package report

import (
	"fmt"
	"strings"
)

// ============================================================================
// INPUT VALIDATION ERRORS
// ============================================================================

const (
	ErrUnsupportedFileType = "Unsupported file type. Please upload an Excel (.xlsx, .xls) or CSV file"
	ErrFileTooLarge        = "The file exceeds the maximum allowed size of 16MB"
	ErrEmptyFile           = "The file is empty or contains no data rows"
	ErrGroupFileCount      = "Exactly 5 files are required for the group report"
)

// MissingColumnError reports every required canonical field that could not
// be resolved against the input headers. The input is structurally
// incompatible; no output is produced.
type MissingColumnError struct {
	Fields []string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("required columns not found: %s", strings.Join(e.Fields, ", "))
}

// UnrecognizedFileError means one of the grouped uploads matched no type
// signature.
type UnrecognizedFileError struct {
	FileIndex int
}

func (e *UnrecognizedFileError) Error() string {
	return fmt.Sprintf("file %d does not match any known report type; please re-check its contents", e.FileIndex+1)
}

// AmbiguousFileSetError means the five grouped uploads did not yield five
// distinct types: some types are missing, or two files claimed the same one.
type AmbiguousFileSetError struct {
	MissingTypes   []string
	DuplicateTypes []string
}

func (e *AmbiguousFileSetError) Error() string {
	var parts []string
	if len(e.MissingTypes) > 0 {
		parts = append(parts, "missing types: "+strings.Join(e.MissingTypes, ", "))
	}
	if len(e.DuplicateTypes) > 0 {
		parts = append(parts, "duplicate types: "+strings.Join(e.DuplicateTypes, ", "))
	}
	return "grouped upload could not be typed (" + strings.Join(parts, "; ") + ")"
}

// RenderError wraps a non-recoverable workbook rendering failure. It is
// logged with full context and surfaced as a generic processing failure.
type RenderError struct {
	Sheet string
	Err   error
}

func (e *RenderError) Error() string {
	if e.Sheet != "" {
		return fmt.Sprintf("rendering sheet %q failed: %v", e.Sheet, e.Err)
	}
	return fmt.Sprintf("rendering workbook failed: %v", e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}
