// Package report persists a BatchReport: the full JSON document plus
// human-readable digests for reviewers.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"conversation-validator-go/internal/logger"
	"conversation-validator-go/internal/types"
)

const (
	JSONFile     = "validation_report.json"
	MarkdownFile = "validation_summary.md"
	HTMLFile     = "validation_summary.html"
	XLSXFile     = "validation_report.xlsx"
)

// Paths lists the files written by Write.
type Paths struct {
	JSON     string `json:"json"`
	Markdown string `json:"markdown"`
	HTML     string `json:"html"`
	XLSX     string `json:"xlsx"`
}

// Write creates dir if needed and writes every report format into it.
func Write(dir string, b types.BatchReport) (Paths, error) {
	log := logger.New().Component("report").WithField("dir", dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Paths{}, fmt.Errorf("create output dir: %w", err)
	}
	p := Paths{
		JSON:     filepath.Join(dir, JSONFile),
		Markdown: filepath.Join(dir, MarkdownFile),
		HTML:     filepath.Join(dir, HTMLFile),
		XLSX:     filepath.Join(dir, XLSXFile),
	}

	data, err := JSON(b)
	if err != nil {
		return Paths{}, err
	}
	if err := os.WriteFile(p.JSON, data, 0o644); err != nil {
		return Paths{}, fmt.Errorf("write json report: %w", err)
	}

	md := Markdown(b)
	if err := os.WriteFile(p.Markdown, []byte(md), 0o644); err != nil {
		return Paths{}, fmt.Errorf("write markdown digest: %w", err)
	}

	html, err := HTML(md)
	if err != nil {
		return Paths{}, err
	}
	if err := os.WriteFile(p.HTML, html, 0o644); err != nil {
		return Paths{}, fmt.Errorf("write html digest: %w", err)
	}

	if err := Workbook(p.XLSX, b); err != nil {
		return Paths{}, fmt.Errorf("write workbook: %w", err)
	}

	log.WithField("templates", b.Summary.TotalTemplatesTested).Info("validation report saved")
	return p, nil
}

// JSON renders the report with two-space indentation.
func JSON(b types.BatchReport) ([]byte, error) {
	if b.DetailedResults == nil {
		b.DetailedResults = []types.DetailedResult{}
	}
	if b.Recommendations == nil {
		b.Recommendations = []string{}
	}
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}
	return append(data, '\n'), nil
}
