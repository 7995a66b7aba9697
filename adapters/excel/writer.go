package excel

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"biotriage/domain/pair"
	"biotriage/domain/scoring"
)

// ReportWriter renders a completed triage run into a multi-sheet workbook:
// Summary, Detailed, FailedRows, QualityIssues, Metadata.
type ReportWriter struct {
	outputPath string
}

// NewReportWriter creates a report writer targeting the given path
func NewReportWriter(outputPath string) *ReportWriter {
	return &ReportWriter{outputPath: outputPath}
}

// Write renders the workbook and saves it. The parent directory is created
// when missing.
func (w *ReportWriter) Write(summary pair.RunSummary, results []pair.RowResult, cfg scoring.Config, metadata map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(w.outputPath), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := w.writeSummary(f, summary); err != nil {
		return err
	}
	if err := w.writeDetailed(f, results); err != nil {
		return err
	}
	if err := w.writeFailedRows(f, results); err != nil {
		return err
	}
	if err := w.writeQualityIssues(f, results); err != nil {
		return err
	}
	if err := w.writeMetadata(f, cfg, metadata); err != nil {
		return err
	}

	// Drop the default sheet so the workbook opens on Summary.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to drop default sheet: %w", err)
	}

	if err := f.SaveAs(w.outputPath); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	log.Printf("[ReportWriter] Workbook written to %s", w.outputPath)
	return nil
}

func (w *ReportWriter) writeSummary(f *excelize.File, summary pair.RunSummary) error {
	if _, err := f.NewSheet("Summary"); err != nil {
		return fmt.Errorf("failed to create Summary sheet: %w", err)
	}
	header := []interface{}{
		"run_id", "profile", "total_pairs", "scored", "quarantined",
		"green_count", "amber_count", "red_count",
		"fallback_rationales", "mean_final", "median_final", "p90_final",
	}
	row := []interface{}{
		summary.RunID.String(), summary.Profile, summary.Total, summary.Scored, summary.Quarantined,
		summary.TierCounts[pair.TierGreen], summary.TierCounts[pair.TierAmber], summary.TierCounts[pair.TierRed],
		summary.FallbackRationales, summary.MeanFinalScore, summary.MedianFinalScore, summary.P90FinalScore,
	}
	if err := f.SetSheetRow("Summary", "A1", &header); err != nil {
		return err
	}
	if err := f.SetSheetRow("Summary", "A2", &row); err != nil {
		return err
	}

	// Quarantine reason counts below the headline block.
	if err := f.SetSheetRow("Summary", "A4", &[]interface{}{"quarantine_reason", "count"}); err != nil {
		return err
	}
	line := 5
	for _, reason := range sortedKeys(summary.QuarantineReasons) {
		cell := fmt.Sprintf("A%d", line)
		if err := f.SetSheetRow("Summary", cell, &[]interface{}{reason, summary.QuarantineReasons[reason]}); err != nil {
			return err
		}
		line++
	}
	return nil
}

var detailedHeader = []interface{}{
	"pair_id", "gene_a_name", "gene_b_name",
	"p_ss", "dz_ss_mean", "dz_ss_i2", "kappa_ss", "eggers_p_ss", "power_score", "n_studies_ss",
	"sepsis_correlation", "shock_correlation",
	"statistical_score", "biological_score", "biological_neutral",
	"progression_score", "progression_pattern", "final_score", "tier",
	"rationale", "fallback_mode",
}

func (w *ReportWriter) writeDetailed(f *excelize.File, results []pair.RowResult) error {
	if _, err := f.NewSheet("Detailed"); err != nil {
		return fmt.Errorf("failed to create Detailed sheet: %w", err)
	}
	if err := f.SetSheetRow("Detailed", "A1", &detailedHeader); err != nil {
		return err
	}
	line := 2
	for _, res := range results {
		if res.Quarantined() {
			continue
		}
		row := detailedRow(res)
		if err := f.SetSheetRow("Detailed", fmt.Sprintf("A%d", line), &row); err != nil {
			return err
		}
		line++
	}
	return nil
}

func detailedRow(res pair.RowResult) []interface{} {
	rec := res.Record
	narrative := ""
	fallback := true
	if res.Rationale != nil {
		narrative = res.Rationale.Narrative
		fallback = res.Rationale.FallbackMode
	}
	return []interface{}{
		rec.PairID, rec.GeneA, rec.GeneB,
		optCell(rec.PSS), optCell(rec.DzSSMean), optCell(rec.ISquared), optCell(rec.Kappa),
		optCell(rec.EggerP), optCell(rec.PowerScore), optCell(rec.NStudies),
		optCell(rec.SepsisCorrelation), optCell(rec.ShockCorrelation),
		res.Scores.StatisticalScore, res.Scores.BiologicalScore, res.Scores.BiologicalNeutral,
		res.Scores.ProgressionScore, string(res.Scores.ProgressionPattern), res.Scores.FinalScore, string(res.Scores.Tier),
		narrative, fallback,
	}
}

func (w *ReportWriter) writeFailedRows(f *excelize.File, results []pair.RowResult) error {
	if _, err := f.NewSheet("FailedRows"); err != nil {
		return fmt.Errorf("failed to create FailedRows sheet: %w", err)
	}
	header := []interface{}{"pair_id", "gene_a_name", "gene_b_name", "reasons"}
	if err := f.SetSheetRow("FailedRows", "A1", &header); err != nil {
		return err
	}
	line := 2
	for _, res := range results {
		if !res.Quarantined() {
			continue
		}
		row := []interface{}{
			res.Record.PairID, res.Record.GeneA, res.Record.GeneB,
			strings.Join(res.Outcome.Reasons, "; "),
		}
		if err := f.SetSheetRow("FailedRows", fmt.Sprintf("A%d", line), &row); err != nil {
			return err
		}
		line++
	}
	return nil
}

func (w *ReportWriter) writeQualityIssues(f *excelize.File, results []pair.RowResult) error {
	if _, err := f.NewSheet("QualityIssues"); err != nil {
		return fmt.Errorf("failed to create QualityIssues sheet: %w", err)
	}
	header := []interface{}{"pair_id", "issues"}
	if err := f.SetSheetRow("QualityIssues", "A1", &header); err != nil {
		return err
	}
	line := 2
	for _, res := range results {
		var issues []string
		if res.Quarantined() {
			issues = append(issues, res.Outcome.Reasons...)
		}
		for _, flagged := range res.SymbolFlags {
			issues = append(issues, "suspect_gene_symbol:"+flagged)
		}
		if len(issues) == 0 {
			continue
		}
		row := []interface{}{res.Record.PairID, strings.Join(issues, "; ")}
		if err := f.SetSheetRow("QualityIssues", fmt.Sprintf("A%d", line), &row); err != nil {
			return err
		}
		line++
	}
	return nil
}

func (w *ReportWriter) writeMetadata(f *excelize.File, cfg scoring.Config, metadata map[string]string) error {
	if _, err := f.NewSheet("Metadata"); err != nil {
		return fmt.Errorf("failed to create Metadata sheet: %w", err)
	}
	cfgJSON, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	metaJSON, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run metadata: %w", err)
	}
	if err := f.SetSheetRow("Metadata", "A1", &[]interface{}{"config", "run_metadata"}); err != nil {
		return err
	}
	return f.SetSheetRow("Metadata", "A2", &[]interface{}{string(cfgJSON), string(metaJSON)})
}

func optCell(v *float64) interface{} {
	if v == nil {
		return ""
	}
	return *v
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
