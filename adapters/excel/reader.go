package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"biotriage/domain/pair"
	"biotriage/domain/scoring"
	"biotriage/internal/errors"
	"biotriage/ports"
)

// expectedColumns is the canonical header of a biomarker meta-analysis
// export. Missing or unexpected columns fail the read before any row is
// produced.
var expectedColumns = []string{
	"pair_id",
	"gene_a_name",
	"gene_b_name",
	"dz_ss_mean",
	"dz_ss_se",
	"dz_ss_ci_low",
	"dz_ss_ci_high",
	"dz_ss_i2",
	"n_studies_ss",
	"p_ss",
	"dz_soth_mean",
	"dz_soth_se",
	"kappa_ss",
	"kappa_soth",
	"total_samples",
	"eggers_p_ss",
	"publication_bias_ss",
	"combined_p_value",
	"power_score",
	"consistency_score",
	"control_weighted_r",
	"sepsis_weighted_r",
	"septic_shock_weighted_r",
	"sepsis_correlation",
	"shock_correlation",
	"correlation_delta",
	"corr_delta_abs",
	"corr_delta_relative",
	"is_amplification",
	"is_polarity_switch",
	"progression_slope",
	"correlation_pattern",
	"confidence_score",
	"uncertainty",
	"rationale",
	"model_version",
	"processing_timestamp",
	"is_statistically_sound",
}

// optionalColumns are recognized when present but never required; they
// carry the precomputed biological signals.
var optionalColumns = map[string]bool{
	"pathway_p_value":    true,
	"expression_z_score": true,
	"interaction_flag":   true,
	"phenotype_flag":     true,
}

// numericFields maps source columns to the canonical field names used in
// validation reasons, for every numeric column the record model carries.
var numericFields = map[string]string{
	"p_ss":               scoring.FieldPSS,
	"dz_ss_mean":         scoring.FieldDzSSMean,
	"dz_ss_i2":           scoring.FieldISquared,
	"kappa_ss":           scoring.FieldKappa,
	"eggers_p_ss":        scoring.FieldEggerP,
	"power_score":        scoring.FieldPowerScore,
	"n_studies_ss":       scoring.FieldNStudies,
	"sepsis_correlation": scoring.FieldSepsisCorrelation,
	"shock_correlation":  scoring.FieldShockCorrelation,
	"confidence_score":   scoring.FieldConfidenceScore,
}

// DataReader reads gene-pair records from Excel or CSV files
type DataReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
}

// NewDataReader creates a data reader that handles both Excel and CSV files
func NewDataReader(filePath string) *DataReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "xlsx"
	if ext == ".csv" {
		fileType = "csv"
	}
	return &DataReader{filePath: filePath, fileType: fileType}
}

var _ ports.RecordSource = (*DataReader)(nil)

// Read loads the file into coerced records. Structural problems fail the
// read; per-value coercion problems are recorded on the affected record
// for the validator to report.
func (r *DataReader) Read(ctx context.Context) ([]pair.GenePairRecord, error) {
	log.Printf("[DataReader] Starting to read %s file: %s", r.fileType, r.filePath)

	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, errors.InvalidInput(fmt.Sprintf("%s file not found: %s", strings.ToUpper(r.fileType), r.filePath))
	}

	var rows [][]string
	var err error
	switch r.fileType {
	case "csv":
		rows, err = r.readCSVRows()
	case "xlsx":
		rows, err = r.readExcelRows()
	default:
		return nil, fmt.Errorf("unsupported file type: %s", r.fileType)
	}
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, errors.InvalidInput("input must have at least a header row and one data row")
	}

	header := rows[0]
	index, err := validateHeader(header)
	if err != nil {
		return nil, err
	}

	records := make([]pair.GenePairRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		records = append(records, buildRecord(row, index))
	}

	log.Printf("[DataReader] Read %d records from %s", len(records), r.filePath)
	return records, nil
}

func (r *DataReader) readExcelRows() ([][]string, error) {
	startTime := time.Now()
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Sheet1")
	if err != nil {
		return nil, fmt.Errorf("failed to read Sheet1: %w", err)
	}
	log.Printf("[DataReader] Sheet1 read in %.2fms (%d rows)", float64(time.Since(startTime).Nanoseconds())/1e6, len(rows))
	return rows, nil
}

func (r *DataReader) readCSVRows() ([][]string, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV data: %w", err)
	}
	return rows, nil
}

// validateHeader checks the column structure and returns a name->index map
func validateHeader(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}

	var missing []string
	for _, col := range expectedColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, errors.InvalidInput(fmt.Sprintf("missing expected columns: %s", strings.Join(missing, ", ")))
	}

	known := make(map[string]bool, len(expectedColumns))
	for _, col := range expectedColumns {
		known[col] = true
	}
	var extra []string
	for name := range index {
		if !known[name] && !optionalColumns[name] {
			extra = append(extra, name)
		}
	}
	if len(extra) > 0 {
		return nil, errors.InvalidInput(fmt.Sprintf("unexpected columns present: %s", strings.Join(extra, ", ")))
	}
	return index, nil
}

func buildRecord(row []string, index map[string]int) pair.GenePairRecord {
	cell := func(col string) string {
		i, ok := index[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	record := pair.GenePairRecord{
		PairID: cell("pair_id"),
		GeneA:  cell("gene_a_name"),
		GeneB:  cell("gene_b_name"),
	}

	coerced := make(map[string]bool)
	numeric := func(col, canonical string) *float64 {
		raw := cell(col)
		if raw == "" {
			return nil
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			coerced[canonical] = true
			return nil
		}
		return &v
	}

	record.PSS = numeric("p_ss", numericFields["p_ss"])
	record.DzSSMean = numeric("dz_ss_mean", numericFields["dz_ss_mean"])
	record.ISquared = numeric("dz_ss_i2", numericFields["dz_ss_i2"])
	record.Kappa = numeric("kappa_ss", numericFields["kappa_ss"])
	record.EggerP = numeric("eggers_p_ss", numericFields["eggers_p_ss"])
	record.PowerScore = numeric("power_score", numericFields["power_score"])
	record.NStudies = numeric("n_studies_ss", numericFields["n_studies_ss"])
	record.SepsisCorrelation = numeric("sepsis_correlation", numericFields["sepsis_correlation"])
	record.ShockCorrelation = numeric("shock_correlation", numericFields["shock_correlation"])
	record.ConfidenceScore = numeric("confidence_score", numericFields["confidence_score"])

	if raw := cell("pathway_p_value"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			record.PathwayPValue = &v
		}
	}
	if raw := cell("expression_z_score"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			record.ExpressionZScore = &v
		}
	}
	if raw := cell("interaction_flag"); raw != "" {
		record.InteractionFlag = &raw
	}
	if raw := cell("phenotype_flag"); raw != "" {
		record.PhenotypeFlag = &raw
	}

	record.IsStatisticallySound = parseBool(cell("is_statistically_sound"))

	// Canonical reporting order, independent of column order in the file.
	for _, canonical := range []string{
		scoring.FieldPSS,
		scoring.FieldDzSSMean,
		scoring.FieldISquared,
		scoring.FieldKappa,
		scoring.FieldEggerP,
		scoring.FieldPowerScore,
		scoring.FieldNStudies,
		scoring.FieldSepsisCorrelation,
		scoring.FieldShockCorrelation,
		scoring.FieldConfidenceScore,
	} {
		if coerced[canonical] {
			record.CoercionErrors = append(record.CoercionErrors, canonical)
		}
	}
	return record
}

func parseBool(raw string) bool {
	switch strings.ToLower(raw) {
	case "true", "1", "yes", "y":
		return true
	}
	return false
}
