package ai

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"strings"

	"excelytics/domain/table"
	"excelytics/internal/profiling"
)

// InsightPromptName is the template used for file insights.
const InsightPromptName = "insight_summary"

// InsightPromptBuilder renders the insight prompt for a table sample.
type InsightPromptBuilder struct {
	prompts  *PromptManager
	profiler *profiling.DataProfiler
}

// NewInsightPromptBuilder creates a builder.
func NewInsightPromptBuilder(prompts *PromptManager) *InsightPromptBuilder {
	return &InsightPromptBuilder{prompts: prompts, profiler: profiling.NewDataProfiler()}
}

// Build renders the prompt for sample, which is the head of a table with
// totalRows rows.
func (b *InsightPromptBuilder) Build(fileName string, totalRows int, sample *table.Table) (string, error) {
	profile := b.profiler.ProfileTable(sample)
	return b.prompts.RenderPrompt(InsightPromptName, map[string]string{
		"FILE_NAME":      fileName,
		"ROW_COUNT":      strconv.Itoa(totalRows),
		"SAMPLE_ROWS":    strconv.Itoa(sample.Len()),
		"COLUMN_PROFILE": describeColumns(profile),
		"FRAGMENTS":      strings.Join(CompileProfileFragments(profile), "\n"),
		"SAMPLE_CSV":     sampleCSV(sample),
	})
}

func sampleCSV(t *table.Table) string {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write(t.Columns)
	for _, row := range t.Rows {
		rec := make([]string, len(row))
		for i, c := range row {
			rec[i] = c.String()
		}
		_ = w.Write(rec)
	}
	w.Flush()
	return strings.TrimRight(buf.String(), "\n")
}
