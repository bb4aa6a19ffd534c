// internal/export/report.go
package export

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	commonerrors "demand-radar/internal/common/errors"
	"demand-radar/internal/common/logger"
	"demand-radar/internal/models"
	"demand-radar/internal/storage"
)

const (
	ideasSheet    = "Ranked Ideas"
	evidenceSheet = "Evidence"

	// evidencePerIdea caps how many links each idea contributes to the
	// evidence sheet so one heavily sourced idea cannot drown the rest.
	evidencePerIdea = 50
)

// Report is a rendered workbook ready to stream to a client or write to disk.
type Report struct {
	Filename string
	Data     []byte
}

// Exporter renders topic reports as xlsx workbooks.
type Exporter struct {
	store  *storage.Store
	logger logger.Logger
}

func NewExporter(store *storage.Store, log logger.Logger) *Exporter {
	return &Exporter{
		store:  store,
		logger: log.WithFields(map[string]interface{}{"component": "export"}),
	}
}

// TopicReport builds a two-sheet workbook for one topic: ranked ideas with
// their dimension scores, and the evidence collected for each idea.
func (e *Exporter) TopicReport(ctx context.Context, topicID int64) (*Report, error) {
	topic, err := e.store.GetTopic(ctx, topicID)
	if err != nil {
		return nil, err
	}

	ideas, err := e.store.ListIdeas(ctx, storage.ListIdeasOptions{TopicID: topicID})
	if err != nil {
		return nil, err
	}
	sortForReport(ideas)

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ideasSheet); err != nil {
		return nil, commonerrors.NewExportError(err)
	}
	if err := e.writeIdeasSheet(f, ideas); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(evidenceSheet); err != nil {
		return nil, commonerrors.NewExportError(err)
	}
	if err := e.writeEvidenceSheet(ctx, f, ideas); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, commonerrors.NewExportError(err)
	}

	report := &Report{
		Filename: fmt.Sprintf("topic-%d-%s.xlsx", topic.ID, slug(topic.Name)),
		Data:     buf.Bytes(),
	}
	e.logger.Info("topic report rendered", map[string]interface{}{
		"topic_id": topicID,
		"ideas":    len(ideas),
		"bytes":    len(report.Data),
	})
	return report, nil
}

func (e *Exporter) writeIdeasSheet(f *excelize.File, ideas []models.BusinessIdea) error {
	headers := []interface{}{"Rank", "Title", "Target User", "Value Prop", "Pricing Model", "Total Score"}
	for _, dim := range models.Dimensions() {
		headers = append(headers, dimensionHeader(dim))
	}
	if err := writeRow(f, ideasSheet, 0, headers); err != nil {
		return err
	}

	for i, idea := range ideas {
		row := []interface{}{
			cellOrEmptyInt(idea.Rank),
			idea.Title,
			idea.TargetUser,
			idea.ValueProp,
			idea.PricingModel,
			cellOrEmptyFloat(idea.TotalScore),
		}
		for _, dim := range models.Dimensions() {
			if idea.ScoreBreakdown == nil {
				row = append(row, "")
				continue
			}
			score, ok := idea.ScoreBreakdown[dim]
			if !ok {
				row = append(row, "")
				continue
			}
			row = append(row, score)
		}
		if err := writeRow(f, ideasSheet, i+1, row); err != nil {
			return err
		}
	}
	return nil
}

func (e *Exporter) writeEvidenceSheet(ctx context.Context, f *excelize.File, ideas []models.BusinessIdea) error {
	headers := []interface{}{"Idea ID", "Idea Title", "Evidence Title", "URL", "Source", "Relevance", "Snippet"}
	if err := writeRow(f, evidenceSheet, 0, headers); err != nil {
		return err
	}

	rowIdx := 1
	for _, idea := range ideas {
		links, err := e.store.ListEvidenceByIdea(ctx, idea.ID, evidencePerIdea)
		if err != nil {
			return err
		}
		for _, link := range links {
			row := []interface{}{
				idea.ID,
				idea.Title,
				link.Title,
				link.URL,
				link.Source,
				link.RelevanceScore,
				link.Snippet,
			}
			if err := writeRow(f, evidenceSheet, rowIdx, row); err != nil {
				return err
			}
			rowIdx++
		}
	}
	return nil
}

// sortForReport orders ranked ideas first by rank, then trailing unranked
// ideas by id so drafts still show up at the bottom of the sheet.
func sortForReport(ideas []models.BusinessIdea) {
	sort.SliceStable(ideas, func(i, j int) bool {
		ri, rj := ideas[i].Rank, ideas[j].Rank
		switch {
		case ri != nil && rj != nil:
			return *ri < *rj
		case ri != nil:
			return true
		case rj != nil:
			return false
		default:
			return ideas[i].ID < ideas[j].ID
		}
	})
}

func writeRow(f *excelize.File, sheet string, rowIdx int, values []interface{}) error {
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, rowIdx+1)
		if err != nil {
			return commonerrors.NewExportError(err)
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return commonerrors.NewExportError(err)
		}
	}
	return nil
}

// dimensionHeader turns a dimension key like "demand_strength" into the
// column title "Demand Strength".
func dimensionHeader(dim string) string {
	words := strings.Split(dim, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func slug(name string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

func cellOrEmptyInt(v *int) interface{} {
	if v == nil {
		return ""
	}
	return *v
}

func cellOrEmptyFloat(v *float64) interface{} {
	if v == nil {
		return ""
	}
	return *v
}
