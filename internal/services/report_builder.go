package services

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/facilityinspect/server/internal/models"
	"github.com/facilityinspect/server/internal/repository"
)

// buildingSummaryHeader is the column layout of the building summary sheet
var buildingSummaryHeader = []string{
	"Inspection ID",
	"Space",
	"Inspector",
	"Status",
	"Started",
	"Completed",
	"Open Deficiencies",
}

// maxSummaryRows caps how many inspections one summary sheet covers
const maxSummaryRows = 500

// ReportBuilder renders building inspection summaries as XLSX workbooks
type ReportBuilder struct {
	inspections  repository.InspectionRepo
	deficiencies repository.DeficiencyRepo
}

// NewReportBuilder creates a new ReportBuilder
func NewReportBuilder(inspections repository.InspectionRepo, deficiencies repository.DeficiencyRepo) *ReportBuilder {
	return &ReportBuilder{
		inspections:  inspections,
		deficiencies: deficiencies,
	}
}

// BuildBuildingSummary renders one row per recent inspection in the building,
// with its open deficiency count. Returns the workbook bytes.
func (b *ReportBuilder) BuildBuildingSummary(ctx context.Context, buildingID string) ([]byte, error) {
	inspections, err := b.inspections.ListForBuilding(ctx, buildingID, maxSummaryRows)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	// WriteTo needs the file open, so Close only on error paths

	sheetName := "Inspections"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for col, header := range buildingSummaryHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			f.Close()
			return nil, err
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			f.Close()
			return nil, err
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			f.Close()
			return nil, err
		}
	}

	columnWidths := []float64{38, 20, 20, 14, 20, 20, 18}
	for col, width := range columnWidths {
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			f.Close()
			return nil, err
		}
		if err := f.SetColWidth(sheetName, name, name, width); err != nil {
			f.Close()
			return nil, err
		}
	}

	for row, insp := range inspections {
		openCount, err := b.openDeficiencyCount(ctx, insp.ID)
		if err != nil {
			f.Close()
			return nil, err
		}

		values := []interface{}{
			insp.ID,
			insp.SpaceID,
			insp.InspectorID,
			string(insp.Status),
			insp.StartedAt.Format(time.RFC3339),
			formatCompletedAt(insp.CompletedAt),
			openCount,
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				f.Close()
				return nil, err
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				f.Close()
				return nil, err
			}
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func (b *ReportBuilder) openDeficiencyCount(ctx context.Context, inspectionID string) (int, error) {
	deficiencies, err := b.deficiencies.ListForInspection(ctx, inspectionID)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, d := range deficiencies {
		if d.Status != models.DeficiencyClosed {
			count++
		}
	}
	return count, nil
}

func formatCompletedAt(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}
