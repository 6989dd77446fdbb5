// Package export renders the complaint register and dashboard as an Excel workbook.
package export

import (
	"bytes"
	"fmt"
	"time"

	"civiclens/backend/internal/escalation"
	"civiclens/backend/internal/metrics"
	"civiclens/backend/internal/models"

	"github.com/xuri/excelize/v2"
)

const (
	ComplaintsSheet = "Complaints"
	DashboardSheet  = "Dashboard"
)

// ComplaintHeader is the header row of the Complaints sheet.
var ComplaintHeader = []string{
	"ID",
	"Created At",
	"Ward",
	"Category",
	"Department",
	"Urgency",
	"Status",
	"Escalation",
	"Days Open",
	"Reopen Count",
	"Resolved At",
	"Verification",
	"Suspicious",
	"Description",
}

var columnWidths = []float64{38, 20, 14, 18, 22, 10, 16, 13, 10, 12, 20, 16, 11, 60}

const timeLayout = "2006-01-02 15:04"

// Workbook builds the xlsx bytes. Escalation is evaluated with detector at snap.GeneratedAt.
func Workbook(complaints []models.Complaint, snap metrics.Snapshot, detector *escalation.Detector) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if _, err := f.NewSheet(ComplaintsSheet); err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	if _, err := f.NewSheet(DashboardSheet); err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to drop default sheet: %w", err)
	}
	index, err := f.GetSheetIndex(ComplaintsSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to locate sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	if err := writeRow(f, ComplaintsSheet, 1, toRow(ComplaintHeader)); err != nil {
		return nil, err
	}
	last, _ := excelize.CoordinatesToCellName(len(ComplaintHeader), 1)
	if err := f.SetCellStyle(ComplaintsSheet, "A1", last, headerStyle); err != nil {
		return nil, fmt.Errorf("failed to set header style: %w", err)
	}
	for i, width := range columnWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(ComplaintsSheet, col, col, width); err != nil {
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	for i, c := range complaints {
		if err := writeRow(f, ComplaintsSheet, i+2, complaintRow(c, detector, snap.GeneratedAt)); err != nil {
			return nil, err
		}
	}

	if err := writeDashboard(f, snap, headerStyle); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func complaintRow(c models.Complaint, detector *escalation.Detector, now time.Time) []any {
	esc := detector.Status(c, now)
	resolvedAt, verification, suspicious := "", "", ""
	if c.ResolvedAt != nil {
		resolvedAt = c.ResolvedAt.Format(timeLayout)
	}
	if c.Verification != nil {
		verification = c.Verification.Status
		if c.Verification.IsSuspicious {
			suspicious = "yes"
		}
	}
	return []any{
		c.ID,
		c.CreatedAt.Format(timeLayout),
		c.Ward,
		c.Type,
		c.Department,
		string(c.Urgency),
		string(c.Status),
		string(esc.Class),
		escalation.AgeDays(c.CreatedAt, now),
		c.ReopenCount,
		resolvedAt,
		verification,
		suspicious,
		c.Description,
	}
}

func writeDashboard(f *excelize.File, snap metrics.Snapshot, headerStyle int) error {
	rows := [][]any{
		{"Metric", "Value"},
		{"Generated At", snap.GeneratedAt.Format(timeLayout)},
		{"Total", snap.Total},
		{"Pending", snap.Pending},
		{"Resolved", snap.Resolved},
		{"Suspicious", snap.Suspicious},
		{"Reopened", snap.Reopened},
		{"Escalated", snap.EscalatedCount},
		{"Avg Resolution (days)", snap.AvgResolutionDays},
		{"Ward Performance Index", snap.WPI.Score},
		{"Fast Resolution Score", snap.WPI.FastResolution},
		{"Verified Rate", snap.WPI.VerifiedRate},
		{"Low Reopen Score", snap.WPI.LowReopen},
		{"Low Escalation Score", snap.WPI.LowEscalation},
		{"Category", "Count", "Percentage"},
	}
	for _, share := range snap.Categories {
		rows = append(rows, []any{share.Category, share.Count, share.Percentage})
	}

	for i, row := range rows {
		if err := writeRow(f, DashboardSheet, i+1, row); err != nil {
			return err
		}
	}
	categoryHeader := len(rows) - len(snap.Categories)
	for _, r := range []int{1, categoryHeader} {
		from, _ := excelize.CoordinatesToCellName(1, r)
		to, _ := excelize.CoordinatesToCellName(3, r)
		if err := f.SetCellStyle(DashboardSheet, from, to, headerStyle); err != nil {
			return fmt.Errorf("failed to set header style: %w", err)
		}
	}
	if err := f.SetColWidth(DashboardSheet, "A", "A", 26); err != nil {
		return fmt.Errorf("failed to set column width: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	if len(values) == 0 {
		return nil
	}
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("failed to convert coordinates: %w", err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func toRow(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
