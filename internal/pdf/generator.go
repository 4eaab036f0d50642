package pdf

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/pkg/model"
	"go.uber.org/zap"
)

// PDFGenerator renders daily health records as a printable report
type PDFGenerator struct {
	logger *zap.Logger
	now    func() time.Time
}

// NewPDFGenerator creates a new PDFGenerator
func NewPDFGenerator(logger *zap.Logger) *PDFGenerator {
	return &PDFGenerator{
		logger: logger,
		now:    time.Now,
	}
}

// ReportData contains all data needed for report generation
type ReportData struct {
	UserID     string
	From       time.Time
	To         time.Time
	Connection *model.ConnectionStatus
	Records    []model.DailyRecord
}

// Generate creates a PDF report from the provided data
func (g *PDFGenerator) Generate(data *ReportData) ([]byte, error) {
	dateRange := fmt.Sprintf("%s to %s", data.From.Format(time.DateOnly), data.To.Format(time.DateOnly))
	g.logger.Info("generating PDF report",
		zap.String("user_id", data.UserID),
		zap.String("date_range", dateRange),
		zap.Int("records", len(data.Records)),
	)

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	g.addTitle(pdf, "Wearable Health Report", data.UserID, dateRange)

	g.addConnection(pdf, data.Connection)
	g.addAverages(pdf, data.Records)
	g.addDailyTable(pdf, data.Records)
	g.addManualNotes(pdf, data.Records)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		g.logger.Error("failed to generate PDF", zap.Error(err))
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}

	g.logger.Info("PDF report generated successfully",
		zap.Int("size_bytes", buf.Len()),
	)

	return buf.Bytes(), nil
}

// addTitle adds the report title and header information
func (g *PDFGenerator) addTitle(pdf *gofpdf.Fpdf, title, userID, dateRange string) {
	pdf.SetFont("Arial", "B", 20)
	pdf.CellFormat(0, 10, title, "", 1, "C", false, 0, "")
	pdf.Ln(5)

	pdf.SetFont("Arial", "", 12)
	pdf.CellFormat(0, 8, fmt.Sprintf("User: %s", userID), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 8, fmt.Sprintf("Period: %s", dateRange), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 8, fmt.Sprintf("Generated: %s", g.now().Format("2006-01-02 15:04")), "", 1, "L", false, 0, "")
	pdf.Ln(10)
}

// addSectionHeader adds a section header
func (g *PDFGenerator) addSectionHeader(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Arial", "B", 14)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(0, 10, title, "", 1, "L", true, 0, "")
	pdf.Ln(3)
	pdf.SetFont("Arial", "", 10)
}

func (g *PDFGenerator) addConnection(pdf *gofpdf.Fpdf, status *model.ConnectionStatus) {
	g.addSectionHeader(pdf, "Wearable Connection")

	if status == nil {
		pdf.CellFormat(0, 8, "No wearable has been connected.", "", 1, "L", false, 0, "")
		pdf.Ln(5)
		return
	}

	pdf.CellFormat(0, 6, fmt.Sprintf("Platform: %s", status.Platform), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("State: %s", status.State), "", 1, "L", false, 0, "")
	lastSync := "never"
	if status.LastSync != nil {
		lastSync = status.LastSync.Format("2006-01-02 15:04")
	}
	pdf.CellFormat(0, 6, fmt.Sprintf("Last sync: %s", lastSync), "", 1, "L", false, 0, "")
	if status.LastError != nil {
		pdf.CellFormat(0, 6, fmt.Sprintf("Last error: %s", *status.LastError), "", 1, "L", false, 0, "")
	}
	pdf.Ln(5)
}

type average struct {
	sum   float64
	count int
}

func (a *average) addInt(v *int) {
	if v != nil {
		a.sum += float64(*v)
		a.count++
	}
}

func (a *average) addFloat(v *float64) {
	if v != nil {
		a.sum += *v
		a.count++
	}
}

func (a average) render(format string) string {
	if a.count == 0 {
		return "-"
	}
	return fmt.Sprintf(format, a.sum/float64(a.count))
}

// addAverages summarises the period
func (g *PDFGenerator) addAverages(pdf *gofpdf.Fpdf, records []model.DailyRecord) {
	g.addSectionHeader(pdf, "Period Averages")

	if len(records) == 0 {
		pdf.CellFormat(0, 8, "No records during this period.", "", 1, "L", false, 0, "")
		pdf.Ln(5)
		return
	}

	var steps, sleep, rhr, bbt, hrv average
	sources := map[model.DataSource]int{}
	for _, r := range records {
		steps.addInt(r.Steps)
		sleep.addFloat(r.SleepHours)
		rhr.addInt(r.RestingHeartRate)
		bbt.addFloat(r.BasalBodyTemperature)
		hrv.addFloat(r.HeartRateVariability)
		sources[r.DataSource]++
	}

	pdf.CellFormat(0, 6, fmt.Sprintf("Steps: %s", steps.render("%.0f")), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Sleep: %s h", sleep.render("%.1f")), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Resting heart rate: %s bpm", rhr.render("%.0f")), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Basal body temperature: %s C", bbt.render("%.2f")), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Heart rate variability: %s ms", hrv.render("%.0f")), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Days from wearable: %d, manual: %d, hybrid: %d",
		sources[model.DataSourceWearable], sources[model.DataSourceManual], sources[model.DataSourceHybrid]), "", 1, "L", false, 0, "")
	pdf.Ln(5)
}

func intCell(v *int) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *v)
}

func floatCell(v *float64, format string) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf(format, *v)
}

// addDailyTable lists one row per day
func (g *PDFGenerator) addDailyTable(pdf *gofpdf.Fpdf, records []model.DailyRecord) {
	g.addSectionHeader(pdf, "Daily Records")

	if len(records) == 0 {
		pdf.CellFormat(0, 8, "No records during this period.", "", 1, "L", false, 0, "")
		pdf.Ln(5)
		return
	}

	headers := []string{"Date", "Source", "Steps", "Sleep h", "RHR", "BBT", "SpO2"}
	widths := []float64{28, 24, 24, 22, 20, 22, 20}

	pdf.SetFont("Arial", "B", 10)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, r := range records {
		row := []string{
			r.RecordDate.Format("2006-01-02"),
			string(r.DataSource),
			intCell(r.Steps),
			floatCell(r.SleepHours, "%.1f"),
			intCell(r.RestingHeartRate),
			floatCell(r.BasalBodyTemperature, "%.2f"),
			floatCell(r.OxygenSaturation, "%.0f"),
		}
		for i, cell := range row {
			pdf.CellFormat(widths[i], 6, cell, "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(5)
}

// addManualNotes adds mood and notes entered by hand
func (g *PDFGenerator) addManualNotes(pdf *gofpdf.Fpdf, records []model.DailyRecord) {
	g.addSectionHeader(pdf, "Notes")

	written := 0
	for _, r := range records {
		if r.Mood == nil && r.Notes == nil {
			continue
		}
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(0, 6, r.RecordDate.Format("2006-01-02"), "", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		if r.Mood != nil {
			pdf.CellFormat(0, 5, fmt.Sprintf("  Mood: %s", *r.Mood), "", 1, "L", false, 0, "")
		}
		if r.Notes != nil && *r.Notes != "" {
			pdf.MultiCell(0, 5, "  "+*r.Notes, "", "L", false)
		}
		pdf.Ln(2)
		written++
	}

	if written == 0 {
		pdf.CellFormat(0, 8, "No notes recorded.", "", 1, "L", false, 0, "")
	}
}
