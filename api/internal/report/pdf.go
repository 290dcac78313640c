package report

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/phpdave11/gofpdf"

	"github.com/Shivay00001/Reality-Lab/api/internal/forensic"
)

// Meta: контекст расследования, который печатается в шапке PDF.
type Meta struct {
	SessionID   string
	Modality    forensic.Modality
	InputName   string
	CompletedAt time.Time
	GeneratedAt time.Time
}

const pdfTitle = "Reality Lab - Forensic Report"

// ExportPDF печатает вердикт, объяснение и технические сигналы в A4 PDF.
func ExportPDF(r forensic.Result, meta Meta) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(14, 14, 14)
	pdf.SetAutoPageBreak(true, 14)
	pdf.SetTitle(pdfTitle, false)

	// core-шрифты без UTF-8: переводим в cp1252, остальное заменяется на '?'
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	txt := func(s string) string { return tr(flatten(s)) }

	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 9, pdfTitle, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(60, 60, 60)
	pdf.CellFormat(0, 6, "Generated at: "+fmtTime(meta.GeneratedAt), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	sectionTitle(pdf, "1. Investigation")
	kv(pdf, txt, "Session", meta.SessionID)
	kv(pdf, txt, "Modality", string(meta.Modality))
	kv(pdf, txt, "Input", meta.InputName)
	kv(pdf, txt, "Completed", fmtTime(meta.CompletedAt))
	pdf.Ln(2)

	sectionTitle(pdf, "2. Verdict")
	pdf.SetFont("Helvetica", "B", 14)
	vr, vg, vb := verdictColor(r.Verdict)
	pdf.SetTextColor(vr, vg, vb)
	pdf.CellFormat(0, 8, fmt.Sprintf("%s  (%d%% confidence)", r.Verdict.Label(), r.Confidence), "", 1, "L", false, 0, "")
	kv(pdf, txt, "Category", r.Category)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.SetTextColor(30, 30, 30)
	pdf.MultiCell(0, 5, txt(r.Explanation), "", "L", false)
	pdf.Ln(2)

	sectionTitle(pdf, "3. Technical Evidence")
	if len(r.Signals) == 0 {
		pdf.SetFont("Helvetica", "", 10)
		pdf.SetTextColor(90, 90, 90)
		pdf.MultiCell(0, 5, "(no signals reported)", "", "L", false)
	}
	for _, s := range r.Signals {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.SetTextColor(20, 20, 20)
		pdf.MultiCell(0, 5, txt(fmt.Sprintf("[%s] %s", s.Intensity, s.Label)), "", "L", false)
		pdf.SetFont("Helvetica", "", 9)
		pdf.SetTextColor(40, 40, 40)
		pdf.MultiCell(0, 4.5, txt(s.Description), "", "L", false)
		pdf.Ln(1)
	}

	pdf.Ln(2)
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(90, 90, 90)
	pdf.MultiCell(0, 4.5, "Note: "+Disclaimer, "", "L", false)

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("build pdf: %w", err)
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func sectionTitle(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetTextColor(0, 0, 0)
	pdf.CellFormat(0, 7, title, "", 1, "L", false, 0, "")
	pdf.SetDrawColor(200, 200, 200)
	pdf.Line(pdf.GetX(), pdf.GetY(), 196, pdf.GetY())
	pdf.Ln(2)
}

func kv(pdf *gofpdf.Fpdf, txt func(string) string, key, value string) {
	if strings.TrimSpace(value) == "" {
		value = "-"
	}
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetTextColor(30, 30, 30)
	pdf.CellFormat(30, 5.2, key+":", "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(20, 20, 20)
	pdf.MultiCell(0, 5.2, txt(value), "", "L", false)
}

func verdictColor(v forensic.Verdict) (int, int, int) {
	switch v {
	case forensic.VerdictHuman:
		return 16, 130, 80
	case forensic.VerdictLikelyAI:
		return 200, 40, 40
	default:
		return 190, 120, 0
	}
}

func fmtTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format("2006-01-02 15:04:05 UTC")
}

func flatten(s string) string {
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\t", " ")
	return strings.TrimSpace(s)
}
