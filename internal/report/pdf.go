package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/jung-kurt/gofpdf"
)

// PDF writes the report as an A4 document using the built-in Helvetica
// font, so no font files are needed at runtime.
func (r Report) PDF(w io.Writer) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("MediGuard Report", true)
	pdf.SetMargins(18, 18, 18)
	pdf.SetAutoPageBreak(true, 18)
	pdf.AddPage()

	// core fonts are cp1252; this keeps dashes and quotes intact
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(0, 10, "MediGuard Report", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(107, 114, 128)
	pdf.CellFormat(0, 5, tr(fmt.Sprintf("Generated %s  ·  Session %s",
		r.GeneratedAt.Format("02 Jan 2006 15:04"), r.SessionID)), "", 1, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(6)

	heading(pdf, "Patient Information")
	pdf.SetFont("Helvetica", "", 11)
	for _, f := range r.ProfileFields() {
		pdf.CellFormat(35, 6, f.Label, "", 0, "L", false, 0, "")
		pdf.MultiCell(0, 6, tr(f.Value), "", "L", false)
	}
	pdf.Ln(4)

	heading(pdf, "Triage Recommendation")
	if r.Verdict == nil {
		pdf.SetFont("Helvetica", "I", 11)
		pdf.MultiCell(0, 6, noVerdict, "", "L", false)
	} else {
		red, green, blue := hexColor(r.Verdict.Tier.Color())
		pdf.SetTextColor(red, green, blue)
		pdf.SetFont("Helvetica", "B", 14)
		lines := verdictLines(*r.Verdict)
		pdf.MultiCell(0, 8, tr(lines[0]), "", "L", false)
		pdf.SetTextColor(0, 0, 0)
		pdf.SetFont("Helvetica", "", 11)
		for _, line := range lines[1:] {
			pdf.MultiCell(0, 6, tr(line), "", "L", false)
		}
	}
	pdf.Ln(4)

	if len(r.FollowUps) > 0 {
		heading(pdf, "Follow-Up Plan")
		pdf.SetFont("Helvetica", "", 11)
		for _, f := range r.FollowUps {
			pdf.MultiCell(0, 6, tr(fmt.Sprintf("After %s (%s): %s", f.After, f.Label, f.Question)), "", "L", false)
		}
		pdf.Ln(4)
	}

	if len(r.Transcript) > 0 {
		heading(pdf, "Conversation")
		for _, m := range r.Transcript {
			pdf.SetFont("Helvetica", "B", 10)
			pdf.CellFormat(0, 5, speaker(m.Role), "", 1, "L", false, 0, "")
			pdf.SetFont("Helvetica", "", 10)
			pdf.MultiCell(0, 5, tr(m.Content), "", "L", false)
			pdf.Ln(1)
		}
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(107, 114, 128)
	pdf.MultiCell(0, 4, disclaimer, "", "L", false)

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to write PDF: %w", err)
	}
	return nil
}

func heading(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(0, 8, title, "B", 1, "L", false, 0, "")
	pdf.Ln(2)
}

// hexColor parses "#rrggbb"; anything else is black.
func hexColor(s string) (int, int, int) {
	if len(s) != 7 || s[0] != '#' {
		return 0, 0, 0
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return 0, 0, 0
	}
	return int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff)
}
