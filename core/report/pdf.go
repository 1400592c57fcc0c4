package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/go-pdf/fpdf"
)

const (
	pageMargin = 15.0
	lineHeight = 7.0
	labelWidth = 120.0
	valueWidth = 60.0
)

// Filename is the attachment name of the PDF of r.
func (r Report) Filename() string {
	return fmt.Sprintf("eduquest-report-%s.pdf", r.GeneratedAt.Format("2006-01-02"))
}

// RenderPDF writes r as a PDF document to w.
func (svc *Service) RenderPDF(w io.Writer, r Report) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetTitle(svc.appName+" report", true)
	pdf.SetAuthor(svc.appName, true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 12, svc.appName+" platform report", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, "Period: "+r.Range.Label(), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Generated: "+r.GeneratedAt.Format("02 Jan 2006 15:04 MST"), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	st := r.Stats
	section(pdf, "Schools")
	row(pdf, "Total schools", st.Schools)
	breakdown(pdf, "By region", st.SchoolsByRegion)
	breakdown(pdf, "By level", st.SchoolsByLevel)

	section(pdf, "Principals")
	row(pdf, "Registered principals", st.Principals)
	row(pdf, "Active principals", st.ActivePrincipals)

	section(pdf, "Feedback")
	row(pdf, "Total feedback", st.Feedback)
	row(pdf, "Answered by an admin", st.FeedbackAdminReplied)
	row(pdf, "Answered by a principal", st.FeedbackPrincipalReplied)

	section(pdf, "Meetings")
	row(pdf, "Total meeting requests", st.Meetings)
	breakdown(pdf, "By status", st.MeetingsByStatus)

	section(pdf, "Visitors")
	row(pdf, "Registered users", st.Users)

	return pdf.Output(w)
}

func section(pdf *fpdf.Fpdf, title string) {
	pdf.Ln(3)
	pdf.SetFont("Helvetica", "B", 13)
	pdf.SetFillColor(230, 236, 245)
	pdf.CellFormat(labelWidth+valueWidth, lineHeight+1, title, "", 1, "L", true, 0, "")
	pdf.SetFont("Helvetica", "", 11)
}

func row(pdf *fpdf.Fpdf, label string, value int) {
	pdf.CellFormat(labelWidth, lineHeight, label, "B", 0, "L", false, 0, "")
	pdf.CellFormat(valueWidth, lineHeight, strconv.Itoa(value), "B", 1, "R", false, 0, "")
}

func breakdown(pdf *fpdf.Fpdf, title string, counts []Count) {
	if len(counts) == 0 {
		return
	}
	pdf.SetFont("Helvetica", "I", 11)
	pdf.CellFormat(labelWidth+valueWidth, lineHeight, title, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	for _, c := range counts {
		label := c.Label
		if label == "" {
			label = "(not set)"
		}
		row(pdf, "    "+label, c.Total)
	}
}
