package export

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
)

// MarkdownWriter outputs crawl summaries as GitHub Flavored Markdown,
// suitable for pasting into docs or run reports.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the summary in Markdown format.
func (w *MarkdownWriter) Write(summary *Summary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, summary)
	w.writeHospitals(md, summary)
	w.writeDoctors(md, summary)

	return len(md.String()), md.Build()
}

// writeHeader writes the run information table.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, summary *Summary) {
	md.H1("Hospital Directory Crawl Summary")
	md.PlainText("")

	rows := [][]string{
		{"Directory", "`" + summary.BaseURL + "`"},
		{"Generated", summary.GeneratedAt.Format("2006-01-02 15:04:05 MST")},
	}
	if summary.HospitalRange != "" {
		rows = append(rows, []string{"Planned Range", summary.HospitalRange})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeHospitals writes the hospital status breakdown.
func (w *MarkdownWriter) writeHospitals(md *markdown.Markdown, summary *Summary) {
	md.H2("Hospitals")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Status", "Count"},
		Rows: [][]string{
			{"Crawled", strconv.Itoa(summary.HospitalsOK)},
			{"Not found", strconv.Itoa(summary.HospitalsNotFound)},
			{"Fetch failed", strconv.Itoa(summary.HospitalsFailed)},
			{"**Total**", "**" + strconv.Itoa(summary.HospitalsTotal()) + "**"},
		},
	})
	md.PlainText("")

	if summary.HospitalsFailed > 0 {
		md.Warningf(
			"%d hospital page(s) failed to fetch; rerunning the crawl will retry them.",
			summary.HospitalsFailed,
		)
		md.PlainText("")
	}
}

// writeDoctors writes the doctor counts and the largest hospitals.
func (w *MarkdownWriter) writeDoctors(md *markdown.Markdown, summary *Summary) {
	md.H2("Doctors")
	md.PlainText("")
	md.PlainTextf("%d doctor record(s) stored.", summary.DoctorsTotal)
	md.PlainText("")

	if len(summary.TopHospitals) == 0 {
		return
	}

	rows := make([][]string, 0, len(summary.TopHospitals))
	for _, hc := range summary.TopHospitals {
		rows = append(rows, []string{
			strconv.Itoa(hc.ID),
			hc.Name,
			strconv.Itoa(hc.Doctors),
		})
	}

	md.H3("Largest Hospitals by Stored Doctors")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"ID", "Hospital", "Doctors"},
		Rows:   rows,
	})
	md.PlainText("")
}
