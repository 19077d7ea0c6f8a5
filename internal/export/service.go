package export

import (
	"fmt"

	"shortfall/api/internal/form"
)

// DefaultReportPrefix is the leading segment of export filenames.
const DefaultReportPrefix = "shortages"

// DefaultReportTitle is the heading printed at the top of the report.
const DefaultReportTitle = "Branch Shortage Report"

// Service renders form snapshots into shareable report artifacts.
type Service struct {
	prefix string
	title  string
}

// NewService creates an export service. An empty prefix falls back to
// DefaultReportPrefix.
func NewService(prefix string) *Service {
	if prefix == "" {
		prefix = DefaultReportPrefix
	}
	return &Service{prefix: prefix, title: DefaultReportTitle}
}

// FilterRows returns only the rows worth printing. A row qualifies when
// item, barcode, or quantity is non-empty. Sequence numbers are kept as
// entered so the printout matches the on-screen form.
func FilterRows(rows []form.Row) []form.Row {
	out := make([]form.Row, 0, len(rows))
	for _, row := range rows {
		if row.Filled() {
			out = append(out, row)
		}
	}
	return out
}

// RenderHTML produces the report HTML for a form snapshot.
func (s *Service) RenderHTML(doc form.Document) (string, error) {
	data := TemplateData{
		Title:      s.title,
		BranchName: doc.BranchName,
		Department: doc.Department,
		EnteredBy:  doc.EnteredBy,
		Date:       doc.Date,
		Rows:       FilterRows(doc.Rows),
	}
	html, err := RenderReportHTML(data)
	if err != nil {
		return "", fmt.Errorf("render report template: %w", err)
	}
	return html, nil
}

// Render produces the PDF artifact for a form snapshot.
func (s *Service) Render(doc form.Document) (*Result, error) {
	html, err := s.RenderHTML(doc)
	if err != nil {
		return nil, err
	}
	return exportPDF(html, s.Filename(doc))
}

// Filename builds the artifact name from the branch and report date,
// without the extension.
func (s *Service) Filename(doc form.Document) string {
	return fmt.Sprintf("%s_%s_%s", s.prefix, doc.BranchName, doc.Date)
}
