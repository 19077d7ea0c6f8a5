package export

import (
	"bytes"
	"embed"
	"html/template"

	"shortfall/api/internal/form"
)

//go:embed templates/*.html
var templateFS embed.FS

var reportTemplate *template.Template

func init() {
	templateContent, err := templateFS.ReadFile("templates/report.html")
	if err != nil {
		// Fallback to built-in template if file not found
		reportTemplate = template.Must(template.New("report").Parse(fallbackTemplate))
		return
	}
	reportTemplate = template.Must(template.New("report").Parse(string(templateContent)))
}

// TemplateData holds data for report template rendering. Rows is already
// filtered to filled rows; Sequence values are the original ordinals.
type TemplateData struct {
	Title      string
	BranchName string
	Department string
	EnteredBy  string
	Date       string
	Rows       []form.Row
}

// RenderReportHTML renders the report template with provided data.
func RenderReportHTML(data TemplateData) (string, error) {
	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// fallbackTemplate is used if the embedded template fails to load.
const fallbackTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>{{.Title}}</title>
  <style>
    @page { size: A4 landscape; margin: 12mm; }
    body { font-family: Arial, sans-serif; font-size: 11px; }
    h1 { text-align: center; font-size: 20px; }
    .header p { margin: 4px 0; font-size: 13px; }
    table { width: 100%; border-collapse: collapse; }
    th, td { border: 1px solid #ddd; padding: 6px; text-align: center; }
    th { background-color: #428bca; color: white; }
  </style>
</head>
<body>
  <h1>{{.Title}}</h1>
  <div class="header">
    <p><strong>Branch:</strong> {{.BranchName}}</p>
    <p><strong>Department:</strong> {{.Department}}</p>
    <p><strong>Entered by:</strong> {{.EnteredBy}}</p>
    <p><strong>Date:</strong> {{.Date}}</p>
  </div>
  <table>
    <thead>
      <tr>
        <th>Seq</th><th>Item</th><th>Barcode</th><th>Qty</th><th>Size</th>
        <th>Packing</th><th>Company</th><th>Alt. Company</th><th>Notes</th>
      </tr>
    </thead>
    <tbody>
      {{range .Rows}}
      <tr>
        <td>{{.Sequence}}</td><td>{{.Item}}</td><td>{{.Barcode}}</td><td>{{.Quantity}}</td><td>{{.Size}}</td>
        <td>{{.Packing}}</td><td>{{.Company}}</td><td>{{.AltCompany}}</td><td>{{.Notes}}</td>
      </tr>
      {{end}}
    </tbody>
  </table>
</body>
</html>`
