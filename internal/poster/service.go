// Package poster generates printable missing-person posters from case data.
package poster

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"strings"
)

// Request describes a poster export. Format is "pdf" or "html"; pdf is the
// default and degrades to html when headless Chrome is not installed.
type Request struct {
	FirstName    string
	LastName     string
	CaseType     string
	Summary      string
	PrimaryPhoto string
	SiteURL      string
	TipLine      string
	PrimaryColor string
	Format       string
}

// Result is the generated poster file.
type Result struct {
	Data     []byte
	Filename string
	MimeType string
}

type posterData struct {
	Headline     string
	FullName     string
	Summary      string
	PhotoURL     string
	SiteURL      string
	TipLine      string
	PrimaryColor string
}

var posterTemplate = template.Must(template.New("poster").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>{{.FullName}}</title>
<style>
    @page { size: letter; }
    body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; color: #111; margin: 0; text-align: center; }
    .banner { background: {{.PrimaryColor}}; color: white; padding: 24px 0; font-size: 42px; font-weight: 800; letter-spacing: 2px; text-transform: uppercase; }
    .name { font-size: 36px; font-weight: 700; margin: 18px 0 6px; }
    .photo { max-width: 60%; max-height: 420px; margin: 12px auto; display: block; border: 4px solid #111; }
    .summary { font-size: 18px; margin: 14px 36px; line-height: 1.5; }
    .contact { background: #f3f4f6; margin: 18px 24px; padding: 16px; border-radius: 8px; font-size: 20px; }
    .site { font-size: 22px; font-weight: 700; color: {{.PrimaryColor}}; margin-top: 10px; }
</style>
</head>
<body>
    <div class="banner">{{.Headline}}</div>
    <div class="name">{{.FullName}}</div>
    {{if .PhotoURL}}<img class="photo" src="{{.PhotoURL}}" alt="{{.FullName}}">{{end}}
    {{if .Summary}}<p class="summary">{{.Summary}}</p>{{end}}
    <div class="contact">
        {{if .TipLine}}<div>Have information? Call {{.TipLine}}</div>{{end}}
        {{if .SiteURL}}<div class="site">{{.SiteURL}}</div>{{end}}
    </div>
</body>
</html>`))

// Generate renders the poster as a letter-size PDF, or as standalone HTML
// when requested or when the PDF toolchain is unavailable.
func Generate(req Request) (*Result, error) {
	fullName := strings.TrimSpace(req.FirstName + " " + req.LastName)
	if fullName == "" {
		return nil, fmt.Errorf("poster requires a name")
	}

	color := req.PrimaryColor
	if color == "" {
		color = "#b91c1c"
	}

	data := posterData{
		Headline:     headlineFor(req.CaseType),
		FullName:     fullName,
		Summary:      req.Summary,
		PhotoURL:     req.PrimaryPhoto,
		SiteURL:      req.SiteURL,
		TipLine:      req.TipLine,
		PrimaryColor: color,
	}

	var buf bytes.Buffer
	if err := posterTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render poster: %w", err)
	}

	if req.Format == "html" {
		return htmlResult(buf.String(), fullName), nil
	}
	result, err := exportPDF(buf.String(), fullName)
	if errors.Is(err, ErrPDFDependencyMissing) {
		return htmlResult(buf.String(), fullName), nil
	}
	return result, err
}

func htmlResult(html, fullName string) *Result {
	return &Result{
		Data:     []byte(html),
		Filename: sanitizeFilename(fullName) + ".html",
		MimeType: "text/html; charset=utf-8",
	}
}

func headlineFor(caseType string) string {
	switch caseType {
	case "homicide":
		return "Justice For"
	case "unidentified":
		return "Help Identify"
	default:
		return "Missing"
	}
}
