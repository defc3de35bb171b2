package publisher

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"beacon/api/internal/customize"
	"beacon/api/internal/deploy"
	"beacon/api/internal/sitetmpl"
)

// pageShell is the minimal wrapper around the externally supplied page
// components. The component registry renders the real page bodies; the
// publisher only needs a navigable, health-checkable static shell.
var pageShell = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>:root{--primary:{{.PrimaryColor}};--accent:{{.AccentColor}};font-family:{{.Font}},sans-serif}</style>
</head>
<body data-component="{{.Component}}">
<nav>
{{range .Nav}}<a href="{{.Href}}">{{.Label}}</a>
{{end}}</nav>
<main>
<h1>{{.Heading}}</h1>
{{if .Subheading}}<p>{{.Subheading}}</p>{{end}}
{{if .PhotoURL}}<img src="{{.PhotoURL}}" alt="{{.Heading}}">{{end}}
{{range .Sections}}<section><h2>{{.Title}}</h2><p>{{.Body}}</p></section>
{{end}}</main>
</body>
</html>
`))

type navLink struct {
	Label string
	Href  string
}

type pageSection struct {
	Title string
	Body  string
}

type pageData struct {
	Title        string
	Component    string
	Heading      string
	Subheading   string
	PhotoURL     string
	PrimaryColor string
	AccentColor  string
	Font         string
	Nav          []navLink
	Sections     []pageSection
}

// RenderSite renders every enabled page of the request's template into a
// file-name -> HTML map. The home page becomes index.html.
func RenderSite(req deploy.Request) (map[string]string, error) {
	tmpl, ok := sitetmpl.Get(req.TemplateID)
	if !ok {
		tmpl, _ = sitetmpl.Get(sitetmpl.FallbackTemplateID)
	}
	doc := req.TemplateData

	firstName, _ := req.CaseData["first_name"].(string)
	lastName, _ := req.CaseData["last_name"].(string)
	fullName := strings.TrimSpace(firstName + " " + lastName)
	if fullName == "" {
		fullName = "Beacon Case"
	}
	photo, _ := req.CaseData["primary_photo"].(string)

	enabled := make([]string, 0, len(tmpl.PageOrder))
	for _, page := range tmpl.PageOrder {
		if isEnabled(doc, page) {
			enabled = append(enabled, page)
		}
	}
	if len(enabled) == 0 {
		return nil, fmt.Errorf("template %s has no enabled pages", tmpl.ID)
	}

	nav := make([]navLink, 0, len(enabled))
	for _, page := range enabled {
		nav = append(nav, navLink{Label: pageLabel(doc, page), Href: fileName(page)})
	}

	out := make(map[string]string, len(enabled))
	for _, page := range enabled {
		data := pageData{
			Title:        fullName + " - " + pageLabel(doc, page),
			Component:    tmpl.PageComponents[page],
			Heading:      asString(customize.Get(doc, "pages."+page+".heading", fullName)),
			Subheading:   asString(customize.Get(doc, "pages."+page+".subheading", "")),
			PhotoURL:     asString(customize.Get(doc, "pages."+page+".photo", photo)),
			PrimaryColor: asString(customize.Get(doc, "global.primaryColor", "#1d4ed8")),
			AccentColor:  asString(customize.Get(doc, "global.accentColor", "#9333ea")),
			Font:         asString(customize.Get(doc, "global.font", "Inter")),
			Nav:          nav,
			Sections:     pageSections(doc, page),
		}
		var buf bytes.Buffer
		if err := pageShell.Execute(&buf, data); err != nil {
			return nil, fmt.Errorf("render page %s: %w", page, err)
		}
		out[fileName(page)] = buf.String()
	}
	return out, nil
}

// isEnabled treats a page as enabled unless its enabled flag is explicitly
// false, matching the document model's degrade-to-default reads.
func isEnabled(doc customize.Document, page string) bool {
	value := customize.Get(doc, "pages."+page+".enabled", true)
	flag, ok := value.(bool)
	if !ok {
		return true
	}
	return flag
}

func pageLabel(doc customize.Document, page string) string {
	label := asString(customize.Get(doc, "pages."+page+".label", ""))
	if label != "" {
		return label
	}
	return strings.ToUpper(page[:1]) + page[1:]
}

func pageSections(doc customize.Document, page string) []pageSection {
	raw, ok := customize.Get(doc, "pages."+page+".sections", nil).([]any)
	if !ok {
		return nil
	}
	sections := make([]pageSection, 0, len(raw))
	for _, item := range raw {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		title, _ := entry["title"].(string)
		body, _ := entry["body"].(string)
		sections = append(sections, pageSection{Title: title, Body: body})
	}
	return sections
}

func fileName(page string) string {
	if page == "home" {
		return "index.html"
	}
	return page + ".html"
}

func asString(value any) string {
	text, _ := value.(string)
	return text
}
