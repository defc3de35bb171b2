// Package sitetmpl is the static template registry: each template maps to an
// ordered set of named page components and the default customization
// document a fresh case starts from. The registry is populated at process
// start and never mutated.
package sitetmpl

import (
	"beacon/api/internal/customize"
)

// Template describes one registered site template. PageComponents keys page
// names to the externally supplied component identifier rendered for that
// page; the page templates themselves are pluggable and out of scope here.
type Template struct {
	ID             string
	Name           string
	Version        string
	PageOrder      []string
	PageComponents map[string]string
}

// FallbackTemplateID names the minimal built-in default used when a
// requested template is unknown. Customization must never block case
// creation, so lookups degrade to it instead of failing.
const FallbackTemplateID = "minimal"

var templates = map[string]Template{
	"classic": {
		ID:        "classic",
		Name:      "Classic Memorial",
		Version:   "2.1.0",
		PageOrder: []string{"home", "about", "timeline", "gallery", "tips", "contact"},
		PageComponents: map[string]string{
			"home":     "ClassicHome",
			"about":    "ClassicAbout",
			"timeline": "ClassicTimeline",
			"gallery":  "ClassicGallery",
			"tips":     "ClassicTipForm",
			"contact":  "ClassicContact",
		},
	},
	"hopeful": {
		ID:        "hopeful",
		Name:      "Hopeful",
		Version:   "1.4.0",
		PageOrder: []string{"home", "updates", "gallery", "tips"},
		PageComponents: map[string]string{
			"home":    "HopefulHome",
			"updates": "HopefulUpdates",
			"gallery": "HopefulGallery",
			"tips":    "HopefulTipForm",
		},
	},
	FallbackTemplateID: {
		ID:        FallbackTemplateID,
		Name:      "Minimal",
		Version:   "1.0.0",
		PageOrder: []string{"home", "tips"},
		PageComponents: map[string]string{
			"home": "MinimalHome",
			"tips": "MinimalTipForm",
		},
	},
}

var defaultGlobals = map[string]map[string]any{
	"classic": {
		"primaryColor": "#1f2a44",
		"accentColor":  "#c9a227",
		"font":         "Georgia",
		"logo":         "",
	},
	"hopeful": {
		"primaryColor": "#14532d",
		"accentColor":  "#f59e0b",
		"font":         "Inter",
		"logo":         "",
	},
	FallbackTemplateID: {
		"primaryColor": "#1d4ed8",
		"accentColor":  "#9333ea",
		"font":         "Inter",
	},
}

// Get returns the registered template, or false for unknown ids.
func Get(id string) (Template, bool) {
	tmpl, ok := templates[id]
	return tmpl, ok
}

// Pages returns the ordered page names for a template, empty when unknown.
func Pages(id string) []string {
	tmpl, ok := templates[id]
	if !ok {
		return []string{}
	}
	out := make([]string, len(tmpl.PageOrder))
	copy(out, tmpl.PageOrder)
	return out
}

// DefaultCustomizations builds the default document for a template. Unknown
// ids fall back to the minimal built-in default rather than failing.
func DefaultCustomizations(id string) customize.Document {
	tmpl, ok := templates[id]
	if !ok {
		tmpl = templates[FallbackTemplateID]
	}
	doc := customize.New(tmpl.ID, tmpl.Version)
	global := map[string]any{}
	for key, value := range defaultGlobals[tmpl.ID] {
		global[key] = value
	}
	doc.Customizations["global"] = global
	pages := map[string]any{}
	for _, page := range tmpl.PageOrder {
		pages[page] = map[string]any{"enabled": true}
	}
	doc.Customizations["pages"] = pages
	return doc
}

// IDs lists the registered template ids.
func IDs() []string {
	out := make([]string, 0, len(templates))
	for id := range templates {
		out = append(out, id)
	}
	return out
}
