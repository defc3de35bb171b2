package sitetmpl

import (
	"testing"

	"beacon/api/internal/customize"
)

func TestGet(t *testing.T) {
	tmpl, ok := Get("classic")
	if !ok {
		t.Fatal("classic template missing")
	}
	if tmpl.Name != "Classic Memorial" || len(tmpl.PageOrder) != 6 {
		t.Fatalf("classic template = %+v", tmpl)
	}
	for _, page := range tmpl.PageOrder {
		if tmpl.PageComponents[page] == "" {
			t.Fatalf("page %q has no component", page)
		}
	}

	if _, ok := Get("nope"); ok {
		t.Fatal("unknown template should report false")
	}
}

func TestIDs(t *testing.T) {
	ids := IDs()
	if len(ids) != 3 {
		t.Fatalf("IDs = %v, want 3 templates", ids)
	}
	seen := map[string]bool{}
	for _, id := range ids {
		seen[id] = true
	}
	for _, want := range []string{"classic", "hopeful", "minimal"} {
		if !seen[want] {
			t.Fatalf("IDs missing %q: %v", want, ids)
		}
	}
}

func TestPages(t *testing.T) {
	if pages := Pages("hopeful"); len(pages) != 4 || pages[0] != "home" {
		t.Fatalf("Pages(hopeful) = %v", pages)
	}
	if pages := Pages("nope"); len(pages) != 0 {
		t.Fatalf("Pages(unknown) = %v, want empty", pages)
	}
}

func TestDefaultCustomizations(t *testing.T) {
	doc := DefaultCustomizations("classic")

	if doc.Metadata.TemplateID != "classic" || doc.Metadata.Version != "2.1.0" {
		t.Fatalf("metadata = %+v", doc.Metadata)
	}
	if got := customize.Get(doc, "global.primaryColor", nil); got != "#1f2a44" {
		t.Fatalf("primaryColor = %v", got)
	}
	for _, page := range Pages("classic") {
		if enabled := customize.Get(doc, "pages."+page+".enabled", nil); enabled != true {
			t.Fatalf("page %q not enabled by default", page)
		}
	}

	result := customize.Validate(doc)
	if !result.Valid || len(result.Warnings) != 0 {
		t.Fatalf("default document invalid: %+v", result)
	}
}

func TestDefaultCustomizationsFallsBack(t *testing.T) {
	doc := DefaultCustomizations("does-not-exist")
	if doc.Metadata.TemplateID != FallbackTemplateID {
		t.Fatalf("fallback template = %q, want %q", doc.Metadata.TemplateID, FallbackTemplateID)
	}
	if enabled := customize.Get(doc, "pages.home.enabled", nil); enabled != true {
		t.Fatal("fallback document missing home page")
	}
}
