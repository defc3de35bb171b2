// Package customize implements the editable customization document layered
// over a site template's defaults: path-addressable reads and writes, deep
// merge with user edits winning, structural diffing and validation, plus the
// undo history ring and the autosave coordinator that drive the editor.
package customize

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"beacon/api/internal/validate"
)

// Document is the user-editable override structure for a case site. The
// customizations map is logically partitioned into "global" (site-wide
// colors, font, logo) and "pages" (per-page section overrides keyed by page
// name, each with an enabled flag plus free-form section fields).
type Document struct {
	Customizations map[string]any `json:"customizations"`
	Metadata       Metadata       `json:"metadata"`
}

// Metadata carries the template identity and edit timestamps. Version is a
// semantic string set by the template registry, not incremented by edits.
type Metadata struct {
	TemplateID string `json:"template_id"`
	Version    string `json:"version"`
	CreatedAt  string `json:"created_at"`
	LastEdited string `json:"last_edited"`
}

// Change records one structural difference between two documents.
type Change struct {
	Path     string `json:"path"`
	OldValue any    `json:"oldValue"`
	NewValue any    `json:"newValue"`
}

// ValidationResult is the outcome of Validate. Warnings do not make the
// document invalid.
type ValidationResult struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// New returns an empty document for the given template. The customizations
// map always contains global and pages keys after initialization.
func New(templateID, version string) Document {
	now := Timestamp()
	return Document{
		Customizations: map[string]any{
			"global": map[string]any{},
			"pages":  map[string]any{},
		},
		Metadata: Metadata{
			TemplateID: templateID,
			Version:    version,
			CreatedAt:  now,
			LastEdited: now,
		},
	}
}

// Timestamp returns the ISO-8601 instant used for document metadata.
func Timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// Get walks the dot-delimited path through the customizations map. A missing
// segment yields the caller-supplied default, never an error.
func Get(doc Document, path string, fallback any) any {
	if path == "" {
		return fallback
	}
	var node any = doc.Customizations
	for _, segment := range strings.Split(path, ".") {
		asMap, ok := node.(map[string]any)
		if !ok {
			return fallback
		}
		child, ok := asMap[segment]
		if !ok {
			return fallback
		}
		node = child
	}
	return node
}

// Set returns a new document with value written at the dot-delimited path,
// creating intermediate objects as needed, and last_edited refreshed. The
// input document is never mutated.
func Set(doc Document, path string, value any) Document {
	next := Clone(doc)
	if next.Customizations == nil {
		next.Customizations = map[string]any{}
	}
	segments := strings.Split(path, ".")
	node := next.Customizations
	for _, segment := range segments[:len(segments)-1] {
		child, ok := node[segment].(map[string]any)
		if !ok {
			child = map[string]any{}
			node[segment] = child
		}
		node = child
	}
	node[segments[len(segments)-1]] = cloneValue(value)
	next.Metadata.LastEdited = Timestamp()
	return next
}

// Merge deep-merges defaults into custom. Keys present in custom always win;
// only keys absent from custom are filled from defaults. This ordering lets
// a template's defaults evolve without clobbering a family's prior edits
// when a stored document is reloaded against updated registry data.
func Merge(custom, defaults Document) Document {
	merged := Document{
		Customizations: mergeMaps(custom.Customizations, defaults.Customizations),
		Metadata:       custom.Metadata,
	}
	if merged.Customizations == nil {
		merged.Customizations = map[string]any{}
	}
	if _, ok := merged.Customizations["global"]; !ok {
		merged.Customizations["global"] = map[string]any{}
	}
	if _, ok := merged.Customizations["pages"]; !ok {
		merged.Customizations["pages"] = map[string]any{}
	}
	if merged.Metadata.TemplateID == "" {
		merged.Metadata.TemplateID = defaults.Metadata.TemplateID
	}
	if merged.Metadata.Version == "" {
		merged.Metadata.Version = defaults.Metadata.Version
	}
	if merged.Metadata.CreatedAt == "" {
		merged.Metadata.CreatedAt = defaults.Metadata.CreatedAt
	}
	if merged.Metadata.LastEdited == "" {
		merged.Metadata.LastEdited = defaults.Metadata.LastEdited
	}
	return merged
}

func mergeMaps(custom, defaults map[string]any) map[string]any {
	if custom == nil && defaults == nil {
		return nil
	}
	merged := make(map[string]any, len(custom)+len(defaults))
	for key, value := range custom {
		merged[key] = cloneValue(value)
	}
	for key, defaultValue := range defaults {
		existing, present := merged[key]
		if !present {
			merged[key] = cloneValue(defaultValue)
			continue
		}
		existingMap, existingIsMap := existing.(map[string]any)
		defaultMap, defaultIsMap := defaultValue.(map[string]any)
		if existingIsMap && defaultIsMap {
			merged[key] = mergeMaps(existingMap, defaultMap)
		}
	}
	return merged
}

// Diff returns the structural differences between the customizations of two
// documents. Metadata is excluded; the result is ordered by path and is used
// for audit logging, not applied programmatically.
func Diff(oldDoc, newDoc Document) []Change {
	changes := diffMaps("", oldDoc.Customizations, newDoc.Customizations)
	sort.Slice(changes, func(i, j int) bool { return changes[i].Path < changes[j].Path })
	return changes
}

func diffMaps(prefix string, oldMap, newMap map[string]any) []Change {
	var changes []Change
	keys := make(map[string]struct{}, len(oldMap)+len(newMap))
	for key := range oldMap {
		keys[key] = struct{}{}
	}
	for key := range newMap {
		keys[key] = struct{}{}
	}
	for key := range keys {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		oldValue, inOld := oldMap[key]
		newValue, inNew := newMap[key]
		switch {
		case !inOld:
			changes = append(changes, Change{Path: path, OldValue: nil, NewValue: cloneValue(newValue)})
		case !inNew:
			changes = append(changes, Change{Path: path, OldValue: cloneValue(oldValue), NewValue: nil})
		default:
			oldChild, oldIsMap := oldValue.(map[string]any)
			newChild, newIsMap := newValue.(map[string]any)
			if oldIsMap && newIsMap {
				changes = append(changes, diffMaps(path, oldChild, newChild)...)
				continue
			}
			if !equalValues(oldValue, newValue) {
				changes = append(changes, Change{Path: path, OldValue: cloneValue(oldValue), NewValue: cloneValue(newValue)})
			}
		}
	}
	return changes
}

// Validate performs structural checks. A nil customizations map is an error;
// missing metadata is only a warning. Colors, when present, must satisfy the
// accepted formats, and per-page enabled flags should be boolean.
func Validate(doc Document) ValidationResult {
	result := ValidationResult{Valid: true, Errors: []string{}, Warnings: []string{}}

	if doc.Customizations == nil {
		result.Valid = false
		result.Errors = append(result.Errors, "customizations is missing")
		return result
	}
	if (doc.Metadata == Metadata{}) {
		result.Warnings = append(result.Warnings, "metadata is missing")
	}

	if global, ok := doc.Customizations["global"].(map[string]any); ok {
		for _, field := range []string{"primaryColor", "accentColor"} {
			raw, present := global[field]
			if !present {
				continue
			}
			text, isString := raw.(string)
			if !isString || !validate.Color(text) {
				result.Valid = false
				result.Errors = append(result.Errors, fmt.Sprintf("global.%s is not a valid color", field))
			}
		}
	}

	if pages, ok := doc.Customizations["pages"].(map[string]any); ok {
		names := make([]string, 0, len(pages))
		for name := range pages {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			page, isMap := pages[name].(map[string]any)
			if !isMap {
				result.Warnings = append(result.Warnings, fmt.Sprintf("pages.%s is not an object", name))
				continue
			}
			if enabled, present := page["enabled"]; present {
				if _, isBool := enabled.(bool); !isBool {
					result.Warnings = append(result.Warnings, fmt.Sprintf("pages.%s.enabled should be a boolean", name))
				}
			}
		}
	}

	return result
}

// FormatForAPI returns the document in its persisted shape with last_edited
// refreshed. This is the persistence boundary contract.
func FormatForAPI(doc Document) Document {
	out := Clone(doc)
	out.Metadata.LastEdited = Timestamp()
	return out
}

// Clone returns a deep copy of the document.
func Clone(doc Document) Document {
	return Document{
		Customizations: cloneMap(doc.Customizations),
		Metadata:       doc.Metadata,
	}
}

func cloneMap(source map[string]any) map[string]any {
	if source == nil {
		return nil
	}
	out := make(map[string]any, len(source))
	for key, value := range source {
		out[key] = cloneValue(value)
	}
	return out
}

func cloneValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		return cloneMap(typed)
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return typed
	}
}

// Equal reports full structural equality of two documents, arrays included,
// by comparing their canonical JSON encodings. JSON map encoding is
// key-sorted, so ordering differences in maps do not matter.
func Equal(a, b Document) bool {
	return equalValues(a.Customizations, b.Customizations) && a.Metadata == b.Metadata
}

// EqualCustomizations compares only the customizations, ignoring metadata.
// Autosave change detection uses this so timestamp refreshes alone never
// trigger a save.
func EqualCustomizations(a, b Document) bool {
	return equalValues(a.Customizations, b.Customizations)
}

func equalValues(a, b any) bool {
	left, errA := json.Marshal(a)
	right, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(left, right)
}
