package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// PageKind tags the shape an engine emitted for a single page.
type PageKind int

const (
	// PageUnknown is anything the normalizer cannot read; it is skipped with a warning.
	PageUnknown PageKind = iota
	// PageDict is the new-style record: {"rec_texts": [...], "rec_scores": [...], ...}.
	PageDict
	// PageList is the old-style sequence: [[box, [text, score]], ...].
	PageList
)

func (k PageKind) String() string {
	switch k {
	case PageDict:
		return "dict"
	case PageList:
		return "list"
	default:
		return "unknown"
	}
}

// Point is an (x, y) pair in source image pixels.
type Point [2]float64

// Detection is one old-style entry: a quadrilateral plus recognized text and score.
type Detection struct {
	Box   []Point
	Text  string
	Score *float64

	// Malformed is set when the entry is not a [box, info] pair. Raw keeps the
	// original bytes for diagnostics.
	Malformed bool
	Raw       json.RawMessage
}

// Page is one image's worth of engine output. Exactly one of Texts (PageDict)
// or Entries (PageList) is meaningful, as selected by Kind.
type Page struct {
	Kind    PageKind
	Texts   []string
	Entries []Detection
	Raw     json.RawMessage
}

// DictPage builds a new-style page.
func DictPage(texts ...string) Page {
	return Page{Kind: PageDict, Texts: texts}
}

// ListPage builds an old-style page.
func ListPage(entries ...Detection) Page {
	if entries == nil {
		entries = []Detection{}
	}
	return Page{Kind: PageList, Entries: entries}
}

// RawResult is the engine's native output: a sequence of pages. A nil
// *RawResult means the engine produced nothing.
type RawResult struct {
	Pages []Page
}

// UnmarshalJSON accepts null or a JSON array of pages. Pages are classified
// individually and never fail decoding; shape problems surface as PageUnknown.
func (r *RawResult) UnmarshalJSON(b []byte) error {
	if isNull(b) {
		r.Pages = nil
		return nil
	}
	var raws []json.RawMessage
	if err := json.Unmarshal(b, &raws); err != nil {
		return fmt.Errorf("raw result is not a page list: %w", err)
	}
	pages := make([]Page, 0, len(raws))
	for _, raw := range raws {
		pages = append(pages, DecodePage(raw))
	}
	r.Pages = pages
	return nil
}

// DecodePage classifies a single JSON page.
func DecodePage(raw json.RawMessage) Page {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return Page{Kind: PageUnknown, Raw: raw}
	}
	switch trimmed[0] {
	case '{':
		var rec map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &rec); err != nil {
			return Page{Kind: PageUnknown, Raw: raw}
		}
		field, ok := rec["rec_texts"]
		if !ok {
			return Page{Kind: PageUnknown, Raw: raw}
		}
		texts, ok := decodeTexts(field)
		if !ok {
			return Page{Kind: PageUnknown, Raw: raw}
		}
		return Page{Kind: PageDict, Texts: texts}
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return Page{Kind: PageUnknown, Raw: raw}
		}
		entries := make([]Detection, 0, len(items))
		for _, item := range items {
			entries = append(entries, decodeDetection(item))
		}
		return Page{Kind: PageList, Entries: entries}
	default:
		return Page{Kind: PageUnknown, Raw: raw}
	}
}

// rec_texts may be null (no text found) or a list of scalars.
func decodeTexts(field json.RawMessage) ([]string, bool) {
	if isNull(field) {
		return nil, true
	}
	var items []json.RawMessage
	if err := json.Unmarshal(field, &items); err != nil {
		return nil, false
	}
	texts := make([]string, 0, len(items))
	for _, item := range items {
		texts = append(texts, scalarText(item))
	}
	return texts, true
}

func decodeDetection(raw json.RawMessage) Detection {
	var parts []json.RawMessage
	if err := json.Unmarshal(raw, &parts); err != nil || len(parts) < 2 {
		return Detection{Malformed: true, Raw: raw}
	}
	d := Detection{Box: decodeBox(parts[0])}

	var info []json.RawMessage
	if err := json.Unmarshal(parts[1], &info); err == nil {
		if len(info) >= 1 {
			d.Text = scalarText(info[0])
		}
		if len(info) >= 2 {
			d.Score = scoreValue(info[1])
		}
		return d
	}
	// bare text without a score
	d.Text = scalarText(parts[1])
	return d
}

func decodeBox(raw json.RawMessage) []Point {
	var pts [][]float64
	if err := json.Unmarshal(raw, &pts); err != nil || len(pts) == 0 {
		return nil
	}
	box := make([]Point, 0, len(pts))
	for _, p := range pts {
		if len(p) < 2 {
			return nil
		}
		box = append(box, Point{p[0], p[1]})
	}
	return box
}

// scalarText renders strings as-is and numbers by their literal; anything
// else yields "" and is dropped by the normalizer.
func scalarText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

func scoreValue(raw json.RawMessage) *float64 {
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return &f
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			return &v
		}
	}
	return nil
}

func isNull(b []byte) bool {
	return bytes.Equal(bytes.TrimSpace(b), []byte("null"))
}
