package petfriends

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

const maxSummaryLen = 512

// ErrRawBody is returned when structured access is attempted on a body that
// did not parse as JSON.
var ErrRawBody = errors.New("response body is not structured")

// BodyKind tags which variant a Body holds.
type BodyKind uint8

const (
	KindRaw BodyKind = iota
	KindStructured
)

func (k BodyKind) String() string {
	if k == KindStructured {
		return "structured"
	}
	return "raw"
}

// Body is either Structured (a decoded JSON value) or Raw (the response text
// when it did not parse).
type Body struct {
	kind  BodyKind
	raw   []byte
	value any
}

// ParseBody decodes data as JSON, falling back to Raw text.
func ParseBody(data []byte) Body {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return RawBody(string(data))
	}
	return Body{kind: KindStructured, raw: append([]byte(nil), data...), value: v}
}

// RawBody builds a Raw body from text.
func RawBody(text string) Body {
	return Body{kind: KindRaw, raw: []byte(text)}
}

func (b Body) Kind() BodyKind     { return b.kind }
func (b Body) IsStructured() bool { return b.kind == KindStructured }

// Bytes returns the body exactly as received.
func (b Body) Bytes() []byte { return b.raw }

// Structured returns the decoded JSON value.
func (b Body) Structured() (any, bool) {
	if b.kind != KindStructured {
		return nil, false
	}
	return b.value, true
}

// Raw returns the response text of a body that did not parse.
func (b Body) Raw() (string, bool) {
	if b.kind != KindRaw {
		return "", false
	}
	return string(b.raw), true
}

// Decode unmarshals a structured body into v.
func (b Body) Decode(v any) error {
	if b.kind != KindStructured {
		return ErrRawBody
	}
	if err := json.Unmarshal(b.raw, v); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}

// Field looks up a top-level member of a structured object body.
func (b Body) Field(name string) (any, bool) {
	obj, ok := b.value.(map[string]any)
	if b.kind != KindStructured || !ok {
		return nil, false
	}
	v, ok := obj[name]
	return v, ok
}

// Has reports whether a structured object body contains name.
func (b Body) Has(name string) bool {
	_, ok := b.Field(name)
	return ok
}

// String renders the body for logs and error messages: the JSON text for
// structured bodies, visible text for HTML error pages, trimmed text otherwise.
// Output is capped at 512 bytes.
func (b Body) String() string {
	if b.kind == KindStructured {
		return truncate(strings.TrimSpace(string(b.raw)))
	}
	text := strings.TrimSpace(string(b.raw))
	if text == "" {
		return "<empty>"
	}
	if looksLikeHTML(text) {
		if summary := htmlSummary(text); summary != "" {
			text = summary
		}
	}
	return truncate(text)
}

func looksLikeHTML(text string) bool {
	lower := strings.ToLower(text[:min(len(text), 64)])
	return strings.HasPrefix(lower, "<!doctype html") || strings.HasPrefix(lower, "<html") ||
		strings.Contains(lower, "<title>")
}

func htmlSummary(text string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		return ""
	}
	doc.Find("script, style").Remove()

	title := collapseSpace(doc.Find("title").First().Text())
	body := collapseSpace(doc.Find("body").Text())
	switch {
	case title == "":
		return body
	case body == "" || strings.HasPrefix(body, title):
		return title
	default:
		return title + ": " + body
	}
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string) string {
	if len(s) <= maxSummaryLen {
		return s
	}
	cut := maxSummaryLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
