// Package quip defines the Record type for one accepted generated quip
// and the markdown wire format it is persisted in.
package quip

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Record is one accepted generated quip with its metadata.
// Records are immutable once created; the core never mutates or deletes them.
type Record struct {
	// ID is the filename stem: timestamp followed by a slug of the text.
	// Lexicographic order of IDs equals chronological order.
	ID string `json:"id"`

	// Text is the generated content after cleanup.
	Text string `json:"text"`

	// Style is the comedy technique used for generation.
	Style string `json:"style"`

	// Factoid is the source fact that seeded the generation.
	Factoid string `json:"factoid"`

	CreatedAt time.Time `json:"created_at"`
}

const (
	// idTimeLayout embeds a nanosecond component so two records created in
	// the same wall-clock second still get distinct, sortable IDs.
	idTimeLayout = "20060102-150405.000000000"

	slugMaxLen = 40
)

var (
	slugPattern = regexp.MustCompile(`[^a-z0-9]+`)
	idPattern   = regexp.MustCompile(`^(\d{8}-\d{6}\.\d{9})-(.*)$`)

	textPattern    = regexp.MustCompile(`(?m)^> (.+)$`)
	stylePattern   = regexp.MustCompile(`\*\*Style:\*\* (.+)`)
	factoidPattern = regexp.MustCompile(`\*\*Factoid:\*\* (.+)`)
)

// New creates a Record for freshly accepted text, deriving the ID from the
// creation time and a slug of the text.
func New(text, style, factoid string, createdAt time.Time) Record {
	return Record{
		ID:        createdAt.UTC().Format(idTimeLayout) + "-" + Slug(text),
		Text:      text,
		Style:     style,
		Factoid:   factoid,
		CreatedAt: createdAt.UTC(),
	}
}

// Slug lowercases the leading portion of text and collapses runs of
// non-alphanumeric characters into single dashes.
func Slug(text string) string {
	head := text
	if len(head) > slugMaxLen {
		head = head[:slugMaxLen]
	}
	return strings.Trim(slugPattern.ReplaceAllString(strings.ToLower(head), "-"), "-")
}

// ParseID recovers the creation time from an ID without reading the record
// body. Returns an error when the ID does not carry a timestamp prefix.
func ParseID(id string) (time.Time, error) {
	m := idPattern.FindStringSubmatch(id)
	if m == nil {
		return time.Time{}, fmt.Errorf("malformed record id: %q", id)
	}
	return time.Parse(idTimeLayout, m[1])
}

// Filename returns the blob name the record is stored under.
func (r Record) Filename() string {
	return r.ID + ".md"
}

// MarshalMarkdown renders the persisted record format: a quoted text line,
// then Style and Factoid fields, in fixed order.
func (r Record) MarshalMarkdown() []byte {
	var b strings.Builder
	b.WriteString("# Quip\n\n")
	b.WriteString("> " + r.Text + "\n\n")
	b.WriteString("**Style:** " + r.Style + "  \n")
	b.WriteString("**Factoid:** " + r.Factoid + "\n")
	return []byte(b.String())
}

// ParseMarkdown reconstructs a Record from a stored blob. The id is taken
// from the blob name rather than the content so chronology survives even a
// partially corrupted body.
func ParseMarkdown(id string, data []byte) (Record, error) {
	text := string(data)

	tm := textPattern.FindStringSubmatch(text)
	if tm == nil {
		return Record{}, fmt.Errorf("record %s: no quoted text line", id)
	}

	rec := Record{
		ID:   id,
		Text: strings.TrimSpace(tm[1]),
	}

	if m := stylePattern.FindStringSubmatch(text); m != nil {
		rec.Style = strings.TrimSpace(m[1])
	}
	if m := factoidPattern.FindStringSubmatch(text); m != nil {
		rec.Factoid = strings.TrimSpace(m[1])
	}
	if ts, err := ParseID(id); err == nil {
		rec.CreatedAt = ts
	}

	return rec, nil
}
