package catalog

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// RecordKind tags which hierarchy level a Cursor's rows belong to.
type RecordKind string

const (
	KindPatient  RecordKind = "patient"
	KindStudy    RecordKind = "study"
	KindSeries   RecordKind = "series"
	KindInstance RecordKind = "instance"
)

// Cursor is a forward-only, single-threaded iterator over a cached page
// of rows from a single search call. It must not be shared across
// goroutines; callers that need concurrent iteration take independent
// cursors. Rows are stored as the typed record via the any slot, caller
// type-asserts per Kind.
type Cursor struct {
	Kind RecordKind
	rows []any
	pos  int
}

// NewCursor wraps rows (already materialized by a store search) in a
// fresh cursor positioned before the first row.
func NewCursor(kind RecordKind, rows []any) *Cursor {
	return &Cursor{Kind: kind, rows: rows}
}

// HasMore reports whether a subsequent FetchNext would return a row.
func (c *Cursor) HasMore() bool {
	return c.pos < len(c.rows)
}

// FetchNext returns the next row and advances the cursor, or ok=false if
// exhausted.
func (c *Cursor) FetchNext() (row any, ok bool) {
	if !c.HasMore() {
		return nil, false
	}
	row = c.rows[c.pos]
	c.pos++
	return row, true
}

// FetchBatch returns up to n rows starting at the current position,
// advancing the cursor by the number actually returned.
func (c *Cursor) FetchBatch(n int) []any {
	if n <= 0 || !c.HasMore() {
		return nil
	}
	end := c.pos + n
	if end > len(c.rows) {
		end = len(c.rows)
	}
	batch := c.rows[c.pos:end]
	c.pos = end
	return batch
}

// Reset rewinds the cursor to its first row without re-running the
// underlying search.
func (c *Cursor) Reset() {
	c.pos = 0
}

// Len reports the total number of rows the cursor was created with.
func (c *Cursor) Len() int {
	return len(c.rows)
}

// resumeToken is the JSON shape serialized into a Cursor's opaque
// resumption token; it carries only the position, since rows themselves
// are re-fetched by the stream factory on resume.
type resumeToken struct {
	Kind RecordKind `json:"kind"`
	Pos  int        `json:"pos"`
}

// Serialize yields an opaque resumption token capturing the cursor's
// kind and position. The caller re-runs the original search and passes
// the token to Resume to pick back up.
func (c *Cursor) Serialize() string {
	tok := resumeToken{Kind: c.Kind, Pos: c.pos}
	data, err := json.Marshal(tok)
	if err != nil {
		// resumeToken has no fields that can fail to marshal.
		panic(fmt.Sprintf("catalog: cursor token marshal: %v", err))
	}
	return base64.RawURLEncoding.EncodeToString(data)
}

// Resume rebuilds a cursor over freshly-fetched rows, seeking to the
// position recorded in token. Rows must come from re-running the same
// search that produced the original cursor; Resume does not persist row
// contents itself.
func Resume(token string, rows []any) (*Cursor, error) {
	data, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("catalog: invalid cursor token: %w", err)
	}
	var tok resumeToken
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("catalog: invalid cursor token: %w", err)
	}
	pos := tok.Pos
	if pos > len(rows) {
		pos = len(rows)
	}
	return &Cursor{Kind: tok.Kind, rows: rows, pos: pos}, nil
}
