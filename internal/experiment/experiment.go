// Package experiment records trial data for a run and saves it to disk.
//
// A [Handler] collects key/value pairs into the current row, starts a new
// row on [Handler.NextEntry] and writes every completed row as JSON or CSV.
// It is the data sink handed to the staircase coordinator.
package experiment

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/Iron-Ham/multistair/internal/errors"
)

// Format is an output file format.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// ValidFormats returns the supported output formats.
func ValidFormats() []Format {
	return []Format{FormatJSON, FormatCSV}
}

// ParseFormat converts a string to a Format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatJSON, FormatCSV:
		return f, nil
	default:
		return "", errors.NewValidationError("unknown output format").WithField("format").WithValue(s)
	}
}

// Row is one recorded trial.
type Row map[string]any

// Handler accumulates trial rows. It is safe for concurrent use.
type Handler struct {
	mu        sync.Mutex
	name      string
	sessionID string
	extraInfo map[string]any
	rows      []Row
	current   Row
	columns   []string
	now       func() time.Time
}

// NewHandler creates a Handler for the named experiment session.
// extraInfo values are copied into every saved row.
func NewHandler(name, sessionID string, extraInfo map[string]any) *Handler {
	h := &Handler{
		name:      name,
		sessionID: sessionID,
		extraInfo: map[string]any{},
		current:   Row{},
		now:       time.Now,
	}
	for _, k := range sortedKeys(extraInfo) {
		h.extraInfo[k] = extraInfo[k]
		h.columns = append(h.columns, k)
	}
	return h
}

// AddData records value under key in the current row. Recording the same
// key twice in one row keeps every value, in order.
func (h *Handler) AddData(key string, value any) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !slices.Contains(h.columns, key) {
		h.columns = append(h.columns, key)
	}
	prev, ok := h.current[key]
	if !ok {
		h.current[key] = value
		return
	}
	if list, isList := prev.([]any); isList {
		h.current[key] = append(list, value)
		return
	}
	h.current[key] = []any{prev, value}
}

// NextEntry closes the current row. Empty rows are dropped.
func (h *Handler) NextEntry() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.flushLocked()
}

func (h *Handler) flushLocked() {
	if len(h.current) == 0 {
		return
	}
	row := Row{}
	for k, v := range h.extraInfo {
		row[k] = v
	}
	for k, v := range h.current {
		row[k] = v
	}
	h.rows = append(h.rows, row)
	h.current = Row{}
}

// Entries returns the completed rows.
func (h *Handler) Entries() []Row {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.rows)
}

// Columns returns every recorded key in first-seen order.
func (h *Handler) Columns() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.columns)
}

// SessionID returns the session identifier.
func (h *Handler) SessionID() string { return h.sessionID }

// FileName returns the base name Save writes for format.
func (h *Handler) FileName(format Format) string {
	name := h.name
	if name == "" {
		name = "experiment"
	}
	if h.sessionID != "" {
		name += "_" + h.sessionID
	}
	return name + "." + string(format)
}

// Save closes the current row and writes all rows to dir in the given
// format. The write is atomic: data goes to a temporary file that is then
// renamed into place, under an advisory lock on dir.
func (h *Handler) Save(dir string, format Format) (string, error) {
	h.mu.Lock()
	h.flushLocked()
	data, err := h.encodeLocked(format)
	h.mu.Unlock()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	lock := newDirLock(dir)
	if err := lock.Lock(); err != nil {
		return "", fmt.Errorf("acquire lock: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	target := filepath.Join(dir, h.FileName(format))
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp) // best-effort cleanup
		return "", fmt.Errorf("rename temp file: %w", err)
	}
	return target, nil
}

type jsonFile struct {
	Name      string    `json:"name"`
	SessionID string    `json:"session_id,omitempty"`
	SavedAt   time.Time `json:"saved_at"`
	Columns   []string  `json:"columns"`
	Trials    []Row     `json:"trials"`
}

func (h *Handler) encodeLocked(format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(jsonFile{
			Name:      h.name,
			SessionID: h.sessionID,
			SavedAt:   h.now().UTC(),
			Columns:   h.columns,
			Trials:    h.rows,
		}, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshal trials: %w", err)
		}
		return data, nil
	case FormatCSV:
		var buf bytes.Buffer
		w := csv.NewWriter(&buf)
		if err := w.Write(h.columns); err != nil {
			return nil, fmt.Errorf("write csv header: %w", err)
		}
		for _, row := range h.rows {
			record := make([]string, len(h.columns))
			for i, col := range h.columns {
				record[i] = formatCell(row[col])
			}
			if err := w.Write(record); err != nil {
				return nil, fmt.Errorf("write csv row: %w", err)
			}
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return nil, fmt.Errorf("flush csv: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, errors.NewValidationError("unknown output format").WithField("format").WithValue(string(format))
	}
}

func formatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case []any:
		parts := make([]string, len(x))
		for i, e := range x {
			parts[i] = formatCell(e)
		}
		return strings.Join(parts, ";")
	case float64:
		return fmt.Sprintf("%g", x)
	default:
		return fmt.Sprint(x)
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
