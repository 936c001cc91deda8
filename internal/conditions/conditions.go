// Package conditions loads staircase condition lists from YAML, JSON or
// CSV files.
//
// Each row describes one staircase. Column and key names follow the
// condition attribute names (label, startVal, startValSd, ...). An optional
// threshold column gives the true threshold used by simulated observers.
package conditions

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Iron-Ham/multistair/internal/errors"
	"github.com/Iron-Ham/multistair/internal/staircase"
)

// Format is a condition file encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// FormatFromPath infers the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	case ".csv":
		return FormatCSV, nil
	default:
		return "", errors.NewConfigurationError("unsupported conditions file extension").
			WithField(filepath.Ext(path)).WithCause(errors.ErrInvalidInput)
	}
}

// Row is one condition as written in a file.
type Row struct {
	Label        string   `yaml:"label" json:"label"`
	StartVal     *float64 `yaml:"startVal" json:"startVal"`
	StartValSd   *float64 `yaml:"startValSd" json:"startValSd"`
	MinVal       *float64 `yaml:"minVal,omitempty" json:"minVal,omitempty"`
	MaxVal       *float64 `yaml:"maxVal,omitempty" json:"maxVal,omitempty"`
	PThreshold   *float64 `yaml:"pThreshold,omitempty" json:"pThreshold,omitempty"`
	StopInterval *float64 `yaml:"stopInterval,omitempty" json:"stopInterval,omitempty"`
	Method       string   `yaml:"method,omitempty" json:"method,omitempty"`
	Beta         *float64 `yaml:"beta,omitempty" json:"beta,omitempty"`
	Delta        *float64 `yaml:"delta,omitempty" json:"delta,omitempty"`
	Gamma        *float64 `yaml:"gamma,omitempty" json:"gamma,omitempty"`
	Grain        *float64 `yaml:"grain,omitempty" json:"grain,omitempty"`
	NTrials      int      `yaml:"nTrials,omitempty" json:"nTrials,omitempty"`
	DupCardinal  int      `yaml:"dupCardinal,omitempty" json:"dupCardinal,omitempty"`

	// Threshold is the simulated observer's true threshold for this label.
	Threshold *float64 `yaml:"threshold,omitempty" json:"threshold,omitempty"`
}

// Condition converts the row to a staircase condition.
func (r Row) Condition() staircase.Condition {
	return staircase.Condition{
		Label:        r.Label,
		StartVal:     r.StartVal,
		StartValSd:   r.StartValSd,
		MinVal:       r.MinVal,
		MaxVal:       r.MaxVal,
		PThreshold:   r.PThreshold,
		StopInterval: r.StopInterval,
		Method:       r.Method,
		Beta:         r.Beta,
		Delta:        r.Delta,
		Gamma:        r.Gamma,
		Grain:        r.Grain,
		NTrials:      r.NTrials,
		DupCardinal:  r.DupCardinal,
	}
}

// Set is a loaded condition list.
type Set struct {
	Rows []Row `yaml:"conditions" json:"conditions"`
}

// Conditions returns the staircase conditions in file order.
func (s Set) Conditions() []staircase.Condition {
	out := make([]staircase.Condition, len(s.Rows))
	for i, r := range s.Rows {
		out[i] = r.Condition()
	}
	return out
}

// Thresholds returns the true threshold of every label that declares one.
func (s Set) Thresholds() map[string]float64 {
	out := make(map[string]float64)
	for _, r := range s.Rows {
		if r.Threshold != nil {
			if _, ok := out[r.Label]; !ok {
				out[r.Label] = *r.Threshold
			}
		}
	}
	return out
}

// Load reads a condition file, choosing the decoder from its extension.
func Load(path string) (Set, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return Set{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Set{}, fmt.Errorf("read conditions file: %w", err)
	}
	set, err := Parse(data, format)
	if err != nil {
		return Set{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return set, nil
}

// Parse decodes a condition list. YAML and JSON documents may be either a
// bare list of rows or an object with a "conditions" list.
func Parse(data []byte, format Format) (Set, error) {
	switch format {
	case FormatYAML:
		return parseYAML(data)
	case FormatJSON:
		return parseJSON(data)
	case FormatCSV:
		return parseCSV(bytes.NewReader(data))
	default:
		return Set{}, errors.NewConfigurationError("unsupported conditions format").
			WithField(string(format)).WithCause(errors.ErrInvalidInput)
	}
}

func parseYAML(data []byte) (Set, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return Set{}, notAList(err)
	}
	if len(node.Content) == 0 {
		return Set{}, notAList(nil)
	}

	var set Set
	root := node.Content[0]
	switch root.Kind {
	case yaml.SequenceNode:
		if err := root.Decode(&set.Rows); err != nil {
			return Set{}, notAList(err)
		}
	case yaml.MappingNode:
		if err := root.Decode(&set); err != nil {
			return Set{}, notAList(err)
		}
	default:
		return Set{}, notAList(nil)
	}
	return set, nil
}

func parseJSON(data []byte) (Set, error) {
	trimmed := bytes.TrimSpace(data)
	var set Set
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &set.Rows); err != nil {
			return Set{}, notAList(err)
		}
		return set, nil
	}
	if err := json.Unmarshal(trimmed, &set); err != nil {
		return Set{}, notAList(err)
	}
	return set, nil
}

func notAList(cause error) error {
	e := errors.NewConfigurationError("conditions should be a list of objects")
	if cause != nil {
		return e.WithCause(errors.Join(errors.ErrNoConditions, cause))
	}
	return e.WithCause(errors.ErrNoConditions)
}

func parseCSV(r io.Reader) (Set, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return Set{}, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 {
		return Set{}, notAList(nil)
	}

	header := records[0]
	var set Set
	for line, record := range records[1:] {
		var row Row
		for i, col := range header {
			if i >= len(record) {
				break
			}
			if err := setColumn(&row, strings.TrimSpace(col), strings.TrimSpace(record[i])); err != nil {
				return Set{}, errors.NewConfigurationError("invalid condition value").
					WithCondition(line).WithField(col).WithCause(err)
			}
		}
		set.Rows = append(set.Rows, row)
	}
	return set, nil
}

// setColumn assigns one CSV cell. Empty cells and unknown columns are
// ignored.
func setColumn(row *Row, col, cell string) error {
	if cell == "" {
		return nil
	}

	floats := map[string]**float64{
		"startVal":     &row.StartVal,
		"startValSd":   &row.StartValSd,
		"minVal":       &row.MinVal,
		"maxVal":       &row.MaxVal,
		"pThreshold":   &row.PThreshold,
		"stopInterval": &row.StopInterval,
		"beta":         &row.Beta,
		"delta":        &row.Delta,
		"gamma":        &row.Gamma,
		"grain":        &row.Grain,
		"threshold":    &row.Threshold,
	}
	if dst, ok := floats[col]; ok {
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return err
		}
		*dst = &v
		return nil
	}

	switch col {
	case "label":
		row.Label = cell
	case "method":
		row.Method = cell
	case "nTrials", "dupCardinal":
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return err
		}
		if v != float64(int(v)) {
			return fmt.Errorf("%s must be a whole number, got %s", col, cell)
		}
		if col == "nTrials" {
			row.NTrials = int(v)
		} else {
			row.DupCardinal = int(v)
		}
	}
	return nil
}

// Duplicate returns rows expanded into n tagged copies each, with
// dupCardinal 1..n, for fully randomized selection with duplicates. It
// returns the rows unchanged when n < 2.
func Duplicate(rows []Row, n int) []Row {
	if n < 2 {
		return rows
	}
	out := make([]Row, 0, len(rows)*n)
	for _, r := range rows {
		for d := 1; d <= n; d++ {
			cp := r
			cp.DupCardinal = d
			out = append(out, cp)
		}
	}
	return out
}
