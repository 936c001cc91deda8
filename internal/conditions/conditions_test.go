package conditions

import (
	"os"
	"path/filepath"
	"testing"

	stairerrors "github.com/Iron-Ham/multistair/internal/errors"
)

const yamlList = `
- label: A
  startVal: 5
  startValSd: 1
  threshold: 4.2
- label: B
  startVal: 3
  startValSd: 1
  nTrials: 6
  method: mean
`

const yamlObject = `
conditions:
  - label: A
    startVal: -1
    startValSd: 0.5
    maxVal: 0
`

const jsonList = `[{"label": "A", "startVal": 5, "startValSd": 1}, {"label": "B", "startVal": 3, "startValSd": 1, "dupCardinal": 2}]`

const csvData = `label,startVal,startValSd,nTrials,threshold,notes
A,5,1,4,4.5,first
B,3,1.5,,,
`

func TestParse(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		format Format
		labels []string
	}{
		{"yaml list", yamlList, FormatYAML, []string{"A", "B"}},
		{"yaml object", yamlObject, FormatYAML, []string{"A"}},
		{"json list", jsonList, FormatJSON, []string{"A", "B"}},
		{"json object", `{"conditions": [{"label": "C", "startVal": 0, "startValSd": 2}]}`, FormatJSON, []string{"C"}},
		{"csv", csvData, FormatCSV, []string{"A", "B"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set, err := Parse([]byte(tt.data), tt.format)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			conds := set.Conditions()
			if len(conds) != len(tt.labels) {
				t.Fatalf("got %d conditions, want %d", len(conds), len(tt.labels))
			}
			for i, want := range tt.labels {
				if conds[i].Label != want {
					t.Errorf("condition %d label = %q, want %q", i, conds[i].Label, want)
				}
				if conds[i].StartVal == nil || conds[i].StartValSd == nil {
					t.Errorf("condition %d missing start values", i)
				}
			}
		})
	}
}

func TestParse_Fields(t *testing.T) {
	set, err := Parse([]byte(yamlList), FormatYAML)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	b := set.Rows[1]
	if b.NTrials != 6 || b.Method != "mean" {
		t.Errorf("row B = %+v", b)
	}
	if th := set.Thresholds(); len(th) != 1 || th["A"] != 4.2 {
		t.Errorf("Thresholds() = %v", th)
	}

	csvSet, err := Parse([]byte(csvData), FormatCSV)
	if err != nil {
		t.Fatalf("Parse(csv) error = %v", err)
	}
	a := csvSet.Rows[0]
	if a.NTrials != 4 || *a.StartVal != 5 || a.Threshold == nil || *a.Threshold != 4.5 {
		t.Errorf("csv row A = %+v", a)
	}
	if csvSet.Rows[1].NTrials != 0 || *csvSet.Rows[1].StartValSd != 1.5 {
		t.Errorf("csv row B = %+v", csvSet.Rows[1])
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		format Format
	}{
		{"yaml scalar", "just text", FormatYAML},
		{"yaml empty", "", FormatYAML},
		{"json number", "42", FormatJSON},
		{"json list of numbers", "[1, 2]", FormatJSON},
		{"csv bad number", "label,startVal\nA,five\n", FormatCSV},
		{"csv fractional trials", "label,nTrials\nA,2.5\n", FormatCSV},
		{"unknown format", "x", Format("toml")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data), tt.format)
			if err == nil {
				t.Fatal("Parse() error = nil, want error")
			}
			if !stairerrors.IsConfiguration(err) {
				t.Errorf("Parse() error = %v, want ConfigurationError", err)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "conds.yml")
	if err := os.WriteFile(path, []byte(yamlList), 0644); err != nil {
		t.Fatal(err)
	}

	set, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(set.Rows) != 2 {
		t.Errorf("Load() rows = %d, want 2", len(set.Rows))
	}

	if _, err := Load(filepath.Join(dir, "conds.xlsx")); err == nil {
		t.Error("Load(.xlsx) error = nil, want error")
	}
	if _, err := Load(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("Load(missing) error = nil, want error")
	}
}

func TestDuplicate(t *testing.T) {
	rows := []Row{{Label: "A"}, {Label: "B"}}

	if got := Duplicate(rows, 1); len(got) != 2 {
		t.Errorf("Duplicate(1) = %d rows, want 2", len(got))
	}

	got := Duplicate(rows, 3)
	if len(got) != 6 {
		t.Fatalf("Duplicate(3) = %d rows, want 6", len(got))
	}
	for i, r := range got {
		wantLabel := rows[i/3].Label
		if r.Label != wantLabel || r.DupCardinal != i%3+1 {
			t.Errorf("row %d = %s#%d, want %s#%d", i, r.Label, r.DupCardinal, wantLabel, i%3+1)
		}
	}
}
