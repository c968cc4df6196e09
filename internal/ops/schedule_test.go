package ops

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeCSV(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "schedule.csv")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadCSV(t *testing.T) {
	tests := []struct {
		name      string
		contents  string
		len       int
		operating map[string]bool
	}{
		{
			name:     "standard columns",
			contents: "Date,Operating\n2025-12-01,true\n2025-12-02,false\n2025-12-03,yes\n",
			len:      3,
			operating: map[string]bool{
				"2025-12-01": true,
				"2025-12-02": false,
				"2025-12-03": true,
			},
		},
		{
			name:     "slash dates and active column",
			contents: "Day Date,Active\n12/1/2025,1\n12/2/2025,0\n",
			len:      2,
			operating: map[string]bool{
				"2025-12-01": true,
				"2025-12-02": false,
			},
		},
		{
			name:     "missing flag column means operating",
			contents: "Date\n2025-12-01\n2025-12-02\n",
			len:      2,
			operating: map[string]bool{
				"2025-12-01": true,
				"2025-12-02": true,
			},
		},
		{
			name:     "bad rows skipped",
			contents: "Date,Operating\nnot-a-date,true\n2025-12-05,true\n",
			len:      1,
			operating: map[string]bool{
				"2025-12-05": true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := LoadCSV(writeCSV(t, tt.contents))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if s.Len() != tt.len {
				t.Errorf("Len() = %d, want %d", s.Len(), tt.len)
			}
			for ds, want := range tt.operating {
				day, err := time.Parse("2006-01-02", ds)
				if err != nil {
					t.Fatal(err)
				}
				if got := s.Operating(day); got != want {
					t.Errorf("Operating(%s) = %v, want %v", ds, got, want)
				}
			}
		})
	}
}

func TestLoadCSVNoDateColumn(t *testing.T) {
	_, err := LoadCSV(writeCSV(t, "Station,Operating\nfoo,true\n"))
	if err == nil {
		t.Fatal("expected error for schedule without a date column")
	}
}

func TestOperatingUnknownDate(t *testing.T) {
	s := Empty()
	if s.Operating(time.Date(2025, time.December, 25, 0, 0, 0, 0, time.UTC)) {
		t.Error("empty schedule should report not operating")
	}
}
