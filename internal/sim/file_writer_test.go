package sim

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"airops-sim/internal/telemetry"
)

func TestFileWriter(t *testing.T) {
	dir := t.TempDir()
	ts := time.Unix(0, 0).UTC()
	uRow := telemetry.UnitRow{ScenarioID: "s1", UnitID: "a1", Kind: "aircraft", Lat: 1, Lon: 2, Heading: 90, Speed: 300, Timestamp: ts}
	eRow := telemetry.EngagementRow{ScenarioID: "s1", WeaponID: "w1", Outcome: "hit", TargetID: "a1", Roll: 0.1, Timestamp: ts}
	sRow := telemetry.TickStateRow{ScenarioID: "s1", SimTime: 7, Hits: 1, Timestamp: ts}

	cases := []struct {
		name   string
		write  func(*FileWriter) error
		decode func([]byte)
	}{
		{
			name:  "units",
			write: func(fw *FileWriter) error { return fw.Write(uRow) },
			decode: func(b []byte) {
				var got telemetry.UnitRow
				if err := json.Unmarshal(b, &got); err != nil {
					t.Fatalf("decode unit: %v", err)
				}
				if got.UnitID != uRow.UnitID || got.Speed != uRow.Speed || !got.Timestamp.Equal(ts) {
					t.Fatalf("unexpected unit: %#v", got)
				}
			},
		},
		{
			name:  "engagements",
			write: func(fw *FileWriter) error { return fw.WriteEngagement(eRow) },
			decode: func(b []byte) {
				var got telemetry.EngagementRow
				if err := json.Unmarshal(b, &got); err != nil {
					t.Fatalf("decode engagement: %v", err)
				}
				if got.Outcome != eRow.Outcome || got.Roll != eRow.Roll {
					t.Fatalf("unexpected engagement: %#v", got)
				}
			},
		},
		{
			name:  "state",
			write: func(fw *FileWriter) error { return fw.WriteState(sRow) },
			decode: func(b []byte) {
				var got telemetry.TickStateRow
				if err := json.Unmarshal(b, &got); err != nil {
					t.Fatalf("decode state: %v", err)
				}
				if got.SimTime != sRow.SimTime || got.Hits != sRow.Hits {
					t.Fatalf("unexpected state: %#v", got)
				}
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			paths := map[string]string{
				"units":       filepath.Join(dir, tc.name+"_units.json"),
				"engagements": "",
				"state":       "",
			}
			paths[tc.name] = filepath.Join(dir, tc.name+".json")
			fw, err := NewFileWriter(paths["units"], paths["engagements"], paths["state"])
			if err != nil {
				t.Fatalf("NewFileWriter: %v", err)
			}
			if err := tc.write(fw); err != nil {
				t.Fatalf("write: %v", err)
			}
			fw.Close()
			data, err := os.ReadFile(paths[tc.name])
			if err != nil {
				t.Fatalf("read file: %v", err)
			}
			tc.decode(data)
		})
	}
}

func TestFileWriterSkipsDisabledStreams(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "units.json")
	fw, err := NewFileWriter(path, "", "")
	if err != nil {
		t.Fatal(err)
	}
	defer fw.Close()
	if err := fw.WriteEngagement(telemetry.EngagementRow{WeaponID: "w"}); err != nil {
		t.Fatalf("disabled engagement stream returned %v", err)
	}
	if err := fw.WriteBatch([]telemetry.UnitRow{{UnitID: "a"}, {UnitID: "b"}}); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	if n := strings.Count(string(data), "\n"); n != 2 {
		t.Fatalf("expected 2 lines, got %d", n)
	}
}

func TestNewFileWriterError(t *testing.T) {
	dir := t.TempDir()
	if _, err := NewFileWriter(filepath.Join(dir, "u.json"), filepath.Join(dir, "missing", "e.json"), ""); err == nil {
		t.Fatalf("expected error for missing directory")
	}
}
