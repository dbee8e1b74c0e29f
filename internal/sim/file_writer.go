package sim

import (
	"encoding/json"
	"os"

	"airops-sim/internal/telemetry"
)

// FileWriter writes unit, engagement and state rows to JSONL files.
type FileWriter struct {
	unitFile  *os.File
	engFile   *os.File
	stateFile *os.File
	unitEnc   *json.Encoder
	engEnc    *json.Encoder
	stateEnc  *json.Encoder
}

// NewFileWriter creates a FileWriter. engagementPath or statePath may be empty to skip those logs.
func NewFileWriter(unitPath, engagementPath, statePath string) (*FileWriter, error) {
	uf, err := os.Create(unitPath)
	if err != nil {
		return nil, err
	}
	fw := &FileWriter{unitFile: uf, unitEnc: json.NewEncoder(uf)}
	if engagementPath != "" {
		ef, err := os.Create(engagementPath)
		if err != nil {
			fw.Close()
			return nil, err
		}
		fw.engFile = ef
		fw.engEnc = json.NewEncoder(ef)
	}
	if statePath != "" {
		sf, err := os.Create(statePath)
		if err != nil {
			fw.Close()
			return nil, err
		}
		fw.stateFile = sf
		fw.stateEnc = json.NewEncoder(sf)
	}
	return fw, nil
}

// Write logs a single unit row.
func (f *FileWriter) Write(row telemetry.UnitRow) error {
	return f.unitEnc.Encode(row)
}

// WriteBatch logs multiple unit rows.
func (f *FileWriter) WriteBatch(rows []telemetry.UnitRow) error {
	for _, r := range rows {
		if err := f.Write(r); err != nil {
			return err
		}
	}
	return nil
}

// WriteEngagement logs a single engagement row, if enabled.
func (f *FileWriter) WriteEngagement(row telemetry.EngagementRow) error {
	if f.engEnc == nil {
		return nil
	}
	return f.engEnc.Encode(row)
}

// WriteEngagements logs multiple engagement rows.
func (f *FileWriter) WriteEngagements(rows []telemetry.EngagementRow) error {
	for _, r := range rows {
		if err := f.WriteEngagement(r); err != nil {
			return err
		}
	}
	return nil
}

// WriteState logs a tick state row, if enabled.
func (f *FileWriter) WriteState(row telemetry.TickStateRow) error {
	if f.stateEnc == nil {
		return nil
	}
	return f.stateEnc.Encode(row)
}

// Close closes any underlying files.
func (f *FileWriter) Close() error {
	var err error
	for _, file := range []*os.File{f.unitFile, f.engFile, f.stateFile} {
		if file == nil {
			continue
		}
		if e := file.Close(); e != nil && err == nil {
			err = e
		}
	}
	return err
}
