package project

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"plan-digitizer/internal/calibration"
	"plan-digitizer/internal/ids"
	"plan-digitizer/internal/logging"
)

// fileShape is the persisted project layout.
type fileShape struct {
	CalibrationPixel [][2]float64          `json:"calibration_pdf_points"`
	CalibrationReal  [][2]float64          `json:"calibration_real_points"`
	Transform        *calibration.Transform `json:"transformation_matrix"`
	Points           []*Point              `json:"points"`
	Lines            []*Line               `json:"lines"`
	Curves           []*Curve              `json:"curves"`
	IDCounters       *ids.Counters         `json:"id_counters,omitempty"`
}

var fileKeys = keySet("calibration_pdf_points", "calibration_real_points", "transformation_matrix",
	"points", "lines", "curves", "id_counters")

// Load reads a project file.
func Load(path string) (*Project, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	p, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return p, nil
}

// Read decodes a project from r.
func Read(r io.Reader) (*Project, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

// Decode parses project JSON. Unknown fields at every level are preserved for Encode.
// The id allocator is restored from id_counters and raised above every id present.
func Decode(data []byte) (*Project, error) {
	var f fileShape
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	extra, err := splitExtra(data, fileKeys)
	if err != nil {
		return nil, err
	}

	p := New()
	p.CalibrationPixel = f.CalibrationPixel
	p.CalibrationReal = f.CalibrationReal
	p.Transform = f.Transform
	p.Extra = extra
	if f.IDCounters != nil {
		p.IDs = ids.FromCounters(*f.IDCounters)
	}

	for _, pt := range f.Points {
		if pt == nil {
			continue
		}
		if p.HasPoint(pt.ID) {
			logging.Logger().Warn("duplicate point id in file, keeping last", "id", pt.ID)
		}
		p.AddPoint(pt)
	}
	for _, l := range f.Lines {
		if l != nil {
			p.AddLine(l)
		}
	}
	for _, c := range f.Curves {
		if c != nil {
			p.AddCurve(c)
		}
	}
	p.RehydrateIDs()
	return p, nil
}

// Encode renders the project as indented JSON.
func (p *Project) Encode() ([]byte, error) {
	counters := p.IDs.Counters()
	f := fileShape{
		CalibrationPixel: p.CalibrationPixel,
		CalibrationReal:  p.CalibrationReal,
		Transform:        p.Transform,
		Points:           p.Points(),
		Lines:            p.Lines(),
		Curves:           p.Curves(),
		IDCounters:       &counters,
	}
	base, err := json.Marshal(f)
	if err != nil {
		return nil, err
	}
	merged, err := mergeExtra(base, p.Extra)
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, merged, "", "  "); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// Save writes the project to path.
func (p *Project) Save(path string) error {
	data, err := p.Encode()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
