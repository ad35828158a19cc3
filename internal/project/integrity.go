package project

import (
	"fmt"
	"strings"

	"plan-digitizer/internal/logging"
)

// ReferentialIntegrityError lists references to entities that do not exist.
type ReferentialIntegrityError struct {
	Faults []string
}

func (e *ReferentialIntegrityError) Error() string {
	return fmt.Sprintf("referential integrity: %d fault(s): %s", len(e.Faults), strings.Join(e.Faults, "; "))
}

// CheckIntegrity verifies that every id named by a line or curve exists.
// It returns nil or a *ReferentialIntegrityError.
func (p *Project) CheckIntegrity() error {
	var faults []string
	for _, l := range p.Lines() {
		for _, id := range []int{l.StartID, l.EndID} {
			if !p.HasPoint(id) {
				faults = append(faults, fmt.Sprintf("line %d references missing point %d", l.ID, id))
			}
		}
	}
	for _, c := range p.Curves() {
		for _, id := range c.PointSet() {
			if !p.HasPoint(id) {
				faults = append(faults, fmt.Sprintf("curve %d references missing point %d", c.ID, id))
			}
		}
		if c.BaseLineID != 0 && p.Line(c.BaseLineID) == nil {
			faults = append(faults, fmt.Sprintf("curve %d references missing base line %d", c.ID, c.BaseLineID))
		}
		if n := len(c.ArcPointIDs); n > 0 && (c.ArcPointIDs[0] != c.StartID || c.ArcPointIDs[n-1] != c.EndID) {
			faults = append(faults, fmt.Sprintf("curve %d arc does not run from %d to %d", c.ID, c.StartID, c.EndID))
		}
	}
	if len(faults) == 0 {
		return nil
	}
	for _, f := range faults {
		logging.Logger().Warn("integrity fault", "detail", f)
	}
	return &ReferentialIntegrityError{Faults: faults}
}
