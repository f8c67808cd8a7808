// Package healthflows defines the flows built into the health portal.
package healthflows

import (
	"github.com/medportal/medassist/internal/flow"
)

// Flow names.
const (
	DiseaseTrends        = "diseaseTrends"
	PrescriptionAnalysis = "prescriptionAnalysis"
)

// Definitions returns the built-in flow definitions.
func Definitions() []flow.Definition {
	return []flow.Definition{
		trendsDefinition(),
		prescriptionDefinition(),
	}
}

// Register adds the built-in flows to reg.
func Register(reg *flow.Registry) error {
	for _, def := range Definitions() {
		if err := reg.Register(def); err != nil {
			return err
		}
	}
	return nil
}
