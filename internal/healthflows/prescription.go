package healthflows

import (
	"strings"

	"github.com/medportal/medassist/internal/flow"
	"github.com/medportal/medassist/internal/schema"
)

// PrescriptionInput carries a prescription as text, a photo, or both.
type PrescriptionInput struct {
	PrescriptionText string `json:"prescriptionText,omitempty"`
	PhotoDataURI     string `json:"photoDataUri,omitempty"`
	PatientAge       int    `json:"patientAge,omitempty"`
}

// Medication is one line of an analyzed prescription.
type Medication struct {
	Name      string `json:"name"`
	Dosage    string `json:"dosage"`
	Frequency string `json:"frequency"`
	Duration  string `json:"duration,omitempty"`
	Purpose   string `json:"purpose,omitempty"`
}

// PrescriptionOutput is the structured medication breakdown.
type PrescriptionOutput struct {
	Medications  []Medication `json:"medications"`
	Instructions string       `json:"instructions"`
	Warnings     []string     `json:"warnings,omitempty"`
	Summary      string       `json:"summary"`
}

var prescriptionInput = schema.New("PrescriptionInput", "A prescription to analyze",
	schema.String("prescriptionText", "Transcribed prescription text"),
	schema.Media("photoDataUri", "Photo of the prescription as a data URI, e.g. data:image/jpeg;base64,..."),
	schema.Integer("patientAge", "Patient age in years"),
)

var prescriptionOutput = schema.New("PrescriptionOutput", "Structured breakdown of a prescription",
	schema.Array("medications", "Medications found on the prescription",
		schema.Object("", "A prescribed medication",
			schema.String("name", "Medication name").Require(),
			schema.String("dosage", "Dose per administration, e.g. 500mg").Require(),
			schema.String("frequency", "How often to take it").Require(),
			schema.String("duration", "How long to take it"),
			schema.String("purpose", "What the medication treats"),
		),
	).Require(),
	schema.String("instructions", "General instructions for the patient in plain language").Require(),
	schema.Array("warnings", "Interaction or safety warnings", schema.String("", "")),
	schema.String("summary", "Short summary of the prescription").Require(),
)

const prescriptionPrompt = `You are a careful pharmacist assistant. Analyze the prescription below and list every medication with its dosage, frequency, duration and purpose.
Explain the instructions in plain language and list any interaction or safety warnings. If something is illegible, say so instead of guessing.

Patient age: {{patientAge}}

Prescription text:
{{prescriptionText}}

Prescription photo: {{photoDataUri}}`

func prescriptionDefinition() flow.Definition {
	return flow.Definition{
		Name:        PrescriptionAnalysis,
		Description: "Break a prescription photo or text into structured medication details",
		Version:     "1.0.0",
		Input:       prescriptionInput,
		Output:      prescriptionOutput,
		Prompt:      prescriptionPrompt,
		Source:      flow.SourceBuiltin,
		Check:       checkPrescription,
		Defaults: map[string]any{
			"prescriptionText": "(none provided)",
			"photoDataUri":     "(none provided)",
			"patientAge":       "unknown",
		},
	}
}

// checkPrescription requires text or a photo.
func checkPrescription(input map[string]any) error {
	text, _ := input["prescriptionText"].(string)
	photo, _ := input["photoDataUri"].(string)
	if strings.TrimSpace(text) == "" && photo == "" {
		return &schema.MismatchError{
			Path:   "prescriptionText",
			Reason: "one of prescriptionText or photoDataUri is required",
		}
	}
	return nil
}

// Prescription returns a typed handle for the prescriptionAnalysis flow.
func Prescription(exec *flow.Executor) *flow.Typed[PrescriptionInput, PrescriptionOutput] {
	return flow.Bind[PrescriptionInput, PrescriptionOutput](exec, PrescriptionAnalysis)
}
