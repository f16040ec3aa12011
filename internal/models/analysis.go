package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// TriageLevel is the severity classification returned by the backend
type TriageLevel string

const (
	TriageRed   TriageLevel = "RED"
	TriageAmber TriageLevel = "AMBER"
	TriageGreen TriageLevel = "GREEN"
)

// ParseTriageLevel accepts any casing and returns false for unknown levels
func ParseTriageLevel(s string) (TriageLevel, bool) {
	switch TriageLevel(strings.ToUpper(strings.TrimSpace(s))) {
	case TriageRed:
		return TriageRed, true
	case TriageAmber:
		return TriageAmber, true
	case TriageGreen:
		return TriageGreen, true
	}
	return "", false
}

// Diagnosis summarises the primary finding of an analysis
type Diagnosis struct {
	PrimaryFinding string  `json:"primary_finding"`
	Confidence     float64 `json:"confidence,omitempty"`
}

// Triage is the backend's triage assessment
type Triage struct {
	Level          TriageLevel `json:"level"`
	Confidence     float64     `json:"confidence"`
	Recommendation string      `json:"recommendation,omitempty"`
	Priority       string      `json:"priority,omitempty"`
	BodyPart       string      `json:"body_part,omitempty"`
}

// Analysis is the structured result shown in the analysis panel
type Analysis struct {
	Diagnosis *Diagnosis `json:"diagnosis,omitempty"`
	Triage    *Triage    `json:"triage,omitempty"`
	BodyPart  string     `json:"body_part,omitempty"`
	ReportID  string     `json:"report_id,omitempty"`
	RequestID string     `json:"request_id,omitempty"`
}

// PatientInfo carries only the identity fields that were supplied
type PatientInfo struct {
	PatientID       string `json:"patient_id,omitempty"`
	Name            string `json:"name,omitempty"`
	DateOfBirth     string `json:"date_of_birth,omitempty"`
	Age             *int   `json:"age,omitempty"`
	Gender          string `json:"gender,omitempty"`
	MRN             string `json:"mrn,omitempty"`
	Phone           string `json:"phone,omitempty"`
	Email           string `json:"email,omitempty"`
	AdditionalNotes string `json:"additional_notes,omitempty"`
}

// IsEmpty reports whether no identity field was supplied
func (p PatientInfo) IsEmpty() bool {
	return p == PatientInfo{}
}

// Analysis configuration used when the upload form leaves it blank
const (
	DefaultProcessingMode = "Automatic - Full AI Pipeline"
	DefaultBodyPart       = "Auto-detect"
	AnalyzeSource         = "web_frontend"
)

// AnalyzeRequest is the JSON envelope sent to the backend analyze endpoint
type AnalyzeRequest struct {
	// File data
	FileData string `json:"file_data"`
	FileName string `json:"file_name"`
	FileType string `json:"file_type"`
	FileSize int64  `json:"file_size"`

	// Analysis configuration
	ProcessingMode     string `json:"processing_mode"`
	BodyPartPreference string `json:"body_part_preference"`

	UserID      string      `json:"user_id"`
	PatientInfo PatientInfo `json:"patient_info"`

	ClinicalNotes   string `json:"clinical_notes,omitempty"`
	PatientSymptoms string `json:"patient_symptoms,omitempty"`

	Timestamp string `json:"timestamp"`
	Source    string `json:"source"`
}

// AnalyzeResult keeps the raw backend result together with the fields
// the gateway reads for study history
type AnalyzeResult struct {
	Raw       json.RawMessage `json:"-"`
	RequestID string          `json:"request_id,omitempty"`
	Triage    *Triage         `json:"triage,omitempty"`
	BodyPart  string          `json:"body_part,omitempty"`
	ReportID  string          `json:"report_id,omitempty"`
}

// AllowedImageTypes are the declared content types accepted for analysis
var AllowedImageTypes = []string{"image/jpeg", "image/jpg", "image/png", "application/dicom"}

// IsAllowedImage accepts an allow-listed content type, or any file whose
// name ends in .dcm regardless of its declared type
func IsAllowedImage(contentType, filename string) bool {
	for _, t := range AllowedImageTypes {
		if contentType == t {
			return true
		}
	}
	return strings.HasSuffix(strings.ToLower(filename), ".dcm")
}

// ReportFilename is the download name used for a report id
func ReportFilename(reportID string) string {
	return fmt.Sprintf("orthoassist_report_%s.pdf", reportID)
}
