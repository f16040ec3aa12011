package models

import (
	"strings"
	"time"
)

// Severity is the lowercase triage label used by the dashboard views
type Severity string

const (
	SeverityRed   Severity = "red"
	SeverityAmber Severity = "amber"
	SeverityGreen Severity = "green"
)

// SeverityFromTriage maps a backend triage level to a dashboard severity.
// Unknown levels map to amber, the backend's own default.
func SeverityFromTriage(level TriageLevel) Severity {
	switch level {
	case TriageRed:
		return SeverityRed
	case TriageGreen:
		return SeverityGreen
	default:
		return SeverityAmber
	}
}

// ParseSeverity accepts any casing and returns false for unknown values
func ParseSeverity(s string) (Severity, bool) {
	switch Severity(strings.ToLower(strings.TrimSpace(s))) {
	case SeverityRed:
		return SeverityRed, true
	case SeverityAmber:
		return SeverityAmber, true
	case SeverityGreen:
		return SeverityGreen, true
	}
	return "", false
}

// Patient is the identity block shown on the patient details page
type Patient struct {
	PatientID  string `json:"patientId"`
	Name       string `json:"name"`
	Age        *int   `json:"age,omitempty"`
	Gender     string `json:"gender,omitempty"`
	MRN        string `json:"mrn,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Email      string `json:"email,omitempty"`
	DOB        string `json:"dob,omitempty"`
	Additional string `json:"additional,omitempty"`
}

// Study is one analysed image in the study history
type Study struct {
	ID             string    `json:"id"`
	Date           string    `json:"date"` // YYYY-MM-DD
	Patient        string    `json:"patient"`
	PatientID      string    `json:"patientId,omitempty"`
	UserID         string    `json:"userId,omitempty"`
	Modality       string    `json:"modality"`
	BodyPart       string    `json:"bodyPart"`
	Status         Severity  `json:"status"`
	Processed      time.Time `json:"processed"`
	Filename       string    `json:"filename,omitempty"`
	ProcessingMode string    `json:"processingMode,omitempty"`
	Symptoms       string    `json:"symptoms,omitempty"`
	Notes          string    `json:"notes,omitempty"`
	RequestID      string    `json:"requestId,omitempty"`
	ReportID       string    `json:"reportId,omitempty"`
	PatientDetails *Patient  `json:"patientDetails,omitempty"`
}

// StudyFilter selects studies for the history view. Zero values match all.
type StudyFilter struct {
	Severity Severity
	From     string // inclusive, YYYY-MM-DD
	To       string // inclusive, YYYY-MM-DD
}

// Matches applies the filter the same way the history page does:
// dates compare lexically in YYYY-MM-DD form.
func (f StudyFilter) Matches(s *Study) bool {
	if f.Severity != "" && s.Status != f.Severity {
		return false
	}
	if f.From != "" && s.Date < f.From {
		return false
	}
	if f.To != "" && s.Date > f.To {
		return false
	}
	return true
}

// TriageCounts is the per-level count for one time window
type TriageCounts struct {
	Red   int `json:"red"`
	Amber int `json:"amber"`
	Green int `json:"green"`
}

// Add increments the counter for the given severity
func (c *TriageCounts) Add(s Severity) {
	switch s {
	case SeverityRed:
		c.Red++
	case SeverityAmber:
		c.Amber++
	case SeverityGreen:
		c.Green++
	}
}

// Overview backs the dashboard overview page
type Overview struct {
	Today          TriageCounts `json:"today"`
	Week           TriageCounts `json:"week"`
	RecentActivity []*Study     `json:"recentActivity"`
	Timestamp      string       `json:"timestamp"`
}
