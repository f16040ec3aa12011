package config

import (
	"encoding/json"
	"os"
	"time"

	"ortho-assist/internal/models"
)

// LoadStudiesFromFile reads a JSON array of studies used to seed the history
func LoadStudiesFromFile(path string) ([]*models.Study, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var studies []*models.Study
	decoder := json.NewDecoder(file)
	if err := decoder.Decode(&studies); err != nil {
		return nil, err
	}

	return studies, nil
}

// DefaultStudies is the illustrative dataset shown before any real analysis
// has been recorded
func DefaultStudies() []*models.Study {
	at := func(s string) time.Time {
		t, _ := time.Parse("2006-01-02 15:04:05", s)
		return t
	}
	return []*models.Study{
		{ID: "ST-001", Date: "2024-01-15", Patient: "Patient #1234", PatientID: "1234", Modality: "X-ray", BodyPart: "Hand", Status: models.SeverityRed, Processed: at("2024-01-15 14:35:22")},
		{ID: "ST-002", Date: "2024-01-15", Patient: "Patient #1235", PatientID: "1235", Modality: "CT", BodyPart: "Leg", Status: models.SeverityGreen, Processed: at("2024-01-15 13:22:15")},
		{ID: "ST-003", Date: "2024-01-14", Patient: "Patient #1236", PatientID: "1236", Modality: "MRI", BodyPart: "Spine", Status: models.SeverityAmber, Processed: at("2024-01-14 16:45:33")},
		{ID: "ST-004", Date: "2024-01-14", Patient: "Patient #1237", PatientID: "1237", Modality: "X-ray", BodyPart: "Ribs", Status: models.SeverityGreen, Processed: at("2024-01-14 11:20:44")},
		{ID: "ST-005", Date: "2024-01-13", Patient: "Patient #1238", PatientID: "1238", Modality: "CT", BodyPart: "Hand", Status: models.SeverityAmber, Processed: at("2024-01-13 09:15:22")},
	}
}
