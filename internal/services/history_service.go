package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"ortho-assist/internal/models"
	"ortho-assist/internal/repositories"

	"github.com/google/uuid"
)

// ErrPatientNotFound is returned when no study references the patient
var ErrPatientNotFound = errors.New("patient not found")

const (
	dateLayout     = "2006-01-02"
	recentStudies  = 3
	overviewWindow = 7 // days, including today
)

// HistoryService backs the history, overview and patient views and records
// every successful upload as a study
type HistoryService struct {
	studyRepo repositories.StudyRepository
	logger    *log.Logger
	now       func() time.Time
}

// NewHistoryService creates a new history service
func NewHistoryService(studyRepo repositories.StudyRepository, logger *log.Logger) *HistoryService {
	return &HistoryService{
		studyRepo: studyRepo,
		logger:    logger,
		now:       time.Now,
	}
}

// ListStudies returns the studies matching filter, newest first
func (s *HistoryService) ListStudies(ctx context.Context, filter models.StudyFilter) ([]*models.Study, error) {
	studies, err := s.studyRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list studies: %w", err)
	}
	return studies, nil
}

// Overview counts studies per triage level for today and the last seven
// days, and returns the most recent studies
func (s *HistoryService) Overview(ctx context.Context) (*models.Overview, error) {
	now := s.now()
	today := now.Format(dateLayout)
	weekStart := now.AddDate(0, 0, -(overviewWindow - 1)).Format(dateLayout)

	studies, err := s.studyRepo.List(ctx, models.StudyFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to load overview: %w", err)
	}

	overview := &models.Overview{
		RecentActivity: []*models.Study{},
		Timestamp:      models.Now(),
	}
	for _, study := range studies {
		if study.Date == today {
			overview.Today.Add(study.Status)
		}
		if study.Date >= weekStart && study.Date <= today {
			overview.Week.Add(study.Status)
		}
	}

	if len(studies) > recentStudies {
		studies = studies[:recentStudies]
	}
	overview.RecentActivity = append(overview.RecentActivity, studies...)

	return overview, nil
}

// Patient returns a patient's identity and studies, newest first
func (s *HistoryService) Patient(ctx context.Context, patientID string) (*models.Patient, []*models.Study, error) {
	studies, err := s.studyRepo.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load patient %s: %w", patientID, err)
	}
	if len(studies) == 0 {
		return nil, nil, ErrPatientNotFound
	}

	// The newest study carrying full details wins
	for _, study := range studies {
		if study.PatientDetails != nil {
			patient := *study.PatientDetails
			if patient.PatientID == "" {
				patient.PatientID = patientID
			}
			return &patient, studies, nil
		}
	}

	return &models.Patient{PatientID: patientID, Name: studies[0].Patient}, studies, nil
}

// RecordAnalysis stores a study for a successful analysis
func (s *HistoryService) RecordAnalysis(ctx context.Context, req *models.AnalyzeRequest, result *models.AnalyzeResult) (*models.Study, error) {
	now := s.now()
	study := &models.Study{
		ID:             "ST-" + strings.ToUpper(uuid.NewString()[:8]),
		Date:           now.Format(dateLayout),
		Patient:        patientLabel(req.PatientInfo),
		PatientID:      req.PatientInfo.PatientID,
		UserID:         req.UserID,
		Modality:       modalityFor(req),
		BodyPart:       bodyPartFor(req, result),
		Status:         models.SeverityAmber,
		Processed:      now.UTC(),
		Filename:       req.FileName,
		ProcessingMode: req.ProcessingMode,
		Symptoms:       req.PatientSymptoms,
		Notes:          req.ClinicalNotes,
	}
	if result != nil {
		study.RequestID = result.RequestID
		study.ReportID = result.ReportID
		if result.Triage != nil {
			study.Status = models.SeverityFromTriage(result.Triage.Level)
		}
	}
	if !req.PatientInfo.IsEmpty() {
		study.PatientDetails = &models.Patient{
			PatientID:  req.PatientInfo.PatientID,
			Name:       req.PatientInfo.Name,
			Age:        req.PatientInfo.Age,
			Gender:     req.PatientInfo.Gender,
			MRN:        req.PatientInfo.MRN,
			Phone:      req.PatientInfo.Phone,
			Email:      req.PatientInfo.Email,
			DOB:        req.PatientInfo.DateOfBirth,
			Additional: req.PatientInfo.AdditionalNotes,
		}
	}

	if err := s.studyRepo.Record(ctx, study); err != nil {
		return nil, fmt.Errorf("failed to record study: %w", err)
	}
	s.logger.Printf("Recorded study %s (patient: %q, status: %s)", study.ID, study.PatientID, study.Status)
	return study, nil
}

func patientLabel(p models.PatientInfo) string {
	switch {
	case p.Name != "":
		return p.Name
	case p.PatientID != "":
		return "Patient #" + p.PatientID
	default:
		return "Unknown patient"
	}
}

func modalityFor(req *models.AnalyzeRequest) string {
	if req.FileType == "application/dicom" || strings.HasSuffix(strings.ToLower(req.FileName), ".dcm") {
		return "DICOM"
	}
	return "X-ray"
}

func bodyPartFor(req *models.AnalyzeRequest, result *models.AnalyzeResult) string {
	if result != nil {
		if result.BodyPart != "" {
			return result.BodyPart
		}
		if result.Triage != nil && result.Triage.BodyPart != "" {
			return result.Triage.BodyPart
		}
	}
	if req.BodyPartPreference != "" && req.BodyPartPreference != models.DefaultBodyPart {
		return req.BodyPartPreference
	}
	return "Unknown"
}
