package repositories

import (
	"context"
	"errors"

	"ortho-assist/internal/models"
)

// StudyRepository stores analysed studies for the history, overview and
// patient views
type StudyRepository interface {
	Record(ctx context.Context, study *models.Study) error
	Get(ctx context.Context, studyID string) (*models.Study, error)
	// List returns matching studies, newest first
	List(ctx context.Context, filter models.StudyFilter) ([]*models.Study, error)
	// ListByPatient returns a patient's studies, newest first
	ListByPatient(ctx context.Context, patientID string) ([]*models.Study, error)
	// Seed stores the given studies only when the repository is empty
	Seed(ctx context.Context, studies []*models.Study) (int, error)

	Ping(ctx context.Context) error
	Close() error
}

var (
	ErrStudyNotFound = errors.New("study not found")
	ErrStudyExists   = errors.New("study already exists")
)

// StudyRepositoryError represents errors from the study repository
type StudyRepositoryError struct {
	Operation string
	StudyID   string
	Err       error
	Message   string
}

func (e *StudyRepositoryError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	prefix := e.Operation
	if e.StudyID != "" {
		prefix += " (study: " + e.StudyID + ")"
	}
	if e.Err != nil {
		return prefix + ": " + e.Err.Error()
	}
	return prefix + ": unknown error"
}

func (e *StudyRepositoryError) Unwrap() error {
	return e.Err
}

// NewStudyRepositoryError creates a new study repository error
func NewStudyRepositoryError(operation string, studyID string, err error, message string) *StudyRepositoryError {
	return &StudyRepositoryError{
		Operation: operation,
		StudyID:   studyID,
		Err:       err,
		Message:   message,
	}
}

func StudyNotFoundError(studyID string) error {
	return NewStudyRepositoryError("get_study", studyID, ErrStudyNotFound, "study not found: "+studyID)
}

func StudyAlreadyExistsError(studyID string) error {
	return NewStudyRepositoryError("record_study", studyID, ErrStudyExists, "study already exists: "+studyID)
}

func validateStudy(s *models.Study) error {
	if s == nil {
		return NewStudyRepositoryError("validate_study", "", nil, "invalid study: nil")
	}
	if s.ID == "" {
		return NewStudyRepositoryError("validate_study", "", nil, "invalid study: study ID is required")
	}
	if s.Date == "" {
		return NewStudyRepositoryError("validate_study", s.ID, nil, "invalid study: date is required")
	}
	return nil
}
