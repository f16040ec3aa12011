package repositories

import (
	"context"
	"sort"
	"sync"

	"ortho-assist/internal/models"
)

// MemoryStudyRepository is the fallback store used when Redis is not
// reachable. Contents are lost on restart.
type MemoryStudyRepository struct {
	mu      sync.RWMutex
	studies map[string]*models.Study
}

func NewMemoryStudyRepository() *MemoryStudyRepository {
	return &MemoryStudyRepository{
		studies: make(map[string]*models.Study),
	}
}

func (r *MemoryStudyRepository) Record(ctx context.Context, study *models.Study) error {
	if err := validateStudy(study); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.studies[study.ID]; exists {
		return StudyAlreadyExistsError(study.ID)
	}
	copied := *study
	r.studies[study.ID] = &copied
	return nil
}

func (r *MemoryStudyRepository) Get(ctx context.Context, studyID string) (*models.Study, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.studies[studyID]
	if !ok {
		return nil, StudyNotFoundError(studyID)
	}
	copied := *s
	return &copied, nil
}

func (r *MemoryStudyRepository) List(ctx context.Context, filter models.StudyFilter) ([]*models.Study, error) {
	return r.collect(func(s *models.Study) bool { return filter.Matches(s) }), nil
}

func (r *MemoryStudyRepository) ListByPatient(ctx context.Context, patientID string) ([]*models.Study, error) {
	return r.collect(func(s *models.Study) bool { return s.PatientID == patientID }), nil
}

func (r *MemoryStudyRepository) Seed(ctx context.Context, studies []*models.Study) (int, error) {
	r.mu.RLock()
	empty := len(r.studies) == 0
	r.mu.RUnlock()
	if !empty {
		return 0, nil
	}

	seeded := 0
	for _, s := range studies {
		if err := r.Record(ctx, s); err != nil {
			return seeded, err
		}
		seeded++
	}
	return seeded, nil
}

func (r *MemoryStudyRepository) Ping(ctx context.Context) error { return nil }

func (r *MemoryStudyRepository) Close() error { return nil }

// collect returns copies of matching studies sorted newest first
func (r *MemoryStudyRepository) collect(match func(*models.Study) bool) []*models.Study {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.Study, 0, len(r.studies))
	for _, s := range r.studies {
		if match(s) {
			copied := *s
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Processed.Equal(out[j].Processed) {
			return out[i].ID > out[j].ID
		}
		return out[i].Processed.After(out[j].Processed)
	})
	return out
}
