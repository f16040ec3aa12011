package repositories

import (
	"context"
	"encoding/json"
	"errors"

	"ortho-assist/internal/models"

	"github.com/redis/go-redis/v9"
)

const (
	// Redis key prefixes
	studyKeyPrefix = "study:"
	studyIndexKey  = "studies:index"
)

func patientStudiesKey(patientID string) string {
	return "patient:" + patientID + ":studies"
}

// RedisStudyRepository implements StudyRepository using Redis. Studies are
// JSON values; sorted sets keyed by processed time index them.
type RedisStudyRepository struct {
	client *redis.Client
}

// NewRedisStudyRepository creates a new Redis-based study repository
func NewRedisStudyRepository(client *redis.Client) *RedisStudyRepository {
	return &RedisStudyRepository{
		client: client,
	}
}

// Record stores a new study and its index entries in one MULTI/EXEC under a
// WATCH on the study key. EXEC does not roll back commands that fail at run
// time, so a failed transaction removes the study key it may have written.
func (r *RedisStudyRepository) Record(ctx context.Context, study *models.Study) error {
	if err := validateStudy(study); err != nil {
		return err
	}

	studyJSON, err := json.Marshal(study)
	if err != nil {
		return NewStudyRepositoryError("record", study.ID, err, "failed to marshal study")
	}

	key := studyKeyPrefix + study.ID
	score := float64(study.Processed.UnixMilli())

	txn := func(tx *redis.Tx) error {
		exists, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if exists > 0 {
			return ErrStudyExists
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, studyJSON, 0)
			pipe.ZAdd(ctx, studyIndexKey, redis.Z{Score: score, Member: study.ID})
			if study.PatientID != "" {
				pipe.ZAdd(ctx, patientStudiesKey(study.PatientID), redis.Z{Score: score, Member: study.ID})
			}
			return nil
		})
		if err != nil && !errors.Is(err, redis.TxFailedErr) {
			if delErr := r.client.Del(context.WithoutCancel(ctx), key).Err(); delErr != nil {
				return errors.Join(err, delErr)
			}
		}
		return err
	}

	switch err := r.client.Watch(ctx, txn, key); {
	case err == nil:
		return nil
	case errors.Is(err, ErrStudyExists), errors.Is(err, redis.TxFailedErr):
		// TxFailedErr: the key was written between WATCH and EXEC
		return StudyAlreadyExistsError(study.ID)
	default:
		return NewStudyRepositoryError("record", study.ID, err, "failed to execute transaction")
	}
}

// Get retrieves a study by ID
func (r *RedisStudyRepository) Get(ctx context.Context, studyID string) (*models.Study, error) {
	studyJSON, err := r.client.Get(ctx, studyKeyPrefix+studyID).Result()
	if err == redis.Nil {
		return nil, StudyNotFoundError(studyID)
	}
	if err != nil {
		return nil, NewStudyRepositoryError("get", studyID, err, "")
	}

	var study models.Study
	if err := json.Unmarshal([]byte(studyJSON), &study); err != nil {
		return nil, NewStudyRepositoryError("get", studyID, err, "failed to unmarshal study")
	}
	return &study, nil
}

// List returns all studies matching the filter, newest first
func (r *RedisStudyRepository) List(ctx context.Context, filter models.StudyFilter) ([]*models.Study, error) {
	studies, err := r.listIndex(ctx, studyIndexKey)
	if err != nil {
		return nil, NewStudyRepositoryError("list", "", err, "")
	}

	matched := make([]*models.Study, 0, len(studies))
	for _, s := range studies {
		if filter.Matches(s) {
			matched = append(matched, s)
		}
	}
	return matched, nil
}

// ListByPatient returns a patient's studies, newest first
func (r *RedisStudyRepository) ListByPatient(ctx context.Context, patientID string) ([]*models.Study, error) {
	studies, err := r.listIndex(ctx, patientStudiesKey(patientID))
	if err != nil {
		return nil, NewStudyRepositoryError("list_by_patient", "", err, "")
	}
	return studies, nil
}

// Seed stores the given studies when the index is empty
func (r *RedisStudyRepository) Seed(ctx context.Context, studies []*models.Study) (int, error) {
	count, err := r.client.ZCard(ctx, studyIndexKey).Result()
	if err != nil {
		return 0, NewStudyRepositoryError("seed", "", err, "")
	}
	if count > 0 {
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

func (r *RedisStudyRepository) listIndex(ctx context.Context, indexKey string) ([]*models.Study, error) {
	ids, err := r.client.ZRevRange(ctx, indexKey, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*models.Study{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = studyKeyPrefix + id
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	studies := make([]*models.Study, 0, len(values))
	for _, v := range values {
		str, ok := v.(string)
		if !ok {
			// Index entry without a value; skip it
			continue
		}
		var s models.Study
		if err := json.Unmarshal([]byte(str), &s); err != nil {
			continue
		}
		studies = append(studies, &s)
	}
	return studies, nil
}

// Ping checks the Redis connection
func (r *RedisStudyRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (r *RedisStudyRepository) Close() error {
	return r.client.Close()
}
