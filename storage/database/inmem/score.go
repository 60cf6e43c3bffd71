package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jvaldes/premios/core/score"
)

type scoreRepository struct {
	individual *individualScoreTable
	group      *groupScoreTable
}

var _ score.Repository = (*scoreRepository)(nil) // interface compliance check

func NewScoreRepository(db *DB) *scoreRepository {
	return &scoreRepository{individual: db.individual, group: db.group}
}

func scoreKey(entityID string, date time.Time) string {
	return entityID + "|" + date.Format(score.DateLayout)
}

func (repo *scoreRepository) UpsertIndividualScore(ctx context.Context, s score.IndividualScore) (score.IndividualScore, error) {
	repo.individual.Lock()
	defer repo.individual.Unlock()

	key := scoreKey(s.StudentID, s.Date)
	if orig, ok := repo.individual.table[key]; ok {
		// keep the original identity, overwrite the criteria
		s.ID = orig.ID
		s.CreatedAt = orig.CreatedAt
	} else {
		s.ID = uuid.New().String()
	}
	repo.individual.table[key] = &s
	return s, nil
}

func (repo *scoreRepository) UpsertGroupScore(ctx context.Context, s score.GroupScore) (score.GroupScore, error) {
	repo.group.Lock()
	defer repo.group.Unlock()

	key := scoreKey(s.ClassroomID, s.Date)
	if orig, ok := repo.group.table[key]; ok {
		s.ID = orig.ID
		s.CreatedAt = orig.CreatedAt
	} else {
		s.ID = uuid.New().String()
	}
	repo.group.table[key] = &s
	return s, nil
}

func inWindow(date time.Time, filter score.QueryFilter) bool {
	if !filter.From.IsZero() && date.Before(filter.From) {
		return false
	}
	if !filter.To.IsZero() && date.After(filter.To) {
		return false
	}
	return true
}

func (repo *scoreRepository) QueryIndividualScores(ctx context.Context, filter score.QueryFilter) ([]score.IndividualScore, error) {
	repo.individual.RLock()
	defer repo.individual.RUnlock()

	var scores []score.IndividualScore
	for _, s := range repo.individual.table {
		if !inWindow(s.Date, filter) {
			continue
		}
		if filter.StudentID != "" && s.StudentID != filter.StudentID {
			continue
		}
		scores = append(scores, *s)
	}
	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].Date.Equal(scores[j].Date) {
			return scores[i].StudentID < scores[j].StudentID
		}
		return scores[i].Date.Before(scores[j].Date)
	})
	return scores, nil
}

func (repo *scoreRepository) QueryGroupScores(ctx context.Context, filter score.QueryFilter) ([]score.GroupScore, error) {
	repo.group.RLock()
	defer repo.group.RUnlock()

	var scores []score.GroupScore
	for _, s := range repo.group.table {
		if !inWindow(s.Date, filter) {
			continue
		}
		if filter.ClassroomID != "" && s.ClassroomID != filter.ClassroomID {
			continue
		}
		scores = append(scores, *s)
	}
	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].Date.Equal(scores[j].Date) {
			return scores[i].ClassroomID < scores[j].ClassroomID
		}
		return scores[i].Date.Before(scores[j].Date)
	})
	return scores, nil
}

func (repo *scoreRepository) QueryEvaluations(ctx context.Context, date time.Time) ([]score.Evaluation, error) {
	repo.individual.RLock()
	defer repo.individual.RUnlock()

	day := score.DateOf(date)
	var evals []score.Evaluation
	for _, s := range repo.individual.table {
		if s.Date.Equal(day) {
			evals = append(evals, score.Evaluation{StudentID: s.StudentID, Date: s.Date})
		}
	}
	sort.Slice(evals, func(i, j int) bool { return evals[i].StudentID < evals[j].StudentID })
	return evals, nil
}
