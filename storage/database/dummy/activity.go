package dummydb

import (
	"context"
	"sort"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/activity"
)

type activityRepository struct {
	activities *activityTable
}

var _ activity.Repository = (*activityRepository)(nil) // interface compliance check

func NewActivityRepository(db *DB) activity.Repository {
	return &activityRepository{activities: db.activity}
}

func (repo *activityRepository) query(ownerID string) []activity.Activity {
	acts := make([]activity.Activity, 0, len(repo.activities.table))
	for _, act := range repo.activities.table {
		if act.OwnerID == ownerID {
			acts = append(acts, *act)
		}
	}
	return acts
}

func (repo *activityRepository) CreateActivity(_ context.Context, act activity.Activity) (activity.Activity, error) {
	repo.activities.Lock()
	defer repo.activities.Unlock()

	repo.activities.table[act.ID] = &act
	return act, nil
}

func (repo *activityRepository) GetActivity(_ context.Context, ownerID, id string) (activity.Activity, error) {
	repo.activities.RLock()
	defer repo.activities.RUnlock()

	if act, ok := repo.activities.table[id]; ok && act.OwnerID == ownerID {
		return *act, nil
	}
	return activity.Activity{}, activity.ErrNotFound
}

func (repo *activityRepository) QueryActivities(_ context.Context, ownerID string, filter *activity.QueryFilter, ordering ...core.DBOrdering) ([]activity.Activity, error) {
	repo.activities.RLock()
	defer repo.activities.RUnlock()

	acts := repo.query(ownerID)
	if filter != nil && !filter.IsEmpty() {
		matched := acts[:0]
		for _, act := range acts {
			if matchActivity(act, filter) {
				matched = append(matched, act)
			}
		}
		acts = matched
	}

	sortActivities(acts, ordering)
	return acts, nil
}

func matchActivity(act activity.Activity, filter *activity.QueryFilter) bool {
	if filter.Types != nil && !typeIn(act.Type, filter.Types) {
		return false
	}
	if !filter.EventsFrom.IsZero() || !filter.EventsTo.IsZero() {
		start, end, ok := act.EventWindow()
		if !ok {
			return false
		}
		if !filter.EventsFrom.IsZero() && !end.After(filter.EventsFrom) {
			return false
		}
		if !filter.EventsTo.IsZero() && !start.Before(filter.EventsTo) {
			return false
		}
	}
	if !filter.DueFrom.IsZero() && (act.DueAt == nil || act.DueAt.Before(filter.DueFrom)) {
		return false
	}
	if !filter.DueTo.IsZero() && (act.DueAt == nil || act.DueAt.After(filter.DueTo)) {
		return false
	}
	return true
}

func typeIn(typ activity.Type, types []activity.Type) bool {
	for _, t := range types {
		if typ == t {
			return true
		}
	}
	return false
}

func sortActivities(acts []activity.Activity, ordering []core.DBOrdering) {
	if len(ordering) == 0 {
		return
	}
	sort.SliceStable(acts, func(i, j int) bool {
		for _, ord := range ordering {
			var less, more bool
			switch ord.Field {
			case "created_at":
				less = acts[i].CreatedAt.Before(acts[j].CreatedAt)
				more = acts[i].CreatedAt.After(acts[j].CreatedAt)
			case "title":
				less = acts[i].Title < acts[j].Title
				more = acts[i].Title > acts[j].Title
			default:
				continue
			}
			if !less && !more {
				continue
			}
			if ord.Ascending {
				return less
			}
			return more
		}
		return false
	})
}

func (repo *activityRepository) DeleteActivitiesByID(_ context.Context, ownerID string, ids ...string) (int, error) {
	repo.activities.Lock()
	defer repo.activities.Unlock()

	var cnt int
	for _, id := range ids {
		if act, ok := repo.activities.table[id]; ok && act.OwnerID == ownerID {
			delete(repo.activities.table, id)
			cnt++
		}
	}
	return cnt, nil
}
