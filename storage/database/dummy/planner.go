package dummydb

import (
	"context"
	"sort"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/planner"
)

type plannerRepository struct {
	blocks *blockTable
	prefs  *prefsTable
}

var _ planner.Repository = (*plannerRepository)(nil) // interface compliance check

func NewPlannerRepository(db *DB) planner.Repository {
	return &plannerRepository{blocks: db.block, prefs: db.prefs}
}

func (repo *plannerRepository) query(ownerID string) []planner.Block {
	blocks := make([]planner.Block, 0, len(repo.blocks.table))
	for _, blk := range repo.blocks.table {
		if blk.OwnerID == ownerID {
			blocks = append(blocks, *blk)
		}
	}
	return blocks
}

func (repo *plannerRepository) CreateBlock(_ context.Context, blk planner.Block) (planner.Block, error) {
	repo.blocks.Lock()
	defer repo.blocks.Unlock()

	repo.blocks.table[blk.ID] = &blk
	return blk, nil
}

func (repo *plannerRepository) GetBlock(_ context.Context, ownerID, id string) (planner.Block, error) {
	repo.blocks.RLock()
	defer repo.blocks.RUnlock()

	if blk, ok := repo.blocks.table[id]; ok && blk.OwnerID == ownerID {
		return *blk, nil
	}
	return planner.Block{}, planner.ErrNotFound
}

func (repo *plannerRepository) QueryBlocks(_ context.Context, ownerID string, filter *planner.QueryFilter, ordering ...core.DBOrdering) ([]planner.Block, error) {
	repo.blocks.RLock()
	defer repo.blocks.RUnlock()

	blocks := repo.query(ownerID)
	if filter != nil && !filter.IsEmpty() {
		matched := blocks[:0]
		for _, blk := range blocks {
			if matchBlock(blk, filter) {
				matched = append(matched, blk)
			}
		}
		blocks = matched
	}

	sortBlocks(blocks, ordering)
	return blocks, nil
}

func matchBlock(blk planner.Block, filter *planner.QueryFilter) bool {
	if !filter.DateFrom.IsZero() && blk.Date.Before(filter.DateFrom) {
		return false
	}
	if !filter.DateTo.IsZero() && blk.Date.After(filter.DateTo) {
		return false
	}
	if filter.ActivityID != "" && blk.ActivityID != filter.ActivityID {
		return false
	}
	if filter.Statuses != nil && !statusIn(blk.Status, filter.Statuses) {
		return false
	}
	if filter.Categories != nil && !categoryIn(blk.Category, filter.Categories) {
		return false
	}
	return true
}

func statusIn(status planner.Status, statuses []planner.Status) bool {
	for _, s := range statuses {
		if status == s {
			return true
		}
	}
	return false
}

func categoryIn(cat planner.Category, cats []planner.Category) bool {
	for _, c := range cats {
		if cat == c {
			return true
		}
	}
	return false
}

func sortBlocks(blocks []planner.Block, ordering []core.DBOrdering) {
	if len(ordering) == 0 {
		return
	}
	sort.SliceStable(blocks, func(i, j int) bool {
		for _, ord := range ordering {
			var less, more bool
			switch ord.Field {
			case "date":
				less = blocks[i].Date.Before(blocks[j].Date)
				more = blocks[i].Date.After(blocks[j].Date)
			case "start_time":
				less = blocks[i].StartTime < blocks[j].StartTime
				more = blocks[i].StartTime > blocks[j].StartTime
			case "created_at":
				less = blocks[i].CreatedAt.Before(blocks[j].CreatedAt)
				more = blocks[i].CreatedAt.After(blocks[j].CreatedAt)
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

func (repo *plannerRepository) UpdateBlock(_ context.Context, blk planner.Block) (planner.Block, error) {
	repo.blocks.Lock()
	defer repo.blocks.Unlock()

	curr, ok := repo.blocks.table[blk.ID]
	if !ok || curr.OwnerID != blk.OwnerID {
		return planner.Block{}, planner.ErrNotFound
	}
	repo.blocks.table[blk.ID] = &blk
	return blk, nil
}

func (repo *plannerRepository) DeleteBlocksByID(_ context.Context, ownerID string, ids ...string) (int, error) {
	repo.blocks.Lock()
	defer repo.blocks.Unlock()

	var cnt int
	for _, id := range ids {
		if blk, ok := repo.blocks.table[id]; ok && blk.OwnerID == ownerID {
			delete(repo.blocks.table, id)
			cnt++
		}
	}
	return cnt, nil
}

func (repo *plannerRepository) GetPreferences(_ context.Context, ownerID string) (planner.Preferences, error) {
	repo.prefs.RLock()
	defer repo.prefs.RUnlock()

	if prefs, ok := repo.prefs.table[ownerID]; ok {
		return *prefs, nil
	}
	return planner.Preferences{}, planner.ErrPreferencesNotFound
}

func (repo *plannerRepository) SavePreferences(_ context.Context, prefs planner.Preferences) (planner.Preferences, error) {
	repo.prefs.Lock()
	defer repo.prefs.Unlock()

	repo.prefs.table[prefs.OwnerID] = &prefs
	return prefs, nil
}
