package dummydb

import (
	"sync"

	"github.com/trezcool/ratiba/core/activity"
	"github.com/trezcool/ratiba/core/planner"
)

type (
	DB struct {
		block    *blockTable
		prefs    *prefsTable
		activity *activityTable
	}

	blockTable struct {
		sync.RWMutex
		table map[string]*planner.Block
	}

	prefsTable struct {
		sync.RWMutex
		table map[string]*planner.Preferences // keyed by owner ID
	}

	activityTable struct {
		sync.RWMutex
		table map[string]*activity.Activity
	}
)

func Open() (*DB, error) {
	db := &DB{
		block:    &blockTable{table: make(map[string]*planner.Block)},
		prefs:    &prefsTable{table: make(map[string]*planner.Preferences)},
		activity: &activityTable{table: make(map[string]*activity.Activity)},
	}
	return db, nil
}
