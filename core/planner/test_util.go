package planner

import (
	"fmt"
	"time"

	"github.com/trezcool/ratiba/core"
)

// NewServiceMock returns a Service with a deterministic clock and sequential
// IDs, for tests.
func NewServiceMock(repo Repository, activities ActivityDirectory, now time.Time) *Service {
	var seq int
	return &Service{
		repo:       repo,
		activities: activities,
		defaults: core.PlannerConfig{
			BlockSize:       30,
			PreferredWindow: string(WindowAll),
			FocusDuration:   45,
		},
		idGen: func() string {
			seq++
			return fmt.Sprintf("blk-%03d", seq)
		},
		now: func() time.Time { return now },
	}
}
