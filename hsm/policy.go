package hsm

import "time"

// Policy controls automatic tier migration.
type Policy struct {
	HotToWarmAge         time.Duration
	WarmToColdAge        time.Duration
	MinMigrationSize     int64
	MaxInstancesPerCycle int
	MaxBytesPerCycle     int64
	MaxConcurrent        int
	AutoMigrate          bool
	VerifyAfterMigration bool
	DeleteAfterMigration bool
	TrackAccessTime      bool
}

// EligibleTier returns the tier an instance should migrate to given how
// long it's been since last access and its size, or "" if it's not
// eligible for any migration yet. Hot->cold (skipping warm) applies when
// the instance has aged past the sum of both thresholds, which matters
// when no warm tier is configured at all.
func (p Policy) EligibleTier(current Tier, timeSinceAccess time.Duration, sizeBytes int64) Tier {
	if sizeBytes < p.MinMigrationSize {
		return ""
	}
	switch current {
	case TierHot:
		if timeSinceAccess >= p.HotToWarmAge+p.WarmToColdAge {
			return TierCold
		}
		if timeSinceAccess >= p.HotToWarmAge {
			return TierWarm
		}
	case TierWarm:
		if timeSinceAccess >= p.WarmToColdAge {
			return TierCold
		}
	}
	return ""
}
