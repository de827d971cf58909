// Package hsm implements the hierarchical storage manager: a unified
// facade over 1-3 tier backends (hot required, warm and cold optional)
// that transparently locates instances across tiers, writes new data to
// the hot tier, and migrates cold data to cheaper tiers per policy.
package hsm

import "context"

// Tier identifies one storage tier.
type Tier string

const (
	TierHot  Tier = "hot"
	TierWarm Tier = "warm"
	TierCold Tier = "cold"
)

// Stats summarizes a backend's content.
type Stats struct {
	InstanceCount int64
	TotalBytes    int64
}

// Backend is the capability set every storage tier implementation must
// provide, whether it's a local filesystem, an S3-compatible object
// store, or Azure Blob.
type Backend interface {
	Store(ctx context.Context, sopInstanceUID string, data []byte) error
	Retrieve(ctx context.Context, sopInstanceUID string) ([]byte, error)
	Remove(ctx context.Context, sopInstanceUID string) error
	Exists(ctx context.Context, sopInstanceUID string) (bool, error)
	Find(ctx context.Context, prefix string) ([]string, error)
	Statistics(ctx context.Context) (Stats, error)
	VerifyIntegrity(ctx context.Context, sopInstanceUID string) (bool, error)
}
