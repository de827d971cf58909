package hsm

import (
	"bytes"
	"context"
	"time"

	pacserrors "github.com/caio-sobreiro/pacs/errors"
)

// HSM is the unified storage facade: a required hot tier plus optional
// warm and cold tiers, a migration policy, and the tier_metadata index
// that tracks where each instance currently lives.
type HSM struct {
	hot, warm, cold Backend
	policy          Policy
	meta            *metadataIndex
}

// Option configures an HSM at construction time.
type Option func(*HSM)

// WithWarmTier registers an optional warm backend.
func WithWarmTier(b Backend) Option {
	return func(h *HSM) { h.warm = b }
}

// WithColdTier registers an optional cold backend.
func WithColdTier(b Backend) Option {
	return func(h *HSM) { h.cold = b }
}

// WithPolicy sets the migration policy.
func WithPolicy(p Policy) Option {
	return func(h *HSM) { h.policy = p }
}

// New builds an HSM over a required hot backend.
func New(hot Backend, opts ...Option) *HSM {
	h := &HSM{hot: hot, meta: newMetadataIndex()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *HSM) backendFor(tier Tier) Backend {
	switch tier {
	case TierHot:
		return h.hot
	case TierWarm:
		return h.warm
	case TierCold:
		return h.cold
	default:
		return nil
	}
}

// Store writes data to the hot tier and records fresh tier metadata.
func (h *HSM) Store(ctx context.Context, sopInstanceUID, studyUID, seriesUID string, data []byte) error {
	if err := h.hot.Store(ctx, sopInstanceUID, data); err != nil {
		return pacserrors.NewHSMError("tier_unavailable", "storing to hot tier", err)
	}
	h.meta.put(TierMetadata{
		SOPInstanceUID: sopInstanceUID,
		CurrentTier:    TierHot,
		StoredAt:       time.Now(),
		SizeBytes:      int64(len(data)),
		StudyUID:       studyUID,
		SeriesUID:      seriesUID,
	})
	return nil
}

// Retrieve probes the instance's last-known tier first and then the
// remaining tiers in hot, warm, cold order (an instance with no metadata
// is probed hot, warm, cold), returning the first hit. It never modifies
// which tier the instance lives in; if access-time tracking is enabled,
// last_accessed is updated by a metadata write in its own goroutine, so
// Retrieve returns the data without waiting for that write.
func (h *HSM) Retrieve(ctx context.Context, sopInstanceUID string) ([]byte, error) {
	md, known := h.meta.get(sopInstanceUID)
	order := []Tier{TierHot, TierWarm, TierCold}
	if known {
		order = tierProbeOrder(md.CurrentTier)
	}
	for _, tier := range order {
		b := h.backendFor(tier)
		if b == nil {
			continue
		}
		data, err := b.Retrieve(ctx, sopInstanceUID)
		if err == nil {
			if h.policy.TrackAccessTime {
				go h.meta.touchAccess(sopInstanceUID, time.Now())
			}
			return data, nil
		}
	}
	return nil, pacserrors.NewHSMError("not_found_in_any_tier", sopInstanceUID, nil)
}

// tierProbeOrder starts at the instance's last-known tier (the common
// case, avoiding probing tiers it's already known not to be in) and
// falls through the remaining tiers in hot->warm->cold order.
func tierProbeOrder(known Tier) []Tier {
	all := []Tier{TierHot, TierWarm, TierCold}
	ordered := []Tier{known}
	for _, t := range all {
		if t != known {
			ordered = append(ordered, t)
		}
	}
	return ordered
}

// Remove deletes an instance from whichever tier it currently occupies.
func (h *HSM) Remove(ctx context.Context, sopInstanceUID string) error {
	md, ok := h.meta.get(sopInstanceUID)
	if !ok {
		return pacserrors.NewHSMError("not_found_in_any_tier", sopInstanceUID, nil)
	}
	b := h.backendFor(md.CurrentTier)
	if b == nil {
		return pacserrors.NewHSMError("tier_unavailable", string(md.CurrentTier), nil)
	}
	if err := b.Remove(ctx, sopInstanceUID); err != nil {
		return pacserrors.NewHSMError("tier_unavailable", "removing from "+string(md.CurrentTier), err)
	}
	h.meta.delete(sopInstanceUID)
	return nil
}

// MigrateOne moves a single instance from its current tier to dest,
// following the copy-then-verify-then-delete sequence: between the
// store into dest and the metadata update, the instance exists in two
// tiers, and concurrent Retrieve calls must keep returning the source
// copy — tierProbeOrder starts from meta's CurrentTier, which is only
// flipped to dest at the very end of this function, so that invariant
// holds without any extra locking in Retrieve.
func (h *HSM) MigrateOne(ctx context.Context, sopInstanceUID string, dest Tier) error {
	md, ok := h.meta.get(sopInstanceUID)
	if !ok {
		return pacserrors.NewHSMError("not_found_in_any_tier", sopInstanceUID, nil)
	}
	src := h.backendFor(md.CurrentTier)
	dst := h.backendFor(dest)
	if src == nil || dst == nil {
		return pacserrors.NewHSMError("tier_unavailable", string(md.CurrentTier)+"->"+string(dest), nil)
	}

	data, err := src.Retrieve(ctx, sopInstanceUID)
	if err != nil {
		return pacserrors.NewHSMError("tier_unavailable", "retrieving from source tier", err)
	}
	if err := dst.Store(ctx, sopInstanceUID, data); err != nil {
		return pacserrors.NewHSMError("tier_unavailable", "storing to destination tier", err)
	}

	if h.policy.VerifyAfterMigration {
		check, err := dst.Retrieve(ctx, sopInstanceUID)
		if err != nil || !bytes.Equal(check, data) {
			// Abort: retain the source copy, don't flip current_tier.
			return pacserrors.NewHSMError("integrity_mismatch", sopInstanceUID, err)
		}
	}

	if h.policy.DeleteAfterMigration {
		if err := src.Remove(ctx, sopInstanceUID); err != nil {
			return pacserrors.NewHSMError("tier_unavailable", "removing from source tier after migration", err)
		}
	}

	h.meta.setTier(sopInstanceUID, dest)
	return nil
}

// EligibleForMigration returns the sop_instance_uid/destination-tier
// pairs the policy currently judges ready to move, scanning the
// metadata index snapshot.
func (h *HSM) EligibleForMigration(now time.Time) []struct {
	SOPInstanceUID string
	Dest           Tier
} {
	var out []struct {
		SOPInstanceUID string
		Dest           Tier
	}
	for _, md := range h.meta.snapshot() {
		lastTouch := md.StoredAt
		if md.LastAccessed != nil {
			lastTouch = *md.LastAccessed
		}
		dest := h.policy.EligibleTier(md.CurrentTier, now.Sub(lastTouch), md.SizeBytes)
		if dest == "" {
			continue
		}
		// Hot goes straight to cold only when there is no warm tier.
		if dest == TierCold && md.CurrentTier == TierHot && h.backendFor(TierWarm) != nil {
			dest = TierWarm
		}
		if h.backendFor(dest) == nil {
			continue
		}
		out = append(out, struct {
			SOPInstanceUID string
			Dest           Tier
		}{md.SOPInstanceUID, dest})
	}
	return out
}

// Metadata exposes a read-only snapshot of an instance's tier_metadata.
func (h *HSM) Metadata(sopInstanceUID string) (TierMetadata, bool) {
	return h.meta.get(sopInstanceUID)
}
