// Package fsbackend implements hsm.Backend over an afero.Fs, so the same
// code path runs against a real filesystem (afero.NewOsFs) in production
// and an in-memory filesystem (afero.NewMemMapFs) in tests.
package fsbackend

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io/fs"
	"path/filepath"
	"strings"

	pacserrors "github.com/caio-sobreiro/pacs/errors"
	"github.com/caio-sobreiro/pacs/hsm"
	"github.com/spf13/afero"
)

// Backend stores each instance as root/<sop_instance_uid>.dcm.
type Backend struct {
	fs   afero.Fs
	root string
}

// New builds a filesystem-backed tier under root.
func New(fsys afero.Fs, root string) *Backend {
	return &Backend{fs: fsys, root: root}
}

func (b *Backend) pathFor(sopUID string) string {
	return filepath.Join(b.root, sopUID+".dcm")
}

func (b *Backend) Store(ctx context.Context, sopInstanceUID string, data []byte) error {
	if err := b.fs.MkdirAll(b.root, 0o755); err != nil {
		return pacserrors.NewHSMError("tier_unavailable", "creating tier root", err)
	}
	if err := afero.WriteFile(b.fs, b.pathFor(sopInstanceUID), data, 0o644); err != nil {
		return pacserrors.NewHSMError("tier_unavailable", "writing "+sopInstanceUID, err)
	}
	return nil
}

func (b *Backend) Retrieve(ctx context.Context, sopInstanceUID string) ([]byte, error) {
	data, err := afero.ReadFile(b.fs, b.pathFor(sopInstanceUID))
	if err != nil {
		return nil, pacserrors.NewHSMError("not_found_in_any_tier", sopInstanceUID, err)
	}
	return data, nil
}

func (b *Backend) Remove(ctx context.Context, sopInstanceUID string) error {
	if err := b.fs.Remove(b.pathFor(sopInstanceUID)); err != nil {
		return pacserrors.NewHSMError("tier_unavailable", "removing "+sopInstanceUID, err)
	}
	return nil
}

func (b *Backend) Exists(ctx context.Context, sopInstanceUID string) (bool, error) {
	ok, err := afero.Exists(b.fs, b.pathFor(sopInstanceUID))
	if err != nil {
		return false, pacserrors.NewHSMError("tier_unavailable", "stat "+sopInstanceUID, err)
	}
	return ok, nil
}

func (b *Backend) Find(ctx context.Context, prefix string) ([]string, error) {
	var matches []string
	err := afero.Walk(b.fs, b.root, func(path string, info fs.FileInfo, err error) error {
		if err != nil || info == nil || info.IsDir() {
			return nil
		}
		name := strings.TrimSuffix(filepath.Base(path), ".dcm")
		if strings.HasPrefix(name, prefix) {
			matches = append(matches, name)
		}
		return nil
	})
	if err != nil {
		return nil, pacserrors.NewHSMError("tier_unavailable", "walking tier root", err)
	}
	return matches, nil
}

func (b *Backend) Statistics(ctx context.Context) (hsm.Stats, error) {
	var stats hsm.Stats
	err := afero.Walk(b.fs, b.root, func(path string, info fs.FileInfo, err error) error {
		if err != nil || info == nil || info.IsDir() {
			return nil
		}
		stats.InstanceCount++
		stats.TotalBytes += info.Size()
		return nil
	})
	if err != nil {
		return stats, pacserrors.NewHSMError("tier_unavailable", "computing statistics", err)
	}
	return stats, nil
}

// VerifyIntegrity re-reads the stored file and confirms it's non-empty
// and hashes consistently with itself; there's no separately-stored
// checksum to compare against in this minimal on-disk layout, so this
// catches truncation/corruption detectable from the file alone (zero
// length, read failure) rather than bit-rot against an external digest.
func (b *Backend) VerifyIntegrity(ctx context.Context, sopInstanceUID string) (bool, error) {
	data, err := b.Retrieve(ctx, sopInstanceUID)
	if err != nil {
		return false, err
	}
	if len(data) == 0 {
		return false, nil
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]) != "", nil
}
