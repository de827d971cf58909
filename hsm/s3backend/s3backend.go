// Package s3backend implements hsm.Backend against an S3-compatible
// object store, but never vendors a concrete AWS SDK: it's written
// against a small ObjectClient interface so a caller supplies their own
// client (the real aws-sdk-go-v2 client satisfies it with a thin
// wrapper, and so does a test fake).
package s3backend

import (
	"context"
	"fmt"
	"io"
	"strings"

	pacserrors "github.com/caio-sobreiro/pacs/errors"
	"github.com/caio-sobreiro/pacs/hsm"
)

// ObjectClient is the capability set this backend needs from an S3
// client: put/get/delete/head by key, nothing more.
type ObjectClient interface {
	Put(ctx context.Context, key string, body io.Reader, size int64) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Head(ctx context.Context, key string) (size int64, exists bool, err error)
	ListKeys(ctx context.Context, prefix string) ([]string, error)
}

// Backend stores each instance under a bucket-relative key derived from
// its SOP Instance UID.
type Backend struct {
	client ObjectClient
	prefix string
}

// New builds an S3-backed tier using client, prefixing every key with
// keyPrefix (e.g. "studies/").
func New(client ObjectClient, keyPrefix string) *Backend {
	return &Backend{client: client, prefix: keyPrefix}
}

func (b *Backend) keyFor(sopUID string) string {
	return b.prefix + sopUID + ".dcm"
}

func (b *Backend) Store(ctx context.Context, sopInstanceUID string, data []byte) error {
	if err := b.client.Put(ctx, b.keyFor(sopInstanceUID), strings.NewReader(string(data)), int64(len(data))); err != nil {
		return pacserrors.NewHSMError("tier_unavailable", "S3 put "+sopInstanceUID, err)
	}
	return nil
}

func (b *Backend) Retrieve(ctx context.Context, sopInstanceUID string) ([]byte, error) {
	r, err := b.client.Get(ctx, b.keyFor(sopInstanceUID))
	if err != nil {
		return nil, pacserrors.NewHSMError("not_found_in_any_tier", sopInstanceUID, err)
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, pacserrors.NewHSMError("tier_unavailable", "S3 get "+sopInstanceUID, err)
	}
	return data, nil
}

func (b *Backend) Remove(ctx context.Context, sopInstanceUID string) error {
	if err := b.client.Delete(ctx, b.keyFor(sopInstanceUID)); err != nil {
		return pacserrors.NewHSMError("tier_unavailable", "S3 delete "+sopInstanceUID, err)
	}
	return nil
}

func (b *Backend) Exists(ctx context.Context, sopInstanceUID string) (bool, error) {
	_, exists, err := b.client.Head(ctx, b.keyFor(sopInstanceUID))
	if err != nil {
		return false, pacserrors.NewHSMError("tier_unavailable", "S3 head "+sopInstanceUID, err)
	}
	return exists, nil
}

func (b *Backend) Find(ctx context.Context, prefix string) ([]string, error) {
	keys, err := b.client.ListKeys(ctx, b.prefix+prefix)
	if err != nil {
		return nil, pacserrors.NewHSMError("tier_unavailable", "S3 list "+prefix, err)
	}
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		name := strings.TrimPrefix(k, b.prefix)
		name = strings.TrimSuffix(name, ".dcm")
		out = append(out, name)
	}
	return out, nil
}

func (b *Backend) Statistics(ctx context.Context) (hsm.Stats, error) {
	keys, err := b.Find(ctx, "")
	if err != nil {
		return hsm.Stats{}, err
	}
	var stats hsm.Stats
	for _, k := range keys {
		size, exists, err := b.client.Head(ctx, b.keyFor(k))
		if err != nil {
			return stats, pacserrors.NewHSMError("tier_unavailable", "S3 head during statistics", err)
		}
		if exists {
			stats.InstanceCount++
			stats.TotalBytes += size
		}
	}
	return stats, nil
}

func (b *Backend) VerifyIntegrity(ctx context.Context, sopInstanceUID string) (bool, error) {
	size, exists, err := b.client.Head(ctx, b.keyFor(sopInstanceUID))
	if err != nil {
		return false, pacserrors.NewHSMError("tier_unavailable", fmt.Sprintf("S3 head %s", sopInstanceUID), err)
	}
	return exists && size > 0, nil
}
