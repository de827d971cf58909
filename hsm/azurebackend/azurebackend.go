// Package azurebackend implements hsm.Backend against Azure Blob
// Storage, again via a small injected client interface rather than the
// concrete Azure SDK, following the same shape as hsm/s3backend.
package azurebackend

import (
	"context"
	"io"
	"strings"

	pacserrors "github.com/caio-sobreiro/pacs/errors"
	"github.com/caio-sobreiro/pacs/hsm"
)

// BlobClient is the capability set this backend needs from an Azure Blob
// container client.
type BlobClient interface {
	Upload(ctx context.Context, blobName string, body io.Reader, size int64) error
	Download(ctx context.Context, blobName string) (io.ReadCloser, error)
	Delete(ctx context.Context, blobName string) error
	Properties(ctx context.Context, blobName string) (size int64, exists bool, err error)
	ListBlobs(ctx context.Context, prefix string) ([]string, error)
}

// Backend stores each instance as a blob under a container-relative
// prefix.
type Backend struct {
	client BlobClient
	prefix string
}

// New builds an Azure-Blob-backed tier using client.
func New(client BlobClient, blobPrefix string) *Backend {
	return &Backend{client: client, prefix: blobPrefix}
}

func (b *Backend) nameFor(sopUID string) string {
	return b.prefix + sopUID + ".dcm"
}

func (b *Backend) Store(ctx context.Context, sopInstanceUID string, data []byte) error {
	if err := b.client.Upload(ctx, b.nameFor(sopInstanceUID), strings.NewReader(string(data)), int64(len(data))); err != nil {
		return pacserrors.NewHSMError("tier_unavailable", "blob upload "+sopInstanceUID, err)
	}
	return nil
}

func (b *Backend) Retrieve(ctx context.Context, sopInstanceUID string) ([]byte, error) {
	r, err := b.client.Download(ctx, b.nameFor(sopInstanceUID))
	if err != nil {
		return nil, pacserrors.NewHSMError("not_found_in_any_tier", sopInstanceUID, err)
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, pacserrors.NewHSMError("tier_unavailable", "blob download "+sopInstanceUID, err)
	}
	return data, nil
}

func (b *Backend) Remove(ctx context.Context, sopInstanceUID string) error {
	if err := b.client.Delete(ctx, b.nameFor(sopInstanceUID)); err != nil {
		return pacserrors.NewHSMError("tier_unavailable", "blob delete "+sopInstanceUID, err)
	}
	return nil
}

func (b *Backend) Exists(ctx context.Context, sopInstanceUID string) (bool, error) {
	_, exists, err := b.client.Properties(ctx, b.nameFor(sopInstanceUID))
	if err != nil {
		return false, pacserrors.NewHSMError("tier_unavailable", "blob properties "+sopInstanceUID, err)
	}
	return exists, nil
}

func (b *Backend) Find(ctx context.Context, prefix string) ([]string, error) {
	names, err := b.client.ListBlobs(ctx, b.prefix+prefix)
	if err != nil {
		return nil, pacserrors.NewHSMError("tier_unavailable", "blob list "+prefix, err)
	}
	out := make([]string, 0, len(names))
	for _, n := range names {
		name := strings.TrimPrefix(n, b.prefix)
		name = strings.TrimSuffix(name, ".dcm")
		out = append(out, name)
	}
	return out, nil
}

func (b *Backend) Statistics(ctx context.Context) (hsm.Stats, error) {
	names, err := b.Find(ctx, "")
	if err != nil {
		return hsm.Stats{}, err
	}
	var stats hsm.Stats
	for _, n := range names {
		size, exists, err := b.client.Properties(ctx, b.nameFor(n))
		if err != nil {
			return stats, pacserrors.NewHSMError("tier_unavailable", "blob properties during statistics", err)
		}
		if exists {
			stats.InstanceCount++
			stats.TotalBytes += size
		}
	}
	return stats, nil
}

func (b *Backend) VerifyIntegrity(ctx context.Context, sopInstanceUID string) (bool, error) {
	size, exists, err := b.client.Properties(ctx, b.nameFor(sopInstanceUID))
	if err != nil {
		return false, pacserrors.NewHSMError("tier_unavailable", "blob properties "+sopInstanceUID, err)
	}
	return exists && size > 0, nil
}
