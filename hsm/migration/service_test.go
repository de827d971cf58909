package migration_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/caio-sobreiro/pacs/hsm"
	"github.com/caio-sobreiro/pacs/hsm/fsbackend"
	"github.com/caio-sobreiro/pacs/hsm/migration"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_RunCycleMigratesEligibleInstances(t *testing.T) {
	hot := fsbackend.New(afero.NewMemMapFs(), "/hot")
	warm := fsbackend.New(afero.NewMemMapFs(), "/warm")
	h := hsm.New(hot, hsm.WithWarmTier(warm), hsm.WithPolicy(hsm.Policy{
		HotToWarmAge:         0, // migrate-eligible immediately for this test
		DeleteAfterMigration: true,
		VerifyAfterMigration: true,
		MinMigrationSize:     1,
	}))
	ctx := context.Background()
	require.NoError(t, h.Store(ctx, "1.2.3", "s", "se", []byte("abc")))
	require.NoError(t, h.Store(ctx, "1.2.4", "s", "se", []byte("def")))

	svc := migration.New(h, time.Hour, 2, slog.Default())
	runCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	go svc.Run(runCtx)

	svc.Trigger()
	time.Sleep(100 * time.Millisecond)
	svc.Stop()

	result := svc.LastResult()
	assert.Equal(t, 2, result.MigratedCount)
	assert.Empty(t, result.FailedUIDs)

	md1, _ := h.Metadata("1.2.3")
	assert.Equal(t, hsm.TierWarm, md1.CurrentTier)
}
