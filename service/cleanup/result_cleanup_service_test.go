/*
 * @module service/cleanup/result_cleanup_service_test
 * @description Unit tests for retention cleanup of inspection results and temp uploads
 * @architecture test layer
 * @documentReference dev_docs/etiqueta_pipeline.md
 * @stateFlow fixture rows -> cleanup run -> retention assertions
 * @rules tests run against in-memory sqlite and t.TempDir
 * @dependencies testing, stretchr/testify, controlflow-service/testutil
 */

package cleanup

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"controlflow-service/service/config"
	"controlflow-service/service/models"
	"controlflow-service/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCleanup(t *testing.T) (*ResultCleanupService, *testutil.TestDataFactory, string) {
	t.Helper()

	tdb := testutil.NewTestDB()
	t.Cleanup(tdb.Close)

	tempDir := t.TempDir()
	svc := NewResultCleanupService(tdb.DB, config.NewConfigService(tdb.DB), tempDir)
	t.Cleanup(svc.Stop)

	return svc, testutil.NewTestDataFactory(tdb.DB), tempDir
}

func TestCleanupResultsDeletesExpiredOnly(t *testing.T) {
	svc, factory, _ := setupCleanup(t)

	product := factory.CreateProduct()
	plan := factory.CreatePlan(product.ID)
	question := factory.CreateQuestion(plan.ID, plan.Steps[0].ID)

	expired := factory.CreateResult(question.ID, func(r *models.InspectionResult) {
		r.ComputedAt = time.Now().AddDate(0, 0, -100)
	})
	recent := factory.CreateResult(question.ID)

	deleted, err := svc.CleanupResults(context.Background(), 90)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	var remaining []models.InspectionResult
	require.NoError(t, factory.DB.Find(&remaining).Error)
	require.Len(t, remaining, 1)
	assert.Equal(t, recent.ID, remaining[0].ID)
	assert.NotEqual(t, expired.ID, remaining[0].ID)
}

func TestCleanupResultsNothingExpired(t *testing.T) {
	svc, factory, _ := setupCleanup(t)

	product := factory.CreateProduct()
	plan := factory.CreatePlan(product.ID)
	question := factory.CreateQuestion(plan.ID, plan.Steps[0].ID)
	factory.CreateResult(question.ID)

	deleted, err := svc.CleanupResults(context.Background(), 365)
	require.NoError(t, err)
	assert.Equal(t, int64(0), deleted)
}

func TestCleanupTempFilesSkipsFreshFiles(t *testing.T) {
	svc, _, tempDir := setupCleanup(t)

	stale := filepath.Join(tempDir, "stale-upload")
	require.NoError(t, os.WriteFile(stale, []byte("x"), 0o644))
	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(stale, old, old))

	fresh := filepath.Join(tempDir, "fresh-upload")
	require.NoError(t, os.WriteFile(fresh, []byte("x"), 0o644))

	removed := svc.cleanupTempFiles()
	assert.Equal(t, 1, removed)

	_, err := os.Stat(stale)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(fresh)
	assert.NoError(t, err)
}

func TestStartTwiceFails(t *testing.T) {
	svc, _, _ := setupCleanup(t)

	require.NoError(t, svc.Start())
	assert.Error(t, svc.Start())
}
