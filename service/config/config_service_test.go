/*
 * @module service/config/config_service_test
 * @description Unit tests for runtime configuration resolution
 * @architecture test layer
 * @documentReference dev_docs/etiqueta_pipeline.md
 * @stateFlow DB row -> env var -> default resolution order
 * @rules tests restore environment variables they touch
 * @dependencies testing, stretchr/testify, controlflow-service/testutil
 */

package config

import (
	"testing"

	"controlflow-service/service/models"
	"controlflow-service/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConfigService(t *testing.T) (*ConfigService, *testutil.TestDB) {
	t.Helper()
	tdb := testutil.NewTestDB()
	t.Cleanup(tdb.Close)

	svc := NewConfigService(tdb.DB)
	svc.env = "test"
	return svc, tdb
}

func TestGetIntDefault(t *testing.T) {
	svc, _ := newTestConfigService(t)
	assert.Equal(t, DefaultResultRetentionDays, svc.GetResultRetentionDays())
	assert.Equal(t, DefaultOcrTimeoutSeconds, svc.GetOcrTimeoutSeconds())
}

func TestGetIntFromDatabase(t *testing.T) {
	svc, tdb := newTestConfigService(t)

	require.NoError(t, tdb.DB.Create(&models.SystemConfig{
		ID:          "cfg-test-retention",
		Key:         KeyResultRetentionDays,
		Value:       "90",
		Environment: "test",
	}).Error)

	assert.Equal(t, 90, svc.GetResultRetentionDays())
}

func TestGetIntIgnoresOtherEnvironment(t *testing.T) {
	svc, tdb := newTestConfigService(t)

	require.NoError(t, tdb.DB.Create(&models.SystemConfig{
		ID:          "cfg-prod-retention",
		Key:         KeyResultRetentionDays,
		Value:       "30",
		Environment: "production",
	}).Error)

	assert.Equal(t, DefaultResultRetentionDays, svc.GetResultRetentionDays())
}

func TestGetIntFromEnvVar(t *testing.T) {
	svc, _ := newTestConfigService(t)

	t.Setenv("CF_"+KeyOcrTimeoutSeconds, "10")
	assert.Equal(t, 10, svc.GetOcrTimeoutSeconds())
}

func TestGetIntMalformedValueFallsBack(t *testing.T) {
	svc, tdb := newTestConfigService(t)

	require.NoError(t, tdb.DB.Create(&models.SystemConfig{
		ID:          "cfg-bad-retention",
		Key:         KeyResultRetentionDays,
		Value:       "ninety",
		Environment: "test",
	}).Error)

	assert.Equal(t, DefaultResultRetentionDays, svc.GetResultRetentionDays())
}

func TestGetCleanupCronDefault(t *testing.T) {
	svc, _ := newTestConfigService(t)
	assert.Equal(t, DefaultCleanupCron, svc.GetCleanupCron())
}

func TestGetStringFromDatabase(t *testing.T) {
	svc, tdb := newTestConfigService(t)

	require.NoError(t, tdb.DB.Create(&models.SystemConfig{
		ID:          "cfg-test-cron",
		Key:         KeyCleanupCron,
		Value:       "0 30 2 * * *",
		Environment: "test",
	}).Error)

	assert.Equal(t, "0 30 2 * * *", svc.GetCleanupCron())
}
