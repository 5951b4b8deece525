package di

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterJobs_NilContainer(t *testing.T) {
	_, err := RegisterJobs(nil, testConfig(t), zerolog.Nop())
	assert.Error(t, err)
}

func TestJobInstances_ByName(t *testing.T) {
	cfg := testConfig(t)
	cfg.RefreshSchedule = "0 30 22 * * MON-FRI"

	container, jobs, err := Wire(cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Close() })

	byName := jobs.ByName()
	assert.Len(t, byName, 2)
	assert.Contains(t, byName, "refresh_etfs")
	assert.Contains(t, byName, "maintenance")

	var none *JobInstances
	assert.Empty(t, none.ByName())
}
