package tasks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/marketplace-service/internal/config"
)

func TestNewScheduler_ValidSpecs(t *testing.T) {
	d := newTestDispatcher(1, 8)
	s, err := NewScheduler(config.SchedulerConfig{
		Enabled:             true,
		MonthlyReportSpec:   "0 5 1 * *",
		PendingReminderSpec: "0 18 * * *",
	}, d, zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, s)

	s.Start()
	s.Stop()
}

func TestNewScheduler_InvalidSpecRejected(t *testing.T) {
	d := newTestDispatcher(1, 8)
	_, err := NewScheduler(config.SchedulerConfig{
		MonthlyReportSpec:   "not a cron line",
		PendingReminderSpec: "0 18 * * *",
	}, d, zap.NewNop())
	assert.Error(t, err)
}
