package cache

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/webitel/event-exporter/internal/model"
)

const (
	testRedisAddr     = "localhost:6379"
	testRedisPassword = ""
	testRedisDB       = 0
)

func getTestCache(t *testing.T) *RedisCache {
	t.Helper()
	c, err := NewRedisCache(testRedisAddr, testRedisPassword, testRedisDB)
	if err != nil {
		t.Skipf("redis not available at %s: %v", testRedisAddr, err)
	}
	return c
}

func TestPushPopRoundTrip(t *testing.T) {
	c := getTestCache(t)

	want := model.ExportTask{
		TaskID:  "test:roundtrip",
		EventID: 42,
		Type:    model.MergedExportType,
		Options: model.ExportOptions{IncludeSurvey: true, QRSize: 120},
	}
	require.NoError(t, c.PushExportTask(want))

	got, err := c.PopExportTask()
	require.NoError(t, err)
	assert.Equal(t, want.TaskID, got.TaskID)
	assert.Equal(t, want.EventID, got.EventID)
	assert.Equal(t, want.Type, got.Type)
	assert.Equal(t, want.Options, got.Options)
}

func TestPopEmptyQueueTimesOut(t *testing.T) {
	c := getTestCache(t)

	// Drain anything queued by other tests first.
	for {
		if _, err := c.PopExportTask(); err != nil {
			break
		}
	}

	_, err := c.PopExportTask()
	require.Error(t, err)
	assert.Equal(t, "queue empty (timeout)", err.Error())
}

func TestStatusLifecycle(t *testing.T) {
	c := getTestCache(t)
	taskID := fmt.Sprintf("test:lifecycle:%d", testRedisDB)

	seen, err := c.Exists(taskID)
	require.NoError(t, err)
	if seen {
		require.NoError(t, c.ClearExportTask(taskID))
	}

	require.NoError(t, c.SetExportStatus(taskID, string(model.ExportStatusProcessing)))

	seen, err = c.Exists(taskID)
	require.NoError(t, err)
	assert.True(t, seen)

	status, err := c.GetExportStatus(taskID)
	require.NoError(t, err)
	assert.Equal(t, string(model.ExportStatusProcessing), status)

	require.NoError(t, c.SetExportFile(taskID, "/tmp/out.pdf"))
	path, err := c.GetExportFile(taskID)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/out.pdf", path)

	require.NoError(t, c.SetExportHistoryID(taskID, 77))
	id, err := c.GetExportHistoryID(taskID)
	require.NoError(t, err)
	assert.Equal(t, int64(77), id)

	require.NoError(t, c.ClearExportTask(taskID))
	seen, err = c.Exists(taskID)
	require.NoError(t, err)
	assert.False(t, seen)
}
