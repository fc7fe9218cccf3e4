package app

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/webitel/event-exporter/internal/model"
)

func TestIsDuplicateStatus(t *testing.T) {
	notFound := errors.New("redis: nil")

	assert.False(t, isDuplicateStatus("", notFound), "missing status key is a fresh task")
	assert.False(t, isDuplicateStatus("", nil))
	assert.False(t, isDuplicateStatus(string(model.ExportStatusPending), nil), "pending is set by the enqueuer")

	assert.True(t, isDuplicateStatus(string(model.ExportStatusProcessing), nil))
	assert.True(t, isDuplicateStatus(string(model.ExportStatusDone), nil))
	assert.True(t, isDuplicateStatus(string(model.ExportStatusFailed), nil))
}
