package export

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/webitel/event-exporter/internal/model"
)

func TestBuildVerificationURL(t *testing.T) {
	assert.Equal(t, "https://example.com/verify/abc", BuildVerificationURL("https://example.com", "abc"))
	assert.Equal(t, "https://example.com/verify/abc", BuildVerificationURL("https://example.com/", "abc"))
	assert.Equal(t, "https://example.com/verify/abc", BuildVerificationURL("https://example.com///", "abc"))
}

func TestPrepareWithoutBaseURLIsNil(t *testing.T) {
	r := NewRegistrar(nil, nil)
	assert.Nil(t, r.Prepare(1, &model.ExportOptions{}))
}

func TestPrepareMintsArtifact(t *testing.T) {
	r := NewRegistrar(nil, nil)

	artifact := r.Prepare(7, &model.ExportOptions{VerificationBaseURL: "https://example.com/"})
	require.NotNil(t, artifact)
	assert.NotEmpty(t, artifact.ID)
	assert.Equal(t, "https://example.com/verify/"+artifact.ID, artifact.URL)
	assert.Equal(t, "PNG", detectImageType(artifact.QR))
}

func TestPrepareKeepsCallerID(t *testing.T) {
	r := NewRegistrar(nil, nil)

	opts := &model.ExportOptions{
		VerificationBaseURL: "https://example.com",
		VerificationID:      "fixed-id",
	}
	artifact := r.Prepare(7, opts)
	require.NotNil(t, artifact)
	assert.Equal(t, "fixed-id", artifact.ID)
	assert.Equal(t, "https://example.com/verify/fixed-id", artifact.URL)
	// The caller's options stay untouched.
	assert.Equal(t, "fixed-id", opts.VerificationID)
}

func TestPersistWithoutStoreIsNoop(t *testing.T) {
	r := NewRegistrar(nil, nil)
	artifact := r.Prepare(7, &model.ExportOptions{VerificationBaseURL: "https://example.com"})
	require.NotNil(t, artifact)

	// Must not panic with a nil store.
	r.Persist(context.Background(), artifact, 7, model.VerificationType)
	r.Persist(context.Background(), nil, 7, model.VerificationType)
}
