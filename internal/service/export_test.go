package service

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/webitel/event-exporter/internal/errors"
	"github.com/webitel/event-exporter/internal/export"
	"github.com/webitel/event-exporter/internal/model"
	"github.com/webitel/event-exporter/internal/store"
)

type fakeStore struct {
	events  map[int64]*model.Event
	data    model.AggregatedEventData
	custom  []model.Attachment
	images  []model.Attachment
	records []*model.VerificationRecord
}

func (f *fakeStore) Event() store.EventStore               { return f }
func (f *fakeStore) Verification() store.VerificationStore { return f }
func (f *fakeStore) History() store.HistoryStore           { return nil }
func (f *fakeStore) Open() error                           { return nil }
func (f *fakeStore) Close() error                          { return nil }

func (f *fakeStore) GetEvent(_ context.Context, id int64) (*model.Event, error) {
	ev, ok := f.events[id]
	if !ok {
		return nil, errors.NotFound("event not found")
	}
	return ev, nil
}

func (f *fakeStore) GetSections(context.Context, int64) ([]model.Section, error) {
	return f.data.Sections, nil
}

func (f *fakeStore) GetTableBlocks(context.Context, int64) ([]model.TableBlock, error) {
	return f.data.Tables, nil
}

func (f *fakeStore) GetParticipants(context.Context, int64) ([]model.Participant, error) {
	return f.data.Participants, nil
}

func (f *fakeStore) GetSurveyAnswers(context.Context, int64) ([]model.SurveyAnswer, error) {
	return f.data.Answers, nil
}

func (f *fakeStore) GetDiscussionReplies(context.Context, int64) ([]model.DiscussionReply, error) {
	return f.data.Replies, nil
}

func (f *fakeStore) GetSignatures(context.Context, int64) (map[int64]*model.Signature, error) {
	return f.data.Signatures, nil
}

func (f *fakeStore) GetCustomExportFiles(context.Context, int64) ([]model.Attachment, error) {
	return f.custom, nil
}

func (f *fakeStore) GetImageAttachments(context.Context, int64) ([]model.Attachment, error) {
	return f.images, nil
}

func (f *fakeStore) Insert(_ context.Context, rec *model.VerificationRecord) error {
	f.records = append(f.records, rec)
	return nil
}

func newTestService(t *testing.T, fs *fakeStore, contentRoot string) ExportService {
	t.Helper()
	if contentRoot == "" {
		contentRoot = t.TempDir()
	}
	resolver := export.NewResolver(contentRoot, t.TempDir())
	svc, err := NewExportService(fs, resolver, export.FontSelection{Family: export.FallbackFontFamily}, nil)
	require.NoError(t, err)
	return svc
}

func writeTestPNG(t *testing.T, path string) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for i := range img.Pix {
		img.Pix[i] = 0xFF
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func TestExportEventResultsUnknownEvent(t *testing.T) {
	svc := newTestService(t, &fakeStore{events: map[int64]*model.Event{}}, "")

	_, err := svc.ExportEventResults(context.Background(), 404, &model.ExportOptions{})
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestExportEventResultsPersistsVerification(t *testing.T) {
	fs := &fakeStore{
		events: map[int64]*model.Event{7: {ID: 7, Title: "Annual meeting"}},
		data: model.AggregatedEventData{
			Participants: []model.Participant{
				{IdentityID: 1, Name: "Alice", Role: "chair", Ordinal: 1},
			},
		},
	}
	svc := newTestService(t, fs, "")

	opts := &model.ExportOptions{VerificationBaseURL: "https://example.com"}
	res, err := svc.ExportEventResults(context.Background(), 7, opts)
	require.NoError(t, err)
	assert.False(t, res.Degraded)
	assert.True(t, bytes.HasPrefix(res.Data, []byte("%PDF-")))
	assert.GreaterOrEqual(t, res.Pages, 1)

	require.NotEmpty(t, res.VerificationID)
	assert.Equal(t, "https://example.com/verify/"+res.VerificationID, res.VerificationURL)

	require.Len(t, fs.records, 1)
	assert.Equal(t, res.VerificationID, fs.records[0].ID)
	assert.Equal(t, int64(7), fs.records[0].EventID)
	assert.Equal(t, model.VerificationType, fs.records[0].Type)

	// The caller's options must come back untouched.
	assert.Empty(t, opts.VerificationID)
}

func TestExportEventResultsWithoutVerification(t *testing.T) {
	fs := &fakeStore{events: map[int64]*model.Event{7: {ID: 7, Title: "Plain"}}}
	svc := newTestService(t, fs, "")

	res, err := svc.ExportEventResults(context.Background(), 7, &model.ExportOptions{})
	require.NoError(t, err)
	assert.Empty(t, res.VerificationID)
	assert.Empty(t, fs.records)
}

func TestExportMergedSkipsMissingCustomFiles(t *testing.T) {
	content := t.TempDir()

	fs := &fakeStore{
		events: map[int64]*model.Event{9: {ID: 9, Title: "Merged"}},
		custom: []model.Attachment{
			{ID: 1, Path: "missing.pdf", Mime: "application/pdf"},
		},
	}
	svc := newTestService(t, fs, content)

	res, err := svc.ExportCustomMergedWithParticipants(context.Background(), 9, &model.ExportOptions{})
	require.NoError(t, err)
	assert.False(t, res.Degraded)
	assert.True(t, bytes.HasPrefix(res.Data, []byte("%PDF-")))
	assert.GreaterOrEqual(t, res.Pages, 1)
}

func TestExportAttachmentGallery(t *testing.T) {
	content := t.TempDir()
	writeTestPNG(t, filepath.Join(content, "photo.png"))

	fs := &fakeStore{
		events: map[int64]*model.Event{3: {ID: 3, Title: "Gallery"}},
		images: []model.Attachment{
			{ID: 1, Path: "photo.png", Mime: "image/png", Kind: model.AttachmentImage},
			{ID: 2, Path: "gone.png", Mime: "image/png", Kind: model.AttachmentImage},
		},
	}
	svc := newTestService(t, fs, content)

	data, err := svc.ExportAttachmentGallery(context.Background(), 3)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
}

func TestExportAttachmentGalleryUnknownEvent(t *testing.T) {
	svc := newTestService(t, &fakeStore{events: map[int64]*model.Event{}}, "")

	_, err := svc.ExportAttachmentGallery(context.Background(), 1)
	require.Error(t, err)
}
