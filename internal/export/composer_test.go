package export

import (
	"bytes"
	"fmt"
	"image/color"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/webitel/event-exporter/internal/model"
)

func testComposer(t *testing.T) *Composer {
	t.Helper()
	resolver := NewResolver(t.TempDir(), t.TempDir())
	return NewComposer(resolver, FontSelection{Family: FallbackFontFamily}, nil)
}

func requirePDF(t *testing.T, b []byte) {
	t.Helper()
	require.True(t, bytes.HasPrefix(b, []byte("%PDF-")), "output must be a PDF")
}

func TestComposeEmptyEventStillRenders(t *testing.T) {
	c := testComposer(t)

	data := &model.AggregatedEventData{
		Event: model.Event{ID: 1, Title: "Quarterly meeting"},
	}
	opts := &model.ExportOptions{
		IncludeSections:    true,
		IncludeSurvey:      true,
		IncludeDiscussions: true,
		IncludeSignatures:  true,
	}

	report, err := c.Compose(data, opts, nil)
	require.NoError(t, err)
	requirePDF(t, report.Data)
	assert.Equal(t, 1, report.Pages)
}

func TestComposeWithoutVerificationArtifact(t *testing.T) {
	c := testComposer(t)

	data := &model.AggregatedEventData{
		Event: model.Event{ID: 2, Title: "Board session"},
		Participants: []model.Participant{
			{IdentityID: 10, Name: "Alice Johnson", Role: "chair", Ordinal: 1},
		},
	}
	// QR requested but no artifact exists: the slot is simply left empty.
	opts := &model.ExportOptions{ShowQR: true, ShowQRURL: true}

	report, err := c.Compose(data, opts, nil)
	require.NoError(t, err)
	requirePDF(t, report.Data)
}

func TestComposeWithQRFooter(t *testing.T) {
	c := testComposer(t)
	r := NewRegistrar(nil, nil)

	opts := &model.ExportOptions{
		ShowQR:              true,
		ShowQRURL:           true,
		QRPosition:          model.QRBottomCenter,
		VerificationBaseURL: "https://example.com",
	}
	artifact := r.Prepare(3, opts)
	require.NotNil(t, artifact)

	data := &model.AggregatedEventData{Event: model.Event{ID: 3, Title: "Audit"}}
	report, err := c.Compose(data, opts, artifact)
	require.NoError(t, err)
	requirePDF(t, report.Data)
}

func TestComposeMalformedTablePayloadIsSkipped(t *testing.T) {
	c := testComposer(t)

	now := time.Now()
	data := &model.AggregatedEventData{
		Event: model.Event{ID: 4, Title: "Workshop", Organization: "ACME", StartsAt: &now},
		Sections: []model.Section{
			{
				ID:    1,
				Title: "Agenda",
				Body:  "Opening remarks.",
				Tables: []model.TableBlock{
					{ID: 1, Title: "Broken", HeaderRow: true, Payload: "not a grid"},
					{ID: 2, Title: "Valid", HeaderRow: true, Payload: `[["A","B"],["1","2"]]`},
				},
			},
		},
	}
	opts := &model.ExportOptions{IncludeSections: true, IncludeEventDetails: true}

	report, err := c.Compose(data, opts, nil)
	require.NoError(t, err)
	requirePDF(t, report.Data)
	assert.Equal(t, 1, report.Pages)
}

func TestComposePaginatesByVolume(t *testing.T) {
	c := testComposer(t)

	data := &model.AggregatedEventData{
		Event:      model.Event{ID: 5, Title: "Conference"},
		Signatures: map[int64]*model.Signature{},
	}
	for i := 1; i <= 60; i++ {
		data.Participants = append(data.Participants, model.Participant{
			IdentityID: int64(i),
			Name:       fmt.Sprintf("Participant %d", i),
			Role:       "attendee",
			Ordinal:    i,
		})
	}

	report, err := c.Compose(data, &model.ExportOptions{IncludeSignatures: true}, nil)
	require.NoError(t, err)
	requirePDF(t, report.Data)
	assert.Greater(t, report.Pages, 1, "sixty participant rows cannot fit one page")
}

func TestComposeUndecodableSignatureRendersPlaceholder(t *testing.T) {
	c := testComposer(t)

	data := &model.AggregatedEventData{
		Event: model.Event{ID: 7, Title: "Signing ceremony"},
		Participants: []model.Participant{
			{IdentityID: 5, Name: "Alice", Role: "chair", Ordinal: 1},
			{IdentityID: 6, Name: "Bob", Role: "member", Ordinal: 2},
		},
		Signatures: map[int64]*model.Signature{
			5: {IdentityID: 5, Path: "sig5.png", Image: []byte("not an image at all")},
			6: {IdentityID: 6, Path: "sig6.png", Image: testPNG(t, 40, 20, color.NRGBA{A: 255})},
		},
	}

	report, err := c.Compose(data, &model.ExportOptions{IncludeSignatures: true}, nil)
	require.NoError(t, err, "broken signature bytes must degrade to the placeholder, not fail the document")
	requirePDF(t, report.Data)
	assert.GreaterOrEqual(t, report.Pages, 1)
}

func TestComposeSurveyAndDiscussionBlocks(t *testing.T) {
	c := testComposer(t)

	data := &model.AggregatedEventData{
		Event: model.Event{ID: 6, Title: "Survey review"},
		Answers: []model.SurveyAnswer{
			{IdentityID: 1, ParticipantName: "Alice", Question: "Attend next year?", Options: []string{"Yes", "Maybe"}},
		},
		Replies: []model.DiscussionReply{
			{IdentityID: 1, ParticipantName: "Alice", Topic: "Venue", Body: "The hall was too small."},
		},
		Participants: []model.Participant{
			{IdentityID: 1, Name: "Alice", Role: "speaker", Ordinal: 1},
		},
	}
	opts := &model.ExportOptions{IncludeSurvey: true, IncludeDiscussions: true}

	report, err := c.Compose(data, opts, nil)
	require.NoError(t, err)
	requirePDF(t, report.Data)
}

func TestParseHexColor(t *testing.T) {
	r, g, b := parseHexColor("#2f5496", 0, 0, 0)
	assert.Equal(t, []int{0x2f, 0x54, 0x96}, []int{r, g, b})

	r, g, b = parseHexColor("ffffff", 0, 0, 0)
	assert.Equal(t, []int{255, 255, 255}, []int{r, g, b})

	r, g, b = parseHexColor("bogus!", 1, 2, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{r, g, b})

	r, g, b = parseHexColor("", 9, 9, 9)
	assert.Equal(t, []int{9, 9, 9}, []int{r, g, b})
}

func TestQRPointsToMM(t *testing.T) {
	assert.InDelta(t, 25.4, qrPointsToMM(72), 0.001)
}

func TestFallbackDocumentIsStableCopy(t *testing.T) {
	doc := FallbackDocument()
	requirePDF(t, doc)
	assert.True(t, bytes.HasSuffix(doc, []byte("%%EOF\n")))

	doc[0] = 'X'
	assert.True(t, bytes.HasPrefix(FallbackDocument(), []byte("%PDF-")), "callers get independent copies")
}
