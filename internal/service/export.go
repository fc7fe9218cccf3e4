package service

import (
	"context"
	"log/slog"

	"github.com/webitel/event-exporter/internal/errors"
	"github.com/webitel/event-exporter/internal/export"
	"github.com/webitel/event-exporter/internal/model"
	"github.com/webitel/event-exporter/internal/store"
	"golang.org/x/sync/errgroup"
)

// ExportResult carries the finished document plus everything the engine
// assigned during the call. The caller's ExportOptions are never mutated;
// the verification id and URL travel back here instead. Degraded marks the
// fallback stub so callers can tell "failed to render" from "sparse event".
type ExportResult struct {
	Data            []byte
	Pages           int
	VerificationID  string
	VerificationURL string
	Degraded        bool
}

type ExportService interface {
	ExportEventResults(ctx context.Context, eventID int64, opts *model.ExportOptions) (*ExportResult, error)
	ExportCustomMergedWithParticipants(ctx context.Context, eventID int64, opts *model.ExportOptions) (*ExportResult, error)
	ExportAttachmentGallery(ctx context.Context, eventID int64) ([]byte, error)
}

type ExportServiceImpl struct {
	store     store.Store
	resolver  *export.Resolver
	registrar *export.Registrar
	composer  *export.Composer
	log       *slog.Logger
}

func NewExportService(s store.Store, resolver *export.Resolver, fonts export.FontSelection, log *slog.Logger) (ExportService, error) {
	if s == nil || resolver == nil {
		return nil, errors.Internal("store or resolver is nil in ExportService")
	}
	if log == nil {
		log = slog.Default()
	}
	return &ExportServiceImpl{
		store:     s,
		resolver:  resolver,
		registrar: export.NewRegistrar(s.Verification(), log),
		composer:  export.NewComposer(resolver, fonts, log),
		log:       log,
	}, nil
}

// ExportEventResults renders the participants report alone. An unknown
// event id is the only failure surfaced to the caller; everything after
// aggregation degrades to the fallback stub instead of erroring.
func (s *ExportServiceImpl) ExportEventResults(ctx context.Context, eventID int64, opts *model.ExportOptions) (*ExportResult, error) {
	data, err := s.aggregate(ctx, eventID)
	if err != nil {
		return nil, err
	}

	artifact := s.registrar.Prepare(eventID, opts)
	s.registrar.Persist(ctx, artifact, eventID, opts.VerificationTypeOrDefault())

	rendered, degraded := s.composeOrFallback(ctx, data, opts, artifact)
	return resultFrom(rendered, artifact, degraded), nil
}

// ExportCustomMergedWithParticipants prepends the administrator-uploaded
// custom PDFs (and, when requested, the attachment gallery) to the rendered
// report and stamps the verification QR onto every imported page.
func (s *ExportServiceImpl) ExportCustomMergedWithParticipants(ctx context.Context, eventID int64, opts *model.ExportOptions) (*ExportResult, error) {
	data, err := s.aggregate(ctx, eventID)
	if err != nil {
		return nil, err
	}

	artifact := s.registrar.Prepare(eventID, opts)
	s.registrar.Persist(ctx, artifact, eventID, opts.VerificationTypeOrDefault())

	rendered, degraded := s.composeOrFallback(ctx, data, opts, artifact)
	if degraded {
		// Nothing trustworthy to merge around; hand back the stub.
		return resultFrom(rendered, artifact, true), nil
	}

	sources := s.customSources(ctx, eventID)
	if opts.IncludeAttachments {
		if gallery := s.gallerySource(ctx, eventID); gallery != nil {
			sources = append(sources, gallery)
		}
	}

	var overlay *export.QROverlay
	if opts.ShowQR && artifact != nil {
		overlay = &export.QROverlay{
			Image:    artifact.QR,
			Size:     opts.ClampedQRSize(),
			Position: opts.QRPosition,
		}
	}

	merged, err := export.Merge(sources, rendered.Data, overlay, s.log)
	if err != nil {
		s.log.ErrorContext(ctx, "export.service.merge_failed", "event_id", eventID, "error", err)
		return &ExportResult{Data: export.FallbackDocument(), Pages: 1, Degraded: true}, nil
	}

	res := resultFrom(&export.RenderedReport{Data: merged.Data, Pages: merged.Pages}, artifact, false)
	return res, nil
}

func (s *ExportServiceImpl) ExportAttachmentGallery(ctx context.Context, eventID int64) ([]byte, error) {
	if _, err := s.store.Event().GetEvent(ctx, eventID); err != nil {
		return nil, err
	}

	attachments, err := s.store.Event().GetImageAttachments(ctx, eventID)
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(attachments))
	for _, att := range attachments {
		if path, ok := s.resolver.AbsolutePath(att.Path); ok {
			paths = append(paths, path)
		}
	}
	return export.BuildAttachmentGallery(paths, s.log)
}

// aggregate assembles the read-only snapshot the composer works from. The
// per-collection queries run concurrently; an event with no participant
// data at all is still a valid, empty snapshot.
func (s *ExportServiceImpl) aggregate(ctx context.Context, eventID int64) (*model.AggregatedEventData, error) {
	ev, err := s.store.Event().GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	data := &model.AggregatedEventData{Event: *ev}
	es := s.store.Event()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		data.Participants, err = es.GetParticipants(gctx, eventID)
		return err
	})
	g.Go(func() (err error) {
		data.Answers, err = es.GetSurveyAnswers(gctx, eventID)
		return err
	})
	g.Go(func() (err error) {
		data.Replies, err = es.GetDiscussionReplies(gctx, eventID)
		return err
	})
	g.Go(func() (err error) {
		data.Signatures, err = es.GetSignatures(gctx, eventID)
		return err
	})
	g.Go(func() (err error) {
		data.Sections, err = es.GetSections(gctx, eventID)
		return err
	})
	g.Go(func() (err error) {
		data.Tables, err = es.GetTableBlocks(gctx, eventID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Missing signature files substitute absence, never an error.
	for _, sig := range data.Signatures {
		if b, ok := s.resolver.Resolve(sig.Path); ok {
			sig.Image = b
		}
	}
	return data, nil
}

// composeOrFallback collapses every composition failure into the fixed
// stub. The background image is opacity-adjusted and cover-normalized here
// so the composer receives ready-to-embed bytes; the caller's options stay
// untouched.
func (s *ExportServiceImpl) composeOrFallback(ctx context.Context, data *model.AggregatedEventData, opts *model.ExportOptions, artifact *export.VerificationArtifact) (*export.RenderedReport, bool) {
	prepared := *opts
	if len(prepared.BackgroundImage) > 0 {
		opacity := prepared.BackgroundOpacity
		if opacity <= 0 {
			opacity = 1
		}
		bg := export.ApplyOpacity(prepared.BackgroundImage, opacity)
		prepared.BackgroundImage = export.NormalizeToCover(bg, export.BackgroundCoverWidth, export.BackgroundCoverHeight)
	}

	rendered, err := s.composer.Compose(data, &prepared, artifact)
	if err != nil {
		s.log.ErrorContext(ctx, "export.service.compose_failed", "event_id", data.Event.ID, "error", err)
		return &export.RenderedReport{Data: export.FallbackDocument(), Pages: 1}, true
	}
	return rendered, false
}

func (s *ExportServiceImpl) customSources(ctx context.Context, eventID int64) [][]byte {
	files, err := s.store.Event().GetCustomExportFiles(ctx, eventID)
	if err != nil {
		// A failed listing means zero custom pages, not a failed export.
		s.log.WarnContext(ctx, "export.service.custom_files_failed", "event_id", eventID, "error", err)
		return nil
	}

	sources := make([][]byte, 0, len(files))
	for _, f := range files {
		b, ok := s.resolver.Resolve(f.Path)
		if !ok {
			s.log.WarnContext(ctx, "export.service.custom_file_missing", "event_id", eventID, "path", f.Path)
			continue
		}
		sources = append(sources, b)
	}
	return sources
}

func (s *ExportServiceImpl) gallerySource(ctx context.Context, eventID int64) []byte {
	gallery, err := s.ExportAttachmentGallery(ctx, eventID)
	if err != nil {
		s.log.WarnContext(ctx, "export.service.gallery_failed", "event_id", eventID, "error", err)
		return nil
	}
	return gallery
}

func resultFrom(rendered *export.RenderedReport, artifact *export.VerificationArtifact, degraded bool) *ExportResult {
	res := &ExportResult{
		Data:     rendered.Data,
		Pages:    rendered.Pages,
		Degraded: degraded,
	}
	if artifact != nil {
		res.VerificationID = artifact.ID
		res.VerificationURL = artifact.URL
	}
	return res
}
