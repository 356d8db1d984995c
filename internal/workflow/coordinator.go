// Package workflow composes the object store, the translation service and
// the in-memory registry into the job orchestration core: submission,
// cancellation, status resolution and result retrieval.
package workflow

import (
	"context"
	"encoding/base64"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/PlumyCat/trad-bot-src/internal/blobstore"
	"github.com/PlumyCat/trad-bot-src/internal/delivery"
	"github.com/PlumyCat/trad-bot-src/internal/docformat"
	"github.com/PlumyCat/trad-bot-src/internal/fault"
	"github.com/PlumyCat/trad-bot-src/internal/globaltime"
	"github.com/PlumyCat/trad-bot-src/internal/langdetect"
	"github.com/PlumyCat/trad-bot-src/internal/language"
	"github.com/PlumyCat/trad-bot-src/internal/naming"
	"github.com/PlumyCat/trad-bot-src/internal/state"
	"github.com/PlumyCat/trad-bot-src/internal/translation"
)

// Translator is the asynchronous translation collaborator.
type Translator interface {
	Submit(ctx context.Context, sourceURL, targetURL, targetLanguage string) (string, error)
	Poll(ctx context.Context, handle string) (translation.StatusPayload, error)
	Cancel(ctx context.Context, handle string) bool
}

// Deliverer is the optional secondary push of completed artifacts.
type Deliverer interface {
	Enabled() bool
	Push(ctx context.Context, content []byte, destinationName, ownerID string) delivery.Result
}

type Options struct {
	InputArea  string
	OutputArea string

	// LocatorTTL bounds locators used between submission steps;
	// DownloadTTL bounds locators handed to end users.
	LocatorTTL  time.Duration
	DownloadTTL time.Duration

	// CancelGrace delays registry deletion after a cancel so in-flight
	// polls still observe the terminal record.
	CancelGrace time.Duration

	// ArtifactMaxAge drives the pre-submission cleanup of stale output
	// artifacts.
	ArtifactMaxAge time.Duration
}

func (o Options) withDefaults() Options {
	if o.LocatorTTL <= 0 {
		o.LocatorTTL = 2 * time.Hour
	}
	if o.DownloadTTL <= 0 {
		o.DownloadTTL = 24 * time.Hour
	}
	if o.CancelGrace < 0 {
		o.CancelGrace = 0
	}
	if o.ArtifactMaxAge <= 0 {
		o.ArtifactMaxAge = time.Hour
	}
	return o
}

// Coordinator orchestrates translation jobs. Every public method is
// synchronous: it blocks for the duration of the external calls it makes,
// and concurrency comes only from concurrent callers.
type Coordinator struct {
	objects    blobstore.Store
	translator Translator
	registry   *state.Store
	deliverer  Deliverer
	opts       Options
	logger     zerolog.Logger
}

func NewCoordinator(objects blobstore.Store, translator Translator, registry *state.Store, deliverer Deliverer, opts Options, logger zerolog.Logger) *Coordinator {
	return &Coordinator{
		objects:    objects,
		translator: translator,
		registry:   registry,
		deliverer:  deliverer,
		opts:       opts.withDefaults(),
		logger:     logger,
	}
}

// SubmitRequest carries one translation submission. FileContent is the
// base64-encoded document.
type SubmitRequest struct {
	FileContent    string
	FileName       string
	TargetLanguage string
	OwnerID        string
}

// Submit validates the request, stages the input artifact, starts the
// external job and registers the new translation. Validation failures
// return before any side effect; failures after artifact creation run the
// recorded compensations in reverse before returning.
func (c *Coordinator) Submit(ctx context.Context, req SubmitRequest) (state.Translation, error) {
	content, verr := c.validateSubmit(req)
	if verr != nil {
		return state.Translation{}, verr
	}

	targetLang := language.NormalizeTag(req.TargetLanguage)
	outputName := naming.DeriveOutputName(req.FileName, targetLang)

	sourceLang := ""
	if docformat.IsTextual(req.FileName) {
		sourceLang = langdetect.DetectISO6391(string(content))
	}

	c.cleanupStaleArtifacts(ctx)
	c.deleteExistingTarget(ctx, outputName)

	var comps compensations

	inputLoc, err := c.objects.Presign(ctx, c.opts.InputArea, req.FileName, state.PermissionRead, c.opts.LocatorTTL)
	if err != nil {
		return state.Translation{}, &fault.UpstreamError{System: "storage", Detail: "issue input locator", Err: err}
	}
	outputLoc, err := c.objects.Presign(ctx, c.opts.OutputArea, outputName, state.PermissionReadWrite, c.opts.LocatorTTL)
	if err != nil {
		return state.Translation{}, &fault.UpstreamError{System: "storage", Detail: "issue output locator", Err: err}
	}

	if err := c.objects.Upload(ctx, c.opts.InputArea, req.FileName, content, docformat.ContentType(req.FileName)); err != nil {
		return state.Translation{}, &fault.UpstreamError{System: "storage", Detail: "upload input artifact", Err: err}
	}
	comps.add(func(ctx context.Context) {
		if err := c.objects.Delete(ctx, c.opts.InputArea, req.FileName); err != nil {
			c.logger.Warn().Err(err).Str("object", req.FileName).Msg("input artifact cleanup failed")
		}
	})
	// The external job may have written a partial output before failing.
	comps.add(func(ctx context.Context) {
		if err := c.objects.Delete(ctx, c.opts.OutputArea, outputName); err != nil {
			c.logger.Warn().Err(err).Str("object", outputName).Msg("output artifact cleanup failed")
		}
	})

	handle, err := c.translator.Submit(ctx, inputLoc.URL, outputLoc.URL, targetLang)
	if err != nil {
		c.logger.Error().Err(err).Str("file", req.FileName).Msg("translation submission failed, compensating")
		comps.run(ctx)
		return state.Translation{}, err
	}

	rec := state.Translation{
		ID:         uuid.NewString(),
		Handle:     handle,
		FileName:   req.FileName,
		TargetLang: targetLang,
		SourceLang: sourceLang,
		OwnerID:    req.OwnerID,
		Locators: state.LocatorPair{
			InputName:  req.FileName,
			OutputName: outputName,
			Input:      inputLoc,
			Output:     outputLoc,
		},
		Status:    state.StatusInProgress,
		CreatedAt: globaltime.UTC(),
	}
	c.registry.Put(rec.ID, rec)

	c.logger.Info().
		Str("translation_id", rec.ID).
		Str("handle", handle).
		Str("file", req.FileName).
		Str("target_language", targetLang).
		Msg("translation started")
	return rec, nil
}

// SubmitExisting starts a translation of an artifact that is already in the
// input area, so there is no upload step and no upload compensation.
func (c *Coordinator) SubmitExisting(ctx context.Context, objectName, targetLanguage, ownerID string) (state.Translation, error) {
	fields := map[string]string{}
	if strings.TrimSpace(objectName) == "" {
		fields["blob_name"] = "is required"
	} else if !docformat.IsSupported(objectName) {
		fields["blob_name"] = "unsupported file format"
	}
	if strings.TrimSpace(targetLanguage) == "" {
		fields["target_language"] = "is required"
	} else if !translation.IsSupportedLanguage(targetLanguage) {
		fields["target_language"] = "unsupported language code"
	}
	if len(fields) > 0 {
		return state.Translation{}, &fault.ValidationError{Fields: fields}
	}

	exists, err := c.objects.Exists(ctx, c.opts.InputArea, objectName)
	if err != nil {
		return state.Translation{}, &fault.UpstreamError{System: "storage", Detail: "check input artifact", Err: err}
	}
	if !exists {
		return state.Translation{}, fault.NotFound("input artifact")
	}

	targetLang := language.NormalizeTag(targetLanguage)
	outputName := naming.DeriveOutputName(objectName, targetLang)

	c.cleanupStaleArtifacts(ctx)
	c.deleteExistingTarget(ctx, outputName)

	inputLoc, err := c.objects.Presign(ctx, c.opts.InputArea, objectName, state.PermissionRead, c.opts.LocatorTTL)
	if err != nil {
		return state.Translation{}, &fault.UpstreamError{System: "storage", Detail: "issue input locator", Err: err}
	}
	outputLoc, err := c.objects.Presign(ctx, c.opts.OutputArea, outputName, state.PermissionReadWrite, c.opts.LocatorTTL)
	if err != nil {
		return state.Translation{}, &fault.UpstreamError{System: "storage", Detail: "issue output locator", Err: err}
	}

	handle, err := c.translator.Submit(ctx, inputLoc.URL, outputLoc.URL, targetLang)
	if err != nil {
		return state.Translation{}, err
	}

	rec := state.Translation{
		ID:         uuid.NewString(),
		Handle:     handle,
		FileName:   objectName,
		TargetLang: targetLang,
		OwnerID:    ownerID,
		Locators: state.LocatorPair{
			InputName:  objectName,
			OutputName: outputName,
			Input:      inputLoc,
			Output:     outputLoc,
		},
		Status:    state.StatusInProgress,
		CreatedAt: globaltime.UTC(),
	}
	c.registry.Put(rec.ID, rec)
	return rec, nil
}

// CancelOutcome records what the best-effort external steps achieved. The
// local record is terminal regardless.
type CancelOutcome struct {
	UpstreamCancelled bool `json:"upstream_cancelled"`
	CleanupCompleted  bool `json:"cleanup_completed"`
}

// Cancel force-terminates a tracked translation. External cancellation and
// artifact cleanup are attempted and recorded but never branch the flow:
// the registry record always ends up Failed. The record itself is deleted
// after the configured grace period.
func (c *Coordinator) Cancel(ctx context.Context, id string) (CancelOutcome, error) {
	rec, ok := c.registry.Get(id)
	if !ok {
		return CancelOutcome{}, fault.NotFound("translation")
	}

	outcome := CancelOutcome{
		UpstreamCancelled: c.translator.Cancel(ctx, rec.Handle),
		CleanupCompleted:  true,
	}

	if err := c.objects.Delete(ctx, c.opts.InputArea, rec.Locators.InputName); err != nil {
		c.logger.Warn().Err(err).Str("object", rec.Locators.InputName).Msg("cancel: input cleanup failed")
		outcome.CleanupCompleted = false
	}
	if err := c.objects.Delete(ctx, c.opts.OutputArea, rec.Locators.OutputName); err != nil {
		c.logger.Warn().Err(err).Str("object", rec.Locators.OutputName).Msg("cancel: output cleanup failed")
		outcome.CleanupCompleted = false
	}

	now := globaltime.UTC()
	rec.Status = state.StatusFailed
	rec.CompletedAt = &now
	rec.ErrorDetail = "translation cancelled"
	c.registry.Put(id, rec)

	if c.opts.CancelGrace > 0 {
		time.AfterFunc(c.opts.CancelGrace, func() {
			c.registry.Delete(id)
		})
	} else {
		c.registry.Delete(id)
	}

	c.logger.Info().
		Str("translation_id", id).
		Bool("upstream_cancelled", outcome.UpstreamCancelled).
		Bool("cleanup_completed", outcome.CleanupCompleted).
		Msg("translation cancelled")
	return outcome, nil
}

// Status resolves the current state of an external job. The translation
// service is authoritative; the registry is not consulted, so a status can
// be resolved even after the local record has been swept.
func (c *Coordinator) Status(ctx context.Context, handle string) (translation.StatusReport, error) {
	if strings.TrimSpace(handle) == "" {
		return translation.StatusReport{}, fault.Validation("translation_id", "is required")
	}

	payload, err := c.translator.Poll(ctx, handle)
	if err != nil {
		return translation.StatusReport{}, err
	}
	return translation.ResolveStatus(payload), nil
}

// Result describes a retrievable translated artifact.
type Result struct {
	OutputName    string    `json:"output_name"`
	DownloadURL   string    `json:"download_url"`
	ExpiresAt     time.Time `json:"download_expires_at"`
	DeliveryURL   string    `json:"delivery_url,omitempty"`
	DeliveryError string    `json:"delivery_error,omitempty"`
}

// ResolveResult re-derives the output artifact name from the original input
// name and target language, verifies the artifact exists and issues a
// download locator. It deliberately does not require a registry record: the
// derivation is deterministic, so the artifact name alone is sufficient.
// When delivery is enabled and an owner is known, the artifact is also
// pushed to the owner's drive; a delivery failure is advisory and never
// fails the result.
func (c *Coordinator) ResolveResult(ctx context.Context, objectName, targetLanguage, ownerID string) (Result, error) {
	fields := map[string]string{}
	if strings.TrimSpace(objectName) == "" {
		fields["blob_name"] = "is required"
	}
	if strings.TrimSpace(targetLanguage) == "" {
		fields["target_language"] = "is required"
	} else if !translation.IsSupportedLanguage(targetLanguage) {
		fields["target_language"] = "unsupported language code"
	}
	if len(fields) > 0 {
		return Result{}, &fault.ValidationError{Fields: fields}
	}

	outputName := naming.DeriveOutputName(objectName, language.NormalizeTag(targetLanguage))

	exists, err := c.objects.Exists(ctx, c.opts.OutputArea, outputName)
	if err != nil {
		return Result{}, &fault.UpstreamError{System: "storage", Detail: "check output artifact", Err: err}
	}
	if !exists {
		return Result{}, fault.NotFound("translated artifact")
	}

	locator, err := c.objects.Presign(ctx, c.opts.OutputArea, outputName, state.PermissionRead, c.opts.DownloadTTL)
	if err != nil {
		return Result{}, &fault.UpstreamError{System: "storage", Detail: "issue download locator", Err: err}
	}

	result := Result{
		OutputName:  outputName,
		DownloadURL: locator.URL,
		ExpiresAt:   locator.ExpiresAt,
	}

	if c.deliverer != nil && c.deliverer.Enabled() && strings.TrimSpace(ownerID) != "" {
		content, err := c.objects.Download(ctx, c.opts.OutputArea, outputName)
		if err != nil {
			result.DeliveryError = "translated artifact could not be read for delivery"
			c.logger.Warn().Err(err).Str("object", outputName).Msg("delivery download failed")
			return result, nil
		}
		pushed := c.deliverer.Push(ctx, content, outputName, ownerID)
		if pushed.Success {
			result.DeliveryURL = pushed.WebURL
		} else {
			result.DeliveryError = pushed.Error
		}
	}

	return result, nil
}

// ActiveCount reports the owner's InProgress translations.
func (c *Coordinator) ActiveCount(ownerID string) int {
	return c.registry.CountActive(ownerID)
}

func (c *Coordinator) validateSubmit(req SubmitRequest) ([]byte, *fault.ValidationError) {
	fields := map[string]string{}

	var content []byte
	if strings.TrimSpace(req.FileContent) == "" {
		fields["file_content"] = "is required"
	} else {
		decoded, err := base64.StdEncoding.DecodeString(req.FileContent)
		if err != nil {
			fields["file_content"] = "must be valid base64"
		} else {
			content = decoded
		}
	}

	if strings.TrimSpace(req.FileName) == "" {
		fields["file_name"] = "is required"
	} else if !docformat.IsSupported(req.FileName) {
		fields["file_name"] = "unsupported file format"
	}

	if strings.TrimSpace(req.TargetLanguage) == "" {
		fields["target_language"] = "is required"
	} else if !translation.IsSupportedLanguage(req.TargetLanguage) {
		fields["target_language"] = "unsupported language code"
	}

	if strings.TrimSpace(req.OwnerID) == "" {
		fields["user_id"] = "is required"
	}

	if len(fields) > 0 {
		return nil, &fault.ValidationError{Fields: fields}
	}
	return content, nil
}

// cleanupStaleArtifacts removes output artifacts past their retention age.
// Best-effort housekeeping before each submission; failures are logged only.
func (c *Coordinator) cleanupStaleArtifacts(ctx context.Context) {
	infos, err := c.objects.List(ctx, c.opts.OutputArea)
	if err != nil {
		c.logger.Warn().Err(err).Msg("stale artifact listing failed")
		return
	}

	cutoff := globaltime.UTC().Add(-c.opts.ArtifactMaxAge)
	removed := 0
	for _, info := range infos {
		if info.LastModified.Before(cutoff) {
			if err := c.objects.Delete(ctx, c.opts.OutputArea, info.Name); err != nil {
				c.logger.Warn().Err(err).Str("object", info.Name).Msg("stale artifact delete failed")
				continue
			}
			removed++
		}
	}
	if removed > 0 {
		c.logger.Info().Int("removed", removed).Msg("stale output artifacts removed")
	}
}

// deleteExistingTarget drops a leftover output artifact with the same name
// so the new job never serves a stale translation.
func (c *Coordinator) deleteExistingTarget(ctx context.Context, outputName string) {
	exists, err := c.objects.Exists(ctx, c.opts.OutputArea, outputName)
	if err != nil || !exists {
		return
	}
	if err := c.objects.Delete(ctx, c.opts.OutputArea, outputName); err != nil {
		c.logger.Warn().Err(err).Str("object", outputName).Msg("previous target delete failed")
	}
}
