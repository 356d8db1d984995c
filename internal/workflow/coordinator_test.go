package workflow

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/PlumyCat/trad-bot-src/internal/blobstore"
	"github.com/PlumyCat/trad-bot-src/internal/delivery"
	"github.com/PlumyCat/trad-bot-src/internal/fault"
	"github.com/PlumyCat/trad-bot-src/internal/state"
	"github.com/PlumyCat/trad-bot-src/internal/translation"
)

type stubObjects struct {
	mu sync.Mutex

	uploads   []string
	deletes   []string
	presigns  []string
	downloads []string
	lists     int

	objects map[string][]byte

	uploadErr  error
	presignErr error
	existsErr  error
	deleteErr  error
}

func newStubObjects() *stubObjects {
	return &stubObjects{objects: map[string][]byte{}}
}

func key(area, name string) string { return area + "/" + name }

func (s *stubObjects) Upload(_ context.Context, area, name string, data []byte, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploads = append(s.uploads, key(area, name))
	if s.uploadErr != nil {
		return s.uploadErr
	}
	s.objects[key(area, name)] = data
	return nil
}

func (s *stubObjects) Download(_ context.Context, area, name string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.downloads = append(s.downloads, key(area, name))
	data, ok := s.objects[key(area, name)]
	if !ok {
		return nil, errors.New("no such object")
	}
	return data, nil
}

func (s *stubObjects) Exists(_ context.Context, area, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.existsErr != nil {
		return false, s.existsErr
	}
	_, ok := s.objects[key(area, name)]
	return ok, nil
}

func (s *stubObjects) Delete(_ context.Context, area, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes = append(s.deletes, key(area, name))
	if s.deleteErr != nil {
		return s.deleteErr
	}
	delete(s.objects, key(area, name))
	return nil
}

func (s *stubObjects) List(_ context.Context, area string) ([]blobstore.ObjectInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists++
	var infos []blobstore.ObjectInfo
	prefix := area + "/"
	for k := range s.objects {
		if len(k) > len(prefix) && k[:len(prefix)] == prefix {
			infos = append(infos, blobstore.ObjectInfo{Name: k[len(prefix):], LastModified: time.Now().UTC()})
		}
	}
	return infos, nil
}

func (s *stubObjects) Presign(_ context.Context, area, name string, perm state.Permission, expiry time.Duration) (state.Locator, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.presigns = append(s.presigns, key(area, name))
	if s.presignErr != nil {
		return state.Locator{}, s.presignErr
	}
	return state.Locator{
		URL:        fmt.Sprintf("https://objects.test/%s/%s?perm=%s", area, name, perm),
		Permission: perm,
		ExpiresAt:  time.Now().UTC().Add(expiry),
	}, nil
}

func (s *stubObjects) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.uploads) + len(s.deletes) + len(s.presigns) + len(s.downloads) + s.lists
}

type stubTranslator struct {
	mu      sync.Mutex
	submits int
	polls   []string
	cancels []string

	handle    string
	submitErr error
	payload   translation.StatusPayload
	pollErr   error
	cancelOK  bool
}

func (s *stubTranslator) Submit(_ context.Context, _, _, _ string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submits++
	if s.submitErr != nil {
		return "", s.submitErr
	}
	return s.handle, nil
}

func (s *stubTranslator) Poll(_ context.Context, handle string) (translation.StatusPayload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.polls = append(s.polls, handle)
	if s.pollErr != nil {
		return translation.StatusPayload{}, s.pollErr
	}
	return s.payload, nil
}

func (s *stubTranslator) Cancel(_ context.Context, handle string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancels = append(s.cancels, handle)
	return s.cancelOK
}

type stubDeliverer struct {
	enabled bool
	result  delivery.Result
	pushes  int
}

func (s *stubDeliverer) Enabled() bool { return s.enabled }

func (s *stubDeliverer) Push(_ context.Context, _ []byte, _, _ string) delivery.Result {
	s.pushes++
	return s.result
}

func newTestCoordinator(objects *stubObjects, tr *stubTranslator, del Deliverer) (*Coordinator, *state.Store) {
	registry := state.NewStore()
	coord := NewCoordinator(objects, tr, registry, del, Options{
		InputArea:  "doc-to-trad",
		OutputArea: "doc-trad",
	}, zerolog.Nop())
	return coord, registry
}

func validSubmit() SubmitRequest {
	return SubmitRequest{
		FileContent:    base64.StdEncoding.EncodeToString([]byte("hello world document")),
		FileName:       "report.docx",
		TargetLanguage: "FR",
		OwnerID:        "user-1",
	}
}

func TestSubmitRegistersTranslation(t *testing.T) {
	t.Parallel()

	objects := newStubObjects()
	tr := &stubTranslator{handle: "op-123"}
	coord, registry := newTestCoordinator(objects, tr, nil)

	rec, err := coord.Submit(context.Background(), validSubmit())
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if rec.ID == "" || rec.Handle != "op-123" {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if rec.Status != state.StatusInProgress {
		t.Fatalf("new translation must start InProgress, got %q", rec.Status)
	}
	if rec.TargetLang != "fr" {
		t.Fatalf("target language must be normalized, got %q", rec.TargetLang)
	}
	if rec.Locators.OutputName != "report-fr.docx" {
		t.Fatalf("unexpected output name %q", rec.Locators.OutputName)
	}
	if rec.Locators.Input.Permission != state.PermissionRead {
		t.Fatalf("input locator must be read-only, got %q", rec.Locators.Input.Permission)
	}
	if rec.Locators.Output.Permission != state.PermissionReadWrite {
		t.Fatalf("output locator must be writable, got %q", rec.Locators.Output.Permission)
	}

	stored, ok := registry.Get(rec.ID)
	if !ok || stored.Handle != "op-123" {
		t.Fatalf("translation not registered: %+v ok=%v", stored, ok)
	}
	if got := registry.CountActive("user-1"); got != 1 {
		t.Fatalf("expected one active translation, got %d", got)
	}
}

func TestSubmitValidationHasNoSideEffects(t *testing.T) {
	t.Parallel()

	objects := newStubObjects()
	tr := &stubTranslator{handle: "op-123"}
	coord, registry := newTestCoordinator(objects, tr, nil)

	cases := []struct {
		name string
		req  SubmitRequest
	}{
		{"missing content", SubmitRequest{FileName: "a.docx", TargetLanguage: "fr", OwnerID: "u"}},
		{"bad base64", SubmitRequest{FileContent: "%%%", FileName: "a.docx", TargetLanguage: "fr", OwnerID: "u"}},
		{"unsupported format", func() SubmitRequest { r := validSubmit(); r.FileName = "a.exe"; return r }()},
		{"unsupported language", func() SubmitRequest { r := validSubmit(); r.TargetLanguage = "xx"; return r }()},
		{"missing owner", func() SubmitRequest { r := validSubmit(); r.OwnerID = ""; return r }()},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			_, err := coord.Submit(context.Background(), tc.req)
			if !fault.IsValidation(err) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}

	if got := objects.callCount(); got != 0 {
		t.Fatalf("rejected submissions must touch no external system, got %d calls", got)
	}
	if tr.submits != 0 {
		t.Fatalf("rejected submissions must not reach the translation service")
	}
	if registry.Len() != 0 {
		t.Fatalf("rejected submissions must not be registered")
	}
}

func TestSubmitCompensatesOnUpstreamFailure(t *testing.T) {
	t.Parallel()

	objects := newStubObjects()
	tr := &stubTranslator{submitErr: &fault.UpstreamError{System: "translator", Status: 500, Detail: "boom"}}
	coord, registry := newTestCoordinator(objects, tr, nil)

	_, err := coord.Submit(context.Background(), validSubmit())
	if !fault.IsUpstream(err) {
		t.Fatalf("expected upstream error, got %v", err)
	}

	if len(objects.uploads) != 1 {
		t.Fatalf("expected one upload before failure, got %v", objects.uploads)
	}
	wantDeletes := map[string]bool{
		"doc-to-trad/report.docx": false,
		"doc-trad/report-fr.docx": false,
	}
	for _, d := range objects.deletes {
		if _, ok := wantDeletes[d]; ok {
			wantDeletes[d] = true
		}
	}
	for name, seen := range wantDeletes {
		if !seen {
			t.Fatalf("compensation missed %s; deletes: %v", name, objects.deletes)
		}
	}
	if registry.Len() != 0 {
		t.Fatalf("failed submission must not be registered")
	}
}

func TestSubmitReplacesExistingTarget(t *testing.T) {
	t.Parallel()

	objects := newStubObjects()
	objects.objects["doc-trad/report-fr.docx"] = []byte("stale")
	tr := &stubTranslator{handle: "op-9"}
	coord, _ := newTestCoordinator(objects, tr, nil)

	if _, err := coord.Submit(context.Background(), validSubmit()); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	found := false
	for _, d := range objects.deletes {
		if d == "doc-trad/report-fr.docx" {
			found = true
		}
	}
	if !found {
		t.Fatalf("stale target must be deleted before submission, deletes: %v", objects.deletes)
	}
}

func TestSubmitExistingMissingArtifact(t *testing.T) {
	t.Parallel()

	objects := newStubObjects()
	tr := &stubTranslator{handle: "op-1"}
	coord, _ := newTestCoordinator(objects, tr, nil)

	_, err := coord.SubmitExisting(context.Background(), "absent.docx", "fr", "user-1")
	if !fault.IsNotFound(err) {
		t.Fatalf("expected not-found, got %v", err)
	}
	if tr.submits != 0 {
		t.Fatalf("missing artifact must not reach the translation service")
	}
}

func TestSubmitExistingStartsJob(t *testing.T) {
	t.Parallel()

	objects := newStubObjects()
	objects.objects["doc-to-trad/guide.pdf"] = []byte("pdf bytes")
	tr := &stubTranslator{handle: "op-7"}
	coord, registry := newTestCoordinator(objects, tr, nil)

	rec, err := coord.SubmitExisting(context.Background(), "guide.pdf", "de", "user-2")
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if rec.Locators.OutputName != "guide-de.pdf" {
		t.Fatalf("unexpected output name %q", rec.Locators.OutputName)
	}
	if len(objects.uploads) != 0 {
		t.Fatalf("existing artifact submission must not upload, got %v", objects.uploads)
	}
	if registry.Len() != 1 {
		t.Fatalf("translation not registered")
	}
}

func TestCancelForcesTerminalState(t *testing.T) {
	t.Parallel()

	objects := newStubObjects()
	objects.deleteErr = errors.New("storage down")
	tr := &stubTranslator{cancelOK: false}
	coord, registry := newTestCoordinator(objects, tr, nil)

	registry.Put("job-1", state.Translation{
		ID:      "job-1",
		Handle:  "op-1",
		OwnerID: "user-1",
		Status:  state.StatusInProgress,
		Locators: state.LocatorPair{
			InputName:  "report.docx",
			OutputName: "report-fr.docx",
		},
	})

	outcome, err := coord.Cancel(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if outcome.UpstreamCancelled {
		t.Fatalf("upstream cancel was refused, outcome must say so")
	}
	if outcome.CleanupCompleted {
		t.Fatalf("cleanup failed, outcome must say so")
	}

	// Grace period is zero in tests, so the record is dropped immediately.
	if _, ok := registry.Get("job-1"); ok {
		t.Fatalf("cancelled record must be removed after the grace period")
	}
	if len(tr.cancels) != 1 || tr.cancels[0] != "op-1" {
		t.Fatalf("expected one upstream cancel for op-1, got %v", tr.cancels)
	}
}

func TestCancelKeepsRecordDuringGrace(t *testing.T) {
	t.Parallel()

	objects := newStubObjects()
	tr := &stubTranslator{cancelOK: true}
	registry := state.NewStore()
	coord := NewCoordinator(objects, tr, registry, nil, Options{
		InputArea:   "doc-to-trad",
		OutputArea:  "doc-trad",
		CancelGrace: time.Hour,
	}, zerolog.Nop())

	registry.Put("job-2", state.Translation{ID: "job-2", Handle: "op-2", Status: state.StatusInProgress})

	if _, err := coord.Cancel(context.Background(), "job-2"); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	rec, ok := registry.Get("job-2")
	if !ok {
		t.Fatalf("record must survive until the grace period elapses")
	}
	if rec.Status != state.StatusFailed {
		t.Fatalf("cancelled record must be Failed, got %q", rec.Status)
	}
	if rec.CompletedAt == nil {
		t.Fatalf("cancelled record must carry a completion time")
	}
}

func TestCancelUnknownTranslation(t *testing.T) {
	t.Parallel()

	objects := newStubObjects()
	tr := &stubTranslator{}
	coord, _ := newTestCoordinator(objects, tr, nil)

	_, err := coord.Cancel(context.Background(), "nope")
	if !fault.IsNotFound(err) {
		t.Fatalf("expected not-found, got %v", err)
	}
	if len(tr.cancels) != 0 || len(objects.deletes) != 0 {
		t.Fatalf("unknown id must trigger no external calls")
	}
}

func TestStatusResolvesFromService(t *testing.T) {
	t.Parallel()

	tr := &stubTranslator{payload: translation.StatusPayload{
		ID:     "op-5",
		Status: "Succeeded",
		Summary: &translation.Summary{
			Total:   4,
			Success: 4,
		},
	}}
	coord, _ := newTestCoordinator(newStubObjects(), tr, nil)

	report, err := coord.Status(context.Background(), "op-5")
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if report.Status != state.StatusSucceeded {
		t.Fatalf("expected Succeeded, got %q", report.Status)
	}
	if len(tr.polls) != 1 || tr.polls[0] != "op-5" {
		t.Fatalf("expected one poll of op-5, got %v", tr.polls)
	}
}

func TestStatusSurfacesUpstreamFailure(t *testing.T) {
	t.Parallel()

	tr := &stubTranslator{pollErr: &fault.UpstreamError{System: "translator", Status: 503, Detail: "unavailable"}}
	coord, _ := newTestCoordinator(newStubObjects(), tr, nil)

	_, err := coord.Status(context.Background(), "op-5")
	if !fault.IsUpstream(err) {
		t.Fatalf("poll failure must surface as an upstream error, got %v", err)
	}
}

func TestResolveResultIssuesDownloadLocator(t *testing.T) {
	t.Parallel()

	objects := newStubObjects()
	objects.objects["doc-trad/report-fr.docx"] = []byte("translated")
	coord, _ := newTestCoordinator(objects, &stubTranslator{}, nil)

	result, err := coord.ResolveResult(context.Background(), "report.docx", "fr", "")
	if err != nil {
		t.Fatalf("result failed: %v", err)
	}
	if result.OutputName != "report-fr.docx" {
		t.Fatalf("unexpected output name %q", result.OutputName)
	}
	if result.DownloadURL == "" || result.ExpiresAt.IsZero() {
		t.Fatalf("expected a bounded download locator, got %+v", result)
	}
}

func TestResolveResultMissingArtifact(t *testing.T) {
	t.Parallel()

	coord, _ := newTestCoordinator(newStubObjects(), &stubTranslator{}, nil)

	_, err := coord.ResolveResult(context.Background(), "report.docx", "fr", "")
	if !fault.IsNotFound(err) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestResolveResultDeliveryIsAdvisory(t *testing.T) {
	t.Parallel()

	objects := newStubObjects()
	objects.objects["doc-trad/report-fr.docx"] = []byte("translated")
	del := &stubDeliverer{enabled: true, result: delivery.Result{Error: "drive quota exceeded"}}
	coord, _ := newTestCoordinator(objects, &stubTranslator{}, del)

	result, err := coord.ResolveResult(context.Background(), "report.docx", "fr", "user-1")
	if err != nil {
		t.Fatalf("delivery failure must not fail the result: %v", err)
	}
	if result.DownloadURL == "" {
		t.Fatalf("download locator must be issued regardless of delivery")
	}
	if result.DeliveryError != "drive quota exceeded" {
		t.Fatalf("expected advisory delivery error, got %+v", result)
	}
	if del.pushes != 1 {
		t.Fatalf("expected one delivery attempt, got %d", del.pushes)
	}
}

func TestResolveResultDeliverySuccess(t *testing.T) {
	t.Parallel()

	objects := newStubObjects()
	objects.objects["doc-trad/report-fr.docx"] = []byte("translated")
	del := &stubDeliverer{enabled: true, result: delivery.Result{Success: true, WebURL: "https://drive.example/item-1"}}
	coord, _ := newTestCoordinator(objects, &stubTranslator{}, del)

	result, err := coord.ResolveResult(context.Background(), "report.docx", "fr", "user-1")
	if err != nil {
		t.Fatalf("result failed: %v", err)
	}
	if result.DeliveryURL != "https://drive.example/item-1" {
		t.Fatalf("expected delivery url, got %+v", result)
	}
}

func TestResolveResultSkipsDeliveryWithoutOwner(t *testing.T) {
	t.Parallel()

	objects := newStubObjects()
	objects.objects["doc-trad/report-fr.docx"] = []byte("translated")
	del := &stubDeliverer{enabled: true, result: delivery.Result{Success: true}}
	coord, _ := newTestCoordinator(objects, &stubTranslator{}, del)

	if _, err := coord.ResolveResult(context.Background(), "report.docx", "fr", ""); err != nil {
		t.Fatalf("result failed: %v", err)
	}
	if del.pushes != 0 {
		t.Fatalf("delivery must be skipped when no owner is known")
	}
}
