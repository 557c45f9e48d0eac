package draft

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anycomp/internal/apiclient"
	"anycomp/internal/domain"
	"anycomp/internal/querycache"
)

var (
	pngHeader  = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")
	jpegHeader = []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00\x01\x01\x00\x00\x01\x00\x01\x00\x00")
)

func pngFile(name string) *File  { return FromBytes(name, pngHeader) }
func jpegFile(name string) *File { return FromBytes(name, jpegHeader) }

type fakeSpecialists struct {
	mu        sync.Mutex
	creates   int
	createErr error
	created   domain.CreateSpecialistRequest
	updates   []domain.UpdateSpecialistRequest
	updateIDs []string
}

func (f *fakeSpecialists) Create(_ context.Context, req domain.CreateSpecialistRequest) (*domain.Specialist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	f.created = req
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &domain.Specialist{ID: "draft-1", Title: req.Title, IsDraft: true}, nil
}

func (f *fakeSpecialists) Update(_ context.Context, id string, req domain.UpdateSpecialistRequest) (*domain.Specialist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, req)
	f.updateIDs = append(f.updateIDs, id)
	return &domain.Specialist{ID: id, IsDraft: *req.IsDraft}, nil
}

type fakeMedia struct {
	mu       sync.Mutex
	failures map[string]int // remaining failures per file name
	block    chan struct{}
	existing []domain.Media
	uploads  []upload
	lists    int32
}

type upload struct {
	target string
	name   string
	order  int
	body   []byte
}

func (f *fakeMedia) Upload(_ context.Context, target string, file apiclient.UploadFile, order *int) (*domain.Media, error) {
	if f.block != nil {
		<-f.block
	}
	body, _ := io.ReadAll(file.Content)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failures[file.Name] > 0 {
		f.failures[file.Name]--
		return nil, &apiclient.APIError{Status: http.StatusInternalServerError, Message: "storage unavailable"}
	}
	f.uploads = append(f.uploads, upload{target: target, name: file.Name, order: *order, body: body})
	return &domain.Media{ID: "m-" + file.Name, SpecialistID: target, FileName: file.Name, DisplayOrder: *order}, nil
}

func (f *fakeMedia) ListBySpecialist(context.Context, string) ([]domain.Media, error) {
	atomic.AddInt32(&f.lists, 1)
	return f.existing, nil
}

func (f *fakeMedia) uploadsFor(name string) []upload {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []upload
	for _, u := range f.uploads {
		if u.name == name {
			out = append(out, u)
		}
	}
	return out
}

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) observe(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) states(fileID string) []State {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []State
	for _, e := range r.events {
		if e.FileID == fileID {
			out = append(out, e.State)
		}
	}
	return out
}

func newDeps(sp *fakeSpecialists, m *fakeMedia) (Deps, *querycache.Memory, *recorder) {
	cache := querycache.NewMemory(time.Minute)
	rec := &recorder{}
	return Deps{
		Specialists: sp,
		Media:       m,
		Cache:       cache,
		Log:         zerolog.Nop(),
		Observer:    rec.observe,
	}, cache, rec
}

func TestValidate(t *testing.T) {
	big := FromBytes("big.png", append(append([]byte{}, pngHeader...), make([]byte, MaxFileSize)...))

	tests := []struct {
		name string
		file *File
		want error
	}{
		{"png", pngFile("a.png"), nil},
		{"jpeg", jpegFile("a.jpg"), nil},
		{"empty", FromBytes("e.png", nil), ErrEmptyFile},
		{"nil", nil, ErrEmptyFile},
		{"too large", big, ErrFileTooLarge},
		{"pdf", FromBytes("doc.pdf", []byte("%PDF-1.4\n%...")), ErrUnsupportedType},
		{"text named png", FromBytes("fake.png", []byte("hello")), ErrUnsupportedType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, Validate(tt.file), tt.want)
		})
	}
}

func TestFromPath_ReopensContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logo.png")
	require.NoError(t, os.WriteFile(path, pngHeader, 0o600))

	f, err := FromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "logo.png", f.Name)
	assert.Equal(t, "image/png", f.MimeType)
	assert.NoError(t, Validate(f))

	for i := 0; i < 2; i++ {
		rc, err := f.Open()
		require.NoError(t, err)
		got, _ := io.ReadAll(rc)
		rc.Close()
		assert.True(t, bytes.Equal(pngHeader, got))
	}
}

func TestEnsure_CreatesDraftOnce(t *testing.T) {
	sp := &fakeSpecialists{}
	deps, _, _ := newDeps(sp, &fakeMedia{})
	s := NewCreate(deps, Options{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := s.Ensure(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, "draft-1", id)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, sp.creates)
	assert.True(t, sp.created.IsDraft)
	assert.Equal(t, placeholderTitle, sp.created.Title)
	assert.Equal(t, 0.0, sp.created.BasePrice)
	assert.Equal(t, 1, sp.created.DurationDays)
}

func TestEnsure_FailureDisablesUploads(t *testing.T) {
	sp := &fakeSpecialists{createErr: &apiclient.APIError{Status: http.StatusBadRequest, Message: "Title taken"}}
	deps, _, _ := newDeps(sp, &fakeMedia{})
	s := NewCreate(deps, Options{})

	_, err := s.Ensure(context.Background())
	require.Error(t, err)
	_, err = s.Ensure(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, sp.creates)

	_, err = s.Attach(context.Background(), pngFile("a.png"))
	assert.ErrorIs(t, err, ErrNoTarget)

	snap := s.Snapshot()
	assert.False(t, snap.CanUpload)
	assert.Equal(t, "Title taken", snap.Error)
}

func TestEdit_NeverCreates(t *testing.T) {
	sp := &fakeSpecialists{}
	m := &fakeMedia{existing: []domain.Media{{ID: "old", DisplayOrder: 0}}}
	deps, _, _ := newDeps(sp, m)
	s := NewEdit(deps, Options{}, "s-42")

	id, err := s.Ensure(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "s-42", id)
	assert.Zero(t, sp.creates)

	_, err = s.Attach(context.Background(), pngFile("new.png"))
	require.NoError(t, err)

	ups := m.uploadsFor("new.png")
	require.Len(t, ups, 1)
	assert.Equal(t, "s-42", ups[0].target)
	assert.Equal(t, 1, ups[0].order)
	assert.True(t, s.MeetsMinimum())
}

func TestAttach_IndependentFailures(t *testing.T) {
	m := &fakeMedia{failures: map[string]int{"two.png": 1}}
	deps, cache, rec := newDeps(&fakeSpecialists{}, m)
	s := NewCreate(deps, Options{})
	ctx := context.Background()
	_, err := s.Ensure(ctx)
	require.NoError(t, err)

	mediaKey := querycache.Key(querycache.KeySpecialistMedia, "draft-1")
	require.NoError(t, cache.Set(ctx, mediaKey, []domain.Media{}))

	one, two, three := pngFile("one.png"), pngFile("two.png"), jpegFile("three.jpg")
	rejected, err := s.Attach(ctx, one, two, three)
	require.NoError(t, err)
	assert.Empty(t, rejected)

	uploaded := s.Uploaded()
	failed := s.Failed()
	require.Len(t, uploaded, 2)
	require.Len(t, failed, 1)
	assert.Equal(t, two.ID, failed[0].FileID)
	assert.Equal(t, "storage unavailable", failed[0].Err)

	items := s.Items()
	require.Len(t, items, 3)
	for i, it := range items {
		assert.Equal(t, i, it.DisplayOrder)
	}

	assert.Equal(t, []State{Uploading, Failed}, rec.states(two.ID))
	assert.Equal(t, []State{Uploading, Uploaded}, rec.states(one.ID))

	var cached []domain.Media
	ok, _ := cache.Get(ctx, mediaKey, &cached)
	assert.False(t, ok, "media cache must be invalidated after uploads")
}

func TestRetry_OnlyFailedFile(t *testing.T) {
	m := &fakeMedia{failures: map[string]int{"two.png": 1}}
	deps, _, _ := newDeps(&fakeSpecialists{}, m)
	s := NewCreate(deps, Options{})
	ctx := context.Background()
	_, err := s.Ensure(ctx)
	require.NoError(t, err)

	one, two := pngFile("one.png"), pngFile("two.png")
	_, err = s.Attach(ctx, one, two)
	require.NoError(t, err)

	assert.ErrorIs(t, s.Retry(ctx, one.ID), ErrNotFailed)
	assert.ErrorIs(t, s.Retry(ctx, "missing"), ErrUnknownFile)

	require.NoError(t, s.Retry(ctx, two.ID))
	assert.Empty(t, s.Failed())
	assert.Len(t, s.Uploaded(), 2)

	assert.Len(t, m.uploadsFor("one.png"), 1, "succeeded file is not re-sent")
	retried := m.uploadsFor("two.png")
	require.Len(t, retried, 1)
	assert.Equal(t, 1, retried[0].order)
	assert.Equal(t, pngHeader, retried[0].body)
}

func TestRetry_RenewedFailureStaysFailed(t *testing.T) {
	m := &fakeMedia{failures: map[string]int{"two.png": 2}}
	deps, _, _ := newDeps(&fakeSpecialists{}, m)
	s := NewCreate(deps, Options{})
	ctx := context.Background()
	_, _ = s.Ensure(ctx)

	two := pngFile("two.png")
	_, err := s.Attach(ctx, two)
	require.NoError(t, err)

	assert.Error(t, s.Retry(ctx, two.ID))
	require.Len(t, s.Failed(), 1)
	assert.False(t, s.MeetsMinimum())
}

func TestRetry_RejectedWhileUploading(t *testing.T) {
	m := &fakeMedia{failures: map[string]int{"slow.png": 1}}
	deps, _, _ := newDeps(&fakeSpecialists{}, m)
	s := NewCreate(deps, Options{})
	ctx := context.Background()
	_, _ = s.Ensure(ctx)

	slow := pngFile("slow.png")
	_, err := s.Attach(ctx, slow)
	require.NoError(t, err)

	m.block = make(chan struct{})
	done := make(chan error, 1)
	go func() { done <- s.Retry(ctx, slow.ID) }()

	require.Eventually(t, func() bool {
		items := s.Items()
		return len(items) == 1 && items[0].State == Uploading
	}, time.Second, 5*time.Millisecond)
	assert.ErrorIs(t, s.Retry(ctx, slow.ID), ErrUploadInFlight)

	close(m.block)
	assert.NoError(t, <-done)
	assert.Len(t, s.Uploaded(), 1)
}

func TestAttach_LimitsAndValidation(t *testing.T) {
	m := &fakeMedia{}
	deps, _, _ := newDeps(&fakeSpecialists{}, m)
	s := NewCreate(deps, Options{MaxFiles: 3})
	ctx := context.Background()
	_, _ = s.Ensure(ctx)

	bad := FromBytes("notes.txt", []byte("plain text"))
	rejected, err := s.Attach(ctx, pngFile("a.png"), bad, pngFile("b.png"))
	require.NoError(t, err)
	require.Len(t, rejected, 1)
	assert.ErrorIs(t, rejected[0].Err, ErrUnsupportedType)

	rejected, err = s.Attach(ctx, pngFile("c.png"), pngFile("d.png"))
	require.NoError(t, err)
	require.Len(t, rejected, 1)
	assert.Equal(t, "d.png", rejected[0].Name)
	assert.ErrorIs(t, rejected[0].Err, ErrTooManyFiles)

	assert.Len(t, s.Uploaded(), 3)
	assert.Empty(t, m.uploadsFor("notes.txt"))
}

func TestFinalize_PublishesInSameUpdate(t *testing.T) {
	sp := &fakeSpecialists{}
	deps, cache, _ := newDeps(sp, &fakeMedia{})
	s := NewCreate(deps, Options{})
	ctx := context.Background()
	_, _ = s.Ensure(ctx)
	_, _ = s.Attach(ctx, pngFile("a.png"))
	require.NoError(t, cache.Set(ctx, querycache.KeySpecialists, []string{"stale"}))

	title := "Company incorporation"
	got, err := s.Finalize(ctx, domain.UpdateSpecialistRequest{Title: &title})
	require.NoError(t, err)
	assert.False(t, got.IsDraft)

	require.Len(t, sp.updates, 1)
	assert.Equal(t, "draft-1", sp.updateIDs[0])
	require.NotNil(t, sp.updates[0].IsDraft)
	assert.False(t, *sp.updates[0].IsDraft)
	assert.Equal(t, title, *sp.updates[0].Title)

	var ids []string
	ok, _ := cache.Get(ctx, querycache.KeySpecialists, &ids)
	assert.False(t, ok)

	_, err = s.Attach(ctx, pngFile("late.png"))
	assert.ErrorIs(t, err, ErrClosed)
}

func TestOptions_DefaultMinimumIsOne(t *testing.T) {
	m := &fakeMedia{}
	deps, _, _ := newDeps(&fakeSpecialists{}, m)
	s := NewCreate(deps, Options{})
	ctx := context.Background()
	_, _ = s.Ensure(ctx)

	assert.False(t, s.MeetsMinimum())
	assert.False(t, s.Snapshot().MeetsMinimum)

	_, err := s.Attach(ctx, pngFile("one.png"))
	require.NoError(t, err)
	assert.True(t, s.MeetsMinimum())
}

func TestFinalize_WithoutMinimumStillAllowed(t *testing.T) {
	sp := &fakeSpecialists{}
	deps, _, _ := newDeps(sp, &fakeMedia{})
	s := NewCreate(deps, Options{MinFiles: 1})
	_, _ = s.Ensure(context.Background())

	assert.False(t, s.MeetsMinimum())
	_, err := s.Finalize(context.Background(), domain.UpdateSpecialistRequest{})
	assert.NoError(t, err)
}

func TestAbandon_NoServerCall(t *testing.T) {
	sp := &fakeSpecialists{}
	deps, _, rec := newDeps(sp, &fakeMedia{})
	s := NewCreate(deps, Options{})
	ctx := context.Background()
	_, _ = s.Ensure(ctx)
	_, _ = s.Attach(ctx, pngFile("a.png"))
	before := len(rec.events)

	s.Abandon()
	s.Abandon()

	assert.True(t, s.Closed())
	assert.Empty(t, s.Items())
	assert.Empty(t, sp.updates)
	assert.Equal(t, before, len(rec.events))
	_, err := s.Finalize(ctx, domain.UpdateSpecialistRequest{})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestRejection_JSON(t *testing.T) {
	b, err := Rejection{Name: "a.pdf", Err: ErrUnsupportedType}.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"a.pdf","error":"only JPEG, PNG and WEBP images are allowed"}`, string(b))
}

