// Package draft runs the create and edit flows of a specialist listing.
//
// A create session obtains a server-side draft on Ensure so that images can
// be uploaded before the form is complete. Every file is uploaded on its
// own; one failure never affects another file, the draft or finished
// uploads. Finalize writes the real content and publishes the listing in
// the same update. Abandon only drops local state: the draft stays on the
// server until the backend cleans it up.
package draft

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"anycomp/internal/apiclient"
	"anycomp/internal/domain"
	"anycomp/internal/querycache"
)

const (
	DefaultMaxFiles = 3
	DefaultMinFiles = 1

	placeholderTitle       = "Draft Specialist"
	placeholderDescription = "This is a draft specialist. Please update the details."
)

var (
	ErrNoTarget       = errors.New("no specialist to upload to")
	ErrTooManyFiles   = errors.New("too many files")
	ErrUploadInFlight = errors.New("upload already in progress")
	ErrNotFailed      = errors.New("only failed uploads can be retried")
	ErrUnknownFile    = errors.New("unknown file")
	ErrClosed         = errors.New("draft session closed")
)

type Mode string

const (
	ModeCreate Mode = "create"
	ModeEdit   Mode = "edit"
)

// Specialists is the listing API used by a session.
type Specialists interface {
	Create(ctx context.Context, req domain.CreateSpecialistRequest) (*domain.Specialist, error)
	Update(ctx context.Context, id string, req domain.UpdateSpecialistRequest) (*domain.Specialist, error)
}

// Media is the upload API used by a session.
type Media interface {
	Upload(ctx context.Context, specialistID string, file apiclient.UploadFile, displayOrder *int) (*domain.Media, error)
	ListBySpecialist(ctx context.Context, specialistID string) ([]domain.Media, error)
}

type Deps struct {
	Specialists Specialists
	Media       Media
	Cache       querycache.Cache
	Log         zerolog.Logger
	Observer    Observer
}

type Options struct {
	MaxFiles int
	MinFiles int
}

func (o Options) withDefaults() Options {
	if o.MaxFiles <= 0 {
		o.MaxFiles = DefaultMaxFiles
	}
	if o.MinFiles <= 0 {
		o.MinFiles = DefaultMinFiles
	}
	return o
}

type Session struct {
	deps Deps
	opts Options
	mode Mode

	ensureMu sync.Mutex
	ensured  bool

	mu        sync.Mutex
	ensureErr error
	target    string
	existing  int
	nextOrder int
	items     []*Item
	byID      map[string]*Item
	closed    bool
	finalized bool
}

// NewCreate starts a create flow. Nothing is sent until Ensure.
func NewCreate(deps Deps, opts Options) *Session {
	return newSession(deps, opts, ModeCreate, "")
}

// NewEdit starts an edit flow against an existing specialist. It never
// creates a draft.
func NewEdit(deps Deps, opts Options, specialistID string) *Session {
	return newSession(deps, opts, ModeEdit, specialistID)
}

func newSession(deps Deps, opts Options, mode Mode, target string) *Session {
	if deps.Observer == nil {
		deps.Observer = func(Event) {}
	}
	return &Session{
		deps:   deps,
		opts:   opts.withDefaults(),
		mode:   mode,
		target: target,
		byID:   make(map[string]*Item),
	}
}

func (s *Session) Mode() Mode { return s.mode }

// Ensure makes sure the session has an upload target. In create mode the
// placeholder draft is created on the first call only; a failure is kept
// and returned from every later call. In edit mode the existing media count
// is loaded so new files are ordered after it.
func (s *Session) Ensure(ctx context.Context) (string, error) {
	s.ensureMu.Lock()
	defer s.ensureMu.Unlock()

	if s.ensured {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.target, s.ensureErr
	}
	s.ensured = true

	if s.mode == ModeEdit {
		s.loadExisting(ctx)
		return s.Target(), nil
	}

	created, err := s.deps.Specialists.Create(ctx, domain.CreateSpecialistRequest{
		Title:        placeholderTitle,
		Description:  placeholderDescription,
		BasePrice:    0,
		DurationDays: 1,
		IsDraft:      true,
	})
	if err != nil {
		err = fmt.Errorf("create draft specialist: %w", err)
		s.deps.Log.Error().Err(err).Msg("uploads disabled")
		s.mu.Lock()
		s.ensureErr = err
		s.mu.Unlock()
		return "", err
	}

	s.mu.Lock()
	s.target = created.ID
	s.mu.Unlock()
	s.deps.Log.Info().Str("specialist_id", created.ID).Msg("draft specialist created")
	return created.ID, nil
}

func (s *Session) loadExisting(ctx context.Context) {
	id := s.Target()
	key := querycache.Key(querycache.KeySpecialistMedia, id)
	media, err := querycache.Fetch(ctx, s.deps.Cache, key, func(ctx context.Context) ([]domain.Media, error) {
		return s.deps.Media.ListBySpecialist(ctx, id)
	})
	if err != nil {
		s.deps.Log.Warn().Err(err).Str("specialist_id", id).Msg("could not list existing media")
		return
	}

	next := len(media)
	for _, m := range media {
		if m.DisplayOrder >= next {
			next = m.DisplayOrder + 1
		}
	}
	s.mu.Lock()
	s.existing = len(media)
	s.nextOrder = next
	s.mu.Unlock()
}

// Target returns the specialist id uploads go to, or "".
func (s *Session) Target() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.target
}

// Attach validates files and uploads the accepted ones concurrently. It
// returns when every upload has settled. Files over the limit or failing
// validation are returned as rejections and never sent.
func (s *Session) Attach(ctx context.Context, files ...*File) ([]Rejection, error) {
	target, accepted, rejected, err := s.admit(files)
	if err != nil {
		return nil, err
	}
	if len(accepted) == 0 {
		return rejected, nil
	}

	var wg sync.WaitGroup
	for _, it := range accepted {
		wg.Add(1)
		go func(it *Item) {
			defer wg.Done()
			s.upload(ctx, target, it)
		}(it)
	}
	wg.Wait()

	s.invalidateMedia(ctx, target)
	return rejected, nil
}

func (s *Session) admit(files []*File) (string, []*Item, []Rejection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return "", nil, nil, ErrClosed
	}
	if s.target == "" {
		return "", nil, nil, ErrNoTarget
	}

	var (
		accepted []*Item
		rejected []Rejection
	)
	room := s.opts.MaxFiles - s.existing - len(s.items)
	for _, f := range files {
		if err := Validate(f); err != nil {
			rejected = append(rejected, Rejection{Name: fileName(f), Err: err})
			continue
		}
		if room <= 0 {
			rejected = append(rejected, Rejection{Name: f.Name, Err: ErrTooManyFiles})
			continue
		}
		room--

		it := &Item{
			FileID:       f.ID,
			Name:         f.Name,
			Size:         f.Size,
			MimeType:     f.MimeType,
			State:        Selected,
			DisplayOrder: s.nextOrder,
			file:         f,
		}
		s.nextOrder++
		s.items = append(s.items, it)
		s.byID[it.FileID] = it
		accepted = append(accepted, it)
	}

	for _, it := range accepted {
		s.transition(it, Uploading, nil, nil)
	}
	return s.target, accepted, rejected, nil
}

// Retry uploads a failed file again, with the same content and display
// order. A file that is uploading cannot be retried.
func (s *Session) Retry(ctx context.Context, fileID string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	it, ok := s.byID[fileID]
	if !ok {
		s.mu.Unlock()
		return ErrUnknownFile
	}
	switch it.State {
	case Uploading:
		s.mu.Unlock()
		return ErrUploadInFlight
	case Failed:
	default:
		s.mu.Unlock()
		return ErrNotFailed
	}
	target := s.target
	s.transition(it, Uploading, nil, nil)
	s.mu.Unlock()

	err := s.upload(ctx, target, it)
	s.invalidateMedia(ctx, target)
	return err
}

func (s *Session) upload(ctx context.Context, target string, it *Item) error {
	err := s.send(ctx, target, it)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.deps.Log.Warn().Err(err).Str("specialist_id", target).Str("file", it.Name).Msg("upload failed")
		s.transition(it, Failed, nil, err)
		return err
	}
	return nil
}

func (s *Session) send(ctx context.Context, target string, it *Item) error {
	rc, err := it.file.Open()
	if err != nil {
		return fmt.Errorf("open %s: %w", it.Name, err)
	}
	defer rc.Close()

	order := it.DisplayOrder
	m, err := s.deps.Media.Upload(ctx, target, apiclient.UploadFile{
		Name:        it.Name,
		ContentType: it.MimeType,
		Content:     rc,
	}, &order)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.transition(it, Uploaded, m, nil)
	s.mu.Unlock()
	return nil
}

// transition must be called with s.mu held.
func (s *Session) transition(it *Item, to State, m *domain.Media, err error) {
	it.State = to
	it.Err = ""
	if err != nil {
		it.Err = apiclient.Message(err, "Upload failed")
	}
	if m != nil {
		it.Media = m
	}
	if s.closed {
		return
	}
	s.deps.Observer(Event{
		SpecialistID: s.target,
		FileID:       it.FileID,
		Name:         it.Name,
		State:        to,
		Err:          it.Err,
	})
}

func (s *Session) invalidateMedia(ctx context.Context, target string) {
	if err := s.deps.Cache.Invalidate(ctx, querycache.Key(querycache.KeySpecialistMedia, target)); err != nil {
		s.deps.Log.Warn().Err(err).Msg("invalidate media cache")
	}
}

// Finalize writes content to the target and marks it published in the
// same update. The session is closed afterwards.
func (s *Session) Finalize(ctx context.Context, content domain.UpdateSpecialistRequest) (*domain.Specialist, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	target := s.target
	s.mu.Unlock()
	if target == "" {
		return nil, ErrNoTarget
	}

	published := false
	content.IsDraft = &published
	sp, err := s.deps.Specialists.Update(ctx, target, content)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.closed = true
	s.finalized = true
	s.mu.Unlock()

	if err := s.deps.Cache.Invalidate(ctx, querycache.KeySpecialists); err != nil {
		s.deps.Log.Warn().Err(err).Msg("invalidate specialists cache")
	}
	s.invalidateMedia(ctx, target)
	s.deps.Log.Info().Str("specialist_id", target).Str("mode", string(s.mode)).Msg("specialist saved")
	return sp, nil
}

// Abandon closes the session without telling the server. A created draft
// is left behind for server-side cleanup.
func (s *Session) Abandon() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	if s.mode == ModeCreate && s.target != "" && !s.finalized {
		s.deps.Log.Info().Str("specialist_id", s.target).Msg("draft abandoned, left for server cleanup")
	}
	s.items = nil
	s.byID = make(map[string]*Item)
}

func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Items returns copies of every tracked file in selection order.
func (s *Session) Items() []Item {
	return s.filter(func(*Item) bool { return true })
}

func (s *Session) Uploaded() []Item {
	return s.filter(func(it *Item) bool { return it.State == Uploaded })
}

func (s *Session) Failed() []Item {
	return s.filter(func(it *Item) bool { return it.State == Failed })
}

func (s *Session) filter(keep func(*Item) bool) []Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Item, 0, len(s.items))
	for _, it := range s.items {
		if keep(it) {
			cp := *it
			cp.file = nil
			out = append(out, cp)
		}
	}
	return out
}

// MeetsMinimum is a hint for the form; it never blocks Finalize.
func (s *Session) MeetsMinimum() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.existing
	for _, it := range s.items {
		if it.State == Uploaded {
			n++
		}
	}
	return n >= s.opts.MinFiles
}

func (s *Session) Snapshot() Snapshot {
	items := s.Items()
	snap := Snapshot{
		Mode:         s.mode,
		Items:        items,
		MeetsMinimum: s.MeetsMinimum(),
	}

	s.mu.Lock()
	snap.SpecialistID = s.target
	snap.CanUpload = s.target != "" && !s.closed
	ensureErr := s.ensureErr
	s.mu.Unlock()

	for _, it := range items {
		if it.State == Uploading {
			snap.Uploading = true
		}
	}
	if ensureErr != nil {
		snap.Error = apiclient.Message(ensureErr, "Failed to create draft")
	}
	return snap
}

func fileName(f *File) string {
	if f == nil {
		return ""
	}
	return f.Name
}
