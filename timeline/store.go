// Package timeline holds the client-side timeline: an ordered, deduplicated
// sequence of posts plus the login state, and the fetch operations that
// grow it (initial page, older pages, newer pages) and download images.
package timeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/CrestNiraj12/twiddle/app"
	"github.com/CrestNiraj12/twiddle/domain"
)

const (
	defaultPageSize        = 20
	maxPageSize            = 40
	defaultMaxRefreshPages = 5
)

// Op identifies a store operation.
type Op int

const (
	OpLogin Op = iota
	OpInitial
	OpMore
	OpRefresh
	OpProfile
	OpProfileImage
	OpImage
)

func (o Op) String() string {
	switch o {
	case OpLogin:
		return "login"
	case OpInitial:
		return "initial"
	case OpMore:
		return "more"
	case OpRefresh:
		return "refresh"
	case OpProfile:
		return "profile"
	case OpProfileImage:
		return "profile_image"
	case OpImage:
		return "image"
	default:
		return fmt.Sprintf("op(%d)", int(o))
	}
}

// Request describes one operation. Ref is the account id for
// OpProfileImage and the media URL for OpImage.
type Request struct {
	Op  Op
	Ref string
}

// FetchResult is the outcome of one operation. Posts holds only the posts
// that were newly stored; it may be non-empty even when Err is set (a
// refresh that failed part way through).
type FetchResult struct {
	Op      Op
	Ref     string
	Posts   []domain.Post
	Profile domain.Profile
	Image   []byte
	Err     error
}

// Listener is notified after every completed operation. It runs on the
// goroutine that performed the operation and must not block.
type Listener func(FetchResult)

// Recorder receives operation telemetry.
type Recorder interface {
	ObserveOperation(op string, elapsed time.Duration, err error)
	SetStoredPosts(n int)
}

// Deps holds the collaborators the store talks to. Plain struct, not a DI container.
type Deps struct {
	Auth     app.Authenticator
	Timeline app.TimelineService
	Accounts app.AccountService
	Media    app.MediaService
}

// Store owns the timeline. All methods are safe for concurrent use:
// network calls run without holding the lock and merges are serialized.
type Store struct {
	deps            Deps
	pageSize        int
	maxRefreshPages int
	logger          *slog.Logger
	recorder        Recorder
	listener        Listener

	mu         sync.Mutex
	posts      []domain.Post
	loggedIn   bool
	hasMore    bool
	generation uint64 // Bumped when a FetchInitial completes; the last to complete wins.
}

// New creates a store with injected collaborators.
func New(deps Deps, opts ...Option) *Store {
	s := &Store{
		deps:            deps,
		pageSize:        defaultPageSize,
		maxRefreshPages: defaultMaxRefreshPages,
		logger:          slog.New(slog.DiscardHandler),
		hasMore:         true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoggedIn reports whether a login has succeeded. Once true it stays true.
func (s *Store) LoggedIn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loggedIn
}

// HasMore reports whether older pages are believed to exist.
func (s *Store) HasMore() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasMore
}

// Len returns the number of stored posts.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.posts)
}

// Snapshot returns a copy of the stored posts, newest first.
func (s *Store) Snapshot() []domain.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clonePosts(s.posts)
}

// Login authenticates against the identity provider. On failure the
// session flag is left as it was and the error matches domain.ErrAuthFailed.
func (s *Store) Login(ctx context.Context) error {
	return s.Do(ctx, Request{Op: OpLogin}).Err
}

// FetchInitial replaces the timeline with the newest page.
func (s *Store) FetchInitial(ctx context.Context) ([]domain.Post, error) {
	res := s.Do(ctx, Request{Op: OpInitial})
	return res.Posts, res.Err
}

// FetchMore appends the page older than the oldest stored post and returns
// the posts that were added.
func (s *Store) FetchMore(ctx context.Context) ([]domain.Post, error) {
	res := s.Do(ctx, Request{Op: OpMore})
	return res.Posts, res.Err
}

// FetchRefresh prepends posts newer than the newest stored post and returns
// the posts that were added.
func (s *Store) FetchRefresh(ctx context.Context) ([]domain.Post, error) {
	res := s.Do(ctx, Request{Op: OpRefresh})
	return res.Posts, res.Err
}

// FetchProfile returns the authenticated user's profile.
func (s *Store) FetchProfile(ctx context.Context) (domain.Profile, error) {
	res := s.Do(ctx, Request{Op: OpProfile})
	return res.Profile, res.Err
}

// FetchProfileImage downloads the avatar of the given account.
func (s *Store) FetchProfileImage(ctx context.Context, accountID string) ([]byte, error) {
	res := s.Do(ctx, Request{Op: OpProfileImage, Ref: accountID})
	return res.Image, res.Err
}

// FetchImage downloads raw image bytes by URL. It does not require a login.
func (s *Store) FetchImage(ctx context.Context, url string) ([]byte, error) {
	res := s.Do(ctx, Request{Op: OpImage, Ref: url})
	return res.Image, res.Err
}

// Submit runs req on its own goroutine. The returned channel receives
// exactly one result and is then closed.
func (s *Store) Submit(ctx context.Context, req Request) <-chan FetchResult {
	ch := make(chan FetchResult, 1)
	go func() {
		defer close(ch)
		ch <- s.Do(ctx, req)
	}()
	return ch
}

// Do runs req synchronously, reports it to the recorder and listener, and
// returns the result.
func (s *Store) Do(ctx context.Context, req Request) FetchResult {
	start := time.Now()
	res := FetchResult{Op: req.Op, Ref: req.Ref}

	switch req.Op {
	case OpLogin:
		res.Err = s.login(ctx)
	case OpInitial:
		res.Posts, res.Err = s.fetchInitial(ctx)
	case OpMore:
		res.Posts, res.Err = s.fetchMore(ctx)
	case OpRefresh:
		res.Posts, res.Err = s.fetchRefresh(ctx)
	case OpProfile:
		res.Profile, res.Err = s.fetchProfile(ctx)
	case OpProfileImage:
		res.Image, res.Err = s.fetchProfileImage(ctx, req.Ref)
	case OpImage:
		res.Image, res.Err = s.fetchImage(ctx, req.Ref)
	default:
		res.Err = fmt.Errorf("unknown operation %s", req.Op)
	}

	s.report(res, time.Since(start))
	return res
}

func (s *Store) report(res FetchResult, elapsed time.Duration) {
	n := s.Len()
	if s.recorder != nil {
		s.recorder.ObserveOperation(res.Op.String(), elapsed, res.Err)
		s.recorder.SetStoredPosts(n)
	}

	attrs := []any{
		slog.String("op", res.Op.String()),
		slog.Duration("elapsed", elapsed),
		slog.Int("added", len(res.Posts)),
		slog.Int("stored", n),
	}
	if res.Ref != "" {
		attrs = append(attrs, slog.String("ref", res.Ref))
	}
	switch {
	case res.Err == nil:
		s.logger.Debug("timeline operation done", attrs...)
	case errors.Is(res.Err, domain.ErrStalePage), errors.Is(res.Err, context.Canceled):
		s.logger.Debug("timeline operation dropped", append(attrs, slog.Any("err", res.Err))...)
	default:
		s.logger.Warn("timeline operation failed", append(attrs, slog.Any("err", res.Err))...)
	}

	if s.listener != nil {
		s.listener(res)
	}
}

func (s *Store) login(ctx context.Context) error {
	if s.deps.Auth == nil {
		return fmt.Errorf("%w: no identity provider configured", domain.ErrAuthFailed)
	}
	if err := s.deps.Auth.Authenticate(ctx); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrAuthFailed, err)
	}
	s.mu.Lock()
	s.loggedIn = true
	s.mu.Unlock()
	return nil
}

func (s *Store) fetchInitial(ctx context.Context) ([]domain.Post, error) {
	if !s.LoggedIn() {
		return nil, domain.ErrUnauthenticated
	}
	page, err := s.deps.Timeline.Page(ctx, app.PageQuery{Limit: s.pageSize})
	if err != nil {
		return nil, fmt.Errorf("fetching timeline: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.posts = normalize(page)
	s.hasMore = len(page) >= s.pageSize
	return clonePosts(s.posts), nil
}

// cursor captures what a paging request needs under one lock.
type cursor struct {
	empty      bool
	newestID   string
	oldestID   string
	generation uint64
}

func (s *Store) cursor() (cursor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loggedIn {
		return cursor{}, domain.ErrUnauthenticated
	}
	c := cursor{empty: len(s.posts) == 0, generation: s.generation}
	if !c.empty {
		c.newestID = s.posts[0].ID
		c.oldestID = s.posts[len(s.posts)-1].ID
	}
	return c, nil
}

func (s *Store) fetchMore(ctx context.Context) ([]domain.Post, error) {
	c, err := s.cursor()
	if err != nil {
		return nil, err
	}
	if c.empty {
		return s.fetchInitial(ctx)
	}

	page, err := s.deps.Timeline.Page(ctx, app.PageQuery{Limit: s.pageSize, MaxID: c.oldestID})
	if err != nil {
		return nil, fmt.Errorf("fetching older posts: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != c.generation {
		return nil, domain.ErrStalePage
	}
	merged, added := merge(s.posts, page)
	s.posts = merged
	switch {
	case len(page) < s.pageSize:
		s.hasMore = false
	case len(added) > 0:
		s.hasMore = true
	case s.posts[len(s.posts)-1].ID != c.oldestID:
		// A concurrent FetchMore stored this page first and moved the cursor.
	default:
		s.hasMore = false
	}
	return clonePosts(added), nil
}

// fetchRefresh walks forward from the newest stored post with min_id so
// that no gap is left between the old top and the new one. The walk stops
// at an empty or short page, or after maxRefreshPages pages; anything
// newer is picked up by the next refresh.
func (s *Store) fetchRefresh(ctx context.Context) ([]domain.Post, error) {
	c, err := s.cursor()
	if err != nil {
		return nil, err
	}
	if c.empty {
		return s.fetchInitial(ctx)
	}

	var added []domain.Post
	minID := c.newestID
	for range s.maxRefreshPages {
		page, err := s.deps.Timeline.Page(ctx, app.PageQuery{Limit: s.pageSize, MinID: minID})
		if err != nil {
			return normalize(added), fmt.Errorf("fetching newer posts: %w", err)
		}
		if len(page) == 0 {
			break
		}

		s.mu.Lock()
		if s.generation != c.generation {
			s.mu.Unlock()
			return normalize(added), domain.ErrStalePage
		}
		merged, pageAdded := merge(s.posts, page)
		s.posts = merged
		s.mu.Unlock()
		added = append(added, clonePosts(pageAdded)...)

		next := newestID(page)
		if len(page) < s.pageSize || !idLess(minID, next) {
			break
		}
		minID = next
	}
	return normalize(added), nil
}

func (s *Store) fetchProfile(ctx context.Context) (domain.Profile, error) {
	if !s.LoggedIn() {
		return domain.Profile{}, domain.ErrUnauthenticated
	}
	p, err := s.deps.Accounts.CurrentProfile(ctx)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("fetching profile: %w", err)
	}
	return p, nil
}

func (s *Store) fetchProfileImage(ctx context.Context, accountID string) ([]byte, error) {
	if !s.LoggedIn() {
		return nil, domain.ErrUnauthenticated
	}
	if accountID == "" {
		return nil, errors.New("empty account id")
	}

	url := s.storedAvatarURL(accountID)
	if url == "" {
		p, err := s.deps.Accounts.ProfileByID(ctx, accountID)
		if err != nil {
			return nil, fmt.Errorf("looking up account %s: %w", accountID, err)
		}
		url = p.AvatarURL
	}
	if url == "" {
		return nil, fmt.Errorf("account %s has no avatar", accountID)
	}
	return s.fetchImage(ctx, url)
}

func (s *Store) storedAvatarURL(accountID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.posts {
		if p.Author.ID == accountID && p.Author.AvatarURL != "" {
			return p.Author.AvatarURL
		}
	}
	return ""
}

func (s *Store) fetchImage(ctx context.Context, url string) ([]byte, error) {
	if url == "" {
		return nil, errors.New("empty image url")
	}
	data, err := s.deps.Media.Download(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("downloading image: %w", err)
	}
	return data, nil
}
