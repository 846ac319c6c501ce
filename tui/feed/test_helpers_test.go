package feed

import (
	"context"
	"fmt"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/CrestNiraj12/twiddle/domain"
	"github.com/CrestNiraj12/twiddle/timeline"
)

// fakeStore returns scripted results and lets tests set what Snapshot sees.
type fakeStore struct {
	mu       sync.Mutex
	posts    []domain.Post
	hasMore  bool
	requests []timeline.Request
	results  map[timeline.Op]timeline.FetchResult
}

func newFakeStore(posts ...domain.Post) *fakeStore {
	return &fakeStore{posts: posts, hasMore: true, results: map[timeline.Op]timeline.FetchResult{}}
}

func (f *fakeStore) Snapshot() []domain.Post {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Post(nil), f.posts...)
}

func (f *fakeStore) HasMore() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hasMore
}

func (f *fakeStore) Do(_ context.Context, req timeline.Request) timeline.FetchResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	res := f.results[req.Op]
	res.Op, res.Ref = req.Op, req.Ref
	return res
}

func (f *fakeStore) ops() []timeline.Op {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]timeline.Op, 0, len(f.requests))
	for _, r := range f.requests {
		out = append(out, r.Op)
	}
	return out
}

func makePost(id int) domain.Post {
	return domain.Post{
		ID:        fmt.Sprint(id),
		Author:    domain.Author{ID: fmt.Sprintf("acct-%d", id), Handle: fmt.Sprintf("user%d@example.social", id), DisplayName: fmt.Sprintf("User %d", id)},
		Text:      fmt.Sprintf("post number %d #golang", id),
		CreatedAt: time.Date(2026, 1, 1, 0, id, 0, 0, time.UTC),
	}
}

// makePosts returns posts newest first: makePosts(3) → 3, 2, 1.
func makePosts(n int) []domain.Post {
	out := make([]domain.Post, 0, n)
	for i := n; i >= 1; i-- {
		out = append(out, makePost(i))
	}
	return out
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// runCmd executes cmd (and any batch inside it) and returns the ResultMsgs.
// Spinner ticks are ignored.
func runCmd(cmd tea.Cmd) []ResultMsg {
	if cmd == nil {
		return nil
	}
	var out []ResultMsg
	switch msg := cmd().(type) {
	case ResultMsg:
		out = append(out, msg)
	case tea.BatchMsg:
		for _, c := range msg {
			out = append(out, runCmd(c)...)
		}
	}
	return out
}

func loadedModel(store *fakeStore) Model {
	m := New(context.Background(), store, "home")
	m, _ = m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	m, _ = m.Update(ResultMsg{Result: timeline.FetchResult{Op: timeline.OpInitial, Posts: store.Snapshot()}})
	return m
}
