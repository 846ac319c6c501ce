package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/CrestNiraj12/twiddle/app"
	"github.com/CrestNiraj12/twiddle/domain"
	"github.com/CrestNiraj12/twiddle/infra/config"
	"github.com/CrestNiraj12/twiddle/timeline"
	"github.com/CrestNiraj12/twiddle/tui/feed"
)

func TestResolveVersionInfo(t *testing.T) {
	settings := map[string]string{
		"vcs.revision": "0123456789abcdef",
		"vcs.time":     "2026-01-02T03:04:05Z",
	}
	tests := []struct {
		name          string
		v, c, d       string
		moduleVersion string
		wantV         string
		wantC         string
		wantD         string
	}{
		{name: "ldflags win", v: "1.0.0", c: "abc", d: "today", moduleVersion: "v2.0.0", wantV: "1.0.0", wantC: "abc", wantD: "today"},
		{name: "falls back to build info", v: "dev", c: "none", d: "unknown", moduleVersion: "v2.0.0", wantV: "v2.0.0", wantC: "0123456789ab", wantD: "2026-01-02T03:04:05Z"},
		{name: "devel module keeps dev", v: "dev", c: "none", d: "unknown", moduleVersion: "(devel)", wantV: "dev", wantC: "0123456789ab", wantD: "2026-01-02T03:04:05Z"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v, c, d := resolveVersionInfo(tc.v, tc.c, tc.d, tc.moduleVersion, settings)
			if v != tc.wantV || c != tc.wantC || d != tc.wantD {
				t.Fatalf("got (%q, %q, %q), want (%q, %q, %q)", v, c, d, tc.wantV, tc.wantC, tc.wantD)
			}
		})
	}
}

func TestNewApp_RegistersCommands(t *testing.T) {
	a := newApp()
	for _, name := range []string{"run", "fetch", "image", "login", "profile", "config", "version"} {
		if a.Command(name) == nil {
			t.Fatalf("missing command %q", name)
		}
	}
}

// runApp executes the CLI with an isolated config and returns stdout.
func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("TWIDDLE_CONFIG", filepath.Join(dir, "config.toml"))
	t.Setenv("TWIDDLE_AUTH_DIR", filepath.Join(dir, "auth"))

	var out, errOut bytes.Buffer
	a := newApp()
	a.Writer = &out
	a.ErrWriter = &errOut
	err := a.RunContext(context.Background(), append([]string{"twiddle"}, args...))
	return out.String(), err
}

func TestConfigCommand_PrintsEffectiveConfig(t *testing.T) {
	out, err := runApp(t, "--source", "tag:go", "--log-level", "debug", "config")
	if err != nil {
		t.Fatalf("config command failed: %v", err)
	}
	for _, want := range []string{`source = "tag:go"`, `log_level = "debug"`, `instance = "https://mastodon.social"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestConfigCommand_ExplicitFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.toml")
	if err := os.WriteFile(path, []byte("page_size = 7\n"), 0o600); err != nil {
		t.Fatalf("write config failed: %v", err)
	}
	out, err := runApp(t, "--config", path, "config")
	if err != nil {
		t.Fatalf("config command failed: %v", err)
	}
	if !strings.Contains(out, "page_size = 7") {
		t.Fatalf("expected page size from file:\n%s", out)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := runApp(t, "version")
	if err != nil {
		t.Fatalf("version command failed: %v", err)
	}
	if !strings.HasPrefix(out, domain.AppTitle+" ") || !strings.Contains(out, "commit:") {
		t.Fatalf("unexpected version output: %q", out)
	}
}

func TestFetchCommand_RejectsBadPages(t *testing.T) {
	if _, err := runApp(t, "fetch", "--pages", "0"); err == nil {
		t.Fatalf("expected error for --pages 0")
	}
}

func TestImageCommand_RequiresURL(t *testing.T) {
	if _, err := runApp(t, "image"); err == nil || !strings.Contains(err.Error(), "missing image url") {
		t.Fatalf("expected missing url error, got %v", err)
	}
}

func TestNewEnv_WiresStoreAndInstance(t *testing.T) {
	cfg := config.Default()
	cfg.InstanceURL = "https://example.social/"
	cfg.AuthDir = t.TempDir()
	cfg.Source = "tag:go"

	e, err := newEnv(context.Background(), cfg, envOptions{logOut: io.Discard, prompt: io.Discard})
	if err != nil {
		t.Fatalf("newEnv failed: %v", err)
	}
	defer e.close()

	if e.instance != "https://example.social" {
		t.Fatalf("unexpected instance: %q", e.instance)
	}
	if e.source.String() != "tag:go" || e.store == nil || e.store.LoggedIn() {
		t.Fatalf("unexpected env: source=%s store=%v", e.source, e.store)
	}
}

func TestNewEnv_RejectsBadSource(t *testing.T) {
	cfg := config.Default()
	cfg.AuthDir = t.TempDir()
	cfg.Source = "list:1"
	if _, err := newEnv(context.Background(), cfg, envOptions{logOut: io.Discard}); err == nil {
		t.Fatalf("expected error for unknown source")
	}
}

type okAuth struct{}

func (okAuth) Authenticate(context.Context) error { return nil }

// pagedTimeline serves posts total..1 newest first, honoring max_id.
type pagedTimeline struct {
	total int
	fail  map[string]error // keyed by MaxID
}

func (p *pagedTimeline) Page(_ context.Context, q app.PageQuery) ([]domain.Post, error) {
	if err := p.fail[q.MaxID]; err != nil {
		return nil, err
	}
	start := p.total
	if q.MaxID != "" {
		n, _ := strconv.Atoi(q.MaxID)
		start = n - 1
	}
	var out []domain.Post
	for id := start; id >= 1 && len(out) < q.Limit; id-- {
		out = append(out, testPost(id))
	}
	return out, nil
}

func testPost(id int) domain.Post {
	return domain.Post{
		ID:        strconv.Itoa(id),
		Author:    domain.Author{ID: "a1", Handle: "ada@example.social", DisplayName: "Ada"},
		Text:      fmt.Sprintf("post %d", id),
		CreatedAt: time.Date(2026, 1, 1, 0, id, 0, 0, time.UTC),
	}
}

func newFetchStore(tl app.TimelineService, opts ...timeline.Option) *timeline.Store {
	return timeline.New(timeline.Deps{Auth: okAuth{}, Timeline: tl}, append([]timeline.Option{timeline.WithPageSize(10)}, opts...)...)
}

func TestFetchPages_LoadsRequestedPages(t *testing.T) {
	var progress bytes.Buffer
	store := newFetchStore(&pagedTimeline{total: 25}, timeline.WithListener(progressListener(&progress)))

	posts, err := fetchPages(context.Background(), store, 2)
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if len(posts) != 20 || posts[0].ID != "25" || posts[19].ID != "6" {
		t.Fatalf("unexpected posts: len=%d", len(posts))
	}
	if got := progress.String(); got != "initial: 10 posts\nmore: 10 posts\n" {
		t.Fatalf("unexpected progress: %q", got)
	}
}

func TestFetchPages_StopsAtEndOfTimeline(t *testing.T) {
	store := newFetchStore(&pagedTimeline{total: 15})
	posts, err := fetchPages(context.Background(), store, 10)
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if len(posts) != 15 || store.HasMore() {
		t.Fatalf("expected the whole timeline and no more pages, got %d hasMore=%v", len(posts), store.HasMore())
	}
}

func TestFetchPages_LaterPageFailureKeepsLoadedPosts(t *testing.T) {
	boom := errors.New("boom")
	store := newFetchStore(&pagedTimeline{total: 25, fail: map[string]error{"16": boom}})
	posts, err := fetchPages(context.Background(), store, 3)
	if !errors.Is(err, boom) {
		t.Fatalf("expected page error, got %v", err)
	}
	if len(posts) != 10 {
		t.Fatalf("expected the first page to survive, got %d", len(posts))
	}
}

func TestFetchPages_LoginFailure(t *testing.T) {
	store := timeline.New(timeline.Deps{Timeline: &pagedTimeline{total: 5}})
	if _, err := fetchPages(context.Background(), store, 1); !errors.Is(err, domain.ErrAuthFailed) {
		t.Fatalf("expected auth failure, got %v", err)
	}
}

func TestPrintPosts(t *testing.T) {
	p := testPost(3)
	p.Text = "line one\nline two"
	p.Media = []domain.Media{{ID: "m1", Type: "image", URL: "https://files.example/a.png"}}
	p.ReplyCount, p.RepostCount, p.FavoriteCount = 1, 2, 3

	var buf bytes.Buffer
	if err := printPosts(&buf, []domain.Post{p}); err != nil {
		t.Fatalf("print failed: %v", err)
	}
	want := "2026-01-01 00:03  Ada (@ada@example.social)  #3\n" +
		"    line one\n" +
		"    line two\n" +
		"    [1 attachment]\n" +
		"    replies 1  boosts 2  favs 3\n\n"
	if buf.String() != want {
		t.Fatalf("unexpected output:\n%q\nwant:\n%q", buf.String(), want)
	}
}

func TestPrintProfile(t *testing.T) {
	var buf bytes.Buffer
	err := printProfile(&buf, domain.Profile{
		Handle:         "ada",
		Bio:            "hello",
		Bot:            true,
		PostsCount:     4,
		FollowersCount: 5,
		FollowingCount: 6,
		CreatedAt:      time.Date(2020, 5, 6, 0, 0, 0, 0, time.UTC),
	}, []byte("\x89PNG\r\n\x1a\n0000"))
	if err != nil {
		t.Fatalf("print failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"ada (@ada) [bot]", "hello", "posts 4  followers 5  following 6", "joined 2020-05-06", "image/png"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRefreshJob_ForwardsOnlyNewsAndFailures(t *testing.T) {
	tests := []struct {
		name  string
		added []domain.Post
		err   error
		sent  bool
	}{
		{name: "new posts", added: []domain.Post{testPost(1)}, sent: true},
		{name: "nothing new", sent: false},
		{name: "failure", err: errors.New("timeout"), sent: true},
		{name: "logged out", err: domain.ErrUnauthenticated, sent: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var msgs []tea.Msg
			job := refreshJob(func(context.Context) ([]domain.Post, error) {
				return tc.added, tc.err
			}, func(m tea.Msg) { msgs = append(msgs, m) })

			added, err := job(context.Background())
			if len(added) != len(tc.added) || !errors.Is(err, tc.err) {
				t.Fatalf("job must pass through results, got %d %v", len(added), err)
			}
			if (len(msgs) == 1) != tc.sent {
				t.Fatalf("sent=%v, want %v", len(msgs) == 1, tc.sent)
			}
			if tc.sent {
				res := msgs[0].(feed.ResultMsg).Result
				if res.Op != timeline.OpRefresh || len(res.Posts) != len(tc.added) {
					t.Fatalf("unexpected forwarded result: %+v", res)
				}
			}
		})
	}
}
