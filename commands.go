package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v2"

	"github.com/CrestNiraj12/twiddle/domain"
	"github.com/CrestNiraj12/twiddle/infra/logging"
	"github.com/CrestNiraj12/twiddle/infra/poller"
	"github.com/CrestNiraj12/twiddle/timeline"
	"github.com/CrestNiraj12/twiddle/tui"
	"github.com/CrestNiraj12/twiddle/tui/common"
	"github.com/CrestNiraj12/twiddle/tui/feed"
)

const timeLayout = "2006-01-02 15:04"

func runTUI(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	// The TUI owns the terminal, so logs go to a file.
	logFile, err := logging.OpenFile(cfg.LogFile)
	if err != nil {
		return err
	}
	defer logFile.Close()

	e, err := newEnv(c.Context, cfg, envOptions{logOut: logFile, prompt: c.App.ErrWriter})
	if err != nil {
		return err
	}
	defer e.close()

	// Login may print a URL and wait for the browser; do it before the
	// alt screen hides the prompt.
	if err := e.store.Login(c.Context); err != nil {
		return err
	}
	e.serveMetrics()

	p := tea.NewProgram(tui.NewApp(tui.Deps{Store: e.store, Source: e.source.String()}), tea.WithAltScreen())

	if cfg.RefreshInterval > 0 {
		pl, err := poller.New(cfg.RefreshInterval, 0, refreshJob(e.store.FetchRefresh, p.Send), e.logger)
		if err != nil {
			return err
		}
		pl.Start()
		defer func() {
			select {
			case <-pl.Stop().Done():
			case <-time.After(shutdownTimeout):
			}
		}()
	}

	_, err = p.Run()
	return err
}

// refreshJob wraps a background refresh so the view hears about new posts
// and failures. Quiet runs are not forwarded.
func refreshJob(refresh poller.Job, send func(tea.Msg)) poller.Job {
	return func(ctx context.Context) ([]domain.Post, error) {
		added, err := refresh(ctx)
		if len(added) > 0 || (err != nil && !errors.Is(err, domain.ErrUnauthenticated)) {
			send(feed.ResultMsg{Result: timeline.FetchResult{Op: timeline.OpRefresh, Posts: added, Err: err}})
		}
		return added, err
	}
}

func fetchCommand(c *cli.Context) error {
	pages := c.Int("pages")
	if pages < 1 {
		return fmt.Errorf("invalid --pages %d: must be at least 1", pages)
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	e, err := newEnv(c.Context, cfg, envOptions{
		logOut:   c.App.ErrWriter,
		prompt:   c.App.ErrWriter,
		listener: progressListener(c.App.ErrWriter),
	})
	if err != nil {
		return err
	}
	defer e.close()

	posts, fetchErr := fetchPages(c.Context, e.store, pages)
	if err := printPosts(c.App.Writer, posts); err != nil {
		return err
	}
	return fetchErr
}

// pager is the part of timeline.Store the fetch command drives.
type pager interface {
	Login(ctx context.Context) error
	FetchInitial(ctx context.Context) ([]domain.Post, error)
	FetchMore(ctx context.Context) ([]domain.Post, error)
	HasMore() bool
	Snapshot() []domain.Post
}

// fetchPages logs in and loads up to pages pages. When a later page fails
// the posts loaded so far are returned with the error.
func fetchPages(ctx context.Context, p pager, pages int) ([]domain.Post, error) {
	if err := p.Login(ctx); err != nil {
		return nil, err
	}
	if _, err := p.FetchInitial(ctx); err != nil {
		return nil, err
	}
	for i := 1; i < pages && p.HasMore(); i++ {
		if _, err := p.FetchMore(ctx); err != nil {
			return p.Snapshot(), err
		}
	}
	return p.Snapshot(), nil
}

func progressListener(w io.Writer) timeline.Listener {
	return func(res timeline.FetchResult) {
		switch res.Op {
		case timeline.OpInitial, timeline.OpMore, timeline.OpRefresh:
		default:
			return
		}
		if res.Err != nil {
			fmt.Fprintf(w, "%s: %v\n", res.Op, res.Err)
			return
		}
		fmt.Fprintf(w, "%s: %d %s\n", res.Op, len(res.Posts), plural(len(res.Posts), "post"))
	}
}

func printPosts(w io.Writer, posts []domain.Post) error {
	bw := bufio.NewWriter(w)
	for _, p := range posts {
		fmt.Fprintf(bw, "%s  %s (@%s)  #%s\n", p.CreatedAt.UTC().Format(timeLayout), p.Author.Name(), p.Author.Handle, p.ID)
		for _, line := range strings.Split(p.Text, "\n") {
			fmt.Fprintf(bw, "    %s\n", line)
		}
		if p.HasMedia() {
			fmt.Fprintf(bw, "    [%d %s]\n", len(p.Media), plural(len(p.Media), "attachment"))
		}
		fmt.Fprintf(bw, "    replies %d  boosts %d  favs %d\n\n", p.ReplyCount, p.RepostCount, p.FavoriteCount)
	}
	return bw.Flush()
}

func imageCommand(c *cli.Context) error {
	url := strings.TrimSpace(c.Args().First())
	if url == "" {
		return errors.New("missing image url")
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	e, err := newEnv(c.Context, cfg, envOptions{logOut: c.App.ErrWriter, prompt: c.App.ErrWriter})
	if err != nil {
		return err
	}
	defer e.close()

	data, err := e.store.FetchImage(c.Context, url)
	if err != nil {
		return err
	}
	if out := c.String("out"); out != "" {
		if err := os.WriteFile(out, data, 0o644); err != nil {
			return err
		}
		fmt.Fprintf(c.App.ErrWriter, "Saved %s (%s) to %s\n", common.HumanBytes(len(data)), http.DetectContentType(data), out)
		return nil
	}
	_, err = c.App.Writer.Write(data)
	return err
}

func loginCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	e, err := newEnv(c.Context, cfg, envOptions{logOut: c.App.ErrWriter, prompt: c.App.ErrWriter})
	if err != nil {
		return err
	}
	defer e.close()

	if err := e.store.Login(c.Context); err != nil {
		return err
	}
	profile, err := e.store.FetchProfile(c.Context)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Logged in to %s as @%s\n", e.instance, profile.Handle)
	return nil
}

func profileCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	e, err := newEnv(c.Context, cfg, envOptions{logOut: c.App.ErrWriter, prompt: c.App.ErrWriter})
	if err != nil {
		return err
	}
	defer e.close()

	if err := e.store.Login(c.Context); err != nil {
		return err
	}
	profile, err := e.store.FetchProfile(c.Context)
	if err != nil {
		return err
	}
	avatar, err := e.store.FetchProfileImage(c.Context, profile.ID)
	if err != nil {
		e.logger.Warn("avatar unavailable", slog.Any("err", err))
	}
	return printProfile(c.App.Writer, profile, avatar)
}

func printProfile(w io.Writer, p domain.Profile, avatar []byte) error {
	bw := bufio.NewWriter(w)
	name := p.DisplayName
	if name == "" {
		name = p.Handle
	}
	fmt.Fprintf(bw, "%s (@%s)", name, p.Handle)
	if p.Bot {
		fmt.Fprint(bw, " [bot]")
	}
	if p.Locked {
		fmt.Fprint(bw, " [locked]")
	}
	fmt.Fprintln(bw)
	if p.Bio != "" {
		fmt.Fprintf(bw, "%s\n", p.Bio)
	}
	fmt.Fprintf(bw, "posts %d  followers %d  following %d\n", p.PostsCount, p.FollowersCount, p.FollowingCount)
	if !p.CreatedAt.IsZero() {
		fmt.Fprintf(bw, "joined %s\n", p.CreatedAt.UTC().Format("2006-01-02"))
	}
	if p.URL != "" {
		fmt.Fprintf(bw, "%s\n", p.URL)
	}
	if len(avatar) > 0 {
		fmt.Fprintf(bw, "avatar %s %s\n", common.HumanBytes(len(avatar)), http.DetectContentType(avatar))
	}
	return bw.Flush()
}

func configCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	return cfg.Write(c.App.Writer)
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
