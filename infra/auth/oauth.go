package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/CrestNiraj12/twiddle/domain"
)

const (
	oauthScope         = "read"
	loginTimeout       = 2 * time.Minute
	authRequestTimeout = 15 * time.Second
)

type oauthClientCredentials struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// OAuthAuthenticator implements app.Authenticator with Mastodon's
// authorization code flow (PKCE) and a loopback redirect.
type OAuthAuthenticator struct {
	instanceURL  string
	tokenPath    string
	clientPath   string
	callbackPort int

	httpClient  *http.Client
	openBrowser func(string) error
	prompt      io.Writer
	timeout     time.Duration
}

// NewOAuthAuthenticator creates an authenticator that keeps its token and
// registered client credentials at the given paths. Login prompts are
// written to prompt.
func NewOAuthAuthenticator(instanceURL, tokenPath, clientPath string, callbackPort int, prompt io.Writer) *OAuthAuthenticator {
	if prompt == nil {
		prompt = io.Discard
	}
	return &OAuthAuthenticator{
		instanceURL:  strings.TrimRight(instanceURL, "/"),
		tokenPath:    tokenPath,
		clientPath:   clientPath,
		callbackPort: callbackPort,
		httpClient:   &http.Client{Timeout: authRequestTimeout},
		openBrowser:  openURL,
		prompt:       prompt,
		timeout:      loginTimeout,
	}
}

// Authenticate guarantees a valid OAuth token exists at the token path.
// It validates an existing token and falls back to browser login if needed.
func (a *OAuthAuthenticator) Authenticate(ctx context.Context) error {
	if tok, err := readToken(a.tokenPath); err == nil && tok.AccessToken != "" {
		valid, err := a.validateToken(ctx, tok.AccessToken)
		if err != nil {
			return err
		}
		if valid {
			return nil
		}
	}

	creds, err := a.loadOrCreateClient(ctx)
	if err != nil {
		return err
	}

	tok, err := a.authorize(ctx, creds)
	if err != nil {
		return err
	}
	return writeToken(a.tokenPath, tok)
}

func (a *OAuthAuthenticator) redirectURI(port int) string {
	return fmt.Sprintf("http://127.0.0.1:%d/callback", port)
}

func (a *OAuthAuthenticator) validateToken(ctx context.Context, token string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.instanceURL+"/api/v1/accounts/verify_credentials", nil)
	if err != nil {
		return false, fmt.Errorf("creating token validation request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("validating oauth token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return false, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return false, fmt.Errorf("token validation failed: %d %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	return true, nil
}

func (a *OAuthAuthenticator) loadOrCreateClient(ctx context.Context) (oauthClientCredentials, error) {
	if data, err := os.ReadFile(a.clientPath); err == nil {
		var creds oauthClientCredentials
		if err := json.Unmarshal(data, &creds); err == nil && creds.ClientID != "" && creds.ClientSecret != "" {
			return creds, nil
		}
	}

	form := url.Values{}
	form.Set("client_name", domain.AppTitle)
	form.Set("redirect_uris", a.redirectURI(a.callbackPort))
	form.Set("scopes", oauthScope)
	form.Set("website", "https://github.com/CrestNiraj12/twiddle")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.instanceURL+"/api/v1/apps", strings.NewReader(form.Encode()))
	if err != nil {
		return oauthClientCredentials{}, fmt.Errorf("creating oauth app registration request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return oauthClientCredentials{}, fmt.Errorf("registering oauth app: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return oauthClientCredentials{}, fmt.Errorf("reading oauth app registration response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return oauthClientCredentials{}, fmt.Errorf("oauth app registration failed: %d %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var creds oauthClientCredentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return oauthClientCredentials{}, fmt.Errorf("parsing oauth app registration response: %w", err)
	}
	if creds.ClientID == "" || creds.ClientSecret == "" {
		return oauthClientCredentials{}, errors.New("oauth app registration returned empty client credentials")
	}

	if err := writeJSONFile(a.clientPath, creds); err != nil {
		return oauthClientCredentials{}, fmt.Errorf("writing oauth client credentials: %w", err)
	}
	return creds, nil
}

func (a *OAuthAuthenticator) oauthConfig(creds oauthClientCredentials, redirectURI string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:   a.instanceURL + "/oauth/authorize",
			TokenURL:  a.instanceURL + "/oauth/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
		RedirectURL: redirectURI,
		Scopes:      []string{oauthScope},
	}
}

// authorize runs the browser part of the flow: it serves the loopback
// callback, opens the authorization page and exchanges the returned code.
func (a *OAuthAuthenticator) authorize(ctx context.Context, creds oauthClientCredentials) (*oauth2.Token, error) {
	state, err := randomState()
	if err != nil {
		return nil, fmt.Errorf("generating oauth state: %w", err)
	}
	verifier := oauth2.GenerateVerifier()

	ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", a.callbackPort))
	if err != nil {
		return nil, fmt.Errorf("oauth callback server: %w", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	conf := a.oauthConfig(creds, a.redirectURI(port))

	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)
	srv := &http.Server{Handler: callbackHandler(state, codeCh, errCh), ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			select {
			case errCh <- fmt.Errorf("oauth callback server: %w", err):
			default:
			}
		}
	}()
	defer func() { _ = srv.Shutdown(context.Background()) }()

	authURL := conf.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))
	fmt.Fprintf(a.prompt, "Opening browser for OAuth login...\nIf it does not open, visit:\n%s\n\n", authURL)
	_ = a.openBrowser(authURL)

	timeout := time.NewTimer(a.timeout)
	defer timeout.Stop()

	var code string
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case err := <-errCh:
		return nil, err
	case code = <-codeCh:
	case <-timeout.C:
		return nil, errors.New("oauth login timed out")
	}

	exchangeCtx := context.WithValue(ctx, oauth2.HTTPClient, a.httpClient)
	tok, err := conf.Exchange(exchangeCtx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("exchanging oauth code: %w", err)
	}
	if strings.TrimSpace(tok.AccessToken) == "" {
		return nil, errors.New("oauth token response missing access token")
	}
	return tok, nil
}

func callbackHandler(state string, codeCh chan<- string, errCh chan<- error) http.Handler {
	fail := func(w http.ResponseWriter, msg string, err error) {
		http.Error(w, msg, http.StatusBadRequest)
		select {
		case errCh <- err:
		default:
		}
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/callback" {
			http.NotFound(w, r)
			return
		}
		q := r.URL.Query()
		if q.Get("state") != state {
			fail(w, "invalid oauth state", errors.New("oauth state mismatch"))
			return
		}
		if e := q.Get("error"); e != "" {
			fail(w, "authorization denied", fmt.Errorf("oauth authorization error: %s", e))
			return
		}
		code := q.Get("code")
		if code == "" {
			fail(w, "missing oauth code", errors.New("oauth callback missing code"))
			return
		}
		_, _ = io.WriteString(w, domain.AppTitle+" login complete. You can return to the terminal.")
		select {
		case codeCh <- code:
		default:
		}
	})
}

func openURL(u string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", u).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", u).Start()
	default:
		return exec.Command("xdg-open", u).Start()
	}
}

func randomState() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// readToken accepts a JSON-encoded oauth2.Token or a bare access token.
func readToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	raw := strings.TrimSpace(string(data))
	if raw == "" {
		return nil, fmt.Errorf("token file %s is empty", path)
	}
	if !strings.HasPrefix(raw, "{") {
		return &oauth2.Token{AccessToken: raw, TokenType: "Bearer"}, nil
	}

	var tok oauth2.Token
	if err := json.Unmarshal([]byte(raw), &tok); err != nil {
		return nil, fmt.Errorf("parsing token file %s: %w", path, err)
	}
	tok.AccessToken = strings.TrimSpace(tok.AccessToken)
	if tok.AccessToken == "" {
		return nil, fmt.Errorf("token file %s has no access token", path)
	}
	return &tok, nil
}

func writeToken(path string, tok *oauth2.Token) error {
	if err := writeJSONFile(path, tok); err != nil {
		return fmt.Errorf("writing oauth token: %w", err)
	}
	return nil
}

func writeJSONFile(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating auth directory: %w", err)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
