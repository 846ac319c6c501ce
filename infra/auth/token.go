package auth

// TokenProvider supplies an access token for API authentication.
type TokenProvider interface {
	AccessToken() (string, error)
}

// FileTokenProvider reads a bearer token from a file on disk. The file is
// re-read on every call so a fresh login is picked up without a restart.
type FileTokenProvider struct {
	path string
}

// NewFileTokenProvider creates a TokenProvider that reads from the given file path.
func NewFileTokenProvider(path string) *FileTokenProvider {
	return &FileTokenProvider{path: path}
}

// AccessToken returns the stored access token. The file may hold the JSON
// written by OAuthAuthenticator or a hand-provisioned bare token.
func (f *FileTokenProvider) AccessToken() (string, error) {
	tok, err := readToken(f.path)
	if err != nil {
		return "", err
	}
	return tok.AccessToken, nil
}
