package google

import (
	"sync"

	"golang.org/x/oauth2"
)

// persistingTokenSource wraps an auto-refreshing oauth2.TokenSource and
// invokes onRotate whenever the underlying source hands back a different
// access token. Persistence of rotated tokens is decoupled from the API
// call that triggered the refresh: onRotate must not fail the call.
type persistingTokenSource struct {
	mu         sync.Mutex
	src        oauth2.TokenSource
	lastAccess string
	onRotate   func(*oauth2.Token)
}

func newPersistingTokenSource(src oauth2.TokenSource, current *oauth2.Token, onRotate func(*oauth2.Token)) *persistingTokenSource {
	ts := &persistingTokenSource{src: src, onRotate: onRotate}
	if current != nil {
		ts.lastAccess = current.AccessToken
	}
	return ts
}

func (s *persistingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.src.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	rotated := tok.AccessToken != "" && tok.AccessToken != s.lastAccess
	if rotated {
		s.lastAccess = tok.AccessToken
	}
	s.mu.Unlock()

	if rotated && s.onRotate != nil {
		s.onRotate(tok)
	}
	return tok, nil
}
