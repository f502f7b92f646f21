package auth

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
)

var ErrUnauthorized = errors.New("unauthorized")

// DefaultUserID is the tab owner in single-tenant deployments.
const DefaultUserID = "default"

// Authenticator guards the API with a static bearer token. With no token
// configured the service runs open, which is the expected mode for a
// personal dashboard on a private network.
type Authenticator struct {
	token string
}

func New(token string) *Authenticator {
	return &Authenticator{token: strings.TrimSpace(token)}
}

func (a *Authenticator) Open() bool { return a.token == "" }

// Authenticate resolves the user for a request, or ErrUnauthorized when a
// configured token is missing or wrong.
func (a *Authenticator) Authenticate(r *http.Request) (string, error) {
	if a.Open() {
		return DefaultUserID, nil
	}
	header := r.Header.Get("Authorization")
	presented, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return "", ErrUnauthorized
	}
	if subtle.ConstantTimeCompare([]byte(presented), []byte(a.token)) != 1 {
		return "", ErrUnauthorized
	}
	return DefaultUserID, nil
}
