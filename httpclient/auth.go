package httpclient

import "net/http"

// AuthType identifies the authentication method.
type AuthType int

const (
	AuthNone AuthType = iota
	AuthBearer
	// AuthHeader puts a raw key into a named header.
	AuthHeader
)

// AuthConfig configures request authentication.
type AuthConfig struct {
	Type   AuthType
	Token  string
	Header string
}

// BearerAuth sends "Authorization: Bearer <token>".
func BearerAuth(token string) *AuthConfig {
	return &AuthConfig{Type: AuthBearer, Token: token}
}

// HeaderAuth sends the key verbatim in the named header. AssemblyAI expects
// its key this way in the "authorization" header.
func HeaderAuth(header, key string) *AuthConfig {
	return &AuthConfig{Type: AuthHeader, Token: key, Header: header}
}

func (a *AuthConfig) apply(req *http.Request) {
	if a == nil {
		return
	}
	switch a.Type {
	case AuthBearer:
		req.Header.Set("Authorization", "Bearer "+a.Token)
	case AuthHeader:
		name := a.Header
		if name == "" {
			name = "X-API-Key"
		}
		req.Header.Set(name, a.Token)
	}
}
