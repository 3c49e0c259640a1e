package session

import (
	"crypto/sha256"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
)

// CookieName is the name of the session cookie.
const CookieName = "sid"

// CookieCodec signs session ids into the sid cookie.
type CookieCodec struct {
	codec  *securecookie.SecureCookie
	maxAge time.Duration
	secure bool
}

// NewCookieCodec derives the signing key from secret.
func NewCookieCodec(secret string, maxAge time.Duration, secure bool) *CookieCodec {
	hashKey := sha256.Sum256([]byte(secret))
	codec := securecookie.New(hashKey[:], nil)
	codec.MaxAge(int(maxAge.Seconds()))
	return &CookieCodec{codec: codec, maxAge: maxAge, secure: secure}
}

// Encode signs a session id.
func (c *CookieCodec) Encode(sessionID string) (string, error) {
	return c.codec.Encode(CookieName, sessionID)
}

// Decode verifies a signed cookie value and returns the session id.
func (c *CookieCodec) Decode(value string) (string, error) {
	var sessionID string
	if err := c.codec.Decode(CookieName, value, &sessionID); err != nil {
		return "", err
	}
	return sessionID, nil
}

// Write issues the cookie with a fresh max age.
func (c *CookieCodec) Write(w http.ResponseWriter, sessionID string) error {
	value, err := c.Encode(sessionID)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(c.maxAge.Seconds()),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Read extracts the session id from the request cookie.
func (c *CookieCodec) Read(r *http.Request) (string, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return "", err
	}
	return c.Decode(cookie.Value)
}

// Clear expires the cookie on the client.
func (c *CookieCodec) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
