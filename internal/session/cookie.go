// internal/session/cookie.go
package session

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"strings"
	"time"

	apperrors "scribe-api/internal/common/errors"
)

// CookieName is the browser cookie carrying the signed session ID.
const CookieName = "scribe_session"

// CookieCodec signs session IDs with HMAC-SHA256 so clients cannot forge
// or swap them. The cookie value is "<id>.<signature>".
type CookieCodec struct {
	secret []byte
	maxAge time.Duration
	secure bool
}

// NewCookieCodec builds a codec from the configured storage secret.
func NewCookieCodec(secret string, maxAge time.Duration, secure bool) *CookieCodec {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return &CookieCodec{
		secret: []byte(secret),
		maxAge: maxAge,
		secure: secure,
	}
}

// Encode returns the signed cookie value for a session ID.
func (c *CookieCodec) Encode(id string) string {
	return id + "." + c.sign(id)
}

// Decode verifies a cookie value and returns the session ID.
func (c *CookieCodec) Decode(value string) (string, error) {
	dot := strings.LastIndex(value, ".")
	if dot <= 0 || dot == len(value)-1 {
		return "", apperrors.NewAuthenticationError("malformed session cookie")
	}

	id := value[:dot]
	signature := value[dot+1:]
	if !hmac.Equal([]byte(signature), []byte(c.sign(id))) {
		return "", apperrors.NewAuthenticationError("invalid session cookie signature")
	}
	return id, nil
}

// SetCookie writes the signed session cookie on the response.
func (c *CookieCodec) SetCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    c.Encode(id),
		Path:     "/",
		MaxAge:   int(c.maxAge.Seconds()),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ReadCookie extracts and verifies the session ID from a request.
func (c *CookieCodec) ReadCookie(r *http.Request) (string, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return "", apperrors.NewAuthenticationError("missing session cookie")
	}
	return c.Decode(cookie.Value)
}

// ClearCookie expires the session cookie on the response.
func (c *CookieCodec) ClearCookie(w http.ResponseWriter) {
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

func (c *CookieCodec) sign(id string) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(id))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
