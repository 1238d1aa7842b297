// Package session carries the signed-in seller's credentials and profile
// through a request.
package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/agriconnect/service-dashboard/internal/models"
)

// ErrMissingToken is returned when no bearer token was supplied.
var ErrMissingToken = errors.New("missing bearer token")

const farmerUserType = "farmer"

// Session is the authenticated caller. The token is issued and validated by
// the backend; this service only forwards it.
type Session struct {
	Token        string `json:"-"`
	UserID       string `json:"user_id,omitempty"`
	UserType     string `json:"user_type,omitempty"`
	Name         string `json:"name,omitempty"`
	Username     string `json:"username,omitempty"`
	ProfileImage string `json:"profile_image,omitempty"`
}

// New creates a session for token.
func New(token string) (*Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrMissingToken
	}
	return &Session{Token: token}, nil
}

// ParseAuthorization extracts the token from an Authorization header value.
// Both "Bearer <token>" and a bare token are accepted.
func ParseAuthorization(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", ErrMissingToken
	}
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		header = strings.TrimSpace(header[7:])
	}
	if header == "" {
		return "", ErrMissingToken
	}
	return header, nil
}

// Authorization returns the header value forwarded to the backend.
func (s *Session) Authorization() string {
	return "Bearer " + s.Token
}

// SellerKey identifies the seller for caching and archiving. It is the user
// id when known, otherwise a digest of the token so raw tokens never reach
// storage.
func (s *Session) SellerKey() string {
	if s.UserID != "" {
		return UserSellerKey(s.UserID)
	}
	return "token:" + s.TokenDigest()
}

// TokenDigest is a stable, non-reversible identifier of the token.
func (s *Session) TokenDigest() string {
	sum := sha256.Sum256([]byte(s.Token))
	return hex.EncodeToString(sum[:16])
}

// UserSellerKey returns the seller key of a known user id.
func UserSellerKey(userID string) string {
	return "user:" + userID
}

// WithProfile returns a copy of s filled from the backend profile.
func (s *Session) WithProfile(p *models.Profile) *Session {
	out := *s
	if p == nil {
		return &out
	}
	if p.ID != "" {
		out.UserID = p.ID
	}
	out.UserType = p.UserType
	out.Name = p.Name
	out.Username = p.Username
	out.ProfileImage = p.ProfileImage
	return &out
}

// IsFarmer reports whether the caller is a seller account.
func (s *Session) IsFarmer() bool {
	return strings.EqualFold(s.UserType, farmerUserType)
}

type contextKey struct{}

// NewContext returns a copy of ctx carrying s.
func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the session stored in ctx, if any.
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(contextKey{}).(*Session)
	return s, ok && s != nil
}
