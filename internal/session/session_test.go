package session

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/agriconnect/service-dashboard/internal/models"
)

func TestParseAuthorization(t *testing.T) {
	tests := []struct {
		header  string
		want    string
		wantErr bool
	}{
		{"Bearer abc123", "abc123", false},
		{"bearer   abc123 ", "abc123", false},
		{"abc123", "abc123", false},
		{"", "", true},
		{"Bearer ", "", true},
	}

	for _, tt := range tests {
		got, err := ParseAuthorization(tt.header)
		if tt.wantErr {
			if !errors.Is(err, ErrMissingToken) {
				t.Errorf("%q: expected ErrMissingToken, got %v", tt.header, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("%q: expected %q, got %q (%v)", tt.header, tt.want, got, err)
		}
	}
}

func TestNewRejectsBlankToken(t *testing.T) {
	if _, err := New("  "); !errors.Is(err, ErrMissingToken) {
		t.Errorf("Expected ErrMissingToken, got %v", err)
	}
}

func TestSellerKey(t *testing.T) {
	s, _ := New("secret-token")

	key := s.SellerKey()
	if !strings.HasPrefix(key, "token:") || strings.Contains(key, "secret-token") {
		t.Errorf("Expected hashed token key, got %q", key)
	}
	if other, _ := New("secret-token"); other.SellerKey() != key {
		t.Error("Expected seller key to be stable for the same token")
	}

	withProfile := s.WithProfile(&models.Profile{ID: "42", UserType: "Farmer", Name: "Asha"})
	if withProfile.SellerKey() != "user:42" {
		t.Errorf("Expected user key, got %q", withProfile.SellerKey())
	}
	if !withProfile.IsFarmer() {
		t.Error("Expected farmer user type")
	}
	if s.UserID != "" {
		t.Error("Expected WithProfile to leave the original session untouched")
	}
}

func TestContextRoundTrip(t *testing.T) {
	if _, ok := FromContext(context.Background()); ok {
		t.Error("Expected no session in empty context")
	}

	s, _ := New("tok")
	got, ok := FromContext(NewContext(context.Background(), s))
	if !ok || got.Token != "tok" {
		t.Errorf("Expected session round trip, got %+v", got)
	}
	if got.Authorization() != "Bearer tok" {
		t.Errorf("Unexpected authorization header %q", got.Authorization())
	}
}
