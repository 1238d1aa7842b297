package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/agriconnect/service-dashboard/internal/domain/backend"
	"github.com/agriconnect/service-dashboard/internal/models"
	"github.com/agriconnect/service-dashboard/internal/session"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

// tokenProfiles resolves a fixed set of tokens and rejects the rest.
type tokenProfiles struct {
	byToken map[string]*models.Profile
	calls   int
}

func (p *tokenProfiles) GetProfile(ctx context.Context, sess *session.Session) (*models.Profile, error) {
	p.calls++
	profile, ok := p.byToken[sess.Token]
	if !ok {
		return nil, backend.NewAPIError("/api/account/profile/", 401, backend.CodeTokenInvalid, "")
	}
	return profile, nil
}

func TestVerifyIgnoresClaimedUserID(t *testing.T) {
	profiles := &tokenProfiles{byToken: map[string]*models.Profile{
		"victim": {ID: "9", UserType: "farmer"},
		"other":  {ID: "10", UserType: "farmer"},
	}}
	svc := NewIdentityService(profiles, nil, nil, nil)
	ctx := context.Background()

	victim, err := svc.Verify(ctx, mustSession("victim", ""), "9")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	other, err := svc.Verify(ctx, mustSession("other", ""), "9")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if victim.SellerKey() != "user:9" || other.SellerKey() != "user:10" {
		t.Errorf("Expected seller keys from profiles, got %q and %q", victim.SellerKey(), other.SellerKey())
	}

	if _, err := svc.Verify(ctx, mustSession("attacker-garbage", ""), "9"); !errors.Is(err, backend.ErrUnauthorized) {
		t.Errorf("Expected ErrUnauthorized for an unknown token, got %v", err)
	}
}

func TestVerifyTrustsGatewayOnlyWhenConfigured(t *testing.T) {
	profiles := &tokenProfiles{}
	svc := NewIdentityService(profiles, nil, &IdentityServiceConfig{TrustGatewayUserID: true}, nil)

	sess, err := svc.Verify(context.Background(), mustSession("tok", ""), "42")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if sess.SellerKey() != "user:42" || profiles.calls != 0 {
		t.Errorf("Expected gateway identity without a backend call, got %q after %d calls", sess.SellerKey(), profiles.calls)
	}

	// no header falls back to the backend
	if _, err := svc.Verify(context.Background(), mustSession("tok", ""), ""); !errors.Is(err, backend.ErrUnauthorized) {
		t.Errorf("Expected backend verification without the header, got %v", err)
	}
}

func TestVerifyWithoutProfileFetcher(t *testing.T) {
	svc := NewIdentityService(nil, nil, nil, nil)
	if _, err := svc.Verify(context.Background(), mustSession("tok", ""), "9"); !errors.Is(err, ErrNoProfileFetcher) {
		t.Errorf("Expected ErrNoProfileFetcher, got %v", err)
	}
}

func TestVerifyCachesResolutionPerToken(t *testing.T) {
	mr, client := newTestRedis(t)
	profiles := &tokenProfiles{byToken: map[string]*models.Profile{
		"tok":   {ID: "7", Name: "Ravi", UserType: "farmer"},
		"other": {ID: "8", UserType: "farmer"},
	}}
	svc := NewIdentityService(profiles, client, &IdentityServiceConfig{TTL: 30 * time.Second}, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		sess, err := svc.Verify(ctx, mustSession("tok", ""), "")
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if sess.UserID != "7" || sess.Name != "Ravi" {
			t.Errorf("Unexpected session %+v", sess)
		}
	}
	if profiles.calls != 1 {
		t.Errorf("Expected one backend call, got %d", profiles.calls)
	}

	key := identityKey(mustSession("tok", ""))
	if ttl := mr.TTL(key); ttl != 30*time.Second {
		t.Errorf("Expected 30s TTL on %s, got %v", key, ttl)
	}

	// a different token never reads another token's resolution
	sess, err := svc.Verify(ctx, mustSession("other", ""), "7")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if sess.UserID != "8" || profiles.calls != 2 {
		t.Errorf("Expected a fresh resolution for another token, got %q after %d calls", sess.UserID, profiles.calls)
	}

	mr.FastForward(31 * time.Second)
	if _, err := svc.Verify(ctx, mustSession("tok", ""), ""); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if profiles.calls != 3 {
		t.Errorf("Expected re-verification after expiry, got %d calls", profiles.calls)
	}
}

func TestVerifyIgnoresCorruptCachedIdentity(t *testing.T) {
	mr, client := newTestRedis(t)
	profiles := &tokenProfiles{byToken: map[string]*models.Profile{"tok": {ID: "7"}}}
	svc := NewIdentityService(profiles, client, nil, nil)

	if err := mr.Set(identityKey(mustSession("tok", "")), "{not json"); err != nil {
		t.Fatal(err)
	}
	sess, err := svc.Verify(context.Background(), mustSession("tok", ""), "")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if sess.UserID != "7" || profiles.calls != 1 {
		t.Errorf("Expected a backend resolution, got %q after %d calls", sess.UserID, profiles.calls)
	}
}
