package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/agriconnect/service-dashboard/internal/models"
	"github.com/agriconnect/service-dashboard/internal/session"
)

const (
	identityCachePrefix = "dashboard:identity"
	defaultIdentityTTL  = time.Minute
)

// ErrNoProfileFetcher is returned when a session must be verified but no
// backend is available to verify it against.
var ErrNoProfileFetcher = errors.New("no profile fetcher configured")

// IdentityServiceConfig tunes session verification
type IdentityServiceConfig struct {
	// TTL of a cached token to profile resolution.
	TTL time.Duration
	// TrustGatewayUserID accepts the gateway's user id header as is. Only
	// enable it when an authenticating gateway strips the header from
	// client requests.
	TrustGatewayUserID bool
}

// IdentityService binds a bearer token to the account the backend reports
// for it. Seller keys for caching and archiving are derived from the
// verified account, never from client-supplied headers.
type IdentityService struct {
	profiles     ProfileFetcher
	redis        *redis.Client
	ttl          time.Duration
	trustGateway bool
	logger       *zap.Logger
}

// NewIdentityService creates a new identity service. redisClient may be nil,
// in which case every request is verified against the backend.
func NewIdentityService(profiles ProfileFetcher, redisClient *redis.Client, cfg *IdentityServiceConfig, logger *zap.Logger) *IdentityService {
	if cfg == nil {
		cfg = &IdentityServiceConfig{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultIdentityTTL
	}
	return &IdentityService{
		profiles:     profiles,
		redis:        redisClient,
		ttl:          ttl,
		trustGateway: cfg.TrustGatewayUserID,
		logger:       logger,
	}
}

func identityKey(sess *session.Session) string {
	return fmt.Sprintf("%s:%s", identityCachePrefix, sess.TokenDigest())
}

// Verify returns a copy of sess carrying the verified account. gatewayUserID
// is ignored unless the service is configured to trust the gateway.
func (s *IdentityService) Verify(ctx context.Context, sess *session.Session, gatewayUserID string) (*session.Session, error) {
	if s.trustGateway && gatewayUserID != "" {
		out := *sess
		out.UserID = gatewayUserID
		return &out, nil
	}

	if profile := s.cachedProfile(ctx, sess); profile != nil {
		return sess.WithProfile(profile), nil
	}

	if s.profiles == nil {
		return nil, ErrNoProfileFetcher
	}
	profile, err := s.profiles.GetProfile(ctx, sess)
	if err != nil {
		return nil, fmt.Errorf("verify session: %w", err)
	}
	s.storeProfile(ctx, sess, profile)
	return sess.WithProfile(profile), nil
}

func (s *IdentityService) cachedProfile(ctx context.Context, sess *session.Session) *models.Profile {
	if s.redis == nil {
		return nil
	}

	key := identityKey(sess)
	data, err := s.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.logger.Warn("failed to get identity from cache", zap.Error(err))
		}
		return nil
	}

	var profile models.Profile
	if err := json.Unmarshal(data, &profile); err != nil {
		s.logger.Warn("failed to unmarshal cached identity", zap.Error(err))
		return nil
	}
	return &profile
}

func (s *IdentityService) storeProfile(ctx context.Context, sess *session.Session, profile *models.Profile) {
	if s.redis == nil || profile == nil {
		return
	}

	data, err := json.Marshal(profile)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, identityKey(sess), data, s.ttl).Err(); err != nil {
		s.logger.Warn("failed to cache identity", zap.Error(err))
	}
}
