// Package redisstore implements the refresh token store on Redis. Each token
// is a hash under prefix+token_hash that Redis expires at the token's expiry.
// Rotation and revocation run as Lua scripts so the active check and the
// revocation happen in one server-side step.
package redisstore

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	authDomain "github.com/tiago-cos/prosa-sub000/internal/auth/domain"
	apperrors "github.com/tiago-cos/prosa-sub000/internal/errors"
)

const scanBatchSize = 200

var rotateScript = redis.NewScript(`
local current = redis.call('HMGET', KEYS[1], 'revoked_at', 'expires_at', 'id', 'session_id', 'user_id', 'created_at')
if not current[2] then
  return false
end
if current[1] then
  return false
end
if tonumber(current[2]) <= tonumber(ARGV[1]) then
  return false
end
if redis.call('EXISTS', KEYS[2]) == 1 then
  return redis.error_reply('replacement token already exists')
end
redis.call('HSET', KEYS[1], 'revoked_at', ARGV[1])
redis.call('HSET', KEYS[2],
  'id', ARGV[2],
  'session_id', current[4],
  'user_id', current[5],
  'expires_at', ARGV[3],
  'created_at', ARGV[4])
redis.call('PEXPIREAT', KEYS[2], math.floor(tonumber(ARGV[3]) / 1000) + 1000)
return {current[3], current[4], current[5], current[2], current[6]}
`)

var revokeScript = redis.NewScript(`
local current = redis.call('HMGET', KEYS[1], 'revoked_at', 'expires_at')
if not current[2] or current[1] then
  return 0
end
if tonumber(current[2]) <= tonumber(ARGV[1]) then
  return 0
end
redis.call('HSET', KEYS[1], 'revoked_at', ARGV[1])
return 1
`)

// RedisRefreshTokenRepository implements RefreshToken persistence on Redis.
// Times are stored as Unix microseconds.
type RedisRefreshTokenRepository struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisRefreshTokenRepository creates a Redis refresh token store whose keys start with prefix.
func NewRedisRefreshTokenRepository(client redis.UniversalClient, prefix string) *RedisRefreshTokenRepository {
	return &RedisRefreshTokenRepository{client: client, prefix: prefix}
}

func (r *RedisRefreshTokenRepository) Create(ctx context.Context, token *authDomain.RefreshToken) error {
	fields := map[string]any{
		"id":         token.ID.String(),
		"session_id": token.SessionID.String(),
		"user_id":    token.UserID.String(),
		"expires_at": token.ExpiresAt.UnixMicro(),
		"created_at": token.CreatedAt.UnixMicro(),
	}
	if token.RevokedAt != nil {
		fields["revoked_at"] = token.RevokedAt.UnixMicro()
	}

	key := r.key(token.TokenHash)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, fields)
		pipe.PExpireAt(ctx, key, expireAt(token.ExpiresAt))
		return nil
	})
	if err != nil {
		return apperrors.Wrap(err, "failed to create refresh token")
	}
	return nil
}

func (r *RedisRefreshTokenRepository) GetActive(
	ctx context.Context,
	tokenHash string,
	now time.Time,
) (*authDomain.RefreshToken, error) {
	values, err := r.client.HMGet(
		ctx, r.key(tokenHash),
		"revoked_at", "id", "session_id", "user_id", "expires_at", "created_at",
	).Result()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to get refresh token")
	}
	if values[0] != nil {
		return nil, authDomain.ErrInvalidToken
	}

	fields := make([]string, 0, len(values)-1)
	for _, v := range values[1:] {
		s, ok := v.(string)
		if !ok {
			return nil, authDomain.ErrInvalidToken
		}
		fields = append(fields, s)
	}

	token, err := parseConsumed(tokenHash, fields)
	if err != nil {
		return nil, err
	}
	if !token.IsActive(time.UnixMicro(now.UnixMicro())) {
		return nil, authDomain.ErrInvalidToken
	}
	return token, nil
}

func (r *RedisRefreshTokenRepository) Rotate(
	ctx context.Context,
	tokenHash string,
	replacement *authDomain.RefreshToken,
	now time.Time,
) (*authDomain.RefreshToken, error) {
	keys := []string{r.key(tokenHash), r.key(replacement.TokenHash)}
	values, err := rotateScript.Run(
		ctx,
		r.client,
		keys,
		now.UnixMicro(),
		replacement.ID.String(),
		replacement.ExpiresAt.UnixMicro(),
		replacement.CreatedAt.UnixMicro(),
	).StringSlice()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, authDomain.ErrInvalidToken
		}
		return nil, apperrors.Wrap(err, "failed to rotate refresh token")
	}

	consumed, err := parseConsumed(tokenHash, values)
	if err != nil {
		return nil, err
	}
	revokedAt := time.UnixMicro(now.UnixMicro()).UTC()
	consumed.RevokedAt = &revokedAt

	replacement.SessionID = consumed.SessionID
	replacement.UserID = consumed.UserID
	return consumed, nil
}

func (r *RedisRefreshTokenRepository) Revoke(ctx context.Context, tokenHash string, now time.Time) error {
	revoked, err := revokeScript.Run(ctx, r.client, []string{r.key(tokenHash)}, now.UnixMicro()).Int()
	if err != nil {
		return apperrors.Wrap(err, "failed to revoke refresh token")
	}
	if revoked == 0 {
		return authDomain.ErrTokenNotFound
	}
	return nil
}

// DeleteExpired removes revoked tokens older than before. Expired tokens are
// normally already gone through key expiry; any left behind are removed too.
func (r *RedisRefreshTokenRepository) DeleteExpired(ctx context.Context, before time.Time, dryRun bool) (int64, error) {
	cutoff := before.UnixMicro()
	var count int64

	iter := r.client.Scan(ctx, 0, r.prefix+"*", scanBatchSize).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()

		values, err := r.client.HMGet(ctx, key, "expires_at", "revoked_at").Result()
		if err != nil {
			return count, apperrors.Wrap(err, "failed to read refresh token")
		}
		if !isStale(values, cutoff) {
			continue
		}

		count++
		if dryRun {
			continue
		}
		if err := r.client.Del(ctx, key).Err(); err != nil {
			return count, apperrors.Wrap(err, "failed to delete refresh token")
		}
	}
	if err := iter.Err(); err != nil {
		return count, apperrors.Wrap(err, "failed to scan refresh tokens")
	}
	return count, nil
}

func (r *RedisRefreshTokenRepository) key(tokenHash string) string {
	return r.prefix + tokenHash
}

// expireAt keeps the key one second past the token expiry so the active
// check, not key expiry, decides the boundary instant.
func expireAt(expiresAt time.Time) time.Time {
	return expiresAt.Truncate(time.Millisecond).Add(time.Second)
}

func isStale(values []any, cutoff int64) bool {
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		at, err := strconv.ParseInt(s, 10, 64)
		if err == nil && at < cutoff {
			return true
		}
	}
	return false
}

func parseConsumed(tokenHash string, values []string) (*authDomain.RefreshToken, error) {
	if len(values) != 5 {
		return nil, apperrors.New("unexpected rotate script reply")
	}

	token := &authDomain.RefreshToken{TokenHash: tokenHash}
	var err error
	if token.ID, err = uuid.Parse(values[0]); err != nil {
		return nil, apperrors.Wrap(err, "failed to parse refresh token id")
	}
	if token.SessionID, err = uuid.Parse(values[1]); err != nil {
		return nil, apperrors.Wrap(err, "failed to parse session id")
	}
	if token.UserID, err = uuid.Parse(values[2]); err != nil {
		return nil, apperrors.Wrap(err, "failed to parse user id")
	}
	if token.ExpiresAt, err = parseMicros(values[3]); err != nil {
		return nil, apperrors.Wrap(err, "failed to parse expires_at")
	}
	if token.CreatedAt, err = parseMicros(values[4]); err != nil {
		return nil, apperrors.Wrap(err, "failed to parse created_at")
	}
	return token, nil
}

func parseMicros(s string) (time.Time, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMicro(v).UTC(), nil
}
