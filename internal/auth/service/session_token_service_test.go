package service

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authDomain "github.com/tiago-cos/prosa-sub000/internal/auth/domain"
	"github.com/tiago-cos/prosa-sub000/internal/clock"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestSession(issuedAt time.Time, ttl time.Duration) *authDomain.Session {
	return &authDomain.Session{
		ID:           uuid.Must(uuid.NewV7()),
		UserID:       uuid.Must(uuid.NewV7()),
		Role:         authDomain.RoleUser,
		Capabilities: authDomain.AllCapabilities(),
		IssuedAt:     issuedAt,
		ExpiresAt:    issuedAt.Add(ttl),
	}
}

func newTestCodec(t *testing.T, issuer string) (SessionTokenService, KeyProvider, *clock.FakeClock) {
	t.Helper()
	provider, err := NewKeyProvider([]*SigningKey{newTestSigningKey(t)}, "")
	require.NoError(t, err)
	clk := clock.Fake(testNow)
	return NewSessionTokenService(provider, issuer, clk), provider, clk
}

func TestNewSessionTokenService(t *testing.T) {
	codec, _, _ := newTestCodec(t, "prosa")
	assert.IsType(t, &sessionTokenService{}, codec)
}

func TestSessionTokenService_IssueAndVerify(t *testing.T) {
	codec, provider, _ := newTestCodec(t, "prosa")
	session := newTestSession(testNow, 15*time.Minute)

	token, err := codec.Issue(session)
	require.NoError(t, err)
	assert.Len(t, strings.Split(token, "."), 3)

	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	require.NoError(t, err)
	assert.Equal(t, provider.ActiveKey().KeyID, parsed.Header["kid"])
	assert.Equal(t, "EdDSA", parsed.Header["alg"])

	verified, err := codec.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, session.ID, verified.ID)
	assert.Equal(t, session.UserID, verified.UserID)
	assert.Equal(t, session.Role, verified.Role)
	assert.Equal(t, session.Capabilities, verified.Capabilities)
	assert.True(t, session.ExpiresAt.Equal(verified.ExpiresAt))
	assert.True(t, session.IssuedAt.Equal(verified.IssuedAt))
}

func TestSessionTokenService_Expiry(t *testing.T) {
	tests := []struct {
		name    string
		advance time.Duration
		valid   bool
	}{
		{name: "Success_JustBeforeExpiry", advance: 15*time.Minute - time.Second, valid: true},
		{name: "Error_AtExpiry", advance: 15 * time.Minute, valid: false},
		{name: "Error_AfterExpiry", advance: time.Hour, valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			codec, _, clk := newTestCodec(t, "prosa")
			token, err := codec.Issue(newTestSession(testNow, 15*time.Minute))
			require.NoError(t, err)

			clk.Advance(tt.advance)
			_, err = codec.Verify(token)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, authDomain.ErrInvalidSessionToken)
			}
		})
	}
}

func TestSessionTokenService_Rejections(t *testing.T) {
	codec, provider, _ := newTestCodec(t, "prosa")
	session := newTestSession(testNow, 15*time.Minute)
	token, err := codec.Issue(session)
	require.NoError(t, err)

	t.Run("Error_WrongIssuer", func(t *testing.T) {
		other := NewSessionTokenService(provider, "someone-else", clock.Fake(testNow))
		_, err := other.Verify(token)
		assert.ErrorIs(t, err, authDomain.ErrInvalidSessionToken)
	})

	t.Run("Error_UnknownKeyID", func(t *testing.T) {
		otherCodec, _, _ := newTestCodec(t, "prosa")
		_, err := otherCodec.Verify(token)
		assert.ErrorIs(t, err, authDomain.ErrInvalidSessionToken)
	})

	t.Run("Error_TamperedPayload", func(t *testing.T) {
		parts := strings.Split(token, ".")
		forged, err := codec.Issue(newTestSession(testNow, time.Hour))
		require.NoError(t, err)
		parts[1] = strings.Split(forged, ".")[1]
		parts[2] = strings.Split(token, ".")[2]

		_, err = codec.Verify(strings.Join(parts, "."))
		assert.ErrorIs(t, err, authDomain.ErrInvalidSessionToken)
	})

	t.Run("Error_SymmetricAlgorithm", func(t *testing.T) {
		hs := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"iss": "prosa", "sub": session.UserID.String(), "sid": session.ID.String(),
			"role": "admin", "caps": []string{"Read"},
			"iat": testNow.Unix(), "exp": testNow.Add(time.Hour).Unix(),
		})
		hs.Header["kid"] = provider.ActiveKey().KeyID
		signed, err := hs.SignedString([]byte("secret"))
		require.NoError(t, err)

		_, err = codec.Verify(signed)
		assert.ErrorIs(t, err, authDomain.ErrInvalidSessionToken)
	})

	t.Run("Error_Garbage", func(t *testing.T) {
		_, err := codec.Verify("not-a-token")
		assert.ErrorIs(t, err, authDomain.ErrInvalidSessionToken)
	})

	t.Run("Error_MissingKeyID", func(t *testing.T) {
		unsigned := jwt.NewWithClaims(jwt.SigningMethodEdDSA, jwt.MapClaims{
			"iss": "prosa", "exp": testNow.Add(time.Hour).Unix(),
		})
		signed, err := unsigned.SignedString(provider.ActiveKey().PrivateKey)
		require.NoError(t, err)

		_, err = codec.Verify(signed)
		assert.ErrorIs(t, err, authDomain.ErrInvalidSessionToken)
	})
}

func TestSessionTokenService_KeyRotation(t *testing.T) {
	codec, provider, _ := newTestCodec(t, "prosa")
	oldKey := provider.ActiveKey()

	token, err := codec.Issue(newTestSession(testNow, time.Hour))
	require.NoError(t, err)

	newKey := newTestSigningKey(t)
	require.NoError(t, provider.Replace([]*SigningKey{oldKey, newKey}, ""))

	_, err = codec.Verify(token)
	assert.NoError(t, err, "tokens signed by a retired key verify while it is published")

	rotated, err := codec.Issue(newTestSession(testNow, time.Hour))
	require.NoError(t, err)
	parsed, _, err := jwt.NewParser().ParseUnverified(rotated, jwt.MapClaims{})
	require.NoError(t, err)
	assert.Equal(t, newKey.KeyID, parsed.Header["kid"])

	require.NoError(t, provider.Replace([]*SigningKey{newKey}, ""))
	_, err = codec.Verify(token)
	assert.ErrorIs(t, err, authDomain.ErrInvalidSessionToken)
}

func TestSessionTokenService_IssueRejectsInvertedLifetime(t *testing.T) {
	codec, _, _ := newTestCodec(t, "prosa")
	_, err := codec.Issue(newTestSession(testNow, 0))
	assert.Error(t, err)
}
