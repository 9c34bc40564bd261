package tokens

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestService() *Service {
	return &Service{
		AccessSecret:  []byte("access-test-secret"),
		RefreshSecret: []byte("refresh-test-secret"),
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	svc := newTestService()

	signed, exp, err := svc.SignAccess(42, "student")
	require.NoError(t, err)
	require.NotEmpty(t, signed)
	require.WithinDuration(t, time.Now().Add(svc.AccessTTL), exp, 5*time.Second)

	claims, err := svc.ParseAccess(signed)
	require.NoError(t, err)
	require.Equal(t, "student", claims.Role)

	id, err := claims.UserID()
	require.NoError(t, err)
	require.Equal(t, uint(42), id)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	svc := newTestService()

	signed, _, err := svc.SignRefresh(7, "admin")
	require.NoError(t, err)

	claims, err := svc.ParseRefresh(signed)
	require.NoError(t, err)
	require.Equal(t, "admin", claims.Role)
	require.NotEmpty(t, claims.ID, "refresh token must carry a jti")

	id, err := claims.UserID()
	require.NoError(t, err)
	require.Equal(t, uint(7), id)
}

func TestSecretsAreNotInterchangeable(t *testing.T) {
	svc := newTestService()

	refresh, _, err := svc.SignRefresh(1, "student")
	require.NoError(t, err)
	_, err = svc.ParseAccess(refresh)
	require.ErrorIs(t, err, ErrInvalid)

	access, _, err := svc.SignAccess(1, "student")
	require.NoError(t, err)
	_, err = svc.ParseRefresh(access)
	require.ErrorIs(t, err, ErrInvalid)
}

func TestExpiredAccessTokenIsDistinguished(t *testing.T) {
	svc := newTestService()
	svc.AccessTTL = -time.Minute

	signed, _, err := svc.SignAccess(1, "student")
	require.NoError(t, err)

	_, err = svc.ParseAccess(signed)
	require.ErrorIs(t, err, ErrExpired)
}

func TestGarbageTokenIsInvalid(t *testing.T) {
	svc := newTestService()

	_, err := svc.ParseAccess("not.a.token")
	require.ErrorIs(t, err, ErrInvalid)
}

func TestSha256HexIsDeterministicAndOneWay(t *testing.T) {
	h1 := Sha256Hex("some-refresh-token")
	h2 := Sha256Hex("some-refresh-token")
	require.Equal(t, h1, h2)
	require.Len(t, h1, 64)
	require.NotEqual(t, "some-refresh-token", h1)
	require.NotEqual(t, h1, Sha256Hex("other-token"))
}
