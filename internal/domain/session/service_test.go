package session

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	apperrors "github.com/yanqian/urban-heat-advisor/pkg/errors"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestIssueAndValidate(t *testing.T) {
	svc := NewService(Config{Secret: "test-secret", TTL: time.Hour}, newTestLogger())

	tok, err := svc.Issue(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, tok.Value)
	_, err = uuid.Parse(tok.SessionID)
	require.NoError(t, err)

	claims, err := svc.Validate(context.Background(), tok.Value)
	require.NoError(t, err)
	require.Equal(t, tok.SessionID, claims.SessionID)
	require.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt, time.Minute)
}

func TestIssueDistinctSessions(t *testing.T) {
	svc := NewService(Config{Secret: "test-secret"}, newTestLogger())
	a, err := svc.Issue(context.Background())
	require.NoError(t, err)
	b, err := svc.Issue(context.Background())
	require.NoError(t, err)
	require.NotEqual(t, a.SessionID, b.SessionID)
}

func TestValidateRejects(t *testing.T) {
	svc := NewService(Config{Secret: "test-secret", TTL: time.Hour}, newTestLogger()).(*service)
	other := NewService(Config{Secret: "other-secret", TTL: time.Hour}, newTestLogger())

	foreign, err := other.Issue(context.Background())
	require.NoError(t, err)

	current := time.Now()
	svc.now = func() time.Time { return current.Add(-2 * time.Hour) }
	expired, err := svc.Issue(context.Background())
	require.NoError(t, err)
	svc.now = func() time.Time { return current }

	wrongType, err := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		TokenType: "access",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(current.Add(time.Hour)),
		},
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	for name, token := range map[string]string{
		"empty":      "  ",
		"garbage":    "not.a.jwt",
		"foreign":    foreign.Value,
		"expired":    expired.Value,
		"wrong type": wrongType,
	} {
		_, err := svc.Validate(context.Background(), token)
		require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidSession), name)
	}
}

func TestIssueWithoutSecret(t *testing.T) {
	_, err := NewService(Config{}, newTestLogger()).Issue(context.Background())
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidSession))
}
