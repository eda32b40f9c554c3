package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newJWTer() *JWTer {
	return &JWTer{
		Secret:        []byte("access-secret"),
		RefreshSecret: []byte("refresh-secret"),
		Issuer:        "photo-share-test",
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
	}
}

func TestIssuePairRoundTrip(t *testing.T) {
	j := newJWTer()

	pair, err := j.IssuePair("uid-1")
	require.NoError(t, err)
	assert.Equal(t, "bearer", pair.TokenType)

	ac, err := j.ParseAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "uid-1", ac.UID)
	assert.Equal(t, "uid-1", ac.Subject)

	rc, err := j.ParseRefresh(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "uid-1", rc.UID)
}

func TestSecretsAreNotInterchangeable(t *testing.T) {
	j := newJWTer()

	pair, err := j.IssuePair("uid-1")
	require.NoError(t, err)

	_, err = j.ParseAccess(pair.RefreshToken)
	assert.Error(t, err)
	_, err = j.ParseRefresh(pair.AccessToken)
	assert.Error(t, err)
}

func TestParseRejectsExpired(t *testing.T) {
	j := newJWTer()
	// 负 TTL 超出 60s leeway
	j.AccessTTL = -2 * time.Minute

	pair, err := j.IssuePair("uid-1")
	require.NoError(t, err)

	_, err = j.ParseAccess(pair.AccessToken)
	assert.Error(t, err)
}

func TestParseRejectsWrongIssuer(t *testing.T) {
	j := newJWTer()
	pair, err := j.IssuePair("uid-1")
	require.NoError(t, err)

	other := newJWTer()
	other.Issuer = "someone-else"
	_, err = other.ParseAccess(pair.AccessToken)
	assert.Error(t, err)
}

func TestTokensCarryUniqueID(t *testing.T) {
	j := newJWTer()

	a, err := j.IssuePair("uid-1")
	require.NoError(t, err)
	b, err := j.IssuePair("uid-1")
	require.NoError(t, err)

	// 同秒签出的两对 token 也不允许同串
	assert.NotEqual(t, a.RefreshToken, b.RefreshToken)
	assert.NotEqual(t, a.AccessToken, b.AccessToken)
}
