package identity

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testIssuer   = "https://securetoken.example.com/movie-catalog"
	testClientID = "movie-catalog"
)

func signIDToken(t *testing.T, key *rsa.PrivateKey, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func TestOIDCVerifier(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	v := NewOIDCWithKeySet("oidc", testIssuer, testClientID,
		&oidc.StaticKeySet{PublicKeys: []crypto.PublicKey{&key.PublicKey}})

	base := func() jwt.MapClaims {
		return jwt.MapClaims{
			"iss":            testIssuer,
			"aud":            testClientID,
			"sub":            "abc",
			"iat":            time.Now().Unix(),
			"exp":            time.Now().Add(time.Hour).Unix(),
			"email":          "Neo@Example.com",
			"email_verified": true,
			"name":           "Neo",
		}
	}

	id, err := v.Verify(context.Background(), signIDToken(t, key, base()))
	require.NoError(t, err)
	assert.Equal(t, "neo@example.com", id.Email)
	assert.Equal(t, "abc", id.Subject)
	assert.Equal(t, "Neo", id.Name)

	wrongAud := base()
	wrongAud["aud"] = "someone-else"
	_, err = v.Verify(context.Background(), signIDToken(t, key, wrongAud))
	assert.ErrorIs(t, err, ErrInvalidCredential)

	unverified := base()
	unverified["email_verified"] = false
	_, err = v.Verify(context.Background(), signIDToken(t, key, unverified))
	assert.ErrorIs(t, err, ErrInvalidCredential)

	other, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	_, err = v.Verify(context.Background(), signIDToken(t, other, base()))
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestKakaoVerifier(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"id":12345,"kakao_account":{"email":"user@kakao.com","is_email_verified":true,"profile":{"nickname":"kk"}}}`))
	}))
	t.Cleanup(srv.Close)

	k := NewKakao(srv.URL, time.Second)
	id, err := k.Verify(context.Background(), "good-token")
	require.NoError(t, err)
	assert.Equal(t, "kakao", id.Provider)
	assert.Equal(t, "12345", id.Subject)
	assert.Equal(t, "user@kakao.com", id.Email)
	assert.Equal(t, "kk", id.Name)

	_, err = k.Verify(context.Background(), "bad-token")
	assert.ErrorIs(t, err, ErrInvalidCredential)

	_, err = k.Verify(context.Background(), " ")
	assert.ErrorIs(t, err, ErrInvalidCredential)
}
