package repository

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nudeploy/internal/logger"
	"nudeploy/internal/models"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("feed-secret"))
	require.NoError(t, err)
	return token
}

func captureWarnings(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	logger.SetOutput(&buf, logger.WARN)
	t.Cleanup(func() { logger.SetOutput(os.Stderr, logger.WARN) })
	return &buf
}

func TestTokenExpiry(t *testing.T) {
	exp := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	got, ok := tokenExpiry(signedToken(t, jwt.MapClaims{"sub": "ci", "exp": exp.Unix()}))
	require.True(t, ok)
	assert.True(t, exp.Equal(got))

	_, ok = tokenExpiry(signedToken(t, jwt.MapClaims{"sub": "ci"}))
	assert.False(t, ok)
	_, ok = tokenExpiry("opaque-token")
	assert.False(t, ok)
}

func TestCheckToken_Warnings(t *testing.T) {
	now := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		exp  time.Time
		want string
	}{
		{"expired", now.Add(-time.Minute), "expired at"},
		{"expires soon", now.Add(time.Hour), "expires at"},
		{"valid", now.Add(7 * 24 * time.Hour), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := captureWarnings(t)
			checkToken("nightly", signedToken(t, jwt.MapClaims{"exp": tt.exp.Unix()}), now)
			if tt.want == "" {
				assert.Empty(t, buf.String())
				return
			}
			assert.Contains(t, buf.String(), "source 'nightly'")
			assert.Contains(t, buf.String(), tt.want)
		})
	}
}

func TestBrowser_HTTPFeedSendsToken(t *testing.T) {
	token := signedToken(t, jwt.MapClaims{"sub": "ci", "exp": time.Now().Add(time.Hour).Unix()})
	var seen []string
	mux := http.NewServeMux()
	mux.HandleFunc("/feed/index.json", func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"packages":[{"id":"Package.A","version":"1.0.0"}]}`))
	})
	mux.HandleFunc("/feed/Package.A.1.0.0.zip", func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte("PK"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	root := t.TempDir()
	store := NewSourceStore(filepath.Join(root, "sources.json"))
	require.NoError(t, store.AddSource(models.PackageSource{Name: "private", Url: srv.URL + "/feed", Token: token}))
	buf := captureWarnings(t)

	b := NewBrowser(store, filepath.Join(root, "cache"))
	pkg, ok, err := b.FindPackage(context.Background(), "Package.A")
	require.NoError(t, err)
	require.True(t, ok)
	_, err = b.Fetch(context.Background(), pkg)
	require.NoError(t, err)

	assert.Equal(t, []string{"Bearer " + token, "Bearer " + token}, seen)
	assert.Contains(t, buf.String(), "expires at")

	sources, err := store.Load()
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.Equal(t, token, sources[0].Token)
}
