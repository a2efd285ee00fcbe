package taara

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bundlewatch/bundlewatch/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testClient(baseURL string) *Client {
	cfg := config.Config{
		Taara: config.TaaraConfig{
			BaseURL:          baseURL,
			PhoneCountryCode: "254",
			PhoneNumber:      "712345678",
			Passcode:         "0000",
			PartnerID:        "partner-1",
			HotspotID:        "hotspot-1",
		},
	}
	return NewClient(cfg, zap.NewNop())
}

// tokenWithSub builds a JWT-shaped token whose claims segment carries
// the given subject, with the base64 padding stripped like upstream
// does.
func tokenWithSub(t *testing.T, sub string) string {
	t.Helper()
	claims, err := json.Marshal(map[string]string{"sub": sub})
	require.NoError(t, err)
	payload := base64.RawURLEncoding.EncodeToString(claims)
	return "header." + payload + ".signature"
}

func TestLogin_DecodesSubscriberIDFromToken(t *testing.T) {
	token := tokenWithSub(t, "subscriber-9")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/users/subscriber/login", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		phone, ok := body["phoneNumber"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "254", phone["countryCode"])
		assert.Equal(t, "712345678", phone["nationalNumber"])
		assert.Equal(t, "0000", body["passcode"])
		assert.Equal(t, "partner-1", body["partnerId"])

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{"accessToken": token})
	}))
	defer srv.Close()

	session, err := testClient(srv.URL).Login(context.Background())
	require.NoError(t, err)
	assert.Equal(t, token, session.AccessToken)
	assert.Equal(t, "subscriber-9", session.SubscriberID)
}

func TestLogin_OpaqueTokenStillYieldsSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"accessToken": "not-a-jwt"})
	}))
	defer srv.Close()

	session, err := testClient(srv.URL).Login(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "not-a-jwt", session.AccessToken)
	assert.Empty(t, session.SubscriberID)
}

func TestLogin_RejectedCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Login(context.Background())

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, http.StatusUnauthorized, authErr.StatusCode)
}

func TestLogin_MissingAccessToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{})
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Login(context.Background())

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
}

func TestFetchBundle_SendsBearerToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/customers/get-customer-bundle", r.URL.Path)
		assert.Equal(t, "hotspot-1", r.URL.Query().Get("hotspotId"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Write([]byte(`{"data": {}}`))
	}))
	defer srv.Close()

	raw, err := testClient(srv.URL).FetchBundle(context.Background(), Session{AccessToken: "tok"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"data": {}}`, string(raw))
}

func TestFetchBundle_UpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).FetchBundle(context.Background(), Session{AccessToken: "tok"})

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, http.StatusInternalServerError, fetchErr.StatusCode)
}

func TestLogout_HitsSubscriberPath(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	err := testClient(srv.URL).Logout(context.Background(), Session{AccessToken: "tok", SubscriberID: "subscriber-9"})
	require.NoError(t, err)
	assert.Equal(t, "/users/subscriber/logout/subscriber-9", gotPath)
}

func TestLogout_NoSubscriberIDIsNoop(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	err := testClient(srv.URL).Logout(context.Background(), Session{AccessToken: "tok"})
	require.NoError(t, err)
	assert.False(t, called)
}

func TestSubjectFromToken(t *testing.T) {
	t.Run("strips and restores padding", func(t *testing.T) {
		sub, err := subjectFromToken(tokenWithSub(t, "abc"))
		require.NoError(t, err)
		assert.Equal(t, "abc", sub)
	})

	t.Run("too few segments", func(t *testing.T) {
		_, err := subjectFromToken("justonesegment")
		assert.Error(t, err)
	})

	t.Run("claims not base64", func(t *testing.T) {
		_, err := subjectFromToken("header.!!!.sig")
		assert.Error(t, err)
	})
}
