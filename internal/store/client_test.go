package store

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/certinal/booth-backend/internal/models"
)

const testTable = "thit_registrations"

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Config{URL: srv.URL, APIKey: "test-key"}, nil), srv
}

func TestInsertReturnsStoredRepresentation(t *testing.T) {
	var gotPath, gotAPIKey, gotAuth, gotPrefer string
	var gotRaw []map[string]any

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAPIKey = r.Header.Get("apikey")
		gotAuth = r.Header.Get("Authorization")
		gotPrefer = r.Header.Get("Prefer")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotRaw))
		require.Len(t, gotRaw, 1)

		// Server-owned columns must not appear in the insert body.
		assert.NotContains(t, gotRaw[0], "id")
		assert.NotContains(t, gotRaw[0], "created_at")

		stored := gotRaw[0]
		stored["id"] = "a1b2c3"
		stored["created_at"] = time.Date(2026, 1, 30, 10, 0, 0, 0, time.UTC)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode([]map[string]any{stored})
	})

	rows, err := client.Insert(context.Background(), testTable, []models.Registration{{
		Name:    "Asha Rao",
		Email:   "asha@hosp.org",
		Title:   "CIO",
		Phone:   "+911234567890",
		Consent: true,
	}})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.Equal(t, "/rest/v1/"+testTable, gotPath)
	assert.Equal(t, "test-key", gotAPIKey)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "return=representation", gotPrefer)

	// Round-trip: caller-set fields come back unchanged, plus id and timestamp.
	assert.Equal(t, "Asha Rao", rows[0].Name)
	assert.Equal(t, "asha@hosp.org", rows[0].Email)
	assert.Equal(t, "CIO", rows[0].Title)
	assert.Equal(t, "+911234567890", rows[0].Phone)
	assert.True(t, rows[0].Consent)
	assert.NotEmpty(t, rows[0].ID)
	assert.False(t, rows[0].CreatedAt.IsZero())
	assert.Nil(t, rows[0].TokenNumber)
	assert.False(t, rows[0].BookCollected)
}

func TestSelectOrdersAndFilters(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "*", r.URL.Query().Get("select"))
		assert.Equal(t, "created_at.desc", r.URL.Query().Get("order"))
		assert.Equal(t, "eq.123456", r.URL.Query().Get("token_number"))
		_ = json.NewEncoder(w).Encode([]models.Registration{})
	})

	rows, err := client.Select(context.Background(), testTable,
		OrderDesc("created_at"), Filter("token_number", "eq", "123456"))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestUpdatePatchesSingleRow(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "eq.row-1", r.URL.Query().Get("id"))
		assert.Equal(t, "is.null", r.URL.Query().Get("token_number"))

		var patch map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&patch))
		assert.Equal(t, "654321", patch["token_number"])

		tok := "654321"
		_ = json.NewEncoder(w).Encode([]models.Registration{{ID: "row-1", TokenNumber: &tok}})
	})

	row, err := client.Update(context.Background(), testTable, "row-1",
		map[string]any{"token_number": "654321"},
		Filter("token_number", "is", "null"))
	require.NoError(t, err)
	require.NotNil(t, row.TokenNumber)
	assert.Equal(t, "654321", *row.TokenNumber)
}

func TestUpdateNoMatchIsNotFound(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]models.Registration{})
	})

	_, err := client.Update(context.Background(), testTable, "gone", map[string]any{"title": "CTO"})
	assert.True(t, IsNotFound(err))
}

func TestMissingConfigIsConfigError(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"no url", Config{APIKey: "k"}},
		{"no key", Config{URL: "https://example.supabase.co"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := New(tt.cfg, nil)
			_, err := client.Insert(context.Background(), testTable, []models.Registration{{Name: "x"}})
			assert.True(t, IsConfig(err))
			_, err = client.Select(context.Background(), testTable)
			assert.True(t, IsConfig(err))
			_, err = client.Update(context.Background(), testTable, "id", map[string]any{})
			assert.True(t, IsConfig(err))
		})
	}
}

func TestRemoteErrorCarriesStatusAndBody(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"invalid api key"}`))
	})

	_, err := client.Select(context.Background(), testTable)
	var re *RemoteError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, http.StatusUnauthorized, re.Status)
	assert.Contains(t, re.Body, "invalid api key")
}

func TestMissingTableDetection(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"relation \"public.nope\" does not exist"}`))
	})

	_, err := client.Select(context.Background(), "nope")
	assert.True(t, MissingTable(err))
	assert.False(t, IsConfig(err))
}

func TestNetworkFailureIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := New(Config{URL: url, APIKey: "k"}, nil)
	_, err := client.Select(context.Background(), testTable)
	var te *TransportError
	assert.ErrorAs(t, err, &te)
}

func TestTimeoutIsTransportError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	})
	client.http.Timeout = 20 * time.Millisecond

	_, err := client.Select(context.Background(), testTable)
	var te *TransportError
	assert.ErrorAs(t, err, &te)
}
