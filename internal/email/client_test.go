package email

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/certinal/booth-backend/internal/store"
)

func TestSend(t *testing.T) {
	var gotAuth string
	var gotBody sendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/emails", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_ = json.NewEncoder(w).Encode(sendResponse{ID: "email-42"})
	}))
	defer srv.Close()

	client := New(Config{BaseURL: srv.URL, APIKey: "re_test", FromAddress: "noreply@certinal.com"}, nil)
	id, err := client.Send(context.Background(), Message{
		To:      "asha@hosp.org",
		Subject: "Your Book Collection Token",
		HTML:    "<p>hi</p>",
	})
	require.NoError(t, err)
	assert.Equal(t, "email-42", id)

	assert.Equal(t, "Bearer re_test", gotAuth)
	assert.Equal(t, "noreply@certinal.com", gotBody.From)
	assert.Equal(t, []string{"asha@hosp.org"}, gotBody.To)
	assert.Equal(t, "Your Book Collection Token", gotBody.Subject)
}

func TestSendMissingKeyIsConfigError(t *testing.T) {
	client := New(Config{BaseURL: "https://api.resend.com"}, nil)
	_, err := client.Send(context.Background(), Message{To: "a@b.c"})
	assert.True(t, store.IsConfig(err))
}

func TestSendRejectionIsFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"invalid to address"}`))
	}))
	defer srv.Close()

	client := New(Config{BaseURL: srv.URL, APIKey: "re_test", FromAddress: "noreply@certinal.com"}, nil)
	_, err := client.Send(context.Background(), Message{To: "bad"})
	var re *store.RemoteError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, http.StatusUnprocessableEntity, re.Status)
}
