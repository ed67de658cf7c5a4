package upstream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPClient_CreateAssistant(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/assistants", r.URL.Path)
		var body createAssistantRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "downtown", body.Name)
		_ = json.NewEncoder(w).Encode(idResponse{AssistantID: "asst-1"})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, nil)
	id, err := c.CreateAssistant(context.Background(), "downtown", "be civic")
	require.NoError(t, err)
	assert.Equal(t, "asst-1", id)
}

func TestHTTPClient_CreateThread_EmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/assistants/asst-1/threads", r.URL.Path)
		body := make([]byte, 2)
		n, _ := r.Body.Read(body)
		assert.Equal(t, "{}", string(body[:n]))
		_ = json.NewEncoder(w).Encode(idResponse{ID: "thread-1"})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, nil)
	id, err := c.CreateThread(context.Background(), "asst-1")
	require.NoError(t, err)
	assert.Equal(t, "thread-1", id)
}

func TestHTTPClient_SendMessage_FormEncoded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "hello", r.FormValue("content"))
		assert.Equal(t, "false", r.FormValue("stream"))
		assert.Equal(t, "Auto", r.FormValue("memory"))
		assert.Equal(t, "gpt-x", r.FormValue("model"))
		_ = json.NewEncoder(w).Encode(messageResponse{Content: "reply text"})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, nil)
	reply, err := c.SendMessage(context.Background(), "thread-1", "hello", "gpt-x", "openai")
	require.NoError(t, err)
	assert.Equal(t, "reply text", reply)
}

func TestHTTPClient_SendMessage_EmptyContent(t *testing.T) {
	c := NewHTTPClient("http://unused.invalid", nil)
	_, err := c.SendMessage(context.Background(), "thread-1", "", "gpt-x", "openai")
	assert.ErrorIs(t, err, ErrEmptyContent)
}

func TestHTTPClient_NonTwoXX(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, nil)
	_, err := c.CreateAssistant(context.Background(), "x", "y")
	require.Error(t, err)
	var upErr *Error
	require.ErrorAs(t, err, &upErr)
	assert.Equal(t, 500, upErr.Status)
}

func TestHTTPClient_MissingReplyField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"unexpected": "shape"})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, nil)
	_, err := c.SendMessage(context.Background(), "t", "hi", "m", "p")
	assert.ErrorIs(t, err, ErrMissingReply)
}
