// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/syntaxchat/internal/envelope"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", "tok-123")
}

func sampleRequest(thread *string) *ChatRequest {
	at := time.Date(2025, 3, 14, 13, 5, 0, 0, time.UTC)
	return &ChatRequest{
		Message:          "Hello",
		PersonalityID:    "syntaxprime",
		ThreadID:         thread,
		IncludeKnowledge: true,
		DatetimeContext:  envelope.Build(at, time.UTC),
		ClientMetadata:   NewClientMetadata(at),
	}
}

// =============================================================================
// CHAT
// =============================================================================

func TestChat_HappyPath(t *testing.T) {
	var body map[string]any
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/ai/chat", r.URL.Path)
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"response":"Hi there.","thread_id":"t1","message_id":"m1",
			"personality_used":"syntaxprime","response_time_ms":412,
			"knowledge_sources":[{"title":"a"},{"title":"b"}],"datetime_context_used":true}`)
	})

	resp, err := client.Chat(context.Background(), sampleRequest(nil))
	require.NoError(t, err)

	assert.Equal(t, "Hi there.", resp.Response)
	assert.Equal(t, "t1", resp.ThreadID)
	assert.Equal(t, "m1", resp.MessageID)
	assert.Equal(t, "syntaxprime", resp.PersonalityUsed)
	assert.Equal(t, int64(412), resp.ResponseTimeMs)
	assert.Len(t, resp.KnowledgeSources, 2)
	assert.Equal(t, ContextTag("true"), resp.DatetimeContextUsed)

	// thread_id is present and null on the first turn.
	v, ok := body["thread_id"]
	assert.True(t, ok)
	assert.Nil(t, v)
	assert.Equal(t, "Hello", body["message"])
	assert.Equal(t, "syntaxprime", body["personality_id"])
	assert.Equal(t, true, body["include_knowledge"])

	dt, ok := body["datetime_context"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "2025-03-14", dt["current_date"])

	meta, ok := body["client_metadata"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "2025-03-14T13:05:00.000Z", meta["submission_timestamp"])
	assert.Regexp(t, `^msg_1741957500000_[0-9a-f]{9}$`, meta["client_message_id"])
}

func TestChat_SendsThreadVerbatim(t *testing.T) {
	var got any
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		got = body["thread_id"]
		io.WriteString(w, `{"response":"ok","thread_id":"t1"}`)
	})

	thread := "t1"
	_, err := client.Chat(context.Background(), sampleRequest(&thread))
	require.NoError(t, err)
	assert.Equal(t, "t1", got)
}

func TestChat_NumericIDsAndFloatLatency(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"response":"ok","thread_id":42,"message_id":7,"response_time_ms":411.6,"datetime_context_used":"applied"}`)
	})

	resp, err := client.Chat(context.Background(), sampleRequest(nil))
	require.NoError(t, err)
	assert.Equal(t, "42", resp.ThreadID)
	assert.Equal(t, "7", resp.MessageID)
	assert.Equal(t, int64(412), resp.ResponseTimeMs)
	assert.Equal(t, ContextTag("applied"), resp.DatetimeContextUsed)
}

func TestChat_MissingFields(t *testing.T) {
	cases := map[string]string{
		"no response":   `{"thread_id":"t1"}`,
		"no thread":     `{"response":"hi"}`,
		"null thread":   `{"response":"hi","thread_id":null}`,
		"empty thread":  `{"response":"hi","thread_id":""}`,
		"null response": `{"response":null,"thread_id":"t1"}`,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, payload)
			})
			_, err := client.Chat(context.Background(), sampleRequest(nil))
			assert.ErrorIs(t, err, ErrMissingField)
		})
	}
}

func TestChat_MalformedJSON(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `<html>oops</html>`)
	})
	_, err := client.Chat(context.Background(), sampleRequest(nil))
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestChat_ErrorDetail(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"detail":"persona not found"}`)
	})
	_, err := client.Chat(context.Background(), sampleRequest(nil))

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "persona not found", apiErr.Detail)
	assert.NotErrorIs(t, err, ErrUnauthorized)
}

func TestChat_StructuredDetail(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		io.WriteString(w, `{"detail":[{"loc":["body","message"],"msg":"field required"}]}`)
	})
	_, err := client.Chat(context.Background(), sampleRequest(nil))

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Contains(t, apiErr.Detail, "field required")
}

func TestChat_StatusLineFallback(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, "boom")
	})
	_, err := client.Chat(context.Background(), sampleRequest(nil))

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 500, apiErr.Status)
	assert.Equal(t, "500 Internal Server Error", apiErr.Detail)
}

func TestChat_Unauthorized(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			io.WriteString(w, `{"detail":"Not authenticated"}`)
		})
		_, err := client.Chat(context.Background(), sampleRequest(nil))
		assert.ErrorIs(t, err, ErrUnauthorized)
	}
}

func TestChat_NoTokenSendsNoAuthHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "")
	assert.False(t, client.HasToken())
	_, err := client.Chat(context.Background(), sampleRequest(nil))
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestChat_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	client := NewClient(srv.URL, "tok").WithTimeout(50 * time.Millisecond)
	_, err := client.Chat(context.Background(), sampleRequest(nil))
	require.Error(t, err)

	var timeout interface{ Timeout() bool }
	require.True(t, errors.As(err, &timeout))
	assert.True(t, timeout.Timeout())
}

func TestChat_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewClient(url, "tok").Chat(context.Background(), sampleRequest(nil))
	require.Error(t, err)
	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr))
}

func TestNewClientMessageID(t *testing.T) {
	at := time.UnixMilli(1_700_000_000_123)
	a := NewClientMessageID(at)
	b := NewClientMessageID(at)
	assert.Regexp(t, regexp.MustCompile(`^msg_1700000000123_[0-9a-f]{9}$`), a)
	assert.NotEqual(t, a, b)
}

func TestContextTag_Unmarshal(t *testing.T) {
	var v struct {
		Tag ContextTag `json:"tag"`
	}
	for in, want := range map[string]ContextTag{
		`{"tag":"v2"}`:  "v2",
		`{"tag":false}`: "false",
		`{"tag":null}`:  "",
		`{"tag":3}`:     "3",
	} {
		v.Tag = "stale"
		require.NoError(t, json.Unmarshal([]byte(in), &v), in)
		assert.Equal(t, want, v.Tag, in)
	}
}

// =============================================================================
// OTHER ENDPOINTS
// =============================================================================

func TestPersonalities(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/ai/personalities", r.URL.Path)
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		io.WriteString(w, `{"personalities":[{"id":"a","name":"A","is_default":false},{"id":"syntaxprime","name":"Syntax Prime","is_default":true}]}`)
	})

	list, err := client.Personalities(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.True(t, list[1].IsDefault)
	assert.Equal(t, "Syntax Prime", list[1].Name)
}

func TestConversations(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ai/conversations", r.URL.Path)
		io.WriteString(w, `{"conversations":[
			{"thread_id":"t1","title":"Trip","message_count":4,"last_message_at":"2025-03-14T10:00:00Z"},
			{"thread_id":"t2","title":"","message_count":0,"last_message_at":"2025-03-13T09:30:00.123456"},
			{"thread_id":null,"title":"broken"}]}`)
	})

	list, err := client.Conversations(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "t1", list[0].ThreadID)
	assert.Equal(t, 4, list[0].MessageCount)
	assert.Equal(t, time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC), list[0].LastMessageAt.UTC())
	assert.Equal(t, 9, list[1].LastMessageAt.Hour())
}

func TestConversation(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ai/conversations/t%2F1", r.URL.EscapedPath())
		io.WriteString(w, `{"messages":[
			{"id":"m1","role":"user","content":"Hello","created_at":"2025-03-14T10:00:00Z"},
			{"id":2,"role":"assistant","content":"Hi there.","created_at":"2025-03-14T10:00:01Z"}]}`)
	})

	msgs, err := client.Conversation(context.Background(), "t/1")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "m1", msgs[0].ID)
	assert.Equal(t, "user", msgs[0].Role.String())
	assert.Equal(t, "2", msgs[1].ID)
	assert.Equal(t, "Hi there.", msgs[1].Content)

	_, err = client.Conversation(context.Background(), " ")
	assert.Error(t, err)
}

func TestFeedback(t *testing.T) {
	var calls atomic.Int32
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/ai/feedback", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "m1", body["message_id"])
		assert.Equal(t, "good_answer", body["feedback_type"])
		v, ok := body["feedback_text"]
		assert.True(t, ok)
		assert.Nil(t, v)
		io.WriteString(w, `{"status":"ok"}`)
	})

	req := FeedbackRequest{MessageID: "m1", FeedbackType: FeedbackGoodAnswer}
	require.NoError(t, client.Feedback(context.Background(), req))
	assert.Equal(t, int32(1), calls.Load())
}

func TestFeedback_Throttled(t *testing.T) {
	var calls atomic.Int32
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})

	req := FeedbackRequest{MessageID: "m1", FeedbackType: FeedbackBadAnswer}
	for i := 0; i < feedbackBurst; i++ {
		require.NoError(t, client.Feedback(context.Background(), req))
	}
	assert.ErrorIs(t, client.Feedback(context.Background(), req), ErrThrottled)
	assert.Equal(t, int32(feedbackBurst), calls.Load())
}

func TestFeedback_Validation(t *testing.T) {
	client := NewClient("http://127.0.0.1:0", "tok")
	assert.Error(t, client.Feedback(context.Background(), FeedbackRequest{FeedbackType: FeedbackGoodAnswer}))
	assert.Error(t, client.Feedback(context.Background(), FeedbackRequest{MessageID: "m", FeedbackType: "meh"}))

	ft, err := ParseFeedbackType("good_personality")
	require.NoError(t, err)
	assert.Equal(t, FeedbackGoodPersonality, ft)
}

func TestLogout(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/logout", r.URL.Path)
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	})
	require.NoError(t, client.Logout(context.Background()))

	assert.ErrorIs(t, NewClient("http://x", "").Logout(context.Background()), ErrNoToken)
}

func TestResponseSizeLimit(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"personalities":[],"pad":"`)
		io.WriteString(w, strings.Repeat("x", MaxResponseSize))
		io.WriteString(w, `"}`)
	})
	_, err := client.Personalities(context.Background())
	assert.ErrorContains(t, err, "maximum size")
}

func TestParseTimestamp(t *testing.T) {
	assert.True(t, ParseTimestamp("").IsZero())
	assert.True(t, ParseTimestamp("yesterday").IsZero())
	assert.Equal(t, 2025, ParseTimestamp("2025-01-02 03:04:05").Year())
}
