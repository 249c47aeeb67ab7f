package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/juridibot/legal-chat-api/models"
)

func TestNew_RequiresKeyAndModel(t *testing.T) {
	_, err := New("", "gpt-4o-mini")
	assert.Error(t, err)

	_, err = New("sk-test", "")
	assert.Error(t, err)

	o, err := New("sk-test", "gpt-4o-mini")
	assert.NoError(t, err)
	assert.NotNil(t, o)
}

func TestConverse_ReplyAndHistoryOrder(t *testing.T) {
	var captured struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		_ = json.NewDecoder(r.Body).Decode(&captured)

		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"Olá! Como posso ajudar?"}}]}`))
	}))
	defer server.Close()

	o, err := New("sk-test", "gpt-4o-mini", WithBaseURL(server.URL))
	assert.NoError(t, err)

	history := []models.Message{
		{Text: "Fui demitido sem justa causa", Sender: models.SenderUser},
		{Text: "Entendo. Pode me contar mais?", Sender: models.SenderAI},
	}
	result, err := o.Converse(context.Background(), "conv-1", history, "Trabalhei 3 anos na empresa")

	assert.NoError(t, err)
	assert.Equal(t, "Olá! Como posso ajudar?", result.Reply)
	assert.Empty(t, result.FunctionCalls)

	// system prompt, then the history in order, then the new message
	assert.Equal(t, "gpt-4o-mini", captured.Model)
	assert.Len(t, captured.Messages, 4)
	assert.Equal(t, "system", captured.Messages[0].Role)
	assert.Equal(t, "user", captured.Messages[1].Role)
	assert.Equal(t, "Fui demitido sem justa causa", captured.Messages[1].Content)
	assert.Equal(t, "assistant", captured.Messages[2].Role)
	assert.Equal(t, "user", captured.Messages[3].Role)
	assert.Equal(t, "Trabalhei 3 anos na empresa", captured.Messages[3].Content)
}

func TestConverse_ParsesFunctionCalls(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{
			"content":"Perfeito, registrei seus dados.",
			"tool_calls":[
				{"function":{"name":"register_user","arguments":"{\"name\":\"Maria Silva\",\"email\":\"maria@example.com\"}"}},
				{"function":{"name":"update_conversation_status","arguments":"{\"status\":\"resolved_by_ai\"}"}},
				{"function":{"name":"detect_conversation_completion","arguments":"{\"should_show_feedback\":true,\"completion_reason\":\"resolved\"}"}}
			]}}]}`))
	}))
	defer server.Close()

	o, _ := New("sk-test", "gpt-4o-mini", WithBaseURL(server.URL))
	result, err := o.Converse(context.Background(), "conv-1", nil, "obrigada!")

	assert.NoError(t, err)
	assert.Len(t, result.FunctionCalls, 3)

	register, ok := result.FunctionCalls[0].(RegisterUser)
	assert.True(t, ok)
	assert.Equal(t, "Maria Silva", register.Name)
	assert.Equal(t, "maria@example.com", register.Email)

	status, ok := result.FunctionCalls[1].(UpdateConversationStatus)
	assert.True(t, ok)
	assert.Equal(t, models.StatusResolvedByAI, status.Status)

	completion, ok := result.FunctionCalls[2].(DetectConversationCompletion)
	assert.True(t, ok)
	assert.True(t, completion.ShouldShowFeedback)
	assert.Equal(t, "resolved", completion.CompletionReason)
}

func TestConverse_SkipsMalformedFunctionCalls(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{
			"content":"ok",
			"tool_calls":[
				{"function":{"name":"register_user","arguments":"{\"name\":\"sem email\"}"}},
				{"function":{"name":"unknown_tool","arguments":"{}"}},
				{"function":{"name":"update_conversation_status","arguments":"not-json"}},
				{"function":{"name":"update_conversation_status","arguments":"{\"status\":\"assigned_to_lawyer\"}"}}
			]}}]}`))
	}))
	defer server.Close()

	o, _ := New("sk-test", "gpt-4o-mini", WithBaseURL(server.URL))
	result, err := o.Converse(context.Background(), "conv-1", nil, "oi")

	// malformed calls are recovered by skipping, the turn still succeeds
	assert.NoError(t, err)
	assert.Equal(t, "ok", result.Reply)
	assert.Len(t, result.FunctionCalls, 1)

	status, ok := result.FunctionCalls[0].(UpdateConversationStatus)
	assert.True(t, ok)
	assert.Equal(t, models.StatusAssignedToLawyer, status.Status)
}

func TestConverse_UpstreamErrorIsRetryable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":"overloaded"}`))
	}))
	defer server.Close()

	o, _ := New("sk-test", "gpt-4o-mini", WithBaseURL(server.URL))
	result, err := o.Converse(context.Background(), "conv-1", nil, "oi")

	assert.Nil(t, result)
	var aiErr *Error
	assert.True(t, errors.As(err, &aiErr))
	assert.Equal(t, KindUnavailable, aiErr.Kind)
	assert.True(t, aiErr.Retryable())

	var statusErr *HTTPStatusError
	assert.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
}

func TestConverse_TimeoutIsRetryable(t *testing.T) {
	blocked := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-blocked
	}))
	defer server.Close()
	defer close(blocked)

	o, _ := New("sk-test", "gpt-4o-mini", WithBaseURL(server.URL))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	result, err := o.Converse(ctx, "conv-1", nil, "oi")

	assert.Nil(t, result)
	var aiErr *Error
	assert.True(t, errors.As(err, &aiErr))
	assert.Equal(t, KindTimeout, aiErr.Kind)
	assert.True(t, aiErr.Retryable())
}

func TestConverse_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	o, _ := New("sk-test", "gpt-4o-mini", WithBaseURL(server.URL))
	_, err := o.Converse(context.Background(), "conv-1", nil, "oi")

	var aiErr *Error
	assert.True(t, errors.As(err, &aiErr))
	assert.Equal(t, KindUnavailable, aiErr.Kind)
}

func TestParseFunctionCall_BadCallsAreClassified(t *testing.T) {
	cases := []struct {
		name      string
		arguments string
	}{
		{"unknown_tool", `{}`},
		{"register_user", `{"email":"only@example.com"}`},
		{"register_user", `not-json`},
		{"update_conversation_status", `{"status":""}`},
	}
	for _, c := range cases {
		call, err := parseFunctionCall(c.name, c.arguments)
		assert.Nil(t, call)

		var aiErr *Error
		assert.True(t, errors.As(err, &aiErr), "%s should yield *Error", c.name)
		assert.Equal(t, KindBadFunctionCall, aiErr.Kind)
		assert.False(t, aiErr.Retryable())
	}
}
