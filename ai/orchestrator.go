package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/juridibot/legal-chat-api/models"
)

const systemPrompt = `Você é um assistente jurídico da plataforma. Responda dúvidas sobre direito ` +
	`brasileiro de forma clara e acolhedora. Quando coletar nome e e-mail do cliente, chame register_user. ` +
	`Quando o caso exigir um advogado humano por complexidade ou urgência, chame update_conversation_status ` +
	`com status assigned_to_lawyer. Quando perceber que a conversa foi concluída, chame ` +
	`detect_conversation_completion. Nunca forneça aconselhamento definitivo sem ressalvas.`

// chatRequest is the minimal request shape for the Chat Completions endpoint.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Tools       []toolDef     `json:"tools,omitempty"`
	Temperature *float64      `json:"temperature,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type toolDef struct {
	Type     string      `json:"type"`
	Function functionDef `json:"function"`
}

type functionDef struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

// chatResponse is the minimal response shape returned by the Chat Completions endpoint.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content   string `json:"content"`
			ToolCalls []struct {
				ID       string `json:"id"`
				Type     string `json:"type"`
				Function struct {
					Name      string `json:"name"`
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"message"`
	} `json:"choices"`
}

// HTTPStatusError captures non-2xx upstream responses with status-aware context.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("openai: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

// Result is one completed model turn: the free-text reply plus any structured
// function calls, in emission order.
type Result struct {
	Reply         string
	FunctionCalls []FunctionCall
}

// Orchestrator wraps the chat-completions endpoint. History is replayed in
// full creation order on every call, the model keeps no memory between calls,
// so message ordering upstream is a hard invariant.
type Orchestrator struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// Option mutates an Orchestrator at construction
type Option func(*Orchestrator)

// WithBaseURL points the client at an OpenAI-compatible endpoint
func WithBaseURL(baseURL string) Option {
	return func(o *Orchestrator) {
		o.baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	}
}

// WithHTTPClient overrides the HTTP client, mostly for tests
func WithHTTPClient(httpClient *http.Client) Option {
	return func(o *Orchestrator) {
		o.httpClient = httpClient
	}
}

// New creates a new Orchestrator
func New(apiKey, model string, opts ...Option) (*Orchestrator, error) {
	if apiKey == "" {
		return nil, errors.New("ai: api key must not be empty")
	}
	if model == "" {
		return nil, errors.New("ai: model must not be empty")
	}
	o := &Orchestrator{
		baseURL:    "https://api.openai.com/v1",
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Converse runs one model turn over the full conversation history plus the
// new user text. Malformed tool calls are skipped with a warning; transport
// and upstream failures come back as *Error so the caller can offer a retry.
func (o *Orchestrator) Converse(ctx context.Context, conversationID string, history []models.Message, newUserText string) (*Result, error) {
	messages := make([]chatMessage, 0, len(history)+2)
	messages = append(messages, chatMessage{Role: "system", Content: systemPrompt})
	for _, m := range history {
		messages = append(messages, chatMessage{Role: roleFor(m.Sender), Content: m.Text})
	}
	messages = append(messages, chatMessage{Role: "user", Content: newUserText})

	body, err := json.Marshal(chatRequest{
		Model:    o.model,
		Messages: messages,
		Tools:    conversationTools(),
	})
	if err != nil {
		return nil, &Error{Kind: KindUnavailable, Err: fmt.Errorf("marshal request: %w", err)}
	}

	url := o.baseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &Error{Kind: KindUnavailable, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	res, err := o.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, &Error{Kind: KindTimeout, Err: err}
		}
		return nil, &Error{Kind: KindUnavailable, Err: err}
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return nil, &Error{Kind: KindUnavailable, Err: &HTTPStatusError{StatusCode: res.StatusCode, URL: url, Body: string(buf)}}
	}

	raw, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return nil, &Error{Kind: KindUnavailable, Err: fmt.Errorf("read response body: %w", err)}
	}

	var payload chatResponse
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, &Error{Kind: KindUnavailable, Err: fmt.Errorf("decode response: %w", err)}
	}
	if len(payload.Choices) == 0 {
		return nil, &Error{Kind: KindUnavailable, Err: errors.New("no choices in response")}
	}

	choice := payload.Choices[0].Message
	result := &Result{Reply: choice.Content}
	for _, tc := range choice.ToolCalls {
		call, parseErr := parseFunctionCall(tc.Function.Name, tc.Function.Arguments)
		if parseErr != nil {
			zap.S().Warnw("skipping malformed function call",
				"conversationId", conversationID,
				"function", tc.Function.Name,
				"error", parseErr)
			continue
		}
		result.FunctionCalls = append(result.FunctionCalls, call)
	}

	return result, nil
}

func roleFor(sender models.Sender) string {
	switch sender {
	case models.SenderUser:
		return "user"
	case models.SenderSystem:
		return "system"
	default:
		return "assistant"
	}
}

func conversationTools() []toolDef {
	return []toolDef{
		{
			Type: "function",
			Function: functionDef{
				Name:        fnRegisterUser,
				Description: "Registra os dados de contato coletados do cliente",
				Parameters: json.RawMessage(`{
					"type":"object",
					"properties":{
						"name":{"type":"string"},
						"email":{"type":"string"},
						"phone":{"type":"string"}
					},
					"required":["name","email"]
				}`),
			},
		},
		{
			Type: "function",
			Function: functionDef{
				Name:        fnUpdateConversationStatus,
				Description: "Atualiza o status do atendimento no ciclo de vida da conversa",
				Parameters: json.RawMessage(`{
					"type":"object",
					"properties":{
						"conversationId":{"type":"string"},
						"status":{"type":"string","enum":["active","resolved_by_ai","assigned_to_lawyer","completed"]}
					},
					"required":["status"]
				}`),
			},
		},
		{
			Type: "function",
			Function: functionDef{
				Name:        fnDetectConversationCompletion,
				Description: "Sinaliza que a conversa parece concluída e se o pedido de avaliação deve aparecer",
				Parameters: json.RawMessage(`{
					"type":"object",
					"properties":{
						"should_show_feedback":{"type":"boolean"},
						"completion_reason":{"type":"string"},
						"feedback_context":{"type":"string"}
					},
					"required":["should_show_feedback","completion_reason"]
				}`),
			},
		},
	}
}
