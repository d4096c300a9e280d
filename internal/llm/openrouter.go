package llm

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// OpenRouterProvider implements the Provider interface against OpenRouter's
// OpenAI-compatible chat completions API.
type OpenRouterProvider struct {
	apiKey     string
	baseURL    string
	model      string
	referer    string
	httpClient *http.Client
}

// OpenRouterConfig holds configuration for the OpenRouter provider.
type OpenRouterConfig struct {
	APIKey  string
	BaseURL string // default: https://openrouter.ai/api
	Model   string // default: google/gemini-2.5-flash
	Referer string // sent as HTTP-Referer, OpenRouter uses it for attribution
}

// NewOpenRouterProvider creates a new OpenRouter provider.
func NewOpenRouterProvider(cfg OpenRouterConfig) *OpenRouterProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://openrouter.ai/api"
	}
	if cfg.Model == "" {
		cfg.Model = "google/gemini-2.5-flash"
	}
	if cfg.Referer == "" {
		cfg.Referer = "http://localhost:7433"
	}

	return &OpenRouterProvider{
		apiKey:     cfg.APIKey,
		baseURL:    cfg.BaseURL,
		model:      cfg.Model,
		referer:    cfg.Referer,
		httpClient: newLLMHTTPClient(),
	}
}

func (p *OpenRouterProvider) Name() string {
	return "openrouter"
}

func (p *OpenRouterProvider) SupportsStreaming() bool {
	return true
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
	Stop        []string      `json:"stop,omitempty"`
	Stream      bool          `json:"stream,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

func (p *OpenRouterProvider) Generate(ctx context.Context, req *Request) (*Response, error) {
	resp, err := postJSON(ctx, p.httpClient, p.baseURL+"/v1/chat/completions", p.header(), p.buildRequest(req, false))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return p.parseResponse(&chatResp), nil
}

func (p *OpenRouterProvider) GenerateStream(ctx context.Context, req *Request) (<-chan StreamChunk, error) {
	resp, err := postJSON(ctx, p.httpClient, p.baseURL+"/v1/chat/completions", p.header(), p.buildRequest(req, true))
	if err != nil {
		return nil, err
	}

	ch := make(chan StreamChunk, 100)

	go func() {
		defer close(ch)
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			line := scanner.Text()
			if !strings.HasPrefix(line, "data: ") {
				continue
			}
			data := strings.TrimPrefix(line, "data: ")
			if data == "[DONE]" {
				ch <- StreamChunk{Done: true}
				return
			}

			var event struct {
				Choices []struct {
					Delta struct {
						Content string `json:"content"`
					} `json:"delta"`
					FinishReason *string `json:"finish_reason"`
				} `json:"choices"`
			}
			if err := json.Unmarshal([]byte(data), &event); err != nil {
				continue
			}

			if len(event.Choices) > 0 {
				if event.Choices[0].Delta.Content != "" {
					ch <- StreamChunk{Content: event.Choices[0].Delta.Content}
				}
				if event.Choices[0].FinishReason != nil {
					ch <- StreamChunk{Done: true}
					return
				}
			}
		}

		if err := scanner.Err(); err != nil {
			ch <- StreamChunk{Error: err}
		}
	}()

	return ch, nil
}

func (p *OpenRouterProvider) buildRequest(req *Request, stream bool) *chatRequest {
	model := req.Model
	if model == "" {
		model = p.model
	}

	messages := make([]chatMessage, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.System})
	}
	for _, m := range req.Messages {
		messages = append(messages, chatMessage{Role: string(m.Role), Content: m.Content})
	}

	return &chatRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		Stop:        req.StopSeqs,
		Stream:      stream,
	}
}

func (p *OpenRouterProvider) header() http.Header {
	h := http.Header{}
	h.Set("Authorization", "Bearer "+p.apiKey)
	h.Set("HTTP-Referer", p.referer)
	h.Set("X-Title", "kata")
	return h
}

func (p *OpenRouterProvider) parseResponse(resp *chatResponse) *Response {
	if len(resp.Choices) == 0 {
		return &Response{}
	}
	return &Response{
		Content:      resp.Choices[0].Message.Content,
		FinishReason: resp.Choices[0].FinishReason,
		Usage: Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		},
	}
}
