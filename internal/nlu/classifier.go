// Package nlu is the intent-classifier collaborator: it turns free-text user
// messages into structured intent records via an OpenAI-compatible
// chat-completions endpoint with tool calling.
package nlu

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"catalog-assistant-service/internal/domain"
)

const defaultEndpoint = "https://api.openai.com/v1/chat/completions"

// Classifier calls the LLM backend. Safe for concurrent use.
type Classifier struct {
	apiKey     string
	model      string
	endpoint   string
	httpClient *http.Client
}

// NewClassifier creates a Classifier. endpoint may be empty for the OpenAI
// default; httpClient may be nil for http.DefaultClient.
func NewClassifier(apiKey, model, endpoint string, httpClient *http.Client) *Classifier {
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Classifier{apiKey: apiKey, model: model, endpoint: endpoint, httpClient: httpClient}
}

type chatRequest struct {
	Model      string        `json:"model"`
	Messages   []chatMessage `json:"messages"`
	Tools      []tool        `json:"tools,omitempty"`
	ToolChoice string        `json:"tool_choice,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type tool struct {
	Type     string   `json:"type"`
	Function function `json:"function"`
}

type function struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content   string `json:"content"`
			ToolCalls []struct {
				Function struct {
					Name      string `json:"name"`
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"message"`
	} `json:"choices"`
}

// productSearchParameters is the JSON schema for the single tool the model
// can call. The property names line up with domain.Intent's json tags.
var productSearchParameters = json.RawMessage(`{
	"type": "object",
	"properties": {
		"task": {
			"type": "string",
			"enum": ["search", "count", "details"],
			"description": "What the user wants: find products, count them, or ask about one specific product."
		},
		"keywords": {
			"type": "string",
			"description": "General keywords or product names from the prompt. For 'show me Bazz recessed lights', this would be 'recessed lights'."
		},
		"sku": {
			"type": "string",
			"description": "A product SKU or identifier the user typed, if any."
		},
		"brand": {
			"type": "string",
			"description": "The brand name mentioned, if any. For 'show me Bazz recessed lights', this would be 'Bazz'."
		},
		"category": {
			"type": "string",
			"description": "A product category the user named, if any."
		},
		"on_sale": {
			"type": "boolean",
			"description": "True when the user asks for discounted or on-sale products."
		},
		"limit": {
			"type": "integer",
			"description": "How many results the user asked for, if they said a number."
		},
		"attributes": {
			"type": "object",
			"additionalProperties": {"type": "string"},
			"description": "Other attribute filters, keyed by attribute code, e.g. {\"color\": \"black\"}."
		},
		"question": {
			"type": "string",
			"description": "For the details task: the question being asked about the product."
		}
	}
}`)

// Classify extracts a structured intent from a user message. It never
// returns a Go error: any transport or decoding failure becomes an intent
// with Task set to TaskError and the description in Details, which callers
// must check before compiling filters.
func (c *Classifier) Classify(ctx context.Context, message string) domain.Intent {
	req := chatRequest{
		Model:    c.model,
		Messages: []chatMessage{{Role: "user", Content: message}},
		Tools: []tool{{
			Type: "function",
			Function: function{
				Name:        "product_search",
				Description: "Extracts search parameters from a user's product query to find, count, or describe products.",
				Parameters:  productSearchParameters,
			},
		}},
		ToolChoice: "auto",
	}

	resp, err := c.complete(ctx, req)
	if err != nil {
		return domain.Intent{Task: domain.TaskError, Details: err.Error()}
	}

	if len(resp.Choices) == 0 {
		return domain.Intent{Task: domain.TaskError, Details: "empty completion response"}
	}

	calls := resp.Choices[0].Message.ToolCalls
	if len(calls) == 0 {
		// Model chose not to call the tool: treat the whole message as keywords.
		return domain.Intent{Task: domain.TaskSearch, Keywords: message}
	}

	var intent domain.Intent
	if err := json.Unmarshal([]byte(calls[0].Function.Arguments), &intent); err != nil {
		return domain.Intent{Task: domain.TaskError, Details: "malformed tool arguments: " + err.Error()}
	}
	if intent.Task == "" {
		intent.Task = domain.TaskSearch
	}
	return intent
}

// AnswerProductQuestion answers a question about one product from its raw
// catalog record. Unlike Classify, failures are returned as errors; the
// caller decides how to present them.
func (c *Classifier) AnswerProductQuestion(ctx context.Context, question string, productJSON json.RawMessage) (string, error) {
	req := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{
				Role: "system",
				Content: "You are a shopping assistant. Answer the customer's question using only the " +
					"product data below. If the data does not contain the answer, say so plainly.\n\n" +
					"Product data:\n" + string(productJSON),
			},
			{Role: "user", Content: question},
		},
	}

	resp, err := c.complete(ctx, req)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("nlu: empty answer from model")
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *Classifier) complete(ctx context.Context, payload chatRequest) (*chatResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("nlu: encoding request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("nlu: building request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("nlu: completion request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("nlu: completion request failed: %s", resp.Status)
	}

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("nlu: decoding response: %w", err)
	}
	return &decoded, nil
}
