package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"catalog-assistant-service/internal/domain"
	"catalog-assistant-service/internal/magento"
	"catalog-assistant-service/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// maxResultLimit caps how many products one chat turn may request.
const maxResultLimit = 50

// IntentClassifier is the NLU collaborator contract. A classification
// failure arrives as an intent with Task set to TaskError, never as a panic
// or transport error.
type IntentClassifier interface {
	Classify(ctx context.Context, message string) domain.Intent
	AnswerProductQuestion(ctx context.Context, question string, productJSON json.RawMessage) (string, error)
}

// CatalogQueryer is the catalog query service contract.
type CatalogQueryer interface {
	Query(ctx context.Context, intent domain.Intent, creds domain.Credentials) (*domain.QueryResult, error)
	ProductBySKU(ctx context.Context, sku string, creds domain.Credentials) (json.RawMessage, error)
}

// ConnectionTester verifies a credential bundle against the live store.
type ConnectionTester interface {
	TestConnection(ctx context.Context, creds domain.Credentials) (string, error)
}

// HTTPHandler holds dependencies for HTTP handlers.
type HTTPHandler struct {
	classifier IntentClassifier
	catalog    CatalogQueryer
	connection ConnectionTester
	contexts   store.ConversationStorer
	validate   *validator.Validate
}

// NewHTTPHandler creates a new HTTPHandler with dependencies.
func NewHTTPHandler(classifier IntentClassifier, catalog CatalogQueryer, connection ConnectionTester, contexts store.ConversationStorer) *HTTPHandler {
	return &HTTPHandler{
		classifier: classifier,
		catalog:    catalog,
		connection: connection,
		contexts:   contexts,
		validate:   validator.New(),
	}
}

// --- Helpers ---

// ErrorResponse defines the structure for JSON error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, ErrorResponse{Error: message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			log.Printf("ERROR: Failed to encode JSON response: %v", err)
			http.Error(w, `{"error": "Internal server error during JSON encoding"}`, http.StatusInternalServerError)
		}
	}
}

// --- Chat ---

// ChatRequest is one user turn. Context is opaque client state echoed back
// by some frontends; the server keeps its own context in the store.
type ChatRequest struct {
	UserID      string              `json:"user_id" validate:"required"`
	Message     string              `json:"message" validate:"required"`
	Credentials *domain.Credentials `json:"credentials"`
	Context     json.RawMessage     `json:"context,omitempty"`
}

// ChatResponse is the assistant's reply: presentable text plus optional
// structured data (product cards) for the frontend to render.
type ChatResponse struct {
	ResponseText string      `json:"response_text"`
	Intent       string      `json:"intent,omitempty"`
	Data         interface{} `json:"data,omitempty"`
}

func (h *HTTPHandler) HandleChat(w http.ResponseWriter, r *http.Request) {
	var input ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if err := h.validate.Struct(input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	if input.Credentials == nil {
		respondWithJSON(w, http.StatusOK, ChatResponse{ResponseText: "Please connect to a store first."})
		return
	}
	creds := *input.Credentials

	intent := h.classifier.Classify(r.Context(), input.Message)
	if intent.Task == domain.TaskError {
		log.Printf("WARN: intent classification failed for user %s: %s", input.UserID, intent.Details)
		respondWithJSON(w, http.StatusOK, ChatResponse{ResponseText: "Sorry, I had an issue understanding your request."})
		return
	}

	if intent.Limit > maxResultLimit {
		intent.Limit = maxResultLimit
	}

	intent = h.settleDetailsTask(r.Context(), intent, input.UserID)

	switch intent.Task {
	case domain.TaskCount:
		h.respondCount(w, r, intent, creds)
	case domain.TaskDetails:
		h.respondDetails(w, r, intent, creds, input.UserID)
	default:
		h.respondSearch(w, r, intent, creds, input.UserID)
	}
}

// settleDetailsTask enforces the details invariant: a details task needs a
// question and a resolvable SKU. A missing SKU may be carried over from the
// user's prior turn; with neither, the task degrades to a plain search.
func (h *HTTPHandler) settleDetailsTask(ctx context.Context, intent domain.Intent, userID string) domain.Intent {
	if intent.Task != domain.TaskDetails {
		return intent
	}
	if intent.Question == "" {
		intent.Task = domain.TaskSearch
		return intent
	}
	if intent.SKU == "" {
		cc, err := h.contexts.GetContext(ctx, userID)
		if err != nil {
			if !errors.Is(err, store.ErrContextNotFound) {
				log.Printf("WARN: conversation context lookup for user %s failed: %v", userID, err)
			}
			intent.Task = domain.TaskSearch
			return intent
		}
		intent.SKU = cc.LastSKU
	}
	return intent
}

func (h *HTTPHandler) respondCount(w http.ResponseWriter, r *http.Request, intent domain.Intent, creds domain.Credentials) {
	result, err := h.catalog.Query(r.Context(), intent, creds)
	if err != nil {
		h.respondCatalogError(w, err)
		return
	}
	text := fmt.Sprintf("I found a total of **%d** products matching your criteria.", result.TotalCount)
	respondWithJSON(w, http.StatusOK, ChatResponse{ResponseText: text})
}

func (h *HTTPHandler) respondSearch(w http.ResponseWriter, r *http.Request, intent domain.Intent, creds domain.Credentials, userID string) {
	result, err := h.catalog.Query(r.Context(), intent, creds)
	if err != nil {
		h.respondCatalogError(w, err)
		return
	}

	if len(result.Items) == 0 {
		respondWithJSON(w, http.StatusOK, ChatResponse{ResponseText: "I couldn't find any products matching your search."})
		return
	}

	h.rememberFirstSKU(r.Context(), userID, result.Items)

	text := fmt.Sprintf("Here are the top %d of %d results:", len(result.Items), result.TotalCount)
	respondWithJSON(w, http.StatusOK, ChatResponse{
		ResponseText: text,
		Intent:       "search_products_result",
		Data:         result.Items,
	})
}

func (h *HTTPHandler) respondDetails(w http.ResponseWriter, r *http.Request, intent domain.Intent, creds domain.Credentials, userID string) {
	productJSON, err := h.catalog.ProductBySKU(r.Context(), intent.SKU, creds)
	if err != nil {
		var apiErr *magento.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			text := fmt.Sprintf("I couldn't find a product with SKU %q.", intent.SKU)
			respondWithJSON(w, http.StatusOK, ChatResponse{ResponseText: text})
			return
		}
		h.respondCatalogError(w, err)
		return
	}

	answer, err := h.classifier.AnswerProductQuestion(r.Context(), intent.Question, productJSON)
	if err != nil {
		log.Printf("WARN: product question answering failed for SKU %s: %v", intent.SKU, err)
		respondWithJSON(w, http.StatusOK, ChatResponse{ResponseText: "Sorry, I couldn't work out an answer for that product right now."})
		return
	}

	if err := h.contexts.UpsertContext(r.Context(), userID, intent.SKU); err != nil {
		log.Printf("WARN: saving conversation context for user %s failed: %v", userID, err)
	}

	respondWithJSON(w, http.StatusOK, ChatResponse{ResponseText: answer, Intent: "product_details_result"})
}

// rememberFirstSKU stores the first shown product so a follow-up details
// question can resolve without an explicit SKU. Store failures only degrade
// follow-ups, so they are logged and swallowed.
func (h *HTTPHandler) rememberFirstSKU(ctx context.Context, userID string, items []domain.Product) {
	if items[0].SKU == nil || *items[0].SKU == "" {
		return
	}
	if err := h.contexts.UpsertContext(ctx, userID, *items[0].SKU); err != nil {
		log.Printf("WARN: saving conversation context for user %s failed: %v", userID, err)
	}
}

// respondCatalogError renders a request-level catalog failure. Transport
// failures keep the backend's status and message; they are never retried.
func (h *HTTPHandler) respondCatalogError(w http.ResponseWriter, err error) {
	log.Printf("ERROR: catalog query failed: %v", err)
	var apiErr *magento.APIError
	if errors.As(err, &apiErr) {
		text := fmt.Sprintf("An error occurred: Magento API Error: %d - %s", apiErr.StatusCode, apiErr.Message)
		respondWithJSON(w, http.StatusOK, ChatResponse{ResponseText: text})
		return
	}
	respondWithError(w, http.StatusInternalServerError, "Failed to query the product catalog")
}

// --- Store connection ---

// ConnectResponse reports the outcome of a connection probe.
type ConnectResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	StoreName string `json:"store_name"`
}

func (h *HTTPHandler) HandleConnect(w http.ResponseWriter, r *http.Request) {
	var creds domain.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if err := h.validate.Struct(creds); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	storeName, err := h.connection.TestConnection(r.Context(), creds)
	if err != nil {
		log.Printf("WARN: store connection test failed: %v", err)
		if magento.IsUnauthorized(err) {
			respondWithError(w, http.StatusUnauthorized,
				"Unauthorized: Invalid credentials or insufficient permissions. Please double-check every key and ensure the Integration has 'All' permissions and has been re-authorized.")
			return
		}
		var apiErr *magento.APIError
		if errors.As(err, &apiErr) {
			respondWithError(w, apiErr.StatusCode, "Magento API error: "+apiErr.Message)
			return
		}
		respondWithError(w, http.StatusInternalServerError, "An unexpected error occurred: "+err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, ConnectResponse{
		Status:    "success",
		Message:   fmt.Sprintf("Successfully connected to Magento store: '%s'", storeName),
		StoreName: storeName,
	})
}

// --- Route Registration ---

// RegisterRoutes sets up the HTTP routes for the service.
func (h *HTTPHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/connect", h.HandleConnect) // POST /api/v1/auth/connect
		r.Post("/chatbot/chat", h.HandleChat)    // POST /api/v1/chatbot/chat
	})
}
