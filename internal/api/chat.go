package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/vadym312/AI-Chatbot/internal/chat"
	"github.com/vadym312/AI-Chatbot/internal/domain"
)

const (
	// maxFormBodySize caps the stateless chat endpoint's form body.
	maxFormBodySize = 1 << 20 // 1MB

	// maxMediaBytes caps a decoded media attachment.
	maxMediaBytes = 5 << 20 // 5MB

	// maxMessageBodySize allows for a base64 data URL carrying a
	// maxMediaBytes attachment plus JSON overhead.
	maxMessageBodySize = 8 << 20 // 8MB
)

// RegisterRoutes mounts the chat API.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/api/chat", h.HandleChat)

	r.Route("/api/chats", func(r chi.Router) {
		r.Post("/", h.HandleCreateChat)
		r.Get("/", h.HandleListChats)
		r.Get("/{chatID}", h.HandleGetChat)
		r.Delete("/{chatID}", h.HandleRemoveChat)
		r.Post("/{chatID}/messages", h.HandleSendMessage)
	})
}

// HandleChat is the stateless request endpoint: a form-encoded prompt plus
// client-held history in, a normalized envelope out.
//
// Fields: message (required, non-empty after trim) and history (optional
// JSON array of {role, content}; malformed JSON is treated as no history).
func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBodySize)
	if err := r.ParseForm(); err != nil {
		invalidBody(w, err)
		return
	}

	message := strings.TrimSpace(r.PostFormValue("message"))
	if message == "" {
		DomainError(w, domain.ErrInvalidRequest)
		return
	}

	var history []domain.Turn
	if raw := r.PostFormValue("history"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &history); err != nil {
			// Malformed history never aborts the request.
			history = nil
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	env, err := h.responder.Respond(ctx, message, history)
	if err != nil {
		DomainError(w, err)
		return
	}
	JSON(w, http.StatusOK, env)
}

// HandleCreateChat starts a new chat thread.
func (h *Handler) HandleCreateChat(w http.ResponseWriter, r *http.Request) {
	c, err := h.mgr.CreateChat(r.Context())
	if err != nil {
		DomainError(w, err)
		return
	}
	JSON(w, http.StatusCreated, c)
}

// HandleListChats returns all chat threads, most recently active first.
func (h *Handler) HandleListChats(w http.ResponseWriter, r *http.Request) {
	chats, err := h.mgr.ListChats(r.Context())
	if err != nil {
		DomainError(w, err)
		return
	}
	if chats == nil {
		chats = []*domain.Chat{}
	}
	JSON(w, http.StatusOK, chats)
}

// HandleGetChat returns a chat with its full message history.
func (h *Handler) HandleGetChat(w http.ResponseWriter, r *http.Request) {
	c, err := h.mgr.GetChat(r.Context(), chi.URLParam(r, "chatID"))
	if err != nil {
		if chat.IsNotFound(err) {
			Error(w, http.StatusNotFound, "chat not found")
			return
		}
		DomainError(w, err)
		return
	}
	JSON(w, http.StatusOK, c)
}

// HandleRemoveChat destroys a chat thread.
func (h *Handler) HandleRemoveChat(w http.ResponseWriter, r *http.Request) {
	if err := h.mgr.RemoveChat(r.Context(), chi.URLParam(r, "chatID")); err != nil {
		if chat.IsNotFound(err) {
			Error(w, http.StatusNotFound, "chat not found")
			return
		}
		DomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// sendMessageRequest is the JSON body of the stateful send endpoint.
type sendMessageRequest struct {
	Message string                  `json:"message"`
	Media   *domain.MediaDescriptor `json:"media,omitempty"`
}

// sendMessageResponse carries both appended messages.
type sendMessageResponse struct {
	UserMessage      *domain.Message `json:"user_message"`
	AssistantMessage *domain.Message `json:"assistant_message"`
}

// HandleSendMessage appends a user message to a chat and responds with the
// assistant reply produced by the pipeline.
func (h *Handler) HandleSendMessage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxMessageBodySize)

	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		invalidBody(w, err)
		return
	}
	if req.Media != nil {
		if err := validateMedia(req.Media); err != nil {
			DomainError(w, err)
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	userMsg, assistantMsg, err := h.mgr.SendMessage(ctx, chi.URLParam(r, "chatID"), req.Message, req.Media)
	if err != nil {
		if chat.IsNotFound(err) {
			Error(w, http.StatusNotFound, "chat not found")
			return
		}
		DomainError(w, err)
		return
	}

	JSON(w, http.StatusOK, sendMessageResponse{
		UserMessage:      userMsg,
		AssistantMessage: assistantMsg,
	})
}

// invalidBody writes a request-body decode failure. Oversize bodies keep
// their 413 mapping; anything else that fails to parse is invalid input,
// not a server failure.
func invalidBody(w http.ResponseWriter, err error) {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		DomainError(w, err)
		return
	}
	DomainError(w, domain.ErrInvalidRequest)
}

// validateMedia checks an attachment descriptor: known kind, data URL
// payload, decoded size within the 5MB cap.
func validateMedia(m *domain.MediaDescriptor) error {
	if m.Kind != domain.MediaImage && m.Kind != domain.MediaAudio {
		return domain.ErrInvalidRequest
	}
	if !strings.HasPrefix(m.URL, "data:") {
		return domain.ErrInvalidRequest
	}
	idx := strings.Index(m.URL, ";base64,")
	if idx < 0 {
		return domain.ErrInvalidRequest
	}
	payload := m.URL[idx+len(";base64,"):]
	if base64.StdEncoding.DecodedLen(len(payload)) > maxMediaBytes {
		return domain.ErrInvalidRequest
	}
	return nil
}
