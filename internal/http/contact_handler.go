package http

import (
	"context"
	"net/http"
	"time"

	"github.com/Tijndh/Mallow/internal/domain"
)

type ContactService interface {
	SubmitMessage(ctx context.Context, name, email, subject, message string) (*domain.ContactMessage, error)
}

type ContactHandler struct {
	contact ContactService
	timeout time.Duration
}

func NewContactHandler(contact ContactService, timeout time.Duration) *ContactHandler {
	return &ContactHandler{
		contact: contact,
		timeout: timeout,
	}
}

type ContactRequestDTO struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// POST /contact
func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req ContactRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	msg, err := h.contact.SubmitMessage(ctx, req.Name, req.Email, req.Subject, req.Message)
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, msg)
}
