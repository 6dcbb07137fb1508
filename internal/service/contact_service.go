package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Tijndh/Mallow/internal/domain"
	"github.com/Tijndh/Mallow/internal/notifier"
	"github.com/Tijndh/Mallow/internal/repository"
)

type ContactService struct {
	repo     repository.ContactRepository
	notifier notifier.Notifier

	now   func() time.Time
	newID func() string
}

func NewContactService(repo repository.ContactRepository, n notifier.Notifier) *ContactService {
	return &ContactService{
		repo:     repo,
		notifier: n,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

func (s *ContactService) SubmitMessage(ctx context.Context, name, email, subject, message string) (*domain.ContactMessage, error) {
	msg := &domain.ContactMessage{
		Name:    strings.TrimSpace(name),
		Email:   strings.TrimSpace(email),
		Subject: strings.TrimSpace(subject),
		Message: strings.TrimSpace(message),
	}

	for _, f := range []struct{ field, value string }{
		{"name", msg.Name},
		{"email", msg.Email},
		{"subject", msg.Subject},
		{"message", msg.Message},
	} {
		if f.value == "" {
			return nil, fmt.Errorf("%s is required: %w", f.field, domain.ErrInvalidArgument)
		}
	}

	msg.ID = s.newID()
	msg.CreatedAt = s.now().UTC()

	if err := s.repo.Create(ctx, msg); err != nil {
		log.Printf("repo create contact message error: %v", err)
		return nil, err
	}

	log.Printf("new contact message from %s: %s", msg.Email, msg.Subject)

	if err := s.notifier.NotifyContact(ctx, msg); err != nil {
		log.Printf("contact notification failed for %s: %v", msg.ID, err)
	}

	return msg, nil
}
