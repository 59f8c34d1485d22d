package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"liirat-news/internal/api/dto"
	"liirat-news/internal/api/repository"
	"liirat-news/internal/entity"
	"liirat-news/pkg/logger"
	"liirat-news/pkg/telegram"
)

const minContactMessageLength = 10

// ContactService stores contact form submissions and forwards them to the operator chat.
type ContactService interface {
	Submit(ctx context.Context, req dto.ContactRequest) (*dto.ContactResponse, error)
}

func NewContactService(repo repository.ContactMessageRepository, notifier telegram.Notifier, log *logger.Logger) ContactService {
	return &contactService{repo: repo, notifier: notifier, logger: log}
}

type contactService struct {
	repo     repository.ContactMessageRepository
	notifier telegram.Notifier
	logger   *logger.Logger
}

// Submit succeeds once the message is stored. Delivery failures only leave Delivered false.
func (s *contactService) Submit(ctx context.Context, req dto.ContactRequest) (*dto.ContactResponse, error) {
	if verr := ValidateContact(req); verr != nil {
		return nil, verr
	}

	msg := &entity.ContactMessage{
		Name:    strings.TrimSpace(req.Name),
		Email:   strings.TrimSpace(req.Email),
		Phone:   strings.TrimSpace(req.Phone),
		Subject: strings.TrimSpace(req.Subject),
		Message: strings.TrimSpace(req.Message),
	}
	if err := s.repo.Create(ctx, msg); err != nil {
		s.logger.Error("Failed to store contact message", logger.ErrorField(err))
		return nil, fmt.Errorf("failed to store contact message: %w", err)
	}

	resp := &dto.ContactResponse{Success: true, ID: msg.ID}
	if err := s.notifier.SendMessage(telegram.FormatContactMessage(msg)); err != nil {
		s.logger.Warn("Failed to deliver contact message", logger.ErrorField(err), logger.Field("contact_id", msg.ID))
		return resp, nil
	}
	if err := s.repo.MarkDelivered(ctx, msg.ID); err != nil {
		s.logger.Warn("Failed to mark contact message delivered", logger.ErrorField(err), logger.Field("contact_id", msg.ID))
	}
	resp.Delivered = true
	return resp, nil
}

// ValidateContact returns per-field errors, or nil when the request is acceptable.
func ValidateContact(req dto.ContactRequest) *ValidationError {
	fields := map[string]string{}
	if strings.TrimSpace(req.Name) == "" {
		fields["name"] = "name is required"
	}
	if email := strings.TrimSpace(req.Email); email == "" {
		fields["email"] = "email is required"
	} else if !emailPattern.MatchString(email) {
		fields["email"] = "invalid email"
	}
	if strings.TrimSpace(req.Subject) == "" {
		fields["subject"] = "subject is required"
	}
	if message := strings.TrimSpace(req.Message); message == "" {
		fields["message"] = "message is required"
	} else if utf8.RuneCountInString(message) < minContactMessageLength {
		fields["message"] = "message must be at least 10 characters"
	}
	if len(fields) > 0 {
		return &ValidationError{Message: "invalid contact form", Fields: fields}
	}
	return nil
}
