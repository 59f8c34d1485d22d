package service

import (
	"context"
	"strings"

	"liirat-news/internal/api/dto"
	"liirat-news/internal/api/repository"
	"liirat-news/pkg/common"
	"liirat-news/pkg/logger"
)

type ChatService interface {
	Chat(ctx context.Context, req dto.ChatRequest) (*dto.ChatResponse, error)
}

func NewChatService(repo repository.ChatRepository, log *logger.Logger) ChatService {
	return &chatService{repo: repo, logger: log}
}

type chatService struct {
	repo   repository.ChatRepository
	logger *logger.Logger
}

// Chat forwards only the most recent history messages.
func (s *chatService) Chat(ctx context.Context, req dto.ChatRequest) (*dto.ChatResponse, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, newValidationError("message is required")
	}
	language := req.Language
	if language == "" {
		language = common.DefaultLanguage
	}

	history := req.History
	if len(history) > common.ChatHistoryLimit {
		history = history[len(history)-common.ChatHistoryLimit:]
	}

	reply, err := s.repo.Chat(ctx, language, history, message)
	if err != nil {
		s.logger.Error("Chat completion failed", logger.ErrorField(err))
		return nil, err
	}
	return &dto.ChatResponse{Success: true, Response: reply}, nil
}
