package service

import (
	"context"
	"fmt"

	"liirat-news/internal/api/dto"
	"liirat-news/internal/api/repository"
)

const (
	defaultNewsLimit = 20
	maxNewsLimit     = 100
)

type NewsService interface {
	Latest(ctx context.Context, limit int) ([]dto.NewsArticleResponse, error)
}

func NewNewsService(repo repository.NewsArticleRepository) NewsService {
	return &newsService{repo: repo}
}

type newsService struct {
	repo repository.NewsArticleRepository
}

func (s *newsService) Latest(ctx context.Context, limit int) ([]dto.NewsArticleResponse, error) {
	if limit <= 0 {
		limit = defaultNewsLimit
	}
	if limit > maxNewsLimit {
		limit = maxNewsLimit
	}
	articles, err := s.repo.Latest(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load news: %w", err)
	}
	out := make([]dto.NewsArticleResponse, 0, len(articles))
	for _, a := range articles {
		keywords := []string(a.Keywords)
		if keywords == nil {
			keywords = []string{}
		}
		out = append(out, dto.NewsArticleResponse{
			ID:          a.ID,
			Title:       a.Title,
			Link:        a.Link,
			Source:      a.Source,
			Summary:     a.Summary,
			PublishedAt: a.PublishedAt,
			Keywords:    keywords,
		})
	}
	return out, nil
}
