package service

import (
	"context"
	"strings"

	"liirat-news/internal/api/dto"
	"liirat-news/internal/api/repository"
	"liirat-news/pkg/common"
	"liirat-news/pkg/logger"

	"golang.org/x/sync/singleflight"
)

// TranslateService translates short texts, caching every result.
type TranslateService interface {
	Translate(ctx context.Context, req dto.TranslateRequest) (*dto.TranslateResponse, error)
}

func NewTranslateService(cache repository.TranslationCacheRepository, upstream repository.TranslationRepository, log *logger.Logger) TranslateService {
	return &translateService{cache: cache, upstream: upstream, logger: log}
}

type translateService struct {
	cache    repository.TranslationCacheRepository
	upstream repository.TranslationRepository
	logger   *logger.Logger
	group    singleflight.Group
}

func (s *translateService) Translate(ctx context.Context, req dto.TranslateRequest) (*dto.TranslateResponse, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, newValidationError("Missing text")
	}
	lang := req.Lang
	if lang == "" {
		lang = common.DefaultLanguage
	}

	if hit, ok, err := s.cache.Get(ctx, lang, req.Text); err != nil {
		s.logger.Warn("Failed to read translation cache", logger.ErrorField(err))
	} else if ok {
		return &dto.TranslateResponse{OK: true, Cached: true, Translation: hit}, nil
	}

	v, err, _ := s.group.Do(repository.TranslationKey(lang, req.Text), func() (interface{}, error) {
		// A caller that lost the race may find the result already stored.
		if hit, ok, err := s.cache.Get(ctx, lang, req.Text); err == nil && ok {
			return hit, nil
		}
		translation, err := s.upstream.Translate(ctx, req.Text, lang)
		if err != nil {
			return nil, err
		}
		if err := s.cache.Set(ctx, lang, req.Text, translation); err != nil {
			s.logger.Warn("Failed to persist translation", logger.ErrorField(err))
		}
		return translation, nil
	})
	if err != nil {
		s.logger.Error("Translation failed", logger.ErrorField(err), logger.StringField("lang", lang))
		return nil, err
	}
	return &dto.TranslateResponse{OK: true, Cached: false, Translation: v.(string)}, nil
}
