package service

import (
	"strconv"
	"strings"

	"liirat-news/internal/api/dto"
	"liirat-news/internal/entity"
	"liirat-news/internal/session"
)

// Direction compares actual with forecast: "up", "down", "flat", or "" when either is missing or non-numeric.
func Direction(actual, forecast *string) string {
	if actual == nil || forecast == nil {
		return ""
	}
	a, ok := parseFigure(*actual)
	if !ok {
		return ""
	}
	f, ok := parseFigure(*forecast)
	if !ok {
		return ""
	}
	switch {
	case a > f:
		return "up"
	case a < f:
		return "down"
	default:
		return "flat"
	}
}

func parseFigure(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	multiplier := 1.0
	switch strings.ToUpper(s[len(s)-1:]) {
	case "K":
		multiplier = 1e3
		s = s[:len(s)-1]
	case "M":
		multiplier = 1e6
		s = s[:len(s)-1]
	case "B":
		multiplier = 1e9
		s = s[:len(s)-1]
	case "%":
		s = s[:len(s)-1]
	}
	s = strings.ReplaceAll(s, ",", "")
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return v * multiplier, true
}

func mapToEventResponse(e *entity.Event) dto.EventResponse {
	return dto.EventResponse{
		ID:              e.ID,
		Title:           e.Title,
		EventTime:       e.EventTime,
		Country:         e.Country,
		Currency:        e.Currency,
		Importance:      e.Importance,
		ImportanceLabel: entity.ImportanceLabel(e.Importance),
		Category:        e.Category,
		ActualValue:     e.ActualValue,
		Forecast:        e.Forecast,
		Previous:        e.Previous,
		Direction:       Direction(e.ActualValue, e.Forecast),
		Analysis:        e.Analysis,
		AnalysisDate:    e.AnalysisDate,
	}
}

func mapToAlertResponse(a *entity.Alert) dto.AlertResponse {
	channels := []string(a.NotificationChannels)
	if channels == nil {
		channels = []string{}
	}
	return dto.AlertResponse{
		ID:                   a.ID,
		EventID:              a.EventID,
		AssetID:              a.AssetID,
		TargetPrice:          a.TargetPrice,
		AlertType:            string(a.AlertType),
		LeadTimeMinutes:      a.LeadTimeMinutes,
		NotificationChannels: channels,
		IsActive:             a.IsActive,
		CreatedAt:            a.CreatedAt,
	}
}

func mapToAssetResponse(a *entity.Asset) dto.AssetResponse {
	return dto.AssetResponse{
		ID:             a.ID,
		Symbol:         a.Symbol,
		Name:           a.Name,
		Category:       a.Category,
		LatestPrice:    a.LatestPrice,
		ChangePercent:  a.ChangePercent,
		PriceUpdatedAt: a.PriceUpdatedAt,
	}
}

// MapToSessionResponse exposes a session to clients.
func MapToSessionResponse(s *session.Session) dto.SessionResponse {
	return dto.SessionResponse{
		ID:                s.ID,
		Email:             s.Email,
		FullName:          s.FullName,
		PreferredLanguage: s.PreferredLanguage,
		Timezone:          s.Timezone,
		RememberMe:        s.RememberMe,
		LoginTime:         s.LoginTime,
	}
}
