package dto

import "time"

// CalendarQuery carries the calendar filters from the query string.
type CalendarQuery struct {
	Search     string `query:"search"`
	Importance []int  `query:"importance"`
	Category   string `query:"category"`
	DateRange  string `query:"date_range"`
	CustomDate string `query:"custom_date"`
	ShowAll    bool   `query:"show_all"`
	Refresh    bool   `query:"refresh"`
	Timezone   string `query:"timezone"`
}

// EventResponse is an event as shown in the calendar.
type EventResponse struct {
	ID              uint       `json:"id"`
	Title           string     `json:"title"`
	EventTime       time.Time  `json:"event_time"`
	Country         string     `json:"country"`
	Currency        string     `json:"currency"`
	Importance      int        `json:"importance"`
	ImportanceLabel string     `json:"importance_label"`
	Category        string     `json:"category"`
	ActualValue     *string    `json:"actual_value,omitempty"`
	Forecast        *string    `json:"forecast,omitempty"`
	Previous        *string    `json:"previous,omitempty"`
	Direction       string     `json:"direction,omitempty"`
	Analysis        string     `json:"analysis,omitempty"`
	AnalysisDate    *time.Time `json:"analysis_date,omitempty"`
	HasAlert        bool       `json:"has_alert"`
	InWatchlist     bool       `json:"in_watchlist"`
}

// CalendarView is the reconciled calendar: filtered events plus the caller's alert and watchlist lookups.
type CalendarView struct {
	AuthState     string                 `json:"auth_state"`
	Events        []EventResponse        `json:"events"`
	Total         int                    `json:"total"`
	HasMore       bool                   `json:"has_more"`
	AlertsByEvent map[uint]AlertResponse `json:"alerts_by_event"`
	Watchlist     []uint                 `json:"watchlist"`
	UserDataStale bool                   `json:"user_data_stale"`
	StaleSince    *time.Time             `json:"stale_since,omitempty"`
	Categories    []string               `json:"categories"`
}

type SuggestionsResponse struct {
	Suggestions []string `json:"suggestions"`
}
