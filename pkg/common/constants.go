package common

// Storage keys shared between the API and the worker.
const (
	SessionKeyPrefix       = "liirat-user-session"
	AnonymousUserKeyPrefix = "liirat-anonymous-user-id"

	RedisKeyPriceTicker          = "price_ticker"
	RedisKeyPriceTickerUpdatedAt = "price_ticker:updated_at"
	RedisKeyPriceTickerError     = "price_ticker:last_error"
	RedisKeyNotificationHistory  = "notification_history"
)

// SessionHeader carries the opaque session token on API requests.
const SessionHeader = "X-Session-Token"

const (
	DefaultLanguage = "ar"
	DefaultTimezone = "UTC"

	CalendarPageSize      = 6
	AlertsPageSize        = 5
	SearchSuggestionLimit = 5
	AssetSuggestionLimit  = 8
	NotificationHistory   = 10
	ChatHistoryLimit      = 12

	DateLayout = "2006-01-02"
)
