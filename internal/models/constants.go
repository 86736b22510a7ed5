package models

// Rental statuses.
const (
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
	StatusCompleted = "completed"
)

// Price units.
const (
	PriceUnitHour = "hour"
	PriceUnitDay  = "day"
	PriceUnitWeek = "week"
)

// Listing categories.
const (
	CategorySports      = "sports"
	CategoryTools       = "tools"
	CategoryElectronics = "electronics"
	CategoryOther       = "other"
)

// Listing conditions.
const (
	ConditionLikeNew = "like new"
	ConditionGood    = "good"
	ConditionFair    = "fair"
)

// Sync task statuses.
const (
	SyncStatusPending   = "pending"
	SyncStatusRetry     = "retry"
	SyncStatusCompleted = "completed"
	SyncStatusFailed    = "failed"
)

const (
	// DefaultKeyPrefix namespaces every storage key.
	DefaultKeyPrefix = "rentease"

	// WorkerQueueSize размер очереди воркера
	WorkerQueueSize = 128

	// DefaultBackupRetentionDays хранение бэкапов по умолчанию
	DefaultBackupRetentionDays = 14

	// RateLimitRPS / RateLimitBurst значения по умолчанию для HTTP API
	RateLimitRPS   = 10
	RateLimitBurst = 20

	// DefaultTokenTTLHours время жизни сессионного токена
	DefaultTokenTTLHours = 72
)

// ValidPriceUnit reports whether the unit is one of hour/day/week.
func ValidPriceUnit(unit string) bool {
	switch unit {
	case PriceUnitHour, PriceUnitDay, PriceUnitWeek:
		return true
	}
	return false
}

// ValidCategory reports whether the category belongs to the closed enum.
func ValidCategory(category string) bool {
	switch category {
	case CategorySports, CategoryTools, CategoryElectronics, CategoryOther:
		return true
	}
	return false
}

// ValidCondition reports whether the condition belongs to the closed enum.
func ValidCondition(condition string) bool {
	switch condition {
	case ConditionLikeNew, ConditionGood, ConditionFair:
		return true
	}
	return false
}
