package models

import (
	"time"

	"github.com/google/uuid"
)

// SettingType declares how a raw setting value should be parsed.
type SettingType string

const (
	SettingTypeText    SettingType = "text"
	SettingTypeNumber  SettingType = "number"
	SettingTypeBoolean SettingType = "boolean"
	SettingTypeDecimal SettingType = "decimal"
)

// Well-known setting keys consumed by the services. Role-specific session
// timeouts use the "<role>_session_timeout_minutes" pattern.
const (
	SettingSessionTimeoutMinutes  = "session_timeout_minutes"
	SettingPickupCodeExpiryDays   = "pickup_code_expiry_days"
	SettingReservationTimeoutHrs  = "reservation_timeout_hours"
	SettingFineTier1Days          = "fine_tier_1_days"
	SettingFineTier1Rate          = "fine_tier_1_rate"
	SettingFineTier2Days          = "fine_tier_2_days"
	SettingFineTier2Rate          = "fine_tier_2_rate"
	SettingFineTier3Rate          = "fine_tier_3_rate"
	SettingDamagedProcessingFee   = "damaged_book_processing_fee"
	SettingMaxBorrowingDays       = "max_borrowing_days"
)

// SystemSetting is a single key/value configuration row editable at runtime.
type SystemSetting struct {
	ID          int64       `json:"id" db:"id"`
	Key         string      `json:"key" db:"key"`
	Value       string      `json:"value" db:"value"`
	SettingType SettingType `json:"setting_type" db:"setting_type"`
	Description string      `json:"description" db:"description"`
	UpdatedBy   *uuid.UUID  `json:"updated_by,omitempty" db:"updated_by"`
	UpdatedAt   time.Time   `json:"updated_at" db:"updated_at"`
}
