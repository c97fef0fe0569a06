package services

import (
	"errors"
	"time"

	"github.com/lux23/settings-service/internal/models"
)

var (
	// ErrSettingsNotFound means the singleton row was never provisioned.
	ErrSettingsNotFound = errors.New("settings record not provisioned")
	// ErrStoreUnavailable wraps any backing-store failure, timeouts included.
	ErrStoreUnavailable = errors.New("settings store unavailable")
	// ErrUnauthorized is returned when the admin credential does not match.
	ErrUnauthorized = errors.New("invalid admin credential")
	// ErrAlreadyProvisioned is returned by Provision when the row exists.
	ErrAlreadyProvisioned = errors.New("settings record already provisioned")
)

type PaymentKind string

const (
	PaymentKindAlias PaymentKind = "alias"
	PaymentKindCBU   PaymentKind = "cbu"
)

// PaymentDestination is where transfers are sent: an alias or a 22-digit CBU.
type PaymentDestination struct {
	Kind  PaymentKind `json:"kind"`
	Value string      `json:"value"`
}

type RotationSettings struct {
	AutoRotationEnabled bool      `json:"autoRotationEnabled"`
	IntervalMinutes     int       `json:"intervalMinutes"`
	CurrentLineIndex    int       `json:"currentLineIndex"`
	LastRotationTime    time.Time `json:"lastRotationTime"`
}

// ConfigurationRecord is the domain view of the settings row.
// LinePhone is the phone of the selected support line, or the free-form
// phone when the custom entry is selected.
type ConfigurationRecord struct {
	MinAmount          int64              `json:"minAmount"`
	TimerSeconds       int                `json:"timerSeconds"`
	CreateUserEnabled  bool               `json:"createUserEnabled"`
	PaymentDestination PaymentDestination `json:"paymentDestination"`
	BonusEnabled       bool               `json:"bonusEnabled"`
	BonusPercentage    int                `json:"bonusPercentage"`
	SupportPhone       string             `json:"supportPhone"`
	LinePhone          string             `json:"phone"`
	Rotation           RotationSettings   `json:"rotation"`
}

func recordFromModel(m *models.Settings) *ConfigurationRecord {
	return &ConfigurationRecord{
		MinAmount:         m.MinAmount,
		TimerSeconds:      m.TimerSeconds,
		CreateUserEnabled: m.CreateUserEnabled,
		PaymentDestination: PaymentDestination{
			Kind:  PaymentKind(m.PaymentType),
			Value: m.Alias,
		},
		BonusEnabled:    m.BonusEnabled,
		BonusPercentage: m.BonusPercentage,
		SupportPhone:    m.SupportPhone,
		LinePhone:       m.Phone,
		Rotation: RotationSettings{
			AutoRotationEnabled: m.AutoRotationEnabled,
			IntervalMinutes:     m.RotationIntervalMinutes,
			CurrentLineIndex:    m.CurrentLineIndex,
			LastRotationTime:    m.LastRotationTime.UTC(),
		},
	}
}

func (r *ConfigurationRecord) toModel() *models.Settings {
	return &models.Settings{
		ID:                      models.SettingsID,
		MinAmount:               r.MinAmount,
		TimerSeconds:            r.TimerSeconds,
		CreateUserEnabled:       r.CreateUserEnabled,
		Alias:                   r.PaymentDestination.Value,
		Phone:                   r.LinePhone,
		PaymentType:             string(r.PaymentDestination.Kind),
		BonusPercentage:         r.BonusPercentage,
		BonusEnabled:            r.BonusEnabled,
		SupportPhone:            r.SupportPhone,
		AutoRotationEnabled:     r.Rotation.AutoRotationEnabled,
		RotationIntervalMinutes: r.Rotation.IntervalMinutes,
		CurrentLineIndex:        r.Rotation.CurrentLineIndex,
		LastRotationTime:        r.Rotation.LastRotationTime,
	}
}

// updateColumns lists every column of a full-record replace.
func (r *ConfigurationRecord) updateColumns() map[string]interface{} {
	return map[string]interface{}{
		"min_amount":                r.MinAmount,
		"timer_seconds":             r.TimerSeconds,
		"create_user_enabled":       r.CreateUserEnabled,
		"alias":                     r.PaymentDestination.Value,
		"phone":                     r.LinePhone,
		"payment_type":              string(r.PaymentDestination.Kind),
		"bonus_percentage":          r.BonusPercentage,
		"bonus_enabled":             r.BonusEnabled,
		"support_phone":             r.SupportPhone,
		"auto_rotation_enabled":     r.Rotation.AutoRotationEnabled,
		"rotation_interval_minutes": r.Rotation.IntervalMinutes,
		"current_line_index":        r.Rotation.CurrentLineIndex,
		"last_rotation_time":        r.Rotation.LastRotationTime,
	}
}
