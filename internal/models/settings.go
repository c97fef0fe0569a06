package models

import "time"

// SettingsID is the fixed key of the one settings row.
const SettingsID uint = 1

// Settings is the singleton operational configuration row.
// Alias holds either an alias or a CBU depending on PaymentType.
type Settings struct {
	ID                      uint      `gorm:"primaryKey;autoIncrement:false" json:"id"`
	MinAmount               int64     `gorm:"column:min_amount;not null" json:"min_amount"`
	TimerSeconds            int       `gorm:"column:timer_seconds;not null" json:"timer_seconds"`
	CreateUserEnabled       bool      `gorm:"column:create_user_enabled;not null" json:"create_user_enabled"`
	Alias                   string    `gorm:"column:alias;size:50;not null" json:"alias"`
	Phone                   string    `gorm:"column:phone;size:15;not null" json:"phone"`
	PaymentType             string    `gorm:"column:payment_type;size:10;not null" json:"payment_type"` // alias, cbu
	BonusPercentage         int       `gorm:"column:bonus_percentage;not null" json:"bonus_percentage"`
	BonusEnabled            bool      `gorm:"column:bonus_enabled;not null" json:"bonus_enabled"`
	SupportPhone            string    `gorm:"column:support_phone;size:15;not null" json:"support_phone"`
	AutoRotationEnabled     bool      `gorm:"column:auto_rotation_enabled;not null" json:"auto_rotation_enabled"`
	RotationIntervalMinutes int       `gorm:"column:rotation_interval_minutes;not null" json:"rotation_interval_minutes"`
	CurrentLineIndex        int       `gorm:"column:current_line_index;not null" json:"current_line_index"`
	LastRotationTime        time.Time `gorm:"column:last_rotation_time;not null" json:"last_rotation_time"`
	UpdatedAt               time.Time `json:"updated_at"`
}

func (Settings) TableName() string { return "settings" }
