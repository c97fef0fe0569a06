package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lux23/settings-service/internal/models"
	"github.com/lux23/settings-service/pkg/logger"
	"gorm.io/gorm"
)

// SettingsService owns the singleton settings row. Every call goes to the
// database; nothing is cached in process.
type SettingsService struct {
	db      *gorm.DB
	gate    CredentialVerifier
	catalog *SupportLineCatalog
	timeout time.Duration
	now     func() time.Time
}

func NewSettingsService(db *gorm.DB, gate CredentialVerifier, catalog *SupportLineCatalog, timeout time.Duration) *SettingsService {
	return &SettingsService{
		db:      db,
		gate:    gate,
		catalog: catalog,
		timeout: timeout,
		now:     time.Now,
	}
}

func (s *SettingsService) Catalog() *SupportLineCatalog {
	return s.catalog
}

// storeError maps a gorm error onto the service taxonomy and logs the
// underlying cause, which never reaches callers.
func storeError(op string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Error().Str("op", op).Msg("[Settings] settings row is missing")
		return ErrSettingsNotFound
	}
	logger.Error().Err(err).Str("op", op).Msg("[Settings] backing store error")
	return fmt.Errorf("%w: %s", ErrStoreUnavailable, op)
}

// Get returns the record with the line index normalized into the catalog.
func (s *SettingsService) Get(ctx context.Context) (*ConfigurationRecord, error) {
	record, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	record.Rotation.CurrentLineIndex = s.catalog.Normalize(record.Rotation.CurrentLineIndex)
	return record, nil
}

// load reads the row as stored. commitRotation guards on these raw values.
func (s *SettingsService) load(ctx context.Context) (*ConfigurationRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var row models.Settings
	if err := s.db.WithContext(ctx).Where("id = ?", models.SettingsID).First(&row).Error; err != nil {
		return nil, storeError("get", err)
	}
	return recordFromModel(&row), nil
}

// Update replaces the whole record after the credential and every field have
// been checked. The write is one UPDATE against the singleton row.
func (s *SettingsService) Update(ctx context.Context, candidate ConfigurationRecord, credential string) (*ConfigurationRecord, error) {
	if !s.gate.Verify(credential) {
		recordUnauthorized()
		logger.Warn().Msg("[Settings] update rejected: invalid credential")
		return nil, ErrUnauthorized
	}

	record, err := ValidateRecord(candidate, s.catalog.Len(), s.now())
	if err != nil {
		return nil, err
	}

	writeCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	result := s.db.WithContext(writeCtx).
		Model(&models.Settings{}).
		Where("id = ?", models.SettingsID).
		Updates(record.updateColumns())
	if result.Error != nil {
		return nil, storeError("update", result.Error)
	}

	saved, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}

	recordUpdate()
	logger.Info().
		Str("payment_type", string(saved.PaymentDestination.Kind)).
		Bool("auto_rotation", saved.Rotation.AutoRotationEnabled).
		Int("line_index", saved.Rotation.CurrentLineIndex).
		Msg("[Settings] settings updated")
	return saved, nil
}

// commitRotation advances the line index only if the row still holds the
// state the caller evaluated. It reports whether this call won the advance.
// It bypasses the credential gate: rotation is system-triggered.
func (s *SettingsService) commitRotation(ctx context.Context, from RotationSettings, next int, at time.Time) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	result := s.db.WithContext(ctx).
		Model(&models.Settings{}).
		Where("id = ? AND auto_rotation_enabled = ? AND current_line_index = ? AND last_rotation_time <= ?",
			models.SettingsID, true, from.CurrentLineIndex, from.LastRotationTime).
		Updates(map[string]interface{}{
			"current_line_index": next,
			"last_rotation_time": at,
		})
	if result.Error != nil {
		return false, storeError("rotate", result.Error)
	}
	return result.RowsAffected == 1, nil
}

// Provision creates the singleton row. It is an operator action and is not
// reachable from the HTTP surface.
func (s *SettingsService) Provision(ctx context.Context, candidate ConfigurationRecord) (*ConfigurationRecord, error) {
	record, err := ValidateRecord(candidate, s.catalog.Len(), s.now())
	if err != nil {
		return nil, err
	}

	writeCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var count int64
	if err := s.db.WithContext(writeCtx).Model(&models.Settings{}).Where("id = ?", models.SettingsID).Count(&count).Error; err != nil {
		return nil, storeError("provision", err)
	}
	if count > 0 {
		return nil, ErrAlreadyProvisioned
	}
	if err := s.db.WithContext(writeCtx).Create(record.toModel()).Error; err != nil {
		return nil, storeError("provision", err)
	}

	logger.Info().Msg("[Settings] settings row provisioned")
	return s.Get(ctx)
}
