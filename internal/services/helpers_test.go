package services

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lux23/settings-service/internal/config"
	"github.com/lux23/settings-service/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const testPin = "2468"

var testDBSeq atomic.Int64

// newTestDB opens a private in-memory sqlite database. A single connection
// keeps the database alive and serializes statements like a row lock would.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:settings_test_%d?mode=memory&cache=shared", testDBSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), models.GormConfig())
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := models.Migrate(db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{t: t}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

var baseTime = time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

func sevenLineCatalog() *SupportLineCatalog {
	specs := make([]config.SupportLineSpec, 0, 7)
	for i := 1; i <= 6; i++ {
		specs = append(specs, config.SupportLineSpec{Name: fmt.Sprintf("Linea %d", i), Phone: fmt.Sprintf("54110000000%d", i)})
	}
	specs = append(specs, config.SupportLineSpec{Name: "Otro / Personalizado"})
	return NewSupportLineCatalog(specs)
}

func validRecord() ConfigurationRecord {
	return ConfigurationRecord{
		MinAmount:         2000,
		TimerSeconds:      30,
		CreateUserEnabled: true,
		PaymentDestination: PaymentDestination{
			Kind:  PaymentKindAlias,
			Value: "lux.pagos",
		},
		BonusEnabled:    true,
		BonusPercentage: 25,
		SupportPhone:    "541141624225",
		LinePhone:       "541176067205",
		Rotation: RotationSettings{
			AutoRotationEnabled: false,
			IntervalMinutes:     60,
			CurrentLineIndex:    0,
			LastRotationTime:    baseTime,
		},
	}
}

func seedRecord(t *testing.T, db *gorm.DB, rec ConfigurationRecord) {
	t.Helper()
	if err := db.Create(rec.toModel()).Error; err != nil {
		t.Fatalf("failed to seed settings: %v", err)
	}
}

func loadRow(t *testing.T, db *gorm.DB) models.Settings {
	t.Helper()
	var row models.Settings
	if err := db.First(&row, models.SettingsID).Error; err != nil {
		t.Fatalf("failed to load settings row: %v", err)
	}
	return row
}

type testEnv struct {
	db       *gorm.DB
	clock    *fakeClock
	settings *SettingsService
	rotation *RotationService
}

func newTestEnv(t *testing.T, catalog *SupportLineCatalog) *testEnv {
	t.Helper()
	db := newTestDB(t)
	clock := newFakeClock(baseTime)
	settings := NewSettingsService(db, NewAccessGate(config.AdminConfig{Pin: testPin}), catalog, 2*time.Second)
	settings.now = clock.Now
	return &testEnv{
		db:       db,
		clock:    clock,
		settings: settings,
		rotation: newRotationService(settings, catalog, clock.Now),
	}
}

// assertRecordEqual compares records with time.Equal for the timestamp.
func assertRecordEqual(t *testing.T, got, want *ConfigurationRecord) {
	t.Helper()
	if !got.Rotation.LastRotationTime.Equal(want.Rotation.LastRotationTime) {
		t.Errorf("LastRotationTime = %v, expected %v", got.Rotation.LastRotationTime, want.Rotation.LastRotationTime)
	}
	g, w := *got, *want
	g.Rotation.LastRotationTime = time.Time{}
	w.Rotation.LastRotationTime = time.Time{}
	if g != w {
		t.Errorf("record mismatch:\n got  %+v\n want %+v", g, w)
	}
}
