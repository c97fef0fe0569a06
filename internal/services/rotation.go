package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lux23/settings-service/pkg/logger"
	"github.com/robfig/cron/v3"
)

// rotationStore is the part of SettingsService the rotation engine needs.
type rotationStore interface {
	load(ctx context.Context) (*ConfigurationRecord, error)
	commitRotation(ctx context.Context, from RotationSettings, next int, at time.Time) (bool, error)
}

// RotationStatus is the result of one fetch-and-maybe-rotate evaluation.
type RotationStatus struct {
	RotationEnabled          bool     `json:"rotationEnabled"`
	CurrentLineIndex         int      `json:"currentLineIndex"`
	Rotated                  *bool    `json:"rotated,omitempty"`
	Message                  string   `json:"message,omitempty"`
	MinutesUntilNextRotation *float64 `json:"minutesUntilNextRotation,omitempty"`
}

// RotationService advances the active support line once per interval.
// It is pull-based: Evaluate runs on reads. StartScheduler adds an optional
// cron tick running the same conditional advance.
type RotationService struct {
	store   rotationStore
	catalog *SupportLineCatalog
	now     func() time.Time

	mu            sync.Mutex
	cronScheduler *cron.Cron
}

func NewRotationService(settings *SettingsService) *RotationService {
	return newRotationService(settings, settings.Catalog(), time.Now)
}

func newRotationService(store rotationStore, catalog *SupportLineCatalog, now func() time.Time) *RotationService {
	return &RotationService{
		store:   store,
		catalog: catalog,
		now:     now,
	}
}

func rotationMessage(index int) string {
	return fmt.Sprintf("Rotación automática a Línea %d", index+1)
}

// Evaluate reads the record and, when auto-rotation is on and the interval
// has elapsed, advances to the next catalog line. A failed commit is logged
// and reported as not rotated; the next evaluation retries.
func (s *RotationService) Evaluate(ctx context.Context) (*RotationStatus, error) {
	record, err := s.store.load(ctx)
	if err != nil {
		return nil, err
	}

	now := storedTime(s.now())
	rotation := record.Rotation
	index := s.catalog.Normalize(rotation.CurrentLineIndex)

	if !rotation.AutoRotationEnabled {
		return &RotationStatus{RotationEnabled: false, CurrentLineIndex: index}, nil
	}

	elapsed := now.Sub(rotation.LastRotationTime).Minutes()
	if elapsed < float64(rotation.IntervalMinutes) {
		return notDue(index, float64(rotation.IntervalMinutes)-elapsed), nil
	}

	next := s.catalog.Next(index)
	won, err := s.store.commitRotation(ctx, rotation, next, now)
	if err != nil {
		rotationFailuresTotal.Add(1)
		logger.Warn().Err(err).Int("line_index", index).Msg("[Rotation] commit failed, will retry on next evaluation")
		return notDue(index, 0), nil
	}

	if !won {
		// Another evaluation advanced first; report what it wrote.
		rotationRacesLostTotal.Add(1)
		current, err := s.store.load(ctx)
		if err != nil {
			return notDue(index, 0), nil
		}
		currentIndex := s.catalog.Normalize(current.Rotation.CurrentLineIndex)
		if !current.Rotation.AutoRotationEnabled {
			return &RotationStatus{RotationEnabled: false, CurrentLineIndex: currentIndex}, nil
		}
		remaining := float64(current.Rotation.IntervalMinutes) - now.Sub(current.Rotation.LastRotationTime).Minutes()
		return notDue(currentIndex, remaining), nil
	}

	rotationsTotal.Add(1)
	logger.Info().Int("from", index).Int("to", next).Msg("[Rotation] advanced support line")

	rotated := true
	return &RotationStatus{
		RotationEnabled:  true,
		CurrentLineIndex: next,
		Rotated:          &rotated,
		Message:          rotationMessage(next),
	}, nil
}

func notDue(index int, minutes float64) *RotationStatus {
	if minutes < 0 {
		minutes = 0
	}
	rotated := false
	return &RotationStatus{
		RotationEnabled:          true,
		CurrentLineIndex:         index,
		Rotated:                  &rotated,
		MinutesUntilNextRotation: &minutes,
	}
}

// StartScheduler runs Evaluate on the given cron spec until StopScheduler.
func (s *RotationService) StartScheduler(spec string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cronScheduler != nil {
		return nil
	}

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(spec, s.tick); err != nil {
		return fmt.Errorf("invalid rotation schedule %q: %w", spec, err)
	}
	scheduler.Start()
	s.cronScheduler = scheduler

	logger.Info().Str("schedule", spec).Msg("[Rotation] Scheduler started")
	return nil
}

func (s *RotationService) StopScheduler() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cronScheduler != nil {
		<-s.cronScheduler.Stop().Done()
		s.cronScheduler = nil
	}
}

func (s *RotationService) tick() {
	status, err := s.Evaluate(context.Background())
	if err != nil {
		logger.Warn().Err(err).Msg("[Rotation] scheduled evaluation failed")
		return
	}
	if status.Rotated != nil && *status.Rotated {
		logger.Debug().Int("line_index", status.CurrentLineIndex).Msg("[Rotation] scheduled tick rotated")
	}
}
