package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/lux23/settings-service/internal/config"
)

func armedRecord(index, interval int) ConfigurationRecord {
	rec := validRecord()
	rec.Rotation = RotationSettings{
		AutoRotationEnabled: true,
		IntervalMinutes:     interval,
		CurrentLineIndex:    index,
		LastRotationTime:    baseTime,
	}
	return rec
}

func isRotated(status *RotationStatus) bool {
	return status.Rotated != nil && *status.Rotated
}

func TestRotation_DisabledNeverMutates(t *testing.T) {
	env := newTestEnv(t, sevenLineCatalog())
	rec := validRecord()
	rec.Rotation.CurrentLineIndex = 2
	seedRecord(t, env.db, rec)

	env.clock.Advance(72 * time.Hour)
	status, err := env.rotation.Evaluate(context.Background())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	if status.RotationEnabled || status.CurrentLineIndex != 2 {
		t.Errorf("status = %+v", status)
	}
	if status.Rotated != nil || status.MinutesUntilNextRotation != nil {
		t.Errorf("disabled status should carry no rotation detail: %+v", status)
	}
	row := loadRow(t, env.db)
	if !row.LastRotationTime.Equal(baseTime) || row.CurrentLineIndex != 2 {
		t.Errorf("disabled rotation mutated the row: %+v", row)
	}
}

func TestRotation_NotDueIsIdempotent(t *testing.T) {
	env := newTestEnv(t, sevenLineCatalog())
	seedRecord(t, env.db, armedRecord(3, 60))
	env.clock.Advance(20 * time.Minute)

	first, err := env.rotation.Evaluate(context.Background())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	second, err := env.rotation.Evaluate(context.Background())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	for _, status := range []*RotationStatus{first, second} {
		if isRotated(status) || status.CurrentLineIndex != 3 {
			t.Errorf("status = %+v", status)
		}
		if status.MinutesUntilNextRotation == nil || *status.MinutesUntilNextRotation != 40 {
			t.Errorf("MinutesUntilNextRotation = %v, expected 40", status.MinutesUntilNextRotation)
		}
	}
}

func TestRotation_AdvancesWhenDue(t *testing.T) {
	env := newTestEnv(t, sevenLineCatalog())
	seedRecord(t, env.db, armedRecord(0, 60))
	env.clock.Advance(60 * time.Minute)

	before := GetStats().Rotations
	status, err := env.rotation.Evaluate(context.Background())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !isRotated(status) || status.CurrentLineIndex != 1 {
		t.Fatalf("status = %+v", status)
	}
	if status.Message != "Rotación automática a Línea 2" {
		t.Errorf("Message = %q", status.Message)
	}
	if GetStats().Rotations != before+1 {
		t.Error("rotations counter did not advance")
	}

	row := loadRow(t, env.db)
	if row.CurrentLineIndex != 1 || !row.LastRotationTime.Equal(env.clock.Now()) {
		t.Errorf("row after rotation: index %d time %v", row.CurrentLineIndex, row.LastRotationTime)
	}

	again, err := env.rotation.Evaluate(context.Background())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if isRotated(again) || again.CurrentLineIndex != 1 || *again.MinutesUntilNextRotation != 60 {
		t.Errorf("immediate re-evaluation = %+v", again)
	}
}

func TestRotation_BoundaryJustBeforeDue(t *testing.T) {
	env := newTestEnv(t, sevenLineCatalog())
	seedRecord(t, env.db, armedRecord(0, 60))
	env.clock.Advance(60*time.Minute - time.Millisecond)

	status, err := env.rotation.Evaluate(context.Background())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if isRotated(status) || status.CurrentLineIndex != 0 {
		t.Errorf("status = %+v", status)
	}
	if m := *status.MinutesUntilNextRotation; m <= 0 || m > 0.001 {
		t.Errorf("MinutesUntilNextRotation = %v", m)
	}
}

func TestRotation_WrapsAroundCatalog(t *testing.T) {
	env := newTestEnv(t, sevenLineCatalog())
	seedRecord(t, env.db, armedRecord(6, 5))
	env.clock.Advance(5 * time.Minute)

	status, err := env.rotation.Evaluate(context.Background())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !isRotated(status) || status.CurrentLineIndex != 0 {
		t.Errorf("status = %+v", status)
	}
	if status.Message != "Rotación automática a Línea 1" {
		t.Errorf("Message = %q", status.Message)
	}
}

func TestRotation_AdvancesFromOutOfRangeIndex(t *testing.T) {
	env := newTestEnv(t, NewSupportLineCatalog(config.DefaultSupportLines()))
	seedRecord(t, env.db, armedRecord(5, 60))
	env.clock.Advance(time.Hour)

	status, err := env.rotation.Evaluate(context.Background())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !isRotated(status) || status.CurrentLineIndex != 2 {
		t.Fatalf("status = %+v, expected rotation to 2", status)
	}
	if row := loadRow(t, env.db); row.CurrentLineIndex != 2 {
		t.Errorf("row CurrentLineIndex = %d, expected 2", row.CurrentLineIndex)
	}
}

func TestRotation_OneAdvancePerEvaluationAfterLongIdle(t *testing.T) {
	env := newTestEnv(t, sevenLineCatalog())
	seedRecord(t, env.db, armedRecord(0, 60))
	env.clock.Advance(5 * time.Hour)

	status, err := env.rotation.Evaluate(context.Background())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if status.CurrentLineIndex != 1 {
		t.Errorf("CurrentLineIndex = %d, expected a single advance", status.CurrentLineIndex)
	}
}

func TestRotation_NAdvances(t *testing.T) {
	const initial, advances = 4, 17

	env := newTestEnv(t, sevenLineCatalog())
	seedRecord(t, env.db, armedRecord(initial, 1))

	var prev time.Time
	for i := 0; i < advances; i++ {
		env.clock.Advance(time.Minute)
		status, err := env.rotation.Evaluate(context.Background())
		if err != nil {
			t.Fatalf("Evaluate #%d: %v", i, err)
		}
		if !isRotated(status) {
			t.Fatalf("evaluation #%d did not rotate: %+v", i, status)
		}
		row := loadRow(t, env.db)
		if row.LastRotationTime.Before(prev) {
			t.Fatalf("lastRotationTime went backwards at #%d", i)
		}
		prev = row.LastRotationTime
	}

	if got := loadRow(t, env.db).CurrentLineIndex; got != (initial+advances)%7 {
		t.Errorf("CurrentLineIndex = %d, expected %d", got, (initial+advances)%7)
	}
}

func TestRotation_ConcurrentEvaluationsAdvanceOnce(t *testing.T) {
	env := newTestEnv(t, sevenLineCatalog())
	seedRecord(t, env.db, armedRecord(2, 10))
	env.clock.Advance(10 * time.Minute)

	const callers = 16
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		rotated int
		indexes = map[int]int{}
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			status, err := env.rotation.Evaluate(context.Background())
			if err != nil {
				t.Errorf("Evaluate: %v", err)
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if isRotated(status) {
				rotated++
			}
			indexes[status.CurrentLineIndex]++
		}()
	}
	wg.Wait()

	if rotated != 1 {
		t.Errorf("rotated %d times, expected exactly once", rotated)
	}
	if indexes[3] != callers {
		t.Errorf("every caller should report index 3, got %v", indexes)
	}
	if got := loadRow(t, env.db).CurrentLineIndex; got != 3 {
		t.Errorf("stored index = %d, expected 3", got)
	}
}

func TestRotation_GetErrorPropagates(t *testing.T) {
	env := newTestEnv(t, sevenLineCatalog())

	_, err := env.rotation.Evaluate(context.Background())
	if !errors.Is(err, ErrSettingsNotFound) {
		t.Errorf("expected ErrSettingsNotFound, got %v", err)
	}
}

// stubStore serves a fixed sequence of records and a scripted commit result.
type stubStore struct {
	records   []ConfigurationRecord
	gets      int
	commitErr error
	commitWon bool
	commits   int
}

func (s *stubStore) load(ctx context.Context) (*ConfigurationRecord, error) {
	i := s.gets
	if i >= len(s.records) {
		i = len(s.records) - 1
	}
	s.gets++
	rec := s.records[i]
	return &rec, nil
}

func (s *stubStore) commitRotation(ctx context.Context, from RotationSettings, next int, at time.Time) (bool, error) {
	s.commits++
	return s.commitWon, s.commitErr
}

func TestRotation_CommitFailureReturnsPreRotationState(t *testing.T) {
	clock := newFakeClock(baseTime.Add(2 * time.Hour))
	store := &stubStore{
		records:   []ConfigurationRecord{armedRecord(5, 60)},
		commitErr: ErrStoreUnavailable,
	}
	svc := newRotationService(store, sevenLineCatalog(), clock.Now)

	before := GetStats().RotationFailures
	status, err := svc.Evaluate(context.Background())
	if err != nil {
		t.Fatalf("commit failure must not fail the read: %v", err)
	}
	if isRotated(status) || status.CurrentLineIndex != 5 || !status.RotationEnabled {
		t.Errorf("status = %+v", status)
	}
	if *status.MinutesUntilNextRotation != 0 {
		t.Errorf("MinutesUntilNextRotation = %v, expected 0", *status.MinutesUntilNextRotation)
	}
	if GetStats().RotationFailures != before+1 {
		t.Error("failure counter did not advance")
	}

	store.commitErr = nil
	store.commitWon = true
	retried, err := svc.Evaluate(context.Background())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !isRotated(retried) || retried.CurrentLineIndex != 6 {
		t.Errorf("retry status = %+v", retried)
	}
}

func TestRotation_LostRaceReportsWinnerState(t *testing.T) {
	clock := newFakeClock(baseTime.Add(61 * time.Minute))
	winner := armedRecord(1, 60)
	winner.Rotation.LastRotationTime = baseTime.Add(60 * time.Minute)
	store := &stubStore{
		records:   []ConfigurationRecord{armedRecord(0, 60), winner},
		commitWon: false,
	}
	svc := newRotationService(store, sevenLineCatalog(), clock.Now)

	status, err := svc.Evaluate(context.Background())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if isRotated(status) || status.CurrentLineIndex != 1 {
		t.Errorf("status = %+v", status)
	}
	if *status.MinutesUntilNextRotation != 59 {
		t.Errorf("MinutesUntilNextRotation = %v, expected 59", *status.MinutesUntilNextRotation)
	}
}

func TestRotation_SchedulerRejectsBadSpec(t *testing.T) {
	env := newTestEnv(t, sevenLineCatalog())
	if err := env.rotation.StartScheduler("every now and then"); err == nil {
		env.rotation.StopScheduler()
		t.Error("expected error for invalid cron spec")
	}
}

func TestRotation_SchedulerTickAdvances(t *testing.T) {
	env := newTestEnv(t, sevenLineCatalog())
	seedRecord(t, env.db, armedRecord(0, 60))
	env.clock.Advance(2 * time.Hour)

	if err := env.rotation.StartScheduler("@every 1s"); err != nil {
		t.Fatalf("StartScheduler: %v", err)
	}
	defer env.rotation.StopScheduler()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if loadRow(t, env.db).CurrentLineIndex == 1 {
			return
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Error("scheduled tick did not advance the line")
}
