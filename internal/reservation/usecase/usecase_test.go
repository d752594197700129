package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	catalogdto "github.com/fekuna/omnipos-inventory-service/internal/catalog/dto"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/fekuna/omnipos-inventory-service/internal/reservation/dto"
	stockdto "github.com/fekuna/omnipos-inventory-service/internal/stock/dto"
	"github.com/fekuna/omnipos-inventory-service/pkg/apperrors"
	"github.com/fekuna/omnipos-inventory-service/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testMerchant = "m1"
	testStore    = "s1"
	testVariant  = "v1"
)

// memStore backs both the stock and reservation repositories the way the
// real Postgres schema does: one ledger, one reservation table.
type memStore struct {
	mu           sync.Mutex
	ledger       []model.StockLedgerEntry
	reservations map[string]*model.Reservation
}

func newMemStore() *memStore {
	return &memStore{reservations: map[string]*model.Reservation{}}
}

func (s *memStore) seedOnHand(qty int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledger = append(s.ledger, model.StockLedgerEntry{
		ID: "seed", MerchantID: testMerchant, StoreID: testStore, VariantID: testVariant,
		QtyDelta: qty, RefType: model.RefCountAdjustment, CreatedAt: time.Now(),
	})
}

// stock.Repository

func (s *memStore) AppendEntry(_ context.Context, entry *model.StockLedgerEntry) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledger = append(s.ledger, *entry)
	return s.onHandLocked(entry.MerchantID, entry.StoreID, entry.VariantID), nil
}

func (s *memStore) onHandLocked(merchantID, storeID, variantID string) int64 {
	var sum int64
	for _, e := range s.ledger {
		if e.MerchantID == merchantID && e.StoreID == storeID && e.VariantID == variantID {
			sum += e.QtyDelta
		}
	}
	return sum
}

func (s *memStore) GetLevel(_ context.Context, merchantID, storeID, variantID string) (*model.StockLevel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	onHand := s.onHandLocked(merchantID, storeID, variantID)
	var reserved int64
	for _, r := range s.reservations {
		if r.MerchantID == merchantID && r.StoreID == storeID && r.VariantID == variantID && r.Status == model.ReservationActive {
			reserved += r.Quantity
		}
	}
	return &model.StockLevel{
		StoreID: storeID, VariantID: variantID,
		OnHand: onHand, Reserved: reserved, Available: onHand - reserved,
	}, nil
}

func (s *memStore) ListEntries(_ context.Context, _ *stockdto.MovementFilters) ([]model.StockLedgerEntry, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]model.StockLedgerEntry(nil), s.ledger...)
	return out, len(out), nil
}

func (s *memStore) InTransitQty(context.Context, string, string, string) (int64, error) {
	return 0, nil
}

// reservation.Repository

func (s *memStore) Create(_ context.Context, res *model.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *res
	s.reservations[res.ID] = &cp
	return nil
}

func (s *memStore) GetByID(_ context.Context, merchantID, id string) (*model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, ok := s.reservations[id]
	if !ok || res.MerchantID != merchantID {
		return nil, nil
	}
	cp := *res
	return &cp, nil
}

func (s *memStore) List(_ context.Context, f *dto.Filters) ([]model.Reservation, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Reservation
	for _, r := range s.reservations {
		if r.MerchantID != f.MerchantID {
			continue
		}
		if f.Status != "" && r.Status != f.Status {
			continue
		}
		if f.Channel != "" && r.Channel != f.Channel {
			continue
		}
		out = append(out, *r)
	}
	return out, len(out), nil
}

func (s *memStore) TransitionFromActive(_ context.Context, merchantID, id, toStatus string, resolvedAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, ok := s.reservations[id]
	if !ok || res.MerchantID != merchantID || res.Status != model.ReservationActive {
		return false, nil
	}
	res.Status = toStatus
	res.ResolvedAt = &resolvedAt
	return true, nil
}

func (s *memStore) CommitWithLedger(_ context.Context, res *model.Reservation, entry *model.StockLedgerEntry) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.reservations[res.ID]
	if !ok || stored.Status != model.ReservationActive {
		return false, nil
	}
	stored.Status = model.ReservationCommitted
	stored.ResolvedAt = &entry.CreatedAt
	s.ledger = append(s.ledger, *entry)
	return true, nil
}

func (s *memStore) ListExpired(_ context.Context, now time.Time, limit int) ([]model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Reservation
	for _, r := range s.reservations {
		if r.Status == model.ReservationActive && r.ExpiresAt != nil && !r.ExpiresAt.After(now) {
			out = append(out, *r)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

// fakeCatalog resolves the seeded pair and nothing else.
type fakeCatalog struct{}

func (fakeCatalog) GetStore(_ context.Context, merchantID, storeID string) (*model.Store, error) {
	if merchantID == testMerchant && storeID == testStore {
		return &model.Store{BaseModel: model.BaseModel{ID: storeID}, MerchantID: merchantID}, nil
	}
	return nil, nil
}

func (fakeCatalog) GetVariant(_ context.Context, merchantID, variantID string) (*model.Variant, error) {
	if merchantID == testMerchant && variantID == testVariant {
		return &model.Variant{BaseModel: model.BaseModel{ID: variantID}, MerchantID: merchantID, SKU: "SKU-1"}, nil
	}
	return nil, nil
}

func (fakeCatalog) ListVariants(context.Context, *catalogdto.VariantFilters) ([]model.Variant, int, error) {
	return nil, 0, nil
}

func (fakeCatalog) GetSettings(context.Context, string) (*model.MerchantSettings, error) {
	return nil, nil
}

// memLocker gives real mutual exclusion with SetNX semantics.
type memLocker struct {
	mu   sync.Mutex
	held map[string]string
}

func newMemLocker() *memLocker {
	return &memLocker{held: map[string]string{}}
}

func (l *memLocker) AcquireLock(_ context.Context, key, value string, _ time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, taken := l.held[key]; taken {
		return false, nil
	}
	l.held[key] = value
	return true, nil
}

func (l *memLocker) ReleaseLock(_ context.Context, key, value string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] == value {
		delete(l.held, key)
	}
	return nil
}

func newTestUseCase(store *memStore) *reservationUseCase {
	uc := NewReservationUseCase(store, store, fakeCatalog{}, newMemLocker(), nil, Options{
		LockTTL:     time.Second,
		LockRetries: 200,
	}, logger.NewNop())
	return uc.(*reservationUseCase)
}

func reserveInput(qty int64) *dto.ReserveInput {
	return &dto.ReserveInput{
		MerchantID: testMerchant,
		StoreID:    testStore,
		VariantID:  testVariant,
		Quantity:   qty,
		RefType:    model.RefSale,
		Channel:    "pos",
	}
}

func TestReserveValidation(t *testing.T) {
	uc := newTestUseCase(newMemStore())
	ctx := context.Background()

	t.Run("non-positive quantity", func(t *testing.T) {
		_, err := uc.Reserve(ctx, reserveInput(0))
		assert.True(t, apperrors.Is(err, apperrors.CodeValidation))
	})

	t.Run("missing channel", func(t *testing.T) {
		input := reserveInput(1)
		input.Channel = ""
		_, err := uc.Reserve(ctx, input)
		assert.True(t, apperrors.Is(err, apperrors.CodeValidation))
	})

	t.Run("expires_at in the past", func(t *testing.T) {
		input := reserveInput(1)
		past := time.Now().Add(-time.Minute)
		input.ExpiresAt = &past
		_, err := uc.Reserve(ctx, input)
		assert.True(t, apperrors.Is(err, apperrors.CodeValidation))
	})

	t.Run("unknown variant", func(t *testing.T) {
		input := reserveInput(1)
		input.VariantID = "missing"
		_, err := uc.Reserve(ctx, input)
		assert.True(t, apperrors.Is(err, apperrors.CodeNotFound))
	})
}

func TestReserveCommitFlow(t *testing.T) {
	store := newMemStore()
	store.seedOnHand(10)
	uc := newTestUseCase(store)
	ctx := context.Background()

	// on_hand=10, reserved=0 → Reserve 6 succeeds
	res, err := uc.Reserve(ctx, reserveInput(6))
	require.NoError(t, err)
	assert.Equal(t, model.ReservationActive, res.Status)

	level, err := store.GetLevel(ctx, testMerchant, testStore, testVariant)
	require.NoError(t, err)
	assert.Equal(t, int64(4), level.Available)

	// available=4 → Reserve 5 fails, reserved unchanged
	_, err = uc.Reserve(ctx, reserveInput(5))
	assert.True(t, apperrors.Is(err, apperrors.CodeInsufficientStock))
	level, _ = store.GetLevel(ctx, testMerchant, testStore, testVariant)
	assert.Equal(t, int64(6), level.Reserved)

	// Commit the first reservation → on_hand=4, reserved=0
	result, err := uc.Commit(ctx, testMerchant, res.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), result.OnHandAfter)
	assert.Equal(t, int64(0), result.ReservedAfter)
	assert.Equal(t, model.ReservationCommitted, result.Reservation.Status)
}

func TestCommitIsNotIdempotent(t *testing.T) {
	store := newMemStore()
	store.seedOnHand(10)
	uc := newTestUseCase(store)
	ctx := context.Background()

	res, err := uc.Reserve(ctx, reserveInput(3))
	require.NoError(t, err)

	_, err = uc.Commit(ctx, testMerchant, res.ID)
	require.NoError(t, err)

	// Second commit fails and reports the status that won.
	_, err = uc.Commit(ctx, testMerchant, res.ID)
	require.True(t, apperrors.Is(err, apperrors.CodeInvalidState))
	appErr := apperrors.From(err)
	assert.Equal(t, model.ReservationCommitted, appErr.Details["current_status"])

	// The deduction applied exactly once.
	level, _ := store.GetLevel(ctx, testMerchant, testStore, testVariant)
	assert.Equal(t, int64(7), level.OnHand)
	assert.Equal(t, int64(0), level.Reserved)
}

func TestReleaseRestoresAvailability(t *testing.T) {
	store := newMemStore()
	store.seedOnHand(5)
	uc := newTestUseCase(store)
	ctx := context.Background()

	res, err := uc.Reserve(ctx, reserveInput(5))
	require.NoError(t, err)

	released, err := uc.Release(ctx, testMerchant, res.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReservationReleased, released.Status)

	// No ledger entry was written: on-hand intact, hold gone.
	level, _ := store.GetLevel(ctx, testMerchant, testStore, testVariant)
	assert.Equal(t, int64(5), level.OnHand)
	assert.Equal(t, int64(5), level.Available)

	_, err = uc.Release(ctx, testMerchant, res.ID)
	assert.True(t, apperrors.Is(err, apperrors.CodeInvalidState))

	_, err = uc.Commit(ctx, testMerchant, res.ID)
	assert.True(t, apperrors.Is(err, apperrors.CodeInvalidState))
}

func TestCommitUnknownReservation(t *testing.T) {
	uc := newTestUseCase(newMemStore())
	_, err := uc.Commit(context.Background(), testMerchant, "nope")
	assert.True(t, apperrors.Is(err, apperrors.CodeNotFound))
}

func TestExpireSweep(t *testing.T) {
	store := newMemStore()
	store.seedOnHand(10)
	uc := newTestUseCase(store)
	ctx := context.Background()

	past := time.Now().Add(50 * time.Millisecond)
	input := reserveInput(4)
	input.ExpiresAt = &past
	res, err := uc.Reserve(ctx, input)
	require.NoError(t, err)

	// A reservation without expiry is never swept.
	keeper, err := uc.Reserve(ctx, reserveInput(2))
	require.NoError(t, err)

	expired, err := uc.ExpireSweep(ctx, time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, expired)

	// Expired hold released its quantity; commit on it now fails.
	level, _ := store.GetLevel(ctx, testMerchant, testStore, testVariant)
	assert.Equal(t, int64(2), level.Reserved)

	_, err = uc.Commit(ctx, testMerchant, res.ID)
	require.True(t, apperrors.Is(err, apperrors.CodeInvalidState))
	assert.Equal(t, model.ReservationExpired, apperrors.From(err).Details["current_status"])

	// The unexpired one still commits.
	_, err = uc.Commit(ctx, testMerchant, keeper.ID)
	assert.NoError(t, err)
}

func TestSweepIsRepeatSafe(t *testing.T) {
	store := newMemStore()
	store.seedOnHand(10)
	uc := newTestUseCase(store)
	ctx := context.Background()

	past := time.Now().Add(10 * time.Millisecond)
	input := reserveInput(1)
	input.ExpiresAt = &past
	_, err := uc.Reserve(ctx, input)
	require.NoError(t, err)

	now := time.Now().Add(time.Minute)
	expired, err := uc.ExpireSweep(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, expired)

	expired, err = uc.ExpireSweep(ctx, now)
	require.NoError(t, err)
	assert.Zero(t, expired)
}

func TestConcurrentReservesNeverOversell(t *testing.T) {
	const available = 5
	const callers = 20

	store := newMemStore()
	store.seedOnHand(available)
	uc := newTestUseCase(store)
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := uc.Reserve(ctx, reserveInput(1))
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded, insufficient := 0, 0
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case apperrors.Is(err, apperrors.CodeInsufficientStock):
			insufficient++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, available, succeeded)
	assert.Equal(t, callers-available, insufficient)

	level, _ := store.GetLevel(ctx, testMerchant, testStore, testVariant)
	assert.Equal(t, int64(0), level.Available)
	assert.Equal(t, int64(available), level.Reserved)
}
