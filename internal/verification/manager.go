package verification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mrarejimmyz/SybilShield/internal/domain"
	"github.com/mrarejimmyz/SybilShield/internal/store"
)

const (
	recordKeyPrefix  = "verification:"
	historyKeyPrefix = "history:"
)

// Manager routes verification operations to the method registered for their
// kind and keeps one record per verification id across all methods. Record
// mutations (completion mirroring, lazy expiration) happen inside a per-id
// critical section, so a concurrent Check never observes a record that
// disagrees with the owning method's latest answer.
type Manager struct {
	mu      sync.RWMutex
	methods map[domain.MethodKind]Method

	store  store.Store
	locks  *store.KeyMutex
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger
}

func NewManager(st store.Store, ttl time.Duration, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Manager{
		methods: make(map[domain.MethodKind]Method),
		store:   st,
		locks:   store.NewKeyMutex(),
		ttl:     ttl,
		now:     time.Now,
		logger:  logger,
	}
}

// SetClock replaces the wall clock for tests.
func (m *Manager) SetClock(now func() time.Time) {
	m.now = now
}

// Register adds a method to the registry. Re-registering a kind replaces the
// previous instance.
func (m *Manager) Register(method Method) {
	m.mu.Lock()
	m.methods[method.Kind()] = method
	m.mu.Unlock()

	m.logger.Info("registered verification method", zap.String("kind", string(method.Kind())))
}

// Kinds lists the registered method kinds.
func (m *Manager) Kinds() []domain.MethodKind {
	m.mu.RLock()
	defer m.mu.RUnlock()

	kinds := make([]domain.MethodKind, 0, len(m.methods))
	for kind := range m.methods {
		kinds = append(kinds, kind)
	}

	return kinds
}

func (m *Manager) method(kind domain.MethodKind) (Method, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	method, ok := m.methods[kind]
	return method, ok
}

// Start begins a verification of the given kind for address. The manager
// record always starts pending regardless of the method's answer.
func (m *Manager) Start(ctx context.Context, kind domain.MethodKind, address, callbackURL string) (*domain.VerificationRecord, error) {
	method, ok := m.method(kind)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedMethod, kind)
	}

	result, err := method.StartVerification(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("start %s verification failed: %w", kind, err)
	}

	now := m.now()
	expiresAt := now.Add(m.ttl)

	record := &domain.VerificationRecord{
		ID:           result.VerificationID,
		Address:      address,
		Kind:         kind,
		Status:       domain.StatusPending,
		Challenge:    result.Challenge,
		Instructions: result.Instructions,
		MaxAttempts:  result.MaxAttempts,
		CallbackURL:  callbackURL,
		CreatedAt:    now,
		ExpiresAt:    &expiresAt,
	}

	recordKey := recordKeyPrefix + record.ID
	m.locks.Lock(recordKey)
	err = m.saveRecord(ctx, record)
	m.locks.Unlock(recordKey)
	if err != nil {
		return nil, err
	}

	if err := m.appendHistory(ctx, address, record.ID); err != nil {
		return nil, err
	}

	return record, nil
}

// Check reports the current state of a verification. Pending records past
// their expiry are coerced to expired and the coercion is persisted before
// reporting.
func (m *Manager) Check(ctx context.Context, verificationID string) (*domain.VerificationRecord, error) {
	recordKey := recordKeyPrefix + verificationID
	m.locks.Lock(recordKey)
	defer m.locks.Unlock(recordKey)

	record, err := m.loadRecord(ctx, verificationID)
	if err != nil {
		return nil, err
	}

	if expired, err := m.coerceExpired(ctx, record); err != nil {
		return nil, err
	} else if expired {
		return record, nil
	}

	method, ok := m.method(record.Kind)
	if !ok {
		// A stored record always names a registered kind unless methods were
		// re-registered across restarts with a different set.
		m.logger.Error("record references unregistered method",
			zap.String("verification_id", verificationID),
			zap.String("kind", string(record.Kind)))
		return record, nil
	}

	snapshot, err := method.CheckStatus(ctx, verificationID)
	if err != nil {
		return nil, fmt.Errorf("check %s status failed: %w", record.Kind, err)
	}

	if snapshot.Status == domain.StatusNotFound {
		// The manager knows this id but the method lost its side: internal
		// inconsistency, worth a bug report. The stored record remains the
		// best available answer.
		m.logger.Error("method lost state for known verification",
			zap.String("verification_id", verificationID),
			zap.String("kind", string(record.Kind)))
		return record, nil
	}

	if !record.Status.Terminal() && (record.Status != snapshot.Status || record.Attempts != snapshot.Attempts) {
		record.Status = snapshot.Status
		record.Attempts = snapshot.Attempts
		if err := m.saveRecord(ctx, record); err != nil {
			return nil, err
		}
	}

	return record, nil
}

// Complete submits a proof for a verification and mirrors the owning method's
// answer into the manager record within the same critical section.
func (m *Manager) Complete(ctx context.Context, verificationID string, proof json.RawMessage) (*domain.VerificationRecord, error) {
	recordKey := recordKeyPrefix + verificationID
	m.locks.Lock(recordKey)
	defer m.locks.Unlock(recordKey)

	record, err := m.loadRecord(ctx, verificationID)
	if err != nil {
		return nil, err
	}

	if record.Status.Terminal() {
		return record, nil
	}

	if expired, err := m.coerceExpired(ctx, record); err != nil {
		return nil, err
	} else if expired {
		return record, nil
	}

	method, ok := m.method(record.Kind)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedMethod, record.Kind)
	}

	result, err := method.CompleteVerification(ctx, verificationID, proof)
	if err != nil {
		return nil, fmt.Errorf("complete %s verification failed: %w", record.Kind, err)
	}

	if result.Status == domain.StatusNotFound {
		// Same inconsistency as in Check: the stored record stays the best
		// available answer, nothing is fabricated on top of it.
		m.logger.Error("method lost state for known verification",
			zap.String("verification_id", verificationID),
			zap.String("kind", string(record.Kind)))
		return record, nil
	}

	record.Status = result.Status
	record.Attempts = result.Attempts
	record.ProofHash = result.ProofHash
	if result.Status == domain.StatusVerified {
		verifiedAt := m.now()
		record.VerifiedAt = &verifiedAt
	}

	if err := m.saveRecord(ctx, record); err != nil {
		return nil, err
	}

	return record, nil
}

// History returns the records for an address, newest first.
func (m *Manager) History(ctx context.Context, address string) ([]domain.VerificationRecord, error) {
	ids, err := m.loadHistory(ctx, address)
	if err != nil {
		return nil, err
	}

	records := make([]domain.VerificationRecord, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		record, err := m.loadRecord(ctx, ids[i])
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return nil, err
		}
		records = append(records, *record)
	}

	return records, nil
}

// coerceExpired flips a pending record past its expiry to expired and
// persists the coercion. Expiration is evaluated lazily on access.
func (m *Manager) coerceExpired(ctx context.Context, record *domain.VerificationRecord) (bool, error) {
	if record.Status.Terminal() {
		return record.Status == domain.StatusExpired, nil
	}
	if record.ExpiresAt == nil || m.now().Before(*record.ExpiresAt) {
		return false, nil
	}

	record.Status = domain.StatusExpired
	if err := m.saveRecord(ctx, record); err != nil {
		return false, err
	}

	return true, nil
}

func (m *Manager) loadRecord(ctx context.Context, verificationID string) (*domain.VerificationRecord, error) {
	raw, err := m.store.Get(ctx, recordKeyPrefix+verificationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: verification %s", domain.ErrNotFound, verificationID)
		}
		return nil, fmt.Errorf("fetch verification record failed: %w", err)
	}

	var record domain.VerificationRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("decode verification record failed: %w", err)
	}

	return &record, nil
}

func (m *Manager) saveRecord(ctx context.Context, record *domain.VerificationRecord) error {
	encoded, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode verification record failed: %w", err)
	}
	if err := m.store.Set(ctx, recordKeyPrefix+record.ID, encoded, m.ttl); err != nil {
		return fmt.Errorf("persist verification record failed: %w", err)
	}

	return nil
}

func (m *Manager) loadHistory(ctx context.Context, address string) ([]string, error) {
	raw, err := m.store.Get(ctx, historyKeyPrefix+address)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch history index failed: %w", err)
	}

	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, fmt.Errorf("decode history index failed: %w", err)
	}

	return ids, nil
}

func (m *Manager) appendHistory(ctx context.Context, address, verificationID string) error {
	historyKey := historyKeyPrefix + address
	m.locks.Lock(historyKey)
	defer m.locks.Unlock(historyKey)

	ids, err := m.loadHistory(ctx, address)
	if err != nil {
		return err
	}
	ids = append(ids, verificationID)

	encoded, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("encode history index failed: %w", err)
	}
	if err := m.store.Set(ctx, historyKey, encoded, m.ttl); err != nil {
		return fmt.Errorf("persist history index failed: %w", err)
	}

	return nil
}
