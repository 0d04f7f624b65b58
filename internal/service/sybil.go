package service

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/mrarejimmyz/SybilShield/internal/config"
	"github.com/mrarejimmyz/SybilShield/internal/domain"
	"github.com/mrarejimmyz/SybilShield/internal/store"
)

const (
	checkCachePrefix  = "check:"
	resultCachePrefix = "result:"
	batchCachePrefix  = "batch:"
)

type sybilService struct {
	store  store.Store
	config config.SybilConfig
	now    func() time.Time
}

func newSybilService(st store.Store, cfg config.SybilConfig) *sybilService {
	return &sybilService{store: st, config: cfg, now: time.Now}
}

func (s *sybilService) Check(ctx context.Context, address string, threshold int) (*domain.SybilCheckResult, error) {
	const op = "service.sybil.Check"

	if threshold <= 0 || threshold > 100 {
		threshold = s.config.DefaultThreshold
	}

	cacheKey := fmt.Sprintf("%s%s:%d", checkCachePrefix, address, threshold)
	if raw, err := s.store.Get(ctx, cacheKey); err == nil {
		var cached domain.SybilCheckResult
		if err := json.Unmarshal(raw, &cached); err == nil {
			return &cached, nil
		}
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, errors.Wrap(err, op)
	}

	result := s.score(address, threshold)
	result.RequestID = "req_" + strings.ReplaceAll(uuid.New().String(), "-", "")
	result.Timestamp = s.now().UTC()

	raw, err := json.Marshal(result)
	if err != nil {
		return nil, errors.Wrap(err, op)
	}
	if err := s.store.Set(ctx, cacheKey, raw, s.config.CheckCacheTTL); err != nil {
		return nil, errors.Wrap(err, op)
	}
	if err := s.store.Set(ctx, resultCachePrefix+result.RequestID, raw, s.config.ResultTTL); err != nil {
		return nil, errors.Wrap(err, op)
	}

	return &result, nil
}

func (s *sybilService) BatchCheck(ctx context.Context, addresses []string, threshold int) (*domain.BatchCheckResult, error) {
	const op = "service.sybil.BatchCheck"

	if len(addresses) == 0 {
		return nil, ErrNoAddresses
	}
	if len(addresses) > s.config.MaxBatchSize {
		return nil, ErrBatchTooLarge
	}
	if threshold <= 0 || threshold > 100 {
		threshold = s.config.DefaultThreshold
	}

	batch := domain.BatchCheckResult{
		Results:   make(map[string]domain.SybilCheckResult, len(addresses)),
		RequestID: "batch_" + strings.ReplaceAll(uuid.New().String(), "-", ""),
		Timestamp: s.now().UTC(),
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, address := range addresses {
		wg.Add(1)
		go func(address string) {
			defer wg.Done()
			result := s.score(address, threshold)
			result.RequestID = batch.RequestID
			result.Timestamp = batch.Timestamp
			mu.Lock()
			batch.Results[address] = result
			mu.Unlock()
		}(address)
	}
	wg.Wait()

	raw, err := json.Marshal(batch)
	if err != nil {
		return nil, errors.Wrap(err, op)
	}
	if err := s.store.Set(ctx, batchCachePrefix+batch.RequestID, raw, s.config.ResultTTL); err != nil {
		return nil, errors.Wrap(err, op)
	}

	return &batch, nil
}

func (s *sybilService) GetResult(ctx context.Context, requestID string) (json.RawMessage, error) {
	const op = "service.sybil.GetResult"

	prefix := resultCachePrefix
	if strings.HasPrefix(requestID, "batch_") {
		prefix = batchCachePrefix
	}

	raw, err := s.store.Get(ctx, prefix+requestID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, errors.Wrap(err, op)
	}

	return json.RawMessage(raw), nil
}

func (s *sybilService) Features(ctx context.Context, address string) (*domain.FeatureSet, error) {
	h := addressDigest(address)

	features := map[string]float64{
		"transaction_patterns": float64(h%1000) / 1000,
		"network_structure":    float64((h>>16)%1000) / 1000,
		"temporal_behavior":    float64((h>>32)%1000) / 1000,
		"identity_signals":     float64((h>>48)%1000) / 1000,
	}

	return &domain.FeatureSet{
		Address:   address,
		Features:  features,
		Timestamp: s.now().UTC(),
	}, nil
}

// score derives a stable pseudo-assessment from the address alone so the
// same address always gets the same verdict. A real model plugs in here.
func (s *sybilService) score(address string, threshold int) domain.SybilCheckResult {
	h := addressDigest(address)

	riskScore := int(h % 100)
	statuses := []string{"unverified", "pending", "verified"}

	return domain.SybilCheckResult{
		Address:            address,
		IsSybil:            riskScore > 100-threshold,
		RiskScore:          riskScore,
		Confidence:         70 + int(h%30),
		VerificationStatus: statuses[h%3],
	}
}

func addressDigest(address string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(strings.ToLower(address)))
	return h.Sum64()
}
