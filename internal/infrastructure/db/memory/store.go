// Package memory implements every storage port in process. It backs
// STORAGE_DRIVER=memory and the service and dispatcher tests, and mirrors the
// Mongo and Redis adapters' semantics (sequence CAS, unique tracking numbers,
// chain-head claiming).
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/99minutos/shipment-lifecycle/internal/core/domain"
	"github.com/99minutos/shipment-lifecycle/internal/core/ports"
)

type shipmentRecord struct {
	shipment domain.Shipment
	events   []domain.TrackingEvent
}

// Store holds shipments with their ledgers, subscriptions and the catalog.
type Store struct {
	mu            sync.RWMutex
	shipments     map[string]*shipmentRecord
	byTracking    map[string]string
	byIdempotency map[string]string
	subs          map[string]domain.Subscription
	catalog       map[string]domain.ServiceType
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{
		shipments:     make(map[string]*shipmentRecord),
		byTracking:    make(map[string]string),
		byIdempotency: make(map[string]string),
		subs:          make(map[string]domain.Subscription),
		catalog:       make(map[string]domain.ServiceType),
	}
}

func idempotencyIndex(clientID, key string) string {
	return clientID + "\x00" + key
}

// ---------------------------------------------------------------------------
// Shipments
// ---------------------------------------------------------------------------

type shipmentRepository struct{ s *Store }

// NewShipmentRepository returns a ShipmentRepository over s.
func NewShipmentRepository(s *Store) ports.ShipmentRepository {
	return &shipmentRepository{s: s}
}

func (r *shipmentRepository) Create(_ context.Context, sh *domain.Shipment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.shipments[sh.ID]; ok {
		return domain.ErrDuplicateShipment
	}
	if sh.IdempotencyKey != "" {
		if _, ok := r.s.byIdempotency[idempotencyIndex(sh.ClientID, sh.IdempotencyKey)]; ok {
			return domain.ErrDuplicateShipment
		}
	}
	if sh.TrackingNumber != "" {
		if _, ok := r.s.byTracking[sh.TrackingNumber]; ok {
			return domain.ErrDuplicateShipment
		}
		r.s.byTracking[sh.TrackingNumber] = sh.ID
	}
	if sh.IdempotencyKey != "" {
		r.s.byIdempotency[idempotencyIndex(sh.ClientID, sh.IdempotencyKey)] = sh.ID
	}
	r.s.shipments[sh.ID] = &shipmentRecord{shipment: *sh}
	return nil
}

func (r *shipmentRepository) FindByID(_ context.Context, id string) (*domain.Shipment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rec, ok := r.s.shipments[id]
	if !ok {
		return nil, domain.ErrShipmentNotFound
	}
	return rec.shipment.Clone(), nil
}

func (r *shipmentRepository) FindByTrackingNumber(ctx context.Context, trackingNumber string) (*domain.Shipment, error) {
	r.s.mu.RLock()
	id, ok := r.s.byTracking[trackingNumber]
	r.s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrShipmentNotFound
	}
	return r.FindByID(ctx, id)
}

func (r *shipmentRepository) FindByIdempotencyKey(ctx context.Context, clientID, key string) (*domain.Shipment, error) {
	r.s.mu.RLock()
	id, ok := r.s.byIdempotency[idempotencyIndex(clientID, key)]
	r.s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrShipmentNotFound
	}
	return r.FindByID(ctx, id)
}

// ---------------------------------------------------------------------------
// Ledger
// ---------------------------------------------------------------------------

type ledgerRepository struct{ s *Store }

// NewLedgerRepository returns a LedgerRepository over s.
func NewLedgerRepository(s *Store) ports.LedgerRepository {
	return &ledgerRepository{s: s}
}

func (r *ledgerRepository) Append(_ context.Context, in ports.AppendInput) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rec, ok := r.s.shipments[in.ShipmentID]
	if !ok {
		return domain.ErrShipmentNotFound
	}
	if rec.shipment.Quarantined {
		return domain.ErrLedgerCorrupted
	}
	if rec.shipment.Sequence != in.ExpectedSequence {
		return domain.ErrSequenceConflict
	}
	if in.TrackingNumber != "" {
		if owner, taken := r.s.byTracking[in.TrackingNumber]; taken && owner != in.ShipmentID {
			return domain.ErrDuplicateShipment
		}
		r.s.byTracking[in.TrackingNumber] = in.ShipmentID
		rec.shipment.TrackingNumber = in.TrackingNumber
	}

	rec.events = append(rec.events, in.Event)
	rec.shipment.Status = in.Event.Status
	rec.shipment.Sequence = in.Event.Sequence
	rec.shipment.UpdatedAt = in.UpdatedAt
	return nil
}

func (r *ledgerRepository) Load(_ context.Context, shipmentID string) (*domain.Shipment, []domain.TrackingEvent, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rec, ok := r.s.shipments[shipmentID]
	if !ok {
		return nil, nil, domain.ErrShipmentNotFound
	}
	events := make([]domain.TrackingEvent, len(rec.events))
	copy(events, rec.events)
	return rec.shipment.Clone(), events, nil
}

func (r *ledgerRepository) Quarantine(_ context.Context, shipmentID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rec, ok := r.s.shipments[shipmentID]
	if !ok {
		return domain.ErrShipmentNotFound
	}
	rec.shipment.Quarantined = true
	return nil
}

func (r *ledgerRepository) History(_ context.Context, shipmentID string) ([]domain.TrackingEvent, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rec, ok := r.s.shipments[shipmentID]
	if !ok {
		return nil, domain.ErrShipmentNotFound
	}
	out := make([]domain.TrackingEvent, len(rec.events))
	copy(out, rec.events)
	return out, nil
}

func (r *ledgerRepository) MarkPublished(_ context.Context, shipmentID string, sequence int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rec, ok := r.s.shipments[shipmentID]
	if !ok {
		return domain.ErrShipmentNotFound
	}
	for i := range rec.events {
		if rec.events[i].Sequence == sequence {
			rec.events[i].Published = true
			return nil
		}
	}
	return domain.ErrLedgerCorrupted
}

func (r *ledgerRepository) ListUnpublished(_ context.Context, limit int) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var ids []string
	for id, rec := range r.s.shipments {
		for _, ev := range rec.events {
			if !ev.Published {
				ids = append(ids, id)
				break
			}
		}
	}
	sort.Strings(ids)
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

// ---------------------------------------------------------------------------
// Subscriptions
// ---------------------------------------------------------------------------

type subscriptionRepository struct{ s *Store }

// NewSubscriptionRepository returns a SubscriptionRepository over s.
func NewSubscriptionRepository(s *Store) ports.SubscriptionRepository {
	return &subscriptionRepository{s: s}
}

func (r *subscriptionRepository) Create(_ context.Context, sub *domain.Subscription) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.subs[sub.ID] = *sub
	return nil
}

func (r *subscriptionRepository) FindByID(_ context.Context, id string) (*domain.Subscription, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	sub, ok := r.s.subs[id]
	if !ok {
		return nil, domain.ErrSubscriptionNotFound
	}
	return &sub, nil
}

func (r *subscriptionRepository) ListByClient(_ context.Context, clientID string) ([]*domain.Subscription, error) {
	return r.list(clientID, false), nil
}

func (r *subscriptionRepository) ListActiveByClient(_ context.Context, clientID string) ([]*domain.Subscription, error) {
	return r.list(clientID, true), nil
}

func (r *subscriptionRepository) list(clientID string, activeOnly bool) []*domain.Subscription {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []*domain.Subscription{}
	for _, sub := range r.s.subs {
		if sub.ClientID != clientID || (activeOnly && !sub.Active) {
			continue
		}
		sub := sub
		out = append(out, &sub)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r *subscriptionRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.subs[id]; !ok {
		return domain.ErrSubscriptionNotFound
	}
	delete(r.s.subs, id)
	return nil
}

// ---------------------------------------------------------------------------
// Service catalog
// ---------------------------------------------------------------------------

type serviceTypeRepository struct{ s *Store }

// NewServiceTypeRepository returns a ServiceTypeRepository over s.
func NewServiceTypeRepository(s *Store) ports.ServiceTypeRepository {
	return &serviceTypeRepository{s: s}
}

func (r *serviceTypeRepository) ListActive(_ context.Context) ([]domain.ServiceType, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]domain.ServiceType, 0, len(r.s.catalog))
	for _, st := range r.s.catalog {
		if st.Active {
			out = append(out, st)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (r *serviceTypeRepository) FindByCode(_ context.Context, code string) (*domain.ServiceType, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, st := range r.s.catalog {
		if st.Code == code {
			st := st
			return &st, nil
		}
	}
	return nil, domain.ErrServiceTypeNotFound
}

func (r *serviceTypeRepository) Upsert(_ context.Context, st domain.ServiceType) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.catalog[st.ID] = st
	return nil
}

// ---------------------------------------------------------------------------
// Dedup
// ---------------------------------------------------------------------------

// DedupChecker is the in-process counterpart of the Redis dedup store.
type DedupChecker struct {
	mu   sync.Mutex
	seen map[string]time.Time
	ttl  time.Duration
	now  func() time.Time
}

// NewDedupChecker returns a DedupChecker whose marks expire after ttl.
func NewDedupChecker(ttl time.Duration) *DedupChecker {
	return &DedupChecker{seen: make(map[string]time.Time), ttl: ttl, now: time.Now}
}

func dedupKey(trackingNumber, status string, ts time.Time) string {
	return trackingNumber + "|" + status + "|" + ts.UTC().Format(time.RFC3339)
}

func (d *DedupChecker) IsDuplicate(_ context.Context, trackingNumber, status string, ts time.Time) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	exp, ok := d.seen[dedupKey(trackingNumber, status, ts)]
	return ok && d.now().Before(exp), nil
}

func (d *DedupChecker) Mark(_ context.Context, trackingNumber, status string, ts time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seen[dedupKey(trackingNumber, status, ts)] = d.now().Add(d.ttl)
	return nil
}
