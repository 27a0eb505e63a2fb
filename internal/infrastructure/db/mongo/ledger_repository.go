package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/99minutos/shipment-lifecycle/internal/core/domain"
	"github.com/99minutos/shipment-lifecycle/internal/core/ports"
)

// LedgerRepository implements ports.LedgerRepository over the events array
// embedded in each shipment document.
type LedgerRepository struct {
	col *mongo.Collection
}

var _ ports.LedgerRepository = (*LedgerRepository)(nil)

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(db *mongo.Database) *LedgerRepository {
	return &LedgerRepository{col: db.Collection(collectionShipments)}
}

// Append pushes the entry and sets the cached status in one update guarded by
// the expected sequence and the quarantine flag. A stale writer matches
// nothing and gets ErrSequenceConflict; a quarantined shipment ErrLedgerCorrupted.
func (r *LedgerRepository) Append(ctx context.Context, in ports.AppendInput) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	set := bson.M{
		"status":     in.Event.Status,
		"sequence":   in.Event.Sequence,
		"updated_at": in.UpdatedAt.UTC(),
	}
	if in.TrackingNumber != "" {
		set["tracking_number"] = in.TrackingNumber
	}

	filter := bson.M{
		"_id":         in.ShipmentID,
		"sequence":    in.ExpectedSequence,
		"quarantined": bson.M{"$ne": true},
	}
	update := bson.M{
		"$set":  set,
		"$push": bson.M{"events": in.Event},
	}

	res, err := r.col.UpdateOne(ctx, filter, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateShipment
		}
		return fmt.Errorf("append ledger entry: %w", err)
	}
	if res.MatchedCount == 0 {
		return r.missOrConflict(ctx, in.ShipmentID, domain.ErrSequenceConflict)
	}
	return nil
}

// Load reads the whole shipment document, ledger included, in one FindOne.
func (r *LedgerRepository) Load(ctx context.Context, shipmentID string) (*domain.Shipment, []domain.TrackingEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc shipmentDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": shipmentID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil, domain.ErrShipmentNotFound
		}
		return nil, nil, fmt.Errorf("load shipment with ledger: %w", err)
	}
	if doc.Events == nil {
		doc.Events = []domain.TrackingEvent{}
	}
	shipment := doc.Shipment
	return &shipment, doc.Events, nil
}

// Quarantine sets the quarantine flag. It is idempotent.
func (r *LedgerRepository) Quarantine(ctx context.Context, shipmentID string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": shipmentID}, bson.M{"$set": bson.M{"quarantined": true}})
	if err != nil {
		return fmt.Errorf("quarantine shipment: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrShipmentNotFound
	}
	return nil
}

// History returns the ledger oldest-first.
func (r *LedgerRepository) History(ctx context.Context, shipmentID string) ([]domain.TrackingEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc struct {
		Events []domain.TrackingEvent `bson:"events"`
	}
	opts := options.FindOne().SetProjection(bson.M{"events": 1})
	if err := r.col.FindOne(ctx, bson.M{"_id": shipmentID}, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrShipmentNotFound
		}
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	if doc.Events == nil {
		doc.Events = []domain.TrackingEvent{}
	}
	return doc.Events, nil
}

// MarkPublished clears the outbox flag of one entry.
func (r *LedgerRepository) MarkPublished(ctx context.Context, shipmentID string, sequence int64) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"_id": shipmentID, "events.sequence": sequence}
	update := bson.M{"$set": bson.M{"events.$.published": true}}

	res, err := r.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("mark published: %w", err)
	}
	if res.MatchedCount == 0 {
		return r.missOrConflict(ctx, shipmentID, domain.ErrLedgerCorrupted)
	}
	return nil
}

// ListUnpublished returns ids of shipments with at least one entry still in the outbox.
func (r *LedgerRepository) ListUnpublished(ctx context.Context, limit int) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().
		SetProjection(bson.M{"_id": 1}).
		SetSort(bson.D{{Key: "_id", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cur, err := r.col.Find(ctx, bson.M{"events.published": false}, opts)
	if err != nil {
		return nil, fmt.Errorf("list unpublished: %w", err)
	}
	defer cur.Close(ctx)

	var rows []struct {
		ID string `bson:"_id"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("list unpublished: %w", err)
	}
	ids := make([]string, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
	}
	return ids, nil
}

// missOrConflict tells an unknown or quarantined shipment apart from a
// filter that no longer matches.
func (r *LedgerRepository) missOrConflict(ctx context.Context, shipmentID string, conflict error) error {
	var doc struct {
		Quarantined bool `bson:"quarantined"`
	}
	opts := options.FindOne().SetProjection(bson.M{"quarantined": 1})
	if err := r.col.FindOne(ctx, bson.M{"_id": shipmentID}, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.ErrShipmentNotFound
		}
		return fmt.Errorf("check shipment: %w", err)
	}
	if doc.Quarantined {
		return domain.ErrLedgerCorrupted
	}
	return conflict
}
