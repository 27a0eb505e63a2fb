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

// ServiceTypeRepository reads and seeds the service catalog.
type ServiceTypeRepository struct {
	col *mongo.Collection
}

var _ ports.ServiceTypeRepository = (*ServiceTypeRepository)(nil)

func NewServiceTypeRepository(db *mongo.Database) *ServiceTypeRepository {
	return &ServiceTypeRepository{col: db.Collection(collectionServiceTypes)}
}

func (r *ServiceTypeRepository) ListActive(ctx context.Context) ([]domain.ServiceType, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "code", Value: 1}})
	cur, err := r.col.Find(ctx, bson.M{"active": true}, opts)
	if err != nil {
		return nil, fmt.Errorf("list service types: %w", err)
	}
	defer cur.Close(ctx)

	out := []domain.ServiceType{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("list service types: %w", err)
	}
	return out, nil
}

func (r *ServiceTypeRepository) FindByCode(ctx context.Context, code string) (*domain.ServiceType, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var st domain.ServiceType
	if err := r.col.FindOne(ctx, bson.M{"code": code}).Decode(&st); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrServiceTypeNotFound
		}
		return nil, fmt.Errorf("find service type: %w", err)
	}
	return &st, nil
}

// Upsert replaces the catalog entry with the same id, creating it when absent.
func (r *ServiceTypeRepository) Upsert(ctx context.Context, st domain.ServiceType) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Replace().SetUpsert(true)
	if _, err := r.col.ReplaceOne(ctx, bson.M{"_id": st.ID}, st, opts); err != nil {
		return fmt.Errorf("upsert service type: %w", err)
	}
	return nil
}

func ensureServiceTypeIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "code", Value: 1}}, Options: options.Index().SetUnique(true)},
	}
	if _, err := db.Collection(collectionServiceTypes).Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("service type indexes: %w", err)
	}
	return nil
}
