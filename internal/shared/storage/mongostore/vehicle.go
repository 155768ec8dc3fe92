package mongostore

import (
	"context"
	"time"

	"fleet-admin/internal/shared/model"
	"fleet-admin/internal/shared/storage"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ============================================================================
// VehicleStore
// ============================================================================

func (s *Store) CreateVehicle(ctx context.Context, v *model.Vehicle) error {
	return insertOne(ctx, s.col(ColVehicles), v)
}

func (s *Store) GetVehicleByID(ctx context.Context, id string) (*model.Vehicle, error) {
	return findOne[model.Vehicle](ctx, s.col(ColVehicles), bson.D{{Key: "_id", Value: id}})
}

func (s *Store) ListVehicles(ctx context.Context, filter storage.VehicleFilter) ([]*model.Vehicle, error) {
	query := bson.D{}
	if filter.BrandID != "" {
		query = append(query, bson.E{Key: "brand_id", Value: filter.BrandID})
	}
	if filter.ModelID != "" {
		query = append(query, bson.E{Key: "model_id", Value: filter.ModelID})
	}
	if filter.Status != "" {
		query = append(query, bson.E{Key: "status", Value: filter.Status})
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return findMany[model.Vehicle](ctx, s.col(ColVehicles), query, opts)
}

func (s *Store) UpdateVehicle(ctx context.Context, v *model.Vehicle) error {
	v.UpdatedAt = time.Now()
	return replaceByID(ctx, s.col(ColVehicles), v.ID, v)
}

func (s *Store) DeleteVehicle(ctx context.Context, id string) error {
	return deleteByID(ctx, s.col(ColVehicles), id)
}

func (s *Store) CountVehiclesByModel(ctx context.Context, modelID string) (int64, error) {
	return countDocs(ctx, s.col(ColVehicles), bson.D{{Key: "model_id", Value: modelID}})
}

func (s *Store) CountVehicles(ctx context.Context) (int64, error) {
	return countDocs(ctx, s.col(ColVehicles), bson.D{})
}

func (s *Store) CountVehiclesByStatus(ctx context.Context, status model.VehicleStatus) (int64, error) {
	return countDocs(ctx, s.col(ColVehicles), bson.D{{Key: "status", Value: status}})
}
