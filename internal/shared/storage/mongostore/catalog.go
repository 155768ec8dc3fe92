package mongostore

import (
	"context"
	"time"

	"fleet-admin/internal/shared/model"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ============================================================================
// BrandStore
// ============================================================================

func (s *Store) CreateBrand(ctx context.Context, brand *model.Brand) error {
	return insertOne(ctx, s.col(ColBrands), brand)
}

func (s *Store) GetBrandByID(ctx context.Context, id string) (*model.Brand, error) {
	return findOne[model.Brand](ctx, s.col(ColBrands), bson.D{{Key: "_id", Value: id}})
}

func (s *Store) ListBrands(ctx context.Context) ([]*model.Brand, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	return findMany[model.Brand](ctx, s.col(ColBrands), bson.D{}, opts)
}

func (s *Store) UpdateBrand(ctx context.Context, brand *model.Brand) error {
	brand.UpdatedAt = time.Now()
	return replaceByID(ctx, s.col(ColBrands), brand.ID, brand)
}

func (s *Store) DeleteBrand(ctx context.Context, id string) error {
	return deleteByID(ctx, s.col(ColBrands), id)
}

func (s *Store) CountBrands(ctx context.Context) (int64, error) {
	return countDocs(ctx, s.col(ColBrands), bson.D{})
}

// ============================================================================
// VehicleModelStore
// ============================================================================

func (s *Store) CreateVehicleModel(ctx context.Context, vm *model.VehicleModel) error {
	return insertOne(ctx, s.col(ColVehicleModels), vm)
}

func (s *Store) GetVehicleModelByID(ctx context.Context, id string) (*model.VehicleModel, error) {
	return findOne[model.VehicleModel](ctx, s.col(ColVehicleModels), bson.D{{Key: "_id", Value: id}})
}

func (s *Store) ListVehicleModels(ctx context.Context, brandID string) ([]*model.VehicleModel, error) {
	filter := bson.D{}
	if brandID != "" {
		filter = bson.D{{Key: "brand_id", Value: brandID}}
	}
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	return findMany[model.VehicleModel](ctx, s.col(ColVehicleModels), filter, opts)
}

func (s *Store) UpdateVehicleModel(ctx context.Context, vm *model.VehicleModel) error {
	vm.UpdatedAt = time.Now()
	return replaceByID(ctx, s.col(ColVehicleModels), vm.ID, vm)
}

func (s *Store) DeleteVehicleModel(ctx context.Context, id string) error {
	return deleteByID(ctx, s.col(ColVehicleModels), id)
}

func (s *Store) CountModelsByBrand(ctx context.Context, brandID string) (int64, error) {
	return countDocs(ctx, s.col(ColVehicleModels), bson.D{{Key: "brand_id", Value: brandID}})
}

func (s *Store) CountVehicleModels(ctx context.Context) (int64, error) {
	return countDocs(ctx, s.col(ColVehicleModels), bson.D{})
}
