package repository

import (
	"context"
	"database/sql"
	"time"

	"fleet-admin/internal/shared/model"
)

// ============================================================================
// BrandStore
// ============================================================================

// CreateBrand 创建品牌
func (s *Store) CreateBrand(ctx context.Context, brand *model.Brand) error {
	_, err := s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO brands (id, name, country, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)`),
		brand.ID, brand.Name, brand.Country, brand.CreatedAt, brand.UpdatedAt,
	)
	return s.wrapWriteErr(err)
}

// GetBrandByID 通过 ID 查找品牌
func (s *Store) GetBrandByID(ctx context.Context, id string) (*model.Brand, error) {
	b := &model.Brand{}
	var country sql.NullString
	err := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT id, name, country, created_at, updated_at FROM brands WHERE id = $1`), id,
	).Scan(&b.ID, &b.Name, &country, &b.CreatedAt, &b.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	b.Country = country.String
	return b, err
}

// ListBrands 按名称列出所有品牌
func (s *Store) ListBrands(ctx context.Context) ([]*model.Brand, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, country, created_at, updated_at FROM brands ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	brands := []*model.Brand{}
	for rows.Next() {
		b := &model.Brand{}
		var country sql.NullString
		if err := rows.Scan(&b.ID, &b.Name, &country, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		b.Country = country.String
		brands = append(brands, b)
	}
	return brands, rows.Err()
}

// UpdateBrand 更新品牌
func (s *Store) UpdateBrand(ctx context.Context, brand *model.Brand) error {
	brand.UpdatedAt = time.Now()
	res, err := s.db.ExecContext(ctx, s.rebind(
		`UPDATE brands SET name = $1, country = $2, updated_at = $3 WHERE id = $4`),
		brand.Name, brand.Country, brand.UpdatedAt, brand.ID,
	)
	if err != nil {
		return err
	}
	return affectedOrNotFound(res)
}

// DeleteBrand 删除品牌（引用检查由调用方负责）
func (s *Store) DeleteBrand(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM brands WHERE id = $1`), id)
	if err != nil {
		return err
	}
	return affectedOrNotFound(res)
}

// CountBrands 品牌总数
func (s *Store) CountBrands(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM brands`).Scan(&n)
	return n, err
}

// ============================================================================
// VehicleModelStore
// ============================================================================

// CreateVehicleModel 创建车型
func (s *Store) CreateVehicleModel(ctx context.Context, vm *model.VehicleModel) error {
	_, err := s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO vehicle_models (id, name, brand_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)`),
		vm.ID, vm.Name, vm.BrandID, vm.CreatedAt, vm.UpdatedAt,
	)
	return s.wrapWriteErr(err)
}

// GetVehicleModelByID 通过 ID 查找车型
func (s *Store) GetVehicleModelByID(ctx context.Context, id string) (*model.VehicleModel, error) {
	vm := &model.VehicleModel{}
	err := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT id, name, brand_id, created_at, updated_at FROM vehicle_models WHERE id = $1`), id,
	).Scan(&vm.ID, &vm.Name, &vm.BrandID, &vm.CreatedAt, &vm.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return vm, err
}

// ListVehicleModels 列出车型，brandID 非空时按品牌过滤
func (s *Store) ListVehicleModels(ctx context.Context, brandID string) ([]*model.VehicleModel, error) {
	query := `SELECT id, name, brand_id, created_at, updated_at FROM vehicle_models`
	args := []interface{}{}
	if brandID != "" {
		query += ` WHERE brand_id = $1`
		args = append(args, brandID)
	}
	query += ` ORDER BY name`

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	models := []*model.VehicleModel{}
	for rows.Next() {
		vm := &model.VehicleModel{}
		if err := rows.Scan(&vm.ID, &vm.Name, &vm.BrandID, &vm.CreatedAt, &vm.UpdatedAt); err != nil {
			return nil, err
		}
		models = append(models, vm)
	}
	return models, rows.Err()
}

// UpdateVehicleModel 更新车型
func (s *Store) UpdateVehicleModel(ctx context.Context, vm *model.VehicleModel) error {
	vm.UpdatedAt = time.Now()
	res, err := s.db.ExecContext(ctx, s.rebind(
		`UPDATE vehicle_models SET name = $1, brand_id = $2, updated_at = $3 WHERE id = $4`),
		vm.Name, vm.BrandID, vm.UpdatedAt, vm.ID,
	)
	if err != nil {
		return err
	}
	return affectedOrNotFound(res)
}

// DeleteVehicleModel 删除车型（引用检查由调用方负责）
func (s *Store) DeleteVehicleModel(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM vehicle_models WHERE id = $1`), id)
	if err != nil {
		return err
	}
	return affectedOrNotFound(res)
}

// CountModelsByBrand 品牌下车型数
func (s *Store) CountModelsByBrand(ctx context.Context, brandID string) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT COUNT(*) FROM vehicle_models WHERE brand_id = $1`), brandID).Scan(&n)
	return n, err
}

// CountVehicleModels 车型总数
func (s *Store) CountVehicleModels(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM vehicle_models`).Scan(&n)
	return n, err
}
