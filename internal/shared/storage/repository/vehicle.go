package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"fleet-admin/internal/shared/model"
	"fleet-admin/internal/shared/storagetypes"
)

const vehicleColumns = `id, plate, brand_id, model_id, year, color, mileage, status, photo_keys, created_at, updated_at`

func scanVehicle(row interface{ Scan(...interface{}) error }) (*model.Vehicle, error) {
	v := &model.Vehicle{}
	var color sql.NullString
	var keys string
	err := row.Scan(&v.ID, &v.Plate, &v.BrandID, &v.ModelID, &v.Year,
		&color, &v.Mileage, &v.Status, &keys, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	v.Color = color.String
	v.PhotoKeys = unmarshalKeys(keys)
	return v, nil
}

// CreateVehicle 创建车辆
func (s *Store) CreateVehicle(ctx context.Context, v *model.Vehicle) error {
	_, err := s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO vehicles (`+vehicleColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`),
		v.ID, v.Plate, v.BrandID, v.ModelID, v.Year,
		v.Color, v.Mileage, v.Status, marshalKeys(v.PhotoKeys),
		v.CreatedAt, v.UpdatedAt,
	)
	return s.wrapWriteErr(err)
}

// GetVehicleByID 通过 ID 查找车辆
func (s *Store) GetVehicleByID(ctx context.Context, id string) (*model.Vehicle, error) {
	v, err := scanVehicle(s.db.QueryRowContext(ctx, s.rebind(
		`SELECT `+vehicleColumns+` FROM vehicles WHERE id = $1`), id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return v, err
}

// ListVehicles 按过滤条件列出车辆
func (s *Store) ListVehicles(ctx context.Context, filter storagetypes.VehicleFilter) ([]*model.Vehicle, error) {
	query := `SELECT ` + vehicleColumns + ` FROM vehicles`
	conditions := []string{}
	args := []interface{}{}
	if filter.BrandID != "" {
		args = append(args, filter.BrandID)
		conditions = append(conditions, fmt.Sprintf("brand_id = $%d", len(args)))
	}
	if filter.ModelID != "" {
		args = append(args, filter.ModelID)
		conditions = append(conditions, fmt.Sprintf("model_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	for i, c := range conditions {
		if i == 0 {
			query += " WHERE " + c
		} else {
			query += " AND " + c
		}
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	vehicles := []*model.Vehicle{}
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, err
		}
		vehicles = append(vehicles, v)
	}
	return vehicles, rows.Err()
}

// UpdateVehicle 整体更新车辆记录
func (s *Store) UpdateVehicle(ctx context.Context, v *model.Vehicle) error {
	v.UpdatedAt = time.Now()
	res, err := s.db.ExecContext(ctx, s.rebind(
		`UPDATE vehicles SET plate = $1, brand_id = $2, model_id = $3, year = $4, color = $5,
		        mileage = $6, status = $7, photo_keys = $8, updated_at = $9
		 WHERE id = $10`),
		v.Plate, v.BrandID, v.ModelID, v.Year, v.Color,
		v.Mileage, v.Status, marshalKeys(v.PhotoKeys), v.UpdatedAt,
		v.ID,
	)
	if err != nil {
		return err
	}
	return affectedOrNotFound(res)
}

// DeleteVehicle 删除车辆
func (s *Store) DeleteVehicle(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM vehicles WHERE id = $1`), id)
	if err != nil {
		return err
	}
	return affectedOrNotFound(res)
}

// CountVehiclesByModel 车型下车辆数
func (s *Store) CountVehiclesByModel(ctx context.Context, modelID string) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT COUNT(*) FROM vehicles WHERE model_id = $1`), modelID).Scan(&n)
	return n, err
}

// CountVehicles 车辆总数
func (s *Store) CountVehicles(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM vehicles`).Scan(&n)
	return n, err
}

// CountVehiclesByStatus 按状态统计车辆数
func (s *Store) CountVehiclesByStatus(ctx context.Context, status model.VehicleStatus) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT COUNT(*) FROM vehicles WHERE status = $1`), status).Scan(&n)
	return n, err
}
