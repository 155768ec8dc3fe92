package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"fleet-admin/internal/shared/model"
	"fleet-admin/internal/shared/storage/driver/sqlite"
	"fleet-admin/internal/shared/storagetypes"
)

// testStore 基于内存 SQLite 的测试存储
func testStore(t *testing.T) *Store {
	t.Helper()

	db, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	dialect := sqlite.NewDialect()
	if err := dialect.AutoMigrate(db); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}

	s := NewStore(db, dialect)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestUserStoreSQL(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	u := &model.User{
		ID:             "usr-001",
		FullName:       "Bob Chan",
		Email:          "bob@fleet.example",
		PasswordDigest: "$2a$12$digest",
		Profile:        model.ProfileAdmin,
		Status:         model.UserStatusActive,
		IsProtected:    true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.CreateUser(ctx, u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	// UNIQUE(email) → ErrDuplicate
	dup := *u
	dup.ID = "usr-002"
	if err := s.CreateUser(ctx, &dup); !errors.Is(err, storagetypes.ErrDuplicate) {
		t.Fatalf("duplicate email: err = %v, want ErrDuplicate", err)
	}

	got, err := s.GetUserByEmail(ctx, "BOB@Fleet.Example")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if got == nil || got.ID != "usr-001" || !got.IsProtected {
		t.Fatalf("GetUserByEmail = %+v", got)
	}

	// 未命中返回 (nil, nil)
	got, err = s.GetUserByID(ctx, "usr-404")
	if err != nil || got != nil {
		t.Fatalf("miss = (%v, %v), want (nil, nil)", got, err)
	}

	if err := s.UpdateUserDigest(ctx, "usr-001", "$2a$12$rotated"); err != nil {
		t.Fatalf("UpdateUserDigest: %v", err)
	}
	got, _ = s.GetUserByID(ctx, "usr-001")
	if got.PasswordDigest != "$2a$12$rotated" {
		t.Errorf("digest = %q, want rotated", got.PasswordDigest)
	}

	if err := s.UpdateUserDigest(ctx, "usr-404", "x"); !errors.Is(err, storagetypes.ErrNotFound) {
		t.Fatalf("update missing: err = %v, want ErrNotFound", err)
	}

	users, err := s.ListUsers(ctx)
	if err != nil || len(users) != 1 {
		t.Fatalf("ListUsers = (%d, %v), want 1", len(users), err)
	}

	if err := s.DeleteUser(ctx, "usr-001"); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if err := s.DeleteUser(ctx, "usr-001"); !errors.Is(err, storagetypes.ErrNotFound) {
		t.Fatalf("delete missing: err = %v, want ErrNotFound", err)
	}
}

func TestVehicleStoreSQL(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	brand := &model.Brand{ID: "brd-001", Name: "Scania", CreatedAt: now, UpdatedAt: now}
	if err := s.CreateBrand(ctx, brand); err != nil {
		t.Fatalf("CreateBrand: %v", err)
	}
	vm := &model.VehicleModel{ID: "mdl-001", Name: "R450", BrandID: "brd-001", CreatedAt: now, UpdatedAt: now}
	if err := s.CreateVehicleModel(ctx, vm); err != nil {
		t.Fatalf("CreateVehicleModel: %v", err)
	}

	v := &model.Vehicle{
		ID: "veh-001", Plate: "XYZ-9876", BrandID: "brd-001", ModelID: "mdl-001",
		Year: 2023, Color: "white", Mileage: 1200,
		Status: model.VehicleStatusInUse, PhotoKeys: []string{"vehicles/veh-001/p1.jpg"},
		CreatedAt: now, UpdatedAt: now,
	}
	if err := s.CreateVehicle(ctx, v); err != nil {
		t.Fatalf("CreateVehicle: %v", err)
	}

	// photo_keys JSON 往返
	got, err := s.GetVehicleByID(ctx, "veh-001")
	if err != nil {
		t.Fatalf("GetVehicleByID: %v", err)
	}
	if len(got.PhotoKeys) != 1 || got.PhotoKeys[0] != "vehicles/veh-001/p1.jpg" {
		t.Fatalf("PhotoKeys = %v", got.PhotoKeys)
	}

	// 过滤查询
	list, err := s.ListVehicles(ctx, storagetypes.VehicleFilter{ModelID: "mdl-001", Status: model.VehicleStatusInUse})
	if err != nil || len(list) != 1 {
		t.Fatalf("ListVehicles = (%d, %v), want 1", len(list), err)
	}
	list, err = s.ListVehicles(ctx, storagetypes.VehicleFilter{BrandID: "brd-404"})
	if err != nil || len(list) != 0 {
		t.Fatalf("ListVehicles(miss) = (%d, %v), want 0", len(list), err)
	}

	// 引用计数
	n, err := s.CountModelsByBrand(ctx, "brd-001")
	if err != nil || n != 1 {
		t.Fatalf("CountModelsByBrand = (%d, %v), want 1", n, err)
	}
	n, err = s.CountVehiclesByModel(ctx, "mdl-001")
	if err != nil || n != 1 {
		t.Fatalf("CountVehiclesByModel = (%d, %v), want 1", n, err)
	}
	n, err = s.CountVehiclesByStatus(ctx, model.VehicleStatusInUse)
	if err != nil || n != 1 {
		t.Fatalf("CountVehiclesByStatus = (%d, %v), want 1", n, err)
	}

	// 更新状态与照片
	got.Status = model.VehicleStatusMaintenance
	got.PhotoKeys = append(got.PhotoKeys, "vehicles/veh-001/p2.jpg")
	if err := s.UpdateVehicle(ctx, got); err != nil {
		t.Fatalf("UpdateVehicle: %v", err)
	}
	got, _ = s.GetVehicleByID(ctx, "veh-001")
	if got.Status != model.VehicleStatusMaintenance || len(got.PhotoKeys) != 2 {
		t.Fatalf("after update: %+v", got)
	}

	if err := s.DeleteVehicle(ctx, "veh-001"); err != nil {
		t.Fatalf("DeleteVehicle: %v", err)
	}
}
