// Package model 定义核心数据模型的测试
package model

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validUser() *User {
	return &User{
		ID:       "usr-001",
		FullName: "Maria Souza",
		Email:    "maria@fleet.example",
		Profile:  ProfileTechnician,
		Status:   UserStatusActive,
	}
}

func TestUser_Validate(t *testing.T) {
	assert.NoError(t, validUser().Validate())

	tests := []struct {
		name   string
		mutate func(*User)
	}{
		{"empty full_name", func(u *User) { u.FullName = "  " }},
		{"full_name too long", func(u *User) { u.FullName = strings.Repeat("x", MaxFullNameLen+1) }},
		{"bad email", func(u *User) { u.Email = "not-an-email" }},
		{"company too long", func(u *User) { u.Company = strings.Repeat("c", MaxCompanyLen+1) }},
		{"phone too long", func(u *User) { u.Phone = strings.Repeat("9", MaxPhoneLen+1) }},
		{"unknown profile", func(u *User) { u.Profile = "manager" }},
		{"unknown status", func(u *User) { u.Status = "paused" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := validUser()
			tt.mutate(u)
			assert.Error(t, u.Validate())
		})
	}
}

// TestUser_DigestNeverMarshaled 密码摘要绝不出现在 JSON 中
func TestUser_DigestNeverMarshaled(t *testing.T) {
	u := validUser()
	u.PasswordDigest = "$2a$12$secret"

	data, err := json.Marshal(u)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "secret")
	assert.NotContains(t, string(data), "password")
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "tech@x.com", NormalizeEmail("  Tech@X.Com "))
	assert.Equal(t, "a@b.co", NormalizeEmail("A@B.CO"))
}

func TestPrincipal_Valid(t *testing.T) {
	p := NewPrincipal(validUser())
	require.True(t, p.Valid())
	assert.Equal(t, "usr-001", p.ID)
	assert.Equal(t, ProfileTechnician, p.Profile)

	// 任一必填字段缺失都视为损坏
	for _, mutate := range []func(*Principal){
		func(p *Principal) { p.ID = "" },
		func(p *Principal) { p.FullName = "" },
		func(p *Principal) { p.Email = "" },
		func(p *Principal) { p.Profile = "" },
	} {
		p := NewPrincipal(validUser())
		mutate(p)
		assert.False(t, p.Valid())
	}

	var nilP *Principal
	assert.False(t, nilP.Valid())
}

func TestVehicle_Validate(t *testing.T) {
	v := &Vehicle{
		ID:      "veh-001",
		Plate:   "ABC-1234",
		BrandID: "brd-001",
		ModelID: "mdl-001",
		Year:    2021,
		Status:  VehicleStatusAvailable,
	}
	assert.NoError(t, v.Validate())

	v.Status = "scrapped"
	assert.Error(t, v.Validate())

	v.Status = VehicleStatusAvailable
	v.Year = 1800
	assert.Error(t, v.Validate())

	v.Year = 2021
	v.Plate = ""
	assert.Error(t, v.Validate())
}
