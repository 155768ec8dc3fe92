package auth

import (
	"context"
	"errors"
	"strings"
	"testing"

	"fleet-admin/internal/shared/model"
)

// mockUserStore 认证测试用的内存用户存储
type mockUserStore struct {
	users   map[string]*model.User // key: normalized email
	lookups int
	failing bool
}

func newMockUserStore(users ...*model.User) *mockUserStore {
	m := &mockUserStore{users: map[string]*model.User{}}
	for _, u := range users {
		m.users[u.Email] = u
	}
	return m
}

func (m *mockUserStore) CreateUser(ctx context.Context, u *model.User) error {
	m.users[u.Email] = u
	return nil
}

func (m *mockUserStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	m.lookups++
	if m.failing {
		return nil, errors.New("store unreachable")
	}
	return m.users[email], nil
}

func (m *mockUserStore) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

func (m *mockUserStore) ListUsers(ctx context.Context) ([]*model.User, error) { return nil, nil }
func (m *mockUserStore) UpdateUser(ctx context.Context, u *model.User) error  { return nil }

func (m *mockUserStore) UpdateUserDigest(ctx context.Context, id, digest string) error {
	for _, u := range m.users {
		if u.ID == id {
			u.PasswordDigest = digest
			return nil
		}
	}
	return errors.New("not found")
}

func (m *mockUserStore) DeleteUser(ctx context.Context, id string) error { return nil }
func (m *mockUserStore) CountUsers(ctx context.Context) (int64, error) {
	return int64(len(m.users)), nil
}

func activeUser(t *testing.T, email, password string) *model.User {
	t.Helper()
	digest, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	return &model.User{
		ID:             "usr-" + email[:3],
		FullName:       "Test Person",
		Email:          model.NormalizeEmail(email),
		PasswordDigest: digest,
		Profile:        model.ProfileTechnician,
		Status:         model.UserStatusActive,
	}
}

func TestAuthenticate_Success(t *testing.T) {
	store := newMockUserStore(activeUser(t, "ana@fleet.example", "correct-horse"))
	authn := NewAuthenticator(store)

	// 邮箱查找前规范化
	res, err := authn.Authenticate(context.Background(), "  ANA@Fleet.Example ", "correct-horse")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if !res.OK {
		t.Fatalf("declined: %s", res.Reason)
	}
	if res.Principal == nil || res.Principal.Email != "ana@fleet.example" {
		t.Fatalf("principal = %+v", res.Principal)
	}
	if res.Principal.Profile != model.ProfileTechnician {
		t.Errorf("profile = %q", res.Principal.Profile)
	}
}

// 未知邮箱与密码错误必须返回同一个通用原因
func TestAuthenticate_GenericDecline(t *testing.T) {
	store := newMockUserStore(activeUser(t, "ana@fleet.example", "correct-horse"))
	authn := NewAuthenticator(store)
	ctx := context.Background()

	unknown, err := authn.Authenticate(ctx, "nobody@fleet.example", "whatever")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	wrongPw, err := authn.Authenticate(ctx, "ana@fleet.example", "wrong")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}

	if unknown.OK || wrongPw.OK {
		t.Fatal("expected both declined")
	}
	if unknown.Reason != wrongPw.Reason {
		t.Errorf("reasons differ: %q vs %q", unknown.Reason, wrongPw.Reason)
	}
	if unknown.Reason != ReasonInvalidCredentials {
		t.Errorf("reason = %q", unknown.Reason)
	}
}

// 停用账号：密码正确才暴露停用状态，密码错误仍是通用拒绝
func TestAuthenticate_InactiveAccount(t *testing.T) {
	u := activeUser(t, "ina@fleet.example", "correct-horse")
	u.Status = model.UserStatusInactive
	store := newMockUserStore(u)
	authn := NewAuthenticator(store)
	ctx := context.Background()

	res, err := authn.Authenticate(ctx, "ina@fleet.example", "correct-horse")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if res.OK || res.Reason != ReasonInactiveAccount {
		t.Fatalf("result = %+v, want inactive decline", res)
	}

	res, _ = authn.Authenticate(ctx, "ina@fleet.example", "wrong")
	if res.OK || res.Reason != ReasonInvalidCredentials {
		t.Fatalf("wrong password on inactive account must stay generic, got %+v", res)
	}
}

// 旧格式摘要在登录成功后升级为 bcrypt
func TestAuthenticate_LazyRehash(t *testing.T) {
	u := activeUser(t, "old@fleet.example", "ignored")
	u.PasswordDigest = legacyHashV1("legacy-pass", newLegacySaltV1())
	store := newMockUserStore(u)
	authn := NewAuthenticator(store)
	ctx := context.Background()

	res, err := authn.Authenticate(ctx, "old@fleet.example", "legacy-pass")
	if err != nil || !res.OK {
		t.Fatalf("Authenticate = (%+v, %v)", res, err)
	}

	if !strings.HasPrefix(u.PasswordDigest, "$2") {
		t.Fatalf("digest not upgraded: %q", u.PasswordDigest)
	}
	// 升级后旧密码继续可用
	res, _ = authn.Authenticate(ctx, "old@fleet.example", "legacy-pass")
	if !res.OK {
		t.Fatalf("post-rehash login declined: %s", res.Reason)
	}
}

// 明文存量记录同样能登录并升级
func TestAuthenticate_PlaintextMigration(t *testing.T) {
	u := activeUser(t, "plain@fleet.example", "ignored")
	u.PasswordDigest = "plain-password"
	store := newMockUserStore(u)
	authn := NewAuthenticator(store)

	res, err := authn.Authenticate(context.Background(), "plain@fleet.example", "plain-password")
	if err != nil || !res.OK {
		t.Fatalf("Authenticate = (%+v, %v)", res, err)
	}
	if NeedsRehash(u.PasswordDigest) {
		t.Fatalf("digest not upgraded: %q", u.PasswordDigest)
	}
}

// 存储层故障向上传播为 error，而不是拒绝结果
func TestAuthenticate_StoreFailure(t *testing.T) {
	store := newMockUserStore()
	store.failing = true
	authn := NewAuthenticator(store)

	res, err := authn.Authenticate(context.Background(), "ana@fleet.example", "pw")
	if err == nil {
		t.Fatalf("expected error, got %+v", res)
	}
}
