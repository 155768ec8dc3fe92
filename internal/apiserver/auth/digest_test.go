package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword_CurrentFormat(t *testing.T) {
	d1, err := HashPassword("secret-1")
	require.NoError(t, err)
	d2, err := HashPassword("secret-1")
	require.NoError(t, err)

	// bcrypt 自带随机盐：同一密码两次哈希结果不同
	assert.NotEqual(t, d1, d2)
	assert.True(t, strings.HasPrefix(d1, "$2"))

	assert.True(t, VerifyPassword("secret-1", d1))
	assert.True(t, VerifyPassword("secret-1", d2))
	assert.False(t, VerifyPassword("secret-2", d1))
	assert.False(t, NeedsRehash(d1))
}

func TestVerifyPassword_LegacyV1(t *testing.T) {
	salt := newLegacySaltV1()
	digest := legacyHashV1("old-password", salt)

	assert.True(t, strings.HasPrefix(digest, "v1$"))
	assert.True(t, VerifyPassword("old-password", digest))
	assert.False(t, VerifyPassword("wrong", digest))
	assert.True(t, NeedsRehash(digest))
}

func TestVerifyPassword_LegacyPlaintext(t *testing.T) {
	assert.True(t, VerifyPassword("hunter2", "hunter2"))
	assert.False(t, VerifyPassword("hunter3", "hunter2"))
	assert.True(t, NeedsRehash("hunter2"))
}

// 损坏或缺失的摘要一律校验失败，不抛可区分的错误
func TestVerifyPassword_Malformed(t *testing.T) {
	for _, digest := range []string{
		"",
		"v1$",
		"v1$$",
		"v1$onlysalt",
		"$2a$not-a-real-bcrypt",
	} {
		assert.False(t, VerifyPassword("anything", digest), "digest %q", digest)
	}
}
