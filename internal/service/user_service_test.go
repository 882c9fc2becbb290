package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ANHphan1982/NyNa-House-Store-backend/internal/apperr"
	"github.com/ANHphan1982/NyNa-House-Store-backend/internal/config"
	"github.com/ANHphan1982/NyNa-House-Store-backend/internal/datamodels/user"
)

var testJWTCfg = config.JWTConfig{
	Secret:   "test-secret",
	TTL:      time.Hour,
	AdminTTL: 30 * time.Minute,
}

func newUserTestEnv(t *testing.T) (*UserService, *memUserRepo) {
	t.Helper()
	repo := newMemUserRepo()
	svc := NewUserService(repo, &testJWTCfg, nil, &recordNotifier{})
	return svc, repo
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newUserTestEnv(t)
	ctx := context.Background()

	cases := []struct {
		name string
		in   RegisterInput
	}{
		{"姓名过短", RegisterInput{Name: "a", Email: "a@b.com", Password: "password1"}},
		{"邮箱手机都缺", RegisterInput{Name: "小梅", Password: "password1"}},
		{"邮箱格式错", RegisterInput{Name: "小梅", Email: "not-an-email", Password: "password1"}},
		{"手机格式错", RegisterInput{Name: "小梅", Phone: "12345", Password: "password1"}},
		{"密码太短", RegisterInput{Name: "小梅", Email: "a@b.com", Password: "short"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(ctx, &tc.in)
			require.Error(t, err)
			assert.True(t, apperr.Is(err, apperr.CodeValidation))
		})
	}
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newUserTestEnv(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, &RegisterInput{
		Name:     "小梅",
		Email:    "Mai@Example.com",
		Phone:    "0912345678",
		Password: "password123",
	})
	require.NoError(t, err)
	assert.Equal(t, "mai@example.com", u.Email)
	assert.Equal(t, user.RoleUser, u.Role)
	assert.NotEqual(t, "password123", u.Password)
	assert.NotEmpty(t, u.Salt)

	// 邮箱重复注册
	_, err = svc.Register(ctx, &RegisterInput{
		Name: "别人", Email: "mai@example.com", Password: "password123",
	})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeDuplicate))

	// 邮箱或手机号都能登录
	_, token, err := svc.Login(ctx, "mai@example.com", "password123")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	_, _, err = svc.Login(ctx, "0912345678", "password123")
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "mai@example.com", "wrongpassword")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeInvalidCredential))

	// 不存在的账号与密码错误给同样的提示
	_, _, err = svc.Login(ctx, "ghost@example.com", "password123")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeInvalidCredential))
}

func TestLoginLockout(t *testing.T) {
	svc, repo := newUserTestEnv(t)
	ctx := context.Background()

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	timeNow = func() time.Time { return now }
	defer func() { timeNow = time.Now }()

	u, err := svc.Register(ctx, &RegisterInput{
		Name: "小梅", Email: "mai@example.com", Password: "password123",
	})
	require.NoError(t, err)

	// 连续失败 5 次后锁定
	for i := 0; i < user.MaxLoginAttempts; i++ {
		_, _, err = svc.Login(ctx, "mai@example.com", "wrongpassword")
		require.Error(t, err)
		assert.True(t, apperr.Is(err, apperr.CodeInvalidCredential))
	}

	stored, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LockUntil)
	assert.Equal(t, now.Add(user.LockDuration), *stored.LockUntil)

	// 锁定期内连正确密码也进不去
	_, _, err = svc.Login(ctx, "mai@example.com", "password123")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeAccountLocked))

	// 锁定期过后失败计数从头算
	now = now.Add(user.LockDuration + time.Minute)
	_, _, err = svc.Login(ctx, "mai@example.com", "wrongpassword")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeInvalidCredential))

	stored, err = repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.LoginAttempts)
	assert.Nil(t, stored.LockUntil)

	// 正确密码登录成功并清零计数
	_, _, err = svc.Login(ctx, "mai@example.com", "password123")
	require.NoError(t, err)

	stored, err = repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.LoginAttempts)
	require.NotNil(t, stored.LastLogin)
}

func TestCreateAdmin(t *testing.T) {
	svc, _ := newUserTestEnv(t)
	ctx := context.Background()

	u, err := svc.CreateAdmin(ctx, "店长", "Boss@Example.com", "admin-pass-1")
	require.NoError(t, err)
	assert.Equal(t, user.RoleAdmin, u.Role)
	assert.Equal(t, "boss@example.com", u.Email)

	_, err = svc.CreateAdmin(ctx, "店长", "boss@example.com", "admin-pass-1")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeDuplicate))

	_, err = svc.CreateAdmin(ctx, "店长", "bad-email", "admin-pass-1")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeValidation))
}
