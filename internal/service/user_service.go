package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ANHphan1982/NyNa-House-Store-backend/internal/apperr"
	"github.com/ANHphan1982/NyNa-House-Store-backend/internal/auth"
	"github.com/ANHphan1982/NyNa-House-Store-backend/internal/config"
	"github.com/ANHphan1982/NyNa-House-Store-backend/internal/datamodels/user"
	"github.com/ANHphan1982/NyNa-House-Store-backend/internal/keygen"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// UserService 用户注册、登录与管理员二次验证
type UserService struct {
	repo     user.Repository
	jwt      *config.JWTConfig
	otp      *auth.OTPStore
	notifier Notifier
}

// NewUserService 创建用户服务
func NewUserService(repo user.Repository, jwt *config.JWTConfig, otp *auth.OTPStore, notifier Notifier) *UserService {
	return &UserService{repo: repo, jwt: jwt, otp: otp, notifier: notifier}
}

func hashPassword(raw, salt string) string {
	h := sha256.Sum256([]byte(raw + salt))
	return hex.EncodeToString(h[:])
}

// RegisterInput 注册入参，邮箱/手机号至少填一个
type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// Register 注册普通用户
func (s *UserService) Register(ctx context.Context, in *RegisterInput) (*user.User, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	phone := strings.TrimSpace(in.Phone)

	if len(name) < 2 {
		return nil, apperr.BadRequest(apperr.CodeValidation, "姓名至少 2 个字符")
	}
	if email == "" && phone == "" {
		return nil, apperr.BadRequest(apperr.CodeValidation, "邮箱和手机号至少填一个")
	}
	if email != "" && !emailPattern.MatchString(email) {
		return nil, apperr.BadRequest(apperr.CodeValidation, "邮箱格式不正确")
	}
	if phone != "" && !phonePattern.MatchString(phone) {
		return nil, apperr.BadRequest(apperr.CodeValidation, "手机号格式不正确")
	}
	if len(in.Password) < 8 {
		return nil, apperr.BadRequest(apperr.CodeValidation, "密码至少 8 位")
	}

	u := &user.User{
		ID:       keygen.NewKey(),
		Name:     name,
		Email:    email,
		Phone:    phone,
		Salt:     keygen.NewKey(),
		Role:     user.RoleUser,
		IsActive: true,
	}
	u.Password = hashPassword(in.Password, u.Salt)

	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, user.ErrDuplicate) {
			return nil, apperr.BadRequest(apperr.CodeDuplicate, "邮箱或手机号已被注册")
		}
		return nil, apperr.Storage(err)
	}
	zap.L().Info("user registered", zap.String("user_id", u.ID))
	return u, nil
}

// findByIdentifier 按邮箱或手机号定位用户
func (s *UserService) findByIdentifier(ctx context.Context, identifier string) (*user.User, error) {
	identifier = strings.TrimSpace(identifier)
	if strings.Contains(identifier, "@") {
		return s.repo.GetByEmail(ctx, strings.ToLower(identifier))
	}
	return s.repo.GetByPhone(ctx, identifier)
}

// authenticate 密码认证，内置连续失败锁定。
// 失败 5 次锁 2 小时，成功登录清零计数。
func (s *UserService) authenticate(ctx context.Context, identifier, password string) (*user.User, error) {
	u, err := s.findByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, apperr.BadRequest(apperr.CodeInvalidCredential, "账号或密码错误")
		}
		return nil, apperr.Storage(err)
	}
	if !u.IsActive {
		return nil, apperr.Forbidden("账号已被停用")
	}

	now := timeNow()
	if u.IsLocked(now) {
		return nil, apperr.BadRequest(apperr.CodeAccountLocked,
			"连续失败次数过多，账号已锁定，请 %s 后重试", u.LockUntil.Sub(now).Round(time.Minute))
	}

	if hashPassword(password, u.Salt) != u.Password {
		// 锁定期已过的旧计数从 1 重新开始
		if u.LockUntil != nil && !u.LockUntil.After(now) {
			u.LoginAttempts = 1
			u.LockUntil = nil
		} else {
			u.LoginAttempts++
		}
		if u.LoginAttempts >= user.MaxLoginAttempts {
			until := now.Add(user.LockDuration)
			u.LockUntil = &until
			zap.L().Warn("account locked", zap.String("user_id", u.ID))
		}
		if err := s.repo.Update(ctx, u); err != nil {
			return nil, apperr.Storage(err)
		}
		return nil, apperr.BadRequest(apperr.CodeInvalidCredential, "账号或密码错误")
	}

	u.LoginAttempts = 0
	u.LockUntil = nil
	u.LastLogin = &now
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, apperr.Storage(err)
	}
	return u, nil
}

// Login 普通用户登录，返回用户态 token
func (s *UserService) Login(ctx context.Context, identifier, password string) (*user.User, string, error) {
	u, err := s.authenticate(ctx, identifier, password)
	if err != nil {
		return nil, "", err
	}
	token, err := auth.GenerateToken(s.jwt, u.ID, u.Name, u.Role, auth.AudienceUser)
	if err != nil {
		return nil, "", apperr.Storage(err)
	}
	return u, token, nil
}

// AdminLogin 管理员登录第一步：密码校验通过后向邮箱投递验证码
func (s *UserService) AdminLogin(ctx context.Context, email, password string) error {
	u, err := s.authenticate(ctx, email, password)
	if err != nil {
		return err
	}
	if u.Role != user.RoleAdmin {
		return apperr.Forbidden("仅管理员可登录后台")
	}
	if u.Email == "" {
		return apperr.BadRequest(apperr.CodeValidation, "管理员账号未绑定邮箱，无法投递验证码")
	}

	code, err := s.otp.Generate(ctx, u.Email)
	if err != nil {
		return apperr.Storage(err)
	}
	if err := s.notifier.DeliverCode(ctx, u.Email, code); err != nil {
		zap.L().Error("deliver otp failed", zap.String("email", u.Email), zap.Error(err))
		return apperr.Storage(err)
	}
	return nil
}

// AdminVerifyOTP 管理员登录第二步：校验验证码并签发管理员态 token
func (s *UserService) AdminVerifyOTP(ctx context.Context, email, code string) (*user.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, "", apperr.BadRequest(apperr.CodeInvalidOTP, "验证码无效或已过期")
		}
		return nil, "", apperr.Storage(err)
	}
	if u.Role != user.RoleAdmin {
		return nil, "", apperr.Forbidden("仅管理员可登录后台")
	}

	if err := s.otp.Verify(ctx, email, code); err != nil {
		switch {
		case errors.Is(err, auth.ErrOTPTooManyAttempts):
			return nil, "", apperr.BadRequest(apperr.CodeInvalidOTP, "校验次数过多，请重新获取验证码")
		case errors.Is(err, auth.ErrOTPNotFound), errors.Is(err, auth.ErrOTPMismatch):
			return nil, "", apperr.BadRequest(apperr.CodeInvalidOTP, "验证码无效或已过期")
		default:
			return nil, "", apperr.Storage(err)
		}
	}

	token, err := auth.GenerateToken(s.jwt, u.ID, u.Name, u.Role, auth.AudienceAdmin)
	if err != nil {
		return nil, "", apperr.Storage(err)
	}
	zap.L().Info("admin logged in", zap.String("user_id", u.ID))
	return u, token, nil
}

// AdminResendOTP 重发验证码，旧码直接作废
func (s *UserService) AdminResendOTP(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			// 不暴露账号是否存在
			return nil
		}
		return apperr.Storage(err)
	}
	if u.Role != user.RoleAdmin {
		return nil
	}
	code, err := s.otp.Generate(ctx, email)
	if err != nil {
		return apperr.Storage(err)
	}
	if err := s.notifier.DeliverCode(ctx, email, code); err != nil {
		return apperr.Storage(err)
	}
	return nil
}

// Get 查询用户信息
func (s *UserService) Get(ctx context.Context, id string) (*user.User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, apperr.NotFound(apperr.CodeUserNotFound, "找不到用户")
		}
		return nil, apperr.Storage(err)
	}
	return u, nil
}

// CreateAdmin 创建管理员账号（cmd/create-admin 种子工具使用）
func (s *UserService) CreateAdmin(ctx context.Context, name, email, password string) (*user.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !emailPattern.MatchString(email) {
		return nil, apperr.BadRequest(apperr.CodeValidation, "邮箱格式不正确")
	}
	if len(password) < 8 {
		return nil, apperr.BadRequest(apperr.CodeValidation, "密码至少 8 位")
	}
	u := &user.User{
		ID:       keygen.NewKey(),
		Name:     name,
		Email:    email,
		Salt:     keygen.NewKey(),
		Role:     user.RoleAdmin,
		IsActive: true,
	}
	u.Password = hashPassword(password, u.Salt)
	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, user.ErrDuplicate) {
			return nil, apperr.BadRequest(apperr.CodeDuplicate, "邮箱已被注册")
		}
		return nil, apperr.Storage(err)
	}
	return u, nil
}
