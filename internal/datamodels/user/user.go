package user

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound 用户不存在
	ErrNotFound = errors.New("user not found")
	// ErrDuplicate 邮箱或手机号已被占用
	ErrDuplicate = errors.New("duplicate email or phone")
)

// 角色枚举
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// 连续登录失败 5 次后锁定 2 小时
const (
	MaxLoginAttempts = 5
	LockDuration     = 2 * time.Hour
)

// User 用户模型，邮箱/手机号至少存在一个且各自唯一
type User struct {
	ID            string     `gorm:"primaryKey;size:24" json:"id"`
	Name          string     `gorm:"size:100;not null" json:"name"`
	Email         string     `gorm:"size:128;uniqueIndex:idx_users_email,where:email != ''" json:"email,omitempty"`
	Phone         string     `gorm:"size:20;uniqueIndex:idx_users_phone,where:phone != ''" json:"phone,omitempty"`
	Password      string     `gorm:"size:255;not null" json:"-"`
	Salt          string     `gorm:"size:64" json:"-"`
	Role          string     `gorm:"size:16;index;default:user" json:"role"`
	LoginAttempts int        `gorm:"default:0" json:"-"`
	LockUntil     *time.Time `json:"-"`
	IsActive      bool       `gorm:"default:true" json:"isActive"`
	LastLogin     *time.Time `json:"lastLogin,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// IsLocked 当前是否处于锁定期
func (u *User) IsLocked(now time.Time) bool {
	return u.LockUntil != nil && u.LockUntil.After(now)
}

// Repository 用户仓储接口
type Repository interface {
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByPhone(ctx context.Context, phone string) (*User, error)
	Create(ctx context.Context, u *User) error
	Update(ctx context.Context, u *User) error
	CountByRole(ctx context.Context, role string) (int64, error)
}
