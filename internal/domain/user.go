package domain

import (
	"context"
	"time"
)

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

func (r Role) Valid() bool { return r == RoleUser || r == RoleAdmin }

type UserStatus string

const (
	StatusActive  UserStatus = "ACTIVE"
	StatusBlocked UserStatus = "BLOCKED"
	StatusDeleted UserStatus = "DELETED"
)

func (s UserStatus) Valid() bool {
	return s == StatusActive || s == StatusBlocked || s == StatusDeleted
}

type User struct {
	ID           int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Email        string     `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash string     `gorm:"size:255;not null;default:''" json:"-"`
	Nickname     string     `gorm:"size:50;not null" json:"nickname"`
	Role         Role       `gorm:"size:16;not null;index" json:"role"`
	Status       UserStatus `gorm:"size:16;not null;index" json:"status"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	DeletedAt    *time.Time `gorm:"index" json:"deletedAt,omitempty"`
}

func (User) TableName() string { return "users" }

func (u *User) IsDeleted() bool { return u.DeletedAt != nil }

// Locked 被封禁或已注销的账号不能再签发令牌
func (u *User) Locked() bool {
	return u.Status == StatusBlocked || u.Status == StatusDeleted
}

type UserFilter struct {
	Query          string
	IncludeDeleted bool
	PageQuery
}

// UserRepository 查询方法都包含软删除的行，由调用方决定语义
type UserRepository interface {
	Create(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id int64) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context, f UserFilter) ([]User, int64, error)
	Save(ctx context.Context, u *User) error
}
