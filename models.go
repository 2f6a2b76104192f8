package accounts

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the user model
type User struct {
	bun.BaseModel        `bun:"table:users,alias:usr"`
	ID                   uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Fullname             string     `bun:"fullname,notnull" json:"fullname,omitempty"`
	Email                string     `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash         string     `bun:"password_hash,notnull" json:"-"`
	ResetPasswordToken   *string    `bun:"reset_password_token,nullzero" json:"-"`
	ResetPasswordExpires *time.Time `bun:"reset_password_expires,nullzero" json:"-"`
	CreatedAt            *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt            *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt            *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// PublicUser is the serializable view of a user, safe to hand to clients.
type PublicUser struct {
	ID       uuid.UUID `json:"id"`
	Email    string    `json:"email"`
	Fullname string    `json:"fullname"`
}

// Public returns the client-facing view of the user record.
func (u *User) Public() PublicUser {
	if u == nil {
		return PublicUser{}
	}
	return PublicUser{
		ID:       u.ID,
		Email:    u.Email,
		Fullname: u.Fullname,
	}
}

// HasActiveResetToken reports whether the record carries a reset token
// that has not expired at the given instant.
func (u *User) HasActiveResetToken(now time.Time) bool {
	if u == nil || u.ResetPasswordToken == nil || *u.ResetPasswordToken == "" {
		return false
	}
	if u.ResetPasswordExpires == nil {
		return false
	}
	return now.Before(*u.ResetPasswordExpires)
}

// NormalizeEmail lowercases and trims an email identifier. Emails are
// stored and compared in this canonical form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
