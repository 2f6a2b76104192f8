package accounts

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ResetUserPasswordSQL installs the new password hash and consumes the
// reset token in a single statement. The WHERE clause matches the token
// itself, so a redeem that lost the race finds zero rows instead of
// overwriting a concurrent one. The ORM cannot express the multi-column
// NULL assignment with RETURNING, so we keep it raw.
var ResetUserPasswordSQL = `UPDATE "users" AS "usr"
SET
	"password_hash" = ?,
	"reset_password_token" = NULL,
	"reset_password_expires" = NULL,
	"updated_at" = CURRENT_TIMESTAMP
WHERE
	"usr"."deleted_at" IS NULL
AND (
	"usr"."id" = ?
)
AND (
	"usr"."reset_password_token" = ?
) RETURNING *;`

var SetResetTokenSQL = `UPDATE "users" AS "usr"
SET
	"reset_password_token" = ?,
	"reset_password_expires" = ?,
	"updated_at" = CURRENT_TIMESTAMP
WHERE
	"usr"."deleted_at" IS NULL
AND (
	"usr"."id" = ?
) RETURNING *;`

var SoftDeleteUserSQL = `UPDATE "users" AS "usr"
SET
	"deleted_at" = CURRENT_TIMESTAMP
WHERE
	"usr"."deleted_at" IS NULL
AND (
	"usr"."id" = ?
) RETURNING *;`

type Users interface {
	repository.Repository[*User]

	Register(ctx context.Context, user *User) (*User, error)
	RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error)
	Create(ctx context.Context, record *User, criteria ...repository.InsertCriteria) (*User, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *User, criteria ...repository.InsertCriteria) (*User, error)

	GetByEmail(ctx context.Context, email string, criteria ...repository.SelectCriteria) (*User, error)
	GetByEmailTx(ctx context.Context, tx bun.IDB, email string, criteria ...repository.SelectCriteria) (*User, error)
	GetByResetToken(ctx context.Context, token string) (*User, error)
	GetByResetTokenTx(ctx context.Context, tx bun.IDB, token string) (*User, error)

	SetResetToken(ctx context.Context, id uuid.UUID, token string, expires time.Time) (*User, error)
	SetResetTokenTx(ctx context.Context, tx bun.IDB, id uuid.UUID, token string, expires time.Time) (*User, error)
	ResetPassword(ctx context.Context, id uuid.UUID, token, passwordHash string) (*User, error)
	ResetPasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, token, passwordHash string) (*User, error)

	SoftDelete(ctx context.Context, id uuid.UUID) (*User, error)
	SoftDeleteTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*User, error)
}

type users struct {
	repository.Repository[*User]
	db *bun.DB
}

var (
	_ Users                        = (*users)(nil)
	_ repository.Repository[*User] = (*users)(nil)
)

func NewUsersRepository(db *bun.DB) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &users{
		Repository: repo,
		db:         db,
	}
}

func (a *users) Register(ctx context.Context, user *User) (*User, error) {
	return a.RegisterTx(ctx, a.db, user)
}

func (a *users) RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error) {
	return a.CreateTx(ctx, tx, user)
}

func (a *users) Create(ctx context.Context, record *User, criteria ...repository.InsertCriteria) (*User, error) {
	return a.CreateTx(ctx, a.db, record, criteria...)
}

func (a *users) CreateTx(ctx context.Context, tx bun.IDB, record *User, criteria ...repository.InsertCriteria) (*User, error) {
	prepareUserDefaults(record)
	return a.Repository.CreateTx(ctx, tx, record, criteria...)
}

func (a *users) GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (*User, error) {
	return a.GetByIdentifierTx(ctx, a.db, identifier, criteria...)
}

func (a *users) GetByIdentifierTx(ctx context.Context, tx bun.IDB, identifier string, criteria ...repository.SelectCriteria) (*User, error) {
	for _, opt := range resolveUserIdentifier(identifier) {
		record := &User{}
		q := tx.NewSelect().Model(record)

		for _, c := range criteria {
			q.Apply(c)
		}

		err := q.
			Where(fmt.Sprintf("?TableAlias.%s = ?", opt.column), opt.value).
			Limit(1).
			Scan(ctx)

		if err != nil {
			if repository.IsRecordNotFound(err) {
				continue
			}
			return nil, err
		}

		return record, nil
	}

	return nil, repository.NewRecordNotFound().
		WithMetadata(map[string]any{
			"identifier": identifier,
		})
}

func (a *users) GetByEmail(ctx context.Context, email string, criteria ...repository.SelectCriteria) (*User, error) {
	return a.GetByEmailTx(ctx, a.db, email, criteria...)
}

func (a *users) GetByEmailTx(ctx context.Context, tx bun.IDB, email string, criteria ...repository.SelectCriteria) (*User, error) {
	record := &User{}
	q := tx.NewSelect().Model(record)

	for _, c := range criteria {
		q.Apply(c)
	}

	err := q.
		Where("lower(?TableAlias.email) = ?", NormalizeEmail(email)).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"email": NormalizeEmail(email),
				})
		}
		return nil, err
	}

	return record, nil
}

func (a *users) GetByResetToken(ctx context.Context, token string) (*User, error) {
	return a.GetByResetTokenTx(ctx, a.db, token)
}

func (a *users) GetByResetTokenTx(ctx context.Context, tx bun.IDB, token string) (*User, error) {
	if strings.TrimSpace(token) == "" {
		return nil, repository.NewRecordNotFound()
	}

	record := &User{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.reset_password_token = ?", token).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound()
		}
		return nil, err
	}

	return record, nil
}

func (a *users) SetResetToken(ctx context.Context, id uuid.UUID, token string, expires time.Time) (*User, error) {
	return a.SetResetTokenTx(ctx, a.db, id, token, expires)
}

func (a *users) SetResetTokenTx(ctx context.Context, tx bun.IDB, id uuid.UUID, token string, expires time.Time) (*User, error) {
	res, err := a.Repository.RawTx(ctx, tx, SetResetTokenSQL, token, expires, id.String())
	if err != nil {
		return nil, err
	}
	return firstOrNotFound(res, id)
}

func (a *users) ResetPassword(ctx context.Context, id uuid.UUID, token, passwordHash string) (*User, error) {
	return a.ResetPasswordTx(ctx, a.db, id, token, passwordHash)
}

func (a *users) ResetPasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, token, passwordHash string) (*User, error) {
	res, err := a.Repository.RawTx(ctx, tx, ResetUserPasswordSQL, passwordHash, id.String(), token)
	if err != nil {
		return nil, err
	}
	return firstOrNotFound(res, id)
}

func (a *users) SoftDelete(ctx context.Context, id uuid.UUID) (*User, error) {
	return a.SoftDeleteTx(ctx, a.db, id)
}

func (a *users) SoftDeleteTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*User, error) {
	res, err := a.Repository.RawTx(ctx, tx, SoftDeleteUserSQL, id.String())
	if err != nil {
		return nil, err
	}
	return firstOrNotFound(res, id)
}

func firstOrNotFound(res []*User, id uuid.UUID) (*User, error) {
	if len(res) == 0 {
		return nil, repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"id": id.String(),
			})
	}
	return res[0], nil
}

func prepareUserDefaults(record *User) {
	if record == nil {
		return
	}

	record.Email = NormalizeEmail(record.Email)

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}

type identifierOption struct {
	column string
	value  string
}

func resolveUserIdentifier(identifier string) []identifierOption {
	trimmed := strings.TrimSpace(identifier)
	if trimmed == "" {
		return nil
	}

	options := make([]identifierOption, 0, 2)

	if isUUID(trimmed) {
		options = append(options, identifierOption{
			column: "id",
			value:  trimmed,
		})
	}

	if isEmail(trimmed) {
		options = append(options, identifierOption{
			column: "email",
			value:  NormalizeEmail(trimmed),
		})
	}

	return options
}

func isEmail(email string) bool {
	_, err := mail.ParseAddress(email)
	return err == nil
}

func isUUID(identifier string) bool {
	_, err := uuid.Parse(identifier)
	return err == nil
}
