package cmsdb

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Role is a user's permission level. Enforcement is the caller's job.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
)

// UserStatus says whether an account may sign in.
type UserStatus string

const (
	UserActive   UserStatus = "active"
	UserInactive UserStatus = "inactive"
)

// User is an admin account as stored. It carries credential state; hand
// [User.Public] to anything outside the process.
type User struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Role         Role       `json:"role"`
	Status       UserStatus `json:"status"`
	PasswordHash string     `json:"passwordHash"`
	TwoFASecret  string     `json:"twoFASecret,omitempty"`
	TwoFAEnabled bool       `json:"twoFAEnabled"`
	ResetToken   string     `json:"resetToken,omitempty"`
	ResetExpires int64      `json:"resetExpires,omitempty"` // epoch ms
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// PublicUser is a User without credential material.
type PublicUser struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Role         Role       `json:"role"`
	Status       UserStatus `json:"status"`
	TwoFAEnabled bool       `json:"twoFAEnabled"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// Public strips the password hash, 2FA secret and reset token.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Role:         u.Role,
		Status:       u.Status,
		TwoFAEnabled: u.TwoFAEnabled,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func (u *User) recordID() string { return u.ID }

func (u *User) stamp(id string, now time.Time) {
	u.ID = id
	u.CreatedAt = now
	u.UpdatedAt = now
}

func (u *User) touch(now time.Time) { u.UpdatedAt = now }

// NewUser is the input of [DB.CreateUser]. Password is hashed before
// anything is stored.
type NewUser struct {
	Name     string
	Email    string
	Password string
	Role     Role
	Status   UserStatus
}

// credentialKeys can only change through the credential operations.
var credentialKeys = []string{"passwordHash", "twoFASecret", "twoFAEnabled", "resetToken", "resetExpires"}

// GetUsers returns all users, credential fields included.
func (db *DB) GetUsers(ctx context.Context) ([]User, error) {
	users, err := list[User](ctx, db, Users)

	return users, withContext(err, "get_users", Users, "")
}

// GetUserByID returns the user with id or [ErrNotFound].
func (db *DB) GetUserByID(ctx context.Context, id string) (User, error) {
	u, err := getByID[User](ctx, db, Users, id)

	return u, withContext(err, "get_user", Users, id)
}

// GetUserByEmail looks up a user by email, ignoring case.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (User, error) {
	users, err := list[User](ctx, db, Users)
	if err != nil {
		return User{}, withContext(err, "get_user_by_email", Users, email)
	}

	i := indexOfEmail(users, email)
	if i < 0 {
		return User{}, withContext(ErrNotFound, "get_user_by_email", Users, email)
	}

	return users[i], nil
}

// CreateUser stores a new user. Email must be unique ignoring case. Role
// defaults to viewer and status to active.
func (db *DB) CreateUser(ctx context.Context, in NewUser) (User, error) {
	u, err := db.newUser(in)
	if err != nil {
		return User{}, withContext(err, "create_user", Users, "")
	}

	out, err := insert(ctx, db, Users, u, func(all []User, rec *User) error {
		return checkEmailUnique(all, -1, rec.Email)
	})

	return out, withContext(err, "create_user", Users, out.ID)
}

func (db *DB) newUser(in NewUser) (User, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" {
		return User{}, fmt.Errorf("%w: email is required", ErrValidation)
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return User{}, err
	}

	u := User{
		Name:         in.Name,
		Email:        email,
		Role:         in.Role,
		Status:       in.Status,
		PasswordHash: hash,
	}

	if u.Role == "" {
		u.Role = RoleViewer
	}

	if u.Status == "" {
		u.Status = UserActive
	}

	return u, nil
}

// UpdateUser merges patch into the user with id. A "password" key is hashed
// into passwordHash; other credential keys are ignored.
func (db *DB) UpdateUser(ctx context.Context, id string, patch Patch) (User, error) {
	var hash string

	if v, ok := patch["password"]; ok {
		pw, isString := v.(string)
		if !isString {
			return User{}, withContext(fmt.Errorf("%w: password must be a string", ErrValidation), "update_user", Users, id)
		}

		var err error

		hash, err = HashPassword(pw)
		if err != nil {
			return User{}, withContext(err, "update_user", Users, id)
		}
	}

	clean := patch.without(credentialKeys...).without("password")

	out, err := modify[User](ctx, db, Users, id, func(u *User) error {
		merged, err := mergePatch(*u, clean, immutableKeys...)
		if err != nil {
			return err
		}

		if hash != "" {
			merged.PasswordHash = hash
		}

		*u = merged

		return nil
	}, func(all []User, i int) error {
		if strings.TrimSpace(all[i].Email) == "" {
			return fmt.Errorf("%w: email is required", ErrValidation)
		}

		return checkEmailUnique(all, i, all[i].Email)
	})

	return out, withContext(err, "update_user", Users, id)
}

// DeleteUser removes the user with id.
func (db *DB) DeleteUser(ctx context.Context, id string) error {
	return withContext(remove[User](ctx, db, Users, id), "delete_user", Users, id)
}

func indexOfEmail(users []User, email string) int {
	email = strings.TrimSpace(email)
	if email == "" {
		return -1
	}

	for i := range users {
		if strings.EqualFold(users[i].Email, email) {
			return i
		}
	}

	return -1
}

func checkEmailUnique(all []User, self int, email string) error {
	for i := range all {
		if i != self && strings.EqualFold(all[i].Email, strings.TrimSpace(email)) {
			return fmt.Errorf("%w: email %q is used by user %s", ErrConflict, email, all[i].ID)
		}
	}

	return nil
}
