package cmsdb

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"
)

const resetTokenBytes = 32

// Password reset moves a user through none -> issued -> consumed. An issued
// token whose resetExpires has passed is expired without being removed; the
// next GenerateResetToken replaces it.

// GenerateResetToken issues a reset token for the user with email and returns
// it for out-of-band delivery. Any previous token is replaced.
func (db *DB) GenerateResetToken(ctx context.Context, email string) (string, error) {
	token, err := newResetToken()
	if err != nil {
		return "", withContext(err, "generate_reset_token", Users, email)
	}

	err = mutate(ctx, db, Users, func(all []User) ([]User, bool, error) {
		i := indexOfEmail(all, email)
		if i < 0 {
			return nil, false, ErrNotFound
		}

		now := db.now()
		all[i].ResetToken = token
		all[i].ResetExpires = now.Add(db.cfg.ResetTokenTTL).UnixMilli()
		all[i].touch(now)

		return all, true, nil
	})
	if err != nil {
		return "", withContext(err, "generate_reset_token", Users, email)
	}

	return token, nil
}

// VerifyResetToken returns the user holding token if it has not expired. It
// does not consume the token. Failure is [ErrInvalidToken].
func (db *DB) VerifyResetToken(ctx context.Context, token string) (User, error) {
	users, err := list[User](ctx, db, Users)
	if err != nil {
		return User{}, withContext(err, "verify_reset_token", Users, "")
	}

	i := db.indexOfValidToken(users, token)
	if i < 0 {
		return User{}, withContext(ErrInvalidToken, "verify_reset_token", Users, "")
	}

	return users[i], nil
}

// CompleteReset sets a new password for the holder of token and consumes the
// token. The token is checked again under the collection lock.
func (db *DB) CompleteReset(ctx context.Context, token, newPassword string) (User, error) {
	hash, err := HashPassword(newPassword)
	if err != nil {
		return User{}, withContext(err, "complete_reset", Users, "")
	}

	var out User

	err = mutate(ctx, db, Users, func(all []User) ([]User, bool, error) {
		i := db.indexOfValidToken(all, token)
		if i < 0 {
			return nil, false, ErrInvalidToken
		}

		all[i].PasswordHash = hash
		all[i].ResetToken = ""
		all[i].ResetExpires = 0
		all[i].touch(db.now())
		out = all[i]

		return all, true, nil
	})
	if err != nil {
		return User{}, withContext(err, "complete_reset", Users, out.ID)
	}

	return out, nil
}

// SetTwoFASecret stores a pending 2FA secret for the user and disables 2FA
// until [DB.ToggleTwoFA] confirms it. Code verification happens elsewhere.
func (db *DB) SetTwoFASecret(ctx context.Context, userID, secret string) (User, error) {
	if strings.TrimSpace(secret) == "" {
		return User{}, withContext(fmt.Errorf("%w: secret is empty", ErrValidation), "set_2fa_secret", Users, userID)
	}

	u, err := modify[User](ctx, db, Users, userID, func(u *User) error {
		u.TwoFASecret = secret
		u.TwoFAEnabled = false

		return nil
	}, nil)

	return u, withContext(err, "set_2fa_secret", Users, userID)
}

// ToggleTwoFA sets the 2FA flag. Enabling needs a stored secret. Disabling
// keeps the secret, so a later enable does not require a new enrollment.
func (db *DB) ToggleTwoFA(ctx context.Context, userID string, enabled bool) (User, error) {
	u, err := modify[User](ctx, db, Users, userID, func(u *User) error {
		if enabled && u.TwoFASecret == "" {
			return fmt.Errorf("%w: no 2FA secret enrolled", ErrValidation)
		}

		u.TwoFAEnabled = enabled

		return nil
	}, nil)

	return u, withContext(err, "toggle_2fa", Users, userID)
}

func (db *DB) indexOfValidToken(users []User, token string) int {
	if token == "" {
		return -1
	}

	now := db.now().UnixMilli()

	for i := range users {
		if subtle.ConstantTimeCompare([]byte(users[i].ResetToken), []byte(token)) == 1 {
			if users[i].ResetExpires > now {
				return i
			}

			return -1
		}
	}

	return -1
}

func newResetToken() (string, error) {
	b := make([]byte, resetTokenBytes)

	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("generate reset token: %w", err)
	}

	return hex.EncodeToString(b), nil
}
