package cmsdb_test

import (
	"testing"
	"time"

	"github.com/calvinalkan/sitecms/internal/cmsdb"
)

func Test_VerifyResetToken_Succeeds_Then_Fails_When_Expired(t *testing.T) {
	t.Parallel()

	db := openTestDB(t, cmsdb.Config{})
	u := createUser(t, db, "ada@example.com")

	token, err := db.GenerateResetToken(t.Context(), "ADA@example.com")
	if err != nil {
		t.Fatalf("GenerateResetToken: %v", err)
	}

	if len(token) != 64 {
		t.Fatalf("token length=%d, want 64 hex chars", len(token))
	}

	got, err := db.VerifyResetToken(t.Context(), token)
	if err != nil {
		t.Fatalf("VerifyResetToken: %v", err)
	}

	if got.ID != u.ID {
		t.Fatalf("user=%q, want %q", got.ID, u.ID)
	}

	db.clock.Advance(time.Hour)

	_, err = db.VerifyResetToken(t.Context(), token)
	requireErrorIs(t, err, cmsdb.ErrInvalidToken)

	// Lazily expired: still on disk.
	db.InvalidateAll()

	stored, err := db.GetUserByID(t.Context(), u.ID)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}

	if stored.ResetToken != token {
		t.Fatal("expired token was removed")
	}

	_, err = db.CompleteReset(t.Context(), token, "new")
	requireErrorIs(t, err, cmsdb.ErrInvalidToken)
}

func Test_VerifyResetToken_Does_Not_Consume_Token(t *testing.T) {
	t.Parallel()

	db := openTestDB(t, cmsdb.Config{})
	createUser(t, db, "ada@example.com")

	token, err := db.GenerateResetToken(t.Context(), "ada@example.com")
	if err != nil {
		t.Fatalf("GenerateResetToken: %v", err)
	}

	for range 2 {
		_, err = db.VerifyResetToken(t.Context(), token)
		if err != nil {
			t.Fatalf("VerifyResetToken: %v", err)
		}
	}
}

func Test_CompleteReset_Consumes_Token_When_Successful(t *testing.T) {
	t.Parallel()

	db := openTestDB(t, cmsdb.Config{})
	createUser(t, db, "ada@example.com")

	token, err := db.GenerateResetToken(t.Context(), "ada@example.com")
	if err != nil {
		t.Fatalf("GenerateResetToken: %v", err)
	}

	u, err := db.CompleteReset(t.Context(), token, "brand new")
	if err != nil {
		t.Fatalf("CompleteReset: %v", err)
	}

	if !cmsdb.VerifyPassword(u.PasswordHash, "brand new") {
		t.Fatal("password not updated")
	}

	if u.ResetToken != "" || u.ResetExpires != 0 {
		t.Fatalf("token not cleared: %+v", u)
	}

	_, err = db.VerifyResetToken(t.Context(), token)
	requireErrorIs(t, err, cmsdb.ErrInvalidToken)

	_, err = db.CompleteReset(t.Context(), token, "again")
	requireErrorIs(t, err, cmsdb.ErrInvalidToken)
}

func Test_GenerateResetToken_Returns_ErrNotFound_When_Email_Unknown(t *testing.T) {
	t.Parallel()

	db := openTestDB(t, cmsdb.Config{})

	token, err := db.GenerateResetToken(t.Context(), "ghost@example.com")
	requireErrorIs(t, err, cmsdb.ErrNotFound)

	if token != "" {
		t.Fatalf("token=%q, want empty", token)
	}
}

func Test_GenerateResetToken_Replaces_Previous_Token(t *testing.T) {
	t.Parallel()

	db := openTestDB(t, cmsdb.Config{ResetTokenTTL: 10 * time.Minute})
	createUser(t, db, "ada@example.com")

	first, err := db.GenerateResetToken(t.Context(), "ada@example.com")
	if err != nil {
		t.Fatalf("GenerateResetToken: %v", err)
	}

	second, err := db.GenerateResetToken(t.Context(), "ada@example.com")
	if err != nil {
		t.Fatalf("GenerateResetToken: %v", err)
	}

	_, err = db.VerifyResetToken(t.Context(), first)
	requireErrorIs(t, err, cmsdb.ErrInvalidToken)

	u, err := db.VerifyResetToken(t.Context(), second)
	if err != nil {
		t.Fatalf("VerifyResetToken: %v", err)
	}

	want := db.clock.Now().Add(10 * time.Minute).UnixMilli()
	if u.ResetExpires != want {
		t.Fatalf("resetExpires=%d, want %d", u.ResetExpires, want)
	}
}

func Test_VerifyResetToken_Fails_When_Token_Empty(t *testing.T) {
	t.Parallel()

	db := openTestDB(t, cmsdb.Config{})
	createUser(t, db, "ada@example.com")

	_, err := db.VerifyResetToken(t.Context(), "")
	requireErrorIs(t, err, cmsdb.ErrInvalidToken)
}

func Test_VerifyResetToken_Fails_When_Token_Differs_Or_Is_Prefix(t *testing.T) {
	t.Parallel()

	db := openTestDB(t, cmsdb.Config{})
	createUser(t, db, "ada@example.com")

	token, err := db.GenerateResetToken(t.Context(), "ada@example.com")
	if err != nil {
		t.Fatalf("GenerateResetToken: %v", err)
	}

	flipped := []byte(token)
	if flipped[len(flipped)-1] == '0' {
		flipped[len(flipped)-1] = '1'
	} else {
		flipped[len(flipped)-1] = '0'
	}

	for _, candidate := range []string{string(flipped), token[:len(token)-1], token + "0"} {
		_, err := db.VerifyResetToken(t.Context(), candidate)
		requireErrorIs(t, err, cmsdb.ErrInvalidToken)
	}

	_, err = db.VerifyResetToken(t.Context(), token)
	if err != nil {
		t.Fatalf("VerifyResetToken(original): %v", err)
	}
}

func Test_TwoFA_Moves_Disabled_Pending_Enabled_And_Keeps_Secret_When_Disabled(t *testing.T) {
	t.Parallel()

	db := openTestDB(t, cmsdb.Config{})
	u := createUser(t, db, "ada@example.com")

	_, err := db.ToggleTwoFA(t.Context(), u.ID, true)
	requireErrorIs(t, err, cmsdb.ErrValidation)

	pending, err := db.SetTwoFASecret(t.Context(), u.ID, "JBSWY3DPEHPK3PXP")
	if err != nil {
		t.Fatalf("SetTwoFASecret: %v", err)
	}

	if pending.TwoFAEnabled || pending.TwoFASecret != "JBSWY3DPEHPK3PXP" {
		t.Fatalf("after SetTwoFASecret: enabled=%v secret=%q", pending.TwoFAEnabled, pending.TwoFASecret)
	}

	enabled, err := db.ToggleTwoFA(t.Context(), u.ID, true)
	if err != nil {
		t.Fatalf("ToggleTwoFA(true): %v", err)
	}

	if !enabled.TwoFAEnabled {
		t.Fatal("2FA not enabled")
	}

	// A new secret puts the account back into the pending state.
	repending, err := db.SetTwoFASecret(t.Context(), u.ID, "NEWSECRET")
	if err != nil {
		t.Fatalf("SetTwoFASecret: %v", err)
	}

	if repending.TwoFAEnabled {
		t.Fatal("SetTwoFASecret left 2FA enabled")
	}

	disabled, err := db.ToggleTwoFA(t.Context(), u.ID, false)
	if err != nil {
		t.Fatalf("ToggleTwoFA(false): %v", err)
	}

	if disabled.TwoFAEnabled || disabled.TwoFASecret != "NEWSECRET" {
		t.Fatalf("after disable: enabled=%v secret=%q", disabled.TwoFAEnabled, disabled.TwoFASecret)
	}

	_, err = db.ToggleTwoFA(t.Context(), "missing", false)
	requireErrorIs(t, err, cmsdb.ErrNotFound)
}
