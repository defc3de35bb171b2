package authpw

import (
	"context"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"beacon/api/internal/store"
)

type fakeUserStore struct {
	users  map[string]store.User // keyed by email
	byID   map[string]store.User
	resets map[string]string // token -> userID

	created      []store.User
	verifiedIDs  []string
	usedTokens   []string
	newPasswords map[string]string
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		users:        map[string]store.User{},
		byID:         map[string]store.User{},
		resets:       map[string]string{},
		newPasswords: map[string]string{},
	}
}

func (f *fakeUserStore) addUser(user store.User) {
	f.users[user.Email] = user
	f.byID[user.ID] = user
}

func (f *fakeUserStore) GetUserByEmail(_ context.Context, email string) (store.User, error) {
	user, ok := f.users[email]
	if !ok {
		return store.User{}, store.ErrNotFound
	}
	return user, nil
}

func (f *fakeUserStore) GetUserByID(_ context.Context, id string) (store.User, error) {
	user, ok := f.byID[id]
	if !ok {
		return store.User{}, store.ErrNotFound
	}
	return user, nil
}

func (f *fakeUserStore) CreateUser(_ context.Context, user store.User) error {
	f.created = append(f.created, user)
	f.addUser(user)
	return nil
}

func (f *fakeUserStore) GetUserByVerificationToken(_ context.Context, token string) (store.User, error) {
	for _, user := range f.users {
		if user.VerificationToken == token {
			if user.VerificationExpiresAt != nil && user.VerificationExpiresAt.Before(time.Now()) {
				return store.User{}, store.ErrNotFound
			}
			return user, nil
		}
	}
	return store.User{}, store.ErrNotFound
}

func (f *fakeUserStore) MarkEmailVerified(_ context.Context, userID string) error {
	f.verifiedIDs = append(f.verifiedIDs, userID)
	return nil
}

func (f *fakeUserStore) UpdatePassword(_ context.Context, userID, hash string) error {
	f.newPasswords[userID] = hash
	return nil
}

func (f *fakeUserStore) CreatePasswordReset(_ context.Context, userID, token string, _ time.Time) error {
	f.resets[token] = userID
	return nil
}

func (f *fakeUserStore) GetPasswordReset(_ context.Context, token string) (string, error) {
	userID, ok := f.resets[token]
	if !ok {
		return "", store.ErrNotFound
	}
	return userID, nil
}

func (f *fakeUserStore) MarkPasswordResetUsed(_ context.Context, token string) error {
	f.usedTokens = append(f.usedTokens, token)
	delete(f.resets, token)
	return nil
}

func hashOf(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	return string(hash)
}

func TestSignUp(t *testing.T) {
	fake := newFakeUserStore()
	svc := NewService(fake)

	resp, err := svc.SignUp(context.Background(), SignUpRequest{
		Email:       "jane@example.com",
		Password:    "correct-horse",
		DisplayName: "Jane",
	})
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if resp.UserID == "" || resp.VerificationToken == "" || !resp.RequiresEmailVerify {
		t.Fatalf("resp = %+v", resp)
	}
	if len(fake.created) != 1 {
		t.Fatalf("created %d users, want 1", len(fake.created))
	}

	created := fake.created[0]
	if created.AccountType != "unverified" {
		t.Fatalf("new account type = %q, want unverified", created.AccountType)
	}
	if created.IsEmailVerified {
		t.Fatal("new account must start unverified")
	}
	if created.PasswordHash == "correct-horse" {
		t.Fatal("password stored in the clear")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte("correct-horse")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
}

func TestSignUpRejectsShortPassword(t *testing.T) {
	svc := NewService(newFakeUserStore())
	if _, err := svc.SignUp(context.Background(), SignUpRequest{
		Email: "jane@example.com", Password: "short", DisplayName: "Jane",
	}); err == nil {
		t.Fatal("expected short password to be rejected")
	}
}

func TestSignUpRejectsDuplicateEmail(t *testing.T) {
	fake := newFakeUserStore()
	fake.addUser(store.User{ID: "usr_1", Email: "jane@example.com"})
	svc := NewService(fake)

	_, err := svc.SignUp(context.Background(), SignUpRequest{
		Email: "jane@example.com", Password: "correct-horse", DisplayName: "Jane",
	})
	if err == nil || err.Error() != "email already registered" {
		t.Fatalf("err = %v, want email already registered", err)
	}
}

func TestSignIn(t *testing.T) {
	fake := newFakeUserStore()
	fake.addUser(store.User{
		ID:              "usr_1",
		Email:           "jane@example.com",
		PasswordHash:    hashOf(t, "correct-horse"),
		IsEmailVerified: true,
	})
	svc := NewService(fake)

	resp, err := svc.SignIn(context.Background(), SignInRequest{Email: "jane@example.com", Password: "correct-horse"})
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if resp.RequiresVerify || resp.User.ID != "usr_1" {
		t.Fatalf("resp = %+v", resp)
	}
}

func TestSignInWrongPassword(t *testing.T) {
	fake := newFakeUserStore()
	fake.addUser(store.User{
		ID:              "usr_1",
		Email:           "jane@example.com",
		PasswordHash:    hashOf(t, "correct-horse"),
		IsEmailVerified: true,
	})
	svc := NewService(fake)

	if _, err := svc.SignIn(context.Background(), SignInRequest{Email: "jane@example.com", Password: "wrong"}); err == nil {
		t.Fatal("expected wrong password to fail")
	}
	if _, err := svc.SignIn(context.Background(), SignInRequest{Email: "nobody@example.com", Password: "whatever1"}); err == nil {
		t.Fatal("expected unknown email to fail")
	}
}

func TestSignInUnverifiedRequiresVerify(t *testing.T) {
	fake := newFakeUserStore()
	fake.addUser(store.User{
		ID:           "usr_1",
		Email:        "jane@example.com",
		PasswordHash: hashOf(t, "correct-horse"),
	})
	svc := NewService(fake)

	// Wrong password on an unverified account is still a credential error,
	// not a verification prompt.
	if _, err := svc.SignIn(context.Background(), SignInRequest{Email: "jane@example.com", Password: "wrong"}); err == nil {
		t.Fatal("wrong password must fail before the verification check")
	}

	resp, err := svc.SignIn(context.Background(), SignInRequest{Email: "jane@example.com", Password: "correct-horse"})
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if !resp.RequiresVerify {
		t.Fatal("unverified account must require verification")
	}
}

func TestSignInDeactivatedAccount(t *testing.T) {
	deactivated := time.Now()
	fake := newFakeUserStore()
	fake.addUser(store.User{
		ID:            "usr_1",
		Email:         "jane@example.com",
		PasswordHash:  hashOf(t, "correct-horse"),
		DeactivatedAt: &deactivated,
	})
	svc := NewService(fake)

	if _, err := svc.SignIn(context.Background(), SignInRequest{Email: "jane@example.com", Password: "correct-horse"}); err == nil {
		t.Fatal("deactivated account must not sign in")
	}
}

func TestVerifyEmail(t *testing.T) {
	expires := time.Now().Add(time.Hour)
	fake := newFakeUserStore()
	fake.addUser(store.User{
		ID:                    "usr_1",
		Email:                 "jane@example.com",
		VerificationToken:     "tok_abc",
		VerificationExpiresAt: &expires,
	})
	svc := NewService(fake)

	if err := svc.VerifyEmail(context.Background(), "tok_abc"); err != nil {
		t.Fatalf("VerifyEmail: %v", err)
	}
	if len(fake.verifiedIDs) != 1 || fake.verifiedIDs[0] != "usr_1" {
		t.Fatalf("verified = %v", fake.verifiedIDs)
	}

	if err := svc.VerifyEmail(context.Background(), "bogus"); err == nil {
		t.Fatal("unknown token must fail")
	}
	if err := svc.VerifyEmail(context.Background(), ""); err == nil {
		t.Fatal("empty token must fail")
	}
}

func TestVerifyEmailExpiredToken(t *testing.T) {
	expired := time.Now().Add(-time.Hour)
	fake := newFakeUserStore()
	fake.addUser(store.User{
		ID:                    "usr_1",
		Email:                 "jane@example.com",
		VerificationToken:     "tok_old",
		VerificationExpiresAt: &expired,
	})
	svc := NewService(fake)

	if err := svc.VerifyEmail(context.Background(), "tok_old"); err == nil {
		t.Fatal("expired token must fail")
	}
}

func TestPasswordResetFlow(t *testing.T) {
	fake := newFakeUserStore()
	fake.addUser(store.User{ID: "usr_1", Email: "jane@example.com", PasswordHash: hashOf(t, "old-password")})
	svc := NewService(fake)

	token, err := svc.RequestPasswordReset(context.Background(), "jane@example.com")
	if err != nil || token == "" {
		t.Fatalf("RequestPasswordReset = %q, %v", token, err)
	}

	if err := svc.ResetPassword(context.Background(), ResetPasswordRequest{Token: token, NewPassword: "new-password"}); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}

	hash, ok := fake.newPasswords["usr_1"]
	if !ok {
		t.Fatal("password was not updated")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte("new-password")); err != nil {
		t.Fatalf("new hash mismatch: %v", err)
	}
	if len(fake.usedTokens) != 1 || fake.usedTokens[0] != token {
		t.Fatalf("token not marked used: %v", fake.usedTokens)
	}

	// Token is single use.
	if err := svc.ResetPassword(context.Background(), ResetPasswordRequest{Token: token, NewPassword: "another-pass"}); err == nil {
		t.Fatal("used token must be rejected")
	}
}

func TestRequestPasswordResetUnknownEmailStaysQuiet(t *testing.T) {
	svc := NewService(newFakeUserStore())
	token, err := svc.RequestPasswordReset(context.Background(), "nobody@example.com")
	if err != nil {
		t.Fatalf("err = %v, unknown email must not error", err)
	}
	if token != "" {
		t.Fatal("unknown email must not produce a token")
	}
}

func TestResetPasswordValidation(t *testing.T) {
	svc := NewService(newFakeUserStore())
	if err := svc.ResetPassword(context.Background(), ResetPasswordRequest{Token: "", NewPassword: "whatever1"}); err == nil {
		t.Fatal("empty token must fail")
	}
	if err := svc.ResetPassword(context.Background(), ResetPasswordRequest{Token: "tok", NewPassword: "short"}); err == nil {
		t.Fatal("short password must fail")
	}
}

var _ UserStore = (*fakeUserStore)(nil)
