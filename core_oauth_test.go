package slip

import (
	"context"
	"errors"
	"testing"
)

func TestOAuthLoginProvisionsNewUser(t *testing.T) {
	core := newTestCore(t)
	ctx := context.Background()

	var order []string
	core.Hooks().UserCreated.On(func(User) { order = append(order, "user") })
	core.Hooks().OAuthAccountCreated.On(func(OAuthAccount) { order = append(order, "account") })
	core.Hooks().SessionCreated.On(func(Session) { order = append(order, "session") })

	userID, session, err := core.OAuthLogin(ctx, OAuthParams{
		ProviderID:     "github",
		ProviderUserID: "gh-1",
		Email:          "A@Test.com",
	})
	if err != nil {
		t.Fatalf("oauth login: %v", err)
	}
	if session == nil || session.UserID != userID {
		t.Fatalf("want session for %s, got %+v", userID, session)
	}

	if len(order) != 3 || order[0] != "user" || order[1] != "account" || order[2] != "session" {
		t.Fatalf("want hooks in user, account, session order, got %v", order)
	}

	user, err := core.users.FindByEmail(ctx, "a@test.com")
	if err != nil || user == nil {
		t.Fatalf("find user: %+v, %v", user, err)
	}
	if !user.EmailVerified {
		t.Fatal("want provider-asserted email marked verified")
	}
	if user.PasswordHash != "" {
		t.Fatal("want no password hash on an oauth-only account")
	}
}

func TestOAuthLoginExistingLinkIsLoginOnly(t *testing.T) {
	core := newTestCore(t)
	ctx := context.Background()

	params := OAuthParams{ProviderID: "github", ProviderUserID: "gh-1", Email: "a@test.com"}
	firstID, _, err := core.OAuthLogin(ctx, params)
	if err != nil {
		t.Fatalf("first oauth login: %v", err)
	}

	var users, accounts int
	core.Hooks().UserCreated.On(func(User) { users++ })
	core.Hooks().OAuthAccountCreated.On(func(OAuthAccount) { accounts++ })

	secondID, session, err := core.OAuthLogin(ctx, params)
	if err != nil {
		t.Fatalf("second oauth login: %v", err)
	}
	if secondID != firstID {
		t.Fatalf("logged in as %s, want %s", secondID, firstID)
	}
	if session == nil {
		t.Fatal("want a fresh session")
	}
	if users != 0 || accounts != 0 {
		t.Fatalf("repeat login created %d users and %d accounts", users, accounts)
	}
}

func TestOAuthLoginDifferentProviderConflicts(t *testing.T) {
	core := newTestCore(t)
	ctx := context.Background()

	if _, _, err := core.OAuthLogin(ctx, OAuthParams{
		ProviderID:     "github",
		ProviderUserID: "gh-1",
		Email:          "a@test.com",
	}); err != nil {
		t.Fatalf("seed oauth login: %v", err)
	}

	_, _, err := core.OAuthLogin(ctx, OAuthParams{
		ProviderID:     "gitlab",
		ProviderUserID: "gl-1",
		Email:          "a@test.com",
	})
	if !errors.Is(err, ErrOAuthProviderConflict) {
		t.Fatalf("want ErrOAuthProviderConflict, got %v", err)
	}
}

func TestOAuthLoginPairBoundToOtherUserConflicts(t *testing.T) {
	core := newTestCore(t)
	ctx := context.Background()

	if _, _, err := core.OAuthLogin(ctx, OAuthParams{
		ProviderID:     "github",
		ProviderUserID: "gh-1",
		Email:          "a@test.com",
	}); err != nil {
		t.Fatalf("seed oauth login: %v", err)
	}
	if _, _, err := core.OAuthLogin(ctx, OAuthParams{
		ProviderID:     "github",
		ProviderUserID: "gh-2",
		Email:          "b@test.com",
	}); err != nil {
		t.Fatalf("seed second user: %v", err)
	}

	// b's email presented with a's provider pair.
	_, _, err := core.OAuthLogin(ctx, OAuthParams{
		ProviderID:     "github",
		ProviderUserID: "gh-1",
		Email:          "b@test.com",
	})
	if !errors.Is(err, ErrOAuthProviderConflict) {
		t.Fatalf("want ErrOAuthProviderConflict, got %v", err)
	}
}

func TestOAuthLoginUnlinkedUserIsIntegrityFault(t *testing.T) {
	core := newTestCore(t)
	ctx := context.Background()

	mustRegister(t, core, "a@test.com", "hunter22")

	_, _, err := core.OAuthLogin(ctx, OAuthParams{
		ProviderID:     "github",
		ProviderUserID: "gh-1",
		Email:          "a@test.com",
	})
	if !errors.Is(err, ErrOAuthAccountNotFound) {
		t.Fatalf("want ErrOAuthAccountNotFound, got %v", err)
	}
}

func TestOAuthLoginRejectsIncompleteParams(t *testing.T) {
	core := newTestCore(t)
	ctx := context.Background()

	cases := []OAuthParams{
		{ProviderUserID: "gh-1", Email: "a@test.com"},
		{ProviderID: "github", Email: "a@test.com"},
		{ProviderID: "github", ProviderUserID: "gh-1"},
	}
	for _, params := range cases {
		if _, _, err := core.OAuthLogin(ctx, params); err == nil {
			t.Fatalf("want %+v rejected", params)
		}
	}
}
