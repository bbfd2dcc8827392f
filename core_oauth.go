package slip

import (
	"context"
	"errors"

	"github.com/slipauth/slip/store"
)

// OAuthLogin signs a provider-asserted identity in.
//
// When no account exists for the asserted email, it provisions one: user,
// provider linkage, and session are created in that order, each hook fired
// after its verified write. When the provider pair is already linked to the
// user, only a fresh session is created. An email already linked to a
// different provider, or a provider pair bound to a different user, fails
// with [ErrOAuthProviderConflict]. A user row with no linkage at all is an
// integrity fault reported as [ErrOAuthAccountNotFound].
func (c *Core) OAuthLogin(ctx context.Context, params OAuthParams) (string, *Session, error) {
	if err := c.checkReady(); err != nil {
		return "", nil, err
	}

	email := normalizeEmail(params.Email)
	userID, session, err := c.oauthLogin(ctx, params.ProviderID, params.ProviderUserID, email)

	c.emitAudit(ctx, AuditEvent{
		EventType: eventOAuthLogin,
		UserID:    userID,
		Email:     email,
		Metadata:  map[string]string{"provider": params.ProviderID},
	}, err)
	if err != nil {
		return "", nil, err
	}
	return userID, session, nil
}

func (c *Core) oauthLogin(ctx context.Context, providerID, providerUserID, email string) (string, *Session, error) {
	if providerID == "" || providerUserID == "" || email == "" {
		return "", nil, errors.New("provider id, provider user id, and email are required")
	}

	user, err := c.users.FindByEmail(ctx, email)
	if err != nil {
		return "", nil, err
	}
	if user == nil {
		user, err = c.provisionOAuthUser(ctx, providerID, providerUserID, email)
		if err != nil {
			return "", nil, err
		}
		if user != nil {
			session, err := c.createSession(ctx, user.ID)
			if err != nil {
				return "", nil, err
			}
			return user.ID, session, nil
		}

		// Lost a provisioning race; the email now resolves to a user.
		user, err = c.users.FindByEmail(ctx, email)
		if err != nil {
			return "", nil, err
		}
		if user == nil {
			return "", nil, ErrOAuthAccountNotFound
		}
	}

	account, err := c.oauth.Find(ctx, providerID, providerUserID)
	if err != nil {
		return "", nil, err
	}
	switch {
	case account != nil && account.UserID == user.ID:
		session, err := c.createSession(ctx, user.ID)
		if err != nil {
			return "", nil, err
		}
		return user.ID, session, nil
	case account != nil:
		// The provider pair belongs to someone else.
		return "", nil, ErrOAuthProviderConflict
	}

	linked, err := c.oauth.FindByUser(ctx, user.ID)
	if err != nil {
		return "", nil, err
	}
	if len(linked) > 0 {
		return "", nil, ErrOAuthProviderConflict
	}

	return "", nil, ErrOAuthAccountNotFound
}

// provisionOAuthUser creates the user row and its provider linkage.
// A nil, nil return means another request created the user first.
func (c *Core) provisionOAuthUser(ctx context.Context, providerID, providerUserID, email string) (*User, error) {
	userID, err := c.ids.UserID()
	if err != nil {
		return nil, err
	}

	nowMs := c.nowMillis()
	user := &store.User{
		ID:    userID,
		Email: email,
		// The provider vouched for the address.
		EmailVerified: true,
		CreatedAt:     nowMs,
		UpdatedAt:     nowMs,
	}
	if err := c.users.Insert(ctx, user); err != nil {
		if errors.Is(err, store.ErrUniqueConflict) {
			return nil, nil
		}
		return nil, err
	}

	account := &store.OAuthAccount{
		ProviderID:     providerID,
		ProviderUserID: providerUserID,
		UserID:         userID,
	}
	if err := c.oauth.Insert(ctx, account); err != nil {
		if errors.Is(err, store.ErrUniqueConflict) {
			return nil, ErrOAuthProviderConflict
		}
		return nil, err
	}

	return user, nil
}
