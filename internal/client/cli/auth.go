package cli

import (
	"context"
	"errors"
	"os"

	"github.com/coachsync/coachsync/internal/client/client"
	"github.com/coachsync/coachsync/internal/client/repositories/metadata"
)

// saveSession persists the token pair and username in local metadata. The
// stored access token is what sync replay presents as the bearer.
func (a *App) saveSession(ctx context.Context, email string, pair *client.TokenPair) error {
	md := a.store.Metadata()
	if err := md.Set(ctx, metadata.KeyAccessToken, []byte(pair.AccessToken)); err != nil {
		return err
	}
	if err := md.Set(ctx, metadata.KeyRefreshToken, []byte(pair.RefreshToken)); err != nil {
		return err
	}
	if err := md.Set(ctx, metadata.KeyUsername, []byte(email)); err != nil {
		return err
	}
	a.userName = email
	return nil
}

func (a *App) Register(ctx context.Context) error {
	email, err := GetSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		printlnFn("error:", err)
		return err
	}

	password, err := GetPassword(os.Stdout)
	if err != nil {
		printlnFn("error:", err)
		return err
	}

	role, err := GetSimpleText(a.reader, "Role (trainer/client, empty for client)", os.Stdout)
	if err != nil {
		printlnFn("error:", err)
		return err
	}

	pair, err := a.api.Register(ctx, email, string(password), role)
	if err != nil {
		printlnFn("Registration failed:", err)
		return err
	}

	if err := a.saveSession(ctx, email, pair); err != nil {
		printlnFn("error saving session:", err)
		return err
	}

	a.setMode(ModeOnline)
	printlnFn("Registered and logged in as", email)
	return nil
}

func (a *App) Login(ctx context.Context) error {
	email, err := GetSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		printlnFn("error:", err)
		return err
	}

	password, err := GetPassword(os.Stdout)
	if err != nil {
		printlnFn("error:", err)
		return err
	}

	pair, err := a.api.Login(ctx, email, string(password))
	if err != nil {
		if errors.Is(err, client.ErrUnavailable) {
			printlnFn("Server unavailable; working offline with cached data")
			a.setMode(ModeOffline)
			return err
		}
		printlnFn("Login failed:", err)
		return err
	}

	if err := a.saveSession(ctx, email, pair); err != nil {
		printlnFn("error saving session:", err)
		return err
	}

	a.setMode(ModeOnline)
	printlnFn("Logged in as", email)
	return nil
}

// Refresh exchanges the stored refresh token for a fresh pair. Used when
// the server starts rejecting the stored bearer.
func (a *App) Refresh(ctx context.Context) error {
	refresh, err := a.store.Metadata().Get(ctx, metadata.KeyRefreshToken)
	if err != nil || len(refresh) == 0 {
		printlnFn("No stored session; log in first")
		return client.ErrUnauthorized
	}

	pair, err := a.api.Refresh(ctx, string(refresh))
	if err != nil {
		printlnFn("Refresh failed:", err)
		return err
	}

	return a.saveSession(ctx, a.userName, pair)
}

// Logout revokes the server-side session when reachable, then wipes all
// local state: tokens, cached exercises, and any queued mutations.
func (a *App) Logout(ctx context.Context) error {
	md := a.store.Metadata()
	refresh, _ := md.Get(ctx, metadata.KeyRefreshToken)

	if token := a.accessToken(ctx); token != "" {
		if err := a.api.Logout(ctx, token, string(refresh)); err != nil {
			printlnFn("Server logout failed (local state cleared anyway):", err)
		}
	}

	if err := a.store.ClearAll(ctx); err != nil {
		printlnFn("error clearing local data:", err)
		return err
	}
	if err := md.Clear(ctx); err != nil {
		printlnFn("error clearing session:", err)
		return err
	}

	a.userName = ""
	printlnFn("Logged out")
	return nil
}
