package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophsync/internal/common"
)

var (
	getSimpleText = GetSimpleText
	getPassword   = GetPassword
)

func (a *App) askCredentials() (string, string, error) {
	email, err := getSimpleText(a.reader, "Email", a.out)
	if err != nil {
		return "", "", fmt.Errorf("read email: %w", err)
	}
	pw, err := getPassword(a.out)
	if err != nil {
		return "", "", fmt.Errorf("read password: %w", err)
	}
	defer common.WipeByteArray(pw)
	return strings.TrimSpace(email), string(pw), nil
}

func (a *App) Register(ctx context.Context) error {
	email, password, err := a.askCredentials()
	if err != nil {
		return err
	}
	if err := a.engine.Register(ctx, email, password); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Registered, now log in")
	return nil
}

func (a *App) Login(ctx context.Context) error {
	email, password, err := a.askCredentials()
	if err != nil {
		return err
	}
	s, err := a.engine.SignIn(ctx, email, password)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Signed in as %s (%s)\n", s.Email, s.Mode)
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	if err := a.engine.SignOut(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Signed out")
	return nil
}
