package cli

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"habitbreak/internal/session"
)

type LoginCmd struct {
	Email    string `arg:"" help:"Account email."`
	Password string `short:"p" help:"Password (prompted when omitted)."`
}

func (c *LoginCmd) Run(appCtx *Context) error {
	password := c.Password
	if password == "" {
		var err error
		password, err = promptPassword("Password")
		if err != nil {
			return err
		}
	}

	ctx, cancel := opCtx()
	defer cancel()
	if err := appCtx.Controller.Login(ctx, c.Email, password); err != nil {
		return err
	}

	st := appCtx.Controller.Snapshot()
	name := c.Email
	if st.Profile != nil {
		name = st.Profile.Name()
	}
	fmt.Printf("Logged in as %s\n", name)
	return nil
}

type RegisterCmd struct {
	Email       string `arg:"" help:"Account email."`
	DisplayName string `short:"n" help:"Optional display name."`
	Password    string `short:"p" help:"Password (prompted when omitted)."`
}

func (c *RegisterCmd) Run(appCtx *Context) error {
	password := c.Password
	if password == "" {
		var err error
		password, err = promptPassword("Choose a password")
		if err != nil {
			return err
		}
	}

	ctx, cancel := opCtx()
	defer cancel()
	if err := appCtx.Controller.Register(ctx, c.Email, password, c.DisplayName); err != nil {
		return err
	}

	fmt.Printf("Account created for %s\n", c.Email)
	return nil
}

type LogoutCmd struct{}

func (c *LogoutCmd) Run(appCtx *Context) error {
	if err := appCtx.Controller.Logout(); err != nil {
		return err
	}
	fmt.Println("Logged out.")
	return nil
}

type AuthStatusCmd struct{}

func (c *AuthStatusCmd) Run(appCtx *Context) error {
	tok, err := appCtx.Session.Token()
	if err == session.ErrNoToken {
		fmt.Println("Not logged in.")
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Println("Logged in.")

	st := appCtx.Controller.Snapshot()
	if st.Profile != nil {
		verified := "unverified"
		if st.Profile.IsVerified {
			verified = "verified"
		}
		fmt.Printf("Account: %s (%s)\n", st.Profile.Name(), verified)
	}

	// The token is opaque to the protocol; this is only a local diagnostic
	// for tokens that happen to be JWTs. No signature check.
	if exp, ok := peekExpiry(tok); ok {
		if time.Now().After(exp) {
			fmt.Printf("Token appears expired since %s.\n", exp.Local().Format(time.RFC822))
		} else {
			fmt.Printf("Token valid until %s.\n", exp.Local().Format(time.RFC822))
		}
	}
	return nil
}

func peekExpiry(token string) (time.Time, bool) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

type ResetCmd struct {
	Request ResetRequestCmd `cmd:"" help:"Request a password reset token."`
	Confirm ResetConfirmCmd `cmd:"" help:"Confirm a password reset with a token."`
}

type ResetRequestCmd struct {
	Email string `arg:"" help:"Account email."`
}

func (c *ResetRequestCmd) Run(appCtx *Context) error {
	ctx, cancel := opCtx()
	defer cancel()
	hint, err := appCtx.Controller.RequestReset(ctx, c.Email)
	if err != nil {
		return err
	}
	fmt.Println(hint)
	return nil
}

type ResetConfirmCmd struct {
	Token       string `arg:"" help:"Reset token."`
	NewPassword string `short:"p" help:"New password (prompted when omitted)."`
}

func (c *ResetConfirmCmd) Run(appCtx *Context) error {
	password := c.NewPassword
	if password == "" {
		var err error
		password, err = promptPassword("New password")
		if err != nil {
			return err
		}
	}

	ctx, cancel := opCtx()
	defer cancel()
	if err := appCtx.Controller.ConfirmReset(ctx, c.Token, password); err != nil {
		return err
	}
	fmt.Println("Password updated. You can log in now.")
	return nil
}

type VerifyCmd struct {
	Request VerifyRequestCmd `cmd:"" help:"Request an email verification token."`
	Confirm VerifyConfirmCmd `cmd:"" help:"Confirm email verification with a token."`
}

type VerifyRequestCmd struct {
	Email string `arg:"" help:"Account email."`
}

func (c *VerifyRequestCmd) Run(appCtx *Context) error {
	ctx, cancel := opCtx()
	defer cancel()
	hint, err := appCtx.Controller.RequestVerify(ctx, c.Email)
	if err != nil {
		return err
	}
	fmt.Println(hint)
	return nil
}

type VerifyConfirmCmd struct {
	Token string `arg:"" help:"Verification token."`
}

func (c *VerifyConfirmCmd) Run(appCtx *Context) error {
	ctx, cancel := opCtx()
	defer cancel()
	if err := appCtx.Controller.ConfirmVerify(ctx, c.Token); err != nil {
		return err
	}
	fmt.Println("Email verified.")
	return nil
}
