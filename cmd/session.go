package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/frahmantamala/admin-console/internal"
	"github.com/frahmantamala/admin-console/internal/session"
	"github.com/spf13/cobra"
)

var (
	loginUsername string
	loginPassword string

	passwordCurrent string
	passwordNew     string
	passwordConfirm string

	profileFullName string
	profileEmail    string
	profilePhone    string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and store the session locally",
	Args:  cobra.NoArgs,
	RunE: run(func(ctx context.Context, cmd *cobra.Command, d *Dependencies, _ []string) error {
		password, err := readSecret(cmd, loginPassword, "Password: ")
		if err != nil {
			return err
		}
		st, err := d.Session.Login(ctx, session.LoginDTO{Username: loginUsername, Password: password})
		if err != nil {
			return err
		}
		if wantJSON() {
			return printJSON(cmd.OutOrStdout(), st.User)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", loginUsername)
		if st.User != nil && st.User.PasswordChangeRequired {
			fmt.Fprintln(cmd.OutOrStdout(), "A password change is required. Run `admin-console password force-change`.")
		}
		return nil
	}),
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the session and forget the stored tokens",
	Args:  cobra.NoArgs,
	RunE: run(func(ctx context.Context, cmd *cobra.Command, d *Dependencies, _ []string) error {
		if _, err := d.Session.Hydrate(ctx); err != nil {
			return err
		}
		if err := d.Session.Logout(ctx); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
		return nil
	}),
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user as the backend sees it",
	Args:  cobra.NoArgs,
	RunE: authenticated(func(ctx context.Context, cmd *cobra.Command, d *Dependencies, _ []string) error {
		st, err := d.Session.Initialize(ctx)
		if err != nil {
			return err
		}
		if st.User == nil {
			return internal.NewUnauthorizedError("Not logged in", internal.ErrCodeUnauthenticated)
		}
		if wantJSON() {
			return printJSON(cmd.OutOrStdout(), st.User)
		}
		u := st.User
		t := newTable(cmd.OutOrStdout(), "FIELD", "VALUE")
		t.row("id", u.ID)
		t.row("username", u.Username)
		t.row("full name", u.FullName)
		t.row("email", u.Email)
		t.row("phone", u.Phone)
		t.row("roles", strings.Join(u.Roles, ", "))
		t.row("last login", u.LastLogin)
		t.row("password change required", u.PasswordChangeRequired)
		return t.flush()
	}),
}

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Inspect or refresh the stored session",
}

var sessionStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the stored session and verify it against the backend",
	Args:  cobra.NoArgs,
	RunE: run(func(ctx context.Context, cmd *cobra.Command, d *Dependencies, _ []string) error {
		if _, err := d.Session.Hydrate(ctx); err != nil {
			return err
		}
		st, err := d.Session.Initialize(ctx)
		if err != nil && !internal.IsType(err, internal.ErrorTypeUnauthorized) {
			d.Logger.Warn("could not verify session", "error", err)
		}

		status := struct {
			Authenticated  bool       `json:"authenticated"`
			Username       string     `json:"username,omitempty"`
			TokenExpiresAt *time.Time `json:"tokenExpiresAt,omitempty"`
			TokenExpired   bool       `json:"tokenExpired"`
			Verified       bool       `json:"verified"`
		}{
			Authenticated:  st.IsAuthenticated,
			TokenExpiresAt: st.AccessTokenExpiresAt,
			TokenExpired:   st.Expired(time.Now()),
			Verified:       err == nil && st.IsAuthenticated,
		}
		if st.User != nil {
			status.Username = st.User.Username
		}

		if wantJSON() {
			return printJSON(cmd.OutOrStdout(), status)
		}
		t := newTable(cmd.OutOrStdout(), "FIELD", "VALUE")
		t.row("authenticated", status.Authenticated)
		t.row("username", status.Username)
		if status.TokenExpiresAt != nil {
			t.row("token expires", *status.TokenExpiresAt)
		}
		t.row("token expired", status.TokenExpired)
		t.row("verified", status.Verified)
		return t.flush()
	}),
}

var sessionRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Exchange the refresh token for a new access token",
	Args:  cobra.NoArgs,
	RunE: authenticated(func(ctx context.Context, cmd *cobra.Command, d *Dependencies, _ []string) error {
		if _, err := d.Session.Refresh(ctx); err != nil {
			return err
		}
		st := d.Session.Snapshot()
		if st.AccessTokenExpiresAt != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "Token refreshed, valid until %s\n", cell(*st.AccessTokenExpiresAt))
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Token refreshed")
		return nil
	}),
}

var passwordCmd = &cobra.Command{
	Use:   "password",
	Short: "Change the signed-in user's password",
}

var passwordChangeCmd = &cobra.Command{
	Use:   "change",
	Short: "Change the password, confirming the current one",
	Args:  cobra.NoArgs,
	RunE: authenticated(func(ctx context.Context, cmd *cobra.Command, d *Dependencies, _ []string) error {
		current, err := readSecret(cmd, passwordCurrent, "Current password: ")
		if err != nil {
			return err
		}
		next, err := readSecret(cmd, passwordNew, "New password: ")
		if err != nil {
			return err
		}
		dto := session.ChangePasswordDTO{CurrentPassword: current, NewPassword: next}
		if err := d.Auth.ChangePassword(ctx, dto); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Password changed")
		return nil
	}),
}

var passwordForceChangeCmd = &cobra.Command{
	Use:   "force-change",
	Short: "Set a new password after an administrator reset",
	Args:  cobra.NoArgs,
	RunE: authenticated(func(ctx context.Context, cmd *cobra.Command, d *Dependencies, _ []string) error {
		next, err := readSecret(cmd, passwordNew, "New password: ")
		if err != nil {
			return err
		}
		confirm, err := readSecret(cmd, passwordConfirm, "Confirm password: ")
		if err != nil {
			return err
		}
		dto := session.ForceChangePasswordDTO{NewPassword: next, ConfirmPassword: confirm}
		if err := d.Auth.ForceChangePassword(ctx, dto); err != nil {
			return err
		}
		if _, err := d.Session.Initialize(ctx); err != nil {
			d.Logger.Warn("failed to reload profile", "error", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Password changed")
		return nil
	}),
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage the signed-in user's profile",
}

var profileUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update full name, email and phone",
	Args:  cobra.NoArgs,
	RunE: authenticated(func(ctx context.Context, cmd *cobra.Command, d *Dependencies, _ []string) error {
		current := d.Session.Snapshot().User
		dto := session.UpdateProfileDTO{FullName: profileFullName, Email: profileEmail, Phone: profilePhone}
		if current != nil {
			if !cmd.Flags().Changed("full-name") {
				dto.FullName = current.FullName
			}
			if !cmd.Flags().Changed("email") {
				dto.Email = current.Email
			}
			if !cmd.Flags().Changed("phone") {
				dto.Phone = current.Phone
			}
		}
		profile, err := d.Session.UpdateProfile(ctx, dto)
		if err != nil {
			return err
		}
		if wantJSON() {
			return printJSON(cmd.OutOrStdout(), profile)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Profile updated for %s\n", profile.Username)
		return nil
	}),
}

func init() {
	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "account username")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "account password, read from stdin when omitted")
	_ = loginCmd.MarkFlagRequired("username")

	sessionCmd.AddCommand(sessionStatusCmd, sessionRefreshCmd)

	passwordChangeCmd.Flags().StringVar(&passwordCurrent, "current", "", "current password")
	passwordChangeCmd.Flags().StringVar(&passwordNew, "new", "", "new password")
	passwordForceChangeCmd.Flags().StringVar(&passwordNew, "new", "", "new password")
	passwordForceChangeCmd.Flags().StringVar(&passwordConfirm, "confirm", "", "new password again")
	passwordCmd.AddCommand(passwordChangeCmd, passwordForceChangeCmd)

	profileUpdateCmd.Flags().StringVar(&profileFullName, "full-name", "", "full name")
	profileUpdateCmd.Flags().StringVar(&profileEmail, "email", "", "email address")
	profileUpdateCmd.Flags().StringVar(&profilePhone, "phone", "", "phone number")
	profileCmd.AddCommand(profileUpdateCmd)
}
