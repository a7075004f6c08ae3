package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/frahmantamala/admin-console/internal/core/slice"
	"github.com/frahmantamala/admin-console/internal/user"
	"github.com/spf13/cobra"
)

var (
	userKeyword string
	userPage    int
	userSize    int

	userUsername string
	userPassword string
	userEmail    string
	userFullName string
	userPhone    string
	userActive   bool
	userRoleIDs  []int64
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage user accounts",
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List users",
	Args:  cobra.NoArgs,
	RunE: authenticated(func(ctx context.Context, cmd *cobra.Command, d *Dependencies, _ []string) error {
		filter := slice.Filter{"keyword": userKeyword}
		if userPage > 0 {
			filter["page"] = strconv.Itoa(userPage)
		}
		if userSize > 0 {
			filter["size"] = strconv.Itoa(userSize)
		}

		users := user.NewSlice(d.Users, d.Logger)
		err := fetchInto(ctx, d, users.Slice, "users", func(ctx context.Context) (slice.ListResult[user.User], error) {
			return d.Users.List(ctx, filter)
		})
		if err != nil {
			return err
		}

		state := users.State()
		if wantJSON() {
			return printJSON(cmd.OutOrStdout(), state.Items)
		}
		t := newTable(cmd.OutOrStdout(), "ID", "USERNAME", "FULL NAME", "EMAIL", "ACTIVE", "ROLES", "LAST LOGIN")
		for _, u := range state.Items {
			t.row(u.ID, u.Username, u.FullName, u.Email, u.IsActiveUser(), strings.Join(u.RoleNames(), ","), u.LastLogin)
		}
		if err := t.flush(); err != nil {
			return err
		}
		printPagination(cmd.OutOrStdout(), state.Pagination, len(state.Items))
		return nil
	}),
}

var usersCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a user",
	Args:  cobra.NoArgs,
	RunE: authenticated(func(ctx context.Context, cmd *cobra.Command, d *Dependencies, _ []string) error {
		password, err := readSecret(cmd, userPassword, "Password: ")
		if err != nil {
			return err
		}
		dto := user.CreateUserDTO{
			Username: userUsername,
			Password: password,
			Email:    userEmail,
			FullName: userFullName,
			Phone:    userPhone,
			IsActive: boolFlag(cmd, "active", userActive),
			RoleIDs:  userRoleIDs,
		}
		created, err := user.NewSlice(d.Users, d.Logger).Add(ctx, dto)
		if err != nil {
			return err
		}
		return printUser(cmd, created, "Created")
	}),
}

var usersUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update a user's profile fields",
	Args:  cobra.ExactArgs(1),
	RunE: authenticated(func(ctx context.Context, cmd *cobra.Command, d *Dependencies, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		current, err := d.Users.Get(ctx, id)
		if err != nil {
			return err
		}
		dto := user.UpdateUserDTO{
			Email:    current.Email,
			FullName: current.FullName,
			Phone:    current.Phone,
			IsActive: boolFlag(cmd, "active", userActive),
		}
		if cmd.Flags().Changed("email") {
			dto.Email = userEmail
		}
		if cmd.Flags().Changed("full-name") {
			dto.FullName = userFullName
		}
		if cmd.Flags().Changed("phone") {
			dto.Phone = userPhone
		}

		updated, err := user.NewSlice(d.Users, d.Logger).Edit(ctx, id, dto)
		if err != nil {
			return err
		}
		return printUser(cmd, updated, "Updated")
	}),
}

var usersDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a user",
	Args:  cobra.ExactArgs(1),
	RunE: authenticated(func(ctx context.Context, cmd *cobra.Command, d *Dependencies, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		if err := user.NewSlice(d.Users, d.Logger).Delete(ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted user %d\n", id)
		return nil
	}),
}

var usersRolesCmd = &cobra.Command{
	Use:   "roles <id>",
	Short: "Show a user's roles, or replace them with --set",
	Args:  cobra.ExactArgs(1),
	RunE: authenticated(func(ctx context.Context, cmd *cobra.Command, d *Dependencies, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("set") {
			if err := d.Users.UpdateRoles(ctx, id, userRoleIDs); err != nil {
				return err
			}
		}
		roles, err := d.Users.Roles(ctx, id)
		if err != nil {
			return err
		}
		if wantJSON() {
			return printJSON(cmd.OutOrStdout(), roles)
		}
		t := newTable(cmd.OutOrStdout(), "ID", "ROLE", "DESCRIPTION", "ACTIVE")
		for _, r := range roles {
			t.row(r.ID, r.RoleName, r.Description, r.IsActive)
		}
		return t.flush()
	}),
}

var usersToggleCmd = &cobra.Command{
	Use:   "toggle <id>",
	Short: "Enable or disable a user",
	Args:  cobra.ExactArgs(1),
	RunE: authenticated(func(ctx context.Context, cmd *cobra.Command, d *Dependencies, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		updated, err := user.NewSlice(d.Users, d.Logger).ToggleStatus(ctx, id)
		if err != nil {
			return err
		}
		if wantJSON() {
			return printJSON(cmd.OutOrStdout(), updated)
		}
		state := "disabled"
		if updated.IsActiveUser() {
			state = "enabled"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "User %s is now %s\n", updated.Username, state)
		return nil
	}),
}

var usersResetPasswordCmd = &cobra.Command{
	Use:   "reset-password <id>",
	Short: "Set a user's password, or issue a temporary one when --password is omitted",
	Args:  cobra.ExactArgs(1),
	RunE: authenticated(func(ctx context.Context, cmd *cobra.Command, d *Dependencies, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		if userPassword != "" {
			if err := d.Users.ResetPassword(ctx, id, user.ResetPasswordDTO{NewPassword: userPassword}); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Password reset")
			return nil
		}
		temp, err := d.Users.AdminResetPassword(ctx, id)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Temporary password: %s\nThe user must change it at next login.\n", temp)
		return nil
	}),
}

func printUser(cmd *cobra.Command, u user.User, verb string) error {
	if wantJSON() {
		return printJSON(cmd.OutOrStdout(), u)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s user %s (id %d)\n", verb, u.Username, u.ID)
	return nil
}

func init() {
	usersListCmd.Flags().StringVarP(&userKeyword, "keyword", "k", "", "match username, name or email")
	usersListCmd.Flags().IntVar(&userPage, "page", 0, "page number, starting at 0")
	usersListCmd.Flags().IntVar(&userSize, "size", 0, "page size")

	for _, c := range []*cobra.Command{usersCreateCmd, usersUpdateCmd} {
		c.Flags().StringVar(&userEmail, "email", "", "email address")
		c.Flags().StringVar(&userFullName, "full-name", "", "full name")
		c.Flags().StringVar(&userPhone, "phone", "", "phone number")
		c.Flags().BoolVar(&userActive, "active", true, "whether the account may sign in")
	}
	usersCreateCmd.Flags().StringVarP(&userUsername, "username", "u", "", "login name")
	usersCreateCmd.Flags().StringVarP(&userPassword, "password", "p", "", "initial password, read from stdin when omitted")
	usersCreateCmd.Flags().Int64SliceVar(&userRoleIDs, "role", nil, "role id to assign, repeatable")
	_ = usersCreateCmd.MarkFlagRequired("username")

	usersRolesCmd.Flags().Int64SliceVar(&userRoleIDs, "set", nil, "replace the user's roles with these ids")
	usersResetPasswordCmd.Flags().StringVarP(&userPassword, "password", "p", "", "new password")

	usersCmd.AddCommand(usersListCmd, usersCreateCmd, usersUpdateCmd, usersDeleteCmd,
		usersRolesCmd, usersToggleCmd, usersResetPasswordCmd)
}
