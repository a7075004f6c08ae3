package cmd

import (
	"context"
	"fmt"

	"github.com/frahmantamala/admin-console/internal"
	"github.com/frahmantamala/admin-console/internal/core/slice"
	"github.com/frahmantamala/admin-console/internal/permission"
	"github.com/spf13/cobra"
)

var (
	permRoleID int64
	permMenuID int64
	permUserID int64
	permAction string

	grantRead   bool
	grantWrite  bool
	grantDelete bool
)

var permissionsCmd = &cobra.Command{
	Use:     "permissions",
	Aliases: []string{"perms"},
	Short:   "Inspect and grant role permissions on menus",
}

var permissionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List permission rows, optionally for one role, menu or user",
	Args:  cobra.NoArgs,
	RunE: authenticated(func(ctx context.Context, cmd *cobra.Command, d *Dependencies, _ []string) error {
		perms := permission.NewSlice(d.Permissions, d.Logger)
		var err error
		switch {
		case permRoleID > 0:
			err = perms.FetchRole(ctx, permRoleID)
		case permMenuID > 0:
			err = perms.FetchAll(ctx, rows(func(ctx context.Context) ([]permission.Permission, error) {
				return d.Permissions.ByMenu(ctx, permMenuID)
			}))
		case permUserID > 0:
			err = perms.FetchAll(ctx, rows(func(ctx context.Context) ([]permission.Permission, error) {
				return d.Permissions.ByUser(ctx, permUserID)
			}))
		default:
			err = fetchInto(ctx, d, perms.Slice, "permissions", func(ctx context.Context) (slice.ListResult[permission.Permission], error) {
				return d.Permissions.List(ctx, nil)
			})
		}
		if err != nil {
			return err
		}

		items := perms.Items()
		if wantJSON() {
			return printJSON(cmd.OutOrStdout(), items)
		}
		t := newTable(cmd.OutOrStdout(), "ID", "ROLE", "MENU", "READ", "WRITE", "DELETE")
		for _, p := range items {
			t.row(p.ID, labelled(p.RoleName, p.RoleID), labelled(p.MenuName, p.MenuID), p.CanRead, p.CanWrite, p.CanDelete)
		}
		return t.flush()
	}),
}

func rows(fn func(context.Context) ([]permission.Permission, error)) func(context.Context) (slice.ListResult[permission.Permission], error) {
	return func(ctx context.Context) (slice.ListResult[permission.Permission], error) {
		items, err := fn(ctx)
		return slice.ListResult[permission.Permission]{Items: items}, err
	}
}

func labelled(name string, id int64) string {
	if name == "" {
		return fmt.Sprintf("#%d", id)
	}
	return fmt.Sprintf("%s (#%d)", name, id)
}

var permissionsTreeCmd = &cobra.Command{
	Use:   "tree <roleId>",
	Short: "Show the menu hierarchy with one role's access on every menu",
	Args:  cobra.ExactArgs(1),
	RunE: authenticated(func(ctx context.Context, cmd *cobra.Command, d *Dependencies, args []string) error {
		roleID, err := parseID(args[0])
		if err != nil {
			return err
		}
		menus, err := loadMenus(ctx, d)
		if err != nil {
			return err
		}
		perms := permission.NewSlice(d.Permissions, d.Logger)
		if err := perms.FetchRole(ctx, roleID); err != nil {
			return err
		}

		roots := permission.RoleTree(menus.Items(), perms.Set(), roleID)
		if wantJSON() {
			return printJSON(cmd.OutOrStdout(), roots)
		}
		printTree(cmd.OutOrStdout(), roots, func(m permission.MenuAccess) string {
			return fmt.Sprintf("%s (#%d)  %s", m.Menu.MenuName, m.Menu.ID, accessFlags(m))
		})
		return nil
	}),
}

func accessFlags(m permission.MenuAccess) string {
	flag := func(a permission.Action, c string) string {
		if m.Allows(a) {
			return c
		}
		return "-"
	}
	return "[" + flag(permission.ActionRead, "r") + flag(permission.ActionWrite, "w") + flag(permission.ActionDelete, "d") + "]"
}

var permissionsGrantCmd = &cobra.Command{
	Use:   "grant <roleId>",
	Short: "Set a role's read, write and delete access on a menu",
	Args:  cobra.ExactArgs(1),
	RunE: authenticated(func(ctx context.Context, cmd *cobra.Command, d *Dependencies, args []string) error {
		roleID, err := parseID(args[0])
		if err != nil {
			return err
		}
		perms := permission.NewSlice(d.Permissions, d.Logger)
		if err := perms.FetchRole(ctx, roleID); err != nil {
			return err
		}

		grants := permission.NewGrants(roleID, perms.Set())
		for _, g := range []struct {
			flag   string
			action permission.Action
			value  bool
		}{
			{"read", permission.ActionRead, grantRead},
			{"write", permission.ActionWrite, grantWrite},
			{"delete", permission.ActionDelete, grantDelete},
		} {
			if cmd.Flags().Changed(g.flag) {
				grants.Set(permMenuID, g.action, g.value)
			}
		}

		if err := perms.Save(ctx, grants); err != nil {
			return err
		}
		p, ok := perms.Set().Get(roleID, permMenuID)
		if wantJSON() {
			return printJSON(cmd.OutOrStdout(), p)
		}
		if !ok {
			fmt.Fprintf(cmd.OutOrStdout(), "Role %d has no access to menu %d\n", roleID, permMenuID)
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Role %d on menu %d: read=%t write=%t delete=%t\n",
			roleID, permMenuID, p.CanRead, p.CanWrite, p.CanDelete)
		return nil
	}),
}

var permissionsCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Ask the backend whether a user may act on a menu",
	Args:  cobra.NoArgs,
	RunE: authenticated(func(ctx context.Context, cmd *cobra.Command, d *Dependencies, _ []string) error {
		action, ok := permission.ParseAction(permAction)
		if !ok {
			return internal.NewValidationFieldError("action", "action must be READ, WRITE or DELETE", internal.ErrCodeValidationFailed)
		}
		allowed, err := d.Permissions.Check(ctx, permUserID, permMenuID, action)
		if err != nil {
			return err
		}
		if wantJSON() {
			return printJSON(cmd.OutOrStdout(), map[string]bool{"allowed": allowed})
		}
		verdict := "denied"
		if allowed {
			verdict = "allowed"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s on menu %d for user %d: %s\n", action, permMenuID, permUserID, verdict)
		return nil
	}),
}

var permissionsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Count permission rows and the roles and menus they cover",
	Args:  cobra.NoArgs,
	RunE: authenticated(func(ctx context.Context, cmd *cobra.Command, d *Dependencies, _ []string) error {
		perms := permission.NewSlice(d.Permissions, d.Logger)
		err := fetchInto(ctx, d, perms.Slice, "permissions", func(ctx context.Context) (slice.ListResult[permission.Permission], error) {
			return d.Permissions.List(ctx, nil)
		})
		if err != nil {
			return err
		}
		stats := perms.Set().Stats()
		if wantJSON() {
			return printJSON(cmd.OutOrStdout(), stats)
		}
		t := newTable(cmd.OutOrStdout(), "TOTAL", "ROLES", "MENUS")
		t.row(stats.Total, stats.Roles, stats.Menus)
		return t.flush()
	}),
}

func init() {
	permissionsListCmd.Flags().Int64Var(&permRoleID, "role", 0, "only rows of this role")
	permissionsListCmd.Flags().Int64Var(&permMenuID, "menu", 0, "only rows of this menu")
	permissionsListCmd.Flags().Int64Var(&permUserID, "user", 0, "rows granted to this user through any role")
	permissionsListCmd.MarkFlagsMutuallyExclusive("role", "menu", "user")

	permissionsGrantCmd.Flags().Int64Var(&permMenuID, "menu", 0, "menu id")
	permissionsGrantCmd.Flags().BoolVar(&grantRead, "read", false, "allow reading")
	permissionsGrantCmd.Flags().BoolVar(&grantWrite, "write", false, "allow writing")
	permissionsGrantCmd.Flags().BoolVar(&grantDelete, "delete", false, "allow deleting")
	_ = permissionsGrantCmd.MarkFlagRequired("menu")
	permissionsGrantCmd.MarkFlagsOneRequired("read", "write", "delete")

	permissionsCheckCmd.Flags().Int64Var(&permUserID, "user", 0, "user id")
	permissionsCheckCmd.Flags().Int64Var(&permMenuID, "menu", 0, "menu id")
	permissionsCheckCmd.Flags().StringVar(&permAction, "action", "READ", "READ, WRITE or DELETE")
	_ = permissionsCheckCmd.MarkFlagRequired("user")
	_ = permissionsCheckCmd.MarkFlagRequired("menu")

	permissionsCmd.AddCommand(permissionsListCmd, permissionsTreeCmd, permissionsGrantCmd,
		permissionsCheckCmd, permissionsStatsCmd)
}
