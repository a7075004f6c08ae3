package cmd

import (
	"context"
	"fmt"

	"github.com/frahmantamala/admin-console/internal/core/slice"
	"github.com/frahmantamala/admin-console/internal/role"
	"github.com/spf13/cobra"
)

var (
	roleName        string
	roleDescription string
	roleActive      bool
	roleOnlyActive  bool
)

var rolesCmd = &cobra.Command{
	Use:   "roles",
	Short: "Manage roles",
}

var rolesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List roles",
	Args:  cobra.NoArgs,
	RunE: authenticated(func(ctx context.Context, cmd *cobra.Command, d *Dependencies, _ []string) error {
		roles := role.NewSlice(d.Roles, d.Logger)
		key := "roles"
		list := func(ctx context.Context) (slice.ListResult[role.Role], error) {
			return d.Roles.List(ctx, nil)
		}
		if roleOnlyActive {
			key = "roles:active"
			list = func(ctx context.Context) (slice.ListResult[role.Role], error) {
				items, err := d.Roles.Active(ctx)
				return slice.ListResult[role.Role]{Items: items}, err
			}
		}
		if err := fetchInto(ctx, d, roles.Slice, key, list); err != nil {
			return err
		}

		items := roles.Items()
		if wantJSON() {
			return printJSON(cmd.OutOrStdout(), items)
		}
		t := newTable(cmd.OutOrStdout(), "ID", "ROLE", "DESCRIPTION", "ACTIVE", "UPDATED")
		for _, r := range items {
			t.row(r.ID, r.RoleName, r.Description, r.IsActiveRole(), r.UpdatedAt)
		}
		return t.flush()
	}),
}

var rolesCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a role",
	Args:  cobra.NoArgs,
	RunE: authenticated(func(ctx context.Context, cmd *cobra.Command, d *Dependencies, _ []string) error {
		dto := role.RoleDTO{
			RoleName:    roleName,
			Description: roleDescription,
			IsActive:    boolFlag(cmd, "active", roleActive),
		}
		created, err := role.NewSlice(d.Roles, d.Logger).Add(ctx, dto)
		if err != nil {
			return err
		}
		return printRole(cmd, created, "Created")
	}),
}

var rolesUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Rename or describe a role",
	Args:  cobra.ExactArgs(1),
	RunE: authenticated(func(ctx context.Context, cmd *cobra.Command, d *Dependencies, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		current, err := d.Roles.Get(ctx, id)
		if err != nil {
			return err
		}
		dto := role.RoleDTO{
			RoleName:    current.RoleName,
			Description: current.Description,
			IsActive:    current.IsActive,
		}
		if cmd.Flags().Changed("name") {
			dto.RoleName = roleName
		}
		if cmd.Flags().Changed("description") {
			dto.Description = roleDescription
		}
		if cmd.Flags().Changed("active") {
			dto.IsActive = &roleActive
		}
		updated, err := role.NewSlice(d.Roles, d.Logger).Edit(ctx, id, dto)
		if err != nil {
			return err
		}
		return printRole(cmd, updated, "Updated")
	}),
}

var rolesDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a role that no user holds",
	Args:  cobra.ExactArgs(1),
	RunE: authenticated(func(ctx context.Context, cmd *cobra.Command, d *Dependencies, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		if err := role.NewSlice(d.Roles, d.Logger).Delete(ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted role %d\n", id)
		return nil
	}),
}

func roleActivation(active bool) func(*cobra.Command, []string) error {
	return authenticated(func(ctx context.Context, cmd *cobra.Command, d *Dependencies, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		updated, err := role.NewSlice(d.Roles, d.Logger).SetActive(ctx, id, active)
		if err != nil {
			return err
		}
		verb := "Deactivated"
		if active {
			verb = "Activated"
		}
		return printRole(cmd, updated, verb)
	})
}

var rolesActivateCmd = &cobra.Command{
	Use:   "activate <id>",
	Short: "Activate a role",
	Args:  cobra.ExactArgs(1),
	RunE:  roleActivation(true),
}

var rolesDeactivateCmd = &cobra.Command{
	Use:   "deactivate <id>",
	Short: "Deactivate a role",
	Args:  cobra.ExactArgs(1),
	RunE:  roleActivation(false),
}

func printRole(cmd *cobra.Command, r role.Role, verb string) error {
	if wantJSON() {
		return printJSON(cmd.OutOrStdout(), r)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s role %s (id %d)\n", verb, r.RoleName, r.ID)
	return nil
}

func init() {
	rolesListCmd.Flags().BoolVar(&roleOnlyActive, "active", false, "list active roles only")

	for _, c := range []*cobra.Command{rolesCreateCmd, rolesUpdateCmd} {
		c.Flags().StringVar(&roleName, "name", "", "role name, upper case such as ADMIN")
		c.Flags().StringVar(&roleDescription, "description", "", "description")
		c.Flags().BoolVar(&roleActive, "active", true, "whether the role grants access")
	}
	_ = rolesCreateCmd.MarkFlagRequired("name")

	rolesCmd.AddCommand(rolesListCmd, rolesCreateCmd, rolesUpdateCmd, rolesDeleteCmd,
		rolesActivateCmd, rolesDeactivateCmd)
}
