package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/frahmantamala/admin-console/internal/core/slice"
	"github.com/frahmantamala/admin-console/internal/core/tree"
	"github.com/frahmantamala/admin-console/internal/menu"
	"github.com/spf13/cobra"
)

var (
	menuName        string
	menuParentID    int64
	menuURL         string
	menuIcon        string
	menuOrder       int
	menuVisible     bool
	menuActive      bool
	menuDescription string
	menuKeyword     string
	menuMine        bool
)

var menusCmd = &cobra.Command{
	Use:   "menus",
	Short: "Manage navigation menus",
}

func loadMenus(ctx context.Context, d *Dependencies) (*menu.Slice, error) {
	menus := menu.NewSlice(d.Menus, d.Logger)
	err := fetchInto(ctx, d, menus.Slice, "menus", func(ctx context.Context) (slice.ListResult[menu.Menu], error) {
		return d.Menus.List(ctx, nil)
	})
	return menus, err
}

var menusListCmd = &cobra.Command{
	Use:   "list",
	Short: "List menus",
	Args:  cobra.NoArgs,
	RunE: authenticated(func(ctx context.Context, cmd *cobra.Command, d *Dependencies, _ []string) error {
		var items []menu.Menu
		if menuKeyword != "" {
			found, err := d.Menus.Search(ctx, menuKeyword)
			if err != nil {
				return err
			}
			items = found
		} else {
			menus, err := loadMenus(ctx, d)
			if err != nil {
				return err
			}
			items = menus.Items()
		}

		if wantJSON() {
			return printJSON(cmd.OutOrStdout(), items)
		}
		t := newTable(cmd.OutOrStdout(), "ID", "NAME", "PARENT", "URL", "ORDER", "VISIBLE", "ACTIVE")
		for _, m := range items {
			t.row(m.ID, m.MenuName, m.ParentID, m.URL, m.OrderNum, m.Visible(), m.IsActive)
		}
		return t.flush()
	}),
}

var menusTreeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Show the menu hierarchy, or with --mine the menus you may open",
	Args:  cobra.NoArgs,
	RunE: authenticated(func(ctx context.Context, cmd *cobra.Command, d *Dependencies, _ []string) error {
		var roots []*menu.Node
		if menuMine {
			nested, err := d.Menus.UserMenus(ctx)
			if err != nil {
				return err
			}
			roots = menu.BuildTree(menu.FlattenNested(nested))
		} else {
			menus, err := loadMenus(ctx, d)
			if err != nil {
				return err
			}
			if cycles := menu.Cycles(menus.Items()); len(cycles) > 0 {
				d.Logger.Warn("menu hierarchy has cycles", "cycles", cycles)
			}
			roots = menus.Tree()
		}

		if wantJSON() {
			return printJSON(cmd.OutOrStdout(), roots)
		}
		printTree(cmd.OutOrStdout(), roots, func(m menu.Menu) string {
			label := fmt.Sprintf("%s (#%d)", m.MenuName, m.ID)
			if m.URL != "" {
				label += "  " + m.URL
			}
			if !m.Visible() {
				label += "  [hidden]"
			}
			return label
		})
		return nil
	}),
}

func printTree[T any](out io.Writer, roots []*tree.Node[T, int64], label func(T) string) {
	tree.Walk(roots, func(n *tree.Node[T, int64], depth int) bool {
		fmt.Fprintf(out, "%s%s\n", strings.Repeat("  ", depth), label(n.Item))
		return true
	})
}

func menuDTO(cmd *cobra.Command, current menu.Menu) menu.MenuDTO {
	dto := menu.MenuDTO{
		MenuName:    current.MenuName,
		ParentID:    current.ParentID,
		URL:         current.URL,
		Icon:        current.Icon,
		OrderNum:    current.OrderNum,
		IsVisible:   current.IsVisible,
		IsActive:    current.IsActive,
		Description: current.Description,
	}
	flags := cmd.Flags()
	if flags.Changed("name") {
		dto.MenuName = menuName
	}
	if flags.Changed("parent") {
		dto.ParentID = int64Flag(cmd, "parent", menuParentID)
	}
	if flags.Changed("url") {
		dto.URL = menuURL
	}
	if flags.Changed("icon") {
		dto.Icon = menuIcon
	}
	if flags.Changed("order") {
		dto.OrderNum = menuOrder
	}
	if flags.Changed("visible") {
		dto.IsVisible = &menuVisible
	}
	if flags.Changed("active") {
		dto.IsActive = &menuActive
	}
	if flags.Changed("description") {
		dto.Description = menuDescription
	}
	return dto
}

var menusCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a menu",
	Args:  cobra.NoArgs,
	RunE: authenticated(func(ctx context.Context, cmd *cobra.Command, d *Dependencies, _ []string) error {
		created, err := menu.NewSlice(d.Menus, d.Logger).Add(ctx, menuDTO(cmd, menu.Menu{}))
		if err != nil {
			return err
		}
		return printMenu(cmd, created, "Created")
	}),
}

var menusUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update a menu",
	Args:  cobra.ExactArgs(1),
	RunE: authenticated(func(ctx context.Context, cmd *cobra.Command, d *Dependencies, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		current, err := d.Menus.Get(ctx, id)
		if err != nil {
			return err
		}
		updated, err := menu.NewSlice(d.Menus, d.Logger).Edit(ctx, id, menuDTO(cmd, current))
		if err != nil {
			return err
		}
		return printMenu(cmd, updated, "Updated")
	}),
}

var menusDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a menu without children",
	Args:  cobra.ExactArgs(1),
	RunE: authenticated(func(ctx context.Context, cmd *cobra.Command, d *Dependencies, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		if err := menu.NewSlice(d.Menus, d.Logger).Delete(ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted menu %d\n", id)
		return nil
	}),
}

var menusOrderCmd = &cobra.Command{
	Use:   "order <id> <orderNum>",
	Short: "Move a menu among its siblings",
	Args:  cobra.ExactArgs(2),
	RunE: authenticated(func(ctx context.Context, cmd *cobra.Command, d *Dependencies, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		var order int
		if _, err := fmt.Sscan(args[1], &order); err != nil || order < 0 {
			return fmt.Errorf("invalid order number %q", args[1])
		}
		updated, err := menu.NewSlice(d.Menus, d.Logger).Reorder(ctx, id, order)
		if err != nil {
			return err
		}
		return printMenu(cmd, updated, "Reordered")
	}),
}

var menusToggleCmd = &cobra.Command{
	Use:   "toggle <id>",
	Short: "Show or hide a menu",
	Args:  cobra.ExactArgs(1),
	RunE: authenticated(func(ctx context.Context, cmd *cobra.Command, d *Dependencies, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		updated, err := menu.NewSlice(d.Menus, d.Logger).ToggleVisibility(ctx, id)
		if err != nil {
			return err
		}
		if wantJSON() {
			return printJSON(cmd.OutOrStdout(), updated)
		}
		state := "hidden"
		if updated.Visible() {
			state = "visible"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Menu %s is now %s\n", updated.MenuName, state)
		return nil
	}),
}

func printMenu(cmd *cobra.Command, m menu.Menu, verb string) error {
	if wantJSON() {
		return printJSON(cmd.OutOrStdout(), m)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s menu %s (id %d)\n", verb, m.MenuName, m.ID)
	return nil
}

func init() {
	menusListCmd.Flags().StringVarP(&menuKeyword, "keyword", "k", "", "search menus by name")
	menusTreeCmd.Flags().BoolVar(&menuMine, "mine", false, "only menus the signed-in user may open")

	for _, c := range []*cobra.Command{menusCreateCmd, menusUpdateCmd} {
		c.Flags().StringVar(&menuName, "name", "", "menu name")
		c.Flags().Int64Var(&menuParentID, "parent", 0, "parent menu id, 0 for a root")
		c.Flags().StringVar(&menuURL, "url", "", "route")
		c.Flags().StringVar(&menuIcon, "icon", "", "icon name")
		c.Flags().IntVar(&menuOrder, "order", 0, "position among siblings")
		c.Flags().BoolVar(&menuVisible, "visible", true, "show in navigation")
		c.Flags().BoolVar(&menuActive, "active", true, "enabled")
		c.Flags().StringVar(&menuDescription, "description", "", "description")
	}
	_ = menusCreateCmd.MarkFlagRequired("name")

	menusCmd.AddCommand(menusListCmd, menusTreeCmd, menusCreateCmd, menusUpdateCmd,
		menusDeleteCmd, menusOrderCmd, menusToggleCmd)
}
