package sandbox

import (
	"context"
	"time"

	"github.com/frahmantamala/admin-console/internal"
	"github.com/frahmantamala/admin-console/internal/menu"
	"github.com/frahmantamala/admin-console/internal/permission"
	"github.com/frahmantamala/admin-console/internal/role"
	"github.com/frahmantamala/admin-console/internal/syslog"
	"github.com/frahmantamala/admin-console/internal/user"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
)

var _ = Describe("Store", func() {
	var (
		now   time.Time
		store *Store
	)

	clock := func() time.Time { return now }

	BeforeEach(func() {
		now = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
		store = NewStore(clock, bcrypt.MinCost)
		Expect(store.Seed()).To(Succeed())
	})

	menuID := func(code menu.Code) int64 {
		return store.codes[code]
	}

	It("should number each kind of record from 1", func() {
		Expect(menuID(menu.CodeDashboard)).To(Equal(int64(1)))
		Expect(store.roles).To(HaveKey(int64(1)))
		Expect(store.roles).To(HaveKey(int64(2)))
		Expect(store.accounts).To(HaveKey(int64(1)))
		Expect(store.perms).To(HaveKey(int64(1)))

		r, err := store.CreateRole(role.RoleDTO{RoleName: "AUDITOR"})
		Expect(err).NotTo(HaveOccurred())
		Expect(r.ID).To(Equal(int64(3)))
	})

	It("should authenticate the seeded admin and stamp the login", func() {
		u, err := store.Authenticate(AdminUsername, AdminPassword)

		Expect(err).NotTo(HaveOccurred())
		Expect(u.LastLogin.Time).To(Equal(now))
		Expect(u.HasRole(RoleAdmin)).To(BeTrue())
	})

	It("should refuse inactive users", func() {
		u, err := store.Authenticate(AdminUsername, AdminPassword)
		Expect(err).NotTo(HaveOccurred())
		_, err = store.ToggleUserStatus(u.ID)
		Expect(err).NotTo(HaveOccurred())

		_, err = store.Authenticate(AdminUsername, AdminPassword)

		Expect(internal.IsType(err, internal.ErrorTypeUnauthorized)).To(BeTrue())
	})

	It("should combine access across a user's active roles", func() {
		auditor, err := store.CreateRole(role.RoleDTO{RoleName: "AUDITOR"})
		Expect(err).NotTo(HaveOccurred())
		Expect(store.ReplaceForRole(auditor.ID, []permission.Permission{
			{MenuID: menuID(menu.CodeLogManagement), CanRead: true},
		})).To(Succeed())

		u, err := store.CreateUser(user.CreateUserDTO{Username: "kim", Password: "secret1", Email: "kim@example.com", FullName: "Kim Lee"})
		Expect(err).NotTo(HaveOccurred())
		Expect(store.AssignUser(auditor.ID, u.ID)).To(Succeed())

		ctx := context.Background()
		ok, _ := store.HasPermission(ctx, u.ID, string(menu.CodeLogManagement), permission.ActionRead)
		Expect(ok).To(BeTrue())
		ok, _ = store.HasPermission(ctx, u.ID, string(menu.CodeLogManagement), permission.ActionDelete)
		Expect(ok).To(BeFalse())

		Expect(store.SetRoleActive(auditor.ID, false)).To(Succeed())
		ok, _ = store.HasPermission(ctx, u.ID, string(menu.CodeLogManagement), permission.ActionRead)
		Expect(ok).To(BeFalse())
	})

	It("should keep one row per role and menu", func() {
		rl, err := store.CreateRole(role.RoleDTO{RoleName: "EDITOR"})
		Expect(err).NotTo(HaveOccurred())
		dash := menuID(menu.CodeDashboard)

		_, err = store.CreatePermission(permission.Permission{RoleID: rl.ID, MenuID: dash, CanRead: true})
		Expect(err).NotTo(HaveOccurred())
		_, err = store.CreatePermission(permission.Permission{RoleID: rl.ID, MenuID: dash, CanRead: true, CanWrite: true})
		Expect(err).NotTo(HaveOccurred())

		rows := store.PermissionsByRole(rl.ID, false)
		Expect(rows).To(HaveLen(1))
		Expect(rows[0].CanWrite).To(BeTrue())
	})

	It("should reject a parent that would create a cycle", func() {
		system := menuID(menu.CodeSystemManagement)
		logs := menuID(menu.CodeLogManagement)
		current, err := store.Menu(system)
		Expect(err).NotTo(HaveOccurred())

		_, err = store.UpdateMenu(system, menu.MenuDTO{MenuName: current.MenuName, ParentID: &logs})

		Expect(internal.IsType(err, internal.ErrorTypeValidation)).To(BeTrue())
	})

	It("should refuse to delete a menu with children", func() {
		err := store.DeleteMenu(menuID(menu.CodeSystemManagement))

		Expect(internal.IsType(err, internal.ErrorTypeConflict)).To(BeTrue())
	})

	It("should nest the menu tree under its roots", func() {
		roots := store.MenuTree()

		names := make([]string, 0, len(roots))
		for _, m := range roots {
			names = append(names, m.MenuName)
		}
		Expect(names).To(ConsistOf("Dashboard", "System Management", "System Monitoring", "My Profile"))
	})

	It("should drop log entries older than the cutoff", func() {
		now = now.Add(-40 * 24 * time.Hour)
		store.AddLog(syslog.Entry{Action: "OLD", Message: "old"})
		now = now.Add(40 * 24 * time.Hour)
		store.AddLog(syslog.Entry{Action: "NEW", Message: "new"})

		removed := store.CleanupLogs(30)

		Expect(removed).To(Equal(1))
		Expect(store.RecentLogs(1)[0].Action).To(Equal("NEW"))
	})

	It("should forget revoked tokens once they expire", func() {
		store.Revoke("jti-1", now.Add(time.Minute))
		Expect(store.Revoked("jti-1")).To(BeTrue())

		now = now.Add(2 * time.Minute)
		Expect(store.Revoked("jti-1")).To(BeFalse())
	})
})

var _ = Describe("JWTTokenGenerator", func() {
	var (
		now    time.Time
		tokens *JWTTokenGenerator
	)

	BeforeEach(func() {
		now = time.Now()
		tokens = NewJWTTokenGenerator("a-secret", "r-secret", time.Minute, time.Hour)
		tokens.now = func() time.Time { return now }
	})

	It("should round-trip an access token", func() {
		raw, err := tokens.GenerateAccessToken(7, "kim")
		Expect(err).NotTo(HaveOccurred())

		claims, err := tokens.ValidateAccessToken(raw)

		Expect(err).NotTo(HaveOccurred())
		Expect(claims.UserID).To(Equal(int64(7)))
		Expect(claims.Username).To(Equal("kim"))
		Expect(claims.ID).NotTo(BeEmpty())
	})

	It("should not accept an access token as a refresh token", func() {
		raw, err := tokens.GenerateAccessToken(7, "kim")
		Expect(err).NotTo(HaveOccurred())

		_, err = tokens.ValidateRefreshToken(raw)

		Expect(err).To(MatchError(ErrInvalidToken))
	})

	It("should report expiry", func() {
		raw, err := tokens.GenerateAccessToken(7, "kim")
		Expect(err).NotTo(HaveOccurred())

		now = now.Add(2 * time.Minute)
		_, err = tokens.ValidateAccessToken(raw)

		Expect(err).To(MatchError(ErrTokenExpired))
	})
})
