package role_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/frahmantamala/admin-console/internal"
	"github.com/frahmantamala/admin-console/internal/apiclient/apiclienttest"
	"github.com/frahmantamala/admin-console/internal/role"
	"github.com/frahmantamala/admin-console/pkg/logger"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestRole(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Role Suite")
}

func roleJSON(id int64, name string, active bool) map[string]any {
	return map[string]any{"id": id, "roleName": name, "isActive": active}
}

var _ = Describe("Role", func() {
	var (
		ctx   context.Context
		api   *apiclienttest.Requester
		svc   *role.Service
		roles *role.Slice
	)

	BeforeEach(func() {
		ctx = context.Background()
		api = apiclienttest.New()
		svc = role.NewService(api, logger.Discard())
		roles = role.NewSlice(svc, logger.Discard())
		api.On(http.MethodGet, "/roles", http.StatusOK, apiclienttest.Wrap([]any{
			roleJSON(1, "ADMIN", true),
			roleJSON(2, "USER", true),
		}))
		Expect(roles.Fetch(ctx, nil)).To(Succeed())
	})

	It("should validate role names", func() {
		_, err := roles.Add(ctx, role.RoleDTO{RoleName: "auditor"})

		Expect(internal.IsType(err, internal.ErrorTypeValidation)).To(BeTrue())
		Expect(roles.Items()).To(HaveLen(2))
		Expect(roles.Err()).To(HaveOccurred())
	})

	It("should append a created role", func() {
		api.On(http.MethodPost, "/roles", http.StatusOK, apiclienttest.Wrap(roleJSON(3, "AUDITOR", true)))

		created, err := roles.Add(ctx, role.RoleDTO{RoleName: "AUDITOR", Description: "Read only"})

		Expect(err).NotTo(HaveOccurred())
		Expect(created.RoleName).To(Equal("AUDITOR"))
		Expect(roles.Items()).To(HaveLen(3))
	})

	It("should reload a deactivated role", func() {
		api.On(http.MethodPut, "/roles/2/deactivate", http.StatusOK, apiclienttest.Wrap(nil))
		api.On(http.MethodGet, "/roles/2", http.StatusOK, apiclienttest.Wrap(roleJSON(2, "USER", false)))

		updated, err := roles.SetActive(ctx, 2, false)

		Expect(err).NotTo(HaveOccurred())
		Expect(updated.IsActiveRole()).To(BeFalse())
		r, found := roles.Get(2)
		Expect(found).To(BeTrue())
		Expect(r.IsActiveRole()).To(BeFalse())
	})

	It("should leave the cache alone when an update targets an unknown role", func() {
		api.On(http.MethodPut, "/roles/9", http.StatusOK, apiclienttest.Wrap(roleJSON(9, "GHOST", true)))

		_, err := roles.Edit(ctx, 9, role.RoleDTO{RoleName: "GHOST"})

		Expect(err).NotTo(HaveOccurred())
		Expect(roles.Items()).To(HaveLen(2))
		_, found := roles.Get(9)
		Expect(found).To(BeFalse())
	})

	It("should assign and remove users by path", func() {
		api.On(http.MethodPost, "/roles/1/assign-user/7", http.StatusOK, apiclienttest.Wrap(nil))
		api.On(http.MethodDelete, "/roles/1/remove-user/7", http.StatusOK, apiclienttest.Wrap(nil))

		Expect(svc.AssignUser(ctx, 1, 7)).To(Succeed())
		Expect(svc.RemoveUser(ctx, 1, 7)).To(Succeed())
		Expect(api.Calls()).To(HaveLen(3))
	})

	It("should list the user ids of a role", func() {
		api.On(http.MethodGet, "/roles/1/users", http.StatusOK, apiclienttest.Wrap([]int64{1, 4}))

		ids, err := svc.UserIDs(ctx, 1)

		Expect(err).NotTo(HaveOccurred())
		Expect(ids).To(Equal([]int64{1, 4}))
	})

	It("should refuse to delete a role in use", func() {
		api.On(http.MethodDelete, "/roles/1", http.StatusConflict, `{"message":"Role is assigned to users"}`)

		err := roles.Delete(ctx, 1)

		Expect(internal.IsType(err, internal.ErrorTypeConflict)).To(BeTrue())
		Expect(roles.Items()).To(HaveLen(2))
	})
})
