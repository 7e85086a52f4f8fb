package rbac_test

import (
	"context"
	"testing"

	"github.com/frahmantamala/school-admin/internal/core/rbac"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestRBAC(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "RBAC Core Suite")
}

var _ = Describe("Role names", func() {
	It("treats only the exact admin machine name as admin", func() {
		Expect(rbac.IsAdminRole("admin")).To(BeTrue())
		Expect(rbac.IsAdminRole("Admin")).To(BeFalse())
		Expect(rbac.IsAdminRole("")).To(BeFalse())
		Expect(rbac.IsAdminRole("secretary")).To(BeFalse())
	})

	It("detects reserved names case-insensitively", func() {
		Expect(rbac.IsReservedRoleName("Admin")).To(BeTrue())
		Expect(rbac.IsReservedRoleName("  TEACHER ")).To(BeTrue())
		Expect(rbac.IsReservedRoleName("librarian")).To(BeFalse())
	})

	It("returns a copy of the system role list", func() {
		names := rbac.SystemRoleNames()
		names[0] = "mutated"
		Expect(rbac.SystemRoleNames()).To(Equal([]string{"admin", "secretary", "teacher", "student"}))
	})
})

var _ = Describe("PermissionSet", func() {
	It("adds, removes and sorts names", func() {
		set := rbac.NewPermissionSet("students:write", "classes:read")
		set.Add("classes:read")
		Expect(set.Len()).To(Equal(2))
		set.Remove("students:write")
		Expect(set.Has("students:write")).To(BeFalse())
		set.Add("attendance:read")
		Expect(set.Names()).To(Equal([]string{"attendance:read", "classes:read"}))
	})

	It("splits resource and action", func() {
		resource, action, ok := rbac.SplitPermissionName("students:write")
		Expect(ok).To(BeTrue())
		Expect(resource).To(Equal("students"))
		Expect(action).To(Equal("write"))

		_, _, ok = rbac.SplitPermissionName("students")
		Expect(ok).To(BeFalse())
		_, _, ok = rbac.SplitPermissionName("a:b:c")
		Expect(ok).To(BeFalse())
		Expect(rbac.PermissionName("classes", "read")).To(Equal("classes:read"))
	})
})

var _ = Describe("Principal", func() {
	It("reports role membership from the resolved name", func() {
		p := rbac.Principal{UserID: "u1", RoleID: "r1", RoleName: "secretary"}
		Expect(p.HasRole()).To(BeTrue())
		Expect(p.IsAdmin()).To(BeFalse())
		Expect(p.HasAnyRole("admin", "secretary")).To(BeTrue())
		Expect(rbac.Principal{UserID: "u2"}.HasAnyRole("")).To(BeFalse())
	})
})

var _ = Describe("Assignment", func() {
	It("drops an inactive role", func() {
		a := rbac.Assignment{UserID: "u1", UserActive: true, RoleID: "r1", RoleName: "admin", RoleActive: false}
		Expect(a.EffectiveRoleName()).To(BeEmpty())
		Expect(a.IsAdmin()).To(BeFalse())

		p := a.Principal("a@school.test")
		Expect(p.HasRole()).To(BeFalse())
		Expect(p.IsAdmin()).To(BeFalse())
	})

	It("carries an active role into the principal", func() {
		a := rbac.Assignment{UserID: "u1", UserActive: true, RoleID: "r1", RoleName: "admin", RoleActive: true}
		p := a.Principal("a@school.test")
		Expect(p).To(Equal(rbac.Principal{UserID: "u1", Email: "a@school.test", RoleID: "r1", RoleName: "admin"}))
		Expect(p.IsAdmin()).To(BeTrue())
	})
})

var _ = Describe("Principal context", func() {
	It("round-trips and rejects an empty principal", func() {
		_, ok := rbac.PrincipalFromContext(context.Background())
		Expect(ok).To(BeFalse())

		ctx := rbac.WithPrincipal(context.Background(), rbac.Principal{UserID: "u1", RoleName: "teacher"})
		p, ok := rbac.PrincipalFromContext(ctx)
		Expect(ok).To(BeTrue())
		Expect(p.RoleName).To(Equal("teacher"))

		_, ok = rbac.PrincipalFromContext(rbac.WithPrincipal(context.Background(), rbac.Principal{}))
		Expect(ok).To(BeFalse())
	})
})
