package role_test

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	errors "github.com/frahmantamala/school-admin/internal"
	rbacDatamodel "github.com/frahmantamala/school-admin/internal/core/datamodel/rbac"
	userDatamodel "github.com/frahmantamala/school-admin/internal/core/datamodel/user"
	"github.com/frahmantamala/school-admin/internal/core/datamodel/testdb"
	"github.com/frahmantamala/school-admin/internal/core/events"
	"github.com/frahmantamala/school-admin/internal/role"
	rolePostgres "github.com/frahmantamala/school-admin/internal/role/postgres"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

func TestRole(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Role Suite")
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) PublishSync(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType())
	}
	return out
}

var _ = Describe("Role Service", func() {
	var (
		ctx       context.Context
		db        *gorm.DB
		publisher *recordingPublisher
		service   *role.Service
	)

	BeforeEach(func() {
		var err error
		ctx = context.Background()
		db, err = testdb.Open()
		Expect(err).NotTo(HaveOccurred())

		publisher = &recordingPublisher{}
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		service = role.NewService(rolePostgres.NewRoleRepository(db), publisher, logger)
	})

	AfterEach(func() {
		Expect(testdb.Close(db)).To(Succeed())
	})

	Describe("EnsureSystemRoles", func() {
		It("creates the four protected roles once", func() {
			first, err := service.EnsureSystemRoles(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(first).To(HaveLen(4))

			second, err := service.EnsureSystemRoles(ctx)
			Expect(err).NotTo(HaveOccurred())
			for i := range first {
				Expect(second[i].ID).To(Equal(first[i].ID))
				Expect(second[i].IsSystemRole).To(BeTrue())
				Expect(second[i].IsDeletable).To(BeFalse())
			}

			var count int64
			Expect(db.Model(&rbacDatamodel.Role{}).Count(&count).Error).To(Succeed())
			Expect(count).To(BeEquivalentTo(4))
		})
	})

	Describe("CreateRole", func() {
		BeforeEach(func() {
			_, err := service.EnsureSystemRoles(ctx)
			Expect(err).NotTo(HaveOccurred())
		})

		It("stores the trimmed lowercase machine name", func() {
			r, err := service.CreateRole(ctx, role.CreateRoleRequest{Name: "  Librarian ", DisplayName: "Librarian"})
			Expect(err).NotTo(HaveOccurred())
			Expect(r.Name).To(Equal("librarian"))
			Expect(r.IsSystemRole).To(BeFalse())
			Expect(r.IsDeletable).To(BeTrue())
			Expect(r.IsActive).To(BeTrue())
		})

		It("rejects a case-insensitive collision with a reserved name", func() {
			_, err := service.CreateRole(ctx, role.CreateRoleRequest{Name: "Admin", DisplayName: "Admin"})
			Expect(err).To(MatchError(errors.ErrRoleNameConflict))
			Expect(errors.IsType(err, errors.ErrorTypeConflict)).To(BeTrue())
		})

		It("rejects a name already used by a custom role", func() {
			_, err := service.CreateRole(ctx, role.CreateRoleRequest{Name: "librarian", DisplayName: "Librarian"})
			Expect(err).NotTo(HaveOccurred())
			_, err = service.CreateRole(ctx, role.CreateRoleRequest{Name: "LIBRARIAN", DisplayName: "Other"})
			Expect(err).To(MatchError(errors.ErrRoleNameConflict))
		})

		It("rejects malformed names before touching the store", func() {
			_, err := service.CreateRole(ctx, role.CreateRoleRequest{Name: "head teacher", DisplayName: "Head"})
			Expect(errors.IsType(err, errors.ErrorTypeValidation)).To(BeTrue())
		})
	})

	Describe("UpdateRole", func() {
		var systemRoles []*role.Role

		BeforeEach(func() {
			var err error
			systemRoles, err = service.EnsureSystemRoles(ctx)
			Expect(err).NotTo(HaveOccurred())
		})

		It("refuses to rename or deactivate a system role", func() {
			teacher := systemRoles[2]
			newName := "instructor"
			_, err := service.UpdateRole(ctx, teacher.ID, role.UpdateRoleRequest{Name: &newName})
			Expect(err).To(MatchError(errors.ErrSystemRoleImmutable))

			inactive := false
			_, err = service.UpdateRole(ctx, teacher.ID, role.UpdateRoleRequest{IsActive: &inactive})
			Expect(err).To(MatchError(errors.ErrSystemRoleImmutable))
		})

		It("lets a system role change its display name", func() {
			display := "Teaching Staff"
			r, err := service.UpdateRole(ctx, systemRoles[2].ID, role.UpdateRoleRequest{DisplayName: &display})
			Expect(err).NotTo(HaveOccurred())
			Expect(r.DisplayName).To(Equal("Teaching Staff"))
			Expect(publisher.types()).To(ContainElement(events.RoleChanged))
		})

		It("deactivates a custom role", func() {
			custom, err := service.CreateRole(ctx, role.CreateRoleRequest{Name: "librarian", DisplayName: "Librarian"})
			Expect(err).NotTo(HaveOccurred())

			inactive := false
			r, err := service.UpdateRole(ctx, custom.ID, role.UpdateRoleRequest{IsActive: &inactive})
			Expect(err).NotTo(HaveOccurred())
			Expect(r.IsActive).To(BeFalse())
		})

		It("returns not found for an unknown id", func() {
			display := "x"
			_, err := service.UpdateRole(ctx, "0f8fad5b-d9cb-469f-a165-70867728950e", role.UpdateRoleRequest{DisplayName: &display})
			Expect(err).To(MatchError(errors.ErrRoleNotFound))
		})
	})

	Describe("SetRolePermissions", func() {
		var (
			secretary *rbacDatamodel.Role
			read      *rbacDatamodel.Permission
			write     *rbacDatamodel.Permission
		)

		BeforeEach(func() {
			secretary = testdb.SeedRole(db, "secretary", true)
			read = testdb.SeedPermission(db, "students:read")
			write = testdb.SeedPermission(db, "students:write")
		})

		It("replaces the full set", func() {
			testdb.Grant(db, secretary, read)

			perms, err := service.SetRolePermissions(ctx, secretary.ID, []string{write.ID, write.ID})
			Expect(err).NotTo(HaveOccurred())
			Expect(role.PermissionNames(perms)).To(Equal([]string{"students:write"}))
			Expect(publisher.types()).To(Equal([]string{events.RolePermissionsChanged}))
		})

		It("accepts any uuid spelling of an existing permission", func() {
			perms, err := service.SetRolePermissions(ctx, secretary.ID, []string{
				strings.ToUpper(write.ID), "{" + write.ID + "}", "urn:uuid:" + read.ID,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(role.PermissionNames(perms)).To(Equal([]string{"students:read", "students:write"}))
		})

		It("empties the set when given an empty list", func() {
			testdb.Grant(db, secretary, read, write)

			_, err := service.SetRolePermissions(ctx, secretary.ID, []string{})
			Expect(err).NotTo(HaveOccurred())

			perms, err := service.PermissionsForRole(ctx, secretary.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(perms).To(BeEmpty())
		})

		It("rejects unknown ids without changing anything", func() {
			testdb.Grant(db, secretary, read)
			missing := "0f8fad5b-d9cb-469f-a165-70867728950e"

			_, err := service.SetRolePermissions(ctx, secretary.ID, []string{write.ID, missing, "garbage"})
			Expect(err).To(HaveOccurred())
			appErr, ok := errors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(errors.ErrCodeInvalidPermissionID))
			Expect(appErr.Message).To(ContainSubstring(missing))
			Expect(appErr.Message).To(ContainSubstring("garbage"))

			perms, err := service.PermissionsForRole(ctx, secretary.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(role.PermissionNames(perms)).To(Equal([]string{"students:read"}))
			Expect(publisher.types()).To(BeEmpty())
		})

		It("returns not found for an unknown role", func() {
			_, err := service.SetRolePermissions(ctx, "0f8fad5b-d9cb-469f-a165-70867728950e", []string{read.ID})
			Expect(err).To(MatchError(errors.ErrRoleNotFound))
		})

		It("requires the list to be present", func() {
			_, err := service.SetRolePermissions(ctx, secretary.ID, nil)
			Expect(errors.IsType(err, errors.ErrorTypeValidation)).To(BeTrue())
		})
	})

	Describe("PermissionsForRole", func() {
		It("is empty for an unknown role", func() {
			perms, err := service.PermissionsForRole(ctx, "0f8fad5b-d9cb-469f-a165-70867728950e")
			Expect(err).NotTo(HaveOccurred())
			Expect(perms).To(BeEmpty())
		})

		It("skips inactive permissions and resolves by name", func() {
			teacher := testdb.SeedRole(db, "teacher", true)
			classesRead := testdb.SeedPermission(db, "classes:read")
			retired := testdb.SeedPermission(db, "classes:archive")
			Expect(db.Model(retired).Update("is_active", false).Error).To(Succeed())
			testdb.Grant(db, teacher, classesRead, retired)

			perms, err := service.PermissionsForRoleName(ctx, "Teacher")
			Expect(err).NotTo(HaveOccurred())
			Expect(role.PermissionNames(perms)).To(Equal([]string{"classes:read"}))
		})
	})

	Describe("DeleteRole", func() {
		It("rejects system roles", func() {
			roles, err := service.EnsureSystemRoles(ctx)
			Expect(err).NotTo(HaveOccurred())

			for _, r := range roles {
				err := service.DeleteRole(ctx, r.ID)
				Expect(err).To(MatchError(errors.ErrSystemRoleImmutable))
				Expect(errors.IsType(err, errors.ErrorTypeForbidden)).To(BeTrue())
			}
		})

		It("cascades grants and leaves users roleless", func() {
			custom := testdb.SeedRole(db, "librarian", false)
			perm := testdb.SeedPermission(db, "books:read")
			page := testdb.SeedPage(db, "library", 1)
			testdb.Grant(db, custom, perm)
			testdb.AllowPage(db, custom, page, true)
			u := testdb.SeedUser(db, "lib@school.test", custom)

			Expect(service.DeleteRole(ctx, custom.ID)).To(Succeed())

			var grants, pageGrants int64
			Expect(db.Model(&rbacDatamodel.RolePermission{}).Where("role_id = ?", custom.ID).Count(&grants).Error).To(Succeed())
			Expect(db.Model(&rbacDatamodel.RolePagePermission{}).Where("role_id = ?", custom.ID).Count(&pageGrants).Error).To(Succeed())
			Expect(grants).To(BeZero())
			Expect(pageGrants).To(BeZero())

			var reloaded userDatamodel.User
			Expect(db.First(&reloaded, "id = ?", u.ID).Error).To(Succeed())
			Expect(reloaded.RoleID).To(BeNil())

			_, err := service.GetRole(ctx, custom.ID)
			Expect(err).To(MatchError(errors.ErrRoleNotFound))
			Expect(publisher.types()).To(ContainElement(events.RoleDeleted))
		})
	})
})
