package permission_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"

	"github.com/frahmantamala/school-admin/internal/core/datamodel/testdb"
	"github.com/frahmantamala/school-admin/internal/core/events"
	"github.com/frahmantamala/school-admin/internal/permission"
	permissionPostgres "github.com/frahmantamala/school-admin/internal/permission/postgres"
	"github.com/frahmantamala/school-admin/internal/role"
	rolePostgres "github.com/frahmantamala/school-admin/internal/role/postgres"
	"github.com/frahmantamala/school-admin/internal/transport"
	"github.com/frahmantamala/school-admin/internal/user"
	userPostgres "github.com/frahmantamala/school-admin/internal/user/postgres"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

type errorBody struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

var _ = Describe("Permission Handler Integration", func() {
	var (
		db     *gorm.DB
		router chi.Router
	)

	BeforeEach(func() {
		var err error
		db, err = testdb.Open()
		Expect(err).NotTo(HaveOccurred())
		sqlxDB, err := testdb.SQLX(db)
		Expect(err).NotTo(HaveOccurred())

		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		roleService := role.NewService(rolePostgres.NewRoleRepository(db), events.NopPublisher{}, logger)
		userService := user.NewService(userPostgres.NewUserRepository(sqlxDB), roleService, events.NopPublisher{}, 4, logger)
		service := permission.NewService(permissionPostgres.NewPermissionRepository(db), userService, roleService, events.NopPublisher{}, logger)

		handler := permission.NewHandler(&transport.BaseHandler{Logger: logger}, service)
		router = chi.NewRouter()
		router.Get("/permissions", handler.ListPermissions)
		router.Delete("/permissions/{id}", handler.DeletePermission)
		router.Get("/users/{id}/permissions", handler.GetUserPermissions)
		router.Put("/users/{id}/permissions", handler.SetUserPermissions)
	})

	AfterEach(func() {
		Expect(testdb.Close(db)).To(Succeed())
	})

	do := func(method, path string, body interface{}) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if body != nil {
			Expect(json.NewEncoder(&buf).Encode(body)).To(Succeed())
		}
		req := httptest.NewRequest(method, path, &buf)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	It("replaces overrides and returns the resulting view", func() {
		teacher := testdb.SeedRole(db, "teacher", true)
		read := testdb.SeedPermission(db, "classes:read")
		write := testdb.SeedPermission(db, "classes:write")
		testdb.Grant(db, teacher, read)
		u := testdb.SeedUser(db, "t@school.test", teacher)

		w := do(http.MethodPut, "/users/"+u.ID+"/permissions", permission.SetOverridesRequest{
			Overrides: []permission.OverrideInput{{PermissionID: write.ID, IsGranted: true}},
		})
		Expect(w.Code).To(Equal(http.StatusOK))

		var view permission.UserPermissionView
		Expect(json.NewDecoder(w.Body).Decode(&view)).To(Succeed())
		Expect(view.RoleName).To(Equal("teacher"))
		Expect(view.Effective).To(Equal([]string{"classes:read", "classes:write"}))

		w = do(http.MethodGet, "/users/"+u.ID+"/permissions", nil)
		Expect(w.Code).To(Equal(http.StatusOK))
	})

	It("answers 400 for conflicting overrides", func() {
		u := testdb.SeedUser(db, "t@school.test", nil)
		p := testdb.SeedPermission(db, "classes:write")

		w := do(http.MethodPut, "/users/"+u.ID+"/permissions", permission.SetOverridesRequest{
			Overrides: []permission.OverrideInput{
				{PermissionID: p.ID, IsGranted: true},
				{PermissionID: p.ID, IsGranted: false},
			},
		})
		Expect(w.Code).To(Equal(http.StatusBadRequest))

		var resp errorBody
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		Expect(resp.Error.Code).To(Equal("DUPLICATE_OVERRIDE"))
	})

	It("answers 400 when the overrides field is missing", func() {
		u := testdb.SeedUser(db, "t@school.test", nil)
		w := do(http.MethodPut, "/users/"+u.ID+"/permissions", map[string]string{})
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("answers 404 for an unknown user", func() {
		w := do(http.MethodGet, "/users/"+unknownID+"/permissions", nil)
		Expect(w.Code).To(Equal(http.StatusNotFound))

		var resp errorBody
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		Expect(resp.Error.Code).To(Equal("USER_NOT_FOUND"))
	})

	It("lists and deletes catalog permissions", func() {
		p := testdb.SeedPermission(db, "fees:read")
		testdb.SeedPermission(db, "attendance:read")

		w := do(http.MethodGet, "/permissions", nil)
		Expect(w.Code).To(Equal(http.StatusOK))
		var resp permission.PermissionsResponse
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		Expect(resp.Permissions).To(HaveLen(2))
		Expect(resp.Permissions[0].Name).To(Equal("attendance:read"))

		Expect(do(http.MethodDelete, "/permissions/"+p.ID, nil).Code).To(Equal(http.StatusNoContent))
		Expect(do(http.MethodDelete, "/permissions/"+p.ID, nil).Code).To(Equal(http.StatusNotFound))
	})
})
