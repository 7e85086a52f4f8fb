package role_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"

	"github.com/frahmantamala/school-admin/internal/core/datamodel/testdb"
	"github.com/frahmantamala/school-admin/internal/core/events"
	"github.com/frahmantamala/school-admin/internal/role"
	rolePostgres "github.com/frahmantamala/school-admin/internal/role/postgres"
	"github.com/frahmantamala/school-admin/internal/transport"
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

var _ = Describe("Role Handler Integration", func() {
	var (
		db     *gorm.DB
		router chi.Router
	)

	BeforeEach(func() {
		var err error
		db, err = testdb.Open()
		Expect(err).NotTo(HaveOccurred())

		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		service := role.NewService(rolePostgres.NewRoleRepository(db), events.NopPublisher{}, logger)
		_, err = service.EnsureSystemRoles(context.Background())
		Expect(err).NotTo(HaveOccurred())

		handler := role.NewHandler(&transport.BaseHandler{Logger: logger}, service)
		router = chi.NewRouter()
		router.Get("/roles", handler.ListRoles)
		router.Post("/roles", handler.CreateRole)
		router.Get("/roles/{id}", handler.GetRole)
		router.Delete("/roles/{id}", handler.DeleteRole)
		router.Get("/roles/{id}/permissions", handler.GetRolePermissions)
		router.Put("/roles/{id}/permissions", handler.SetRolePermissions)
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

	It("lists system roles first", func() {
		w := do(http.MethodGet, "/roles", nil)
		Expect(w.Code).To(Equal(http.StatusOK))

		var resp role.RolesResponse
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		Expect(resp.Roles).To(HaveLen(4))
		Expect(resp.Roles[0].IsSystemRole).To(BeTrue())
	})

	It("answers 409 for a reserved name", func() {
		w := do(http.MethodPost, "/roles", map[string]string{"name": "Admin", "displayName": "Admin"})
		Expect(w.Code).To(Equal(http.StatusConflict))

		var resp errorBody
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		Expect(resp.Error.Code).To(Equal("ROLE_NAME_CONFLICT"))
	})

	It("answers 400 for a malformed body", func() {
		req := httptest.NewRequest(http.MethodPost, "/roles", bytes.NewBufferString("{"))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("answers 403 when deleting a system role", func() {
		protected := testdb.SeedRole(db, "head", false)
		Expect(db.Model(protected).Updates(map[string]interface{}{"is_system_role": true, "is_deletable": false}).Error).To(Succeed())

		w := do(http.MethodDelete, "/roles/"+protected.ID, nil)
		Expect(w.Code).To(Equal(http.StatusForbidden))

		var resp errorBody
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		Expect(resp.Error.Code).To(Equal("SYSTEM_ROLE_IMMUTABLE"))
	})

	It("replaces and reads back role permissions", func() {
		custom := testdb.SeedRole(db, "librarian", false)
		p := testdb.SeedPermission(db, "books:read")

		w := do(http.MethodPut, "/roles/"+custom.ID+"/permissions", role.SetRolePermissionsRequest{PermissionIDs: []string{p.ID}})
		Expect(w.Code).To(Equal(http.StatusOK))

		w = do(http.MethodGet, "/roles/"+custom.ID+"/permissions", nil)
		Expect(w.Code).To(Equal(http.StatusOK))
		var resp role.RolePermissionsResponse
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		Expect(role.PermissionNames(resp.Permissions)).To(Equal([]string{"books:read"}))
	})

	It("answers 400 naming unknown permission ids", func() {
		custom := testdb.SeedRole(db, "librarian", false)
		w := do(http.MethodPut, "/roles/"+custom.ID+"/permissions", role.SetRolePermissionsRequest{PermissionIDs: []string{"nope"}})
		Expect(w.Code).To(Equal(http.StatusBadRequest))

		var resp errorBody
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		Expect(resp.Error.Code).To(Equal("INVALID_PERMISSION_IDS"))
		Expect(resp.Error.Message).To(ContainSubstring("nope"))
	})

	It("answers 404 for permissions of an unknown role", func() {
		w := do(http.MethodGet, "/roles/0f8fad5b-d9cb-469f-a165-70867728950e/permissions", nil)
		Expect(w.Code).To(Equal(http.StatusNotFound))
	})
})
