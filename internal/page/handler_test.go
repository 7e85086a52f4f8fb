package page_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"

	"github.com/frahmantamala/school-admin/internal/core/datamodel/testdb"
	"github.com/frahmantamala/school-admin/internal/core/events"
	"github.com/frahmantamala/school-admin/internal/page"
	pagePostgres "github.com/frahmantamala/school-admin/internal/page/postgres"
	"github.com/frahmantamala/school-admin/internal/role"
	rolePostgres "github.com/frahmantamala/school-admin/internal/role/postgres"
	"github.com/frahmantamala/school-admin/internal/transport"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

var _ = Describe("Page Handler Integration", func() {
	var (
		db     *gorm.DB
		router chi.Router
	)

	BeforeEach(func() {
		var err error
		db, err = testdb.Open()
		Expect(err).NotTo(HaveOccurred())

		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		roleService := role.NewService(rolePostgres.NewRoleRepository(db), events.NopPublisher{}, logger)
		service := page.NewService(pagePostgres.NewPageRepository(db), fakeAssignments{}, roleService, events.NopPublisher{}, logger)

		handler := page.NewHandler(&transport.BaseHandler{Logger: logger}, service)
		router = chi.NewRouter()
		router.Get("/pages", handler.ListPages)
		router.Delete("/pages/{id}", handler.DeletePage)
		router.Get("/roles/{id}/pages", handler.GetRolePages)
		router.Put("/roles/{id}/pages", handler.SetRolePages)
		router.Get("/roles/{id}/allowed-pages", handler.GetRoleAllowedPages)
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

	It("updates role pages and reports the allowed set", func() {
		secretary := testdb.SeedRole(db, "secretary", true)
		students := testdb.SeedPage(db, "students", 1)
		testdb.SeedPage(db, "settings", 2)

		w := do(http.MethodPut, "/roles/"+secretary.ID+"/pages", page.SetRolePagesRequest{
			PagePermissions: []page.PagePermissionInput{{PageID: students.ID, CanAccess: true}},
		})
		Expect(w.Code).To(Equal(http.StatusOK))
		var pages page.RolePagesResponse
		Expect(json.NewDecoder(w.Body).Decode(&pages)).To(Succeed())
		Expect(pages.Pages).To(HaveLen(2))

		w = do(http.MethodGet, "/roles/"+secretary.ID+"/allowed-pages", nil)
		Expect(w.Code).To(Equal(http.StatusOK))
		var allowed page.AllowedPagesResponse
		Expect(json.NewDecoder(w.Body).Decode(&allowed)).To(Succeed())
		Expect(allowed.Pages).To(Equal([]string{"students"}))
	})

	It("answers 404 for an unknown role", func() {
		w := do(http.MethodGet, "/roles/"+unknownID+"/pages", nil)
		Expect(w.Code).To(Equal(http.StatusNotFound))
	})

	It("answers 400 for unknown page ids", func() {
		secretary := testdb.SeedRole(db, "secretary", true)
		w := do(http.MethodPut, "/roles/"+secretary.ID+"/pages", page.SetRolePagesRequest{
			PagePermissions: []page.PagePermissionInput{{PageID: unknownID, CanAccess: true}},
		})
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("lists and deletes pages", func() {
		p := testdb.SeedPage(db, "students", 1)
		w := do(http.MethodGet, "/pages", nil)
		Expect(w.Code).To(Equal(http.StatusOK))

		Expect(do(http.MethodDelete, "/pages/"+p.ID, nil).Code).To(Equal(http.StatusNoContent))
		Expect(do(http.MethodDelete, "/pages/"+p.ID, nil).Code).To(Equal(http.StatusNotFound))
	})
})
