package auth

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"time"

	errors "github.com/frahmantamala/school-admin/internal"
	"github.com/frahmantamala/school-admin/internal/core/datamodel/testdb"
	"github.com/frahmantamala/school-admin/internal/core/events"
	"github.com/frahmantamala/school-admin/internal/core/rbac"
	"github.com/frahmantamala/school-admin/internal/observability/metrics"
	"github.com/frahmantamala/school-admin/internal/page"
	pagePostgres "github.com/frahmantamala/school-admin/internal/page/postgres"
	"github.com/frahmantamala/school-admin/internal/permission"
	permissionPostgres "github.com/frahmantamala/school-admin/internal/permission/postgres"
	"github.com/frahmantamala/school-admin/internal/role"
	rolePostgres "github.com/frahmantamala/school-admin/internal/role/postgres"
	"github.com/frahmantamala/school-admin/internal/transport"
	"github.com/frahmantamala/school-admin/internal/user"
	userPostgres "github.com/frahmantamala/school-admin/internal/user/postgres"
	"github.com/go-chi/chi"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// principalsByToken treats the bearer token as a user id.
type principalsByToken map[string]rbac.Principal

func (f principalsByToken) ResolvePrincipal(_ context.Context, token string) (rbac.Principal, error) {
	if token == "" {
		return rbac.Principal{}, errors.ErrMissingToken
	}
	p, ok := f[token]
	if !ok {
		return rbac.Principal{}, errors.ErrInvalidToken
	}
	return p, nil
}

type fakePermissions struct {
	sets  map[string][]string
	err   error
	calls int
}

func (f *fakePermissions) EffectivePermissions(_ context.Context, userID string) (rbac.PermissionSet, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return rbac.NewPermissionSet(f.sets[userID]...), nil
}

type fakePages struct {
	allowed map[string][]string
	calls   int
}

func (f *fakePages) HasPagePermission(_ context.Context, userID, pageName string) (bool, error) {
	f.calls++
	for _, p := range f.allowed[userID] {
		if p == pageName {
			return true, nil
		}
	}
	return false, nil
}

type recordedDecisions []string

func (r *recordedDecisions) RecordDecision(check, outcome string) {
	*r = append(*r, check+"/"+outcome)
}

var _ = ginkgo.Describe("Gate", func() {
	var (
		gate      *Gate
		perms     *fakePermissions
		pages     *fakePages
		decisions *recordedDecisions
		router    chi.Router
	)

	ok := func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }

	ginkgo.BeforeEach(func() {
		principals := principalsByToken{
			"admin":     {UserID: "a", RoleID: "r-admin", RoleName: rbac.RoleAdmin},
			"secretary": {UserID: "s", RoleID: "r-sec", RoleName: rbac.RoleSecretary},
			"teacher":   {UserID: "t", RoleID: "r-teacher", RoleName: rbac.RoleTeacher},
			"roleless":  {UserID: "n"},
		}
		perms = &fakePermissions{sets: map[string][]string{
			"s": {"students:read", "students:write", "users:read"},
			"t": {"classes:read"},
		}}
		pages = &fakePages{allowed: map[string][]string{"s": {"students"}}}
		decisions = &recordedDecisions{}

		base := &transport.BaseHandler{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
		gate = NewGate(base, principals, perms, pages, decisions)

		router = chi.NewRouter()
		router.Group(func(r chi.Router) {
			r.Use(gate.RequireAuthenticated)
			r.Get("/me", ok)
			r.With(gate.RequirePermission("students:write")).Post("/students", ok)
			r.With(gate.RequirePermission(rbac.PermissionManage)).Put("/overrides", ok)
			r.With(gate.RequirePermission(rbac.UsersRead), gate.RequirePagePermission("users")).Get("/users", ok)
			r.With(gate.RequirePagePermission("students")).Get("/students-page", ok)
			r.With(gate.RequireAdmin()).Delete("/roles", ok)
			r.With(gate.RequireAdminOrSecretary()).Post("/users", ok)
		})
		router.With(gate.RequireAdmin()).Get("/unauthenticated-admin", ok)
	})

	call := func(method, path, token string) int {
		req := httptest.NewRequest(method, path, nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	ginkgo.It("answers 401 without a valid credential and runs no checks", func() {
		gomega.Expect(call(http.MethodPost, "/students", "")).To(gomega.Equal(http.StatusUnauthorized))
		gomega.Expect(call(http.MethodPost, "/students", "forged")).To(gomega.Equal(http.StatusUnauthorized))
		gomega.Expect(call(http.MethodGet, "/unauthenticated-admin", "")).To(gomega.Equal(http.StatusUnauthorized))
		gomega.Expect(perms.calls).To(gomega.BeZero())
		gomega.Expect(*decisions).To(gomega.HaveEach(gomega.HaveSuffix("/unauthenticated")))
	})

	ginkgo.It("lets admin through every check without resolving", func() {
		gomega.Expect(call(http.MethodPost, "/students", "admin")).To(gomega.Equal(http.StatusOK))
		gomega.Expect(call(http.MethodPut, "/overrides", "admin")).To(gomega.Equal(http.StatusOK))
		gomega.Expect(call(http.MethodGet, "/users", "admin")).To(gomega.Equal(http.StatusOK))
		gomega.Expect(call(http.MethodDelete, "/roles", "admin")).To(gomega.Equal(http.StatusOK))
		gomega.Expect(perms.calls).To(gomega.BeZero())
		gomega.Expect(pages.calls).To(gomega.BeZero())
	})

	ginkgo.It("lets the secretary write students but not manage permissions", func() {
		gomega.Expect(call(http.MethodPost, "/students", "secretary")).To(gomega.Equal(http.StatusOK))
		gomega.Expect(call(http.MethodPut, "/overrides", "secretary")).To(gomega.Equal(http.StatusForbidden))
		gomega.Expect(*decisions).To(gomega.ContainElement("permission/deny"))
	})

	ginkgo.It("requires both the permission and the page when a route asks for both", func() {
		gomega.Expect(call(http.MethodGet, "/users", "secretary")).To(gomega.Equal(http.StatusForbidden))
		pages.allowed["s"] = append(pages.allowed["s"], "users")
		gomega.Expect(call(http.MethodGet, "/users", "secretary")).To(gomega.Equal(http.StatusOK))
		gomega.Expect(call(http.MethodGet, "/users", "teacher")).To(gomega.Equal(http.StatusForbidden))
	})

	ginkgo.It("checks pages independently of permissions", func() {
		gomega.Expect(call(http.MethodGet, "/students-page", "secretary")).To(gomega.Equal(http.StatusOK))
		gomega.Expect(call(http.MethodGet, "/students-page", "teacher")).To(gomega.Equal(http.StatusForbidden))
	})

	ginkgo.It("applies role predicates to the resolved role", func() {
		gomega.Expect(call(http.MethodDelete, "/roles", "secretary")).To(gomega.Equal(http.StatusForbidden))
		gomega.Expect(call(http.MethodPost, "/users", "secretary")).To(gomega.Equal(http.StatusOK))
		gomega.Expect(call(http.MethodPost, "/users", "teacher")).To(gomega.Equal(http.StatusForbidden))
		gomega.Expect(call(http.MethodPost, "/users", "roleless")).To(gomega.Equal(http.StatusForbidden))
	})

	ginkgo.It("answers 500 when the resolver fails", func() {
		perms.err = errors.NewInternalError("db down", nil)
		gomega.Expect(call(http.MethodPost, "/students", "teacher")).To(gomega.Equal(http.StatusInternalServerError))
		gomega.Expect(*decisions).To(gomega.ContainElement("permission/error"))
	})

	ginkgo.It("treats a user deleted mid-request as unauthenticated", func() {
		perms.err = errors.ErrUserNotFound
		gomega.Expect(call(http.MethodPost, "/students", "teacher")).To(gomega.Equal(http.StatusUnauthorized))
	})

	ginkgo.It("exposes check functions directly", func() {
		ctx := context.Background()
		teacher := rbac.Principal{UserID: "t", RoleID: "r-teacher", RoleName: rbac.RoleTeacher}
		gomega.Expect(gate.CheckPermission(ctx, teacher, "classes:read")).To(gomega.Succeed())
		gomega.Expect(gate.CheckPermission(ctx, teacher, "classes:write")).To(gomega.MatchError(errors.ErrInsufficientPermission))
		gomega.Expect(gate.CheckPagePermission(ctx, teacher, "students")).To(gomega.MatchError(errors.ErrPageAccessDenied))
		gomega.Expect(gate.CheckAdmin(ctx, teacher)).To(gomega.MatchError(errors.ErrRoleRequired))
	})
})

var _ = ginkgo.Describe("Gate Integration", func() {
	var (
		db       *gorm.DB
		router   chi.Router
		tokenGen *JWTTokenGenerator
		reg      *prometheus.Registry
	)

	ginkgo.BeforeEach(func() {
		var err error
		db, err = testdb.Open()
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		sqlxDB, err := testdb.SQLX(db)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())

		lg := slog.New(slog.NewTextHandler(io.Discard, nil))
		bus := events.NewEventBus(lg)
		roleService := role.NewService(rolePostgres.NewRoleRepository(db), bus, lg)
		userService := user.NewService(userPostgres.NewUserRepository(sqlxDB), roleService, bus, bcrypt.MinCost, lg)
		permissionService := permission.NewService(permissionPostgres.NewPermissionRepository(db), userService, roleService, bus, lg)
		pageService := page.NewService(pagePostgres.NewPageRepository(db), userService, roleService, bus, lg)

		tokenGen = NewJWTTokenGenerator(testSecret, time.Hour, 24*time.Hour)
		service := NewService(userService, tokenGen, lg)
		reg = prometheus.NewRegistry()
		base := &transport.BaseHandler{Logger: lg}
		gate := NewGate(base, service, permissionService, pageService, metrics.NewAuthzMetrics(reg))
		handler := NewHandler(base, service, permissionService, pageService)

		router = chi.NewRouter()
		router.Post("/auth/login", handler.Login)
		router.Group(func(r chi.Router) {
			r.Use(gate.RequireAuthenticated)
			r.Get("/auth/me", handler.Me)
			r.With(gate.RequirePermission("classes:write")).Post("/classes", func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusCreated)
			})
		})
	})

	ginkgo.AfterEach(func() {
		gomega.Expect(testdb.Close(db)).To(gomega.Succeed())
	})

	ginkgo.It("applies a per-user grant on the next request without a new login", func() {
		teacherRole := testdb.SeedRole(db, rbac.RoleTeacher, true)
		read := testdb.SeedPermission(db, "classes:read")
		write := testdb.SeedPermission(db, "classes:write")
		testdb.Grant(db, teacherRole, read)
		classesPage := testdb.SeedPage(db, "classes", 1)
		testdb.AllowPage(db, teacherRole, classesPage, true)
		teacher := testdb.SeedUser(db, "t1@school.test", teacherRole)
		colleague := testdb.SeedUser(db, "t2@school.test", teacherRole)

		token, err := tokenGen.GenerateAccessToken(teacher.ID, teacher.Email)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		colleagueToken, err := tokenGen.GenerateAccessToken(colleague.ID, colleague.Email)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())

		post := func(tok string) int {
			req := httptest.NewRequest(http.MethodPost, "/classes", nil)
			req.Header.Set("Authorization", "Bearer "+tok)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			return w.Code
		}

		gomega.Expect(post(token)).To(gomega.Equal(http.StatusForbidden))
		testdb.Override(db, teacher, write, true)
		gomega.Expect(post(token)).To(gomega.Equal(http.StatusCreated))
		gomega.Expect(post(colleagueToken)).To(gomega.Equal(http.StatusForbidden))

		req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		gomega.Expect(w.Code).To(gomega.Equal(http.StatusOK))

		var me MeResponse
		gomega.Expect(json.NewDecoder(w.Body).Decode(&me)).To(gomega.Succeed())
		gomega.Expect(me.RoleName).To(gomega.Equal(rbac.RoleTeacher))
		gomega.Expect(me.EffectivePermissions).To(gomega.Equal([]string{"classes:read", "classes:write"}))
		gomega.Expect(me.AllowedPages).To(gomega.Equal([]string{"classes"}))
	})

	ginkgo.It("locks out a user deactivated after login", func() {
		u := testdb.SeedUser(db, "x@school.test", nil)
		token, err := tokenGen.GenerateAccessToken(u.ID, u.Email)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(db.Model(u).Update("is_active", false).Error).To(gomega.Succeed())

		req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		gomega.Expect(w.Code).To(gomega.Equal(http.StatusUnauthorized))

		families, err := reg.Gather()
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		names := []string{}
		for _, mf := range families {
			names = append(names, mf.GetName())
		}
		gomega.Expect(names).To(gomega.ContainElement("school_authz_decisions_total"))
	})
})
