package internal_test

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/frahmantamala/school-admin/internal"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("AppError", func() {
	It("matches sentinels through wrapping and copies", func() {
		wrapped := fmt.Errorf("resolve: %w", internal.ErrInsufficientPermission.WithCause(fmt.Errorf("denied")))

		Expect(wrapped).To(MatchError(internal.ErrInsufficientPermission))
		Expect(wrapped).NotTo(MatchError(internal.ErrPageAccessDenied))
		Expect(internal.IsType(wrapped, internal.ErrorTypeForbidden)).To(BeTrue())
		Expect(internal.ErrInsufficientPermission.Cause).To(BeNil())
	})

	It("maps sentinels to their status codes", func() {
		Expect(internal.ErrMissingToken.StatusCode).To(Equal(http.StatusUnauthorized))
		Expect(internal.ErrInsufficientPermission.StatusCode).To(Equal(http.StatusForbidden))
		Expect(internal.ErrSystemRoleImmutable.StatusCode).To(Equal(http.StatusForbidden))
		Expect(internal.ErrRoleNameConflict.StatusCode).To(Equal(http.StatusConflict))
		Expect(internal.ErrRoleNotFound.StatusCode).To(Equal(http.StatusNotFound))
		Expect(internal.NewInternalError("boom", nil).StatusCode).To(Equal(http.StatusInternalServerError))
	})

	It("never serializes the cause", func() {
		err := internal.NewInternalError("failed to load", fmt.Errorf("pq: password authentication failed"))
		status, body := err.ToHTTPResponse()
		raw, marshalErr := json.Marshal(body)

		Expect(marshalErr).NotTo(HaveOccurred())
		Expect(status).To(Equal(http.StatusInternalServerError))
		Expect(string(raw)).To(MatchJSON(`{"error":{"type":"INTERNAL_ERROR","code":"INTERNAL_ERROR","message":"failed to load"}}`))
		Expect(err.Error()).To(ContainSubstring("password authentication failed"))
	})

	It("lists every unknown id", func() {
		err := internal.NewInvalidIDsError("permissionIds", []string{"a", "b"}, internal.ErrCodeInvalidPermissionID)

		Expect(err.Code).To(Equal(internal.ErrCodeInvalidPermissionID))
		Expect(err.StatusCode).To(Equal(http.StatusBadRequest))
		Expect(err.Details.(internal.ValidationErrors).Errors).To(HaveLen(2))
		Expect(err.GetDetailedMessage()).To(Equal("permissionIds does not exist: a; permissionIds does not exist: b"))
	})

	It("is not found by IsAppError on plain errors", func() {
		_, ok := internal.IsAppError(fmt.Errorf("plain"))
		Expect(ok).To(BeFalse())
	})
})
