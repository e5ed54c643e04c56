// internal/handlers/common_test.go
package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/modooclass/modoo-backend/internal/services"
)

func serviceErrorStatus(t *testing.T, err error) int {
	t.Helper()

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	handleServiceError(c, err)
	return w.Code
}

func TestHandleServiceErrorStatusMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"missing course", services.ErrCourseNotFound, http.StatusNotFound},
		{"missing session", services.ErrSessionNotFound, http.StatusNotFound},
		{"missing payment", services.ErrPaymentNotFound, http.StatusNotFound},
		{"non-owner session", services.ErrNotSessionOwner, http.StatusForbidden},
		{"non-owner course", services.ErrNotCourseOwner, http.StatusForbidden},
		{"not enrolled", services.ErrNotEnrolled, http.StatusForbidden},
		{"duplicate enrollment", services.ErrAlreadyEnrolled, http.StatusBadRequest},
		{"duplicate submission", services.ErrAlreadySubmitted, http.StatusBadRequest},
		{"bad transition", fmt.Errorf("%w: cannot start a session in status live", services.ErrInvalidTransition), http.StatusBadRequest},
		{"other", fmt.Errorf("validation failed"), http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, serviceErrorStatus(t, tc.err))
		})
	}
}
