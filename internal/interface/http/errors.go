package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/circle-up/internal/interface/middleware"
	"github.com/oksasatya/circle-up/pkg/apperror"
	"github.com/oksasatya/circle-up/pkg/response"
	"github.com/oksasatya/circle-up/pkg/validation"
)

// fail answers with the status and client message of err's kind.
func fail(c *gin.Context, err error) {
	response.Error[any](c, apperror.HTTPStatus(err), apperror.PublicMessage(err), nil)
}

func badPayload(c *gin.Context, err error) {
	response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
}

// actingUser resolves a body identity field against the caller. An empty
// field means the caller; a different user is Forbidden. Without an
// authenticated caller the field itself must be present.
func actingUser(c *gin.Context, claimed string) (string, bool) {
	caller := middleware.UserID(c)
	switch {
	case caller == "" && claimed == "":
		response.Error[any](c, http.StatusBadRequest, "userId is required", nil)
		return "", false
	case caller == "":
		return claimed, true
	case claimed == "" || claimed == caller:
		return caller, true
	}
	response.Error[any](c, http.StatusForbidden, "You can only act as yourself", nil)
	return "", false
}
