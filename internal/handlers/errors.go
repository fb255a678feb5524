// internal/handlers/errors.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/clubhub/internal/i18n"
	"github.com/javajoker/clubhub/internal/services"
	"github.com/javajoker/clubhub/internal/utils"
)

// respondServiceError maps service errors to responses. Unclassified errors
// carry the message from the service's error slot.
func respondServiceError(c *gin.Context, err error, errKey string) {
	lang := utils.GetLangFromContext(c)
	_ = c.Error(err)

	switch {
	case errors.Is(err, services.ErrClubNotFound):
		utils.NotFoundResponse(c, "club")
	case errors.Is(err, services.ErrMemberNotFound):
		utils.NotFoundResponse(c, "member")
	case errors.Is(err, services.ErrInvalidDataURL):
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyInvalidDataURL), nil)
	case errors.Is(err, services.ErrImageTooLarge):
		utils.PayloadTooLargeResponse(c, i18n.T(lang, i18n.KeyAvatarTooLarge))
	default:
		if errKey == "" {
			errKey = i18n.KeyInternalError
		}
		utils.InternalErrorResponse(c, i18n.T(lang, errKey))
	}
}

// bindAndValidate decodes the JSON body into req and runs struct validation.
// It writes the error response and returns false on failure.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	lang := utils.GetLangFromContext(c)
	if err := c.ShouldBindJSON(req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.PayloadTooLargeResponse(c, i18n.T(lang, i18n.KeyAvatarTooLarge))
			return false
		}
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return false
	}

	if err := utils.ValidateStruct(req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return false
	}
	return true
}
