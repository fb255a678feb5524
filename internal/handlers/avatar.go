// internal/handlers/avatar.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/clubhub/internal/i18n"
	"github.com/javajoker/clubhub/internal/seed"
	"github.com/javajoker/clubhub/internal/services"
	"github.com/javajoker/clubhub/internal/utils"
)

type AvatarHandler struct {
	avatarService *services.AvatarService
}

func NewAvatarHandler(avatarService *services.AvatarService) *AvatarHandler {
	return &AvatarHandler{avatarService: avatarService}
}

type GenerateAvatarRequest struct {
	ImageDataURL string `json:"image_data_url" validate:"required"`
}

// POST /avatars
// Generation failures answer with the bundled default character and
// fallback=true; only unusable input is rejected.
func (h *AvatarHandler) GenerateAvatar(c *gin.Context) {
	var req GenerateAvatarRequest
	if !bindAndValidate(c, &req) {
		return
	}

	image, err := h.avatarService.Generate(c.Request.Context(), req.ImageDataURL)
	if err != nil {
		if errors.Is(err, services.ErrInvalidDataURL) || errors.Is(err, services.ErrImageTooLarge) {
			respondServiceError(c, err, "")
			return
		}

		lang := utils.GetLangFromContext(c)
		logrus.WithError(err).Warn("Avatar generation failed; returning default character")
		utils.SuccessResponse(c, gin.H{
			"image":    seed.DefaultCharacterImage,
			"fallback": true,
			"message":  i18n.T(lang, services.UserMessageKey(err)),
		})
		return
	}

	utils.SuccessResponse(c, gin.H{
		"image":    image,
		"fallback": false,
	})
}
