// internal/handlers/club.go
package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/clubhub/internal/models"
	"github.com/javajoker/clubhub/internal/services"
	"github.com/javajoker/clubhub/internal/utils"
)

type ClubHandler struct {
	clubService *services.ClubService
}

func NewClubHandler(clubService *services.ClubService) *ClubHandler {
	return &ClubHandler{clubService: clubService}
}

type AddMemberRequest struct {
	models.NewMember
	AvatarDataURL string `json:"avatar_data_url,omitempty"`
}

type UpdateAvatarRequest struct {
	Image string `json:"image" validate:"required"`
}

// GET /clubs
func (h *ClubHandler) GetClubs(c *gin.Context) {
	params := utils.GetPaginationParams(c)
	clubs := h.clubService.State().Clubs

	if search := strings.TrimSpace(params.Search); search != "" {
		needle := strings.ToLower(search)
		filtered := make([]models.Club, 0, len(clubs))
		for _, club := range clubs {
			if strings.Contains(strings.ToLower(club.Name), needle) {
				filtered = append(filtered, club)
			}
		}
		clubs = filtered
	}

	utils.PaginatedResponse(c, utils.Paginate(clubs, params))
}

// POST /clubs
func (h *ClubHandler) CreateClub(c *gin.Context) {
	var req models.NewClub
	if !bindAndValidate(c, &req) {
		return
	}

	club, err := h.clubService.CreateClub(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, h.clubService.State().ErrorKey)
		return
	}

	utils.CreatedResponse(c, gin.H{"club": club})
}

// GET /clubs/:id
func (h *ClubHandler) GetClub(c *gin.Context) {
	club, err := h.clubService.GetClub(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err, "")
		return
	}

	utils.SuccessResponse(c, gin.H{"club": club})
}

// PUT /clubs/:id
func (h *ClubHandler) UpdateClub(c *gin.Context) {
	var req models.ClubPatch
	if !bindAndValidate(c, &req) {
		return
	}

	id := c.Param("id")
	if err := h.clubService.UpdateClub(c.Request.Context(), id, req); err != nil {
		respondServiceError(c, err, h.clubService.State().ErrorKey)
		return
	}

	club, err := h.clubService.GetClub(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "")
		return
	}
	utils.SuccessResponse(c, gin.H{"club": club})
}

// DELETE /clubs/:id
func (h *ClubHandler) DeleteClub(c *gin.Context) {
	id := c.Param("id")
	if err := h.clubService.DeleteClub(c.Request.Context(), id); err != nil {
		respondServiceError(c, err, h.clubService.State().ErrorKey)
		return
	}

	utils.SuccessResponse(c, gin.H{"id": id})
}

// POST /clubs/:id/members
func (h *ClubHandler) AddMember(c *gin.Context) {
	var req AddMemberRequest
	if !bindAndValidate(c, &req) {
		return
	}

	var (
		member *models.Member
		err    error
	)
	if req.AvatarDataURL != "" {
		if _, parseErr := services.ParseDataURL(req.AvatarDataURL); parseErr != nil {
			respondServiceError(c, parseErr, "")
			return
		}
		member, err = h.clubService.AddMemberWithAvatar(c.Request.Context(), c.Param("id"), req.NewMember, req.AvatarDataURL)
	} else {
		member, err = h.clubService.AddMember(c.Request.Context(), c.Param("id"), req.NewMember)
	}
	if err != nil {
		respondServiceError(c, err, h.clubService.State().ErrorKey)
		return
	}

	utils.CreatedResponse(c, gin.H{"member": member})
}

// PUT /clubs/:id/members/:memberId/avatar
func (h *ClubHandler) UpdateMemberAvatar(c *gin.Context) {
	var req UpdateAvatarRequest
	if !bindAndValidate(c, &req) {
		return
	}

	err := h.clubService.UpdateMemberAvatar(c.Request.Context(), c.Param("id"), c.Param("memberId"), req.Image)
	if err != nil {
		respondServiceError(c, err, h.clubService.State().ErrorKey)
		return
	}

	utils.SuccessResponse(c, gin.H{"club_id": c.Param("id"), "member_id": c.Param("memberId")})
}

// POST /clubs/:id/activities
func (h *ClubHandler) AddActivity(c *gin.Context) {
	var req models.NewEntry
	if !bindAndValidate(c, &req) {
		return
	}

	activity, err := h.clubService.AddActivity(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondServiceError(c, err, h.clubService.State().ErrorKey)
		return
	}

	utils.CreatedResponse(c, gin.H{"activity": activity})
}

// POST /clubs/:id/rolling-paper
func (h *ClubHandler) AddRollingPaper(c *gin.Context) {
	var req models.NewEntry
	if !bindAndValidate(c, &req) {
		return
	}

	entry, err := h.clubService.AddRollingPaper(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondServiceError(c, err, h.clubService.State().ErrorKey)
		return
	}

	utils.CreatedResponse(c, gin.H{"entry": entry})
}

// GET /rankings
func (h *ClubHandler) GetRankings(c *gin.Context) {
	utils.SuccessResponse(c, gin.H{"rankings": h.clubService.State().RankedClubs})
}
