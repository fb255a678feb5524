// internal/handlers/source.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/clubhub/internal/i18n"
	"github.com/javajoker/clubhub/internal/services"
	"github.com/javajoker/clubhub/internal/utils"
)

type SourceHandler struct {
	clubService *services.ClubService
}

func NewSourceHandler(clubService *services.ClubService) *SourceHandler {
	return &SourceHandler{clubService: clubService}
}

// SourceStatus summarizes which data source is active.
type SourceStatus struct {
	UseMockData  bool   `json:"use_mock_data"`
	Source       string `json:"source"`
	Loading      bool   `json:"loading"`
	Busy         bool   `json:"busy"`
	Initialized  bool   `json:"initialized"`
	ClubCount    int    `json:"club_count"`
	ErrorKey     string `json:"error_key,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

func sourceStatus(state services.State, lang string) SourceStatus {
	status := SourceStatus{
		UseMockData: state.UseMockData,
		Source:      i18n.T(lang, i18n.KeySourceRemote),
		Loading:     state.Loading,
		Busy:        state.Busy,
		Initialized: state.Initialized,
		ClubCount:   len(state.Clubs),
		ErrorKey:    state.ErrorKey,
	}
	if state.UseMockData {
		status.Source = i18n.T(lang, i18n.KeySourceMock)
	}
	if state.ErrorKey != "" {
		status.ErrorMessage = i18n.T(lang, state.ErrorKey)
	}
	return status
}

// GET /source
func (h *SourceHandler) GetSource(c *gin.Context) {
	utils.SuccessResponse(c, sourceStatus(h.clubService.State(), utils.GetLangFromContext(c)))
}

// POST /source/toggle
func (h *SourceHandler) ToggleSource(c *gin.Context) {
	if _, err := h.clubService.ToggleSource(c.Request.Context()); err != nil {
		respondServiceError(c, err, "")
		return
	}

	utils.SuccessResponse(c, sourceStatus(h.clubService.State(), utils.GetLangFromContext(c)))
}

// POST /source/retry
func (h *SourceHandler) Retry(c *gin.Context) {
	loaded := h.clubService.RetryInitialization(c.Request.Context())

	utils.SuccessResponse(c, gin.H{
		"remote_loaded": loaded,
		"status":        sourceStatus(h.clubService.State(), utils.GetLangFromContext(c)),
	})
}
