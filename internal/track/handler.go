package track

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"beacon/internal/constants"
	"beacon/internal/logger"
	"beacon/pkg/errors"
)

type Handler struct {
	service *Service
	logger  logger.Logger
}

func NewHandler(service *Service, log logger.Logger) *Handler {
	return &Handler{service: service, logger: log}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	v1 := router.Group("/api/v1")
	{
		track := v1.Group("/track")
		{
			track.POST("/pageview", h.TrackPageView)
			track.POST("/linkclick", h.TrackLinkClick)
			track.POST("/navigation", h.TrackNavigation)
		}
	}
}

func (h *Handler) handleError(c *gin.Context, err error) {
	h.logger.ErrorwCtx(c.Request.Context(), "Request error", "error", err, "path", c.Request.URL.Path)

	status := errors.ToHTTPStatus(err)
	c.JSON(status, errors.ToErrorResponse(err))
}

// TrackPageView godoc
// @Summary      Track a page view
// @Description  Publish the page context for a visitor and send a page view event
// @Tags         tracking
// @Accept       json
// @Produce      json
// @Param        event  body       PageViewRequest  true  "Page view event"
// @Success      202    {object}   TrackResponse
// @Failure      400    {object}  errors.ErrorResponse
// @Failure      408    {object}  errors.ErrorResponse
// @Failure      500    {object}  errors.ErrorResponse
// @Router       /track/pageview [post]
func (h *Handler) TrackPageView(c *gin.Context) {
	var req PageViewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errors.ToErrorResponse(errors.ErrValidation.WithCause(err)))
		return
	}

	if err := h.service.TrackPageView(c.Request.Context(), req); err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, TrackResponse{
		Status:    "tracked",
		EventType: constants.EventTypePageView,
	})
}

// TrackLinkClick godoc
// @Summary      Track a link click
// @Description  Resolve the clicked element to a link name and send a link click event
// @Tags         tracking
// @Accept       json
// @Produce      json
// @Param        event  body       LinkClickRequest  true  "Link click event"
// @Success      202    {object}   TrackResponse
// @Failure      400    {object}  errors.ErrorResponse
// @Failure      500    {object}  errors.ErrorResponse
// @Router       /track/linkclick [post]
func (h *Handler) TrackLinkClick(c *gin.Context) {
	var req LinkClickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errors.ToErrorResponse(errors.ErrValidation.WithCause(err)))
		return
	}

	linkName, err := h.service.TrackLinkClick(c.Request.Context(), req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, TrackResponse{
		Status:    "tracked",
		EventType: constants.EventTypeLinkClick,
		LinkName:  linkName,
	})
}

// TrackNavigation godoc
// @Summary      Track a navigation
// @Description  Signal a location change, optionally with a fresh page context, and re-track when the path changed
// @Tags         tracking
// @Accept       json
// @Produce      json
// @Param        event  body       NavigationRequest  true  "Navigation event"
// @Success      202    {object}   TrackResponse
// @Failure      400    {object}  errors.ErrorResponse
// @Failure      408    {object}  errors.ErrorResponse
// @Failure      500    {object}  errors.ErrorResponse
// @Router       /track/navigation [post]
func (h *Handler) TrackNavigation(c *gin.Context) {
	var req NavigationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errors.ToErrorResponse(errors.ErrValidation.WithCause(err)))
		return
	}

	if err := h.service.Navigate(c.Request.Context(), req); err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, TrackResponse{
		Status:    "tracked",
		EventType: constants.EventTypePageView,
	})
}
