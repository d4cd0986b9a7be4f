package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bolingo/onboarding-bot/internal/core/ports"
)

// MiniAppHandler serves the calls made by the profile builder mini-app. Every
// route is mounted behind the InitData middleware.
type MiniAppHandler struct {
	onboarding ports.OnboardingService
}

func NewMiniAppHandler(onboarding ports.OnboardingService) *MiniAppHandler {
	return &MiniAppHandler{onboarding: onboarding}
}

// GenerateDescription schedules the profile description and returns at once;
// the text is delivered in the chat.
//
// @Summary      Submit profile choices
// @Tags         mini-app
// @Accept       json
// @Produce      json
// @Security     InitData
// @Param        body  body      generateDescriptionRequest  true  "Profile choices"
// @Success      200   {object}  generateDescriptionResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Failure      503   {object}  errorResponse
// @Router       /api/generate-description [post]
func (h *MiniAppHandler) GenerateDescription(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	var req generateDescriptionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	res, err := h.onboarding.SubmitChoices(c.Request().Context(), ports.SubmitChoicesInput{
		Identity:    id.ID,
		DisplayName: id.DisplayName(),
		Choices:     req.toChoices(),
	})
	if err != nil {
		return err
	}

	status := "ignored"
	if res.Scheduled {
		status = "ok"
	}
	return c.JSON(http.StatusOK, generateDescriptionResponse{
		Status:  status,
		State:   string(res.State),
		Message: res.Message,
	})
}

// UpdateProfile records a progression step reported by the mini-app.
//
// @Summary      Report an onboarding step
// @Tags         mini-app
// @Accept       json
// @Produce      json
// @Security     InitData
// @Param        body  body      updateProfileRequest  true  "Reached step"
// @Success      200   {object}  updateProfileResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Failure      503   {object}  errorResponse
// @Router       /api/update-profile [post]
func (h *MiniAppHandler) UpdateProfile(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	var req updateProfileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	rec, err := h.onboarding.ReportStep(c.Request().Context(), ports.ReportStepInput{
		Identity:    id.ID,
		DisplayName: id.DisplayName(),
		Step:        req.Step,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, updateProfileResponse{Status: "ok", State: string(rec.OnboardingState)})
}
