package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iare/sceh-portal/internal/api/metrics"
	"github.com/iare/sceh-portal/internal/core/domain"
	"github.com/iare/sceh-portal/internal/core/ports"
)

const registrationPage = "event-registration"

type RegistrationHandler struct {
	auditor ports.Auditor
	now     func() time.Time
}

func NewRegistrationHandler(auditor ports.Auditor) *RegistrationHandler {
	return &RegistrationHandler{auditor: auditor, now: time.Now}
}

type eventRegistrationRequest struct {
	FullName   string `json:"fullName" form:"fullName" validate:"required"`
	StudentID  string `json:"studentId" form:"studentId" validate:"required"`
	Email      string `json:"email" form:"email" validate:"required,email"`
	Phone      string `json:"phone" form:"phone" validate:"required"`
	Department string `json:"department" form:"department" validate:"required"`
	Year       string `json:"year" form:"year" validate:"required,oneof='1st Year' '2nd Year' '3rd Year' '4th Year' '5th Year'"`
	AgreeTerms bool   `json:"agreeTerms" form:"agreeTerms" validate:"required"`
}

type registrationResponse struct {
	Message  string `json:"message"`
	Redirect string `json:"redirect"`
}

// Submit accepts an event registration form. Anonymous submissions are sent
// to the login page with 303 so the browser follows with a GET.
//
// @Summary      Register for an event
// @Tags         portal
// @Accept       json
// @Produce      json
// @Param        id    path      string                    true  "Event ID"
// @Param        body  body      eventRegistrationRequest  true  "Registration form"
// @Success      201   {object}  registrationResponse
// @Success      303
// @Failure      400   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /event-registration/{id} [post]
func (h *RegistrationHandler) Submit(c echo.Context) error {
	s := currentSession(c)
	if s == nil {
		metrics.GuardDecisionsTotal.WithLabelValues(registrationPage, string(domain.DecisionRedirect)).Inc()
		return c.Redirect(http.StatusSeeOther, domain.LoginPath)
	}

	eventID := c.Param("id")
	if eventID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing event id")
	}

	var req eventRegistrationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	metrics.GuardDecisionsTotal.WithLabelValues(registrationPage, string(domain.DecisionAllow)).Inc()
	h.auditor.Enqueue(domain.SessionEvent{
		Kind:   domain.EventEventRegistration,
		UserID: s.ID,
		Email:  s.Email,
		Role:   s.Role,
		Method: "form",
		Detail: "event=" + eventID + " student_id=" + req.StudentID,
		At:     h.now().UTC(),
	})

	return c.JSON(http.StatusCreated, registrationResponse{
		Message:  "Registration submitted successfully",
		Redirect: "/events",
	})
}
