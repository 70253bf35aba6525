package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	assignmentdomain "github.com/smallbiznis/touchbase/internal/assignment/domain"
	"github.com/smallbiznis/touchbase/internal/auth"
	"github.com/smallbiznis/touchbase/internal/authorization"
	badgedomain "github.com/smallbiznis/touchbase/internal/badge/domain"
	classroomdomain "github.com/smallbiznis/touchbase/internal/classroom/domain"
	leaderboarddomain "github.com/smallbiznis/touchbase/internal/leaderboard/domain"
	moduledomain "github.com/smallbiznis/touchbase/internal/module/domain"
	organizationdomain "github.com/smallbiznis/touchbase/internal/organization/domain"
	profiledomain "github.com/smallbiznis/touchbase/internal/profile/domain"
	progressdomain "github.com/smallbiznis/touchbase/internal/progress/domain"
	rosterdomain "github.com/smallbiznis/touchbase/internal/roster/domain"
	streakdomain "github.com/smallbiznis/touchbase/internal/streak/domain"
	xpdomain "github.com/smallbiznis/touchbase/internal/xp/domain"
	"github.com/smallbiznis/touchbase/pkg/db"
	"github.com/smallbiznis/touchbase/pkg/db/pagination"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("conflict")
	ErrInternal           = errors.New("internal_error")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrOrgRequired        = errors.New("invalid_org_id")
	ErrRateLimited        = errors.New("rate_limited")
	ErrPayloadTooLarge    = errors.New("payload_too_large")
	ErrServiceUnavailable = errors.New("service_unavailable")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  fromFieldErrors(fieldErrs),
		}
	}

	if isValidationError(err) {
		code := validationErrorCode(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrNotConfigured):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, ErrForbidden),
		errors.Is(err, authorization.ErrForbidden),
		errors.Is(err, organizationdomain.ErrNotMember),
		errors.Is(err, assignmentdomain.ErrNotEnrolled):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: conflictMessage(err),
		}
	case errors.Is(err, ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge, errorPayload{
			Type:    "payload_too_large",
			Message: "request body too large",
		}
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many requests",
		}
	case errors.Is(err, ErrServiceUnavailable),
		errors.Is(err, streakdomain.ErrUpdateInProgress):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "service unavailable",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

// classifyErrorForLog returns the response type and a stable code for request logs.
func classifyErrorForLog(err error) (string, string) {
	if err == nil {
		return "", ""
	}
	_, payload := mapError(err)
	code := payload.Type
	if len(payload.Errors) > 0 {
		code = payload.Errors[0].Code
	} else if payload.Type != "internal_error" {
		code = err.Error()
	}
	return payload.Type, code
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func fromFieldErrors(errs validator.ValidationErrors) []ValidationError {
	out := make([]ValidationError, 0, len(errs))
	for _, fe := range errs {
		field := strings.ToLower(fe.Field())
		out = append(out, ValidationError{
			Field:   field,
			Code:    fe.Tag(),
			Message: field + " failed " + fe.Tag() + " validation",
		})
	}
	return out
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, ErrOrgRequired),
		errors.Is(err, pagination.ErrInvalidPageToken):
		return true
	case isXPValidationError(err),
		isStreakValidationError(err),
		isBadgeValidationError(err),
		isLeaderboardValidationError(err),
		isProgressValidationError(err),
		isModuleValidationError(err),
		isClassValidationError(err),
		isAssignmentValidationError(err),
		isRosterValidationError(err),
		isOrganizationValidationError(err),
		isProfileValidationError(err):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, profiledomain.ErrNotFound),
		errors.Is(err, organizationdomain.ErrNotFound),
		errors.Is(err, moduledomain.ErrNotFound),
		errors.Is(err, progressdomain.ErrProgressNotFound),
		errors.Is(err, classroomdomain.ErrNotFound),
		errors.Is(err, leaderboarddomain.ErrClassNotFound),
		errors.Is(err, assignmentdomain.ErrNotFound),
		errors.Is(err, assignmentdomain.ErrSubmissionNotFound),
		errors.Is(err, rosterdomain.ErrTeamNotFound),
		errors.Is(err, rosterdomain.ErrPlayerNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func isConflictError(err error) bool {
	switch {
	case errors.Is(err, ErrConflict),
		errors.Is(err, progressdomain.ErrProgressCompleted),
		errors.Is(err, progressdomain.ErrModuleNotPublished),
		errors.Is(err, moduledomain.ErrModulePublished),
		errors.Is(err, moduledomain.ErrNoSteps),
		errors.Is(err, classroomdomain.ErrArchived),
		errors.Is(err, classroomdomain.ErrCodeExhausted),
		errors.Is(err, assignmentdomain.ErrNotPublished),
		errors.Is(err, assignmentdomain.ErrInvalidTransition),
		errors.Is(err, badgedomain.ErrDuplicateCode),
		errors.Is(err, organizationdomain.ErrAlreadyMember),
		errors.Is(err, organizationdomain.ErrLastOwner),
		errors.Is(err, rosterdomain.ErrDuplicateTeam),
		errors.Is(err, rosterdomain.ErrJerseyTaken),
		db.IsDuplicateKeyErr(err):
		return true
	default:
		return false
	}
}

func conflictMessage(err error) string {
	if errors.Is(err, ErrConflict) || db.IsDuplicateKeyErr(err) {
		return "conflict"
	}
	return strings.ReplaceAll(err.Error(), "_", " ")
}

func validationErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	default:
		return err.Error()
	}
}

func validationErrorField(code string) string {
	if code == "invalid_request" {
		return "request"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	case "invalid_action":
		return "unknown action"
	case "invalid_step_index":
		return "step index out of range"
	default:
		return "invalid value"
	}
}

func isXPValidationError(err error) bool {
	switch err {
	case xpdomain.ErrInvalidAction,
		xpdomain.ErrInvalidUser,
		xpdomain.ErrInvalidOrganization,
		xpdomain.ErrInvalidPoints,
		xpdomain.ErrInvalidMetadata,
		xpdomain.ErrInvalidCategory:
		return true
	default:
		return false
	}
}

func isStreakValidationError(err error) bool {
	switch err {
	case streakdomain.ErrInvalidOrganization,
		streakdomain.ErrInvalidUser:
		return true
	default:
		return false
	}
}

func isBadgeValidationError(err error) bool {
	switch err {
	case badgedomain.ErrInvalidOrganization,
		badgedomain.ErrInvalidUser,
		badgedomain.ErrInvalidCode,
		badgedomain.ErrInvalidCriteria,
		badgedomain.ErrInvalidThreshold:
		return true
	default:
		return false
	}
}

func isLeaderboardValidationError(err error) bool {
	switch err {
	case leaderboarddomain.ErrInvalidOrganization,
		leaderboarddomain.ErrInvalidMetric:
		return true
	default:
		return false
	}
}

func isProgressValidationError(err error) bool {
	switch err {
	case progressdomain.ErrInvalidOrganization,
		progressdomain.ErrInvalidUser,
		progressdomain.ErrInvalidModule,
		progressdomain.ErrInvalidStepIndex,
		progressdomain.ErrInvalidStepData:
		return true
	default:
		return false
	}
}

func isModuleValidationError(err error) bool {
	switch err {
	case moduledomain.ErrInvalidOrganization,
		moduledomain.ErrInvalidAuthor,
		moduledomain.ErrInvalidModule:
		return true
	default:
		return false
	}
}

func isClassValidationError(err error) bool {
	switch err {
	case classroomdomain.ErrInvalidOrganization,
		classroomdomain.ErrInvalidTeacher,
		classroomdomain.ErrInvalidStudent,
		classroomdomain.ErrInvalidClass,
		classroomdomain.ErrInvalidCode:
		return true
	default:
		return false
	}
}

func isAssignmentValidationError(err error) bool {
	switch err {
	case assignmentdomain.ErrInvalidOrganization,
		assignmentdomain.ErrInvalidAssignment,
		assignmentdomain.ErrInvalidClass,
		assignmentdomain.ErrInvalidModule,
		assignmentdomain.ErrInvalidStudent,
		assignmentdomain.ErrInvalidContent,
		assignmentdomain.ErrInvalidScore:
		return true
	default:
		return false
	}
}

func isRosterValidationError(err error) bool {
	switch err {
	case rosterdomain.ErrInvalidOrganization,
		rosterdomain.ErrInvalidTeam,
		rosterdomain.ErrInvalidPlayer,
		rosterdomain.ErrInvalidCoach,
		rosterdomain.ErrInvalidProfile:
		return true
	default:
		return false
	}
}

func isOrganizationValidationError(err error) bool {
	switch err {
	case organizationdomain.ErrInvalidName,
		organizationdomain.ErrInvalidUser,
		organizationdomain.ErrInvalidOrganization,
		organizationdomain.ErrInvalidRole:
		return true
	default:
		return false
	}
}

func isProfileValidationError(err error) bool {
	switch err {
	case profiledomain.ErrInvalidExternalID,
		profiledomain.ErrInvalidProfile,
		profiledomain.ErrInvalidName,
		profiledomain.ErrInvalidDefaultOrg:
		return true
	default:
		return false
	}
}
