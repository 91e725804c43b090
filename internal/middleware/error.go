package middleware

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"picture-catalog/internal/domain"
)

type ErrorResponse struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
	TraceID string   `json:"trace_id,omitempty"`
}

func ErrorHandler(log zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "Internal server error"
		errorCode := "INTERNAL_ERROR"
		var details []string

		var fiberErr *fiber.Error
		switch {
		case errors.As(err, &fiberErr):
			code = fiberErr.Code
			message = fiberErr.Message
			errorCode = codeForStatus(code)

		case domain.IsRequestError(err):
			code = statusForDomainError(err)
			errorCode = codeForStatus(code)
			message = err.Error()
			details = flatten(err)

		case errors.Is(err, context.DeadlineExceeded):
			code = fiber.StatusGatewayTimeout
			errorCode = "TIMEOUT"
			message = "Request timed out"
		}

		traceID := uuid.New().String()[:8]
		if code >= fiber.StatusInternalServerError {
			log.Error().Err(err).
				Str("trace_id", traceID).
				Str("method", c.Method()).
				Str("path", c.Path()).
				Msg("request failed")
		}

		return c.Status(code).JSON(ErrorResponse{
			Code:    errorCode,
			Message: message,
			Details: details,
			TraceID: traceID,
		})
	}
}

// statusForDomainError picks one status for a possibly joined error: a missing
// picture wins, then validation failures, then unresolved references.
func statusForDomainError(err error) int {
	var (
		missing    *domain.MissingFieldError
		license    *domain.InvalidLicenseError
		validation *domain.ValidationError
	)
	switch {
	case errors.Is(err, domain.ErrPictureNotFound):
		return fiber.StatusNotFound
	case errors.As(err, &missing), errors.As(err, &license), errors.As(err, &validation):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrPlaceNotFound), errors.Is(err, domain.ErrCatalogNotFound):
		return fiber.StatusNotFound
	default:
		return fiber.StatusBadRequest
	}
}

func codeForStatus(code int) string {
	switch code {
	case fiber.StatusBadRequest:
		return "BAD_REQUEST"
	case fiber.StatusUnauthorized:
		return "UNAUTHORIZED"
	case fiber.StatusForbidden:
		return "FORBIDDEN"
	case fiber.StatusNotFound:
		return "NOT_FOUND"
	case fiber.StatusConflict:
		return "CONFLICT"
	case fiber.StatusRequestEntityTooLarge:
		return "PAYLOAD_TOO_LARGE"
	case fiber.StatusUnprocessableEntity:
		return "VALIDATION_ERROR"
	default:
		return "INTERNAL_ERROR"
	}
}

func flatten(err error) []string {
	joined, ok := err.(interface{ Unwrap() []error })
	if !ok {
		return nil
	}
	var out []string
	for _, e := range joined.Unwrap() {
		if nested := flatten(e); nested != nil {
			out = append(out, nested...)
			continue
		}
		out = append(out, e.Error())
	}
	return out
}

func NewError(code int, message string) *fiber.Error {
	return fiber.NewError(code, message)
}

func BadRequest(message string) *fiber.Error {
	return fiber.NewError(fiber.StatusBadRequest, message)
}

func Unauthorized(message string) *fiber.Error {
	return fiber.NewError(fiber.StatusUnauthorized, message)
}

func Forbidden(message string) *fiber.Error {
	return fiber.NewError(fiber.StatusForbidden, message)
}

func NotFound(message string) *fiber.Error {
	return fiber.NewError(fiber.StatusNotFound, message)
}
