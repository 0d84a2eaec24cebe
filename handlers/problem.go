package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"paymordomo/apperr"
	"paymordomo/validate"
)

// ProblemDetails is an RFC 9457 error body.
type ProblemDetails struct {
	Type     string            `json:"type"`
	Title    string            `json:"title"`
	Status   int               `json:"status"`
	Detail   string            `json:"detail,omitempty"`
	Instance string            `json:"instance,omitempty"`
	Errors   map[string]string `json:"errors,omitempty"`
}

var kindStatus = map[apperr.Kind]int{
	apperr.KindUnauthorized: fiber.StatusUnauthorized,
	apperr.KindForbidden:    fiber.StatusForbidden,
	apperr.KindValidation:   fiber.StatusUnprocessableEntity,
	apperr.KindNotFound:     fiber.StatusNotFound,
	apperr.KindConflict:     fiber.StatusConflict,
	apperr.KindStore:        fiber.StatusInternalServerError,
}

// StatusOf maps an error to the HTTP status it is answered with.
func StatusOf(err error) int {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	if s, ok := kindStatus[apperr.KindOf(err)]; ok {
		return s
	}
	return fiber.StatusInternalServerError
}

// ErrorResponseJSON writes a problem details body.
func ErrorResponseJSON(c *fiber.Ctx, status int, title, detail string) error {
	return problem(c, ProblemDetails{Title: title, Status: status, Detail: detail})
}

func problem(c *fiber.Ctx, p ProblemDetails) error {
	if p.Type == "" {
		p.Type = "about:blank"
	}
	if p.Instance == "" {
		p.Instance = c.OriginalURL()
	}
	return c.Status(p.Status).JSON(p, "application/problem+json")
}

// ErrorHandler is the app-wide fiber error handler. Errors outside the
// apperr taxonomy keep their cause out of the response body.
func ErrorHandler(c *fiber.Ctx, err error) error {
	status := StatusOf(err)
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return ErrorResponseJSON(c, status, utils.StatusMessage(status), fe.Message)
	}
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		return ErrorResponseJSON(c, status, utils.StatusMessage(status), "Erro interno")
	}
	return problem(c, ProblemDetails{
		Title:  utils.StatusMessage(status),
		Status: status,
		Detail: ae.Message,
		Errors: ae.Fields,
	})
}

// BindAndValidate parses the JSON body into T and runs the struct rules.
func BindAndValidate[T any](c *fiber.Ctx) (*T, error) {
	var input T
	if err := c.BodyParser(&input); err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Corpo da requisição inválido")
	}
	if fields := validate.Struct(input); fields != nil {
		return nil, apperr.Invalid(fields)
	}
	return &input, nil
}
