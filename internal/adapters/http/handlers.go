package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskmaster/todos/internal/application/services"
	"github.com/taskmaster/todos/internal/domain/entities"
)

// Validator adapts the store's request validation to echo.
type Validator struct {
	v *services.Validator
}

func NewValidator() *Validator {
	return &Validator{v: services.NewValidator()}
}

// Validate validates structs
func (cv *Validator) Validate(i interface{}) error {
	return cv.v.Struct(i)
}

// toHTTPError maps store errors to HTTP errors. Unknown errors pass through
// and end up as 500s.
func toHTTPError(err error) error {
	var verr *entities.ValidationError
	switch {
	case errors.As(err, &verr):
		return echo.NewHTTPError(http.StatusBadRequest, ErrorResponse{Error: entities.ErrValidation.Error(), Fields: verr.Fields})
	case errors.Is(err, entities.ErrValidation),
		errors.Is(err, entities.ErrInvalidFilter),
		errors.Is(err, entities.ErrInvalidSortOrder),
		errors.Is(err, entities.ErrInvalidRepeat):
		return echo.NewHTTPError(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, entities.ErrTodoNotFound), errors.Is(err, entities.ErrListNotFound):
		return echo.NewHTTPError(http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.Is(err, entities.ErrDefaultListProtected), errors.Is(err, entities.ErrDefaultListRequired):
		return echo.NewHTTPError(http.StatusConflict, ErrorResponse{Error: err.Error()})
	default:
		return err
	}
}

func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format"})
	}
	if err := c.Validate(req); err != nil {
		return toHTTPError(err)
	}
	return nil
}

// Request/Response types
type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

type TodoListResponse struct {
	Data    []entities.Todo `json:"data"`
	Total   int             `json:"total"`
	Pending []string        `json:"pending"`
}

type ListListResponse struct {
	Data           []entities.List `json:"data"`
	SelectedListID string          `json:"selected_list_id"`
}
