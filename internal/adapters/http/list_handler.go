package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskmaster/todos/internal/infrastructure/logger"
	"github.com/taskmaster/todos/internal/ports"
)

// ListHandler handles list and view requests
type ListHandler struct {
	lists  ports.ListService
	todos  ports.TodoService
	logger *logger.Logger
}

// NewListHandler creates a new list handler
func NewListHandler(lists ports.ListService, todos ports.TodoService, logger *logger.Logger) *ListHandler {
	return &ListHandler{
		lists:  lists,
		todos:  todos,
		logger: logger,
	}
}

// ViewRequest updates the stored view. ListID changes the list selection.
type ViewRequest struct {
	ports.UpdateViewRequest
	ListID *string `json:"list_id"`
}

func (h *ListHandler) ListLists(c echo.Context) error {
	return c.JSON(http.StatusOK, ListListResponse{
		Data:           h.lists.Lists(),
		SelectedListID: h.lists.SelectedListID(),
	})
}

func (h *ListHandler) CreateList(c echo.Context) error {
	var req ports.CreateListRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	list, err := h.lists.AddList(c.Request().Context(), req)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, list)
}

func (h *ListHandler) UpdateList(c echo.Context) error {
	var req ports.UpdateListRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	list, err := h.lists.UpdateList(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, list)
}

// DeleteList removes a list. Its todos are not reassigned.
func (h *ListHandler) DeleteList(c echo.Context) error {
	id := c.Param("id")
	if err := h.lists.DeleteList(c.Request().Context(), id); err != nil {
		h.logger.Debugw("Delete list rejected", "list_id", id, "error", err)
		return toHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *ListHandler) SelectList(c echo.Context) error {
	var req ports.SelectListRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.lists.SetSelectedList(req.ListID); err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, h.todos.View())
}

func (h *ListHandler) GetView(c echo.Context) error {
	return c.JSON(http.StatusOK, h.todos.View())
}

// UpdateView applies the list selection first, so an unknown list leaves
// the rest of the view untouched.
func (h *ListHandler) UpdateView(c echo.Context) error {
	var req ViewRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if req.ListID != nil {
		if err := h.lists.SetSelectedList(*req.ListID); err != nil {
			return toHTTPError(err)
		}
	}

	view, err := h.todos.UpdateView(req.UpdateViewRequest)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, view)
}
