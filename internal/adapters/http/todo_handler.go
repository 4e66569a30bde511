package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskmaster/todos/internal/domain/entities"
	"github.com/taskmaster/todos/internal/infrastructure/logger"
	"github.com/taskmaster/todos/internal/ports"
)

// TodoHandler handles todo-related requests
type TodoHandler struct {
	todos  ports.TodoService
	logger *logger.Logger
}

// NewTodoHandler creates a new todo handler
func NewTodoHandler(todos ports.TodoService, logger *logger.Logger) *TodoHandler {
	return &TodoHandler{
		todos:  todos,
		logger: logger,
	}
}

// ListTodos godoc
// @Summary List visible todos
// @Description Runs the visibility pipeline. Query parameters override the stored view for this request only.
// @Tags todos
// @Produce json
// @Param q query string false "Search text"
// @Param filter query string false "today, all or done"
// @Param sort query string false "default, dueDate or alphabetical"
// @Param list_id query string false "List id or __everything__"
// @Success 200 {object} TodoListResponse
// @Failure 400 {object} ErrorResponse
// @Router /todos [get]
func (h *TodoHandler) ListTodos(c echo.Context) error {
	var opts ports.ViewOptions

	if q, ok := c.QueryParams()["q"]; ok && len(q) > 0 {
		opts.Query = &q[0]
	}
	if f := c.QueryParam("filter"); f != "" {
		filter, err := entities.ParseFilter(f)
		if err != nil {
			return toHTTPError(err)
		}
		opts.Filter = filter
	}
	if s := c.QueryParam("sort"); s != "" {
		order, err := entities.ParseSortOrder(s)
		if err != nil {
			return toHTTPError(err)
		}
		opts.Sort = order
	}
	opts.ListID = c.QueryParam("list_id")

	todos := h.todos.Visible(opts)
	return c.JSON(http.StatusOK, TodoListResponse{
		Data:    todos,
		Total:   len(todos),
		Pending: h.todos.PendingRemovals(),
	})
}

// CreateTodo godoc
// @Summary Create a todo
// @Tags todos
// @Accept json
// @Produce json
// @Param request body ports.CreateTodoRequest true "Todo data"
// @Success 201 {object} entities.Todo
// @Failure 400 {object} ErrorResponse
// @Router /todos [post]
func (h *TodoHandler) CreateTodo(c echo.Context) error {
	var req ports.CreateTodoRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	todo, err := h.todos.AddTodo(c.Request().Context(), req)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusCreated, todo)
}

// GetTodo godoc
// @Summary Get a todo
// @Tags todos
// @Produce json
// @Param id path string true "Todo ID"
// @Success 200 {object} entities.Todo
// @Failure 404 {object} ErrorResponse
// @Router /todos/{id} [get]
func (h *TodoHandler) GetTodo(c echo.Context) error {
	todo, err := h.todos.Get(c.Param("id"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, todo)
}

// UpdateTodo godoc
// @Summary Update a todo
// @Description Partial update. Absent fields are left untouched.
// @Tags todos
// @Accept json
// @Produce json
// @Param id path string true "Todo ID"
// @Param request body ports.UpdateTodoRequest true "Fields to change"
// @Success 200 {object} entities.Todo
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /todos/{id} [patch]
func (h *TodoHandler) UpdateTodo(c echo.Context) error {
	var req ports.UpdateTodoRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	todo, err := h.todos.UpdateTodo(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, todo)
}

// DeleteTodo godoc
// @Summary Delete a todo
// @Tags todos
// @Param id path string true "Todo ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /todos/{id} [delete]
func (h *TodoHandler) DeleteTodo(c echo.Context) error {
	if err := h.todos.DeleteTodo(c.Request().Context(), c.Param("id")); err != nil {
		return toHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ToggleTodo godoc
// @Summary Toggle completion
// @Description Completing a repeating todo with a due date also creates its next occurrence.
// @Tags todos
// @Produce json
// @Param id path string true "Todo ID"
// @Success 200 {object} ports.ToggleResult
// @Failure 404 {object} ErrorResponse
// @Router /todos/{id}/toggle [post]
func (h *TodoHandler) ToggleTodo(c echo.Context) error {
	id := c.Param("id")

	result, err := h.todos.ToggleComplete(c.Request().Context(), id)
	if err != nil {
		return toHTTPError(err)
	}

	if result.Successor != nil {
		h.logger.Debugw("Successor created", "todo_id", id, "successor_id", result.Successor.ID)
	}
	return c.JSON(http.StatusOK, result)
}

func (h *TodoHandler) AddPending(c echo.Context) error {
	id := c.Param("id")
	if _, err := h.todos.Get(id); err != nil {
		return toHTTPError(err)
	}
	h.todos.AddPendingRemoval(id)
	return c.NoContent(http.StatusNoContent)
}

func (h *TodoHandler) RemovePending(c echo.Context) error {
	h.todos.RemovePendingRemoval(c.Param("id"))
	return c.NoContent(http.StatusNoContent)
}
