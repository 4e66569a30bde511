package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/language"

	"github.com/taskmaster/todos/internal/domain/entities"
	"github.com/taskmaster/todos/internal/domain/recurrence"
	"github.com/taskmaster/todos/internal/domain/visibility"
	"github.com/taskmaster/todos/internal/infrastructure/logger"
	"github.com/taskmaster/todos/internal/ports"
)

// TodoOptions tunes a TodoService.
type TodoOptions struct {
	// RemovalGrace is how long a todo completed outside the done view stays
	// pending removal. Zero leaves it pending until removed explicitly.
	RemovalGrace time.Duration
	// LoadTimeout bounds Initialize and Reload. Zero means no bound.
	LoadTimeout time.Duration
	// Language drives alphabetical ordering.
	Language language.Tag
}

// TodoService owns the in-memory todo collection. Mutations apply locally
// and return at once; persistence runs on the write queue.
type TodoService struct {
	repo      ports.TodoRepository
	reminders ports.ReminderScheduler
	writes    ports.WriteQueue
	clock     ports.Clock
	ids       ports.IDGenerator
	lists     ports.ListSelector
	logger    *logger.Logger
	validator *Validator
	opts      TodoOptions

	mu      sync.RWMutex
	todos   []entities.Todo
	pending map[string]*time.Timer
	query   string
	filter  entities.Filter
	sort    entities.SortOrder
}

// NewTodoService creates a new todo service. lists may be nil, in which case
// every view spans all lists.
func NewTodoService(
	repo ports.TodoRepository,
	reminders ports.ReminderScheduler,
	writes ports.WriteQueue,
	clock ports.Clock,
	ids ports.IDGenerator,
	lists ports.ListSelector,
	logger *logger.Logger,
	opts TodoOptions,
) *TodoService {
	return &TodoService{
		repo:      repo,
		reminders: reminders,
		writes:    writes,
		clock:     clock,
		ids:       ids,
		lists:     lists,
		logger:    logger.WithComponent("todo_store"),
		validator: NewValidator(),
		opts:      opts,
		pending:   make(map[string]*time.Timer),
		filter:    entities.FilterAll,
		sort:      entities.SortDefault,
	}
}

// Initialize loads every todo from the repository.
func (s *TodoService) Initialize(ctx context.Context) error {
	if err := s.Reload(ctx); err != nil {
		return fmt.Errorf("failed to initialize todos: %w", err)
	}
	s.logger.Infow("Todo store initialized", "count", len(s.Todos()))
	return nil
}

// Reload replaces the local collection with the repository's contents.
func (s *TodoService) Reload(ctx context.Context) error {
	if s.opts.LoadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.LoadTimeout)
		defer cancel()
	}

	todos, err := s.repo.LoadAll(ctx)
	if err != nil {
		return err
	}
	s.BulkSet(todos)
	return nil
}

// RestoreReminders schedules reminders again after a restart, since handles
// from an earlier process mean nothing to the scheduler. Todos that no
// longer want a reminder drop their handle. It returns the number scheduled.
//
// A released reminder is not recorded, so a todo that was completed and then
// reopened before the restart is re-armed here like any other active todo.
// Todos added while no scheduler ran (from the CLI) depend on that.
func (s *TodoService) RestoreReminders(ctx context.Context) int {
	if s.reminders == nil {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	restored := 0
	for i := range s.todos {
		todo := &s.todos[i]

		handle := ""
		if todo.WantsReminder(now) {
			handle = s.scheduleReminder(ctx, *todo)
		}
		if handle != "" {
			restored++
		}
		if handle == todo.NotificationID {
			continue
		}

		todo.NotificationID = handle
		id := todo.ID
		patch := entities.TodoPatch{NotificationID: &handle}
		s.persist("update_todo", id, func(ctx context.Context) error {
			return s.repo.Update(ctx, id, patch)
		})
	}

	s.logger.Infow("Reminders restored", "count", restored)
	return restored
}

// BulkSet replaces the collection without persisting anything. Pending
// removals for todos that no longer exist are dropped.
func (s *TodoService) BulkSet(todos []entities.Todo) {
	next := make([]entities.Todo, len(todos))
	for i, t := range todos {
		next[i] = t.Clone()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.todos = next
	for id := range s.pending {
		if s.indexOf(id) < 0 {
			s.removePendingLocked(id)
		}
	}
}

// Todos returns a snapshot of every todo, newest first.
func (s *TodoService) Todos() []entities.Todo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneTodos(s.todos)
}

// Get returns one todo by id.
func (s *TodoService) Get(id string) (entities.Todo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return entities.Todo{}, entities.ErrTodoNotFound
	}
	return s.todos[i].Clone(), nil
}

// AddTodo creates a new todo. Without an explicit list it joins the selected
// list, or stays unassigned when Everything is selected.
func (s *TodoService) AddTodo(ctx context.Context, req ports.CreateTodoRequest) (entities.Todo, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Repeat = req.Repeat.Normalize()
	if err := s.validator.Struct(req); err != nil {
		return entities.Todo{}, err
	}
	if req.ListID != nil && *req.ListID == entities.EverythingListID {
		return entities.Todo{}, invalid("list_id", "cannot be the Everything view")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	todo := entities.Todo{
		ID:            s.ids.NewID(),
		Title:         req.Title,
		Notes:         req.Notes,
		CreatedAt:     now,
		UpdatedAt:     now,
		NotifyEnabled: req.NotifyEnabled,
		Repeat:        req.Repeat,
	}
	if req.DueDate != nil {
		due := *req.DueDate
		todo.DueDate = &due
	}
	if req.ListID != nil {
		listID := *req.ListID
		todo.ListID = &listID
	} else if selected := s.selectedList(); selected != entities.EverythingListID {
		todo.ListID = &selected
	}
	if todo.WantsReminder(now) {
		todo.NotificationID = s.scheduleReminder(ctx, todo)
	}

	s.todos = append([]entities.Todo{todo}, s.todos...)

	created := todo.Clone()
	s.persist("create_todo", todo.ID, func(ctx context.Context) error {
		return s.repo.Create(ctx, created)
	})

	s.logger.Infow("Todo created", "todo_id", todo.ID, "title", todo.Title)
	return todo.Clone(), nil
}

// UpdateTodo applies a partial update and re-derives the todo's reminder.
func (s *TodoService) UpdateTodo(ctx context.Context, id string, req ports.UpdateTodoRequest) (entities.Todo, error) {
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return entities.Todo{}, invalid("title", "is required")
		}
		req.Title = &title
	}
	if err := s.validator.Struct(req); err != nil {
		return entities.Todo{}, err
	}
	if req.ListID != nil && *req.ListID == entities.EverythingListID {
		return entities.Todo{}, invalid("list_id", "cannot be the Everything view")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return entities.Todo{}, entities.ErrTodoNotFound
	}

	patch := entities.TodoPatch{
		Title:         req.Title,
		Notes:         req.Notes,
		DueDate:       req.DueDate,
		ClearDueDate:  req.ClearDueDate,
		NotifyEnabled: req.NotifyEnabled,
		ListID:        req.ListID,
		ClearListID:   req.ClearListID,
	}
	if req.Repeat != nil {
		r := req.Repeat.Normalize()
		patch.Repeat = &r
	}
	if patch.IsEmpty() {
		return s.todos[i].Clone(), nil
	}

	now := s.clock.Now()
	before := s.todos[i].Clone()
	todo := &s.todos[i]
	patch.Apply(todo)
	todo.UpdatedAt = now

	if handle := s.rederiveReminder(ctx, before, todo, now); handle != before.NotificationID {
		patch.NotificationID = &handle
	}

	s.persist("update_todo", id, func(ctx context.Context) error {
		return s.repo.Update(ctx, id, patch)
	})

	s.logger.Debugw("Todo updated", "todo_id", id)
	return todo.Clone(), nil
}

// rederiveReminder reconciles todo's reminder with its fields and returns
// the resulting handle. A changed due date or title replaces the reminder.
// Only edits to due date, title or notify schedule a new one, so a reminder
// released by completion stays released across unrelated edits.
func (s *TodoService) rederiveReminder(ctx context.Context, before entities.Todo, todo *entities.Todo, now time.Time) string {
	if todo.Completed {
		return todo.NotificationID
	}

	wants := todo.WantsReminder(now)
	stale := !sameTime(before.DueDate, todo.DueDate) || before.Title != todo.Title
	if todo.HasReminder() && (!wants || stale) {
		s.cancelReminder(ctx, todo.ID, todo.NotificationID)
		todo.NotificationID = ""
	}
	touched := stale || before.NotifyEnabled != todo.NotifyEnabled
	if wants && touched && !todo.HasReminder() {
		todo.NotificationID = s.scheduleReminder(ctx, *todo)
	}
	return todo.NotificationID
}

// DeleteTodo removes a todo and cancels its reminder.
func (s *TodoService) DeleteTodo(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return entities.ErrTodoNotFound
	}

	todo := s.todos[i]
	s.todos = append(s.todos[:i], s.todos[i+1:]...)
	s.removePendingLocked(id)
	if todo.HasReminder() {
		s.cancelReminder(ctx, id, todo.NotificationID)
	}

	s.persist("delete_todo", id, func(ctx context.Context) error {
		return s.repo.Delete(ctx, id)
	})

	s.logger.Infow("Todo deleted", "todo_id", id)
	return nil
}

// ToggleComplete flips a todo's completion. Completing releases the reminder,
// keeps the todo in place as pending removal outside the done view, and
// spawns the next occurrence of a repeating todo. Un-completing never
// restores the released reminder.
func (s *TodoService) ToggleComplete(ctx context.Context, id string) (*ports.ToggleResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil, entities.ErrTodoNotFound
	}

	now := s.clock.Now()
	todo := &s.todos[i]
	todo.UpdatedAt = now
	result := &ports.ToggleResult{}

	if todo.Completed {
		todo.MarkActive()
		s.removePendingLocked(id)

		completed := false
		s.persist("update_todo", id, func(ctx context.Context) error {
			return s.repo.Update(ctx, id, entities.TodoPatch{Completed: &completed, ClearCompleted: true})
		})

		result.Todo = todo.Clone()
		return result, nil
	}

	handle := todo.NotificationID
	todo.MarkCompleted(now)
	if handle != "" {
		s.cancelReminder(ctx, id, handle)
	}

	completed, completedAt, none := true, now, ""
	patch := entities.TodoPatch{Completed: &completed, CompletedAt: &completedAt}
	if handle != "" {
		patch.NotificationID = &none
	}
	s.persist("update_todo", id, func(ctx context.Context) error {
		return s.repo.Update(ctx, id, patch)
	})

	if s.filter != entities.FilterDone {
		s.addPendingLocked(id)
		result.PendingRemoval = true
	}
	result.Todo = todo.Clone()

	if next, ok := recurrence.Successor(*todo, "", now); ok {
		next.ID = s.ids.NewID()
		if recurrence.NeedsReminder(next, now) {
			next.NotificationID = s.scheduleReminder(ctx, next)
		}
		s.todos = append([]entities.Todo{next}, s.todos...)

		created := next.Clone()
		s.persist("create_todo", next.ID, func(ctx context.Context) error {
			return s.repo.Create(ctx, created)
		})
		result.Successor = &created

		s.logger.Infow("Recurring todo rescheduled", "todo_id", id, "successor_id", next.ID, "due", next.DueDate)
	}

	return result, nil
}

// AddPendingRemoval keeps a todo visible in its current position. With a
// removal grace configured the mark expires on its own.
func (s *TodoService) AddPendingRemoval(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addPendingLocked(id)
}

func (s *TodoService) RemovePendingRemoval(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removePendingLocked(id)
}

// PendingRemovals returns the ids currently pending removal.
func (s *TodoService) PendingRemovals() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.pending))
	for id := range s.pending {
		ids = append(ids, id)
	}
	return ids
}

func (s *TodoService) addPendingLocked(id string) {
	if timer, ok := s.pending[id]; ok && timer != nil {
		timer.Stop()
	}

	var timer *time.Timer
	if s.opts.RemovalGrace > 0 {
		timer = time.AfterFunc(s.opts.RemovalGrace, func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			// Only expire the mark this timer armed.
			if current, ok := s.pending[id]; ok && current == timer {
				delete(s.pending, id)
			}
		})
	}
	s.pending[id] = timer
}

func (s *TodoService) removePendingLocked(id string) {
	if timer, ok := s.pending[id]; ok {
		if timer != nil {
			timer.Stop()
		}
		delete(s.pending, id)
	}
}

// SetQuery sets the search text.
func (s *TodoService) SetQuery(query string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.query = query
}

func (s *TodoService) SetFilter(filter entities.Filter) error {
	if !filter.IsValid() {
		return fmt.Errorf("%w: %q", entities.ErrInvalidFilter, filter)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter = filter
	return nil
}

func (s *TodoService) SetSort(order entities.SortOrder) error {
	if !order.IsValid() {
		return fmt.Errorf("%w: %q", entities.ErrInvalidSortOrder, order)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sort = order
	return nil
}

func (s *TodoService) Query() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.query
}

func (s *TodoService) Filter() entities.Filter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter
}

func (s *TodoService) Sort() entities.SortOrder {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sort
}

// View returns the current query, filter, sort and selected list.
func (s *TodoService) View() ports.ViewState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ports.ViewState{Query: s.query, Filter: s.filter, Sort: s.sort, ListID: s.selectedList()}
}

// UpdateView changes any of query, filter and sort. Nothing changes unless
// every present field is valid.
func (s *TodoService) UpdateView(req ports.UpdateViewRequest) (ports.ViewState, error) {
	if err := s.validator.Struct(req); err != nil {
		return ports.ViewState{}, err
	}

	var filter entities.Filter
	if req.Filter != nil {
		f, err := entities.ParseFilter(*req.Filter)
		if err != nil {
			return ports.ViewState{}, invalid("filter", err.Error())
		}
		filter = f
	}
	var order entities.SortOrder
	if req.Sort != nil {
		o, err := entities.ParseSortOrder(*req.Sort)
		if err != nil {
			return ports.ViewState{}, invalid("sort", err.Error())
		}
		order = o
	}

	s.mu.Lock()
	if req.Query != nil {
		s.query = *req.Query
	}
	if filter != "" {
		s.filter = filter
	}
	if order != "" {
		s.sort = order
	}
	s.mu.Unlock()

	return s.View(), nil
}

// VisibleTodos evaluates the visibility pipeline over the store's state.
func (s *TodoService) VisibleTodos() []entities.Todo {
	return s.Visible(ports.ViewOptions{})
}

// Visible evaluates the visibility pipeline with per-call overrides.
func (s *TodoService) Visible(opts ports.ViewOptions) []entities.Todo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q := visibility.Query{
		Text:     s.query,
		Filter:   s.filter,
		Sort:     s.sort,
		ListID:   s.selectedList(),
		Pending:  make(map[string]bool, len(s.pending)),
		Now:      s.clock.Now(),
		Language: s.opts.Language,
	}
	if opts.Query != nil {
		q.Text = *opts.Query
	}
	if opts.Filter != "" {
		q.Filter = opts.Filter
	}
	if opts.Sort != "" {
		q.Sort = opts.Sort
	}
	if opts.ListID != "" {
		q.ListID = opts.ListID
	}
	for id := range s.pending {
		q.Pending[id] = true
	}

	return cloneTodos(visibility.Apply(s.todos, q))
}

func (s *TodoService) selectedList() string {
	if s.lists == nil {
		return entities.EverythingListID
	}
	if id := s.lists.SelectedListID(); id != "" {
		return id
	}
	return entities.EverythingListID
}

func (s *TodoService) indexOf(id string) int {
	for i := range s.todos {
		if s.todos[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *TodoService) persist(name, id string, run func(ctx context.Context) error) {
	s.writes.Enqueue(ports.WriteOp{Name: name, EntityID: id, Run: run})
}

// scheduleReminder returns the new handle, or "" when none was scheduled.
func (s *TodoService) scheduleReminder(ctx context.Context, todo entities.Todo) string {
	if s.reminders == nil || todo.DueDate == nil {
		return ""
	}
	handle, err := s.reminders.Schedule(ctx, todo.ID, todo.Title, *todo.DueDate)
	if err != nil {
		s.logger.Debugw("Reminder not scheduled", "todo_id", todo.ID, "error", err)
		return ""
	}
	return handle
}

func (s *TodoService) cancelReminder(ctx context.Context, todoID, handle string) {
	if s.reminders == nil {
		return
	}
	if err := s.reminders.Cancel(ctx, handle); err != nil {
		s.logger.Debugw("Reminder not cancelled", "todo_id", todoID, "handle", handle, "error", err)
	}
}

func cloneTodos(todos []entities.Todo) []entities.Todo {
	out := make([]entities.Todo, len(todos))
	for i, t := range todos {
		out[i] = t.Clone()
	}
	return out
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

var _ ports.TodoService = (*TodoService)(nil)
