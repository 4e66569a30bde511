package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/taskmaster/todos/internal/domain/entities"
	"github.com/taskmaster/todos/internal/infrastructure/logger"
	"github.com/taskmaster/todos/internal/ports"
)

// ListService owns the in-memory lists and the list selection.
type ListService struct {
	repo      ports.ListRepository
	todoRepo  ports.TodoRepository
	writes    ports.WriteQueue
	clock     ports.Clock
	ids       ports.IDGenerator
	logger    *logger.Logger
	validator *Validator

	mu       sync.RWMutex
	lists    []entities.List
	selected string
}

// NewListService creates a new list service
func NewListService(
	repo ports.ListRepository,
	todoRepo ports.TodoRepository,
	writes ports.WriteQueue,
	clock ports.Clock,
	ids ports.IDGenerator,
	logger *logger.Logger,
) *ListService {
	return &ListService{
		repo:      repo,
		todoRepo:  todoRepo,
		writes:    writes,
		clock:     clock,
		ids:       ids,
		logger:    logger.WithComponent("list_store"),
		validator: NewValidator(),
		selected:  entities.EverythingListID,
	}
}

// Initialize loads the lists. On first run it creates the default list,
// moves every unassigned todo into it and selects it. Both writes happen
// synchronously so the todo store loads the migrated rows.
func (s *ListService) Initialize(ctx context.Context) error {
	lists, err := s.repo.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load lists: %w", err)
	}

	if len(lists) == 0 {
		def := entities.List{
			ID:        s.ids.NewID(),
			Name:      entities.DefaultListName,
			IsDefault: true,
			CreatedAt: s.clock.Now(),
		}
		if err := s.repo.Create(ctx, def); err != nil {
			return fmt.Errorf("failed to create default list: %w", err)
		}
		lists = []entities.List{def}

		moved, err := s.todoRepo.AssignUnlisted(ctx, def.ID)
		if err != nil {
			return fmt.Errorf("failed to migrate todos to default list: %w", err)
		}
		s.logger.Infow("Default list created", "list_id", def.ID, "migrated_todos", moved)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.lists = lists
	s.selected = entities.EverythingListID
	if def, ok := s.defaultLocked(); ok {
		s.selected = def.ID
	}
	return nil
}

// Reload replaces the local lists with the repository's contents.
func (s *ListService) Reload(ctx context.Context) error {
	lists, err := s.repo.LoadAll(ctx)
	if err != nil {
		return err
	}
	s.BulkSet(lists)
	return nil
}

// BulkSet replaces the lists without persisting anything. A selection that
// no longer exists falls back to Everything.
func (s *ListService) BulkSet(lists []entities.List) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lists = append([]entities.List(nil), lists...)
	if s.selected != entities.EverythingListID && s.indexOf(s.selected) < 0 {
		s.selected = entities.EverythingListID
	}
}

// Lists returns the lists, oldest first.
func (s *ListService) Lists() []entities.List {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entities.List(nil), s.lists...)
}

func (s *ListService) SelectedListID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected
}

// SetSelectedList selects a list or the Everything view.
func (s *ListService) SetSelectedList(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id != entities.EverythingListID && s.indexOf(id) < 0 {
		return entities.ErrListNotFound
	}
	s.selected = id
	return nil
}

// AddList creates a list. The first list, or one created as default, takes
// the default flag from any previous default.
func (s *ListService) AddList(ctx context.Context, req ports.CreateListRequest) (entities.List, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return entities.List{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	list := entities.List{
		ID:        s.ids.NewID(),
		Name:      req.Name,
		IsDefault: req.IsDefault,
		CreatedAt: s.clock.Now(),
	}
	if _, ok := s.defaultLocked(); !ok {
		list.IsDefault = true
	}
	if list.IsDefault {
		s.clearDefaultLocked()
	}

	s.lists = append(s.lists, list)
	s.persist("create_list", list.ID, func(ctx context.Context) error {
		return s.repo.Create(ctx, list)
	})

	s.logger.Infow("List created", "list_id", list.ID, "name", list.Name)
	return list, nil
}

// UpdateList renames a list or makes it the default. The default flag can
// only move to another list, never be removed.
func (s *ListService) UpdateList(ctx context.Context, id string, req ports.UpdateListRequest) (entities.List, error) {
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return entities.List{}, invalid("name", "is required")
		}
		req.Name = &name
	}
	if err := s.validator.Struct(req); err != nil {
		return entities.List{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return entities.List{}, entities.ErrListNotFound
	}

	patch := entities.ListPatch{Name: req.Name}
	if req.IsDefault != nil && *req.IsDefault != s.lists[i].IsDefault {
		if !*req.IsDefault {
			return entities.List{}, entities.ErrDefaultListRequired
		}
		s.clearDefaultLocked()
		patch.IsDefault = req.IsDefault
	}
	if patch.Name == nil && patch.IsDefault == nil {
		return s.lists[i], nil
	}

	patch.Apply(&s.lists[i])
	s.persist("update_list", id, func(ctx context.Context) error {
		return s.repo.Update(ctx, id, patch)
	})

	return s.lists[i], nil
}

// DeleteList removes a list. Its todos keep their list id and only show up
// under Everything afterwards.
func (s *ListService) DeleteList(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return entities.ErrListNotFound
	}
	if s.lists[i].IsDefault {
		return entities.ErrDefaultListProtected
	}

	s.lists = append(s.lists[:i], s.lists[i+1:]...)
	if s.selected == id {
		s.selected = entities.EverythingListID
	}

	s.persist("delete_list", id, func(ctx context.Context) error {
		return s.repo.Delete(ctx, id)
	})

	s.logger.Infow("List deleted", "list_id", id)
	return nil
}

// clearDefaultLocked unsets the current default, persisting the change
// ahead of whatever replaces it.
func (s *ListService) clearDefaultLocked() {
	for i := range s.lists {
		if !s.lists[i].IsDefault {
			continue
		}
		s.lists[i].IsDefault = false

		id, off := s.lists[i].ID, false
		s.persist("update_list", id, func(ctx context.Context) error {
			return s.repo.Update(ctx, id, entities.ListPatch{IsDefault: &off})
		})
	}
}

func (s *ListService) defaultLocked() (entities.List, bool) {
	for _, l := range s.lists {
		if l.IsDefault {
			return l, true
		}
	}
	return entities.List{}, false
}

func (s *ListService) indexOf(id string) int {
	for i := range s.lists {
		if s.lists[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *ListService) persist(name, id string, run func(ctx context.Context) error) {
	s.writes.Enqueue(ports.WriteOp{Name: name, EntityID: id, Run: run})
}

var (
	_ ports.ListService  = (*ListService)(nil)
	_ ports.ListSelector = (*ListService)(nil)
)
