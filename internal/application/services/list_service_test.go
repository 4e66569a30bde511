package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/taskmaster/todos/internal/domain/entities"
	"github.com/taskmaster/todos/internal/ports"
)

func TestListInitializeCreatesDefaultAndMigratesTodos(t *testing.T) {
	f := newFixture(t, TodoOptions{})
	ctx := context.Background()

	orphan := entities.Todo{ID: "orphan", Title: "old", CreatedAt: base, Repeat: entities.RepeatNever}
	if err := f.todoRepo.Create(ctx, orphan); err != nil {
		t.Fatal(err)
	}

	if err := f.lists.Initialize(ctx); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	lists := f.lists.Lists()
	if len(lists) != 1 || lists[0].Name != entities.DefaultListName || !lists[0].IsDefault {
		t.Fatalf("lists = %+v", lists)
	}
	if f.lists.SelectedListID() != lists[0].ID {
		t.Errorf("selected = %s, want default %s", f.lists.SelectedListID(), lists[0].ID)
	}

	stored := f.stored(t, "orphan")
	if stored.ListID == nil || *stored.ListID != lists[0].ID {
		t.Errorf("orphan list = %v, want %s", stored.ListID, lists[0].ID)
	}
	persisted, _ := f.listRepo.LoadAll(ctx)
	if len(persisted) != 1 {
		t.Errorf("persisted lists = %+v", persisted)
	}
}

func TestListInitializeKeepsExistingLists(t *testing.T) {
	f := newFixture(t, TodoOptions{})
	ctx := context.Background()

	for _, l := range []entities.List{
		{ID: "home", Name: "Home", CreatedAt: base},
		{ID: "work", Name: "Work", IsDefault: true, CreatedAt: base.Add(time.Minute)},
	} {
		if err := f.listRepo.Create(ctx, l); err != nil {
			t.Fatal(err)
		}
	}

	if err := f.lists.Initialize(ctx); err != nil {
		t.Fatal(err)
	}
	if n := len(f.lists.Lists()); n != 2 {
		t.Errorf("lists = %d, want 2", n)
	}
	if f.lists.SelectedListID() != "work" {
		t.Errorf("selected = %s, want work", f.lists.SelectedListID())
	}
}

func TestAddListMovesDefault(t *testing.T) {
	f := newFixture(t, TodoOptions{})
	ctx := context.Background()

	first, err := f.lists.AddList(ctx, ports.CreateListRequest{Name: " Home "})
	if err != nil {
		t.Fatal(err)
	}
	if first.Name != "Home" || !first.IsDefault {
		t.Errorf("first list = %+v, want default", first)
	}

	second, err := f.lists.AddList(ctx, ports.CreateListRequest{Name: "Work", IsDefault: true})
	if err != nil {
		t.Fatal(err)
	}
	if !second.IsDefault {
		t.Error("second list is not default")
	}

	defaults := 0
	for _, l := range f.lists.Lists() {
		if l.IsDefault {
			defaults++
		}
	}
	if defaults != 1 {
		t.Errorf("%d default lists in memory", defaults)
	}

	persisted, _ := f.listRepo.LoadAll(ctx)
	for _, l := range persisted {
		if l.IsDefault != (l.ID == second.ID) {
			t.Errorf("persisted %s default = %v", l.Name, l.IsDefault)
		}
	}

	if _, err := f.lists.AddList(ctx, ports.CreateListRequest{Name: "  "}); !errors.Is(err, entities.ErrValidation) {
		t.Errorf("blank name error = %v", err)
	}
}

func TestUpdateList(t *testing.T) {
	f := newFixture(t, TodoOptions{})
	ctx := context.Background()
	home, _ := f.lists.AddList(ctx, ports.CreateListRequest{Name: "Home"})
	work, _ := f.lists.AddList(ctx, ports.CreateListRequest{Name: "Work"})

	name := "Office"
	got, err := f.lists.UpdateList(ctx, work.ID, ports.UpdateListRequest{Name: &name})
	if err != nil || got.Name != "Office" {
		t.Fatalf("rename = %+v, %v", got, err)
	}

	yes, no := true, false
	if _, err := f.lists.UpdateList(ctx, work.ID, ports.UpdateListRequest{IsDefault: &yes}); err != nil {
		t.Fatal(err)
	}
	for _, l := range f.lists.Lists() {
		if l.IsDefault != (l.ID == work.ID) {
			t.Errorf("%s default = %v", l.Name, l.IsDefault)
		}
	}

	if _, err := f.lists.UpdateList(ctx, work.ID, ports.UpdateListRequest{IsDefault: &no}); !errors.Is(err, entities.ErrDefaultListRequired) {
		t.Errorf("unset default error = %v", err)
	}
	if _, err := f.lists.UpdateList(ctx, "missing", ports.UpdateListRequest{Name: &name}); !errors.Is(err, entities.ErrListNotFound) {
		t.Errorf("missing list error = %v", err)
	}

	persisted, _ := f.listRepo.LoadAll(ctx)
	for _, l := range persisted {
		if l.ID == home.ID && (l.IsDefault || l.Name != "Home") {
			t.Errorf("persisted home = %+v", l)
		}
		if l.ID == work.ID && (!l.IsDefault || l.Name != "Office") {
			t.Errorf("persisted work = %+v", l)
		}
	}
}

func TestDeleteList(t *testing.T) {
	f := newFixture(t, TodoOptions{})
	ctx := context.Background()
	home, _ := f.lists.AddList(ctx, ports.CreateListRequest{Name: "Home"})
	work, _ := f.lists.AddList(ctx, ports.CreateListRequest{Name: "Work"})

	if err := f.lists.DeleteList(ctx, home.ID); !errors.Is(err, entities.ErrDefaultListProtected) {
		t.Errorf("delete default error = %v", err)
	}

	if err := f.lists.SetSelectedList(work.ID); err != nil {
		t.Fatal(err)
	}
	if err := f.lists.DeleteList(ctx, work.ID); err != nil {
		t.Fatalf("DeleteList() error = %v", err)
	}
	if f.lists.SelectedListID() != entities.EverythingListID {
		t.Errorf("selection = %s after deleting it", f.lists.SelectedListID())
	}
	if err := f.lists.DeleteList(ctx, work.ID); !errors.Is(err, entities.ErrListNotFound) {
		t.Errorf("second delete error = %v", err)
	}
}

func TestSetSelectedList(t *testing.T) {
	f := newFixture(t, TodoOptions{})
	home, _ := f.lists.AddList(context.Background(), ports.CreateListRequest{Name: "Home"})

	if err := f.lists.SetSelectedList("nope"); !errors.Is(err, entities.ErrListNotFound) {
		t.Errorf("unknown list error = %v", err)
	}
	if err := f.lists.SetSelectedList(home.ID); err != nil {
		t.Fatal(err)
	}
	if err := f.lists.SetSelectedList(entities.EverythingListID); err != nil {
		t.Errorf("select Everything error = %v", err)
	}
}

func TestListScopingFollowsSelection(t *testing.T) {
	f := newFixture(t, TodoOptions{})
	ctx := context.Background()
	home, _ := f.lists.AddList(ctx, ports.CreateListRequest{Name: "Home"})
	work, _ := f.lists.AddList(ctx, ports.CreateListRequest{Name: "Work"})

	f.add(t, ports.CreateTodoRequest{Title: "dishes", ListID: &home.ID})
	f.clock.Advance(time.Minute)
	f.add(t, ports.CreateTodoRequest{Title: "report", ListID: &work.ID})
	f.clock.Advance(time.Minute)
	f.add(t, ports.CreateTodoRequest{Title: "loose"})

	if got := titles(f.todos.VisibleTodos()); got != "loose,report,dishes" {
		t.Errorf("Everything = %s", got)
	}
	if err := f.lists.SetSelectedList(work.ID); err != nil {
		t.Fatal(err)
	}
	if got := titles(f.todos.VisibleTodos()); got != "loose,report" {
		t.Errorf("Work = %s, want unassigned todos included", got)
	}
	if got := f.todos.View().ListID; got != work.ID {
		t.Errorf("View().ListID = %s", got)
	}
}

func TestListReloadDropsVanishedSelection(t *testing.T) {
	f := newFixture(t, TodoOptions{})
	ctx := context.Background()
	work, _ := f.lists.AddList(ctx, ports.CreateListRequest{Name: "Work"})
	_ = f.lists.SetSelectedList(work.ID)

	if err := f.listRepo.Delete(ctx, work.ID); err != nil {
		t.Fatal(err)
	}
	if err := f.lists.Reload(ctx); err != nil {
		t.Fatal(err)
	}
	if f.lists.SelectedListID() != entities.EverythingListID || len(f.lists.Lists()) != 0 {
		t.Errorf("after reload: selected %s, lists %+v", f.lists.SelectedListID(), f.lists.Lists())
	}
}
