package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/taskmaster/todos/internal/domain/dates"
	"github.com/taskmaster/todos/internal/domain/entities"
	"github.com/taskmaster/todos/internal/ports"
)

// NewTodosCommand creates the todos command with subcommands
func NewTodosCommand() *cobra.Command {
	todosCmd := &cobra.Command{
		Use:     "todos",
		Aliases: []string{"todo", "t"},
		Short:   "List and edit todos",
	}

	listCmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Show todos through the same view as the app",
		Args:    cobra.NoArgs,
		RunE:    runTodosList,
	}
	listCmd.Flags().StringP("filter", "f", string(entities.FilterAll), "today, all or done")
	listCmd.Flags().StringP("sort", "s", string(entities.SortDefault), "default, dueDate or alphabetical")
	listCmd.Flags().StringP("query", "q", "", "only todos whose title or notes contain this text")
	listCmd.Flags().StringP("list", "l", "", "list id or name (default: every list)")

	addCmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a todo",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runTodosAdd,
	}
	addCmd.Flags().String("due", "", `due date: "2006-01-02", "2006-01-02 15:04" or RFC 3339`)
	addCmd.Flags().String("notes", "", "notes")
	addCmd.Flags().String("repeat", string(entities.RepeatNever), "never, daily, weekdays or weekly")
	addCmd.Flags().Bool("notify", false, "remind when the todo is due")
	addCmd.Flags().StringP("list", "l", "", "list id or name")

	doneCmd := &cobra.Command{
		Use:   "done <id>",
		Short: "Toggle a todo's completion",
		Args:  cobra.ExactArgs(1),
		RunE:  runTodosDone,
	}

	rmCmd := &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a todo",
		Args:    cobra.ExactArgs(1),
		RunE:    runTodosRemove,
	}

	todosCmd.AddCommand(listCmd, addCmd, doneCmd, rmCmd)
	return todosCmd
}

// NewListsCommand creates the lists command with subcommands
func NewListsCommand() *cobra.Command {
	listsCmd := &cobra.Command{
		Use:     "lists",
		Aliases: []string{"list", "l"},
		Short:   "Manage todo lists",
	}

	listsCmd.AddCommand(&cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Show lists",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(s *session, p *printer) error {
				return p.lists(s.app.Lists.Lists())
			})
		},
	})

	addCmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a list",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			isDefault, _ := cmd.Flags().GetBool("default")
			return withSession(cmd, func(s *session, p *printer) error {
				list, err := s.app.Lists.AddList(cmd.Context(), ports.CreateListRequest{
					Name:      strings.Join(args, " "),
					IsDefault: isDefault,
				})
				if err != nil {
					return err
				}
				return p.message(list, "Created list %s (%s)", list.Name, list.ID)
			})
		},
	}
	addCmd.Flags().Bool("default", false, "make this the default list")

	listsCmd.AddCommand(addCmd, &cobra.Command{
		Use:     "rm <id|name>",
		Aliases: []string{"delete"},
		Short:   "Delete a list. Its todos are kept.",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(s *session, p *printer) error {
				list, err := resolveList(s.app.Lists.Lists(), args[0])
				if err != nil {
					return err
				}
				if err := s.app.Lists.DeleteList(cmd.Context(), list.ID); err != nil {
					return err
				}
				return p.message(list, "Deleted list %s", list.Name)
			})
		},
	})

	return listsCmd
}

// withSession opens the store, runs fn and drains writes before returning.
func withSession(cmd *cobra.Command, fn func(*session, *printer) error) (err error) {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); err == nil {
			err = cerr
		}
	}()

	p, err := newPrinter(cmd, s.cfg.Display.Theme, s.app.Clock.Now())
	if err != nil {
		return err
	}
	return fn(s, p)
}

func runTodosList(cmd *cobra.Command, args []string) error {
	filterFlag, _ := cmd.Flags().GetString("filter")
	sortFlag, _ := cmd.Flags().GetString("sort")
	query, _ := cmd.Flags().GetString("query")
	listFlag, _ := cmd.Flags().GetString("list")

	filter, err := entities.ParseFilter(filterFlag)
	if err != nil {
		return err
	}
	order, err := entities.ParseSortOrder(sortFlag)
	if err != nil {
		return err
	}

	return withSession(cmd, func(s *session, p *printer) error {
		lists := s.app.Lists.Lists()
		opts := ports.ViewOptions{Query: &query, Filter: filter, Sort: order, ListID: entities.EverythingListID}
		if listFlag != "" {
			list, err := resolveList(lists, listFlag)
			if err != nil {
				return err
			}
			opts.ListID = list.ID
		}
		return p.todos(s.app.Todos.Visible(opts), listNames(lists))
	})
}

func runTodosAdd(cmd *cobra.Command, args []string) error {
	dueFlag, _ := cmd.Flags().GetString("due")
	notes, _ := cmd.Flags().GetString("notes")
	repeatFlag, _ := cmd.Flags().GetString("repeat")
	notify, _ := cmd.Flags().GetBool("notify")
	listFlag, _ := cmd.Flags().GetString("list")

	repeat, err := entities.ParseRepeat(repeatFlag)
	if err != nil {
		return err
	}

	return withSession(cmd, func(s *session, p *printer) error {
		req := ports.CreateTodoRequest{
			Title:         strings.Join(args, " "),
			Notes:         notes,
			NotifyEnabled: notify,
			Repeat:        repeat,
		}
		if dueFlag != "" {
			due, err := dates.ParseTimestamp(dueFlag, s.app.Location)
			if err != nil {
				return fmt.Errorf("invalid --due: %w", err)
			}
			req.DueDate = &due
		}
		if listFlag != "" {
			list, err := resolveList(s.app.Lists.Lists(), listFlag)
			if err != nil {
				return err
			}
			req.ListID = &list.ID
		}

		todo, err := s.app.Todos.AddTodo(cmd.Context(), req)
		if err != nil {
			return err
		}
		return p.message(todo, "Added %s (%s)", todo.Title, todo.ID)
	})
}

func runTodosDone(cmd *cobra.Command, args []string) error {
	return withSession(cmd, func(s *session, p *printer) error {
		result, err := s.app.Todos.ToggleComplete(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if p.structured() {
			return p.encode(result)
		}

		if !result.Todo.Completed {
			return p.message(result, "Reopened %s", result.Todo.Title)
		}
		if err := p.message(result, "Completed %s", result.Todo.Title); err != nil {
			return err
		}
		if next := result.Successor; next != nil && next.DueDate != nil {
			return p.message(result, "Next: %s due %s (%s)", next.Title, dates.FormatDue(*next.DueDate, p.now), next.ID)
		}
		return nil
	})
}

func runTodosRemove(cmd *cobra.Command, args []string) error {
	return withSession(cmd, func(s *session, p *printer) error {
		todo, err := s.app.Todos.Get(args[0])
		if err != nil {
			return err
		}
		if err := s.app.Todos.DeleteTodo(cmd.Context(), todo.ID); err != nil {
			return err
		}
		return p.message(todo, "Deleted %s", todo.Title)
	})
}

// resolveList finds a list by id, then by case-insensitive name.
func resolveList(lists []entities.List, ref string) (entities.List, error) {
	for _, l := range lists {
		if l.ID == ref {
			return l, nil
		}
	}
	for _, l := range lists {
		if strings.EqualFold(l.Name, ref) {
			return l, nil
		}
	}
	return entities.List{}, fmt.Errorf("%w: %s", entities.ErrListNotFound, ref)
}

func listNames(lists []entities.List) map[string]string {
	names := make(map[string]string, len(lists))
	for _, l := range lists {
		names[l.ID] = l.Name
	}
	return names
}
