package main

import (
	"log"
	"os"

	"github.com/taskmaster/todos/cmd/api/commands"
)

// @title Todos API
// @version 1.0
// @description Todo lists with due dates, reminders and repeating todos.

// @contact.name Todos Maintainers
// @contact.url https://github.com/taskmaster/todos

// @license.name MIT
// @license.url https://github.com/taskmaster/todos/blob/main/LICENSE

// @host localhost:8080
// @BasePath /api/v1

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		log.Printf("Command execution failed: %v", err)
		os.Exit(1)
	}
}
