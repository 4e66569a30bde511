// Package docs holds the OpenAPI description served at /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "Todos Maintainers",
            "url": "https://github.com/taskmaster/todos"
        },
        "license": {
            "name": "MIT",
            "url": "https://github.com/taskmaster/todos/blob/main/LICENSE"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/todos": {
            "get": {
                "description": "Runs the visibility pipeline. Query parameters override the stored view for this request only.",
                "produces": ["application/json"],
                "tags": ["todos"],
                "summary": "List visible todos",
                "parameters": [
                    {"type": "string", "description": "Search text", "name": "q", "in": "query"},
                    {"type": "string", "description": "today, all or done", "name": "filter", "in": "query"},
                    {"type": "string", "description": "default, dueDate or alphabetical", "name": "sort", "in": "query"},
                    {"type": "string", "description": "List id or __everything__", "name": "list_id", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.TodoListResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["todos"],
                "summary": "Create a todo",
                "parameters": [
                    {"description": "Todo data", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ports.CreateTodoRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/entities.Todo"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/todos/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["todos"],
                "summary": "Get a todo",
                "parameters": [
                    {"type": "string", "description": "Todo ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/entities.Todo"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            },
            "patch": {
                "description": "Partial update. Absent fields are left untouched.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["todos"],
                "summary": "Update a todo",
                "parameters": [
                    {"type": "string", "description": "Todo ID", "name": "id", "in": "path", "required": true},
                    {"description": "Fields to change", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ports.UpdateTodoRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/entities.Todo"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            },
            "delete": {
                "tags": ["todos"],
                "summary": "Delete a todo",
                "parameters": [
                    {"type": "string", "description": "Todo ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/todos/{id}/toggle": {
            "post": {
                "description": "Completing a repeating todo with a due date also creates its next occurrence.",
                "produces": ["application/json"],
                "tags": ["todos"],
                "summary": "Toggle completion",
                "parameters": [
                    {"type": "string", "description": "Todo ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ports.ToggleResult"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/todos/{id}/pending": {
            "post": {
                "tags": ["todos"],
                "summary": "Keep a todo visible as pending removal",
                "parameters": [
                    {"type": "string", "description": "Todo ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            },
            "delete": {
                "tags": ["todos"],
                "summary": "Clear a pending removal",
                "parameters": [
                    {"type": "string", "description": "Todo ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/view": {
            "get": {
                "produces": ["application/json"],
                "tags": ["view"],
                "summary": "Current query, filter, sort and list selection",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ports.ViewState"}}
                }
            },
            "put": {
                "description": "Fields left out keep their value. list_id is applied first.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["view"],
                "summary": "Update the view",
                "parameters": [
                    {"description": "View fields", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/http.ViewRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ports.ViewState"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/lists": {
            "get": {
                "produces": ["application/json"],
                "tags": ["lists"],
                "summary": "List lists",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.ListListResponse"}}
                }
            },
            "post": {
                "description": "The first list, or one created with is_default, becomes the default list.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["lists"],
                "summary": "Create a list",
                "parameters": [
                    {"description": "List data", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ports.CreateListRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/entities.List"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/lists/selected": {
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["lists"],
                "summary": "Select a list",
                "parameters": [
                    {"description": "List to select", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ports.SelectListRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ports.ViewState"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/lists/{id}": {
            "patch": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["lists"],
                "summary": "Rename a list or make it the default",
                "parameters": [
                    {"type": "string", "description": "List ID", "name": "id", "in": "path", "required": true},
                    {"description": "Fields to change", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ports.UpdateListRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/entities.List"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            },
            "delete": {
                "description": "The default list cannot be deleted. Todos in the list are kept.",
                "tags": ["lists"],
                "summary": "Delete a list",
                "parameters": [
                    {"type": "string", "description": "List ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "entities.Todo": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "title": {"type": "string"},
                "notes": {"type": "string"},
                "due_date": {"type": "string", "format": "date-time"},
                "created_at": {"type": "string", "format": "date-time"},
                "updated_at": {"type": "string", "format": "date-time"},
                "completed_at": {"type": "string", "format": "date-time"},
                "completed": {"type": "boolean"},
                "notify_enabled": {"type": "boolean"},
                "notification_id": {"type": "string"},
                "repeat": {"type": "string", "enum": ["never", "daily", "weekdays", "weekly"]},
                "list_id": {"type": "string"}
            }
        },
        "entities.List": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "is_default": {"type": "boolean"},
                "created_at": {"type": "string", "format": "date-time"}
            }
        },
        "ports.CreateTodoRequest": {
            "type": "object",
            "required": ["title"],
            "properties": {
                "title": {"type": "string", "maxLength": 200},
                "notes": {"type": "string", "maxLength": 1000},
                "due_date": {"type": "string", "format": "date-time"},
                "notify_enabled": {"type": "boolean"},
                "repeat": {"type": "string", "enum": ["never", "daily", "weekdays", "weekly"]},
                "list_id": {"type": "string"}
            }
        },
        "ports.UpdateTodoRequest": {
            "type": "object",
            "properties": {
                "title": {"type": "string", "maxLength": 200},
                "notes": {"type": "string", "maxLength": 1000},
                "due_date": {"type": "string", "format": "date-time"},
                "clear_due_date": {"type": "boolean"},
                "notify_enabled": {"type": "boolean"},
                "repeat": {"type": "string", "enum": ["never", "daily", "weekdays", "weekly"]},
                "list_id": {"type": "string"},
                "clear_list_id": {"type": "boolean"}
            }
        },
        "ports.ToggleResult": {
            "type": "object",
            "properties": {
                "todo": {"$ref": "#/definitions/entities.Todo"},
                "successor": {"$ref": "#/definitions/entities.Todo"},
                "pending_removal": {"type": "boolean"}
            }
        },
        "ports.ViewState": {
            "type": "object",
            "properties": {
                "query": {"type": "string"},
                "filter": {"type": "string", "enum": ["today", "all", "done"]},
                "sort": {"type": "string", "enum": ["default", "dueDate", "alphabetical"]},
                "list_id": {"type": "string"}
            }
        },
        "ports.CreateListRequest": {
            "type": "object",
            "required": ["name"],
            "properties": {
                "name": {"type": "string", "maxLength": 100},
                "is_default": {"type": "boolean"}
            }
        },
        "ports.UpdateListRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string", "maxLength": 100},
                "is_default": {"type": "boolean"}
            }
        },
        "ports.SelectListRequest": {
            "type": "object",
            "required": ["list_id"],
            "properties": {
                "list_id": {"type": "string"}
            }
        },
        "http.ViewRequest": {
            "type": "object",
            "properties": {
                "query": {"type": "string", "maxLength": 200},
                "filter": {"type": "string", "enum": ["today", "all", "done"]},
                "sort": {"type": "string", "enum": ["default", "dueDate", "alphabetical"]},
                "list_id": {"type": "string"}
            }
        },
        "http.TodoListResponse": {
            "type": "object",
            "properties": {
                "data": {"type": "array", "items": {"$ref": "#/definitions/entities.Todo"}},
                "total": {"type": "integer"},
                "pending": {"type": "array", "items": {"type": "string"}}
            }
        },
        "http.ListListResponse": {
            "type": "object",
            "properties": {
                "data": {"type": "array", "items": {"$ref": "#/definitions/entities.List"}},
                "selected_list_id": {"type": "string"}
            }
        },
        "http.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "fields": {"type": "object", "additionalProperties": {"type": "string"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{"http"},
	Title:            "Todos API",
	Description:      "Todo lists with due dates, reminders and repeating todos.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
