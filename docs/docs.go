// Package docs is the swaggo/swag output for the handler annotations.
// Regenerate with `go generate ./...` after changing a route; app_test checks every route is listed.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/books": {
            "get": {
                "produces": ["application/json"],
                "tags": ["catalog"],
                "summary": "List books",
                "parameters": [
                    {"type": "string", "name": "title", "in": "query"},
                    {"type": "string", "name": "author", "in": "query"},
                    {"type": "string", "name": "isbn", "in": "query"},
                    {"type": "integer", "name": "limit", "in": "query"},
                    {"type": "integer", "name": "offset", "in": "query"},
                    {"type": "string", "name": "order", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/catalog.ListBooksResult"}}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["catalog"],
                "summary": "Add a book to the catalog",
                "parameters": [
                    {"description": "book", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/catalog.AddBookRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/catalog.AddBookResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/catalog.AddBookResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/catalog.AddBookResponse"}}
                }
            }
        },
        "/books/search": {
            "get": {
                "produces": ["application/json"],
                "tags": ["search"],
                "summary": "Search the catalog",
                "parameters": [
                    {"type": "string", "name": "q", "in": "query", "required": true},
                    {"type": "string", "name": "field", "in": "query", "description": "title | author | isbn"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/search.Result"}}}
            }
        },
        "/books/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["catalog"],
                "summary": "Get a book",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/catalog.BookResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/apperr.ErrorDTO"}}
                }
            }
        },
        "/books/{id}/borrow": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["lends"],
                "summary": "Borrow a book",
                "parameters": [
                    {"type": "integer", "name": "id", "in": "path", "required": true},
                    {"description": "patron", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/lends.PatronRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/lends.OutcomeResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/lends.OutcomeResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/lends.OutcomeResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/lends.OutcomeResponse"}}
                }
            }
        },
        "/books/{id}/return": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["lends"],
                "summary": "Return a borrowed book",
                "parameters": [
                    {"type": "integer", "name": "id", "in": "path", "required": true},
                    {"description": "patron", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/lends.PatronRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/lends.OutcomeResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/lends.OutcomeResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/lends.OutcomeResponse"}}
                }
            }
        },
        "/books/{id}/fee": {
            "get": {
                "produces": ["application/json"],
                "tags": ["lends"],
                "summary": "Late fee of the latest loan",
                "parameters": [
                    {"type": "integer", "name": "id", "in": "path", "required": true},
                    {"type": "string", "name": "patron_id", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/lends.FeeReport"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/apperr.ErrorDTO"}}
                }
            }
        },
        "/lends": {
            "get": {
                "produces": ["application/json"],
                "tags": ["lends"],
                "summary": "List loans",
                "parameters": [
                    {"type": "string", "name": "patron_id", "in": "query"},
                    {"type": "integer", "name": "book_id", "in": "query"},
                    {"type": "string", "name": "status", "in": "query"},
                    {"type": "string", "name": "from", "in": "query"},
                    {"type": "string", "name": "to", "in": "query"},
                    {"type": "integer", "name": "limit", "in": "query"},
                    {"type": "integer", "name": "offset", "in": "query"},
                    {"type": "string", "name": "order", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/lends.ListLoansResult"}}}
            }
        },
        "/lends/{lend_ulid}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["lends"],
                "summary": "Get a loan",
                "parameters": [{"type": "string", "name": "lend_ulid", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/lends.LoanResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/apperr.ErrorDTO"}}
                }
            }
        },
        "/patrons/{patron_id}/status": {
            "get": {
                "produces": ["application/json"],
                "tags": ["status"],
                "summary": "Patron status report",
                "parameters": [{"type": "string", "name": "patron_id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/status.Report"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/apperr.ErrorDTO"}}
                }
            }
        },
        "/accounts": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Create a librarian account",
                "parameters": [
                    {"description": "account", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/auth.RegisterRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"type": "object", "additionalProperties": true}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": true}},
                    "409": {"description": "Conflict", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/accounts/{id}": {
            "delete": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Delete a librarian account",
                "parameters": [{"type": "string", "description": "account id", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}},
                    "404": {"description": "Not Found", "schema": {"type": "object", "additionalProperties": true}}
                }
            },
            "patch": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Rename a librarian account",
                "parameters": [
                    {"type": "string", "description": "account id", "name": "id", "in": "path", "required": true},
                    {"description": "new id", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/auth.ChangeIDRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}},
                    "404": {"description": "Not Found", "schema": {"type": "object", "additionalProperties": true}},
                    "409": {"description": "Conflict", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Librarian login",
                "parameters": [
                    {"description": "credentials", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/auth.LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/auth.LoginResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        }
    },
    "definitions": {
        "apperr.ErrorDTO": {
            "type": "object",
            "properties": {
                "error": {
                    "type": "object",
                    "properties": {"code": {"type": "string"}, "message": {"type": "string"}}
                }
            }
        },
        "auth.ChangeIDRequest": {
            "type": "object",
            "required": ["new_id"],
            "properties": {"new_id": {"type": "string"}}
        },
        "auth.RegisterRequest": {
            "type": "object",
            "required": ["id", "password"],
            "properties": {"id": {"type": "string"}, "password": {"type": "string"}, "role": {"type": "string"}}
        },
        "auth.LoginRequest": {
            "type": "object",
            "required": ["id", "password"],
            "properties": {"id": {"type": "string"}, "password": {"type": "string"}}
        },
        "auth.LoginResponse": {
            "type": "object",
            "properties": {"message": {"type": "string"}, "token": {"type": "string"}}
        },
        "catalog.AddBookRequest": {
            "type": "object",
            "properties": {
                "author": {"type": "string"},
                "isbn": {"type": "string"},
                "title": {"type": "string"},
                "total_copies": {"type": "integer"}
            }
        },
        "catalog.AddBookResponse": {
            "type": "object",
            "properties": {
                "book": {"$ref": "#/definitions/catalog.BookResponse"},
                "message": {"type": "string"},
                "success": {"type": "boolean"}
            }
        },
        "catalog.BookResponse": {
            "type": "object",
            "properties": {
                "author": {"type": "string"},
                "available_copies": {"type": "integer"},
                "book_id": {"type": "integer"},
                "created_at": {"type": "string"},
                "isbn": {"type": "string"},
                "title": {"type": "string"},
                "total_copies": {"type": "integer"}
            }
        },
        "catalog.ListBooksResult": {
            "type": "object",
            "properties": {
                "items": {"type": "array", "items": {"$ref": "#/definitions/catalog.BookResponse"}},
                "next_offset": {"type": "integer"},
                "total": {"type": "integer"}
            }
        },
        "fees.Assessment": {
            "type": "object",
            "properties": {
                "capped": {"type": "boolean"},
                "days_overdue": {"type": "integer"},
                "fee_amount": {"type": "string"},
                "status": {"type": "string"}
            }
        },
        "lends.FeeReport": {
            "type": "object",
            "properties": {
                "book_id": {"type": "integer"},
                "capped": {"type": "boolean"},
                "days_overdue": {"type": "integer"},
                "due_at": {"type": "string"},
                "fee_amount": {"type": "string"},
                "found": {"type": "boolean"},
                "loan_ulid": {"type": "string"},
                "patron_id": {"type": "string"},
                "returned_at": {"type": "string"},
                "status": {"type": "string"}
            }
        },
        "lends.ListLoansResult": {
            "type": "object",
            "properties": {
                "items": {"type": "array", "items": {"$ref": "#/definitions/lends.LoanResponse"}},
                "next_offset": {"type": "integer"},
                "total": {"type": "integer"}
            }
        },
        "lends.LoanResponse": {
            "type": "object",
            "properties": {
                "book_id": {"type": "integer"},
                "borrowed_at": {"type": "string"},
                "due_at": {"type": "string"},
                "loan_ulid": {"type": "string"},
                "patron_id": {"type": "string"},
                "returned_at": {"type": "string"},
                "status": {"type": "string"},
                "title": {"type": "string"}
            }
        },
        "lends.OutcomeResponse": {
            "type": "object",
            "properties": {
                "fee": {"$ref": "#/definitions/fees.Assessment"},
                "loan": {"$ref": "#/definitions/lends.LoanResponse"},
                "message": {"type": "string"},
                "success": {"type": "boolean"}
            }
        },
        "lends.PatronRequest": {
            "type": "object",
            "properties": {"patron_id": {"type": "string"}}
        },
        "search.Result": {
            "type": "object",
            "properties": {
                "count": {"type": "integer"},
                "items": {"type": "array", "items": {"$ref": "#/definitions/catalog.BookResponse"}}
            }
        },
        "status.Report": {
            "type": "object",
            "properties": {
                "borrowed_books": {"type": "array", "items": {"type": "object"}},
                "borrowed_count": {"type": "integer"},
                "fee_summary": {"type": "object"},
                "history": {"type": "array", "items": {"type": "object"}},
                "patron_id": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Library Lending API",
	Description:      "Catalog, borrowing, returns and late fees for a small library.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
