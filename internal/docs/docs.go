// Package docs holds the OpenAPI document served under /swagger when the
// binary is built with -tags=swagger. Regenerate with `make swagger-gen`.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {"name": "forumd maintainers"},
        "license": {"name": "MIT", "url": "https://opensource.org/licenses/MIT"},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/about": {"get": {"produces": ["application/json"], "summary": "About page", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.StaticPage"}}}}},
        "/privacy": {"get": {"produces": ["application/json"], "summary": "Privacy policy", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.StaticPage"}}}}},
        "/feedback": {
            "get": {"produces": ["application/json"], "summary": "Feedback form", "parameters": [{"name": "next", "in": "query", "type": "string"}, {"name": "X-Forum-User", "in": "header", "type": "string"}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.FeedbackPage"}}, "303": {"description": "Sign in required"}}},
            "post": {"consumes": ["application/json", "application/x-www-form-urlencoded"], "produces": ["application/json"], "summary": "Send feedback to the moderators", "parameters": [{"name": "form", "in": "body", "required": true, "schema": {"$ref": "#/definitions/types.FeedbackForm"}}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.FeedbackResult"}}, "400": {"description": "Invalid form", "schema": {"$ref": "#/definitions/types.FeedbackPage"}}, "303": {"description": "Sign in required"}}}
        },
        "/badges/{id}": {"get": {"produces": ["application/json"], "summary": "Badge with recipients", "parameters": [{"name": "id", "in": "path", "required": true, "type": "integer"}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.BadgePage"}}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}}}},
        "/articles/{slug}": {"get": {"produces": ["application/json"], "summary": "Article with related articles", "parameters": [{"name": "slug", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ArticlePage"}}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}}}},
        "/search": {"get": {"produces": ["application/json"], "summary": "Search every registered search hook", "parameters": [{"name": "q", "in": "query", "type": "string"}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.SearchResponse"}}}}},
        "/admin/signals": {"get": {"produces": ["application/json"], "summary": "Signal channels and listeners", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.SignalsResponse"}}}}}
    },
    "definitions": {
        "types.ErrorResponse": {"type": "object", "properties": {"error": {"type": "string", "example": "article not found: intro"}, "code": {"type": "integer", "example": 404}}},
        "types.StaticPage": {"type": "object", "properties": {"title": {"type": "string"}, "content": {"type": "string"}, "page_class": {"type": "string", "example": "meta"}}},
        "types.FeedbackForm": {"type": "object", "properties": {"name": {"type": "string"}, "email": {"type": "string"}, "message": {"type": "string"}, "next": {"type": "string"}}},
        "types.FeedbackPage": {"type": "object", "properties": {"page_class": {"type": "string"}, "next": {"type": "string"}, "ask_email": {"type": "boolean"}, "errors": {"type": "object", "additionalProperties": {"type": "string"}}}},
        "types.FeedbackResult": {"type": "object", "properties": {"message": {"type": "string"}, "next": {"type": "string"}, "id": {"type": "string"}}},
        "types.BadgePage": {"type": "object", "properties": {"active_tab": {"type": "string"}, "badge": {"type": "object"}, "badge_recipients": {"type": "array", "items": {"type": "object"}}, "page_class": {"type": "string"}}},
        "types.ArticlePage": {"type": "object", "properties": {"article": {"type": "object"}, "related_articles": {"type": "array", "items": {"type": "object"}}}},
        "types.SearchResponse": {"type": "object", "properties": {"query": {"type": "string"}, "groups": {"type": "array", "items": {"type": "object"}}}},
        "types.SignalsResponse": {"type": "object", "properties": {"channels": {"type": "array", "items": {"type": "object"}}}}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "forumd API",
	Description:      "Secondary pages, articles, badges and search for a Q&A forum.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
