// Package docs holds the OpenAPI document served under /swagger.
//
// Regenerate from the handler annotations with:
//
//	swag init --v3.1 -g cmd/server/main.go -o docs
package docs

import "github.com/swaggo/swag/v2"

const docTemplate = `{
    "openapi": "3.1.0",
    "info": {
        "title": "{{.Title}}",
        "description": "{{escape .Description}}",
        "version": "{{.Version}}"
    },
    "servers": [{"url": "{{.BasePath}}"}],
    "tags": [
        {"name": "registrations", "description": "Public registration wizard"},
        {"name": "auth", "description": "Household and admin sign in"},
        {"name": "families", "description": "Signed-in household"},
        {"name": "admin", "description": "Family dashboard and exports"},
        {"name": "stats", "description": "Public counters"},
        {"name": "system", "description": "Service information"}
    ],
    "paths": {
        "/registrations": {"post": {"tags": ["registrations"], "operationId": "startRegistration", "summary": "Start a registration draft"}},
        "/registrations/{id}": {"get": {"tags": ["registrations"], "operationId": "getRegistration", "summary": "Get a registration draft"}},
        "/registrations/{id}/house": {"put": {"tags": ["registrations"], "operationId": "setRegistrationHouse", "summary": "Set the house details"}},
        "/registrations/{id}/next": {"post": {"tags": ["registrations"], "operationId": "nextRegistrationStep", "summary": "Validate the step and advance"}},
        "/registrations/{id}/back": {"post": {"tags": ["registrations"], "operationId": "previousRegistrationStep", "summary": "Go back one step"}},
        "/registrations/{id}/goto/{step}": {"post": {"tags": ["registrations"], "operationId": "jumpRegistrationStep", "summary": "Jump to a completed step"}},
        "/registrations/{id}/members": {"post": {"tags": ["registrations"], "operationId": "addRegistrationMember", "summary": "Add a member"}},
        "/registrations/{id}/members/{index}": {
            "put": {"tags": ["registrations"], "operationId": "updateRegistrationMember", "summary": "Edit a member row inline"},
            "delete": {"tags": ["registrations"], "operationId": "removeRegistrationMember", "summary": "Remove a member"}
        },
        "/registrations/{id}/members/{index}/edit": {"post": {"tags": ["registrations"], "operationId": "editRegistrationMember", "summary": "Open the member editor"}},
        "/registrations/{id}/modal/save": {"post": {"tags": ["registrations"], "operationId": "saveRegistrationModal", "summary": "Save the member editor"}},
        "/registrations/{id}/modal/cancel": {"post": {"tags": ["registrations"], "operationId": "cancelRegistrationModal", "summary": "Close the member editor"}},
        "/registrations/{id}/contact": {"put": {"tags": ["registrations"], "operationId": "setRegistrationContact", "summary": "Choose the primary contact"}},
        "/registrations/{id}/photo": {
            "post": {"tags": ["registrations"], "operationId": "uploadRegistrationPhoto", "summary": "Upload the guardian photo"},
            "delete": {"tags": ["registrations"], "operationId": "discardRegistrationPhoto", "summary": "Discard the guardian photo"}
        },
        "/registrations/{id}/photo/confirm": {"post": {"tags": ["registrations"], "operationId": "confirmRegistrationPhoto", "summary": "Confirm the cropped photo"}},
        "/registrations/{id}/submit": {"post": {"tags": ["registrations"], "operationId": "submitRegistration", "summary": "Submit the reviewed draft"}},
        "/registrations/{id}/reset": {"post": {"tags": ["registrations"], "operationId": "resetRegistration", "summary": "Start over"}},
        "/auth/household/login": {"post": {"tags": ["auth"], "operationId": "householdLogin", "summary": "Household login"}},
        "/auth/admin/login": {"post": {"tags": ["auth"], "operationId": "adminLogin", "summary": "Admin login"}},
        "/auth/refresh": {"post": {"tags": ["auth"], "operationId": "refreshToken", "summary": "Refresh access token"}},
        "/auth/logout": {"post": {"tags": ["auth"], "operationId": "logout", "summary": "Logout", "security": [{"BearerAuth": []}]}},
        "/me/family": {"get": {"tags": ["families"], "operationId": "getMyFamily", "summary": "Get the signed-in family", "security": [{"BearerAuth": []}]}},
        "/admin/families": {"get": {"tags": ["admin"], "operationId": "listFamilies", "summary": "List families", "security": [{"BearerAuth": []}]}},
        "/admin/families/export.csv": {"get": {"tags": ["admin"], "operationId": "exportFamiliesCSV", "summary": "Export families as CSV", "security": [{"BearerAuth": []}]}},
        "/admin/families/export.xlsx": {"get": {"tags": ["admin"], "operationId": "exportFamiliesXLSX", "summary": "Export families as Excel", "security": [{"BearerAuth": []}]}},
        "/admin/families/export.pdf": {"get": {"tags": ["admin"], "operationId": "exportFamiliesPDF", "summary": "Export families as PDF", "security": [{"BearerAuth": []}]}},
        "/admin/families/{id}": {
            "get": {"tags": ["admin"], "operationId": "getFamily", "summary": "Get a family", "security": [{"BearerAuth": []}]},
            "put": {"tags": ["admin"], "operationId": "updateFamily", "summary": "Update a family", "security": [{"BearerAuth": []}]},
            "delete": {"tags": ["admin"], "operationId": "deleteFamily", "summary": "Delete a family", "security": [{"BearerAuth": []}]}
        },
        "/admin/families/{id}/photo-url": {"get": {"tags": ["admin"], "operationId": "getFamilyPhotoURL", "summary": "Get a photo download link", "security": [{"BearerAuth": []}]}},
        "/stats": {"get": {"tags": ["stats"], "operationId": "getStats", "summary": "Registration totals"}},
        "/system/info": {"get": {"tags": ["system"], "operationId": "getSystemSystemInfo", "summary": "Get system information"}},
        "/system/ping": {"get": {"tags": ["system"], "operationId": "pingSystem", "summary": "Ping the API"}}
    },
    "components": {
        "securitySchemes": {
            "BearerAuth": {
                "type": "apiKey",
                "in": "header",
                "name": "Authorization",
                "description": "Bearer token authentication. Format: \"Bearer {token}\""
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Masjid Family Registration API",
	Description:      "Household registration wizard, family dashboard and exports",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
