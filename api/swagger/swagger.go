package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SmartKid API",
        "description": "Role-scoped daycare management API",
        "version": "1.0.0"
    },
    "basePath": "/api",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "tags": [
        {"name": "Authentication", "description": "Login, registration and profile"},
        {"name": "Students", "description": "Student roster"},
        {"name": "Classes", "description": "Classes and activities"},
        {"name": "Attendance", "description": "Daily attendance"},
        {"name": "Reports", "description": "Daily reports and export"},
        {"name": "Badges", "description": "Badge templates and awards"},
        {"name": "Milestones", "description": "Developmental milestones"},
        {"name": "Roadmaps", "description": "Development roadmaps and stage progress"},
        {"name": "Admin", "description": "Platform statistics and user management"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "responses": {
                    "200": {"description": "OK"},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/register": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Register a new account",
                "responses": {
                    "201": {"description": "Created"},
                    "400": {"description": "Validation error"}
                }
            }
        },
        "/users/me": {
            "get": {
                "tags": ["Authentication"],
                "summary": "Current user profile",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK"},
                    "401": {"description": "Unauthorized"}
                }
            },
            "put": {
                "tags": ["Authentication"],
                "summary": "Update own profile",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/students": {
            "get": {
                "tags": ["Students"],
                "summary": "List students visible to the caller",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK"}
                }
            },
            "post": {
                "tags": ["Students"],
                "summary": "Create student",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "201": {"description": "Created"},
                    "403": {"description": "Forbidden"}
                }
            }
        },
        "/students/{id}": {
            "get": {
                "tags": ["Students"],
                "summary": "Get student detail",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/attendance": {
            "get": {
                "tags": ["Attendance"],
                "summary": "List attendance for a day",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK"}
                }
            },
            "post": {
                "tags": ["Attendance"],
                "summary": "Mark attendance",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "201": {"description": "Created"},
                    "409": {"description": "Already recorded"}
                }
            }
        },
        "/reports": {
            "get": {
                "tags": ["Reports"],
                "summary": "List reports visible to the caller",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK"}
                }
            },
            "post": {
                "tags": ["Reports"],
                "summary": "Author a daily report",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "201": {"description": "Created"},
                    "409": {"description": "Already exists for this day"}
                }
            }
        },
        "/admin/stats": {
            "get": {
                "tags": ["Admin"],
                "summary": "Platform-wide statistics",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK"},
                    "403": {"description": "Forbidden"}
                }
            }
        }
    },
    "definitions": {
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"type": "object"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
