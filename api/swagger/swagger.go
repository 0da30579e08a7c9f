package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "GADConnect API",
        "description": "Gender and Development program data platform",
        "version": "1.0.0"
    },
    "basePath": "/api",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Auth", "description": "Authentication and session management"},
        {"name": "AcademicPeriods", "description": "Academic period lifecycle and transition"},
        {"name": "Students", "description": "Student participants"},
        {"name": "StaffFaculty", "description": "Staff and faculty participants"},
        {"name": "CommunityMembers", "description": "Community participants"},
        {"name": "Events", "description": "GAD program events"},
        {"name": "Notifications", "description": "Per-user notifications"},
        {"name": "Analytics", "description": "Demographics aggregation"},
        {"name": "Reports", "description": "Downloadable reports"},
        {"name": "Users", "description": "User administration"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "Degraded"}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Sign in",
                "responses": {
                    "200": {"description": "Tokens issued"},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/register": {
            "post": {
                "tags": ["Auth"],
                "summary": "Register a staff account",
                "responses": {
                    "201": {"description": "Account created"},
                    "409": {"description": "Email already registered"}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Auth"],
                "summary": "Refresh access token",
                "responses": {
                    "200": {"description": "Tokens rotated"},
                    "401": {"description": "Refresh token invalid"}
                }
            }
        },
        "/academic-periods": {
            "get": {
                "tags": ["AcademicPeriods"],
                "summary": "List academic periods",
                "responses": {
                    "200": {"description": "Paginated periods"}
                }
            },
            "post": {
                "tags": ["AcademicPeriods"],
                "summary": "Create academic period",
                "responses": {
                    "201": {"description": "Period created"},
                    "409": {"description": "Duplicate period"}
                }
            }
        },
        "/academic-periods/active": {
            "get": {
                "tags": ["AcademicPeriods"],
                "summary": "Get the active period",
                "responses": {
                    "200": {"description": "Active period"},
                    "404": {"description": "No active period"}
                }
            }
        },
        "/academic-periods/validate": {
            "post": {
                "tags": ["AcademicPeriods"],
                "summary": "Validate a proposed period",
                "responses": {
                    "200": {"description": "Validation verdict"}
                }
            }
        },
        "/academic-periods/transition": {
            "post": {
                "tags": ["AcademicPeriods"],
                "summary": "Transition to a new period",
                "responses": {
                    "200": {"description": "Transition result with per-collection archive counts"},
                    "409": {"description": "Duplicate period"}
                }
            }
        },
        "/students": {
            "get": {
                "tags": ["Students"],
                "summary": "List students",
                "responses": {
                    "200": {"description": "Paginated students"}
                }
            },
            "post": {
                "tags": ["Students"],
                "summary": "Register a student",
                "responses": {
                    "201": {"description": "Student created"}
                }
            }
        },
        "/staff-faculty": {
            "get": {
                "tags": ["StaffFaculty"],
                "summary": "List staff and faculty",
                "responses": {
                    "200": {"description": "Paginated staff"}
                }
            },
            "post": {
                "tags": ["StaffFaculty"],
                "summary": "Register a staff or faculty member",
                "responses": {
                    "201": {"description": "Staff record created"}
                }
            }
        },
        "/community-members": {
            "get": {
                "tags": ["CommunityMembers"],
                "summary": "List community members",
                "responses": {
                    "200": {"description": "Paginated members"}
                }
            },
            "post": {
                "tags": ["CommunityMembers"],
                "summary": "Register a community member",
                "responses": {
                    "201": {"description": "Member created"}
                }
            }
        },
        "/events": {
            "get": {
                "tags": ["Events"],
                "summary": "List events",
                "responses": {
                    "200": {"description": "Paginated events"}
                }
            },
            "post": {
                "tags": ["Events"],
                "summary": "Create an event",
                "responses": {
                    "201": {"description": "Event created"}
                }
            }
        },
        "/notifications": {
            "get": {
                "tags": ["Notifications"],
                "summary": "List my notifications",
                "responses": {
                    "200": {"description": "Paginated notifications"}
                }
            }
        },
        "/analytics/demographics": {
            "get": {
                "tags": ["Analytics"],
                "summary": "Gender-disaggregated demographics",
                "responses": {
                    "200": {"description": "Demographics snapshot"}
                }
            }
        },
        "/reports/demographics": {
            "get": {
                "tags": ["Reports"],
                "summary": "Download the demographics report",
                "responses": {
                    "200": {"description": "CSV or PDF document"}
                }
            }
        },
        "/users": {
            "get": {
                "tags": ["Users"],
                "summary": "List users",
                "responses": {
                    "200": {"description": "Paginated users"}
                }
            },
            "post": {
                "tags": ["Users"],
                "summary": "Create a user account",
                "responses": {
                    "201": {"description": "User created"}
                }
            }
        }
    },
    "definitions": {
        "Pagination": {
            "type": "object",
            "properties": {
                "currentPage": {"type": "integer"},
                "totalPages": {"type": "integer"},
                "totalItems": {"type": "integer"},
                "itemsPerPage": {"type": "integer"},
                "hasNextPage": {"type": "boolean"},
                "hasPreviousPage": {"type": "boolean"},
                "startIndex": {"type": "integer"},
                "endIndex": {"type": "integer"}
            }
        },
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
                "success": {"type": "boolean"},
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
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
