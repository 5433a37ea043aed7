package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Arena API",
        "description": "Enrollment and scheduling backend for community sports programs",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
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
        {"name": "Auth", "description": "Session and credential management"},
        {"name": "Users", "description": "Students and staff accounts"},
        {"name": "Classes", "description": "Sport class catalog"},
        {"name": "Enrollments", "description": "Seat allocation and waiting list"},
        {"name": "Requests", "description": "Coordinator approval workflow"},
        {"name": "Attendance", "description": "Per-meeting attendance records"},
        {"name": "Notifications", "description": "In-app user notifications"},
        {"name": "Audit", "description": "Administrative action trail"},
        {"name": "Reports", "description": "Printable report exports"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Sign in with email and password",
                "parameters": [{"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}],
                "responses": {
                    "200": {"description": "Token pair issued"},
                    "401": {"description": "Invalid credentials"},
                    "403": {"description": "Account inactive"}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Auth"],
                "summary": "Rotate a refresh token",
                "parameters": [{"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RefreshRequest"}}],
                "responses": {
                    "200": {"description": "New token pair"},
                    "401": {"description": "Token expired or revoked"}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "tags": ["Auth"],
                "summary": "Revoke the presented refresh token",
                "security": [{"BearerAuth": []}],
                "responses": {"204": {"description": "Session ended"}}
            }
        },
        "/auth/password": {
            "put": {
                "tags": ["Auth"],
                "summary": "Change the current user's password",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ChangePasswordRequest"}}],
                "responses": {
                    "204": {"description": "Password updated, sessions revoked"},
                    "401": {"description": "Old password does not match"}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Auth"],
                "summary": "Describe the authenticated user",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "Claims of the current session"}}
            }
        },
        "/users": {
            "get": {
                "tags": ["Users"],
                "summary": "List users",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "role", "in": "query", "type": "string"},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "Paged user list"}}
            },
            "post": {
                "tags": ["Users"],
                "summary": "Register a user",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateUserRequest"}}],
                "responses": {
                    "201": {"description": "User created"},
                    "409": {"description": "Email already registered"},
                    "422": {"description": "Minor student without guardian contact"}
                }
            }
        },
        "/users/{id}": {
            "get": {
                "tags": ["Users"],
                "summary": "Fetch a user",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "User"}, "404": {"description": "Not found"}}
            },
            "put": {
                "tags": ["Users"],
                "summary": "Update a user",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateUserRequest"}}
                ],
                "responses": {"200": {"description": "Updated user"}, "404": {"description": "Not found"}}
            },
            "delete": {
                "tags": ["Users"],
                "summary": "Remove a user and release their seats",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "Deleted"}, "404": {"description": "Not found"}}
            }
        },
        "/users/{id}/enrollments": {
            "get": {
                "tags": ["Users"],
                "summary": "List a student's enrollments",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "Enrollment list"}}
            }
        },
        "/classes": {
            "get": {
                "tags": ["Classes"],
                "summary": "List classes",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "modality", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "analystId", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "Paged class list"}}
            },
            "post": {
                "tags": ["Classes"],
                "summary": "Create a class",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ClassPayload"}}],
                "responses": {"201": {"description": "Class created"}}
            }
        },
        "/classes/{id}": {
            "get": {
                "tags": ["Classes"],
                "summary": "Fetch a class",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "Class"}, "404": {"description": "Not found"}}
            },
            "put": {
                "tags": ["Classes"],
                "summary": "Update a class",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ClassPatch"}}
                ],
                "responses": {"200": {"description": "Updated class"}, "404": {"description": "Not found"}}
            },
            "delete": {
                "tags": ["Classes"],
                "summary": "Delete a class and its enrollments",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "Deleted"}, "404": {"description": "Not found"}}
            }
        },
        "/classes/{id}/reconcile": {
            "post": {
                "tags": ["Classes"],
                "summary": "Recount seat counters from enrollment rows",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "Class with corrected counters"}}
            }
        },
        "/enrollments": {
            "get": {
                "tags": ["Enrollments"],
                "summary": "List enrollments",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "studentId", "in": "query", "type": "string"},
                    {"name": "classId", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "Paged enrollment list"}}
            },
            "post": {
                "tags": ["Enrollments"],
                "summary": "Enroll a student in a class",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/EnrollStudentRequest"}}],
                "responses": {
                    "201": {"description": "Seat confirmed or student waitlisted"},
                    "200": {"description": "Activity limit reached, approval request opened"},
                    "409": {"description": "Student already enrolled in this class"}
                }
            }
        },
        "/enrollments/{id}": {
            "delete": {
                "tags": ["Enrollments"],
                "summary": "Cancel an enrollment",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "Seat released, first waiting student advertised"},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/requests": {
            "get": {
                "tags": ["Requests"],
                "summary": "List change requests",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "status", "in": "query", "type": "string", "description": "Comma-separated statuses"}],
                "responses": {"200": {"description": "Request list"}}
            }
        },
        "/requests/{id}": {
            "get": {
                "tags": ["Requests"],
                "summary": "Fetch a change request",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "Request"}, "404": {"description": "Not found"}}
            }
        },
        "/requests/classes": {
            "post": {
                "tags": ["Requests"],
                "summary": "Propose a new class for approval",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ClassPayload"}}],
                "responses": {"201": {"description": "Pending request created"}}
            }
        },
        "/requests/classes/{id}": {
            "put": {
                "tags": ["Requests"],
                "summary": "Propose changes to an existing class",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ClassPatch"}}
                ],
                "responses": {"201": {"description": "Pending request created"}}
            }
        },
        "/requests/{id}/resolve": {
            "post": {
                "tags": ["Requests"],
                "summary": "Approve or reject a pending request",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ResolveRequest"}}
                ],
                "responses": {
                    "200": {"description": "Request resolved and applied"},
                    "409": {"description": "Request already resolved"}
                }
            }
        },
        "/attendance": {
            "post": {
                "tags": ["Attendance"],
                "summary": "Record attendance for a class meeting",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SubmitAttendanceRequest"}}],
                "responses": {
                    "204": {"description": "Attendance stored"},
                    "403": {"description": "Class is assigned to another analyst"}
                }
            },
            "get": {
                "tags": ["Attendance"],
                "summary": "List attendance records",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "classId", "in": "query", "type": "string"},
                    {"name": "studentId", "in": "query", "type": "string"},
                    {"name": "date", "in": "query", "type": "string"}
                ],
                "responses": {"200": {"description": "Attendance records"}}
            }
        },
        "/notifications": {
            "get": {
                "tags": ["Notifications"],
                "summary": "List the current user's notifications",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "Notification list"}}
            }
        },
        "/notifications/unread-count": {
            "get": {
                "tags": ["Notifications"],
                "summary": "Count unread notifications",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "Unread count"}}
            }
        },
        "/notifications/{id}/read": {
            "post": {
                "tags": ["Notifications"],
                "summary": "Mark a notification as read",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "Marked"}, "404": {"description": "Not found"}}
            }
        },
        "/audit-logs": {
            "get": {
                "tags": ["Audit"],
                "summary": "List audit log entries",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "offset", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "Audit entries, newest first"}}
            }
        },
        "/reports/attendance-sheet": {
            "get": {
                "tags": ["Reports"],
                "summary": "Export a monthly attendance sheet",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "year", "in": "query", "required": true, "type": "integer"},
                    {"name": "month", "in": "query", "required": true, "type": "integer"},
                    {"name": "classId", "in": "query", "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "produces": ["text/csv", "application/pdf"],
                "responses": {
                    "200": {"description": "Printable sheet"},
                    "403": {"description": "Report exports are disabled"}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "RefreshRequest": {
            "type": "object",
            "required": ["refresh_token"],
            "properties": {
                "refresh_token": {"type": "string"}
            }
        },
        "ChangePasswordRequest": {
            "type": "object",
            "required": ["old_password", "new_password"],
            "properties": {
                "old_password": {"type": "string"},
                "new_password": {"type": "string", "minLength": 8}
            }
        },
        "CreateUserRequest": {
            "type": "object",
            "required": ["full_name", "email", "password", "role"],
            "properties": {
                "full_name": {"type": "string"},
                "email": {"type": "string"},
                "password": {"type": "string", "minLength": 8},
                "role": {"type": "string", "enum": ["STUDENT", "SECRETARY", "ANALYST", "COORDINATOR"]},
                "cpf": {"type": "string"},
                "ref": {"type": "string"},
                "birth_date": {"type": "string", "format": "date"},
                "phone": {"type": "string"},
                "cellphone": {"type": "string"},
                "address": {"type": "string"},
                "neighborhood": {"type": "string"},
                "guardian_name": {"type": "string"},
                "guardian_cpf": {"type": "string"},
                "guardian_email": {"type": "string"},
                "guardian_phone": {"type": "string"}
            }
        },
        "UpdateUserRequest": {
            "type": "object",
            "properties": {
                "full_name": {"type": "string"},
                "email": {"type": "string"},
                "active": {"type": "boolean"},
                "cpf": {"type": "string"},
                "ref": {"type": "string"},
                "birth_date": {"type": "string", "format": "date"},
                "phone": {"type": "string"},
                "cellphone": {"type": "string"},
                "address": {"type": "string"},
                "neighborhood": {"type": "string"},
                "guardian_name": {"type": "string"},
                "guardian_cpf": {"type": "string"},
                "guardian_email": {"type": "string"},
                "guardian_phone": {"type": "string"}
            }
        },
        "ClassPayload": {
            "type": "object",
            "required": ["title", "modality", "analyst_id", "days", "time_range", "location", "capacity"],
            "properties": {
                "title": {"type": "string"},
                "description": {"type": "string"},
                "modality": {"type": "string"},
                "analyst_id": {"type": "string"},
                "days": {"type": "array", "items": {"type": "string"}},
                "time_range": {"type": "string"},
                "location": {"type": "string"},
                "capacity": {"type": "integer", "minimum": 1},
                "min_age": {"type": "integer"},
                "max_age": {"type": "integer"},
                "status": {"type": "string", "enum": ["ACTIVE", "SUSPENDED", "FINISHED"]}
            }
        },
        "ClassPatch": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "description": {"type": "string"},
                "modality": {"type": "string"},
                "analyst_id": {"type": "string"},
                "days": {"type": "array", "items": {"type": "string"}},
                "time_range": {"type": "string"},
                "location": {"type": "string"},
                "capacity": {"type": "integer"},
                "min_age": {"type": "integer"},
                "max_age": {"type": "integer"},
                "status": {"type": "string"}
            }
        },
        "EnrollStudentRequest": {
            "type": "object",
            "required": ["student_id", "class_id"],
            "properties": {
                "student_id": {"type": "string"},
                "class_id": {"type": "string"}
            }
        },
        "ResolveRequest": {
            "type": "object",
            "required": ["approved"],
            "properties": {
                "approved": {"type": "boolean"}
            }
        },
        "SubmitAttendanceRequest": {
            "type": "object",
            "required": ["class_id", "date", "entries"],
            "properties": {
                "class_id": {"type": "string"},
                "date": {"type": "string", "format": "date"},
                "entries": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/AttendanceEntry"}
                }
            }
        },
        "AttendanceEntry": {
            "type": "object",
            "required": ["student_id"],
            "properties": {
                "student_id": {"type": "string"},
                "present": {"type": "boolean"},
                "justification": {"type": "string"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "limit": {"type": "integer"},
                "total": {"type": "integer"}
            }
        },
        "APIResponse": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
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
