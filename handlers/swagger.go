package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger serves the API reference.
// - GET /swagger/index.html  -> Swagger UI page
// - GET /swagger/doc.json    -> OpenAPI document
func RegisterSwagger(rg *gin.Engine) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>CliNote API</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "CliNote API", "version": "v1.0.0" },
  "components": {
    "securitySchemes": { "bearer": { "type": "http", "scheme": "bearer", "bearerFormat": "JWT" } },
    "schemas": {
      "Envelope": { "type": "object", "properties": { "success": {"type":"boolean"}, "message": {"type":"string"}, "data": {}, "error": {} } },
      "Patient": { "type": "object", "properties": { "name": {"type":"string"}, "age": {"type":"integer","minimum":0}, "gender": {"type":"string","enum":["Male","Female","Other"]} } },
      "Note": { "type": "object", "properties": { "patientId": {"type":"string"}, "templateType": {"type":"string","enum":["SOAP","PROGRESS","CONSULTATION","DISCHARGE","General Medicine"]}, "transcript": {"type":"string"}, "aiGeneratedNote": {"type":"string"}, "status": {"type":"string","enum":["draft","processing","completed"]}, "audioUrl": {"type":"string"} } },
      "Generate": { "type": "object", "required": ["transcript","templateType","patientId"], "properties": { "transcript": {"type":"string"}, "templateType": {"type":"string"}, "patientId": {"type":"string"}, "audioUrl": {"type":"string"} } }
    }
  },
  "security": [ { "bearer": [] } ],
  "paths": {
    "/api/auth/register": { "post": { "summary": "Create an account", "security": [], "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"name":{"type":"string"},"email":{"type":"string"},"password":{"type":"string"}}}}}}, "responses": { "201": { "description": "registered, tokens returned" }, "400": { "description": "missing fields or user already exists" } } } },
    "/api/auth/login": { "post": { "summary": "Login with email and password", "security": [], "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"email":{"type":"string"},"password":{"type":"string"}}}}}}, "responses": { "200": { "description": "tokens returned" }, "401": { "description": "invalid credentials" } } } },
    "/api/auth/refresh": { "post": { "summary": "Refresh access token", "security": [], "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"refreshToken":{"type":"string"}}}}}}, "responses": { "200": { "description": "new access token" }, "401": { "description": "invalid refresh" } } } },
    "/api/auth/logout": { "post": { "summary": "Invalidate refresh token and revoke access token", "responses": { "200": { "description": "logged out" } } } },
    "/api/auth/profile": { "get": { "summary": "Current user", "responses": { "200": { "description": "user" }, "401": { "description": "not authorized" } } } },
    "/api/patients": {
      "get": { "summary": "List patients, newest first", "parameters": [ {"name":"includeNotes","in":"query","schema":{"type":"boolean"}} ], "responses": { "200": { "description": "patients" } } },
      "post": { "summary": "Create patient", "requestBody": { "content": { "application/json": { "schema": {"$ref":"#/components/schemas/Patient"}}}}, "responses": { "201": { "description": "created" }, "400": { "description": "validation failed" } } }
    },
    "/api/patients/{id}": {
      "get": { "summary": "Get patient", "parameters": [ {"name":"includeNote","in":"query","schema":{"type":"boolean"}} ], "responses": { "200": { "description": "patient" }, "404": { "description": "not found" } } },
      "delete": { "summary": "Delete patient and its note", "responses": { "200": { "description": "deleted" }, "404": { "description": "not found" } } }
    },
    "/api/notes": { "post": { "summary": "Create note", "requestBody": { "content": { "application/json": { "schema": {"$ref":"#/components/schemas/Note"}}}}, "responses": { "201": { "description": "created" }, "404": { "description": "patient not found" }, "409": { "description": "note already exists for patient" } } } },
    "/api/notes/all": { "get": { "summary": "List notes with patient summary", "responses": { "200": { "description": "notes" } } } },
    "/api/notes/patient/{patientId}": { "get": { "summary": "Notes for one patient", "responses": { "200": { "description": "notes" } } } },
    "/api/notes/note/{id}": {
      "get": { "summary": "Get note", "responses": { "200": { "description": "note" }, "404": { "description": "not found" } } },
      "put": { "summary": "Update note", "responses": { "200": { "description": "updated" }, "400": { "description": "invalid status or template" }, "404": { "description": "not found" } } },
      "delete": { "summary": "Delete note", "responses": { "200": { "description": "deleted" }, "404": { "description": "not found" } } }
    },
    "/api/ai/generate-soap-and-save": { "post": { "summary": "Generate a clinical note from a transcript and save it", "requestBody": { "content": { "application/json": { "schema": {"$ref":"#/components/schemas/Generate"}}}}, "responses": { "201": { "description": "note saved" }, "400": { "description": "missing fields or invalid template" }, "404": { "description": "patient not found" }, "500": { "description": "generation failed" } } } },
    "/api/audio/upload": { "post": { "summary": "Upload recorded audio", "requestBody": { "content": { "multipart/form-data": { "schema": {"type":"object","properties":{"audio":{"type":"string","format":"binary"}}}}}}, "responses": { "200": { "description": "audio URL returned" }, "400": { "description": "no file or unsupported type" }, "413": { "description": "file too large" } } } },
    "/health": { "get": { "summary": "Liveness check", "security": [], "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "security": [], "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } },
    "/metrics": { "get": { "summary": "Prometheus metrics", "security": [], "responses": { "200": { "description": "metrics" } } } }
  }
}`
