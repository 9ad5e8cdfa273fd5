// Package docs holds the Swagger 2.0 document served under /swagger.
//
// The document is maintained by hand in the layout swag emits. Every
// operationId must match the @ID annotation of its handler in
// internal/http/handlers; docs_test.go checks that they agree.
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
        "/": {
            "get": {
                "description": "Renders the chat page and issues a session cookie when the browser has none.",
                "produces": ["text/html"],
                "tags": ["Web"],
                "summary": "Chat page",
                "operationId": "home",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/chat": {
            "post": {
                "description": "Appends the user turn, asks the model and returns the reply with the full history. Sending \"clear\" wipes the session.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Web"],
                "summary": "Send a chat message",
                "operationId": "chat",
                "parameters": [
                    {"type": "string", "description": "Optional idempotency key", "name": "Idempotency-Key", "in": "header"},
                    {"description": "Message", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.ChatRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.ChatResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "504": {"description": "Gateway Timeout", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/get_chat_history": {
            "get": {
                "description": "Returns every stored turn of the cookie session in chronological order.",
                "produces": ["application/json"],
                "tags": ["Web"],
                "summary": "Chat history",
                "operationId": "getChatHistory",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/services.HistoryEntry"}}},
                    "304": {"description": "Not Modified"}
                }
            }
        },
        "/health": {
            "get": {
                "description": "Always healthy while the process serves requests; llm_status tells whether a model is configured.",
                "produces": ["application/json"],
                "tags": ["Web"],
                "summary": "Health check",
                "operationId": "health",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.HealthResponse"}}
                }
            }
        },
        "/webhook/whatsapp": {
            "get": {
                "produces": ["application/json"],
                "tags": ["WhatsApp"],
                "summary": "Webhook probe",
                "operationId": "whatsappProbe",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.WhatsAppStatus"}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["WhatsApp"],
                "summary": "Receive a WhatsApp message",
                "operationId": "whatsappWebhook",
                "parameters": [
                    {"description": "Inbound message", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/services.Inbound"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.WhatsAppReply"}},
                    "204": {"description": "No Content"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.WhatsAppReply"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handlers.WhatsAppReply"}}
                }
            }
        },
        "/webhook/twilio": {
            "post": {
                "description": "Same behavior as /webhook/whatsapp; the reply is sent via the Twilio REST API or returned as TwiML.",
                "consumes": ["application/x-www-form-urlencoded"],
                "produces": ["application/xml"],
                "tags": ["WhatsApp"],
                "summary": "Receive a WhatsApp message from Twilio",
                "operationId": "twilioWebhook",
                "parameters": [
                    {"type": "string", "description": "Twilio request signature", "name": "X-Twilio-Signature", "in": "header", "required": true},
                    {"type": "string", "description": "Sender, e.g. whatsapp:+6281234", "name": "From", "in": "formData", "required": true},
                    {"type": "string", "description": "Message text", "name": "Body", "in": "formData"},
                    {"type": "string", "description": "WhatsApp profile name", "name": "ProfileName", "in": "formData"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "204": {"description": "No Content"},
                    "400": {"description": "Bad Request"},
                    "403": {"description": "Forbidden"}
                }
            }
        }
    },
    "definitions": {
        "handlers.ChatRequest": {
            "type": "object",
            "properties": {"message": {"type": "string"}}
        },
        "handlers.ChatResponse": {
            "type": "object",
            "properties": {
                "response": {"type": "string"},
                "chat_log": {"type": "array", "items": {"$ref": "#/definitions/services.HistoryEntry"}}
            }
        },
        "handlers.ErrorResponse": {
            "type": "object",
            "properties": {
                "request_id": {"type": "string"},
                "code": {"type": "string"},
                "error": {"type": "string"}
            }
        },
        "handlers.HealthResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "llm_status": {"type": "string"},
                "timestamp": {"type": "string"}
            }
        },
        "handlers.WhatsAppReply": {
            "type": "object",
            "properties": {"text": {"type": "string"}}
        },
        "handlers.WhatsAppStatus": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "services.HistoryEntry": {
            "type": "object",
            "properties": {
                "role": {"type": "string"},
                "content": {"type": "string"},
                "timestamp": {"type": "string"}
            }
        },
        "services.Inbound": {
            "type": "object",
            "properties": {
                "from": {"type": "string"},
                "message": {"type": "string"},
                "name": {"type": "string"},
                "device": {"type": "string"},
                "bufferImage": {"type": "string", "description": "base64 encoded image"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Math Tutor Chat Relay API",
	Description:      "Relays web and WhatsApp conversations to an OpenAI-compatible or Anthropic model.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
