// Package docs описывает HTTP API сервиса для swagger-ui.
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
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Проверка доступности",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"type": "object", "additionalProperties": {"type": "string"}}
                    }
                }
            }
        },
        "/persons": {
            "get": {
                "produces": ["application/json"],
                "tags": ["persons"],
                "summary": "Каталог персон",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.Person"}}
                    },
                    "500": {
                        "description": "Ошибка хранилища",
                        "schema": {"$ref": "#/definitions/http.ErrorResponse"}
                    }
                }
            }
        },
        "/persons/{personID}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["persons"],
                "summary": "Персона каталога",
                "parameters": [
                    {"type": "integer", "description": "Идентификатор персоны", "name": "personID", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/http.PersonResponse"}
                    },
                    "400": {
                        "description": "Некорректный идентификатор",
                        "schema": {"$ref": "#/definitions/http.ErrorResponse"}
                    },
                    "404": {
                        "description": "Персона не найдена",
                        "schema": {"$ref": "#/definitions/http.ErrorResponse"}
                    },
                    "500": {
                        "description": "Ошибка хранилища",
                        "schema": {"$ref": "#/definitions/http.ErrorResponse"}
                    }
                }
            }
        },
        "/photos/{photoID}/matches": {
            "get": {
                "description": "Возвращает известных персон, найденных на фото. Результат кэшируется.",
                "produces": ["application/json"],
                "tags": ["matches"],
                "summary": "Совпадения для фото события",
                "parameters": [
                    {"type": "integer", "description": "Идентификатор фото", "name": "photoID", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {
                        "description": "Совпадения, возможно пустые",
                        "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.MatchResult"}}
                    },
                    "400": {
                        "description": "Некорректный идентификатор",
                        "schema": {"$ref": "#/definitions/http.ErrorResponse"}
                    },
                    "500": {
                        "description": "Ошибка хранилища",
                        "schema": {"$ref": "#/definitions/http.ErrorResponse"}
                    }
                }
            },
            "delete": {
                "description": "Удаляет закэшированный результат; следующий запрос вычислит его заново.",
                "tags": ["matches"],
                "summary": "Сброс кэша совпадений",
                "parameters": [
                    {"type": "integer", "description": "Идентификатор фото", "name": "photoID", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "400": {
                        "description": "Некорректный идентификатор",
                        "schema": {"$ref": "#/definitions/http.ErrorResponse"}
                    }
                }
            }
        }
    },
    "definitions": {
        "domain.Box": {
            "type": "object",
            "properties": {
                "x": {"type": "number"},
                "y": {"type": "number"},
                "width": {"type": "number"},
                "height": {"type": "number"}
            }
        },
        "domain.MatchResult": {
            "type": "object",
            "properties": {
                "personId": {"type": "integer"},
                "name": {"type": "string"},
                "distance": {"type": "number"},
                "box": {"$ref": "#/definitions/domain.Box"}
            }
        },
        "domain.Person": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "name": {"type": "string"}
            }
        },
        "http.PersonResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "name": {"type": "string"},
                "images": {"type": "array", "items": {"type": "string"}}
            }
        },
        "http.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "integer"},
                "message": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Face Matcher API",
	Description:      "Сопоставление лиц на фото событий с каталогом известных персон.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
