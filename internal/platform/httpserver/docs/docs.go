// Package docs registers the OpenAPI document served under /swagger/.
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
        "/v1/members": {
            "post": {
                "summary": "Register a member",
                "tags": [
                    "members"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "type": "object"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "OK"
                    },
                    "400": {
                        "description": "validation error"
                    },
                    "403": {
                        "description": "forbidden"
                    },
                    "404": {
                        "description": "not found"
                    },
                    "409": {
                        "description": "invalid state or duplicate"
                    }
                }
            },
            "get": {
                "summary": "List members",
                "tags": [
                    "members"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "400": {
                        "description": "validation error"
                    },
                    "403": {
                        "description": "forbidden"
                    },
                    "404": {
                        "description": "not found"
                    },
                    "409": {
                        "description": "invalid state or duplicate"
                    }
                }
            }
        },
        "/v1/members/{address}": {
            "get": {
                "summary": "Get a member",
                "tags": [
                    "members"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "address",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "400": {
                        "description": "validation error"
                    },
                    "403": {
                        "description": "forbidden"
                    },
                    "404": {
                        "description": "not found"
                    },
                    "409": {
                        "description": "invalid state or duplicate"
                    }
                }
            },
            "patch": {
                "summary": "Update role, status or name",
                "tags": [
                    "members"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "X-Member-Address",
                        "in": "header",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "address",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "type": "object"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "400": {
                        "description": "validation error"
                    },
                    "403": {
                        "description": "forbidden"
                    },
                    "404": {
                        "description": "not found"
                    },
                    "409": {
                        "description": "invalid state or duplicate"
                    }
                }
            }
        },
        "/v1/members/{address}/activities": {
            "get": {
                "summary": "List member activities",
                "tags": [
                    "activities"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "address",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "400": {
                        "description": "validation error"
                    },
                    "403": {
                        "description": "forbidden"
                    },
                    "404": {
                        "description": "not found"
                    },
                    "409": {
                        "description": "invalid state or duplicate"
                    }
                }
            }
        },
        "/v1/proposals": {
            "post": {
                "summary": "Submit a proposal",
                "tags": [
                    "proposals"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "X-Member-Address",
                        "in": "header",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "type": "object"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "OK"
                    },
                    "400": {
                        "description": "validation error"
                    },
                    "403": {
                        "description": "forbidden"
                    },
                    "404": {
                        "description": "not found"
                    },
                    "409": {
                        "description": "invalid state or duplicate"
                    }
                }
            },
            "get": {
                "summary": "List proposals",
                "tags": [
                    "proposals"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "400": {
                        "description": "validation error"
                    },
                    "403": {
                        "description": "forbidden"
                    },
                    "404": {
                        "description": "not found"
                    },
                    "409": {
                        "description": "invalid state or duplicate"
                    }
                }
            }
        },
        "/v1/proposals/{proposal_id}": {
            "get": {
                "summary": "Get a proposal",
                "tags": [
                    "proposals"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "proposal_id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "400": {
                        "description": "validation error"
                    },
                    "403": {
                        "description": "forbidden"
                    },
                    "404": {
                        "description": "not found"
                    },
                    "409": {
                        "description": "invalid state or duplicate"
                    }
                }
            }
        },
        "/v1/proposals/{proposal_id}/activate": {
            "post": {
                "summary": "Activate a proposal",
                "tags": [
                    "proposals"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "X-Member-Address",
                        "in": "header",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "proposal_id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "400": {
                        "description": "validation error"
                    },
                    "403": {
                        "description": "forbidden"
                    },
                    "404": {
                        "description": "not found"
                    },
                    "409": {
                        "description": "invalid state or duplicate"
                    }
                }
            }
        },
        "/v1/proposals/{proposal_id}/finalize": {
            "post": {
                "summary": "Finalize a proposal",
                "tags": [
                    "proposals"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "X-Member-Address",
                        "in": "header",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "proposal_id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "400": {
                        "description": "validation error"
                    },
                    "403": {
                        "description": "forbidden"
                    },
                    "404": {
                        "description": "not found"
                    },
                    "409": {
                        "description": "invalid state or duplicate"
                    }
                }
            }
        },
        "/v1/proposals/{proposal_id}/execute": {
            "post": {
                "summary": "Execute a proposal",
                "tags": [
                    "proposals"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "X-Member-Address",
                        "in": "header",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "proposal_id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "400": {
                        "description": "validation error"
                    },
                    "403": {
                        "description": "forbidden"
                    },
                    "404": {
                        "description": "not found"
                    },
                    "409": {
                        "description": "invalid state or duplicate"
                    }
                }
            }
        },
        "/v1/proposals/{proposal_id}/cancel": {
            "post": {
                "summary": "Cancel a proposal",
                "tags": [
                    "proposals"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "X-Member-Address",
                        "in": "header",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "proposal_id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "400": {
                        "description": "validation error"
                    },
                    "403": {
                        "description": "forbidden"
                    },
                    "404": {
                        "description": "not found"
                    },
                    "409": {
                        "description": "invalid state or duplicate"
                    }
                }
            }
        },
        "/v1/proposals/{proposal_id}/votes": {
            "post": {
                "summary": "Cast a weighted vote",
                "tags": [
                    "proposals"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "X-Member-Address",
                        "in": "header",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "proposal_id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "type": "object"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "OK"
                    },
                    "400": {
                        "description": "validation error"
                    },
                    "403": {
                        "description": "forbidden"
                    },
                    "404": {
                        "description": "not found"
                    },
                    "409": {
                        "description": "invalid state or duplicate"
                    }
                }
            },
            "get": {
                "summary": "List votes and reconstructed tally",
                "tags": [
                    "proposals"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "proposal_id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "400": {
                        "description": "validation error"
                    },
                    "403": {
                        "description": "forbidden"
                    },
                    "404": {
                        "description": "not found"
                    },
                    "409": {
                        "description": "invalid state or duplicate"
                    }
                }
            }
        },
        "/v1/treasury/transactions": {
            "post": {
                "summary": "Propose a treasury transaction",
                "tags": [
                    "treasury"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "X-Member-Address",
                        "in": "header",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "type": "object"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "OK"
                    },
                    "400": {
                        "description": "validation error"
                    },
                    "403": {
                        "description": "forbidden"
                    },
                    "404": {
                        "description": "not found"
                    },
                    "409": {
                        "description": "invalid state or duplicate"
                    }
                }
            },
            "get": {
                "summary": "List treasury transactions",
                "tags": [
                    "treasury"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "400": {
                        "description": "validation error"
                    },
                    "403": {
                        "description": "forbidden"
                    },
                    "404": {
                        "description": "not found"
                    },
                    "409": {
                        "description": "invalid state or duplicate"
                    }
                }
            }
        },
        "/v1/treasury/transactions/{transaction_id}": {
            "get": {
                "summary": "Get a treasury transaction",
                "tags": [
                    "treasury"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "transaction_id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "400": {
                        "description": "validation error"
                    },
                    "403": {
                        "description": "forbidden"
                    },
                    "404": {
                        "description": "not found"
                    },
                    "409": {
                        "description": "invalid state or duplicate"
                    }
                }
            }
        },
        "/v1/treasury/transactions/{transaction_id}/approvals": {
            "post": {
                "summary": "Approve a transaction",
                "tags": [
                    "treasury"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "X-Member-Address",
                        "in": "header",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "transaction_id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "201": {
                        "description": "OK"
                    },
                    "400": {
                        "description": "validation error"
                    },
                    "403": {
                        "description": "forbidden"
                    },
                    "404": {
                        "description": "not found"
                    },
                    "409": {
                        "description": "invalid state or duplicate"
                    }
                }
            },
            "get": {
                "summary": "List approvals",
                "tags": [
                    "treasury"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "transaction_id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "400": {
                        "description": "validation error"
                    },
                    "403": {
                        "description": "forbidden"
                    },
                    "404": {
                        "description": "not found"
                    },
                    "409": {
                        "description": "invalid state or duplicate"
                    }
                }
            }
        },
        "/v1/treasury/transactions/{transaction_id}/reject": {
            "post": {
                "summary": "Reject a transaction",
                "tags": [
                    "treasury"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "X-Member-Address",
                        "in": "header",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "transaction_id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "400": {
                        "description": "validation error"
                    },
                    "403": {
                        "description": "forbidden"
                    },
                    "404": {
                        "description": "not found"
                    },
                    "409": {
                        "description": "invalid state or duplicate"
                    }
                }
            }
        },
        "/v1/treasury/deposits": {
            "post": {
                "summary": "Fund the treasury",
                "tags": [
                    "treasury"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "X-Member-Address",
                        "in": "header",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "type": "object"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "400": {
                        "description": "validation error"
                    },
                    "403": {
                        "description": "forbidden"
                    },
                    "404": {
                        "description": "not found"
                    },
                    "409": {
                        "description": "invalid state or duplicate"
                    }
                }
            }
        },
        "/v1/treasury/balances/{token}": {
            "get": {
                "summary": "Treasury balance",
                "tags": [
                    "treasury"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "token",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "400": {
                        "description": "validation error"
                    },
                    "403": {
                        "description": "forbidden"
                    },
                    "404": {
                        "description": "not found"
                    },
                    "409": {
                        "description": "invalid state or duplicate"
                    }
                }
            }
        },
        "/v1/treasury/balances/{token}/{holder}": {
            "get": {
                "summary": "Holder balance",
                "tags": [
                    "treasury"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "token",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "holder",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "400": {
                        "description": "validation error"
                    },
                    "403": {
                        "description": "forbidden"
                    },
                    "404": {
                        "description": "not found"
                    },
                    "409": {
                        "description": "invalid state or duplicate"
                    }
                }
            }
        },
        "/v1/activities": {
            "get": {
                "summary": "List activities",
                "tags": [
                    "activities"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "400": {
                        "description": "validation error"
                    },
                    "403": {
                        "description": "forbidden"
                    },
                    "404": {
                        "description": "not found"
                    },
                    "409": {
                        "description": "invalid state or duplicate"
                    }
                }
            }
        },
        "/v1/activities/{activity_id}": {
            "get": {
                "summary": "Get activity",
                "tags": [
                    "activities"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "type": "string",
                        "name": "activity_id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "404": {
                        "description": "not found"
                    }
                }
            }
        },
        "/ws/info": {
            "get": {
                "summary": "Notification session stats",
                "tags": [
                    "notifications"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "400": {
                        "description": "validation error"
                    },
                    "403": {
                        "description": "forbidden"
                    },
                    "404": {
                        "description": "not found"
                    },
                    "409": {
                        "description": "invalid state or duplicate"
                    }
                }
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
	Title:            "atomsi governance API",
	Description:      "DAO proposal lifecycle, treasury approvals, members and activity.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
