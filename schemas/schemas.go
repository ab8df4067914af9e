// Package schemas embeds the OpenAPI document describing the repopush HTTP API.
package schemas

import _ "embed"

// OpenAPISpec is the raw openapi.yaml document.
//
//go:embed openapi.yaml
var OpenAPISpec []byte
