// Package docs содержит OpenAPI-описание HTTP API, встраиваемое в бинарь.
package docs

import _ "embed"

//go:embed openapi.yaml
var OpenAPISpec []byte
