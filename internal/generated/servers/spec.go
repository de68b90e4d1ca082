package servers

import (
	_ "embed"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed openapi.yml
var rawSpec []byte

// RawSpec returns the OpenAPI document as written.
func RawSpec() []byte {
	out := make([]byte, len(rawSpec))
	copy(out, rawSpec)
	return out
}

// GetSwagger returns the parsed and validated OpenAPI document.
func GetSwagger() (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	swagger, err := loader.LoadFromData(rawSpec)
	if err != nil {
		return nil, fmt.Errorf("error loading Swagger: %w", err)
	}
	if err = swagger.Validate(loader.Context); err != nil {
		return nil, fmt.Errorf("invalid OpenAPI document: %w", err)
	}
	return swagger, nil
}
