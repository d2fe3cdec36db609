package middleware

import (
	"fmt"
	"os"
	"strings"

	"github.com/containerd/errdefs"
	"github.com/xeipuuv/gojsonschema"

	httpc "github.com/abdul-hamid-achik/httpconnect/packages/http"
)

// JSONSchema validates successful JSON response bodies against schema. A
// body that does not match fails the call; the response is kept.
func JSONSchema(schema []byte) (httpc.Middleware, error) {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schema))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid json schema: %v", errdefs.ErrInvalidArgument, err)
	}
	return func(next httpc.Handler) httpc.Handler {
		return func(hc *httpc.Context) error {
			if err := next(hc); err != nil {
				return err
			}
			resp := hc.Response
			if resp == nil || !resp.IsSuccess() || resp.Content == nil || !resp.Content.IsJSON() {
				return nil
			}
			return validate(compiled, resp.Content.Body)
		}
	}, nil
}

// JSONSchemaFile loads a schema from path and returns JSONSchema for it.
func JSONSchemaFile(path string) (httpc.Middleware, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}
	return JSONSchema(data)
}

func validate(schema *gojsonschema.Schema, body string) error {
	result, err := schema.Validate(gojsonschema.NewStringLoader(body))
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}
	if result.Valid() {
		return nil
	}
	var problems []string
	for _, desc := range result.Errors() {
		problems = append(problems, desc.String())
	}
	return fmt.Errorf("schema validation failed: %s", strings.Join(problems, "; "))
}
