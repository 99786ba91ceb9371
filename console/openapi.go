package console

import (
	"embed"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/legacy"
)

//go:embed openapi.yaml
var embeddedSpec embed.FS

// Validator validates incoming requests against an OpenAPI document,
// grounded on transport.OpenAPIValidator. Unlike the teacher's
// version this only validates requests: the console's responses are
// fixed Go structs, not bound to a generated schema, so
// response-shape drift is caught by Go's type system rather than at
// runtime.
type Validator struct {
	router routers.Router
}

// NewValidator loads and validates the OpenAPI document at path.
func NewValidator(path string) (*Validator, error) {
	loader := openapi3.NewLoader()
	spec, err := loader.LoadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("console: loading OpenAPI document: %w", err)
	}
	return newValidatorFromSpec(spec)
}

// NewEmbeddedValidator builds a Validator from the console's own
// bundled openapi.yaml, covering /stats and /threads.
func NewEmbeddedValidator() (*Validator, error) {
	data, err := embeddedSpec.ReadFile("openapi.yaml")
	if err != nil {
		return nil, fmt.Errorf("console: reading embedded OpenAPI document: %w", err)
	}
	loader := openapi3.NewLoader()
	spec, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("console: parsing embedded OpenAPI document: %w", err)
	}
	return newValidatorFromSpec(spec)
}

func newValidatorFromSpec(spec *openapi3.T) (*Validator, error) {
	loader := openapi3.NewLoader()
	if err := spec.Validate(loader.Context); err != nil {
		return nil, fmt.Errorf("console: invalid OpenAPI document: %w", err)
	}
	router, err := legacy.NewRouter(spec)
	if err != nil {
		return nil, fmt.Errorf("console: building OpenAPI router: %w", err)
	}
	return &Validator{router: router}, nil
}

// Middleware rejects requests that don't match the loaded document.
func (v *Validator) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		route, pathParams, err := v.router.FindRoute(c.Request)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			c.Abort()
			return
		}

		input := &openapi3filter.RequestValidationInput{
			Request:     c.Request,
			PathParams:  pathParams,
			Route:       route,
			QueryParams: c.Request.URL.Query(),
		}
		if err := openapi3filter.ValidateRequest(c.Request.Context(), input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			c.Abort()
			return
		}
		c.Next()
	}
}
