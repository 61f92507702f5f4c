// Package openapi checks console HTTP traffic against its OpenAPI document.
package openapi

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"io"
	"net/http"
	"sort"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/gorillamux"
)

//go:embed console-api.yaml
var consoleAPISpec []byte

// ConsoleSpec returns the embedded console API document
func ConsoleSpec() []byte {
	return consoleAPISpec
}

// Validator validates HTTP requests and responses against an OpenAPI document.
type Validator struct {
	doc    *openapi3.T
	router routers.Router
}

// NewConsoleValidator returns a validator for the embedded console API document.
func NewConsoleValidator() (*Validator, error) {
	return NewValidatorFromBytes(consoleAPISpec)
}

// NewValidatorFromBytes loads and validates an OpenAPI document.
func NewValidatorFromBytes(specBytes []byte) (*Validator, error) {
	loader := openapi3.NewLoader()

	doc, err := loader.LoadFromData(specBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to load OpenAPI spec: %w", err)
	}

	if err := doc.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("invalid OpenAPI spec: %w", err)
	}

	router, err := gorillamux.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to create router: %w", err)
	}

	return &Validator{doc: doc, router: router}, nil
}

func (v *Validator) requestInput(req *http.Request) (*openapi3filter.RequestValidationInput, error) {
	route, pathParams, err := v.router.FindRoute(req)
	if err != nil {
		return nil, fmt.Errorf("failed to find route for %s %s: %w", req.Method, req.URL.Path, err)
	}
	return &openapi3filter.RequestValidationInput{
		Request:    req,
		PathParams: pathParams,
		Route:      route,
		Options:    &openapi3filter.Options{MultiError: true},
	}, nil
}

// ValidateRequest validates req. The body is restored for later readers.
func (v *Validator) ValidateRequest(ctx context.Context, req *http.Request) error {
	input, err := v.requestInput(req)
	if err != nil {
		return err
	}

	if req.Body != nil {
		body, err := io.ReadAll(req.Body)
		if err != nil {
			return fmt.Errorf("failed to read request body: %w", err)
		}
		req.Body = io.NopCloser(bytes.NewReader(body))
		defer func() { req.Body = io.NopCloser(bytes.NewReader(body)) }()
	}

	if err := openapi3filter.ValidateRequest(ctx, input); err != nil {
		return fmt.Errorf("request validation failed: %w", err)
	}
	return nil
}

// ValidateResponse validates resp as the answer to req.
func (v *Validator) ValidateResponse(ctx context.Context, req *http.Request, resp *http.Response) error {
	input, err := v.requestInput(req)
	if err != nil {
		return err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))

	responseInput := &openapi3filter.ResponseValidationInput{
		RequestValidationInput: input,
		Status:                 resp.StatusCode,
		Header:                 resp.Header,
		Body:                   io.NopCloser(bytes.NewReader(body)),
		Options: &openapi3filter.Options{
			MultiError:            true,
			IncludeResponseStatus: true,
		},
	}

	if err := openapi3filter.ValidateResponse(ctx, responseInput); err != nil {
		return fmt.Errorf("response validation failed for %s %s: %w", req.Method, req.URL.Path, err)
	}
	return nil
}

// OperationID returns the operation matched by req.
func (v *Validator) OperationID(req *http.Request) (string, error) {
	route, _, err := v.router.FindRoute(req)
	if err != nil {
		return "", fmt.Errorf("failed to find route: %w", err)
	}
	return route.Operation.OperationID, nil
}

// Document returns the parsed OpenAPI document.
func (v *Validator) Document() *openapi3.T {
	return v.doc
}

// Paths returns the document's paths, sorted.
func (v *Validator) Paths() []string {
	if v.doc.Paths == nil {
		return nil
	}

	paths := make([]string, 0, v.doc.Paths.Len())
	for path := range v.doc.Paths.Map() {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}
