package manifest

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/muhammadmuzzammil1998/jsonc"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// ErrInvalidRequests is returned when an extraction request document does
// not match the request schema.
var ErrInvalidRequests = errors.New("invalid extraction requests")

//go:embed schemas/extraction-requests.schema.json
var schemaFS embed.FS

const requestsSchemaURL = "mem://schemas/extraction-requests.schema.json"

var (
	compileOnce    sync.Once
	requestsSchema *jsonschema.Schema
	compileErr     error
)

func compileRequestsSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		data, err := schemaFS.ReadFile("schemas/extraction-requests.schema.json")
		if err != nil {
			compileErr = fmt.Errorf("read requests schema: %w", err)
			return
		}
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
		if err != nil {
			compileErr = fmt.Errorf("decode requests schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(requestsSchemaURL, doc); err != nil {
			compileErr = fmt.Errorf("register requests schema: %w", err)
			return
		}
		requestsSchema, compileErr = c.Compile(requestsSchemaURL)
	})
	return requestsSchema, compileErr
}

// ParseRequests decodes a JSON (comments allowed) list of
// extraction requests and validates it against the request schema.
func ParseRequests(data []byte) ([]ExtractionRequest, error) {
	clean := jsonc.ToJSON(data)

	schema, err := compileRequestsSchema()
	if err != nil {
		return nil, err
	}

	instance, err := jsonschema.UnmarshalJSON(bytes.NewReader(clean))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequests, err)
	}
	if err := schema.Validate(instance); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequests, err)
	}

	var requests []ExtractionRequest
	if err := json.Unmarshal(clean, &requests); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequests, err)
	}
	return requests, nil
}

// LoadRequests reads and parses an extraction request file.
func LoadRequests(path string) ([]ExtractionRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read requests: %w", err)
	}
	requests, err := ParseRequests(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return requests, nil
}
