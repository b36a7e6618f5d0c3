package hsds

import (
	"strings"

	"github.com/xeipuuv/gojsonschema"

	ferrors "firefly/cli/internal/errors"
)

const domainsSchema = `{
  "type": "object",
  "required": ["domains"],
  "properties": {
    "domains": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["root", "class", "owner", "name", "created", "lastModified"],
        "properties": {
          "root":         {"type": "string"},
          "class":        {"type": "string"},
          "owner":        {"type": "string"},
          "name":         {"type": "string"},
          "created":      {"type": "number"},
          "lastModified": {"type": "number"}
        }
      }
    }
  }
}`

const attributesSchema = `{
  "type": "object",
  "required": ["attributes"],
  "properties": {
    "attributes": {
      "type": "object",
      "additionalProperties": {
        "type": "object",
        "required": ["value"]
      }
    }
  }
}`

const aboutSchema = `{"type": "object"}`

var (
	domainsValidator    = mustSchema(domainsSchema)
	attributesValidator = mustSchema(attributesSchema)
	aboutValidator      = mustSchema(aboutSchema)
)

func mustSchema(src string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic("hsds: invalid embedded schema: " + err.Error())
	}
	return s
}

// validate checks body against schema and reports violations as MalformedResponse.
func validate(schema *gojsonschema.Schema, what string, body []byte) error {
	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return ferrors.Wrap(ferrors.MalformedResponse, what, err)
	}
	if !result.Valid() {
		var errs []string
		for _, desc := range result.Errors() {
			errs = append(errs, desc.String())
		}
		return ferrors.Newf(ferrors.MalformedResponse, "%s: %s", what, strings.Join(errs, "; "))
	}
	return nil
}
