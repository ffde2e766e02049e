package prompt

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const schemaResource = "cv-extraction.json"

var (
	compileOnce    sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

func nullable(t string) map[string]any {
	return map[string]any{"type": []any{t, "null"}}
}

func nullableDate() map[string]any {
	return map[string]any{
		"type":    []any{"string", "null"},
		"pattern": `^[0-9]{4}-[0-9]{2}-[0-9]{2}$`,
	}
}

func arrayOf(item map[string]any) map[string]any {
	return map[string]any{"type": "array", "items": item}
}

func object(required []string, props map[string]any) map[string]any {
	o := map[string]any{"type": "object", "properties": props}
	if len(required) > 0 {
		req := make([]any, len(required))
		for i, r := range required {
			req[i] = r
		}
		o["required"] = req
	}
	return o
}

// Schema returns the extraction contract as a JSON Schema document. It is
// intentionally permissive about nulls: the normalizer is the authority on
// what survives, the schema only produces diagnostics.
func Schema() map[string]any {
	return map[string]any{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"type":    "object",
		"properties": map[string]any{
			"basic_info": map[string]any{
				"type": []any{"object", "null"},
				"properties": map[string]any{
					"first_name":          nullable("string"),
					"last_name":           nullable("string"),
					"email":               nullable("string"),
					"years_of_experience": nullable("integer"),
				},
			},
			"work_experiences": arrayOf(object([]string{"title", "company"}, map[string]any{
				"title":      nullable("string"),
				"company":    nullable("string"),
				"start_date": nullableDate(),
				"end_date":   nullableDate(),
				"is_current": nullable("boolean"),
			})),
			"educations": arrayOf(object([]string{"degree_diploma", "university_school"}, map[string]any{
				"start_date": nullableDate(),
				"end_date":   nullableDate(),
			})),
			"certifications": arrayOf(object(nil, map[string]any{
				"issue_date":  nullableDate(),
				"expiry_date": nullableDate(),
			})),
			"certificates": arrayOf(object(nil, map[string]any{
				"issue_date": nullableDate(),
			})),
			"projects": arrayOf(object(nil, map[string]any{
				"technologies": map[string]any{"type": []any{"array", "null"}},
			})),
			"skills": arrayOf(map[string]any{
				"anyOf": []any{
					map[string]any{"type": "string"},
					object(nil, map[string]any{
						"name":        nullable("string"),
						"proficiency": map[string]any{"type": []any{"number", "null"}, "minimum": 0, "maximum": 100},
					}),
				},
			}),
			"awards": arrayOf(object(nil, map[string]any{
				"date": nullableDate(),
			})),
			"volunteering": arrayOf(object([]string{"role"}, map[string]any{
				"start_date": nullableDate(),
				"end_date":   nullableDate(),
			})),
			"accomplishments": arrayOf(object([]string{"title"}, map[string]any{
				"description": nullable("string"),
			})),
		},
	}
}

func compile() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		b, err := json.Marshal(Schema())
		if err != nil {
			compileErr = fmt.Errorf("marshal schema: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(schemaResource, bytes.NewReader(b)); err != nil {
			compileErr = fmt.Errorf("add schema: %w", err)
			return
		}
		compiledSchema, compileErr = compiler.Compile(schemaResource)
	})
	return compiledSchema, compileErr
}

// CheckConformance validates a recovered JSON document against the extraction
// schema and returns one diagnostic per violation, sorted. An empty result
// means the model honored the contract.
func CheckConformance(rawJSON string) []string {
	schema, err := compile()
	if err != nil {
		return []string{fmt.Sprintf("schema unavailable: %v", err)}
	}

	var doc any
	if err := json.Unmarshal([]byte(rawJSON), &doc); err != nil {
		return []string{fmt.Sprintf("document is not valid JSON: %v", err)}
	}

	err = schema.Validate(doc)
	if err == nil {
		return []string{}
	}

	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return []string{err.Error()}
	}

	seen := make(map[string]bool)
	var out []string
	collectLeaves(verr, seen, &out)
	sort.Strings(out)
	return out
}

func collectLeaves(e *jsonschema.ValidationError, seen map[string]bool, out *[]string) {
	if len(e.Causes) == 0 {
		location := e.InstanceLocation
		if location == "" {
			location = "/"
		}
		msg := fmt.Sprintf("%s: %s", location, e.Message)
		if !seen[msg] {
			seen[msg] = true
			*out = append(*out, msg)
		}
		return
	}
	for _, cause := range e.Causes {
		collectLeaves(cause, seen, out)
	}
}
