package docs

import (
	"encoding/json"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type document struct {
	Paths map[string]map[string]struct {
		Responses map[string]struct {
			Schema json.RawMessage `json:"schema"`
		} `json:"responses"`
	} `json:"paths"`
	Definitions map[string]json.RawMessage `json:"definitions"`
}

func readDoc(t *testing.T) (string, document) {
	t.Helper()

	raw := SwaggerInfo.ReadDoc()

	var doc document
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))

	return raw, doc
}

func TestEveryReferenceIsDefined(t *testing.T) {
	raw, doc := readDoc(t)

	refs := regexp.MustCompile(`#/definitions/([\w.]+)`).FindAllStringSubmatch(raw, -1)
	require.NotEmpty(t, refs)

	for _, m := range refs {
		assert.Contains(t, doc.Definitions, m[1])
	}
}

func TestSuccessResponsesHaveSchemas(t *testing.T) {
	_, doc := readDoc(t)

	for path, methods := range doc.Paths {
		for method, op := range methods {
			for _, code := range []string{"200", "201"} {
				if r, ok := op.Responses[code]; ok {
					assert.NotEmpty(t, r.Schema, "%s %s %s", method, path, code)
				}
			}
		}
	}
}
