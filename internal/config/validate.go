package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"

	"github.com/roach88/eventchain/internal/schema"
)

// configSchema constrains the shape of a config once the required
// attributes are present.
const configSchema = `
#Config: {
	eventchain: _
	name:       string & !=""
	q: {
		find?: {...}
		project?: [string]: _
	}
	...
}
`

// ValidationError is one problem found in a config file.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects every problem found in a config file.
type ValidationErrors []*ValidationError

// Error joins the problems one per line.
func (v ValidationErrors) Error() string {
	lines := make([]string, len(v))
	for i, e := range v {
		lines[i] = e.Error()
	}
	return strings.Join(lines, "\n")
}

// allowedQueryKeys are the query clauses the bridge understands.
var allowedQueryKeys = []string{"find", "project"}

// Validate checks a decoded config and returns every problem found.
//
// Required attributes are checked first. Only when they are all present is
// the document checked against the CUE schema and the projection checked
// for at least one table field.
func Validate(raw map[string]any) ValidationErrors {
	var errs ValidationErrors

	if !truthy(raw[Attr]) {
		errs = append(errs, &ValidationError{Field: Attr, Message: `requires an "eventchain": 1 key pair`})
	}
	if !truthy(raw["name"]) {
		errs = append(errs, &ValidationError{Field: "name", Message: `requires a "name" attribute`})
	}

	switch q := raw["q"].(type) {
	case nil:
		errs = append(errs, &ValidationError{Field: "q", Message: `requires a "q" attribute`})
	case map[string]any:
		if len(q) == 0 {
			errs = append(errs, &ValidationError{Field: "q", Message: `"q" should have a "find" or "project" attribute`})
		}
		keys := make([]string, 0, len(q))
		for k := range q {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			if !slices.Contains(allowedQueryKeys, k) {
				errs = append(errs, &ValidationError{
					Field:   "q." + k,
					Message: `"q" currently supports only "find" and "project"`,
				})
			}
		}
	default:
		errs = append(errs, &ValidationError{Field: "q", Message: `"q" must be an object`})
	}

	if len(errs) > 0 {
		return errs
	}

	if errs = checkSchema(raw); len(errs) > 0 {
		return errs
	}

	q := raw["q"].(map[string]any)
	project, _ := q["project"].(map[string]any)
	if err := schema.ParseProjection(project).Validate(); err != nil {
		var ce *schema.ConfigurationError
		if errors.As(err, &ce) {
			return ValidationErrors{{Field: "q.project", Message: ce.Message}}
		}
		return ValidationErrors{{Field: "q.project", Message: err.Error()}}
	}
	return nil
}

// checkSchema unifies raw with the #Config definition.
func checkSchema(raw map[string]any) ValidationErrors {
	ctx := cuecontext.New()
	def := ctx.CompileString(configSchema).LookupPath(cue.ParsePath("#Config"))
	if err := def.Err(); err != nil {
		return ValidationErrors{{Message: fmt.Sprintf("compiling config schema: %v", err)}}
	}

	v := ctx.Encode(raw)
	if err := v.Err(); err != nil {
		return ValidationErrors{{Message: fmt.Sprintf("encoding config: %v", err)}}
	}

	err := def.Unify(v).Validate(cue.Concrete(true))
	if err == nil {
		return nil
	}

	var errs ValidationErrors
	for _, e := range cueerrors.Errors(err) {
		format, args := e.Msg()
		errs = append(errs, &ValidationError{
			Field:   strings.Join(e.Path(), "."),
			Message: fmt.Sprintf(format, args...),
		})
	}
	return errs
}
