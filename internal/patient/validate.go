package patient

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

//go:embed schema.cue
var schemaSource string

// InvalidError reports input that does not satisfy the patient schema.
type InvalidError struct {
	// Fields lists the offending column names, sorted.
	Fields []string

	// Detail is the CUE evaluation message.
	Detail string
}

func (e *InvalidError) Error() string {
	if len(e.Fields) == 0 {
		return "invalid patient data: " + e.Detail
	}
	return fmt.Sprintf("invalid patient data (%s): %s", strings.Join(e.Fields, ", "), e.Detail)
}

// schema holds the compiled CUE definitions.
// cue.Context is not safe for concurrent evaluation, so use is serialized.
type schema struct {
	mu      sync.Mutex
	ctx     *cue.Context
	patient cue.Value
	update  cue.Value
}

var (
	schemaOnce sync.Once
	compiled   *schema
	compileErr error
)

func loadSchema() (*schema, error) {
	schemaOnce.Do(func() {
		ctx := cuecontext.New()
		root := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
		if err := root.Err(); err != nil {
			compileErr = fmt.Errorf("compile patient schema: %w", err)
			return
		}
		compiled = &schema{
			ctx:     ctx,
			patient: root.LookupPath(cue.ParsePath("#Patient")),
			update:  root.LookupPath(cue.ParsePath("#Update")),
		}
	})
	return compiled, compileErr
}

// Validate checks registration input against #Patient.
// Returns *InvalidError when the input is rejected.
func Validate(in Input) error {
	s, err := loadSchema()
	if err != nil {
		return err
	}
	return s.check(s.patient, in.Fields())
}

// ValidateUpdate checks the set fields of an update against #Update.
// An empty update is rejected.
func ValidateUpdate(u Update) error {
	if u.IsEmpty() {
		return &InvalidError{Detail: "update sets no fields"}
	}
	s, err := loadSchema()
	if err != nil {
		return err
	}
	return s.check(s.update, u.Fields())
}

func (s *schema) check(def cue.Value, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := def.Unify(s.ctx.Encode(fields))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return newInvalidError(err)
	}
	return nil
}

// newInvalidError collects the column names named by CUE error paths.
func newInvalidError(err error) *InvalidError {
	seen := make(map[string]struct{})
	var msgs []string
	for _, e := range cueerrors.Errors(err) {
		path := e.Path()
		if len(path) == 0 {
			continue
		}
		field := path[len(path)-1]
		if strings.HasPrefix(field, "#") {
			continue
		}
		if _, ok := seen[field]; ok {
			continue
		}
		seen[field] = struct{}{}
		msgs = append(msgs, field)
	}
	sort.Strings(msgs)
	return &InvalidError{Fields: msgs, Detail: err.Error()}
}
