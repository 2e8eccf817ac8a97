package services

import (
	"fmt"
	"sort"
	"strings"
)

// ValidationError collects per-field messages for a budget form. Field keys
// look like "tasks[2].end_date".
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// add keeps the first message reported for a field.
func (e *ValidationError) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = msg
	}
}

func (e *ValidationError) merge(o *ValidationError) {
	if o == nil {
		return
	}
	for k, v := range o.Fields {
		e.add(k, v)
	}
}

// orNil returns nil when no field failed so callers can test err != nil.
func (e *ValidationError) orNil() *ValidationError {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

func taskField(i int, name string) string {
	return fmt.Sprintf("tasks[%d].%s", i, name)
}
