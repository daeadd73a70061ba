// Package schema validates loosely-typed trees (the shape encoding/json
// produces into any: map[string]any, []any, float64, string, bool, nil)
// against a declared expected shape.
//
// Schemas are stateless and reusable across calls. Parse always traverses the
// entire declared shape and returns either a value matching the schema
// exactly or a ValidationFailure carrying every violation found, never just
// the first one.
//
// Usage:
//
//	item := schema.Object().
//		Field("data_field", schema.String()).
//		Field("correct_field_name", schema.String()).
//		Require("data_field", "correct_field_name").
//		UnknownStrict()
//	res := item.Parse(raw) // outcome.Outcome[schema.Decoded, *schema.ValidationFailure]
package schema

import (
	"fmt"
	"math"
	"sort"

	"github.com/tidemill/effectum/outcome"
)

// Decoded is the normalized object value Parse yields: declared fields only,
// each value already checked against its field type.
type Decoded = map[string]any

// Type checks one raw value against an expected shape. Implementations
// return the normalized value and the complete list of violations found
// beneath path; an empty list means the value conforms.
type Type interface {
	check(path []string, raw any) (any, []Violation)
}

// Parser is the typed entry point the effect layer consumes: raw tree in,
// typed Outcome out.
type Parser[T any] interface {
	Parse(raw any) outcome.Outcome[T, *ValidationFailure]
}

// --- primitives ---

// StringType matches JSON strings, optionally bounded in length.
type StringType struct {
	minLen, maxLen *int
}

// String declares a string field.
func String() *StringType { return &StringType{} }

// MinLen requires at least n bytes.
func (s *StringType) MinLen(n int) *StringType { s.minLen = &n; return s }

// MaxLen allows at most n bytes.
func (s *StringType) MaxLen(n int) *StringType { s.maxLen = &n; return s }

func (s *StringType) check(path []string, raw any) (any, []Violation) {
	v, ok := raw.(string)
	if !ok {
		return nil, []Violation{{Path: path, Issue: IssueWrongType, Detail: fmt.Sprintf("want string, got %T", raw)}}
	}
	var vs []Violation
	if s.minLen != nil && len(v) < *s.minLen {
		vs = append(vs, Violation{Path: path, Issue: IssueOutOfRange, Detail: fmt.Sprintf("len %d < min %d", len(v), *s.minLen)})
	}
	if s.maxLen != nil && len(v) > *s.maxLen {
		vs = append(vs, Violation{Path: path, Issue: IssueOutOfRange, Detail: fmt.Sprintf("len %d > max %d", len(v), *s.maxLen)})
	}
	return v, vs
}

// IntType matches JSON numbers with an integral value.
type IntType struct {
	min, max *int64
}

// Int declares an integer field.
func Int() *IntType { return &IntType{} }

// Min requires the value to be at least n.
func (i *IntType) Min(n int64) *IntType { i.min = &n; return i }

// Max allows the value to be at most n.
func (i *IntType) Max(n int64) *IntType { i.max = &n; return i }

func (i *IntType) check(path []string, raw any) (any, []Violation) {
	f, ok := raw.(float64)
	if !ok || math.Trunc(f) != f || math.IsInf(f, 0) || math.IsNaN(f) {
		return nil, []Violation{{Path: path, Issue: IssueWrongType, Detail: fmt.Sprintf("want integer, got %T", raw)}}
	}
	v := int64(f)
	var vs []Violation
	if i.min != nil && v < *i.min {
		vs = append(vs, Violation{Path: path, Issue: IssueOutOfRange, Detail: fmt.Sprintf("%d < min %d", v, *i.min)})
	}
	if i.max != nil && v > *i.max {
		vs = append(vs, Violation{Path: path, Issue: IssueOutOfRange, Detail: fmt.Sprintf("%d > max %d", v, *i.max)})
	}
	return v, vs
}

// FloatType matches any JSON number.
type FloatType struct {
	min, max *float64
}

// Float declares a floating-point field.
func Float() *FloatType { return &FloatType{} }

// Min requires the value to be at least n.
func (f *FloatType) Min(n float64) *FloatType { f.min = &n; return f }

// Max allows the value to be at most n.
func (f *FloatType) Max(n float64) *FloatType { f.max = &n; return f }

func (f *FloatType) check(path []string, raw any) (any, []Violation) {
	v, ok := raw.(float64)
	if !ok {
		return nil, []Violation{{Path: path, Issue: IssueWrongType, Detail: fmt.Sprintf("want number, got %T", raw)}}
	}
	var vs []Violation
	if f.min != nil && v < *f.min {
		vs = append(vs, Violation{Path: path, Issue: IssueOutOfRange, Detail: fmt.Sprintf("%v < min %v", v, *f.min)})
	}
	if f.max != nil && v > *f.max {
		vs = append(vs, Violation{Path: path, Issue: IssueOutOfRange, Detail: fmt.Sprintf("%v > max %v", v, *f.max)})
	}
	return v, vs
}

// BoolType matches JSON booleans.
type BoolType struct{}

// Bool declares a boolean field.
func Bool() *BoolType { return &BoolType{} }

func (*BoolType) check(path []string, raw any) (any, []Violation) {
	v, ok := raw.(bool)
	if !ok {
		return nil, []Violation{{Path: path, Issue: IssueWrongType, Detail: fmt.Sprintf("want bool, got %T", raw)}}
	}
	return v, nil
}

// --- composites ---

// ArrayType matches JSON arrays whose every element conforms to elem.
type ArrayType struct {
	elem               Type
	minItems, maxItems *int
}

// Array declares an array field with a uniform element type.
func Array(elem Type) *ArrayType { return &ArrayType{elem: elem} }

// MinItems requires at least n elements.
func (a *ArrayType) MinItems(n int) *ArrayType { a.minItems = &n; return a }

// MaxItems allows at most n elements.
func (a *ArrayType) MaxItems(n int) *ArrayType { a.maxItems = &n; return a }

func (a *ArrayType) check(path []string, raw any) (any, []Violation) {
	items, ok := raw.([]any)
	if !ok {
		return nil, []Violation{{Path: path, Issue: IssueWrongType, Detail: fmt.Sprintf("want array, got %T", raw)}}
	}
	var vs []Violation
	if a.minItems != nil && len(items) < *a.minItems {
		vs = append(vs, Violation{Path: path, Issue: IssueOutOfRange, Detail: fmt.Sprintf("%d item(s) < min %d", len(items), *a.minItems)})
	}
	if a.maxItems != nil && len(items) > *a.maxItems {
		vs = append(vs, Violation{Path: path, Issue: IssueOutOfRange, Detail: fmt.Sprintf("%d item(s) > max %d", len(items), *a.maxItems)})
	}
	out := make([]any, len(items))
	for i, item := range items {
		v, itemVs := a.elem.check(append(path[:len(path):len(path)], fmt.Sprintf("[%d]", i)), item)
		out[i] = v
		vs = append(vs, itemVs...)
	}
	return out, vs
}

// --- objects ---

type fieldSpec struct {
	name string
	typ  Type
}

// ObjectSchema declares an object shape: ordered fields, a required set,
// and an unknown-field policy. The zero policy ignores unknown keys and
// drops them from the decoded value; UnknownStrict rejects them instead.
type ObjectSchema struct {
	fields   []fieldSpec
	required map[string]bool
	strict   bool
}

var _ Type = (*ObjectSchema)(nil)
var _ Parser[Decoded] = (*ObjectSchema)(nil)

// Object starts an object schema; chain Field/Require/UnknownStrict.
func Object() *ObjectSchema {
	return &ObjectSchema{required: make(map[string]bool)}
}

// Field declares a named field. Declaration order is the order violations
// are reported in.
func (o *ObjectSchema) Field(name string, typ Type) *ObjectSchema {
	o.fields = append(o.fields, fieldSpec{name: name, typ: typ})
	return o
}

// Require marks the named fields as mandatory; absent required fields are
// reported as IssueMissing. Non-required declared fields may be absent.
func (o *ObjectSchema) Require(names ...string) *ObjectSchema {
	for _, n := range names {
		o.required[n] = true
	}
	return o
}

// UnknownStrict rejects input keys the schema does not declare.
func (o *ObjectSchema) UnknownStrict() *ObjectSchema {
	o.strict = true
	return o
}

func (o *ObjectSchema) check(path []string, raw any) (any, []Violation) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, []Violation{{Path: path, Issue: IssueWrongType, Detail: fmt.Sprintf("want object, got %T", raw)}}
	}

	var vs []Violation
	out := make(Decoded, len(o.fields))
	for _, f := range o.fields {
		fieldPath := append(path[:len(path):len(path)], f.name)
		rawField, present := obj[f.name]
		if !present {
			if o.required[f.name] {
				vs = append(vs, Violation{Path: fieldPath, Issue: IssueMissing})
			}
			continue
		}
		v, fieldVs := f.typ.check(fieldPath, rawField)
		vs = append(vs, fieldVs...)
		if len(fieldVs) == 0 {
			out[f.name] = v
		}
	}

	if o.strict {
		declared := make(map[string]bool, len(o.fields))
		for _, f := range o.fields {
			declared[f.name] = true
		}
		var unknown []string
		for k := range obj {
			if !declared[k] {
				unknown = append(unknown, k)
			}
		}
		sort.Strings(unknown)
		for _, k := range unknown {
			vs = append(vs, Violation{Path: append(path[:len(path):len(path)], k), Issue: IssueUnexpected})
		}
	}

	return out, vs
}

// Parse validates raw in one full traversal. On success the decoded value
// contains exactly the declared fields present in the input; on failure the
// ValidationFailure carries every violation found.
func (o *ObjectSchema) Parse(raw any) outcome.Outcome[Decoded, *ValidationFailure] {
	v, vs := o.check(nil, raw)
	if len(vs) > 0 {
		return outcome.Failure[Decoded](&ValidationFailure{Violations: vs})
	}
	return outcome.Success[Decoded, *ValidationFailure](v.(Decoded))
}

// --- typed binding ---

// Bound projects a validated object into a caller domain type. The binder
// only runs on fully conforming input, so it may index the decoded map
// without re-checking presence or types.
type Bound[T any] struct {
	obj  *ObjectSchema
	bind func(Decoded) T
}

var _ Parser[struct{}] = Bound[struct{}]{}

// BindTo attaches a typed binder to an object schema.
func BindTo[T any](obj *ObjectSchema, bind func(Decoded) T) Bound[T] {
	return Bound[T]{obj: obj, bind: bind}
}

// Parse validates raw against the underlying object schema and, on success,
// binds the decoded value into T.
func (b Bound[T]) Parse(raw any) outcome.Outcome[T, *ValidationFailure] {
	return outcome.Map(b.obj.Parse(raw), b.bind)
}
