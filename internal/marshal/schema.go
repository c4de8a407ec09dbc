// Package marshal implements a schema-directed serializer for pointer-graph
// structures, modeled on lldpd's marshal_info tables (src/marshal.h) but
// built as a single pass backed by an identity map instead of in-place
// pointer rewriting: the first visit of a pointer emits its body and
// records its index, later visits emit a back-reference to that index.
// Cycles are collapsed through that map, keyed by the original address,
// instead of being declared acyclic up front.
package marshal

import (
	"fmt"
	"reflect"
)

// Kind distinguishes an owning pointer field from an inline substruct field.
type Kind int

const (
	// Pointer fields hold a separately allocated referent, or nil.
	Pointer Kind = iota
	// Substruct fields are embedded inline in the parent, at the field
	// named by SubInfo.Field.
	Substruct
)

func (k Kind) String() string {
	switch k {
	case Pointer:
		return "pointer"
	case Substruct:
		return "substruct"
	default:
		return "unknown"
	}
}

// SubInfo describes one pointer or substruct field of a registered type.
// Field plays the role the original C schema's byte offset played: it
// locates the member within the parent, but by name rather than by
// offsetof, since the encoder walks values through reflection instead of
// copying raw memory.
type SubInfo struct {
	Kind  Kind
	Field string // struct field name within the parent
	Type  *Info  // schema of the referent (substruct) or pointed-to type (pointer)
}

// Info is the static schema for one struct type: its name, and the ordered
// list of pointer/substruct fields the serializer must descend into.
// Declared once per type via Register; schema graphs are acyclic by
// declaration even though pointer instances may form cycles at runtime.
type Info struct {
	Name     string
	Pointers []SubInfo
}

var registry = map[string]*Info{}

// Register records a type's schema under name, validated against a zero
// value of the Go type the schema describes. It panics on a duplicate
// name, on a Field that does not exist on sample, on a declared Kind that
// disagrees with the field's actual reflect.Kind, or on a substruct cycle
// detected among already-registered inline substructs — all schema
// mistakes the spec calls out as "rejected at schema-registration time".
func Register(name string, sample interface{}, info *Info) *Info {
	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("marshal: schema %q already registered", name))
	}
	info.Name = name

	t := reflect.TypeOf(sample)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		panic(fmt.Sprintf("marshal: schema %q sample must be a struct, got %s", name, t.Kind()))
	}
	for _, p := range info.Pointers {
		sf, ok := t.FieldByName(p.Field)
		if !ok {
			panic(fmt.Sprintf("marshal: schema %q: field %q not found on %s", name, p.Field, t.Name()))
		}
		switch p.Kind {
		case Pointer:
			if sf.Type.Kind() != reflect.Ptr {
				panic(fmt.Sprintf("marshal: schema %q: field %q declared Pointer but is %s", name, p.Field, sf.Type.Kind()))
			}
		case Substruct:
			if sf.Type.Kind() != reflect.Struct {
				panic(fmt.Sprintf("marshal: schema %q: field %q declared Substruct but is %s", name, p.Field, sf.Type.Kind()))
			}
		}
	}

	if err := checkSubstructCycle(name, info, map[string]bool{}); err != nil {
		panic(err)
	}
	registry[name] = info
	return info
}

func checkSubstructCycle(root string, info *Info, seen map[string]bool) error {
	for _, p := range info.Pointers {
		if p.Kind != Substruct || p.Type == nil {
			continue
		}
		if p.Type.Name == root || seen[p.Type.Name] {
			return fmt.Errorf("marshal: cycle among inline substructs reachable from %q", root)
		}
		seen[p.Type.Name] = true
		if err := checkSubstructCycle(root, p.Type, seen); err != nil {
			return err
		}
	}
	return nil
}

// Lookup returns a previously registered schema by name.
func Lookup(name string) (*Info, bool) {
	info, ok := registry[name]
	return info, ok
}
