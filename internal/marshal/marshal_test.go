package marshal

import (
	"testing"

	"github.com/go-test/deep"
)

// node is a self-referential intrusive-list-style type used only to exercise
// cycle handling; production types use slices instead (see internal/model),
// per the design note that the marshalling layer only needs to reconstruct a
// sequence, not an intrusive link layout.
type node struct {
	Value int
	Next  *node
}

var nodeInfo = Register("marshal_test.node", &node{}, &Info{
	Pointers: []SubInfo{
		{Kind: Pointer, Field: "Next", Type: nil},
	},
})

func init() {
	// self-reference is legal for owning pointers (only inline substructs are
	// rejected for cycles at registration time); fill it in after
	// registration so Register's cycle check never sees it.
	nodeInfo.Pointers[0].Type = nodeInfo
}

type leaf struct {
	Name string
	Tags []string
}

var leafInfo = Register("marshal_test.leaf", &leaf{}, &Info{})

type holder struct {
	A *leaf
	B *leaf
}

var holderInfo = Register("marshal_test.holder", &holder{}, &Info{
	Pointers: []SubInfo{
		{Kind: Pointer, Field: "A", Type: leafInfo},
		{Kind: Pointer, Field: "B", Type: leafInfo},
	},
})

func TestRoundTripBasicValue(t *testing.T) {
	in := &leaf{Name: "eth0", Tags: []string{"up", "multicast"}}

	data, err := Serialize("marshal_test.leaf", in)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	var out *leaf
	if err := Deserialize("marshal_test.leaf", data, &out); err != nil {
		t.Fatalf("Deserialize: %v", err)
	}

	if diff := deep.Equal(in, out); diff != nil {
		t.Errorf("round-trip mismatch: %v", diff)
	}
}

func TestRoundTripNilPointer(t *testing.T) {
	in := &node{Value: 1, Next: nil}

	data, err := Serialize("marshal_test.node", in)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	var out *node
	if err := Deserialize("marshal_test.node", data, &out); err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if out.Next != nil {
		t.Fatalf("Next = %v, want nil", out.Next)
	}
	if out.Value != 1 {
		t.Fatalf("Value = %d, want 1", out.Value)
	}
}

// TestSharedSubstructureIdentityFolding is scenario E from the spec: a
// chassis referenced by two ports round-trips with pointer identity folded
// — exactly one allocation, both fields point at it.
func TestSharedSubstructureIdentityFolding(t *testing.T) {
	shared := &leaf{Name: "shared-chassis"}
	in := &holder{A: shared, B: shared}

	data, err := Serialize("marshal_test.holder", in)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	var out *holder
	if err := Deserialize("marshal_test.holder", data, &out); err != nil {
		t.Fatalf("Deserialize: %v", err)
	}

	if diff := deep.Equal(in, out); diff != nil {
		t.Errorf("round-trip mismatch: %v", diff)
	}
	if out.A != out.B {
		t.Fatalf("identity not folded: A=%p B=%p, want equal pointers", out.A, out.B)
	}
}

// TestCyclePreservation is invariant 2: an intrusive list of length 1 whose
// next points to head must serialize and deserialize into an isomorphic
// cyclic graph without looping forever.
func TestCyclePreservation(t *testing.T) {
	head := &node{Value: 42}
	head.Next = head

	data, err := Serialize("marshal_test.node", head)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	var out *node
	if err := Deserialize("marshal_test.node", data, &out); err != nil {
		t.Fatalf("Deserialize: %v", err)
	}

	if out.Next != out {
		t.Fatalf("cycle not preserved: Next=%p self=%p", out.Next, out)
	}
	if out.Value != 42 {
		t.Fatalf("Value = %d, want 42", out.Value)
	}
}

// TestCyclePreservationLongerRing exercises a 3-node ring to make sure
// identity folding is not an artifact of the 1-node case.
func TestCyclePreservationLongerRing(t *testing.T) {
	a := &node{Value: 1}
	b := &node{Value: 2}
	c := &node{Value: 3}
	a.Next, b.Next, c.Next = b, c, a

	data, err := Serialize("marshal_test.node", a)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	var out *node
	if err := Deserialize("marshal_test.node", data, &out); err != nil {
		t.Fatalf("Deserialize: %v", err)
	}

	if out.Value != 1 || out.Next.Value != 2 || out.Next.Next.Value != 3 || out.Next.Next.Next != out {
		t.Fatalf("ring not preserved: %d -> %d -> %d -> (self=%v)",
			out.Value, out.Next.Value, out.Next.Next.Value, out.Next.Next.Next == out)
	}
}

func TestDeserializeTruncatedInput(t *testing.T) {
	in := &leaf{Name: "eth0"}
	data, err := Serialize("marshal_test.leaf", in)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	var out *leaf
	if err := Deserialize("marshal_test.leaf", data[:len(data)-2], &out); err == nil {
		t.Fatalf("Deserialize on truncated input: want error, got nil")
	}
}

func TestSerializeUnknownSchema(t *testing.T) {
	if _, err := Serialize("marshal_test.nope", &leaf{}); err == nil {
		t.Fatalf("Serialize with unknown schema: want error, got nil")
	}
}
