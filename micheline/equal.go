package micheline

import "bytes"

// EqualType reports whether two type expressions are structurally identical
// once annotations are ignored. Primitive names and arity always matter:
//
//	EqualType(nat %a, nat %b)  == true
//	EqualType(nat, int)        == false
//	EqualType(pair nat nat, pair nat) == false
//
// The comparison walks both trees; it never compares serialized forms.
func EqualType(a, b Node) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindPrim:
		if a.Prim != b.Prim || len(a.Args) != len(b.Args) {
			return false
		}
		for i := range a.Args {
			if !EqualType(a.Args[i], b.Args[i]) {
				return false
			}
		}
		return true
	case KindSeq:
		if len(a.Items) != len(b.Items) {
			return false
		}
		for i := range a.Items {
			if !EqualType(a.Items[i], b.Items[i]) {
				return false
			}
		}
		return true
	default:
		return equalLeaf(a, b)
	}
}

// Equal reports exact equality including annotations
func Equal(a, b Node) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindPrim:
		if a.Prim != b.Prim || len(a.Args) != len(b.Args) || len(a.Annots) != len(b.Annots) {
			return false
		}
		for i := range a.Annots {
			if a.Annots[i] != b.Annots[i] {
				return false
			}
		}
		for i := range a.Args {
			if !Equal(a.Args[i], b.Args[i]) {
				return false
			}
		}
		return true
	case KindSeq:
		if len(a.Items) != len(b.Items) {
			return false
		}
		for i := range a.Items {
			if !Equal(a.Items[i], b.Items[i]) {
				return false
			}
		}
		return true
	default:
		return equalLeaf(a, b)
	}
}

func equalLeaf(a, b Node) bool {
	switch a.Kind {
	case KindInt:
		if a.Int == nil || b.Int == nil {
			return a.Int == b.Int
		}
		return a.Int.Cmp(b.Int) == 0
	case KindString:
		return a.Str == b.Str
	case KindBytes:
		return bytes.Equal(a.Bytes, b.Bytes)
	default:
		return false
	}
}
