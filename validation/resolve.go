package validation

import (
	"encoding/json"

	"github.com/teranos/tzmeta/metadata"
	"github.com/teranos/tzmeta/micheline"
)

// ResultKind tags a Result
type ResultKind int

const (
	Missing ResultKind = iota
	NoMichelsonImplementation
	Invalid
	Valid
)

func (k ResultKind) String() string {
	switch k {
	case Missing:
		return "missing"
	case NoMichelsonImplementation:
		return "no-michelson-implementation"
	case Invalid:
		return "invalid"
	case Valid:
		return "valid"
	default:
		return "unknown"
	}
}

// TypeStatusKind tags a TypeStatus
type TypeStatusKind int

const (
	TypeOk TypeStatusKind = iota
	TypeWrong
	TypeUnchecked
	TypeMissingParameter
)

func (k TypeStatusKind) String() string {
	switch k {
	case TypeOk:
		return "ok"
	case TypeWrong:
		return "wrong"
	case TypeUnchecked:
		return "unchecked"
	case TypeMissingParameter:
		return "missing-parameter"
	default:
		return "unknown"
	}
}

// TypeStatus is the outcome of comparing one declared type with its expected shape.
// Found is set only for TypeWrong.
type TypeStatus struct {
	Kind  TypeStatusKind
	Found *micheline.Node
}

// Acceptable reports whether the status does not invalidate a view
func (s TypeStatus) Acceptable() bool {
	return s.Kind == TypeOk || s.Kind == TypeUnchecked
}

// MarshalJSON renders {"status": ..., "found": "<michelson>"}
func (s TypeStatus) MarshalJSON() ([]byte, error) {
	out := struct {
		Status string `json:"status"`
		Found  string `json:"found,omitempty"`
	}{Status: s.Kind.String()}
	if s.Found != nil {
		out.Found = micheline.Render(*s.Found)
	}
	return json.Marshal(out)
}

// Result is the validation outcome for one named view.
//
//	Missing                    no view has the name
//	NoMichelsonImplementation  the view only has REST implementations
//	Invalid                    Parameter and Return explain the mismatch
//	Valid                      ImplementationIndex points into View.Implementations
type Result struct {
	Kind                ResultKind
	Name                string
	Parameter           TypeStatus
	Return              TypeStatus
	ImplementationIndex int
	View                *metadata.View
}

// IsValid is shorthand for Kind == Valid
func (r Result) IsValid() bool {
	return r.Kind == Valid
}

// Implementation returns the Michelson implementation selected by a Valid result
func (r Result) Implementation() (*metadata.MichelsonStorageView, bool) {
	if r.Kind != Valid || r.View == nil {
		return nil, false
	}
	impl, ok := r.View.Implementations[r.ImplementationIndex].(*metadata.MichelsonStorageView)
	return impl, ok
}

// MarshalJSON renders the result for the presentation boundary
func (r Result) MarshalJSON() ([]byte, error) {
	out := map[string]interface{}{
		"name":   r.Name,
		"status": r.Kind.String(),
	}
	switch r.Kind {
	case Invalid:
		out["parameter"] = r.Parameter
		out["return"] = r.Return
	case Valid:
		out["implementation_index"] = r.ImplementationIndex
		if r.Parameter.Kind == TypeUnchecked {
			out["unchecked"] = true
		}
	}
	return json.Marshal(out)
}

// ResolveView looks up name in doc and checks its Michelson implementations
// against the canonical signature for that name. The first view with the name
// wins. The first Michelson implementation whose types are acceptable is
// selected; when none is, the statuses of the first one are reported.
func ResolveView(doc *metadata.Document, name string) Result {
	view, _, ok := doc.FindView(name)
	if !ok {
		return Result{Kind: Missing, Name: name}
	}

	impls, positions := view.MichelsonImplementations()
	if len(impls) == 0 {
		return Result{Kind: NoMichelsonImplementation, Name: name, View: view}
	}

	sig, canonical := SignatureOf(name)
	var first Result
	for i, impl := range impls {
		param, ret := TypeStatus{Kind: TypeUnchecked}, TypeStatus{Kind: TypeUnchecked}
		if canonical {
			param = checkParameter(sig.Parameter, impl.Parameter)
			ret = checkType(sig.Return, impl.ReturnType)
		}
		if param.Acceptable() && ret.Acceptable() {
			return Result{
				Kind:                Valid,
				Name:                name,
				Parameter:           param,
				Return:              ret,
				ImplementationIndex: positions[i],
				View:                view,
			}
		}
		if i == 0 {
			first = Result{Kind: Invalid, Name: name, Parameter: param, Return: ret, View: view}
		}
	}
	return first
}

func checkParameter(expected, declared *micheline.Node) TypeStatus {
	switch {
	case expected == nil && declared == nil:
		return TypeStatus{Kind: TypeOk}
	case expected == nil:
		return TypeStatus{Kind: TypeWrong, Found: declared}
	case declared == nil:
		return TypeStatus{Kind: TypeMissingParameter}
	default:
		return checkType(*expected, *declared)
	}
}

func checkType(expected, declared micheline.Node) TypeStatus {
	if micheline.EqualType(expected, declared) {
		return TypeStatus{Kind: TypeOk}
	}
	found := declared
	return TypeStatus{Kind: TypeWrong, Found: &found}
}
