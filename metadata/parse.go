package metadata

import (
	"bytes"
	"encoding/json"

	"github.com/teranos/tzmeta/micheline"
)

var knownKeys = map[string]bool{
	"name":        true,
	"description": true,
	"version":     true,
	"license":     true,
	"homepage":    true,
	"source":      true,
	"authors":     true,
	"interfaces":  true,
	"errors":      true,
	"views":       true,
}

// Parse decodes a TZIP-16 metadata document.
// Failures are *DecodeError values carrying the path to the offending value.
func Parse(raw []byte) (*Document, error) {
	root := Path{}
	fields, err := object(raw, root)
	if err != nil {
		return nil, err
	}

	doc := &Document{Extra: map[string]json.RawMessage{}}
	for k, v := range fields {
		if !knownKeys[k] {
			doc.Extra[k] = append(json.RawMessage(nil), v...)
		}
	}

	if doc.Name, err = optString(fields, "name", root); err != nil {
		return nil, err
	}
	if doc.Description, err = optString(fields, "description", root); err != nil {
		return nil, err
	}
	if doc.Version, err = optString(fields, "version", root); err != nil {
		return nil, err
	}
	if doc.Homepage, err = optString(fields, "homepage", root); err != nil {
		return nil, err
	}
	if doc.Authors, err = optStringList(fields, "authors", root); err != nil {
		return nil, err
	}
	if doc.Interfaces, err = optStringList(fields, "interfaces", root); err != nil {
		return nil, err
	}
	if v, ok := present(fields, "license"); ok {
		if doc.License, err = parseLicense(v, root.key("license")); err != nil {
			return nil, err
		}
	}
	if v, ok := present(fields, "source"); ok {
		if doc.Source, err = parseSource(v, root.key("source")); err != nil {
			return nil, err
		}
	}
	if v, ok := present(fields, "errors"); ok {
		if doc.Errors, err = parseErrors(v, root.key("errors")); err != nil {
			return nil, err
		}
	}
	if v, ok := present(fields, "views"); ok {
		if doc.Views, err = parseViews(v, root.key("views")); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

// present treats an explicit JSON null like an absent key
func present(fields map[string]json.RawMessage, key string) (json.RawMessage, bool) {
	v, ok := fields[key]
	if !ok || bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
		return nil, false
	}
	return v, true
}

func object(raw json.RawMessage, path Path) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' || json.Unmarshal(trimmed, &fields) != nil {
		return nil, &DecodeError{Path: path, Expected: "object", Actual: raw}
	}
	return fields, nil
}

func array(raw json.RawMessage, path Path) ([]json.RawMessage, error) {
	var items []json.RawMessage
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' || json.Unmarshal(trimmed, &items) != nil {
		return nil, &DecodeError{Path: path, Expected: "array", Actual: raw}
	}
	return items, nil
}

func str(raw json.RawMessage, path Path) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", &DecodeError{Path: path, Expected: "string", Actual: raw}
	}
	return s, nil
}

func requiredString(fields map[string]json.RawMessage, key string, path Path) (string, error) {
	v, ok := present(fields, key)
	if !ok {
		return "", &DecodeError{Path: path.key(key), Expected: "string (required)"}
	}
	return str(v, path.key(key))
}

func optString(fields map[string]json.RawMessage, key string, path Path) (*string, error) {
	v, ok := present(fields, key)
	if !ok {
		return nil, nil
	}
	s, err := str(v, path.key(key))
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func optStringList(fields map[string]json.RawMessage, key string, path Path) ([]string, error) {
	v, ok := present(fields, key)
	if !ok {
		return nil, nil
	}
	items, err := array(v, path.key(key))
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(items))
	for i, item := range items {
		s, err := str(item, path.key(key).index(i))
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func michelson(raw json.RawMessage, path Path) (micheline.Node, error) {
	n, err := micheline.Parse(raw)
	if err != nil {
		return micheline.Node{}, &DecodeError{Path: path, Expected: "Micheline expression (" + err.Error() + ")", Actual: raw}
	}
	return n, nil
}

func requiredMichelson(fields map[string]json.RawMessage, key string, path Path) (micheline.Node, error) {
	v, ok := present(fields, key)
	if !ok {
		return micheline.Node{}, &DecodeError{Path: path.key(key), Expected: "Micheline expression (required)"}
	}
	return michelson(v, path.key(key))
}

func parseLicense(raw json.RawMessage, path Path) (*License, error) {
	fields, err := object(raw, path)
	if err != nil {
		return nil, err
	}
	name, err := requiredString(fields, "name", path)
	if err != nil {
		return nil, err
	}
	details, err := optString(fields, "details", path)
	if err != nil {
		return nil, err
	}
	return &License{Name: name, Details: details}, nil
}

func parseSource(raw json.RawMessage, path Path) (*Source, error) {
	fields, err := object(raw, path)
	if err != nil {
		return nil, err
	}
	tools, err := optStringList(fields, "tools", path)
	if err != nil {
		return nil, err
	}
	location, err := optString(fields, "location", path)
	if err != nil {
		return nil, err
	}
	return &Source{Tools: tools, Location: location}, nil
}

func parseErrors(raw json.RawMessage, path Path) ([]ErrorTranslation, error) {
	items, err := array(raw, path)
	if err != nil {
		return nil, err
	}
	out := make([]ErrorTranslation, 0, len(items))
	for i, item := range items {
		p := path.index(i)
		fields, err := object(item, p)
		if err != nil {
			return nil, err
		}
		languages, err := optStringList(fields, "languages", p)
		if err != nil {
			return nil, err
		}

		if _, ok := present(fields, "view"); ok {
			view, err := requiredString(fields, "view", p)
			if err != nil {
				return nil, err
			}
			out = append(out, ErrorTranslation{Dynamic: &DynamicError{View: view, Languages: languages}})
			continue
		}

		if _, ok := present(fields, "error"); !ok {
			return nil, &DecodeError{Path: p, Expected: "static {error, expansion} or dynamic {view} error translation", Actual: item}
		}
		errValue, err := requiredMichelson(fields, "error", p)
		if err != nil {
			return nil, err
		}
		expansion, err := requiredMichelson(fields, "expansion", p)
		if err != nil {
			return nil, err
		}
		out = append(out, ErrorTranslation{Static: &StaticError{Error: errValue, Expansion: expansion, Languages: languages}})
	}
	return out, nil
}

func parseViews(raw json.RawMessage, path Path) ([]View, error) {
	items, err := array(raw, path)
	if err != nil {
		return nil, err
	}
	views := make([]View, 0, len(items))
	for i, item := range items {
		v, err := parseView(item, path.index(i))
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, nil
}

func parseView(raw json.RawMessage, path Path) (View, error) {
	fields, err := object(raw, path)
	if err != nil {
		return View{}, err
	}
	name, err := requiredString(fields, "name", path)
	if err != nil {
		return View{}, err
	}
	description, err := optString(fields, "description", path)
	if err != nil {
		return View{}, err
	}

	view := View{Name: name, Description: description}
	if v, ok := present(fields, "pure"); ok {
		if err := json.Unmarshal(v, &view.Pure); err != nil {
			return View{}, &DecodeError{Path: path.key("pure"), Expected: "boolean", Actual: v}
		}
	}

	implsRaw, ok := present(fields, "implementations")
	if !ok {
		return View{}, &DecodeError{Path: path.key("implementations"), Expected: "array (required)"}
	}
	items, err := array(implsRaw, path.key("implementations"))
	if err != nil {
		return View{}, err
	}
	for i, item := range items {
		impl, err := parseImplementation(item, path.key("implementations").index(i))
		if err != nil {
			return View{}, err
		}
		view.Implementations = append(view.Implementations, impl)
	}
	return view, nil
}

func parseImplementation(raw json.RawMessage, path Path) (Implementation, error) {
	fields, err := object(raw, path)
	if err != nil {
		return nil, err
	}
	if v, ok := present(fields, "michelsonStorageView"); ok {
		return parseMichelsonStorageView(v, path.key("michelsonStorageView"))
	}
	if v, ok := present(fields, "restApiQuery"); ok {
		return parseRestAPIQuery(v, path.key("restApiQuery"))
	}
	return nil, &DecodeError{Path: path, Expected: "object with michelsonStorageView or restApiQuery", Actual: raw}
}

func parseMichelsonStorageView(raw json.RawMessage, path Path) (*MichelsonStorageView, error) {
	fields, err := object(raw, path)
	if err != nil {
		return nil, err
	}
	view := &MichelsonStorageView{}

	if v, ok := present(fields, "parameter"); ok {
		param, err := michelson(v, path.key("parameter"))
		if err != nil {
			return nil, err
		}
		view.Parameter = &param
	}
	if view.ReturnType, err = requiredMichelson(fields, "returnType", path); err != nil {
		return nil, err
	}
	if view.Code, err = requiredMichelson(fields, "code", path); err != nil {
		return nil, err
	}
	if view.Version, err = optString(fields, "version", path); err != nil {
		return nil, err
	}

	if v, ok := present(fields, "annotations"); ok {
		items, err := array(v, path.key("annotations"))
		if err != nil {
			return nil, err
		}
		for i, item := range items {
			p := path.key("annotations").index(i)
			af, err := object(item, p)
			if err != nil {
				return nil, err
			}
			name, err := requiredString(af, "name", p)
			if err != nil {
				return nil, err
			}
			desc, err := requiredString(af, "description", p)
			if err != nil {
				return nil, err
			}
			view.Annotations = append(view.Annotations, Annotation{Name: name, Description: desc})
		}
	}
	return view, nil
}

func parseRestAPIQuery(raw json.RawMessage, path Path) (*RestAPIQuery, error) {
	fields, err := object(raw, path)
	if err != nil {
		return nil, err
	}
	q := &RestAPIQuery{Method: "GET"}
	if q.SpecificationURI, err = requiredString(fields, "specificationUri", path); err != nil {
		return nil, err
	}
	if q.BaseURI, err = optString(fields, "baseUri", path); err != nil {
		return nil, err
	}
	if q.Path, err = requiredString(fields, "path", path); err != nil {
		return nil, err
	}
	if v, ok := present(fields, "method"); ok {
		method, err := str(v, path.key("method"))
		if err != nil {
			return nil, err
		}
		switch method {
		case "GET", "POST", "PUT":
			q.Method = method
		default:
			return nil, &DecodeError{Path: path.key("method"), Expected: "one of GET, POST, PUT", Actual: v}
		}
	}
	return q, nil
}
