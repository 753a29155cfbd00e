package anonymize

// Value is a node of a JSON-like tree, such as a decoded completion reply.
type Value interface {
	// Any converts the node back to plain Go values (string, []any, map[string]any, ...).
	Any() any
	restore(m Mapping) Value
}

// Text is a string leaf.
type Text string

// List is an ordered sequence of nodes.
type List []Value

// Object is a string-keyed set of nodes.
type Object map[string]Value

// Scalar is any other leaf: number, bool or null. It is never rewritten.
type Scalar struct{ V any }

// Any implements Value.
func (t Text) Any() any { return string(t) }

func (t Text) restore(m Mapping) Value { return Text(Restore(string(t), m)) }

// Any implements Value.
func (l List) Any() any {
	out := make([]any, len(l))
	for i, v := range l {
		out[i] = v.Any()
	}
	return out
}

func (l List) restore(m Mapping) Value {
	out := make(List, len(l))
	for i, v := range l {
		out[i] = v.restore(m)
	}
	return out
}

// Any implements Value.
func (o Object) Any() any {
	out := make(map[string]any, len(o))
	for k, v := range o {
		out[k] = v.Any()
	}
	return out
}

func (o Object) restore(m Mapping) Value {
	out := make(Object, len(o))
	for k, v := range o {
		out[k] = v.restore(m)
	}
	return out
}

// Any implements Value.
func (s Scalar) Any() any { return s.V }

func (s Scalar) restore(Mapping) Value { return s }

// ValueOf wraps a decoded JSON value (as produced by encoding/json into any).
func ValueOf(v any) Value {
	switch x := v.(type) {
	case Value:
		return x
	case string:
		return Text(x)
	case []any:
		out := make(List, len(x))
		for i, item := range x {
			out[i] = ValueOf(item)
		}
		return out
	case []string:
		out := make(List, len(x))
		for i, item := range x {
			out[i] = Text(item)
		}
		return out
	case map[string]any:
		out := make(Object, len(x))
		for k, item := range x {
			out[k] = ValueOf(item)
		}
		return out
	default:
		return Scalar{V: x}
	}
}

// RestoreValue restores placeholders in every string leaf of v.
// Object keys are left as they are.
func RestoreValue(v Value, m Mapping) Value {
	if v == nil || m.Len() == 0 {
		return v
	}
	return v.restore(m)
}
