package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// field is a JSON member the typed model does not know about. Raw holds the
// value exactly as it appeared in the source document. A typed entry carries
// no value: it only marks where a declared member sat in the document.
type field struct {
	Key   string
	Raw   json.RawMessage
	typed bool
}

// extras keeps unknown members in document order so a rewrite of package.json
// does not drop or reshuffle keys owned by other tools.
type extras []field

func (x extras) clone() extras {
	if len(x) == 0 {
		return nil
	}
	out := make(extras, len(x))
	copy(out, x)
	return out
}

func (x extras) get(key string) (json.RawMessage, bool) {
	for _, f := range x {
		if f.Key == key && !f.typed {
			return f.Raw, true
		}
	}
	return nil, false
}

// set replaces the member in place or appends it.
func (x extras) set(key string, raw json.RawMessage) extras {
	for i, f := range x {
		if f.Key == key && !f.typed {
			out := x.clone()
			out[i].Raw = raw
			return out
		}
	}
	return append(x.clone(), field{Key: key, Raw: raw})
}

// merge overlays src on x: members present in src win, the rest survive.
func (x extras) merge(src extras) extras {
	out := x.clone()
	for _, f := range src {
		if f.typed {
			continue
		}
		out = out.set(f.Key, f.Raw)
	}
	return out
}

var knownKeysCache sync.Map // reflect.Type -> map[string]bool

// knownKeys returns the JSON member names declared on struct type t.
func knownKeys(t reflect.Type) map[string]bool {
	if v, ok := knownKeysCache.Load(t); ok {
		return v.(map[string]bool)
	}
	keys := make(map[string]bool, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
		if name == "-" {
			continue
		}
		if name == "" {
			name = sf.Name
		}
		keys[name] = true
	}
	knownKeysCache.Store(t, keys)
	return keys
}

// decodeObject unmarshals data into v (a pointer to a struct without custom
// JSON methods) and returns the members v does not declare, together with the
// positions of the declared ones. Only exact key matches reach v, so "Name"
// stays an unknown member instead of overwriting "name".
func decodeObject(data []byte, v any) (extras, error) {
	if !gjson.ValidBytes(data) || !gjson.ParseBytes(data).IsObject() {
		return nil, json.Unmarshal(data, v)
	}
	known := knownKeys(reflect.TypeOf(v).Elem())
	var (
		out   extras
		typed bytes.Buffer
	)
	typed.WriteByte('{')
	gjson.ParseBytes(data).ForEach(func(key, value gjson.Result) bool {
		name := key.String()
		if !known[name] {
			out = append(out, field{Key: name, Raw: json.RawMessage(value.Raw)})
			return true
		}
		if typed.Len() > 1 {
			typed.WriteByte(',')
		}
		typed.WriteString(key.Raw)
		typed.WriteByte(':')
		typed.WriteString(value.Raw)
		out = append(out, field{Key: name, typed: true})
		return true
	})
	typed.WriteByte('}')
	if err := json.Unmarshal(typed.Bytes(), v); err != nil {
		return nil, err
	}
	return out, nil
}

// encodeObject marshals v and lays its members out in the order recorded by
// x: declared members at their original positions, unknown members verbatim
// between them, and declared members new to the document at the end. An
// unknown member named like a declared one replaces it. Without recorded
// positions the declared members come first.
func encodeObject(v any, x extras) ([]byte, error) {
	data, err := marshalNoEscape(v)
	if err != nil {
		return nil, err
	}
	var members []field
	gjson.ParseBytes(data).ForEach(func(key, value gjson.Result) bool {
		members = append(members, field{Key: key.String(), Raw: json.RawMessage(value.Raw)})
		return true
	})
	values := make(map[string]json.RawMessage, len(members)+len(x))
	for _, f := range members {
		values[f.Key] = f.Raw
	}
	ordered := false
	for _, f := range x {
		if f.typed {
			ordered = true
		} else if f.Key != "" {
			values[f.Key] = f.Raw
		}
	}

	out := []byte("{}")
	done := make(map[string]bool, len(values))
	emit := func(key string) error {
		raw, ok := values[key]
		if !ok || done[key] {
			return nil
		}
		done[key] = true
		out, err = sjson.SetRawBytes(out, escapePath(key), raw)
		if err != nil {
			return fmt.Errorf("restore member %q: %w", key, err)
		}
		return nil
	}

	if !ordered {
		for _, f := range members {
			if err := emit(f.Key); err != nil {
				return nil, err
			}
		}
	}
	for _, f := range x {
		if f.Key == "" {
			continue
		}
		if err := emit(f.Key); err != nil {
			return nil, err
		}
	}
	for _, f := range members {
		if err := emit(f.Key); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// marshalNoEscape is json.Marshal without HTML escaping, so scripts such as
// "a && b" stay readable in package.json.
func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// escapePath turns an object key into a gjson/sjson path component.
func escapePath(key string) string {
	var b strings.Builder
	for _, r := range key {
		switch r {
		case '.', '*', '?', '|', '#', '@', '!', ':', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
