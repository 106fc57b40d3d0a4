// internal/mgmt/decode.go
package mgmt

import (
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/tamzrod/vhostsync/internal/snapshot"
)

// Decode parses a read response: a JSON array whose element 0 is the host.
// found is false when the body is empty, null, or an empty array.
func Decode(body []byte) (s snapshot.Snapshot, found bool, err error) {
	elem, found, err := firstElement(body)
	if err != nil || !found {
		return snapshot.Snapshot{}, found, err
	}

	if !elem.IsObject() {
		return snapshot.Snapshot{}, false, fmt.Errorf("%w: element 0 is not an object", ErrMalformed)
	}

	s = snapshot.Snapshot{
		ID:             elem.Get("id").String(),
		Name:           elem.Get("name").String(),
		Type:           elem.Get("type").String(),
		State:          snapshot.LifecycleState(elem.Get("state").String()),
		Durable:        elem.Get("durable").Bool(),
		LifetimePolicy: elem.Get("lifetimePolicy").String(),
		Attributes:     flatten(elem),
		Counters:       counters(elem),
		Queues:         children(elem.Get("queues")),
		Exchanges:      children(elem.Get("exchanges")),
		Connections:    children(elem.Get("connections")),
	}
	return s, true, nil
}

func decodeAttributes(body []byte) (map[string]any, error) {
	elem, found, err := firstElement(body)
	if err != nil || !found {
		return nil, err
	}
	m, ok := elem.Value().(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: element 0 is not an object", ErrMalformed)
	}
	return m, nil
}

func firstElement(body []byte) (gjson.Result, bool, error) {
	if len(body) == 0 {
		return gjson.Result{}, false, nil
	}
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, false, fmt.Errorf("%w: invalid json", ErrMalformed)
	}

	root := gjson.ParseBytes(body)
	switch {
	case root.Type == gjson.Null:
		return gjson.Result{}, false, nil
	case !root.IsArray():
		return gjson.Result{}, false, fmt.Errorf("%w: expected array", ErrMalformed)
	}

	elem := root.Get("0")
	if !elem.Exists() || elem.Type == gjson.Null {
		return gjson.Result{}, false, nil
	}
	return elem, true, nil
}

// counters reads the cumulative block from "statistics", falling back to
// attributes that were already flattened by the server.
func counters(r gjson.Result) snapshot.Counters {
	return snapshot.Counters{
		MessagesIn:  counter(r, "messagesIn"),
		BytesIn:     counter(r, "bytesIn"),
		MessagesOut: counter(r, "messagesOut"),
		BytesOut:    counter(r, "bytesOut"),
	}
}

func counter(r gjson.Result, name string) int64 {
	if v := r.Get("statistics." + name); v.Exists() {
		return v.Int()
	}
	return r.Get(name).Int()
}

// flatten copies scalar attributes and statistics into one map.
// Child collections are skipped.
func flatten(r gjson.Result) map[string]any {
	out := make(map[string]any)
	r.ForEach(func(key, value gjson.Result) bool {
		k := key.String()
		switch {
		case k == "statistics" && value.IsObject():
			value.ForEach(func(sk, sv gjson.Result) bool {
				out[sk.String()] = sv.Value()
				return true
			})
		case value.IsArray():
		default:
			out[k] = value.Value()
		}
		return true
	})
	return out
}

func children(r gjson.Result) []snapshot.Child {
	if !r.IsArray() {
		return nil
	}
	items := r.Array()
	out := make([]snapshot.Child, 0, len(items))
	for _, it := range items {
		if !it.IsObject() {
			continue
		}
		out = append(out, snapshot.Child{
			ID:         it.Get("id").String(),
			Name:       it.Get("name").String(),
			Counters:   counters(it),
			Attributes: flatten(it),
		})
	}
	return out
}
