package core

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestMapping_Add(t *testing.T) {
	m := NewMapping()
	m.Add("bob", "b1")
	m.Add("alice", "a1", "a2", "a1")
	m.Add("bob", "b2", "b1")
	m.Add("", "ignored")
	m.Add("carol")

	if got, want := m.Keys(), []string{"bob", "alice", "carol"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Keys() = %v, want %v", got, want)
	}

	vals, ok := m.Values("bob")
	if !ok || !reflect.DeepEqual(vals, []string{"b1", "b2"}) {
		t.Errorf("Values(bob) = %v, %v", vals, ok)
	}
	vals, ok = m.Values("carol")
	if !ok || len(vals) != 0 {
		t.Errorf("Values(carol) = %v, %v", vals, ok)
	}
	if _, ok := m.Values("missing"); ok {
		t.Error("Values(missing) reported ok")
	}
}

func TestMapping_ValuesIsCopy(t *testing.T) {
	m := NewMapping()
	m.Add("k", "v1")
	vals, _ := m.Values("k")
	vals[0] = "changed"

	got, _ := m.Values("k")
	if got[0] != "v1" {
		t.Errorf("mapping mutated through Values: %v", got)
	}
}

func TestMapping_Merge(t *testing.T) {
	a := NewMapping()
	a.Add("alice", "pw1")
	a.Add("bob", "b1")

	b := NewMapping()
	b.Add("carol", "c1")
	b.Add("alice", "pw2", "pw1")

	a.Merge(b)
	a.Merge(nil)

	want := `{"alice":["pw1","pw2"],"bob":["b1"],"carol":["c1"]}`
	if got := mappingJSON(a); got != want {
		t.Errorf("merged = %s, want %s", got, want)
	}
}

func TestMapping_MarshalJSON(t *testing.T) {
	tests := []struct {
		name  string
		build func(*Mapping)
		want  string
	}{
		{"empty", func(*Mapping) {}, `{}`},
		{"no values", func(m *Mapping) { m.Add("dave") }, `{"dave":[]}`},
		{
			"insertion order kept",
			func(m *Mapping) {
				m.Add("zed", "1")
				m.Add("amy", "2")
			},
			`{"zed":["1"],"amy":["2"]}`,
		},
		{
			"html left unescaped",
			func(m *Mapping) { m.Add("<admin>", "a&b") },
			`{"<admin>":["a&b"]}`,
		},
		{
			"quotes escaped",
			func(m *Mapping) { m.Add(`say "hi"`, `p\w`) },
			`{"say \"hi\"":["p\\w"]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMapping()
			tt.build(m)
			got := mappingJSON(m)
			if got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
			if !json.Valid([]byte(got)) {
				t.Errorf("invalid JSON: %s", got)
			}
		})
	}
}
