package apijson

import "testing"

func mustParse(t *testing.T, text string) Document {
	t.Helper()
	doc, err := Parse([]byte(text))
	if err != nil {
		t.Fatalf("parse %q: %v", text, err)
	}
	return doc
}

func TestGetPathNested(t *testing.T) {
	doc := mustParse(t, `{"a":{"b":{"c":"deep"}},"x":1}`)
	node, ok := GetPath(doc.Root(), "a.b.c")
	if !ok {
		t.Fatalf("expected a.b.c to resolve")
	}
	value, ok := node.String()
	if !ok || value != "deep" {
		t.Fatalf("expected %q, got %q (ok=%v)", "deep", value, ok)
	}
}

func TestGetPathAbsent(t *testing.T) {
	doc := mustParse(t, `{"a":{"b":[{"c":1}],"s":"text","n":null}}`)
	cases := []string{
		"missing",
		"a.missing",
		"a.b.c",
		"a.s.c",
		"a.n.c",
		"a.b.0",
	}
	for _, path := range cases {
		if _, ok := GetPath(doc.Root(), path); ok {
			t.Fatalf("expected %q to be absent", path)
		}
	}
}

func TestGetPathOnScalarRoot(t *testing.T) {
	doc := mustParse(t, `"just a string"`)
	if _, ok := GetPath(doc.Root(), "a"); ok {
		t.Fatalf("expected lookup on scalar root to be absent")
	}
	if _, ok := GetPath(doc.Root(), ""); !ok {
		t.Fatalf("expected empty path to return the node")
	}
}

func TestGetPathFirstDuplicateWins(t *testing.T) {
	doc := mustParse(t, `{"k":"first","k":"second"}`)
	node, ok := GetPath(doc.Root(), "k")
	if !ok {
		t.Fatalf("expected k to resolve")
	}
	if v, _ := node.String(); v != "first" {
		t.Fatalf("expected first duplicate, got %q", v)
	}
}

func TestGetPathKeysWithSpecialCharacters(t *testing.T) {
	doc := mustParse(t, `{"user":{"_id":"u1","a*b":"star","#":"hash"}}`)
	for path, want := range map[string]string{
		"user._id": "u1",
		"user.a*b": "star",
		"user.#":   "hash",
	} {
		node, ok := GetPath(doc.Root(), path)
		if !ok {
			t.Fatalf("expected %q to resolve", path)
		}
		if got, _ := node.String(); got != want {
			t.Fatalf("%s: expected %q, got %q", path, want, got)
		}
	}
}

func TestParseRejectsInvalidJSON(t *testing.T) {
	for _, text := range []string{"", "{", `{"a":}`, "nope"} {
		if _, err := Parse([]byte(text)); err == nil {
			t.Fatalf("expected parse error for %q", text)
		}
	}
}

func TestElementsKeepsOrder(t *testing.T) {
	doc := mustParse(t, `["a","b","c"]`)
	var got []string
	doc.Root().Elements(func(v Node) bool {
		s, _ := v.String()
		got = append(got, s)
		return true
	})
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Fatalf("unexpected elements: %v", got)
	}
}
