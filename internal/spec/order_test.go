package spec

import (
	"reflect"
	"testing"
)

func TestIndexKeyOrder_YAML(t *testing.T) {
	t.Parallel()
	raw := []byte(`openapi: 3.0.0
security:
  - zeta: []
    alpha: []
  - beta: []
paths:
  /b:
    post:
      security:
        - second: []
          first: []
  /a:
    get: {}
`)
	ko := indexKeyOrder(raw)
	if !reflect.DeepEqual(ko.paths, []string{"/b", "/a"}) {
		t.Fatalf("unexpected path order %v", ko.paths)
	}
	if !reflect.DeepEqual(ko.rootSecurity, [][]string{{"zeta", "alpha"}, {"beta"}}) {
		t.Fatalf("unexpected root security order %v", ko.rootSecurity)
	}
	if got := ko.opSecurity[opKey(POST, "/b")]; !reflect.DeepEqual(got, [][]string{{"second", "first"}}) {
		t.Fatalf("unexpected operation security order %v", got)
	}
}

func TestIndexKeyOrder_JSON(t *testing.T) {
	t.Parallel()
	ko := indexKeyOrder([]byte(`{"paths":{"/users":{},"/health":{},"/admin":{}}}`))
	if !reflect.DeepEqual(ko.paths, []string{"/users", "/health", "/admin"}) {
		t.Fatalf("unexpected path order %v", ko.paths)
	}
}

func TestOrderedPaths_UnknownKeysSorted(t *testing.T) {
	t.Parallel()
	ko := keyOrder{paths: []string{"/z", "/a"}}
	got := ko.orderedPaths([]string{"/a", "/m", "/z", "/b"})
	if want := []string{"/z", "/a", "/b", "/m"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestIndexKeyOrder_InvalidInput(t *testing.T) {
	t.Parallel()
	ko := indexKeyOrder([]byte("{not yaml"))
	if len(ko.paths) != 0 {
		t.Fatalf("expected empty index, got %v", ko.paths)
	}
	if got := ko.orderedPaths([]string{"/b", "/a"}); !reflect.DeepEqual(got, []string{"/a", "/b"}) {
		t.Fatalf("expected sorted fallback, got %v", got)
	}
}
