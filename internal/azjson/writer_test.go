package azjson

import "testing"

func TestWriterObjectRoundTrip(t *testing.T) {
	buf := make([]byte, 128)
	w := NewWriter(buf)

	if res := w.BeginObject(); res.Failed() {
		t.Fatalf("BeginObject: %v", res)
	}
	if res := w.PropertyName([]byte("name")); res.Failed() {
		t.Fatalf("PropertyName: %v", res)
	}
	if res := w.String([]byte(`quote"here`)); res.Failed() {
		t.Fatalf("String: %v", res)
	}
	if res := w.PropertyName([]byte("count")); res.Failed() {
		t.Fatalf("PropertyName: %v", res)
	}
	if res := w.Int32(-17); res.Failed() {
		t.Fatalf("Int32: %v", res)
	}
	if res := w.PropertyName([]byte("items")); res.Failed() {
		t.Fatalf("PropertyName: %v", res)
	}
	if res := w.BeginArray(); res.Failed() {
		t.Fatalf("BeginArray: %v", res)
	}
	if res := w.Bool(true); res.Failed() {
		t.Fatalf("Bool: %v", res)
	}
	if res := w.Null(); res.Failed() {
		t.Fatalf("Null: %v", res)
	}
	if res := w.EndArray(); res.Failed() {
		t.Fatalf("EndArray: %v", res)
	}
	if res := w.EndObject(); res.Failed() {
		t.Fatalf("EndObject: %v", res)
	}

	got := string(w.GetWritten())
	want := `{"name":"quote\"here","count":-17,"items":[true,null]}`
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestWriterRejectsPropertyNameOutsideObject(t *testing.T) {
	buf := make([]byte, 32)
	w := NewWriter(buf)
	if res := w.PropertyName([]byte("x")); !res.Failed() {
		t.Fatalf("expected failure writing property name at top level")
	}
}

func TestWriterRejectsSecondTopLevelValue(t *testing.T) {
	buf := make([]byte, 32)
	w := NewWriter(buf)
	if res := w.Int32(1); res.Failed() {
		t.Fatalf("Int32: %v", res)
	}
	if res := w.Int32(2); !res.Failed() {
		t.Fatalf("expected failure writing second top-level value")
	}
}

func TestWriterInsufficientSpaceLeavesStateUnchanged(t *testing.T) {
	buf := make([]byte, 6)
	w := NewWriter(buf)
	if res := w.BeginObject(); res.Failed() {
		t.Fatalf("BeginObject: %v", res)
	}
	if res := w.PropertyName([]byte("toolong")); !res.Failed() {
		t.Fatalf("expected InsufficientSpanSize")
	}
	before := string(w.GetWritten())
	if res := w.PropertyName([]byte("ok")); res.Failed() {
		t.Fatalf("should still be able to write a name that fits: %v", res)
	}
	if before != "{" {
		t.Fatalf("writer state mutated by failed write: %q", before)
	}
}

func TestWriterEndObjectMismatchFails(t *testing.T) {
	buf := make([]byte, 32)
	w := NewWriter(buf)
	if res := w.BeginArray(); res.Failed() {
		t.Fatalf("BeginArray: %v", res)
	}
	if res := w.EndObject(); !res.Failed() {
		t.Fatalf("expected failure closing array with EndObject")
	}
}

func TestWriterNestingOverflow(t *testing.T) {
	buf := make([]byte, 4096)
	w := NewWriter(buf)
	for i := 0; i < maxDepth; i++ {
		if res := w.BeginArray(); res.Failed() {
			t.Fatalf("depth %d: %v", i, res)
		}
	}
	if res := w.BeginArray(); !res.Failed() {
		t.Fatalf("expected NestingOverflow at max depth")
	}
}
