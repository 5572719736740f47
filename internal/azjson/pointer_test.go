package azjson

import (
	"testing"

	"github.com/orizon-iot/iotcore/internal/azresult"
)

const pointerDoc = `{
	"reported": {
		"firmware": "1.2.3",
		"sensors": [
			{"id": "temp0", "value": 21.5},
			{"id": "temp1", "value": 22.1}
		]
	},
	"desired": null
}`

func TestParseByPointerObjectMember(t *testing.T) {
	tok, res := ParseByPointer([]byte(pointerDoc), "/reported/firmware")
	if res.Failed() {
		t.Fatalf("ParseByPointer: %v", res)
	}
	if tok.Kind != KindString || string(tok.Slice) != "1.2.3" {
		t.Fatalf("got %v", tok)
	}
}

func TestParseByPointerArrayElement(t *testing.T) {
	tok, res := ParseByPointer([]byte(pointerDoc), "/reported/sensors/1/id")
	if res.Failed() {
		t.Fatalf("ParseByPointer: %v", res)
	}
	if tok.Kind != KindString || string(tok.Slice) != "temp1" {
		t.Fatalf("got %v", tok)
	}
}

func TestParseByPointerRoot(t *testing.T) {
	tok, res := ParseByPointer([]byte(`"just a string"`), "")
	if res.Failed() {
		t.Fatalf("ParseByPointer: %v", res)
	}
	if tok.Kind != KindString || string(tok.Slice) != "just a string" {
		t.Fatalf("got %v", tok)
	}
}

func TestParseByPointerMissingMember(t *testing.T) {
	_, res := ParseByPointer([]byte(pointerDoc), "/reported/missing")
	if !res.Failed() {
		t.Fatalf("expected ItemNotFound")
	}
}

func TestParseByPointerOutOfRangeIndex(t *testing.T) {
	_, res := ParseByPointer([]byte(pointerDoc), "/reported/sensors/5")
	if !res.Failed() {
		t.Fatalf("expected ItemNotFound for out-of-range index")
	}
}

func TestParseByPointerEscapedSegment(t *testing.T) {
	doc := `{"a/b": {"c~d": 7}}`
	tok, res := ParseByPointer([]byte(doc), "/a~1b/c~0d")
	if res.Failed() {
		t.Fatalf("ParseByPointer: %v", res)
	}
	if tok.Kind != KindNumber || string(tok.Slice) != "7" {
		t.Fatalf("got %v", tok)
	}
}

func TestParseByPointerDescendIntoScalarFails(t *testing.T) {
	_, res := ParseByPointer([]byte(pointerDoc), "/reported/firmware/nested")
	if !res.Failed() {
		t.Fatalf("expected failure descending into a scalar")
	}
}

func TestParseByPointerTrailingTildeFails(t *testing.T) {
	_, res := ParseByPointer([]byte(pointerDoc), "/reported~")
	if !res.Failed() || res.Code() != azresult.UnexpectedChar("").Code() {
		t.Fatalf("expected UnexpectedChar, got %v", res)
	}
}

func TestParseByPointerBadTildeEscapeFails(t *testing.T) {
	_, res := ParseByPointer([]byte(pointerDoc), "/reported~2firmware")
	if !res.Failed() || res.Code() != azresult.UnexpectedChar("").Code() {
		t.Fatalf("expected UnexpectedChar, got %v", res)
	}
}
