package azjson

import (
	"bytes"

	"github.com/orizon-iot/iotcore/internal/azresult"
)

// ParseByPointer resolves an RFC 6901 JSON Pointer against source and
// returns the Token the pointer designates. The pointer must begin with
// '/' (the empty pointer "" selects the whole document's root value).
func ParseByPointer(source []byte, pointer string) (Token, azresult.Result) {
	r := NewReader(source)
	if res := r.Next(); res.Failed() {
		return Token{}, res
	}
	if pointer == "" {
		return r.Current(), azresult.Ok()
	}
	if pointer[0] != '/' {
		return Token{}, azresult.InvalidArg("pointer must start with '/'")
	}

	segments := splitPointer(pointer[1:])
	cur := r.Current()
	for _, raw := range segments {
		seg, res := decodeSegmentStrict([]byte(raw))
		if res.Failed() {
			return Token{}, res
		}
		switch cur.Kind {
		case KindBeginObject:
			found, res := findObjectMember(r, seg)
			if res.Failed() {
				return Token{}, res
			}
			if !found {
				return Token{}, azresult.ItemNotFound("pointer segment not found")
			}
			cur = r.Current()
		case KindBeginArray:
			idx, ok := decodeArrayIndex(string(seg))
			if !ok {
				return Token{}, azresult.InvalidArg("invalid array index segment")
			}
			found, res := findArrayElement(r, idx)
			if res.Failed() {
				return Token{}, res
			}
			if !found {
				return Token{}, azresult.ItemNotFound("array index out of range")
			}
			cur = r.Current()
		default:
			return Token{}, azresult.ItemNotFound("pointer descends into a scalar")
		}
	}
	return cur, azresult.Ok()
}

func splitPointer(rest string) []string {
	if rest == "" {
		return []string{""}
	}
	out := make([]string, 0, 4)
	start := 0
	for i := 0; i <= len(rest); i++ {
		if i == len(rest) || rest[i] == '/' {
			out = append(out, rest[start:i])
			start = i + 1
		}
	}
	return out
}

// decodeSegmentStrict decodes a pointer reference token (~1 -> /, ~0 -> ~),
// failing with UnexpectedChar on a trailing '~' or a '~' followed by
// anything other than '0'/'1', per spec.md's malformed-pointer boundary
// ("trailing ~", "~2").
func decodeSegmentStrict(seg []byte) ([]byte, azresult.Result) {
	if bytes.IndexByte(seg, '~') < 0 {
		return seg, azresult.Ok()
	}
	out := make([]byte, 0, len(seg))
	for i := 0; i < len(seg); i++ {
		if seg[i] != '~' {
			out = append(out, seg[i])
			continue
		}
		if i+1 >= len(seg) {
			return nil, azresult.UnexpectedChar("trailing '~' in pointer segment")
		}
		switch seg[i+1] {
		case '0':
			out = append(out, '~')
		case '1':
			out = append(out, '/')
		default:
			return nil, azresult.UnexpectedChar("invalid '~' escape in pointer segment")
		}
		i++
	}
	return out, azresult.Ok()
}

// decodeSegment applies the same ~0/~1 decoding to an object key's raw
// JSON-string slice for comparison against a decoded pointer segment (spec
// §4.3: decoding is applied "both to the pointer segment and — for object
// keys — to the string token's raw slice"). Unlike decodeSegmentStrict,
// malformed escapes here are not a pointer-syntax error — the slice is
// arbitrary JSON text, not pointer grammar — so a stray '~' is passed
// through literally.
func decodeSegment(seg []byte) []byte {
	if bytes.IndexByte(seg, '~') < 0 {
		return seg
	}
	out := make([]byte, 0, len(seg))
	for i := 0; i < len(seg); i++ {
		if seg[i] == '~' && i+1 < len(seg) {
			switch seg[i+1] {
			case '0':
				out = append(out, '~')
				i++
				continue
			case '1':
				out = append(out, '/')
				i++
				continue
			}
		}
		out = append(out, seg[i])
	}
	return out
}

// findObjectMember scans forward from an object's BeginObject token (the
// reader's current token) looking for a property named want (already
// ~0/~1-decoded). On a match the reader's current token is left on the
// member's value (descended one token). On a miss, the reader is left on
// the object's EndObject token.
func findObjectMember(r *Reader, want []byte) (bool, azresult.Result) {
	for {
		if res := r.Next(); res.Failed() {
			return false, res
		}
		switch r.Current().Kind {
		case KindEndObject:
			return false, azresult.Ok()
		case KindPropertyName:
			prop := decodeSegment(r.Current().Slice)
			if res := r.Next(); res.Failed() {
				return false, res
			}
			if bytes.Equal(prop, want) {
				return true, azresult.Ok()
			}
			if res := r.SkipChildren(); res.Failed() {
				return false, res
			}
		default:
			return false, azresult.InvalidState("expected property name")
		}
	}
}

func findArrayElement(r *Reader, index int) (bool, azresult.Result) {
	i := 0
	for {
		if res := r.Next(); res.Failed() {
			return false, res
		}
		if r.Current().Kind == KindEndArray {
			return false, azresult.Ok()
		}
		if i == index {
			return true, azresult.Ok()
		}
		if res := r.SkipChildren(); res.Failed() {
			return false, res
		}
		i++
	}
}

func decodeArrayIndex(seg string) (int, bool) {
	if seg == "" {
		return 0, false
	}
	if seg == "0" {
		return 0, true
	}
	if seg[0] == '0' {
		return 0, false
	}
	n := 0
	for i := 0; i < len(seg); i++ {
		c := seg[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}
