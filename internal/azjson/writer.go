package azjson

import (
	"github.com/orizon-iot/iotcore/internal/azresult"
	"github.com/orizon-iot/iotcore/internal/azspan"
)

type writerLevel struct {
	isArray     bool
	hasChild    bool
	expectValue bool
}

// Writer emits well-formed JSON into a caller-supplied destination buffer.
// It never grows that buffer: an operation that would overflow it fails
// with InsufficientSpanSize and leaves the buffer and writer state exactly
// as they were before the call, mirroring Reader's all-or-nothing token
// production.
type Writer struct {
	b      *azspan.Builder
	levels [maxDepth + 1]writerLevel
	depth  int
	done   bool
}

// NewWriter prepares a Writer over dst.
func NewWriter(dst []byte) *Writer {
	return &Writer{b: azspan.NewBuilder(dst)}
}

// GetWritten returns the bytes written so far.
func (w *Writer) GetWritten() azspan.Span { return w.b.Written() }

func (w *Writer) canWriteValue() bool {
	if w.depth == 0 {
		return !w.done
	}
	lvl := &w.levels[w.depth]
	if lvl.isArray {
		return true
	}
	return lvl.expectValue
}

// commitValue runs the separator/bookkeeping side effects for having just
// written one full value at the current level, assuming writeSep (if any)
// already succeeded. Call this AFTER the value bytes are durably written.
func (w *Writer) commitValue() {
	if w.depth == 0 {
		w.done = true
		return
	}
	lvl := &w.levels[w.depth]
	if lvl.isArray {
		lvl.hasChild = true
	} else {
		lvl.expectValue = false
	}
}

// writeSeparator writes a leading comma if this would be the second-or-later
// child of an array at the current level. Objects get their comma at
// PropertyName time instead. Returns false, builder unchanged, on overflow.
func (w *Writer) writeSeparator() bool {
	if w.depth == 0 {
		return true
	}
	lvl := &w.levels[w.depth]
	if lvl.isArray && lvl.hasChild {
		return w.b.TryWriteByte(',')
	}
	return true
}

func (w *Writer) beginContainer(isArray bool) azresult.Result {
	if !w.canWriteValue() {
		return azresult.InvalidState("unexpected container open")
	}
	if w.depth >= maxDepth {
		return azresult.NestingOverflow("writer nesting exceeds maximum depth")
	}
	snap := w.b.Len()
	if !w.writeSeparator() {
		w.b.Reset(snap)
		return azresult.InsufficientSpanSize("no room for separator")
	}
	open := byte('{')
	if isArray {
		open = '['
	}
	if !w.b.TryWriteByte(open) {
		w.b.Reset(snap)
		return azresult.InsufficientSpanSize("no room for container open")
	}
	w.commitValue()
	w.depth++
	w.levels[w.depth] = writerLevel{isArray: isArray}
	return azresult.Ok()
}

// BeginObject opens a new object as the next value.
func (w *Writer) BeginObject() azresult.Result { return w.beginContainer(false) }

// BeginArray opens a new array as the next value.
func (w *Writer) BeginArray() azresult.Result { return w.beginContainer(true) }

func (w *Writer) endContainer(isArray byte, wantArray bool) azresult.Result {
	if w.depth == 0 {
		return azresult.InvalidState("no open container")
	}
	lvl := &w.levels[w.depth]
	if lvl.isArray != wantArray {
		return azresult.InvalidState("container kind mismatch")
	}
	if !lvl.isArray && lvl.expectValue {
		return azresult.InvalidState("property value still expected")
	}
	snap := w.b.Len()
	if !w.b.TryWriteByte(isArray) {
		w.b.Reset(snap)
		return azresult.InsufficientSpanSize("no room for container close")
	}
	w.depth--
	w.commitValue()
	return azresult.Ok()
}

// EndObject closes the innermost open object.
func (w *Writer) EndObject() azresult.Result { return w.endContainer('}', false) }

// EndArray closes the innermost open array.
func (w *Writer) EndArray() azresult.Result { return w.endContainer(']', true) }

// PropertyName writes a member name. Valid only directly inside an object,
// and not while a previous member's value is still outstanding.
func (w *Writer) PropertyName(name []byte) azresult.Result {
	if w.depth == 0 || w.levels[w.depth].isArray {
		return azresult.InvalidState("property name outside object")
	}
	lvl := &w.levels[w.depth]
	if lvl.expectValue {
		return azresult.InvalidState("property value still expected")
	}
	snap := w.b.Len()
	if lvl.hasChild {
		if !w.b.TryWriteByte(',') {
			w.b.Reset(snap)
			return azresult.InsufficientSpanSize("no room for separator")
		}
	}
	if !writeEscapedString(w.b, name) {
		w.b.Reset(snap)
		return azresult.InsufficientSpanSize("no room for property name")
	}
	if !w.b.TryWriteByte(':') {
		w.b.Reset(snap)
		return azresult.InsufficientSpanSize("no room for ':'")
	}
	lvl.hasChild = true
	lvl.expectValue = true
	return azresult.Ok()
}

func (w *Writer) writeValue(emit func() bool) azresult.Result {
	if !w.canWriteValue() {
		return azresult.InvalidState("unexpected value")
	}
	snap := w.b.Len()
	if !w.writeSeparator() {
		w.b.Reset(snap)
		return azresult.InsufficientSpanSize("no room for separator")
	}
	if !emit() {
		w.b.Reset(snap)
		return azresult.InsufficientSpanSize("no room for value")
	}
	w.commitValue()
	return azresult.Ok()
}

// String writes value as a JSON string, escaping it as needed.
func (w *Writer) String(value []byte) azresult.Result {
	return w.writeValue(func() bool { return writeEscapedString(w.b, value) })
}

// Bool writes a JSON boolean literal.
func (w *Writer) Bool(value bool) azresult.Result {
	lit := "false"
	if value {
		lit = "true"
	}
	return w.writeValue(func() bool { return w.b.TryWrite([]byte(lit)) })
}

// Null writes the JSON null literal.
func (w *Writer) Null() azresult.Result {
	return w.writeValue(func() bool { return w.b.TryWrite([]byte("null")) })
}

// Int32 writes value as a JSON number, formatted without heap allocation.
func (w *Writer) Int32(value int32) azresult.Result {
	var buf [11]byte
	n := formatInt32(buf[:], value)
	return w.writeValue(func() bool { return w.b.TryWrite(buf[:n]) })
}

// NumberRaw writes digits verbatim as a JSON number token. The caller is
// responsible for digits already being valid JSON number grammar.
func (w *Writer) NumberRaw(digits []byte) azresult.Result {
	return w.writeValue(func() bool { return w.b.TryWrite(digits) })
}

func formatInt32(buf []byte, v int32) int {
	if v == 0 {
		buf[0] = '0'
		return 1
	}
	neg := v < 0
	u := uint32(v)
	if neg {
		u = uint32(-v)
	}
	var tmp [10]byte
	i := len(tmp)
	for u > 0 {
		i--
		tmp[i] = byte('0' + u%10)
		u /= 10
	}
	n := 0
	if neg {
		buf[0] = '-'
		n = 1
	}
	n += copy(buf[n:], tmp[i:])
	return n
}

func writeEscapedString(b *azspan.Builder, s []byte) bool {
	if !b.TryWriteByte('"') {
		return false
	}
	for _, c := range s {
		switch c {
		case '"':
			if !b.TryWrite([]byte(`\"`)) {
				return false
			}
		case '\\':
			if !b.TryWrite([]byte(`\\`)) {
				return false
			}
		case '\b':
			if !b.TryWrite([]byte(`\b`)) {
				return false
			}
		case '\f':
			if !b.TryWrite([]byte(`\f`)) {
				return false
			}
		case '\n':
			if !b.TryWrite([]byte(`\n`)) {
				return false
			}
		case '\r':
			if !b.TryWrite([]byte(`\r`)) {
				return false
			}
		case '\t':
			if !b.TryWrite([]byte(`\t`)) {
				return false
			}
		default:
			if c < 0x20 {
				const hex = "0123456789abcdef"
				esc := [6]byte{'\\', 'u', '0', '0', hex[c>>4], hex[c&0xF]}
				if !b.TryWrite(esc[:]) {
					return false
				}
				continue
			}
			if !b.TryWriteByte(c) {
				return false
			}
		}
	}
	return b.TryWriteByte('"')
}
