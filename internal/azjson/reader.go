package azjson

import (
	"github.com/orizon-iot/iotcore/internal/azresult"
)

// maxDepth is the deepest a Reader will nest containers before failing
// with NestingOverflow. Matches the teacher's own fixed-stack discipline
// (internal/lexer's incremental cache is also a bounded array, never a
// grow-without-bound slice) and the base protocol's "maximum depth 63".
const maxDepth = 63

// phase tracks what a Reader expects at its current nesting level. It is
// bookkeeping auxiliary to the required container-type bit vector (see
// Reader.stack) — the spec only constrains the latter's representation.
type phase uint8

const (
	phaseValue            phase = iota // top level, before the value
	phaseDone                          // top level, value already produced
	phaseObjectStart                   // just entered '{': PropertyName or '}'
	phaseObjectAfterName               // PropertyName produced: expect ':' then value
	phaseObjectAfterValue              // value produced: expect ',' or '}'
	phaseArrayStart                    // just entered '[': value or ']'
	phaseArrayAfterValue               // value produced: expect ',' or ']'
)

// Reader tokenizes a span of JSON text into a stream of Tokens. It is
// single-pass, forward-only, and never allocates on the token-producing
// path. The zero value is not usable; construct with NewReader.
type Reader struct {
	src []byte
	pos int

	stack uint64 // bit vector: sentinel bit + 0=object/1=array per level
	phases [maxDepth + 1]phase
	depth int // index into phases of the current container (0 = top level)

	cur     Token
	poisons azresult.Result
	poisoned bool
}

// NewReader prepares a Reader over source. The initial Current() token is
// KindNone; no bytes are consumed until Next is called.
func NewReader(source []byte) *Reader {
	r := &Reader{src: source, stack: 1}
	r.phases[0] = phaseValue
	return r
}

// Current returns the most recently produced token.
func (r *Reader) Current() Token { return r.cur }

// Depth returns the current container nesting depth (0 at top level).
func (r *Reader) Depth() int { return r.depth }

// Pos returns the byte offset of the reader's read cursor, i.e. one past
// the last byte consumed by the most recent token. Callers that need the
// raw text of a sub-document can snapshot Pos before and after a value.
func (r *Reader) Pos() int { return r.pos }

// Clone returns an independent copy that can be advanced (e.g. to look
// ahead) without disturbing r. Both readers share the same underlying
// source bytes.
func (r *Reader) Clone() Reader { return *r }

// SliceFrom returns the source bytes in [start, end). Callers use this
// together with Pos to recover the raw text of a sub-document spanning
// more than one token (e.g. a whole object or array value).
func (r *Reader) SliceFrom(start, end int) []byte { return r.src[start:end] }

func (r *Reader) poison(res azresult.Result) azresult.Result {
	r.poisoned = true
	r.poisons = res
	return res
}

func (r *Reader) byteAt(i int) (byte, bool) {
	if i < 0 || i >= len(r.src) {
		return 0, false
	}
	return r.src[i], true
}

func (r *Reader) peek() (byte, bool) { return r.byteAt(r.pos) }

func isWhitespace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func (r *Reader) skipWhitespace() {
	for {
		c, ok := r.peek()
		if !ok || !isWhitespace(c) {
			return
		}
		r.pos++
	}
}

// Next advances to the next structural or value token. The phase
// constants above describe the state machine this implements.
func (r *Reader) Next() azresult.Result {
	if r.poisoned {
		return r.poisons
	}

	ph := r.phases[r.depth]
	switch ph {
	case phaseValue:
		return r.nextTopLevelValue()
	case phaseDone:
		return r.nextAfterDone()
	case phaseObjectStart:
		return r.nextObjectStart()
	case phaseObjectAfterName:
		return r.nextObjectAfterName()
	case phaseObjectAfterValue:
		return r.nextObjectAfterValue()
	case phaseArrayStart:
		return r.nextArrayStart()
	case phaseArrayAfterValue:
		return r.nextArrayAfterValue()
	default:
		return r.poison(azresult.InvalidState("reader: unreachable phase"))
	}
}

func (r *Reader) nextTopLevelValue() azresult.Result {
	r.skipWhitespace()
	if _, ok := r.peek(); !ok {
		return r.poison(azresult.Eof("no input"))
	}
	r.phases[r.depth] = phaseDone
	return r.readValue()
}

func (r *Reader) nextAfterDone() azresult.Result {
	r.skipWhitespace()
	if _, ok := r.peek(); !ok {
		return r.poison(azresult.Eof("document complete"))
	}
	return r.poison(azresult.UnexpectedChar("trailing content after top-level value"))
}

func (r *Reader) nextObjectStart() azresult.Result {
	r.skipWhitespace()
	c, ok := r.peek()
	if !ok {
		return r.poison(azresult.Eof("unterminated object"))
	}
	if c == '}' {
		r.pos++
		return r.closeContainer(KindEndObject)
	}
	if c != '"' {
		return r.poison(azresult.UnexpectedChar("expected property name or '}'"))
	}
	return r.readPropertyName()
}

func (r *Reader) nextObjectAfterName() azresult.Result {
	r.skipWhitespace()
	c, ok := r.peek()
	if !ok {
		return r.poison(azresult.Eof("expected ':'"))
	}
	if c != ':' {
		return r.poison(azresult.UnexpectedChar("expected ':'"))
	}
	r.pos++
	r.skipWhitespace()
	if _, ok := r.peek(); !ok {
		return r.poison(azresult.Eof("expected value"))
	}
	r.phases[r.depth] = phaseObjectAfterValue
	return r.readValue()
}

func (r *Reader) nextObjectAfterValue() azresult.Result {
	r.skipWhitespace()
	c, ok := r.peek()
	if !ok {
		return r.poison(azresult.Eof("unterminated object"))
	}
	switch c {
	case ',':
		r.pos++
		r.skipWhitespace()
		c2, ok2 := r.peek()
		if !ok2 {
			return r.poison(azresult.Eof("expected property name"))
		}
		if c2 != '"' {
			return r.poison(azresult.UnexpectedChar("expected property name"))
		}
		return r.readPropertyName()
	case '}':
		r.pos++
		return r.closeContainer(KindEndObject)
	default:
		return r.poison(azresult.UnexpectedChar("expected ',' or '}'"))
	}
}

func (r *Reader) nextArrayStart() azresult.Result {
	r.skipWhitespace()
	c, ok := r.peek()
	if !ok {
		return r.poison(azresult.Eof("unterminated array"))
	}
	if c == ']' {
		r.pos++
		return r.closeContainer(KindEndArray)
	}
	r.phases[r.depth] = phaseArrayAfterValue
	return r.readValue()
}

func (r *Reader) nextArrayAfterValue() azresult.Result {
	r.skipWhitespace()
	c, ok := r.peek()
	if !ok {
		return r.poison(azresult.Eof("unterminated array"))
	}
	switch c {
	case ',':
		r.pos++
		r.skipWhitespace()
		if _, ok := r.peek(); !ok {
			return r.poison(azresult.Eof("expected value"))
		}
		return r.readValue()
	case ']':
		r.pos++
		return r.closeContainer(KindEndArray)
	default:
		return r.poison(azresult.UnexpectedChar("expected ',' or ']'"))
	}
}

func (r *Reader) closeContainer(kind TokenKind) azresult.Result {
	start := r.pos - 1
	r.stack >>= 1
	r.depth--
	r.cur = Token{Kind: kind, Slice: r.src[start:r.pos]}
	// phases[0] was already set to phaseDone when the outermost container
	// was opened (nextTopLevelValue sets it before descending), so nothing
	// further to do when depth returns to 0.
	return azresult.Ok()
}

func (r *Reader) readPropertyName() azresult.Result {
	slice, res := r.scanString()
	if res.Failed() {
		return r.poison(res)
	}
	r.phases[r.depth] = phaseObjectAfterName
	r.cur = Token{Kind: KindPropertyName, Slice: slice}
	return azresult.Ok()
}

// readValue reads exactly one value token: an object/array open, string,
// number, or literal. The caller is responsible for having already set
// the current level's phase to whatever should apply once this value
// completes (readValue itself only ever pushes a NEW level).
func (r *Reader) readValue() azresult.Result {
	c, ok := r.peek()
	if !ok {
		return r.poison(azresult.Eof("expected value"))
	}
	switch {
	case c == '{':
		return r.pushContainer(false)
	case c == '[':
		return r.pushContainer(true)
	case c == '"':
		slice, res := r.scanString()
		if res.Failed() {
			return r.poison(res)
		}
		r.cur = Token{Kind: KindString, Slice: slice}
		return azresult.Ok()
	case c == '-' || (c >= '0' && c <= '9'):
		return r.readNumber()
	case c == 't':
		return r.readLiteral("true", KindTrue)
	case c == 'f':
		return r.readLiteral("false", KindFalse)
	case c == 'n':
		return r.readLiteral("null", KindNull)
	default:
		return r.poison(azresult.UnexpectedChar("unexpected character"))
	}
}

func (r *Reader) pushContainer(isArray bool) azresult.Result {
	if r.depth >= maxDepth {
		return r.poison(azresult.NestingOverflow("container nesting exceeds maximum depth"))
	}
	start := r.pos
	r.pos++ // consume '{' or '['
	bit := uint64(0)
	kind := KindBeginObject
	nextPhase := phaseObjectStart
	if isArray {
		bit = 1
		kind = KindBeginArray
		nextPhase = phaseArrayStart
	}
	r.stack = (r.stack << 1) | bit
	r.depth++
	r.phases[r.depth] = nextPhase
	r.cur = Token{Kind: kind, Slice: r.src[start:r.pos]}
	return azresult.Ok()
}

func (r *Reader) scanString() ([]byte, azresult.Result) {
	// Caller has confirmed the current byte is '"'.
	r.pos++ // consume opening quote
	start := r.pos
	for {
		c, ok := r.peek()
		if !ok {
			return nil, azresult.Eof("unterminated string")
		}
		if c == '"' {
			slice := r.src[start:r.pos]
			r.pos++ // consume closing quote
			return slice, azresult.Ok()
		}
		if c == '\\' {
			r.pos++
			ec, ok := r.peek()
			if !ok {
				return nil, azresult.Eof("unterminated escape")
			}
			switch ec {
			case '"', '\\', '/', 'b', 'f', 'n', 'r', 't':
				r.pos++
			case 'u':
				r.pos++
				for i := 0; i < 4; i++ {
					hc, ok := r.peek()
					if !ok {
						return nil, azresult.Eof("unterminated \\u escape")
					}
					if !isHexDigit(hc) {
						return nil, azresult.UnexpectedChar("invalid \\u escape")
					}
					r.pos++
				}
			default:
				return nil, azresult.UnexpectedChar("invalid escape sequence")
			}
			continue
		}
		r.pos++
	}
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func (r *Reader) readNumber() azresult.Result {
	start := r.pos
	if c, ok := r.peek(); ok && c == '-' {
		r.pos++
	}
	c, ok := r.peek()
	if !ok {
		return r.poison(azresult.Eof("expected digit"))
	}
	if !isDigit(c) {
		return r.poison(azresult.UnexpectedChar("expected digit"))
	}
	if c == '0' {
		r.pos++
	} else {
		for {
			c, ok := r.peek()
			if !ok || !isDigit(c) {
				break
			}
			r.pos++
		}
	}

	if c, ok := r.peek(); ok && c == '.' {
		r.pos++
		c2, ok2 := r.peek()
		if !ok2 {
			return r.poison(azresult.Eof("expected fraction digit"))
		}
		if !isDigit(c2) {
			return r.poison(azresult.UnexpectedChar("expected fraction digit"))
		}
		for {
			c3, ok3 := r.peek()
			if !ok3 || !isDigit(c3) {
				break
			}
			r.pos++
		}
	}

	if c, ok := r.peek(); ok && (c == 'e' || c == 'E') {
		r.pos++
		if c2, ok2 := r.peek(); ok2 && (c2 == '+' || c2 == '-') {
			r.pos++
		}
		c3, ok3 := r.peek()
		if !ok3 {
			return r.poison(azresult.Eof("expected exponent digit"))
		}
		if !isDigit(c3) {
			return r.poison(azresult.UnexpectedChar("expected exponent digit"))
		}
		for {
			c4, ok4 := r.peek()
			if !ok4 || !isDigit(c4) {
				break
			}
			r.pos++
		}
	}

	r.cur = Token{Kind: KindNumber, Slice: r.src[start:r.pos]}
	return azresult.Ok()
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func (r *Reader) readLiteral(word string, kind TokenKind) azresult.Result {
	start := r.pos
	for i := 0; i < len(word); i++ {
		c, ok := r.byteAt(r.pos)
		if !ok {
			return r.poison(azresult.Eof("truncated literal"))
		}
		if c != word[i] {
			return r.poison(azresult.UnexpectedChar("invalid literal"))
		}
		r.pos++
	}
	r.cur = Token{Kind: kind, Slice: r.src[start:r.pos]}
	return azresult.Ok()
}

// SkipChildren consumes tokens until the matching close of the current
// BeginObject/BeginArray token, leaving the reader positioned on that
// close token. It is a no-op for any other current token kind.
func (r *Reader) SkipChildren() azresult.Result {
	if r.cur.Kind != KindBeginObject && r.cur.Kind != KindBeginArray {
		return azresult.Ok()
	}
	depth := 1
	for depth > 0 {
		if res := r.Next(); res.Failed() {
			return res
		}
		switch r.cur.Kind {
		case KindBeginObject, KindBeginArray:
			depth++
		case KindEndObject, KindEndArray:
			depth--
		}
	}
	return azresult.Ok()
}
