package parse

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/tessera-cms/fluid/ast"
)

// Lexer design from text/template, without the goroutine: state functions run
// on demand until an item is queued.

// Tokens ---------------------------------------------------------------------

// item represents a token or text string returned from the scanner.
type item struct {
	typ itemType // The type of this item.
	pos ast.Pos  // The starting position, in bytes, of this item in the input string.
	val string   // The value of this item.
}

func (i item) String() string {
	switch {
	case i.typ == itemEOF:
		return "EOF"
	case i.typ == itemError:
		return i.val
	case len(i.val) > 10:
		return fmt.Sprintf("%.10q...", i.val)
	}
	return fmt.Sprintf("%q", i.val)
}

// itemType identifies the type of lexical items.
type itemType int

// All items.
const (
	itemInvalid itemType = iota // not used
	itemEOF                     // EOF
	itemError                   // error occurred; value is text of error
	itemText                    // plain text

	// Delimiters
	itemLeftOutput  // {{ or {{-
	itemRightOutput // }} or -}}
	itemLeftTag     // {% or {%-
	itemRightTag    // %} or -%}

	// Values
	itemIdent   // identifier, keyword or variable name
	itemString  // 'hello' or "hello"
	itemInteger // 42
	itemFloat   // 1.5

	// Punctuation
	itemDot          // .
	itemComma        // ,
	itemColon        // :
	itemPipe         // |
	itemAssign       // =
	itemLeftBracket  // [
	itemRightBracket // ]
	itemLeftParen    // (
	itemRightParen   // )

	// Comparison
	itemEq    // ==
	itemNotEq // != or <>
	itemLt    // <
	itemLte   // <=
	itemGt    // >
	itemGte   // >=
)

var itemNames = map[itemType]string{
	itemEOF:          "<eof>",
	itemError:        "<error>",
	itemText:         "<text>",
	itemLeftOutput:   "{{",
	itemRightOutput:  "}}",
	itemLeftTag:      "{%",
	itemRightTag:     "%}",
	itemIdent:        "<ident>",
	itemString:       "<string>",
	itemInteger:      "<integer>",
	itemFloat:        "<float>",
	itemDot:          ".",
	itemComma:        ",",
	itemColon:        ":",
	itemPipe:         "|",
	itemAssign:       "=",
	itemLeftBracket:  "[",
	itemRightBracket: "]",
	itemLeftParen:    "(",
	itemRightParen:   ")",
	itemEq:           "==",
	itemNotEq:        "!=",
	itemLt:           "<",
	itemLte:          "<=",
	itemGt:           ">",
	itemGte:          ">=",
}

// String converts the itemType into its source string, for error messages.
func (t itemType) String() string {
	if s, ok := itemNames[t]; ok {
		return s
	}
	return fmt.Sprintf("item(%d)", t)
}

func (t itemType) isComparison() bool {
	return itemEq <= t && t <= itemGte
}

// Lexer ----------------------------------------------------------------------

const (
	eof         = -1
	leftOutput  = "{{"
	rightOutput = "}}"
	leftTag     = "{%"
	rightTag    = "%}"
	trimMarker  = '-'
)

// stateFn represents the state of the lexer as a function that returns the
// next state.
type stateFn func(*lexer) stateFn

// lexer holds the state of the lexical scanning.
type lexer struct {
	name     string  // the name of the input; used only during errors.
	input    string  // the string being scanned.
	state    stateFn // the next lexing function to enter.
	pos      int     // current position in the input.
	start    int     // start position of this item.
	width    int     // width of last rune read from input.
	items    []item  // scanned items not yet consumed.
	lastEmit item    // most recent item emitted
	trimNext bool    // drop leading whitespace of the next text (after -}} or -%})
}

// lex creates a new scanner for the input string.
func lex(name, input string) *lexer {
	return &lexer{
		name:  name,
		input: input,
		state: lexText,
	}
}

// nextItem returns the next item from the input.
func (l *lexer) nextItem() item {
	for len(l.items) == 0 {
		if l.state == nil {
			return item{itemEOF, ast.Pos(l.pos), ""}
		}
		l.state = l.state(l)
	}
	var it = l.items[0]
	l.items = l.items[1:]
	return it
}

// next returns the next rune in the input.
func (l *lexer) next() (r rune) {
	if l.pos >= len(l.input) {
		l.width = 0
		return eof
	}
	r, l.width = utf8.DecodeRuneInString(l.input[l.pos:])
	l.pos += l.width
	return r
}

// peek returns but does not consume the next rune in the input.
func (l *lexer) peek() rune {
	r := l.next()
	l.backup()
	return r
}

// backup steps back one rune. Can only be called once per call of next.
func (l *lexer) backup() {
	l.pos -= l.width
}

// emit passes an item back to the client.
func (l *lexer) emit(t itemType) {
	if l.pos > len(l.input) {
		l.pos = len(l.input)
	}
	l.lastEmit = item{t, ast.Pos(l.start), l.input[l.start:l.pos]}
	l.items = append(l.items, l.lastEmit)
	l.start = l.pos
}

// ignore skips over the pending input before this point.
func (l *lexer) ignore() {
	l.start = l.pos
}

// accept consumes the next rune if it's from the valid set.
func (l *lexer) accept(valid string) bool {
	if strings.ContainsRune(valid, l.next()) {
		return true
	}
	l.backup()
	return false
}

// acceptRun consumes a run of runes from the valid set.
func (l *lexer) acceptRun(valid string) bool {
	pos := l.pos
	for strings.ContainsRune(valid, l.next()) {
	}
	l.backup()
	return l.pos > pos
}

// lineNumber reports which line the given position is on.
func (l *lexer) lineNumber(pos ast.Pos) int {
	if int(pos) > len(l.input) {
		pos = ast.Pos(len(l.input))
	}
	return 1 + strings.Count(l.input[:pos], "\n")
}

// columnNumber reports which column in its line the given position is.
func (l *lexer) columnNumber(pos ast.Pos) int {
	if int(pos) > len(l.input) {
		pos = ast.Pos(len(l.input))
	}
	return int(pos) - strings.LastIndex(l.input[:pos], "\n")
}

// errorf returns an error item and terminates the scan by passing
// back a nil pointer that will be the next state.
func (l *lexer) errorf(format string, args ...interface{}) stateFn {
	l.items = append(l.items, item{itemError, ast.Pos(l.start), fmt.Sprintf(format, args...)})
	return nil
}

// State functions ------------------------------------------------------------

// lexText scans until an opening delimiter, "{{" or "{%".
func lexText(l *lexer) stateFn {
	if l.trimNext {
		for isSpaceEOL(l.peek()) {
			l.next()
		}
		l.ignore()
		l.trimNext = false
	}
	for {
		var i = strings.IndexByte(l.input[l.pos:], '{')
		if i < 0 {
			l.pos = len(l.input)
			break
		}
		l.pos += i
		var rest = l.input[l.pos:]
		if strings.HasPrefix(rest, leftOutput) || strings.HasPrefix(rest, leftTag) {
			var trim = len(rest) > 2 && rest[2] == trimMarker
			l.emitText(trim)
			return lexLeftDelim
		}
		l.pos++
	}
	l.emitText(false)
	l.emit(itemEOF)
	return nil
}

// emitText emits the pending text, without trailing whitespace if trim is set.
func (l *lexer) emitText(trim bool) {
	var text = l.input[l.start:l.pos]
	if trim {
		text = strings.TrimRightFunc(text, unicode.IsSpace)
	}
	if len(text) == 0 {
		l.ignore()
		return
	}
	var end = l.pos
	l.pos = l.start + len(text)
	l.emit(itemText)
	l.pos = end
	l.ignore()
}

// lexLeftDelim scans "{{" or "{%", with an optional trim marker.
func lexLeftDelim(l *lexer) stateFn {
	var typ = itemLeftTag
	if strings.HasPrefix(l.input[l.pos:], leftOutput) {
		typ = itemLeftOutput
	}
	l.pos += 2
	if l.peek() == trimMarker {
		l.next()
	}
	l.emit(typ)
	return lexInsideDelims
}

// lexInsideDelims is called repeatedly to scan elements inside an output or
// tag.
func lexInsideDelims(l *lexer) stateFn {
	switch r := l.next(); {
	case r == eof:
		return l.errorf("unclosed tag")
	case isSpaceEOL(r):
		l.ignore()
	case r == trimMarker:
		var rest = l.input[l.pos:]
		if strings.HasPrefix(rest, rightOutput) || strings.HasPrefix(rest, rightTag) {
			l.trimNext = true
			return lexRightDelim
		}
		if isDigit(l.peek()) {
			l.backup()
			return lexNumber
		}
		return l.errorf("unexpected %q in tag", r)
	case r == '}':
		if l.peek() != '}' {
			return l.errorf("unexpected single } in tag")
		}
		l.backup()
		return lexRightDelim
	case r == '%':
		if l.peek() != '}' {
			return l.errorf("unexpected %% in tag")
		}
		l.backup()
		return lexRightDelim
	case r == '"', r == '\'':
		return stringLexer(r)
	case isDigit(r):
		l.backup()
		return lexNumber
	case isLetterOrUnderscore(r):
		l.backup()
		return lexIdent
	case r == '.':
		l.emit(itemDot)
	case r == ',':
		l.emit(itemComma)
	case r == ':':
		l.emit(itemColon)
	case r == '|':
		l.emit(itemPipe)
	case r == '[':
		l.emit(itemLeftBracket)
	case r == ']':
		l.emit(itemRightBracket)
	case r == '(':
		l.emit(itemLeftParen)
	case r == ')':
		l.emit(itemRightParen)
	case r == '=':
		if l.accept("=") {
			l.emit(itemEq)
		} else {
			l.emit(itemAssign)
		}
	case r == '!':
		if !l.accept("=") {
			return l.errorf("expected = after !")
		}
		l.emit(itemNotEq)
	case r == '<':
		switch {
		case l.accept("="):
			l.emit(itemLte)
		case l.accept(">"):
			l.emit(itemNotEq)
		default:
			l.emit(itemLt)
		}
	case r == '>':
		if l.accept("=") {
			l.emit(itemGte)
		} else {
			l.emit(itemGt)
		}
	default:
		return l.errorf("unrecognized character in tag: %#U", r)
	}
	return lexInsideDelims
}

// lexRightDelim scans "}}" or "%}".  Any trim marker has already been read.
func lexRightDelim(l *lexer) stateFn {
	var typ = itemRightTag
	if strings.HasPrefix(l.input[l.pos:], rightOutput) {
		typ = itemRightOutput
	}
	l.pos += 2
	l.emit(typ)
	return lexText
}

// stringLexer returns a stateFn that lexes strings surrounded by the given quote character.
func stringLexer(quoteChar rune) stateFn {
	// the quote char has already been read.
	return func(l *lexer) stateFn {
		for {
			switch l.next() {
			case eof:
				return l.errorf("unterminated string")
			case '\\':
				l.next() // skip escape sequences
			case quoteChar:
				l.emit(itemString)
				return lexInsideDelims
			}
		}
	}
}

// lexIdent scans an identifier.  The first word of a raw or comment tag
// switches the lexer to skip the tag body verbatim.
func lexIdent(l *lexer) stateFn {
	var first = l.lastEmit.typ == itemLeftTag
	for isAlphaNumeric(l.next()) {
	}
	l.backup()
	var word = l.input[l.start:l.pos]
	l.emit(itemIdent)
	if first {
		switch word {
		case "raw", "comment":
			return lexVerbatim(word, "end"+word)
		}
	}
	return lexInsideDelims
}

var verbatimEnds = map[string]*regexp.Regexp{
	"endraw":     regexp.MustCompile(`\{%-?\s*(endraw)\s*(-?)%\}`),
	"endcomment": regexp.MustCompile(`\{%-?\s*(endcomment)\s*(-?)%\}`),
}

// lexVerbatim emits the close of the opening tag, the body as a single text
// item, and the closing tag.
func lexVerbatim(open, end string) stateFn {
	return func(l *lexer) stateFn {
		for isSpaceEOL(l.peek()) {
			l.next()
		}
		l.ignore()
		if l.peek() == trimMarker {
			l.next()
			l.trimNext = true
		}
		if !strings.HasPrefix(l.input[l.pos:], rightTag) {
			return l.errorf("expected %%} after %s", open)
		}
		l.pos += len(rightTag)
		l.emit(itemRightTag)
		if l.trimNext {
			for isSpaceEOL(l.peek()) {
				l.next()
			}
			l.ignore()
			l.trimNext = false
		}

		var base = l.pos
		var loc = verbatimEnds[end].FindStringSubmatchIndex(l.input[base:])
		if loc == nil {
			return l.errorf("unclosed %s tag", open)
		}
		l.pos = base + loc[0]
		if l.pos > l.start {
			l.emit(itemText)
		}
		l.pos += len(leftTag)
		if l.peek() == trimMarker {
			l.next()
		}
		l.emit(itemLeftTag)
		l.start, l.pos = base+loc[2], base+loc[3]
		l.emit(itemIdent)
		l.start, l.pos = base+loc[4], base+loc[1]
		l.trimNext = loc[5] > loc[4]
		l.emit(itemRightTag)
		return lexText
	}
}

// lexNumber scans an integer or a decimal float, with an optional leading
// minus sign.
func lexNumber(l *lexer) stateFn {
	var typ = itemInteger
	l.accept("-")
	if !l.acceptRun(decDigits) {
		return l.errorf("bad number syntax: %q", l.input[l.start:l.pos])
	}
	if l.peek() == '.' {
		l.next()
		if !isDigit(l.peek()) {
			// "1." is the integer 1 followed by a dot.
			l.backup()
		} else {
			l.acceptRun(decDigits)
			typ = itemFloat
		}
	}
	if isLetterOrUnderscore(l.peek()) {
		l.next()
		return l.errorf("bad number syntax: %q", l.input[l.start:l.pos])
	}
	l.emit(typ)
	return lexInsideDelims
}

const decDigits = "0123456789"

// Helpers --------------------------------------------------------------------

// isAlphaNumeric reports whether r is an alphabetic, digit, or underscore.
func isAlphaNumeric(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// isSpace reports whether r is a space character.
func isSpace(r rune) bool {
	return r == ' ' || r == '\t'
}

// isEndOfLine reports whether r is an end-of-line character.
func isEndOfLine(r rune) bool {
	return r == '\r' || r == '\n'
}

// isSpaceEOL returns true if r is space or end of line.
func isSpaceEOL(r rune) bool {
	return isSpace(r) || isEndOfLine(r)
}

func isLetterOrUnderscore(r rune) bool {
	return 'a' <= r && r <= 'z' ||
		'A' <= r && r <= 'Z' ||
		r == '_'
}

func isDigit(r rune) bool {
	return '0' <= r && r <= '9'
}
