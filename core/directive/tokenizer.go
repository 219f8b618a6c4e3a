// Package directive recognizes the comment markers embedded in widget and
// data sources and rewrites text around them.
//
// The grammar is a closed set of literal markers:
//
//	/*__@replace:<name>__*/
//	/*__@creatorAccount__*/
//	/*__@skip__*/
//	/*__@ignore__*/
//	/*__@noStringify__*/
//	/*__@import:<name>__*/
//
// Anything else, including near-misses, is literal text.
package directive

import (
	"strings"
	"unicode"
)

const (
	markerOpen  = "/*__@"
	markerClose = "__*/"
)

type Kind int

const (
	Replace Kind = iota
	CreatorAccount
	Skip
	Ignore
	NoStringify
	Import
)

func (k Kind) String() string {
	switch k {
	case Replace:
		return "replace"
	case CreatorAccount:
		return "creatorAccount"
	case Skip:
		return "skip"
	case Ignore:
		return "ignore"
	case NoStringify:
		return "noStringify"
	case Import:
		return "import"
	default:
		return "unknown"
	}
}

// Directive is one recognized marker. Arg is the alias or module name for
// Replace and Import and empty otherwise.
type Directive struct {
	Kind Kind
	Arg  string
}

// Marker renders d back to its literal form.
func (d Directive) Marker() string {
	if d.Kind == Replace || d.Kind == Import {
		return markerOpen + d.Kind.String() + ":" + d.Arg + markerClose
	}
	return markerOpen + d.Kind.String() + markerClose
}

// Token is either literal text or a directive. Text always holds the exact
// source span so a token list concatenates back to its input.
type Token struct {
	Text      string
	Directive *Directive
}

func (t Token) IsDirective() bool {
	return t.Directive != nil
}

// Tokenize splits text into literal and directive tokens in source order.
func Tokenize(text string) []Token {
	var tokens []Token
	literalStart := 0
	pos := 0

	for {
		open := strings.Index(text[pos:], markerOpen)
		if open < 0 {
			break
		}
		open += pos
		bodyStart := open + len(markerOpen)
		end := strings.Index(text[bodyStart:], markerClose)
		if end < 0 {
			break
		}
		end += bodyStart

		d, ok := parseBody(text[bodyStart:end])
		if !ok {
			pos = bodyStart
			continue
		}

		if open > literalStart {
			tokens = append(tokens, Token{Text: text[literalStart:open]})
		}
		tokens = append(tokens, Token{Text: text[open : end+len(markerClose)], Directive: &d})
		pos = end + len(markerClose)
		literalStart = pos
	}

	if literalStart < len(text) {
		tokens = append(tokens, Token{Text: text[literalStart:]})
	}
	return tokens
}

func parseBody(body string) (Directive, bool) {
	switch body {
	case "creatorAccount":
		return Directive{Kind: CreatorAccount}, true
	case "skip":
		return Directive{Kind: Skip}, true
	case "ignore":
		return Directive{Kind: Ignore}, true
	case "noStringify":
		return Directive{Kind: NoStringify}, true
	}

	for _, kind := range []Kind{Replace, Import} {
		prefix := kind.String() + ":"
		if name, ok := strings.CutPrefix(body, prefix); ok && validName(name) {
			return Directive{Kind: kind, Arg: name}, true
		}
	}
	return Directive{}, false
}

func validName(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		if unicode.IsSpace(r) {
			return false
		}
	}
	return !strings.Contains(name, "*/") && !strings.Contains(name, markerOpen)
}

// Scan returns only the directives found in text.
func Scan(text string) []Directive {
	var out []Directive
	for _, tok := range Tokenize(text) {
		if tok.IsDirective() {
			out = append(out, *tok.Directive)
		}
	}
	return out
}

// Has reports whether text carries at least one directive of kind.
func Has(text string, kind Kind) bool {
	for _, d := range Scan(text) {
		if d.Kind == kind {
			return true
		}
	}
	return false
}

func ShouldSkip(text string) bool {
	return Has(text, Skip)
}

func ShouldIgnore(text string) bool {
	return Has(text, Ignore)
}

func ShouldParse(text string) bool {
	return Has(text, NoStringify)
}
