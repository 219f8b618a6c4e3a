package directive

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var ErrImportCycle = errors.New("import cycle")

// ModuleLibrary resolves an import name to snippet text.
type ModuleLibrary interface {
	Lookup(name string) (string, error)
}

// Result is the outcome of Process. When Skipped is true Text equals the
// input and callers must not write it back.
type Result struct {
	Text    string
	Skipped bool
}

// Processor rewrites widget sources. It holds no per-file state and is safe
// for concurrent use if its ModuleLibrary is.
type Processor struct {
	Aliases        map[string]string
	CreatorAccount string
	Modules        ModuleLibrary
}

func NewProcessor(aliases map[string]string, creatorAccount string, modules ModuleLibrary) *Processor {
	return &Processor{
		Aliases:        aliases,
		CreatorAccount: creatorAccount,
		Modules:        modules,
	}
}

// Process runs skip detection, alias substitution, account substitution and
// import resolution over text. Substituted values are not rescanned. Imported
// module text has its own imports resolved; its other markers stay literal.
func (p *Processor) Process(text string) (Result, error) {
	tokens := Tokenize(text)
	for _, tok := range tokens {
		if tok.IsDirective() && tok.Directive.Kind == Skip {
			return Result{Text: text, Skipped: true}, nil
		}
	}

	var b strings.Builder
	b.Grow(len(text))
	for _, tok := range tokens {
		if !tok.IsDirective() {
			b.WriteString(tok.Text)
			continue
		}
		switch tok.Directive.Kind {
		case Replace, CreatorAccount:
			b.WriteString(p.substitute(tok))
		case Import:
			resolved, err := p.resolveImport(tok.Directive.Arg, nil)
			if err != nil {
				return Result{}, err
			}
			b.WriteString(resolved)
		default:
			b.WriteString(tok.Text)
		}
	}

	return Result{Text: b.String()}, nil
}

// Substitute applies only alias and account substitution. It is the subset
// used for data files.
func (p *Processor) Substitute(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, tok := range Tokenize(text) {
		b.WriteString(p.substitute(tok))
	}
	return b.String()
}

func (p *Processor) substitute(tok Token) string {
	if !tok.IsDirective() {
		return tok.Text
	}
	switch tok.Directive.Kind {
	case Replace:
		if value, ok := p.Aliases[tok.Directive.Arg]; ok {
			return value
		}
	case CreatorAccount:
		if p.CreatorAccount != "" {
			return p.CreatorAccount
		}
	}
	return tok.Text
}

func (p *Processor) resolveImport(name string, chain []string) (string, error) {
	for _, seen := range chain {
		if seen == name {
			return "", fmt.Errorf("%w: %s", ErrImportCycle, strings.Join(append(chain, name), " -> "))
		}
	}
	if p.Modules == nil {
		return "", fmt.Errorf("cannot resolve import %q: no module library configured", name)
	}

	content, err := p.Modules.Lookup(name)
	if err != nil {
		return "", fmt.Errorf("failed to resolve import %q: %w", name, err)
	}

	chain = append(slices.Clone(chain), name)
	var b strings.Builder
	for _, tok := range Tokenize(content) {
		if tok.IsDirective() && tok.Directive.Kind == Import {
			nested, err := p.resolveImport(tok.Directive.Arg, chain)
			if err != nil {
				return "", err
			}
			b.WriteString(nested)
			continue
		}
		b.WriteString(tok.Text)
	}
	return b.String(), nil
}

// Process is the functional form used by callers that do not keep a Processor.
func Process(text string, aliases map[string]string, creatorAccount string, modules ModuleLibrary) (Result, error) {
	return NewProcessor(aliases, creatorAccount, modules).Process(text)
}
