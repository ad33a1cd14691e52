package mock

import "github.com/fwojciec/gleaner"

var _ gleaner.DocumentParser = (*DocumentParser)(nil)

// DocumentParser is a mock implementation of gleaner.DocumentParser.
type DocumentParser struct {
	ParseFn func(html string, opts gleaner.ParseOptions) *gleaner.ParsedDocument
}

func (p *DocumentParser) Parse(html string, opts gleaner.ParseOptions) *gleaner.ParsedDocument {
	return p.ParseFn(html, opts)
}
