package mock

import "github.com/fwojciec/gleaner"

var _ gleaner.Converter = (*Converter)(nil)

// Converter is a mock implementation of gleaner.Converter.
type Converter struct {
	ConvertFn func(html string) (string, error)
}

func (c *Converter) Convert(html string) (string, error) {
	return c.ConvertFn(html)
}
