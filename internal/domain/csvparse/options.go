package csvparse

// Option applies a configuration option to a parse call.
type Option func(*parser)

// WithDelimiter sets the field delimiter. The default is a comma.
func WithDelimiter(delim rune) Option {
	return func(p *parser) {
		if delim != 0 && delim != '"' && delim != '\r' && delim != '\n' {
			p.delim = delim
		}
	}
}
