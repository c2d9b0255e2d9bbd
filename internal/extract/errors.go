package extract

// ParseError indicates a model reply could not be turned into a structured
// extraction result, even after repair.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return "parse error: " + e.Reason
}

func newParseError(reason string) *ParseError {
	return &ParseError{Reason: reason}
}
