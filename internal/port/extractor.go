package port

// SourceResolver turns the configured document pattern into a single path.
type SourceResolver interface {
	Resolve(pattern string) (string, error)
}

// TextExtractor converts a source document into plain text.
type TextExtractor interface {
	Extract(path string) (string, error)
}
