package domain

import "time"

// NoMatch is the position a vector index reports for an empty result slot.
const NoMatch = -1

// Chunk is a contiguous span of the source text. Start and End are rune
// offsets into the extracted text, End exclusive.
type Chunk struct {
	Index int
	Text  string
	Start int
	End   int
}

// Neighbor is a single k-NN search result.
type Neighbor struct {
	Position int
	Score    float32
}

// Hit is a retrieved chunk with its similarity score.
type Hit struct {
	Position int     `json:"position"`
	Score    float32 `json:"score"`
	Text     string  `json:"text"`
}

// BuildInfo describes one ingestion. Both persisted files carry the same ID.
type BuildInfo struct {
	ID            string    `json:"id"`
	Source        string    `json:"source"`
	Model         string    `json:"model"`
	Dimension     int       `json:"dimension"`
	ChunkSize     int       `json:"chunk_size"`
	ChunkOverlap  int       `json:"chunk_overlap"`
	ConfigHash    string    `json:"config_hash"`
	SchemaVersion int       `json:"schema_version"`
	CreatedAt     time.Time `json:"created_at"`
}

// Texts returns the chunk texts in order.
func Texts(chunks []Chunk) []string {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	return texts
}
