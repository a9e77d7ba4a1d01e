package testutil

// FixedBatchGenerator returns the same batch identifier every time.
//
// Unlike engine.FixedGenerator which returns identifiers in sequence, this
// generator suits tests where every delivery should carry one known id.
//
// Thread-safety: FixedBatchGenerator is stateless and safe for concurrent use.
type FixedBatchGenerator struct {
	id string
}

// NewFixedBatchGenerator creates a generator returning id.
// If id is empty, Generate() returns "test-batch-default".
func NewFixedBatchGenerator(id string) *FixedBatchGenerator {
	if id == "" {
		id = "test-batch-default"
	}
	return &FixedBatchGenerator{id: id}
}

// Generate returns the fixed identifier.
//
// Implements engine.BatchIDGenerator.
func (g *FixedBatchGenerator) Generate() string {
	return g.id
}
