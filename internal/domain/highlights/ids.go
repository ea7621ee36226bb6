package highlights

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// IDGen issues session-scoped identifiers that stay unique regardless of
// clock resolution.
type IDGen struct {
	prefix string
	seq    atomic.Uint64
}

func NewIDGen() *IDGen {
	return &IDGen{prefix: uuid.NewString()[:8]}
}

func (g *IDGen) Next(kind string) string {
	n := g.seq.Add(1)
	return fmt.Sprintf("%s-%s-%d", kind, g.prefix, n)
}
