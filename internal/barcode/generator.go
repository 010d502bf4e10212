package barcode

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/smallbiznis/motopos/internal/clock"
)

// AlternativeOffset shifts the entity id on every collision retry.
const AlternativeOffset = 1000

// Generator synthesizes EAN-13 codes from entity identifiers.
//
// The middle three digits come from the current Unix millisecond, so two
// generations for the same id usually differ.
type Generator struct {
	clock clock.Clock
}

func NewGenerator(c clock.Clock) *Generator {
	if c == nil {
		c = clock.SystemClock{}
	}
	return &Generator{clock: c}
}

// Generate builds "789" + 3 time digits + 6 id digits + check digit.
func (g *Generator) Generate(entityID int64) string {
	return withCheckDigit(g.payload(entityID))
}

// Alternative regenerates for entityID + attempt*1000.
func (g *Generator) Alternative(entityID int64, attempt int) string {
	return g.Generate(entityID + int64(attempt)*AlternativeOffset)
}

func (g *Generator) payload(entityID int64) string {
	millis := g.clock.Now().UnixMilli() % 1000
	if millis < 0 {
		millis = -millis
	}
	return CountryPrefix + fmt.Sprintf("%03d", millis) + idSegment(entityID)
}

// idSegment zero-pads the id to 6 digits, keeping the last 6 when longer.
func idSegment(entityID int64) string {
	raw := strings.TrimPrefix(strconv.FormatInt(entityID, 10), "-")
	if len(raw) < 6 {
		return strings.Repeat("0", 6-len(raw)) + raw
	}
	return raw[len(raw)-6:]
}
