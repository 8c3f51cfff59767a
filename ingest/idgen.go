package ingest

import (
	"strconv"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	PrefixQuestion = "qcm"
	PrefixCase     = "cas"
)

const (
	base36       = "0123456789abcdefghijklmnopqrstuvwxyz"
	suffixLength = 9
)

// IDGenerator mints identifiers for questions and clinical cases.
type IDGenerator interface {
	Generate(prefix string) string
}

// IDGeneratorFunc adapts a function to IDGenerator.
type IDGeneratorFunc func(prefix string) string

func (f IDGeneratorFunc) Generate(prefix string) string { return f(prefix) }

type nanoIDGenerator struct {
	now func() time.Time
}

// NewIDGenerator returns the default generator: prefix, unix milliseconds and nine random
// base36 characters joined by underscores, e.g. qcm_1718000000000_k3v9x0a1b.
func NewIDGenerator() IDGenerator {
	return nanoIDGenerator{now: time.Now}
}

func (g nanoIDGenerator) Generate(prefix string) string {
	ms := strconv.FormatInt(g.now().UnixMilli(), 10)
	return prefix + "_" + ms + "_" + gonanoid.MustGenerate(base36, suffixLength)
}

// Generate uses the default generator.
func Generate(prefix string) string {
	return NewIDGenerator().Generate(prefix)
}
