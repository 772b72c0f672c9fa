package docstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChecksum(t *testing.T) {
	doc := []byte("harvest invoice 2026")

	sum := Checksum(doc)
	assert.Len(t, sum, 64)
	assert.Equal(t, sum, Checksum(doc), "same bytes, same checksum")
	assert.NotEqual(t, sum, Checksum([]byte("harvest invoice 2027")))
}
