package cryptox

import (
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMakeVerifier(t *testing.T) {
	k1 := Key(make([]byte, KeySize))
	k2 := k1.Clone()
	k2[0] = 1

	v := MakeVerifier(k1)
	assert.Len(t, v, sha256.Size)
	assert.Equal(t, v, MakeVerifier(k1.Clone()))
	assert.NotEqual(t, v, MakeVerifier(k2))
}
