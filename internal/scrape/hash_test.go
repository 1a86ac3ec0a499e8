package scrape

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_BuildHash_IsDeterministic(t *testing.T) {
	assert.Equal(t, BuildHash("a", "b", "c"), BuildHash("a", "b", "c"))
}

func Test_BuildHash_IsOrderSensitive(t *testing.T) {
	assert.NotEqual(t, BuildHash("a", "b"), BuildHash("b", "a"))
}

func Test_BuildHash_EmptyPartsYieldEmptyHash(t *testing.T) {
	assert.Equal(t, "", BuildHash(nil, "", []string{}))
	assert.Equal(t, "", BuildHash())
}

func Test_BuildHash_SinglePartYieldsHash(t *testing.T) {
	assert.NotEmpty(t, BuildHash("x"))
}

func Test_BuildHash_IgnoresEmptyPartsBetweenValues(t *testing.T) {
	assert.Equal(t, BuildHash("a", "b"), BuildHash("a", nil, "", "b"))
}

func Test_BuildHash_EncodesNonStringParts(t *testing.T) {
	price := 1234.56
	assert.NotEmpty(t, BuildHash("id-1", price))
	assert.Equal(t, BuildHash("id-1", price), BuildHash("id-1", 1234.56))
}
