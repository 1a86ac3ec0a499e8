package scrape

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_ExtractNumber_GermanFormat(t *testing.T) {
	value := ExtractNumber("1.234,56 m²")
	assert.NotNil(t, value)
	assert.Equal(t, 1234.56, *value)
}

func Test_ExtractNumber_EnglishFormat(t *testing.T) {
	value := ExtractNumber("1,234.56")
	assert.NotNil(t, value)
	assert.Equal(t, 1234.56, *value)
}

func Test_ExtractNumber_PlainInteger(t *testing.T) {
	value := ExtractNumber("500 m²")
	assert.NotNil(t, value)
	assert.Equal(t, 500.0, *value)
}

func Test_ExtractNumber_GermanDecimalComma(t *testing.T) {
	value := ExtractNumber("4,5 Zimmer")
	assert.NotNil(t, value)
	assert.Equal(t, 4.5, *value)
}

func Test_ExtractNumber_ThousandsOnly(t *testing.T) {
	value := ExtractNumber("1.200 € Kaltmiete")
	assert.NotNil(t, value)
	assert.Equal(t, 1200.0, *value)
}

func Test_ExtractNumber_NonStringInput(t *testing.T) {
	assert.Nil(t, ExtractNumber(nil))
	assert.Nil(t, ExtractNumber(42))
}

func Test_ExtractNumber_NoMatch(t *testing.T) {
	assert.Nil(t, ExtractNumber("no number"))
}
