package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnumerateItems(t *testing.T) {
	assert.Equal(t, "", EnumerateItems(nil))
	assert.Equal(t, "5.1.8", EnumerateItems([]string{"5.1.8"}))
	assert.Equal(t, "5.1.8 and 5.0.14", EnumerateItems([]string{"5.1.8", "5.0.14"}))
	assert.Equal(t, "5.2.1, 5.1.8, and 5.0.14",
		EnumerateItems([]string{"5.2.1", "5.1.8", "5.0.14"}))
}

func TestSanitizeKey(t *testing.T) {
	assert.Equal(t, "CVE-2024-53907", SanitizeKey(" CVE-2024-53907 "))
	assert.Equal(t, "5.2-stable", SanitizeKey("5.2/stable"))
}

func TestIsEmpty(t *testing.T) {
	assert.True(t, IsEmpty("  "))
	assert.False(t, IsNotEmpty(""))
	assert.True(t, IsNotEmpty("x"))
}
