package etwtrace

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProviderIDFromName(t *testing.T) {
	id := ProviderIDFromName("MyProv")

	assert.Equal(t, id, ProviderIDFromName("MyProv"))
	assert.Equal(t, id, ProviderIDFromName("MYPROV"), "names are hashed upper-cased")
	assert.NotEqual(t, id, ProviderIDFromName("MyProv2"))
	assert.Equal(t, uint16(0x5000), id.Data3&0xf000, "version nibble of a name-based id")
}
