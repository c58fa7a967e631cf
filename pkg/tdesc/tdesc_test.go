package tdesc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDescription = `<?xml version="1.0"?>
<target version="1.0">
  <architecture>microblaze</architecture>
  <feature name="org.gnu.gdb.microblaze.core">
    <reg name="r0" bitsize="32" regnum="0"/>
    <reg name="r1" bitsize="32" type="data_ptr"/>
    <reg name="rpc" bitsize="32" type="code_ptr"/>
  </feature>
  <feature name="org.gnu.gdb.microblaze.stack-protect">
    <reg name="rslr" bitsize="32"/>
    <reg name="rshr" bitsize="32"/>
  </feature>
</target>`

func TestParse(t *testing.T) {
	desc, err := Parse([]byte(sampleDescription))
	require.NoError(t, err)

	assert.Equal(t, "microblaze", desc.Architecture)
	assert.True(t, desc.HasRegisters())
	require.Len(t, desc.Features, 2)

	core := desc.Feature("org.gnu.gdb.microblaze.core")
	require.NotNil(t, core)
	assert.Len(t, core.Registers, 3)

	sp := core.Register("r1")
	require.NotNil(t, sp)
	assert.Equal(t, 32, sp.Bitsize)
	assert.Equal(t, "data_ptr", sp.Type)

	assert.Nil(t, core.Register("r9"))
	assert.Nil(t, desc.Feature("org.gnu.gdb.microblaze.fpu"))
	assert.NotNil(t, desc.Feature("org.gnu.gdb.microblaze.stack-protect"))
}

func TestParseMalformed(t *testing.T) {
	_, err := Parse([]byte(`<target><feature name="x">`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed target description")
}

func TestParseNoRegisters(t *testing.T) {
	desc, err := Parse([]byte(`<target><architecture>microblaze</architecture></target>`))
	require.NoError(t, err)
	assert.False(t, desc.HasRegisters())
	assert.Nil(t, desc.Feature("org.gnu.gdb.microblaze.core"))
}
