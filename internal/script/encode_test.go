package script

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	k3stesting "github.com/imamik/k3sforge/internal/testing"
)

func TestEncode_RoundTripAndStable(t *testing.T) {
	t.Parallel()
	f := newFixture(t, k3stesting.NewSpecBuilder())
	s := f.compileAll(t)[f.topo.First().Hostname]

	a, err := Encode(s)
	require.NoError(t, err)
	b, err := Encode(s)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	decoded, err := Decode(a)
	require.NoError(t, err)
	assert.Equal(t, s.Content, decoded)
}

func TestDecode_Invalid(t *testing.T) {
	t.Parallel()
	_, err := Decode("not base64!")
	assert.Error(t, err)
	_, err = Decode("aGVsbG8=")
	assert.Error(t, err)
}

func TestUserData(t *testing.T) {
	t.Parallel()
	f := newFixture(t, k3stesting.NewSpecBuilder())
	s := f.compileAll(t)[f.topo.At(3).Hostname]

	ud, err := UserData(s)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ud, "#cloud-config\n"))
	assert.Contains(t, ud, "encoding: gz+b64")
	assert.Contains(t, ud, "path: "+BootstrapPath)
	assert.LessOrEqual(t, len(ud), MaxUserDataBytes)
}
