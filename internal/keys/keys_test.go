package keys

import (
	"testing"

	"gotest.tools/v3/assert"
)

func TestParseModifiersAndNamedKey(t *testing.T) {
	in, err := Parse("ctrl+shift+pageup")
	assert.NilError(t, err)
	assert.Equal(t, in.Code, PageUp)
	assert.Equal(t, in.Mods, ModCtrl|ModShift)
}

func TestParsePrintableKey(t *testing.T) {
	in, err := Parse("x")
	assert.NilError(t, err)
	assert.Equal(t, in.Code, Code('x'))
}

func TestParseUnknownModifierFails(t *testing.T) {
	_, err := Parse("bogus+a")
	assert.ErrorContains(t, err, "unknown modifier")
}

func TestParseDetachRequiresCtrl(t *testing.T) {
	_, err := ParseDetach("b")
	assert.ErrorContains(t, err, "must include ctrl")
}

func TestDetachMatchesRawByte(t *testing.T) {
	d, err := ParseDetach("ctrl+b")
	assert.NilError(t, err)
	ok, n := d.Matches([]byte{0x02, 'x'})
	assert.Assert(t, ok)
	assert.Equal(t, n, 1)
}

func TestDetachMatchesCSISequence(t *testing.T) {
	d, err := ParseDetach("ctrl+b")
	assert.NilError(t, err)
	ok, n := d.Matches(d.CSISeq)
	assert.Assert(t, ok)
	assert.Equal(t, n, len(d.CSISeq))
}

func TestEncodeNamedKey(t *testing.T) {
	assert.DeepEqual(t, Encode(Input{Code: Up}), []byte("\x1b[A"))
	assert.DeepEqual(t, Encode(Input{Code: Enter}), []byte("\r"))
}

func TestEncodePrintableKey(t *testing.T) {
	assert.DeepEqual(t, Encode(Input{Code: Code('a')}), []byte("a"))
}

func TestEncodeCtrlPrintableKey(t *testing.T) {
	assert.DeepEqual(t, Encode(Input{Code: Code('c'), Mods: ModCtrl}), []byte{0x03})
}

func TestEncodeAltPrefixesEscape(t *testing.T) {
	assert.DeepEqual(t, Encode(Input{Code: Code('x'), Mods: ModAlt}), []byte("\x1bx"))
}

func TestEncodeUnknownCodeReturnsNil(t *testing.T) {
	assert.Assert(t, Encode(Input{Code: Code(0xE0FF)}) == nil)
}
