package progress

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTerminal_PipedSkipsUnchangedLive(t *testing.T) {
	var buf bytes.Buffer
	term := NewTerminal(&buf, false)

	require.NoError(t, term.Write(Frame{Lines: []string{"a"}, Live: []string{"x"}}))
	assert.Equal(t, "a\nx\n", buf.String())

	buf.Reset()
	require.NoError(t, term.Write(Frame{Live: []string{"x"}}))
	assert.Empty(t, buf.String())

	require.NoError(t, term.Write(Frame{Lines: []string{"b"}, Live: []string{"x"}}))
	assert.Equal(t, "b\n", buf.String())

	buf.Reset()
	require.NoError(t, term.Write(Frame{Live: []string{"y"}}))
	assert.Equal(t, "y\n", buf.String())
}

func TestTerminal_TTYRedrawsLiveBlock(t *testing.T) {
	var buf bytes.Buffer
	term := NewTerminal(&buf, true)

	require.NoError(t, term.Write(Frame{Live: []string{"x", "y"}}))
	assert.Equal(t, "x\ny\n", buf.String())

	buf.Reset()
	require.NoError(t, term.Write(Frame{Lines: []string{"c"}, Live: []string{"z"}}))
	assert.Equal(t, cursorUp+clearLine+cursorUp+clearLine+"\r"+"c\nz\n", buf.String())

	buf.Reset()
	require.NoError(t, term.Write(Frame{}))
	assert.Equal(t, cursorUp+clearLine+"\r", buf.String())

	buf.Reset()
	require.NoError(t, term.Write(Frame{}))
	assert.Empty(t, buf.String())
}

func TestTerminal_PrintlnKeepsLiveBlock(t *testing.T) {
	var buf bytes.Buffer
	term := NewTerminal(&buf, true)

	require.NoError(t, term.Write(Frame{Live: []string{"x"}}))
	buf.Reset()

	require.NoError(t, term.Println("note"))
	assert.Equal(t, cursorUp+clearLine+"\r"+"note\nx\n", buf.String())
}
