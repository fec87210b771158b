package lex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindDelimited(t *testing.T) {
	cur, err := FindDelimited(NewCursor(" x f ok"), "f")
	require.NoError(t, err)
	assert.True(t, cur.StartsWith("f ok"))

	cur, err = FindDelimited(NewCursor(" {f} f ok"), "f")
	require.NoError(t, err)
	assert.True(t, cur.StartsWith("f ok"))

	cur, err = FindDelimited(NewCursor(" (f\")\" { ( ) } /* ) */ f ) f ok"), "f")
	require.NoError(t, err)
	assert.True(t, cur.StartsWith("f ok"))
}

func TestFindDelimitedLineCol(t *testing.T) {
	cur, err := FindDelimited(NewCursor("\n/*\n  \n */ ( \n ) /* */ f"), "f")
	require.NoError(t, err)
	assert.Equal(t, 4, cur.Line)
	assert.Equal(t, 9, cur.Col)
}

func TestFindDelimitedMismatchedCloser(t *testing.T) {
	_, err := FindDelimited(NewCursor(" ( ] f"), "f")
	assert.Error(t, err)

	_, err = FindDelimited(NewCursor(" } f"), "f")
	assert.Error(t, err)
}

func TestFindDelimitedExhausted(t *testing.T) {
	_, err := FindDelimited(NewCursor(" ( f "), "f")
	assert.Error(t, err)

	_, err = FindDelimited(NewCursor(""), "f")
	assert.Error(t, err)
}

func TestFindDelimitedNeedleInLiteral(t *testing.T) {
	// The needle inside a string literal does not count.
	cur, err := FindDelimited(NewCursor(`"f" f ok`), "f")
	require.NoError(t, err)
	assert.True(t, cur.StartsWith("f ok"))
}
