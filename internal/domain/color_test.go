package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestColorFor_Follows_Palette_Order(t *testing.T) {
	req := require.New(t)
	for i, c := range Palette {
		req.Equal(c, ColorFor(i))
	}
}

func TestColorFor_Wraps_After_Twelve(t *testing.T) {
	req := require.New(t)
	req.Len(Palette, 12)
	req.Equal(ColorFor(0), ColorFor(12))
	req.Equal(ColorFor(5), ColorFor(29))
}

func TestColorFor_Negative_Index(t *testing.T) {
	require.Equal(t, Palette[0], ColorFor(-3))
}
