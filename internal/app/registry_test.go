package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistry_Bind_Unbind(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()

	// Given a bound connection
	reg.BindSignal("c1", "token", nopConn{}, nil)
	req.Equal(1, reg.Count())
	conn, ok := reg.GetSignal("c1")
	req.True(ok)
	req.Equal(nopConn{}, conn)

	// When it is unbound twice
	req.True(reg.Unbind("c1"))
	req.False(reg.Unbind("c1"))

	// Then nothing is left
	_, ok = reg.GetSignal("c1")
	req.False(ok)
	req.Zero(reg.Count())
}

func TestRegistry_Cancel(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()
	ctx, cancel := context.WithCancel(context.Background())
	reg.BindSignal("c1", "token", nopConn{}, cancel)

	req.True(reg.Cancel("c1"))
	req.ErrorIs(ctx.Err(), context.Canceled)
	req.False(reg.Cancel("unknown"))
}
