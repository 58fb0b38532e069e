package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParticipant_View(t *testing.T) {
	p := Participant{
		ConnID: "c1",
		User:   *NewUser("u1", "alice"),
		Color:  ColorFor(1),
	}
	require.Equal(t, ActiveUser{
		SocketID: "c1",
		UserID:   "u1",
		Username: "alice",
		Color:    "#4ECDC4",
	}, p.View())
}
