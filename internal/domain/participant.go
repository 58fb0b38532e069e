package domain

// ConnID identifies one live transport connection.
type ConnID string

// Participant is one connection's membership in a room.
// The color is fixed when the participant is created.
type Participant struct {
	ConnID ConnID
	User   User
	Color  string
}

// ActiveUser is the wire view of a participant.
type ActiveUser struct {
	SocketID ConnID `json:"socketId"`
	UserID   UserID `json:"userId"`
	Username string `json:"username"`
	Color    string `json:"color"`
}

func (p Participant) View() ActiveUser {
	return ActiveUser{
		SocketID: p.ConnID,
		UserID:   p.User.ID,
		Username: p.User.Username,
		Color:    p.Color,
	}
}
