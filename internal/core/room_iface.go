package core

import (
	"github.com/dkeye/CodeLens/internal/domain"
)

// PublishResult reports delivery stats/backpressure to orchestrator.
type PublishResult struct {
	SendTo  int
	Dropped []MemberSession
}

// RoomService is the core-facing API of a room.
// It owns the membership set but never touches transport resources.
type RoomService interface {
	Room() *domain.Room
	MemberCount() int
	// Participants is ordered by join time.
	Participants() []domain.Participant
	MembersSnapshot() []domain.ActiveUser

	// AddMember creates the participant, colored by the member count before
	// insertion, and returns it with the members that were already present.
	// hook runs before the room lock is released.
	AddMember(cid domain.ConnID, user domain.User, conn SignalConnection, hook MemberHook) (MemberSession, []MemberSession)
	// RemoveMember passes the remaining members to hook before the room lock
	// is released.
	RemoveMember(cid domain.ConnID, hook MemberHook) (MemberSession, bool)

	// Broadcast delivers from a current member to the others, and to the
	// sender as well when self is set. It fails with ErrNotJoined once from
	// has left.
	Broadcast(from domain.ConnID, data Frame, self bool) (PublishResult, error)
}

// MemberHook observes a membership change while the room is still locked.
// It must not block and must not call back into the room.
type MemberHook func(member MemberSession, others []MemberSession)

type RoomInfo struct {
	ID           domain.ReviewID `json:"reviewId"`
	Participants int             `json:"participants"`
}

// Admission is the outcome of a successful join.
type Admission struct {
	Room   RoomService
	Member MemberSession
	Peers  []MemberSession
	// Previous is the membership the connection gave up by joining.
	Previous *Departure
}

// Departure is the outcome of removing a connection from its room.
type Departure struct {
	ReviewID domain.ReviewID
	Room     RoomService
	Member   MemberSession
	Peers    []MemberSession
	// Closed is set when the room became empty and was dropped.
	Closed bool
}

// Notifier hears about membership changes while the room manager still
// holds its lock, so every client sees them in registry order.
// Implementations must not block and must not call back into the manager
// or the room.
type Notifier interface {
	Departed(Departure)
	Admitted(Admission)
}

// RoomManager is the process-wide registry of review rooms.
// Implementations serialise all mutations; a room with no participants is
// never observable. A nil Notifier is allowed.
type RoomManager interface {
	AddParticipant(id domain.ReviewID, cid domain.ConnID, user domain.User, conn SignalConnection, n Notifier) (Admission, error)
	RemoveParticipant(cid domain.ConnID, n Notifier) (Departure, bool)
	ListParticipants(id domain.ReviewID) []domain.Participant

	GetRoom(id domain.ReviewID) (RoomService, bool)
	RoomOf(cid domain.ConnID) (domain.ReviewID, bool)
	List() []RoomInfo
}
