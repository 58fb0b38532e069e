package app

import (
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/dkeye/CodeLens/internal/core"
	"github.com/dkeye/CodeLens/internal/domain"
	"github.com/stretchr/testify/require"
)

type nopConn struct{}

func (nopConn) TrySend(core.Frame) error { return nil }
func (nopConn) Close()                   {}

// recNotifier is only called with the manager lock held.
type recNotifier struct {
	events []string
	peers  []int
}

func (n *recNotifier) Admitted(adm core.Admission) {
	n.events = append(n.events, fmt.Sprintf("admitted %s to %s", adm.Member.Meta().ConnID, adm.Room.Room().ID))
	n.peers = append(n.peers, len(adm.Peers))
}

func (n *recNotifier) Departed(dep core.Departure) {
	ev := fmt.Sprintf("departed %s from %s", dep.Member.Meta().ConnID, dep.ReviewID)
	if dep.Closed {
		ev += " (closed)"
	}
	n.events = append(n.events, ev)
	n.peers = append(n.peers, len(dep.Peers))
}

func user(id string) domain.User {
	return domain.User{ID: domain.UserID(id), Username: "name-" + id}
}

func TestRoomManager_EnsureRoom_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	rooms := NewRoomManager(Limits{})
	rooms.mu.Lock()
	defer rooms.mu.Unlock()

	r1 := rooms.ensureRoomLocked("review-1")
	r2 := rooms.ensureRoomLocked("review-1")

	req.Same(r1, r2)
	req.Len(rooms.rooms, 1)
}

func TestRoomManager_AddParticipant_Creates_Room_Lazily(t *testing.T) {
	req := require.New(t)
	rooms := NewRoomManager(Limits{})

	// Given no room exists
	req.Empty(rooms.List())

	// When a participant joins
	adm, err := rooms.AddParticipant("review-1", "c1", user("u1"), nopConn{}, nil)

	// Then the room exists with that participant
	req.NoError(err)
	req.Empty(adm.Peers)
	req.Equal(domain.Palette[0], adm.Member.Meta().Color)
	req.Equal([]core.RoomInfo{{ID: "review-1", Participants: 1}}, rooms.List())

	id, ok := rooms.RoomOf("c1")
	req.True(ok)
	req.Equal(domain.ReviewID("review-1"), id)
}

func TestRoomManager_Second_Participant_Sees_First_As_Peer(t *testing.T) {
	req := require.New(t)
	rooms := NewRoomManager(Limits{})
	first, err := rooms.AddParticipant("review-1", "c1", user("u1"), nopConn{}, nil)
	req.NoError(err)

	adm, err := rooms.AddParticipant("review-1", "c2", user("u2"), nopConn{}, nil)
	req.NoError(err)

	req.Equal([]core.MemberSession{first.Member}, adm.Peers)
	req.Equal(domain.Palette[1], adm.Member.Meta().Color)
	req.Len(rooms.ListParticipants("review-1"), 2)
}

func TestRoomManager_Last_Departure_Drops_Room(t *testing.T) {
	req := require.New(t)
	rooms := NewRoomManager(Limits{})
	_, _ = rooms.AddParticipant("review-1", "c1", user("u1"), nopConn{}, nil)
	_, _ = rooms.AddParticipant("review-1", "c2", user("u2"), nopConn{}, nil)

	// When the first participant leaves
	dep, ok := rooms.RemoveParticipant("c1", nil)

	// Then the room stays with one peer
	req.True(ok)
	req.False(dep.Closed)
	req.Equal(domain.ReviewID("review-1"), dep.ReviewID)
	req.Equal(domain.UserID("u1"), dep.Member.Meta().User.ID)
	req.Len(dep.Peers, 1)

	// When the last one leaves
	dep, ok = rooms.RemoveParticipant("c2", nil)

	// Then the room is gone
	req.True(ok)
	req.True(dep.Closed)
	req.Empty(dep.Peers)
	_, exists := rooms.GetRoom("review-1")
	req.False(exists)
	req.Nil(rooms.ListParticipants("review-1"))
}

func TestRoomManager_Rejoin_After_Close_Starts_Fresh(t *testing.T) {
	req := require.New(t)
	rooms := NewRoomManager(Limits{})
	_, _ = rooms.AddParticipant("review-1", "c1", user("u1"), nopConn{}, nil)
	_, _ = rooms.AddParticipant("review-1", "c2", user("u2"), nopConn{}, nil)
	rooms.RemoveParticipant("c1", nil)
	rooms.RemoveParticipant("c2", nil)

	adm, err := rooms.AddParticipant("review-1", "c3", user("u3"), nopConn{}, nil)

	req.NoError(err)
	req.Empty(adm.Peers)
	req.Equal(domain.Palette[0], adm.Member.Meta().Color)
}

func TestRoomManager_RemoveParticipant_Unknown_Is_NoOp(t *testing.T) {
	req := require.New(t)
	rooms := NewRoomManager(Limits{})
	_, _ = rooms.AddParticipant("review-1", "c1", user("u1"), nopConn{}, nil)

	_, ok := rooms.RemoveParticipant("ghost", nil)
	req.False(ok)

	_, ok = rooms.RemoveParticipant("c1", nil)
	req.True(ok)
	_, ok = rooms.RemoveParticipant("c1", nil)
	req.False(ok)
	req.Empty(rooms.List())
}

func TestRoomManager_Add_Moves_Connection_Out_Of_Previous_Room(t *testing.T) {
	req := require.New(t)
	rooms := NewRoomManager(Limits{})
	_, _ = rooms.AddParticipant("review-1", "c1", user("u1"), nopConn{}, nil)
	_, _ = rooms.AddParticipant("review-1", "c2", user("u2"), nopConn{}, nil)
	n := &recNotifier{}

	adm, err := rooms.AddParticipant("review-2", "c1", user("u1"), nopConn{}, n)

	// Then the old room's departure is reported before the admission
	req.NoError(err)
	req.NotNil(adm.Previous)
	req.Equal(domain.ReviewID("review-1"), adm.Previous.ReviewID)
	req.Len(adm.Previous.Peers, 1)
	req.Equal([]string{"departed c1 from review-1", "admitted c1 to review-2"}, n.events)
	req.Equal([]core.RoomInfo{{ID: "review-1", Participants: 1}, {ID: "review-2", Participants: 1}}, rooms.List())
}

func TestRoomManager_Rejected_Move_Keeps_Previous_Room(t *testing.T) {
	req := require.New(t)
	rooms := NewRoomManager(Limits{MaxParticipants: 1})
	_, _ = rooms.AddParticipant("review-1", "c1", user("u1"), nopConn{}, nil)
	_, _ = rooms.AddParticipant("review-2", "c2", user("u2"), nopConn{}, nil)
	n := &recNotifier{}

	// When c1 tries to move into the full review-2
	_, err := rooms.AddParticipant("review-2", "c1", user("u1"), nopConn{}, n)

	// Then nothing changed and nobody was told anything
	req.ErrorIs(err, core.ErrRoomFull)
	req.Empty(n.events)
	id, ok := rooms.RoomOf("c1")
	req.True(ok)
	req.Equal(domain.ReviewID("review-1"), id)
}

func TestRoomManager_Rejoin_Same_Full_Room_Is_Allowed(t *testing.T) {
	req := require.New(t)
	rooms := NewRoomManager(Limits{MaxParticipants: 1, MaxRooms: 1})
	_, _ = rooms.AddParticipant("review-1", "c1", user("u1"), nopConn{}, nil)

	adm, err := rooms.AddParticipant("review-1", "c1", user("u1"), nopConn{}, nil)

	req.NoError(err)
	req.Empty(adm.Peers)
	req.Equal([]core.RoomInfo{{ID: "review-1", Participants: 1}}, rooms.List())
}

func TestRoomManager_Move_Out_Of_Last_Room_Frees_Room_Slot(t *testing.T) {
	req := require.New(t)
	rooms := NewRoomManager(Limits{MaxRooms: 1})
	_, _ = rooms.AddParticipant("review-1", "c1", user("u1"), nopConn{}, nil)

	_, err := rooms.AddParticipant("review-2", "c1", user("u1"), nopConn{}, nil)

	req.NoError(err)
	req.Equal([]core.RoomInfo{{ID: "review-2", Participants: 1}}, rooms.List())
}

func TestRoomManager_Notifier_Sees_Peers_Under_Lock(t *testing.T) {
	req := require.New(t)
	rooms := NewRoomManager(Limits{})
	n := &recNotifier{}
	_, _ = rooms.AddParticipant("review-1", "c1", user("u1"), nopConn{}, n)
	_, _ = rooms.AddParticipant("review-1", "c2", user("u2"), nopConn{}, n)

	rooms.RemoveParticipant("c1", n)
	rooms.RemoveParticipant("c2", n)
	rooms.RemoveParticipant("c2", n)

	req.Equal([]string{
		"admitted c1 to review-1",
		"admitted c2 to review-1",
		"departed c1 from review-1",
		"departed c2 from review-1 (closed)",
	}, n.events)
	req.Equal([]int{0, 1, 1, 0}, n.peers)
}

func TestRoomManager_MaxParticipants(t *testing.T) {
	req := require.New(t)
	rooms := NewRoomManager(Limits{MaxParticipants: 1})
	_, err := rooms.AddParticipant("review-1", "c1", user("u1"), nopConn{}, nil)
	req.NoError(err)

	_, err = rooms.AddParticipant("review-1", "c2", user("u2"), nopConn{}, nil)

	req.ErrorIs(err, core.ErrRoomFull)
	_, ok := rooms.RoomOf("c2")
	req.False(ok)
	req.Len(rooms.ListParticipants("review-1"), 1)
}

func TestRoomManager_MaxRooms(t *testing.T) {
	req := require.New(t)
	rooms := NewRoomManager(Limits{MaxRooms: 1})
	_, err := rooms.AddParticipant("review-1", "c1", user("u1"), nopConn{}, nil)
	req.NoError(err)

	_, err = rooms.AddParticipant("review-2", "c2", user("u2"), nopConn{}, nil)
	req.ErrorIs(err, core.ErrTooManyRooms)

	// Joining the existing room still works
	_, err = rooms.AddParticipant("review-1", "c2", user("u2"), nopConn{}, nil)
	req.NoError(err)
	req.Equal(1, rooms.Count())
}

func TestRoomManager_Concurrent_Joins_Share_One_Room(t *testing.T) {
	req := require.New(t)
	rooms := NewRoomManager(Limits{})

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := rooms.AddParticipant("review-1", domain.ConnID(fmt.Sprintf("c%d", i)), user(fmt.Sprint(i)), nopConn{}, nil)
			req.NoError(err)
		}()
	}
	wg.Wait()

	req.Equal([]core.RoomInfo{{ID: "review-1", Participants: 50}}, rooms.List())
}

func TestRoomManager_Invariants_Hold_For_Random_Sequences(t *testing.T) {
	req := require.New(t)
	rooms := NewRoomManager(Limits{})
	rnd := rand.New(rand.NewSource(42))

	for step := range 2000 {
		cid := domain.ConnID(fmt.Sprintf("c%d", rnd.Intn(20)))
		if rnd.Intn(3) == 0 {
			rooms.RemoveParticipant(cid, nil)
		} else {
			rid := domain.ReviewID(fmt.Sprintf("r%d", rnd.Intn(4)))
			_, err := rooms.AddParticipant(rid, cid, user(string(cid)), nopConn{}, nil)
			req.NoError(err)
		}

		seen := map[domain.ConnID]domain.ReviewID{}
		for _, info := range rooms.List() {
			req.Positive(info.Participants, "empty room %s at step %d", info.ID, step)
			for _, p := range rooms.ListParticipants(info.ID) {
				prev, dup := seen[p.ConnID]
				req.False(dup, "connection %s in %s and %s", p.ConnID, prev, info.ID)
				seen[p.ConnID] = info.ID
			}
		}
	}
}
