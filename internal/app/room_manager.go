package app

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/dkeye/CodeLens/internal/core"
	"github.com/dkeye/CodeLens/internal/domain"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

// Limits caps registry growth. Zero means unlimited.
type Limits struct {
	MaxRooms        int
	MaxParticipants int
}

// RoomManagerImpl owns every review room of the process.
// All mutations run under mu, so an empty room is never visible and two
// joins to a new review id always land in the same room.
type RoomManagerImpl struct {
	mu     sync.RWMutex
	rooms  map[domain.ReviewID]core.RoomService
	index  map[domain.ConnID]domain.ReviewID
	limits Limits
}

var _ core.RoomManager = (*RoomManagerImpl)(nil)

func NewRoomManager(limits Limits) *RoomManagerImpl {
	return &RoomManagerImpl{
		rooms:  make(map[domain.ReviewID]core.RoomService),
		index:  make(map[domain.ConnID]domain.ReviewID),
		limits: limits,
	}
}

// AddParticipant puts cid into room id, creating the room on first use.
// A connection already joined elsewhere is moved: its old room hears the
// departure before the new one hears the arrival, and both happen under mu.
// A rejected join leaves every membership as it was.
func (f *RoomManagerImpl) AddParticipant(
	id domain.ReviewID,
	cid domain.ConnID,
	user domain.User,
	conn core.SignalConnection,
	n core.Notifier,
) (core.Admission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.admitLocked(id, cid); err != nil {
		return core.Admission{}, err
	}

	var adm core.Admission
	if prev, ok := f.index[cid]; ok {
		log.Info().Str("module", "app.rooms").Str("sid", string(cid)).Str("room", string(prev)).Msg("moving connection out of previous room")
		if dep, ok := f.removeLocked(cid, n); ok {
			adm.Previous = &dep
		}
	}

	room := f.ensureRoomLocked(id)
	room.AddMember(cid, user, conn, func(ms core.MemberSession, peers []core.MemberSession) {
		adm.Room, adm.Member, adm.Peers = room, ms, peers
		if n != nil {
			n.Admitted(adm)
		}
	})
	f.index[cid] = id
	return adm, nil
}

// ensureRoomLocked gets or creates room id. The caller holds mu and must
// fill the room before releasing it.
func (f *RoomManagerImpl) ensureRoomLocked(id domain.ReviewID) core.RoomService {
	if room, ok := f.rooms[id]; ok {
		return room
	}
	room := core.NewRoomService(&domain.Room{ID: id})
	f.rooms[id] = room
	log.Info().Str("module", "app.rooms").Str("room", string(id)).Msg("room created")
	return room
}

// admitLocked checks the limits as they will stand once cid has left its
// current room.
func (f *RoomManagerImpl) admitLocked(id domain.ReviewID, cid domain.ConnID) error {
	prev, rejoin := f.index[cid]
	room, exists := f.rooms[id]
	switch {
	case !exists && f.limits.MaxRooms > 0:
		count := len(f.rooms)
		if rejoin && f.rooms[prev].MemberCount() == 1 {
			count--
		}
		if count >= f.limits.MaxRooms {
			return fmt.Errorf("%w: limit %d", core.ErrTooManyRooms, f.limits.MaxRooms)
		}
	case exists && f.limits.MaxParticipants > 0:
		count := room.MemberCount()
		if rejoin && prev == id {
			count--
		}
		if count >= f.limits.MaxParticipants {
			return fmt.Errorf("%w: limit %d", core.ErrRoomFull, f.limits.MaxParticipants)
		}
	}
	return nil
}

func (f *RoomManagerImpl) RemoveParticipant(cid domain.ConnID, n core.Notifier) (core.Departure, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.removeLocked(cid, n)
}

func (f *RoomManagerImpl) removeLocked(cid domain.ConnID, n core.Notifier) (core.Departure, bool) {
	id, ok := f.index[cid]
	if !ok {
		return core.Departure{}, false
	}
	delete(f.index, cid)

	room, ok := f.rooms[id]
	if !ok {
		return core.Departure{}, false
	}
	var dep core.Departure
	_, ok = room.RemoveMember(cid, func(ms core.MemberSession, peers []core.MemberSession) {
		dep = core.Departure{ReviewID: id, Room: room, Member: ms, Peers: peers, Closed: len(peers) == 0}
		if n != nil {
			n.Departed(dep)
		}
	})
	if !ok {
		return core.Departure{}, false
	}

	if dep.Closed {
		delete(f.rooms, id)
		log.Info().Str("module", "app.rooms").Str("room", string(id)).Msg("room empty, removed")
	}
	return dep, true
}

func (f *RoomManagerImpl) ListParticipants(id domain.ReviewID) []domain.Participant {
	f.mu.RLock()
	room, ok := f.rooms[id]
	f.mu.RUnlock()
	if !ok {
		return nil
	}
	return room.Participants()
}

func (f *RoomManagerImpl) GetRoom(id domain.ReviewID) (core.RoomService, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	room, ok := f.rooms[id]
	return room, ok
}

func (f *RoomManagerImpl) RoomOf(cid domain.ConnID) (domain.ReviewID, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	id, ok := f.index[cid]
	return id, ok
}

// List is sorted by review id.
func (f *RoomManagerImpl) List() []core.RoomInfo {
	f.mu.RLock()
	out := lo.MapToSlice(f.rooms, func(id domain.ReviewID, r core.RoomService) core.RoomInfo {
		return core.RoomInfo{ID: id, Participants: r.MemberCount()}
	})
	f.mu.RUnlock()
	slices.SortFunc(out, func(a, b core.RoomInfo) int {
		return strings.Compare(string(a.ID), string(b.ID))
	})
	return out
}

func (f *RoomManagerImpl) Count() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.rooms)
}
