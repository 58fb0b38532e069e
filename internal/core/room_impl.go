package core

import (
	"sync"

	"github.com/dkeye/CodeLens/internal/domain"
	"github.com/rs/zerolog/log"
)

// roomImpl is a threadsafe in-memory room.
// It never closes adapter-owned resources.
type roomImpl struct {
	room   *domain.Room
	mu     sync.RWMutex
	order  []domain.ConnID
	byConn map[domain.ConnID]MemberSession
}

func NewRoomService(room *domain.Room) RoomService {
	return &roomImpl{
		room:   room,
		byConn: make(map[domain.ConnID]MemberSession),
	}
}

func (r *roomImpl) Room() *domain.Room { return r.room }

func (r *roomImpl) MemberCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

func (r *roomImpl) AddMember(cid domain.ConnID, user domain.User, conn SignalConnection, hook MemberHook) (MemberSession, []MemberSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byConn[cid]; ok {
		r.removeLocked(cid)
	}
	peers := r.membersLocked()
	meta := &domain.Participant{
		ConnID: cid,
		User:   user,
		Color:  domain.ColorFor(len(r.order)),
	}
	ms := NewMemberSession(meta, conn)
	r.byConn[cid] = ms
	r.order = append(r.order, cid)
	log.Info().Str("module", "core.room").Str("room", string(r.room.ID)).Str("sid", string(cid)).Str("user", string(user.ID)).Str("color", meta.Color).Msg("member added")
	if hook != nil {
		hook(ms, peers)
	}
	return ms, peers
}

func (r *roomImpl) RemoveMember(cid domain.ConnID, hook MemberHook) (MemberSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ms, ok := r.removeLocked(cid)
	if !ok {
		return nil, false
	}
	log.Info().Str("module", "core.room").Str("room", string(r.room.ID)).Str("sid", string(cid)).Msg("member removed")
	if hook != nil {
		hook(ms, r.membersLocked())
	}
	return ms, true
}

func (r *roomImpl) removeLocked(cid domain.ConnID) (MemberSession, bool) {
	ms, ok := r.byConn[cid]
	if !ok {
		return nil, false
	}
	delete(r.byConn, cid)
	for i, id := range r.order {
		if id == cid {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return ms, true
}

func (r *roomImpl) membersLocked() []MemberSession {
	out := make([]MemberSession, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byConn[id])
	}
	return out
}

func (r *roomImpl) Broadcast(from domain.ConnID, data Frame, self bool) (PublishResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := PublishResult{}
	if _, ok := r.byConn[from]; !ok {
		return res, ErrNotJoined
	}
	for _, sid := range r.order {
		if sid == from && !self {
			continue
		}
		m := r.byConn[sid]
		if err := m.Signal().TrySend(data); err != nil {
			res.Dropped = append(res.Dropped, m)
			continue
		}
		res.SendTo++
	}
	log.Debug().Str("module", "core.room").Str("from", string(from)).Int("sent_to", res.SendTo).Int("dropped", len(res.Dropped)).Msg("broadcast result")
	return res, nil
}

func (r *roomImpl) Participants() []domain.Participant {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Participant, 0, len(r.order))
	for _, sid := range r.order {
		out = append(out, *r.byConn[sid].Meta())
	}
	return out
}

func (r *roomImpl) MembersSnapshot() []domain.ActiveUser {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.ActiveUser, 0, len(r.order))
	for _, sid := range r.order {
		out = append(out, r.byConn[sid].Meta().View())
	}
	return out
}
