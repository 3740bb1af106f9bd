package orch

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dkeye/Huddle/internal/app"
	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
)

type fakeConn struct {
	id core.ConnID

	mu     sync.Mutex
	frames []core.Frame
	closed bool
}

func newFakeConn(id string) *fakeConn { return &fakeConn{id: core.ConnID(id)} }

func (c *fakeConn) ID() core.ConnID { return c.id }

func (c *fakeConn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.New("closed")
	}
	c.frames = append(c.frames, f)
	return nil
}

func (c *fakeConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

type frame struct {
	Type          string                   `json:"type"`
	ParticipantID domain.ParticipantID     `json:"participant_id"`
	DisplayName   string                   `json:"display_name"`
	From          domain.ParticipantID     `json:"from"`
	RoomID        domain.RoomID            `json:"room_id"`
	Enabled       bool                     `json:"enabled"`
	Message       string                   `json:"message"`
	Payload       json.RawMessage          `json:"payload"`
	Participants  []domain.ParticipantView `json:"participants"`
	TargetName    string                   `json:"target_name"`
	ActorName     string                   `json:"actor_name"`
}

func (c *fakeConn) decoded(t *testing.T) []frame {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]frame, 0, len(c.frames))
	for _, raw := range c.frames {
		var f frame
		if err := json.Unmarshal(raw, &f); err != nil {
			t.Fatalf("bad frame %s: %v", raw, err)
		}
		out = append(out, f)
	}
	return out
}

func (c *fakeConn) ofType(t *testing.T, typ string) []frame {
	t.Helper()
	var out []frame
	for _, f := range c.decoded(t) {
		if f.Type == typ {
			out = append(out, f)
		}
	}
	return out
}

func (c *fakeConn) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = nil
}

func newTestOrchestrator() *Orchestrator {
	o := New(app.NewRegistry(), app.NewDirectory(), app.NewRoomManager(), app.SimplePolicy{})
	var mu sync.Mutex
	clock := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	o.Now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		clock = clock.Add(time.Second)
		return clock
	}
	return o
}

func mustJoin(t *testing.T, o *Orchestrator, conn core.SignalConnection, room domain.RoomID, name string) JoinResult {
	t.Helper()
	res, err := o.Join(conn, JoinRequest{RoomID: room, DisplayName: name})
	if err != nil {
		t.Fatalf("Join(%s, %s) failed: %v", room, name, err)
	}
	return res
}

func ids(views []domain.ParticipantView) []domain.ParticipantID {
	out := make([]domain.ParticipantID, 0, len(views))
	for _, v := range views {
		out = append(out, v.ID)
	}
	return out
}

// assertConsistent checks that room membership and participant current-room
// agree in both directions.
func assertConsistent(t *testing.T, o *Orchestrator) {
	t.Helper()
	o.mu.Lock()
	defer o.mu.Unlock()
	members := 0
	for _, room := range o.Rooms.List() {
		for _, id := range room.Members() {
			members++
			p, ok := o.Directory.Get(id)
			if !ok {
				t.Fatalf("room %s lists unknown participant %s", room.Room().ID, id)
			}
			if p.RoomID != room.Room().ID {
				t.Fatalf("participant %s is in %s but listed by %s", id, p.RoomID, room.Room().ID)
			}
		}
	}
	if members != o.Directory.Count() {
		t.Fatalf("directory has %d participants, rooms list %d", o.Directory.Count(), members)
	}
}
