package orch

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"

	"github.com/dkeye/Huddle/internal/domain"
	"github.com/dkeye/Huddle/internal/protocol"
)

func TestJoinScenario(t *testing.T) {
	o := newTestOrchestrator()
	ca, cb := newFakeConn("ca"), newFakeConn("cb")

	alice := mustJoin(t, o, ca, "R1", "alice")
	if len(alice.Participants) != 1 || len(alice.Others) != 0 {
		t.Fatalf("first join: expected [alice] and [], got %d and %d", len(alice.Participants), len(alice.Others))
	}
	if _, err := o.GetRoom("R1"); err != nil {
		t.Fatalf("room not created: %v", err)
	}

	bob := mustJoin(t, o, cb, "R1", "bob")
	if got := ids(bob.Participants); !slices.Equal(got, []domain.ParticipantID{alice.ParticipantID, bob.ParticipantID}) {
		t.Errorf("expected [alice bob], got %v", got)
	}
	if got := ids(bob.Others); !slices.Equal(got, []domain.ParticipantID{alice.ParticipantID}) {
		t.Errorf("expected others [alice], got %v", got)
	}

	joined := ca.ofType(t, protocol.TypeUserJoined)
	if len(joined) != 1 || joined[0].ParticipantID != bob.ParticipantID || joined[0].DisplayName != "bob" {
		t.Fatalf("alice should get one user_joined{bob}, got %+v", joined)
	}
	if len(cb.ofType(t, protocol.TypeUserJoined)) != 0 {
		t.Errorf("bob must not be told about himself")
	}
	if rj := cb.ofType(t, protocol.TypeRoomJoined); len(rj) != 1 || len(rj[0].Participants) != 2 {
		t.Errorf("bob should get room_joined with 2 participants, got %+v", rj)
	}
	assertConsistent(t, o)
}

func TestJoinRequiresRoom(t *testing.T) {
	o := newTestOrchestrator()
	_, err := o.Join(newFakeConn("c"), JoinRequest{DisplayName: "alice"})
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
	if o.Stats().Rooms != 0 {
		t.Errorf("rejected join mutated state")
	}
}

func TestJoinAcceptsUniqueCandidateIdentity(t *testing.T) {
	o := newTestOrchestrator()
	res, err := o.Join(newFakeConn("c1"), JoinRequest{RoomID: "R1", DisplayName: "alice", ParticipantID: "alice-id"})
	if err != nil || res.ParticipantID != "alice-id" {
		t.Fatalf("expected candidate identity, got %q (%v)", res.ParticipantID, err)
	}
	res, err = o.Join(newFakeConn("c2"), JoinRequest{RoomID: "R1", DisplayName: "bob", ParticipantID: "alice-id"})
	if err != nil || res.ParticipantID == "alice-id" {
		t.Fatalf("taken candidate must not be reused, got %q (%v)", res.ParticipantID, err)
	}
}

func TestReconnectReusesIdentityAndJoinTime(t *testing.T) {
	o := newTestOrchestrator()
	c1, c2, cb := newFakeConn("c1"), newFakeConn("c2"), newFakeConn("cb")

	first := mustJoin(t, o, c1, "R1", "alice")
	mustJoin(t, o, cb, "R1", "bob")
	again, err := o.Join(c2, JoinRequest{RoomID: "R1", DisplayName: "alice", ParticipantID: "something-else"})
	if err != nil {
		t.Fatalf("rejoin failed: %v", err)
	}
	if again.ParticipantID != first.ParticipantID || !again.Reconnected {
		t.Fatalf("expected identity %s reused, got %s", first.ParticipantID, again.ParticipantID)
	}
	if !again.Participants[0].JoinedAt.Equal(first.Participants[0].JoinedAt) {
		t.Errorf("join time not backdated: %v vs %v", again.Participants[0].JoinedAt, first.Participants[0].JoinedAt)
	}
	if len(again.Participants) != 2 {
		t.Errorf("duplicate member created: %d participants", len(again.Participants))
	}
	if slices.Contains(ids(again.Others), again.ParticipantID) {
		t.Errorf("others contains self")
	}

	// The stale close of the first transport arrives late.
	cb.reset()
	if o.Reap(c1) {
		t.Fatalf("stale reap evicted the reconnected session")
	}
	if conn, ok := o.Registry.Lookup(first.ParticipantID); !ok || conn != c2 {
		t.Fatalf("binding lost after stale reap")
	}
	if n := len(cb.decoded(t)); n != 0 {
		t.Errorf("stale reap produced %d frames", n)
	}
	assertConsistent(t, o)
}

func TestReapScenario(t *testing.T) {
	o := newTestOrchestrator()
	ca, cb := newFakeConn("ca"), newFakeConn("cb")
	alice := mustJoin(t, o, ca, "R1", "alice")
	mustJoin(t, o, cb, "R1", "bob")
	cb.reset()

	if !o.Reap(ca) {
		t.Fatalf("expected reap to remove alice")
	}
	left := cb.ofType(t, protocol.TypeUserLeft)
	if len(left) != 1 || left[0].ParticipantID != alice.ParticipantID || left[0].DisplayName != "alice" {
		t.Fatalf("bob should get exactly one user_left{alice}, got %+v", left)
	}

	if o.Reap(ca) {
		t.Errorf("duplicate reap changed state")
	}
	if n := len(cb.decoded(t)); n != 1 {
		t.Errorf("duplicate reap produced frames: %d total", n)
	}
	if _, err := o.GetRoom("R1"); err != nil {
		t.Errorf("room must survive member departure: %v", err)
	}
	assertConsistent(t, o)
}

func TestReapAfterLeaveIsNoop(t *testing.T) {
	o := newTestOrchestrator()
	ca, cb := newFakeConn("ca"), newFakeConn("cb")
	alice := mustJoin(t, o, ca, "R1", "alice")
	mustJoin(t, o, cb, "R1", "bob")
	cb.reset()

	if err := o.Leave("R1", alice.ParticipantID, ""); err != nil {
		t.Fatalf("Leave failed: %v", err)
	}
	if n := len(cb.ofType(t, protocol.TypeUserLeft)); n != 1 {
		t.Fatalf("expected one user_left, got %d", n)
	}
	if o.Reap(ca) {
		t.Errorf("reap after leave changed state")
	}
	if err := o.Leave("R1", alice.ParticipantID, ""); err != nil {
		t.Errorf("second Leave should be a no-op, got %v", err)
	}
	if n := len(cb.decoded(t)); n != 1 {
		t.Errorf("expected no further frames, got %d total", n)
	}
	assertConsistent(t, o)
}

func TestReapUnjoinedConnection(t *testing.T) {
	o := newTestOrchestrator()
	if o.Reap(newFakeConn("fresh")) {
		t.Errorf("reap of a connection that never joined must be a no-op")
	}
}

func TestLeaveValidationAndEmptyRoomKept(t *testing.T) {
	o := newTestOrchestrator()
	if err := o.Leave("", "x", ""); !errors.Is(err, domain.ErrInvalidRequest) {
		t.Errorf("expected ErrInvalidRequest, got %v", err)
	}
	alice := mustJoin(t, o, newFakeConn("ca"), "R1", "alice")
	if err := o.Leave("R1", alice.ParticipantID, ""); err != nil {
		t.Fatalf("Leave failed: %v", err)
	}
	room, err := o.GetRoom("R1")
	if err != nil || room.ParticipantCount != 0 || !room.Active {
		t.Errorf("expected empty active room, got %+v (%v)", room, err)
	}
	if err := o.Leave("nope", "ghost", ""); err != nil {
		t.Errorf("unknown room leave should be a no-op, got %v", err)
	}
}

func TestJoinAnotherRoomLeavesPrevious(t *testing.T) {
	o := newTestOrchestrator()
	ca, cb := newFakeConn("ca"), newFakeConn("cb")
	alice := mustJoin(t, o, ca, "R1", "alice")
	mustJoin(t, o, cb, "R1", "bob")
	cb.reset()

	moved := mustJoin(t, o, ca, "R2", "alice")
	if moved.ParticipantID == alice.ParticipantID {
		t.Errorf("moving rooms should allocate a new identity")
	}
	if n := len(cb.ofType(t, protocol.TypeUserLeft)); n != 1 {
		t.Errorf("R1 should see alice leave, got %d user_left", n)
	}
	r1, _ := o.GetRoom("R1")
	if r1.ParticipantCount != 1 {
		t.Errorf("expected bob alone in R1, got %d", r1.ParticipantCount)
	}
	assertConsistent(t, o)
}

func TestDeleteRoom(t *testing.T) {
	o := newTestOrchestrator()
	ca, cb, cx := newFakeConn("ca"), newFakeConn("cb"), newFakeConn("cx")
	alice := mustJoin(t, o, ca, "R1", "alice")
	mustJoin(t, o, cb, "R1", "bob")
	mustJoin(t, o, cx, "R2", "carol")

	if err := o.DeleteRoom("R1"); err != nil {
		t.Fatalf("DeleteRoom failed: %v", err)
	}
	for _, c := range []*fakeConn{ca, cb} {
		if n := len(c.ofType(t, protocol.TypeRoomClosed)); n != 1 {
			t.Errorf("%s expected room_closed, got %d", c.id, n)
		}
	}
	if n := len(cx.ofType(t, protocol.TypeRoomClosed)); n != 0 {
		t.Errorf("other room was notified")
	}
	if _, err := o.GetRoom("R1"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if _, err := o.Participant(alice.ParticipantID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("participants of deleted room should be gone")
	}
	if o.Reap(ca) {
		t.Errorf("reap after room deletion changed state")
	}
	if err := o.DeleteRoom("R1"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
	st := o.Stats()
	if st.Rooms != 1 || st.Participants != 1 || st.Connections != 1 {
		t.Errorf("unexpected stats %+v", st)
	}
	assertConsistent(t, o)
}

func TestCreateAndListRooms(t *testing.T) {
	o := newTestOrchestrator()
	created := o.CreateRoom()
	if created.ID == "" || created.Name != domain.RoomName(created.ID) || !created.Active {
		t.Fatalf("unexpected created room %+v", created)
	}
	mustJoin(t, o, newFakeConn("c"), "lazy", "alice")

	rooms := o.ListActiveRooms()
	if len(rooms) != 2 {
		t.Fatalf("expected 2 rooms, got %d", len(rooms))
	}
	if rooms[0].ID != created.ID || rooms[1].ParticipantCount != 1 {
		t.Errorf("unexpected listing %+v", rooms)
	}
}

// Every pair of concurrent joiners must end up with exactly one of the two
// holding the other in its Others list, so exactly one side initiates.
func TestConcurrentJoinsGiveOneInitiatorPerPair(t *testing.T) {
	o := newTestOrchestrator()
	const n = 24
	results := make([]JoinResult, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := o.Join(newFakeConn(fmt.Sprintf("c%d", i)), JoinRequest{RoomID: "R", DisplayName: fmt.Sprintf("user-%d", i)})
			if err != nil {
				t.Errorf("join %d: %v", i, err)
			}
			results[i] = res
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		if slices.Contains(ids(results[i].Others), results[i].ParticipantID) {
			t.Fatalf("participant %d sees itself in others", i)
		}
		for j := i + 1; j < n; j++ {
			iSeesJ := slices.Contains(ids(results[i].Others), results[j].ParticipantID)
			jSeesI := slices.Contains(ids(results[j].Others), results[i].ParticipantID)
			if iSeesJ == jSeesI {
				t.Fatalf("pair (%d,%d): iSeesJ=%v jSeesI=%v", i, j, iSeesJ, jSeesI)
			}
		}
	}
	assertConsistent(t, o)
}

func TestMembershipNeverDrifts(t *testing.T) {
	o := newTestOrchestrator()
	conns := make([]*fakeConn, 6)
	for i := range conns {
		conns[i] = newFakeConn(fmt.Sprintf("c%d", i))
	}
	rooms := []domain.RoomID{"A", "B"}
	var joined []JoinResult
	for step := 0; step < 60; step++ {
		c := conns[step%len(conns)]
		room := rooms[(step/3)%len(rooms)]
		switch step % 5 {
		case 0, 1, 3:
			joined = append(joined, mustJoin(t, o, c, room, fmt.Sprintf("u%d", step%4)))
		case 2:
			if len(joined) > 0 {
				j := joined[step%len(joined)]
				_ = o.Leave(j.RoomID, j.ParticipantID, "")
			}
		case 4:
			o.Reap(c)
		}
		assertConsistent(t, o)
	}
}
