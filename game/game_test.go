package game

import (
	"errors"
	"math"
	"math/rand/v2"
	"sync"
	"testing"

	"arena-server/motion"
	"arena-server/protocol"
)

// mockBroadcaster captures sent messages for testing
type mockBroadcaster struct {
	mu       sync.Mutex
	messages []interface{}
	frames   [][]byte
}

func (m *mockBroadcaster) SendJSON(msg interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
}

func (m *mockBroadcaster) SendBinary(data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frames = append(m.frames, data)
}

func (m *mockBroadcaster) ofType(t string) []protocol.Envelope {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []protocol.Envelope
	for _, msg := range m.messages {
		if env, ok := msg.(protocol.Envelope); ok && env.T == t {
			out = append(out, env)
		}
	}
	return out
}

type recordingSink struct {
	events []Event
}

func (s *recordingSink) Track(evt Event) {
	s.events = append(s.events, evt)
}

func newTestGame(cfg Config, sink EventSink) *Game {
	return NewGameWithRand(cfg, sink, rand.New(rand.NewPCG(3, 4)))
}

func joinAt(t *testing.T, g *Game, name string, head motion.Point, angle float64) (*Player, *mockBroadcaster) {
	t.Helper()
	mock := &mockBroadcaster{}
	joined, err := g.Join(name, mock)
	if err != nil {
		t.Fatalf("join %s: %v", name, err)
	}
	p, _ := g.world.Player(joined.ID)
	p.Body = motion.NewBody(head, angle, g.cfg.InitialLength, g.cfg.SegmentSpacing)
	return p, mock
}

func TestGameJoinSendsJoinedFirst(t *testing.T) {
	cfg := testConfig()
	g := newTestGame(cfg, nil)
	mock := &mockBroadcaster{}

	joined, err := g.Join("Viper", mock)
	if err != nil {
		t.Fatal(err)
	}
	if joined.ID == "" || joined.Player.Name != "Viper" {
		t.Errorf("unexpected joined message %+v", joined)
	}
	if joined.SimulationTickRate != cfg.TickRate || joined.NetworkTickRate != cfg.NetworkRate {
		t.Errorf("unexpected rates %+v", joined)
	}

	for i := uint64(0); i < cfg.BroadcastEvery(); i++ {
		g.update()
	}
	if len(mock.messages) == 0 {
		t.Fatal("no messages sent")
	}
	first, ok := mock.messages[0].(protocol.Envelope)
	if !ok || first.T != protocol.MsgJoined {
		t.Fatalf("expected joined first, got %+v", mock.messages[0])
	}
	if len(mock.frames) != 1 {
		t.Fatalf("expected one state frame, got %d", len(mock.frames))
	}
	gs, err := protocol.DecodeState(mock.frames[0])
	if err != nil {
		t.Fatal(err)
	}
	if gs.Tick != cfg.BroadcastEvery() || len(gs.Players) != 1 || gs.Players[0].ID != joined.ID {
		t.Errorf("unexpected state %+v", gs)
	}
}

func TestGameBroadcastCadence(t *testing.T) {
	cfg := testConfig()
	g := newTestGame(cfg, nil)
	_, mock := joinAt(t, g, "A", motion.Point{}, 0)

	for i := 0; i < cfg.TickRate; i++ {
		g.update()
	}
	if len(mock.frames) != cfg.NetworkRate {
		t.Errorf("expected %d frames per second, got %d", cfg.NetworkRate, len(mock.frames))
	}
	if st := g.Stats(); st.Tick != uint64(cfg.TickRate) || st.Players != 1 || st.Connections != 1 {
		t.Errorf("unexpected stats %+v", st)
	}
}

func TestGameFull(t *testing.T) {
	cfg := testConfig()
	cfg.MaxPlayers = 1
	g := newTestGame(cfg, nil)
	if _, err := g.Join("A", &mockBroadcaster{}); err != nil {
		t.Fatal(err)
	}
	if _, err := g.Join("B", &mockBroadcaster{}); !errors.Is(err, ErrGameFull) {
		t.Errorf("expected ErrGameFull, got %v", err)
	}
}

func TestGameKillScenario(t *testing.T) {
	cfg := testConfig()
	sink := &recordingSink{}
	g := newTestGame(cfg, sink)
	a, mockA := joinAt(t, g, "A", motion.Point{}, 0)
	b, mockB := joinAt(t, g, "B", motion.Point{X: 3, Y: 75}, math.Pi/2)
	a.Score = 6

	g.update()
	if a.Alive || !b.Alive {
		t.Fatal("expected a to die on b's body")
	}
	if b.Score != 3 {
		t.Errorf("expected b to gain 3, got %d", b.Score)
	}

	for i := uint64(0); i < cfg.RespawnTicks(); i++ {
		g.update()
	}

	died := mockA.ofType(protocol.MsgDied)
	if len(died) != 1 {
		t.Fatalf("expected one died message, got %d", len(died))
	}
	msg := died[0].Data.(protocol.DiedMsg)
	if msg.Score != 6 || msg.Killer == nil || *msg.Killer != "B" {
		t.Errorf("unexpected died message %+v", msg)
	}
	if got := len(mockA.ofType(protocol.MsgRespawned)); got != 1 {
		t.Fatalf("expected one respawned message, got %d", got)
	}
	resp := mockA.ofType(protocol.MsgRespawned)[0].Data.(protocol.RespawnedMsg)
	if resp.Player.ID != a.ID || !resp.Player.Alive || resp.Player.Length != cfg.InitialLength || resp.Player.Score != 0 {
		t.Errorf("unexpected respawned player %+v", resp.Player)
	}
	if len(mockB.ofType(protocol.MsgDied)) != 0 {
		t.Error("killer should not get a died message")
	}

	var joins, deaths, respawns int
	for _, evt := range sink.events {
		switch evt.Kind {
		case EventJoin:
			joins++
		case EventDeath:
			deaths++
		case EventRespawn:
			respawns++
		}
	}
	if joins != 2 || deaths != 1 || respawns != 1 {
		t.Errorf("unexpected tracked events: %d joins %d deaths %d respawns", joins, deaths, respawns)
	}
}

func TestGameBoundaryDeathHasNoKiller(t *testing.T) {
	g := newTestGame(testConfig(), nil)
	_, mock := joinAt(t, g, "A", motion.Point{X: 1999}, 0)
	g.update()

	died := mock.ofType(protocol.MsgDied)
	if len(died) != 1 {
		t.Fatalf("expected died message, got %d", len(died))
	}
	if died[0].Data.(protocol.DiedMsg).Killer != nil {
		t.Error("boundary death should carry no killer")
	}
}

func TestGameLeaveAndKick(t *testing.T) {
	g := newTestGame(testConfig(), nil)
	a, _ := joinAt(t, g, "A", motion.Point{}, 0)
	b, mockB := joinAt(t, g, "B", motion.Point{X: 500}, 0)

	if err := g.Leave(a.ID); err != nil {
		t.Fatal(err)
	}
	if err := g.Kick(b.ID); err != nil {
		t.Fatal(err)
	}
	if len(mockB.ofType(protocol.MsgError)) != 1 {
		t.Error("kicked player should be told")
	}
	if err := g.Kick(b.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	g.update()
	if st := g.Stats(); st.Players != 0 || st.Connections != 0 {
		t.Errorf("expected empty game, got %+v", st)
	}
}

func TestGameInputReachesPlayer(t *testing.T) {
	g := newTestGame(testConfig(), nil)
	p, _ := joinAt(t, g, "A", motion.Point{}, 0)

	boost := true
	if !g.Input(p.ID, protocol.InputMsg{Boosting: &boost}) {
		t.Fatal("expected input to be accepted")
	}
	g.update()
	if !p.Boosting {
		t.Error("expected boost after tick")
	}
}

func TestGameStopRejectsJoin(t *testing.T) {
	g := newTestGame(testConfig(), nil)
	done := make(chan struct{})
	go func() {
		g.Run()
		close(done)
	}()
	g.Stop()
	<-done
	g.Stop()

	if _, err := g.Join("late", &mockBroadcaster{}); !errors.Is(err, ErrStopped) {
		t.Errorf("expected ErrStopped, got %v", err)
	}
}
