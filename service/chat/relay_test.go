package chat

import (
	"encoding/json"
	"errors"
	"testing"

	"ChatStory/tools/errs"
)

func pair(t *testing.T, h *Hub) (a string, chA *recordingChannel, b string, chB *recordingChannel) {
	t.Helper()
	a, chA = connect(t, h)
	b, chB = connect(t, h)
	if err := h.Enqueue(a); err != nil {
		t.Fatalf("Enqueue(a): %v", err)
	}
	if err := h.Enqueue(b); err != nil {
		t.Fatalf("Enqueue(b): %v", err)
	}
	if peerOf(t, h, a) != b {
		t.Fatalf("setup: %s not paired with %s", a, b)
	}
	return a, chA, b, chB
}

func TestEndToEnd(t *testing.T) {
	h := newTestHub(t, Options{})
	id1, ch1 := connect(t, h)
	id2, ch2 := connect(t, h)

	_ = h.Enqueue(id1)
	if ch1.count(Matched()) != 0 {
		t.Fatal("a single waiting session must not be matched")
	}
	_ = h.Enqueue(id2)

	if ch1.count(Matched()) != 1 || ch2.count(Matched()) != 1 {
		t.Fatal("both sides should receive a match event")
	}
	if peerOf(t, h, id1) != id2 || peerOf(t, h, id2) != id1 {
		t.Fatal("pairing should be symmetric")
	}

	before1 := len(ch1.Events())
	if err := h.SendMessage(id1, "hello", false); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if ch2.count(Message(id1, "hello")) != 1 {
		t.Errorf("peer did not get the message: %+v", ch2.Events())
	}
	if len(ch1.Events()) != before1 {
		t.Error("sender must not receive its own message")
	}

	if err := h.Leave(id1); err != nil {
		t.Fatalf("Leave: %v", err)
	}
	if ch2.count(PeerLeft()) != 1 {
		t.Error("peer should be told the chat ended")
	}
	if ch1.count(PeerLeft()) != 0 {
		t.Error("leaving side is not notified")
	}
	if peerOf(t, h, id1) != "" || peerOf(t, h, id2) != "" {
		t.Error("both peers should be cleared")
	}
	assertSymmetric(t, h)
}

func TestTyping_RelaysHint(t *testing.T) {
	h := newTestHub(t, Options{})
	a, _, _, chB := pair(t, h)

	if err := h.Typing(a); err != nil {
		t.Fatalf("Typing: %v", err)
	}
	if chB.count(Typing(a)) != 1 {
		t.Errorf("hint not relayed: %+v", chB.Events())
	}
}

func TestSend_StalePairDetected(t *testing.T) {
	h := newTestHub(t, Options{})
	a, chA, b, chB := pair(t, h)

	// b disappears without teardown
	h.mu.Lock()
	delete(h.sessions, b)
	h.queue.Add(a)
	h.mu.Unlock()

	if err := h.SendMessage(a, "hi", false); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	if peerOf(t, h, a) != "" {
		t.Error("a.peer should be cleared")
	}
	if h.queue.Contains(a) {
		t.Error("a should be removed from the queue")
	}
	if chA.count(PeerLeft()) != 1 {
		t.Error("a should be told its peer left")
	}
	for _, ev := range chB.Events() {
		if ev.Type == EventInfo {
			t.Error("message must not be forwarded to a stale peer")
		}
	}
}

func TestSend_AsymmetricPeer(t *testing.T) {
	h := newTestHub(t, Options{})
	a, chA, b, chB := pair(t, h)
	c, _ := connect(t, h)

	h.mu.Lock()
	h.sessions[b].Peer = c
	h.mu.Unlock()

	_ = h.SendMessage(a, "anyone?", false)

	if chA.count(PeerLeft()) != 1 || peerOf(t, h, a) != "" {
		t.Error("a should be unpaired and notified")
	}
	if chB.count(Message(a, "anyone?")) != 0 {
		t.Error("message must not be delivered across an asymmetric pairing")
	}
	if peerOf(t, h, b) != c {
		t.Error("b's own pairing should be untouched")
	}
}

func TestSend_Unpaired(t *testing.T) {
	h := newTestHub(t, Options{})
	a, chA := connect(t, h)
	_ = h.Enqueue(a)

	_ = h.Typing(a)

	if chA.count(PeerLeft()) != 1 {
		t.Error("unpaired sender should get peer-left")
	}
	if h.queue.Contains(a) {
		t.Error("unpaired sender is dropped from the queue")
	}
}

func TestSend_UnknownSender(t *testing.T) {
	h := newTestHub(t, Options{})
	if err := h.SendMessage("ghost", "x", false); !errors.Is(err, errs.ErrSessionUnknown) {
		t.Errorf("err = %v, want ErrSessionUnknown", err)
	}
}

func TestLeave_Idempotent(t *testing.T) {
	h := newTestHub(t, Options{})
	a, chA, b, chB := pair(t, h)

	_ = h.Leave(a)
	first := h.Stats()
	_ = h.Leave(a)

	if h.Stats() != first {
		t.Errorf("second leave changed state: %+v -> %+v", first, h.Stats())
	}
	if chB.count(PeerLeft()) != 1 {
		t.Errorf("peer-left delivered %d times, want 1", chB.count(PeerLeft()))
	}
	if chA.count(PeerLeft()) != 0 {
		t.Error("leaving side should not be notified")
	}
	if peerOf(t, h, b) != "" {
		t.Error("b should be unpaired")
	}
}

func TestLeave_PeerPointingElsewhereUntouched(t *testing.T) {
	h := newTestHub(t, Options{})
	a, _, b, chB := pair(t, h)
	c, _ := connect(t, h)

	h.mu.Lock()
	h.sessions[b].Peer = c
	h.mu.Unlock()

	_ = h.Leave(a)

	if peerOf(t, h, b) != c || chB.count(PeerLeft()) != 0 {
		t.Error("a session paired elsewhere must not be torn down")
	}
	if peerOf(t, h, a) != "" {
		t.Error("leaving side should be cleared")
	}
}

func TestSendWithHint_Paired(t *testing.T) {
	h := newTestHub(t, Options{})
	a, _, _, chB := pair(t, h)

	if err := h.SendWithHint(a, "hi"); err != nil {
		t.Fatalf("SendWithHint: %v", err)
	}
	got := chB.Events()
	tail := got[len(got)-2:]
	if tail[0] != Typing(a) || tail[1] != Message(a, "hi") {
		t.Errorf("peer events = %+v", tail)
	}
}

func TestSendWithHint_UnpairedSenderToldOnce(t *testing.T) {
	h := newTestHub(t, Options{})
	a, chA := connect(t, h)

	if err := h.SendWithHint(a, "anyone?"); err != nil {
		t.Fatalf("SendWithHint: %v", err)
	}
	if n := chA.count(PeerLeft()); n != 1 {
		t.Errorf("sender got %d plve events, want 1", n)
	}

	if err := h.SendWithHint("ghost", "x"); !errors.Is(err, errs.ErrSessionUnknown) {
		t.Errorf("unknown sender err = %v", err)
	}
}

func TestLeave_WhileWaitingDequeues(t *testing.T) {
	h := newTestHub(t, Options{})
	a, _ := connect(t, h)
	_ = h.Enqueue(a)

	_ = h.Leave(a)

	if h.queue.Contains(a) {
		t.Error("leave should withdraw a waiting session")
	}
}

func TestEventPayload_EscapesText(t *testing.T) {
	raw, err := Message("s1", `say "hi"`+"\n").Payload()
	if err != nil {
		t.Fatalf("Payload: %v", err)
	}
	var got InfoPayload
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("payload is not valid JSON: %s", raw)
	}
	if got.Msg != `say "hi"`+"\n" || got.Sender != "s1" {
		t.Errorf("round trip = %+v", got)
	}
}

func TestEventPayload_Wire(t *testing.T) {
	tests := []struct {
		ev   Event
		typ  EventType
		want string
	}{
		{AssignedID("abc"), EventOper, `{"oper":"id","data":"abc"}`},
		{Matched(), EventOper, `{"oper":"match"}`},
		{PeerLeft(), EventOper, `{"oper":"plve"}`},
		{Typing("abc"), EventHint, `{"sender":"abc"}`},
		{Message("abc", "yo"), EventInfo, `{"sender":"abc","msg":"yo"}`},
	}
	for _, tt := range tests {
		raw, err := tt.ev.Payload()
		if err != nil {
			t.Fatalf("Payload: %v", err)
		}
		if tt.ev.Type != tt.typ || string(raw) != tt.want {
			t.Errorf("%s %s, want %s %s", tt.ev.Type, raw, tt.typ, tt.want)
		}
	}
}
