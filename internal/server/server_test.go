package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/gravsim/internal/gravity"
)

func startServer(t *testing.T) (*Server, *websocket.Conn) {
	t.Helper()
	eng, err := gravity.New([]gravity.Body{{Position: r3.Vec{}, Mass: 1e7}})
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	s := New(eng, Options{FPS: 100, TicksPerFrame: 1}, log.New(io.Discard))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	ts := httptest.NewServer(s.Handler())
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		cancel()
		ts.Close()
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() {
		conn.Close()
		cancel()
		<-done
		ts.Close()
	})
	return s, conn
}

func next(t *testing.T, conn *websocket.Conn, typ string) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read: %v", err)
		}
		if msg.Type == typ {
			return msg
		}
	}
}

func TestFramesStream(t *testing.T) {
	_, conn := startServer(t)

	first := next(t, conn, TypeFrame)
	second := next(t, conn, TypeFrame)
	if second.Tick <= first.Tick {
		t.Errorf("tick did not advance: %d then %d", first.Tick, second.Tick)
	}
	if len(first.Bodies) != 1 {
		t.Fatalf("bodies = %d, want 1", len(first.Bodies))
	}
	if first.Barycenter == nil {
		t.Fatal("frame without barycenter")
	}
	if !strings.HasPrefix(first.Bodies[0].Color, "#") {
		t.Errorf("color = %q, want hex", first.Bodies[0].Color)
	}
}

func TestAddAppearsInNextFrame(t *testing.T) {
	_, conn := startServer(t)
	next(t, conn, TypeFrame)

	if err := conn.WriteJSON(Request{Op: "add", Pos: [3]float64{30, 0, 0}, Class: "small"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	ack := next(t, conn, TypeAdded)
	if ack.ID == nil || *ack.ID != 1 {
		t.Fatalf("ack id = %v, want 1", ack.ID)
	}
	frame := next(t, conn, TypeFrame)
	if len(frame.Bodies) != 2 {
		t.Fatalf("bodies = %d, want 2", len(frame.Bodies))
	}
	if frame.Bodies[1].ID != 1 {
		t.Errorf("new body id = %d, want 1", frame.Bodies[1].ID)
	}
}

func TestRejectedRequests(t *testing.T) {
	_, conn := startServer(t)

	cases := []struct {
		name string
		req  Request
		want string
	}{
		{"coincident", Request{Op: "add", Pos: [3]float64{0, 0, 0}}, "coincident"},
		{"unknown op", Request{Op: "remove"}, "unknown op"},
		{"unknown class", Request{Op: "add", Pos: [3]float64{5, 0, 0}, Class: "huge"}, "huge"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := conn.WriteJSON(tc.req); err != nil {
				t.Fatalf("write: %v", err)
			}
			msg := next(t, conn, TypeError)
			if !strings.Contains(msg.Error, tc.want) {
				t.Errorf("error = %q, want it to mention %q", msg.Error, tc.want)
			}
		})
	}

	frame := next(t, conn, TypeFrame)
	if len(frame.Bodies) != 1 {
		t.Errorf("bodies = %d after rejected inserts, want 1", len(frame.Bodies))
	}
}

func TestMalformedRequests(t *testing.T) {
	_, conn := startServer(t)

	for _, raw := range []string{
		`{nope`,
		`{"op":"add"`,
		`{"op":"add","pos":"abc"}`,
		`{"op":"add","pos":[1,2]`,
	} {
		t.Run(raw, func(t *testing.T) {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(raw)); err != nil {
				t.Fatalf("write: %v", err)
			}
			msg := next(t, conn, TypeError)
			if !strings.Contains(msg.Error, "malformed request") {
				t.Errorf("error = %q, want malformed request", msg.Error)
			}
		})
	}

	// The connection survives and still accepts inserts.
	if err := conn.WriteJSON(Request{Op: "add", Pos: [3]float64{30, 0, 0}}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if ack := next(t, conn, TypeAdded); ack.ID == nil || *ack.ID != 1 {
		t.Fatalf("ack id = %v, want 1", ack.ID)
	}
}

func TestReplyDoesNotBlockOnFullBuffer(t *testing.T) {
	eng, _ := gravity.New(gravity.Binary())
	s := New(eng, Options{}, log.New(io.Discard))

	c := &client{send: make(chan []byte, 1)}
	c.send <- []byte("pending")
	s.register(c)

	done := make(chan struct{})
	go func() {
		s.reply(c, added(2, 0))
		s.broadcast(frameOf(eng))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reply blocked on a full client buffer")
	}
	if got := string(<-c.send); got != "pending" {
		t.Errorf("queued data = %q, want the original entry", got)
	}
}

func TestHealthz(t *testing.T) {
	eng, _ := gravity.New(gravity.Binary())
	ts := httptest.NewServer(New(eng, Options{}, log.New(io.Discard)).Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
}
