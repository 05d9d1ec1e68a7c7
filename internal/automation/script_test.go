package automation

import (
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/gravsim/internal/config"
	"github.com/san-kum/gravsim/internal/gravity"
)

const sample = `
name: demo
seed: 7
events:
  - tick: 10
    op: random
    count: 3
    spread: 50
  - tick: 0
    op: add
    position: [30, 0, 0]
  - tick: 5
    op: add
    position: [-40, 0, 0]
    class: large
`

func TestParse_SortsByTick(t *testing.T) {
	s, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if s.Name != "demo" || s.Seed != 7 {
		t.Errorf("header = %q/%d", s.Name, s.Seed)
	}
	want := []uint64{0, 5, 10}
	for i, ev := range s.Events {
		if ev.Tick != want[i] {
			t.Errorf("event %d tick = %d, want %d", i, ev.Tick, want[i])
		}
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"unknown op", "events: [{tick: 1, op: explode}]", "unknown op"},
		{"zero count", "events: [{tick: 1, op: random}]", "count"},
		{"bad class", "events: [{tick: 1, op: add, class: giant}]", "giant"},
		{"bad anchoring", "events: [{tick: 1, op: add, anchoring: nowhere}]", "nowhere"},
		{"malformed", "events: [", "parse script"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestPlayer(t *testing.T) {
	s, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	eng, err := gravity.New([]gravity.Body{{Position: r3.Vec{}, Mass: 1e7}})
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	p := NewPlayer(s, config.DefaultConfig(), log.New(io.Discard))

	p.OnTick(eng)
	if eng.Len() != 2 || p.Inserted() != 1 || p.Pending() != 2 {
		t.Fatalf("after tick 0: len=%d inserted=%d pending=%d", eng.Len(), p.Inserted(), p.Pending())
	}

	for eng.Ticks() < 5 {
		eng.Tick()
		p.OnTick(eng)
	}
	if eng.Len() != 3 || p.Pending() != 1 {
		t.Fatalf("after tick 5: len=%d pending=%d", eng.Len(), p.Pending())
	}

	for eng.Ticks() < 10 {
		eng.Tick()
		p.OnTick(eng)
	}
	if p.Pending() != 0 {
		t.Errorf("pending = %d, want 0", p.Pending())
	}
	if got := eng.Len(); got != 1+p.Inserted() {
		t.Errorf("engine has %d bodies, player inserted %d", got, p.Inserted())
	}
	if p.Inserted() != 5 || len(p.Errors()) != 0 {
		t.Errorf("inserted = %d, errors = %v", p.Inserted(), p.Errors())
	}
}

func TestPlayer_CollectsRejections(t *testing.T) {
	s, err := Parse([]byte("name: clash\nevents:\n  - tick: 0\n    op: add\n    position: [0, 0, 0]\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	eng, _ := gravity.New([]gravity.Body{{Position: r3.Vec{}, Mass: 1e7}})
	p := NewPlayer(s, config.DefaultConfig(), log.New(io.Discard))

	p.OnTick(eng)
	if eng.Len() != 1 {
		t.Errorf("len = %d, want 1", eng.Len())
	}
	if len(p.Errors()) != 1 {
		t.Fatalf("errors = %v, want one", p.Errors())
	}
	if !strings.Contains(p.Errors()[0].Error(), "coincident") {
		t.Errorf("error = %v", p.Errors()[0])
	}
}
