package server

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/gravsim/internal/gravity"
)

const (
	TypeFrame = "frame"
	TypeAdded = "added"
	TypeError = "error"
)

// Message is every server-to-client message. Frames carry Tick, Barycenter
// and Bodies; acknowledgements carry ID; rejections carry Error.
type Message struct {
	Type       string      `json:"type"`
	Tick       uint64      `json:"tick"`
	Barycenter *[3]float64 `json:"barycenter,omitempty"`
	Bodies     []BodyFrame `json:"bodies,omitempty"`
	ID         *int        `json:"id,omitempty"`
	Error      string      `json:"error,omitempty"`
}

type BodyFrame struct {
	ID    int        `json:"id"`
	Pos   [3]float64 `json:"pos"`
	Scale float64    `json:"scale"`
	Color string     `json:"color"`
}

// Request is a client-to-server message.
type Request struct {
	Op    string     `json:"op"`
	Pos   [3]float64 `json:"pos"`
	Class string     `json:"class,omitempty"`
}

func arr(v r3.Vec) [3]float64 { return [3]float64{v.X, v.Y, v.Z} }

func vec(a [3]float64) r3.Vec { return r3.Vec{X: a[0], Y: a[1], Z: a[2]} }

func frameOf(eng *gravity.Engine) Message {
	insts := eng.Instances()
	bodies := make([]BodyFrame, len(insts))
	for i, inst := range insts {
		bodies[i] = BodyFrame{
			ID:    int(inst.Handle),
			Pos:   arr(inst.Position),
			Scale: inst.Scale,
			Color: inst.Color.Hex(),
		}
	}
	center, _ := eng.Barycenter()
	c := arr(center)
	return Message{Type: TypeFrame, Tick: eng.Ticks(), Barycenter: &c, Bodies: bodies}
}

func added(h gravity.Handle, tick uint64) Message {
	id := int(h)
	return Message{Type: TypeAdded, Tick: tick, ID: &id}
}

func rejected(err error, tick uint64) Message {
	return Message{Type: TypeError, Tick: tick, Error: err.Error()}
}
