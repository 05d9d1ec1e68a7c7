package gravity

import (
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/spatial/r3"
)

func separation(e *Engine, a, b Handle) float64 {
	ba, _ := e.Body(a)
	bb, _ := e.Body(b)
	return r3.Norm(r3.Sub(ba.Position, bb.Position))
}

var _ = Describe("Engine", func() {
	var eng *Engine

	BeforeEach(func() {
		var err error
		eng, err = New(Binary())
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("construction", func() {
		It("rejects an empty seed", func() {
			_, err := New(nil)
			Expect(err).To(MatchError(ErrEmpty))
		})

		It("rejects bodies without positive mass", func() {
			_, err := New([]Body{{Mass: 0}})
			Expect(err).To(MatchError(ErrInvalidBody))
		})

		It("rejects a non-positive G", func() {
			_, err := New(Binary(), WithG(0))
			Expect(err).To(HaveOccurred())
		})

		It("rejects a non-finite G", func() {
			for _, g := range []float64{math.Inf(1), math.NaN()} {
				_, err := New(Binary(), WithG(g))
				Expect(err).To(HaveOccurred())
			}
		})

		It("rejects non-finite preset masses", func() {
			_, err := New(Binary(), WithMasses(MassTable{1, math.Inf(1), 3}))
			Expect(err).To(MatchError(ErrInvalidBody))
		})

		It("copies the seed", func() {
			seed := Binary()
			e, err := New(seed)
			Expect(err).NotTo(HaveOccurred())
			seed[0].Mass = 1
			b, _ := e.Body(0)
			Expect(b.Mass).To(Equal(1e7))
		})
	})

	Describe("Barycenter", func() {
		It("is the origin for the binary seed", func() {
			c, err := eng.Barycenter()
			Expect(err).NotTo(HaveOccurred())
			Expect(c.X).To(BeNumerically("~", 0, 1e-12))
			Expect(c.Y).To(BeNumerically("~", 0, 1e-12))
			Expect(c.Z).To(BeNumerically("~", 0, 1e-12))
		})

		It("matches the mass-weighted average of random systems", func() {
			rng := rand.New(rand.NewSource(7))
			for trial := 0; trial < 20; trial++ {
				n := 1 + rng.Intn(12)
				seed := make([]Body, n)
				var wx, wy, wz, total float64
				for i := range seed {
					seed[i] = Body{
						Position: r3.Vec{X: rng.NormFloat64() * 50, Y: rng.NormFloat64() * 50, Z: rng.NormFloat64()},
						Mass:     1e3 + rng.Float64()*1e8,
					}
					wx += seed[i].Mass * seed[i].Position.X
					wy += seed[i].Mass * seed[i].Position.Y
					wz += seed[i].Mass * seed[i].Position.Z
					total += seed[i].Mass
				}
				e, err := New(seed)
				Expect(err).NotTo(HaveOccurred())
				c, err := e.Barycenter()
				Expect(err).NotTo(HaveOccurred())
				Expect(c.X).To(BeNumerically("~", wx/total, 1e-9))
				Expect(c.Y).To(BeNumerically("~", wy/total, 1e-9))
				Expect(c.Z).To(BeNumerically("~", wz/total, 1e-9))
			}
		})

		It("fails on an empty buffer", func() {
			_, _, err := barycenter(nil)
			Expect(err).To(MatchError(ErrEmpty))
		})
	})

	Describe("Tick", func() {
		It("keeps the binary orbit within a narrow band", func() {
			r0 := separation(eng, 0, 1)
			Expect(r0).To(BeNumerically("~", 30, 1e-12))
			for i := 0; i < 1000; i++ {
				eng.Tick()
				Expect(separation(eng, 0, 1)).To(BeNumerically("~", r0, r0*0.01))
			}
			Expect(eng.Ticks()).To(BeEquivalentTo(1000))
		})

		It("keeps the barycenter of the binary at rest", func() {
			for i := 0; i < 500; i++ {
				eng.Tick()
			}
			c, _ := eng.Barycenter()
			Expect(r3.Norm(c)).To(BeNumerically("<", 1e-9))
		})

		It("updates position with the new velocity", func() {
			e, err := New([]Body{
				{Position: r3.Vec{}, Mass: 1e6},
				{Position: r3.Vec{X: 10}, Mass: 1e6},
			})
			Expect(err).NotTo(HaveOccurred())
			e.Tick()
			a, _ := e.Body(0)
			Expect(a.Velocity.X).To(BeNumerically("~", 1e-3, 1e-15))
			Expect(a.Position.X).To(Equal(a.Velocity.X))
		})

		It("flips the authoritative buffer", func() {
			before := eng.cur
			eng.Tick()
			Expect(eng.cur).To(Equal(1 - before))
			Expect(eng.buf[eng.cur]).To(HaveLen(len(eng.buf[1-eng.cur])))
		})

		It("computes every body from the pre-tick snapshot", func() {
			prev := eng.Snapshot()
			eng.Tick()
			for i := range prev {
				dv, _ := eng.deltaV(prev, Handle(i))
				b, _ := eng.Body(Handle(i))
				Expect(b.Velocity).To(Equal(r3.Add(prev[i].Velocity, dv)))
				Expect(b.Position).To(Equal(r3.Add(prev[i].Position, b.Velocity)))
			}
		})
	})

	Describe("near-coincident seeds", func() {
		It("skips the pair and keeps the state finite", func() {
			e, err := New([]Body{
				{Position: r3.Vec{X: 10}, Mass: 1e7},
				{Position: r3.Vec{X: 10, Y: 1e-160}, Mass: 1e4},
				{Position: r3.Vec{X: -20}, Mass: 5e6},
			})
			Expect(err).NotTo(HaveOccurred())

			for i := 0; i < 3; i++ {
				e.Tick()
				for _, b := range e.Snapshot() {
					Expect(b.Validate()).To(Succeed())
				}
			}
			Expect(e.DegeneratePairs()).To(Equal(1))
		})
	})

	Describe("self-exclusion", func() {
		It("gives a lone body no acceleration", func() {
			e, err := New([]Body{{Position: r3.Vec{X: 3}, Mass: 1e8}})
			Expect(err).NotTo(HaveOccurred())
			dv, skipped := e.deltaV(e.current(), 0)
			Expect(dv).To(Equal(r3.Vec{}))
			Expect(skipped).To(BeZero())
		})

		It("still attracts distinct bodies sharing a position", func() {
			e, err := New([]Body{
				{Position: r3.Vec{}, Mass: 1e6},
				{Position: r3.Vec{}, Mass: 1e6},
				{Position: r3.Vec{X: 10}, Mass: 1e6},
			})
			Expect(err).NotTo(HaveOccurred())
			e.Tick()
			Expect(e.DegeneratePairs()).To(Equal(1))

			for _, h := range []Handle{0, 1} {
				b, _ := e.Body(h)
				Expect(b.Velocity.X).To(BeNumerically("~", 1e-3, 1e-15))
				Expect(b.Velocity.Y).To(BeZero())
			}
			c, _ := e.Body(2)
			Expect(c.Velocity.X).To(BeNumerically("~", -2e-3, 1e-15))
			Expect(c.Validate()).To(Succeed())
		})
	})

	Describe("AddBodyAtPosition", func() {
		It("always anchors on a lone body", func() {
			for _, class := range []MassClass{Small, Medium, Large} {
				sun := Body{Position: r3.Vec{X: 1, Y: 2}, Velocity: r3.Vec{X: 0.01}, Mass: 1e7}
				e, err := New([]Body{sun})
				Expect(err).NotTo(HaveOccurred())

				pos := r3.Vec{X: 80, Y: -40}
				h, err := e.AddBodyAtPosition(pos, class)
				Expect(err).NotTo(HaveOccurred())
				Expect(h).To(Equal(Handle(1)))

				mass, _ := DefaultMasses.Mass(class)
				want, _ := OrbitalVelocity(Body{Position: pos, Mass: mass}, sun, DefaultG)
				got, _ := e.Body(h)
				Expect(got.Velocity).To(Equal(r3.Add(want, sun.Velocity)))
			}
		})

		It("anchors on the strongest attractor when inside the capture radius", func() {
			pos := r3.Vec{X: 14}
			h, err := eng.AddBodyAtPosition(pos, Small)
			Expect(err).NotTo(HaveOccurred())

			a, _ := eng.Body(0)
			want, _ := OrbitalVelocity(Body{Position: pos, Mass: 1e4}, a, DefaultG)
			got, _ := eng.Body(h)
			Expect(got.Velocity).To(Equal(r3.Add(want, a.Velocity)))
		})

		It("anchors on the second attractor when only it is close", func() {
			e, err := New([]Body{
				{Position: r3.Vec{}, Mass: 1e8},
				{Position: r3.Vec{X: 50}, Velocity: r3.Vec{Y: 0.2}, Mass: 1e4},
			})
			Expect(err).NotTo(HaveOccurred())
			pos := r3.Vec{X: 45}
			h, err := e.AddBodyAtPosition(pos, Small)
			Expect(err).NotTo(HaveOccurred())

			moonHost, _ := e.Body(1)
			want, _ := OrbitalVelocity(Body{Position: pos, Mass: 1e4}, moonHost, DefaultG)
			got, _ := e.Body(h)
			Expect(got.Velocity).To(Equal(r3.Add(want, moonHost.Velocity)))
		})

		It("falls back to the barycenter far from both attractors", func() {
			pos := r3.Vec{Y: 50}
			h, err := eng.AddBodyAtPosition(pos, Medium)
			Expect(err).NotTo(HaveOccurred())

			virtual := Body{Position: r3.Vec{}, Mass: 1.5e7}
			want, _ := OrbitalVelocity(Body{Position: pos, Mass: 1e5}, virtual, DefaultG)
			got, _ := eng.Body(h)
			Expect(got.Velocity.X).To(BeNumerically("~", want.X, 1e-15))
			Expect(got.Velocity.Y).To(BeNumerically("~", want.Y, 1e-15))
			Expect(got.Velocity.X).To(BeNumerically("<", 0))
		})

		It("is deterministic across independent copies", func() {
			other, _ := New(Binary())
			for i := 0; i < 17; i++ {
				eng.Tick()
				other.Tick()
			}
			pos := r3.Vec{X: 33.3, Y: -12.5, Z: 0.25}
			h1, err1 := eng.AddBodyAtPosition(pos, Large)
			h2, err2 := other.AddBodyAtPosition(pos, Large)
			Expect(err1).NotTo(HaveOccurred())
			Expect(err2).NotTo(HaveOccurred())
			b1, _ := eng.Body(h1)
			b2, _ := other.Body(h2)
			Expect(b1.Velocity).To(Equal(b2.Velocity))
		})

		It("is authoritative whichever buffer is current", func() {
			for _, ticks := range []int{0, 1} {
				e, _ := New(Binary())
				for i := 0; i < ticks; i++ {
					e.Tick()
				}
				h, err := e.AddBodyAtPosition(r3.Vec{X: 60}, Small)
				Expect(err).NotTo(HaveOccurred())
				Expect(e.buf[0]).To(HaveLen(3))
				Expect(e.buf[1]).To(HaveLen(3))

				inserted, _ := e.Body(h)
				e.Tick()
				moved, _ := e.Body(h)
				Expect(moved.Position).NotTo(Equal(inserted.Position))
				e.Tick()
				Expect(e.Len()).To(Equal(3))
			}
		})

		It("rejects a position occupied by a body", func() {
			a, _ := eng.Body(0)
			_, err := eng.AddBodyAtPosition(a.Position, Small)
			Expect(err).To(MatchError(ErrCoincident))

			var geo *GeometryError
			Expect(errors.As(err, &geo)).To(BeTrue())
			Expect(geo.B).To(Equal(Handle(0)))
			Expect(eng.Len()).To(Equal(2))
			Expect(eng.buf[1-eng.cur]).To(HaveLen(2))
		})

		It("rejects a position too close for a finite force", func() {
			a, _ := eng.Body(0)
			_, err := eng.AddBodyAtPosition(r3.Add(a.Position, r3.Vec{Y: 1e-160}), Small)
			Expect(err).To(MatchError(ErrCoincident))
			Expect(eng.Len()).To(Equal(2))

			eng.Tick()
			for _, b := range eng.Snapshot() {
				Expect(b.Validate()).To(Succeed())
			}
		})

		It("rejects the barycenter when no body anchors", func() {
			_, err := eng.AddBodyAtPosition(r3.Vec{}, Small)
			Expect(err).To(MatchError(ErrCoincident))
			Expect(eng.Len()).To(Equal(2))
		})

		It("rejects unknown mass classes", func() {
			_, err := eng.AddBodyAtPosition(r3.Vec{X: 60}, MassClass(9))
			Expect(err).To(MatchError(ErrUnknownMassClass))
		})
	})

	Describe("Instances", func() {
		It("projects the current buffer without mutating it", func() {
			eng.Tick()
			before := eng.Snapshot()
			inst := eng.Instances()
			Expect(inst).To(HaveLen(2))
			inst[0].Position = r3.Vec{X: 999}
			Expect(eng.Snapshot()).To(Equal(before))

			for i, in := range eng.Instances() {
				Expect(in.Handle).To(Equal(Handle(i)))
				Expect(in.Position).To(Equal(before[i].Position))
				Expect(in.Scale).To(BeNumerically(">", 0))
				Expect(in.Color.IsValid()).To(BeTrue())
			}
		})

		It("scales heavier bodies larger", func() {
			inst := eng.Instances()
			Expect(inst[0].Scale).To(BeNumerically(">", inst[1].Scale))
			Expect(inst[0].Scale).To(BeNumerically("~", 7.0/5, 1e-12))
		})
	})
})
