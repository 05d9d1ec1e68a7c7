// Package automation plays scripted insertions into a running engine.
package automation

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/charmbracelet/log"
	"golang.org/x/exp/rand"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/gravsim/internal/config"
	"github.com/san-kum/gravsim/internal/gravity"
)

const (
	OpAdd    = "add"
	OpRandom = "random"
)

// Script is a timed sequence of insertions.
type Script struct {
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	Seed        uint64  `yaml:"seed"`
	Events      []Event `yaml:"events"`
}

// Event fires once the engine has completed Tick ticks. Add inserts one body
// at Position; random inserts Count bodies scattered within Spread. Empty
// Class, Anchoring and a zero Eccentricity fall back to the player defaults.
type Event struct {
	Tick         uint64     `yaml:"tick"`
	Op           string     `yaml:"op"`
	Position     [3]float64 `yaml:"position"`
	Class        string     `yaml:"class"`
	Count        int        `yaml:"count"`
	Spread       float64    `yaml:"spread"`
	Anchoring    string     `yaml:"anchoring"`
	Eccentricity float64    `yaml:"eccentricity"`
}

func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Parse decodes and validates a script. Events are ordered by tick, keeping
// file order for equal ticks.
func Parse(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	slices.SortStableFunc(s.Events, func(a, b Event) int {
		switch {
		case a.Tick < b.Tick:
			return -1
		case a.Tick > b.Tick:
			return 1
		}
		return 0
	})
	return &s, nil
}

func (s *Script) Validate() error {
	var errs []error
	for i, ev := range s.Events {
		switch ev.Op {
		case OpAdd:
		case OpRandom:
			if ev.Count < 1 {
				errs = append(errs, fmt.Errorf("event %d: random count must be positive, got %d", i, ev.Count))
			}
			if ev.Spread < 0 {
				errs = append(errs, fmt.Errorf("event %d: spread must not be negative", i))
			}
		default:
			errs = append(errs, fmt.Errorf("event %d: unknown op %q", i, ev.Op))
		}
		if ev.Class != "" {
			if _, err := gravity.ParseMassClass(ev.Class); err != nil {
				errs = append(errs, fmt.Errorf("event %d: %w", i, err))
			}
		}
		if ev.Anchoring != "" {
			if _, err := gravity.ParseAnchoring(ev.Anchoring); err != nil {
				errs = append(errs, fmt.Errorf("event %d: %w", i, err))
			}
		}
		if ev.Eccentricity < 0 {
			errs = append(errs, fmt.Errorf("event %d: eccentricity must be positive", i))
		}
	}
	return errors.Join(errs...)
}

// Player applies a script's events as the engine reaches their ticks. It
// satisfies sim.Observer.
type Player struct {
	script *Script
	next   int
	rng    *rand.Rand
	class  gravity.MassClass
	opts   gravity.InsertOptions
	spread float64
	logger *log.Logger

	inserted int
	errs     []error
}

// NewPlayer takes its defaults from cfg. Random events draw from a generator
// seeded with the script seed.
func NewPlayer(s *Script, cfg *config.Config, logger *log.Logger) *Player {
	if logger == nil {
		logger = log.Default()
	}
	class, opts := cfg.InsertOptions()
	return &Player{
		script: s,
		rng:    rand.New(rand.NewSource(s.Seed)),
		class:  class,
		opts:   opts,
		spread: cfg.Insert.Spread,
		logger: logger.With("script", s.Name),
	}
}

// OnTick applies every pending event whose tick has been reached. Rejected
// insertions are logged and collected; the remaining events still run.
func (p *Player) OnTick(eng *gravity.Engine) {
	for p.next < len(p.script.Events) && p.script.Events[p.next].Tick <= eng.Ticks() {
		ev := p.script.Events[p.next]
		p.next++
		if err := p.apply(eng, ev); err != nil {
			p.logger.Warn("event rejected", "tick", eng.Ticks(), "op", ev.Op, "err", err)
			p.errs = append(p.errs, fmt.Errorf("tick %d %s: %w", ev.Tick, ev.Op, err))
		}
	}
}

func (p *Player) apply(eng *gravity.Engine, ev Event) error {
	class, opts := p.class, p.opts
	if ev.Class != "" {
		class, _ = gravity.ParseMassClass(ev.Class)
	}
	if ev.Anchoring != "" {
		opts.Anchoring, _ = gravity.ParseAnchoring(ev.Anchoring)
	}
	if ev.Eccentricity > 0 {
		opts.Eccentricity = ev.Eccentricity
	}

	switch ev.Op {
	case OpAdd:
		h, err := eng.Insert(config.Vec(ev.Position), class, opts)
		if err != nil {
			return err
		}
		p.inserted++
		p.logger.Debug("body inserted", "tick", eng.Ticks(), "handle", h, "class", class)
	case OpRandom:
		spread := ev.Spread
		if spread == 0 {
			spread = p.spread
		}
		for i := 0; i < ev.Count; i++ {
			if _, err := eng.AddRandomBody(p.rng, class, spread); err != nil {
				return err
			}
			p.inserted++
		}
		p.logger.Debug("bodies scattered", "tick", eng.Ticks(), "count", ev.Count, "class", class)
	}
	return nil
}

// Inserted is the number of bodies added so far.
func (p *Player) Inserted() int { return p.inserted }

// Pending is the number of events not yet reached.
func (p *Player) Pending() int { return len(p.script.Events) - p.next }

func (p *Player) Errors() []error { return p.errs }
