package sim

import (
	"fmt"

	"golang.org/x/exp/rand"

	"github.com/san-kum/gravsim/internal/config"
	"github.com/san-kum/gravsim/internal/gravity"
)

// NewEngine builds an engine from the named template: seed bodies first, then
// the template's fixed inserts in order, then Scatter.Count random bodies
// drawn from a generator seeded with seed.
func NewEngine(cfg *config.Config, name string, seed uint64) (*gravity.Engine, error) {
	tmpl, err := cfg.LookupTemplate(name)
	if err != nil {
		return nil, err
	}
	bodies, err := tmpl.Seed(cfg.G)
	if err != nil {
		return nil, fmt.Errorf("template %s: %w", name, err)
	}
	eng, err := gravity.New(bodies, cfg.EngineOptions()...)
	if err != nil {
		return nil, fmt.Errorf("template %s: %w", name, err)
	}

	_, opts := cfg.InsertOptions()
	for i, ins := range tmpl.Inserts {
		class, err := gravity.ParseMassClass(ins.Class)
		if err != nil {
			return nil, fmt.Errorf("template %s insert %d: %w", name, i, err)
		}
		if _, err := eng.Insert(config.Vec(ins.Position), class, opts); err != nil {
			return nil, fmt.Errorf("template %s insert %d: %w", name, i, err)
		}
	}

	if n := tmpl.Scatter.Count; n > 0 {
		class, err := gravity.ParseMassClass(tmpl.Scatter.Class)
		if err != nil {
			return nil, fmt.Errorf("template %s scatter: %w", name, err)
		}
		spread := tmpl.Scatter.Spread
		if spread <= 0 {
			spread = cfg.Insert.Spread
		}
		rng := rand.New(rand.NewSource(seed))
		for i := 0; i < n; i++ {
			if _, err := eng.AddRandomBody(rng, class, spread); err != nil {
				return nil, fmt.Errorf("template %s scatter %d: %w", name, i, err)
			}
		}
	}
	return eng, nil
}
