package landscape

import (
	"cmp"
	"slices"

	"github.com/pthm-cable/biosim/animals"
	"github.com/pthm-cable/biosim/rng"
)

// Events counts what happened during a cycle.
type Events struct {
	Births     [animals.NumSpecies]int
	Deaths     [animals.NumSpecies]int // natural deaths, kills excluded
	Migrations [animals.NumSpecies]int
	Kills      int
	Consumed   float64 // fodder eaten by herbivores
}

// Add accumulates o into e.
func (e *Events) Add(o Events) {
	for s := range animals.NumSpecies {
		e.Births[s] += o.Births[s]
		e.Deaths[s] += o.Deaths[s]
		e.Migrations[s] += o.Migrations[s]
	}
	e.Kills += o.Kills
	e.Consumed += o.Consumed
}

// Patch is one terrain cell. It owns the animals living in it and, during
// migration, the animals staged to live in it next.
type Patch struct {
	Terrain Terrain
	Fodder  float64

	params   FodderParams
	pop      [animals.NumSpecies][]*animals.Animal
	incoming [animals.NumSpecies][]*animals.Animal
}

// New creates a patch. Jungle and Savannah start fully grown; every other
// terrain has no fodder.
func New(t Terrain, fp FodderParams) *Patch {
	p := &Patch{Terrain: t}
	if t == Jungle || t == Savannah {
		p.params = fp
		p.Fodder = fp.FMax
	}
	return p
}

// Population returns the live animals of a species, fittest first after
// ranking. The slice is owned by the patch.
func (p *Patch) Population(s animals.Species) []*animals.Animal {
	return p.pop[s]
}

// Count returns the number of live animals of a species.
func (p *Patch) Count(s animals.Species) int {
	return len(p.pop[s])
}

// Add places animals in the live population.
func (p *Patch) Add(as ...*animals.Animal) {
	for _, a := range as {
		p.pop[a.Species] = append(p.pop[a.Species], a)
	}
}

// Census returns the resource snapshot used by migration.
func (p *Patch) Census() animals.Census {
	c := animals.Census{
		Fodder:     p.Fodder,
		Herbivores: len(p.pop[animals.Herbivore]),
		Carnivores: len(p.pop[animals.Carnivore]),
	}
	for _, h := range p.pop[animals.Herbivore] {
		c.HerbivoreMass += h.Weight
	}
	return c
}

// Regenerate grows fodder: Jungle resets to its maximum, Savannah regrows a
// fraction alpha of what is missing, other terrains stay bare.
func (p *Patch) Regenerate() {
	switch p.Terrain {
	case Jungle:
		p.Fodder = p.params.FMax
	case Savannah:
		p.Fodder += p.params.Alpha * (p.params.FMax - p.Fodder)
	}
}

// RankByFitness stable-sorts both populations by descending cached fitness.
func (p *Patch) RankByFitness() {
	for _, s := range animals.All {
		rank(p.pop[s])
	}
}

func rank(as []*animals.Animal) {
	slices.SortStableFunc(as, func(a, b *animals.Animal) int {
		return cmp.Compare(b.Fitness(), a.Fitness())
	})
}

// FeedHerbivores lets herbivores graze in ranked order until the fodder runs
// out and returns the amount eaten.
func (p *Patch) FeedHerbivores() float64 {
	eaten := 0.0
	for _, h := range p.pop[animals.Herbivore] {
		if p.Fodder <= 0 {
			break
		}
		e := h.Graze(p.Fodder)
		p.Fodder -= e
		eaten += e
	}
	if p.Fodder < 0 {
		p.Fodder = 0
	}
	return eaten
}

// FeedCarnivores lets carnivores hunt in ranked order. Herbivores are
// re-ranked first because grazing changed their fitness. It returns the
// number of herbivores killed.
func (p *Patch) FeedCarnivores(r *rng.Rand) int {
	herbs := p.pop[animals.Herbivore]
	before := len(herbs)
	rank(herbs)
	for _, c := range p.pop[animals.Carnivore] {
		if len(herbs) == 0 {
			break
		}
		herbs, _ = c.Hunt(herbs, r)
	}
	p.pop[animals.Herbivore] = herbs
	return before - len(herbs)
}

// UpdateFitness refreshes the cached fitness of every animal.
func (p *Patch) UpdateFitness() {
	for _, s := range animals.All {
		for _, a := range p.pop[s] {
			a.UpdateFitness()
		}
	}
}

// Reproduce draws a birth decision for every animal against the species
// count from before any births this cycle. Newborns join the population
// after all draws.
func (p *Patch) Reproduce(r *rng.Rand) [animals.NumSpecies]int {
	var births [animals.NumSpecies]int
	for _, s := range animals.All {
		parents := p.pop[s]
		n := len(parents)
		var newborns []*animals.Animal
		for _, a := range parents {
			if !a.GivesBirth(n, r) {
				continue
			}
			if child := a.Offspring(r); child != nil {
				newborns = append(newborns, child)
			}
		}
		p.pop[s] = append(parents, newborns...)
		births[s] = len(newborns)
	}
	return births
}

// Age ages every animal by one cycle.
func (p *Patch) Age() {
	for _, s := range animals.All {
		for _, a := range p.pop[s] {
			a.AgeOneCycle()
		}
	}
}

// LoseWeight applies the per-cycle weight loss to every animal.
func (p *Patch) LoseWeight() {
	for _, s := range animals.All {
		for _, a := range p.pop[s] {
			a.LoseWeight()
		}
	}
}

// RemoveDead draws a death decision for every animal and drops the dead.
func (p *Patch) RemoveDead(r *rng.Rand) [animals.NumSpecies]int {
	var deaths [animals.NumSpecies]int
	for _, s := range animals.All {
		as := p.pop[s]
		alive := as[:0]
		for _, a := range as {
			if a.Dies(r) {
				continue
			}
			alive = append(alive, a)
		}
		clear(as[len(alive):])
		deaths[s] = len(as) - len(alive)
		p.pop[s] = alive
	}
	return deaths
}

// FeedAndReproduce runs the first half of a cycle: regeneration, ranking,
// feeding, fitness refresh and reproduction.
func (p *Patch) FeedAndReproduce(r *rng.Rand) Events {
	var ev Events
	p.Regenerate()
	p.RankByFitness()
	ev.Consumed = p.FeedHerbivores()
	ev.Kills = p.FeedCarnivores(r)
	p.UpdateFitness()
	ev.Births = p.Reproduce(r)
	return ev
}

// AgeAndDie runs the last phase of a cycle, after migration.
func (p *Patch) AgeAndDie(r *rng.Rand) Events {
	var ev Events
	p.Age()
	p.LoseWeight()
	p.UpdateFitness()
	ev.Deaths = p.RemoveDead(r)
	return ev
}

// Stage queues an animal to live in this patch after the migration pass.
func (p *Patch) Stage(a *animals.Animal) {
	p.incoming[a.Species] = append(p.incoming[a.Species], a)
}

// Staged returns the number of animals of a species waiting in staging.
func (p *Patch) Staged(s animals.Species) int {
	return len(p.incoming[s])
}

// CommitStaging replaces the live populations with the staged ones and
// empties staging.
func (p *Patch) CommitStaging() {
	for _, s := range animals.All {
		p.pop[s] = p.incoming[s]
		p.incoming[s] = nil
	}
}
