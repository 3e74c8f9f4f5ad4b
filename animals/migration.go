package animals

// Census is the resource snapshot of a patch that migration decisions read.
type Census struct {
	Fodder        float64
	Herbivores    int
	Carnivores    int
	HerbivoreMass float64
}

// Abundance is the relative food availability of a patch for this animal:
// fodder per herbivore appetite for herbivores, herbivore mass per carnivore
// appetite for carnivores. Both count the arriving animal itself.
func (a *Animal) Abundance(c Census) float64 {
	f := a.params.F
	if f <= 0 {
		return 0
	}
	if a.Species == Carnivore {
		return c.HerbivoreMass / (float64(c.Carnivores+1) * f)
	}
	return c.Fodder / (float64(c.Herbivores+1) * f)
}

// PropensityScore is lambda * abundance, the log of the migration propensity.
func (a *Animal) PropensityScore(c Census) float64 {
	return a.params.Lambda * a.Abundance(c)
}
