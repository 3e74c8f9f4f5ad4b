package island

import (
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/pthm-cable/biosim/landscape"
)

// GenConfig holds island generation parameters. Levels are thresholds on
// normalised noise in [0, 1].
type GenConfig struct {
	Rows          int
	Cols          int
	Seed          int64
	SeaLevel      float64 // elevation below this is Ocean
	MountainLevel float64 // elevation above this is Mountain
	DesertLevel   float64 // rainfall below this is Desert
	JungleLevel   float64 // rainfall above this is Jungle
}

// DefaultGenConfig returns parameters that give an island roughly the size
// and mix of DefaultMap.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Rows:          13,
		Cols:          21,
		Seed:          1,
		SeaLevel:      0.32,
		MountainLevel: 0.78,
		DesertLevel:   0.35,
		JungleLevel:   0.52,
	}
}

// Generate produces a layout from layered simplex noise. Elevation is damped
// towards the edges and the border is always Ocean, so the result always
// passes ParseMap.
func Generate(cfg GenConfig) string {
	elevNoise := opensimplex.NewNormalized(cfg.Seed)
	rainNoise := opensimplex.NewNormalized(cfg.Seed + 1)

	grid := make([][]landscape.Terrain, cfg.Rows)
	for r := range grid {
		grid[r] = make([]landscape.Terrain, cfg.Cols)
		for c := range grid[r] {
			if r == 0 || c == 0 || r == cfg.Rows-1 || c == cfg.Cols-1 {
				grid[r][c] = landscape.Ocean
				continue
			}
			x, y := float64(c), float64(r)

			elev := fbm(elevNoise, x, y, 4, 0.12, 0.5)
			rain := fbm(rainNoise, x, y, 3, 0.09, 0.5)

			// Island shaping: distance from centre in [0, 1] per axis.
			dx := (x - float64(cfg.Cols-1)/2) / (float64(cfg.Cols) / 2)
			dy := (y - float64(cfg.Rows-1)/2) / (float64(cfg.Rows) / 2)
			falloff := 1 - math.Pow(math.Sqrt(dx*dx+dy*dy), 3)
			if falloff < 0 {
				falloff = 0
			}
			elev = elev*0.5 + falloff*0.5

			grid[r][c] = deriveTerrain(elev, rain, cfg)
		}
	}
	return FormatMap(grid)
}

func deriveTerrain(elev, rain float64, cfg GenConfig) landscape.Terrain {
	switch {
	case elev < cfg.SeaLevel:
		return landscape.Ocean
	case elev > cfg.MountainLevel:
		return landscape.Mountain
	case rain < cfg.DesertLevel:
		return landscape.Desert
	case rain > cfg.JungleLevel:
		return landscape.Jungle
	default:
		return landscape.Savannah
	}
}

// fbm sums layers of noise, each at twice the frequency of the previous one
// and gain times its weight, and rescales the sum to the range of one layer.
func fbm(n opensimplex.Noise, x, y float64, layers int, freq, gain float64) float64 {
	var sum, norm float64
	w := 1.0
	for range layers {
		sum += w * n.Eval2(x*freq, y*freq)
		norm += w
		w *= gain
		freq *= 2
	}
	return sum / norm
}
