package odometry

import (
	"math"
	"time"

	"github.com/montanaflynn/stats"
)

// CycleReport describes how the registration of one sweep went.
type CycleReport struct {
	Stamp time.Time
	State SolverState
	// Iterations is the number of solver iterations run.
	Iterations int
	// StarvedIterations counts iterations with fewer than minResiduals residuals.
	StarvedIterations int
	Corners           int
	Surfaces          int
	// Residuals is the residual count of the last iteration.
	Residuals  int
	Degenerate bool
	// Eigenvalues of the normal matrix of the first solved iteration, ascending.
	Eigenvalues []float64
	// DeltaR and DeltaT are the magnitudes of the last update in degrees and hundredths of a
	// length unit.
	DeltaR float64
	DeltaT float64
	// LargeCorrections counts points whose start correction exceeded five degrees when the
	// feature clouds were carried to sweep end.
	LargeCorrections int
	Stats            ResidualStats
}

// ResidualStats summarizes the absolute weighted distances of the last iteration.
type ResidualStats struct {
	Mean   float64
	Median float64
	P90    float64
	Max    float64
}

// newResidualStats returns zero statistics for an empty residual set.
func newResidualStats(distances []float64) ResidualStats {
	if len(distances) == 0 {
		return ResidualStats{}
	}
	data := make(stats.Float64Data, len(distances))
	for i, d := range distances {
		data[i] = math.Abs(d)
	}
	var out ResidualStats
	// errors only arise from empty input
	out.Mean, _ = data.Mean()
	out.Median, _ = data.Median()
	out.P90, _ = data.Percentile(90)
	out.Max, _ = data.Max()
	return out
}
