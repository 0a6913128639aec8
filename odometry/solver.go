package odometry

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/lidarodometry/pointcloud"
	"go.viam.com/lidarodometry/spatialmath"
	"go.viam.com/lidarodometry/utils"
)

// SolverState is the phase reached by the registration of one sweep.
type SolverState int

// The solver states. A cycle starts in StateInit only once, when it seeds the reference clouds.
const (
	StateInit SolverState = iota
	StateIterating
	StateConverged
	StateExhausted
	// StateSkipped marks a cycle whose reference clouds were too small to register against.
	StateSkipped
)

func (s SolverState) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateIterating:
		return "iterating"
	case StateConverged:
		return "converged"
	case StateExhausted:
		return "exhausted"
	case StateSkipped:
		return "skipped"
	}
	return "unknown"
}

const (
	// minResiduals is the smallest residual count an update is computed from.
	minResiduals = 10
	// degeneracyThreshold is the Hessian eigenvalue below which a direction is not updated.
	degeneracyThreshold = 10.0
	// svdRankTolerance is the relative singular value below which a direction is dropped by the
	// fallback solve.
	svdRankTolerance = 1e-9
	numParams        = 6
)

// linearSystem stacks the linearized residuals of one iteration.
type linearSystem struct {
	rows [][numParams]float64
	b    []float64
}

func (ls *linearSystem) add(row [numParams]float64, weightedDistance float64) {
	ls.rows = append(ls.rows, row)
	ls.b = append(ls.b, -stepScale*weightedDistance)
}

func (ls *linearSystem) len() int {
	return len(ls.rows)
}

// normalEquations returns JᵀJ and Jᵀb.
func (ls *linearSystem) normalEquations() (*mat.SymDense, *mat.VecDense) {
	jac := mat.NewDense(len(ls.rows), numParams, nil)
	for i := range ls.rows {
		jac.SetRow(i, ls.rows[i][:])
	}
	b := mat.NewVecDense(len(ls.b), ls.b)

	var hessian mat.SymDense
	hessian.SymOuterK(1, jac.T())
	var gradient mat.VecDense
	gradient.MulVec(jac.T(), b)
	return &hessian, &gradient
}

// solveNormalEquations solves hessian·x = gradient. A QR solve is attempted first; when the
// system is singular or ill-conditioned it falls back to the minimum norm solution over the
// well-determined singular directions.
func solveNormalEquations(hessian *mat.SymDense, gradient *mat.VecDense) (*mat.VecDense, error) {
	var qr mat.QR
	qr.Factorize(hessian)
	var x mat.VecDense
	if err := qr.SolveVecTo(&x, false, gradient); err == nil {
		return &x, nil
	}

	var svd mat.SVD
	if !svd.Factorize(hessian, mat.SVDFull) {
		return nil, errors.New("normal equations could not be factorized")
	}
	rank := svd.Rank(svdRankTolerance)
	if rank == 0 {
		return mat.NewVecDense(numParams, nil), nil
	}
	var minNorm mat.VecDense
	svd.SolveVecTo(&minNorm, gradient, rank)
	return &minNorm, nil
}

// degeneracyProjection builds the matrix that removes from an update its components along the
// eigendirections of hessian whose eigenvalues fall below degeneracyThreshold. Eigenvalues are
// visited in ascending order and the scan stops at the first well-constrained direction.
// degenerate reports whether any direction was removed.
func degeneracyProjection(hessian *mat.SymDense) (projection *mat.Dense, degenerate bool, values []float64, err error) {
	var eig mat.EigenSym
	if !eig.Factorize(hessian, true) {
		return nil, false, nil, errors.New("eigendecomposition of the normal matrix failed")
	}
	values = eig.Values(nil)
	var vectors mat.Dense
	eig.VectorsTo(&vectors)

	// one eigenvector per row
	rows := mat.DenseCopyOf(vectors.T())
	filtered := mat.DenseCopyOf(rows)
	zero := make([]float64, numParams)
	for i, v := range values {
		if v >= degeneracyThreshold {
			break
		}
		filtered.SetRow(i, zero)
		degenerate = true
	}

	var inverse mat.Dense
	if err := inverse.Inverse(rows); err != nil {
		return nil, false, values, errors.Wrap(err, "eigenvector matrix is not invertible")
	}
	projection = &mat.Dense{}
	projection.Mul(&inverse, filtered)
	return projection, degenerate, values, nil
}

// register estimates the incremental pose that aligns the sharp and flat features of the current
// sweep with the reference clouds. The pose is refined in place, starting from its current value.
func (e *Engine) register(sharp, flat pointcloud.Cloud, report *CycleReport) {
	edges := make([]edgeMatch, len(sharp))
	planes := make([]planeMatch, len(flat))
	motion := scanMotion{scanPeriod: e.cfg.ScanPeriod}

	var projection *mat.Dense
	eigenDone := false
	report.State = StateIterating

	for iter := 0; iter < e.cfg.MaxIterations; iter++ {
		report.Iterations = iter + 1
		motion.transform = e.transform
		research := iter%researchInterval == 0

		var system linearSystem
		distances := make([]float64, 0, len(sharp)+len(flat))

		for i, p := range sharp {
			q := motion.toScanStart(p).Position
			if research {
				edges[i] = e.corners.matchEdge(q)
			}
			m := edges[i]
			if !m.complete() {
				continue
			}
			direction, d, ok := pointToLine(q, e.corners.cloud[m.first].Position, e.corners.cloud[m.second].Position)
			if !ok {
				continue
			}
			res, ok := newResidual(p.Position, direction, d, edgeWeight(iter, d))
			if !ok {
				continue
			}
			system.add(jacobianRow(e.transform, res), res.distance)
			distances = append(distances, res.distance)
		}

		for i, p := range flat {
			q := motion.toScanStart(p).Position
			if research {
				planes[i] = e.surfaces.matchPlane(q)
			}
			m := planes[i]
			if !m.complete() {
				continue
			}
			normal, d, ok := pointToPlane(q,
				e.surfaces.cloud[m.first].Position,
				e.surfaces.cloud[m.second].Position,
				e.surfaces.cloud[m.third].Position)
			if !ok {
				continue
			}
			res, ok := newResidual(p.Position, normal, d, planeWeight(iter, d, q))
			if !ok {
				continue
			}
			system.add(jacobianRow(e.transform, res), res.distance)
			distances = append(distances, res.distance)
		}

		report.Residuals = system.len()
		report.Stats = newResidualStats(distances)

		if system.len() < minResiduals {
			report.StarvedIterations++
			continue
		}

		hessian, gradient := system.normalEquations()
		if !eigenDone {
			eigenDone = true
			p, degenerate, values, err := degeneracyProjection(hessian)
			if err != nil {
				e.logger.Warnw("cannot analyze degeneracy", "error", err)
			} else {
				report.Eigenvalues = values
				if degenerate {
					projection = p
					report.Degenerate = true
					e.logger.Debugw("degenerate registration", "eigenvalues", values)
				}
			}
		}
		update, err := solveNormalEquations(hessian, gradient)
		if err != nil {
			e.logger.Warnw("cannot solve normal equations", "iteration", iter, "error", err)
			update = mat.NewVecDense(numParams, nil)
		}
		if projection != nil {
			var projected mat.VecDense
			projected.MulVec(projection, update)
			update = &projected
		}

		e.applyUpdate(update)

		report.DeltaR = floats.Norm([]float64{
			utils.RadToDeg(update.AtVec(0)),
			utils.RadToDeg(update.AtVec(1)),
			utils.RadToDeg(update.AtVec(2)),
		}, 2)
		report.DeltaT = floats.Norm([]float64{
			100 * update.AtVec(3),
			100 * update.AtVec(4),
			100 * update.AtVec(5),
		}, 2)

		if report.DeltaR < e.cfg.DeltaRAbort && report.DeltaT < e.cfg.DeltaTAbort {
			report.State = StateConverged
			e.logger.Debugw("registration converged",
				"residuals", report.Residuals, "iterations", report.Iterations,
				"delta_r", report.DeltaR, "delta_t", report.DeltaT)
			return
		}
	}
	report.State = StateExhausted
	e.logger.Warnw("registration did not converge",
		"iterations", report.Iterations, "starved", report.StarvedIterations,
		"delta_r", report.DeltaR, "delta_t", report.DeltaT)
}

// applyUpdate adds an update to the incremental pose. Components that stop being finite are
// reset to zero.
func (e *Engine) applyUpdate(update *mat.VecDense) {
	rot := func(a spatialmath.Angle, delta float64) spatialmath.Angle {
		out := spatialmath.NewAngle(a.Rad() + delta)
		if !out.IsFinite() {
			return spatialmath.NewAngle(0)
		}
		return out
	}
	pos := func(v, delta float64) float64 {
		out := v + delta
		if !utils.IsFinite(out) {
			return 0
		}
		return out
	}
	t := &e.transform
	t.Rot.X = rot(t.Rot.X, update.AtVec(0))
	t.Rot.Y = rot(t.Rot.Y, update.AtVec(1))
	t.Rot.Z = rot(t.Rot.Z, update.AtVec(2))
	t.Pos.X = pos(t.Pos.X, update.AtVec(3))
	t.Pos.Y = pos(t.Pos.Y, update.AtVec(4))
	t.Pos.Z = pos(t.Pos.Z, update.AtVec(5))
}
