// Package dynamo provides the core primitives shared by the simulation and
// forecasting packages.
//
// The package defines:
//
//   - [State]: vector representing a system state
//   - [Trajectory]: ordered, pre-sized sequence of states with optional timestamps
//   - [System]: interface for ODE systems (dX/dt = f(X, t))
//   - [Integrator]: single-step numerical integrator interface
//   - the error taxonomy used across the module ([ErrShapeMismatch],
//     [ErrDegenerateConstruction], [ErrSingularSystem], [ErrNumericDivergence])
//
// # Example
//
//	sys := physics.NewLorenz()
//	tr := integrators.Integrate(sys, integrators.NewRK4(), sys.DefaultState(), 0.01, 10000)
//	train, validation := tr.Split(0.5)
//
// # Thread Safety
//
// Trajectories are plain values. Slicing one (Split, SplitAt) shares the
// backing storage, so callers must not mutate a trajectory that another
// goroutine is reading.
package dynamo
