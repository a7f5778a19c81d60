// Package physics provides the dynamical system used to generate training
// and validation data.
//
// [Lorenz] implements [dynamo.System] and [dynamo.Configurable]; the pure
// [LorenzDerivative] function is the single right-hand side shared by every
// integrator.
//
//	sys := physics.NewLorenz()
//	dx := sys.Derive(sys.DefaultState(), 0)
package physics
