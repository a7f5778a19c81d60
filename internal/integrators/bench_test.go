package integrators

import (
	"testing"

	"github.com/san-kum/esnlab/internal/dynamo"
	"github.com/san-kum/esnlab/internal/physics"
)

func BenchmarkEuler(b *testing.B) {
	integrator := NewEuler()
	sys := physics.NewLorenz()
	x := dynamo.State{1.0, 1.0, 1.0}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x = integrator.Step(sys, x, 0, 0.01)
	}
}

func BenchmarkRK4(b *testing.B) {
	integrator := NewRK4()
	sys := physics.NewLorenz()
	x := dynamo.State{1.0, 1.0, 1.0}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x = integrator.Step(sys, x, 0, 0.01)
	}
}

func BenchmarkIntegrateLorenz10k(b *testing.B) {
	x0 := dynamo.State{1.0, 1.0, 1.0}
	params := physics.DefaultLorenzParams()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := IntegrateLorenz(x0, 0.01, params, 10000, PolicyRK4); err != nil {
			b.Fatal(err)
		}
	}
}
