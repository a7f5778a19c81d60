package reservoir_test

import (
	"errors"
	"math"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/esnlab/internal/dynamo"
	"github.com/san-kum/esnlab/internal/integrators"
	"github.com/san-kum/esnlab/internal/physics"
	"github.com/san-kum/esnlab/internal/reservoir"
	"github.com/san-kum/esnlab/internal/topology"
)

func smallConfig() reservoir.Config {
	cfg := reservoir.DefaultConfig()
	cfg.ReservoirDim = 50
	cfg.Density = 0.2
	cfg.Seed = 7
	return cfg
}

func lorenzStates(steps int) []dynamo.State {
	tr, err := integrators.IntegrateLorenz(dynamo.State{1, 1, 1}, 0.01, physics.DefaultLorenzParams(), steps, integrators.PolicyRK4)
	Expect(err).NotTo(HaveOccurred())
	return tr.States
}

var _ = Describe("Computer", func() {
	var (
		cfg reservoir.Config
		c   *reservoir.Computer
	)

	BeforeEach(func() {
		cfg = smallConfig()
		var err error
		c, err = reservoir.New(cfg)
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("construction", func() {
		It("starts from a zero state and a zero readout", func() {
			Expect(c.State()).To(HaveLen(cfg.ReservoirDim))
			for _, v := range c.State() {
				Expect(v).To(BeZero())
			}
			Expect(c.Readout()).To(Equal(dynamo.State{0, 0, 0}))
		})

		It("scales the recurrent matrix to the requested spectral radius", func() {
			radius, err := topology.SpectralRadius(c.Adjacency())
			Expect(err).NotTo(HaveOccurred())
			Expect(radius).To(BeNumerically("~", cfg.Rho, 1e-6*cfg.Rho))
		})

		It("bounds the input weights by the input scale", func() {
			win := c.InputWeights()
			r, k := win.Dims()
			Expect(r).To(Equal(cfg.ReservoirDim))
			Expect(k).To(Equal(cfg.SystemDim))
			Expect(mat.Max(win)).To(BeNumerically("<=", cfg.InputScale))
			Expect(mat.Min(win)).To(BeNumerically(">=", -cfg.InputScale))
		})

		It("is reproducible for a fixed seed", func() {
			other, err := reservoir.New(cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(mat.Equal(c.Adjacency(), other.Adjacency())).To(BeTrue())
			Expect(mat.Equal(c.InputWeights(), other.InputWeights())).To(BeTrue())

			cfg.Seed++
			third, err := reservoir.New(cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(mat.Equal(c.InputWeights(), third.InputWeights())).To(BeFalse())
		})

		It("returns copies from accessors", func() {
			a := c.Adjacency()
			a.Set(0, 0, 1e9)
			Expect(c.Adjacency().At(0, 0)).NotTo(Equal(1e9))
		})

		It("reports a degenerate topology", func() {
			cfg.ReservoirDim = 1
			cfg.Density = 1
			_, err := reservoir.New(cfg)
			Expect(errors.Is(err, dynamo.ErrDegenerateConstruction)).To(BeTrue())
		})

		It("rejects invalid parameters", func() {
			cfg.SystemDim = 0
			_, err := reservoir.New(cfg)
			Expect(err).To(MatchError(dynamo.ErrParameterBounds))
		})
	})

	Describe("Advance", func() {
		It("keeps every component strictly inside (0, 1)", func() {
			for _, u := range []dynamo.State{{1, 2, 3}, {-50, 20, 80}, {0, 0, 0}} {
				r, err := c.Advance(u)
				Expect(err).NotTo(HaveOccurred())
				for _, v := range r {
					Expect(v).To(BeNumerically(">", 0))
					Expect(v).To(BeNumerically("<", 1))
				}
			}
		})

		It("stays finite for huge inputs", func() {
			for _, u := range []dynamo.State{{1e6, -1e6, 1e6}, {-1e6, -1e6, -1e6}} {
				r, err := c.Advance(u)
				Expect(err).NotTo(HaveOccurred())
				Expect(r.IsValid()).To(BeTrue())
				for _, v := range r {
					Expect(v).To(BeNumerically(">=", 0))
					Expect(v).To(BeNumerically("<=", 1))
				}
			}
		})

		It("mutates the persistent state", func() {
			r, err := c.Advance(dynamo.State{1, 1, 1})
			Expect(err).NotTo(HaveOccurred())
			Expect(c.State()).To(Equal(r))
			r[0] = 42
			Expect(c.State()[0]).NotTo(Equal(42.0))
		})

		It("rejects inputs of the wrong dimension", func() {
			_, err := c.Advance(dynamo.State{1, 2})
			var shapeErr *dynamo.ShapeError
			Expect(errors.As(err, &shapeErr)).To(BeTrue())
			Expect(shapeErr.Want).To(Equal(3))
			Expect(shapeErr.Got).To(Equal(2))
		})
	})

	Describe("Train", func() {
		It("fails on an empty trajectory without touching the state", func() {
			Expect(c.Train(nil)).To(MatchError(dynamo.ErrShapeMismatch))
			for _, v := range c.State() {
				Expect(v).To(BeZero())
			}
		})

		It("fails on a ragged trajectory without touching the state", func() {
			err := c.Train([]dynamo.State{{1, 2, 3}, {1, 2}})
			Expect(err).To(MatchError(dynamo.ErrShapeMismatch))
			for _, v := range c.State() {
				Expect(v).To(BeZero())
			}
		})

		It("leaves the state reached after the last input", func() {
			states := lorenzStates(200)
			Expect(c.Train(states)).To(Succeed())

			replay, err := reservoir.New(cfg)
			Expect(err).NotTo(HaveOccurred())
			for _, u := range states {
				_, err := replay.Advance(u)
				Expect(err).NotTo(HaveOccurred())
			}
			Expect(c.State()).To(Equal(replay.State()))
		})

		It("fits a readout that reproduces the training targets", func() {
			states := lorenzStates(1000)
			Expect(c.Train(states[:999])).To(Succeed())
			rows, cols := c.OutputWeights().Dims()
			Expect(rows).To(Equal(cfg.SystemDim))
			Expect(cols).To(Equal(cfg.ReservoirDim))

			// One-step-ahead: after absorbing states[998] the readout should be
			// close to states[999].
			next := c.Readout()
			Expect(next.Sub(states[999]).Norm()).To(BeNumerically("<", 2.0))
		})

		It("propagates a singular normal matrix", func() {
			cfg.RidgeBeta = 0
			c, err := reservoir.New(cfg)
			Expect(err).NotTo(HaveOccurred())
			err = c.Train(lorenzStates(3))
			Expect(err).To(MatchError(dynamo.ErrSingularSystem))
		})
	})

	Describe("Predict", func() {
		It("returns an empty trajectory for zero steps", func() {
			tr, err := c.Predict(0)
			Expect(err).NotTo(HaveOccurred())
			Expect(tr.Len()).To(BeZero())
		})

		It("rejects negative steps", func() {
			_, err := c.Predict(-1)
			Expect(err).To(MatchError(dynamo.ErrParameterBounds))
		})

		It("yields zeros before training", func() {
			tr, err := c.Predict(5)
			Expect(err).NotTo(HaveOccurred())
			Expect(tr.Len()).To(Equal(5))
			for _, s := range tr.States {
				Expect(s).To(Equal(dynamo.State{0, 0, 0}))
			}
		})

		It("starts from the readout of the carried-over state", func() {
			states := lorenzStates(500)
			Expect(c.Train(states)).To(Succeed())
			first := c.Readout()

			tr, err := c.Predict(10)
			Expect(err).NotTo(HaveOccurred())
			Expect(tr.Len()).To(Equal(10))
			Expect(tr.States[0]).To(Equal(first))
		})

		It("is deterministic across identical instances", func() {
			states := lorenzStates(500)
			other, err := reservoir.New(cfg)
			Expect(err).NotTo(HaveOccurred())

			Expect(c.Train(states)).To(Succeed())
			Expect(other.Train(states)).To(Succeed())

			a, err := c.Predict(100)
			Expect(err).NotTo(HaveOccurred())
			b, err := other.Predict(100)
			Expect(err).NotTo(HaveOccurred())
			Expect(a.States).To(Equal(b.States))
		})
	})

	Describe("recurrence ablation", func() {
		It("zeroes the recurrent matrix but keeps the input projection", func() {
			cfg.DisableRecurrence = true
			ff, err := reservoir.New(cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(mat.Norm(ff.Adjacency(), 1)).To(BeZero())
			Expect(mat.Equal(ff.InputWeights(), c.InputWeights())).To(BeTrue())
		})

		It("makes the state a function of the latest input only", func() {
			cfg.DisableRecurrence = true
			ff, err := reservoir.New(cfg)
			Expect(err).NotTo(HaveOccurred())

			u := dynamo.State{0.3, -0.2, 0.5}
			first, err := ff.Advance(u)
			Expect(err).NotTo(HaveOccurred())
			_, err = ff.Advance(dynamo.State{4, 4, 4})
			Expect(err).NotTo(HaveOccurred())
			again, err := ff.Advance(u)
			Expect(err).NotTo(HaveOccurred())
			Expect(again).To(Equal(first))
		})
	})

	Describe("ResetState", func() {
		It("returns the state to zero", func() {
			_, err := c.Advance(dynamo.State{1, 1, 1})
			Expect(err).NotTo(HaveOccurred())
			c.ResetState()
			for _, v := range c.State() {
				Expect(v).To(BeZero())
			}
		})
	})
})

var _ = Describe("end-to-end Lorenz forecast", Label("slow"), func() {
	It("tracks the validation trajectory over a short horizon", func() {
		if testing.Short() {
			Skip("long scenario skipped in short mode")
		}

		tr, err := integrators.IntegrateLorenz(dynamo.State{1, 1, 1}, 0.01, physics.DefaultLorenzParams(), 10000, integrators.PolicyRK4)
		Expect(err).NotTo(HaveOccurred())
		Expect(tr.IsFinite()).To(BeTrue())
		train, validation := tr.Split(0.5)

		c, err := reservoir.New(reservoir.DefaultConfig())
		Expect(err).NotTo(HaveOccurred())
		Expect(c.Train(train.States)).To(Succeed())

		forecast, err := c.Predict(validation.Len())
		Expect(err).NotTo(HaveOccurred())
		Expect(forecast.Len()).To(Equal(validation.Len()))

		for i := 0; i < 10; i++ {
			for k := 0; k < 3; k++ {
				diff := math.Abs(forecast.States[i][k] - validation.States[i][k])
				Expect(diff).To(BeNumerically("<", 1.0), "step %d component %d", i, k)
			}
		}
	})
})
