package control

import (
	"errors"
	"math"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/unimpc/internal/dynamo"
	"github.com/san-kum/unimpc/internal/qp"
)

func setpoint(x, y, vx, vy float64) dynamo.Setpoint {
	return dynamo.Setpoint{X: x, Y: y, VX: vx, VY: vy}
}

// solveDu runs the tick pipeline up to the solver and returns the full
// perturbation sequence.
func solveDu(cfg Config, in TickInput) *mat.VecDense {
	samples := ReferenceHorizon(in.Setpoint, in.Dt, cfg.Horizon, cfg.Boundary)
	pred := Lift(Linearize(samples, in.Dt, cfg.Boundary))
	du, err := qp.NewCholesky().Solve(Assemble(pred, cfg.Weights, trackingError(in.Pose, samples[0])))
	Expect(err).NotTo(HaveOccurred())
	return du
}

type failingSolver struct{ err error }

func (f failingSolver) Solve(qp.Problem) (*mat.VecDense, error) { return nil, f.err }

type constantTrajectory dynamo.Setpoint

func (c constantTrajectory) At(float64) dynamo.Setpoint { return dynamo.Setpoint(c) }

var _ = Describe("Tick", func() {
	var cfg Config

	BeforeEach(func() {
		cfg = DefaultConfig()
	})

	Context("when the robot sits on the reference", func() {
		It("returns pure feed-forward along a straight line", func() {
			in := TickInput{Setpoint: setpoint(1, 0, 1, 0), Pose: Pose{X: 1, Y: 0, Theta: 0}, Dt: 0.1}

			du := solveDu(cfg, in)
			for i := 0; i < du.Len(); i++ {
				Expect(du.AtVec(i)).To(BeNumerically("~", 0, 1e-12))
			}

			cmd, err := Tick(cfg, in)
			Expect(err).NotTo(HaveOccurred())
			Expect(cmd.V).To(BeNumerically("~", 1.0, 1e-12))
			Expect(cmd.Omega).To(BeNumerically("~", 0, 1e-12))
		})

		It("returns the reference speed on a diagonal", func() {
			in := TickInput{
				Setpoint: setpoint(2, 3, 1, 1),
				Pose:     Pose{X: 2, Y: 3, Theta: math.Atan2(1, 1)},
				Dt:       0.05,
			}

			cmd, err := Tick(cfg, in)
			Expect(err).NotTo(HaveOccurred())
			Expect(cmd.V).To(BeNumerically("~", math.Sqrt2, 1e-12))
			Expect(cmd.Omega).To(BeNumerically("~", 0, 1e-12))
		})
	})

	Context("with a single-step horizon", func() {
		BeforeEach(func() {
			cfg.Horizon = 1
		})

		It("applies no correction when the only step is the zeroed boundary", func() {
			in := TickInput{Setpoint: setpoint(0.5, -0.2, 1, 0.3), Pose: Pose{X: 0.1, Y: 0.2, Theta: 0.4}, Dt: 0.1}

			du := solveDu(cfg, in)
			Expect(du.AtVec(0)).To(BeNumerically("~", 0, 1e-12))
			Expect(du.AtVec(1)).To(BeNumerically("~", 0, 1e-12))
		})

		It("matches the weighted least-squares closed form when extrapolated", func() {
			cfg.Boundary = BoundaryExtrapolate
			in := TickInput{Setpoint: setpoint(0.5, -0.2, 1, 0.3), Pose: Pose{X: 0.1, Y: 0.2, Theta: 0.4}, Dt: 0.1}

			samples := ReferenceHorizon(in.Setpoint, in.Dt, 1, cfg.Boundary)
			m := Linearize(samples, in.Dt, cfg.Boundary)[0]
			e0 := trackingError(in.Pose, samples[0])
			q := mat.NewDiagDense(StateDim, cfg.Weights.Q[:])
			r := mat.NewDiagDense(InputDim, cfg.Weights.R[:])

			// du = -(BᵀQB + R)⁻¹·BᵀQ·A·e0
			var btq, h, hinv, btqa mat.Dense
			btq.Mul(m.B.T(), q)
			h.Mul(&btq, m.B)
			h.Add(&h, r)
			Expect(hinv.Inverse(&h)).To(Succeed())
			btqa.Mul(&btq, m.A)
			var rhs, want mat.VecDense
			rhs.MulVec(&btqa, e0)
			want.MulVec(&hinv, &rhs)
			want.ScaleVec(-1, &want)

			du := solveDu(cfg, in)
			Expect(du.AtVec(0)).To(BeNumerically("~", want.AtVec(0), 1e-6))
			Expect(du.AtVec(1)).To(BeNumerically("~", want.AtVec(1), 1e-6))
		})
	})

	It("is invariant to scaling all weights together", func() {
		in := TickInput{Setpoint: setpoint(1, 0.5, 1, 1), Pose: Pose{X: 0.2, Y: 0.1, Theta: 0.3}, Dt: 0.1}
		base := solveDu(cfg, in)

		scaled := cfg
		scaled.Weights = cfg.Weights.Scale(2)
		du := solveDu(scaled, in)

		for i := 0; i < du.Len(); i++ {
			Expect(du.AtVec(i)).To(BeNumerically("~", base.AtVec(i), 1e-9))
		}
	})

	DescribeTable("heading-only error is corrected in the stabilizing direction",
		func(headingErr float64) {
			in := TickInput{Setpoint: setpoint(0, 0, 1, 0), Pose: Pose{Theta: headingErr}, Dt: 0.1}

			cmd, err := Tick(cfg, in)
			Expect(err).NotTo(HaveOccurred())
			Expect(math.Signbit(cmd.Omega)).To(Equal(!math.Signbit(headingErr)))
			Expect(cmd.Omega).NotTo(BeZero())
		},
		Entry("positive", 0.1),
		Entry("negative", -0.1),
		Entry("small positive", 0.01),
	)

	It("reproduces the straight-line scenario", func() {
		in := TickInput{Setpoint: setpoint(1, 0, 1, 0), Pose: Pose{}, Dt: 0.1}

		cmd, err := Tick(cfg, in)
		Expect(err).NotTo(HaveOccurred())
		Expect(cmd.V).To(BeNumerically(">", 0))
		// Only the x error is non-zero, so the four live horizon steps reduce
		// to a scalar least-squares problem with solution 17040/18601.
		Expect(cmd.V).To(BeNumerically("~", 1+17040.0/18601.0, 1e-9))
		Expect(cmd.Omega).To(BeNumerically("~", 0, 1e-12))
	})

	DescribeTable("matches a reference solve",
		func(b Boundary, wantV, wantOmega float64) {
			cfg.Boundary = b
			in := TickInput{Setpoint: setpoint(1, 0.5, 1, 1), Pose: Pose{X: 0.2, Y: 0.1, Theta: 0.3}, Dt: 0.1}

			cmd, err := Tick(cfg, in)
			Expect(err).NotTo(HaveOccurred())
			Expect(cmd.V).To(BeNumerically("~", wantV, 1e-6))
			Expect(cmd.Omega).To(BeNumerically("~", wantOmega, 1e-6))
		},
		Entry("zero boundary", BoundaryZero, 1.9224976481518725, 4.926992906161346),
		Entry("extrapolated boundary", BoundaryExtrapolate, 1.9224976499301432, 4.969648331069557),
	)

	It("is reproducible and safe to call concurrently", func() {
		in := TickInput{Setpoint: setpoint(1, 0.5, 1, 1), Pose: Pose{X: 0.2, Y: 0.1, Theta: 0.3}, Dt: 0.1}
		first, err := Tick(cfg, in)
		Expect(err).NotTo(HaveOccurred())

		results := make([]Command, 16)
		var wg sync.WaitGroup
		for i := range results {
			wg.Add(1)
			go func(idx int) {
				defer wg.Done()
				results[idx], _ = Tick(cfg, in)
			}(i)
		}
		wg.Wait()

		for _, r := range results {
			Expect(r).To(Equal(first))
		}
	})

	Context("with degenerate input", func() {
		It("rejects a non-positive time step", func() {
			for _, dt := range []float64{0, -0.1, math.NaN()} {
				_, err := Tick(cfg, TickInput{Setpoint: setpoint(1, 0, 1, 0), Dt: dt})
				Expect(errors.Is(err, dynamo.ErrDegenerateInput)).To(BeTrue())
			}
		})

		It("rejects non-finite poses", func() {
			_, err := Tick(cfg, TickInput{Setpoint: setpoint(1, 0, 1, 0), Pose: Pose{X: math.Inf(1)}, Dt: 0.1})
			Expect(errors.Is(err, dynamo.ErrDegenerateInput)).To(BeTrue())
		})

		It("uses the stationary heading for a zero desired velocity", func() {
			samples := ReferenceHorizon(setpoint(1, 2, 0, 0), 0.1, 3, BoundaryZero)
			Expect(samples[0].Theta).To(Equal(StationaryHeading))
			Expect(samples[0].V).To(BeZero())

			cmd, err := Tick(cfg, TickInput{Setpoint: setpoint(1, 2, 0, 0), Pose: Pose{X: 1, Y: 2}, Dt: 0.1})
			Expect(err).NotTo(HaveOccurred())
			Expect(dynamo.State{cmd.V, cmd.Omega}.IsValid()).To(BeTrue())
		})
	})

	Context("with invalid tuning", func() {
		DescribeTable("fails fast",
			func(mutate func(*Config)) {
				mutate(&cfg)
				Expect(errors.Is(cfg.Validate(), dynamo.ErrParameterBounds)).To(BeTrue())

				_, err := Tick(cfg, TickInput{Setpoint: setpoint(1, 0, 1, 0), Dt: 0.1})
				Expect(errors.Is(err, dynamo.ErrParameterBounds)).To(BeTrue())
			},
			Entry("zero horizon", func(c *Config) { c.Horizon = 0 }),
			Entry("zero Q", func(c *Config) { c.Weights.Q[2] = 0 }),
			Entry("negative R", func(c *Config) { c.Weights.R[0] = -0.1 }),
			Entry("NaN R", func(c *Config) { c.Weights.R[1] = math.NaN() }),
			Entry("unknown boundary", func(c *Config) { c.Boundary = Boundary(9) }),
		)
	})

	It("surfaces solver failure as control unavailable", func() {
		cfg.Solver = failingSolver{err: qp.ErrNotPositiveDefinite}

		cmd, err := Tick(cfg, TickInput{Setpoint: setpoint(1, 0, 1, 0), Dt: 0.1})
		Expect(errors.Is(err, dynamo.ErrControlUnavailable)).To(BeTrue())
		Expect(errors.Is(err, qp.ErrNotPositiveDefinite)).To(BeTrue())
		Expect(cmd).To(Equal(Command{}))
	})
})

var _ = Describe("ReferenceHorizon", func() {
	It("extrapolates at constant velocity and zeroes the final step", func() {
		samples := ReferenceHorizon(setpoint(1, 2, 0.5, -1), 0.2, 4, BoundaryZero)

		Expect(samples).To(HaveLen(4))
		for i := 0; i < 3; i++ {
			Expect(samples[i].X).To(Equal(1 + 0.2*0.5*float64(i)))
			Expect(samples[i].Y).To(Equal(2 + 0.2*-1*float64(i)))
			Expect(samples[i].Theta).To(Equal(math.Atan2(-1, 0.5)))
			Expect(samples[i].V).To(Equal(math.Hypot(0.5, -1)))
			Expect(samples[i].Omega).To(BeZero())
		}
		Expect(samples[3]).To(Equal(Sample{}))
	})

	It("fills the final step when extrapolating", func() {
		samples := ReferenceHorizon(setpoint(1, 2, 0.5, -1), 0.2, 4, BoundaryExtrapolate)
		Expect(samples[3].X).To(BeNumerically("~", 1.3, 1e-12))
	})
})

var _ = Describe("Linearize", func() {
	It("scales the reference heading by dt inside the trigonometry", func() {
		theta, v, dt := 1.2, 2.0, 0.1
		samples := []Sample{{Theta: theta, V: v}, {}}
		models := Linearize(samples, dt, BoundaryZero)

		a, b := models[0].A, models[0].B
		Expect(a.At(0, 2)).To(Equal(-v * math.Sin(theta*dt)))
		Expect(a.At(1, 2)).To(Equal(v * math.Cos(theta*dt)))
		Expect(b.At(0, 0)).To(Equal(math.Cos(theta * dt)))
		Expect(b.At(1, 0)).To(Equal(math.Sin(theta * dt)))
		Expect(b.At(2, 1)).To(Equal(dt))

		Expect(mat.Equal(models[1].A, mat.NewDense(StateDim, StateDim, nil))).To(BeTrue())
		Expect(mat.Equal(models[1].B, mat.NewDense(StateDim, InputDim, nil))).To(BeTrue())
	})
})

var _ = Describe("Assemble", func() {
	It("produces a symmetric positive definite cost", func() {
		in := TickInput{Setpoint: setpoint(1, 0.5, 1, 1), Pose: Pose{X: 0.2, Y: 0.1, Theta: 0.3}, Dt: 0.1}
		samples := ReferenceHorizon(in.Setpoint, in.Dt, 6, BoundaryZero)
		p := Assemble(Lift(Linearize(samples, in.Dt, BoundaryZero)), DefaultWeights, trackingError(in.Pose, samples[0]))

		Expect(p.Dim()).To(Equal(12))
		Expect(p.Constrained()).To(BeFalse())

		var chol mat.Cholesky
		Expect(chol.Factorize(p.G)).To(BeTrue())
	})
})

var _ = Describe("Controllers", func() {
	traj := constantTrajectory(setpoint(0, 0, 1, 0))

	It("MPC agrees with Tick", func() {
		ctrl, err := NewMPC(DefaultConfig(), traj, 0.1)
		Expect(err).NotTo(HaveOccurred())

		u, err := ctrl.Compute(dynamo.State{0, 0.1, 0.05}, 3)
		Expect(err).NotTo(HaveOccurred())

		cmd, err := Tick(DefaultConfig(), TickInput{Setpoint: traj.At(3), Pose: Pose{Y: 0.1, Theta: 0.05}, Dt: 0.1})
		Expect(err).NotTo(HaveOccurred())
		Expect(u).To(Equal(cmd.Control()))
	})

	It("MPC rejects short state vectors", func() {
		ctrl, err := NewMPC(DefaultConfig(), traj, 0.1)
		Expect(err).NotTo(HaveOccurred())

		_, err = ctrl.Compute(dynamo.State{0, 0}, 0)
		Expect(errors.Is(err, dynamo.ErrDimensionMismatch)).To(BeTrue())
	})

	It("NewMPC validates its inputs", func() {
		_, err := NewMPC(DefaultConfig(), nil, 0.1)
		Expect(err).To(HaveOccurred())
		_, err = NewMPC(DefaultConfig(), traj, 0)
		Expect(errors.Is(err, dynamo.ErrDegenerateInput)).To(BeTrue())
	})

	It("FeedForward projects the reference speed onto the heading", func() {
		u, err := NewFeedForward(traj).Compute(dynamo.State{5, 5, math.Pi / 3}, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(u[0]).To(BeNumerically("~", 0.5, 1e-12))
		Expect(u[1]).To(BeZero())
	})

	It("None always commands zero", func() {
		u, err := NewNone().Compute(dynamo.State{1, 2, 3}, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(u).To(Equal(dynamo.Control{0, 0}))
	})

	It("PIDTracker turns toward a reference to its left", func() {
		ctrl := NewPIDTracker(traj, 1.0, 0.0, 0.0)
		u, err := ctrl.Compute(dynamo.State{0, -1, 0}, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(u[1]).To(BeNumerically(">", 0))
	})
})

var _ = Describe("AlignToReference", func() {
	It("puts a pose ahead of the setpoint on the local x axis", func() {
		sp, pose := AlignToReference(setpoint(1, 1, 0, 2), Pose{X: 1, Y: 3, Theta: math.Pi / 2})
		Expect(sp).To(Equal(dynamo.Setpoint{VX: 2}))
		Expect(pose.X).To(BeNumerically("~", 2, 1e-12))
		Expect(pose.Y).To(BeNumerically("~", 0, 1e-12))
		Expect(pose.Theta).To(BeNumerically("~", 0, 1e-12))
	})

	It("measures heading relative to the reference across the seam", func() {
		h := -math.Pi + 0.02
		_, pose := AlignToReference(setpoint(0, 0, math.Cos(h), math.Sin(h)), Pose{Theta: math.Pi - 0.02})
		Expect(pose.Theta).To(BeNumerically("~", -0.04, 1e-12))
	})

	It("only translates for a stationary setpoint", func() {
		sp, pose := AlignToReference(setpoint(2, -1, 0, 0), Pose{X: 3, Y: 1, Theta: 0.4})
		Expect(sp).To(Equal(dynamo.Setpoint{}))
		Expect(pose).To(Equal(Pose{X: 1, Y: 2, Theta: 0.4}))
	})
})

var _ = Describe("MPC off the x axis", func() {
	// heading is the reference direction, offset the pose in the reference frame
	scene := func(heading float64) dynamo.Control {
		sin, cos := math.Sin(heading), math.Cos(heading)
		traj := constantTrajectory(setpoint(1, 2, cos, sin))
		ctrl, err := NewMPC(DefaultConfig(), traj, 0.1)
		Expect(err).NotTo(HaveOccurred())

		ox, oy := -0.2, 0.1
		x := dynamo.State{1 + cos*ox - sin*oy, 2 + sin*ox + cos*oy, heading + 0.05}
		u, err := ctrl.Compute(x, 0)
		Expect(err).NotTo(HaveOccurred())
		return u
	}

	It("commands the same as along +x for any path direction", func() {
		want := scene(0)
		for _, heading := range []float64{math.Pi / 2, 2.5, -3.1, math.Pi} {
			got := scene(heading)
			Expect(got[0]).To(BeNumerically("~", want[0], 1e-9))
			Expect(got[1]).To(BeNumerically("~", want[1], 1e-9))
		}
	})

	It("keeps a small turn rate when the reference heading crosses ±pi", func() {
		h := -math.Pi + 0.02
		ctrl, err := NewMPC(DefaultConfig(), constantTrajectory(setpoint(0, 0, math.Cos(h), math.Sin(h))), 0.1)
		Expect(err).NotTo(HaveOccurred())

		u, err := ctrl.Compute(dynamo.State{0, 0, math.Pi - 0.02}, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(u[0]).To(BeNumerically("~", 0.9992, 1e-3))
		Expect(u[1]).To(BeNumerically("~", 0.2841, 1e-3))
	})
})

var _ = Describe("WrapAngle", func() {
	It("maps angles into [-pi, pi]", func() {
		Expect(WrapAngle(3 * math.Pi / 2)).To(BeNumerically("~", -math.Pi/2, 1e-12))
		Expect(WrapAngle(-3 * math.Pi / 2)).To(BeNumerically("~", math.Pi/2, 1e-12))
		Expect(WrapAngle(0.3)).To(BeNumerically("~", 0.3, 1e-15))
	})
})
