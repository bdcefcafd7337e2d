package doseresponse

import (
	"math"
	"testing"
)

// M(1, 2, z) = (e^z - 1)/z gives an exact reference along the negative axis.
func TestKummerM_ClosedForm(t *testing.T) {
	for _, z := range []float64{-0.5, -3, -50, -700} {
		want := (math.Exp(z) - 1) / z
		got := kummerM(1, 2, z)
		if rel := math.Abs(got-want) / want; rel > 1e-10 {
			t.Errorf("M(1,2,%g) = %.15g, want %.15g (rel err %g)", z, got, want, rel)
		}
	}
}

// With a == b the series collapses and M(a, a, z) = e^z.
func TestKummerM_EqualParameters(t *testing.T) {
	got := kummerM(0.5, 0.5, -2)
	want := math.Exp(-2)
	if math.Abs(got-want) > 1e-14 {
		t.Errorf("M(0.5,0.5,-2) = %.15g, want %.15g", got, want)
	}
}

func TestKummerM_AtZero(t *testing.T) {
	if got := kummerM(0.04, 0.095, 0); got != 1 {
		t.Errorf("M(a,b,0) = %v, want 1", got)
	}
}

// The survival term exp(-d)*M(beta, alpha+beta, d) must decrease smoothly in
// dose across the series/asymptotic crossover.
func TestKummerM_CrossoverContinuity(t *testing.T) {
	alpha, beta := 0.04, 0.055
	lo := kummerM(alpha, alpha+beta, -699.9)
	hi := kummerM(alpha, alpha+beta, -700.1)
	if lo <= hi {
		t.Errorf("survival not decreasing across crossover: %v then %v", lo, hi)
	}
	if rel := math.Abs(lo-hi) / lo; rel > 1e-4 {
		t.Errorf("branch mismatch at crossover: %v vs %v (rel %g)", lo, hi, rel)
	}

	prev := 2.0
	for _, d := range []float64{600, 650, 699, 700, 701, 750, 900, 1200} {
		v := kummerM(alpha, alpha+beta, -d)
		if v <= 0 || v >= 1 {
			t.Fatalf("M at dose %g = %v, want in (0, 1)", d, v)
		}
		if v >= prev {
			t.Errorf("survival term not strictly decreasing at dose %g: %v after %v", d, v, prev)
		}
		prev = v
	}
}
