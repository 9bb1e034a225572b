package dsp

// Coefficient is one row of a direct-form IIR section: B is the
// feedforward (numerator) weight, A is the feedback (denominator)
// weight, both applied to the same lag c.
type Coefficient struct {
	B float64
	A float64
}

// Filter is a pre-tabulated band-pass design: Order second-order
// sections expressed as a flat 2*Order+1 coefficient row, the way the
// original firmware's ba[][2] tables are laid out.
type Filter struct {
	Name  string
	Coeff []Coefficient
	Order int
}

// coeff builds a Coefficient slice from literal {B, A} pairs.
func coeff(pairs [][2]float64) []Coefficient {
	out := make([]Coefficient, len(pairs))
	for i, p := range pairs {
		out[i] = Coefficient{B: p[0], A: p[1]}
	}
	return out
}

// Band-pass filters centered on the 40kHz transducer resonance, narrow
// (2kHz) and wide (10kHz) passband variants at orders 1-3. Coefficients
// are carried verbatim from the firmware's COEFF_40K_*_BP_*ORDER tables.
var (
	BP40k2k1Order = Filter{
		Name:  "40k/2k order-1",
		Order: 1,
		Coeff: coeff([][2]float64{
			{0.0124111, 1.0},
			{0.0, -1.9132751},
			{-0.0124111, 0.9751779},
		}),
	}
	BP40k2k2Order = Filter{
		Name:  "40k/2k order-2",
		Order: 2,
		Coeff: coeff([][2]float64{
			{0.0001551, 1.0},
			{0.0, -3.840213},
			{-0.0003103, 5.6515555},
			{0.0, -3.7725641},
			{0.0001551, 0.9650812},
		}),
	}
	BP40k2k3Order = Filter{
		Name:  "40k/2k order-3",
		Order: 3,
		Coeff: coeff([][2]float64{
			{1.9e-06, 1.0},
			{0.0, -5.763269},
			{-5.8e-06, 14.02188},
			{0.0, -18.4249013},
			{5.8e-06, 13.7888872},
			{0.0, -5.5733324},
			{-1.9e-06, 0.9509757},
		}),
	}
	BP40k10k1Order = Filter{
		Name:  "40k/10k order-1",
		Order: 1,
		Coeff: coeff([][2]float64{
			{0.0304687, 1.0},
			{0.0, -1.8790705},
			{-0.0304687, 0.9390625},
		}),
	}
	BP40k10k2Order = Filter{
		Name:  "40k/10k order-2",
		Order: 2,
		Coeff: coeff([][2]float64{
			{0.0009447, 1.0},
			{0.0, -3.7901898},
			{-0.0018894, 5.504279},
			{0.0, -3.6254026},
			{0.0009447, 0.9149758},
		}),
	}
	BP40k10k3Order = Filter{
		Name:  "40k/10k order-3",
		Order: 3,
		Coeff: coeff([][2]float64{
			{2.91e-05, 1.0},
			{0.0, -5.6926121},
			{-8.74e-05, 13.6786558},
			{0.0, -17.7500413},
			{8.74e-05, 13.1173539},
			{0.0, -5.2350269},
			{-2.91e-05, 0.8818931},
		}),
	}
)

// Default is the filter cmd/anemometer hands to calibration and the
// measurement controller; the config file's filter name is not read.
var Default = BP40k10k1Order

// Apply runs the direct-form recurrence
//
//	y[i] = sum_c( B[c]*x[i-c] ) - sum_c( A[c]*y[i-c] )
//
// over x, producing y of the same length. The first 2*Order+1 samples
// of y are zero, matching the original's unconditioned lead-in.
func (f Filter) Apply(x []float64) []float64 {
	y := make([]float64, len(x))
	lead := 2*f.Order + 1
	for i := lead; i < len(x); i++ {
		var v float64
		for c := 0; c < lead; c++ {
			v += f.Coeff[c].B*x[i-c] - f.Coeff[c].A*y[i-c]
		}
		y[i] = v
	}
	return y
}
