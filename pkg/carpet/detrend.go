package carpet

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Cleaner is the cleaning contract for carpet rows: remove slow trends and
// optionally filter each time series given a sampling interval, returning
// data of the same shape. A zero or negative tr means the interval is
// unknown and is treated as one sample per unit time.
type Cleaner interface {
	Clean(rows [][]float64, tr float64) ([][]float64, error)
}

// DetrendCleaner removes a polynomial trend from each row by least squares,
// optionally applies an FFT band-pass filter, and standardizes each row to
// zero mean and unit variance. It mirrors the cleaning applied by standard
// fMRI preprocessing before carpet display, which is what makes the default
// [-2, 2] display range meaningful.
type DetrendCleaner struct {
	// PolyOrder is the order of the removed polynomial trend.
	// Zero selects the default linear detrend.
	PolyOrder int

	// Standardize controls per-row scaling to zero mean, unit variance
	Standardize bool

	// LowHz and HighHz bound an optional band-pass filter in Hz.
	// Both zero disables filtering. HighHz of zero with a positive
	// LowHz gives a pure high-pass.
	LowHz, HighHz float64
}

// NewDetrendCleaner returns a cleaner with linear detrending and
// standardization enabled and no temporal filter.
func NewDetrendCleaner() *DetrendCleaner {
	return &DetrendCleaner{PolyOrder: 1, Standardize: true}
}

// Clean applies the configured transform to every row.
func (c *DetrendCleaner) Clean(rows [][]float64, tr float64) ([][]float64, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	n := len(rows[0])
	for i, row := range rows {
		if len(row) != n {
			return nil, fmt.Errorf("row %d has %d samples, want %d", i, len(row), n)
		}
	}
	if tr <= 0 {
		tr = 1.0
	}
	order := c.PolyOrder
	if order <= 0 {
		order = 1
	}

	out := make([][]float64, len(rows))

	if n > order+1 {
		// One QR factorization of the shared design matrix serves every
		// row; columns of Y are the voxel series.
		design := mat.NewDense(n, order+1, nil)
		for t := 0; t < n; t++ {
			x := float64(t) / float64(n-1)
			v := 1.0
			for p := 0; p <= order; p++ {
				design.Set(t, p, v)
				v *= x
			}
		}
		var qr mat.QR
		qr.Factorize(design)

		y := mat.NewDense(n, len(rows), nil)
		for r, row := range rows {
			for t, v := range row {
				y.Set(t, r, v)
			}
		}
		var coef mat.Dense
		if err := qr.SolveTo(&coef, false, y); err != nil {
			return nil, fmt.Errorf("detrend solve failed: %v", err)
		}
		var fit mat.Dense
		fit.Mul(design, &coef)

		for r, row := range rows {
			res := make([]float64, n)
			for t, v := range row {
				res[t] = v - fit.At(t, r)
			}
			out[r] = res
		}
	} else {
		// Too few samples to fit the trend; pass rows through untouched.
		for r, row := range rows {
			res := make([]float64, n)
			copy(res, row)
			out[r] = res
		}
	}

	if c.LowHz > 0 || c.HighHz > 0 {
		c.bandpass(out, tr)
	}

	if c.Standardize {
		for r, row := range out {
			mean, std := stat.MeanStdDev(row, nil)
			// The least-squares fit of a constant row leaves rounding
			// residuals rather than exact zeros; rescaling those to unit
			// variance would display pure noise. Treat a residual spread
			// that is negligible against the input magnitude as flat.
			var scale float64
			for _, v := range rows[r] {
				if a := math.Abs(v); a > scale {
					scale = a
				}
			}
			if std <= 1e-10*scale || std == 0 {
				for t := range row {
					row[t] = 0
				}
				continue
			}
			for t := range row {
				row[t] = (row[t] - mean) / std
			}
		}
	}

	return out, nil
}

// bandpass zeroes Fourier coefficients outside [LowHz, HighHz] and
// reconstructs each row in place.
func (c *DetrendCleaner) bandpass(rows [][]float64, tr float64) {
	n := len(rows[0])
	fft := fourier.NewFFT(n)
	coeff := make([]complex128, n/2+1)
	for _, row := range rows {
		fft.Coefficients(coeff, row)
		for k := range coeff {
			hz := fft.Freq(k) / tr
			if c.LowHz > 0 && hz < c.LowHz {
				coeff[k] = 0
			}
			if c.HighHz > 0 && hz > c.HighHz {
				coeff[k] = 0
			}
		}
		fft.Sequence(row, coeff)
		for t := range row {
			row[t] /= float64(n)
		}
	}
}
