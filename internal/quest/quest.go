package quest

import (
	"fmt"
	"math"

	"github.com/Iron-Ham/multistair/internal/errors"
)

const (
	defaultDim       = 500
	intensityClamp   = 1e10
	renormalizeEvery = 100
)

// Quest holds the posterior over the log threshold for one Weibull
// psychometric function. Intensities are expressed in the same units as
// tGuess (usually log contrast).
type Quest struct {
	TGuess        float64
	TGuessSd      float64
	PThreshold    float64
	Beta          float64
	Delta         float64
	Gamma         float64
	Grain         float64
	Dim           int
	QuantileOrder float64

	xThreshold float64
	i          []int
	x          []float64
	pdf        []float64
	x2         []float64
	p2         []float64
	s2         [2][]float64

	intensity []float64
	response  []int
}

// Create builds a Quest with a Gaussian prior centred on tGuess. A
// non-positive rangeWidth selects the default grid of 500 steps.
func Create(tGuess, tGuessSd, pThreshold, beta, delta, gamma, grain, rangeWidth float64) (*Quest, error) {
	if tGuessSd <= 0 {
		return nil, errors.NewValidationError("tGuessSd must be positive").WithField("tGuessSd").WithValue(tGuessSd)
	}
	if grain <= 0 {
		return nil, errors.NewValidationError("grain must be positive").WithField("grain").WithValue(grain)
	}

	dim := defaultDim
	if rangeWidth > 0 {
		dim = 2 * int(math.Ceil(rangeWidth/grain/2))
	}

	q := &Quest{
		TGuess:        tGuess,
		TGuessSd:      tGuessSd,
		PThreshold:    pThreshold,
		Beta:          beta,
		Delta:         delta,
		Gamma:         gamma,
		Grain:         grain,
		Dim:           dim,
		QuantileOrder: 0.5,
	}
	if err := q.Recompute(); err != nil {
		return nil, err
	}
	return q, nil
}

// Recompute rebuilds the prior and psychometric tables and replays the
// recorded trials. Call it after changing Beta, Delta, Gamma or PThreshold.
func (q *Quest) Recompute() error {
	half := q.Dim / 2

	q.i = make([]int, q.Dim+1)
	q.x = make([]float64, q.Dim+1)
	q.pdf = make([]float64, q.Dim+1)
	for k := range q.i {
		q.i[k] = k - half
		q.x[k] = float64(q.i[k]) * q.Grain
		q.pdf[k] = math.Exp(-0.5 * math.Pow(q.x[k]/q.TGuessSd, 2))
	}
	normalize(q.pdf)

	n2 := 2*q.Dim + 1
	q.x2 = make([]float64, n2)
	q.p2 = make([]float64, n2)
	for k := range q.x2 {
		q.x2[k] = float64(k-q.Dim) * q.Grain
		q.p2[k] = q.weibull(q.x2[k])
	}
	if q.p2[0] >= q.PThreshold || q.p2[n2-1] <= q.PThreshold {
		return errors.Wrapf(errors.ErrQuestDomain,
			"psychometric function range [%.2f %.2f] does not span pThreshold %.2f",
			q.p2[0], q.p2[n2-1], q.PThreshold)
	}
	for _, p := range q.p2 {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return errors.Wrap(errors.ErrQuestDomain, "psychometric function is not finite")
		}
	}

	xt, err := q.interpolateThreshold()
	if err != nil {
		return err
	}
	q.xThreshold = xt

	for k := range q.x2 {
		q.p2[k] = q.weibull(q.x2[k] + q.xThreshold)
	}
	q.s2[0] = make([]float64, n2)
	q.s2[1] = make([]float64, n2)
	for k := 0; k < n2; k++ {
		q.s2[0][k] = 1 - q.p2[n2-1-k]
		q.s2[1][k] = q.p2[n2-1-k]
	}

	for k := range q.intensity {
		q.applyTrial(q.intensity[k], q.response[k])
		if (k+1)%renormalizeEvery == 0 {
			normalize(q.pdf)
		}
	}
	normalize(q.pdf)
	return nil
}

func (q *Quest) weibull(x float64) float64 {
	return q.Delta*q.Gamma + (1-q.Delta)*(1-(1-q.Gamma)*math.Exp(-math.Pow(10, q.Beta*x)))
}

// interpolateThreshold finds the x2 at which p2 crosses PThreshold, using
// only the strictly changing points of p2.
func (q *Quest) interpolateThreshold() (float64, error) {
	var px, xx []float64
	for k := 0; k < len(q.p2)-1; k++ {
		if q.p2[k+1] != q.p2[k] {
			px = append(px, q.p2[k])
			xx = append(xx, q.x2[k])
		}
	}
	for k := 0; k < len(px)-1; k++ {
		if px[k] <= q.PThreshold && q.PThreshold <= px[k+1] {
			f := (q.PThreshold - px[k]) / (px[k+1] - px[k])
			return xx[k] + f*(xx[k+1]-xx[k]), nil
		}
	}
	return 0, errors.Wrap(errors.ErrQuestDomain, "cannot locate threshold on psychometric function")
}

// Update multiplies the posterior by the likelihood of response (0 or 1)
// at the given intensity and records the trial.
func (q *Quest) Update(intensity float64, response int) error {
	if response != 0 && response != 1 {
		return errors.NewValidationError("response must be 0 or 1").
			WithField("response").WithValue(response).WithCause(errors.ErrInvalidResponse)
	}
	q.applyTrial(intensity, response)
	normalize(q.pdf)
	q.intensity = append(q.intensity, intensity)
	q.response = append(q.response, response)
	return nil
}

func (q *Quest) applyTrial(intensity float64, response int) {
	inten := math.Max(-intensityClamp, math.Min(intensityClamp, intensity))
	shift := int(math.Round((inten - q.TGuess) / q.Grain))

	last := len(q.s2[0]) - 1
	first := q.Dim + q.i[0] - shift
	end := q.Dim + q.i[len(q.i)-1] - shift
	offset := 0
	if first < 0 {
		offset = -first
	}
	if end > last {
		offset = last - end
	}

	row := q.s2[response]
	for k := range q.pdf {
		q.pdf[k] *= row[q.Dim+q.i[k]-shift+offset]
	}
}

// Mean returns the posterior mean threshold.
func (q *Quest) Mean() float64 {
	var num, den float64
	for k, p := range q.pdf {
		num += p * q.x[k]
		den += p
	}
	return q.TGuess + num/den
}

// Mode returns the posterior mode threshold and its density.
func (q *Quest) Mode() (float64, float64) {
	best := 0
	for k, p := range q.pdf {
		if p > q.pdf[best] {
			best = k
		}
	}
	return q.TGuess + q.x[best], q.pdf[best]
}

// Sd returns the standard deviation of the posterior.
func (q *Quest) Sd() float64 {
	var sum, sx, sxx float64
	for k, p := range q.pdf {
		sum += p
		sx += p * q.x[k]
		sxx += p * q.x[k] * q.x[k]
	}
	mean := sx / sum
	return math.Sqrt(sxx/sum - mean*mean)
}

// Quantile returns the threshold at the given quantile of the posterior.
// An order outside (0,1) falls back to QuantileOrder.
func (q *Quest) Quantile(order float64) (float64, error) {
	if order <= 0 || order >= 1 {
		order = q.QuantileOrder
	}

	cum := make([]float64, len(q.pdf))
	acc := 0.0
	for k, p := range q.pdf {
		acc += p
		cum[k] = acc
	}
	total := cum[len(cum)-1]
	if math.IsNaN(total) || math.IsInf(total, 0) {
		return 0, errors.Wrap(errors.ErrQuestDomain, "posterior is not finite")
	}
	if total == 0 {
		return 0, errors.Wrap(errors.ErrQuestDomain, "posterior is empty")
	}

	var px, xx []float64
	prev := -1.0
	for k, c := range cum {
		if c-prev > 0 {
			px = append(px, c)
			xx = append(xx, q.x[k])
		}
		prev = c
	}
	if len(px) < 2 {
		return 0, errors.Wrap(errors.ErrQuestDomain, fmt.Sprintf("posterior has %d distinct points", len(px)))
	}

	target := order * total
	if target <= px[0] {
		return q.TGuess + xx[0], nil
	}
	for k := 0; k < len(px)-1; k++ {
		if target <= px[k+1] {
			f := (target - px[k]) / (px[k+1] - px[k])
			return q.TGuess + xx[k] + f*(xx[k+1]-xx[k]), nil
		}
	}
	return q.TGuess + xx[len(xx)-1], nil
}

// Trials returns the number of recorded trials.
func (q *Quest) Trials() int {
	return len(q.intensity)
}

// History returns copies of the recorded intensities and responses.
func (q *Quest) History() ([]float64, []int) {
	in := make([]float64, len(q.intensity))
	copy(in, q.intensity)
	out := make([]int, len(q.response))
	copy(out, q.response)
	return in, out
}

func normalize(pdf []float64) {
	var sum float64
	for _, p := range pdf {
		sum += p
	}
	if sum == 0 {
		return
	}
	for k := range pdf {
		pdf[k] /= sum
	}
}
