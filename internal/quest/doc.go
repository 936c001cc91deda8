// Package quest implements the QUEST Bayesian adaptive procedure of Watson
// and Pelli (1983).
//
// A [Quest] keeps a gridded posterior over the threshold of a Weibull
// psychometric function. Each [Quest.Update] multiplies the posterior by the
// likelihood of the observed response at the tested intensity; the threshold
// estimate is read back with [Quest.Mean], [Quest.Mode] or [Quest.Quantile].
//
// [Handler] wraps a Quest as one staircase: it counts trials, decides when the
// staircase is finished (trial budget reached or the 95% credible interval
// narrower than a stop interval) and exposes the clamped recommended
// intensity for the next trial.
//
// # Basic Usage
//
//	opts := quest.DefaultOptions()
//	opts.Name = "A"
//	opts.StartVal, opts.StartValSd = -1, 0.5
//	h, err := quest.NewHandler(opts)
//	if err != nil {
//	    return err
//	}
//	for !h.Finished() {
//	    correct := present(h.Value())
//	    _ = h.AddResponse(correct, nil, true)
//	}
//
// Handlers are not safe for concurrent use.
package quest
