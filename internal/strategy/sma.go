package strategy

// SMA returns the arithmetic mean of the trailing window values of series.
// Fewer values than window are averaged as they are, so the estimate is
// available from the first observation. ok is false only for an empty series.
func SMA(series []float64, window int) (mean float64, ok bool) {
	if len(series) == 0 {
		return 0, false
	}
	if window < 1 {
		window = 1
	}
	if len(series) > window {
		series = series[len(series)-window:]
	}
	var sum float64
	for _, px := range series {
		sum += px
	}
	return sum / float64(len(series)), true
}
