package consensus

import "math"

// FraudDetectionProbability returns the probability that at least one
// fraudulent output is caught when sampling sampleSize outputs from a
// population with fraud rate fraudRate: 1 - (1-fraudRate)^sampleSize.
// It is monotone non-decreasing in both arguments and bounded in [0,1].
// Used for parameter selection, not runtime accept/reject decisions.
func FraudDetectionProbability(fraudRate float64, sampleSize uint64) float64 {
	if sampleSize == 0 || fraudRate == 0 {
		return 0
	}
	return 1 - math.Pow(1-fraudRate, float64(sampleSize))
}
