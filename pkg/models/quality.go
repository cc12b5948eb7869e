package models

// AssessQuality buckets latency/loss samples into a QualityTier.
//
// Decision order matters: heavy loss dominates latency, and a device
// that answered ARP but produced no latency sample is treated as poor
// rather than unknown.
func AssessQuality(latencyMs *float64, lossPct float64) QualityTier {
	switch {
	case lossPct > 10:
		return QualityPoor
	case lossPct > 5:
		return QualityFair
	case latencyMs == nil:
		return QualityPoor
	case *latencyMs < 10:
		return QualityExcellent
	case *latencyMs < 50:
		return QualityGood
	case *latencyMs < 100:
		return QualityFair
	default:
		return QualityPoor
	}
}
