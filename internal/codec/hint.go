package codec

import "fmt"

// DecodeHint describes a vector in a few words. Display only; it is not an
// inverse of Encode.
func DecodeHint(vec []float64) string {
	if len(vec) < MinDimensions {
		return "unknown seed"
	}
	zero := true
	for _, x := range vec {
		if x != 0 {
			zero = false
			break
		}
	}
	if zero {
		return "neutral seed"
	}

	return fmt.Sprintf("%s %s %s content (freq %.2f)",
		sizeWord(vec[ChannelEnergy]),
		moodWord(vec[ChannelPolarity]),
		varietyWord(vec[ChannelDiversity]),
		vec[ChannelFrequency],
	)
}

func sizeWord(e float64) string {
	switch {
	case e < -0.3:
		return "brief"
	case e < 0.3:
		return "moderate"
	default:
		return "extensive"
	}
}

func moodWord(p float64) string {
	switch {
	case p > 0.1:
		return "positive"
	case p < -0.1:
		return "negative"
	default:
		return "neutral"
	}
}

func varietyWord(d float64) string {
	if d > 0.2 {
		return "varied"
	}
	return "repetitive"
}
