package codec

var positiveWords = toSet(
	"good", "great", "happy", "joy", "love", "like", "calm", "bright", "warm",
	"kind", "hope", "win", "success", "safe", "beautiful", "best", "fresh",
	"glad", "peace", "sweet", "trust", "wonderful", "excellent", "delight",
)

var negativeWords = toSet(
	"bad", "sad", "angry", "hate", "fear", "pain", "dark", "cold", "cruel",
	"loss", "lose", "fail", "failure", "danger", "ugly", "worst", "broken",
	"grief", "war", "bitter", "doubt", "terrible", "awful", "hurt",
)

func toSet(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}
