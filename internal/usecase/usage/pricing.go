package usage

// USD per one million tokens, by model. Unknown models price at zero
// rather than failing: cost tracking is best-effort by contract.
var pricePerMillionTokens = map[string]float64{
	"text-embedding-3-small": 0.020,
	"text-embedding-3-large": 0.130,
	"gpt-4o-mini":            0.150,
	"gpt-4o":                 2.50,
}

func tokenCost(model string, tokens int) float64 {
	return pricePerMillionTokens[model] * float64(tokens) / 1_000_000
}
