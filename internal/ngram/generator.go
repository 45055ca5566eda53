package ngram

// Generate returns the set of all length-n substrings of Normalize(text).
// Empty text, n < 1, or normalized text shorter than n yield an empty set.
// Offsets are counted in runes so Hangul syllables form single characters.
func Generate(text string, n int) Set {
	if text == "" || n < 1 {
		return Set{}
	}
	runes := []rune(Normalize(text))
	if len(runes) < n {
		return Set{}
	}
	grams := make(Set, len(runes)-n+1)
	for i := 0; i <= len(runes)-n; i++ {
		grams[string(runes[i:i+n])] = struct{}{}
	}
	return grams
}
