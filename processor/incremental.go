package processor

import "strings"

// differ turns consecutive full transcriptions of overlapping audio into
// incremental outputs. It keeps the previously emitted transcription and, on
// each update, locates the longest common substring between old and new text:
// when the match covers at least threshold of the new text, only the suffix
// after the match is emitted as new and the dangling suffix of the previous
// text is reported as deleted. A weak match re-emits the whole transcription.
type differ struct {
	threshold  float64
	prevTokens []string
	prevText   string
}

func newDiffer(threshold float64) differ {
	return differ{threshold: threshold}
}

func (d *differ) next(tokens []string, text string) IncrementalOutput {
	if len(d.prevTokens) == 0 {
		d.prevTokens = tokens
		d.prevText = text
		return IncrementalOutput{NewTokens: tokens, NewString: text}
	}

	prevText := d.prevText
	prevTokens := d.prevTokens
	d.prevTokens = tokens
	d.prevText = text

	ai, bi, size := longestCommonSubstring(prevText, text)
	if float64(size) < d.threshold*float64(len([]rune(text))) {
		return IncrementalOutput{NewTokens: tokens, NewString: text}
	}

	newRunes := []rune(text)
	prevRunes := []rune(prevText)
	newString := string(newRunes[bi+size:])
	deletedString := string(prevRunes[ai+size:])

	out := IncrementalOutput{NewString: newString, DeletedString: deletedString}
	if newString != "" {
		out.NewTokens = endingTokensForString(newString, tokens)
	}
	if deletedString != "" {
		out.DeletedTokens = endingTokensForString(deletedString, prevTokens)
	}
	return out
}

func (d *differ) clear() {
	d.prevTokens = nil
	d.prevText = ""
}

// endingTokensForString returns the shortest token suffix whose joined form
// is no longer a suffix of s, minus its first token; i.e. the tokens that
// make up the ending of s.
func endingTokensForString(s string, tokens []string) []string {
	for i := 1; i < len(tokens); i++ {
		ending := strings.Join(tokens[len(tokens)-i:], " ")
		if !strings.HasSuffix(s, ending) {
			return tokens[len(tokens)-i+1:]
		}
	}
	return tokens
}

// longestCommonSubstring returns the rune offsets in a and b and the rune
// length of their longest common substring.
func longestCommonSubstring(a, b string) (ai, bi, size int) {
	ra := []rune(a)
	rb := []rune(b)
	if len(ra) == 0 || len(rb) == 0 {
		return 0, 0, 0
	}
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for i := 1; i <= len(ra); i++ {
		for j := 1; j <= len(rb); j++ {
			if ra[i-1] == rb[j-1] {
				curr[j] = prev[j-1] + 1
				if curr[j] > size {
					size = curr[j]
					ai = i - size
					bi = j - size
				}
			} else {
				curr[j] = 0
			}
		}
		prev, curr = curr, prev
	}
	return ai, bi, size
}
