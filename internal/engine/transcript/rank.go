package transcript

import (
	"math"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// BM25 holds the ranking knobs. The zero value is not usable; use DefaultBM25.
type BM25 struct {
	K1 float64
	B  float64
}

// DefaultBM25 uses the textbook k1=1.5, b=0.75.
var DefaultBM25 = BM25{K1: 1.5, B: 0.75}

// Tokenize lowercases s, splits on anything that is not a letter, digit or
// underscore, and drops single-rune tokens.
func Tokenize(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_')
	})
	out := fields[:0]
	for _, f := range fields {
		if utf8.RuneCountInString(f) > 1 {
			out = append(out, f)
		}
	}
	return out
}

// Rank scores windows against query and returns those with a positive score,
// best first. Equal scores keep window order. A query with no usable tokens
// yields a KindInvalidQuery error.
func (p BM25) Rank(windows []TimeWindow, query string) ([]ScoredWindow, error) {
	qTokens := Tokenize(query)
	if len(qTokens) == 0 {
		return nil, Errorf(KindInvalidQuery, "", "query %q has no searchable terms", query)
	}
	if len(windows) == 0 {
		return []ScoredWindow{}, nil
	}

	docs := make([][]string, len(windows))
	var totalLen int
	for i, w := range windows {
		docs[i] = Tokenize(w.Text)
		totalLen += len(docs[i])
	}
	avgLen := float64(totalLen) / float64(len(windows))
	if avgLen == 0 {
		avgLen = 1
	}

	idf := p.idf(docs, qTokens)

	scored := make([]ScoredWindow, 0, len(windows))
	for i, w := range windows {
		tf := make(map[string]int, len(docs[i]))
		for _, t := range docs[i] {
			tf[t]++
		}
		docLen := float64(len(docs[i]))
		var score float64
		for _, q := range qTokens {
			f := float64(tf[q])
			if f == 0 {
				continue
			}
			score += idf[q] * (f * (p.K1 + 1)) / (f + p.K1*(1-p.B+p.B*docLen/avgLen))
		}
		if score > 0 {
			scored = append(scored, ScoredWindow{TimeWindow: w, Score: score})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	return scored, nil
}

// idf computes ln((N - n + 0.5)/(n + 0.5) + 1) for each unique query term.
func (p BM25) idf(docs [][]string, qTokens []string) map[string]float64 {
	n := float64(len(docs))
	out := make(map[string]float64, len(qTokens))
	for _, q := range qTokens {
		if _, done := out[q]; done {
			continue
		}
		var df float64
		for _, d := range docs {
			for _, t := range d {
				if t == q {
					df++
					break
				}
			}
		}
		out[q] = math.Log((n-df+0.5)/(df+0.5) + 1)
	}
	return out
}
