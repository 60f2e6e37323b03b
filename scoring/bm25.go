package scoring

import (
	"strings"
	"unicode/utf8"

	"github.com/poiesic/prodrank/core"
)

// Field weights applied to per-field BM25 scores.
const (
	TitleFieldWeight       = 2.5
	CategoryFieldWeight    = 1.5
	DescriptionFieldWeight = 1.0
)

// BM25Params are the free parameters of the BM25 term-frequency curve.
type BM25Params struct {
	// K1 controls term-frequency saturation.
	K1 float64
	// B controls document length normalization, 0 to 1.
	B float64
}

// DefaultBM25Params returns k1=1.5, b=0.75.
func DefaultBM25Params() BM25Params {
	return BM25Params{K1: 1.5, B: 0.75}
}

// Tokenize case-folds text and splits it on whitespace.
func Tokenize(text string) []string {
	return strings.Fields(strings.ToLower(text))
}

// QueryTerms tokenizes a query and drops single-character tokens.
func QueryTerms(query string) []string {
	tokens := Tokenize(query)
	terms := tokens[:0]
	for _, tok := range tokens {
		if utf8.RuneCountInString(tok) > 1 {
			terms = append(terms, tok)
		}
	}
	return terms
}

// DocumentLength returns the combined token count of a product's name,
// description and category.
func DocumentLength(p *core.Product) int {
	return len(Tokenize(p.Name)) + len(Tokenize(p.Description)) + len(Tokenize(p.Category))
}

// AverageDocLength returns the mean DocumentLength over products, or 0 for
// an empty set.
func AverageDocLength(products []core.Product) float64 {
	if len(products) == 0 {
		return 0
	}
	total := 0
	for i := range products {
		total += DocumentLength(&products[i])
	}
	return float64(total) / float64(len(products))
}

// Score returns the BM25 score of query against one field.
// fieldLength is the field's token count and avgDocLength the candidate-set
// mean from AverageDocLength.
func Score(query, fieldText string, fieldLength int, avgDocLength float64, params BM25Params) float64 {
	return scoreTerms(QueryTerms(query), Tokenize(fieldText), fieldLength, avgDocLength, params)
}

func scoreTerms(terms, fieldTokens []string, fieldLength int, avgDocLength float64, params BM25Params) float64 {
	if len(terms) == 0 || len(fieldTokens) == 0 {
		return 0
	}
	if avgDocLength <= 0 {
		avgDocLength = 1
	}

	norm := params.K1 * (1 - params.B + params.B*float64(fieldLength)/avgDocLength)
	var score float64
	for _, term := range terms {
		tf := 0
		for _, tok := range fieldTokens {
			if tok == term {
				tf++
			}
		}
		if tf == 0 {
			continue
		}
		// IDF is fixed at 1.0.
		score += float64(tf) * (params.K1 + 1) / (float64(tf) + norm)
	}
	return score
}

// FieldScores holds the field-weighted BM25 score of each product field.
type FieldScores struct {
	Title       float64
	Description float64
	Category    float64
}

// Total returns the summed lexical relevance.
func (f FieldScores) Total() float64 {
	return f.Title + f.Description + f.Category
}

// ScoreFields scores every field of p against pre-tokenized query terms and
// applies the field weights.
func ScoreFields(terms []string, p *core.Product, avgDocLength float64, params BM25Params) FieldScores {
	field := func(text string) float64 {
		tokens := Tokenize(text)
		return scoreTerms(terms, tokens, len(tokens), avgDocLength, params)
	}
	return FieldScores{
		Title:       field(p.Name) * TitleFieldWeight,
		Description: field(p.Description) * DescriptionFieldWeight,
		Category:    field(p.Category) * CategoryFieldWeight,
	}
}

// ExactMatch reports whether the product title and category contain the
// normalized query as a substring.
func ExactMatch(normalizedQuery string, p *core.Product) (title, category bool) {
	if normalizedQuery == "" {
		return false, false
	}
	return strings.Contains(strings.ToLower(p.Name), normalizedQuery),
		strings.Contains(strings.ToLower(p.Category), normalizedQuery)
}
