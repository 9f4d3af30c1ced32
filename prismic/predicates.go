package prismic

import (
	"strconv"
	"strings"
)

// Predicate is one query condition in Prismic's predicate syntax,
// e.g. [at(document.type, "posts")].
type Predicate string

// At matches documents whose field at path equals value exactly.
func At(path, value string) Predicate {
	return Predicate("[at(" + path + ", " + strconv.Quote(value) + ")]")
}

// Any matches documents whose field at path equals one of values.
func Any(path string, values ...string) Predicate {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = strconv.Quote(v)
	}
	return Predicate("[any(" + path + ", [" + strings.Join(quoted, ", ") + "])]")
}

// encodePredicates joins predicates into the q parameter value.
func encodePredicates(preds []Predicate) string {
	var b strings.Builder
	b.WriteByte('[')
	for _, p := range preds {
		b.WriteString(string(p))
	}
	b.WriteByte(']')
	return b.String()
}
