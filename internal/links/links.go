// Package links rewrites ticker symbols into Markdown chart links for
// the dashboard's symbol column.
package links

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// Transformer builds chart links of the form
// [SYM](<base-url>?symbol=<exchange>%3ASYM)
type Transformer struct {
	baseURL  string
	exchange string
}

// NewTransformer creates a transformer for the given charting service
// base URL and exchange prefix
func NewTransformer(baseURL, exchange string) *Transformer {
	return &Transformer{
		baseURL:  strings.TrimRight(baseURL, "?"),
		exchange: exchange,
	}
}

// Link rewrites a symbol into a Markdown hyperlink. The symbol is
// URL-escaped for the query string and bracket characters are stripped
// from the display text so the Markdown context stays well-formed.
func (t *Transformer) Link(symbol string) string {
	display := strings.NewReplacer("[", "", "]", "", "(", "", ")", "").Replace(symbol)
	query := url.Values{}
	query.Set("symbol", t.exchange+":"+symbol)
	return fmt.Sprintf("[%s](%s?%s)", display, t.baseURL, query.Encode())
}

var linkPattern = regexp.MustCompile(`^\[([^\]]*)\]\([^)]*\)$`)

// Symbol extracts the display symbol back out of a link produced by
// Link. Non-link input is returned unchanged, which makes the transform
// reversible for export round-trips.
func Symbol(link string) string {
	if m := linkPattern.FindStringSubmatch(link); m != nil {
		return m[1]
	}
	return link
}
