package rendering

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var inlineSpaceRe = regexp.MustCompile(`[ \t\r]+`)

// blockSelectors are elements that end a line of plain text.
const blockSelectors = "p, h1, h2, h3, h4, h5, h6, li, tr, br, hr, div"

// PlainText extracts readable text from an HTML document, one block per
// line with blank lines dropped. List items are prefixed with "- ".
func PlainText(htmlDoc string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlDoc))
	if err != nil {
		return "", &RenderError{Format: FormatText, Message: "failed to parse HTML", Cause: err}
	}
	doc.Find("script, style, head").Remove()
	doc.Find("li").Each(func(_ int, s *goquery.Selection) {
		s.PrependHtml("- ")
	})
	doc.Find(blockSelectors).Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})

	var out []string
	for _, ln := range strings.Split(doc.Text(), "\n") {
		if ln = strings.TrimSpace(inlineSpaceRe.ReplaceAllString(ln, " ")); ln != "" {
			out = append(out, ln)
		}
	}
	return strings.Join(out, "\n") + "\n", nil
}
