package notifications

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// zeroWidth is the invisible link text used to attach cover images.
const zeroWidth = "\u200c"

// PlainText strips HTML markup from message and returns the text together
// with the href of every link in document order.
func PlainText(message string) (string, []string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(message))
	if err != nil {
		return "", nil, fmt.Errorf("parse message html: %w", err)
	}
	var links []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		if href, ok := s.Attr("href"); ok && strings.TrimSpace(href) != "" {
			links = append(links, strings.TrimSpace(href))
		}
	})
	text := strings.ReplaceAll(doc.Text(), zeroWidth, "")
	return strings.TrimSpace(text), links, nil
}
