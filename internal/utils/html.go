package utils

import (
	"html"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// HTMLToPlainText strips markup from an HTML body, dropping script and style
// content entirely.
func HTMLToPlainText(htmlBody string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlBody))
	if err != nil {
		return "", err
	}

	doc.Find("script, style").Each(func(i int, el *goquery.Selection) {
		el.Remove()
	})

	text := doc.Find("body").Text()
	text = strings.TrimSpace(text)
	text = strings.ReplaceAll(text, "\n\n", "\n")

	return text, nil
}

// TextToHTML mirrors a plain text body into minimal HTML, turning line
// breaks into <br> markup.
func TextToHTML(text string) string {
	escaped := html.EscapeString(text)
	escaped = strings.ReplaceAll(escaped, "\r\n", "\n")
	return strings.ReplaceAll(escaped, "\n", "<br>")
}

// Preview collapses whitespace and truncates text to max runes for list views.
func Preview(text string, max int) string {
	collapsed := strings.Join(strings.Fields(text), " ")
	runes := []rune(collapsed)
	if len(runes) <= max {
		return collapsed
	}
	return string(runes[:max])
}
