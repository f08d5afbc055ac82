package utils

import (
	"html/template"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// EnhanceHTMLContent 为渲染后 HTML 中的图片增加懒加载和安全属性
func EnhanceHTMLContent(htmlStr string) template.HTML {
	if htmlStr == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlStr))
	if err != nil {
		return template.HTML(htmlStr)
	}

	doc.Find("img").Each(func(i int, s *goquery.Selection) {
		s.SetAttr("referrerpolicy", "no-referrer")
		s.SetAttr("loading", "lazy")
		s.SetAttr("onerror", "this.onerror=null; this.src='/static/img/imgerr.svg'")
	})

	// Photos of the problem are usually linked, not embedded.
	doc.Find("a").Each(func(i int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if isImageURL(href) && strings.TrimSpace(s.Text()) == href {
			s.ReplaceWithHtml(`<img src="` + template.HTMLEscapeString(href) + `" alt="photo" loading="lazy" referrerpolicy="no-referrer">`)
		}
	})

	// goquery renders full document tags if missing, we just want the body content
	html, _ := doc.Find("body").Html()
	if html == "" {
		html, _ = doc.Html()
	}

	return template.HTML(html)
}

func isImageURL(u string) bool {
	if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		return false
	}
	lower := strings.ToLower(u)
	if i := strings.IndexAny(lower, "?#"); i >= 0 {
		lower = lower[:i]
	}
	for _, ext := range []string{".jpg", ".jpeg", ".png", ".gif", ".webp"} {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
