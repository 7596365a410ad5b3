// Package htmlsanitize finds executable markup in registry text.
//
// Registry text is stored exactly as authored and nothing is rewritten here.
// Text carrying markup a browser would run if placed into HTML is reported.
package htmlsanitize

import (
	"fmt"
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	xhtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var (
	urlPolicy  *bluemonday.Policy
	policyOnce sync.Once
)

// urlChecker returns the policy whose URL rules decide which link targets are safe.
func urlChecker() *bluemonday.Policy {
	policyOnce.Do(func() {
		urlPolicy = bluemonday.UGCPolicy()
	})
	return urlPolicy
}

// Elements whose content or loading is active regardless of attributes.
var activeElements = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Iframe:   true,
	atom.Frame:    true,
	atom.Frameset: true,
	atom.Object:   true,
	atom.Embed:    true,
	atom.Applet:   true,
	atom.Link:     true,
	atom.Meta:     true,
	atom.Base:     true,
	atom.Form:     true,
	atom.Svg:      true,
	atom.Math:     true,
	atom.Template: true,
}

// Attributes holding a URL that is followed or loaded.
var urlAttrs = map[string]bool{
	"href":       true,
	"src":        true,
	"action":     true,
	"formaction": true,
	"poster":     true,
	"background": true,
	"xlink:href": true,
}

// IsPlainText reports whether content cannot contain a tag.
func IsPlainText(content string) bool {
	return !strings.Contains(content, "<")
}

// ActiveMarkup returns a short description of the first executable markup
// in s, or "" when s is inert. Stray angle brackets ("5 < 6", "<3") and
// unknown tags ("Size <M>") are inert.
func ActiveMarkup(s string) string {
	if IsPlainText(s) {
		return ""
	}
	z := xhtml.NewTokenizer(strings.NewReader(s))
	for {
		switch z.Next() {
		case xhtml.ErrorToken:
			return ""
		case xhtml.StartTagToken, xhtml.SelfClosingTagToken:
			if reason := activeTag(z.Token()); reason != "" {
				return reason
			}
		}
	}
}

func activeTag(t xhtml.Token) string {
	if activeElements[t.DataAtom] {
		return fmt.Sprintf("<%s> element is not allowed", t.Data)
	}
	for _, a := range t.Attr {
		key := strings.ToLower(a.Key)
		if strings.HasPrefix(key, "on") {
			return fmt.Sprintf("%s handler on <%s> is not allowed", key, t.Data)
		}
		if urlAttrs[key] && !safeURL(a.Val) {
			return fmt.Sprintf("%s on <%s> uses a disallowed URL scheme", key, t.Data)
		}
	}
	return ""
}

// safeURL reports whether bluemonday would keep u as a link target.
func safeURL(u string) bool {
	u = strings.TrimSpace(u)
	if u == "" {
		return true
	}
	anchor := `<a href="` + html.EscapeString(u) + `">x</a>`
	return strings.Contains(urlChecker().Sanitize(anchor), "href=")
}
