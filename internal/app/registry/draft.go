package registry

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/dalemusser/stratacatalog/internal/app/system/htmlsanitize"
	"github.com/dalemusser/stratacatalog/internal/app/system/slug"
	"github.com/dalemusser/stratacatalog/internal/domain/models"
)

var httpURL = regexp.MustCompile(`(?i)^https?://`)

// IsHTTPURL reports whether s starts with http:// or https://.
func IsHTTPURL(s string) bool {
	return httpURL.MatchString(s)
}

// ValidateDraft checks an edited registry before it is committed and
// reports every problem at once as a *ValidationError wrapping ErrDraftInvalid.
//
// It also pads or caps every article's blocks and images to exactly
// models.ArticleSlots entries in place; that is never an issue.
func ValidateDraft(reg *models.Registry) error {
	var is issues
	checkMarkup(&is, "site.heroNote", reg.Site.HeroNote)
	checkMarkup(&is, "site.footerNote", reg.Site.FooterNote)

	reg.Brands.Each(func(bk string, b *models.Brand) bool {
		bp := join("brands", bk)
		if strings.TrimSpace(bk) == "" {
			is.add(bp, "brand name is empty")
		}

		seen := make(map[string]bool, len(b.Items))
		for idx := range b.Items {
			it := &b.Items[idx]
			ip := join(bp, "items", strconv.Itoa(idx))

			if strings.TrimSpace(it.Name) == "" {
				is.add(join(ip, "name"), "item name is empty")
			}

			s := ResolvedSlug(*it)
			switch {
			case s == "":
				is.add(join(ip, "slug"), "could not derive a slug")
			case seen[s]:
				is.add(join(ip, "slug"), "duplicate slug %q in brand", s)
			}
			seen[s] = true

			if wb := strings.TrimSpace(it.Article.WBLink); wb != "" && !IsHTTPURL(wb) {
				is.add(join(ip, "article", "wbLink"), "wbLink must start with http:// or https://")
			}

			it.Article.Blocks = fit(it.Article.Blocks, models.ArticleSlots)
			it.Article.Images = fit(it.Article.Images, models.ArticleSlots)

			checkMarkup(&is, join(ip, "name"), it.Name)
			ap := join(ip, "article")
			for j, blk := range it.Article.Blocks {
				checkMarkup(&is, join(ap, "blocks", strconv.Itoa(j)), blk)
			}
			checkMarkup(&is, join(ap, "tocBefore1"), it.Article.TocBefore1)
			checkMarkup(&is, join(ap, "tocBefore2"), it.Article.TocBefore2)
			checkMarkup(&is, join(ap, "tocBefore5"), it.Article.TocBefore5)
			checkMarkup(&is, join(ap, "tocBefore6"), it.Article.TocBefore6)
		}
		return true
	})
	return is.err(ErrDraftInvalid)
}

// checkMarkup reports text that carries executable markup. Inert text,
// including stray angle brackets, is left as authored.
func checkMarkup(is *issues, path, text string) {
	if reason := htmlsanitize.ActiveMarkup(text); reason != "" {
		is.add(path, "%s", reason)
	}
}

// ResolvedSlug is the item's explicit slug, or the slug of its name when none is set.
func ResolvedSlug(it models.Item) string {
	if s := strings.TrimSpace(it.Slug); s != "" {
		return s
	}
	return slug.Make(it.Name)
}

// fit returns s resized to exactly n entries.
func fit(s []string, n int) []string {
	out := make([]string, n)
	copy(out, s)
	return out
}
