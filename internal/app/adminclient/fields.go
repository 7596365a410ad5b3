package adminclient

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dalemusser/stratacatalog/internal/domain/models"
)

// Field addresses one asset reference inside a brand. Upload results are
// written through it.
type Field struct {
	name string
	set  func(b *models.Brand, v string) error
	get  func(b *models.Brand) (string, error)
}

// String returns the field's dotted name relative to its brand.
func (f Field) String() string { return f.name }

// Set writes v into b.
func (f Field) Set(b *models.Brand, v string) error { return f.set(b, v) }

// Get reads the current value from b.
func (f Field) Get(b *models.Brand) (string, error) { return f.get(b) }

// BrandLogo is the brand page logo.
func BrandLogo() Field {
	return Field{
		name: "brandLogo",
		set:  func(b *models.Brand, v string) error { b.BrandLogo = v; return nil },
		get:  func(b *models.Brand) (string, error) { return b.BrandLogo, nil },
	}
}

// HomeLogoBase is the home grid logo.
func HomeLogoBase() Field {
	return Field{
		name: "homeLogoBase",
		set:  func(b *models.Brand, v string) error { b.HomeLogoBase = v; return nil },
		get:  func(b *models.Brand) (string, error) { return b.HomeLogoBase, nil },
	}
}

// HomeLogoHover is the home grid hover logo.
func HomeLogoHover() Field {
	return Field{
		name: "homeLogoHover",
		set:  func(b *models.Brand, v string) error { b.HomeLogoHover = v; return nil },
		get:  func(b *models.Brand) (string, error) { return b.HomeLogoHover, nil },
	}
}

// ItemBaseImage is item i's grid image.
func ItemBaseImage(i int) Field {
	return itemField(i, "baseImage", func(it *models.Item) *string { return &it.BaseImage })
}

// ItemHoverImage is item i's grid hover image.
func ItemHoverImage(i int) Field {
	return itemField(i, "hoverImage", func(it *models.Item) *string { return &it.HoverImage })
}

// ArticleImage is image slot of item i's article (0 is the lead image).
func ArticleImage(i, slot int) Field {
	return itemField(i, fmt.Sprintf("article.images.%d", slot), func(it *models.Item) *string {
		if slot < 0 || slot >= models.ArticleSlots {
			return nil
		}
		if len(it.Article.Images) < models.ArticleSlots {
			imgs := make([]string, models.ArticleSlots)
			copy(imgs, it.Article.Images)
			it.Article.Images = imgs
		}
		return &it.Article.Images[slot]
	})
}

func itemField(i int, sub string, ref func(*models.Item) *string) Field {
	name := fmt.Sprintf("items.%d.%s", i, sub)
	resolve := func(b *models.Brand) (*string, error) {
		if i < 0 || i >= len(b.Items) {
			return nil, fmt.Errorf("%s: %w", name, ErrItemNotFound)
		}
		p := ref(&b.Items[i])
		if p == nil {
			return nil, fmt.Errorf("%s: slot out of range", name)
		}
		return p, nil
	}
	return Field{
		name: name,
		set: func(b *models.Brand, v string) error {
			p, err := resolve(b)
			if err != nil {
				return err
			}
			*p = v
			return nil
		},
		get: func(b *models.Brand) (string, error) {
			p, err := resolve(b)
			if err != nil {
				return "", err
			}
			return *p, nil
		},
	}
}

// ParseField maps a dotted name such as "items.2.article.images.0" to its
// Field. It is meant for command-line input.
func ParseField(name string) (Field, error) {
	parts := strings.Split(name, ".")
	switch {
	case name == "brandLogo":
		return BrandLogo(), nil
	case name == "homeLogoBase":
		return HomeLogoBase(), nil
	case name == "homeLogoHover":
		return HomeLogoHover(), nil
	case len(parts) >= 3 && parts[0] == "items":
		idx, err := strconv.Atoi(parts[1])
		if err != nil {
			return Field{}, fmt.Errorf("field %q: bad item index", name)
		}
		rest := strings.Join(parts[2:], ".")
		switch {
		case rest == "baseImage":
			return ItemBaseImage(idx), nil
		case rest == "hoverImage":
			return ItemHoverImage(idx), nil
		case len(parts) == 5 && parts[2] == "article" && parts[3] == "images":
			slot, err := strconv.Atoi(parts[4])
			if err != nil {
				return Field{}, fmt.Errorf("field %q: bad image slot", name)
			}
			return ArticleImage(idx, slot), nil
		}
	}
	return Field{}, fmt.Errorf("unknown field %q", name)
}
