package adminclient

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/dalemusser/stratacatalog/internal/app/registry"
	"github.com/dalemusser/stratacatalog/internal/app/system/slug"
	"github.com/dalemusser/stratacatalog/internal/domain/models"
)

var (
	ErrEmptyName     = errors.New("name is empty")
	ErrBrandExists   = errors.New("brand already exists")
	ErrBrandNotFound = errors.New("brand not found")
	ErrItemExists    = errors.New("an item with this name already exists")
	ErrItemNotFound  = errors.New("item not found")
)

// Draft is an editable copy of a registry. Edits never reach the registry
// it was made from. Methods are safe for concurrent use; concurrent edits
// to the same field are last-write-wins.
type Draft struct {
	mu  sync.Mutex
	reg *models.Registry
}

// NewDraft deep-copies base into a new draft.
func NewDraft(base *models.Registry) *Draft {
	if base == nil {
		base = &models.Registry{}
	}
	return &Draft{reg: base.Clone()}
}

// Snapshot returns a deep copy of the draft's current state.
func (d *Draft) Snapshot() *models.Registry {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.reg.Clone()
}

// Edit runs fn with exclusive access to the draft registry.
func (d *Draft) Edit(fn func(reg *models.Registry) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return fn(d.reg)
}

// AddBrand adds an empty brand. The key is trimmed and upper-cased.
func (d *Draft) AddBrand(raw string) (string, error) {
	key := strings.ToUpper(strings.TrimSpace(raw))
	if key == "" {
		return "", ErrEmptyName
	}
	err := d.Edit(func(reg *models.Registry) error {
		if _, ok := reg.Brands.Get(key); ok {
			return fmt.Errorf("%s: %w", key, ErrBrandExists)
		}
		reg.Brands.Set(key, models.Brand{Items: []models.Item{}})
		return nil
	})
	return key, err
}

// DeleteBrand removes a brand and its items.
func (d *Draft) DeleteBrand(key string) error {
	return d.Edit(func(reg *models.Registry) error {
		if !reg.Brands.Delete(key) {
			return fmt.Errorf("%s: %w", key, ErrBrandNotFound)
		}
		return nil
	})
}

// AddItem appends an item with empty article slots. The name is trimmed
// and upper-cased; an item whose slug would collide is rejected.
// It returns the new item's index.
func (d *Draft) AddItem(brandKey, raw string) (int, error) {
	name := strings.ToUpper(strings.TrimSpace(raw))
	if name == "" {
		return -1, ErrEmptyName
	}
	idx := -1
	err := d.Edit(func(reg *models.Registry) error {
		b, ok := reg.Brands.Get(brandKey)
		if !ok {
			return fmt.Errorf("%s: %w", brandKey, ErrBrandNotFound)
		}
		s := slug.Make(name)
		for _, it := range b.Items {
			if registry.ResolvedSlug(it) == s {
				return fmt.Errorf("%s: %w", name, ErrItemExists)
			}
		}
		b.Items = append(b.Items, models.Item{
			Name: name,
			Slug: s,
			Article: models.Article{
				Blocks: models.EmptySlots(models.ArticleSlots),
				Images: models.EmptySlots(models.ArticleSlots),
			},
		})
		idx = len(b.Items) - 1
		return nil
	})
	return idx, err
}

// DeleteItem removes item idx from a brand.
func (d *Draft) DeleteItem(brandKey string, idx int) error {
	return d.Edit(func(reg *models.Registry) error {
		b, err := itemAt(reg, brandKey, idx)
		if err != nil {
			return err
		}
		b.Items = append(b.Items[:idx:idx], b.Items[idx+1:]...)
		return nil
	})
}

// MoveItem swaps item idx with its neighbour in direction dir (-1 up, +1 down).
// Moving past either end is a no-op that reports false.
func (d *Draft) MoveItem(brandKey string, idx, dir int) (bool, error) {
	moved := false
	err := d.Edit(func(reg *models.Registry) error {
		b, err := itemAt(reg, brandKey, idx)
		if err != nil {
			return err
		}
		j := idx + dir
		if dir == 0 || j < 0 || j >= len(b.Items) {
			return nil
		}
		b.Items[idx], b.Items[j] = b.Items[j], b.Items[idx]
		moved = true
		return nil
	})
	return moved, err
}

// RenameItem sets an item's name and re-derives its slug from it.
func (d *Draft) RenameItem(brandKey string, idx int, name string) error {
	return d.Edit(func(reg *models.Registry) error {
		b, err := itemAt(reg, brandKey, idx)
		if err != nil {
			return err
		}
		b.Items[idx].Name = name
		b.Items[idx].Slug = slug.Make(name)
		return nil
	})
}

// Set writes value into a brand field.
func (d *Draft) Set(brandKey string, f Field, value string) error {
	return d.Edit(func(reg *models.Registry) error {
		b, ok := reg.Brands.Get(brandKey)
		if !ok {
			return fmt.Errorf("%s: %w", brandKey, ErrBrandNotFound)
		}
		return f.Set(b, value)
	})
}

// Get reads a brand field.
func (d *Draft) Get(brandKey string, f Field) (string, error) {
	var v string
	err := d.Edit(func(reg *models.Registry) error {
		b, ok := reg.Brands.Get(brandKey)
		if !ok {
			return fmt.Errorf("%s: %w", brandKey, ErrBrandNotFound)
		}
		var err error
		v, err = f.Get(b)
		return err
	})
	return v, err
}

func itemAt(reg *models.Registry, brandKey string, idx int) (*models.Brand, error) {
	b, ok := reg.Brands.Get(brandKey)
	if !ok {
		return nil, fmt.Errorf("%s: %w", brandKey, ErrBrandNotFound)
	}
	if idx < 0 || idx >= len(b.Items) {
		return nil, fmt.Errorf("%s item %d: %w", brandKey, idx, ErrItemNotFound)
	}
	return b, nil
}

var whitespace = regexp.MustCompile(`\s+`)

// UploadPath is the storage path an uploaded file gets for a brand.
func UploadPath(brandKey, filename string) string {
	return "CONTENT/BRAND PAGE/" + brandKey + "/" + whitespace.ReplaceAllString(filename, "_")
}
