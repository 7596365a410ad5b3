package catalog

// SiteView is the site-wide text and links with asset URLs resolved.
type SiteView struct {
	HanifaLogo   string `json:"hanifaLogo,omitempty"`
	HeroNote     string `json:"heroNote"`
	TelegramIcon string `json:"telegramIcon,omitempty"`
	TelegramLink string `json:"telegramLink,omitempty"`
	FooterNote   string `json:"footerNote"`
}

// HomeBrand is one tile on the home page.
type HomeBrand struct {
	Key           string `json:"key"`
	HomeLogoBase  string `json:"homeLogoBase,omitempty"`
	HomeLogoHover string `json:"homeLogoHover,omitempty"`
	ItemCount     int    `json:"itemCount"`
}

// HomeView is the response for GET /api/catalog.
type HomeView struct {
	Site        SiteView    `json:"site"`
	Brands      []HomeBrand `json:"brands"`
	ChangeToken string      `json:"changeToken,omitempty"`
}

// ItemCard is one item in a brand grid.
type ItemCard struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Slug       string `json:"slug"`
	BaseImage  string `json:"baseImage,omitempty"`
	HoverImage string `json:"hoverImage,omitempty"`
}

// BrandView is the response for GET /api/catalog/brands/{brand}.
type BrandView struct {
	Key       string     `json:"key"`
	BrandLogo string     `json:"brandLogo,omitempty"`
	Items     []ItemCard `json:"items"`
}

// Section is one text block of an article with the image that follows it.
// Heading is the subheading shown before the block, if any.
type Section struct {
	Heading string `json:"heading,omitempty"`
	Text    string `json:"text"`
	Image   string `json:"image,omitempty"`
}

// ItemView is the response for GET /api/catalog/brands/{brand}/items/{slug}.
type ItemView struct {
	Brand        string    `json:"brand"`
	BrandLogo    string    `json:"brandLogo,omitempty"`
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Slug         string    `json:"slug"`
	LeadImage    string    `json:"leadImage,omitempty"`
	Sections     []Section `json:"sections"`
	PurchaseLink string    `json:"purchaseLink,omitempty"`
}
