package news

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Category is one navigable section of the site.
type Category struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Catalogue lists the enabled categories in display order.
var Catalogue = []Category{
	{Name: "Home", Slug: "home"},
	{Name: "Business", Slug: "business"},
	{Name: "Entertainment", Slug: "entertainment"},
	{Name: "Health", Slug: "health"},
	{Name: "Lifestyle", Slug: "lifestyle"},
	{Name: "Science", Slug: "science"},
	{Name: "Sports", Slug: "sports"},
	{Name: "World News", Slug: "world-news"},
}

// upstream categories NewsAPI accepts as-is
var apiCategories = map[string]bool{
	"business":      true,
	"entertainment": true,
	"health":        true,
	"science":       true,
	"sports":        true,
	"technology":    true,
}

const (
	placeholderSource   = "Veritas Chronicle System"
	placeholderCategory = "placeholder"
)

// Lookup returns the catalogue entry for slug.
func Lookup(slug string) (Category, bool) {
	slug = NormalizeSlug(slug)
	for _, c := range Catalogue {
		if c.Slug == slug {
			return c, true
		}
	}
	return Category{}, false
}

// NormalizeSlug lowercases and replaces spaces so "World News" and
// "world-news" address the same page.
func NormalizeSlug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "home"
	}
	return strings.ReplaceAll(s, " ", "-")
}

// APICategory maps a page slug to the upstream headline category.
// Lifestyle borrows health; home, world news and anything unknown use general.
func APICategory(slug string) string {
	slug = NormalizeSlug(slug)
	if slug == "lifestyle" {
		return "health"
	}
	if apiCategories[slug] {
		return slug
	}
	return "general"
}

// DisplayName turns a slug into a title such as "Space Travel".
func DisplayName(slug string) string {
	name := strings.ReplaceAll(strings.TrimSpace(slug), "-", " ")
	return cases.Title(language.English).String(strings.ToLower(name))
}

func placeholderArticles(display string) []Article {
	return []Article{{
		Title:       "Feature Not Available: " + display + " News",
		URL:         "#",
		Source:      placeholderSource,
		Description: "The **" + display + "** category is not yet enabled. This is a placeholder page.",
		Category:    placeholderCategory,
	}}
}
