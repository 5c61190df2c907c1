package mensa

import (
	"fmt"
	"strings"
)

// Meal is one menu line at a cafeteria.
type Meal struct {
	Label        string
	PriceStudent string
	PriceStaff   string
	PriceExtern  string
	Description  []string
}

// Menu is a cafeteria's offering for one mealtime. Opening hours are
// only known for ETH locations.
type Menu struct {
	Cafeteria Cafeteria
	Opening   string
	Closing   string
	Meals     []Meal
}

// FormatHTML renders the menu in Telegram HTML: bold cafeteria name,
// italic hours when known, then each meal's label with prices and a
// bold first description line.
func (m Menu) FormatHTML() string {
	var b strings.Builder
	b.WriteString("<b>" + htmlEscape(m.Cafeteria.Name) + "</b>")
	if m.Opening != "" && m.Closing != "" {
		fmt.Fprintf(&b, " <i>%s-%s</i>", htmlEscape(m.Opening), htmlEscape(m.Closing))
	}
	b.WriteString("\n\n")

	parts := make([]string, len(m.Meals))
	for i, meal := range m.Meals {
		parts[i] = formatMeal(meal)
	}
	b.WriteString(strings.Join(parts, "\n\n"))
	return b.String()
}

func formatMeal(m Meal) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s <i>(%s, %s, %s)</i>\n",
		htmlEscape(m.Label),
		htmlEscape(priceOrUnavailable(m.PriceStudent)),
		htmlEscape(priceOrUnavailable(m.PriceStaff)),
		htmlEscape(priceOrUnavailable(m.PriceExtern)))
	if len(m.Description) > 0 {
		b.WriteString("<b>" + htmlEscape(m.Description[0]) + "</b>")
		if len(m.Description) > 1 {
			b.WriteString("\n" + htmlEscape(strings.Join(m.Description[1:], " ")))
		}
	}
	return b.String()
}

func priceOrUnavailable(p string) string {
	if p == "" {
		return "Not available."
	}
	return p
}

func htmlEscape(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}
