package mensa

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"
)

const uzhMenuBase = "https://www.mensa.uzh.ch/de/menueplaene"

var uzhWeekdays = [...]string{"sonntag", "montag", "dienstag", "mittwoch", "donnerstag", "freitag", "samstag"}

// UZHClient scrapes menus from the UZH menu pages. The pages carry no
// structured data, so the meal lines are recovered from the extracted
// article text: a "label | CHF a / CHF b / CHF c" line followed by the
// description line.
type UZHClient struct {
	baseURL string
	http    *http.Client
}

func NewUZHClient(client *http.Client) *UZHClient {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &UZHClient{baseURL: uzhMenuBase, http: client}
}

func (c *UZHClient) Menu(ctx context.Context, caf Cafeteria, now time.Time) (Menu, error) {
	slug := caf.API
	if caf.EveningAPI != "" && now.Hour() >= mealtimeSwitchHour {
		slug = caf.EveningAPI
	}
	day := uzhWeekdays[now.Weekday()]
	pageURL := fmt.Sprintf("%s/%s/%s.html", c.baseURL, slug, day)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return Menu{}, fmt.Errorf("mensa: build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return Menu{}, fmt.Errorf("mensa: fetch UZH menu: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Menu{}, fmt.Errorf("mensa: UZH menu page returned %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Menu{}, fmt.Errorf("mensa: read UZH menu: %w", err)
	}

	parsedURL, _ := url.Parse(pageURL)
	article, err := readability.FromReader(bytes.NewReader(body), parsedURL)
	if err != nil {
		return Menu{}, fmt.Errorf("mensa: extract UZH menu: %w", err)
	}

	return Menu{Cafeteria: caf, Meals: parseUZHMeals(article.TextContent)}, nil
}

// parseUZHMeals scans the page text for price lines. Lines that don't
// follow the expected shape are skipped.
func parseUZHMeals(text string) []Meal {
	lines := strings.Split(text, "\n")
	var meals []Meal
	for i := 0; i < len(lines); i++ {
		label, prices, ok := strings.Cut(lines[i], " | ")
		if !ok {
			continue
		}
		parts := strings.Split(prices, " / ")
		if len(parts) < 3 {
			continue
		}
		meal := Meal{
			Label:        strings.TrimSpace(label),
			PriceStudent: cleanUZHPrice(parts[0]),
			PriceStaff:   cleanUZHPrice(parts[1]),
			PriceExtern:  cleanUZHPrice(parts[2]),
		}
		if i+1 < len(lines) {
			meal.Description = splitUZHDescription(lines[i+1])
			i++
		}
		meals = append(meals, meal)
	}
	return meals
}

func cleanUZHPrice(s string) string {
	s = strings.ReplaceAll(s, "CHF", "")
	return strings.ReplaceAll(s, " ", "")
}

func splitUZHDescription(line string) []string {
	var parts []string
	for _, p := range strings.Split(line, "  ") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}
