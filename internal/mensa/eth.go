package mensa

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const ethGastroBase = "https://www.webservices.ethz.ch/gastro/v1/RVRI/Q1E1"

// mealtimeSwitchHour is when the bot stops showing lunch and starts
// showing dinner.
const mealtimeSwitchHour = 14

// ETHClient fetches menus from the ETH gastro web service.
type ETHClient struct {
	baseURL string
	http    *http.Client
}

func NewETHClient(client *http.Client) *ETHClient {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &ETHClient{baseURL: ethGastroBase, http: client}
}

func mealtime(now time.Time) string {
	if now.Hour() < mealtimeSwitchHour {
		return "lunch"
	}
	return "dinner"
}

// ethLocation mirrors the gastro API response shape.
type ethLocation struct {
	Mensa string `json:"mensa"`
	Hours struct {
		Mealtime []struct {
			From string `json:"from"`
			To   string `json:"to"`
		} `json:"mealtime"`
	} `json:"hours"`
	Meals []struct {
		Label  string `json:"label"`
		Prices struct {
			Student string `json:"student"`
			Staff   string `json:"staff"`
			Extern  string `json:"extern"`
		} `json:"prices"`
		Description []string `json:"description"`
	} `json:"meals"`
}

// Menu returns caf's offering for the current mealtime. A cafeteria
// absent from the day's listing yields an empty menu, not an error.
func (c *ETHClient) Menu(ctx context.Context, caf Cafeteria, now time.Time) (Menu, error) {
	url := fmt.Sprintf("%s/meals/en/%s/%s", c.baseURL, now.Format("2006-01-02"), mealtime(now))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Menu{}, fmt.Errorf("mensa: build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return Menu{}, fmt.Errorf("mensa: fetch ETH menus: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Menu{}, fmt.Errorf("mensa: ETH gastro API returned %s", resp.Status)
	}

	var locations []ethLocation
	if err := json.NewDecoder(resp.Body).Decode(&locations); err != nil {
		return Menu{}, fmt.Errorf("mensa: decode ETH menus: %w", err)
	}

	menu := Menu{Cafeteria: caf}
	for _, loc := range locations {
		if loc.Mensa != caf.API {
			continue
		}
		if len(loc.Hours.Mealtime) > 0 {
			menu.Opening = loc.Hours.Mealtime[0].From
			menu.Closing = loc.Hours.Mealtime[0].To
		}
		for _, meal := range loc.Meals {
			menu.Meals = append(menu.Meals, Meal{
				Label:        meal.Label,
				PriceStudent: meal.Prices.Student,
				PriceStaff:   meal.Prices.Staff,
				PriceExtern:  meal.Prices.Extern,
				Description:  meal.Description,
			})
		}
	}
	return menu, nil
}
