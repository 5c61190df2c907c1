package mensa

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/witibot/witibot/internal/config"
)

type stubFetcher struct {
	menus map[string]Menu
	err   error
}

func (s *stubFetcher) Menu(_ context.Context, caf Cafeteria, _ time.Time) (Menu, error) {
	if s.err != nil {
		return Menu{}, s.err
	}
	menu, ok := s.menus[caf.API]
	if !ok {
		return Menu{Cafeteria: caf}, nil
	}
	menu.Cafeteria = caf
	return menu, nil
}

func newTestService(t *testing.T, eth, uzh menuFetcher) *Service {
	t.Helper()
	catalog, err := DefaultCatalog()
	if err != nil {
		t.Fatal(err)
	}
	cfg := config.MensaConfig{
		FavoritesPath: filepath.Join(t.TempDir(), "favorites.json"),
		DeliverCron:   "0 9 * * 1-5",
		Timezone:      "Europe/Zurich",
	}
	return NewService(cfg, catalog, eth, uzh)
}

func polyMenu() Menu {
	return Menu{Meals: []Meal{{
		Label:        "HOME",
		PriceStudent: "6.50",
		PriceStaff:   "9.50",
		PriceExtern:  "12.50",
		Description:  []string{"Spaghetti napoli"},
	}}}
}

func TestHandles(t *testing.T) {
	s := newTestService(t, &stubFetcher{}, &stubFetcher{})
	for _, cmd := range []string{"mensa", "set", "unset", "add", "remove", "favorite", "poly", "irchel"} {
		if !s.Handles(cmd) {
			t.Errorf("Handles(%q) = false", cmd)
		}
	}
	for _, cmd := range []string{"start", "summarize", "unknown"} {
		if s.Handles(cmd) {
			t.Errorf("Handles(%q) = true", cmd)
		}
	}
}

func TestHandleCommand_Menu(t *testing.T) {
	eth := &stubFetcher{menus: map[string]Menu{"Mensa Polyterrasse": polyMenu()}}
	s := newTestService(t, eth, &stubFetcher{})
	ctx := context.Background()

	reply, html := s.HandleCommand(ctx, 1, "mensa", []string{"poly"})
	if !html {
		t.Fatal("menu reply should be HTML")
	}
	if !strings.Contains(reply, "HOME") || !strings.Contains(reply, "Mensa Polyterrasse") {
		t.Fatalf("reply = %q", reply)
	}

	// Bare cafeteria command resolves the same way.
	bare, _ := s.HandleCommand(ctx, 1, "poly", nil)
	if bare != reply {
		t.Fatalf("bare command reply differs: %q vs %q", bare, reply)
	}
}

func TestHandleCommand_InvalidName(t *testing.T) {
	s := newTestService(t, &stubFetcher{}, &stubFetcher{})
	ctx := context.Background()

	for _, args := range [][]string{nil, {"atlantis"}} {
		reply, html := s.HandleCommand(ctx, 1, "mensa", args)
		if html {
			t.Fatal("error reply should be plain text")
		}
		if !strings.Contains(reply, "Please provide a valid mensa name.") ||
			!strings.Contains(reply, "poly") {
			t.Fatalf("reply = %q", reply)
		}
	}
}

func TestHandleCommand_NoMenuToday(t *testing.T) {
	s := newTestService(t, &stubFetcher{}, &stubFetcher{})
	reply, _ := s.HandleCommand(context.Background(), 1, "mensa", []string{"poly"})
	if reply != msgNoMenuToday {
		t.Fatalf("reply = %q", reply)
	}
}

func TestHandleCommand_FetchErrorHidden(t *testing.T) {
	s := newTestService(t, &stubFetcher{err: errors.New("boom")}, &stubFetcher{})
	reply, _ := s.HandleCommand(context.Background(), 1, "poly", nil)
	if reply != msgNoMenuToday {
		t.Fatalf("reply = %q", reply)
	}
}

func TestDailyJobLifecycle(t *testing.T) {
	s := newTestService(t, &stubFetcher{}, &stubFetcher{})
	ctx := context.Background()

	if reply, _ := s.HandleCommand(ctx, 7, "set", nil); reply != msgDailySet {
		t.Fatalf("set: %q", reply)
	}
	if reply, _ := s.HandleCommand(ctx, 7, "set", nil); reply != msgDailyAlreadySet {
		t.Fatalf("second set: %q", reply)
	}
	if reply, _ := s.HandleCommand(ctx, 7, "unset", nil); reply != msgDailyUnset {
		t.Fatalf("unset: %q", reply)
	}
	if reply, _ := s.HandleCommand(ctx, 7, "unset", nil); reply != msgNoDailyJob {
		t.Fatalf("second unset: %q", reply)
	}
}

func TestAddRemoveFavorites(t *testing.T) {
	s := newTestService(t, &stubFetcher{}, &stubFetcher{})
	ctx := context.Background()

	if reply, _ := s.HandleCommand(ctx, 7, "add", []string{"poly"}); !strings.Contains(reply, "set a daily mensa job first") {
		t.Fatalf("add before set: %q", reply)
	}

	s.HandleCommand(ctx, 7, "set", nil)

	reply, _ := s.HandleCommand(ctx, 7, "add", []string{"poly", "clausius"})
	if !strings.Contains(reply, "Successfully added poly, clausius to favorite mensas!") {
		t.Fatalf("add: %q", reply)
	}

	reply, _ = s.HandleCommand(ctx, 7, "add", []string{"atlantis"})
	if !strings.Contains(reply, "atlantis is not a valid mensa name.") {
		t.Fatalf("invalid add: %q", reply)
	}

	reply, _ = s.HandleCommand(ctx, 7, "remove", []string{"poly"})
	if !strings.Contains(reply, "Successfully removed poly from favorite mensas!") {
		t.Fatalf("remove: %q", reply)
	}

	list, ok := s.favorites.List(7)
	if !ok || len(list) != 1 || list[0] != "clausius" {
		t.Fatalf("favorites = %v, %v", list, ok)
	}
}

func TestFavoriteCommand(t *testing.T) {
	eth := &stubFetcher{menus: map[string]Menu{"Mensa Polyterrasse": polyMenu()}}
	s := newTestService(t, eth, &stubFetcher{})
	ctx := context.Background()

	if reply, _ := s.HandleCommand(ctx, 7, "favorite", nil); reply != msgNeedDailyJob {
		t.Fatalf("favorite before set: %q", reply)
	}

	s.HandleCommand(ctx, 7, "set", nil)
	if reply, _ := s.HandleCommand(ctx, 7, "favorite", nil); reply != msgNoFavoritesYet {
		t.Fatalf("favorite with empty set: %q", reply)
	}

	// clausius has no menu today and is skipped from the digest.
	s.HandleCommand(ctx, 7, "add", []string{"poly", "clausius"})
	reply, html := s.HandleCommand(ctx, 7, "favorite", nil)
	if !html {
		t.Fatal("digest should be HTML")
	}
	if !strings.HasPrefix(reply, "Favorite mensas:") || !strings.Contains(reply, "HOME") {
		t.Fatalf("digest = %q", reply)
	}
	if strings.Contains(reply, "Clausiusbar") {
		t.Fatalf("empty cafeteria should be skipped: %q", reply)
	}
}

func TestFavorites_PersistAcrossRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "favorites.json")
	catalog, err := DefaultCatalog()
	if err != nil {
		t.Fatal(err)
	}
	cfg := config.MensaConfig{FavoritesPath: path, DeliverCron: "0 9 * * 1-5", Timezone: "Europe/Zurich"}

	s1 := NewService(cfg, catalog, &stubFetcher{}, &stubFetcher{})
	ctx := context.Background()
	s1.HandleCommand(ctx, 7, "set", nil)
	s1.HandleCommand(ctx, 7, "add", []string{"poly"})

	s2 := NewService(cfg, catalog, &stubFetcher{}, &stubFetcher{})
	if err := s2.LoadFavorites(); err != nil {
		t.Fatalf("LoadFavorites: %v", err)
	}
	list, ok := s2.favorites.List(7)
	if !ok || len(list) != 1 || list[0] != "poly" {
		t.Fatalf("favorites after restart = %v, %v", list, ok)
	}
}

func TestDeliverFavorites(t *testing.T) {
	eth := &stubFetcher{menus: map[string]Menu{"Mensa Polyterrasse": polyMenu()}}
	s := newTestService(t, eth, &stubFetcher{})
	ctx := context.Background()

	s.HandleCommand(ctx, 7, "set", nil)
	s.HandleCommand(ctx, 7, "add", []string{"poly"})
	s.HandleCommand(ctx, 8, "set", nil) // no favorites, no delivery

	type delivery struct {
		chat int64
		text string
	}
	var got []delivery
	s.SetDeliver(func(_ context.Context, conversation int64, text string, html bool) {
		if !html {
			t.Error("daily digest should be HTML")
		}
		got = append(got, delivery{conversation, text})
	})

	s.deliverFavorites(ctx)
	if len(got) != 1 || got[0].chat != 7 {
		t.Fatalf("deliveries = %+v", got)
	}
	if !strings.Contains(got[0].text, "HOME") {
		t.Fatalf("digest = %q", got[0].text)
	}
}
