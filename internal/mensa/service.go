package mensa

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/witibot/witibot/internal/config"
)

const (
	msgNoMenuToday     = "I couldn't find a menu for today. Please try again tomorrow."
	msgDailySet        = "Successfully set daily mensa job for favorite mensas!"
	msgDailyAlreadySet = "You already have an active daily mensa job!"
	msgNoDailyJob      = "You have no active daily mensa job!"
	msgDailyUnset      = "Successfully unset daily mensa job!"
	msgNeedDailyJob    = "You can only use this command with an active daily menu job."
	msgNoFavoritesYet  = "You don't have any favorite mensas yet. Use /add to add a mensa to your favorites."
)

// menuFetcher is implemented by ETHClient and UZHClient.
type menuFetcher interface {
	Menu(ctx context.Context, caf Cafeteria, now time.Time) (Menu, error)
}

// DeliverFunc sends a message to a conversation. Wired to the outbound
// transport at startup.
type DeliverFunc func(ctx context.Context, conversation int64, text string, html bool)

// Service answers menu commands and runs the daily favorites delivery.
type Service struct {
	catalog   *Catalog
	eth       menuFetcher
	uzh       menuFetcher
	favorites *Favorites
	deliver   DeliverFunc
	now       func() time.Time

	cronSpec string
	timezone string
}

func NewService(cfg config.MensaConfig, catalog *Catalog, eth, uzh menuFetcher) *Service {
	return &Service{
		catalog:   catalog,
		eth:       eth,
		uzh:       uzh,
		favorites: NewFavorites(cfg.FavoritesPath),
		now:       time.Now,
		cronSpec:  cfg.DeliverCron,
		timezone:  cfg.Timezone,
	}
}

// SetDeliver wires the outbound side used by the daily job.
func (s *Service) SetDeliver(fn DeliverFunc) { s.deliver = fn }

// LoadFavorites restores persisted daily jobs.
func (s *Service) LoadFavorites() error { return s.favorites.Load() }

// Handles reports whether command belongs to the menu family: the
// management commands plus every cafeteria's canonical alias.
func (s *Service) Handles(command string) bool {
	switch command {
	case "mensa", "set", "unset", "add", "remove", "favorite":
		return true
	}
	_, ok := s.catalog.Lookup(command)
	return ok
}

// HandleCommand executes a menu-family command and returns the reply.
func (s *Service) HandleCommand(ctx context.Context, conversation int64, command string, args []string) (string, bool) {
	switch command {
	case "mensa":
		if len(args) == 0 {
			return s.invalidNameReply(), false
		}
		caf, ok := s.catalog.Lookup(strings.Join(args, " "))
		if !ok {
			return s.invalidNameReply(), false
		}
		return s.menuReply(ctx, caf)
	case "set":
		if !s.favorites.SetDaily(conversation) {
			return msgDailyAlreadySet, false
		}
		slog.Info("set daily mensa job", "conversation", conversation)
		return msgDailySet, false
	case "unset":
		if !s.favorites.UnsetDaily(conversation) {
			return msgNoDailyJob, false
		}
		slog.Info("unset daily mensa job", "conversation", conversation)
		return msgDailyUnset, false
	case "add":
		return s.handleAdd(conversation, args), false
	case "remove":
		return s.handleRemove(conversation, args), false
	case "favorite":
		return s.handleFavorite(ctx, conversation)
	default:
		caf, ok := s.catalog.Lookup(command)
		if !ok {
			return "", false
		}
		return s.menuReply(ctx, caf)
	}
}

func (s *Service) invalidNameReply() string {
	return "Please provide a valid mensa name. Valid mensas are: \n" +
		strings.Join(s.catalog.CommandNames(), ", ")
}

func (s *Service) menuReply(ctx context.Context, caf Cafeteria) (string, bool) {
	menu, err := s.fetchMenu(ctx, caf)
	if err != nil {
		slog.Warn("menu fetch failed", "cafeteria", caf.Name, "err", err)
		return msgNoMenuToday, false
	}
	if len(menu.Meals) == 0 {
		slog.Info("no menu found", "cafeteria", caf.Name)
		return msgNoMenuToday, false
	}
	return menu.FormatHTML(), true
}

func (s *Service) fetchMenu(ctx context.Context, caf Cafeteria) (Menu, error) {
	switch caf.Kind {
	case KindETH:
		return s.eth.Menu(ctx, caf, s.now())
	case KindUZH:
		return s.uzh.Menu(ctx, caf, s.now())
	default:
		return Menu{}, fmt.Errorf("mensa: unknown kind %q", caf.Kind)
	}
}

func (s *Service) handleAdd(conversation int64, args []string) string {
	if len(args) == 0 {
		return s.invalidNameReply()
	}
	if !s.favorites.Active(conversation) {
		return "Please set a daily mensa job first with /set"
	}
	var added, invalid []string
	for _, arg := range args {
		caf, ok := s.catalog.Lookup(arg)
		if !ok {
			invalid = append(invalid, arg)
			continue
		}
		s.favorites.Add(conversation, caf.CommandName())
		added = append(added, caf.CommandName())
	}
	var lines []string
	for _, name := range invalid {
		lines = append(lines, fmt.Sprintf("%s is not a valid mensa name. Valid mensas are: \n%s",
			name, strings.Join(s.catalog.CommandNames(), ", ")))
	}
	if len(added) > 0 {
		lines = append(lines, fmt.Sprintf("Successfully added %s to favorite mensas!", strings.Join(added, ", ")))
	}
	return strings.Join(lines, "\n")
}

func (s *Service) handleRemove(conversation int64, args []string) string {
	if len(args) == 0 {
		return s.invalidNameReply()
	}
	if !s.favorites.Active(conversation) {
		return msgNoDailyJob
	}
	var removed, invalid []string
	for _, arg := range args {
		caf, ok := s.catalog.Lookup(arg)
		if !ok {
			invalid = append(invalid, arg)
			continue
		}
		s.favorites.Remove(conversation, caf.CommandName())
		removed = append(removed, caf.CommandName())
	}
	var lines []string
	for _, name := range invalid {
		lines = append(lines, fmt.Sprintf("%s is not a valid mensa name. Valid mensas are: \n%s",
			name, strings.Join(s.catalog.CommandNames(), ", ")))
	}
	if len(removed) > 0 {
		lines = append(lines, fmt.Sprintf("Successfully removed %s from favorite mensas!", strings.Join(removed, ", ")))
	}
	return strings.Join(lines, "\n")
}

func (s *Service) handleFavorite(ctx context.Context, conversation int64) (string, bool) {
	list, active := s.favorites.List(conversation)
	if !active {
		return msgNeedDailyJob, false
	}
	if len(list) == 0 {
		return msgNoFavoritesYet, false
	}
	return s.formatFavorites(ctx, list), true
}

// formatFavorites renders the favorites digest. Cafeterias with no
// menu today are skipped.
func (s *Service) formatFavorites(ctx context.Context, names []string) string {
	var b strings.Builder
	b.WriteString("Favorite mensas:\n\n")
	for _, name := range names {
		caf, ok := s.catalog.Lookup(name)
		if !ok {
			continue
		}
		menu, err := s.fetchMenu(ctx, caf)
		if err != nil || len(menu.Meals) == 0 {
			continue
		}
		b.WriteString(menu.FormatHTML() + "\n\n")
	}
	return b.String()
}

// RunDaily schedules the favorites delivery and blocks until ctx is
// cancelled.
func (s *Service) RunDaily(ctx context.Context) error {
	if s.deliver == nil {
		return fmt.Errorf("mensa: no deliver function wired")
	}
	loc, err := time.LoadLocation(s.timezone)
	if err != nil {
		return fmt.Errorf("mensa: load timezone: %w", err)
	}

	c := cron.New(cron.WithLocation(loc))
	if _, err := c.AddFunc(s.cronSpec, func() { s.deliverFavorites(ctx) }); err != nil {
		return fmt.Errorf("mensa: schedule daily job: %w", err)
	}
	c.Start()
	slog.Info("daily mensa job scheduled", "spec", s.cronSpec, "timezone", s.timezone)

	<-ctx.Done()
	stopped := c.Stop()
	<-stopped.Done()
	return ctx.Err()
}

func (s *Service) deliverFavorites(ctx context.Context) {
	for _, chat := range s.favorites.Chats() {
		list, _ := s.favorites.List(chat)
		if len(list) == 0 {
			continue
		}
		s.deliver(ctx, chat, s.formatFavorites(ctx, list), true)
		slog.Info("sent favorite mensas", "conversation", chat)
	}
}
