// Package container wires core witibot services using go.uber.org/dig.
package container

import (
	"time"

	"go.uber.org/dig"

	"github.com/witibot/witibot/internal/access"
	"github.com/witibot/witibot/internal/backlog"
	"github.com/witibot/witibot/internal/botlog"
	"github.com/witibot/witibot/internal/bus"
	"github.com/witibot/witibot/internal/config"
	"github.com/witibot/witibot/internal/controller"
	"github.com/witibot/witibot/internal/mensa"
	"github.com/witibot/witibot/internal/providers"
	"github.com/witibot/witibot/internal/store"
	"github.com/witibot/witibot/internal/summarize"
)

// Container holds the resolved core service singletons.
// Callers use the typed getter methods; they never need to import dig
// directly.
type Container struct {
	eventBus *bus.EventBus
	ctrl     *controller.Controller
	menus    *mensa.Service
	errors   *botlog.Collector
	snapshot *store.Store
}

func (c *Container) Bus() *bus.EventBus                 { return c.eventBus }
func (c *Container) Controller() *controller.Controller { return c.ctrl }
func (c *Container) Mensa() *mensa.Service              { return c.menus }
func (c *Container) Errors() *botlog.Collector          { return c.errors }
func (c *Container) Snapshot() *store.Store             { return c.snapshot }

// New builds and wires all core services from cfg.
func New(cfg *config.Config) (*Container, error) {
	d := dig.New()

	constructors := []any{
		func() *config.Config { return cfg },
		newEventBus,
		newTable,
		newStore,
		newGuard,
		newCollector,
		newCompleter,
		newPipeline,
		newMensaService,
		newController,
	}
	for _, c := range constructors {
		if err := d.Provide(c); err != nil {
			return nil, err
		}
	}

	var result *Container
	err := d.Invoke(func(
		b *bus.EventBus,
		ctrl *controller.Controller,
		menus *mensa.Service,
		errors *botlog.Collector,
		snapshot *store.Store,
	) {
		result = &Container{
			eventBus: b,
			ctrl:     ctrl,
			menus:    menus,
			errors:   errors,
			snapshot: snapshot,
		}
	})
	return result, err
}

func newEventBus() *bus.EventBus {
	return bus.NewEventBus(100)
}

func newTable() *backlog.Table {
	return backlog.NewTable()
}

func newStore(cfg *config.Config) *store.Store {
	return store.New(cfg.Backlog.SnapshotPath)
}

func newGuard(cfg *config.Config) *access.Guard {
	return access.NewGuard(cfg.Access.ApprovedChats, cfg.Access.OperatorChat)
}

func newCollector() *botlog.Collector {
	return botlog.NewCollector(50)
}

func newCompleter(cfg *config.Config) providers.Completer {
	timeout := time.Duration(cfg.Provider.TimeoutSeconds) * time.Second
	return providers.NewOpenAIClient(cfg.Provider.APIKey, cfg.Provider.APIBase, cfg.Provider.Model, timeout)
}

func newPipeline(cfg *config.Config, completer providers.Completer) *summarize.Pipeline {
	timeout := time.Duration(cfg.Provider.TimeoutSeconds) * time.Second
	return summarize.NewPipeline(completer, timeout)
}

func newMensaService(cfg *config.Config) (*mensa.Service, error) {
	catalog, err := mensa.DefaultCatalog()
	if err != nil {
		return nil, err
	}
	return mensa.NewService(cfg.Mensa, catalog, mensa.NewETHClient(nil), mensa.NewUZHClient(nil)), nil
}

func newController(
	b *bus.EventBus,
	table *backlog.Table,
	snapshot *store.Store,
	guard *access.Guard,
	pipeline *summarize.Pipeline,
	errors *botlog.Collector,
	menus *mensa.Service,
	cfg *config.Config,
) *controller.Controller {
	ctrl := controller.New(b, table, snapshot, guard, pipeline, errors, controller.Options{
		DefaultCapacity: cfg.Backlog.DefaultCapacity,
		PrintLimit:      cfg.Backlog.PrintLimit,
		DefaultLanguage: cfg.Backlog.DefaultLanguage,
	})
	if cfg.Mensa.Enabled {
		ctrl.SetMenus(menus)
	}
	return ctrl
}
