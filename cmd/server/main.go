package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/annel0/worldsim/internal/api"
	"github.com/annel0/worldsim/internal/auth"
	"github.com/annel0/worldsim/internal/catalog"
	"github.com/annel0/worldsim/internal/config"
	"github.com/annel0/worldsim/internal/creature"
	"github.com/annel0/worldsim/internal/eventbus"
	"github.com/annel0/worldsim/internal/game"
	"github.com/annel0/worldsim/internal/logging"
	"github.com/annel0/worldsim/internal/observability"
	"github.com/annel0/worldsim/internal/pathfinding"
	"github.com/annel0/worldsim/internal/scheduler"
	"github.com/annel0/worldsim/internal/storage"
	"github.com/annel0/worldsim/internal/vec"
	"github.com/annel0/worldsim/internal/world"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// вокруг стартовой точки генератор не ставит препятствий
const startClearingRadius = 4

func main() {
	configPath := flag.String("config", "", "путь к YAML конфигурации (по умолчанию WORLDSIM_CONFIG)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}

	logging.SetLogDir(cfg.Logging.Dir)
	if err := logging.InitDefaultLogger("server"); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()
	logging.SetDefaultLevel(logging.ParseLevel(cfg.Logging.Level))
	logging.GetLoggerManager().Configure(logging.ComponentLevels(cfg.Logging.Components)...)

	err = run(cfg)
	if cerr := logging.GetLoggerManager().CloseAll(); cerr != nil {
		logging.Warn("⚠️ Ошибка закрытия логов: %v", cerr)
	}
	if err != nil {
		logging.Error("❌ %v", err)
		os.Exit(1)
	}
	logging.Info("👋 Сервер успешно остановлен")
}

// closer — ресурс, который нужно закрыть при остановке
type closer struct {
	name string
	fn   func() error
}

func run(cfg *config.Config) error {
	logging.Info("🎮 Запуск %s", cfg.Server.Name)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var closers []closer
	defer func() {
		// в обратном порядке открытия
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i].fn(); err != nil {
				logging.Warn("⚠️ Ошибка закрытия %s: %v", closers[i].name, err)
			}
		}
	}()

	shutdownTelemetry, err := observability.InitTelemetry(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.Enabled)
	if err != nil {
		return fmt.Errorf("телеметрия: %w", err)
	}
	closers = append(closers, closer{"telemetry", func() error { return shutdownTelemetry(context.Background()) }})

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// === КАТАЛОГ И КАРТА ===
	cat, err := loadCatalog(cfg.World.Catalog)
	if err != nil {
		return err
	}

	startLocation := vec.Location{X: cfg.Game.StartX, Y: cfg.Game.StartY, Z: cfg.Game.StartZ}
	loader, err := world.NewProceduralLoader(cfg.World.Seed, cat, world.DefaultPalette)
	if err != nil {
		return fmt.Errorf("процедурный загрузчик: %w", err)
	}
	loader.ClearingCenter = startLocation
	loader.ClearingRadius = startClearingRadius
	var mapLoader world.Loader = loader
	if cfg.World.MapStore != "" {
		ms, err := storage.NewMapStore(cfg.World.MapStore, cat, loader)
		if err != nil {
			return fmt.Errorf("хранилище карты: %w", err)
		}
		closers = append(closers, closer{"map store", ms.Close})
		mapLoader = ms
	}
	worldMap := world.NewMap(mapLoader, world.WithWindowSize(cfg.World.WindowSize))

	// === ХРАНИЛИЩА ===
	monsters, err := openMonsterTypes(ctx, cfg, cat, &closers)
	if err != nil {
		return err
	}
	store, err := openStore(cfg, monsters)
	if err != nil {
		return err
	}
	closers = append(closers, closer{"store", store.Close})

	var presence storage.Presence
	if addr := cfg.Storage.GetRedisAddr(); addr != "" {
		rc := storage.DefaultRedisConfig()
		rc.Addr = addr
		rc.Password = cfg.Storage.RedisPassword
		rp, err := storage.NewRedisPresence(rc)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		closers = append(closers, closer{"redis", rp.Close})
		presence = rp
	}

	// === ШИНА СОБЫТИЙ ===
	bus, err := openEventBus(cfg)
	if err != nil {
		return err
	}
	closers = append(closers, closer{"event bus", bus.Close})
	if _, err := eventbus.StartLoggingListener(ctx, bus); err != nil {
		return fmt.Errorf("подписка логгера шины: %w", err)
	}

	// === ИГРА ===
	sched := scheduler.New(scheduler.SystemClock{},
		scheduler.WithMetrics(scheduler.NewMetrics(registry)),
		scheduler.WithTracer(observability.Tracer("worldsim/scheduler")),
	)

	settings := game.DefaultSettings()
	settings.ServerName = cfg.Server.Name
	settings.IdleTimeout = cfg.Game.IdleTimeout
	settings.AutoSaveInterval = cfg.Game.AutoSaveInterval
	settings.DayLength = cfg.Game.DayLength
	settings.StartLocation = startLocation

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	g, err := game.New(game.Options{
		Scheduler:  sched,
		Map:        worldMap,
		Catalog:    cat,
		Store:      store,
		Paths:      pathfinding.NewFinder(),
		Factory:    creature.NewFactory(creature.DefaultProgression, rand.New(rand.NewSource(rng.Int63()))),
		Bus:        bus,
		Presence:   presence,
		Registerer: registry,
		Rand:       rng,
		Settings:   settings,
	})
	if err != nil {
		return fmt.Errorf("игра: %w", err)
	}

	// окно стартовой точки грузится заранее, чтобы его монстры появились до первого входа
	if _, ok := worldMap.GetTile(settings.StartLocation); !ok {
		logging.Warn("⚠️ Стартовая точка %v недоступна", settings.StartLocation)
	}

	// === АДМИНИСТРАТИВНЫЙ API ===
	server, err := newAdminServer(cfg, g, registry)
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	errCh := make(chan error, 2)
	start := func(name string, fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(ctx); err != nil {
				errCh <- fmt.Errorf("%s: %w", name, err)
				stop()
			}
		}()
	}
	start("game", g.Run)
	start("api", server.Run)
	wg.Add(1)
	go func() {
		defer wg.Done()
		eventbus.NewMetricsExporter(bus, registry).Run(ctx)
	}()

	logging.Info("✅ Все сервисы запущены")
	logging.Info("   🌐 Admin API: http://localhost:%d", cfg.Server.GetAdminPort())
	logging.Info("   ❤️  Health check: http://localhost:%d/health", cfg.Server.GetAdminPort())

	<-ctx.Done()
	logging.Info("📡 Получен сигнал остановки, завершение работы...")
	wg.Wait()
	close(errCh)

	var errs []error
	for err := range errCh {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		cat, err := catalog.Default()
		if err != nil {
			return nil, fmt.Errorf("встроенный каталог: %w", err)
		}
		return cat, nil
	}
	cat, err := catalog.Load(path)
	if err != nil {
		return nil, fmt.Errorf("каталог %s: %w", path, err)
	}
	return cat, nil
}

// openMonsterTypes выбирает источник типов монстров: MongoDB, если задан адрес, иначе каталог.
// В MongoDB каталог импортируется при каждом старте.
func openMonsterTypes(ctx context.Context, cfg *config.Config, cat *catalog.Catalog, closers *[]closer) (storage.MonsterTypeRepository, error) {
	uri := cfg.Storage.GetMongoURI()
	if uri == "" {
		return storage.NewCatalogMonsterTypes(cat), nil
	}
	repo, err := storage.NewMongoMonsterTypes(storage.MongoConfig{URI: uri, Database: cfg.Storage.MongoDatabase})
	if err != nil {
		return nil, fmt.Errorf("mongodb: %w", err)
	}
	*closers = append(*closers, closer{"mongodb", repo.Close})
	if err := repo.Import(ctx, cat.MonsterTypes()); err != nil {
		return nil, fmt.Errorf("импорт типов монстров: %w", err)
	}
	logging.Info("🐉 Типы монстров загружены в MongoDB: %d", len(cat.MonsterTypes()))
	return repo, nil
}

func openStore(cfg *config.Config, monsters storage.MonsterTypeRepository) (storage.Store, error) {
	switch cfg.Storage.Driver {
	case "", "memory":
		logging.Warn("⚠️ Персонажи хранятся в памяти и пропадут при остановке")
		return storage.NewMemoryStore(monsters), nil
	case "mariadb":
		dsn := cfg.Storage.GetMariaDSN()
		if dsn == "" {
			return nil, errors.New("mariadb: не задан DSN")
		}
		s, err := storage.NewMariaStore(dsn, monsters)
		if err != nil {
			return nil, fmt.Errorf("mariadb: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("неизвестный драйвер хранилища %q", cfg.Storage.Driver)
	}
}

func openEventBus(cfg *config.Config) (eventbus.EventBus, error) {
	url := cfg.EventBus.GetURL()
	if url == "" {
		return eventbus.NewMemoryBus(1024), nil
	}
	bus, err := eventbus.NewJetStreamBus(url, cfg.EventBus.Stream, time.Duration(cfg.EventBus.Retention)*time.Hour,
		eventbus.WithClientName(cfg.Server.Name))
	if err != nil {
		return nil, fmt.Errorf("nats: %w", err)
	}
	return bus, nil
}

func newAdminServer(cfg *config.Config, g *game.Game, registry *prometheus.Registry) (*api.Server, error) {
	seeds := make([]auth.OperatorSeed, 0, len(cfg.Admin.Operators))
	for _, op := range cfg.Admin.Operators {
		seeds = append(seeds, auth.OperatorSeed{Username: op.Username, PasswordHash: op.PasswordHash, Admin: op.Admin})
	}
	if len(seeds) == 0 {
		logging.Warn("⚠️ Операторы не заданы: вход в административный API невозможен")
	}
	operators, err := auth.NewMemoryOperatorRepo(seeds)
	if err != nil {
		return nil, fmt.Errorf("операторы: %w", err)
	}
	if cfg.Admin.GetSecret() == "" {
		logging.Warn("⚠️ Ключ JWT не задан, токены станут недействительны после перезапуска")
	}
	tokens, err := auth.NewTokenIssuer(cfg.Admin.GetSecret(), cfg.Server.Name, cfg.Admin.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("ключ JWT: %w", err)
	}

	return api.New(api.Config{
		Addr:       fmt.Sprintf(":%d", cfg.Server.GetAdminPort()),
		Service:    cfg.Telemetry.ServiceName,
		World:      g,
		Operators:  operators,
		Tokens:     tokens,
		Registerer: registry,
		Gatherer:   registry,
	})
}
