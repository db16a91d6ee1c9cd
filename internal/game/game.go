package game

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/annel0/worldsim/internal/catalog"
	"github.com/annel0/worldsim/internal/creature"
	"github.com/annel0/worldsim/internal/eventbus"
	"github.com/annel0/worldsim/internal/logging"
	"github.com/annel0/worldsim/internal/pathfinding"
	"github.com/annel0/worldsim/internal/scheduler"
	"github.com/annel0/worldsim/internal/storage"
	"github.com/annel0/worldsim/internal/vec"
	"github.com/annel0/worldsim/internal/world"
)

// ErrMissingCollaborator — New вызван без обязательной зависимости
var ErrMissingCollaborator = errors.New("missing required collaborator")

// PathFinder ищет маршрут по тайлам (реализуется pathfinding.Finder)
type PathFinder interface {
	FindPath(grid pathfinding.Grid, from, to vec.Location, targetDistance int, exclude []vec.Location) pathfinding.Result
}

// Settings — параметры игрового цикла и фоновых задач
type Settings struct {
	IdleTimeout      time.Duration // после скольких секунд тишины игрок выходит
	IdlePoll         time.Duration
	MiscPoll         time.Duration
	AutoSaveInterval time.Duration
	DeathDelayCap    time.Duration // верхняя граница случайной задержки обработки смерти
	DayLength        time.Duration
	InCombatDuration time.Duration
	AttackInterval   time.Duration // период оркестрации атаки
	StartLocation    vec.Location
	ServerName       string
}

// DefaultSettings возвращает настройки по умолчанию
func DefaultSettings() Settings {
	return Settings{
		IdleTimeout:      15 * time.Minute,
		IdlePoll:         30 * time.Second,
		MiscPoll:         10 * time.Second,
		AutoSaveInterval: 5 * time.Minute,
		DeathDelayCap:    1500 * time.Millisecond,
		DayLength:        time.Hour,
		InCombatDuration: 3 * time.Second,
		AttackInterval:   2 * time.Second,
		StartLocation:    vec.Location{X: 1000, Y: 1000, Z: vec.GroundFloor},
		ServerName:       "worldsim",
	}
}

// Options — зависимости игры. Scheduler, Map, Catalog, Store, Paths и Factory обязательны.
type Options struct {
	Scheduler *scheduler.Scheduler
	Map       *world.Map
	Catalog   *catalog.Catalog
	Store     storage.Store
	Paths     PathFinder
	Factory   *creature.Factory

	Bus        eventbus.EventBus
	Presence   storage.Presence
	Registerer prometheus.Registerer
	Logger     *logging.Logger
	Rand       *rand.Rand
	Settings   Settings
}

// Game — владелец состояния мира. Любая мутация существ и карты выполняется
// на линии времени планировщика; фоновые циклы только ставят события.
type Game struct {
	sched    *scheduler.Scheduler
	clock    scheduler.Clock
	world    *world.Map
	catalog  *catalog.Catalog
	store    storage.Store
	paths    PathFinder
	factory  *creature.Factory
	bus      eventbus.EventBus
	presence storage.Presence
	metrics  *Metrics
	logger   *logging.Logger
	settings Settings
	light    *WorldClock
	sampler  *processSampler

	rngMu sync.Mutex
	rng   *rand.Rand

	statsMu sync.Mutex
	last    Snapshot

	mu          sync.RWMutex
	creatures   map[creature.ID]*creature.Combatant
	connections map[string]*session
	players     map[creature.ID]*session
	conditions  map[creature.ID]map[ConditionType]Condition
	spawns      map[spawnKey]struct{}

	reactions map[creature.EventKind]reaction
	started   time.Time
}

// New проверяет зависимости и собирает игру
func New(opts Options) (*Game, error) {
	switch {
	case opts.Scheduler == nil:
		return nil, fmt.Errorf("%w: scheduler", ErrMissingCollaborator)
	case opts.Map == nil:
		return nil, fmt.Errorf("%w: map", ErrMissingCollaborator)
	case opts.Catalog == nil:
		return nil, fmt.Errorf("%w: catalog", ErrMissingCollaborator)
	case opts.Store == nil:
		return nil, fmt.Errorf("%w: store", ErrMissingCollaborator)
	case opts.Paths == nil:
		return nil, fmt.Errorf("%w: path finder", ErrMissingCollaborator)
	case opts.Factory == nil:
		return nil, fmt.Errorf("%w: creature factory", ErrMissingCollaborator)
	}

	settings := opts.Settings
	if settings == (Settings{}) {
		settings = DefaultSettings()
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.GetGameLogger()
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	g := &Game{
		sched:       opts.Scheduler,
		clock:       opts.Scheduler.Clock(),
		world:       opts.Map,
		catalog:     opts.Catalog,
		store:       opts.Store,
		paths:       opts.Paths,
		factory:     opts.Factory,
		bus:         opts.Bus,
		presence:    opts.Presence,
		metrics:     NewMetrics(opts.Registerer),
		sampler:     newProcessSampler(),
		logger:      logger,
		settings:    settings,
		rng:         rng,
		creatures:   make(map[creature.ID]*creature.Combatant),
		connections: make(map[string]*session),
		players:     make(map[creature.ID]*session),
		conditions:  make(map[creature.ID]map[ConditionType]Condition),
		spawns:      make(map[spawnKey]struct{}),
	}
	g.started = g.clock.Now()
	g.light = NewWorldClock(settings.DayLength, g.started)
	g.reactions = g.reactionTable()
	g.world.OnWindowLoaded(g.onWindowLoaded)
	return g, nil
}

// Run запускает линию времени и фоновые циклы. Блокируется до отмены ctx,
// после чего сохраняет игроков онлайн.
func (g *Game) Run(ctx context.Context) error {
	g.logger.Info("🚀 Игровой цикл запущен (%s)", g.settings.ServerName)
	g.refreshStats(ctx)

	var wg sync.WaitGroup
	loops := []func(context.Context){g.idleLoop, g.miscLoop, g.autoSaveLoop}
	wg.Add(len(loops))
	for _, loop := range loops {
		go func(loop func(context.Context)) {
			defer wg.Done()
			loop(ctx)
		}(loop)
	}

	err := g.sched.Run(ctx, g.handle)
	wg.Wait()

	saveCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if n, saveErr := g.saveOnline(saveCtx); saveErr != nil {
		g.logger.Error("❌ Ошибка сохранения игроков при остановке: %v", saveErr)
	} else {
		g.logger.Info("💾 Сохранено игроков при остановке: %d", n)
	}

	g.logger.Info("🛑 Игровой цикл остановлен")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// handle — обработчик планировщика: исполняет событие в контексте игры
func (g *Game) handle(ctx context.Context, ev scheduler.Event) error {
	ex, ok := ev.(Executable)
	if !ok {
		return fmt.Errorf("событие %s (%s) не исполняемо", ev.ID(), ev.Kind())
	}
	return ex.Execute(&Context{Context: ctx, Game: g, Now: g.clock.Now()})
}

// Scheduler возвращает планировщик игры
func (g *Game) Scheduler() *scheduler.Scheduler { return g.sched }

// Map возвращает карту
func (g *Game) Map() *world.Map { return g.world }

// Settings возвращает настройки
func (g *Game) Settings() Settings { return g.settings }

// Combatant возвращает существо по идентификатору
func (g *Game) Combatant(id creature.ID) (*creature.Combatant, bool) {
	if id == creature.NoID {
		return nil, false
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	c, ok := g.creatures[id]
	return c, ok
}

// lookup — поиск существа для кодека видимости
func (g *Game) lookup(id creature.ID) (*creature.Creature, bool) {
	c, ok := g.Combatant(id)
	if !ok {
		return nil, false
	}
	return c.Creature, true
}

// CreatureCount — число существ в реестре
func (g *Game) CreatureCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.creatures)
}

func (g *Game) register(c *creature.Combatant) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, exists := g.creatures[c.ID()]; exists {
		return false
	}
	g.creatures[c.ID()] = c
	return true
}

func (g *Game) unregister(id creature.ID) {
	g.mu.Lock()
	delete(g.creatures, id)
	delete(g.conditions, id)
	g.mu.Unlock()
}

// randDuration — случайная длительность в [0, limit]
func (g *Game) randDuration(limit time.Duration) time.Duration {
	if limit <= 0 {
		return 0
	}
	g.rngMu.Lock()
	defer g.rngMu.Unlock()
	return time.Duration(g.rng.Int63n(int64(limit) + 1))
}

// randRange — случайное целое в [lo, hi]
func (g *Game) randRange(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	g.rngMu.Lock()
	defer g.rngMu.Unlock()
	return lo + g.rng.Intn(hi-lo+1)
}
