package game

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/worldsim/internal/auth"
	"github.com/annel0/worldsim/internal/catalog"
	"github.com/annel0/worldsim/internal/creature"
	"github.com/annel0/worldsim/internal/items"
	"github.com/annel0/worldsim/internal/logging"
	"github.com/annel0/worldsim/internal/pathfinding"
	"github.com/annel0/worldsim/internal/protocol"
	"github.com/annel0/worldsim/internal/scheduler"
	"github.com/annel0/worldsim/internal/storage"
	"github.com/annel0/worldsim/internal/vec"
	"github.com/annel0/worldsim/internal/world"
)

var origin = vec.Location{X: 100, Y: 100, Z: vec.GroundFloor}

const raceRat = 21

// flatLoader кладёт траву на каждый тайл окна
type flatLoader struct {
	ground *items.ItemType
}

func (l flatLoader) LoadWindow(requested vec.Bounds) (world.LoadResult, error) {
	res := world.LoadResult{Loaded: requested}
	for z := requested.FromZ; z <= requested.ToZ; z++ {
		for y := requested.FromY; y <= requested.ToY; y++ {
			for x := requested.FromX; x <= requested.ToX; x++ {
				tile := world.NewTile(vec.Location{X: x, Y: y, Z: z})
				g, err := items.New(l.ground, 1)
				if err != nil {
					return world.LoadResult{}, err
				}
				tile.AddItem(g)
				res.Tiles = append(res.Tiles, tile)
			}
		}
	}
	return res, nil
}

// fakeConn запоминает отправленные кадры
type fakeConn struct {
	id string

	mu     sync.Mutex
	frames [][]byte
	last   time.Time
	closed bool
}

func newFakeConn(id string, last time.Time) *fakeConn {
	return &fakeConn{id: id, last: last}
}

func (c *fakeConn) ID() string { return c.id }

func (c *fakeConn) Send(frame []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = append(c.frames, append([]byte(nil), frame...))
	return nil
}

func (c *fakeConn) LastActivity() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// opcodes — первые байты всех кадров
func (c *fakeConn) opcodes() []protocol.Opcode {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]protocol.Opcode, 0, len(c.frames))
	for _, f := range c.frames {
		if len(f) > 0 {
			out = append(out, protocol.Opcode(f[0]))
		}
	}
	return out
}

type harness struct {
	t       *testing.T
	clock   *scheduler.ManualClock
	sched   *scheduler.Scheduler
	store   *storage.MemoryStore
	catalog *catalog.Catalog
	game    *Game
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)
	grass, ok := cat.ItemType(102)
	require.True(t, ok)

	clock := scheduler.NewManualClock(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	sched := scheduler.New(clock, scheduler.WithLogger(logging.NewDiscardLogger()))
	m := world.NewMap(flatLoader{ground: grass}, world.WithWindowSize(32), world.WithMapLogger(logging.NewDiscardLogger()))
	store := storage.NewMemoryStore(storage.NewCatalogMonsterTypes(cat))

	settings := DefaultSettings()
	settings.StartLocation = origin
	g, err := New(Options{
		Scheduler: sched,
		Map:       m,
		Catalog:   cat,
		Store:     store,
		Paths:     pathfinding.NewFinder(),
		Factory:   creature.NewFactory(creature.DefaultProgression, rand.New(rand.NewSource(7))),
		Logger:    logging.NewDiscardLogger(),
		Rand:      rand.New(rand.NewSource(7)),
		Settings:  settings,
	})
	require.NoError(t, err)
	return &harness{t: t, clock: clock, sched: sched, store: store, catalog: cat, game: g}
}

func (h *harness) fire() int {
	return h.sched.FireDue(context.Background(), h.game.handle)
}

func (h *harness) advance(d time.Duration) int {
	h.clock.Advance(d)
	return h.fire()
}

// player ставит игрока и сразу рассылает уведомления о появлении,
// чтобы они не достались соединениям, подключённым позже
func (h *harness) player(name string, at vec.Location) *creature.Combatant {
	h.t.Helper()
	p, err := h.game.factory.NewPlayer(creature.PlayerRecord{CharacterID: name, Name: name})
	require.NoError(h.t, err)
	require.True(h.t, h.game.PlaceCreature(p, at))
	h.fire()
	return p
}

// wall ставит каменную стену на тайл
func (h *harness) wall(at vec.Location) {
	h.t.Helper()
	wallType, ok := h.catalog.ItemType(1025)
	require.True(h.t, ok)
	tile, ok := h.game.world.GetTile(at)
	require.True(h.t, ok)
	w, err := items.New(wallType, 1)
	require.NoError(h.t, err)
	require.True(h.t, tile.AddItem(w))
}

func (h *harness) rat(at vec.Location, chase creature.ChaseMode) *creature.Combatant {
	h.t.Helper()
	mt, ok := h.catalog.MonsterType(raceRat)
	require.True(h.t, ok)
	m, err := h.game.factory.NewMonster(mt)
	require.NoError(h.t, err)
	m.SetChaseMode(chase)
	require.True(h.t, h.game.PlaceCreature(m, at))
	return m
}

// connect привязывает к игроку тестовое соединение
func (h *harness) connect(p *creature.Combatant) *fakeConn {
	h.t.Helper()
	conn := newFakeConn("conn-"+p.Name(), h.clock.Now())
	h.game.Connect(conn)
	require.True(h.t, h.game.bindPlayer(conn.ID(), p.ID()))
	return conn
}

func TestNew_RequiresCollaborators(t *testing.T) {
	_, err := New(Options{})
	assert.ErrorIs(t, err, ErrMissingCollaborator)
}

func TestDispatch_DelayIsExtraPlusLargestCooldown(t *testing.T) {
	h := newHarness(t)
	p := h.player("Eldrin", origin)
	now := h.clock.Now()

	first := h.game.Dispatch(NewSpeechOperation(p.ID(), protocol.SpeechSay, 0, "", "hi"), 0)
	second := h.game.Dispatch(NewSpeechOperation(p.ID(), protocol.SpeechSay, 0, "", "hi"), 0)
	third := h.game.Dispatch(NewSpeechOperation(p.ID(), protocol.SpeechSay, 0, "", "hi"), 100*time.Millisecond)

	assert.Equal(t, now, first)
	assert.Equal(t, now.Add(speechCooldown), second)
	assert.Equal(t, now.Add(100*time.Millisecond+2*speechCooldown), third)

	// категория движения не зависит от речи
	walk := h.game.Dispatch(NewTurnOperation(p.ID(), vec.East), 0)
	assert.Equal(t, now, walk)
}

func TestDispatch_NegativeExtraIsClamped(t *testing.T) {
	h := newHarness(t)
	p := h.player("Eldrin", origin)

	at := h.game.Dispatch(NewTurnOperation(p.ID(), vec.South), -time.Second)
	assert.Equal(t, h.clock.Now(), at)
}

func TestPlaceCreature_RefusesOccupiedTile(t *testing.T) {
	h := newHarness(t)
	h.player("Eldrin", origin)

	other, err := h.game.factory.NewPlayer(creature.PlayerRecord{Name: "Mira"})
	require.NoError(t, err)
	assert.False(t, h.game.PlaceCreature(other, origin))
	_, registered := h.game.Combatant(other.ID())
	assert.False(t, registered)

	at, ok := h.game.placeNear(other, origin, 1)
	require.True(t, ok)
	assert.Equal(t, 1, at.DistanceTo(origin))
	assert.True(t, other.Attached())
}

func TestMonsterSeesPlayer_StartsAttackAndChase(t *testing.T) {
	h := newHarness(t)
	p := h.player("Eldrin", origin)
	m := h.rat(origin.Offset(3, 0, 0), creature.ChaseFollow)

	assert.Equal(t, creature.AwarenessSeen, m.AwarenessOf(p.ID()))
	assert.Equal(t, creature.AwarenessSeen, p.AwarenessOf(m.ID()))
	assert.Equal(t, p.ID(), m.AttackTarget())
	assert.Equal(t, creature.NoID, p.AttackTarget(), "Игроки не выбирают цель сами")

	assert.True(t, h.game.hasPending(m.ID(), KindAttackOrchestration))
	assert.True(t, h.game.hasPending(m.ID(), KindAutoWalk))
	assert.Contains(t, p.Attackers(), m.ID())
	assert.True(t, h.game.HasCondition(p.ID(), ConditionInCombat))
}

func TestMonsterBehindWall_SensesUntilLineOfSight(t *testing.T) {
	h := newHarness(t)
	h.wall(origin.Offset(2, 0, 0))
	p := h.player("Eldrin", origin)
	m := h.rat(origin.Offset(world.ViewLeft, 0, 0), creature.ChaseStand)

	assert.Equal(t, creature.AwarenessSensed, m.AwarenessOf(p.ID()), "Стена закрывает обзор")
	assert.Equal(t, creature.NoID, m.AttackTarget())
	assert.False(t, m.Hostiles().Contains(p.ID()))
	assert.False(t, h.game.hasPending(m.ID(), KindAttackOrchestration))

	for i := 0; i < 3; i++ {
		h.game.Dispatch(NewWalkOperation(p.ID(), vec.South, 0, true), 0)
	}
	h.fire()

	loc, _ := h.game.world.LocationOf(p.ID())
	require.Equal(t, origin.Offset(0, 3, 0), loc)
	assert.Equal(t, creature.AwarenessSeen, m.AwarenessOf(p.ID()))
	assert.True(t, m.Hostiles().Contains(p.ID()))
	assert.Equal(t, p.ID(), m.AttackTarget())
	assert.True(t, h.game.hasPending(m.ID(), KindAttackOrchestration))
}

func TestChase_MonsterWalksIntoRange(t *testing.T) {
	h := newHarness(t)
	p := h.player("Eldrin", origin)
	m := h.rat(origin.Offset(4, 0, 0), creature.ChaseFollow)

	for i := 0; i < 20; i++ {
		h.advance(500 * time.Millisecond)
	}
	at, ok := h.game.world.LocationOf(m.ID())
	require.True(t, ok)
	assert.True(t, at.IsAdjacent(origin), "Монстр должен подойти вплотную, стоит на %v", at)
	assert.Contains(t, p.Attackers(), m.ID())
}

func TestLocationChange_ExpeditesOrchestration(t *testing.T) {
	h := newHarness(t)
	p := h.player("Eldrin", origin)
	m := h.rat(origin.Offset(3, 0, 0), creature.ChaseStand)

	// первая оркестрация: цель далеко, следующая через AttackInterval
	h.fire()
	pending := h.sched.PendingFor(uint32(m.ID()), KindAttackOrchestration)
	require.Len(t, pending, 1)
	at, _ := h.sched.FireTime(pending[0].ID())
	assert.Equal(t, h.clock.Now().Add(h.game.settings.AttackInterval), at)
	assert.Zero(t, m.Exhaustion().Remaining(creature.ExhaustionCombat, h.clock.Now()))

	h.game.Dispatch(NewWalkOperation(p.ID(), vec.East, 0, true), 0)
	h.game.Dispatch(NewWalkOperation(p.ID(), vec.East, 0, true), 0)
	h.fire()

	loc, _ := h.game.world.LocationOf(p.ID())
	assert.Equal(t, origin.Offset(2, 0, 0), loc)
	assert.Positive(t, m.Exhaustion().Remaining(creature.ExhaustionCombat, h.clock.Now()),
		"Цель вошла в досягаемость: оркестрация ускорена и удар поставлен сразу")
}

func TestWalk_MovesAndNotifiesMover(t *testing.T) {
	h := newHarness(t)
	p := h.player("Eldrin", origin)
	conn := h.connect(p)

	h.game.Dispatch(NewWalkOperation(p.ID(), vec.South, h.game.stepDuration(p, vec.South), true), 0)
	h.fire()

	loc, _ := h.game.world.LocationOf(p.ID())
	assert.Equal(t, origin.Translate(vec.South), loc)
	assert.Equal(t, vec.South, p.Direction())
	assert.Equal(t, []protocol.Opcode{protocol.OpCreatureMoved, protocol.OpMapSliceSouth}, conn.opcodes())
}

func TestWalk_DiagonalSendsTwoSlices(t *testing.T) {
	h := newHarness(t)
	p := h.player("Eldrin", origin)
	conn := h.connect(p)

	h.game.Dispatch(NewWalkOperation(p.ID(), vec.NorthWest, 0, true), 0)
	h.fire()

	loc, _ := h.game.world.LocationOf(p.ID())
	assert.Equal(t, origin.Offset(-1, -1, 0), loc)
	assert.Equal(t, []protocol.Opcode{
		protocol.OpCreatureMoved, protocol.OpMapSliceNorth, protocol.OpMapSliceWest,
	}, conn.opcodes())
}

func TestWalk_BlockedTileCancelsWalk(t *testing.T) {
	h := newHarness(t)
	p := h.player("Eldrin", origin)
	h.player("Mira", origin.Translate(vec.North))
	conn := h.connect(p)

	h.game.Dispatch(NewWalkOperation(p.ID(), vec.North, time.Second, true), 0)
	h.fire()

	loc, _ := h.game.world.LocationOf(p.ID())
	assert.Equal(t, origin, loc)
	assert.Equal(t, []protocol.Opcode{protocol.OpCancelWalk, protocol.OpTextMessage}, conn.opcodes())
}

func TestWalk_SpectatorSeesMove(t *testing.T) {
	h := newHarness(t)
	p := h.player("Eldrin", origin)
	watcher := h.player("Mira", origin.Offset(-3, 0, 0))
	conn := h.connect(watcher)

	h.game.Dispatch(NewWalkOperation(p.ID(), vec.East, 0, true), 0)
	h.fire()
	assert.Equal(t, []protocol.Opcode{protocol.OpCreatureMoved}, conn.opcodes())
}

func TestDeath_CancelsPendingAndSharesExperience(t *testing.T) {
	h := newHarness(t)
	p := h.player("Eldrin", origin)
	ratAt := origin.Offset(1, 0, 0)
	m := h.rat(ratAt, creature.ChaseStand)
	require.True(t, h.game.hasPending(m.ID(), KindAttackOrchestration))

	dealt, _ := m.ApplyDamage(creature.DamageInfo{Type: creature.DamagePhysical, Amount: 1000, AttackerKind: creature.KindPlayer}, p.ID())
	assert.Equal(t, 20, dealt, "Урон ограничен текущим здоровьем")
	assert.True(t, m.IsDead())
	assert.False(t, h.game.hasPending(m.ID(), KindAttackOrchestration))
	assert.True(t, h.game.hasPending(m.ID(), KindDeath))

	h.advance(h.game.settings.DeathDelayCap)

	_, alive := h.game.Combatant(m.ID())
	assert.False(t, alive)
	_, onMap := h.game.world.LocationOf(m.ID())
	assert.False(t, onMap)
	assert.Empty(t, p.Attackers())

	tile, ok := h.game.world.PeekTile(ratAt)
	require.True(t, ok)
	top := tile.TopItem()
	require.NotNil(t, top)
	assert.Equal(t, items.TypeID(2813), top.Type.ID)

	assert.Equal(t, int64(5), p.Skill(creature.SkillExperience).Count)
}

func TestLogIn_WrongPasswordRefused(t *testing.T) {
	h := newHarness(t)
	seedCharacter(t, h.store, "Eldrin", "secret")

	conn := newFakeConn("c-1", h.clock.Now())
	h.game.Connect(conn)
	h.game.LogIn(conn.ID(), "Eldrin", "wrong")
	h.fire()

	assert.Equal(t, 0, h.game.OnlineCount())
	assert.Equal(t, 0, h.game.ConnectionCount())
	assert.True(t, conn.isClosed())
	assert.Equal(t, []protocol.Opcode{protocol.OpDisconnect}, conn.opcodes())
}

func TestLogInAndOut(t *testing.T) {
	h := newHarness(t)
	seedCharacter(t, h.store, "Eldrin", "secret")

	conn := newFakeConn("c-1", h.clock.Now())
	h.game.Connect(conn)
	h.game.LogIn(conn.ID(), "eldrin", "secret")
	h.fire()

	require.Equal(t, 1, h.game.OnlineCount())
	ops := conn.opcodes()
	require.NotEmpty(t, ops)
	assert.Equal(t, protocol.OpLoginSuccess, ops[0])
	assert.Contains(t, ops, protocol.OpMapDescription)
	assert.Contains(t, ops, protocol.OpWorldLight)

	players := h.game.OnlinePlayers()
	require.Len(t, players, 1)
	assert.Equal(t, origin, players[0].Location)

	// повторный вход тем же персонажем отклоняется
	dup := newFakeConn("c-2", h.clock.Now())
	h.game.Connect(dup)
	h.game.LogIn(dup.ID(), "Eldrin", "secret")
	h.fire()
	assert.True(t, dup.isClosed())
	assert.Equal(t, 1, h.game.OnlineCount())

	id := creature.ID(players[0].ID)
	p, ok := h.game.Combatant(id)
	require.True(t, ok)
	h.game.Dispatch(NewWalkOperation(id, vec.East, 0, true), 0)
	h.fire()

	h.game.markInCombat(p)
	h.game.LogOut(id)
	h.fire()
	assert.Equal(t, 1, h.game.OnlineCount(), "В бою выйти нельзя")

	h.advance(h.game.settings.InCombatDuration)
	assert.False(t, h.game.HasCondition(id, ConditionInCombat))

	h.game.LogOut(id)
	h.fire()
	assert.Equal(t, 0, h.game.OnlineCount())
	assert.True(t, conn.isClosed())

	uow, err := h.store.Begin(context.Background())
	require.NoError(t, err)
	saved, err := uow.Characters().FindCharacterByName(context.Background(), "Eldrin")
	require.NoError(t, err)
	assert.Equal(t, origin.Offset(1, 0, 0), saved.Location)
	assert.False(t, saved.LastLogin.IsZero())
	require.NoError(t, uow.Rollback())
}

func TestIdleSweep(t *testing.T) {
	h := newHarness(t)
	p := h.player("Eldrin", origin)
	conn := h.connect(p)
	lonely := newFakeConn("lonely", h.clock.Now())
	h.game.Connect(lonely)

	h.clock.Advance(h.game.settings.IdleTimeout + time.Second)
	h.game.sweepIdle()
	h.fire()

	assert.True(t, lonely.isClosed())
	assert.True(t, conn.isClosed())
	assert.Equal(t, 0, h.game.ConnectionCount())
	_, ok := h.game.Combatant(p.ID())
	assert.False(t, ok)
}

func TestHasteCondition_Aggregates(t *testing.T) {
	h := newHarness(t)
	p := h.player("Eldrin", origin)
	base := p.Speed()
	now := h.clock.Now()

	assert.True(t, h.game.AddOrAggregateCondition(p, NewHasteCondition(p.ID(), 40, now.Add(10*time.Second))))
	assert.Equal(t, base+40, p.Speed())

	assert.False(t, h.game.AddOrAggregateCondition(p, NewHasteCondition(p.ID(), 20, now.Add(20*time.Second))))
	assert.Equal(t, base+40, p.Speed(), "Берётся большая прибавка")

	h.advance(10 * time.Second)
	assert.True(t, h.game.HasCondition(p.ID(), ConditionHaste), "Конец сдвинут слиянием")

	h.advance(10 * time.Second)
	assert.False(t, h.game.HasCondition(p.ID(), ConditionHaste))
	assert.Equal(t, base, p.Speed())
}

func TestSpawns_ActivateOncePerWindow(t *testing.T) {
	h := newHarness(t)
	spawnAt := vec.Location{X: 1010, Y: 1004, Z: vec.GroundFloor}

	_, ok := h.game.world.GetTile(spawnAt)
	require.True(t, ok)
	h.fire()
	assert.Equal(t, 3, h.game.CreatureCount())

	h.game.world.GetTile(spawnAt.Offset(1, 1, 0))
	h.fire()
	assert.Equal(t, 3, h.game.CreatureCount())
}

func TestSpeech_YellIsUpperCased(t *testing.T) {
	h := newHarness(t)
	p := h.player("Eldrin", origin)
	far := h.player("Mira", origin.Offset(20, 0, 0))
	conn := h.connect(far)

	h.game.Dispatch(NewSpeechOperation(p.ID(), protocol.SpeechYell, 0, "", "help"), 0)
	h.fire()

	require.Len(t, conn.frames, 1)
	assert.Equal(t, protocol.OpCreatureSpeech, protocol.Opcode(conn.frames[0][0]))
	assert.Contains(t, string(conn.frames[0]), "HELP")
}

func seedCharacter(t *testing.T, store *storage.MemoryStore, name, password string) {
	t.Helper()
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)
	store.Seed(&storage.CharacterEntity{
		ID:           "char-" + name,
		Name:         name,
		PasswordHash: hash,
		Location:     origin,
	})
}
