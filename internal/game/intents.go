package game

import (
	"sort"
	"strings"

	"github.com/annel0/worldsim/internal/creature"
	"github.com/annel0/worldsim/internal/protocol"
	"github.com/annel0/worldsim/internal/scheduler"
	"github.com/annel0/worldsim/internal/vec"
)

// Намерения приходят из обработчиков запросов в других горутинах. Каждое из них
// ставится на линию времени и уже там превращается в операцию, поэтому чтение
// состояния существа и карты происходит только в одном потоке.

const kindIntentPrefix = "intent."

// intent откладывает построение операции до исполнения на линии времени
type intent struct {
	scheduler.BaseEvent
	fn func(ctx *Context, c *creature.Combatant)
}

func (i *intent) Execute(ctx *Context) error {
	c, ok := ctx.Game.Combatant(creature.ID(i.OwnerID()))
	if !ok {
		return nil
	}
	i.fn(ctx, c)
	return nil
}

// submit ставит намерение игрока на линию времени
func (g *Game) submit(player creature.ID, name string, fn func(ctx *Context, c *creature.Combatant)) {
	if player == creature.NoID {
		return
	}
	in := &intent{BaseEvent: scheduler.NewBaseEvent(uint32(player), kindIntentPrefix+name), fn: fn}
	in.SetExcludeFromTelemetry(true)
	g.sched.Schedule(in, 0)
}

// Walk — один шаг по запросу клиента. Прерывает автоматическое движение.
func (g *Game) Walk(player creature.ID, dir vec.Direction) {
	g.submit(player, "walk", func(ctx *Context, c *creature.Combatant) {
		g.Dispatch(NewWalkOperation(c.ID(), dir, g.stepDuration(c, dir), true), 0)
	})
}

// WalkPath — маршрут, проложенный клиентом. Идёт по точкам без пересчёта.
func (g *Game) WalkPath(player creature.ID, dirs []vec.Direction) {
	if len(dirs) == 0 {
		return
	}
	steps := append([]vec.Direction(nil), dirs...)
	g.submit(player, "walk_path", func(ctx *Context, c *creature.Combatant) {
		from, ok := g.world.LocationOf(c.ID())
		if !ok {
			return
		}
		waypoints := waypointsFrom(from, steps)
		g.CancelOperations(c.ID(), KindAutoWalk)
		c.SetWalkPlan(creature.NewWalkPlan(creature.WalkDoNotRecalculate, 0, waypoints[len(waypoints)-1], waypoints))
		g.Dispatch(NewAutoWalkOperation(c.ID()), 0)
	})
}

// StopWalk прерывает движение игрока
func (g *Game) StopWalk(player creature.ID) {
	g.submit(player, "stop_walk", func(ctx *Context, c *creature.Combatant) {
		g.CancelOperations(c.ID(), KindAutoWalk)
		g.CancelOperations(c.ID(), KindWalk)
		c.SetWalkPlan(nil)
	})
}

// Turn — поворот на месте
func (g *Game) Turn(player creature.ID, dir vec.Direction) {
	g.submit(player, "turn", func(ctx *Context, c *creature.Combatant) {
		g.Dispatch(NewTurnOperation(c.ID(), dir), 0)
	})
}

// Say — реплика игрока
func (g *Game) Say(player creature.ID, t protocol.SpeechType, channel protocol.ChatChannel, receiver, text string) {
	if t == protocol.SpeechBroadcast || t == protocol.SpeechMonsterSay || t == protocol.SpeechMonsterYell {
		// только сервер и монстры
		return
	}
	g.submit(player, "speech", func(ctx *Context, c *creature.Combatant) {
		g.Dispatch(NewSpeechOperation(c.ID(), t, channel, receiver, text), 0)
	})
}

// Attack выбирает цель атаки. creature.NoID снимает цель.
func (g *Game) Attack(player, target creature.ID) {
	g.submit(player, "attack", func(ctx *Context, c *creature.Combatant) {
		g.Dispatch(NewSetAttackTargetOperation(c.ID(), target), 0)
	})
}

// SetModes меняет режимы боя и преследования
func (g *Game) SetModes(player creature.ID, fight creature.FightMode, chase creature.ChaseMode) {
	g.submit(player, "modes", func(ctx *Context, c *creature.Combatant) {
		g.Dispatch(NewChangeModesOperation(c.ID(), fight, chase), 0)
	})
}

// LogIn ставит вход игрока через зарегистрированное соединение
func (g *Game) LogIn(connID, name, password string) {
	name = strings.TrimSpace(name)
	if name == "" {
		g.refuse(connID, reasonBadLogin)
		return
	}
	g.Dispatch(NewLogInOperation(connID, name, password), 0)
}

// LogOut — игрок просит выйти
func (g *Game) LogOut(player creature.ID) {
	g.submit(player, "logout", func(ctx *Context, c *creature.Combatant) {
		g.Dispatch(NewLogOutOperation(c.ID(), ""), 0)
	})
}

// PlayerInfo — игрок онлайн для административного списка
type PlayerInfo struct {
	ID       uint32       `json:"id"`
	Name     string       `json:"name"`
	Location vec.Location `json:"location"`
}

// OnlinePlayers — список игроков онлайн по имени
func (g *Game) OnlinePlayers() []PlayerInfo {
	players := g.onlinePlayers()
	out := make([]PlayerInfo, 0, len(players))
	for _, p := range players {
		loc, _ := g.world.LocationOf(p.ID())
		out = append(out, PlayerInfo{ID: uint32(p.ID()), Name: p.Name(), Location: loc})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Stats — последний снимок состояния сервера
func (g *Game) Stats() Snapshot {
	g.statsMu.Lock()
	defer g.statsMu.Unlock()
	return g.last
}
