package game

import (
	"context"
	"time"

	"github.com/annel0/worldsim/internal/creature"
	"github.com/annel0/worldsim/internal/scheduler"
)

const reasonIdle = "You have been idle for too long."

// idleLoop выводит игроков, молчащих дольше IdleTimeout, и закрывает пустые соединения
func (g *Game) idleLoop(ctx context.Context) {
	ticker := time.NewTicker(g.settings.IdlePoll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.sweepIdle()
		}
	}
}

func (g *Game) sweepIdle() {
	for _, s := range g.idleConnections(g.clock.Now(), g.settings.IdleTimeout) {
		if s.player == creature.NoID {
			g.logger.Debug("⏳ Соединение %s без игрока простаивает, закрываем", s.conn.ID())
			g.Disconnect(s.conn.ID())
			continue
		}
		if g.hasPending(s.player, KindLogOut) {
			continue
		}
		g.logger.Info("⏳ Игрок %d простаивает, выводим", s.player)
		g.Dispatch(NewLogOutOperation(s.player, reasonIdle), 0)
	}
}

// miscLoop двигает игровые часы и обновляет датчики
func (g *Game) miscLoop(ctx context.Context) {
	ticker := time.NewTicker(g.settings.MiscPoll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.tickLight()
			g.refreshStats(ctx)
		}
	}
}

// tickLight рассылает новую освещённость, если она изменилась
func (g *Game) tickLight() {
	level, changed := g.light.Update(g.clock.Now())
	if !changed {
		return
	}
	g.Notify(NewWorldLightNotification(ToAll(), level, LightColor), 0)
	g.logger.Debug("🌗 Освещённость мира: %d", level)
}

// refreshStats собирает снимок состояния и обновляет датчики Prometheus
func (g *Game) refreshStats(ctx context.Context) {
	now := g.clock.Now()
	level, _ := g.light.Current()
	hour, minute := g.light.TimeOfDay(now)
	cpu, rss := g.sampler.sample()

	s := Snapshot{
		Online:      g.OnlineCount(),
		Connections: g.ConnectionCount(),
		Creatures:   g.CreatureCount(),
		Pending:     g.sched.Pending(),
		Light:       level,
		Hour:        hour,
		Minute:      minute,
		CPUPercent:  cpu,
		RSSBytes:    rss,
	}
	if g.presence != nil {
		n, err := g.presence.Count(ctx)
		if err != nil {
			g.logger.Warn("⚠️ Не удалось прочитать присутствие: %v", err)
		}
		s.Presence = n
	}

	g.statsMu.Lock()
	g.last = s
	g.statsMu.Unlock()
	g.metrics.observe(s)
}

// autoSaveLoop периодически ставит сохранение игроков на линию времени
func (g *Game) autoSaveLoop(ctx context.Context) {
	ticker := time.NewTicker(g.settings.AutoSaveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if len(g.sched.PendingOfKind(KindAutoSave)) == 0 {
				g.sched.Schedule(newAutoSaveEvent(), 0)
			}
		}
	}
}

// autoSaveEvent сохраняет всех игроков онлайн
type autoSaveEvent struct {
	scheduler.BaseEvent
}

func newAutoSaveEvent() *autoSaveEvent {
	return &autoSaveEvent{BaseEvent: scheduler.NewBaseEvent(0, KindAutoSave)}
}

func (e *autoSaveEvent) Execute(ctx *Context) error {
	n, err := ctx.Game.saveOnline(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		ctx.Game.logger.Info("💾 Автосохранение: %d игроков", n)
	}
	return nil
}
