package game

import (
	"context"
	"errors"
	"fmt"

	"github.com/annel0/worldsim/internal/auth"
	"github.com/annel0/worldsim/internal/creature"
	"github.com/annel0/worldsim/internal/eventbus"
	"github.com/annel0/worldsim/internal/protocol"
	"github.com/annel0/worldsim/internal/storage"
	"github.com/annel0/worldsim/internal/vec"
)

// Радиус поиска свободного тайла при входе
const loginPlacementRadius = 2

const (
	reasonAlreadyOnline = "You are already logged in."
	reasonBadLogin      = "Name or password is not correct."
	reasonServerError   = "Server error, please try again later."
	reasonNoRoom        = "There is no room for you at the moment."
	reasonInFight       = "You may not logout during or immediately after a fight!"
	reasonDead          = "You are dead."
)

// LogInOperation — вход игрока через уже зарегистрированное соединение
type LogInOperation struct {
	operation
	connID   string
	name     string
	password string
}

// NewLogInOperation создаёт вход
func NewLogInOperation(connID, name, password string) *LogInOperation {
	return &LogInOperation{
		operation: newOperation(creature.NoID, KindLogIn),
		connID:    connID,
		name:      name,
		password:  password,
	}
}

func (o *LogInOperation) Execute(ctx *Context) error {
	g := ctx.Game
	if g.isOnline(o.name) {
		g.refuse(o.connID, reasonAlreadyOnline)
		return nil
	}

	uow, err := g.store.Begin(ctx)
	if err != nil {
		g.logger.Error("❌ Не удалось открыть единицу работы для входа %s: %v", o.name, err)
		g.refuse(o.connID, reasonServerError)
		return nil
	}
	defer func() {
		if err := uow.Rollback(); err != nil && !errors.Is(err, storage.ErrUnitOfWorkClosed) {
			g.logger.Warn("⚠️ Ошибка отката входа %s: %v", o.name, err)
		}
	}()

	ent, err := uow.Characters().FindCharacterByName(ctx, o.name)
	switch {
	case errors.Is(err, storage.ErrCharacterNotFound):
		g.refuse(o.connID, reasonBadLogin)
		return nil
	case err != nil:
		g.logger.Error("❌ Ошибка загрузки персонажа %s: %v", o.name, err)
		g.refuse(o.connID, reasonServerError)
		return nil
	}
	if !auth.CheckPassword(ent.PasswordHash, o.password) {
		g.logger.Info("🔐 Неверный пароль для %s с %s", o.name, o.connID)
		g.refuse(o.connID, reasonBadLogin)
		return nil
	}

	c, err := g.factory.NewPlayer(ent.ToRecord())
	if err != nil {
		g.logger.Error("❌ Не удалось построить игрока %s: %v", o.name, err)
		g.refuse(o.connID, reasonServerError)
		return nil
	}
	c.Player().ConnectionID = o.connID

	spawnAt := ent.Location
	if spawnAt == (vec.Location{}) {
		spawnAt = g.settings.StartLocation
	}
	loc, ok := g.placeNear(c, spawnAt, loginPlacementRadius)
	if !ok {
		g.refuse(o.connID, reasonNoRoom)
		return nil
	}
	if !g.bindPlayer(o.connID, c.ID()) {
		// соединение закрылось, пока операция ждала в очереди
		g.RemoveCreature(c)
		return nil
	}

	ent.LastLogin = ctx.Now
	if err := uow.Characters().SaveCharacter(ctx, ent); err != nil {
		g.logger.Warn("⚠️ Не удалось сохранить время входа %s: %v", ent.Name, err)
	} else if err := uow.Complete(); err != nil {
		g.logger.Warn("⚠️ Не удалось завершить вход %s: %v", ent.Name, err)
	}

	g.welcome(c, loc)
	g.setPresence(ctx, c.Name(), true)
	g.publish(ctx, eventbus.TypePlayerLogin, eventbus.PriorityNormal, eventbus.PlayerSession{
		CharacterID: ent.ID,
		Name:        c.Name(),
		X:           loc.X,
		Y:           loc.Y,
		Z:           loc.Z,
	})
	g.metrics.login()
	g.logger.Info("👤 %s вошёл на %v (соединение %s)", c.Name(), loc, o.connID)
	return nil
}

// welcome отправляет вошедшему игроку начальное состояние мира
func (g *Game) welcome(c *creature.Combatant, loc vec.Location) {
	id := c.ID()
	level, color := g.light.Current()
	g.Notify(NewLoginSuccessNotification(id), 0)
	g.Notify(NewMapDescriptionNotification(id), 0)
	g.Notify(NewPlayerStatsNotification(id), 0)
	g.Notify(NewPlayerSkillsNotification(id), 0)
	g.Notify(NewWorldLightNotification(ToPlayer(id), level, color), 0)
	g.Notify(NewMagicEffectNotification(loc, protocol.EffectTeleport), 0)
	g.Notify(NewPlayerConditionsNotification(id), 0)
}

// refuse отправляет соединению без игрока причину отказа и закрывает его
func (g *Game) refuse(connID, reason string) {
	g.mu.RLock()
	s, ok := g.connections[connID]
	g.mu.RUnlock()
	if !ok {
		return
	}
	if err := s.conn.Send(protocol.Disconnect(reason)); err != nil {
		g.logger.Debug("⚠️ Не удалось отправить отказ на %s: %v", connID, err)
	}
	g.Disconnect(connID)
}

// LogOutOperation — выход игрока. В бою или сразу после него выход запрещён.
type LogOutOperation struct {
	operation
	reason string
}

// NewLogOutOperation создаёт выход. reason уходит клиенту в кадре отключения, пустая — без кадра.
func NewLogOutOperation(player creature.ID, reason string) *LogOutOperation {
	return &LogOutOperation{operation: newOperation(player, KindLogOut), reason: reason}
}

func (o *LogOutOperation) Execute(ctx *Context) error {
	g := ctx.Game
	c, ok := g.Combatant(o.requestor)
	if !ok || !c.IsPlayer() {
		return nil
	}
	if g.HasCondition(c.ID(), ConditionInCombat) {
		g.Notify(NewTextMessageNotification(ToPlayer(c.ID()), protocol.MessageStatusSmall, reasonInFight), 0)
		return nil
	}

	loc, onMap := g.world.LocationOf(c.ID())
	g.RemoveCreature(c)
	if onMap {
		g.Notify(NewMagicEffectNotification(loc, protocol.EffectPuff), 0)
	}
	g.finishSession(ctx, c, loc, o.reason)
	g.logger.Info("👋 %s вышел", c.Name())
	return nil
}

// playerDied — игрок возвращается домой с полным здоровьем и отключается
func (g *Game) playerDied(ctx context.Context, c *creature.Combatant) {
	home := c.Player().Home
	if home == (vec.Location{}) {
		home = g.settings.StartLocation
	}
	if st := c.Stat(creature.StatHealth); st != nil {
		st.Set(st.Maximum())
	}
	g.finishSession(ctx, c, home, reasonDead)
}

// finishSession сохраняет игрока, закрывает его соединение и объявляет выход.
// Существо к этому моменту уже убрано с карты.
func (g *Game) finishSession(ctx context.Context, c *creature.Combatant, loc vec.Location, reason string) {
	if err := g.saveCharacter(ctx, c, loc); err != nil {
		g.logger.Error("❌ Не удалось сохранить %s: %v", c.Name(), err)
	}

	if conn, ok := g.unbindPlayer(c.ID()); ok {
		if reason != "" {
			if err := conn.Send(protocol.Disconnect(reason)); err != nil {
				g.logger.Debug("⚠️ Не удалось отправить отключение %s: %v", c.Name(), err)
			}
		}
		if err := conn.Close(); err != nil {
			g.logger.Warn("⚠️ Ошибка закрытия соединения %s: %v", conn.ID(), err)
		}
	}

	g.setPresence(ctx, c.Name(), false)
	g.publish(ctx, eventbus.TypePlayerLogout, eventbus.PriorityNormal, eventbus.PlayerSession{
		CharacterID: c.Player().CharacterID,
		Name:        c.Name(),
		X:           loc.X,
		Y:           loc.Y,
		Z:           loc.Z,
		Reason:      reason,
	})
	g.metrics.logout()
}

// saveCharacter переносит состояние игрока в хранилище в отдельной единице работы
func (g *Game) saveCharacter(ctx context.Context, c *creature.Combatant, loc vec.Location) error {
	uow, err := g.store.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка открытия единицы работы: %w", err)
	}
	ent, err := uow.Characters().FindCharacterByName(ctx, c.Name())
	if err != nil {
		_ = uow.Rollback()
		return fmt.Errorf("ошибка загрузки %s: %w", c.Name(), err)
	}
	ent.CaptureFrom(c, loc)
	if err := uow.Characters().SaveCharacter(ctx, ent); err != nil {
		_ = uow.Rollback()
		return fmt.Errorf("ошибка записи %s: %w", c.Name(), err)
	}
	return uow.Complete()
}

// saveOnline сохраняет всех игроков онлайн. Возвращает число сохранённых и первую ошибку.
func (g *Game) saveOnline(ctx context.Context) (int, error) {
	var (
		saved    int
		firstErr error
	)
	for _, c := range g.onlinePlayers() {
		loc, ok := g.world.LocationOf(c.ID())
		if !ok {
			continue
		}
		if err := g.saveCharacter(ctx, c, loc); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			g.logger.Warn("⚠️ Автосохранение %s не удалось: %v", c.Name(), err)
			continue
		}
		saved++
	}
	return saved, firstErr
}

func (g *Game) setPresence(ctx context.Context, name string, online bool) {
	if g.presence == nil {
		return
	}
	var err error
	if online {
		err = g.presence.SetOnline(ctx, name)
	} else {
		err = g.presence.SetOffline(ctx, name)
	}
	if err != nil {
		g.logger.Warn("⚠️ Ошибка обновления присутствия %s: %v", name, err)
	}
}

// publish отправляет событие в шину. Ошибки шины не влияют на игру.
func (g *Game) publish(ctx context.Context, eventType string, priority int, payload interface{}) {
	if g.bus == nil {
		return
	}
	env, err := eventbus.NewEnvelope(g.settings.ServerName, eventType, priority, payload)
	if err != nil {
		g.logger.Warn("⚠️ %v", err)
		return
	}
	env.Tenant = g.settings.ServerName
	if err := g.bus.Publish(ctx, env); err != nil {
		g.logger.Warn("⚠️ Не удалось опубликовать %s: %v", eventType, err)
	}
}
