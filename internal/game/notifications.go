package game

import (
	"github.com/annel0/worldsim/internal/creature"
	"github.com/annel0/worldsim/internal/protocol"
	"github.com/annel0/worldsim/internal/scheduler"
	"github.com/annel0/worldsim/internal/vec"
	"github.com/annel0/worldsim/internal/world"
)

// Observers решает в момент отправки, получает ли игрок уведомление
type Observers func(g *Game, player *creature.Combatant) bool

// Renderer строит кадр для конкретного игрока. nil — игроку нечего отправлять.
type Renderer func(g *Game, player *creature.Combatant) []byte

// Notification — кадры для группы наблюдателей. Наблюдатели выбираются
// при исполнении, а не при постановке.
type Notification struct {
	scheduler.BaseEvent
	name      string
	observers Observers
	render    Renderer
}

// NewNotification создаёт уведомление
func NewNotification(name string, observers Observers, render Renderer) *Notification {
	n := &Notification{
		BaseEvent: scheduler.NewBaseEvent(0, kindNotificationPrefix+name),
		name:      name,
		observers: observers,
		render:    render,
	}
	n.SetExcludeFromTelemetry(true)
	return n
}

// Name — короткое имя уведомления
func (n *Notification) Name() string { return n.name }

// Execute рассылает кадры. Ошибки отправки не считаются ошибками события.
func (n *Notification) Execute(ctx *Context) error {
	g := ctx.Game
	for _, p := range g.onlinePlayers() {
		if n.observers != nil && !n.observers(g, p) {
			continue
		}
		g.send(p.ID(), n.render(g, p))
	}
	return nil
}

func static(frame []byte) Renderer {
	return func(*Game, *creature.Combatant) []byte { return frame }
}

// --- наблюдатели ---

// ToPlayer — только указанный игрок
func ToPlayer(id creature.ID) Observers {
	return func(_ *Game, p *creature.Combatant) bool { return p.ID() == id }
}

// ToAll — все игроки онлайн
func ToAll() Observers { return nil }

// ToSpectators — игроки, в чьё окно попадает хотя бы одна из точек
func ToSpectators(locs ...vec.Location) Observers {
	return func(g *Game, p *creature.Combatant) bool {
		at, ok := g.world.LocationOf(p.ID())
		if !ok {
			return false
		}
		for _, l := range locs {
			if world.IsWithinView(at, l) {
				return true
			}
		}
		return false
	}
}

// Except исключает игрока из набора
func Except(id creature.ID, obs Observers) Observers {
	return func(g *Game, p *creature.Combatant) bool {
		if p.ID() == id {
			return false
		}
		return obs == nil || obs(g, p)
	}
}

// known — кэш существ клиента игрока
func known(p *creature.Combatant) *creature.KnownCreatures {
	if p.Player() == nil {
		return nil
	}
	return p.Player().Known
}

// --- уведомления ---

// NewLoginSuccessNotification — вход выполнен
func NewLoginSuccessNotification(player creature.ID) *Notification {
	return NewNotification("login_success", ToPlayer(player), static(protocol.LoginSuccess(player)))
}

// NewMapDescriptionNotification — полное окно вокруг игрока
func NewMapDescriptionNotification(player creature.ID) *Notification {
	return NewNotification("map_description", ToPlayer(player), func(g *Game, p *creature.Combatant) []byte {
		at, ok := g.world.LocationOf(p.ID())
		if !ok {
			return nil
		}
		return protocol.MapDescription(g.world, at, g.lookup, known(p))
	})
}

// NewMapSliceNotification — полоса тайлов, вошедшая в окно игрока в center после шага в dir
func NewMapSliceNotification(player creature.ID, center vec.Location, dir vec.Direction) *Notification {
	return NewNotification("map_slice", ToPlayer(player), func(g *Game, p *creature.Combatant) []byte {
		return protocol.MapSlice(g.world, center, dir, g.lookup, known(p))
	})
}

// notifyViewShift дописывает игроку то, что вошло в его окно при шаге from→to.
// Несоседний шаг или смена этажа описываются полным окном.
func (g *Game) notifyViewShift(player creature.ID, from, to vec.Location) {
	dirs, centers, ok := protocol.SliceSteps(from, to)
	if !ok {
		g.Notify(NewMapDescriptionNotification(player), 0)
		return
	}
	for i, dir := range dirs {
		g.Notify(NewMapSliceNotification(player, centers[i], dir), 0)
	}
}

// NewTileUpdatedNotification — содержимое тайла изменилось
func NewTileUpdatedNotification(loc vec.Location) *Notification {
	return NewNotification("tile_updated", ToSpectators(loc), func(g *Game, p *creature.Combatant) []byte {
		tile, ok := g.world.PeekTile(loc)
		if !ok {
			return nil
		}
		return protocol.TileUpdated(loc, tile, g.lookup, known(p))
	})
}

// NewCreatureAddedNotification — существо появилось на тайле
func NewCreatureAddedNotification(id creature.ID, loc vec.Location, observers Observers) *Notification {
	return NewNotification("creature_added", observers, func(g *Game, p *creature.Combatant) []byte {
		c, ok := g.Combatant(id)
		if !ok {
			return nil
		}
		tile, ok := g.world.PeekTile(loc)
		if !ok {
			return nil
		}
		return protocol.AddCreatureOnTile(loc, tile.GetIndexOfCreature(id), c.Creature, known(p))
	})
}

// NewCreatureRemovedNotification — существо исчезло из позиции стека
func NewCreatureRemovedNotification(loc vec.Location, stackPos int, observers Observers) *Notification {
	return NewNotification("creature_removed", observers, static(protocol.RemoveThing(loc, stackPos)))
}

// NewCreatureMovedNotification — шаг существа. Тот, кто видел обе точки, получает перемещение,
// только новую — появление, только старую — исчезновение. Сам игрок получает перемещение,
// а вошедшие в окно полосы уходят отдельными кадрами (notifyViewShift).
func NewCreatureMovedNotification(id creature.ID, from vec.Location, stackPos int, to vec.Location) *Notification {
	return NewNotification("creature_moved", ToSpectators(from, to), func(g *Game, p *creature.Combatant) []byte {
		at, ok := g.world.LocationOf(p.ID())
		if !ok {
			return nil
		}
		if p.ID() == id {
			return protocol.CreatureMoved(from, stackPos, to)
		}

		sawFrom, seesTo := world.IsWithinView(at, from), world.IsWithinView(at, to)
		switch {
		case sawFrom && seesTo:
			return protocol.CreatureMoved(from, stackPos, to)
		case seesTo:
			c, ok := g.Combatant(id)
			tile, tok := g.world.PeekTile(to)
			if !ok || !tok {
				return nil
			}
			return protocol.AddCreatureOnTile(to, tile.GetIndexOfCreature(id), c.Creature, known(p))
		default:
			return protocol.RemoveThing(from, stackPos)
		}
	})
}

// NewCreatureTurnedNotification — существо повернулось
func NewCreatureTurnedNotification(id creature.ID, loc vec.Location, stackPos int, dir vec.Direction) *Notification {
	return NewNotification("creature_turned", ToSpectators(loc), static(protocol.CreatureTurned(loc, stackPos, id, dir)))
}

// NewCreatureHealthNotification — процент здоровья для зрителей
func NewCreatureHealthNotification(id creature.ID, loc vec.Location, percent int) *Notification {
	return NewNotification("creature_health", ToSpectators(loc), static(protocol.CreatureHealth(id, percent)))
}

// NewCreatureSpeedNotification — скорость для зрителей
func NewCreatureSpeedNotification(id creature.ID, loc vec.Location, speed int) *Notification {
	return NewNotification("creature_speed", ToSpectators(loc), static(protocol.CreatureSpeed(id, speed)))
}

// NewPlayerStatsNotification — характеристики игрока, снятые в момент отправки
func NewPlayerStatsNotification(player creature.ID) *Notification {
	return NewNotification("player_stats", ToPlayer(player), func(_ *Game, p *creature.Combatant) []byte {
		return protocol.PlayerStats(p)
	})
}

// NewPlayerSkillsNotification — навыки игрока
func NewPlayerSkillsNotification(player creature.ID) *Notification {
	return NewNotification("player_skills", ToPlayer(player), func(_ *Game, p *creature.Combatant) []byte {
		return protocol.PlayerSkills(p)
	})
}

// NewPlayerConditionsNotification — значки состояний
func NewPlayerConditionsNotification(player creature.ID) *Notification {
	return NewNotification("player_conditions", ToPlayer(player), func(g *Game, p *creature.Combatant) []byte {
		return protocol.PlayerConditions(g.conditionIcons(p.ID()))
	})
}

// NewTextMessageNotification — текстовое сообщение
func NewTextMessageNotification(observers Observers, t protocol.MessageType, text string) *Notification {
	return NewNotification("text_message", observers, static(protocol.TextMessage(t, text)))
}

// NewAnimatedTextNotification — всплывающий текст над тайлом
func NewAnimatedTextNotification(loc vec.Location, color protocol.TextColor, text string) *Notification {
	return NewNotification("animated_text", ToSpectators(loc), static(protocol.AnimatedText(loc, color, text)))
}

// NewMagicEffectNotification — эффект на тайле
func NewMagicEffectNotification(loc vec.Location, effect protocol.MagicEffect) *Notification {
	return NewNotification("magic_effect", ToSpectators(loc), static(protocol.MagicEffectAt(loc, effect)))
}

// NewCreatureSpeechNotification — реплика существа
func NewCreatureSpeechNotification(observers Observers, name string, t protocol.SpeechType, loc vec.Location, channel protocol.ChatChannel, text string) *Notification {
	return NewNotification("creature_speech", observers, static(protocol.CreatureSpeech(name, t, loc, channel, text)))
}

// NewWorldLightNotification — освещённость мира
func NewWorldLightNotification(observers Observers, level, color byte) *Notification {
	return NewNotification("world_light", observers, static(protocol.WorldLight(level, color)))
}

// NewContainerClosedNotification — сервер закрыл контейнер игрока
func NewContainerClosedNotification(player creature.ID, slot uint8) *Notification {
	return NewNotification("container_closed", ToPlayer(player), static(protocol.ContainerClosed(slot)))
}

// NewCancelWalkNotification — шаг отклонён
func NewCancelWalkNotification(player creature.ID, dir vec.Direction) *Notification {
	return NewNotification("cancel_walk", ToPlayer(player), static(protocol.CancelWalk(dir)))
}

// NewCancelAttackNotification — цель атаки сброшена
func NewCancelAttackNotification(player creature.ID) *Notification {
	return NewNotification("cancel_attack", ToPlayer(player), static(protocol.CancelAttack()))
}
