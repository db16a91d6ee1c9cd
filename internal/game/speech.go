package game

import (
	"context"
	"strings"
	"time"

	"github.com/annel0/worldsim/internal/creature"
	"github.com/annel0/worldsim/internal/eventbus"
	"github.com/annel0/worldsim/internal/protocol"
	"github.com/annel0/worldsim/internal/storage"
	"github.com/annel0/worldsim/internal/vec"
)

const (
	speechCooldown = 500 * time.Millisecond
	yellCooldown   = 3 * time.Second
	// крик слышен дальше окна клиента
	yellRange     = 30
	whisperRange  = 1
	maxSpeechText = 255
)

// SpeechOperation — реплика существа
type SpeechOperation struct {
	operation
	speech   protocol.SpeechType
	channel  protocol.ChatChannel
	receiver string
	text     string
}

// NewSpeechOperation создаёт реплику. receiver — имя адресата личного сообщения,
// channel используется только для SpeechChannel.
func NewSpeechOperation(requestor creature.ID, t protocol.SpeechType, channel protocol.ChatChannel, receiver, text string) *SpeechOperation {
	if len(text) > maxSpeechText {
		text = text[:maxSpeechText]
	}
	return &SpeechOperation{
		operation: newOperation(requestor, KindSpeech),
		speech:    t,
		channel:   channel,
		receiver:  receiver,
		text:      text,
	}
}

func (o *SpeechOperation) Exhaustion() map[creature.ExhaustionType]time.Duration {
	cd := speechCooldown
	if o.speech == protocol.SpeechYell {
		cd = yellCooldown
	}
	return map[creature.ExhaustionType]time.Duration{creature.ExhaustionSpeech: cd}
}

func (o *SpeechOperation) Execute(ctx *Context) error {
	g := ctx.Game
	c, ok := g.Combatant(o.requestor)
	if !ok || c.IsDead() || strings.TrimSpace(o.text) == "" {
		return nil
	}
	loc, ok := g.world.LocationOf(c.ID())
	if !ok {
		return nil
	}

	switch o.speech {
	case protocol.SpeechSay, protocol.SpeechMonsterSay:
		g.Notify(NewCreatureSpeechNotification(ToSpectators(loc), c.Name(), o.speech, loc, 0, o.text), 0)
	case protocol.SpeechWhisper:
		g.Notify(NewCreatureSpeechNotification(withinRange(loc, whisperRange), c.Name(), o.speech, loc, 0, o.text), 0)
		g.Notify(NewCreatureSpeechNotification(beyondRange(loc, whisperRange), c.Name(), o.speech, loc, 0, "pspsps"), 0)
	case protocol.SpeechYell, protocol.SpeechMonsterYell:
		g.Notify(NewCreatureSpeechNotification(withinRange(loc, yellRange), c.Name(), o.speech, loc, 0, strings.ToUpper(o.text)), 0)
	case protocol.SpeechPrivate:
		g.whisperTo(c, o.receiver, o.text)
	case protocol.SpeechChannel:
		g.Notify(NewCreatureSpeechNotification(ToAll(), c.Name(), o.speech, loc, o.channel, o.text), 0)
	case protocol.SpeechBroadcast:
		g.Notify(NewCreatureSpeechNotification(ToAll(), c.Name(), o.speech, loc, 0, o.text), 0)
	default:
		return nil
	}
	g.logger.Trace("💬 %s (%d): %q", c.Name(), o.speech, o.text)
	return nil
}

// whisperTo отправляет личное сообщение игроку по имени
func (g *Game) whisperTo(from *creature.Combatant, name, text string) {
	key := storage.NormalizeName(name)
	for _, p := range g.onlinePlayers() {
		if storage.NormalizeName(p.Name()) != key {
			continue
		}
		g.Notify(NewCreatureSpeechNotification(ToPlayer(p.ID()), from.Name(), protocol.SpeechPrivate, vec.Location{}, 0, text), 0)
		g.Notify(NewTextMessageNotification(ToPlayer(from.ID()), protocol.MessageStatusSmall, "Message sent to "+p.Name()+"."), 0)
		return
	}
	g.Notify(NewTextMessageNotification(ToPlayer(from.ID()), protocol.MessageStatusSmall, "A player with this name is not online."), 0)
}

// withinRange — игроки того же этажа не дальше r тайлов
func withinRange(loc vec.Location, r int) Observers {
	return func(g *Game, p *creature.Combatant) bool {
		at, ok := g.world.LocationOf(p.ID())
		return ok && at.IsWithinRange(loc, r)
	}
}

// beyondRange — зрители, стоящие дальше r тайлов
func beyondRange(loc vec.Location, r int) Observers {
	near := withinRange(loc, r)
	spectators := ToSpectators(loc)
	return func(g *Game, p *creature.Combatant) bool {
		return spectators(g, p) && !near(g, p)
	}
}

// Broadcast рассылает серверное сообщение всем игрокам онлайн и публикует его на шину.
// Возвращает false для пустого текста.
func (g *Game) Broadcast(ctx context.Context, author, text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}
	g.Notify(NewTextMessageNotification(ToAll(), protocol.MessageStatusDefault, text), 0)
	g.logger.Info("📢 Объявление от %s: %s", author, text)
	g.publish(ctx, eventbus.TypeBroadcast, eventbus.PriorityHigh, eventbus.Broadcast{Text: text, Author: author})
	return true
}
