package protocol

import (
	"github.com/annel0/worldsim/internal/creature"
	"github.com/annel0/worldsim/internal/vec"
)

// SpeechType — способ произнесения фразы
type SpeechType uint8

const (
	SpeechSay SpeechType = iota
	SpeechWhisper
	SpeechYell
	SpeechPrivate
	SpeechChannel
	SpeechBroadcast
	SpeechMonsterSay
	SpeechMonsterYell
)

// DefaultSpeechWire — обычная речь
const DefaultSpeechWire byte = 0x01

var speechWire = map[SpeechType]byte{
	SpeechSay:         0x01,
	SpeechWhisper:     0x02,
	SpeechYell:        0x03,
	SpeechPrivate:     0x04,
	SpeechChannel:     0x05,
	SpeechBroadcast:   0x09,
	SpeechMonsterSay:  0x10,
	SpeechMonsterYell: 0x11,
}

// SpeechTypeByte кодирует тип речи; неизвестные значения — обычная речь
func SpeechTypeByte(t SpeechType) byte {
	if b, ok := speechWire[t]; ok {
		return b
	}
	return DefaultSpeechWire
}

// HasLocation — передаются ли координаты говорящего
func (t SpeechType) HasLocation() bool {
	switch t {
	case SpeechSay, SpeechWhisper, SpeechYell, SpeechMonsterSay, SpeechMonsterYell:
		return true
	}
	return false
}

// ChatChannel — канал чата
type ChatChannel uint8

const (
	ChannelGuild ChatChannel = iota
	ChannelGameChat
	ChannelTrade
	ChannelRealLife
	ChannelHelp
)

// DefaultChannelWire — игровой чат
const DefaultChannelWire uint16 = 0x0004

var channelWire = map[ChatChannel]uint16{
	ChannelGuild:    0x0000,
	ChannelGameChat: 0x0004,
	ChannelTrade:    0x0005,
	ChannelRealLife: 0x0006,
	ChannelHelp:     0x0007,
}

// ChannelID кодирует канал; неизвестные значения — игровой чат
func ChannelID(c ChatChannel) uint16 {
	if id, ok := channelWire[c]; ok {
		return id
	}
	return DefaultChannelWire
}

// MessageType — тип текстового сообщения игроку
type MessageType uint8

const (
	MessageStatusSmall MessageType = iota
	MessageWarning
	MessageEventAdvance
	MessageEvent
	MessageStatusDefault
	MessageInfo
	MessageConsoleBlue
	MessageConsoleRed
)

// DefaultMessageWire — строка статуса внизу экрана
const DefaultMessageWire byte = 0x17

var messageWire = map[MessageType]byte{
	MessageWarning:       0x12,
	MessageEventAdvance:  0x13,
	MessageEvent:         0x14,
	MessageStatusDefault: 0x15,
	MessageInfo:          0x16,
	MessageStatusSmall:   0x17,
	MessageConsoleBlue:   0x18,
	MessageConsoleRed:    0x19,
}

// MessageTypeByte кодирует тип сообщения; неизвестные — строка статуса
func MessageTypeByte(t MessageType) byte {
	if b, ok := messageWire[t]; ok {
		return b
	}
	return DefaultMessageWire
}

// MagicEffect — визуальный эффект на тайле
type MagicEffect uint8

const (
	EffectNone MagicEffect = iota
	EffectDrawBlood
	EffectLoseEnergy
	EffectPuff
	EffectBlockHit
	EffectExplosion
	EffectFire
	EffectGreenRings
	EffectPoison
	EffectBones
	EffectTeleport
	EffectEnergy
)

// DefaultEffectWire — облачко
const DefaultEffectWire byte = 0x03

var effectWire = map[MagicEffect]byte{
	EffectDrawBlood:  0x01,
	EffectLoseEnergy: 0x02,
	EffectPuff:       0x03,
	EffectBlockHit:   0x04,
	EffectExplosion:  0x05,
	EffectFire:       0x07,
	EffectGreenRings: 0x09,
	EffectPoison:     0x0A,
	EffectBones:      0x0B,
	EffectTeleport:   0x0C,
	EffectEnergy:     0x0D,
}

// MagicEffectByte кодирует эффект; неизвестные и отсутствующий — облачко
func MagicEffectByte(e MagicEffect) byte {
	if b, ok := effectWire[e]; ok {
		return b
	}
	return DefaultEffectWire
}

// EffectForHit переводит результат попадания в эффект на тайле
func EffectForHit(h creature.HitEffect) (MagicEffect, bool) {
	switch h {
	case creature.HitBlocked:
		return EffectPuff, true
	case creature.HitArmorAbsorbed:
		return EffectBlockHit, true
	case creature.HitDrawBlood:
		return EffectDrawBlood, true
	case creature.HitSlime:
		return EffectPoison, true
	case creature.HitBones:
		return EffectBones, true
	case creature.HitFire:
		return EffectFire, true
	case creature.HitEnergy:
		return EffectEnergy, true
	}
	return EffectNone, false
}

// TextColor — цвет всплывающего текста
type TextColor byte

const (
	TextColorRed    TextColor = 180
	TextColorWhite  TextColor = 215
	TextColorGreen  TextColor = 30
	TextColorBlue   TextColor = 5
	TextColorOrange TextColor = 198
)

// ColorForBlood — цвет числа урона по типу крови
func ColorForBlood(b creature.BloodType) TextColor {
	switch b {
	case creature.BloodSlime:
		return TextColorGreen
	case creature.BloodBones:
		return TextColorWhite
	case creature.BloodFire:
		return TextColorOrange
	case creature.BloodEnergy:
		return TextColorBlue
	}
	return TextColorRed
}

// DirectionByte кодирует направление взгляда: N=0, E=1, S=2, W=3
func DirectionByte(d vec.Direction) byte {
	switch d.Facing() {
	case vec.North:
		return 0
	case vec.East:
		return 1
	case vec.West:
		return 3
	}
	return 2
}

// ConditionIcon — значок состояния в интерфейсе
type ConditionIcon uint8

const (
	IconPoison  ConditionIcon = 1 << 0
	IconBurn    ConditionIcon = 1 << 1
	IconEnergy  ConditionIcon = 1 << 2
	IconDrunk   ConditionIcon = 1 << 3
	IconHaste   ConditionIcon = 1 << 6
	IconInFight ConditionIcon = 1 << 7
)
