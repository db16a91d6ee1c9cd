package protocol

import (
	"github.com/annel0/worldsim/internal/creature"
	"github.com/annel0/worldsim/internal/vec"
	"github.com/annel0/worldsim/internal/world"
)

// Служебный префикс «существо по идентификатору» в кадрах поворота
const creatureByIDMarker uint16 = 0x0063

// BeatInterval — период подтверждений соединения, сообщаемый клиенту при входе, мс
const BeatInterval = 50

// LoginSuccess — вход выполнен, клиенту сообщается его идентификатор
func LoginSuccess(player creature.ID) []byte {
	w := NewFrame(OpLoginSuccess)
	w.AddUint32(uint32(player))
	w.AddUint16(BeatInterval)
	w.AddByte(0) // отчёты об ошибках выключены
	return w.Bytes()
}

// Disconnect — сервер закрывает сессию с причиной
func Disconnect(reason string) []byte {
	w := NewFrame(OpDisconnect)
	w.AddString(reason)
	return w.Bytes()
}

// MapDescription — полное окно вокруг наблюдателя
func MapDescription(m *world.Map, center vec.Location, lookup CreatureLookup, known *creature.KnownCreatures) []byte {
	w := NewFrame(OpMapDescription)
	w.AddLocation(center)
	WriteMapDescription(w, m, center, lookup, known)
	return w.Bytes()
}

// sliceOpcodes — опкод полосы карты для каждого прямого направления
var sliceOpcodes = map[vec.Direction]Opcode{
	vec.North: OpMapSliceNorth,
	vec.East:  OpMapSliceEast,
	vec.South: OpMapSliceSouth,
	vec.West:  OpMapSliceWest,
}

// MapSlice — полоса тайлов, вошедшая в окно наблюдателя после шага в dir.
// center — положение наблюдателя после шага. Для диагоналей возвращает nil:
// такой шаг описывается двумя полосами.
func MapSlice(m *world.Map, center vec.Location, dir vec.Direction, lookup CreatureLookup, known *creature.KnownCreatures) []byte {
	op, ok := sliceOpcodes[dir]
	if !ok {
		return nil
	}
	w := NewFrame(op)
	writeTiles(w, m, StripTiles(center, dir), lookup, known)
	return w.Bytes()
}

// SliceSteps раскладывает шаг from→to на полосы: прямые направления и положения
// наблюдателя, для которых они описываются. Диагональ идёт сначала по вертикали,
// затем по горизонтали. ok=false, если шаг не соседний на том же этаже и нужно
// полное описание окна.
func SliceSteps(from, to vec.Location) (dirs []vec.Direction, centers []vec.Location, ok bool) {
	dx, dy := to.X-from.X, to.Y-from.Y
	if from.Z != to.Z || dx < -1 || dx > 1 || dy < -1 || dy > 1 || (dx == 0 && dy == 0) {
		return nil, nil, false
	}
	if dy != 0 {
		dir := vec.South
		if dy < 0 {
			dir = vec.North
		}
		dirs = append(dirs, dir)
		centers = append(centers, vec.Location{X: from.X, Y: to.Y, Z: to.Z})
	}
	if dx != 0 {
		dir := vec.East
		if dx < 0 {
			dir = vec.West
		}
		dirs = append(dirs, dir)
		centers = append(centers, to)
	}
	return dirs, centers, true
}

// TileUpdated — новое содержимое одного тайла
func TileUpdated(loc vec.Location, tile *world.Tile, lookup CreatureLookup, known *creature.KnownCreatures) []byte {
	w := NewFrame(OpTileUpdated)
	w.AddLocation(loc)
	if desc := DescribeTile(tile, lookup, known); desc != nil {
		w.AddBytes(desc)
		w.AddByte(0x00)
	} else {
		w.AddByte(0x01)
	}
	w.AddByte(SkipMarker)
	return w.Bytes()
}

// AddCreatureOnTile — существо появилось в позиции стека
func AddCreatureOnTile(loc vec.Location, stackPos int, c *creature.Creature, known *creature.KnownCreatures) []byte {
	w := NewFrame(OpAddThing)
	w.AddLocation(loc)
	w.AddSaturatedByte(stackPos)
	AddCreature(w, c, known)
	return w.Bytes()
}

// CreatureTurned — существо повернулось
func CreatureTurned(loc vec.Location, stackPos int, id creature.ID, dir vec.Direction) []byte {
	w := NewFrame(OpCreatureTurned)
	w.AddLocation(loc)
	w.AddSaturatedByte(stackPos)
	w.AddUint16(creatureByIDMarker)
	w.AddUint32(uint32(id))
	w.AddByte(DirectionByte(dir))
	return w.Bytes()
}

// RemoveThing — элемент стека тайла исчез
func RemoveThing(loc vec.Location, stackPos int) []byte {
	w := NewFrame(OpRemoveThing)
	w.AddLocation(loc)
	w.AddSaturatedByte(stackPos)
	return w.Bytes()
}

// CreatureMoved — существо перешло с тайла на тайл
func CreatureMoved(from vec.Location, stackPos int, to vec.Location) []byte {
	w := NewFrame(OpCreatureMoved)
	w.AddLocation(from)
	w.AddSaturatedByte(stackPos)
	w.AddLocation(to)
	return w.Bytes()
}

// ContainerClosed — сервер закрыл окно контейнера
func ContainerClosed(slot uint8) []byte {
	w := NewFrame(OpContainerClosed)
	w.AddByte(slot)
	return w.Bytes()
}

// WorldLight — освещённость мира
func WorldLight(level, color byte) []byte {
	w := NewFrame(OpWorldLight)
	w.AddByte(level)
	w.AddByte(color)
	return w.Bytes()
}

// MagicEffectAt — эффект на тайле
func MagicEffectAt(loc vec.Location, effect MagicEffect) []byte {
	w := NewFrame(OpMagicEffect)
	w.AddLocation(loc)
	w.AddByte(MagicEffectByte(effect))
	return w.Bytes()
}

// AnimatedText — всплывающий текст над тайлом
func AnimatedText(loc vec.Location, color TextColor, text string) []byte {
	w := NewFrame(OpAnimatedText)
	w.AddLocation(loc)
	w.AddByte(byte(color))
	w.AddString(text)
	return w.Bytes()
}

// CreatureHealth — процент здоровья существа
func CreatureHealth(id creature.ID, percent int) []byte {
	w := NewFrame(OpCreatureHealth)
	w.AddUint32(uint32(id))
	w.AddPercent(percent)
	return w.Bytes()
}

// CreatureSpeed — текущая скорость существа
func CreatureSpeed(id creature.ID, speed int) []byte {
	w := NewFrame(OpCreatureSpeed)
	w.AddUint32(uint32(id))
	w.AddSaturatedUint16(speed)
	return w.Bytes()
}

// PlayerStats — характеристики игрока. Значения насыщаются, а не переполняются.
func PlayerStats(p *creature.Combatant) []byte {
	w := NewFrame(OpPlayerStats)
	addStat := func(t creature.StatType) {
		st := p.Stat(t)
		if st == nil {
			w.AddUint16(0)
			w.AddUint16(0)
			return
		}
		w.AddSaturatedUint16(st.Current())
		w.AddSaturatedUint16(st.Maximum())
	}

	addStat(creature.StatHealth)
	capacity := 0
	if st := p.Stat(creature.StatCarryCapacity); st != nil {
		capacity = st.Current()
	}
	w.AddSaturatedUint16(capacity)

	exp := p.Skill(creature.SkillExperience)
	if exp != nil {
		w.AddSaturatedUint32(exp.Count)
		w.AddSaturatedUint16(exp.Level)
		w.AddPercent(exp.Percent())
	} else {
		w.AddUint32(0)
		w.AddUint16(1)
		w.AddByte(0)
	}

	addStat(creature.StatMana)

	magic := p.Skill(creature.SkillMagic)
	if magic != nil {
		w.AddSaturatedByte(magic.Level)
		w.AddPercent(magic.Percent())
	} else {
		w.AddByte(0)
		w.AddByte(0)
	}
	w.AddSaturatedUint16(p.Speed())
	return w.Bytes()
}

// PlayerSkillOrder — порядок навыков в кадре навыков
var PlayerSkillOrder = []creature.SkillType{
	creature.SkillFist, creature.SkillClub, creature.SkillSword, creature.SkillAxe,
	creature.SkillDistance, creature.SkillShield, creature.SkillFishing,
}

// PlayerSkills — уровни и проценты боевых навыков
func PlayerSkills(p *creature.Combatant) []byte {
	w := NewFrame(OpPlayerSkills)
	for _, t := range PlayerSkillOrder {
		s := p.Skill(t)
		if s == nil {
			w.AddByte(0)
			w.AddByte(0)
			continue
		}
		w.AddSaturatedByte(s.Level)
		w.AddPercent(s.Percent())
	}
	return w.Bytes()
}

// PlayerConditions — значки активных состояний
func PlayerConditions(icons ConditionIcon) []byte {
	w := NewFrame(OpPlayerConditions)
	w.AddByte(byte(icons))
	return w.Bytes()
}

// CancelAttack — клиент должен сбросить выделение цели
func CancelAttack() []byte {
	return NewFrame(OpCancelAttack).Bytes()
}

// CreatureSpeech — реплика существа. Координаты передаются только для речи на карте,
// для каналов — идентификатор канала.
func CreatureSpeech(name string, t SpeechType, loc vec.Location, channel ChatChannel, text string) []byte {
	w := NewFrame(OpCreatureSpeech)
	w.AddString(name)
	w.AddByte(SpeechTypeByte(t))
	switch {
	case t.HasLocation():
		w.AddLocation(loc)
	case t == SpeechChannel:
		w.AddUint16(ChannelID(channel))
	}
	w.AddString(text)
	return w.Bytes()
}

// TextMessage — текстовое сообщение игроку
func TextMessage(t MessageType, text string) []byte {
	w := NewFrame(OpTextMessage)
	w.AddByte(MessageTypeByte(t))
	w.AddString(text)
	return w.Bytes()
}

// CancelWalk — шаг отклонён, клиент возвращает существо и поворачивает его
func CancelWalk(dir vec.Direction) []byte {
	w := NewFrame(OpCancelWalk)
	w.AddByte(DirectionByte(dir))
	return w.Bytes()
}
