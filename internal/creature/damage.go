package creature

// BloodType определяет эффект попадания по существу
type BloodType uint8

const (
	BloodRed BloodType = iota
	BloodSlime
	BloodBones
	BloodFire
	BloodEnergy
)

// DamageType — природа урона
type DamageType uint8

const (
	DamagePhysical DamageType = iota
	DamageFire
	DamageEnergy
	DamageEarth
	DamageLifeDrain
)

// HitEffect — визуальный результат попадания
type HitEffect uint8

const (
	HitNone HitEffect = iota
	HitBlocked
	HitArmorAbsorbed
	HitDrawBlood
	HitSlime
	HitBones
	HitFire
	HitEnergy
)

// DamageInfo — параметры одного удара. Модификаторы меняют его на месте.
type DamageInfo struct {
	Type         DamageType
	Amount       int
	AttackerKind Kind
	Blockable    bool
	Effect       HitEffect
	Blocked      bool
}

// DamageModifier корректирует удар до применения к здоровью
type DamageModifier func(defender *Combatant, info *DamageInfo)

// DefaultModifiers — блок, поглощение бронёй, ослабление PvP и выбор эффекта попадания
func DefaultModifiers() []DamageModifier {
	return []DamageModifier{BlockModifier, ArmorModifier, PlayerVersusPlayerModifier, BloodEffectModifier}
}

// BlockModifier отражает физический удар с шансом, зависящим от защиты и режима боя
func BlockModifier(d *Combatant, info *DamageInfo) {
	if !info.Blockable || info.Type != DamagePhysical || info.Amount <= 0 || d.rng == nil {
		return
	}
	chance := d.BlockChance()
	if chance > 0 && d.rng.Intn(100) < chance {
		info.Amount = 0
		info.Blocked = true
		info.Effect = HitBlocked
	}
}

// ArmorModifier поглощает часть физического урона бронёй
func ArmorModifier(d *Combatant, info *DamageInfo) {
	if info.Type != DamagePhysical || info.Amount <= 0 || d.armor <= 0 {
		return
	}
	absorbed := d.armor / 2
	if d.rng != nil && d.armor > 1 {
		absorbed += d.rng.Intn(d.armor/2 + 1)
	}
	info.Amount -= absorbed
	if info.Amount <= 0 {
		info.Amount = 0
		info.Effect = HitArmorAbsorbed
	}
}

// PlayerVersusPlayerModifier вдвое ослабляет урон игрока по игроку
func PlayerVersusPlayerModifier(d *Combatant, info *DamageInfo) {
	if info.AttackerKind == KindPlayer && d.IsPlayer() && info.Amount > 0 {
		info.Amount /= 2
	}
}

// BloodEffectModifier выбирает эффект попадания по виду существа
func BloodEffectModifier(d *Combatant, info *DamageInfo) {
	if info.Amount <= 0 || info.Effect != HitNone {
		return
	}
	switch info.Type {
	case DamageFire:
		info.Effect = HitFire
		return
	case DamageEnergy:
		info.Effect = HitEnergy
		return
	}
	switch d.blood {
	case BloodSlime:
		info.Effect = HitSlime
	case BloodBones:
		info.Effect = HitBones
	case BloodFire:
		info.Effect = HitFire
	case BloodEnergy:
		info.Effect = HitEnergy
	default:
		info.Effect = HitDrawBlood
	}
}

// BlockChance — шанс блока в процентах
func (c *Combatant) BlockChance() int {
	base := c.defense
	if s := c.skills[SkillShield]; s != nil {
		base += s.Level
	}
	switch c.fightMode {
	case FightDefensive:
		base = base * 3 / 2
	case FightOffensive:
		base /= 2
	}
	return max(0, min(base, 60))
}

// ApplyDamage применяет удар: модификаторы, затем уменьшение здоровья, ограниченное
// текущим здоровьем. Возвращает фактически нанесённый урон и итог модификаторов.
func (c *Combatant) ApplyDamage(info DamageInfo, attacker ID) (int, DamageInfo) {
	if info.Amount < 0 {
		info.Amount = 0
	}
	for _, mod := range c.modifiers {
		mod(c, &info)
	}
	info.Amount = max(info.Amount, 0)

	health := c.stats[StatHealth]
	if health == nil {
		return 0, info
	}

	before := health.Current()
	done := min(info.Amount, before)
	health.Decrease(done)

	if attacker != NoID {
		c.ledger.Add(attacker, info.Amount)
	}

	if before > 0 && health.Current() == 0 {
		c.raise(Death{Source: c.id})
	}
	return done, info
}
