package creature

import "github.com/annel0/worldsim/internal/items"

// MonsterType — статическое описание расы монстров из каталога
type MonsterType struct {
	Race        uint16            `bson:"race"`
	Name        string            `bson:"name"`
	Article     string            `bson:"article"`
	Outfit      Outfit            `bson:"outfit"`
	MaxHealth   int               `bson:"health"`
	BaseSpeed   int               `bson:"speed"`
	Experience  int64             `bson:"experience"`
	Blood       BloodType         `bson:"blood"`
	Armor       int               `bson:"armor"`
	Defense     int               `bson:"defense"`
	Attack      int               `bson:"attack"`
	AttackRange int               `bson:"attack_range"`
	Corpse      items.TypeID      `bson:"corpse"`
	Skills      map[SkillType]int `bson:"skills"`
}

// Validate проверяет обязательные поля
func (m *MonsterType) Validate() error {
	switch {
	case m.Race == 0:
		return errInvalid("race")
	case m.Name == "":
		return errInvalid("name")
	case m.MaxHealth <= 0:
		return errInvalid("health")
	case m.BaseSpeed <= 0:
		return errInvalid("speed")
	}
	return nil
}
