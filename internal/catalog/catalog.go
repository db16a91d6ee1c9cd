package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/annel0/worldsim/internal/creature"
	"github.com/annel0/worldsim/internal/items"
	"github.com/annel0/worldsim/internal/vec"
)

//go:embed default.yaml
var defaultCatalog []byte

// itemDoc — запись типа предмета в YAML
type itemDoc struct {
	ID       uint16   `yaml:"id"`
	Name     string   `yaml:"name"`
	Article  string   `yaml:"article"`
	Flags    []string `yaml:"flags"`
	Speed    uint16   `yaml:"speed"`
	Capacity int      `yaml:"capacity"`
	Weight   int      `yaml:"weight"`
}

// outfitDoc — внешний вид в YAML
type outfitDoc struct {
	LookType uint16 `yaml:"look_type"`
	Head     uint8  `yaml:"head"`
	Body     uint8  `yaml:"body"`
	Legs     uint8  `yaml:"legs"`
	Feet     uint8  `yaml:"feet"`
	LookItem uint16 `yaml:"look_item"`
}

// monsterDoc — запись расы монстров в YAML
type monsterDoc struct {
	Race        uint16         `yaml:"race"`
	Name        string         `yaml:"name"`
	Article     string         `yaml:"article"`
	Outfit      outfitDoc      `yaml:"outfit"`
	Health      int            `yaml:"health"`
	Speed       int            `yaml:"speed"`
	Experience  int64          `yaml:"experience"`
	Blood       string         `yaml:"blood"`
	Armor       int            `yaml:"armor"`
	Defense     int            `yaml:"defense"`
	Attack      int            `yaml:"attack"`
	AttackRange int            `yaml:"attack_range"`
	Corpse      uint16         `yaml:"corpse"`
	Skills      map[string]int `yaml:"skills"`
}

// SpawnDoc — точка появления монстров
type SpawnDoc struct {
	X      int    `yaml:"x"`
	Y      int    `yaml:"y"`
	Z      int8   `yaml:"z"`
	Race   uint16 `yaml:"race"`
	Count  int    `yaml:"count"`
	Radius int    `yaml:"radius"`
}

// Location — центр точки появления
func (s SpawnDoc) Location() vec.Location {
	return vec.Location{X: s.X, Y: s.Y, Z: s.Z}
}

type document struct {
	Items    []itemDoc    `yaml:"items"`
	Monsters []monsterDoc `yaml:"monsters"`
	Spawns   []SpawnDoc   `yaml:"spawns"`
}

// Catalog — статические данные мира, только для чтения после загрузки
type Catalog struct {
	items    map[items.TypeID]*items.ItemType
	monsters map[uint16]*creature.MonsterType
	spawns   []SpawnDoc
}

// Default возвращает встроенный каталог
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Load читает каталог из файла. Пустой путь — встроенный каталог.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("чтение каталога %s: %w", path, err)
	}
	return Parse(data)
}

// Parse разбирает YAML каталога
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("разбор каталога: %w", err)
	}

	c := &Catalog{
		items:    make(map[items.TypeID]*items.ItemType, len(doc.Items)),
		monsters: make(map[uint16]*creature.MonsterType, len(doc.Monsters)),
		spawns:   doc.Spawns,
	}

	for _, d := range doc.Items {
		flags, err := items.ParseFlags(d.Flags)
		if err != nil {
			return nil, fmt.Errorf("предмет %d: %w", d.ID, err)
		}
		id := items.TypeID(d.ID)
		if _, dup := c.items[id]; dup {
			return nil, fmt.Errorf("повторный тип предмета %d", d.ID)
		}
		c.items[id] = &items.ItemType{
			ID:       id,
			Name:     d.Name,
			Article:  d.Article,
			Flags:    flags,
			Speed:    d.Speed,
			Capacity: d.Capacity,
			Weight:   d.Weight,
		}
	}

	for _, d := range doc.Monsters {
		mt, err := d.toMonsterType()
		if err != nil {
			return nil, fmt.Errorf("монстр %q: %w", d.Name, err)
		}
		if _, dup := c.monsters[mt.Race]; dup {
			return nil, fmt.Errorf("повторная раса %d", mt.Race)
		}
		c.monsters[mt.Race] = mt
	}

	for _, s := range doc.Spawns {
		if _, ok := c.monsters[s.Race]; !ok {
			return nil, fmt.Errorf("точка появления %v ссылается на неизвестную расу %d", s.Location(), s.Race)
		}
	}
	return c, nil
}

func (d monsterDoc) toMonsterType() (*creature.MonsterType, error) {
	blood, err := parseBlood(d.Blood)
	if err != nil {
		return nil, err
	}
	skills := make(map[creature.SkillType]int, len(d.Skills))
	for name, level := range d.Skills {
		st, ok := skillNames[strings.ToLower(name)]
		if !ok {
			return nil, fmt.Errorf("неизвестный навык %q", name)
		}
		skills[st] = level
	}

	mt := &creature.MonsterType{
		Race:    d.Race,
		Name:    d.Name,
		Article: d.Article,
		Outfit: creature.Outfit{
			LookType: d.Outfit.LookType,
			Head:     d.Outfit.Head,
			Body:     d.Outfit.Body,
			Legs:     d.Outfit.Legs,
			Feet:     d.Outfit.Feet,
			LookItem: d.Outfit.LookItem,
		},
		MaxHealth:   d.Health,
		BaseSpeed:   d.Speed,
		Experience:  d.Experience,
		Blood:       blood,
		Armor:       d.Armor,
		Defense:     d.Defense,
		Attack:      d.Attack,
		AttackRange: max(d.AttackRange, 1),
		Corpse:      items.TypeID(d.Corpse),
		Skills:      skills,
	}
	return mt, mt.Validate()
}

var skillNames = map[string]creature.SkillType{
	"magic":    creature.SkillMagic,
	"fist":     creature.SkillFist,
	"club":     creature.SkillClub,
	"sword":    creature.SkillSword,
	"axe":      creature.SkillAxe,
	"distance": creature.SkillDistance,
	"shield":   creature.SkillShield,
}

func parseBlood(s string) (creature.BloodType, error) {
	switch strings.ToLower(s) {
	case "", "blood", "red":
		return creature.BloodRed, nil
	case "slime":
		return creature.BloodSlime, nil
	case "bones":
		return creature.BloodBones, nil
	case "fire":
		return creature.BloodFire, nil
	case "energy":
		return creature.BloodEnergy, nil
	default:
		return 0, fmt.Errorf("неизвестный тип крови %q", s)
	}
}

// ItemType возвращает тип предмета по идентификатору
func (c *Catalog) ItemType(id items.TypeID) (*items.ItemType, bool) {
	t, ok := c.items[id]
	return t, ok
}

// MonsterType возвращает расу монстров
func (c *Catalog) MonsterType(race uint16) (*creature.MonsterType, bool) {
	mt, ok := c.monsters[race]
	return mt, ok
}

// FirstWithFlag возвращает тип с наименьшим идентификатором, у которого есть флаг
func (c *Catalog) FirstWithFlag(f items.Flag) (*items.ItemType, bool) {
	for _, t := range c.ItemTypes() {
		if t.Has(f) {
			return t, true
		}
	}
	return nil, false
}

// ItemTypes возвращает все типы предметов по возрастанию идентификатора
func (c *Catalog) ItemTypes() []*items.ItemType {
	out := make([]*items.ItemType, 0, len(c.items))
	for _, t := range c.items {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// MonsterTypes возвращает все расы по возрастанию номера
func (c *Catalog) MonsterTypes() []*creature.MonsterType {
	out := make([]*creature.MonsterType, 0, len(c.monsters))
	for _, mt := range c.monsters {
		out = append(out, mt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Race < out[j].Race })
	return out
}

// Spawns возвращает точки появления монстров
func (c *Catalog) Spawns() []SpawnDoc { return c.spawns }

// SpawnsWithin возвращает точки появления внутри окна
func (c *Catalog) SpawnsWithin(b vec.Bounds) []SpawnDoc {
	var out []SpawnDoc
	for _, s := range c.spawns {
		if b.Contains(s.Location()) {
			out = append(out, s)
		}
	}
	return out
}
