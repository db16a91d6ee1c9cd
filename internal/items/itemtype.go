package items

import (
	"fmt"
	"strings"
)

// TypeID — идентификатор типа предмета в каталоге
type TypeID uint16

// Flag — битовые свойства типа предмета
type Flag uint32

const (
	FlagGround Flag = 1 << iota
	FlagGroundBorder
	FlagLiquidPool
	FlagStayOnTop
	FlagStayOnBottom
	FlagStackable
	FlagBlocksWalk
	FlagBlocksSight
	FlagBlocksPath
	FlagContainer
	FlagCorpse
	FlagMovable
)

var flagNames = map[string]Flag{
	"ground":         FlagGround,
	"ground_border":  FlagGroundBorder,
	"liquid_pool":    FlagLiquidPool,
	"stay_on_top":    FlagStayOnTop,
	"stay_on_bottom": FlagStayOnBottom,
	"stackable":      FlagStackable,
	"blocks_walk":    FlagBlocksWalk,
	"blocks_sight":   FlagBlocksSight,
	"blocks_path":    FlagBlocksPath,
	"container":      FlagContainer,
	"corpse":         FlagCorpse,
	"movable":        FlagMovable,
}

// ParseFlags собирает битовую маску из списка имён
func ParseFlags(names []string) (Flag, error) {
	var f Flag
	for _, n := range names {
		bit, ok := flagNames[strings.ToLower(strings.TrimSpace(n))]
		if !ok {
			return 0, fmt.Errorf("неизвестный флаг предмета %q", n)
		}
		f |= bit
	}
	return f, nil
}

// ItemType — статическое описание типа предмета (только чтение)
type ItemType struct {
	ID       TypeID
	Name     string
	Article  string
	Flags    Flag
	Speed    uint16 // скорость земли (только для FlagGround)
	Capacity int    // вместимость контейнера
	Weight   int    // вес в унциях * 100
}

// Has проверяет наличие флага
func (t *ItemType) Has(f Flag) bool {
	return t != nil && t.Flags&f != 0
}

func (t *ItemType) IsGround() bool       { return t.Has(FlagGround) }
func (t *ItemType) IsGroundBorder() bool { return t.Has(FlagGroundBorder) }
func (t *ItemType) IsLiquidPool() bool   { return t.Has(FlagLiquidPool) }
func (t *ItemType) StaysOnTop() bool     { return t.Has(FlagStayOnTop) }
func (t *ItemType) StaysOnBottom() bool  { return t.Has(FlagStayOnBottom) }
func (t *ItemType) IsStackable() bool    { return t.Has(FlagStackable) }
func (t *ItemType) IsContainer() bool    { return t.Has(FlagContainer) }

// TypeReader — каталог типов предметов
type TypeReader interface {
	ItemType(id TypeID) (*ItemType, bool)
}
