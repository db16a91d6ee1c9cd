package world

import (
	"fmt"
	"math/rand"

	"github.com/aquilax/go-perlin"

	"github.com/annel0/worldsim/internal/items"
	"github.com/annel0/worldsim/internal/vec"
)

// BiomeType — тип местности процедурной карты
type BiomeType int

const (
	BiomePlains BiomeType = iota
	BiomeDesert
	BiomeForest
	BiomeMountains
	BiomeWater
)

// Пороги высоты для генерации
const (
	WaterMax      = 0.30 // ниже — вода
	BeachMax      = 0.34 // ниже — песчаный берег
	MountainStart = 0.80 // выше — камни
)

// Palette — типы предметов, которыми рисуется процедурная местность
type Palette struct {
	Grass  items.TypeID
	Sand   items.TypeID
	Water  items.TypeID
	Border items.TypeID
	Tree   items.TypeID
	Stone  items.TypeID
}

// DefaultPalette соответствует встроенному каталогу
var DefaultPalette = Palette{Grass: 102, Sand: 231, Water: 490, Border: 4526, Tree: 2700, Stone: 1285}

// ProceduralLoader генерирует поверхность по шуму Перлина для окон без сохранённых данных.
// Тайлы появляются только на этаже земли, остальные этажи пусты.
type ProceduralLoader struct {
	Seed          int64
	NoiseScale    float64
	BiomeScale    float64
	ForestDensity float64
	// Clearing — круг без препятствий вокруг точки входа
	ClearingCenter vec.Location
	ClearingRadius int

	types   items.TypeReader
	palette Palette
	height  *perlin.Perlin
	biome   *perlin.Perlin
}

// NewProceduralLoader создаёт генератор. Все типы палитры должны быть в каталоге.
func NewProceduralLoader(seed int64, types items.TypeReader, palette Palette) (*ProceduralLoader, error) {
	for _, id := range []items.TypeID{palette.Grass, palette.Sand, palette.Water, palette.Border, palette.Tree, palette.Stone} {
		if _, ok := types.ItemType(id); !ok {
			return nil, fmt.Errorf("тип %d из палитры отсутствует в каталоге", id)
		}
	}
	return &ProceduralLoader{
		Seed:          seed,
		NoiseScale:    0.05,
		BiomeScale:    0.02,
		ForestDensity: 0.05,
		types:         types,
		palette:       palette,
		height:        perlin.NewPerlin(2, 2, 3, seed),
		biome:         perlin.NewPerlin(2, 2, 3, seed+42),
	}, nil
}

// LoadWindow строит тайлы окна. Возвращённое окно совпадает с запрошенным.
func (g *ProceduralLoader) LoadWindow(requested vec.Bounds) (LoadResult, error) {
	res := LoadResult{Loaded: requested}
	if requested.FromZ > vec.GroundFloor || requested.ToZ < vec.GroundFloor {
		return res, nil
	}

	rng := rand.New(rand.NewSource(g.Seed + int64(requested.FromX)*31 + int64(requested.FromY)*17))
	res.Tiles = make([]*Tile, 0, requested.Width()*requested.Height())

	for y := requested.FromY; y <= requested.ToY; y++ {
		for x := requested.FromX; x <= requested.ToX; x++ {
			loc := vec.Location{X: x, Y: y, Z: vec.GroundFloor}
			t, err := g.generateTile(loc, rng)
			if err != nil {
				return LoadResult{}, err
			}
			res.Tiles = append(res.Tiles, t)
		}
	}
	return res, nil
}

func (g *ProceduralLoader) generateTile(loc vec.Location, rng *rand.Rand) (*Tile, error) {
	t := NewTile(loc)
	roll := rng.Float64()

	if g.inClearing(loc) {
		return t, g.put(t, g.palette.Grass)
	}

	h := g.heightAt(loc.X, loc.Y)
	biome := g.biomeAt(loc.X, loc.Y, h)

	switch {
	case h < WaterMax:
		return t, g.put(t, g.palette.Water)
	case h < BeachMax || biome == BiomeDesert:
		return t, g.put(t, g.palette.Sand)
	}

	if err := g.put(t, g.palette.Grass); err != nil {
		return nil, err
	}
	if g.bordersSand(loc.X, loc.Y) {
		if err := g.put(t, g.palette.Border); err != nil {
			return nil, err
		}
	}

	switch {
	case biome == BiomeMountains && roll < 0.3:
		return t, g.put(t, g.palette.Stone)
	case biome == BiomeForest && roll < 0.15:
		return t, g.put(t, g.palette.Tree)
	case biome == BiomePlains && roll < g.ForestDensity:
		return t, g.put(t, g.palette.Tree)
	}
	return t, nil
}

func (g *ProceduralLoader) put(t *Tile, id items.TypeID) error {
	it, ok := g.types.ItemType(id)
	if !ok {
		return fmt.Errorf("тип %d отсутствует в каталоге", id)
	}
	item, err := items.New(it, 1)
	if err != nil {
		return err
	}
	t.AddItem(item)
	return nil
}

func (g *ProceduralLoader) inClearing(loc vec.Location) bool {
	return g.ClearingRadius > 0 && g.ClearingCenter.IsWithinRange(loc, g.ClearingRadius)
}

// heightAt — высота в [0, 1]
func (g *ProceduralLoader) heightAt(x, y int) float64 {
	n := g.height.Noise2D(float64(x)*g.NoiseScale, float64(y)*g.NoiseScale)
	return (n + 1) / 2
}

func (g *ProceduralLoader) biomeAt(x, y int, height float64) BiomeType {
	if height < WaterMax {
		return BiomeWater
	}
	if height > MountainStart {
		return BiomeMountains
	}
	v := g.biome.Noise2D(float64(x)*g.BiomeScale, float64(y)*g.BiomeScale)
	switch {
	case v < -0.3:
		return BiomeDesert
	case v > 0.3:
		return BiomeForest
	}
	return BiomePlains
}

// bordersSand — есть ли песок среди соседей
func (g *ProceduralLoader) bordersSand(x, y int) bool {
	for _, d := range []vec.Direction{vec.North, vec.East, vec.South, vec.West} {
		dx, dy := d.Offset()
		nx, ny := x+dx, y+dy
		if g.inClearing(vec.Location{X: nx, Y: ny, Z: vec.GroundFloor}) {
			continue
		}
		h := g.heightAt(nx, ny)
		if h >= WaterMax && (h < BeachMax || g.biomeAt(nx, ny, h) == BiomeDesert) {
			return true
		}
	}
	return false
}
