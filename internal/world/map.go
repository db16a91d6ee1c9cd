package world

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/annel0/worldsim/internal/creature"
	"github.com/annel0/worldsim/internal/logging"
	"github.com/annel0/worldsim/internal/vec"
)

// DefaultWindowSize — сторона окна загрузки в тайлах
const DefaultWindowSize = 32

// ErrTileNotLoaded — тайла нет ни в памяти, ни у загрузчика
var ErrTileNotLoaded = errors.New("tile not loaded")

// LoadResult — то, что загрузчик реально поднял. Loaded может быть шире запроса.
type LoadResult struct {
	Loaded vec.Bounds
	Tiles  []*Tile
}

// Loader поставляет тайлы окна карты
type Loader interface {
	LoadWindow(requested vec.Bounds) (LoadResult, error)
}

// WindowLoadedEvent — окно загружено впервые
type WindowLoadedEvent struct {
	Requested vec.Bounds
	Loaded    vec.Bounds
	Hash      uint64
}

// Map — разреженная карта тайлов с ленивой загрузкой окнами и индексом существ.
// Изменяется только из игрового цикла; мьютекс нужен для чтения из фоновых задач.
type Map struct {
	mu         sync.RWMutex
	tiles      map[vec.Location]*Tile
	creatures  map[creature.ID]vec.Location
	loaded     map[uint64]struct{}
	loader     Loader
	windowSize int
	listeners  []func(WindowLoadedEvent)
	logger     *logging.Logger
}

// MapOption настраивает карту
type MapOption func(*Map)

// WithWindowSize задаёт сторону окна загрузки
func WithWindowSize(size int) MapOption {
	return func(m *Map) {
		if size > 0 {
			m.windowSize = size
		}
	}
}

// WithMapLogger задаёт логгер карты
func WithMapLogger(l *logging.Logger) MapOption {
	return func(m *Map) { m.logger = l }
}

// NewMap создаёт карту. loader может быть nil: тогда доступны только тайлы из SetTile.
func NewMap(loader Loader, opts ...MapOption) *Map {
	m := &Map{
		tiles:      make(map[vec.Location]*Tile),
		creatures:  make(map[creature.ID]vec.Location),
		loaded:     make(map[uint64]struct{}),
		loader:     loader,
		windowSize: DefaultWindowSize,
		logger:     logging.GetMapLogger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// OnWindowLoaded подписывает fn на загрузку новых окон
func (m *Map) OnWindowLoaded(fn func(WindowLoadedEvent)) {
	m.mu.Lock()
	m.listeners = append(m.listeners, fn)
	m.mu.Unlock()
}

// SetTile кладёт тайл в карту напрямую
func (m *Map) SetTile(t *Tile) {
	m.mu.Lock()
	m.tiles[t.Location()] = t
	m.mu.Unlock()
}

// GetTile возвращает тайл, при необходимости загружая покрывающее окно
func (m *Map) GetTile(loc vec.Location) (*Tile, bool) {
	m.mu.RLock()
	t, ok := m.tiles[loc]
	m.mu.RUnlock()
	if ok {
		return t, true
	}
	if !loc.IsWireSafe() {
		return nil, false
	}

	m.ensureWindow(m.windowFor(loc))

	m.mu.RLock()
	t, ok = m.tiles[loc]
	m.mu.RUnlock()
	return t, ok
}

// PeekTile возвращает тайл без загрузки
func (m *Map) PeekTile(loc vec.Location) (*Tile, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tiles[loc]
	return t, ok
}

// LoadBounds загружает все окна, пересекающие b
func (m *Map) LoadBounds(b vec.Bounds) {
	ws := m.windowSize
	for z := b.FromZ; z <= b.ToZ; z++ {
		for y := floorDiv(b.FromY, ws) * ws; y <= b.ToY; y += ws {
			for x := floorDiv(b.FromX, ws) * ws; x <= b.ToX; x += ws {
				m.ensureWindow(m.windowFor(vec.Location{X: x, Y: y, Z: z}))
			}
		}
	}
}

// windowFor — выровненное окно, содержащее loc, на его этаже
func (m *Map) windowFor(loc vec.Location) vec.Bounds {
	ws := m.windowSize
	fx := floorDiv(loc.X, ws) * ws
	fy := floorDiv(loc.Y, ws) * ws
	return vec.Bounds{FromX: fx, ToX: fx + ws - 1, FromY: fy, ToY: fy + ws - 1, FromZ: loc.Z, ToZ: loc.Z}
}

// WindowHash — устойчивый хеш окна для дедупликации загрузок
func WindowHash(b vec.Bounds) uint64 {
	var buf [26]byte
	binary.LittleEndian.PutUint64(buf[0:], uint64(int64(b.FromX)))
	binary.LittleEndian.PutUint64(buf[8:], uint64(int64(b.FromY)))
	binary.LittleEndian.PutUint32(buf[16:], uint32(b.Width()))
	binary.LittleEndian.PutUint32(buf[20:], uint32(b.Height()))
	buf[24] = byte(b.FromZ)
	buf[25] = byte(b.ToZ)
	return xxhash.Sum64(buf[:])
}

func (m *Map) ensureWindow(requested vec.Bounds) {
	hash := WindowHash(requested)

	m.mu.RLock()
	_, done := m.loaded[hash]
	loader := m.loader
	m.mu.RUnlock()
	if done || loader == nil {
		return
	}

	res, err := loader.LoadWindow(requested)
	if err != nil {
		m.logger.Error("❌ Ошибка загрузки окна %v: %v", requested, err)
		return
	}

	m.mu.Lock()
	if _, done := m.loaded[hash]; done {
		m.mu.Unlock()
		return
	}
	m.loaded[hash] = struct{}{}
	for _, t := range res.Tiles {
		if _, exists := m.tiles[t.Location()]; !exists {
			m.tiles[t.Location()] = t
		}
	}
	listeners := append([]func(WindowLoadedEvent){}, m.listeners...)
	m.mu.Unlock()

	m.logger.Debug("🗺️ Окно %v загружено (%d тайлов, фактически %v)", requested, len(res.Tiles), res.Loaded)

	ev := WindowLoadedEvent{Requested: requested, Loaded: res.Loaded, Hash: hash}
	for _, fn := range listeners {
		fn(ev)
	}
}

// LoadedWindows — число загруженных окон
func (m *Map) LoadedWindows() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.loaded)
}

// TileCount — число тайлов в памяти
func (m *Map) TileCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.tiles)
}

// LocationOf возвращает местоположение существа
func (m *Map) LocationOf(id creature.ID) (vec.Location, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	loc, ok := m.creatures[id]
	return loc, ok
}

// AddCreature ставит существо на тайл и индексирует его
func (m *Map) AddCreature(id creature.ID, loc vec.Location) error {
	t, ok := m.GetTile(loc)
	if !ok {
		return fmt.Errorf("%w: %v", ErrTileNotLoaded, loc)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.creatures[id]; exists {
		return fmt.Errorf("существо %d уже на карте", id)
	}
	if !t.AddCreature(id) {
		return fmt.Errorf("существо %d не помещается на %v", id, loc)
	}
	m.creatures[id] = loc
	return nil
}

// RemoveCreature убирает существо с карты и возвращает его последнее местоположение
func (m *Map) RemoveCreature(id creature.ID) (vec.Location, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	loc, ok := m.creatures[id]
	if !ok {
		return vec.Location{}, false
	}
	if t, exists := m.tiles[loc]; exists {
		t.RemoveCreature(id)
	}
	delete(m.creatures, id)
	return loc, true
}

// MoveCreature переносит существо на другой тайл
func (m *Map) MoveCreature(id creature.ID, to vec.Location) (vec.Location, error) {
	dst, ok := m.GetTile(to)
	if !ok {
		return vec.Location{}, fmt.Errorf("%w: %v", ErrTileNotLoaded, to)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	from, ok := m.creatures[id]
	if !ok {
		return vec.Location{}, fmt.Errorf("существо %d не на карте", id)
	}
	if from == to {
		return from, nil
	}
	if !dst.AddCreature(id) {
		return from, fmt.Errorf("существо %d не помещается на %v", id, to)
	}
	if src, exists := m.tiles[from]; exists {
		src.RemoveCreature(id)
	}
	m.creatures[id] = to
	return from, nil
}

// CreaturesWithin возвращает существ внутри окна по возрастанию идентификатора
func (m *Map) CreaturesWithin(b vec.Bounds) []creature.ID {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []creature.ID
	for id, loc := range m.creatures {
		if b.Contains(loc) {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// CreatureCount — число существ на карте
func (m *Map) CreatureCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.creatures)
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
