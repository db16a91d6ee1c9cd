package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/dgraph-io/badger/v3"
	"github.com/klauspost/compress/zstd"

	"github.com/annel0/worldsim/internal/items"
	"github.com/annel0/worldsim/internal/logging"
	"github.com/annel0/worldsim/internal/vec"
	"github.com/annel0/worldsim/internal/world"
)

// ErrStoreClosed — хранилище карты уже закрыто
var ErrStoreClosed = errors.New("map store closed")

// windowDoc — сохранённое окно карты. Сериализуется в JSON и сжимается zstd.
type windowDoc struct {
	Bounds vec.Bounds `json:"bounds"`
	Tiles  []tileDoc  `json:"tiles"`
}

// tileDoc — тайл без существ. Предметы перечислены в порядке добавления.
type tileDoc struct {
	X     int       `json:"x"`
	Y     int       `json:"y"`
	Z     int8      `json:"z"`
	Items []itemDoc `json:"items"`
}

type itemDoc struct {
	Type   items.TypeID `json:"type"`
	Amount int          `json:"amount,omitempty"`
}

// MapStore хранит окна карты в BadgerDB и реализует world.Loader.
// Окна, которых нет на диске, берутся у fallback-загрузчика и сразу сохраняются.
type MapStore struct {
	db       *badger.DB
	types    items.TypeReader
	fallback world.Loader
	encoder  *zstd.Encoder
	decoder  *zstd.Decoder
	mutex    sync.RWMutex
	isReady  bool
	logger   *logging.Logger
}

// NewMapStore открывает хранилище в dataPath/map. Пустой dataPath — хранилище в памяти.
func NewMapStore(dataPath string, types items.TypeReader, fallback world.Loader) (*MapStore, error) {
	var opts badger.Options
	if dataPath == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(filepath.Join(dataPath, "map"))
	}
	opts.Logger = nil // Отключаем логирование BadgerDB

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть BadgerDB: %w", err)
	}

	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("не удалось создать zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		encoder.Close()
		db.Close()
		return nil, fmt.Errorf("не удалось создать zstd decoder: %w", err)
	}

	return &MapStore{
		db:       db,
		types:    types,
		fallback: fallback,
		encoder:  encoder,
		decoder:  decoder,
		isReady:  true,
		logger:   logging.GetStorageLogger(),
	}, nil
}

// Close закрывает хранилище
func (s *MapStore) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.isReady {
		return nil
	}
	s.isReady = false
	s.decoder.Close()
	_ = s.encoder.Close()
	return s.db.Close()
}

func windowKey(b vec.Bounds) []byte {
	return []byte(fmt.Sprintf("window:%016x", world.WindowHash(b)))
}

// LoadWindow читает окно с диска или генерирует его через fallback
func (s *MapStore) LoadWindow(requested vec.Bounds) (world.LoadResult, error) {
	res, found, err := s.readWindow(requested)
	if err != nil || found {
		return res, err
	}
	if s.fallback == nil {
		return world.LoadResult{Loaded: requested}, nil
	}

	res, err = s.fallback.LoadWindow(requested)
	if err != nil {
		return world.LoadResult{}, err
	}
	if err := s.SaveWindow(requested, res.Tiles); err != nil {
		s.logger.Warn("⚠️ Окно %v не сохранено: %v", requested, err)
	}
	return res, nil
}

// SaveWindow сохраняет тайлы окна (без существ)
func (s *MapStore) SaveWindow(requested vec.Bounds, tiles []*world.Tile) error {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if !s.isReady {
		return ErrStoreClosed
	}

	doc := windowDoc{Bounds: requested, Tiles: make([]tileDoc, 0, len(tiles))}
	for _, t := range tiles {
		doc.Tiles = append(doc.Tiles, encodeTile(t))
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("ошибка сериализации окна: %w", err)
	}
	compressed := s.encoder.EncodeAll(data, nil)

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(windowKey(requested), compressed)
	})
	if err != nil {
		return fmt.Errorf("ошибка сохранения в BadgerDB: %w", err)
	}

	s.logger.Debug("💾 Окно %v сохранено: %d тайлов, %d → %d байт", requested, len(tiles), len(data), len(compressed))
	return nil
}

func (s *MapStore) readWindow(requested vec.Bounds) (world.LoadResult, bool, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if !s.isReady {
		return world.LoadResult{}, false, ErrStoreClosed
	}

	var compressed []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(windowKey(requested))
		if err != nil {
			return err
		}
		compressed, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return world.LoadResult{}, false, nil
	}
	if err != nil {
		return world.LoadResult{}, false, fmt.Errorf("ошибка чтения из BadgerDB: %w", err)
	}

	data, err := s.decoder.DecodeAll(compressed, nil)
	if err != nil {
		return world.LoadResult{}, false, fmt.Errorf("повреждено окно %v: %w", requested, err)
	}
	var doc windowDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return world.LoadResult{}, false, fmt.Errorf("ошибка десериализации окна: %w", err)
	}

	res := world.LoadResult{Loaded: doc.Bounds, Tiles: make([]*world.Tile, 0, len(doc.Tiles))}
	for _, td := range doc.Tiles {
		t, err := s.decodeTile(td)
		if err != nil {
			return world.LoadResult{}, false, err
		}
		res.Tiles = append(res.Tiles, t)
	}
	return res, true, nil
}

// encodeTile записывает предметы так, чтобы повторное AddItem дало тот же порядок:
// Things перечисляет слои сверху вниз, поэтому список разворачивается.
func encodeTile(t *world.Tile) tileDoc {
	loc := t.Location()
	doc := tileDoc{X: loc.X, Y: loc.Y, Z: loc.Z}
	things := t.Things()
	for i := len(things) - 1; i >= 0; i-- {
		item := things[i].Item
		if item == nil {
			continue
		}
		d := itemDoc{Type: item.Type.ID}
		if item.Type.IsStackable() {
			d.Amount = item.Amount
		}
		doc.Items = append(doc.Items, d)
	}
	return doc
}

func (s *MapStore) decodeTile(doc tileDoc) (*world.Tile, error) {
	t := world.NewTile(vec.Location{X: doc.X, Y: doc.Y, Z: doc.Z})
	for _, d := range doc.Items {
		it, ok := s.types.ItemType(d.Type)
		if !ok {
			return nil, fmt.Errorf("неизвестный тип предмета %d на %d,%d,%d", d.Type, doc.X, doc.Y, doc.Z)
		}
		item, err := items.New(it, max(d.Amount, 1))
		if err != nil {
			return nil, err
		}
		t.AddItem(item)
	}
	return t, nil
}
