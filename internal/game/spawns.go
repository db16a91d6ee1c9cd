package game

import (
	"context"
	"time"

	"github.com/annel0/worldsim/internal/catalog"
	"github.com/annel0/worldsim/internal/creature"
	"github.com/annel0/worldsim/internal/vec"
	"github.com/annel0/worldsim/internal/world"
)

// spawnLookupTimeout ограничивает поиск расы в хранилище
const spawnLookupTimeout = 2 * time.Second

// spawnKey — точка появления; активируется один раз за жизнь процесса
type spawnKey struct {
	loc  vec.Location
	race uint16
}

// onWindowLoaded активирует точки появления внутри только что загруженного окна.
// Монстры ставятся в мир операциями, чтобы допуск шёл по линии времени.
func (g *Game) onWindowLoaded(ev world.WindowLoadedEvent) {
	for _, sp := range g.catalog.SpawnsWithin(ev.Loaded) {
		key := spawnKey{loc: sp.Location(), race: sp.Race}
		g.mu.Lock()
		_, done := g.spawns[key]
		if !done {
			g.spawns[key] = struct{}{}
		}
		g.mu.Unlock()
		if done {
			continue
		}
		g.activateSpawn(sp)
	}
}

func (g *Game) activateSpawn(sp catalog.SpawnDoc) {
	mt, err := g.monsterType(sp.Race)
	if err != nil {
		g.logger.Warn("⚠️ Точка появления %v: раса %d недоступна: %v", sp.Location(), sp.Race, err)
		return
	}

	placed := 0
	for i := 0; i < sp.Count; i++ {
		m, err := g.factory.NewMonster(mt)
		if err != nil {
			g.logger.Warn("⚠️ Не удалось создать %s: %v", mt.Name, err)
			return
		}
		g.Dispatch(NewPlaceCreatureOperation(m, sp.Location(), sp.Radius), 0)
		placed++
	}
	g.logger.Debug("🐾 Точка появления %v: %d × %s", sp.Location(), placed, mt.Name)
}

// monsterType читает расу через единицу работы хранилища
func (g *Game) monsterType(race uint16) (*creature.MonsterType, error) {
	ctx, cancel := context.WithTimeout(context.Background(), spawnLookupTimeout)
	defer cancel()

	uow, err := g.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = uow.Rollback() }()
	return uow.MonsterTypes().GetMonsterTypeByRace(ctx, race)
}
