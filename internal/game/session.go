package game

import (
	"sort"
	"time"

	"github.com/annel0/worldsim/internal/creature"
	"github.com/annel0/worldsim/internal/storage"
)

// Connection — клиентское соединение, как его видит игра. Транспорт живёт снаружи.
type Connection interface {
	ID() string
	Send(frame []byte) error
	LastActivity() time.Time
	Close() error
}

type session struct {
	conn   Connection
	player creature.ID
}

// Connect регистрирует соединение до входа игрока
func (g *Game) Connect(conn Connection) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, exists := g.connections[conn.ID()]; exists {
		return
	}
	g.connections[conn.ID()] = &session{conn: conn}
	g.logger.Debug("🔌 Соединение %s зарегистрировано", conn.ID())
}

// Disconnect закрывает соединение без игрока. Соединение с игроком
// закрывается через LogOutOperation.
func (g *Game) Disconnect(connID string) bool {
	g.mu.Lock()
	s, ok := g.connections[connID]
	if !ok || s.player != creature.NoID {
		g.mu.Unlock()
		return false
	}
	delete(g.connections, connID)
	g.mu.Unlock()

	if err := s.conn.Close(); err != nil {
		g.logger.Warn("⚠️ Ошибка закрытия соединения %s: %v", connID, err)
	}
	g.logger.Debug("🔌 Соединение %s закрыто", connID)
	return true
}

// bindPlayer привязывает игрока к соединению. false — соединение неизвестно или уже занято.
func (g *Game) bindPlayer(connID string, player creature.ID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, ok := g.connections[connID]
	if !ok || s.player != creature.NoID {
		return false
	}
	s.player = player
	g.players[player] = s
	return true
}

// unbindPlayer отвязывает игрока и забывает соединение
func (g *Game) unbindPlayer(player creature.ID) (Connection, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, ok := g.players[player]
	if !ok {
		return nil, false
	}
	delete(g.players, player)
	delete(g.connections, s.conn.ID())
	return s.conn, true
}

// connectionOf — соединение игрока
func (g *Game) connectionOf(player creature.ID) (Connection, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	s, ok := g.players[player]
	if !ok {
		return nil, false
	}
	return s.conn, true
}

// send отправляет кадр игроку. Ошибка отправки не прерывает игровую логику.
func (g *Game) send(player creature.ID, frame []byte) {
	conn, ok := g.connectionOf(player)
	if !ok || len(frame) == 0 {
		return
	}
	if err := conn.Send(frame); err != nil {
		g.logger.Warn("⚠️ Не удалось отправить кадр игроку %d (%s): %v", player, conn.ID(), err)
		return
	}
	g.metrics.frameSent(len(frame))
}

// onlinePlayers — игроки с соединением, по возрастанию идентификатора
func (g *Game) onlinePlayers() []*creature.Combatant {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*creature.Combatant, 0, len(g.players))
	for id := range g.players {
		if c, ok := g.creatures[id]; ok {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// isOnline — есть ли у игрока с таким именем активная сессия
func (g *Game) isOnline(name string) bool {
	key := storage.NormalizeName(name)
	g.mu.RLock()
	defer g.mu.RUnlock()
	for id := range g.players {
		if c, ok := g.creatures[id]; ok && storage.NormalizeName(c.Name()) == key {
			return true
		}
	}
	return false
}

// idleConnections — соединения, молчавшие дольше timeout
func (g *Game) idleConnections(now time.Time, timeout time.Duration) []*session {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var idle []*session
	for _, s := range g.connections {
		if now.Sub(s.conn.LastActivity()) > timeout {
			cp := *s
			idle = append(idle, &cp)
		}
	}
	sort.Slice(idle, func(i, j int) bool { return idle[i].conn.ID() < idle[j].conn.ID() })
	return idle
}

// OnlineCount — число игроков онлайн
func (g *Game) OnlineCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.players)
}

// ConnectionCount — число зарегистрированных соединений
func (g *Game) ConnectionCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.connections)
}
