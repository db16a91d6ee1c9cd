package eventbus

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBus_FilteredDelivery(t *testing.T) {
	bus := NewMemoryBus(16)
	defer bus.Close()

	got := make(chan *Envelope, 4)
	_, err := bus.Subscribe(context.Background(), Filter{Types: []string{TypeCreatureDeath}}, func(_ context.Context, ev *Envelope) {
		got <- ev
	})
	require.NoError(t, err)

	login, err := NewEnvelope("test", TypePlayerLogin, PriorityNormal, PlayerSession{Name: "Eldrin"})
	require.NoError(t, err)
	death, err := NewEnvelope("test", TypeCreatureDeath, PriorityNormal, CreatureDeath{CreatureID: 7, Name: "rat"})
	require.NoError(t, err)

	require.NoError(t, bus.Publish(context.Background(), login))
	require.NoError(t, bus.Publish(context.Background(), death))

	select {
	case ev := <-got:
		assert.Equal(t, TypeCreatureDeath, ev.EventType)
		var payload CreatureDeath
		require.NoError(t, ev.Decode(&payload))
		assert.Equal(t, uint32(7), payload.CreatureID)
	case <-time.After(2 * time.Second):
		t.Fatal("Событие не доставлено")
	}

	select {
	case ev := <-got:
		t.Fatalf("Фильтр пропустил лишнее событие %s", ev.EventType)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMemoryBus_CloseRejectsPublish(t *testing.T) {
	bus := NewMemoryBus(1)
	require.NoError(t, bus.Close())
	require.NoError(t, bus.Close())

	ev, err := NewEnvelope("test", TypeBroadcast, PriorityHigh, Broadcast{Text: "hi"})
	require.NoError(t, err)
	assert.ErrorIs(t, bus.Publish(context.Background(), ev), ErrBusClosed)
}

func TestNewEnvelope_UniqueIDs(t *testing.T) {
	a, err := NewEnvelope("test", TypeBroadcast, PriorityLow, Broadcast{Text: "a"})
	require.NoError(t, err)
	b, err := NewEnvelope("test", TypeBroadcast, PriorityLow, Broadcast{Text: "b"})
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
	assert.Len(t, a.ID, 36)
	assert.Equal(t, 1, a.Version)
}

func TestMetricsExporter_CollectsDeltas(t *testing.T) {
	bus := NewMemoryBus(4)
	defer bus.Close()
	m := NewMetricsExporter(bus, prometheus.NewRegistry())

	ev, err := NewEnvelope("test", TypeBroadcast, PriorityNormal, Broadcast{Text: "x"})
	require.NoError(t, err)
	require.NoError(t, bus.Publish(context.Background(), ev))
	require.NoError(t, bus.Publish(context.Background(), ev))

	prev := m.collect(Stats{})
	assert.Equal(t, 2.0, testutil.ToFloat64(m.published))

	m.collect(prev)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.published), "Повторный сбор без публикаций не меняет счётчик")
}

func TestJetStreamSubjects(t *testing.T) {
	assert.Equal(t, "worldsim.events.player.login", SubjectFor(TypePlayerLogin))

	assert.Equal(t, []string{"worldsim.events.>"}, subjectsFor(Filter{}))
	assert.Equal(t, []string{"worldsim.events.>"}, subjectsFor(Filter{Types: []string{" "}}))
	assert.Equal(t,
		[]string{"worldsim.events.creature.death", "worldsim.events.world.broadcast"},
		subjectsFor(Filter{Types: []string{TypeCreatureDeath, TypeBroadcast, TypeCreatureDeath}}),
		"Повторы схлопываются",
	)
}

func TestDurableName_NoDotsOrWildcards(t *testing.T) {
	assert.Equal(t, "cli_player_login", durableName("cli", SubjectFor(TypePlayerLogin)))
	assert.Equal(t, "cli_all", durableName("cli", SubjectRoot+".>"))
}
