package protocol

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/worldsim/internal/creature"
	"github.com/annel0/worldsim/internal/items"
	"github.com/annel0/worldsim/internal/vec"
	"github.com/annel0/worldsim/internal/world"
)

func TestTileUpdated_EmptyAndFilled(t *testing.T) {
	loc := vec.Location{X: 100, Y: 200, Z: 7}

	empty := TileUpdated(loc, world.NewTile(loc), nil, nil)
	assert.Equal(t, []byte{byte(OpTileUpdated), 100, 0, 200, 0, 7, 0x01, 0xFF}, empty)

	tile := world.NewTile(loc)
	grass, _ := items.New(&items.ItemType{ID: 102, Flags: items.FlagGround}, 1)
	tile.AddItem(grass)
	filled := TileUpdated(loc, tile, nil, nil)
	assert.Equal(t, []byte{byte(OpTileUpdated), 100, 0, 200, 0, 7, 102, 0, 0x00, 0xFF}, filled)
}

func TestCreatureMoved_Layout(t *testing.T) {
	frame := CreatureMoved(vec.Location{X: 1, Y: 2, Z: 7}, 1, vec.Location{X: 1, Y: 3, Z: 7})
	assert.Equal(t, []byte{byte(OpCreatureMoved), 1, 0, 2, 0, 7, 1, 1, 0, 3, 0, 7}, frame)
}

func TestCreatureSpeech_LocationOnlyForMapSpeech(t *testing.T) {
	loc := vec.Location{X: 10, Y: 20, Z: 7}

	say := CreatureSpeech("Eldrin", SpeechSay, loc, ChannelGameChat, "hi")
	r := NewReader(say[1:])
	name, err := r.GetString()
	require.NoError(t, err)
	assert.Equal(t, "Eldrin", name)
	kind, _ := r.GetByte()
	assert.Equal(t, byte(0x01), kind)
	got, err := r.GetLocation()
	require.NoError(t, err)
	assert.Equal(t, loc, got)

	channel := CreatureSpeech("Eldrin", SpeechChannel, loc, ChannelTrade, "wts")
	r = NewReader(channel[1:])
	r.GetString()
	r.GetByte()
	id, _ := r.GetUint16()
	assert.Equal(t, uint16(0x0005), id)
	text, _ := r.GetString()
	assert.Equal(t, "wts", text)
}

func TestPlayerStats_Saturates(t *testing.T) {
	f := creature.NewFactory(nil, rand.New(rand.NewSource(1)))
	p, err := f.NewPlayer(creature.PlayerRecord{
		Name:   "Eldrin",
		Skills: map[creature.SkillType]int64{},
	})
	require.NoError(t, err)
	p.Stat(creature.StatHealth).SetMaximum(100000)
	p.Stat(creature.StatHealth).Set(90000)

	r := NewReader(PlayerStats(p)[1:])
	health, _ := r.GetUint16()
	maxHealth, _ := r.GetUint16()
	assert.Equal(t, uint16(0xFFFF), health)
	assert.Equal(t, uint16(0xFFFF), maxHealth)
}

func TestPlayerSkills_Order(t *testing.T) {
	f := creature.NewFactory(nil, rand.New(rand.NewSource(1)))
	p, err := f.NewPlayer(creature.PlayerRecord{Name: "Eldrin"})
	require.NoError(t, err)

	frame := PlayerSkills(p)
	require.Len(t, frame, 1+2*len(PlayerSkillOrder))
	assert.Equal(t, byte(10), frame[1], "Кулачный бой начинается с 10")
}

func TestSmallFrames(t *testing.T) {
	assert.Equal(t, []byte{byte(OpWorldLight), 250, 0xD7}, WorldLight(250, 0xD7))
	assert.Equal(t, []byte{byte(OpCancelAttack)}, CancelAttack())
	assert.Equal(t, []byte{byte(OpCancelWalk), 1}, CancelWalk(vec.East))
	assert.Equal(t, []byte{byte(OpContainerClosed), 3}, ContainerClosed(3))
	assert.Equal(t, []byte{byte(OpPlayerConditions), byte(IconInFight | IconHaste)}, PlayerConditions(IconInFight|IconHaste))
	assert.Equal(t, []byte{byte(OpMagicEffect), 1, 0, 1, 0, 7, 0x03}, MagicEffectAt(vec.Location{X: 1, Y: 1, Z: 7}, EffectNone))
}
