package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/worldsim/internal/creature"
	"github.com/annel0/worldsim/internal/vec"
)

func TestWriter_LittleEndianAndLocation(t *testing.T) {
	w := NewFrame(OpCreatureMoved)
	w.AddUint16(0x1234)
	w.AddUint32(0xAABBCCDD)
	w.AddLocation(vec.Location{X: 0x0102, Y: 0x0304, Z: 7})

	assert.Equal(t, []byte{
		0x6D,
		0x34, 0x12,
		0xDD, 0xCC, 0xBB, 0xAA,
		0x02, 0x01, 0x04, 0x03, 0x07,
	}, w.Bytes())
}

func TestWriter_SaturatesInsteadOfWrapping(t *testing.T) {
	w := NewWriter()
	w.AddPercent(150)
	w.AddPercent(-3)
	w.AddSaturatedByte(300)
	w.AddSaturatedUint16(70000)
	w.AddSaturatedUint16(-1)

	assert.Equal(t, []byte{100, 0, 0xFF, 0xFF, 0xFF, 0x00, 0x00}, w.Bytes())
}

func TestReader_RoundTrip(t *testing.T) {
	w := NewWriter()
	w.AddString("Hello")
	w.AddLocation(vec.Location{X: 1000, Y: 2000, Z: 7})

	r := NewReader(w.Bytes())
	s, err := r.GetString()
	require.NoError(t, err)
	assert.Equal(t, "Hello", s)

	loc, err := r.GetLocation()
	require.NoError(t, err)
	assert.Equal(t, vec.Location{X: 1000, Y: 2000, Z: 7}, loc)

	_, err = r.GetByte()
	assert.ErrorIs(t, err, ErrShortFrame)
}

func TestLookupTables_Defaults(t *testing.T) {
	assert.Equal(t, byte(0x03), SpeechTypeByte(SpeechYell))
	assert.Equal(t, DefaultSpeechWire, SpeechTypeByte(SpeechType(200)))
	assert.Equal(t, DefaultChannelWire, ChannelID(ChatChannel(99)))
	assert.Equal(t, DefaultMessageWire, MessageTypeByte(MessageType(99)))
	assert.Equal(t, DefaultEffectWire, MagicEffectByte(EffectNone))
	assert.Equal(t, byte(0x01), MagicEffectByte(EffectDrawBlood))
	assert.Equal(t, "creature_moved", OpCreatureMoved.String())
	assert.Equal(t, "unknown", Opcode(0x01).String())
}

func TestEffectForHit(t *testing.T) {
	e, ok := EffectForHit(creature.HitBlocked)
	require.True(t, ok)
	assert.Equal(t, EffectPuff, e)

	_, ok = EffectForHit(creature.HitNone)
	assert.False(t, ok)
}

func TestDirectionByte(t *testing.T) {
	assert.Equal(t, byte(0), DirectionByte(vec.North))
	assert.Equal(t, byte(1), DirectionByte(vec.East))
	assert.Equal(t, byte(2), DirectionByte(vec.South))
	assert.Equal(t, byte(3), DirectionByte(vec.West))
}
