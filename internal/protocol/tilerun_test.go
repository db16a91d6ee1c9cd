package protocol

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testContentLen = 2

// contentFor — второй байт никогда не равен 0xFF
func contentFor(i int) []byte {
	return []byte{0x64, byte(i % 250)}
}

func encode(count int, hasContent func(i int) bool) []byte {
	w := NewWriter()
	WriteTileRun(w, count, func(i int) []byte {
		if hasContent(i) {
			return contentFor(i)
		}
		return nil
	})
	return w.Bytes()
}

func TestWriteTileRun_ExactBytes(t *testing.T) {
	none := func(int) bool { return false }

	assert.Equal(t, []byte{0x00, 0xFF}, encode(0, none), "Пустой кадр всё равно закрывается маркером")
	assert.Equal(t, []byte{0xFF, 0xFF}, encode(255, none))
	assert.Equal(t, []byte{0xFF, 0xFF, 0x00, 0xFF}, encode(256, none), "Принудительный сброс и финальный маркер")

	only := func(i int) bool { return i == 0 }
	assert.Equal(t, []byte{0x64, 0x00, 0x01, 0xFF}, encode(1, only))

	middle := func(i int) bool { return i == 1 }
	assert.Equal(t, []byte{0x00, 0xFF, 0x64, 0x01, 0x02, 0xFF}, encode(3, middle))

	all := func(int) bool { return true }
	assert.Equal(t, []byte{0x64, 0x00, 0x00, 0xFF, 0x64, 0x01, 0x01, 0xFF}, encode(2, all),
		"Между соседними тайлами с содержимым пишется нулевой пропуск")
}

func TestTileRun_RoundTrip(t *testing.T) {
	sizes := []int{0, 1, 254, 255, 256, 510}
	strides := []int{1, 2, 3, 7, 100, 255, 256, 0}

	for _, n := range sizes {
		for _, k := range strides {
			for _, leading := range []bool{false, true} {
				n, k, leading := n, k, leading
				t.Run(fmt.Sprintf("n=%d/k=%d/leading=%v", n, k, leading), func(t *testing.T) {
					hasContent := func(i int) bool {
						if k == 0 {
							return false
						}
						if leading {
							return (i+1)%k == 0
						}
						return i%k == 0
					}

					var want []DecodedTile
					for i := 0; i < n; i++ {
						if hasContent(i) {
							want = append(want, DecodedTile{Index: i, Content: contentFor(i)})
						}
					}

					got, err := DecodeTileRun(encode(n, hasContent), n, testContentLen)
					require.NoError(t, err)
					assert.Equal(t, want, got)
				})
			}
		}
	}
}

func TestDecodeTileRun_RejectsWrongCount(t *testing.T) {
	data := encode(10, func(i int) bool { return i == 3 })

	_, err := DecodeTileRun(data, 11, testContentLen)
	assert.ErrorIs(t, err, ErrMalformedRun)

	_, err = DecodeTileRun(data[:len(data)-2], 10, testContentLen)
	assert.ErrorIs(t, err, ErrMalformedRun)
}
