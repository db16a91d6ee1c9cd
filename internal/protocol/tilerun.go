package protocol

import (
	"errors"
	"fmt"
)

// SkipMarker — второй байт маркера пропуска
const SkipMarker byte = 0xFF

// noPending — «пропусков нет». Совпадает с SkipMarker, клиент полагается на это.
const noPending byte = 0xFF

// ErrMalformedRun — поток пропусков не соответствует числу тайлов
var ErrMalformedRun = errors.New("malformed tile run")

// WriteTileRun кодирует count тайлов. describe(i) возвращает содержимое тайла или nil,
// если для наблюдателя на нём ничего нет. Перед содержимым сбрасывается накопленный
// пропуск [n, 0xFF]; на 255 пропусках он сбрасывается принудительно; в конце всегда
// пишется [pending+1, 0xFF], даже если пропусков не было.
func WriteTileRun(w *Writer, count int, describe func(i int) []byte) {
	pending := noPending

	for i := 0; i < count; i++ {
		content := describe(i)
		if len(content) > 0 {
			if pending != noPending {
				w.AddByte(pending)
				w.AddByte(SkipMarker)
			}
			w.AddBytes(content)
			pending = 0
			continue
		}

		pending++
		if pending == 0xFF {
			w.AddByte(0xFF)
			w.AddByte(SkipMarker)
			pending = noPending
		}
	}

	w.AddByte(pending + 1)
	w.AddByte(SkipMarker)
}

// DecodedTile — содержимое тайла и его позиция в последовательности
type DecodedTile struct {
	Index   int
	Content []byte
}

// DecodeTileRun разбирает поток WriteTileRun из count тайлов с содержимым фиксированной
// длины contentLen. Второй байт содержимого не должен быть 0xFF.
func DecodeTileRun(data []byte, count, contentLen int) ([]DecodedTile, error) {
	if contentLen < 2 {
		return nil, fmt.Errorf("%w: content length %d", ErrMalformedRun, contentLen)
	}

	var out []DecodedTile
	pos, p := 0, 0
	sentinel := true

	for p < len(data) {
		if p+1 < len(data) && data[p+1] == SkipMarker {
			n := int(data[p])
			p += 2

			if p == len(data) {
				trailing := n
				if !sentinel {
					trailing = n - 1
				}
				if trailing < 0 || pos+trailing != count {
					return nil, fmt.Errorf("%w: final marker %d at %d of %d", ErrMalformedRun, n, pos, count)
				}
				return out, nil
			}

			switch {
			case n == 0xFF && sentinel:
				pos += 256
			case n == 0xFF:
				pos += 255
				sentinel = true
			case sentinel:
				pos += n + 1
			default:
				pos += n
			}
			if pos > count {
				return nil, fmt.Errorf("%w: skipped past %d", ErrMalformedRun, count)
			}
			continue
		}

		if p+contentLen > len(data) || pos >= count {
			return nil, fmt.Errorf("%w: content at byte %d", ErrMalformedRun, p)
		}
		out = append(out, DecodedTile{Index: pos, Content: data[p : p+contentLen]})
		p += contentLen
		pos++
		sentinel = false
	}
	return nil, fmt.Errorf("%w: missing final marker", ErrMalformedRun)
}
