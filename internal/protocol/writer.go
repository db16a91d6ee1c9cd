package protocol

import (
	"encoding/binary"
	"errors"

	"github.com/annel0/worldsim/internal/vec"
)

// ErrShortFrame — кадр закончился раньше ожидаемого поля
var ErrShortFrame = errors.New("short frame")

// Writer собирает исходящий кадр. Все многобайтовые поля — little endian.
type Writer struct {
	buf []byte
}

// NewWriter создаёт пустой буфер
func NewWriter() *Writer {
	return &Writer{buf: make([]byte, 0, 64)}
}

// NewFrame создаёт буфер, начинающийся с опкода
func NewFrame(op Opcode) *Writer {
	w := NewWriter()
	w.AddByte(byte(op))
	return w
}

func (w *Writer) Bytes() []byte { return w.buf }
func (w *Writer) Len() int      { return len(w.buf) }
func (w *Writer) Reset()        { w.buf = w.buf[:0] }

// AddByte добавляет байт
func (w *Writer) AddByte(b byte) { w.buf = append(w.buf, b) }

// AddBytes добавляет байты как есть
func (w *Writer) AddBytes(b []byte) { w.buf = append(w.buf, b...) }

// AddUint16 добавляет uint16
func (w *Writer) AddUint16(v uint16) { w.buf = binary.LittleEndian.AppendUint16(w.buf, v) }

// AddUint32 добавляет uint32
func (w *Writer) AddUint32(v uint32) { w.buf = binary.LittleEndian.AppendUint32(w.buf, v) }

// AddString добавляет строку с префиксом длины uint16. Длинные строки обрезаются.
func (w *Writer) AddString(s string) {
	if len(s) > 0xFFFF {
		s = s[:0xFFFF]
	}
	w.AddUint16(uint16(len(s)))
	w.buf = append(w.buf, s...)
}

// AddLocation добавляет координаты: 2+2+1 байта
func (w *Writer) AddLocation(l vec.Location) {
	w.AddUint16(uint16(l.X))
	w.AddUint16(uint16(l.Y))
	w.AddByte(byte(l.Z))
}

// AddPercent добавляет процент, ограниченный [0, 100]
func (w *Writer) AddPercent(p int) {
	w.AddByte(byte(max(0, min(p, 100))))
}

// AddSaturatedByte добавляет значение, насыщая его в [0, 255]
func (w *Writer) AddSaturatedByte(v int) {
	w.AddByte(byte(max(0, min(v, 0xFF))))
}

// AddSaturatedUint16 добавляет значение, насыщая его в [0, 65535]
func (w *Writer) AddSaturatedUint16(v int) {
	w.AddUint16(uint16(max(0, min(v, 0xFFFF))))
}

// AddSaturatedUint32 добавляет значение, насыщая его в [0, 2^32-1]
func (w *Writer) AddSaturatedUint32(v int64) {
	w.AddUint32(uint32(max(0, min(v, 0xFFFFFFFF))))
}

// Reader читает кадр, записанный Writer. Используется тестами и инструментами.
type Reader struct {
	data []byte
	pos  int
}

// NewReader создаёт читатель кадра
func NewReader(data []byte) *Reader { return &Reader{data: data} }

// Remaining — сколько байт осталось
func (r *Reader) Remaining() int { return len(r.data) - r.pos }

// GetByte читает байт
func (r *Reader) GetByte() (byte, error) {
	if r.Remaining() < 1 {
		return 0, ErrShortFrame
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

// GetUint16 читает uint16
func (r *Reader) GetUint16() (uint16, error) {
	if r.Remaining() < 2 {
		return 0, ErrShortFrame
	}
	v := binary.LittleEndian.Uint16(r.data[r.pos:])
	r.pos += 2
	return v, nil
}

// GetUint32 читает uint32
func (r *Reader) GetUint32() (uint32, error) {
	if r.Remaining() < 4 {
		return 0, ErrShortFrame
	}
	v := binary.LittleEndian.Uint32(r.data[r.pos:])
	r.pos += 4
	return v, nil
}

// GetString читает строку с префиксом длины
func (r *Reader) GetString() (string, error) {
	n, err := r.GetUint16()
	if err != nil {
		return "", err
	}
	if r.Remaining() < int(n) {
		return "", ErrShortFrame
	}
	s := string(r.data[r.pos : r.pos+int(n)])
	r.pos += int(n)
	return s, nil
}

// GetLocation читает координаты
func (r *Reader) GetLocation() (vec.Location, error) {
	x, err := r.GetUint16()
	if err != nil {
		return vec.Location{}, err
	}
	y, err := r.GetUint16()
	if err != nil {
		return vec.Location{}, err
	}
	z, err := r.GetByte()
	if err != nil {
		return vec.Location{}, err
	}
	return vec.Location{X: int(x), Y: int(y), Z: int8(z)}, nil
}
