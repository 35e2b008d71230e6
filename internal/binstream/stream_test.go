package binstream

import "testing"

func TestReadULEB128(t *testing.T) {
	tests := []struct {
		in   []byte
		want uint64
	}{
		{[]byte{0x00}, 0},
		{[]byte{0x7f}, 127},
		{[]byte{0x80, 0x01}, 128},
		{[]byte{0xe5, 0x8e, 0x26}, 624485},
	}
	for _, tt := range tests {
		s := NewStream(tt.in)
		got, err := s.ReadULEB128()
		if err != nil {
			t.Errorf("ReadULEB128(%v): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ReadULEB128(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestReadSLEB128(t *testing.T) {
	tests := []struct {
		in   []byte
		want int64
	}{
		{[]byte{0x00}, 0},
		{[]byte{0x02}, 2},
		{[]byte{0x7e}, -2},
		{[]byte{0xff, 0x00}, 127},
		{[]byte{0x81, 0x7f}, -127},
	}
	for _, tt := range tests {
		s := NewStream(tt.in)
		got, err := s.ReadSLEB128()
		if err != nil {
			t.Errorf("ReadSLEB128(%v): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ReadSLEB128(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestReadULEB128_EOF(t *testing.T) {
	s := NewStream([]byte{0x80})
	if _, err := s.ReadULEB128(); err != ErrStreamEOF {
		t.Errorf("expected ErrStreamEOF, got %v", err)
	}
}

func TestStreamPositionAndRemaining(t *testing.T) {
	s := NewStreamAt([]byte{1, 2, 3, 4}, 2)
	if s.Position() != 2 {
		t.Fatalf("Position() = %d, want 2", s.Position())
	}
	if s.Remaining() != 2 {
		t.Fatalf("Remaining() = %d, want 2", s.Remaining())
	}
	b, err := s.ReadByte()
	if err != nil || b != 3 {
		t.Fatalf("ReadByte() = %d,%v want 3,nil", b, err)
	}
}
