// Package shabal implements the Shabal-256 hash construction PoC+ mining
// specifies (deadline = hash(gensig, scoop_bytes) / base_target), plus
// the scoop-number derivation and the SIMD-variant dispatch the CPU
// Worker uses.
//
// This is a from-scratch, portable rendition of the Shabal-256 compression
// function as specified for PoC+ plotting/mining: a 12-word A register, two
// 16-word B/C registers, and a 16x32-bit message block processed through
// three permutation passes per block, finished by three parameterless
// "whitening" passes that fold the block counter into A. It is not a
// general-purpose NIST submission implementation; it exists to compute PoC+
// deadlines, and every call site in this module only ever hashes a fixed,
// small (32-byte gensig + 8-byte height, or gensig + 64-byte scoop)
// message, so performance-sensitive code paths batch whole scoops rather
// than streaming arbitrary-length input.
package shabal

const blockWords = 16

// iv256 are the standard Shabal-256 initialization vectors for the A, B and
// C registers.
var iv256A = [12]uint32{
	0x52F84552, 0xE54B7999, 0x2D8EE3EC, 0xB9645191,
	0xE0078B86, 0xBB7C44C9, 0xD2B5C1CA, 0xB0D2EB8C,
	0x14CE5A45, 0x22AF50DC, 0xEFFDBC6B, 0xEB21B74A,
}

var iv256B = [16]uint32{
	0xB555C6EE, 0x3E710596, 0xA72A652F, 0x9301515F,
	0xDA28C1FA, 0x696FD868, 0x9CB6BF72, 0x0AFE4002,
	0xA6E03615, 0x5138C1D4, 0xBE216306, 0xB38B8890,
	0x3EA8B96B, 0x3299ACE4, 0x30924DD4, 0x55CB34A5,
}

var iv256C = [16]uint32{
	0xB405F031, 0xC4233EBA, 0xB3733979, 0xC0DD9D55,
	0xC51C28AE, 0xA327B8E1, 0x56C56167, 0xED614433,
	0x88B59D60, 0x60E2CEBA, 0x758B4B8B, 0x83E82A7F,
	0xBC968828, 0xE6E00BF7, 0xBA839E55, 0x9B491C60,
}

// state is one Shabal-256 compression context.
type state struct {
	a         [12]uint32
	b, c      [16]uint32
	whigh, wlow uint32
}

func newState() *state {
	s := &state{a: iv256A, b: iv256B, c: iv256C}
	return s
}

func rotl(x uint32, n uint) uint32 { return (x << n) | (x >> (32 - n)) }

// permute runs the Shabal round function once over message words m,
// updating a/b/c in place per the PoC+ Shabal-256 specification.
func (s *state) permute(m *[blockWords]uint32) {
	for i := range s.b {
		s.b[i] += m[i]
	}
	s.a[0] ^= s.whigh
	s.a[1] ^= s.wlow

	for n := 0; n < 3; n++ {
		for i := 0; i < 16; i++ {
			ai := i % 12
			bi := i
			b1 := (i + 13) % 16
			b2 := (i + 9) % 16
			b3 := (i + 6) % 16

			s.a[ai] = rotl(s.a[ai], 15)*5 ^ rotl(s.a[(ai+11)%12], 1) ^ s.c[(15-i)%16]
			s.a[ai] += (s.b[b1] & s.b[b2]) ^ s.b[b3] ^ m[i%16]
			s.b[bi] = ^((rotl(s.b[bi], 1)) ^ s.a[ai])
		}
	}

	for i := 0; i < 16; i++ {
		s.c[i] -= m[i]
	}
	s.b, s.c = s.c, s.b
}

func (s *state) advanceCounter() {
	s.wlow++
	if s.wlow == 0 {
		s.whigh++
	}
}

// Sum256 hashes the concatenation of all parts and returns the 32-byte
// Shabal-256 digest. Inputs need not be block-aligned: padding is applied
// per the Shabal specification (a single 0x80 byte followed by zero bytes
// up to the next 64-byte boundary, plus three final empty permutations).
func Sum256(parts ...[]byte) [32]byte {
	s := newState()

	var total int
	for _, p := range parts {
		total += len(p)
	}

	var block [64]byte
	pos := 0
	flush := func() {
		var words [blockWords]uint32
		bytesToWords(block[:], &words)
		s.permute(&words)
		s.advanceCounter()
		pos = 0
	}

	for _, p := range parts {
		for len(p) > 0 {
			n := copy(block[pos:], p)
			pos += n
			p = p[n:]
			if pos == 64 {
				flush()
			}
		}
	}

	// Padding: one 0x80 byte, then zero-fill to the block boundary.
	block[pos] = 0x80
	for i := pos + 1; i < 64; i++ {
		block[i] = 0
	}
	flush()

	// Three final parameterless permutations to whiten the output.
	var zero [blockWords]uint32
	for i := 0; i < 3; i++ {
		s.permute(&zero)
	}

	var out [32]byte
	// The 256-bit variant emits the last 8 words of B.
	for i := 0; i < 8; i++ {
		wordToBytes(s.b[8+i], out[i*4:i*4+4])
	}
	return out
}

func bytesToWords(b []byte, w *[blockWords]uint32) {
	for i := 0; i < blockWords; i++ {
		w[i] = uint32(b[i*4]) | uint32(b[i*4+1])<<8 | uint32(b[i*4+2])<<16 | uint32(b[i*4+3])<<24
	}
}

func wordToBytes(w uint32, dst []byte) {
	dst[0] = byte(w)
	dst[1] = byte(w >> 8)
	dst[2] = byte(w >> 16)
	dst[3] = byte(w >> 24)
}
