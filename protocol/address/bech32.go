package address

import (
	"fmt"
	"strings"
)

// Minimal bech32 decoder for ledger payment addresses. The BIP-173 reference
// implementations cap input at 90 characters, which rejects full payment
// addresses (~103 characters), so the length guard here is relaxed while the
// checksum and charset rules are kept.

const bech32Charset = "qpzry9x8gf2tvdw0s3jn54khce6mua7l"

var bech32CharsetRev = func() map[rune]int {
	m := make(map[rune]int, len(bech32Charset))
	for i, c := range bech32Charset {
		m[c] = i
	}
	return m
}()

func bech32Polymod(values []int) int {
	gen := []int{0x3b6a57b2, 0x26508e6d, 0x1ea119fa, 0x3d4233dd, 0x2a1462b3}
	chk := 1
	for _, v := range values {
		top := chk >> 25
		chk = (chk&0x1ffffff)<<5 ^ v
		for i := 0; i < 5; i++ {
			if (top>>uint(i))&1 == 1 {
				chk ^= gen[i]
			}
		}
	}
	return chk
}

func bech32HrpExpand(hrp string) []int {
	out := make([]int, 0, len(hrp)*2+1)
	for _, c := range hrp {
		out = append(out, int(c)>>5)
	}
	out = append(out, 0)
	for _, c := range hrp {
		out = append(out, int(c)&31)
	}
	return out
}

// decodeBech32Address decodes a bech32 string and converts its data part from
// 5-bit groups to bytes.
func decodeBech32Address(addr string) ([]byte, error) {
	if strings.ToLower(addr) != addr && strings.ToUpper(addr) != addr {
		return nil, fmt.Errorf("mixed-case bech32")
	}
	addr = strings.ToLower(addr)

	sep := strings.LastIndex(addr, "1")
	if sep < 1 || sep+7 > len(addr) {
		return nil, fmt.Errorf("missing bech32 separator")
	}
	hrp := addr[:sep]
	data := make([]int, 0, len(addr)-sep-1)
	for _, c := range addr[sep+1:] {
		v, ok := bech32CharsetRev[c]
		if !ok {
			return nil, fmt.Errorf("invalid bech32 character %q", c)
		}
		data = append(data, v)
	}

	if bech32Polymod(append(bech32HrpExpand(hrp), data...)) != 1 {
		return nil, fmt.Errorf("bech32 checksum mismatch")
	}

	return convertBits(data[:len(data)-6])
}

// convertBits regroups 5-bit values into bytes, rejecting incomplete padding.
func convertBits(data []int) ([]byte, error) {
	var out []byte
	acc := 0
	bits := 0
	for _, v := range data {
		acc = acc<<5 | v
		bits += 5
		for bits >= 8 {
			bits -= 8
			out = append(out, byte(acc>>uint(bits)&0xff))
		}
	}
	if bits >= 5 || acc&((1<<uint(bits))-1) != 0 {
		return nil, fmt.Errorf("invalid bech32 padding")
	}
	return out, nil
}
