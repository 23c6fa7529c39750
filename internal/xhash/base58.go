package xhash

import "math/big"

// Bitcoin-style base58 alphabet, avoiding the visually ambiguous 0/O/I/l.
// Grounded on the teacher's core/sdk/secret/base58.go encoder, generalised
// here from its fixed 8-byte input to an arbitrary-length digest.
const base58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

var base58BigRadix = big.NewInt(58)

// encodeBase58 renders data as a base58 string, preserving one leading '1'
// per leading zero byte the way Bitcoin addresses do.
func encodeBase58(data []byte) string {
	if len(data) == 0 {
		return ""
	}

	num := new(big.Int).SetBytes(data)
	mod := new(big.Int)
	var out []byte
	for num.Sign() > 0 {
		num.DivMod(num, base58BigRadix, mod)
		out = append([]byte{base58Alphabet[mod.Int64()]}, out...)
	}

	for _, b := range data {
		if b != 0 {
			break
		}
		out = append([]byte{base58Alphabet[0]}, out...)
	}

	return string(out)
}
