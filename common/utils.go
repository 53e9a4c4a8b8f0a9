package common

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	ethcommon "github.com/ethereum/go-ethereum/common"
)

// Trim 0x or 0X prefix off the string.
func Trim0xPrefix(str string) string {
	s := strings.TrimPrefix(str, "0x")
	return strings.TrimPrefix(s, "0X")
}

func Prepend0xPrefix(str string) string {
	if strings.HasPrefix(str, "0x") || strings.HasPrefix(str, "0X") {
		return str
	}
	return "0x" + str
}

// ParseAmount converts a decimal string of integer base units into *big.Int.
// Amounts travel as strings end to end; floats are never involved.
func ParseAmount(amount string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(strings.TrimSpace(amount), 10)
	if !ok {
		return nil, fmt.Errorf("malformed amount %q", amount)
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("negative amount %q", amount)
	}
	return v, nil
}

// HexStrToBigInt converts a hex string (with/without prefix 0x) to *big.Int
func HexStrToBigInt(hexStr string) *big.Int {
	bigInt, ok := new(big.Int).SetString(Trim0xPrefix(hexStr), 16)
	if !ok {
		return nil
	}
	return bigInt
}

// BigIntToHexStr converts a big int to hex string with prefix 0x
func BigIntToHexStr(bigInt *big.Int) string {
	return Prepend0xPrefix(bigInt.Text(16))
}

func BigIntClone(bigInt *big.Int) *big.Int {
	return new(big.Int).Set(bigInt)
}

// SameHexAddress compares two hex addresses ignoring case and 0x prefix.
func SameHexAddress(a, b string) bool {
	return strings.EqualFold(Trim0xPrefix(a), Trim0xPrefix(b))
}

// HexStrToHash converts a hex string to ethcommon.Hash
func HexStrToHash(hexStr string) ethcommon.Hash {
	return ethcommon.HexToHash(hexStr)
}

// Shorten shortens a hex string so that both sides have n characters and
// the rest is replaced with "..."
func Shorten(hexStr string, n int) string {
	str := Trim0xPrefix(hexStr)

	if len(str) <= n*2 {
		return Prepend0xPrefix(str)
	}
	return Prepend0xPrefix(str[:n] + "..." + str[len(str)-n:])
}

func RandBytes(n int) []byte {
	b := make([]byte, n)
	_, err := rand.Read(b)
	if err != nil {
		return nil
	}
	return b
}

// RandBytes32 generates [32]byte with random values
func RandBytes32() [32]byte {
	var b [32]byte
	n, err := rand.Read(b[:])

	if err != nil {
		return [32]byte{}
	}
	if n != 32 {
		return [32]byte{}
	}

	return b
}
