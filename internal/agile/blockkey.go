package agile

import "fmt"

// BlockKey identifies the purpose a derived key or IV is used for.
type BlockKey int

const (
	BlockVerifierHashInput BlockKey = iota
	BlockVerifierHashValue
	BlockKeyValue
	BlockHmacKey
	BlockHmacValue
)

var blockKeyBytes = [...][8]byte{
	BlockVerifierHashInput: {0xfe, 0xa7, 0xd2, 0x76, 0x3b, 0x4b, 0x9e, 0x79},
	BlockVerifierHashValue: {0xd7, 0xaa, 0x0f, 0x6d, 0x30, 0x61, 0x34, 0x4e},
	BlockKeyValue:          {0x14, 0x6e, 0x0b, 0xe7, 0xab, 0xac, 0xd0, 0xd6},
	BlockHmacKey:           {0x5f, 0xb2, 0xad, 0x01, 0x0c, 0xb9, 0xe1, 0xf6},
	BlockHmacValue:         {0xa0, 0x67, 0x7f, 0x02, 0xb2, 0x2c, 0x84, 0x33},
}

// Bytes returns the 8-byte identifier of b.
func (b BlockKey) Bytes() []byte {
	id := blockKeyBytes[b]
	return id[:]
}

func (b BlockKey) String() string {
	switch b {
	case BlockVerifierHashInput:
		return "verifierHashInput"
	case BlockVerifierHashValue:
		return "verifierHashValue"
	case BlockKeyValue:
		return "keyValue"
	case BlockHmacKey:
		return "hmacKey"
	case BlockHmacValue:
		return "hmacValue"
	default:
		return fmt.Sprintf("BlockKey(%d)", int(b))
	}
}
