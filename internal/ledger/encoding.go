package ledger

import (
	"bytes"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// protocolVersion is passed to the wire var-int helpers, which ignore it for
// the encodings used here.
const protocolVersion = 0

// The helpers below write into a bytes.Buffer, whose writes never fail, so the
// wire errors are discarded.

func writeVarInt(buf *bytes.Buffer, v uint64) {
	_ = wire.WriteVarInt(buf, protocolVersion, v)
}

func writeBytes(buf *bytes.Buffer, b []byte) {
	_ = wire.WriteVarBytes(buf, protocolVersion, b)
}

func writeHash(buf *bytes.Buffer, h chainhash.Hash) {
	buf.Write(h[:])
}

func writeOutputRef(buf *bytes.Buffer, ref OutputRef) {
	writeHash(buf, ref.TxHash)
	writeVarInt(buf, uint64(ref.Index))
}

// writeOutputs encodes amounts as their two's complement bit pattern so that
// negative amounts still hash deterministically.
func writeOutputs(buf *bytes.Buffer, outputs []Output) {
	writeVarInt(buf, uint64(len(outputs)))
	for _, out := range outputs {
		writeVarInt(buf, uint64(out.Amount))

		var owner []byte
		if out.Owner != nil {
			owner = out.Owner.SerializeCompressed()
		}
		writeBytes(buf, owner)
	}
}
