package consensushashing

import (
	"io"

	"github.com/hybridchain/hybridd/domain/consensus/model/externalapi"
	"github.com/hybridchain/hybridd/domain/consensus/utils/hashes"
	"github.com/hybridchain/hybridd/domain/consensus/utils/serialization"
	"github.com/pkg/errors"
)

// BlockHash returns the given block's hash
func BlockHash(block *externalapi.DomainBlock) *externalapi.DomainHash {
	return HeaderHash(block.Header)
}

// HeaderHash returns the given header's hash
func HeaderHash(header *externalapi.DomainBlockHeader) *externalapi.DomainHash {
	writer := hashes.NewBlockHashWriter()
	err := serializeHeader(writer, header)
	if err != nil {
		// It seems like this could only happen if the writer returned an error.
		// and this writer should never return an error (no allocations or possible failures)
		// the only non-writer error path here is unknown types in `WriteElement`
		panic(errors.Wrap(err, "this should never happen. Hash digest should never return an error"))
	}

	return writer.Finalize()
}

func serializeHeader(w io.Writer, header *externalapi.DomainBlockHeader) error {
	return serialization.WriteElements(w, header.Version, header.ParentHash, header.HashMerkleRoot,
		header.StateRoot, header.TimeInMilliseconds, header.Bits, header.Nonce, header.Height,
		header.IsProofOfStake)
}
