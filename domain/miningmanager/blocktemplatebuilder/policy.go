package blocktemplatebuilder

import (
	"github.com/hybridchain/hybridd/domain/chainconfig"
)

// Policy houses the policy (configuration parameters) which is used to
// control the generation of block templates.
type Policy struct {
	// BlockMaxMass is the maximum block mass to be used when generating a
	// block template.
	BlockMaxMass uint64

	// IncludeFailedContracts defines whether a transaction whose contract
	// execution failed is still included in the block, paying for the gas
	// it burned. When false, such transactions are left out and their
	// execution leaves no trace in the state.
	IncludeFailedContracts bool
}

// DefaultPolicy returns the policy used when none is configured
func DefaultPolicy(params *chainconfig.Params) *Policy {
	return &Policy{
		BlockMaxMass:           params.BlockMaxMass,
		IncludeFailedContracts: true,
	}
}
