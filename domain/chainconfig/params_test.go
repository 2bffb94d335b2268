package chainconfig

import (
	"testing"

	"github.com/btcsuite/btcd/blockchain"
)

func TestLimitBits(t *testing.T) {
	allParams := []*Params{&MainnetParams, &TestnetParams, &RegressionNetParams, &SimnetParams, &DevnetParams}
	for _, params := range allParams {
		// The compact form is lossy, but must never exceed the limit itself.
		if blockchain.CompactToBig(params.PosLimitBits).Cmp(params.PosLimit) > 0 {
			t.Fatalf("%s: PosLimitBits %08x is above PosLimit", params.Name, params.PosLimitBits)
		}
		if blockchain.CompactToBig(params.PowLimitBits).Cmp(params.PowLimit) > 0 {
			t.Fatalf("%s: PowLimitBits %08x is above PowLimit", params.Name, params.PowLimitBits)
		}
		if params.RetargetInterval() < 1 {
			t.Fatalf("%s: retarget interval %d is not positive", params.Name, params.RetargetInterval())
		}
	}
}
