package chain

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// ABI of the pool mirror contract: a single view exposing the record fields
// the engine models.
const poolMirrorABIJSON = `[
  {
    "inputs": [],
    "name": "getState",
    "outputs": [
      {"internalType": "uint256", "name": "reserveA", "type": "uint256"},
      {"internalType": "uint256", "name": "reserveB", "type": "uint256"},
      {"internalType": "uint256", "name": "lpSupply", "type": "uint256"},
      {"internalType": "uint16", "name": "feeBps", "type": "uint16"},
      {"internalType": "uint64", "name": "version", "type": "uint64"}
    ],
    "stateMutability": "view",
    "type": "function"
  }
]`

var (
	poolMirrorABIOnce sync.Once
	poolMirrorABI     abi.ABI
	poolMirrorABIErr  error
)

func loadPoolMirrorABI() (abi.ABI, error) {
	poolMirrorABIOnce.Do(func() {
		poolMirrorABI, poolMirrorABIErr = abi.JSON(strings.NewReader(poolMirrorABIJSON))
	})
	return poolMirrorABI, poolMirrorABIErr
}
