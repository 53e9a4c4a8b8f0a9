package etherman

import "math/big"

type Config struct {
	// RpcURL is the json rpc endpoint of the EVM chain.
	RpcURL string
	// PrivateKey is the hex-encoded key of the relayer signer account.
	PrivateKey string
	// BridgeContractAddress is the deployed bridge contract.
	BridgeContractAddress string
	// ChainId of the EVM chain, used for transaction signing.
	ChainId *big.Int
	// GasLimit for mint transactions. Zero uses the default.
	GasLimit uint64
}
