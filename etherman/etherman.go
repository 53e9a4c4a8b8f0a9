// EVM-side chain access: receipt confirmation of source transactions,
// relayer signer liveness, and mint submission against the bridge contract.

package etherman

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/HexBridge-io/relayer-go/common"
	"github.com/HexBridge-io/relayer-go/retrier"
)

const defaultGasLimit = 300_000

// mintABI is the slice of the bridge contract interface the relayer calls.
// The full contract is out of scope; only mint is driven from here.
const mintABI = `[{
	"name": "mint",
	"type": "function",
	"inputs": [
		{"name": "messageHash", "type": "bytes32"},
		{"name": "attestation", "type": "bytes"},
		{"name": "recipient", "type": "address"},
		{"name": "amount", "type": "uint256"}
	],
	"outputs": []
}]`

var ErrReverted = errors.New("transaction reverted on chain")

type ethereumClient interface {
	TransactionReceipt(ctx context.Context, txHash ethcommon.Hash) (*types.Receipt, error)
	BalanceAt(ctx context.Context, account ethcommon.Address, blockNumber *big.Int) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account ethcommon.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
}

type Etherman struct {
	client        ethereumClient
	bridgeAddress ethcommon.Address
	bridgeABI     abi.ABI
	privateKey    *ecdsa.PrivateKey
	signerAddress ethcommon.Address
	chainId       *big.Int
	gasLimit      uint64
}

func NewEtherman(cfg *Config) (*Etherman, error) {
	client, err := ethclient.Dial(cfg.RpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial evm rpc: %w", err)
	}
	return newEtherman(client, cfg)
}

func newEtherman(client ethereumClient, cfg *Config) (*Etherman, error) {
	key, err := crypto.HexToECDSA(common.Trim0xPrefix(cfg.PrivateKey))
	if err != nil {
		return nil, fmt.Errorf("parse signer key: %w", err)
	}

	parsed, err := abi.JSON(strings.NewReader(mintABI))
	if err != nil {
		return nil, err
	}

	gasLimit := cfg.GasLimit
	if gasLimit == 0 {
		gasLimit = defaultGasLimit
	}

	return &Etherman{
		client:        client,
		bridgeAddress: ethcommon.HexToAddress(cfg.BridgeContractAddress),
		bridgeABI:     parsed,
		privateKey:    key,
		signerAddress: crypto.PubkeyToAddress(key.PublicKey),
		chainId:       cfg.ChainId,
		gasLimit:      gasLimit,
	}, nil
}

func (e *Etherman) SignerAddress() ethcommon.Address {
	return e.signerAddress
}

// SignerBalance returns the relayer account's native-gas balance.
func (e *Etherman) SignerBalance(ctx context.Context) (*big.Int, error) {
	return e.client.BalanceAt(ctx, e.signerAddress, nil)
}

// ConfirmTransaction checks whether txHash executed successfully.
//
// A receipt the node has not produced yet maps to retrier.ErrNotReady; a
// receipt with a failed status is a fatal ErrReverted. Classification runs
// on the typed ethereum.NotFound error, never on message text.
func (e *Etherman) ConfirmTransaction(ctx context.Context, txHash string) error {
	receipt, err := e.client.TransactionReceipt(ctx, common.HexStrToHash(txHash))
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return retrier.ErrNotReady
		}
		return fmt.Errorf("receipt lookup for %s: %w", common.Shorten(txHash, 8), err)
	}

	if receipt.Status != types.ReceiptStatusSuccessful {
		return retrier.Fatal(fmt.Errorf("%w: %s", ErrReverted, common.Shorten(txHash, 8)))
	}
	return nil
}

// SubmitMint sends a bridge mint transaction crediting recipient with amount,
// carrying the attestation for messageHash. Returns the mint tx hash.
func (e *Etherman) SubmitMint(ctx context.Context, messageHash, attestation, recipient, amount string) (string, error) {
	value, err := common.ParseAmount(amount)
	if err != nil {
		return "", retrier.Fatal(err)
	}

	calldata, err := e.bridgeABI.Pack(
		"mint",
		common.HexStrToHash(messageHash),
		ethcommon.FromHex(attestation),
		ethcommon.HexToAddress(recipient),
		value,
	)
	if err != nil {
		return "", retrier.Fatal(fmt.Errorf("pack mint calldata: %w", err))
	}

	nonce, err := e.client.PendingNonceAt(ctx, e.signerAddress)
	if err != nil {
		return "", fmt.Errorf("pending nonce: %w", err)
	}
	gasPrice, err := e.client.SuggestGasPrice(ctx)
	if err != nil {
		return "", fmt.Errorf("suggest gas price: %w", err)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &e.bridgeAddress,
		Value:    big.NewInt(0),
		Gas:      e.gasLimit,
		GasPrice: gasPrice,
		Data:     calldata,
	})

	signed, err := types.SignTx(tx, types.LatestSignerForChainID(e.chainId), e.privateKey)
	if err != nil {
		return "", retrier.Fatal(fmt.Errorf("sign mint tx: %w", err))
	}

	if err := e.client.SendTransaction(ctx, signed); err != nil {
		return "", fmt.Errorf("send mint tx: %w", err)
	}
	return signed.Hash().Hex(), nil
}
