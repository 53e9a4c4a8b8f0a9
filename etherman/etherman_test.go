package etherman

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HexBridge-io/relayer-go/retrier"
)

// test key, never funded anywhere
const testPrivKey = "59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d"

type fakeEthClient struct {
	receipts map[ethcommon.Hash]*types.Receipt
	balance  *big.Int
	nonce    uint64
	gasPrice *big.Int
	sent     []*types.Transaction
	sendErr  error
}

func (f *fakeEthClient) TransactionReceipt(ctx context.Context, txHash ethcommon.Hash) (*types.Receipt, error) {
	r, ok := f.receipts[txHash]
	if !ok {
		return nil, ethereum.NotFound
	}
	return r, nil
}

func (f *fakeEthClient) BalanceAt(ctx context.Context, account ethcommon.Address, blockNumber *big.Int) (*big.Int, error) {
	return f.balance, nil
}

func (f *fakeEthClient) PendingNonceAt(ctx context.Context, account ethcommon.Address) (uint64, error) {
	return f.nonce, nil
}

func (f *fakeEthClient) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return f.gasPrice, nil
}

func (f *fakeEthClient) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, tx)
	return nil
}

func newTestEtherman(t *testing.T, client *fakeEthClient) *Etherman {
	e, err := newEtherman(client, &Config{
		PrivateKey:            testPrivKey,
		BridgeContractAddress: "0xc0de000000000000000000000000000000000002",
		ChainId:               big.NewInt(1337),
	})
	require.NoError(t, err)
	return e
}

func TestConfirmTransaction(t *testing.T) {
	mined := ethcommon.HexToHash("0x01")
	reverted := ethcommon.HexToHash("0x02")

	client := &fakeEthClient{receipts: map[ethcommon.Hash]*types.Receipt{
		mined:    {Status: types.ReceiptStatusSuccessful},
		reverted: {Status: types.ReceiptStatusFailed},
	}}
	e := newTestEtherman(t, client)

	assert.NoError(t, e.ConfirmTransaction(context.Background(), mined.Hex()))

	// not yet mined: a normal polling outcome
	err := e.ConfirmTransaction(context.Background(), "0x03")
	assert.ErrorIs(t, err, retrier.ErrNotReady)

	// reverted: fatal, never retried
	err = e.ConfirmTransaction(context.Background(), reverted.Hex())
	require.Error(t, err)
	assert.True(t, retrier.IsFatal(err))
	assert.ErrorIs(t, err, ErrReverted)
}

func TestSignerBalance(t *testing.T) {
	client := &fakeEthClient{balance: big.NewInt(12345)}
	e := newTestEtherman(t, client)

	b, err := e.SignerBalance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(12345), b)
}

func TestSubmitMint(t *testing.T) {
	client := &fakeEthClient{nonce: 7, gasPrice: big.NewInt(2_000_000_000)}
	e := newTestEtherman(t, client)

	hash, err := e.SubmitMint(
		context.Background(),
		"0x1c9d5c4a81d1885b90bcbcbd4f29b153b88b92b0b7ad1d354ac92b5b6ad41cf1",
		"0xdeadbeef",
		"0xbbbb000000000000000000000000000000000002",
		"5000000",
	)
	require.NoError(t, err)
	require.Len(t, client.sent, 1)

	sent := client.sent[0]
	assert.Equal(t, hash, sent.Hash().Hex())
	assert.Equal(t, uint64(7), sent.Nonce())
	assert.Equal(t, e.bridgeAddress, *sent.To())
	assert.NotEmpty(t, sent.Data())
}

func TestSubmitMintRejectsBadAmount(t *testing.T) {
	client := &fakeEthClient{nonce: 0, gasPrice: big.NewInt(1)}
	e := newTestEtherman(t, client)

	_, err := e.SubmitMint(context.Background(), "0x01", "0x02",
		"0xbbbb000000000000000000000000000000000002", "1.23")
	require.Error(t, err)
	assert.True(t, retrier.IsFatal(err))
	assert.Empty(t, client.sent)
}
