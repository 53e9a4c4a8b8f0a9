// Server = relayer loop + proof-source clients + queue/ledger + http reporter.
// All components are configured via environment variables (strings!).

package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	logger "github.com/sirupsen/logrus"

	"github.com/HexBridge-io/relayer-go/attestor"
	"github.com/HexBridge-io/relayer-go/etherman"
	"github.com/HexBridge-io/relayer-go/mintledger"
	"github.com/HexBridge-io/relayer-go/relayer"
	"github.com/HexBridge-io/relayer-go/reporter"
	"github.com/HexBridge-io/relayer-go/strataman"
	"github.com/HexBridge-io/relayer-go/txqueue"
)

// Default params for server.
// More often we don't recommend users to tweak those.
// So we list them here.
const (
	defaultTickInterval       = 5 * time.Second
	defaultTransactionTimeout = 1 * time.Hour
	defaultMaxRetries         = 3
	defaultProofTimeout       = 30 * time.Second
)

// Keep the configuration's fields as "text" as possible.
// Its easier to load it from env vars or a config file.
type RelayerServerConfig struct {
	// eth side
	EthRpcUrl          string // json rpc url
	EthCoreAccountPriv string // private key of the relayer signer account
	BridgeContractAddr string // bridge contract address holding mint()
	EthChainId         int64  // chain id used for transaction signing
	// strata side
	StrataApiUrl        string // REST API base url
	StrataTokenContract string // bridged fungible token contract id
	VaultAddress        string // bridge deposit address, watched by balance proof
	// attestation service
	AttestationApiUrl string
	// persistence
	QueueFilePath string // transaction queue json file
	DbFilePath    string // mint ledger sqlite file
	// scheduler
	TickIntervalSec       int64  // seconds between scheduler passes (0 = default)
	TransactionTimeoutSec int64  // seconds before a transaction times out (0 = default)
	MaxRetries            int    // per-transaction failed-step budget (0 = default)
	DepositProofMode      string // "attestation" or "balance"
	MinSignerBalanceWei   string // decimal wei floor for mint submission, "" disables
	// Http side
	HttpIp   string // eg. 0.0.0.0
	HttpPort string // eg. 8080
}

// RelayerServer holds the objects that consists of the relayer.
type RelayerServer struct {
	MyQueue    *txqueue.Queue
	MyLedger   *mintledger.MintLedger
	MyEtherman *etherman.Etherman
	MyStrata   *strataman.Strataman
	MyAttestor *attestor.Client
	MyRelayer  *relayer.Relayer
	MyReporter *reporter.HttpReporter
}

// NewRelayerServer creates a new relayer server.
// ctx is used for parental context to cancel the operation of the server.
// wg is used to wait for the relayer loop to finish.
func NewRelayerServer(rsc *RelayerServerConfig, ctx context.Context, wg *sync.WaitGroup) (*RelayerServer, error) {
	// 1) Open the transaction queue file.
	myQueue, err := txqueue.NewQueue(rsc.QueueFilePath)
	if err != nil {
		logger.Errorf("cannot open transaction queue %s: err=%v", rsc.QueueFilePath, err)
		return nil, err
	}

	// 2) Open the sqlite db and create the mint ledger over it.
	sqldb, err := sql.Open("sqlite3", rsc.DbFilePath)
	if err != nil {
		logger.Errorf("failed to open db file: err=%v", err)
		return nil, err
	}
	myLedger, err := mintledger.NewMintLedger(sqldb)
	if err != nil {
		logger.Errorf("failed to create mint ledger: err=%v", err)
		return nil, err
	}

	// 3) Connect to the EVM chain.
	myEtherman, err := etherman.NewEtherman(&etherman.Config{
		RpcURL:                rsc.EthRpcUrl,
		PrivateKey:            rsc.EthCoreAccountPriv,
		BridgeContractAddress: rsc.BridgeContractAddr,
		ChainId:               big.NewInt(rsc.EthChainId),
	})
	if err != nil {
		logger.Errorf("failed to create etherman: err=%v", err)
		return nil, err
	}
	logger.WithField("address", myEtherman.SignerAddress().Hex()).Info("relayer signer account")

	// 4) Create the strata REST client.
	myStrata := strataman.New(&strataman.Config{
		APIURL:        rsc.StrataApiUrl,
		TokenContract: rsc.StrataTokenContract,
	})

	// 5) Create the attestation service client.
	myAttestor := attestor.NewClient(&attestor.Config{
		BaseURL: rsc.AttestationApiUrl,
	})

	// 6) Create the relayer over the backends.
	relayerCfg, err := prepareRelayerConfig(rsc)
	if err != nil {
		return nil, err
	}
	myRelayer, err := relayer.New(relayerCfg, myQueue, relayer.Backends{
		Attestations: myAttestor,
		Balances:     myStrata,
		Confirmer:    myEtherman,
		Minter:       myEtherman,
		Releaser:     myStrata,
		Ledger:       myLedger,
	}, nil, nil)
	if err != nil {
		logger.Errorf("failed to create relayer: err=%v", err)
		return nil, err
	}

	// Important: turn on the relayer loop!
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := myRelayer.Start(ctx); err != nil && err != context.Canceled {
			logger.Errorf("relayer loop stopped: err=%v", err)
		}
	}()
	// Don't forget to call wg.Wait() in the main routine.

	// *** Setup a http server to report status and ingest transactions ***
	httpServer := reporter.NewHttpReporter(rsc.HttpIp, rsc.HttpPort, myQueue, nil)
	// Turn on the http server
	go httpServer.Run()

	return &RelayerServer{
		MyQueue:    myQueue,
		MyLedger:   myLedger,
		MyEtherman: myEtherman,
		MyStrata:   myStrata,
		MyAttestor: myAttestor,
		MyRelayer:  myRelayer,
		MyReporter: httpServer,
	}, nil
}

func prepareRelayerConfig(rsc *RelayerServerConfig) (*relayer.Config, error) {
	cfg := &relayer.Config{
		TickInterval:       defaultTickInterval,
		TransactionTimeout: defaultTransactionTimeout,
		MaxRetries:         defaultMaxRetries,
		DepositProof:       relayer.DepositProofMode(rsc.DepositProofMode),
		VaultAddress:       rsc.VaultAddress,
	}
	cfg.ProofRetry.Timeout = defaultProofTimeout

	if rsc.TickIntervalSec > 0 {
		cfg.TickInterval = time.Duration(rsc.TickIntervalSec) * time.Second
	}
	if rsc.TransactionTimeoutSec > 0 {
		cfg.TransactionTimeout = time.Duration(rsc.TransactionTimeoutSec) * time.Second
	}
	if rsc.MaxRetries > 0 {
		cfg.MaxRetries = rsc.MaxRetries
	}
	if rsc.MinSignerBalanceWei != "" {
		floor, ok := new(big.Int).SetString(rsc.MinSignerBalanceWei, 10)
		if !ok {
			return nil, fmt.Errorf("invalid MIN_SIGNER_BALANCE_WEI: %s", rsc.MinSignerBalanceWei)
		}
		cfg.MinSignerBalance = floor
	}
	return cfg, nil
}

// Create, then start the relayer server and wait.
// Press Ctrl-C to kill the server.
func StartRelayerServerAndWait(rsc *RelayerServerConfig) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up a signal channel to listen for Ctrl-C (SIGINT) or SIGTERM
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	// Launch a new goroutine to handle the signal
	go func() {
		sig := <-sigCh
		fmt.Printf("Received signal: %v, cancelling context...\n", sig)
		cancel()
	}()

	var wg sync.WaitGroup

	if _, err := NewRelayerServer(rsc, ctx, &wg); err != nil {
		logger.Errorf("failed to create relayer server: err=%v", err)
		return
	}

	// wait for the relayer loop to drain after cancellation
	wg.Wait()
}
