// Client for the strata chain REST API. The chain is consumed purely over
// HTTP: account balance reads for balance-based deposit proofs, and release
// submission for withdrawals leaving the EVM side.

package strataman

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/HexBridge-io/relayer-go/common"
	"github.com/HexBridge-io/relayer-go/retrier"
)

const defaultRequestTimeout = 15 * time.Second

type Strataman struct {
	apiURL        string
	tokenContract string
	http          *http.Client
}

// accountBalances is the chain's wire format for GET /v2/accounts/{addr}/balances.
type accountBalances struct {
	Native struct {
		Balance string `json:"balance"`
	} `json:"native"`
	FungibleTokens map[string]struct {
		Balance string `json:"balance"`
	} `json:"fungible_tokens"`
}

type releaseRequest struct {
	TxId        string `json:"txId"`
	Recipient   string `json:"recipient"`
	Amount      string `json:"amount"`
	Attestation string `json:"attestation"`
}

type releaseResponse struct {
	TxId string `json:"txid"`
}

func New(cfg *Config) *Strataman {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.RequestTimeout
		if timeout == 0 {
			timeout = defaultRequestTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Strataman{
		apiURL:        strings.TrimRight(cfg.APIURL, "/"),
		tokenContract: cfg.TokenContract,
		http:          httpClient,
	}
}

// TokenBalance returns the bridged-token balance of address in base units.
//
// An account the API has never seen (404) or an account without a balance
// entry for the token simply holds zero; neither is an error. 401/403 and
// server errors surface with their status code and classify as fatal.
func (s *Strataman) TokenBalance(ctx context.Context, address string) (*big.Int, error) {
	url := fmt.Sprintf("%s/v2/accounts/%s/balances", s.apiURL, address)

	body, status, err := s.get(ctx, url)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return big.NewInt(0), nil
	}
	if status < 200 || status > 299 {
		return nil, retrier.NewStatusError(status, "balance lookup for %s", address)
	}

	var ab accountBalances
	if err := json.Unmarshal(body, &ab); err != nil {
		return nil, retrier.Fatal(fmt.Errorf("decode balances response: %w", err))
	}

	for key, entry := range ab.FungibleTokens {
		if !strings.HasPrefix(key, s.tokenContract) {
			continue
		}
		v, err := common.ParseAmount(entry.Balance)
		if err != nil {
			return nil, retrier.Fatal(fmt.Errorf("balance entry %q: %w", key, err))
		}
		return v, nil
	}
	return big.NewInt(0), nil
}

// SubmitRelease asks the chain-side release service to credit recipient with
// amount, carrying the attestation that proves the source-chain burn.
// Returns the release transaction id.
func (s *Strataman) SubmitRelease(ctx context.Context, txId, recipient, amount, attestation string) (string, error) {
	url := s.apiURL + "/v2/releases"

	payload, err := json.Marshal(&releaseRequest{
		TxId:        txId,
		Recipient:   recipient,
		Amount:      amount,
		Attestation: attestation,
	})
	if err != nil {
		return "", retrier.Fatal(fmt.Errorf("encode release request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", retrier.Fatal(fmt.Errorf("build release request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("release request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read release response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", retrier.NewStatusError(resp.StatusCode, "release submission for %s", txId)
	}

	var rr releaseResponse
	if err := json.Unmarshal(body, &rr); err != nil {
		return "", retrier.Fatal(fmt.Errorf("decode release response: %w", err))
	}
	if rr.TxId == "" {
		return "", retrier.Fatal(fmt.Errorf("release submission for %s returned no txid", txId))
	}
	return rr.TxId, nil
}

// CoversExpected reports whether balance covers the expected decimal-string
// amount. Comparison is arbitrary precision; expected must parse.
func CoversExpected(balance *big.Int, expected string) (bool, error) {
	want, err := common.ParseAmount(expected)
	if err != nil {
		return false, err
	}
	return balance.Cmp(want) >= 0, nil
}

func (s *Strataman) get(ctx context.Context, url string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, retrier.Fatal(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("strata api request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("read strata api response: %w", err)
	}
	return body, resp.StatusCode, nil
}
