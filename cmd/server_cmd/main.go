package main

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/HexBridge-io/relayer-go/cmd"
	"github.com/HexBridge-io/relayer-go/logconfig"
)

const (
	ENV_CONFIG_FILE_PATH = "RELAYER_CONFIG"
)

func main() {
	logconfig.ConfigProductionLogger()

	// Tool to read environment variables
	viper.AutomaticEnv()

	// Accessing an environment variable of configuration file location.
	_config_file := viper.GetString(ENV_CONFIG_FILE_PATH)
	fmt.Printf("Relayer server configuration file = %s\n", _config_file)

	// See if file exists
	if !cmd.FileExists(_config_file) {
		fmt.Printf("Relayer server configuration file not found: %s\n", _config_file)
		return
	}

	// Read from config file.
	if !initializeViper(_config_file) {
		return
	}

	// Make the configuration
	rsc := PrepareRelayerServerConfig()

	fmt.Println("Starting relayer server... press Ctrl+C to kill the server")
	// Start server and block.
	cmd.StartRelayerServerAndWait(rsc)
}

func initializeViper(filePath string) bool {
	viper.SetConfigFile(filePath)
	if err := viper.ReadInConfig(); err != nil {
		fmt.Printf("Error reading configuration file, %s", err)
		return false
	}
	return true
}

// PrepareRelayerServerConfig reads configuration variables and returns a RelayerServerConfig.
func PrepareRelayerServerConfig() *cmd.RelayerServerConfig {
	return &cmd.RelayerServerConfig{
		// eth side
		EthRpcUrl:          viper.GetString("ETH_RPC_URL"),
		EthCoreAccountPriv: viper.GetString("ETH_CORE_ACCOUNT_PRIV"),
		BridgeContractAddr: viper.GetString("BRIDGE_CONTRACT_ADDR"),
		EthChainId:         viper.GetInt64("ETH_CHAIN_ID"),
		// strata side
		StrataApiUrl:        viper.GetString("STRATA_API_URL"),
		StrataTokenContract: viper.GetString("STRATA_TOKEN_CONTRACT"),
		VaultAddress:        viper.GetString("VAULT_ADDRESS"),
		// attestation service
		AttestationApiUrl: viper.GetString("ATTESTATION_API_URL"),
		// persistence
		QueueFilePath: viper.GetString("QUEUE_FILE_PATH"),
		DbFilePath:    viper.GetString("DB_FILE_PATH"),
		// scheduler
		TickIntervalSec:       viper.GetInt64("TICK_INTERVAL_SEC"),
		TransactionTimeoutSec: viper.GetInt64("TRANSACTION_TIMEOUT_SEC"),
		MaxRetries:            viper.GetInt("MAX_RETRIES"),
		DepositProofMode:      viper.GetString("DEPOSIT_PROOF_MODE"),
		MinSignerBalanceWei:   viper.GetString("MIN_SIGNER_BALANCE_WEI"),
		// Http side
		HttpIp:   viper.GetString("HTTP_IP"),
		HttpPort: viper.GetString("HTTP_PORT"),
	}
}
