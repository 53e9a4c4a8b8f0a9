package mintledger

// One row per submitted destination transaction, keyed by the proof
// identifier (message hash for attested deposits, source tx hash for
// balance-proven ones). The primary key is what makes re-submission of an
// already-minted proof impossible across restarts.
var submittedMintTable = `CREATE TABLE IF NOT EXISTS submittedMint (
	proofId VARCHAR(80) PRIMARY KEY NOT NULL,
	txId VARCHAR(80) NOT NULL,
	destTxHash VARCHAR(80) NOT NULL,
	submittedAt INTEGER NOT NULL,
	CONSTRAINT chk_proofId CHECK (proofId != ''),
	CONSTRAINT chk_destTxHash CHECK (destTxHash != '')
);`
