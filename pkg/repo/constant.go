package repo

const (
	AppName = "CoordinatorSettle"

	// CfgFileName is the default config name
	CfgFileName = "config.toml"

	// defaultRepoRoot is the path to the default config dir location.
	defaultRepoRoot = "~/.coordinator-settle"

	// rootPathEnvVar is the environment variable used to change the path root.
	rootPathEnvVar = "COORDINATOR_SETTLE_PATH"

	envPrefix = "COORDINATOR_SETTLE"

	pidFileName = "running.pid"

	LogsDirName = "logs"

	StorageDirName = "storage"
)

const (
	CommitmentProcessed = "processed"
	CommitmentConfirmed = "confirmed"
	CommitmentFinalized = "finalized"

	BackoffFixed       = "fixed"
	BackoffFibonacci   = "fibonacci"
	BackoffExponential = "exponential"

	// MemoProgramID is the SPL memo program (v2).
	MemoProgramID = "MemoSq4gqABAXKb96qnH8TysNcWxMyWCqXgDLGmfcHr"

	// SquadsProgramID is the Squads v4 multisig program.
	SquadsProgramID = "SQDS4ep65T869zMMBKyuUq6aD6EgTu8psMjkvj52pCf"

	DefaultProposalURLFormat = "https://app.squads.so/squads/%s/transactions/%s"

	DefaultMemoMarker = "Memo (len"
)

const (
	KVStorageTypeLeveldb = "leveldb"
	KVStorageTypeMemory  = "memory"
)
