// Package store contains the GORM-backed SQLite models of the bridge coordinator
// and the Repo used to access them inside one transaction.
//
// Database Structure (database file: pbridge.db):
//
//	params                 quorum policy and flood-window counters (single row)
//	admins                 registry administrators
//	oracles                oracle registry, ordered by position
//	submissions            per-id confirmation accumulator (transfers and asset deploys)
//	votes                  one row per (submission, oracle)
//	blocked_submissions    deny list
//	used_submissions       consumed submission ids
//	amount_thresholds      per-debridge excess-tier amount thresholds
//	assets                 debridge id -> native / wrapped token binding
//	deploy_infos           asset metadata keyed by deploy id
//	orders                 order ledger
//	maker_nonces           next order nonce per maker
//	balances               escrow book
//
// Ids and hashes are stored as 0x-prefixed hex, amounts as base-10 strings.
package store

import "time"

// ParamsRowID is the primary key of the only Params row.
const ParamsRowID = 1

// Params holds the quorum policy, oracle counters and the flood window.
type Params struct {
	ID                    uint   `gorm:"primaryKey"`
	MinConfirmations      uint32 `gorm:"not null"`
	ConfirmationThreshold uint32 `gorm:"not null"` // confirmations per window above which excess applies
	ExcessConfirmations   uint32 `gorm:"not null"`
	ValidOraclesCount     uint32 `gorm:"not null"`
	RequiredOraclesCount  uint32 `gorm:"not null"`
	CurrentBlock          uint64 // flood window the counter below belongs to
	SubmissionsInBlock    uint32 // submissions confirmed in CurrentBlock
	UpdatedAt             time.Time
}

// Admin is a registry administrator.
type Admin struct {
	Address   string `gorm:"primaryKey"`
	CreatedAt time.Time
}

// Oracle is an attester. Oracles are never deleted, only marked invalid.
type Oracle struct {
	Address    string `gorm:"primaryKey"`
	Admin      string `gorm:"not null"`
	IsValid    bool
	IsRequired bool
	Position   uint64 `gorm:"uniqueIndex;not null"` // insertion order
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Submission accumulates confirmations for one submission or deploy id.
type Submission struct {
	ID               string `gorm:"primaryKey"`
	Kind             string `gorm:"index;not null"` // "submission" or "asset"
	Confirmations    uint32
	IsConfirmed      bool `gorm:"index"`
	ConfirmedAtBlock uint64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Vote records that an oracle confirmed a submission.
type Vote struct {
	SubmissionID string `gorm:"primaryKey"`
	Oracle       string `gorm:"primaryKey"`
	CreatedAt    time.Time
}

// BlockedSubmission is a deny-listed submission id.
type BlockedSubmission struct {
	SubmissionID string `gorm:"primaryKey"`
	CreatedAt    time.Time
}

// UsedSubmission marks a submission id as consumed. The primary key makes a
// second insert for the same id impossible.
type UsedSubmission struct {
	SubmissionID string `gorm:"primaryKey"`
	CreatedAt    time.Time
}

// AmountThreshold is the amount from which transfers of a debridge id need
// the excess confirmation tier.
type AmountThreshold struct {
	DebridgeID string `gorm:"primaryKey"`
	Amount     string `gorm:"type:text;not null"`
	UpdatedAt  time.Time
}

// Asset binds a debridge id to its native token and, once deployed, its wrapped token.
type Asset struct {
	DebridgeID   string `gorm:"primaryKey"`
	ChainID      uint64 `gorm:"not null"`
	NativeToken  string `gorm:"not null"`
	WrappedToken string // empty until deployed
	DeployID     string `gorm:"index"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DeployInfo is the metadata oracles confirm before a wrapped asset is deployed.
type DeployInfo struct {
	DeployID    string `gorm:"primaryKey"`
	DebridgeID  string `gorm:"index;not null"`
	ChainID     uint64 `gorm:"not null"`
	NativeToken string `gorm:"not null"`
	Name        string
	Symbol      string
	Decimals    uint8
	CreatedAt   time.Time
}

// Order is an escrowed swap intent and its settlement state.
type Order struct {
	ID                          string `gorm:"primaryKey"`
	MakerOrderNonce             uint64 `gorm:"index:idx_maker_nonce"`
	MakerSrc                    string `gorm:"index:idx_maker_nonce"`
	GiveChainID                 uint64
	GiveToken                   string
	GiveAmountOriginal          string `gorm:"type:text"` // amount committed to by the order id
	TakeChainID                 uint64
	TakeToken                   string
	TakeAmount                  string `gorm:"type:text"`
	ReceiverDst                 string
	GivePatchAuthoritySrc       string
	OrderAuthorityAddressDst    string
	AllowedTakerDst             string
	AllowedCancelBeneficiarySrc string
	ExternalCall                string `gorm:"type:text"`

	Status        string `gorm:"index;not null"` // "CREATED", "CLAIMED_UNLOCK", "CLAIMED_CANCEL"
	GiveAmount    string `gorm:"type:text"`      // escrowed amount after fees
	FixFee        string `gorm:"type:text"`
	PercentFee    string `gorm:"type:text"`
	AffiliateFee  string `gorm:"type:text"`
	AffiliateTo   string
	AffiliatePaid bool
	ClaimedBy     string // submission id that settled the order
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// MakerNonce is the next nonce CreateOrder assigns to a maker.
type MakerNonce struct {
	Maker string `gorm:"primaryKey"`
	Nonce uint64
}

// Balance is one account's holding of one token in the escrow book.
type Balance struct {
	Token     string `gorm:"primaryKey"`
	Account   string `gorm:"primaryKey"`
	Amount    string `gorm:"type:text;not null"`
	UpdatedAt time.Time
}

// SchemaModels lists the structs auto-migrated into the database.
func SchemaModels() []any {
	return []any{
		&Params{},
		&Admin{},
		&Oracle{},
		&Submission{},
		&Vote{},
		&BlockedSubmission{},
		&UsedSubmission{},
		&AmountThreshold{},
		&Asset{},
		&DeployInfo{},
		&Order{},
		&MakerNonce{},
		&Balance{},
	}
}
