package store

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repoKey struct{}

// Repo gives typed access to the models through one *gorm.DB, normally a
// transaction opened by db.Transact. Lookups return (nil, nil) when the
// record does not exist.
type Repo struct {
	ctx context.Context
	tx  *gorm.DB
}

// NewRepo binds tx to ctx. The returned repo is reachable from Context().
func NewRepo(ctx context.Context, tx *gorm.DB) *Repo {
	r := &Repo{tx: tx.WithContext(ctx)}
	r.ctx = context.WithValue(ctx, repoKey{}, r)
	return r
}

// FromContext returns the repo of the transaction ctx belongs to.
func FromContext(ctx context.Context) (*Repo, bool) {
	r, ok := ctx.Value(repoKey{}).(*Repo)
	return r, ok
}

// Context carries the repo so collaborators can join the transaction.
func (r *Repo) Context() context.Context { return r.ctx }

// DB exposes the underlying handle.
func (r *Repo) DB() *gorm.DB { return r.tx }

func take[T any](tx *gorm.DB, what string, query string, args ...any) (*T, error) {
	var out T
	err := tx.Where(query, args...).Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load %s", what)
	}
	return &out, nil
}

func exists(tx *gorm.DB, model any, query string, args ...any) (bool, error) {
	var n int64
	if err := tx.Model(model).Where(query, args...).Count(&n).Error; err != nil {
		return false, errors.Wrap(err, "failed to count rows")
	}
	return n > 0, nil
}

// --- params and admins ---

func (r *Repo) GetParams() (*Params, error) {
	return take[Params](r.tx, "params", "id = ?", ParamsRowID)
}

func (r *Repo) SaveParams(p *Params) error {
	p.ID = ParamsRowID
	return errors.Wrap(r.tx.Save(p).Error, "failed to save params")
}

func (r *Repo) IsAdmin(addr string) (bool, error) {
	return exists(r.tx, &Admin{}, "address = ?", addr)
}

func (r *Repo) AddAdmin(addr string) error {
	err := r.tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&Admin{Address: addr}).Error
	return errors.Wrap(err, "failed to add admin")
}

func (r *Repo) ListAdmins() ([]Admin, error) {
	var out []Admin
	err := r.tx.Order("address asc").Find(&out).Error
	return out, errors.Wrap(err, "failed to list admins")
}

// --- oracles ---

func (r *Repo) FindOracle(addr string) (*Oracle, error) {
	return take[Oracle](r.tx, "oracle", "address = ?", addr)
}

func (r *Repo) ListOracles() ([]Oracle, error) {
	var out []Oracle
	err := r.tx.Order("position asc").Find(&out).Error
	return out, errors.Wrap(err, "failed to list oracles")
}

func (r *Repo) CreateOracle(o *Oracle) error {
	return errors.Wrap(r.tx.Create(o).Error, "failed to create oracle")
}

func (r *Repo) SaveOracle(o *Oracle) error {
	return errors.Wrap(r.tx.Save(o).Error, "failed to save oracle")
}

// NextOraclePosition returns one past the highest assigned position.
func (r *Repo) NextOraclePosition() (uint64, error) {
	var max uint64
	err := r.tx.Model(&Oracle{}).Select("COALESCE(MAX(position), 0)").Scan(&max).Error
	if err != nil {
		return 0, errors.Wrap(err, "failed to read oracle positions")
	}
	return max + 1, nil
}

// CountOracles returns the number of valid oracles and of valid required oracles.
func (r *Repo) CountOracles() (valid, required uint32, err error) {
	var v, q int64
	if err = r.tx.Model(&Oracle{}).Where("is_valid = ?", true).Count(&v).Error; err != nil {
		return 0, 0, errors.Wrap(err, "failed to count valid oracles")
	}
	if err = r.tx.Model(&Oracle{}).Where("is_valid = ? AND is_required = ?", true, true).Count(&q).Error; err != nil {
		return 0, 0, errors.Wrap(err, "failed to count required oracles")
	}
	return uint32(v), uint32(q), nil
}

// --- submissions and votes ---

func (r *Repo) FindSubmission(id string) (*Submission, error) {
	return take[Submission](r.tx, "submission", "id = ?", id)
}

func (r *Repo) SaveSubmission(s *Submission) error {
	return errors.Wrap(r.tx.Save(s).Error, "failed to save submission")
}

func (r *Repo) HasVote(submissionID, oracle string) (bool, error) {
	return exists(r.tx, &Vote{}, "submission_id = ? AND oracle = ?", submissionID, oracle)
}

func (r *Repo) CreateVote(v *Vote) error {
	return errors.Wrap(r.tx.Create(v).Error, "failed to record vote")
}

// ListVoters returns the oracles that voted on a submission, oldest first.
func (r *Repo) ListVoters(submissionID string) ([]string, error) {
	var out []string
	err := r.tx.Model(&Vote{}).
		Where("submission_id = ?", submissionID).
		Order("rowid asc").
		Pluck("oracle", &out).Error
	return out, errors.Wrap(err, "failed to list voters")
}

// CountMissingRequired counts valid required oracles without a vote on the submission.
func (r *Repo) CountMissingRequired(submissionID string) (int64, error) {
	voted := r.tx.Model(&Vote{}).Select("oracle").Where("submission_id = ?", submissionID)
	var n int64
	err := r.tx.Model(&Oracle{}).
		Where("is_valid = ? AND is_required = ?", true, true).
		Where("address NOT IN (?)", voted).
		Count(&n).Error
	return n, errors.Wrap(err, "failed to count missing required oracles")
}

// --- gate ---

func (r *Repo) IsBlocked(submissionID string) (bool, error) {
	return exists(r.tx, &BlockedSubmission{}, "submission_id = ?", submissionID)
}

func (r *Repo) SetBlocked(submissionID string, blocked bool) error {
	if blocked {
		err := r.tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&BlockedSubmission{SubmissionID: submissionID}).Error
		return errors.Wrap(err, "failed to block submission")
	}
	err := r.tx.Where("submission_id = ?", submissionID).Delete(&BlockedSubmission{}).Error
	return errors.Wrap(err, "failed to unblock submission")
}

func (r *Repo) IsUsed(submissionID string) (bool, error) {
	return exists(r.tx, &UsedSubmission{}, "submission_id = ?", submissionID)
}

// MarkUsed inserts the used marker and reports false if it already existed.
func (r *Repo) MarkUsed(submissionID string) (bool, error) {
	res := r.tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&UsedSubmission{SubmissionID: submissionID})
	if res.Error != nil {
		return false, errors.Wrap(res.Error, "failed to mark submission used")
	}
	return res.RowsAffected == 1, nil
}

func (r *Repo) FindAmountThreshold(debridgeID string) (*AmountThreshold, error) {
	return take[AmountThreshold](r.tx, "amount threshold", "debridge_id = ?", debridgeID)
}

func (r *Repo) SaveAmountThreshold(t *AmountThreshold) error {
	return errors.Wrap(r.tx.Save(t).Error, "failed to save amount threshold")
}

// --- assets ---

func (r *Repo) FindAsset(debridgeID string) (*Asset, error) {
	return take[Asset](r.tx, "asset", "debridge_id = ?", debridgeID)
}

func (r *Repo) SaveAsset(a *Asset) error {
	return errors.Wrap(r.tx.Save(a).Error, "failed to save asset")
}

func (r *Repo) FindDeployInfo(deployID string) (*DeployInfo, error) {
	return take[DeployInfo](r.tx, "deploy info", "deploy_id = ?", deployID)
}

func (r *Repo) CreateDeployInfo(d *DeployInfo) error {
	err := r.tx.Clauses(clause.OnConflict{DoNothing: true}).Create(d).Error
	return errors.Wrap(err, "failed to save deploy info")
}

// --- orders ---

func (r *Repo) FindOrder(id string) (*Order, error) {
	return take[Order](r.tx, "order", "id = ?", id)
}

func (r *Repo) CreateOrder(o *Order) error {
	return errors.Wrap(r.tx.Create(o).Error, "failed to create order")
}

// UpdateOrderIfStatus applies updates only while the order is in status from.
// It returns the number of rows changed.
func (r *Repo) UpdateOrderIfStatus(id, from string, updates map[string]any) (int64, error) {
	res := r.tx.Model(&Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return 0, errors.Wrap(res.Error, "failed to update order")
	}
	return res.RowsAffected, nil
}

// MarkAffiliatePaid flips the paid flag once and reports whether it did.
func (r *Repo) MarkAffiliatePaid(id string) (bool, error) {
	res := r.tx.Model(&Order{}).
		Where("id = ? AND affiliate_paid = ?", id, false).
		Update("affiliate_paid", true)
	if res.Error != nil {
		return false, errors.Wrap(res.Error, "failed to mark affiliate fee paid")
	}
	return res.RowsAffected == 1, nil
}

func (r *Repo) GetMakerNonce(maker string) (uint64, error) {
	n, err := take[MakerNonce](r.tx, "maker nonce", "maker = ?", maker)
	if err != nil || n == nil {
		return 0, err
	}
	return n.Nonce, nil
}

func (r *Repo) SetMakerNonce(maker string, nonce uint64) error {
	return errors.Wrap(r.tx.Save(&MakerNonce{Maker: maker, Nonce: nonce}).Error, "failed to save maker nonce")
}

// --- escrow book ---

// GetBalance returns the stored amount, or "0" when the account holds nothing.
func (r *Repo) GetBalance(token, account string) (string, error) {
	b, err := take[Balance](r.tx, "balance", "token = ? AND account = ?", token, account)
	if err != nil {
		return "", err
	}
	if b == nil {
		return "0", nil
	}
	return b.Amount, nil
}

func (r *Repo) SetBalance(token, account, amount string) error {
	err := r.tx.Save(&Balance{Token: token, Account: account, Amount: amount}).Error
	return errors.Wrap(err, "failed to save balance")
}
