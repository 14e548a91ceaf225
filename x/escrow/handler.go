package escrow

import (
	"bytes"
	"crypto/sha256"

	"github.com/tendermint/tendermint/libs/common"

	"github.com/cipherlock/cipherlock"
	"github.com/cipherlock/cipherlock/errors"
	"github.com/cipherlock/cipherlock/orm"
	"github.com/cipherlock/cipherlock/x"
	"github.com/cipherlock/cipherlock/x/cash"
)

const (
	// pay job creation cost up-front
	createJobCost  int64 = 300
	mutateJobCost  int64 = 50
	settlementCost int64 = 0
)

// RegisterRoutes will instantiate and register all handlers in this
// package.
func RegisterRoutes(r cipherlock.Registry, auth x.Authenticator, ctrl cash.Controller) {
	bucket := NewBucket()

	r.Handle(CreateJobMsg{}.Path(), CreateJobHandler{auth, bucket, ctrl})
	r.Handle(CancelJobMsg{}.Path(), CancelJobHandler{auth, bucket, ctrl})
	r.Handle(AcceptJobMsg{}.Path(), AcceptJobHandler{auth, bucket, ctrl})
	r.Handle(SubmitCommitMsg{}.Path(), SubmitCommitHandler{auth, bucket})
	r.Handle(RevealKeyMsg{}.Path(), RevealKeyHandler{auth, bucket})
	r.Handle(ReleasePaymentMsg{}.Path(), ReleasePaymentHandler{auth, bucket, ctrl})
	r.Handle(AutoReleaseMsg{}.Path(), AutoReleaseHandler{auth, bucket, ctrl})
	r.Handle(RefundNoCommitMsg{}.Path(), RefundNoCommitHandler{auth, bucket, ctrl})
}

// RegisterQuery will register the job bucket as "/jobs".
func RegisterQuery(qr cipherlock.QueryRouter) {
	NewBucket().Register("jobs", qr)
}

// HashKey computes the commitment digest of a decryption key.
func HashKey(key []byte) []byte {
	h := sha256.Sum256(key)
	return h[:]
}

// CreateJobHandler opens a new job and takes the payment into custody.
type CreateJobHandler struct {
	auth   x.Authenticator
	bucket orm.ModelBucket
	ctrl   cash.Controller
}

var _ cipherlock.Handler = CreateJobHandler{}

func (h CreateJobHandler) Check(ctx cipherlock.Context, db cipherlock.KVStore, tx cipherlock.Tx) (*cipherlock.CheckResult, error) {
	if _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &cipherlock.CheckResult{GasAllocated: createJobCost}, nil
}

func (h CreateJobHandler) Deliver(ctx cipherlock.Context, db cipherlock.KVStore, tx cipherlock.Tx) (*cipherlock.DeliverResult, error) {
	msg, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}

	key, err := jobSeq.NextVal(db)
	if err != nil {
		return nil, errors.Wrap(err, "cannot acquire job id")
	}

	job := &Job{
		Client:         msg.Client,
		Amount:         msg.Amount,
		CommitDeadline: msg.CommitDeadline,
		Deadline:       msg.Deadline,
		State:          JobStateCreated,
		Address:        JobCondition(key).Address(),
	}
	if _, err := h.bucket.Put(db, key, job); err != nil {
		return nil, errors.Wrap(err, "cannot store job")
	}

	// Deposit to the custody account.
	if err := h.ctrl.MoveCoins(db, job.Client, job.Address, msg.Amount); err != nil {
		return nil, errors.Wrapf(ErrNoFunds, "cannot fund job: %s", err)
	}

	res := &cipherlock.DeliverResult{
		Data: key,
		Tags: []common.KVPair{
			{Key: []byte("action"), Value: []byte("job_created")},
			{Key: []byte("client"), Value: []byte(job.Client.String())},
		},
	}
	return res, nil
}

func (h CreateJobHandler) validate(ctx cipherlock.Context, db cipherlock.KVStore, tx cipherlock.Tx) (*CreateJobMsg, error) {
	var msg CreateJobMsg
	if err := cipherlock.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}

	// Both deadlines must be strictly in the future.
	if cipherlock.IsExpired(ctx, msg.CommitDeadline) {
		return nil, errors.Wrap(ErrInvalidDeadline, "commit deadline not in the future")
	}
	if cipherlock.IsExpired(ctx, msg.Deadline) {
		return nil, errors.Wrap(ErrInvalidDeadline, "deadline not in the future")
	}

	if !h.auth.HasAddress(ctx, msg.Client) {
		return nil, errors.Wrap(errors.ErrUnauthorized, "client signature missing")
	}

	return &msg, nil
}

// CancelJobHandler refunds the client of a job that no freelancer
// accepted yet.
type CancelJobHandler struct {
	auth   x.Authenticator
	bucket orm.ModelBucket
	ctrl   cash.Controller
}

var _ cipherlock.Handler = CancelJobHandler{}

func (h CancelJobHandler) Check(ctx cipherlock.Context, db cipherlock.KVStore, tx cipherlock.Tx) (*cipherlock.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &cipherlock.CheckResult{GasAllocated: settlementCost}, nil
}

func (h CancelJobHandler) Deliver(ctx cipherlock.Context, db cipherlock.KVStore, tx cipherlock.Tx) (*cipherlock.DeliverResult, error) {
	msg, job, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}

	if err := settle(db, h.bucket, h.ctrl, msg.JobID, job, JobStateCancelled, job.Client); err != nil {
		return nil, err
	}

	res := &cipherlock.DeliverResult{
		Tags: []common.KVPair{
			{Key: []byte("action"), Value: []byte("job_cancelled")},
		},
	}
	return res, nil
}

func (h CancelJobHandler) validate(ctx cipherlock.Context, db cipherlock.KVStore, tx cipherlock.Tx) (*CancelJobMsg, *Job, error) {
	var msg CancelJobMsg
	if err := cipherlock.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	job, err := loadJob(h.bucket, db, msg.JobID)
	if err != nil {
		return nil, nil, err
	}

	if !h.auth.HasAddress(ctx, job.Client) {
		return nil, nil, errors.Wrap(errors.ErrUnauthorized, "only the client can cancel")
	}
	if job.State.Terminal() {
		return nil, nil, errors.Wrapf(ErrAlreadyReleased, "job is %s", job.State)
	}
	if job.State != JobStateCreated {
		return nil, nil, errors.Wrapf(ErrAlreadyAccepted, "job is %s", job.State)
	}

	return &msg, job, nil
}

// AcceptJobHandler binds a freelancer to a job.
type AcceptJobHandler struct {
	auth   x.Authenticator
	bucket orm.ModelBucket
	ctrl   cash.Controller
}

var _ cipherlock.Handler = AcceptJobHandler{}

func (h AcceptJobHandler) Check(ctx cipherlock.Context, db cipherlock.KVStore, tx cipherlock.Tx) (*cipherlock.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &cipherlock.CheckResult{GasAllocated: mutateJobCost}, nil
}

func (h AcceptJobHandler) Deliver(ctx cipherlock.Context, db cipherlock.KVStore, tx cipherlock.Tx) (*cipherlock.DeliverResult, error) {
	msg, job, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}

	job.Freelancer = msg.Freelancer
	job.State = JobStateAccepted
	if _, err := h.bucket.Put(db, msg.JobID, job); err != nil {
		return nil, errors.Wrap(err, "cannot store job")
	}

	res := &cipherlock.DeliverResult{
		Tags: []common.KVPair{
			{Key: []byte("action"), Value: []byte("job_accepted")},
			{Key: []byte("freelancer"), Value: []byte(job.Freelancer.String())},
		},
	}
	return res, nil
}

func (h AcceptJobHandler) validate(ctx cipherlock.Context, db cipherlock.KVStore, tx cipherlock.Tx) (*AcceptJobMsg, *Job, error) {
	var msg AcceptJobMsg
	if err := cipherlock.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	job, err := loadJob(h.bucket, db, msg.JobID)
	if err != nil {
		return nil, nil, err
	}

	if !h.auth.HasAddress(ctx, msg.Freelancer) {
		return nil, nil, errors.Wrap(errors.ErrUnauthorized, "freelancer signature missing")
	}
	if msg.Freelancer.Equals(job.Client) {
		return nil, nil, errors.Wrap(errors.ErrUnauthorized, "client cannot accept own job")
	}
	if job.State.Terminal() {
		return nil, nil, errors.Wrapf(ErrAlreadyReleased, "job is %s", job.State)
	}
	if job.State != JobStateCreated {
		return nil, nil, errors.Wrapf(ErrAlreadyAccepted, "job is %s", job.State)
	}

	// The custody account must hold the full amount.
	balance, err := h.ctrl.Balance(db, job.Address)
	if err != nil || !balance.Contains(job.Amount) {
		return nil, nil, errors.Wrapf(ErrNotFunded, "custody of job %X", msg.JobID)
	}

	return &msg, job, nil
}

// SubmitCommitHandler records the commitment to the deliverable and the
// decryption key. No funds move.
type SubmitCommitHandler struct {
	auth   x.Authenticator
	bucket orm.ModelBucket
}

var _ cipherlock.Handler = SubmitCommitHandler{}

func (h SubmitCommitHandler) Check(ctx cipherlock.Context, db cipherlock.KVStore, tx cipherlock.Tx) (*cipherlock.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &cipherlock.CheckResult{GasAllocated: mutateJobCost}, nil
}

func (h SubmitCommitHandler) Deliver(ctx cipherlock.Context, db cipherlock.KVStore, tx cipherlock.Tx) (*cipherlock.DeliverResult, error) {
	msg, job, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}

	job.EncryptedHash = msg.EncryptedHash
	job.KeyHash = msg.KeyHash
	job.FileReference = msg.FileReference
	job.State = JobStateCommitted
	if _, err := h.bucket.Put(db, msg.JobID, job); err != nil {
		return nil, errors.Wrap(err, "cannot store job")
	}

	res := &cipherlock.DeliverResult{
		Tags: []common.KVPair{
			{Key: []byte("action"), Value: []byte("commit_submitted")},
		},
	}
	return res, nil
}

func (h SubmitCommitHandler) validate(ctx cipherlock.Context, db cipherlock.KVStore, tx cipherlock.Tx) (*SubmitCommitMsg, *Job, error) {
	var msg SubmitCommitMsg
	if err := cipherlock.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	job, err := loadJob(h.bucket, db, msg.JobID)
	if err != nil {
		return nil, nil, err
	}

	if job.Freelancer == nil || !h.auth.HasAddress(ctx, job.Freelancer) {
		return nil, nil, errors.Wrap(errors.ErrUnauthorized, "only the freelancer can commit")
	}
	if job.State.Terminal() {
		return nil, nil, errors.Wrapf(ErrAlreadyReleased, "job is %s", job.State)
	}
	if job.State != JobStateAccepted {
		return nil, nil, errors.Wrapf(ErrAlreadyCommitted, "job is %s", job.State)
	}
	// A commit at the deadline is already too late.
	if cipherlock.IsExpired(ctx, job.CommitDeadline) {
		return nil, nil, errors.Wrapf(ErrDeadlinePassed, "commit deadline %s", job.CommitDeadline)
	}

	return &msg, job, nil
}

// RevealKeyHandler proves the freelancer knows a key matching the
// commitment. No funds move.
type RevealKeyHandler struct {
	auth   x.Authenticator
	bucket orm.ModelBucket
}

var _ cipherlock.Handler = RevealKeyHandler{}

func (h RevealKeyHandler) Check(ctx cipherlock.Context, db cipherlock.KVStore, tx cipherlock.Tx) (*cipherlock.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &cipherlock.CheckResult{GasAllocated: mutateJobCost}, nil
}

func (h RevealKeyHandler) Deliver(ctx cipherlock.Context, db cipherlock.KVStore, tx cipherlock.Tx) (*cipherlock.DeliverResult, error) {
	msg, job, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}

	job.State = JobStateRevealed
	if _, err := h.bucket.Put(db, msg.JobID, job); err != nil {
		return nil, errors.Wrap(err, "cannot store job")
	}

	res := &cipherlock.DeliverResult{
		Tags: []common.KVPair{
			{Key: []byte("action"), Value: []byte("key_revealed")},
		},
	}
	return res, nil
}

func (h RevealKeyHandler) validate(ctx cipherlock.Context, db cipherlock.KVStore, tx cipherlock.Tx) (*RevealKeyMsg, *Job, error) {
	var msg RevealKeyMsg
	if err := cipherlock.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	job, err := loadJob(h.bucket, db, msg.JobID)
	if err != nil {
		return nil, nil, err
	}

	if job.Freelancer == nil || !h.auth.HasAddress(ctx, job.Freelancer) {
		return nil, nil, errors.Wrap(errors.ErrUnauthorized, "only the freelancer can reveal")
	}
	if job.State.Terminal() {
		return nil, nil, errors.Wrapf(ErrAlreadyReleased, "job is %s", job.State)
	}
	switch job.State {
	case JobStateCommitted:
		// The only state a reveal is valid in.
	case JobStateRevealed:
		return nil, nil, ErrAlreadyRevealed
	default:
		return nil, nil, errors.Wrapf(ErrNoCommit, "job is %s", job.State)
	}
	if !bytes.Equal(HashKey(msg.Key), job.KeyHash) {
		return nil, nil, ErrInvalidKey
	}

	return &msg, job, nil
}

// ReleasePaymentHandler pays the freelancer on the client's request
// after a proven reveal.
type ReleasePaymentHandler struct {
	auth   x.Authenticator
	bucket orm.ModelBucket
	ctrl   cash.Controller
}

var _ cipherlock.Handler = ReleasePaymentHandler{}

func (h ReleasePaymentHandler) Check(ctx cipherlock.Context, db cipherlock.KVStore, tx cipherlock.Tx) (*cipherlock.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &cipherlock.CheckResult{GasAllocated: settlementCost}, nil
}

func (h ReleasePaymentHandler) Deliver(ctx cipherlock.Context, db cipherlock.KVStore, tx cipherlock.Tx) (*cipherlock.DeliverResult, error) {
	msg, job, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}

	if err := settle(db, h.bucket, h.ctrl, msg.JobID, job, JobStateReleased, job.Freelancer); err != nil {
		return nil, err
	}

	res := &cipherlock.DeliverResult{
		Tags: []common.KVPair{
			{Key: []byte("action"), Value: []byte("payment_released")},
		},
	}
	return res, nil
}

func (h ReleasePaymentHandler) validate(ctx cipherlock.Context, db cipherlock.KVStore, tx cipherlock.Tx) (*ReleasePaymentMsg, *Job, error) {
	var msg ReleasePaymentMsg
	if err := cipherlock.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	job, err := loadJob(h.bucket, db, msg.JobID)
	if err != nil {
		return nil, nil, err
	}

	if !h.auth.HasAddress(ctx, job.Client) {
		return nil, nil, errors.Wrap(errors.ErrUnauthorized, "only the client can release")
	}
	if err := ensureRevealed(job); err != nil {
		return nil, nil, err
	}

	return &msg, job, nil
}

// AutoReleaseHandler pays the freelancer on its own request once the
// final deadline elapsed without a cooperative release.
type AutoReleaseHandler struct {
	auth   x.Authenticator
	bucket orm.ModelBucket
	ctrl   cash.Controller
}

var _ cipherlock.Handler = AutoReleaseHandler{}

func (h AutoReleaseHandler) Check(ctx cipherlock.Context, db cipherlock.KVStore, tx cipherlock.Tx) (*cipherlock.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &cipherlock.CheckResult{GasAllocated: settlementCost}, nil
}

func (h AutoReleaseHandler) Deliver(ctx cipherlock.Context, db cipherlock.KVStore, tx cipherlock.Tx) (*cipherlock.DeliverResult, error) {
	msg, job, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}

	if err := settle(db, h.bucket, h.ctrl, msg.JobID, job, JobStateReleased, job.Freelancer); err != nil {
		return nil, err
	}

	res := &cipherlock.DeliverResult{
		Tags: []common.KVPair{
			{Key: []byte("action"), Value: []byte("payment_released")},
		},
	}
	return res, nil
}

func (h AutoReleaseHandler) validate(ctx cipherlock.Context, db cipherlock.KVStore, tx cipherlock.Tx) (*AutoReleaseMsg, *Job, error) {
	var msg AutoReleaseMsg
	if err := cipherlock.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	job, err := loadJob(h.bucket, db, msg.JobID)
	if err != nil {
		return nil, nil, err
	}

	if job.Freelancer == nil || !h.auth.HasAddress(ctx, job.Freelancer) {
		return nil, nil, errors.Wrap(errors.ErrUnauthorized, "only the freelancer can auto release")
	}
	if err := ensureRevealed(job); err != nil {
		return nil, nil, err
	}
	// Strictly past the deadline. At the deadline the client can still
	// release cooperatively.
	if !cipherlock.InThePast(ctx, job.Deadline) {
		return nil, nil, errors.Wrapf(ErrDeadlineNotReached, "deadline %s", job.Deadline)
	}

	return &msg, job, nil
}

// RefundNoCommitHandler refunds the client once the commit deadline
// elapsed without a commitment.
type RefundNoCommitHandler struct {
	auth   x.Authenticator
	bucket orm.ModelBucket
	ctrl   cash.Controller
}

var _ cipherlock.Handler = RefundNoCommitHandler{}

func (h RefundNoCommitHandler) Check(ctx cipherlock.Context, db cipherlock.KVStore, tx cipherlock.Tx) (*cipherlock.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &cipherlock.CheckResult{GasAllocated: settlementCost}, nil
}

func (h RefundNoCommitHandler) Deliver(ctx cipherlock.Context, db cipherlock.KVStore, tx cipherlock.Tx) (*cipherlock.DeliverResult, error) {
	msg, job, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}

	if err := settle(db, h.bucket, h.ctrl, msg.JobID, job, JobStateRefunded, job.Client); err != nil {
		return nil, err
	}

	res := &cipherlock.DeliverResult{
		Tags: []common.KVPair{
			{Key: []byte("action"), Value: []byte("job_refunded")},
		},
	}
	return res, nil
}

func (h RefundNoCommitHandler) validate(ctx cipherlock.Context, db cipherlock.KVStore, tx cipherlock.Tx) (*RefundNoCommitMsg, *Job, error) {
	var msg RefundNoCommitMsg
	if err := cipherlock.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	job, err := loadJob(h.bucket, db, msg.JobID)
	if err != nil {
		return nil, nil, err
	}

	if !h.auth.HasAddress(ctx, job.Client) {
		return nil, nil, errors.Wrap(errors.ErrUnauthorized, "only the client can refund")
	}
	if job.State.Terminal() {
		return nil, nil, errors.Wrapf(ErrAlreadyReleased, "job is %s", job.State)
	}
	if job.State == JobStateCommitted || job.State == JobStateRevealed {
		return nil, nil, errors.Wrapf(ErrAlreadyCommitted, "job is %s", job.State)
	}
	// Strictly past the commit deadline. At the deadline a commit is
	// rejected already, but the refund window is not yet open.
	if !cipherlock.InThePast(ctx, job.CommitDeadline) {
		return nil, nil, errors.Wrapf(ErrCommitDeadlineNotReached, "commit deadline %s", job.CommitDeadline)
	}

	return &msg, job, nil
}

// ensureRevealed fails unless the job sits in the one state a payout is
// valid in.
func ensureRevealed(job *Job) error {
	if job.State.Terminal() {
		return errors.Wrapf(ErrAlreadyReleased, "job is %s", job.State)
	}
	switch job.State {
	case JobStateRevealed:
		return nil
	case JobStateCommitted:
		return errors.Wrap(ErrKeyNotRevealed, "payout requires a proven reveal")
	default:
		return errors.Wrapf(ErrNoCommit, "job is %s", job.State)
	}
}

// settle writes the terminal state and then pays out the custodied
// amount. The state write precedes the transfer so a reentrant call
// observes the job as settled. A failed transfer surfaces as
// ErrTransferFailed and the caller's savepoint rolls the state write
// back.
func settle(db cipherlock.KVStore, bucket orm.ModelBucket, ctrl cash.Controller, jobID []byte, job *Job, state JobState, beneficiary cipherlock.Address) error {
	job.State = state
	if _, err := bucket.Put(db, jobID, job); err != nil {
		return errors.Wrap(err, "cannot store job")
	}
	if err := ctrl.MoveCoins(db, job.Address, beneficiary, job.Amount); err != nil {
		return errors.Wrapf(ErrTransferFailed, "payout of job %X: %s", jobID, err)
	}
	return nil
}

// loadJob returns the stored job or ErrNotFound.
func loadJob(bucket orm.ModelBucket, db cipherlock.ReadOnlyKVStore, jobID []byte) (*Job, error) {
	var job Job
	if err := bucket.One(db, jobID, &job); err != nil {
		return nil, errors.Wrapf(err, "job %X", jobID)
	}
	return &job, nil
}
