package escrow_test

import (
	"context"
	"testing"
	"time"

	"github.com/cipherlock/cipherlock"
	"github.com/cipherlock/cipherlock/app"
	"github.com/cipherlock/cipherlock/cipherlocktest"
	"github.com/cipherlock/cipherlock/cipherlocktest/assert"
	"github.com/cipherlock/cipherlock/coin"
	"github.com/cipherlock/cipherlock/errors"
	"github.com/cipherlock/cipherlock/orm"
	"github.com/cipherlock/cipherlock/store"
	"github.com/cipherlock/cipherlock/x"
	"github.com/cipherlock/cipherlock/x/cash"
	"github.com/cipherlock/cipherlock/x/escrow"
	"github.com/cipherlock/cipherlock/x/utils"
)

var blockNow = time.Now()

var (
	jobAmount = coin.NewCoin(100, 0, "IOV")
	theKey    = []byte("k")
)

// env wires the escrow routes against an in memory store, a real cash
// controller and a context based authenticator.
type env struct {
	t             *testing.T
	db            cipherlock.CacheableKVStore
	router        *app.Router
	authenticator *cipherlocktest.CtxAuth
	ctrl          cash.CashController
	bucket        orm.ModelBucket

	client     cipherlock.Condition
	freelancer cipherlock.Condition
	stranger   cipherlock.Condition
}

func newEnv(t *testing.T) *env {
	authenticator := &cipherlocktest.CtxAuth{Key: "auth"}
	auth := x.ChainAuth(authenticator)
	ctrl := cash.NewController(cash.NewBucket())
	r := app.NewRouter()
	escrow.RegisterRoutes(r, auth, ctrl)

	e := &env{
		t:             t,
		db:            store.MemStore(),
		router:        r,
		authenticator: authenticator,
		ctrl:          ctrl,
		bucket:        escrow.NewBucket(),
		client:        cipherlocktest.NewCondition(),
		freelancer:    cipherlocktest.NewCondition(),
		stranger:      cipherlocktest.NewCondition(),
	}
	// The client can afford one job.
	assert.Nil(t, ctrl.IssueCoins(e.db, e.client.Address(), jobAmount))
	return e
}

// at returns a context with the block time moved by offset from the
// creation time, authenticating the given signers.
func (e *env) at(offset time.Duration, signers ...cipherlock.Condition) cipherlock.Context {
	ctx := cipherlock.WithHeight(context.Background(), 100)
	ctx = cipherlock.WithBlockTime(ctx, blockNow.Add(offset))
	return e.authenticator.SetConditions(ctx, signers...)
}

func (e *env) deliver(ctx cipherlock.Context, msg cipherlock.Msg) (*cipherlock.DeliverResult, error) {
	e.t.Helper()
	return e.router.Deliver(ctx, e.db, &cipherlocktest.Tx{Msg: msg})
}

func (e *env) check(ctx cipherlock.Context, msg cipherlock.Msg) (*cipherlock.CheckResult, error) {
	e.t.Helper()
	return e.router.Check(ctx, e.db, &cipherlocktest.Tx{Msg: msg})
}

func (e *env) job(id []byte) *escrow.Job {
	e.t.Helper()
	var j escrow.Job
	assert.Nil(e.t, e.bucket.One(e.db, id, &j))
	return &j
}

func (e *env) balance(addr cipherlock.Address) coin.Coins {
	e.t.Helper()
	cs, err := e.ctrl.Balance(e.db, addr)
	assert.Nil(e.t, err)
	return cs
}

// createJob opens a job with the commit deadline 10s and the final
// deadline 20s after the creation time, mirroring the documented
// scenario timeline.
func (e *env) createJob() []byte {
	e.t.Helper()
	res, err := e.deliver(e.at(0, e.client), &escrow.CreateJobMsg{
		Client:         e.client.Address(),
		Amount:         jobAmount,
		CommitDeadline: cipherlock.AsUnixTime(blockNow).Add(10 * time.Second),
		Deadline:       cipherlock.AsUnixTime(blockNow).Add(20 * time.Second),
	})
	assert.Nil(e.t, err)
	return res.Data
}

func (e *env) acceptJob(id []byte) {
	e.t.Helper()
	_, err := e.deliver(e.at(time.Second, e.freelancer), &escrow.AcceptJobMsg{
		JobID:      id,
		Freelancer: e.freelancer.Address(),
	})
	assert.Nil(e.t, err)
}

func (e *env) submitCommit(id []byte) {
	e.t.Helper()
	_, err := e.deliver(e.at(5*time.Second, e.freelancer), &escrow.SubmitCommitMsg{
		JobID:         id,
		EncryptedHash: []byte("hash of the encrypted artifact"),
		KeyHash:       escrow.HashKey(theKey),
		FileReference: "s3://bucket/artifact",
	})
	assert.Nil(e.t, err)
}

func (e *env) revealKey(id []byte) {
	e.t.Helper()
	_, err := e.deliver(e.at(6*time.Second, e.freelancer), &escrow.RevealKeyMsg{
		JobID: id,
		Key:   theKey,
	})
	assert.Nil(e.t, err)
}

func TestCreateJob(t *testing.T) {
	deadlineAt := func(offset time.Duration) cipherlock.UnixTime {
		return cipherlock.AsUnixTime(blockNow).Add(offset)
	}

	cases := map[string]struct {
		signer  func(e *env) cipherlock.Condition
		mutator func(msg *escrow.CreateJobMsg)
		wantErr *errors.Error
	}{
		"happy path": {},
		"commit deadline after deadline": {
			mutator: func(msg *escrow.CreateJobMsg) {
				msg.CommitDeadline = deadlineAt(20 * time.Second)
				msg.Deadline = deadlineAt(10 * time.Second)
			},
			wantErr: escrow.ErrInvalidDeadline,
		},
		"commit deadline equals deadline": {
			mutator: func(msg *escrow.CreateJobMsg) {
				msg.CommitDeadline = msg.Deadline
			},
			wantErr: escrow.ErrInvalidDeadline,
		},
		"commit deadline not in the future": {
			mutator: func(msg *escrow.CreateJobMsg) {
				msg.CommitDeadline = deadlineAt(0)
			},
			wantErr: escrow.ErrInvalidDeadline,
		},
		"missing deadline": {
			mutator: func(msg *escrow.CreateJobMsg) {
				msg.Deadline = 0
				msg.CommitDeadline = 0
			},
			wantErr: escrow.ErrInvalidDeadline,
		},
		"zero amount": {
			mutator: func(msg *escrow.CreateJobMsg) {
				msg.Amount = coin.NewCoin(0, 0, "IOV")
			},
			wantErr: escrow.ErrNoFunds,
		},
		"negative amount": {
			mutator: func(msg *escrow.CreateJobMsg) {
				msg.Amount = coin.NewCoin(-4, 0, "IOV")
			},
			wantErr: escrow.ErrNoFunds,
		},
		"client signature missing": {
			signer:  func(e *env) cipherlock.Condition { return e.stranger },
			wantErr: errors.ErrUnauthorized,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			e := newEnv(t)
			msg := &escrow.CreateJobMsg{
				Client:         e.client.Address(),
				Amount:         jobAmount,
				CommitDeadline: deadlineAt(10 * time.Second),
				Deadline:       deadlineAt(20 * time.Second),
			}
			if tc.mutator != nil {
				tc.mutator(msg)
			}
			signer := e.client
			if tc.signer != nil {
				signer = tc.signer(e)
			}
			ctx := e.at(0, signer)

			if _, err := e.check(ctx, msg); !tc.wantErr.Is(err) {
				t.Fatalf("check: unexpected error: %+v", err)
			}
			res, err := e.deliver(ctx, msg)
			if !tc.wantErr.Is(err) {
				t.Fatalf("deliver: unexpected error: %+v", err)
			}
			if tc.wantErr != nil {
				return
			}

			assert.Equal(t, cipherlocktest.SequenceID(1), res.Data)
			job := e.job(res.Data)
			assert.Equal(t, escrow.JobStateCreated, job.State)
			assert.Equal(t, e.client.Address(), job.Client)
			if job.Freelancer != nil {
				t.Fatalf("freelancer bound at creation: %s", job.Freelancer)
			}
			// The full amount moved from the client into custody.
			if !e.balance(job.Address).Contains(jobAmount) {
				t.Fatal("custody account not funded")
			}
			if !e.balance(e.client.Address()).IsEmpty() {
				t.Fatal("client wallet not drained")
			}
		})
	}
}

func TestCreateJobWithoutFunds(t *testing.T) {
	e := newEnv(t)
	msg := &escrow.CreateJobMsg{
		Client:         e.client.Address(),
		Amount:         coin.NewCoin(500, 0, "IOV"),
		CommitDeadline: cipherlock.AsUnixTime(blockNow).Add(10 * time.Second),
		Deadline:       cipherlock.AsUnixTime(blockNow).Add(20 * time.Second),
	}

	_, err := e.deliver(e.at(0, e.client), msg)
	if !escrow.ErrNoFunds.Is(err) {
		t.Fatalf("unexpected error: %+v", err)
	}
}

func TestJobIDsAreSequential(t *testing.T) {
	e := newEnv(t)
	assert.Nil(t, e.ctrl.IssueCoins(e.db, e.client.Address(), jobAmount))

	first := e.createJob()
	second := e.createJob()
	assert.Equal(t, cipherlocktest.SequenceID(1), first)
	assert.Equal(t, cipherlocktest.SequenceID(2), second)
}

func TestAcceptJob(t *testing.T) {
	cases := map[string]struct {
		setup      func(e *env, id []byte)
		signer     func(e *env) cipherlock.Condition
		freelancer func(e *env) cipherlock.Address
		wantErr    *errors.Error
	}{
		"happy path": {},
		"client cannot accept own job": {
			signer:     func(e *env) cipherlock.Condition { return e.client },
			freelancer: func(e *env) cipherlock.Address { return e.client.Address() },
			wantErr:    errors.ErrUnauthorized,
		},
		"freelancer signature missing": {
			signer:  func(e *env) cipherlock.Condition { return e.stranger },
			wantErr: errors.ErrUnauthorized,
		},
		"any other identity may accept": {
			signer:     func(e *env) cipherlock.Condition { return e.stranger },
			freelancer: func(e *env) cipherlock.Address { return e.stranger.Address() },
		},
		"already accepted": {
			setup:   func(e *env, id []byte) { e.acceptJob(id) },
			wantErr: escrow.ErrAlreadyAccepted,
		},
		"cancelled job": {
			setup: func(e *env, id []byte) {
				_, err := e.deliver(e.at(time.Second, e.client), &escrow.CancelJobMsg{JobID: id})
				assert.Nil(e.t, err)
			},
			wantErr: escrow.ErrAlreadyReleased,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			e := newEnv(t)
			id := e.createJob()
			if tc.setup != nil {
				tc.setup(e, id)
			}
			signer := e.freelancer
			if tc.signer != nil {
				signer = tc.signer(e)
			}
			freelancer := e.freelancer.Address()
			if tc.freelancer != nil {
				freelancer = tc.freelancer(e)
			}
			msg := &escrow.AcceptJobMsg{JobID: id, Freelancer: freelancer}

			_, err := e.deliver(e.at(2*time.Second, signer), msg)
			if !tc.wantErr.Is(err) {
				t.Fatalf("unexpected error: %+v", err)
			}
			if tc.wantErr != nil {
				return
			}

			job := e.job(id)
			assert.Equal(t, escrow.JobStateAccepted, job.State)
			assert.Equal(t, freelancer, job.Freelancer)
		})
	}
}

func TestAcceptUnknownJob(t *testing.T) {
	e := newEnv(t)
	msg := &escrow.AcceptJobMsg{
		JobID:      cipherlocktest.SequenceID(42),
		Freelancer: e.freelancer.Address(),
	}
	_, err := e.deliver(e.at(0, e.freelancer), msg)
	if !errors.ErrNotFound.Is(err) {
		t.Fatalf("unexpected error: %+v", err)
	}
}

// TestCancelJob covers scenario A: before any acceptance the client
// cancels and is refunded in full.
func TestCancelJob(t *testing.T) {
	cases := map[string]struct {
		setup   func(e *env, id []byte)
		signer  func(e *env) cipherlock.Condition
		wantErr *errors.Error
	}{
		"happy path": {},
		"only the client": {
			signer:  func(e *env) cipherlock.Condition { return e.stranger },
			wantErr: errors.ErrUnauthorized,
		},
		"after acceptance": {
			setup:   func(e *env, id []byte) { e.acceptJob(id) },
			wantErr: escrow.ErrAlreadyAccepted,
		},
		"twice": {
			setup: func(e *env, id []byte) {
				_, err := e.deliver(e.at(time.Second, e.client), &escrow.CancelJobMsg{JobID: id})
				assert.Nil(e.t, err)
			},
			wantErr: escrow.ErrAlreadyReleased,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			e := newEnv(t)
			id := e.createJob()
			if tc.setup != nil {
				tc.setup(e, id)
			}
			signer := e.client
			if tc.signer != nil {
				signer = tc.signer(e)
			}

			_, err := e.deliver(e.at(2*time.Second, signer), &escrow.CancelJobMsg{JobID: id})
			if !tc.wantErr.Is(err) {
				t.Fatalf("unexpected error: %+v", err)
			}
			if tc.wantErr != nil {
				return
			}

			job := e.job(id)
			assert.Equal(t, escrow.JobStateCancelled, job.State)
			if !e.balance(e.client.Address()).Contains(jobAmount) {
				t.Fatal("client not refunded")
			}
			if !e.balance(job.Address).IsEmpty() {
				t.Fatal("custody account not drained")
			}
		})
	}
}

func TestSubmitCommit(t *testing.T) {
	commitMsg := func(id []byte) *escrow.SubmitCommitMsg {
		return &escrow.SubmitCommitMsg{
			JobID:         id,
			EncryptedHash: []byte("hash of the encrypted artifact"),
			KeyHash:       escrow.HashKey(theKey),
			FileReference: "s3://bucket/artifact",
		}
	}

	cases := map[string]struct {
		at      time.Duration
		signer  func(e *env) cipherlock.Condition
		setup   func(e *env, id []byte)
		wantErr *errors.Error
	}{
		"happy path before the deadline": {
			at: 5 * time.Second,
		},
		"exactly at the commit deadline": {
			at:      10 * time.Second,
			wantErr: escrow.ErrDeadlinePassed,
		},
		"after the commit deadline": {
			at:      11 * time.Second,
			wantErr: escrow.ErrDeadlinePassed,
		},
		"only the freelancer": {
			at:      5 * time.Second,
			signer:  func(e *env) cipherlock.Condition { return e.client },
			wantErr: errors.ErrUnauthorized,
		},
		"twice": {
			at:      5 * time.Second,
			setup:   func(e *env, id []byte) { e.submitCommit(id) },
			wantErr: escrow.ErrAlreadyCommitted,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			e := newEnv(t)
			id := e.createJob()
			e.acceptJob(id)
			if tc.setup != nil {
				tc.setup(e, id)
			}
			signer := e.freelancer
			if tc.signer != nil {
				signer = tc.signer(e)
			}

			_, err := e.deliver(e.at(tc.at, signer), commitMsg(id))
			if !tc.wantErr.Is(err) {
				t.Fatalf("unexpected error: %+v", err)
			}
			if tc.wantErr != nil {
				return
			}

			job := e.job(id)
			assert.Equal(t, escrow.JobStateCommitted, job.State)
			assert.Equal(t, escrow.HashKey(theKey), job.KeyHash)
			assert.Equal(t, "s3://bucket/artifact", job.FileReference)
		})
	}
}

func TestSubmitCommitBeforeAcceptance(t *testing.T) {
	e := newEnv(t)
	id := e.createJob()

	// No freelancer is bound yet, nobody can commit.
	msg := &escrow.SubmitCommitMsg{
		JobID:         id,
		EncryptedHash: []byte("x"),
		KeyHash:       escrow.HashKey(theKey),
	}
	_, err := e.deliver(e.at(5*time.Second, e.freelancer), msg)
	if !errors.ErrUnauthorized.Is(err) {
		t.Fatalf("unexpected error: %+v", err)
	}
}

func TestRevealKey(t *testing.T) {
	cases := map[string]struct {
		key     []byte
		signer  func(e *env) cipherlock.Condition
		setup   func(e *env, id []byte)
		wantErr *errors.Error
	}{
		"happy path": {
			key: theKey,
		},
		"wrong key": {
			key:     []byte("not-the-key"),
			wantErr: escrow.ErrInvalidKey,
		},
		"only the freelancer": {
			key:     theKey,
			signer:  func(e *env) cipherlock.Condition { return e.client },
			wantErr: errors.ErrUnauthorized,
		},
		"twice": {
			key:     theKey,
			setup:   func(e *env, id []byte) { e.revealKey(id) },
			wantErr: escrow.ErrAlreadyRevealed,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			e := newEnv(t)
			id := e.createJob()
			e.acceptJob(id)
			e.submitCommit(id)
			if tc.setup != nil {
				tc.setup(e, id)
			}
			signer := e.freelancer
			if tc.signer != nil {
				signer = tc.signer(e)
			}

			_, err := e.deliver(e.at(6*time.Second, signer), &escrow.RevealKeyMsg{JobID: id, Key: tc.key})
			if !tc.wantErr.Is(err) {
				t.Fatalf("unexpected error: %+v", err)
			}

			job := e.job(id)
			if tc.wantErr != nil && tc.setup == nil {
				// A failed reveal leaves the commitment untouched.
				assert.Equal(t, escrow.JobStateCommitted, job.State)
				return
			}
			assert.Equal(t, escrow.JobStateRevealed, job.State)
		})
	}
}

func TestRevealKeyWithoutCommit(t *testing.T) {
	e := newEnv(t)
	id := e.createJob()
	e.acceptJob(id)

	_, err := e.deliver(e.at(5*time.Second, e.freelancer), &escrow.RevealKeyMsg{JobID: id, Key: theKey})
	if !escrow.ErrNoCommit.Is(err) {
		t.Fatalf("unexpected error: %+v", err)
	}
}

// TestReleasePayment covers scenario B: commit, a premature release
// attempt, reveal, then the cooperative release paying the freelancer.
func TestReleasePayment(t *testing.T) {
	e := newEnv(t)
	id := e.createJob()
	e.acceptJob(id)
	e.submitCommit(id)

	// Before the reveal the client cannot release.
	_, err := e.deliver(e.at(6*time.Second, e.client), &escrow.ReleasePaymentMsg{JobID: id})
	if !escrow.ErrKeyNotRevealed.Is(err) {
		t.Fatalf("unexpected error: %+v", err)
	}

	e.revealKey(id)

	// Only the client can release cooperatively.
	_, err = e.deliver(e.at(7*time.Second, e.freelancer), &escrow.ReleasePaymentMsg{JobID: id})
	if !errors.ErrUnauthorized.Is(err) {
		t.Fatalf("unexpected error: %+v", err)
	}

	_, err = e.deliver(e.at(7*time.Second, e.client), &escrow.ReleasePaymentMsg{JobID: id})
	assert.Nil(t, err)

	job := e.job(id)
	assert.Equal(t, escrow.JobStateReleased, job.State)
	if !e.balance(e.freelancer.Address()).Contains(jobAmount) {
		t.Fatal("freelancer not paid")
	}

	// A second release must fail.
	_, err = e.deliver(e.at(8*time.Second, e.client), &escrow.ReleasePaymentMsg{JobID: id})
	if !escrow.ErrAlreadyReleased.Is(err) {
		t.Fatalf("unexpected error: %+v", err)
	}
}

func TestReleasePaymentWithoutCommit(t *testing.T) {
	e := newEnv(t)
	id := e.createJob()
	e.acceptJob(id)

	_, err := e.deliver(e.at(5*time.Second, e.client), &escrow.ReleasePaymentMsg{JobID: id})
	if !escrow.ErrNoCommit.Is(err) {
		t.Fatalf("unexpected error: %+v", err)
	}
}

// TestAutoRelease covers scenario D: the client sits on a proven reveal
// and the freelancer claims the payment strictly after the deadline.
func TestAutoRelease(t *testing.T) {
	e := newEnv(t)
	id := e.createJob()
	e.acceptJob(id)
	e.submitCommit(id)
	e.revealKey(id)

	// At the deadline the claim window is not open yet.
	_, err := e.deliver(e.at(20*time.Second, e.freelancer), &escrow.AutoReleaseMsg{JobID: id})
	if !escrow.ErrDeadlineNotReached.Is(err) {
		t.Fatalf("unexpected error: %+v", err)
	}

	// Only the freelancer can claim.
	_, err = e.deliver(e.at(21*time.Second, e.client), &escrow.AutoReleaseMsg{JobID: id})
	if !errors.ErrUnauthorized.Is(err) {
		t.Fatalf("unexpected error: %+v", err)
	}

	_, err = e.deliver(e.at(21*time.Second, e.freelancer), &escrow.AutoReleaseMsg{JobID: id})
	assert.Nil(t, err)

	job := e.job(id)
	assert.Equal(t, escrow.JobStateReleased, job.State)
	if !e.balance(e.freelancer.Address()).Contains(jobAmount) {
		t.Fatal("freelancer not paid")
	}

	// Neither settlement path can fire a second time.
	_, err = e.deliver(e.at(22*time.Second, e.freelancer), &escrow.AutoReleaseMsg{JobID: id})
	if !escrow.ErrAlreadyReleased.Is(err) {
		t.Fatalf("unexpected error: %+v", err)
	}
	_, err = e.deliver(e.at(22*time.Second, e.client), &escrow.ReleasePaymentMsg{JobID: id})
	if !escrow.ErrAlreadyReleased.Is(err) {
		t.Fatalf("unexpected error: %+v", err)
	}
}

func TestAutoReleaseRequiresReveal(t *testing.T) {
	e := newEnv(t)
	id := e.createJob()
	e.acceptJob(id)
	e.submitCommit(id)

	_, err := e.deliver(e.at(21*time.Second, e.freelancer), &escrow.AutoReleaseMsg{JobID: id})
	if !escrow.ErrKeyNotRevealed.Is(err) {
		t.Fatalf("unexpected error: %+v", err)
	}
}

// TestRefundNoCommit covers scenario C: the commit deadline passes
// without a commitment, the client reclaims the funds and a late commit
// is rejected.
func TestRefundNoCommit(t *testing.T) {
	e := newEnv(t)
	id := e.createJob()
	e.acceptJob(id)

	// The refund window opens only strictly after the commit deadline.
	_, err := e.deliver(e.at(9*time.Second, e.client), &escrow.RefundNoCommitMsg{JobID: id})
	if !escrow.ErrCommitDeadlineNotReached.Is(err) {
		t.Fatalf("unexpected error: %+v", err)
	}
	_, err = e.deliver(e.at(10*time.Second, e.client), &escrow.RefundNoCommitMsg{JobID: id})
	if !escrow.ErrCommitDeadlineNotReached.Is(err) {
		t.Fatalf("unexpected error: %+v", err)
	}

	// Only the client can reclaim.
	_, err = e.deliver(e.at(11*time.Second, e.freelancer), &escrow.RefundNoCommitMsg{JobID: id})
	if !errors.ErrUnauthorized.Is(err) {
		t.Fatalf("unexpected error: %+v", err)
	}

	_, err = e.deliver(e.at(11*time.Second, e.client), &escrow.RefundNoCommitMsg{JobID: id})
	assert.Nil(t, err)

	job := e.job(id)
	assert.Equal(t, escrow.JobStateRefunded, job.State)
	if !e.balance(e.client.Address()).Contains(jobAmount) {
		t.Fatal("client not refunded")
	}

	// A late commit observes the job as settled.
	_, err = e.deliver(e.at(12*time.Second, e.freelancer), &escrow.SubmitCommitMsg{
		JobID:         id,
		EncryptedHash: []byte("x"),
		KeyHash:       escrow.HashKey(theKey),
	})
	if !escrow.ErrAlreadyReleased.Is(err) {
		t.Fatalf("unexpected error: %+v", err)
	}
}

func TestRefundAfterCommit(t *testing.T) {
	e := newEnv(t)
	id := e.createJob()
	e.acceptJob(id)
	e.submitCommit(id)

	// Once committed the no-commit refund is permanently closed.
	_, err := e.deliver(e.at(11*time.Second, e.client), &escrow.RefundNoCommitMsg{JobID: id})
	if !escrow.ErrAlreadyCommitted.Is(err) {
		t.Fatalf("unexpected error: %+v", err)
	}
}

// TestTransferFailureRollsBack drains the custody account behind the
// engine's back and verifies that a failing payout leaves the job
// unsettled when delivered through the savepoint.
func TestTransferFailureRollsBack(t *testing.T) {
	e := newEnv(t)
	id := e.createJob()
	e.acceptJob(id)
	e.submitCommit(id)
	e.revealKey(id)

	job := e.job(id)
	assert.Nil(t, e.ctrl.IssueCoins(e.db, job.Address, jobAmount.Negative()))

	h := cipherlocktest.Decorate(e.router, utils.NewSavepoint().OnDeliver())
	_, err := h.Deliver(e.at(7*time.Second, e.client), e.db, &cipherlocktest.Tx{Msg: &escrow.ReleasePaymentMsg{JobID: id}})
	if !escrow.ErrTransferFailed.Is(err) {
		t.Fatalf("unexpected error: %+v", err)
	}

	// The tentative state write was rolled back, the job can be
	// settled later.
	assert.Equal(t, escrow.JobStateRevealed, e.job(id).State)
}

func TestQueryJob(t *testing.T) {
	e := newEnv(t)
	id := e.createJob()

	qr := cipherlock.NewQueryRouter()
	escrow.RegisterQuery(qr)
	h := qr.Handler("/jobs")
	if h == nil {
		t.Fatal("no handler registered for /jobs")
	}

	models, err := h.Query(e.db, "", id)
	assert.Nil(t, err)
	assert.Equal(t, 1, len(models))
	assert.Equal(t, id, models[0].Key)

	var job escrow.Job
	assert.Nil(t, job.Unmarshal(models[0].Value))
	assert.Equal(t, escrow.JobStateCreated, job.State)

	// Unknown ids give no result.
	models, err = h.Query(e.db, "", cipherlocktest.SequenceID(99))
	assert.Nil(t, err)
	assert.Equal(t, 0, len(models))
}
