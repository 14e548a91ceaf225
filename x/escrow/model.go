package escrow

import (
	"fmt"

	amino "github.com/tendermint/go-amino"

	"github.com/cipherlock/cipherlock"
	"github.com/cipherlock/cipherlock/coin"
	"github.com/cipherlock/cipherlock/errors"
	"github.com/cipherlock/cipherlock/orm"
)

var cdc = amino.NewCodec()

// JobState is the lifecycle position of a job. A job starts in Created
// and ends in exactly one of the terminal states Cancelled, Released or
// Refunded. The explicit state makes illegal combinations (a revealed
// key without a commitment) unrepresentable.
type JobState uint8

const (
	// JobStateInvalid is the zero value and never a valid state.
	JobStateInvalid JobState = iota
	// JobStateCreated means the job is funded and waits for a
	// freelancer.
	JobStateCreated
	// JobStateAccepted means a freelancer is bound to the job.
	JobStateAccepted
	// JobStateCommitted means the commitment to the deliverable and
	// the key hash are recorded.
	JobStateCommitted
	// JobStateRevealed means a key matching the commitment was
	// revealed.
	JobStateRevealed
	// JobStateCancelled means the client cancelled before acceptance.
	// Terminal.
	JobStateCancelled
	// JobStateReleased means the payment went to the freelancer.
	// Terminal.
	JobStateReleased
	// JobStateRefunded means the payment went back to the client after
	// the commit deadline passed without a commitment. Terminal.
	JobStateRefunded
)

func (s JobState) String() string {
	switch s {
	case JobStateCreated:
		return "created"
	case JobStateAccepted:
		return "accepted"
	case JobStateCommitted:
		return "committed"
	case JobStateRevealed:
		return "revealed"
	case JobStateCancelled:
		return "cancelled"
	case JobStateReleased:
		return "released"
	case JobStateRefunded:
		return "refunded"
	default:
		return fmt.Sprintf("invalid(%d)", s)
	}
}

// Terminal returns true if no further transition is allowed from this
// state.
func (s JobState) Terminal() bool {
	switch s {
	case JobStateCancelled, JobStateReleased, JobStateRefunded:
		return true
	}
	return false
}

func (s JobState) Validate() error {
	if s < JobStateCreated || s > JobStateRefunded {
		return errors.Wrapf(errors.ErrState, "unknown state %d", s)
	}
	return nil
}

// Job is one escrowed engagement between a client and a freelancer.
type Job struct {
	// Client is the payer. Set at creation, immutable.
	Client cipherlock.Address `json:"client"`
	// Freelancer is the payee. Nil until acceptance, then immutable.
	Freelancer cipherlock.Address `json:"freelancer,omitempty"`
	// Amount is the value held in escrow, fixed at creation.
	Amount coin.Coin `json:"amount"`
	// EncryptedHash commits to the encrypted deliverable. Set once at
	// commit time.
	EncryptedHash []byte `json:"encrypted_hash,omitempty"`
	// KeyHash is the sha256 commitment of the decryption key. Set once
	// at commit time.
	KeyHash []byte `json:"key_hash,omitempty"`
	// FileReference is an opaque locator for the off-chain encrypted
	// artifact. Not interpreted.
	FileReference string `json:"file_reference,omitempty"`
	// CommitDeadline is the last moment a commitment is accepted.
	CommitDeadline cipherlock.UnixTime `json:"commit_deadline"`
	// Deadline is the moment after which the freelancer may claim the
	// payment without the client. Always after CommitDeadline.
	Deadline cipherlock.UnixTime `json:"deadline"`
	// State is the lifecycle position.
	State JobState `json:"state"`
	// Address is the custody account holding Amount until settlement.
	Address cipherlock.Address `json:"address"`
}

var _ orm.Model = (*Job)(nil)

func (j *Job) Marshal() ([]byte, error) {
	return cdc.MarshalBinaryBare(j)
}

func (j *Job) Unmarshal(raw []byte) error {
	return cdc.UnmarshalBinaryBare(raw, j)
}

// Validate ensures the job record is consistent.
func (j *Job) Validate() error {
	if err := j.Client.Validate(); err != nil {
		return errors.Wrap(err, "client")
	}
	if j.Freelancer != nil {
		if err := j.Freelancer.Validate(); err != nil {
			return errors.Wrap(err, "freelancer")
		}
	}
	if !j.Amount.IsPositive() {
		return errors.Wrapf(ErrNoFunds, "amount %q", j.Amount)
	}
	if err := j.Amount.Validate(); err != nil {
		return errors.Wrap(err, "amount")
	}
	if j.CommitDeadline == 0 || j.Deadline == 0 {
		return errors.Wrap(ErrInvalidDeadline, "deadline is required")
	}
	if j.CommitDeadline >= j.Deadline {
		return errors.Wrapf(ErrInvalidDeadline, "commit deadline %s not before deadline %s", j.CommitDeadline, j.Deadline)
	}
	if err := j.State.Validate(); err != nil {
		return errors.Wrap(err, "state")
	}
	if j.State >= JobStateAccepted && j.State != JobStateCancelled && j.State != JobStateRefunded && j.Freelancer == nil {
		return errors.Wrapf(errors.ErrState, "state %s requires a freelancer", j.State)
	}
	if j.State == JobStateCommitted || j.State == JobStateRevealed {
		if len(j.KeyHash) != keyHashSize {
			return errors.Wrapf(errors.ErrState, "state %s requires a key hash", j.State)
		}
		if len(j.EncryptedHash) == 0 {
			return errors.Wrapf(errors.ErrState, "state %s requires an encrypted hash", j.State)
		}
	}
	if err := j.Address.Validate(); err != nil {
		return errors.Wrap(err, "address")
	}
	return nil
}

// JobCondition calculates the custody condition of a job given its key.
// Funds move to its address at creation and leave it exactly once.
func JobCondition(key []byte) cipherlock.Condition {
	return cipherlock.NewCondition("escrow", "seq", key)
}

// NewBucket returns a bucket for storing jobs, with ids allocated by
// the job sequence.
func NewBucket() orm.ModelBucket {
	return orm.NewModelBucket("job", &Job{}, orm.WithIDSequence(jobSeq))
}

var jobSeq = orm.NewSequence("escrow", "id")
