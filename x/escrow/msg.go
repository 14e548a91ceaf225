package escrow

import (
	"github.com/cipherlock/cipherlock"
	"github.com/cipherlock/cipherlock/coin"
	"github.com/cipherlock/cipherlock/errors"
)

const (
	pathCreateJobMsg      = "escrow/create_job"
	pathCancelJobMsg      = "escrow/cancel_job"
	pathAcceptJobMsg      = "escrow/accept_job"
	pathSubmitCommitMsg   = "escrow/submit_commit"
	pathRevealKeyMsg      = "escrow/reveal_key"
	pathReleasePaymentMsg = "escrow/release_payment"
	pathAutoReleaseMsg    = "escrow/auto_release"
	pathRefundNoCommitMsg = "escrow/refund_no_commit"

	// keyHashSize is the size of a sha256 digest.
	keyHashSize = 32

	// maxEncryptedHashSize leaves room for any common digest of the
	// encrypted artifact.
	maxEncryptedHashSize = 64
	// maxKeySize bounds the revealed decryption key.
	maxKeySize = 128
	// maxFileRefSize bounds the opaque locator of the artifact.
	maxFileRefSize = 256
)

var (
	_ cipherlock.Msg = (*CreateJobMsg)(nil)
	_ cipherlock.Msg = (*CancelJobMsg)(nil)
	_ cipherlock.Msg = (*AcceptJobMsg)(nil)
	_ cipherlock.Msg = (*SubmitCommitMsg)(nil)
	_ cipherlock.Msg = (*RevealKeyMsg)(nil)
	_ cipherlock.Msg = (*ReleasePaymentMsg)(nil)
	_ cipherlock.Msg = (*AutoReleaseMsg)(nil)
	_ cipherlock.Msg = (*RefundNoCommitMsg)(nil)
)

// CreateJobMsg opens a new job. The amount is taken from the client
// wallet into custody.
type CreateJobMsg struct {
	Client         cipherlock.Address  `json:"client"`
	Amount         coin.Coin           `json:"amount"`
	CommitDeadline cipherlock.UnixTime `json:"commit_deadline"`
	Deadline       cipherlock.UnixTime `json:"deadline"`
}

func (CreateJobMsg) Path() string {
	return pathCreateJobMsg
}

func (m *CreateJobMsg) Validate() error {
	if err := m.Client.Validate(); err != nil {
		return errors.Wrap(err, "client")
	}
	if !m.Amount.IsPositive() {
		return errors.Wrapf(ErrNoFunds, "amount %q", m.Amount)
	}
	if err := m.Amount.Validate(); err != nil {
		return errors.Wrap(err, "amount")
	}
	if m.CommitDeadline == 0 || m.Deadline == 0 {
		// Zero dates to 1970-01-01 and makes no sense as a deadline.
		// Most likely the value was not provided.
		return errors.Wrap(ErrInvalidDeadline, "deadline is required")
	}
	if m.CommitDeadline >= m.Deadline {
		return errors.Wrapf(ErrInvalidDeadline, "commit deadline %s not before deadline %s", m.CommitDeadline, m.Deadline)
	}
	return nil
}

// CancelJobMsg withdraws an unaccepted job, refunding the client.
type CancelJobMsg struct {
	JobID []byte `json:"job_id"`
}

func (CancelJobMsg) Path() string {
	return pathCancelJobMsg
}

func (m *CancelJobMsg) Validate() error {
	return validateJobID(m.JobID)
}

// AcceptJobMsg binds a freelancer to a job.
type AcceptJobMsg struct {
	JobID      []byte             `json:"job_id"`
	Freelancer cipherlock.Address `json:"freelancer"`
}

func (AcceptJobMsg) Path() string {
	return pathAcceptJobMsg
}

func (m *AcceptJobMsg) Validate() error {
	if err := validateJobID(m.JobID); err != nil {
		return err
	}
	return errors.Wrap(m.Freelancer.Validate(), "freelancer")
}

// SubmitCommitMsg records the commitment to the encrypted deliverable
// and its decryption key.
type SubmitCommitMsg struct {
	JobID []byte `json:"job_id"`
	// EncryptedHash is the digest of the encrypted artifact.
	EncryptedHash []byte `json:"encrypted_hash"`
	// KeyHash is the sha256 digest of the decryption key.
	KeyHash []byte `json:"key_hash"`
	// FileReference locates the off-chain artifact. Opaque.
	FileReference string `json:"file_reference"`
}

func (SubmitCommitMsg) Path() string {
	return pathSubmitCommitMsg
}

func (m *SubmitCommitMsg) Validate() error {
	if err := validateJobID(m.JobID); err != nil {
		return err
	}
	if n := len(m.EncryptedHash); n == 0 || n > maxEncryptedHashSize {
		return errors.Wrapf(errors.ErrInput, "encrypted hash size %d", n)
	}
	if len(m.KeyHash) != keyHashSize {
		return errors.Wrapf(errors.ErrInput, "key hash must be %d bytes", keyHashSize)
	}
	if len(m.FileReference) > maxFileRefSize {
		return errors.Wrap(errors.ErrInput, "file reference too long")
	}
	return nil
}

// RevealKeyMsg proves knowledge of the decryption key committed to
// earlier.
type RevealKeyMsg struct {
	JobID []byte `json:"job_id"`
	Key   []byte `json:"key"`
}

func (RevealKeyMsg) Path() string {
	return pathRevealKeyMsg
}

func (m *RevealKeyMsg) Validate() error {
	if err := validateJobID(m.JobID); err != nil {
		return err
	}
	if n := len(m.Key); n == 0 || n > maxKeySize {
		return errors.Wrapf(errors.ErrInput, "key size %d", n)
	}
	return nil
}

// ReleasePaymentMsg pays the freelancer, initiated by the client after
// a proven reveal.
type ReleasePaymentMsg struct {
	JobID []byte `json:"job_id"`
}

func (ReleasePaymentMsg) Path() string {
	return pathReleasePaymentMsg
}

func (m *ReleasePaymentMsg) Validate() error {
	return validateJobID(m.JobID)
}

// AutoReleaseMsg pays the freelancer, initiated by the freelancer once
// the final deadline elapsed without a cooperative release.
type AutoReleaseMsg struct {
	JobID []byte `json:"job_id"`
}

func (AutoReleaseMsg) Path() string {
	return pathAutoReleaseMsg
}

func (m *AutoReleaseMsg) Validate() error {
	return validateJobID(m.JobID)
}

// RefundNoCommitMsg refunds the client once the commit deadline elapsed
// without a commitment.
type RefundNoCommitMsg struct {
	JobID []byte `json:"job_id"`
}

func (RefundNoCommitMsg) Path() string {
	return pathRefundNoCommitMsg
}

func (m *RefundNoCommitMsg) Validate() error {
	return validateJobID(m.JobID)
}

func validateJobID(id []byte) error {
	if len(id) != 8 {
		return errors.Wrapf(errors.ErrInput, "job id: %X", id)
	}
	return nil
}

func (m *CreateJobMsg) Marshal() ([]byte, error)      { return cdc.MarshalBinaryBare(m) }
func (m *CreateJobMsg) Unmarshal(raw []byte) error    { return cdc.UnmarshalBinaryBare(raw, m) }
func (m *CancelJobMsg) Marshal() ([]byte, error)      { return cdc.MarshalBinaryBare(m) }
func (m *CancelJobMsg) Unmarshal(raw []byte) error    { return cdc.UnmarshalBinaryBare(raw, m) }
func (m *AcceptJobMsg) Marshal() ([]byte, error)      { return cdc.MarshalBinaryBare(m) }
func (m *AcceptJobMsg) Unmarshal(raw []byte) error    { return cdc.UnmarshalBinaryBare(raw, m) }
func (m *SubmitCommitMsg) Marshal() ([]byte, error)   { return cdc.MarshalBinaryBare(m) }
func (m *SubmitCommitMsg) Unmarshal(raw []byte) error { return cdc.UnmarshalBinaryBare(raw, m) }
func (m *RevealKeyMsg) Marshal() ([]byte, error)      { return cdc.MarshalBinaryBare(m) }
func (m *RevealKeyMsg) Unmarshal(raw []byte) error    { return cdc.UnmarshalBinaryBare(raw, m) }
func (m *ReleasePaymentMsg) Marshal() ([]byte, error) { return cdc.MarshalBinaryBare(m) }
func (m *ReleasePaymentMsg) Unmarshal(raw []byte) error {
	return cdc.UnmarshalBinaryBare(raw, m)
}
func (m *AutoReleaseMsg) Marshal() ([]byte, error)      { return cdc.MarshalBinaryBare(m) }
func (m *AutoReleaseMsg) Unmarshal(raw []byte) error    { return cdc.UnmarshalBinaryBare(raw, m) }
func (m *RefundNoCommitMsg) Marshal() ([]byte, error)   { return cdc.MarshalBinaryBare(m) }
func (m *RefundNoCommitMsg) Unmarshal(raw []byte) error { return cdc.UnmarshalBinaryBare(raw, m) }
