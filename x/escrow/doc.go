/*
Package escrow implements a trustless two-party escrow settling payment
for an encrypted deliverable.

A client creates a job, locking the payment in a custody account. A
freelancer accepts the job, uploads the encrypted deliverable off-chain
and commits to it by submitting the hash of the encrypted artifact and
the hash of its decryption key. Revealing a key that matches the
committed hash proves the freelancer can unlock the deliverable, after
which the client releases the payment. Deadlines arbitrate the
uncooperative paths: the client can reclaim the funds when no commit
arrived before the commit deadline, and the freelancer can claim the
payment when the client sits on a proven reveal past the final
deadline.

Funds move exactly once per job, to exactly one of the two parties.
*/
package escrow
