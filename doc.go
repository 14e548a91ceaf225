/*
Package cipherlock defines the interfaces shared by the whole engine:
storage, transactions, messages, handlers, and the context helpers that
carry block time and caller information between them.

The design follows a Check/Deliver split. Check validates a transaction
and estimates its cost, Deliver executes it against the state. Both run
behind a decorator chain that provides savepoints and panic recovery, so
a handler that returns an error never leaves partial writes behind.

Extensions live under x/ and only depend on the interfaces declared
here. The escrow engine itself is x/escrow; value custody is x/cash.
*/
package cipherlock
