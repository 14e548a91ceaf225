/*
Package errors implements the whole error handling of this engine.

Every failure is an instance wrapping one of the registered root errors.
The root carries a unique code that survives wrapping and is returned to
the client, while the wrap layers add human readable context and a stack
trace. Use Wrap/Wrapf to add context and (*Error).Is to test for a kind.

Extensions register their own roots with Register, using a code range
that does not collide with the framework roots declared here.
*/
package errors
