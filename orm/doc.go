/*
Package orm provides an easy to use db wrapper.

Break state space into prefixed sections called buckets, and store
models there by sequence-allocated or caller-provided keys. All
serialization is the model's own concern; the bucket only requires the
Persistent interface.
*/
package orm
