// Package staircase defines the adaptive procedure contract consumed by the
// multi-staircase coordinator, the per-condition configuration, and the
// closed set of procedure kinds.
//
// # Procedure Kinds
//
// [Kind] is a closed variant. [KindQuest] builds a Bayesian QUEST procedure
// backed by package quest. [KindSimple] is recognised so configuration files
// can name it, but [New] and [Validate] reject it with a ConfigurationError.
//
// # Attributes
//
// Every procedure exposes a statically declared attribute table via
// [Procedure.Attributes]. The coordinator copies these into the trial ledger
// under namespaced keys; the label is always exported as "label".
package staircase
