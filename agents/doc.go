// Package agents provides the built-in collaborator agent kinds that ship
// with the kernel: signal sources, a logging recorder and a fusion-capable
// state estimator. Physical-process models and control algorithms live
// outside this module and register their own kinds the same way.
//
// Importing this package registers its kinds with the default factory
// registry, so a configuration file can refer to them by name.
package agents
