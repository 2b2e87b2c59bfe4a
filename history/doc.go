// Package history contains implementations of core.InvocationStore.
//
// Stores are observational only: they record what the dispatcher did but the
// workflow engine never reads them back, so losing them on restart does not
// affect workflow progression.
package history
