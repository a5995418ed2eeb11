// Package warp implements a composable coordinate-transformation engine:
// typed N-dimensional mappings that are evaluated forward or inverse on
// point batches, combined in series or in parallel, algebraically
// simplified, and persisted losslessly through interchangeable textual
// encodings.
//
// Mappings are reference counted Objects. Composing a mapping into a
// compound takes a counted share of it, so subgraphs can be reused freely;
// Release drops a handle. Batches are axis major ([axes][points]) and
// evaluation is pure: per-point results are independent of evaluation
// order, which lets large batches fan out across goroutines with bit
// identical results.
package warp
