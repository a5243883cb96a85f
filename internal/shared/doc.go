// Package shared holds helpers used across packages that belong to no single
// layer.
//
// # Structure
//
//   - testutil: log capture and spreadsheet fixtures for tests
//
// Nothing under shared may import internal packages other than config and
// the contracts, so any package can use it from its tests.
package shared
