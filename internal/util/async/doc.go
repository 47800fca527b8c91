// Package async runs independent operations concurrently.
//
// [RunAll] never lets one failure cancel its siblings and reports every
// task's outcome in input order. [RunParallel] folds those outcomes into a
// single joined error.
package async
