// Package internal runs the version-gate rules over Go source files.
//
// Engine loads the package of a file once, analyzes it with a
// versioncheck.Analyzer and turns the verdicts of that file into issues
// through its LintRules:
//
//	api-level          a call or reference whose requirement the enclosing
//	                   version checks do not prove
//	obsolete-sdk-int   a version check already decided by min_sdk or an
//	                   enclosing check
//
// Issues on lines covered by //nolint or //apigate:ignore comments are
// dropped. Results can be persisted between runs with a Cache, and an
// Engine can watch directories and re-check files as they change.
//
// Usage:
//
//	analyzer := versioncheck.New(db, versioncheck.WithMetadata(db))
//	engine, err := internal.NewEngine(analyzer, nil)
//	if err != nil {
//	    // handle error
//	}
//
//	issues, err := engine.Run("path/to/file.go")
package internal
