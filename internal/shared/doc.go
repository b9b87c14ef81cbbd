// Package shared holds helpers used across the pickstats packages.
//
// The testutil subpackage provides the sample particle files (STAR, CSV and
// box) used by the parser, statistics, service and handler tests, and a
// buffered slog handler for asserting on log output:
//
//	func TestSomething(t *testing.T) {
//	    files := testutil.SampleFiles(t)
//	    logger, logs := testutil.NewTestLogger(t)
//	    // ...
//	    testutil.AssertLogContains(t, logs, slog.LevelWarn, "Dropped")
//	}
//
// Nothing in shared may import a domain package.
package shared
