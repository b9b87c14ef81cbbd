// Package files discovers particle picking files below a directory.
//
// Discovery walks a directory tree and reports every file whose extension
// one of the loaders understands (.star, .csv, .tsv, .txt and .box). Hidden
// directories are skipped and the walk stops once the configured limit is
// reached.
//
// Example usage:
//
//	discovery := files.NewDiscovery(logger)
//	found, truncated, err := discovery.FindParticleFiles("/data/picks")
package files
