// Package release implements the tag-driven publish pipeline: derive a version
// from a pushed tag, write it into the package manifest, validate the result,
// commit the manifest and its lock file, and publish the package to an OCI
// registry.
//
// The pipeline is a single linear sequence with fail-fast semantics: the first
// failing step aborts the remainder, and the returned error names the step.
// There are no retries and no partial-failure recovery.
//
// The pipeline only runs for tag references. Branch pushes are rejected before
// any step executes.
package release
