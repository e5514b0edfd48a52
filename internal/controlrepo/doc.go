// SPDX-License-Identifier: MPL-2.0

// Package controlrepo works on a temporary clone of an r10k control
// repository, where every branch is a Puppet environment with its own
// Puppetfile.
//
// [Clone] creates a shallow clone of all branches; [Repository.Load] parses the
// manifests of the selected environments; [Repository.Stage] writes a new
// manifest and returns its [Diff], which is then either published (commit and
// push) or reverted. Environments are created and deleted as remote branches.
//
// Git runs as a subprocess through an [Executor]; manifest files are read and
// written through an afero filesystem rooted at the clone.
package controlrepo
