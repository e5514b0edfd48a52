// SPDX-License-Identifier: MPL-2.0

// Package gitrepo inspects remote git repositories hosting Puppet modules.
//
// [Client] validates branches, tags and commits requested for a git-sourced
// module and finds the most recent tag of a repository. It works entirely in
// memory: refs are listed with the git protocol and tag lookups clone into a
// memory storer, so nothing touches the working directory.
//
// Credentials are discovered per URL. SSH URLs use the first usable key of
// ~/.ssh/id_ed25519, ~/.ssh/id_rsa or ~/.ssh/id_ecdsa; HTTP URLs use
// GITHUB_TOKEN, GITLAB_TOKEN or GIT_TOKEN when set.
package gitrepo
