// SPDX-License-Identifier: MPL-2.0

// Package puppetfile models r10k Puppetfile manifests.
//
// # Model
//
//   - [Version]: a closed set of version kinds (forge release, git branch,
//     commit, ref, tag, unknown) with a canonical comparison key
//   - [Module]: a registry-sourced or repository-sourced module declaration
//   - [Environment]: the modules declared on one control repository branch
//
// # Manifest format
//
// A manifest starts with a registry source line followed by module
// declarations:
//
//	forge 'https://forgeapi.puppetlabs.com'
//
//	mod 'firewall',
//	  :git => 'https://example.com/firewall.git',
//	  :tag => '1.11.0'
//	mod 'puppetlabs/stdlib', '4.20.0'
//
// [Parse] reads manifests leniently: declarations that cannot be understood
// are skipped and reported as [Problem] values. [Environment.Render] is the
// inverse of Parse for every module Parse can produce.
package puppetfile
