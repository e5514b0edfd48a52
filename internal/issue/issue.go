// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/glamour"
)

// Id identifies a catalog entry.
//
//nolint:revive // Id matches the catalog naming used across the CLI
type Id int

const (
	ControlRepositoryUnreachableId Id = iota + 1
	ProfileNotFoundId
	NoEnvironmentId
	TooFewEnvironmentsId
	PushRejectedId
	ForgeUnreachableId
	ModuleRepositoryUnreachableId
	ConfigLoadFailedId
	InvalidUpdateOptionsId
	EnvironmentExistsId
	EnvironmentNotFoundId
)

const (
	r10kLink  HttpLink = "https://github.com/puppetlabs/r10k"
	forgeLink HttpLink = "https://forge.puppet.com"
)

type (
	// MarkdownMsg is catalog help text in Markdown.
	MarkdownMsg string

	// HttpLink is a URL listed under "See also".
	//
	//nolint:revive // HttpLink matches MarkdownMsg naming
	HttpLink string

	// Issue is a catalog entry explaining a failure and how to recover.
	Issue struct {
		id       Id
		mdMsg    MarkdownMsg
		extLinks []HttpLink
	}
)

// Id returns the catalog ID.
func (i *Issue) Id() Id { //nolint:revive // see Id
	return i.id
}

// MarkdownMsg returns the help text.
func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

// ExtLinks returns a copy of the external links.
func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Render returns the help text rendered for the terminal with the given
// glamour style ("dark", "light", "notty", ...).
func (i *Issue) Render(stylePath string) (string, error) {
	var md strings.Builder
	md.WriteString(string(i.mdMsg))
	if len(i.extLinks) > 0 {
		md.WriteString("\n\n## See also\n")
		for _, link := range i.extLinks {
			md.WriteString("- <" + string(link) + ">\n")
		}
	}
	return render(md.String(), stylePath)
}

var (
	render = glamour.Render

	controlRepositoryUnreachableIssue = &Issue{
		id: ControlRepositoryUnreachableId,
		mdMsg: `
# Could not clone the control repository

The repository configured for the selected profile could not be cloned.

## Things you can try
- Check the repository URL of your profile:
~~~
$ crmngr profiles
~~~
- Make sure you can clone it by hand with your SSH key or credentials:
~~~
$ git clone <repository>
~~~`,
		extLinks: []HttpLink{r10kLink},
	}

	profileNotFoundIssue = &Issue{
		id: ProfileNotFoundId,
		mdMsg: `
# Unknown profile

Profiles are sections of ~/.crmngr/profiles:

~~~ini
[default]
repository = git@git.example.com:puppet/control.git

[staging]
repository = git@git.example.com:puppet/staging-control.git
~~~

## Things you can try
- List configured profiles:
~~~
$ crmngr profiles
~~~`,
	}

	noEnvironmentIssue = &Issue{
		id: NoEnvironmentId,
		mdMsg: `
# No environment matched

The environment patterns matched none of the control repository branches.
Patterns are globs; a leading "!" turns the remaining patterns into exclusions.

## Things you can try
- List the available environments:
~~~
$ crmngr environments
~~~`,
	}

	tooFewEnvironmentsIssue = &Issue{
		id: TooFewEnvironmentsId,
		mdMsg: `
# Compare mode needs two environments

A comparing report shows the differences between environments, so at least
two environments must match the -e patterns.`,
	}

	pushRejectedIssue = &Issue{
		id: PushRejectedId,
		mdMsg: `
# Push rejected

Somebody else probably pushed to the environment while crmngr was running.
Environments updated before the failure stay updated.

## Things you can try
- Run the same update again; it starts from a fresh clone.`,
	}

	forgeUnreachableIssue = &Issue{
		id: ForgeUnreachableId,
		mdMsg: `
# Puppet Forge request failed

Module versions could not be looked up on the Puppet Forge.

## Things you can try
- Check your network connection and proxy settings.
- Check that the module exists and is spelled author/module.`,
		extLinks: []HttpLink{forgeLink},
	}

	moduleRepositoryUnreachableIssue = &Issue{
		id: ModuleRepositoryUnreachableId,
		mdMsg: `
# Module repository not reachable

A git module repository could not be read while validating a branch, tag or commit.

## Things you can try
- Check the URL passed to --git or declared in the Puppetfile.
- For private repositories set GITHUB_TOKEN, GITLAB_TOKEN or GIT_TOKEN,
  or add an SSH key to ~/.ssh.`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Configuration could not be loaded

crmngr reads ~/.crmngr/prefs and ~/.crmngr/profiles (or the directory named by
CRMNGR_CONFIG_DIR).

~~~ini
[crmngr]
cache_ttl = 86400
version_check = yes
wrap = yes
~~~`,
	}

	invalidUpdateOptionsIssue = &Issue{
		id: InvalidUpdateOptionsId,
		mdMsg: `
# Invalid update options

- --version, --tag, --commit and --branch pin exactly one module (-m).
- --version needs --forge; --tag, --commit and --branch need --git.
- --reference cannot be combined with version options.
- --add is not allowed for bulk updates; --remove needs -m.

~~~
$ crmngr update -m puppetlabs/stdlib --forge --version 4.25.0
$ crmngr update -m apache --git https://git.example.com/apache.git --tag
~~~`,
	}

	environmentExistsIssue = &Issue{
		id: EnvironmentExistsId,
		mdMsg: `
# Environment already exists

Pick another name or delete the existing environment first:
~~~
$ crmngr delete <environment>
~~~`,
	}

	environmentNotFoundIssue = &Issue{
		id: EnvironmentNotFoundId,
		mdMsg: `
# Environment not found

## Things you can try
- List the available environments:
~~~
$ crmngr environments
~~~`,
	}

	issues = map[Id]*Issue{
		controlRepositoryUnreachableIssue.Id(): controlRepositoryUnreachableIssue,
		profileNotFoundIssue.Id():              profileNotFoundIssue,
		noEnvironmentIssue.Id():                noEnvironmentIssue,
		tooFewEnvironmentsIssue.Id():           tooFewEnvironmentsIssue,
		pushRejectedIssue.Id():                 pushRejectedIssue,
		forgeUnreachableIssue.Id():             forgeUnreachableIssue,
		moduleRepositoryUnreachableIssue.Id():  moduleRepositoryUnreachableIssue,
		configLoadFailedIssue.Id():             configLoadFailedIssue,
		invalidUpdateOptionsIssue.Id():         invalidUpdateOptionsIssue,
		environmentExistsIssue.Id():            environmentExistsIssue,
		environmentNotFoundIssue.Id():          environmentNotFoundIssue,
	}
)

// Values returns every catalog entry ordered by ID.
func Values() []*Issue {
	return slices.SortedFunc(maps.Values(issues), func(a, b *Issue) int {
		return int(a.id) - int(b.id)
	})
}

// Get returns the entry for id, or nil.
func Get(id Id) *Issue {
	return issues[id]
}
