// SPDX-License-Identifier: EPL-2.0

package issue

import (
	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type Id int

const (
	ConflictsDetectedId Id = iota + 1
	ManifestParseErrorId
	SiteDirNotFoundId
	ConfigLoadFailedId
	FixFailedId
	AliasRegistryId
	SeverityLevelsId
)

type MarkdownMsg string

type HttpLink string

type Renderer interface {
	Render(in string, stylePath string) (string, error)
}

type Issue struct {
	id       Id          // ID used to lookup the issue
	topic    string      // short name used by 'modguard explain <topic>'
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink  // must never be empty, because we need to have docs about all issue types
	extLinks []HttpLink  // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) Topic() string {
	return i.topic
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		extraMd += "\n\n"
		extraMd += "## See also: "
		for _, link := range i.docLinks {
			extraMd += "- [" + string(link) + "]"
		}
		for _, link := range i.extLinks {
			extraMd += "- [" + string(link) + "]"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	conflictsDetectedIssue = &Issue{
		id:    ConflictsDetectedId,
		topic: "conflicts",
		mdMsg: `
# Namespace collisions detected!

Two or more installed packages provide a top-level module with the same
name. Whichever package is imported first wins, so behavior depends on
installation order.

## How severity is assigned:
- **HIGH**: your code imports the bare module name directly
  (` + "`import utils`" + ` or ` + "`from utils import x`" + `)
- **MEDIUM**: the module name only appears as part of a dotted path,
  or is never imported at all

## Things you can try:
- Preview the suggested fixes:
~~~
$ modguard scan --fix --dry-run
~~~

- Apply them:
~~~
$ modguard scan --fix
~~~

- Exclude a package you cannot change:
~~~
$ modguard scan --exclude legacy-pkg
~~~`,
	}

	manifestParseErrorIssue = &Issue{
		id:    ManifestParseErrorId,
		topic: "manifests",
		mdMsg: `
# Failed to parse a project manifest!

A requirements file or pyproject.toml could not be read. The scan
continues with the manifests that did parse, so results may be partial.

## Manifests we read, in order:
1. requirements.txt
2. requirements/base.txt, requirements/production.txt, requirements/dev.txt
3. pyproject.toml (poetry table and PEP 621 dependencies)

## Things you can try:
- Check the file named in the warning for syntax errors
- Validate pyproject.toml with any TOML linter
- Unpinned lines are fine; they resolve to the "latest" sentinel`,
	}

	siteDirNotFoundIssue = &Issue{
		id:    SiteDirNotFoundId,
		topic: "site-dirs",
		mdMsg: `
# Installed-packages directory not found!

Module discovery needs a site-packages style directory to inventory.

## Things you can try:
- Point the scan at your environment's directory in the config file:
~~~toml
site_dirs = [".venv/lib/python3.12/site-packages"]
~~~

- Activate the environment before scanning so the conventional
  locations exist
- A package that fails discovery is kept with an empty module list,
  so the rest of the scan still runs`,
	}

	configLoadFailedIssue = &Issue{
		id:    ConfigLoadFailedId,
		topic: "config",
		mdMsg: `
# Failed to load configuration!

Could not load the modguard configuration file.

## Configuration file locations:
- Linux: ~/.config/modguard/config.toml
- macOS: ~/Library/Application Support/modguard/config.toml
- Windows: %APPDATA%\modguard\config.toml

## Things you can try:
- Check the TOML syntax
- Remove the config file to use defaults:
~~~
$ rm ~/.config/modguard/config.toml
~~~

## Example configuration:
~~~toml
exclude = ["setuptools", "pip"]
max_workers = 8
default_severity = "MEDIUM"

[ui]
verbose = false
~~~`,
	}

	fixFailedIssue = &Issue{
		id:    FixFailedId,
		topic: "fix-failures",
		mdMsg: `
# A fix could not be applied!

Fixes are applied action by action; one failure never stops the rest.

## Common causes:
- A version constraint targets a package that is not declared in
  requirements.txt or pyproject.toml
- The conflict was classified as needing manual resolution
- Isolation fixes are suggestions only and are never automated

## Things you can try:
- Re-run with ` + "`--dry-run`" + ` to see the full plan first
- Declare the package in a manifest so it can be re-pinned
- Resolve manual conflicts by removing one of the conflicting packages`,
	}

	aliasRegistryIssue = &Issue{
		id:    AliasRegistryId,
		topic: "aliases",
		mdMsg: `
# The alias registry

Rename-shim fixes do not rewrite installed packages. They record an
alias in ` + "`.modguard/aliases.toml`" + ` mapping a package-qualified name
to the module it replaces:

~~~toml
[aliases."pkg2.utils"]
module = "utils"
package = "pkg2"
~~~

The package whose imports are most frequent keeps the bare name; every
other owner gets an alias. Commit the registry so the whole team
resolves the same names.`,
	}

	severityLevelsIssue = &Issue{
		id:    SeverityLevelsId,
		topic: "severity",
		mdMsg: `
# Severity levels

Every conflict carries one of five levels, most severe observation wins:

- **CRITICAL** / **HIGH**: re-pin the conflicting packages
- **MEDIUM** / **LOW**: alias the less-used owners (rename shim)
- **INFO**: manual review

A conflict nobody imports still matters: it defaults to **MEDIUM**
because installation order can flip which package wins silently.`,
	}

	issues = map[Id]*Issue{
		conflictsDetectedIssue.Id():  conflictsDetectedIssue,
		manifestParseErrorIssue.Id(): manifestParseErrorIssue,
		siteDirNotFoundIssue.Id():    siteDirNotFoundIssue,
		configLoadFailedIssue.Id():   configLoadFailedIssue,
		fixFailedIssue.Id():          fixFailedIssue,
		aliasRegistryIssue.Id():      aliasRegistryIssue,
		severityLevelsIssue.Id():     severityLevelsIssue,
	}
)

func Values() []*Issue {
	return maps.Values(issues)
}

func Get(id Id) *Issue {
	return issues[id]
}

// ByTopic looks an issue up by its explain-topic name.
func ByTopic(topic string) (*Issue, bool) {
	for _, i := range issues {
		if i.topic == topic {
			return i, true
		}
	}
	return nil, false
}

// Topics returns every explain-topic name, sorted.
func Topics() []string {
	topics := make([]string, 0, len(issues))
	for _, i := range issues {
		topics = append(topics, i.topic)
	}
	slices.Sort(topics)
	return topics
}
