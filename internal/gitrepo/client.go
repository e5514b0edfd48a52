// SPDX-License-Identifier: MPL-2.0

package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"
	"github.com/go-git/go-git/v5/storage/memory"
	"github.com/maruel/natural"

	"crmngr-cli/pkg/puppetfile"
)

type (
	// Client queries module repositories. Nothing is written to disk: refs are
	// listed remotely and clones are kept in memory.
	Client struct {
		// auth overrides per-URL credential discovery when set.
		auth   transport.AuthMethod
		getenv func(string) string
		home   func() (string, error)
		logger *log.Logger
	}

	// Option configures a Client during construction.
	Option func(*Client)
)

// WithAuth uses auth for every repository instead of discovering credentials.
func WithAuth(auth transport.AuthMethod) Option {
	return func(c *Client) {
		c.auth = auth
	}
}

// WithLogger sets the logger receiving debug output.
func WithLogger(logger *log.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithEnv replaces the environment lookup used for token discovery, for tests.
func WithEnv(getenv func(string) string) Option {
	return func(c *Client) {
		c.getenv = getenv
	}
}

// NewClient creates a Client that discovers credentials from ~/.ssh and token variables.
func NewClient(opts ...Option) *Client {
	c := &Client{
		getenv: os.Getenv,
		home:   os.UserHomeDir,
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ValidateURL checks that url is a reachable git repository.
func (c *Client) ValidateURL(ctx context.Context, url string) error {
	_, err := c.listRefs(ctx, url)
	return err
}

// ValidateBranch checks that branch exists in the repository at url.
func (c *Client) ValidateBranch(ctx context.Context, url, branch string) error {
	return c.validateRef(ctx, url, RefBranch, plumbing.NewBranchReferenceName(branch), branch)
}

// ValidateTag checks that tag exists in the repository at url.
func (c *Client) ValidateTag(ctx context.Context, url, tag string) error {
	return c.validateRef(ctx, url, RefTag, plumbing.NewTagReferenceName(tag), tag)
}

// ValidateCommit checks that commit (full or abbreviated SHA) exists in the repository at url.
func (c *Client) ValidateCommit(ctx context.Context, url, commit string) error {
	if err := ValidateCommitSHA(commit); err != nil {
		return err
	}
	repo, err := c.clone(ctx, url)
	if err != nil {
		return err
	}

	commit = strings.ToLower(commit)
	if len(commit) == 40 {
		if _, err := repo.CommitObject(plumbing.NewHash(commit)); err != nil {
			return &RefNotFoundError{URL: url, Kind: RefCommit, Name: commit}
		}
		return nil
	}

	iter, err := repo.CommitObjects()
	if err != nil {
		return fmt.Errorf("%w: reading commits of %s: %w", ErrRepository, url, err)
	}
	found := false
	err = iter.ForEach(func(co *object.Commit) error {
		if strings.HasPrefix(co.Hash.String(), commit) {
			found = true
			return storer.ErrStop
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: reading commits of %s: %w", ErrRepository, url, err)
	}
	if !found {
		return &RefNotFoundError{URL: url, Kind: RefCommit, Name: commit}
	}
	return nil
}

// LatestTag returns the tag pointing at the most recently committed tagged
// commit, dated with that commit's committer date. Annotated and lightweight
// tags are both considered; ties are broken by natural order of tag names.
func (c *Client) LatestTag(ctx context.Context, url string) (puppetfile.Version, error) {
	repo, err := c.clone(ctx, url)
	if err != nil {
		return puppetfile.Version{}, err
	}

	iter, err := repo.Tags()
	if err != nil {
		return puppetfile.Version{}, fmt.Errorf("%w: listing tags of %s: %w", ErrRepository, url, err)
	}

	var (
		bestName string
		bestWhen time.Time
	)
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		commit, cerr := tagCommit(repo, ref)
		if cerr != nil {
			c.logger.Debug("skipping tag without commit", "url", url, "tag", ref.Name().Short(), "err", cerr)
			return nil
		}
		name := ref.Name().Short()
		when := commit.Committer.When
		if bestName == "" || when.After(bestWhen) || (when.Equal(bestWhen) && natural.Less(bestName, name)) {
			bestName, bestWhen = name, when
		}
		return nil
	})
	if err != nil {
		return puppetfile.Version{}, fmt.Errorf("%w: listing tags of %s: %w", ErrRepository, url, err)
	}
	if bestName == "" {
		return puppetfile.Version{}, fmt.Errorf("%w: %s", ErrNoTags, url)
	}

	c.logger.Debug("latest tag", "url", url, "tag", bestName, "date", bestWhen)
	return puppetfile.Tag(bestName).WithDate(bestWhen), nil
}

func (c *Client) validateRef(ctx context.Context, url string, kind RefKind, want plumbing.ReferenceName, name string) error {
	refs, err := c.listRefs(ctx, url)
	if err != nil {
		return err
	}
	for _, ref := range refs {
		if ref.Name() == want {
			return nil
		}
	}
	return &RefNotFoundError{URL: url, Kind: kind, Name: name}
}

func (c *Client) listRefs(ctx context.Context, url string) ([]*plumbing.Reference, error) {
	remote := git.NewRemote(memory.NewStorage(), &config.RemoteConfig{
		Name: "origin",
		URLs: []string{url},
	})

	refs, err := remote.ListContext(ctx, &git.ListOptions{
		Auth: c.authFor(url),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: listing refs of %s: %w", ErrRepository, url, err)
	}
	return refs, nil
}

func (c *Client) clone(ctx context.Context, url string) (*git.Repository, error) {
	c.logger.Debug("cloning into memory", "url", url)
	repo, err := git.CloneContext(ctx, memory.NewStorage(), nil, &git.CloneOptions{
		URL:        url,
		Auth:       c.authFor(url),
		Tags:       git.AllTags,
		NoCheckout: true,
	})
	if err != nil {
		if errors.Is(err, transport.ErrEmptyRemoteRepository) {
			return nil, fmt.Errorf("%w: %s", ErrNoTags, url)
		}
		return nil, fmt.Errorf("%w: cloning %s: %w", ErrRepository, url, err)
	}
	return repo, nil
}

// tagCommit resolves a tag reference to its commit, dereferencing annotated tags.
func tagCommit(repo *git.Repository, ref *plumbing.Reference) (*object.Commit, error) {
	tag, err := repo.TagObject(ref.Hash())
	switch {
	case err == nil:
		return tag.Commit()
	case errors.Is(err, plumbing.ErrObjectNotFound):
		return repo.CommitObject(ref.Hash())
	default:
		return nil, err
	}
}

// authFor picks credentials matching the URL's transport.
func (c *Client) authFor(url string) transport.AuthMethod {
	if c.auth != nil {
		return c.auth
	}
	if isSSHURL(url) {
		if auth := c.trySSHAuth(); auth != nil {
			return auth
		}
		return nil
	}
	if strings.HasPrefix(url, "https://") || strings.HasPrefix(url, "http://") {
		return c.tryHTTPAuth()
	}
	return nil
}

func isSSHURL(url string) bool {
	return strings.HasPrefix(url, "ssh://") || (strings.Contains(url, "@") && strings.Contains(url, ":") && !strings.Contains(url, "://"))
}

// trySSHAuth loads the first usable key from the common ~/.ssh locations.
func (c *Client) trySSHAuth() transport.AuthMethod {
	homeDir, err := c.home()
	if err != nil {
		return nil
	}

	keyPaths := []string{
		filepath.Join(homeDir, ".ssh", "id_ed25519"),
		filepath.Join(homeDir, ".ssh", "id_rsa"),
		filepath.Join(homeDir, ".ssh", "id_ecdsa"),
	}

	for _, keyPath := range keyPaths {
		if _, err := os.Stat(keyPath); err == nil {
			auth, err := ssh.NewPublicKeysFromFile("git", keyPath, "")
			if err == nil {
				return auth
			}
			c.logger.Debug("ssh key unusable", "path", keyPath, "err", err)
		}
	}

	return nil
}

// tryHTTPAuth builds basic auth from GITHUB_TOKEN, GITLAB_TOKEN or GIT_TOKEN.
func (c *Client) tryHTTPAuth() transport.AuthMethod {
	if token := c.getenv("GITHUB_TOKEN"); token != "" {
		return &http.BasicAuth{
			Username: "x-access-token",
			Password: token,
		}
	}

	if token := c.getenv("GITLAB_TOKEN"); token != "" {
		return &http.BasicAuth{
			Username: "gitlab-ci-token",
			Password: token,
		}
	}

	if token := c.getenv("GIT_TOKEN"); token != "" {
		return &http.BasicAuth{
			Username: "git",
			Password: token,
		}
	}

	return nil
}
