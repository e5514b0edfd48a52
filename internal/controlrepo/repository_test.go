// SPDX-License-Identifier: MPL-2.0

package controlrepo

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"crmngr-cli/pkg/filter"
	"crmngr-cli/pkg/puppetfile"
)

// fakeGit simulates a clone: checking out a branch materializes its manifest
// on the filesystem. Commands listed in fail return an error.
type fakeGit struct {
	fs        afero.Fs
	manifests map[string]string
	branches  []string
	fail      map[string]error
	calls     []string
}

func (f *fakeGit) Run(_ context.Context, dir string, args ...string) (string, error) {
	call := strings.Join(args, " ")
	f.calls = append(f.calls, call)
	if err, ok := f.fail[call]; ok {
		return "", err
	}

	switch {
	case args[0] == "branch":
		var sb strings.Builder
		sb.WriteString("* master\n  remotes/origin/HEAD -> origin/master\n")
		for _, b := range f.branches {
			sb.WriteString("  remotes/origin/" + b + "\n")
		}
		return sb.String(), nil
	case args[0] == "checkout" && args[1] == "--quiet":
		path := filepath.Join(dir, ManifestFile)
		text, ok := f.manifests[args[2]]
		if !ok {
			_ = f.fs.Remove(path)
			return "", nil
		}
		return "", afero.WriteFile(f.fs, path, []byte(text), 0o644)
	}
	return "", nil
}

func newRepo(t *testing.T, fake *fakeGit) *Repository {
	t.Helper()
	fake.fs = afero.NewMemMapFs()
	r, err := Clone(context.Background(), "git@example.com:ops/control.git", WithExecutor(fake), WithFs(fake.fs))
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

const productionManifest = `forge 'https://forgeapi.puppetlabs.com'

mod 'ntp',
  :git => 'https://git.example.com/ntp.git',
  :tag => 'v1.0.0'
mod 'puppetlabs/stdlib', '4.9.0'
`

func TestParseBranches(t *testing.T) {
	t.Parallel()

	out := "* master\n  remotes/origin/HEAD -> origin/master\n  remotes/origin/master\n  remotes/origin/feature/x\n  local\n"
	require.Equal(t, []string{"master", "feature/x"}, parseBranches(out))
	require.Empty(t, parseBranches(""))
}

func TestClone(t *testing.T) {
	t.Parallel()

	fake := &fakeGit{}
	r := newRepo(t, fake)
	require.Equal(t, "clone --depth=1 --quiet --no-single-branch git@example.com:ops/control.git git", fake.calls[0])
	require.Equal(t, "git@example.com:ops/control.git", r.URL())

	require.NoError(t, r.Close())
	exists, err := afero.DirExists(fake.fs, r.root)
	require.NoError(t, err)
	require.False(t, exists)
}

func TestClone_Failure(t *testing.T) {
	t.Parallel()

	boom := &GitError{Args: []string{"clone"}, Output: "fatal: Could not read from remote repository.", Err: ErrRemoteUnreachable}
	fake := &fakeGit{fs: afero.NewMemMapFs(), fail: map[string]error{
		"clone --depth=1 --quiet --no-single-branch bad git": boom,
	}}
	_, err := Clone(context.Background(), "bad", WithExecutor(fake), WithFs(fake.fs))
	require.ErrorIs(t, err, ErrRemoteUnreachable)
	require.ErrorIs(t, err, ErrGit)
}

func TestRepository_Load(t *testing.T) {
	t.Parallel()

	fake := &fakeGit{
		branches: []string{"production", "development", "feature_a", "broken"},
		manifests: map[string]string{
			"production":  productionManifest,
			"development": productionManifest,
			"feature_a":   "mod 'puppetlabs/stdlib', '4.9.0'\nmod 'bad',\n  :git =>\n",
		},
	}
	r := newRepo(t, fake)

	envs, warnings, err := r.Load(context.Background(), filter.Filter{"!", "dev*"})
	require.NoError(t, err)
	require.Equal(t, []string{"broken", "feature_a", "production"}, puppetfile.EnvironmentNames(envs))

	prod, ok := puppetfile.FindEnvironment(envs, "production")
	require.True(t, ok)
	require.ElementsMatch(t, []string{"ntp", "stdlib"}, prod.ModuleNames())

	broken, _ := puppetfile.FindEnvironment(envs, "broken")
	require.Empty(t, broken.Modules)

	var missing, malformed bool
	for _, w := range warnings {
		switch {
		case w.Environment == "broken" && errors.Is(w.Err, ErrManifestMissing):
			missing = true
		case w.Environment == "feature_a":
			malformed = true
		}
	}
	require.True(t, missing, "missing manifest is a warning")
	require.True(t, malformed, "parse problem is a warning")
}

func TestRepository_Load_Extra(t *testing.T) {
	t.Parallel()

	fake := &fakeGit{
		branches:  []string{"production", "development"},
		manifests: map[string]string{"production": productionManifest, "development": productionManifest},
	}
	r := newRepo(t, fake)

	envs, _, err := r.Load(context.Background(), filter.Filter{"development"}, "production")
	require.NoError(t, err)
	require.Equal(t, []string{"development", "production"}, puppetfile.EnvironmentNames(envs))

	_, _, err = r.Load(context.Background(), filter.Filter{"nope*"})
	require.ErrorIs(t, err, ErrNoEnvironment)
}

func TestRepository_StagePublishRevert(t *testing.T) {
	t.Parallel()

	fake := &fakeGit{
		branches:  []string{"production"},
		manifests: map[string]string{"production": productionManifest},
	}
	r := newRepo(t, fake)
	ctx := context.Background()

	envs, _, err := r.Load(ctx, nil)
	require.NoError(t, err)

	unchanged, err := r.Stage(ctx, envs[0])
	require.NoError(t, err)
	require.False(t, unchanged.Changed(), "rendering a canonical manifest is a no-op")

	env := envs[0].Clone()
	v := puppetfile.Registry("4.20.0")
	env.Modules["stdlib"] = puppetfile.MustRegistryModule("stdlib", "puppetlabs", &v)

	d, err := r.Stage(ctx, env)
	require.NoError(t, err)
	require.True(t, d.Changed())
	require.Contains(t, d.String(), "-mod 'puppetlabs/stdlib', '4.9.0'\n")
	require.Contains(t, d.String(), "+mod 'puppetlabs/stdlib', '4.20.0'\n")

	written, err := afero.ReadFile(r.fs, ManifestFile)
	require.NoError(t, err)
	require.Equal(t, d.New, string(written))

	require.NoError(t, r.Publish(ctx, d, "Update stdlib module"))
	require.Contains(t, fake.calls, "commit -m Update stdlib module Puppetfile")
	require.Equal(t, "push --quiet origin production", fake.calls[len(fake.calls)-1])

	d, err = r.Stage(ctx, env)
	require.NoError(t, err)
	require.NoError(t, r.Revert(ctx, d))
	restored, err := afero.ReadFile(r.fs, ManifestFile)
	require.NoError(t, err)
	require.Equal(t, productionManifest, string(restored))
}

func TestRepository_StageWithoutManifest(t *testing.T) {
	t.Parallel()

	fake := &fakeGit{branches: []string{"docs"}, manifests: map[string]string{}}
	r := newRepo(t, fake)
	ctx := context.Background()

	envs, warnings, err := r.Load(ctx, nil)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	require.ErrorIs(t, warnings[0].Err, ErrManifestMissing)

	d, err := r.Stage(ctx, envs[0])
	require.NoError(t, err)
	require.False(t, d.Changed(), "empty environment without manifest must stay untouched")
	exists, err := afero.Exists(r.fs, ManifestFile)
	require.NoError(t, err)
	require.False(t, exists)

	env := envs[0].Clone()
	env.Modules["stdlib"] = puppetfile.MustRegistryModule("stdlib", "puppetlabs", nil)
	d, err = r.Stage(ctx, env)
	require.NoError(t, err)
	require.True(t, d.Changed(), "adding a module to a branch without manifest creates one")

	for _, call := range fake.calls {
		require.NotContains(t, call, "commit")
		require.NotContains(t, call, "push")
	}
}

func TestRepository_PublishRejected(t *testing.T) {
	t.Parallel()

	fake := &fakeGit{
		branches:  []string{"production"},
		manifests: map[string]string{"production": productionManifest},
		fail: map[string]error{
			"push --quiet origin production": &GitError{Args: []string{"push"}, Output: "! [rejected] production -> production (fetch first)"},
		},
	}
	r := newRepo(t, fake)

	err := r.Publish(context.Background(), Diff{Environment: "production", existed: true}, "msg")
	require.ErrorIs(t, err, ErrPushRejected)
	require.ErrorIs(t, err, ErrGit)

	var pr *PushRejectedError
	require.ErrorAs(t, err, &pr)
	require.Equal(t, "production", pr.Environment)
}

func TestRepository_CreateEnvironment(t *testing.T) {
	t.Parallel()

	t.Run("empty", func(t *testing.T) {
		t.Parallel()
		fake := &fakeGit{branches: []string{"production"}}
		r := newRepo(t, fake)

		require.NoError(t, r.CreateEnvironment(context.Background(), "feature_b", ""))

		manifest, err := afero.ReadFile(r.fs, ManifestFile)
		require.NoError(t, err)
		require.Equal(t, puppetfile.DefaultHeader+"\n\n", string(manifest))
		site, err := afero.ReadFile(r.fs, SiteManifest)
		require.NoError(t, err)
		require.Equal(t, SiteManifestContent, string(site))

		require.Equal(t, []string{
			"checkout --orphan feature_b",
			"reset --hard",
			"add Puppetfile manifests/site.pp",
			"commit -m " + InitMessage,
			"push --quiet origin feature_b",
		}, fake.calls[len(fake.calls)-5:])
	})

	t.Run("template", func(t *testing.T) {
		t.Parallel()
		fake := &fakeGit{branches: []string{"production"}, manifests: map[string]string{"production": productionManifest}}
		r := newRepo(t, fake)

		require.NoError(t, r.CreateEnvironment(context.Background(), "feature_b", "production"))
		require.Equal(t, []string{
			"checkout --quiet production",
			"checkout --orphan feature_b",
			"commit -m " + InitMessage,
			"push --quiet origin feature_b",
		}, fake.calls[len(fake.calls)-4:])
	})

	t.Run("exists", func(t *testing.T) {
		t.Parallel()
		r := newRepo(t, &fakeGit{branches: []string{"production"}})
		err := r.CreateEnvironment(context.Background(), "production", "")
		require.ErrorIs(t, err, ErrEnvironmentExists)
	})

	t.Run("missing_template", func(t *testing.T) {
		t.Parallel()
		r := newRepo(t, &fakeGit{branches: []string{"production"}})
		err := r.CreateEnvironment(context.Background(), "feature_b", "staging")
		require.ErrorIs(t, err, ErrEnvironmentNotFound)

		var ee *EnvironmentError
		require.ErrorAs(t, err, &ee)
		require.Equal(t, "staging", ee.Environment)
	})
}

func TestRepository_DeleteEnvironment(t *testing.T) {
	t.Parallel()

	fake := &fakeGit{branches: []string{"production", "feature_a"}}
	r := newRepo(t, fake)

	require.NoError(t, r.DeleteEnvironment(context.Background(), "feature_a"))
	require.Equal(t, "push origin :feature_a", fake.calls[len(fake.calls)-1])

	err := r.DeleteEnvironment(context.Background(), "nope")
	require.ErrorIs(t, err, ErrEnvironmentNotFound)
}

func TestParseGitError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		output string
		want   error
	}{
		{"fatal: not a git repository (or any of the parent directories): .git", ErrNotGitRepo},
		{"fatal: Could not read from remote repository.", ErrRemoteUnreachable},
		{"ERROR: Repository not found.", ErrRemoteUnreachable},
		{"error: pathspec 'x' did not match any file(s) known to git", nil},
	}
	for _, tt := range tests {
		t.Run(tt.output, func(t *testing.T) {
			t.Parallel()
			err := parseGitError([]string{"status"}, tt.output)
			require.ErrorIs(t, err, ErrGit)
			if tt.want != nil {
				require.ErrorIs(t, err, tt.want)
			}
			require.Contains(t, err.Error(), "git status: ")
		})
	}
}
