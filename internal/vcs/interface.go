// Package vcs provides version control system abstractions.
package vcs

import (
	"context"
	"time"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// ShortIDLength is the minimum number of hex digits of an abbreviated
// revision.
const ShortIDLength = 7

// Repository provides access to git repository operations.
type Repository interface {
	// Head returns a reference to the HEAD commit.
	Head() (Reference, error)
	// HeadFiles returns the path of every file in the HEAD tree.
	HeadFiles() (map[string]struct{}, error)
	// Log returns a commit iterator starting from HEAD, newest commits first.
	Log(opts *LogOptions) (CommitIterator, error)
	// LogWithContext is Log with cancellation between commits.
	LogWithContext(ctx context.Context, opts *LogOptions) (CommitIterator, error)
	// CommitObject returns the commit with the given hash.
	CommitObject(hash plumbing.Hash) (Commit, error)
	// RepoPath returns the root path of the repository.
	RepoPath() string
}

// Reference represents a git reference (branch, tag, HEAD).
type Reference interface {
	Hash() plumbing.Hash
	// Name returns the short reference name, e.g. "main" or "HEAD".
	Name() string
}

// LogOptions configures the commit log query.
type LogOptions struct {
	Since *time.Time
}

// CommitIterator iterates over commits.
type CommitIterator interface {
	ForEach(fn func(Commit) error) error
	Close()
}

// Commit represents a git commit.
type Commit interface {
	// Hash returns the commit hash.
	Hash() plumbing.Hash
	// ShortID returns the hash cut to ShortIDLength digits, for messages.
	ShortID() string
	// NumParents returns the number of parent commits.
	NumParents() int
	// ParentHashes returns the parent hashes in order.
	ParentHashes() []plumbing.Hash
	// Parent returns the nth parent commit.
	Parent(n int) (Commit, error)
	// Tree returns the tree object for this commit.
	Tree() (Tree, error)
	// Changes returns the files that differ between the parent's tree and
	// this commit's tree. A nil parent compares against the empty tree.
	Changes(parent Commit) (Changes, error)
	// Author returns commit author information.
	Author() object.Signature
	// Committer returns committer information.
	Committer() object.Signature
	// Message returns the commit message.
	Message() string
}

// TreeEntry represents a file in a git tree.
type TreeEntry struct {
	Path string
	Size int64
}

// Tree represents a git tree object.
type Tree interface {
	// Diff computes differences between this tree and another.
	Diff(to Tree) (Changes, error)
	// Entries returns all files in the tree (recursively).
	Entries() ([]TreeEntry, error)
	// Text returns the content of the file at path. ok is false when the
	// path is not a file in this tree or its content is not valid UTF-8.
	Text(path string) (content string, ok bool, err error)
}

// Changes represents a collection of file changes between trees.
type Changes []Change

// Change represents a single file change.
type Change interface {
	// FromName returns the source file name (empty for new files).
	FromName() string
	// ToName returns the destination file name (empty for deleted files).
	ToName() string
	// Path returns the destination name, or the source name for deletions.
	Path() string
}

// Opener opens git repositories.
type Opener interface {
	// PlainOpen opens an existing git repository.
	PlainOpen(path string) (Repository, error)
	// PlainOpenWithDetect opens a git repository, detecting .git in parent directories.
	PlainOpenWithDetect(path string) (Repository, error)
}
