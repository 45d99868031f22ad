package ps

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-git/go-billy/v6/memfs"
	"github.com/go-git/go-billy/v6/osfs"
	"github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/plumbing"
	"github.com/go-git/go-git/v6/plumbing/cache"
	"github.com/go-git/go-git/v6/plumbing/filemode"
	"github.com/go-git/go-git/v6/plumbing/object"
	"github.com/go-git/go-git/v6/storage/filesystem"
	"github.com/go-git/go-git/v6/storage/memory"
	"go.uber.org/zap"

	"github.com/nickyhof/LineDB/core"
)

// GitStore keeps the snapshot as one file in a git repository. Every save
// that changes the file becomes a commit.
type GitStore struct {
	mu       sync.Mutex
	repo     *git.Repository
	dir      string
	file     string
	codec    Codec
	identity core.Identity
	logger   *zap.Logger
}

// splitGitLocation turns git://<dir>/<file> into its repository directory and
// file name.
func splitGitLocation(location string) (string, string, error) {
	rest := location[len("git://"):]
	dir, file := filepath.Split(rest)
	if file == "" {
		return "", "", fmt.Errorf("invalid git location %s: missing file name", location)
	}
	if dir == "" {
		dir = "."
	}
	return filepath.Clean(dir), file, nil
}

// NewGitStore opens the repository in dir, creating it when missing.
func NewGitStore(dir, file string, opts Options) (*GitStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	wt := osfs.New(dir)
	fs, err := wt.Chroot(".git")
	if err != nil {
		return nil, err
	}

	storer := filesystem.NewStorageWithOptions(
		fs,
		cache.NewObjectLRUDefault(),
		filesystem.Options{ExclusiveAccess: true})

	var repo *git.Repository
	if _, statErr := os.Stat(fs.Root()); statErr != nil {
		repo, err = git.Init(storer, git.WithWorkTree(wt))
	} else {
		repo, err = git.Open(storer, wt)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open git repository in %s: %w", dir, err)
	}

	return newGitStore(repo, dir, file, opts), nil
}

// NewMemoryGitStore keeps the repository in memory. Nothing survives the
// process.
func NewMemoryGitStore(file string, opts Options) (*GitStore, error) {
	repo, err := git.Init(memory.NewStorage(), git.WithWorkTree(memfs.New()))
	if err != nil {
		return nil, err
	}
	return newGitStore(repo, "", file, opts), nil
}

func newGitStore(repo *git.Repository, dir, file string, opts Options) *GitStore {
	return &GitStore{
		repo:     repo,
		dir:      dir,
		file:     file,
		codec:    CodecFor(file),
		identity: opts.identity(),
		logger:   opts.logger(),
	}
}

func (s *GitStore) Location() string {
	if s.dir == "" {
		return "git://" + s.file
	}
	return "git://" + filepath.Join(s.dir, s.file)
}

func (s *GitStore) Load(ctx context.Context) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	headRef, err := s.repo.Head()
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: %s has no commits", ErrNotFound, s.Location())
	}

	commit, err := s.repo.CommitObject(headRef.Hash())
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to get commit: %w", err)
	}

	tree, err := commit.Tree()
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to get tree: %w", err)
	}

	file, err := tree.File(s.file)
	if errors.Is(err, object.ErrFileNotFound) {
		return Snapshot{}, fmt.Errorf("%w: %s", ErrNotFound, s.Location())
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to find %s: %w", s.file, err)
	}

	content, err := file.Contents()
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to read contents: %w", err)
	}

	snapshot, err := s.codec.Unmarshal([]byte(content))
	if err != nil {
		return Snapshot{}, fmt.Errorf("%s: %w", s.Location(), err)
	}
	s.logger.Debug("snapshot loaded", zap.String("location", s.Location()), zap.String("commit", headRef.Hash().String()))
	return snapshot, nil
}

func (s *GitStore) Save(ctx context.Context, snapshot Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := s.codec.Marshal(snapshot)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	currentTree, err := s.currentTree()
	if err != nil {
		return err
	}

	blobHash, err := s.createBlob(data)
	if err != nil {
		return err
	}

	entries, err := s.treeEntries(currentTree)
	if err != nil {
		return err
	}
	entries[s.file] = object.TreeEntry{Name: s.file, Mode: filemode.Regular, Hash: blobHash}

	list := make([]object.TreeEntry, 0, len(entries))
	for _, entry := range entries {
		list = append(list, entry)
	}
	newTree, err := s.buildTree(list)
	if err != nil {
		return err
	}
	if newTree == currentTree {
		s.logger.Debug("snapshot unchanged, nothing to commit", zap.String("location", s.Location()))
		return nil
	}

	message := fmt.Sprintf("Save %s (%d table(s))", snapshot.Name, len(snapshot.Tables))
	txn, err := s.commit(newTree, message)
	if err != nil {
		return err
	}

	if err := s.syncWorktree(); err != nil {
		return fmt.Errorf("failed to sync worktree: %w", err)
	}

	s.logger.Debug("snapshot committed",
		zap.String("location", s.Location()),
		zap.String("commit", txn.Id),
		zap.Stringer("author", s.identity))
	return nil
}

// History lists the commits reachable from HEAD, newest first.
func (s *GitStore) History(ctx context.Context) ([]Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.repo.Head(); err != nil {
		return nil, nil
	}

	iter, err := s.repo.Log(&git.LogOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to read log: %w", err)
	}
	defer iter.Close()

	var transactions []Transaction
	err = iter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		transactions = append(transactions, transactionOf(c))
		return nil
	})
	return transactions, err
}

// LatestTransaction describes the HEAD commit, or the zero Transaction when
// nothing was saved yet.
func (s *GitStore) LatestTransaction() Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()

	headRef, err := s.repo.Head()
	if err != nil {
		return Transaction{}
	}
	commit, err := s.repo.CommitObject(headRef.Hash())
	if err != nil {
		return Transaction{}
	}
	return transactionOf(commit)
}

func (s *GitStore) createBlob(data []byte) (plumbing.Hash, error) {
	obj := s.repo.Storer.NewEncodedObject()
	obj.SetType(plumbing.BlobObject)
	obj.SetSize(int64(len(data)))

	writer, err := obj.Writer()
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to create blob writer: %w", err)
	}
	if _, err := writer.Write(data); err != nil {
		writer.Close()
		return plumbing.ZeroHash, fmt.Errorf("failed to write blob data: %w", err)
	}
	writer.Close()

	hash, err := s.repo.Storer.SetEncodedObject(obj)
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to store blob: %w", err)
	}
	return hash, nil
}

// currentTree returns ZeroHash while the repository has no commits.
func (s *GitStore) currentTree() (plumbing.Hash, error) {
	headRef, err := s.repo.Head()
	if err != nil {
		return plumbing.ZeroHash, nil
	}

	commit, err := s.repo.CommitObject(headRef.Hash())
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to get head commit: %w", err)
	}
	return commit.TreeHash, nil
}

func (s *GitStore) treeEntries(treeHash plumbing.Hash) (map[string]object.TreeEntry, error) {
	entries := make(map[string]object.TreeEntry)
	if treeHash == plumbing.ZeroHash {
		return entries, nil
	}

	tree, err := object.GetTree(s.repo.Storer, treeHash)
	if err != nil {
		return nil, fmt.Errorf("failed to get tree: %w", err)
	}
	for _, entry := range tree.Entries {
		entries[entry.Name] = entry
	}
	return entries, nil
}

func (s *GitStore) buildTree(entries []object.TreeEntry) (plumbing.Hash, error) {
	// git orders directories as if their name ended in '/'
	sortKey := func(e object.TreeEntry) string {
		if e.Mode == filemode.Dir {
			return e.Name + "/"
		}
		return e.Name
	}
	sort.Slice(entries, func(i, j int) bool {
		return sortKey(entries[i]) < sortKey(entries[j])
	})

	tree := &object.Tree{Entries: entries}
	obj := s.repo.Storer.NewEncodedObject()
	if err := tree.Encode(obj); err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to encode tree: %w", err)
	}

	hash, err := s.repo.Storer.SetEncodedObject(obj)
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to store tree: %w", err)
	}
	return hash, nil
}

func (s *GitStore) commit(treeHash plumbing.Hash, message string) (Transaction, error) {
	var parents []plumbing.Hash
	headRef, err := s.repo.Head()
	if err == nil {
		parents = []plumbing.Hash{headRef.Hash()}
	}

	sig := object.Signature{
		Name:  s.identity.Name,
		Email: s.identity.Email,
		When:  time.Now(),
	}

	commit := &object.Commit{
		Author:       sig,
		Committer:    sig,
		Message:      message,
		TreeHash:     treeHash,
		ParentHashes: parents,
	}

	obj := s.repo.Storer.NewEncodedObject()
	if err := commit.Encode(obj); err != nil {
		return Transaction{}, fmt.Errorf("failed to encode commit: %w", err)
	}
	commitHash, err := s.repo.Storer.SetEncodedObject(obj)
	if err != nil {
		return Transaction{}, fmt.Errorf("failed to store commit: %w", err)
	}

	branch := plumbing.Master
	if headRef != nil && headRef.Name().IsBranch() {
		branch = headRef.Name()
	}
	if err := s.repo.Storer.SetReference(plumbing.NewHashReference(branch, commitHash)); err != nil {
		return Transaction{}, fmt.Errorf("failed to update HEAD: %w", err)
	}

	return Transaction{
		Id:      commitHash.String(),
		When:    sig.When,
		Author:  s.identity.String(),
		Message: message,
	}, nil
}

// syncWorktree checks the committed file out on disk. Memory stores read
// straight from the object store and skip it.
func (s *GitStore) syncWorktree() error {
	if s.dir == "" {
		return nil
	}

	wt, err := s.repo.Worktree()
	if err != nil {
		return err
	}
	headRef, err := s.repo.Head()
	if err != nil {
		return err
	}
	return wt.Reset(&git.ResetOptions{
		Mode:   git.HardReset,
		Commit: headRef.Hash(),
	})
}

func transactionOf(c *object.Commit) Transaction {
	author := ""
	if c.Author.Name != "" || c.Author.Email != "" {
		author = fmt.Sprintf("%s <%s>", c.Author.Name, c.Author.Email)
	}
	return Transaction{
		Id:      c.Hash.String(),
		When:    c.Committer.When,
		Author:  author,
		Message: strings.TrimSpace(c.Message),
	}
}
