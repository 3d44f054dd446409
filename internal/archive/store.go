// Package archive persists queue snapshots as JSON files, one per
// queue id. When the archive directory lives inside a git worktree
// every write is committed automatically; outside a worktree the
// store degrades to plain files.
package archive

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/queueops/queuectl/faults"
	"github.com/queueops/queuectl/queue"
)

type Store struct {
	dir string
}

func NewStore(dir string) (*Store, error) {
	trimmed := strings.TrimSpace(dir)
	if trimmed == "" {
		return nil, faults.NewTypedError(faults.ValidationError, "archive directory must not be empty", nil)
	}
	absolute, err := filepath.Abs(trimmed)
	if err != nil {
		return nil, faults.NewTypedError(faults.ValidationError, "archive directory is invalid", err)
	}
	if err := os.MkdirAll(absolute, 0o755); err != nil {
		return nil, faults.NewTypedError(faults.InternalError, "failed to create archive directory", err)
	}
	return &Store{dir: absolute}, nil
}

func (s *Store) Dir() string { return s.dir }

// Save writes the snapshot for id and returns the file path. Writes
// are atomic: a temp file in the same directory is renamed over the
// target.
func (s *Store) Save(id string, snapshot queue.Value) (string, error) {
	fileName, err := snapshotFileName(id)
	if err != nil {
		return "", err
	}

	encoded, err := queue.EncodeIndent(snapshot)
	if err != nil {
		return "", err
	}
	encoded = append(encoded, '\n')

	target := filepath.Join(s.dir, fileName)
	temp, err := os.CreateTemp(s.dir, "."+fileName+".tmp-*")
	if err != nil {
		return "", faults.NewTypedError(faults.InternalError, "failed to stage archive file", err)
	}
	tempName := temp.Name()
	if _, err := temp.Write(encoded); err != nil {
		temp.Close()
		os.Remove(tempName)
		return "", faults.NewTypedError(faults.InternalError, "failed to write archive file", err)
	}
	if err := temp.Close(); err != nil {
		os.Remove(tempName)
		return "", faults.NewTypedError(faults.InternalError, "failed to write archive file", err)
	}
	if err := os.Rename(tempName, target); err != nil {
		os.Remove(tempName)
		return "", faults.NewTypedError(faults.InternalError, "failed to write archive file", err)
	}

	if err := s.commit(target, fmt.Sprintf("Archive queue %s", id)); err != nil {
		return "", err
	}
	return target, nil
}

// Load reads a previously archived snapshot.
func (s *Store) Load(id string) (queue.Value, error) {
	fileName, err := snapshotFileName(id)
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(filepath.Join(s.dir, fileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, faults.NewTypedError(faults.NotFoundError, fmt.Sprintf("no archived snapshot for queue %s", id), err)
		}
		return nil, faults.NewTypedError(faults.InternalError, "failed to read archive file", err)
	}
	return queue.ParseText(raw)
}

// List returns the ids of all archived snapshots.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, faults.NewTypedError(faults.InternalError, "failed to list archive directory", err)
	}
	var ids []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(entry.Name(), ".json"))
	}
	return ids, nil
}

// commit stages and commits the written file when the archive sits in
// a git worktree. A directory outside any worktree is not an error.
func (s *Store) commit(target, message string) error {
	repo, err := git.PlainOpenWithOptions(s.dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil
		}
		return faults.NewTypedError(faults.InternalError, "failed to open archive repository", err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return faults.NewTypedError(faults.InternalError, "failed to open archive worktree", err)
	}

	root := s.dir
	type rooter interface{ Root() string }
	if fsRoot, ok := wt.Filesystem.(rooter); ok {
		if candidate := strings.TrimSpace(fsRoot.Root()); candidate != "" {
			root = candidate
		}
	}

	rel, err := filepath.Rel(root, target)
	if err != nil {
		return faults.NewTypedError(faults.InternalError, "failed to resolve archive path", err)
	}
	rel = filepath.ToSlash(rel)

	if _, err := wt.Add(rel); err != nil {
		return faults.NewTypedError(faults.InternalError, "failed to stage archive file", err)
	}

	status, err := wt.Status()
	if err != nil {
		return faults.NewTypedError(faults.InternalError, "failed to read archive status", err)
	}
	entry, ok := status[rel]
	if !ok || entry.Staging == git.Unmodified {
		return nil
	}

	signature := commitSignature(repo)
	if _, err := wt.Commit(message, &git.CommitOptions{
		Author:    &signature,
		Committer: &signature,
	}); err != nil {
		return faults.NewTypedError(faults.InternalError, "failed to commit archive change", err)
	}
	return nil
}

func commitSignature(repo *git.Repository) object.Signature {
	name := "queuectl"
	email := "queuectl@localhost"
	if cfg, err := repo.Config(); err == nil {
		if strings.TrimSpace(cfg.User.Name) != "" {
			name = cfg.User.Name
		}
		if strings.TrimSpace(cfg.User.Email) != "" {
			email = cfg.User.Email
		}
	}
	return object.Signature{
		Name:  name,
		Email: email,
		When:  time.Now(),
	}
}

func snapshotFileName(id string) (string, error) {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return "", faults.NewTypedError(faults.ValidationError, "queue id must not be empty", nil)
	}
	if strings.ContainsAny(trimmed, "/\\") || trimmed == "." || trimmed == ".." {
		return "", faults.NewTypedError(faults.ValidationError, fmt.Sprintf("queue id %q is not a valid archive name", id), nil)
	}
	return trimmed + ".json", nil
}
