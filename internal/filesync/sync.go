// Package filesync mirrors a source directory into a destination directory.
//
// The decision logic is a pure function over two hash-to-filename maps, so
// it can be tested without touching the filesystem; Sync is the thin
// imperative shell around it.
package filesync

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"
	"github.com/zeebo/xxh3"
)

const blockSize = 65536

type ActionKind string

const (
	ActionCopy   ActionKind = "COPY"
	ActionMove   ActionKind = "MOVE"
	ActionDelete ActionKind = "DELETE"
)

// Action is a single filesystem operation needed to bring the destination
// in line with the source.
type Action struct {
	Kind ActionKind
	Src  string
	Dst  string
}

// HashFile returns the content hash of the file at path.
func HashFile(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", errors.Wrap(err, "failed to open file")
	}
	defer file.Close()

	hasher := xxh3.New()
	buf := make([]byte, blockSize)
	for {
		n, err := file.Read(buf)
		if n > 0 {
			hasher.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", errors.Wrap(err, "failed to read file")
		}
	}

	return strconv.FormatUint(hasher.Sum64(), 16), nil
}

// ReadPathsAndHashes walks root and maps content hash to file name. This is
// the only read-side I/O in the package.
func ReadPathsAndHashes(root string) (map[string]string, error) {
	hashes := map[string]string{}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		hash, err := HashFile(path)
		if err != nil {
			return err
		}
		hashes[hash] = d.Name()
		return nil
	})
	if err != nil {
		return nil, err
	}

	return hashes, nil
}

// DetermineActions decides what to copy, move and delete given the hashes on
// both sides. It is pure: simple data in, simple data out.
func DetermineActions(srcHashes, dstHashes map[string]string, srcRoot, dstRoot string) []Action {
	var actions []Action

	for hash, filename := range srcHashes {
		dstName, ok := dstHashes[hash]
		switch {
		case !ok:
			actions = append(actions, Action{
				Kind: ActionCopy,
				Src:  filepath.Join(srcRoot, filename),
				Dst:  filepath.Join(dstRoot, filename),
			})
		case dstName != filename:
			actions = append(actions, Action{
				Kind: ActionMove,
				Src:  filepath.Join(dstRoot, dstName),
				Dst:  filepath.Join(dstRoot, filename),
			})
		}
	}

	for hash, filename := range dstHashes {
		if _, ok := srcHashes[hash]; !ok {
			actions = append(actions, Action{
				Kind: ActionDelete,
				Src:  filepath.Join(dstRoot, filename),
			})
		}
	}

	return actions
}

// Sync makes dst mirror src: new files are copied, renamed files are moved,
// files absent from src are removed.
func Sync(src, dst string) error {
	srcHashes, err := ReadPathsAndHashes(src)
	if err != nil {
		return errors.Wrap(err, "failed to read source")
	}
	dstHashes, err := ReadPathsAndHashes(dst)
	if err != nil {
		return errors.Wrap(err, "failed to read destination")
	}

	actions := DetermineActions(srcHashes, dstHashes, src, dst)

	for _, action := range actions {
		switch action.Kind {
		case ActionCopy:
			if err := copyFile(action.Src, action.Dst); err != nil {
				return err
			}
		case ActionMove:
			if err := os.Rename(action.Src, action.Dst); err != nil {
				return errors.Wrap(err, "failed to move file")
			}
		case ActionDelete:
			if err := os.Remove(action.Src); err != nil {
				return errors.Wrap(err, "failed to delete file")
			}
		}
	}

	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return errors.Wrap(err, "failed to open source file")
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return errors.Wrap(err, "failed to create destination file")
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return errors.Wrap(err, "failed to copy file")
	}
	return out.Close()
}
