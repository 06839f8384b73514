package fsutil

import (
	stderrors "errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/deploymenttheory/afpack/internal/utils/errors"
	"github.com/spf13/afero"
)

// maxTrashSuffix bounds the search for a free name inside the trash directory
const maxTrashSuffix = 1000

// trashInfoTimeFormat is the DeletionDate layout of the FreeDesktop trash
const trashInfoTimeFormat = "2006-01-02T15:04:05"

// MoveToTrash moves path into trashDir and returns the new location.
// Name collisions get a numeric suffix, the same way Finder renames "deps" to "deps 2".
//
// A trashDir named "files" is treated as a FreeDesktop trash: a matching
// info/<name>.trashinfo is written next to it so desktop trash managers can
// list and restore the entry. When path lives on another filesystem than
// trashDir the tree is copied into the trash and the source removed.
func MoveToTrash(fs afero.Fs, trashDir, path string) (string, error) {
	path = CleanPath(path)
	if !PathExists(fs, path) {
		return "", fmt.Errorf("%w: %s", errors.ErrFileNotFound, path)
	}

	if err := CreateDirIfNotExists(fs, trashDir); err != nil {
		return "", fmt.Errorf("%w: %s: %v", errors.ErrTrashFailed, trashDir, err)
	}

	infoDir := trashInfoDir(trashDir)
	if infoDir != "" {
		if err := CreateDirIfNotExists(fs, infoDir); err != nil {
			return "", fmt.Errorf("%w: %s: %v", errors.ErrTrashFailed, infoDir, err)
		}
	}

	base := filepath.Base(path)
	name := base
	for i := 2; trashNameTaken(fs, trashDir, infoDir, name); i++ {
		if i > maxTrashSuffix {
			return "", fmt.Errorf("%w: no free name for %s in %s", errors.ErrTrashFailed, base, trashDir)
		}
		name = fmt.Sprintf("%s %d", base, i)
	}
	target := filepath.Join(trashDir, name)

	// The info file exists before the entry it describes
	var infoFile string
	if infoDir != "" {
		infoFile = filepath.Join(infoDir, name+".trashinfo")
		if err := writeTrashInfo(fs, infoFile, path, time.Now()); err != nil {
			return "", fmt.Errorf("%w: %s: %v", errors.ErrTrashFailed, infoFile, err)
		}
	}

	if err := moveTree(fs, path, target); err != nil {
		if infoFile != "" {
			_ = fs.Remove(infoFile)
		}
		return "", fmt.Errorf("%w: %s: %v", errors.ErrTrashFailed, path, err)
	}
	return target, nil
}

// trashInfoDir returns the info directory paired with a FreeDesktop files directory, or ""
func trashInfoDir(trashDir string) string {
	trashDir = CleanPath(trashDir)
	if filepath.Base(trashDir) != "files" {
		return ""
	}
	return filepath.Join(filepath.Dir(trashDir), "info")
}

func trashNameTaken(fs afero.Fs, trashDir, infoDir, name string) bool {
	if PathExists(fs, filepath.Join(trashDir, name)) {
		return true
	}
	return infoDir != "" && PathExists(fs, filepath.Join(infoDir, name+".trashinfo"))
}

func writeTrashInfo(fs afero.Fs, infoFile, original string, deleted time.Time) error {
	abs, err := filepath.Abs(original)
	if err != nil {
		return err
	}

	f, err := fs.OpenFile(infoFile, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = fmt.Fprintf(f, "[Trash Info]\nPath=%s\nDeletionDate=%s\n",
		(&url.URL{Path: abs}).EscapedPath(), deleted.Format(trashInfoTimeFormat))
	return err
}

// moveTree renames src to dst, falling back to copy and remove across filesystems
func moveTree(fs afero.Fs, src, dst string) error {
	err := fs.Rename(src, dst)
	if err == nil || !stderrors.Is(err, syscall.EXDEV) {
		return err
	}

	if err := copyTree(fs, src, dst); err != nil {
		_ = fs.RemoveAll(dst)
		return fmt.Errorf("copy across filesystems: %w", err)
	}
	return fs.RemoveAll(src)
}

// copyTree copies directories, regular files and symlinks from src to dst.
// Other file types (sockets, devices) are skipped.
func copyTree(fs afero.Fs, src, dst string) error {
	return afero.Walk(fs, src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		switch mode := info.Mode(); {
		case mode.IsDir():
			return fs.MkdirAll(target, mode.Perm())
		case mode&os.ModeSymlink != 0:
			return copySymlink(fs, path, target)
		case mode.IsRegular():
			return copyFile(fs, path, target, info)
		default:
			return nil
		}
	})
}

func copySymlink(fs afero.Fs, src, dst string) error {
	reader, ok := fs.(afero.LinkReader)
	if !ok {
		return fmt.Errorf("symlink %s: filesystem cannot read links", src)
	}
	linker, ok := fs.(afero.Linker)
	if !ok {
		return fmt.Errorf("symlink %s: filesystem cannot create links", src)
	}

	link, err := reader.ReadlinkIfPossible(src)
	if err != nil {
		return err
	}
	return linker.SymlinkIfPossible(link, dst)
}

func copyFile(fs afero.Fs, src, dst string, info os.FileInfo) error {
	in, err := fs.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := fs.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	return fs.Chtimes(dst, info.ModTime(), info.ModTime())
}
