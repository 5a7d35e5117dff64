package codegen

import (
	"io"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
)

// Sink receives fully rendered sources. Nothing is handed to a sink until
// its text is complete.
type Sink interface {
	Write(src *GeneratedSource) error
}

// WriterSink copies the generated text to W, typically stdout.
type WriterSink struct {
	W io.Writer
}

func (s WriterSink) Write(src *GeneratedSource) error {
	if _, err := s.W.Write(src.Text); err != nil {
		return errors.Wrapf(err, "writing %s", src.Name)
	}
	return nil
}

// DirSink writes each source to Root/src.Path, creating directories as
// needed. The file is written under a temporary name and renamed into place
// so an interrupted run never leaves a truncated header behind.
type DirSink struct {
	Root string
}

// Target returns the path src will be written to.
func (s DirSink) Target(src *GeneratedSource) string {
	return filepath.Join(s.Root, src.Path)
}

func (s DirSink) Write(src *GeneratedSource) error {
	target := s.Target(src)
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "creating %s", dir)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(target)+".*")
	if err != nil {
		return errors.Wrapf(err, "creating temporary file for %s", target)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(src.Text); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "writing %s", target)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "writing %s", target)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return errors.Wrapf(err, "writing %s", target)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return errors.Wrapf(err, "renaming into %s", target)
	}
	return nil
}
