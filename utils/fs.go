package utils

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"golang.org/x/xerrors"
)

type Fs struct {
	AppFs afero.Fs
}

func NewFs(appFs afero.Fs) Fs {
	return Fs{AppFs: appFs}
}

func (fs Fs) WriteJSON(filePath string, data interface{}) error {
	f, err := fs.AppFs.Create(filePath)
	if err != nil {
		return xerrors.Errorf("unable to open a file: %w", err)
	}
	defer f.Close()

	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return xerrors.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err = f.Write(b); err != nil {
		return xerrors.Errorf("failed to save a file: %w", err)
	}
	return nil
}

// ReadJSON decodes filePath into v. ok is false when the file does not exist.
func (fs Fs) ReadJSON(filePath string, v interface{}) (ok bool, err error) {
	f, err := fs.AppFs.Open(filePath)
	if os.IsNotExist(err) {
		return false, nil
	} else if err != nil {
		return false, xerrors.Errorf("unable to open a file: %w", err)
	}
	defer f.Close()

	if err = json.NewDecoder(f).Decode(v); err != nil {
		return false, xerrors.Errorf("failed to decode %s: %w", filePath, err)
	}
	return true, nil
}

// WriteFileAtomic writes r next to filePath and renames it into place, so
// readers never see a partially written file.
func (fs Fs) WriteFileAtomic(filePath string, r io.Reader) error {
	if err := fs.AppFs.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return xerrors.Errorf("mkdir error: %w", err)
	}
	tmp := filePath + ".tmp"
	if err := afero.WriteReader(fs.AppFs, tmp, r); err != nil {
		_ = fs.AppFs.Remove(tmp)
		return xerrors.Errorf("failed to write %s: %w", tmp, err)
	}
	if err := fs.AppFs.Rename(tmp, filePath); err != nil {
		return xerrors.Errorf("failed to rename %s: %w", tmp, err)
	}
	return nil
}

func (fs Fs) Exists(filePath string) (bool, error) {
	return afero.Exists(fs.AppFs, filePath)
}
