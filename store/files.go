/*
Package store reads and writes JSON checkpoint files. Writes go to a
temporary file in the target directory first and are renamed into place, so
a reader never sees a half-written checkpoint.
*/
package store

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/getlantern/errors"
)

func readFileContents(filename string) ([]byte, error) {
	return os.ReadFile(filename)
}

func writeFileContents(filename string, contents []byte) (err error) {
	dir := filepath.Dir(filename)
	if err = os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(filename)+".*")
	if err != nil {
		return errors.Wrap(err)
	}
	defer func() {
		if err != nil {
			os.Remove(tmp.Name())
		}
	}()
	if _, err = tmp.Write(contents); err != nil {
		tmp.Close()
		return errors.Wrap(err)
	}
	if err = tmp.Sync(); err != nil {
		tmp.Close()
		return errors.Wrap(err)
	}
	if err = tmp.Close(); err != nil {
		return errors.Wrap(err)
	}
	if err = os.Rename(tmp.Name(), filename); err != nil {
		return errors.Wrap(err)
	}
	return nil
}

/*
SaveJSON marshals v and replaces filename with it.
*/
func SaveJSON(filename string, v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err)
	}
	return writeFileContents(filename, b)
}

/*
LoadJSON reads filename into v.
*/
func LoadJSON(filename string, v interface{}) error {
	b, err := readFileContents(filename)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}
