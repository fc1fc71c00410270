package nvd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"golang.org/x/xerrors"

	"github.com/aquasecurity/nvd-search/utils"
)

const stateFile = "state.json"

// State maps a segment to the sha256 of its last downloaded artifact.
type State map[string]string

func (u *Updater) statePath() string {
	return filepath.Join(u.dir, stateFile)
}

// loadState returns empty state for a missing or undecodable state file.
func (u *Updater) loadState() (State, error) {
	b, err := afero.ReadFile(u.appFs, u.statePath())
	if os.IsNotExist(err) {
		return State{}, nil
	} else if err != nil {
		return nil, xerrors.Errorf("failed to load sync state: %w", err)
	}

	var state State
	if err = json.Unmarshal(b, &state); err != nil {
		log.WithField("path", u.statePath()).Warnf("Ignoring unreadable sync state: %s", err)
		return State{}, nil
	}
	if state == nil {
		return State{}, nil
	}
	return state, nil
}

func (u *Updater) saveState(state State) error {
	b, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return xerrors.Errorf("failed to marshal sync state: %w", err)
	}
	if err = utils.NewFs(u.appFs).WriteFileAtomic(u.statePath(), bytes.NewReader(b)); err != nil {
		return xerrors.Errorf("failed to save sync state: %w", err)
	}
	return nil
}
