package osm2edits

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// LoadEditsFromFile reads edits for the map. Commands which don't match the map are dropped
func LoadEditsFromFile(m *Map, fname string) (*MapEdits, error) {
	data, err := os.ReadFile(fname)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't read edits file '%s'", fname)
	}
	perma, err := parsePermanentEdits(data, m)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't parse edits file '%s'", fname)
	}
	// Edits for another part of the same city may still apply
	if perma.MapName.City != m.name.City {
		return nil, errors.Wrapf(ErrWrongCity, "Edits are for '%s', but map is '%s'", perma.MapName.City, m.name.City)
	}
	return intoNonEmptyEdits(perma, m)
}

// LoadEditsFromBytes is LoadEditsFromFile without the city check
func LoadEditsFromBytes(m *Map, data []byte) (*MapEdits, error) {
	perma, err := parsePermanentEdits(data, m)
	if err != nil {
		return nil, errors.Wrap(err, "Can't parse edits")
	}
	return intoNonEmptyEdits(perma, m)
}

func parsePermanentEdits(data []byte, m *Map) (PermanentMapEdits, error) {
	perma := PermanentMapEdits{}
	if err := json.Unmarshal(data, &perma); err == nil && perma.Version == editsFormatVersion {
		return perma, nil
	}
	// Format may have changed
	return upgradeEdits(data, m)
}

func intoNonEmptyEdits(perma PermanentMapEdits, m *Map) (*MapEdits, error) {
	edits := perma.IntoEditsPermissive(m)
	if len(edits.Commands) == 0 {
		return nil, ErrEmptyEdits
	}
	return edits, nil
}

// save writes edits into the edits directory. Untitled edits without commands are not saved
func (edits *MapEdits) save(m *Map) error {
	if edits.isUntitled() && len(edits.Commands) == 0 {
		return nil
	}
	fname := m.EditsPath(edits.EditsName)
	if err := os.MkdirAll(filepath.Dir(fname), 0755); err != nil {
		return errors.Wrapf(err, "Can't create directory for '%s'", fname)
	}
	data, err := json.MarshalIndent(edits.ToPermanent(m), "", "  ")
	if err != nil {
		return errors.Wrap(err, "Can't marshal edits")
	}
	if err := os.WriteFile(fname, data, 0644); err != nil {
		return errors.Wrapf(err, "Can't write edits file '%s'", fname)
	}
	return nil
}
