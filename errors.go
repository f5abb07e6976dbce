package osm2edits

import (
	"github.com/pkg/errors"
)

var (
	// ErrEmptyEdits means none of the loaded commands apply to the map
	ErrEmptyEdits = errors.New("None of the edits apply to this map")
	// ErrWrongCity means edits were made for a map of another city
	ErrWrongCity = errors.New("Edits are for another city")
	// ErrTooOld means edits format predates any supported upgrade
	ErrTooOld = errors.New("Edits are too old to be upgraded")
)
