package osm2edits

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// upgradeEdits converts edits of older formats into the current one
func upgradeEdits(data []byte, m *Map) (PermanentMapEdits, error) {
	var value map[string]interface{}
	if err := json.Unmarshal(data, &value); err != nil {
		return PermanentMapEdits{}, errors.Wrap(err, "Can't parse edits")
	}
	version := 0
	if v, ok := value["version"].(float64); ok {
		version = int(v)
	}
	switch {
	case version <= 0:
		return PermanentMapEdits{}, ErrTooOld
	case version > editsFormatVersion:
		return PermanentMapEdits{}, errors.Errorf("Edits version %d is newer than supported %d", version, editsFormatVersion)
	}

	if version == 1 {
		fillLaneWidths(value, m.config)
		version = 2
	}
	value["version"] = version

	upgraded, err := json.Marshal(value)
	if err != nil {
		return PermanentMapEdits{}, errors.Wrap(err, "Can't marshal upgraded edits")
	}
	perma := PermanentMapEdits{}
	if err := json.Unmarshal(upgraded, &perma); err != nil {
		return PermanentMapEdits{}, errors.Wrap(err, "Can't parse upgraded edits")
	}
	return perma, nil
}

// fillLaneWidths sets default width for every lane spec without one. Lane widths became editable in version 2
func fillLaneWidths(value map[string]interface{}, cfg MapConfig) {
	commands, _ := value["commands"].([]interface{})
	for _, rawCmd := range commands {
		cmd, ok := rawCmd.(map[string]interface{})
		if !ok {
			continue
		}
		changeRoad, ok := cmd["ChangeRoad"].(map[string]interface{})
		if !ok {
			continue
		}
		for _, key := range []string{"old", "new"} {
			editRoad, ok := changeRoad[key].(map[string]interface{})
			if !ok {
				continue
			}
			specs, _ := editRoad["lanes_ltr"].([]interface{})
			for _, rawSpec := range specs {
				spec, ok := rawSpec.(map[string]interface{})
				if !ok {
					continue
				}
				if _, ok := spec["width"]; ok {
					continue
				}
				lt := LANE_UNDEFINED
				if name, ok := spec["lt"].(string); ok {
					lt = laneTypesTxt[name]
				}
				spec["width"] = cfg.laneWidth(lt)
			}
		}
	}
}
