package testutil

import (
	"archive/zip"
	"bytes"
	"fmt"
)

// BuildZip assembles an in-memory zip archive. Keys are entry names; entries
// ending with a slash become directories.
func BuildZip(entries map[string][]byte) []byte {
	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)

	for name, content := range entries {
		if name[len(name)-1] == '/' {
			if _, err := zw.Create(name); err != nil {
				panic(err)
			}
			continue
		}

		w, err := zw.Create(name)
		if err != nil {
			panic(err)
		}
		if _, err := w.Write(content); err != nil {
			panic(err)
		}
	}

	if err := zw.Close(); err != nil {
		panic(err)
	}

	return buf.Bytes()
}

// BuildMapZip assembles a valid map archive with the standard file convention
// of the map export tooling.
func BuildMapZip(internalName, displayName string, version int) []byte {
	folder := internalName
	return BuildZip(map[string][]byte{
		folder + "/" + internalName + ".scmap":        {0x4d, 0x61, 0x70, 0x1a, 0x00, 0x02},
		folder + "/" + internalName + "_save.lua":     []byte("Scenario = {\n    next_area_id = '2',\n}\n"),
		folder + "/" + internalName + "_script.lua":   []byte("-- script\n"),
		folder + "/" + internalName + "_scenario.lua": ScenarioLua(internalName, displayName, version),
	})
}

// ScenarioLua renders a scenario descriptor referencing the internal name the
// way the game's map exporter does.
func ScenarioLua(internalName, displayName string, version int) []byte {
	return []byte(fmt.Sprintf(`version = 3
ScenarioInfo = {
    name = '%s',
    description = '<LOC A_map_desc>A map for testing purposes.',
    type = 'skirmish',
    starts = true,
    preview = '',
    size = {1320, 1320},
    map = '/maps/%s/%s.scmap',
    save = '/maps/%s/%s_save.lua',
    script = '/maps/%s/%s_script.lua',
    map_version = %d,
    norushradius = 40.000000,
    Configurations = {
        ['standard'] = {
            teams = {
                {
                    name = 'FFA',
                    armies = {'ARMY_1', 'ARMY_2', 'ARMY_3', 'ARMY_4'},
                },
            },
            customprops = {},
        },
    },
}
`, displayName, internalName, internalName, internalName, internalName, internalName, internalName, version))
}
