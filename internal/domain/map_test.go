package domain

import (
	"archive/zip"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fafcommunity/backend/config"
	"github.com/fafcommunity/backend/internal/model"
	"github.com/fafcommunity/backend/internal/repository"
	"github.com/fafcommunity/backend/pkg/errorx"
	"github.com/fafcommunity/backend/pkg/testutil"
	"github.com/fafcommunity/backend/pkg/xcontext"
	"github.com/stretchr/testify/require"
)

func newUploadContext(t *testing.T) context.Context {
	t.Helper()

	ctx := testutil.MockContext()
	testutil.CreateFixtureDb(ctx)

	cfg := xcontext.Configs(ctx)
	cfg.Map = config.MapConfigs{
		MaxSize:          256 * 1024 * 1024,
		FinalDirectory:   t.TempDir(),
		PreviewPathSmall: t.TempDir(),
		PreviewPathLarge: t.TempDir(),
		PreviewSizeSmall: 128,
		PreviewSizeLarge: 512,
	}

	ctx = xcontext.WithConfigs(ctx, cfg)
	return xcontext.WithRequestUserID(ctx, testutil.Player1.ID)
}

func newMapDomain() MapDomain {
	return NewMapDomain(
		repository.NewMapRepository(),
		repository.NewPlayerRepository(),
		&testutil.StubPreviewRenderer{},
	)
}

func requireErrorCode(t *testing.T, err error, code errorx.Code) {
	t.Helper()

	var errx errorx.Error
	require.Truef(t, errors.As(err, &errx), "expected errorx.Error, got %v", err)
	require.Equal(t, code, errx.Code)
}

func tempWorkspaces(t *testing.T) []string {
	t.Helper()

	matches, err := filepath.Glob(filepath.Join(os.TempDir(), "faf-upload-*"))
	require.NoError(t, err)
	return matches
}

func TestUploadMap(t *testing.T) {
	ctx := newUploadContext(t)
	d := newMapDomain()
	before := tempWorkspaces(t)

	resp, err := d.UploadMap(ctx, &model.UploadMapRequest{
		Filename: "canis_river.zip",
		Data:     testutil.BuildMapZip("canis_river", "Canis River", 7),
	})
	require.NoError(t, err)
	require.Equal(t, "Canis River", resp.DisplayName)
	require.Equal(t, 7, resp.Version)
	require.Equal(t, "canis_river.v0007.zip", resp.Filename)

	// Workspace is gone again.
	require.ElementsMatch(t, before, tempWorkspaces(t))

	// Metadata landed as one map with one version.
	record, err := repository.NewMapRepository().GetByDisplayName(ctx, "Canis River")
	require.NoError(t, err)
	require.Equal(t, testutil.Player1.ID, record.AuthorID)
	require.Equal(t, "skirmish", record.MapType)
	require.Equal(t, "FFA", record.BattleType)
	require.Len(t, record.Versions, 1)

	version := record.Versions[0]
	require.Equal(t, 7, version.Version)
	require.Equal(t, 25, version.Width)
	require.Equal(t, 25, version.Height)
	require.Equal(t, 4, version.MaxPlayers)
	require.Equal(t, "canis_river.v0007.zip", version.Filename)
	require.False(t, version.Hidden)
	require.False(t, version.Ranked)
	require.NotContains(t, version.Description, "<LOC")
	require.Contains(t, version.Description, "A map for testing purposes.")

	// Previews exist in both configured directories.
	cfg := xcontext.Configs(ctx).Map
	for _, dir := range []string{cfg.PreviewPathSmall, cfg.PreviewPathLarge} {
		_, err := os.Stat(filepath.Join(dir, "canis_river.png"))
		require.NoError(t, err)
	}

	// The final archive holds the canonicalized folder.
	finalPath := filepath.Join(cfg.FinalDirectory, "canis_river.v0007.zip")
	reader, err := zip.OpenReader(finalPath)
	require.NoError(t, err)
	defer reader.Close()

	names := map[string][]byte{}
	for _, file := range reader.File {
		rc, err := file.Open()
		require.NoError(t, err)
		content, err := io.ReadAll(rc)
		require.NoError(t, err)
		rc.Close()
		names[file.Name] = content
	}

	require.Contains(t, names, "canis_river.v0007/canis_river.v0007.scmap")
	require.Contains(t, names, "canis_river.v0007/canis_river_scenario.lua")

	scenario := string(names["canis_river.v0007/canis_river_scenario.lua"])
	require.Contains(t, scenario, "/maps/canis_river.v0007/canis_river.v0007.scmap")
	require.NotContains(t, scenario, "/maps/canis_river/")
	require.NotContains(t, scenario, "/canis_river.scmap")
	require.NotContains(t, scenario, "v0007.v0007")
}

func TestUploadMapSecondVersionSameAuthor(t *testing.T) {
	ctx := newUploadContext(t)
	d := newMapDomain()

	_, err := d.UploadMap(ctx, &model.UploadMapRequest{
		Filename: "canis_river.zip",
		Data:     testutil.BuildMapZip("canis_river", "Canis River", 7),
	})
	require.NoError(t, err)

	resp, err := d.UploadMap(ctx, &model.UploadMapRequest{
		Filename: "canis_river.zip",
		Data:     testutil.BuildMapZip("canis_river", "Canis River", 8),
	})
	require.NoError(t, err)
	require.Equal(t, 8, resp.Version)
	require.Equal(t, "canis_river.v0008.zip", resp.Filename)

	// The map record is reused and now carries both versions.
	record, err := repository.NewMapRepository().GetByDisplayName(ctx, "Canis River")
	require.NoError(t, err)
	require.Equal(t, testutil.Player1.ID, record.AuthorID)
	require.Len(t, record.Versions, 2)

	got := []int{record.Versions[0].Version, record.Versions[1].Version}
	require.ElementsMatch(t, []int{7, 8}, got)

	// Both archives were placed, neither replaced the other.
	cfg := xcontext.Configs(ctx).Map
	for _, name := range []string{"canis_river.v0007.zip", "canis_river.v0008.zip"} {
		_, err := os.Stat(filepath.Join(cfg.FinalDirectory, name))
		require.NoError(t, err)
	}
}

func TestUploadMapDuplicateVersion(t *testing.T) {
	ctx := newUploadContext(t)
	d := newMapDomain()

	_, err := d.UploadMap(ctx, &model.UploadMapRequest{
		Filename: "canis_river.zip",
		Data:     testutil.BuildMapZip("canis_river", "Canis River", 7),
	})
	require.NoError(t, err)

	_, err = d.UploadMap(ctx, &model.UploadMapRequest{
		Filename: "canis_river_again.zip",
		Data:     testutil.BuildMapZip("different_internal", "Canis River", 7),
	})
	requireErrorCode(t, err, errorx.MapVersionExists)
}

func TestUploadMapNotOriginalAuthor(t *testing.T) {
	ctx := newUploadContext(t)
	d := newMapDomain()

	_, err := d.UploadMap(ctx, &model.UploadMapRequest{
		Filename: "canis_river.zip",
		Data:     testutil.BuildMapZip("canis_river", "Canis River", 7),
	})
	require.NoError(t, err)

	ctx = xcontext.WithRequestUserID(ctx, testutil.Player2.ID)
	_, err = d.UploadMap(ctx, &model.UploadMapRequest{
		Filename: "canis_river_v8.zip",
		Data:     testutil.BuildMapZip("canis_river", "Canis River", 8),
	})
	requireErrorCode(t, err, errorx.MapNotOriginalAuthor)
}

func TestUploadMapMissingRequiredFile(t *testing.T) {
	for _, missing := range []string{".scmap", "_save.lua", "_scenario.lua", "_script.lua"} {
		entries := map[string][]byte{
			"folder/canis_river.scmap":        []byte("scmap"),
			"folder/canis_river_save.lua":     []byte("save"),
			"folder/canis_river_scenario.lua": testutil.ScenarioLua("canis_river", "Canis River", 1),
			"folder/canis_river_script.lua":   []byte("script"),
		}
		for name := range entries {
			if strings.HasSuffix(name, missing) {
				delete(entries, name)
			}
		}

		ctx := newUploadContext(t)
		d := newMapDomain()
		before := tempWorkspaces(t)

		_, err := d.UploadMap(ctx, &model.UploadMapRequest{
			Filename: "canis_river.zip",
			Data:     testutil.BuildZip(entries),
		})
		requireErrorCode(t, err, errorx.MapFileInsideZipMissing)

		var errx errorx.Error
		require.True(t, errors.As(err, &errx))
		require.Equal(t, []any{missing}, errx.Args)

		// Nothing persisted, workspace cleaned.
		_, err = repository.NewMapRepository().GetByDisplayName(ctx, "Canis River")
		require.Error(t, err)
		require.ElementsMatch(t, before, tempWorkspaces(t))
	}
}

func TestUploadMapReservedName(t *testing.T) {
	for _, reserved := range []string{"Map", "SAVE", "script", "tables"} {
		ctx := newUploadContext(t)
		d := newMapDomain()

		_, err := d.UploadMap(ctx, &model.UploadMapRequest{
			Filename: "reserved.zip",
			Data:     testutil.BuildMapZip(reserved, "Some Map", 1),
		})
		requireErrorCode(t, err, errorx.MapNoValidMapName)
	}
}

func TestUploadMapUnparsableMapPath(t *testing.T) {
	ctx := newUploadContext(t)
	d := newMapDomain()

	scenario := []byte(`ScenarioInfo = {
    name = 'Broken Map',
    description = 'broken',
    type = 'skirmish',
    size = {512, 512},
    map = 'not a map path',
    map_version = 1,
    Configurations = {standard = {teams = {{name = 'FFA', armies = {'ARMY_1'}}}}},
}
`)

	_, err := d.UploadMap(ctx, &model.UploadMapRequest{
		Filename: "broken.zip",
		Data: testutil.BuildZip(map[string][]byte{
			"folder/broken.scmap":        []byte("scmap"),
			"folder/broken_save.lua":     []byte("save"),
			"folder/broken_scenario.lua": scenario,
			"folder/broken_script.lua":   []byte("script"),
		}),
	})
	requireErrorCode(t, err, errorx.MapNoValidMapName)
}

func TestUploadMapNoContentFolder(t *testing.T) {
	ctx := newUploadContext(t)
	d := newMapDomain()

	_, err := d.UploadMap(ctx, &model.UploadMapRequest{
		Filename: "flat.zip",
		Data: testutil.BuildZip(map[string][]byte{
			"loose_file.txt": []byte("no folder here"),
		}),
	})
	requireErrorCode(t, err, errorx.MapMissingMapFolderInsideZip)
}

func TestUploadMapMultipleContentFolders(t *testing.T) {
	ctx := newUploadContext(t)
	d := newMapDomain()

	_, err := d.UploadMap(ctx, &model.UploadMapRequest{
		Filename: "double.zip",
		Data: testutil.BuildZip(map[string][]byte{
			"first/a.txt":  []byte("a"),
			"second/b.txt": []byte("b"),
		}),
	})
	requireErrorCode(t, err, errorx.MapMultipleMapFoldersInsideZip)
}

func TestUploadMapMissingScenario(t *testing.T) {
	ctx := newUploadContext(t)
	d := newMapDomain()

	// The descriptor file is present but does not evaluate; both cases
	// surface as the same failure.
	_, err := d.UploadMap(ctx, &model.UploadMapRequest{
		Filename: "broken.zip",
		Data: testutil.BuildZip(map[string][]byte{
			"folder/broken.scmap":        []byte("scmap"),
			"folder/broken_save.lua":     []byte("save"),
			"folder/broken_scenario.lua": []byte("this is not = valid lua {"),
			"folder/broken_script.lua":   []byte("script"),
		}),
	})
	requireErrorCode(t, err, errorx.MapScenarioLuaMissing)
}

func TestUploadMapNameConflict(t *testing.T) {
	ctx := newUploadContext(t)
	d := newMapDomain()

	cfg := xcontext.Configs(ctx).Map
	conflict := filepath.Join(cfg.FinalDirectory, "canis_river.v0007.zip")
	require.NoError(t, os.WriteFile(conflict, []byte("already here"), 0600))

	_, err := d.UploadMap(ctx, &model.UploadMapRequest{
		Filename: "canis_river.zip",
		Data:     testutil.BuildMapZip("canis_river", "Canis River", 7),
	})
	requireErrorCode(t, err, errorx.MapNameConflict)

	// The existing file was not overwritten.
	content, err := os.ReadFile(conflict)
	require.NoError(t, err)
	require.Equal(t, "already here", string(content))
}

func TestUploadMapUnknownPlayer(t *testing.T) {
	ctx := newUploadContext(t)
	ctx = xcontext.WithRequestUserID(ctx, "nobody")
	d := newMapDomain()

	_, err := d.UploadMap(ctx, &model.UploadMapRequest{
		Filename: "canis_river.zip",
		Data:     testutil.BuildMapZip("canis_river", "Canis River", 7),
	})
	requireErrorCode(t, err, errorx.Unauthenticated)
}

func TestGenerateMapName(t *testing.T) {
	require.Equal(t, "my_map.v0007.zip", generateMapName("My Map", 7, "zip"))
	require.Equal(t, "a_b_c.v0001.zip", generateMapName("A b C", 1, "zip"))

	// Traversal segments collapse instead of escaping the target directory.
	require.Equal(t, "evil.v0001.zip", generateMapName("../evil", 1, "zip"))
	require.Equal(t, "b.v0002.zip", generateMapName("a/../../b", 2, "zip"))
	require.Equal(t, "a_b.v0003.zip", generateMapName("a/b", 3, "zip"))
}

func TestMapSizeDerivation(t *testing.T) {
	// 51.2 game units per terrain kilometer, truncated.
	for raw, km := range map[int]int{1320: 25, 512: 10} {
		require.Equal(t, km, int(float64(raw)/mapSizeFactor))
	}
}
