package domain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"io"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/fafcommunity/backend/internal/common"
	"github.com/fafcommunity/backend/internal/entity"
	"github.com/fafcommunity/backend/internal/model"
	"github.com/fafcommunity/backend/internal/repository"
	"github.com/fafcommunity/backend/pkg/archive"
	"github.com/fafcommunity/backend/pkg/errorx"
	"github.com/fafcommunity/backend/pkg/lua"
	"github.com/fafcommunity/backend/pkg/xcontext"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// mapSizeFactor converts the raw descriptor size into published map units.
const mapSizeFactor = 51.2

var (
	requiredMapFiles = []string{".scmap", "_save.lua", "_scenario.lua", "_script.lua"}
	reservedMapNames = []string{"save", "script", "map", "tables"}
	mapNamePattern   = regexp.MustCompile(`([^/]+)\.scmap`)
	locTagPattern    = regexp.MustCompile(`<LOC .*?>`)
)

type MapDomain interface {
	UploadMap(ctx context.Context, req *model.UploadMapRequest) (*model.UploadMapResponse, error)
}

type mapDomain struct {
	mapRepo         repository.MapRepository
	playerRepo      repository.PlayerRepository
	previewRenderer common.PreviewRenderer
}

func NewMapDomain(
	mapRepo repository.MapRepository,
	playerRepo repository.PlayerRepository,
	previewRenderer common.PreviewRenderer,
) MapDomain {
	return &mapDomain{
		mapRepo:         mapRepo,
		playerRepo:      playerRepo,
		previewRenderer: previewRenderer,
	}
}

// mapUploadData is the frozen snapshot of one upload. It is assembled from the
// descriptor before any entity is persisted or any file is touched, so the
// later pipeline steps never read from a structure still being edited.
type mapUploadData struct {
	displayName  string
	mapType      string
	battleType   string
	description  string
	width        int
	height       int
	maxPlayers   int
	version      int
	originalName string
	canonicalize bool
	newBaseName  string
	filename     string
}

// UploadMap runs the upload pipeline as an ordered sequence of steps: extract,
// validate, parse, resolve names, persist metadata, render previews, rewrite
// the content folder, repack. Persistence is the first irreversible step and
// the folder rewrite is the second; everything before the commit only touches
// the temporary workspace.
func (d *mapDomain) UploadMap(ctx context.Context, req *model.UploadMapRequest) (*model.UploadMapResponse, error) {
	if err := d.readMultipart(ctx, req); err != nil {
		return nil, err
	}

	author, err := d.playerRepo.GetByID(ctx, xcontext.RequestUserID(ctx))
	if err != nil {
		return nil, errorx.New(errorx.Unauthenticated, "User not found")
	}

	baseDir, err := common.CreateTempDir()
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create temporary workspace: %v", err)
		return nil, errorx.Unknown
	}
	defer os.RemoveAll(baseDir)

	contentFolder, err := d.extract(ctx, baseDir, req)
	if err != nil {
		return nil, err
	}

	if err := validateMapStructure(contentFolder); err != nil {
		return nil, err
	}

	scenarioInfo, err := loadScenarioInfo(contentFolder)
	if err != nil {
		return nil, err
	}

	data, err := buildUploadData(scenarioInfo)
	if err != nil {
		return nil, err
	}

	existing, err := d.findExistingMap(ctx, data.displayName)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.AuthorID != author.ID {
			return nil, errorx.New(errorx.MapNotOriginalAuthor,
				"Map %s can only be updated by its original author", data.displayName)
		}
		for _, version := range existing.Versions {
			if version.Version == data.version {
				return nil, errorx.New(errorx.MapVersionExists,
					"Map %s already has a version %d", data.displayName, data.version)
			}
		}
	}

	finalPath := filepath.Join(xcontext.Configs(ctx).Map.FinalDirectory, data.filename)
	if _, err := os.Stat(finalPath); err == nil {
		return nil, errorx.New(errorx.MapNameConflict,
			"A map with file name %s already exists", data.filename)
	}

	if err := d.persist(ctx, existing, author, data); err != nil {
		return nil, err
	}

	if err := d.generatePreviews(ctx, contentFolder, req.Filename); err != nil {
		return nil, err
	}

	if err := d.reconcileAndPlace(ctx, contentFolder, data, finalPath); err != nil {
		return nil, err
	}

	return &model.UploadMapResponse{
		DisplayName: data.displayName,
		Version:     data.version,
		Filename:    data.filename,
	}, nil
}

func (d *mapDomain) readMultipart(ctx context.Context, req *model.UploadMapRequest) error {
	if len(req.Data) > 0 {
		return nil
	}

	r := xcontext.HTTPRequest(ctx)
	if r == nil {
		return errorx.New(errorx.BadRequest, "No map data provided")
	}

	maxSize := xcontext.Configs(ctx).Map.MaxSize
	if err := r.ParseMultipartForm(maxSize); err != nil {
		return errorx.New(errorx.BadRequest, "Request must be multipart form")
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return errorx.New(errorx.BadRequest, "Error retrieving the file")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxSize+1))
	if err != nil {
		return errorx.New(errorx.BadRequest, "Cannot read the uploaded file")
	}
	if int64(len(data)) > maxSize {
		return errorx.New(errorx.BadRequest, "The uploaded file is too large")
	}

	req.Data = data
	if req.Filename == "" {
		req.Filename = header.Filename
	}

	return nil
}

// extract writes the upload into the workspace, unpacks it, and locates the
// single top-level content folder.
func (d *mapDomain) extract(ctx context.Context, baseDir string, req *model.UploadMapRequest) (string, error) {
	archivePath := filepath.Join(baseDir, filepath.Base(req.Filename))
	if err := os.WriteFile(archivePath, req.Data, 0600); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot write uploaded archive: %v", err)
		return "", errorx.Unknown
	}

	if err := archive.Extract(archivePath, baseDir); err != nil {
		return "", errorx.New(errorx.BadRequest, "Cannot extract the uploaded archive")
	}

	entries, err := os.ReadDir(baseDir)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot list workspace: %v", err)
		return "", errorx.Unknown
	}

	var folders []string
	for _, entry := range entries {
		if entry.IsDir() {
			folders = append(folders, entry.Name())
		}
	}

	switch len(folders) {
	case 0:
		return "", errorx.New(errorx.MapMissingMapFolderInsideZip,
			"The map archive must contain a map folder")
	case 1:
		return filepath.Join(baseDir, folders[0]), nil
	default:
		return "", errorx.New(errorx.MapMultipleMapFoldersInsideZip,
			"The map archive must contain exactly one map folder, found %d", len(folders))
	}
}

// validateMapStructure confirms that every required file suffix occurs at
// least once in the content folder.
func validateMapStructure(contentFolder string) error {
	entries, err := os.ReadDir(contentFolder)
	if err != nil {
		return errorx.Unknown
	}

	for _, suffix := range requiredMapFiles {
		found := false
		for _, entry := range entries {
			if strings.HasSuffix(entry.Name(), suffix) {
				found = true
				break
			}
		}
		if !found {
			return errorx.New(errorx.MapFileInsideZipMissing,
				"The map folder must contain a file ending with %s", suffix)
		}
	}

	return nil
}

func loadScenarioInfo(contentFolder string) (lua.Value, error) {
	entries, err := os.ReadDir(contentFolder)
	if err != nil {
		return lua.Value{}, errorx.Unknown
	}

	scenarioPath := ""
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), "_scenario.lua") {
			scenarioPath = filepath.Join(contentFolder, entry.Name())
			break
		}
	}
	if scenarioPath == "" {
		return lua.Value{}, errorx.New(errorx.MapScenarioLuaMissing,
			"The map folder must contain a scenario descriptor")
	}

	root, err := lua.ParseFile(scenarioPath)
	if err != nil {
		return lua.Value{}, errorx.New(errorx.MapScenarioLuaMissing,
			"Cannot evaluate the scenario descriptor")
	}

	scenarioInfo := root.Field("ScenarioInfo")
	if scenarioInfo.IsNil() {
		return lua.Value{}, errorx.New(errorx.MapScenarioLuaMissing,
			"The scenario descriptor does not define a ScenarioInfo table")
	}

	return scenarioInfo, nil
}

// buildUploadData derives the frozen upload snapshot from the descriptor.
// Coercion failures of any descriptor field are fatal for the whole upload.
func buildUploadData(scenarioInfo lua.Value) (*mapUploadData, error) {
	originalName, err := extractInternalName(scenarioInfo)
	if err != nil {
		return nil, err
	}

	parseFailure := errorx.New(errorx.MapScenarioLuaMissing, "Cannot evaluate the scenario descriptor")

	displayName, err := scenarioInfo.Field("name").AsString()
	if err != nil {
		return nil, parseFailure
	}
	mapType, err := scenarioInfo.Field("type").AsString()
	if err != nil {
		return nil, parseFailure
	}
	description, err := scenarioInfo.Field("description").AsString()
	if err != nil {
		return nil, parseFailure
	}
	version, err := scenarioInfo.Field("map_version").AsInt()
	if err != nil {
		return nil, parseFailure
	}
	rawWidth, err := scenarioInfo.Field("size").Index(1).AsInt()
	if err != nil {
		return nil, parseFailure
	}
	rawHeight, err := scenarioInfo.Field("size").Index(2).AsInt()
	if err != nil {
		return nil, parseFailure
	}

	firstTeam := scenarioInfo.Field("Configurations").Field("standard").Field("teams").Index(1)
	battleType, err := firstTeam.Field("name").AsString()
	if err != nil {
		return nil, parseFailure
	}
	maxPlayers, err := firstTeam.Field("armies").Len()
	if err != nil {
		return nil, parseFailure
	}

	filename := generateMapName(displayName, version, "zip")
	newBaseName := strings.TrimSuffix(filename, filepath.Ext(filename))

	return &mapUploadData{
		displayName:  displayName,
		mapType:      mapType,
		battleType:   battleType,
		description:  locTagPattern.ReplaceAllString(description, ""),
		width:        int(float64(rawWidth) / mapSizeFactor),
		height:       int(float64(rawHeight) / mapSizeFactor),
		maxPlayers:   maxPlayers,
		version:      version,
		originalName: originalName,
		canonicalize: newBaseName != originalName,
		newBaseName:  newBaseName,
		filename:     filename,
	}, nil
}

// extractInternalName pulls the internal map identifier out of the raw "map"
// path field and rejects reserved names.
func extractInternalName(scenarioInfo lua.Value) (string, error) {
	raw, _ := scenarioInfo.Field("map").AsString()
	match := mapNamePattern.FindStringSubmatch(raw)
	if match == nil {
		return "", errorx.New(errorx.MapNoValidMapName,
			"The map path %s does not contain a valid map name", raw)
	}

	name := match[1]
	for _, reserved := range reservedMapNames {
		if strings.EqualFold(name, reserved) {
			return "", errorx.New(errorx.MapNoValidMapName,
				"The map name %s is reserved", name)
		}
	}

	return name, nil
}

// normalizeMapName lower-cases the display name, replaces spaces with
// underscores, and collapses any path segments so the result is always a
// single safe path component.
func normalizeMapName(displayName string) string {
	name := strings.ReplaceAll(strings.ToLower(displayName), " ", "_")
	name = strings.TrimPrefix(path.Clean("/"+filepath.ToSlash(name)), "/")

	return strings.ReplaceAll(name, "/", "_")
}

func generateMapName(displayName string, version int, extension string) string {
	return fmt.Sprintf("%s.v%04d.%s", normalizeMapName(displayName), version, extension)
}

func (d *mapDomain) findExistingMap(ctx context.Context, displayName string) (*entity.Map, error) {
	existing, err := d.mapRepo.GetByDisplayName(ctx, displayName)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}

		xcontext.Logger(ctx).Errorf("Cannot get map by display name: %v", err)
		return nil, errorx.Unknown
	}

	return existing, nil
}

// persist writes the map and the new version as one transactional unit. The
// commit happens here, before any destructive file operation, so a constraint
// violation surfaced by the store can never leave renamed files behind.
func (d *mapDomain) persist(ctx context.Context, existing *entity.Map, author *entity.Player, data *mapUploadData) error {
	mapEntity := existing
	if mapEntity == nil {
		mapEntity = &entity.Map{Base: entity.Base{ID: uuid.NewString()}}
	}
	mapEntity.DisplayName = data.displayName
	mapEntity.MapType = data.mapType
	mapEntity.BattleType = data.battleType
	mapEntity.AuthorID = author.ID
	mapEntity.Versions = append(mapEntity.Versions, entity.MapVersion{
		Base:        entity.Base{ID: uuid.NewString()},
		MapID:       mapEntity.ID,
		Version:     data.version,
		Description: data.description,
		Width:       data.width,
		Height:      data.height,
		MaxPlayers:  data.maxPlayers,
		Hidden:      false,
		Ranked:      false,
		Filename:    data.filename,
	})

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	if err := d.mapRepo.Save(ctx, mapEntity); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot save map %s: %v", data.displayName, err)
		return errorx.Unknown
	}

	xcontext.WithCommitDBTransaction(ctx)
	return nil
}

func (d *mapDomain) generatePreviews(ctx context.Context, contentFolder, uploadFilename string) error {
	cfg := xcontext.Configs(ctx).Map
	base := filepath.Base(uploadFilename)
	previewName := strings.TrimSuffix(base, filepath.Ext(base)) + ".png"

	targets := []struct {
		dir  string
		size int
	}{
		{cfg.PreviewPathSmall, cfg.PreviewSizeSmall},
		{cfg.PreviewPathLarge, cfg.PreviewSizeLarge},
	}

	for _, target := range targets {
		img, err := d.previewRenderer.Render(contentFolder, target.size, target.size)
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot render map preview: %v", err)
			return errorx.Unknown
		}

		if err := os.MkdirAll(target.dir, 0755); err != nil {
			xcontext.Logger(ctx).Errorf("Cannot create preview directory: %v", err)
			return errorx.Unknown
		}

		out, err := os.Create(filepath.Join(target.dir, previewName))
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot create preview file: %v", err)
			return errorx.Unknown
		}

		if err := png.Encode(out, img); err != nil {
			out.Close()
			xcontext.Logger(ctx).Errorf("Cannot encode preview: %v", err)
			return errorx.Unknown
		}
		out.Close()
	}

	return nil
}

// reconcileAndPlace renames the folder contents to the canonical name and
// repacks them at the final destination. Renames happen before the enclosing
// folder move so path-keyed lookups stay valid throughout.
func (d *mapDomain) reconcileAndPlace(ctx context.Context, contentFolder string, data *mapUploadData, finalPath string) error {
	if data.canonicalize {
		if err := renameMapFiles(contentFolder, data.originalName, data.newBaseName); err != nil {
			return err
		}
		if err := rewriteNameReferences(ctx, contentFolder, data.originalName, data.newBaseName); err != nil {
			return err
		}

		newFolder := filepath.Join(filepath.Dir(contentFolder), data.newBaseName)
		if err := os.Rename(contentFolder, newFolder); err != nil {
			return errorx.New(errorx.MapRenameFailed, "Cannot rename the map folder")
		}
		contentFolder = newFolder
	}

	if err := os.MkdirAll(filepath.Dir(finalPath), 0755); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create final map directory: %v", err)
		return errorx.Unknown
	}

	// Exclusive create: two uploads racing for the same canonical filename
	// must not both succeed.
	out, err := os.OpenFile(finalPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if os.IsExist(err) {
			return errorx.New(errorx.MapNameConflict,
				"A map with file name %s already exists", data.filename)
		}

		xcontext.Logger(ctx).Errorf("Cannot create final map archive: %v", err)
		return errorx.Unknown
	}

	if err := archive.Compress(contentFolder, out); err != nil {
		out.Close()
		os.Remove(finalPath)
		xcontext.Logger(ctx).Errorf("Cannot repack map archive: %v", err)
		return errorx.Unknown
	}

	return out.Close()
}

// renameMapFiles moves every file whose base name matches the original
// internal name to the canonical base name, keeping the extension.
func renameMapFiles(contentFolder, oldName, newName string) error {
	entries, err := os.ReadDir(contentFolder)
	if err != nil {
		return errorx.Unknown
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		ext := filepath.Ext(entry.Name())
		base := strings.TrimSuffix(entry.Name(), ext)
		if !strings.EqualFold(base, oldName) {
			continue
		}

		oldPath := filepath.Join(contentFolder, entry.Name())
		newPath := filepath.Join(contentFolder, newName+ext)
		if err := os.Rename(oldPath, newPath); err != nil {
			return errorx.New(errorx.MapRenameFailed, "Cannot rename file %s", entry.Name())
		}
	}

	return nil
}

// rewriteNameReferences replaces the literal folder reference and the bare
// name reference in every file of the content folder. The replacement is
// byte-wise, which keeps binary files intact when they contain no reference.
func rewriteNameReferences(ctx context.Context, contentFolder, oldName, newName string) error {
	entries, err := os.ReadDir(contentFolder)
	if err != nil {
		return errorx.Unknown
	}

	// A single-pass replacer: the folder reference takes priority over the
	// bare name reference, and replaced output is never rescanned, so a new
	// name that extends the old one cannot be stamped twice.
	replacer := strings.NewReplacer(
		"/maps/"+oldName, "/maps/"+newName,
		"/"+oldName, "/"+newName,
	)

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		path := filepath.Join(contentFolder, entry.Name())
		raw, err := os.ReadFile(path)
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot read map file %s: %v", entry.Name(), err)
			return errorx.Unknown
		}

		updated := []byte(replacer.Replace(string(raw)))
		if bytes.Equal(raw, updated) {
			continue
		}

		if err := os.WriteFile(path, updated, 0600); err != nil {
			xcontext.Logger(ctx).Errorf("Cannot rewrite map file %s: %v", entry.Name(), err)
			return errorx.Unknown
		}
	}

	return nil
}
