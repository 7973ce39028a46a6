package domain

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/fafcommunity/backend/internal/entity"
	"github.com/fafcommunity/backend/internal/repository"
	"github.com/fafcommunity/backend/pkg/archive"
	"github.com/fafcommunity/backend/pkg/errorx"
	"github.com/fafcommunity/backend/pkg/lua"
	"github.com/fafcommunity/backend/pkg/xcontext"
	"github.com/google/uuid"
)

// GitWrapper checks out a git ref into a local directory. The deployment task
// only needs this one operation.
type GitWrapper interface {
	CheckoutRef(ctx context.Context, remoteURL, ref, targetDir string) error
}

// LegacyFeaturedModDeploymentTask packages one featured mod for the legacy
// update server: it checks out the mod repository, reads the mod version from
// mod_info.lua, zips every top-level directory as a versioned file, stamps the
// template game executable, and registers the files that have a known update
// slot.
type LegacyFeaturedModDeploymentTask struct {
	git             GitWrapper
	featuredModRepo repository.FeaturedModRepository
	httpClient      *http.Client

	featuredMod *entity.FeaturedMod
}

func NewLegacyFeaturedModDeploymentTask(
	git GitWrapper,
	featuredModRepo repository.FeaturedModRepository,
	httpClient *http.Client,
) *LegacyFeaturedModDeploymentTask {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &LegacyFeaturedModDeploymentTask{
		git:             git,
		featuredModRepo: featuredModRepo,
		httpClient:      httpClient,
	}
}

func (t *LegacyFeaturedModDeploymentTask) SetFeaturedMod(mod *entity.FeaturedMod) *LegacyFeaturedModDeploymentTask {
	t.featuredMod = mod
	return t
}

func (t *LegacyFeaturedModDeploymentTask) Run(ctx context.Context) error {
	if t.featuredMod == nil {
		return errorx.New(errorx.DeploymentMissingConfiguration,
			"No featured mod is configured for this deployment")
	}

	mod := t.featuredMod
	cfg := xcontext.Configs(ctx).Deployment

	repoDir := filepath.Join(cfg.RepositoriesDirectory, mod.TechnicalName)
	if err := t.git.CheckoutRef(ctx, mod.GitURL, mod.GitBranch, repoDir); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot checkout %s@%s: %v", mod.GitURL, mod.GitBranch, err)
		return errorx.Unknown
	}

	modInfo, err := lua.ParseFile(filepath.Join(repoDir, "mod_info.lua"))
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot evaluate mod_info.lua: %v", err)
		return errorx.Unknown
	}
	version, err := modInfo.Field("version").AsInt()
	if err != nil {
		xcontext.Logger(ctx).Errorf("mod_info.lua has no usable version: %v", err)
		return errorx.Unknown
	}

	fileIDs, err := t.featuredModRepo.GetFileIDs(ctx, mod.TechnicalName)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get file ids of %s: %v", mod.TechnicalName, err)
		return errorx.Unknown
	}

	targetDir := filepath.Join(cfg.FeaturedModsTargetDirectory,
		fmt.Sprintf("updates_%s_files", mod.TechnicalName))
	if err := os.MkdirAll(targetDir, 0755); err != nil {
		return err
	}

	built, err := t.buildModFiles(ctx, repoDir, targetDir, mod, version)
	if err != nil {
		return err
	}

	var files []entity.FeaturedModFile
	for _, file := range built {
		fileID, ok := fileIDs[file.SourceName]
		if !ok {
			xcontext.Logger(ctx).Warnf("Skipping %s: no registered file id", file.SourceName)
			continue
		}

		file.FileID = fileID
		files = append(files, file)
	}

	if len(files) == 0 {
		xcontext.Logger(ctx).Infof("Deployment of %s v%d produced no registered files", mod.TechnicalName, version)
		return nil
	}

	if err := t.featuredModRepo.SaveFiles(ctx, files); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot save deployed files of %s: %v", mod.TechnicalName, err)
		return errorx.Unknown
	}

	t.InvokeDeploymentWebhook(ctx, mod)
	return nil
}

// buildModFiles zips every top-level directory of the checkout and stamps the
// template executable. Everything is written to the target directory; the
// caller decides which files end up registered.
func (t *LegacyFeaturedModDeploymentTask) buildModFiles(
	ctx context.Context,
	repoDir, targetDir string,
	mod *entity.FeaturedMod,
	version int,
) ([]entity.FeaturedModFile, error) {
	entries, err := os.ReadDir(repoDir)
	if err != nil {
		return nil, err
	}

	var files []entity.FeaturedModFile
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		sourceName := entry.Name() + "." + mod.FileExtension
		versionedName := fmt.Sprintf("%s.%d.%s", entry.Name(), version, mod.FileExtension)
		target := filepath.Join(targetDir, versionedName)

		out, err := os.Create(target)
		if err != nil {
			return nil, err
		}
		if err := archive.Compress(filepath.Join(repoDir, entry.Name()), out); err != nil {
			out.Close()
			return nil, err
		}
		if err := out.Close(); err != nil {
			return nil, err
		}

		checksum, err := fileMD5(target)
		if err != nil {
			return nil, err
		}

		files = append(files, entity.FeaturedModFile{
			Base:             entity.Base{ID: uuid.NewString()},
			ModTechnicalName: mod.TechnicalName,
			SourceName:       sourceName,
			Name:             versionedName,
			Version:          version,
			MD5:              checksum,
		})
	}

	exeFile, err := t.stampExecutable(ctx, targetDir, mod, version)
	if err != nil {
		return nil, err
	}
	if exeFile != nil {
		files = append(files, *exeFile)
	}

	return files, nil
}

// stampExecutable copies the template game executable into the target
// directory under its versioned name.
func (t *LegacyFeaturedModDeploymentTask) stampExecutable(
	ctx context.Context,
	targetDir string,
	mod *entity.FeaturedMod,
	version int,
) (*entity.FeaturedModFile, error) {
	templatePath := xcontext.Configs(ctx).Deployment.ForgedAllianceExePath
	if templatePath == "" {
		return nil, nil
	}

	versionedName := fmt.Sprintf("ForgedAlliance.%d.exe", version)
	target := filepath.Join(targetDir, versionedName)

	in, err := os.Open(templatePath)
	if err != nil {
		return nil, err
	}
	defer in.Close()

	out, err := os.Create(target)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return nil, err
	}
	if err := out.Close(); err != nil {
		return nil, err
	}

	checksum, err := fileMD5(target)
	if err != nil {
		return nil, err
	}

	return &entity.FeaturedModFile{
		Base:             entity.Base{ID: uuid.NewString()},
		ModTechnicalName: mod.TechnicalName,
		SourceName:       "ForgedAlliance.exe",
		Name:             versionedName,
		Version:          version,
		MD5:              checksum,
	}, nil
}

// InvokeDeploymentWebhook notifies the configured webhook after a successful
// deployment. Failures are logged and never propagated.
func (t *LegacyFeaturedModDeploymentTask) InvokeDeploymentWebhook(ctx context.Context, mod *entity.FeaturedMod) {
	if mod.DeploymentWebhook == "" {
		xcontext.Logger(ctx).Debugf("No deployment webhook configured for %s", mod.TechnicalName)
		return
	}

	resp, err := t.httpClient.Get(mod.DeploymentWebhook)
	if err != nil {
		xcontext.Logger(ctx).Warnf("Deployment webhook of %s failed: %v", mod.TechnicalName, err)
		return
	}
	resp.Body.Close()
}

func fileMD5(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
