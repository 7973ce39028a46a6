package domain

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/fafcommunity/backend/config"
	"github.com/fafcommunity/backend/internal/entity"
	"github.com/fafcommunity/backend/internal/repository"
	"github.com/fafcommunity/backend/pkg/errorx"
	"github.com/fafcommunity/backend/pkg/testutil"
	"github.com/fafcommunity/backend/pkg/xcontext"
	"github.com/stretchr/testify/require"
)

func newDeploymentContext(t *testing.T) context.Context {
	t.Helper()

	ctx := testutil.MockContext()
	cfg := xcontext.Configs(ctx)
	cfg.Deployment = config.DeploymentConfigs{
		RepositoriesDirectory:       t.TempDir(),
		FeaturedModsTargetDirectory: t.TempDir(),
	}

	return xcontext.WithConfigs(ctx, cfg)
}

func populateModRepo(t *testing.T) func(targetDir string) error {
	t.Helper()

	return func(targetDir string) error {
		if err := os.MkdirAll(filepath.Join(targetDir, "someDir"), 0700); err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(targetDir, "mod_info.lua"),
			[]byte("name = 'Forged Alliance Forever'\nversion = 1337\n"), 0600); err != nil {
			return err
		}
		return os.WriteFile(filepath.Join(targetDir, "someDir", "someFile"),
			[]byte("some content"), 0600)
	}
}

func fafMod() *entity.FeaturedMod {
	return &entity.FeaturedMod{
		Base:          entity.Base{ID: "mod1"},
		TechnicalName: "faf",
		GitURL:        "git@example.com/FAForever/faf",
		GitBranch:     "branch",
		FileExtension: "nx3",
		AllowOverride: true,
	}
}

func createDummyExe(t *testing.T, ctx context.Context) context.Context {
	t.Helper()

	exe := filepath.Join(t.TempDir(), "TemplateForgedAlliance.exe")
	require.NoError(t, os.WriteFile(exe, make([]byte, 4096), 0600))

	cfg := xcontext.Configs(ctx)
	cfg.Deployment.ForgedAllianceExePath = exe
	return xcontext.WithConfigs(ctx, cfg)
}

func TestDeploymentWithoutConfiguration(t *testing.T) {
	ctx := newDeploymentContext(t)
	task := NewLegacyFeaturedModDeploymentTask(&testutil.StubGitWrapper{}, repository.NewFeaturedModRepository(), nil)

	requireErrorCode(t, task.Run(ctx), errorx.DeploymentMissingConfiguration)
}

func TestDeploymentNoFileIds(t *testing.T) {
	ctx := newDeploymentContext(t)
	ctx = createDummyExe(t, ctx)

	repo := repository.NewFeaturedModRepository()
	task := NewLegacyFeaturedModDeploymentTask(
		&testutil.StubGitWrapper{Populate: populateModRepo(t)}, repo, nil)
	task.SetFeaturedMod(fafMod())

	require.NoError(t, task.Run(ctx))

	// No registered slot, nothing recorded.
	var count int64
	err := xcontext.DB(ctx).Model(&entity.FeaturedModFile{}).Count(&count).Error
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestDeployment(t *testing.T) {
	ctx := newDeploymentContext(t)
	ctx = createDummyExe(t, ctx)

	webhookHits := 0
	webhook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		webhookHits++
	}))
	defer webhook.Close()

	// Registered update slots for both files.
	require.NoError(t, xcontext.DB(ctx).Create(&[]entity.FeaturedModFile{
		{Base: entity.Base{ID: "reg1"}, ModTechnicalName: "faf", FileID: 1, SourceName: "ForgedAlliance.exe"},
		{Base: entity.Base{ID: "reg2"}, ModTechnicalName: "faf", FileID: 2, SourceName: "someDir.nx3"},
	}).Error)

	repo := repository.NewFeaturedModRepository()
	task := NewLegacyFeaturedModDeploymentTask(
		&testutil.StubGitWrapper{Populate: populateModRepo(t)}, repo, nil)
	mod := fafMod()
	mod.DeploymentWebhook = webhook.URL
	task.SetFeaturedMod(mod)

	require.NoError(t, task.Run(ctx))
	require.Equal(t, 1, webhookHits)

	var files []entity.FeaturedModFile
	err := xcontext.DB(ctx).Where("version=?", 1337).Order("file_id").Find(&files).Error
	require.NoError(t, err)
	require.Len(t, files, 2)

	require.Equal(t, int16(1), files[0].FileID)
	require.Equal(t, "ForgedAlliance.1337.exe", files[0].Name)
	require.Equal(t, 1337, files[0].Version)
	require.NotEmpty(t, files[0].MD5)

	require.Equal(t, int16(2), files[1].FileID)
	require.Equal(t, "someDir.1337.nx3", files[1].Name)
	require.NotEmpty(t, files[1].MD5)

	targetDir := filepath.Join(
		xcontext.Configs(ctx).Deployment.FeaturedModsTargetDirectory, "updates_faf_files")
	for _, name := range []string{"someDir.1337.nx3", "ForgedAlliance.1337.exe"} {
		_, err := os.Stat(filepath.Join(targetDir, name))
		require.NoError(t, err)
	}
}

func TestInvokeDeploymentWebhookSkipped(t *testing.T) {
	ctx := newDeploymentContext(t)
	task := NewLegacyFeaturedModDeploymentTask(&testutil.StubGitWrapper{}, repository.NewFeaturedModRepository(), nil)

	// No webhook configured, nothing to do.
	task.InvokeDeploymentWebhook(ctx, &entity.FeaturedMod{})
}

func TestInvokeDeploymentWebhookResilience(t *testing.T) {
	ctx := newDeploymentContext(t)
	task := NewLegacyFeaturedModDeploymentTask(&testutil.StubGitWrapper{}, repository.NewFeaturedModRepository(), nil)

	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := dead.URL
	dead.Close()

	// The webhook target is gone; the call must not propagate the failure.
	task.InvokeDeploymentWebhook(ctx, &entity.FeaturedMod{DeploymentWebhook: url})
}
