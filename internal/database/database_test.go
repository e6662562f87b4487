package database

import (
	"context"
	"testing"
	"testing/fstest"

	"inkwell/internal/config"
	"inkwell/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func sqliteConfig() *config.Config {
	return &config.Config{
		Env:          "test",
		DBDriver:     "sqlite",
		SQLitePath:   ":memory:",
		DBSchemaMode: SchemaModeHybrid,
	}
}

func openSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Connect(sqliteConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })
	return db
}

func TestConfigurePool(t *testing.T) {
	db := openSQLite(t)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}

func TestPostgresDSN(t *testing.T) {
	cfg := &config.Config{DBHost: "db", DBPort: "5432", DBUser: "u", DBPassword: "p", DBName: "blog"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=blog sslmode=disable", PostgresDSN(cfg))

	cfg.DatabaseURL = "postgres://u:p@db/blog"
	assert.Equal(t, "postgres://u:p@db/blog", PostgresDSN(cfg))
}

func TestSchemaPolicy(t *testing.T) {
	tests := []struct {
		name     string
		driver   string
		env      string
		mode     string
		wantSQL  bool
		wantAuto bool
		wantErr  bool
	}{
		{"hybrid dev", "postgres", "development", "hybrid", true, true, false},
		{"hybrid prod", "postgres", "production", "hybrid", true, false, false},
		{"empty mode is hybrid", "postgres", "development", "", true, true, false},
		{"sql only", "postgres", "development", "sql", true, false, false},
		{"auto dev", "postgres", "development", "auto", false, true, false},
		{"auto refused in prod", "postgres", "production", "auto", false, false, true},
		{"sqlite always auto", "sqlite", "production", "sql", false, true, false},
		{"unknown", "postgres", "development", "magic", false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runSQL, runAuto, err := schemaPolicy(&config.Config{DBDriver: tt.driver, Env: tt.env, DBSchemaMode: tt.mode})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, runSQL)
			assert.Equal(t, tt.wantAuto, runAuto)
		})
	}
}

func TestApplySchema_SQLite(t *testing.T) {
	db := openSQLite(t)
	require.NoError(t, ApplySchema(context.Background(), db, sqliteConfig()))

	for _, table := range []string{"users", "categories", "posts", "post_comments"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}

	status, err := GetSchemaStatus(context.Background(), db, sqliteConfig())
	require.NoError(t, err)
	assert.False(t, status.WillRunSQL)
	assert.True(t, status.WillRunAutoMigrate)
}

func TestApplySchema_CommentsCascadeWithPost(t *testing.T) {
	db := openSQLite(t)
	require.NoError(t, ApplySchema(context.Background(), db, sqliteConfig()))

	user := models.User{Name: "Ann", Email: "ann@example.com", Password: "x"}
	require.NoError(t, db.Create(&user).Error)
	cat := models.Category{Name: "Tech"}
	require.NoError(t, db.Create(&cat).Error)
	post := models.Post{Title: "T", Content: "C", Slug: "t", FeaturedImage: models.DefaultFeaturedImage, AuthorID: user.ID, CategoryID: cat.ID}
	require.NoError(t, db.Create(&post).Error)
	require.NoError(t, db.Create(&models.Comment{ID: "c1", PostID: post.ID, UserID: user.ID, Content: "hi"}).Error)

	require.NoError(t, db.Delete(&models.Post{}, post.ID).Error)

	var count int64
	require.NoError(t, db.Model(&models.Comment{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestEmbeddedMigrations(t *testing.T) {
	all := migrations
	require.NotEmpty(t, all)
	for i, m := range all {
		assert.NotEmpty(t, m.UpScript, m.String())
		assert.NotEmpty(t, m.DownScript, m.String())
		if i > 0 {
			assert.Greater(t, m.Version, all[i-1].Version)
		}
	}
	assert.Equal(t, "000001_init", all[0].String())
}

func TestLoadMigrations(t *testing.T) {
	t.Run("missing down script", func(t *testing.T) {
		_, err := LoadMigrations(fstest.MapFS{
			"migrations/000001_a.up.sql": {Data: []byte("SELECT 1;")},
		})
		assert.Error(t, err)
	})

	t.Run("duplicate version", func(t *testing.T) {
		_, err := LoadMigrations(fstest.MapFS{
			"migrations/000001_a.up.sql":   {Data: []byte("SELECT 1;")},
			"migrations/000001_a.down.sql": {Data: []byte("SELECT 1;")},
			"migrations/000001_b.up.sql":   {Data: []byte("SELECT 1;")},
			"migrations/000001_b.down.sql": {Data: []byte("SELECT 1;")},
		})
		assert.Error(t, err)
	})

	t.Run("sorted by version", func(t *testing.T) {
		got, err := LoadMigrations(fstest.MapFS{
			"migrations/000010_b.up.sql":   {Data: []byte("B")},
			"migrations/000010_b.down.sql": {Data: []byte("b")},
			"migrations/000002_a.up.sql":   {Data: []byte("A")},
			"migrations/000002_a.down.sql": {Data: []byte("a")},
		})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, 2, got[0].Version)
		assert.Equal(t, "b", got[1].DownScript)
	})
}

func TestCheckKnownVersions(t *testing.T) {
	registered := []Migration{{Version: 1}, {Version: 2}}
	assert.NoError(t, checkKnownVersions(nil, registered))
	assert.NoError(t, checkKnownVersions([]int{1, 2}, registered))
	err := checkKnownVersions([]int{1, 7}, registered)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "000007")
}

func TestMigrator_UpAndDown(t *testing.T) {
	ctx := context.Background()
	db := openSQLite(t)
	m := &Migrator{db: db, set: []Migration{
		{Version: 1, Name: "notes", UpScript: "CREATE TABLE notes (id INTEGER PRIMARY KEY)", DownScript: "DROP TABLE notes"},
		{Version: 2, Name: "tags", UpScript: "CREATE TABLE tags (id INTEGER PRIMARY KEY)", DownScript: "DROP TABLE tags"},
	}}

	n, err := m.Up(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.True(t, db.Migrator().HasTable("notes"))

	n, err = m.Up(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, m.Down(ctx, 2))
	assert.False(t, db.Migrator().HasTable("tags"))
	applied, err := m.Applied(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, applied)
	pending, err := m.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "000002_tags", pending[0].String())

	assert.ErrorContains(t, m.Down(ctx, 2), "not applied")
	assert.ErrorContains(t, m.Down(ctx, 9), "does not exist")
}

func TestMigrator_FailedScriptLeavesNoRecord(t *testing.T) {
	ctx := context.Background()
	db := openSQLite(t)
	m := &Migrator{db: db, set: []Migration{
		{Version: 1, Name: "ok", UpScript: "CREATE TABLE ok (id INTEGER)", DownScript: "DROP TABLE ok"},
		{Version: 2, Name: "broken", UpScript: "CREATE TABLE", DownScript: ""},
	}}

	n, err := m.Up(ctx)
	assert.ErrorContains(t, err, "000002_broken")
	assert.Equal(t, 1, n)
	applied, err := m.Applied(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, applied)
}

func TestMigrator_UnknownAppliedVersion(t *testing.T) {
	ctx := context.Background()
	db := openSQLite(t)
	m := &Migrator{db: db, set: []Migration{{Version: 1, Name: "a"}}}
	require.NoError(t, m.ensureTable(ctx))
	require.NoError(t, db.Create(&schemaVersion{Version: 5, Name: "future"}).Error)

	_, err := m.Applied(ctx)
	assert.ErrorContains(t, err, "000005")
}

func TestPersistentModels_ParentsFirst(t *testing.T) {
	all := PersistentModels()
	require.Len(t, all, 4)
	_, isUser := all[0].(*models.User)
	_, isComment := all[3].(*models.Comment)
	assert.True(t, isUser)
	assert.True(t, isComment)
}
