package integration

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	authmw "github.com/potatix/backend/internal/auth/middleware"
	authsvc "github.com/potatix/backend/internal/auth/service"
	"github.com/potatix/backend/internal/config"
	"github.com/potatix/backend/internal/handlers"
	"github.com/potatix/backend/internal/models"
	"github.com/potatix/backend/internal/repositories"
	"github.com/potatix/backend/internal/services"
	"github.com/potatix/backend/internal/video"
)

var (
	testDB         *sql.DB
	testRouter     chi.Router
	testLogger     *zap.Logger
	tokenGenerator *authsvc.TokenGenerator
	videoServer    *httptest.Server
)

// memoryPageCache is an in-process stand-in for the Redis page cache
type memoryPageCache struct {
	mu    sync.Mutex
	pages map[string]*models.PublicCourse
}

func newMemoryPageCache() *memoryPageCache {
	return &memoryPageCache{pages: make(map[string]*models.PublicCourse)}
}

func (c *memoryPageCache) GetPage(ctx context.Context, slug string) (*models.PublicCourse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pages[slug], nil
}

func (c *memoryPageCache) SetPage(ctx context.Context, slug string, page *models.PublicCourse) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pages[slug] = page
	return nil
}

func (c *memoryPageCache) Invalidate(ctx context.Context, slug string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.pages, slug)
	return nil
}

// newVideoHostStub mimics the video host API: every playback reference
// resolves to an asset and every asset delete succeeds
func newVideoHostStub() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/video/v1/playback-ids/"):
			ref := strings.TrimPrefix(r.URL.Path, "/video/v1/playback-ids/")
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprintf(w, `{"data":{"object":{"id":"asset-%s"}}}`, ref)
		case r.Method == http.MethodDelete && strings.HasPrefix(r.URL.Path, "/video/v1/assets/"):
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

// setupTestRouter wires the full stack against the test database
func setupTestRouter(db *sql.DB, videoBaseURL string, logger *zap.Logger) chi.Router {
	courseRepo := repositories.NewCourseRepository(db)
	moduleRepo := repositories.NewModuleRepository(db)
	lessonRepo := repositories.NewLessonRepository(db)

	videoHost := video.NewClient(videoBaseURL, "test-token-id", "test-token-secret")
	pageCache := newMemoryPageCache()

	courseService := services.NewCourseService(courseRepo, moduleRepo, lessonRepo, videoHost, pageCache, logger)
	contentService := services.NewContentService(courseRepo, moduleRepo, lessonRepo, videoHost, pageCache, logger)

	courseHandler := handlers.NewCoursesHandler(courseService, logger)
	contentHandler := handlers.NewContentHandler(contentService, logger)
	publicHandler := handlers.NewPublicHandler(courseService, logger)

	authMiddleware := authmw.AuthMiddleware(tokenGenerator)

	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		publicHandler.RegisterRoutes(r)
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			courseHandler.RegisterRoutes(r)
			contentHandler.RegisterRoutes(r)
		})
	})

	return r
}

// TestMain sets up and tears down the test environment
func TestMain(m *testing.M) {
	var err error
	testLogger, err = zap.NewDevelopment()
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	cfg, err := config.LoadTestConfig()
	if err != nil {
		panic(fmt.Sprintf("Failed to load test config: %v", err))
	}

	dsn := cfg.DSN()
	if cfg.Database.Host == "" {
		// Default test database connection
		dsn = "root:password@tcp(localhost:3306)/potatix_test?parseTime=true&charset=utf8mb4"
	}

	testDB, err = sql.Open("mysql", dsn)
	if err != nil {
		panic(fmt.Sprintf("Failed to connect to test database: %v", err))
	}

	if err = testDB.Ping(); err != nil {
		panic(fmt.Sprintf("Failed to ping test database: %v", err))
	}

	setupTestSchemaForMain(testDB)

	secret := cfg.JWT.Secret
	if secret == "" {
		secret = "integration-test-secret"
	}
	tokenGenerator = authsvc.NewTokenGenerator(secret, time.Hour, 168*time.Hour)

	videoServer = newVideoHostStub()

	testRouter = setupTestRouter(testDB, videoServer.URL, testLogger)

	code := m.Run()

	videoServer.Close()
	if testDB != nil {
		testDB.Close()
	}
	os.Exit(code)
}

// setupTestSchemaForMain creates the test database schema (for TestMain)
func setupTestSchemaForMain(db *sql.DB) {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS courses (
			id INT PRIMARY KEY AUTO_INCREMENT,
			owner_id INT NOT NULL,
			title VARCHAR(255) NOT NULL,
			price DECIMAL(10,2) NOT NULL DEFAULT 0,
			status ENUM('draft','published') NOT NULL DEFAULT 'draft',
			slug VARCHAR(255) NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			UNIQUE KEY uq_courses_slug (slug),
			KEY idx_courses_owner (owner_id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`,
		"CREATE TABLE IF NOT EXISTS modules (" +
			"id INT PRIMARY KEY AUTO_INCREMENT," +
			"course_id INT NOT NULL," +
			"title VARCHAR(255) NOT NULL," +
			"description TEXT NULL," +
			"`order` INT NOT NULL DEFAULT 0," +
			"UNIQUE KEY uq_modules_course_order (course_id, `order`)," +
			"CONSTRAINT fk_modules_course FOREIGN KEY (course_id) REFERENCES courses (id)" +
			") ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;",
		"CREATE TABLE IF NOT EXISTS lessons (" +
			"id INT PRIMARY KEY AUTO_INCREMENT," +
			"module_id INT NOT NULL," +
			"course_id INT NOT NULL," +
			"title VARCHAR(255) NOT NULL," +
			"description TEXT NULL," +
			"video_ref VARCHAR(255) NULL," +
			"visibility ENUM('public','enrolled') NOT NULL DEFAULT 'enrolled'," +
			"`order` INT NOT NULL DEFAULT 0," +
			"UNIQUE KEY uq_lessons_module_order (module_id, `order`)," +
			"KEY idx_lessons_course (course_id)," +
			"CONSTRAINT fk_lessons_module FOREIGN KEY (module_id) REFERENCES modules (id)," +
			"CONSTRAINT fk_lessons_course FOREIGN KEY (course_id) REFERENCES courses (id)" +
			") ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;",
	}

	for _, query := range queries {
		db.Exec(query)
	}
}

// cleanupTestData removes all test data
func cleanupTestData(t *testing.T, db *sql.DB) {
	t.Helper()
	for _, query := range []string{
		"DELETE FROM lessons",
		"DELETE FROM modules",
		"DELETE FROM courses",
	} {
		_, err := db.Exec(query)
		require.NoError(t, err, "Failed to cleanup test data")
	}
}

// doRequest performs a request against the test router with an optional
// Bearer token and JSON body
func doRequest(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	testRouter.ServeHTTP(rec, req)
	return rec
}

func accessTokenFor(t *testing.T, userID int) string {
	t.Helper()
	token, _, err := tokenGenerator.GenerateTokens(userID)
	require.NoError(t, err)
	return token
}

func createdID(t *testing.T, rec *httptest.ResponseRecorder) int {
	t.Helper()
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp map[string]int
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotZero(t, resp["id"])
	return resp["id"]
}

func TestIntegration_CourseLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}
	cleanupTestData(t, testDB)
	defer cleanupTestData(t, testDB)

	token := accessTokenFor(t, 42)

	// Create a draft course
	rec := doRequest(t, http.MethodPost, "/api/v1/courses", token, models.CreateCourseRequest{
		Title: "Go from scratch",
		Price: 49.99,
		Slug:  "go-from-scratch",
	})
	courseID := createdID(t, rec)

	// Draft courses are invisible on the public page
	rec = doRequest(t, http.MethodGet, "/api/v1/courses/slug/go-from-scratch", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Add a module with a public and an enrolled lesson
	rec = doRequest(t, http.MethodPost, fmt.Sprintf("/api/v1/courses/%d/modules", courseID), token,
		models.CreateModuleRequest{Title: "Basics"})
	moduleID := createdID(t, rec)

	rec = doRequest(t, http.MethodPost, "/api/v1/lessons", token, models.CreateLessonRequest{
		ModuleID:   moduleID,
		Title:      "Intro",
		VideoRef:   "play-intro",
		Visibility: models.LessonVisibilityPublic,
	})
	createdID(t, rec)

	rec = doRequest(t, http.MethodPost, "/api/v1/lessons", token, models.CreateLessonRequest{
		ModuleID: moduleID,
		Title:    "Deep dive",
		VideoRef: "play-deep",
	})
	createdID(t, rec)

	// Publish the course
	rec = doRequest(t, http.MethodPatch, fmt.Sprintf("/api/v1/courses/%d", courseID), token,
		models.UpdateCourseRequest{Status: models.CourseStatusPublished})
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	// The public page now serves both lessons, hiding the enrolled video ref
	rec = doRequest(t, http.MethodGet, "/api/v1/courses/slug/go-from-scratch", "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var page models.PublicCourse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, "Go from scratch", page.Title)
	require.Len(t, page.Modules, 1)
	require.Len(t, page.Modules[0].Lessons, 2)
	assert.Equal(t, "play-intro", page.Modules[0].Lessons[0].VideoRef)
	assert.Empty(t, page.Modules[0].Lessons[1].VideoRef)

	// Cascade delete takes the whole hierarchy with it
	rec = doRequest(t, http.MethodDelete, fmt.Sprintf("/api/v1/courses/%d", courseID), token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = doRequest(t, http.MethodGet, fmt.Sprintf("/api/v1/courses/%d", courseID), token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var lessonCount int
	require.NoError(t, testDB.QueryRow("SELECT COUNT(*) FROM lessons").Scan(&lessonCount))
	assert.Equal(t, 0, lessonCount)
}

func TestIntegration_OwnershipGuard(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}
	cleanupTestData(t, testDB)
	defer cleanupTestData(t, testDB)

	ownerToken := accessTokenFor(t, 42)
	otherToken := accessTokenFor(t, 43)

	rec := doRequest(t, http.MethodPost, "/api/v1/courses", ownerToken, models.CreateCourseRequest{Title: "Private course"})
	courseID := createdID(t, rec)

	coursePath := fmt.Sprintf("/api/v1/courses/%d", courseID)

	rec = doRequest(t, http.MethodGet, coursePath, otherToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doRequest(t, http.MethodPatch, coursePath, otherToken, models.UpdateCourseRequest{Title: "Hijacked"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doRequest(t, http.MethodDelete, coursePath, otherToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Unauthenticated requests never reach the handlers
	rec = doRequest(t, http.MethodGet, coursePath, "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// The owner is unaffected
	rec = doRequest(t, http.MethodGet, coursePath, ownerToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestIntegration_ReorderModules(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}
	cleanupTestData(t, testDB)
	defer cleanupTestData(t, testDB)

	token := accessTokenFor(t, 42)

	rec := doRequest(t, http.MethodPost, "/api/v1/courses", token, models.CreateCourseRequest{Title: "Reorder me"})
	courseID := createdID(t, rec)

	var moduleIDs []int
	for _, title := range []string{"First", "Second", "Third"} {
		rec = doRequest(t, http.MethodPost, fmt.Sprintf("/api/v1/courses/%d/modules", courseID), token,
			models.CreateModuleRequest{Title: title})
		moduleIDs = append(moduleIDs, createdID(t, rec))
	}

	modulesPath := fmt.Sprintf("/api/v1/courses/%d/modules", courseID)

	// Reverse the ordering
	reversed := []int{moduleIDs[2], moduleIDs[1], moduleIDs[0]}
	rec = doRequest(t, http.MethodPut, modulesPath+"/reorder", token,
		models.ReorderModulesRequest{ModuleIDs: reversed})
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = doRequest(t, http.MethodGet, modulesPath, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var listed []models.ModuleListItem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed, 3)
	assert.Equal(t, "Third", listed[0].Title)
	assert.Equal(t, "Second", listed[1].Title)
	assert.Equal(t, "First", listed[2].Title)

	// An incomplete submission fails without touching a row
	rec = doRequest(t, http.MethodPut, modulesPath+"/reorder", token,
		models.ReorderModulesRequest{ModuleIDs: []int{moduleIDs[0]}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, http.MethodGet, modulesPath, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	assert.Equal(t, "Third", listed[0].Title)
}

func TestIntegration_ReorderLessonsAcrossModules(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}
	cleanupTestData(t, testDB)
	defer cleanupTestData(t, testDB)

	token := accessTokenFor(t, 42)

	rec := doRequest(t, http.MethodPost, "/api/v1/courses", token, models.CreateCourseRequest{Title: "Cross-module"})
	courseID := createdID(t, rec)

	var moduleIDs []int
	for _, title := range []string{"Basics", "Advanced", "Extras"} {
		rec = doRequest(t, http.MethodPost, fmt.Sprintf("/api/v1/courses/%d/modules", courseID), token,
			models.CreateModuleRequest{Title: title})
		moduleIDs = append(moduleIDs, createdID(t, rec))
	}

	var lessonIDs []int
	for i, title := range []string{"In basics", "In advanced", "In extras"} {
		rec = doRequest(t, http.MethodPost, "/api/v1/lessons", token, models.CreateLessonRequest{
			ModuleID: moduleIDs[i],
			Title:    title,
		})
		lessonIDs = append(lessonIDs, createdID(t, rec))
	}

	// Consolidate the first two modules' lessons into the first one. The
	// third module is not named and must come through untouched.
	rec = doRequest(t, http.MethodPut, fmt.Sprintf("/api/v1/courses/%d/lessons/reorder", courseID), token,
		models.CrossModuleReorderRequest{Modules: []models.ModuleLessonOrder{
			{ModuleID: moduleIDs[0], LessonIDs: []int{lessonIDs[1], lessonIDs[0]}},
			{ModuleID: moduleIDs[1], LessonIDs: []int{}},
		}})
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = doRequest(t, http.MethodGet, fmt.Sprintf("/api/v1/courses/%d/modules/%d/lessons", courseID, moduleIDs[0]), token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var lessons []models.Lesson
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &lessons))
	require.Len(t, lessons, 2)
	assert.Equal(t, lessonIDs[1], lessons[0].ID)
	assert.Equal(t, 0, lessons[0].Order)
	assert.Equal(t, lessonIDs[0], lessons[1].ID)
	assert.Equal(t, 1, lessons[1].Order)

	rec = doRequest(t, http.MethodGet, fmt.Sprintf("/api/v1/courses/%d/modules/%d/lessons", courseID, moduleIDs[1]), token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &lessons))
	assert.Empty(t, lessons)

	var untouchedOrder int
	require.NoError(t, testDB.QueryRow("SELECT `order` FROM lessons WHERE id = ?", lessonIDs[2]).Scan(&untouchedOrder))
	assert.Equal(t, 0, untouchedOrder)
}

func TestIntegration_DeleteLesson(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}
	cleanupTestData(t, testDB)
	defer cleanupTestData(t, testDB)

	token := accessTokenFor(t, 42)

	rec := doRequest(t, http.MethodPost, "/api/v1/courses", token, models.CreateCourseRequest{Title: "Video course"})
	courseID := createdID(t, rec)

	rec = doRequest(t, http.MethodPost, fmt.Sprintf("/api/v1/courses/%d/modules", courseID), token,
		models.CreateModuleRequest{Title: "Only module"})
	moduleID := createdID(t, rec)

	rec = doRequest(t, http.MethodPost, "/api/v1/lessons", token, models.CreateLessonRequest{
		ModuleID: moduleID,
		Title:    "With video",
		VideoRef: "play-abc",
	})
	withVideo := createdID(t, rec)

	rec = doRequest(t, http.MethodPost, "/api/v1/lessons", token, models.CreateLessonRequest{
		ModuleID: moduleID,
		Title:    "Without video",
	})
	withoutVideo := createdID(t, rec)

	rec = doRequest(t, http.MethodDelete, fmt.Sprintf("/api/v1/lessons/%d", withVideo), token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp models.DeleteLessonResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.VideoDeleted)
	assert.Equal(t, models.VideoAssetDeleted, resp.VideoAsset)

	rec = doRequest(t, http.MethodDelete, fmt.Sprintf("/api/v1/lessons/%d", withoutVideo), token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.VideoDeleted)
	assert.Equal(t, models.VideoAssetNotApplicable, resp.VideoAsset)
}
