//go:build integration

package app

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gavv/httpexpect/v2"
	"github.com/go-chi/httplog/v2"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/vadimbarashkov/shortlink/internal/config"
)

type APITestSuite struct {
	suite.Suite
	driver string
	cfg    *config.Config
	e      *httpexpect.Expect
}

func (suite *APITestSuite) SetupSuite() {
	ctx := context.Background()

	suite.cfg = newTestConfig()
	suite.cfg.Storage.Driver = suite.driver

	switch suite.driver {
	case config.StoragePostgres:
		suite.startPostgres(ctx)
	case config.StorageRedis:
		suite.startRedis(ctx)
	}

	s, closeStore, err := openStore(ctx, suite.cfg)
	if err != nil {
		suite.T().Fatalf("Failed to open store: %v", err)
	}
	suite.T().Cleanup(func() {
		closeStore()
	})

	logger := httplog.NewLogger("", httplog.Options{Writer: io.Discard})
	server := httptest.NewServer(newHandler(suite.cfg, logger, s))
	suite.T().Cleanup(server.Close)

	suite.e = httpexpect.WithConfig(httpexpect.Config{
		BaseURL:  server.URL,
		Reporter: httpexpect.NewAssertReporter(suite.T()),
		Client:   noRedirectClient(),
	})
}

func (suite *APITestSuite) startPostgres(ctx context.Context) {
	pgCont, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("shortlink"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		suite.T().Fatalf("Failed to start postgres container: %v", err)
	}
	suite.T().Cleanup(func() {
		if err := pgCont.Terminate(ctx); err != nil {
			suite.T().Fatalf("Failed to terminate postgres container: %v", err)
		}
	})

	host, err := pgCont.Host(ctx)
	if err != nil {
		suite.T().Fatalf("Failed to get postgres host: %v", err)
	}
	port, err := pgCont.MappedPort(ctx, "5432/tcp")
	if err != nil {
		suite.T().Fatalf("Failed to get postgres port: %v", err)
	}

	suite.cfg.Postgres = config.Postgres{
		User:            "test",
		Password:        "test",
		Host:            host,
		Port:            port.Int(),
		DB:              "shortlink",
		SSLMode:         "disable",
		ConnMaxIdleTime: time.Minute,
		ConnMaxLifetime: time.Minute,
		MaxIdleConns:    2,
		MaxOpenConns:    5,
	}
}

func (suite *APITestSuite) startRedis(ctx context.Context) {
	redisCont, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		suite.T().Fatalf("Failed to start redis container: %v", err)
	}
	suite.T().Cleanup(func() {
		if err := redisCont.Terminate(ctx); err != nil {
			suite.T().Fatalf("Failed to terminate redis container: %v", err)
		}
	})

	addr, err := redisCont.Endpoint(ctx, "")
	if err != nil {
		suite.T().Fatalf("Failed to get redis endpoint: %v", err)
	}

	suite.cfg.Redis = config.Redis{
		Addr:         addr,
		KeyPrefix:    "test:",
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     5,
	}
}

func (suite *APITestSuite) TestPing() {
	suite.e.GET("/api/v1/ping").
		Expect().
		Status(http.StatusOK).
		Text().IsEqual("pong")
}

func (suite *APITestSuite) TestShortenAndExpand() {
	suite.Run("generated code", func() {
		resp := suite.e.POST("/api/v1/shorten").
			WithJSON(map[string]string{
				"original": "https://example.com/generated",
				"owner":    "carol",
			}).
			Expect().
			Status(http.StatusCreated).
			JSON().Object()

		code := resp.Value("short_code").String().Raw()

		suite.e.GET("/" + code).
			Expect().
			Status(http.StatusFound).
			Header("Location").IsEqual("https://example.com/generated")

		suite.e.GET("/api/v1/shorten/" + code + "/visits").
			Expect().
			Status(http.StatusOK).
			JSON().Array().Length().IsEqual(1)
	})

	suite.Run("friendly code conflict", func() {
		body := map[string]string{
			"original": "https://example.com/friendly",
			"owner":    "dave",
			"friendly": "friendly-" + suite.driver,
		}

		suite.e.POST("/api/v1/shorten").
			WithJSON(body).
			Expect().
			Status(http.StatusCreated)

		suite.e.POST("/api/v1/shorten").
			WithJSON(body).
			Expect().
			Status(http.StatusConflict).
			JSON().Object().
			HasValue("short_code", "friendly-"+suite.driver)
	})

	suite.Run("missing code", func() {
		suite.e.GET("/nope404").
			Expect().
			Status(http.StatusNotFound)
	})
}

func (suite *APITestSuite) TestModifyAndList() {
	resp := suite.e.POST("/api/v1/shorten").
		WithJSON(map[string]string{
			"original": "https://example.com/before",
			"owner":    "erin",
		}).
		Expect().
		Status(http.StatusCreated).
		JSON().Object()

	code := resp.Value("short_code").String().Raw()

	suite.e.PUT("/api/v1/shorten/"+code).
		WithJSON(map[string]string{"original": "https://example.com/after"}).
		Expect().
		Status(http.StatusOK).
		JSON().Object().
		HasValue("original_url", "https://example.com/after")

	suite.e.GET("/" + code).
		Expect().
		Status(http.StatusFound).
		Header("Location").IsEqual("https://example.com/after")

	urls := suite.e.GET("/api/v1/owners/erin/urls").
		Expect().
		Status(http.StatusOK).
		JSON().Array()

	urls.Length().IsEqual(1)
	urls.Value(0).Object().HasValue("hit_count", 1)
}

func TestAPI_Postgres(t *testing.T) {
	suite.Run(t, &APITestSuite{driver: config.StoragePostgres})
}

func TestAPI_Redis(t *testing.T) {
	suite.Run(t, &APITestSuite{driver: config.StorageRedis})
}
