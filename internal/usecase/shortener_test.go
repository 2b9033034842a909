package usecase

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"github.com/vadimbarashkov/shortlink/internal/entity"
)

type ShortenerTestSuite struct {
	suite.Suite
	errUnknown  error
	settings    Settings
	queryMock   *mockQuery
	commandMock *mockCommand
	codeGenMock *mockCodeGenerator
	shortener   *Shortener
}

func (suite *ShortenerTestSuite) SetupSuite() {
	suite.errUnknown = errors.New("unknown error")
	suite.settings = Settings{
		Scheme:     "https",
		Hostname:   "sho.rt/",
		CodeLength: 6,
		MaxRetries: 0,
	}
}

func (suite *ShortenerTestSuite) SetupSubTest() {
	suite.queryMock = new(mockQuery)
	suite.commandMock = new(mockCommand)
	suite.codeGenMock = new(mockCodeGenerator)
	suite.shortener = NewShortener(suite.settings, suite.queryMock, suite.commandMock, suite.codeGenMock)
}

func (suite *ShortenerTestSuite) TearDownSubTest() {
	suite.queryMock.AssertExpectations(suite.T())
	suite.commandMock.AssertExpectations(suite.T())
	suite.codeGenMock.AssertExpectations(suite.T())
}

func (suite *ShortenerTestSuite) TestShorten() {
	ctx := context.Background()

	suite.Run("nil request", func() {
		url, err := suite.shortener.Shorten(ctx, nil)

		suite.ErrorIs(err, entity.ErrInvalidArgument)
		suite.Nil(url)
	})

	suite.Run("relative original url", func() {
		url, err := suite.shortener.Shorten(ctx, &ShortenRequest{Original: "/relative/path", Owner: "alice"})

		suite.ErrorIs(err, entity.ErrInvalidArgument)
		suite.Nil(url)
	})

	suite.Run("empty owner", func() {
		url, err := suite.shortener.Shorten(ctx, &ShortenRequest{Original: "https://example.com", Owner: " "})

		suite.ErrorIs(err, entity.ErrInvalidArgument)
		suite.Nil(url)
	})

	suite.Run("friendly code bypasses generation", func() {
		url, err := suite.shortener.Shorten(ctx, &ShortenRequest{
			Original: "https://example.com",
			Owner:    "alice",
			Friendly: "home/",
			Title:    "Home",
			CoOwners: []string{"bob"},
		})

		suite.NoError(err)
		suite.Equal("home", url.ShortCode)
		suite.Equal("https://sho.rt/home", url.Shortened)
		suite.Equal("Home", url.Title)
		suite.Equal([]string{"bob"}, url.CoOwners)
		suite.Equal(entity.CollectionURL, url.Collection())
		suite.codeGenMock.AssertNotCalled(suite.T(), "Generate", mock.Anything)
		suite.queryMock.AssertNotCalled(suite.T(), "GetURLByCode", mock.Anything, mock.Anything)
	})

	suite.Run("blank friendly code falls back to generation", func() {
		suite.codeGenMock.On("Generate", 6).Once().Return("xk3p9a", nil)
		suite.queryMock.On("GetURLByCode", mock.Anything, "xk3p9a").Once().Return(nil, nil)

		url, err := suite.shortener.Shorten(ctx, &ShortenRequest{
			Original: "https://example.com/a/very/long/path",
			Owner:    "alice",
			Friendly: "   ",
		})

		suite.NoError(err)
		suite.Equal("xk3p9a", url.ShortCode)
		suite.Len(url.ShortCode, 6)
		suite.Equal("https://sho.rt/xk3p9a", url.Shortened)
		suite.Zero(url.HitCount)
	})

	suite.Run("friendly code of only slashes", func() {
		url, err := suite.shortener.Shorten(ctx, &ShortenRequest{
			Original: "https://example.com",
			Owner:    "alice",
			Friendly: "///",
		})

		suite.ErrorIs(err, entity.ErrInvalidArgument)
		suite.Nil(url)
		suite.codeGenMock.AssertNotCalled(suite.T(), "Generate", mock.Anything)
	})

	suite.Run("retries until a free code is found", func() {
		suite.codeGenMock.On("Generate", 6).Once().Return("aaaaaa", nil)
		suite.codeGenMock.On("Generate", 6).Once().Return("bbbbbb", nil)
		suite.queryMock.On("GetURLByCode", mock.Anything, "aaaaaa").Once().Return(entity.NewURL(), nil)
		suite.queryMock.On("GetURLByCode", mock.Anything, "bbbbbb").Once().Return(nil, nil)

		url, err := suite.shortener.Shorten(ctx, &ShortenRequest{Original: "https://example.com", Owner: "alice"})

		suite.NoError(err)
		suite.Equal("bbbbbb", url.ShortCode)
	})

	suite.Run("maximum retries error", func() {
		settings := suite.settings
		settings.MaxRetries = 3
		shortener := NewShortener(settings, suite.queryMock, suite.commandMock, suite.codeGenMock)

		suite.codeGenMock.On("Generate", 6).Times(3).Return("aaaaaa", nil)
		suite.queryMock.On("GetURLByCode", mock.Anything, "aaaaaa").Times(3).Return(entity.NewURL(), nil)

		url, err := shortener.Shorten(ctx, &ShortenRequest{Original: "https://example.com", Owner: "alice"})

		suite.ErrorIs(err, ErrMaxRetriesExceeded)
		suite.Nil(url)
	})

	suite.Run("short code generation error", func() {
		suite.codeGenMock.On("Generate", 6).Once().Return("", suite.errUnknown)

		url, err := suite.shortener.Shorten(ctx, &ShortenRequest{Original: "https://example.com", Owner: "alice"})

		suite.ErrorIs(err, suite.errUnknown)
		suite.Nil(url)
	})

	suite.Run("lookup error", func() {
		suite.codeGenMock.On("Generate", 6).Once().Return("aaaaaa", nil)
		suite.queryMock.On("GetURLByCode", mock.Anything, "aaaaaa").Once().Return(nil, suite.errUnknown)

		url, err := suite.shortener.Shorten(ctx, &ShortenRequest{Original: "https://example.com", Owner: "alice"})

		suite.ErrorIs(err, suite.errUnknown)
		suite.Nil(url)
	})

	suite.Run("cancelled context", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		url, err := suite.shortener.Shorten(ctx, &ShortenRequest{Original: "https://example.com", Owner: "alice"})

		suite.ErrorIs(err, context.Canceled)
		suite.Nil(url)
	})
}

func (suite *ShortenerTestSuite) TestValidate() {
	ctx := context.Background()

	suite.Run("nil request", func() {
		err := suite.shortener.Validate(ctx, nil)

		suite.ErrorIs(err, entity.ErrInvalidArgument)
	})

	suite.Run("no friendly code", func() {
		for _, friendly := range []string{"", "  "} {
			err := suite.shortener.Validate(ctx, &ShortenRequest{Friendly: friendly})

			suite.NoError(err)
		}
		suite.queryMock.AssertNotCalled(suite.T(), "GetURLByCode", mock.Anything, mock.Anything)
	})

	suite.Run("friendly code of only slashes", func() {
		err := suite.shortener.Validate(ctx, &ShortenRequest{Friendly: "///"})

		suite.ErrorIs(err, entity.ErrInvalidArgument)
		suite.queryMock.AssertNotCalled(suite.T(), "GetURLByCode", mock.Anything, mock.Anything)
	})

	suite.Run("friendly code exists", func() {
		suite.queryMock.On("GetURLByCode", mock.Anything, "home").Once().Return(entity.NewURL(), nil)

		err := suite.shortener.Validate(ctx, &ShortenRequest{Friendly: "home/"})

		var ceErr *entity.CodeExistsError
		suite.ErrorAs(err, &ceErr)
		suite.Equal("home", ceErr.ShortCode)
	})

	suite.Run("friendly code free", func() {
		suite.queryMock.On("GetURLByCode", mock.Anything, "home").Once().Return(nil, nil)

		err := suite.shortener.Validate(ctx, &ShortenRequest{Friendly: "home"})

		suite.NoError(err)
	})

	suite.Run("lookup error", func() {
		suite.queryMock.On("GetURLByCode", mock.Anything, "home").Once().Return(nil, suite.errUnknown)

		err := suite.shortener.Validate(ctx, &ShortenRequest{Friendly: "home"})

		suite.ErrorIs(err, suite.errUnknown)
	})
}

func (suite *ShortenerTestSuite) TestExists() {
	suite.Run("empty code", func() {
		exists, err := suite.shortener.Exists(context.Background(), "")

		suite.ErrorIs(err, entity.ErrInvalidArgument)
		suite.False(exists)
	})
}

func (suite *ShortenerTestSuite) TestUpsert() {
	ctx := context.Background()
	url := entity.NewURL()

	suite.Run("nil url", func() {
		err := suite.shortener.Upsert(ctx, nil)

		suite.ErrorIs(err, entity.ErrInvalidArgument)
	})

	suite.Run("non-success status", func() {
		suite.commandMock.On("Upsert", mock.Anything, url).Once().Return(http.StatusConflict, nil)

		err := suite.shortener.Upsert(ctx, url)

		var pErr *entity.PersistenceError
		suite.ErrorAs(err, &pErr)
		suite.Equal(http.StatusConflict, pErr.StatusCode)
	})

	suite.Run("store error", func() {
		suite.commandMock.On("Upsert", mock.Anything, url).Once().Return(0, suite.errUnknown)

		err := suite.shortener.Upsert(ctx, url)

		var pErr *entity.PersistenceError
		suite.ErrorAs(err, &pErr)
		suite.Equal(http.StatusInternalServerError, pErr.StatusCode)
		suite.ErrorIs(err, suite.errUnknown)
	})

	suite.Run("store persistence error is kept", func() {
		storeErr := &entity.PersistenceError{StatusCode: http.StatusServiceUnavailable, Err: suite.errUnknown}
		suite.commandMock.On("Upsert", mock.Anything, url).Once().Return(0, storeErr)

		err := suite.shortener.Upsert(ctx, url)

		var pErr *entity.PersistenceError
		suite.ErrorAs(err, &pErr)
		suite.Equal(http.StatusServiceUnavailable, pErr.StatusCode)
	})

	suite.Run("success", func() {
		suite.commandMock.On("Upsert", mock.Anything, url).Once().Return(http.StatusCreated, nil)

		err := suite.shortener.Upsert(ctx, url)

		suite.NoError(err)
	})
}

func TestShortenerTestSuite(t *testing.T) {
	suite.Run(t, new(ShortenerTestSuite))
}
