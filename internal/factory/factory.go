package factory

import (
	"errors"
	"io"
	"log/slog"

	"github.com/mkerrigan/roomrelay/internal/dependencies/clock"
	"github.com/mkerrigan/roomrelay/internal/dependencies/random"
	"github.com/mkerrigan/roomrelay/internal/dispatch"
	"github.com/mkerrigan/roomrelay/internal/server"
	"github.com/mkerrigan/roomrelay/internal/services/account"
	"github.com/mkerrigan/roomrelay/internal/services/room"
	"github.com/mkerrigan/roomrelay/internal/storage"
	filestorage "github.com/mkerrigan/roomrelay/internal/storage/file"
	"github.com/mkerrigan/roomrelay/internal/storage/memory"
	redisstorage "github.com/mkerrigan/roomrelay/internal/storage/redis"
	"github.com/mkerrigan/roomrelay/internal/transport"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeFile   = "file"
	StorageTypeRedis  = "redis"
)

// DefaultEventBuffer is the capacity of the transport event channel when
// the config does not set one.
const DefaultEventBuffer = 256

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.AccountStore

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Transport
	Registry *transport.Registry
	Events   chan transport.Event

	// Services
	Accounts   *account.Service
	Rooms      *room.Manager
	Dispatcher *dispatch.Dispatcher
	Loop       *server.Loop
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory", "file" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// AccountsFile is the path to the account directory file
	// (required if StorageType is "file")
	AccountsFile string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// Verifier decides how passwords are stored and checked (optional)
	// If nil, defaults to account.PlainVerifier
	Verifier account.Verifier
	// EventBuffer is the capacity of the transport event channel (optional)
	// If zero, defaults to DefaultEventBuffer
	EventBuffer int
	// Loop holds event loop settings (optional)
	// If zero value, defaults to server.DefaultLoopConfig()
	Loop server.LoopConfig
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	var store storage.AccountStore
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeFile:
		if cfg.AccountsFile == "" {
			return nil, errors.New("AccountsFile required when StorageType is file")
		}
		fileStore, err := filestorage.New(cfg.AccountsFile)
		if err != nil {
			return nil, err
		}
		store = fileStore
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory', 'file' or 'redis'")
	}

	verifier := cfg.Verifier
	if verifier == nil {
		verifier = account.PlainVerifier{}
	}

	eventBuffer := cfg.EventBuffer
	if eventBuffer <= 0 {
		eventBuffer = DefaultEventBuffer
	}

	clk := clock.New()
	rnd := random.New()

	return newWithDependencies(store, clk, rnd, verifier, eventBuffer, cfg.Loop, logger), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.AccountStore,
	clk clock.Clock,
	rnd random.Random,
	verifier account.Verifier,
	eventBuffer int,
	loopCfg server.LoopConfig,
	logger *slog.Logger,
) *App {
	registry := transport.NewRegistry(rnd, logger)
	events := make(chan transport.Event, eventBuffer)

	accounts := account.New(store, clk, verifier, logger)
	rooms := room.NewManager(clk, logger)
	dispatcher := dispatch.New(accounts, rooms, logger)
	loop := server.NewLoop(events, registry, dispatcher, loopCfg, logger)

	return &App{
		Storage:    store,
		Clock:      clk,
		Random:     rnd,
		Registry:   registry,
		Events:     events,
		Accounts:   accounts,
		Rooms:      rooms,
		Dispatcher: dispatcher,
		Loop:       loop,
	}
}
