package store

import (
	"context"
	"log"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/totegamma/sigchat/core"
)

var tracer = otel.Tracer("store")

var errNotLoaded = errors.New("collection not loaded")

// Options tunes how a collection opens its database
type Options struct {
	DBName string
	Logger logger.Interface
}

// Collection is a named set of records of type T backed by gorm
type Collection[T any] struct {
	name      string
	dialector gorm.Dialector
	opts      Options

	mu sync.RWMutex
	db *gorm.DB
}

// NewCollection creates a collection. The database is not touched until Load.
func NewCollection[T any](name string, dialector gorm.Dialector, opts Options) *Collection[T] {
	if opts.DBName == "" {
		opts.DBName = dialector.Name()
	}
	if opts.Logger == nil {
		opts.Logger = logger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			logger.Config{
				SlowThreshold:             300 * time.Millisecond,
				LogLevel:                  logger.Warn,
				IgnoreRecordNotFoundError: true,
				Colorful:                  true,
			},
		)
	}

	return &Collection[T]{
		name:      name,
		dialector: dialector,
		opts:      opts,
	}
}

// Name returns the collection name
func (c *Collection[T]) Name() string {
	return c.name
}

// Load opens the backing database and migrates the schema of T.
// Existing records are kept.
func (c *Collection[T]) Load(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Store.Collection.Load")
	defer span.End()
	span.SetAttributes(attribute.String("collection", c.name))

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db != nil {
		return nil
	}

	db, err := gorm.Open(c.dialector, &gorm.Config{
		Logger: c.opts.Logger,
	})
	if err != nil {
		span.RecordError(err)
		return core.NewErrorStorage("load", errors.Wrap(err, "failed to open "+c.name))
	}

	err = db.Use(tracing.NewPlugin(
		tracing.WithDBName(c.opts.DBName),
	))
	if err != nil {
		span.RecordError(err)
		closeDB(db)
		return core.NewErrorStorage("load", errors.Wrap(err, "failed to setup tracing plugin"))
	}

	err = db.WithContext(ctx).AutoMigrate(new(T))
	if err != nil {
		span.RecordError(err)
		closeDB(db)
		return core.NewErrorStorage("load", errors.Wrap(err, "failed to migrate "+c.name))
	}

	var count int64
	err = db.WithContext(ctx).Model(new(T)).Count(&count).Error
	if err != nil {
		span.RecordError(err)
		closeDB(db)
		return core.NewErrorStorage("load", errors.Wrap(err, "failed to count "+c.name))
	}

	c.db = db
	slog.InfoContext(
		ctx, "collection loaded",
		slog.String("collection", c.name),
		slog.Int64("records", count),
		slog.String("module", "store"),
	)

	return nil
}

func (c *Collection[T]) handle(op string) (*gorm.DB, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.db == nil {
		return nil, core.NewErrorStorage(op, errors.Wrap(errNotLoaded, c.name))
	}
	return c.db, nil
}

// Insert stores a record and returns it with its assigned identifier
func (c *Collection[T]) Insert(ctx context.Context, record T) (T, error) {
	ctx, span := tracer.Start(ctx, "Store.Collection.Insert")
	defer span.End()
	span.SetAttributes(attribute.String("collection", c.name))

	db, err := c.handle("insert")
	if err != nil {
		span.RecordError(err)
		return record, err
	}

	err = db.WithContext(ctx).Create(&record).Error
	if err != nil {
		span.RecordError(err)
		return record, core.NewErrorStorage("insert", err)
	}

	return record, nil
}

// FindOne returns the first record matching the non-zero fields of query
func (c *Collection[T]) FindOne(ctx context.Context, query T) (T, error) {
	ctx, span := tracer.Start(ctx, "Store.Collection.FindOne")
	defer span.End()
	span.SetAttributes(attribute.String("collection", c.name))

	var result T
	db, err := c.handle("find")
	if err != nil {
		span.RecordError(err)
		return result, err
	}

	err = db.WithContext(ctx).Where(&query).First(&result).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return result, core.NewErrorNotFound()
		}
		span.RecordError(err)
		return result, core.NewErrorStorage("find", err)
	}

	return result, nil
}

// Count returns the number of stored records
func (c *Collection[T]) Count(ctx context.Context) (int64, error) {
	ctx, span := tracer.Start(ctx, "Store.Collection.Count")
	defer span.End()
	span.SetAttributes(attribute.String("collection", c.name))

	db, err := c.handle("count")
	if err != nil {
		span.RecordError(err)
		return 0, err
	}

	var count int64
	err = db.WithContext(ctx).Model(new(T)).Count(&count).Error
	if err != nil {
		span.RecordError(err)
		return 0, core.NewErrorStorage("count", err)
	}

	return count, nil
}

// Ping checks that the backing database is reachable
func (c *Collection[T]) Ping(ctx context.Context) error {
	db, err := c.handle("ping")
	if err != nil {
		return err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return core.NewErrorStorage("ping", err)
	}

	err = sqlDB.PingContext(ctx)
	if err != nil {
		return core.NewErrorStorage("ping", err)
	}

	return nil
}

// Close releases the database handle. The collection must be loaded again before use.
func (c *Collection[T]) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db == nil {
		return nil
	}

	sqlDB, err := c.db.DB()
	if err != nil {
		return core.NewErrorStorage("close", err)
	}
	c.db = nil

	return sqlDB.Close()
}

func closeDB(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	sqlDB.Close()
}
