// Command seed loads the reference places into the geo index.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"places-server/config"
	"places-server/seed"
	"places-server/services"
	"places-server/utils/logger"
)

const connectTimeout = 10 * time.Second

type seedOptions struct {
	file     string
	useMongo bool
	force    bool
}

func newSeedCmd() *cobra.Command {
	opts := &seedOptions{}
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seeds the geo index with places from a JSON file or MongoDB",
		Long: `
seed adds every place to the geo set of its group and then sets the
"` + seed.FlagKey + `" key so later runs are skipped. Use --force to seed again.
`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSeed(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVarP(&opts.file, "file", "f", "data/places.json", "JSON file with places")
	cmd.Flags().BoolVar(&opts.useMongo, "mongo", false, "read places from MongoDB (MONGODB_URI) instead of --file")
	cmd.Flags().BoolVar(&opts.force, "force", false, "seed even if the seed flag is set")
	return cmd
}

func runSeed(ctx context.Context, opts *seedOptions) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		return err
	}
	log := logger.Named("seed")

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer client.Close()

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("connecting to redis at %s: %w", cfg.Redis.Addr(), err)
	}
	log.Info(ctx, "connected to redis", logger.String("addr", cfg.Redis.Addr()))

	var src seed.Source = seed.FileSource{Path: opts.file}
	if opts.useMongo {
		if cfg.Mongo.URI == "" {
			return fmt.Errorf("--mongo requires MONGODB_URI")
		}
		mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
		if err != nil {
			return fmt.Errorf("connecting to mongodb: %w", err)
		}
		defer func() { _ = mongoClient.Disconnect(context.Background()) }()
		if err := mongoClient.Ping(pingCtx, nil); err != nil {
			return fmt.Errorf("pinging mongodb: %w", err)
		}
		src = seed.MongoSource{Collection: mongoClient.Database(cfg.Mongo.Database).Collection(cfg.Mongo.Collection)}
		log.Info(ctx, "reading places from mongodb",
			logger.String("database", cfg.Mongo.Database), logger.String("collection", cfg.Mongo.Collection))
	}

	index := services.NewRedisGeoIndex(client, services.WithKeyPrefix(cfg.Redis.KeyPrefix))
	places := services.NewPlaceService(index,
		services.WithCategories(cfg.Categories),
		services.WithStrictCategories(cfg.StrictCategories),
		services.WithStoreTimeout(cfg.StoreTimeout),
		services.WithLogger(log),
	)
	seeder := seed.NewSeeder(places, seed.NewRedisFlag(client, cfg.Redis.KeyPrefix+seed.FlagKey), log)
	res, err := seeder.Run(ctx, src, opts.force)
	if err != nil {
		return err
	}
	if !res.Skipped {
		fmt.Printf("seeded %d places\n", res.Added)
	}
	return nil
}

func main() {
	logger.Init()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newSeedCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
