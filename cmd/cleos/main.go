package main

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"log"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/layer-3/cleos/adapters/events"
	"github.com/layer-3/cleos/adapters/rpc"
	"github.com/layer-3/cleos/adapters/store"
	"github.com/layer-3/cleos/adapters/tokenizer"
	"github.com/layer-3/cleos/config"
	"github.com/layer-3/cleos/core"
	"github.com/layer-3/cleos/ports"
	"github.com/layer-3/cleos/service"
	"github.com/layer-3/cleos/transport/http"
	"github.com/redis/go-redis/v9"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := watermill.NewStdLogger(cfg.LogDebug, false)

	// Tokens only live as long as the process, so an ephemeral key is enough
	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		panic(err)
	}

	var (
		sessionStore ports.Store
		publisher    message.Publisher
		signDelegate ports.SignDelegate
	)
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to parse Redis URL: %v", err)
		}
		redisClient := redis.NewClient(opts)
		defer redisClient.Close()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatalf("Failed to reach Redis: %v", err)
		}

		publisher, err = redisstream.NewPublisher(
			redisstream.PublisherConfig{
				Client: redisClient,
			},
			logger,
		)
		if err != nil {
			log.Fatalf("Failed to create Redis publisher: %v", err)
		}
		sessionStore = store.NewRedisStore(redisClient)
		signDelegate = events.SignRequestDelegate(publisher, cfg.SignTopic)
	} else {
		// In-process events have no external signer listening, so signing is refused
		logger.Info("REDIS_URL not set, sessions and events stay in memory and signing is disabled", nil)
		publisher = gochannel.NewGoChannel(gochannel.Config{}, logger)
		sessionStore = store.NewMemoryStore()
		signDelegate = events.UnavailableSignDelegate("REDIS_URL is not set")
	}
	defer publisher.Close()

	account, permission := cfg.Account, cfg.Permission
	loginDelegate := func(ctx context.Context) (*core.LoginResult, error) {
		if account == "" {
			return nil, nil
		}
		return &core.LoginResult{AccountName: account, Permission: permission}, nil
	}

	authenticator, err := service.NewAuthenticator(ctx, cfg.Chains(), service.Options{
		AppName:         "cleos-bridge",
		LoginDelegate:   loginDelegate,
		SignDelegate:    signDelegate,
		Store:           sessionStore,
		Dial:            rpc.Dial,
		Events:          events.NewWatermillPublisher(publisher),
		Logger:          logger,
		InvalidateAfter: cfg.Lifetime(),
	})
	if err != nil {
		log.Fatalf("Failed to create authenticator: %v", err)
	}
	defer authenticator.Close()

	router := http.SetupRouter(authenticator, tokenizer.NewJWTTokenizer(privateKey, cfg.TokenLifetime()), logger)

	logger.Info("Starting cleos bridge", watermill.LogFields{"addr": cfg.HTTPAddr, "rpc": authenticator.RPC().Endpoint()})
	if err := router.Run(cfg.HTTPAddr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
