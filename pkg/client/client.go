package client

import (
	"context"
	"errors"
	"time"

	"meetingroom/pkg/logger"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const disconnectTimeout = 10 * time.Second

type Client struct {
	Mongo *mongo.Client
	log   *logger.Logger
}

func NewClient() *Client {
	return &Client{}
}

// SetMongo connects and pings, exiting the process if either fails.
func (c *Client) SetMongo(log *logger.Logger, mongoURI string, mongoConnTimeout time.Duration) {
	if err := c.ConnectMongo(log, mongoURI, mongoConnTimeout); err != nil {
		log.Fatal("Failed to connect to MongoDB", "error", err)
	}
}

func (c *Client) ConnectMongo(log *logger.Logger, mongoURI string, mongoConnTimeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), mongoConnTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		return err
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return err
	}

	log.Info("Successfully connected to MongoDB")
	c.Mongo = client
	c.log = log
	return nil
}

// Ping reports whether the primary is reachable. Used by readiness checks.
func (c *Client) Ping(ctx context.Context) error {
	if c.Mongo == nil {
		return errors.New("mongo client not connected")
	}
	return c.Mongo.Ping(ctx, readpref.Primary())
}

func (c *Client) GracefulShutdown() {
	if c.Mongo == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), disconnectTimeout)
	defer cancel()

	if err := c.Mongo.Disconnect(ctx); err != nil {
		if c.log != nil {
			c.log.Error("Failed to disconnect from MongoDB", "error", err)
		}
		return
	}
	if c.log != nil {
		c.log.Info("Disconnected from MongoDB")
	}
}
