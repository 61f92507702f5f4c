// Package mongodb connects to the MongoDB deployment that holds the console's
// own records. Credentials travel in the URI.
package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

// Config holds MongoDB connection configuration
type Config struct {
	URI      string
	Database string
	AppName  string

	ConnectTimeout         time.Duration
	ServerSelectionTimeout time.Duration
	MaxPoolSize            uint64
}

// DefaultConfig returns the local development settings
func DefaultConfig() *Config {
	return &Config{
		URI:                    "mongodb://localhost:27017",
		Database:               "fulfillment_console",
		AppName:                "fulfillment-console",
		ConnectTimeout:         10 * time.Second,
		ServerSelectionTimeout: 5 * time.Second,
		MaxPoolSize:            20,
	}
}

// Client is a connected database handle
type Client struct {
	client   *mongo.Client
	database *mongo.Database
}

// NewClient connects and verifies the primary is reachable
func NewClient(ctx context.Context, config *Config) (*Client, error) {
	opts := options.Client().
		ApplyURI(config.URI).
		SetAppName(config.AppName).
		SetConnectTimeout(config.ConnectTimeout).
		SetServerSelectionTimeout(config.ServerSelectionTimeout).
		SetMaxPoolSize(config.MaxPoolSize).
		SetWriteConcern(writeconcern.Majority())

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	c := &Client{client: client, database: client.Database(config.Database)}
	if err := c.HealthCheck(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	return c, nil
}

// Database returns the configured database
func (c *Client) Database() *mongo.Database {
	return c.database
}

// HealthCheck pings the primary, bounded by the server selection timeout
func (c *Client) HealthCheck(ctx context.Context) error {
	return c.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client
func (c *Client) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}
