// Package mongo connects to MongoDB using environment-driven configuration,
// retrying the initial connection, and exposes a ping based readiness check.
//
//	cfg, err := config.Load[mongo.Config]()
//	db, err := mongo.NewWithDatabase(ctx, cfg)
package mongo
