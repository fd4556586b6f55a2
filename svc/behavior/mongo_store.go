package behavior

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	mongohealth "github.com/dmitrymomot/behaviortrace/pkg/mongo"
)

// CollectionName is the collection, or table, holding behavior records.
const CollectionName = "behavior_data"

var newestFirstSort = bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}}

// MongoStore keeps records in a MongoDB collection.
type MongoStore struct {
	db   *mongo.Database
	coll *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{db: db, coll: db.Collection(CollectionName)}
}

// EnsureIndexes creates the session and recency indexes used by queries.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "session_id", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("session_id_timestamp"),
		},
		{
			Keys:    bson.D{{Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("timestamp"),
		},
	})
	if err != nil {
		return fmt.Errorf("mongo: create indexes: %w", err)
	}
	return nil
}

func (s *MongoStore) Insert(ctx context.Context, r *Record) error {
	if r == nil {
		return ErrNilRecord
	}
	_, err := s.coll.InsertOne(ctx, r)
	return err
}

func (s *MongoStore) Get(ctx context.Context, id string) (Record, error) {
	var rec Record
	err := s.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Record{}, ErrRecordNotFound
	}
	if err != nil {
		return Record{}, err
	}
	rec.Timestamp = rec.Timestamp.UTC()
	return rec, nil
}

func mongoFilter(f Filter) bson.D {
	filter := bson.D{}
	if f.SessionID != "" {
		filter = append(filter, bson.E{Key: "session_id", Value: f.SessionID})
	}
	if !f.Since.IsZero() {
		filter = append(filter, bson.E{Key: "timestamp", Value: bson.D{{Key: "$gte", Value: f.Since}}})
	}
	return filter
}

func (s *MongoStore) List(ctx context.Context, f Filter, p Page) ([]Record, error) {
	opts := options.Find().SetSort(newestFirstSort).SetSkip(int64(p.Offset))
	if p.Limit > 0 {
		opts.SetLimit(int64(p.Limit))
	}
	cur, err := s.coll.Find(ctx, mongoFilter(f), opts)
	if err != nil {
		return nil, err
	}
	records := []Record{}
	if err := cur.All(ctx, &records); err != nil {
		return nil, err
	}
	for i := range records {
		records[i].Timestamp = records[i].Timestamp.UTC()
	}
	return records, nil
}

func (s *MongoStore) Count(ctx context.Context, f Filter) (int64, error) {
	return s.coll.CountDocuments(ctx, mongoFilter(f))
}

func sizeOf(field string) bson.D {
	return bson.D{{Key: "$size", Value: bson.D{{Key: "$ifNull", Value: bson.A{"$" + field, bson.A{}}}}}}
}

func sumSize(field string) bson.D {
	return bson.D{{Key: "$sum", Value: sizeOf(field)}}
}

func (s *MongoStore) Sessions(ctx context.Context, p Page) ([]SessionSummary, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$sort", Value: bson.D{{Key: "timestamp", Value: 1}, {Key: "_id", Value: 1}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$session_id"},
			{Key: "session_start", Value: bson.D{{Key: "$first", Value: "$session_start"}}},
			{Key: "fingerprint", Value: bson.D{{Key: "$first", Value: "$fingerprint"}}},
			{Key: "last_activity", Value: bson.D{{Key: "$max", Value: "$timestamp"}}},
			{Key: "mouse_events_count", Value: sumSize("mouse_events")},
			{Key: "click_events_count", Value: sumSize("click_events")},
			{Key: "scroll_events_count", Value: sumSize("scroll_events")},
			{Key: "key_events_count", Value: sumSize("key_events")},
			{Key: "page_views_count", Value: sumSize("page_views")},
			{Key: "total_records", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "last_activity", Value: -1}, {Key: "_id", Value: 1}}}},
		{{Key: "$skip", Value: int64(p.Offset)}},
	}
	if p.Limit > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: int64(p.Limit)}})
	}

	// $first picks the earliest ingested record per the leading $sort.
	cur, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	sessions := []SessionSummary{}
	if err := cur.All(ctx, &sessions); err != nil {
		return nil, err
	}
	for i := range sessions {
		sessions[i].LastActivity = sessions[i].LastActivity.UTC()
	}
	return sessions, nil
}

func (s *MongoStore) CountSessions(ctx context.Context) (int64, error) {
	cur, err := s.coll.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.D{{Key: "_id", Value: "$session_id"}}}},
		{{Key: "$count", Value: "sessions"}},
	})
	if err != nil {
		return 0, err
	}
	var out []struct {
		Sessions int64 `bson:"sessions"`
	}
	if err := cur.All(ctx, &out); err != nil {
		return 0, err
	}
	if len(out) == 0 {
		return 0, nil
	}
	return out[0].Sessions, nil
}

func (s *MongoStore) EventCounts(ctx context.Context, since time.Time, sample int) (EventCounts, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "timestamp", Value: bson.D{{Key: "$gte", Value: since}}}}}},
		{{Key: "$sort", Value: newestFirstSort}},
	}
	if sample > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: int64(sample)}})
	}
	pipeline = append(pipeline, bson.D{{Key: "$group", Value: bson.D{
		{Key: "_id", Value: nil},
		{Key: "mouse_events", Value: sumSize("mouse_events")},
		{Key: "click_events", Value: sumSize("click_events")},
		{Key: "scroll_events", Value: sumSize("scroll_events")},
		{Key: "key_events", Value: sumSize("key_events")},
		{Key: "page_views", Value: sumSize("page_views")},
	}}})

	cur, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return EventCounts{}, err
	}
	var out []EventCounts
	if err := cur.All(ctx, &out); err != nil {
		return EventCounts{}, err
	}
	if len(out) == 0 {
		return EventCounts{}, nil
	}
	return out[0], nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return mongohealth.Healthcheck(s.db.Client())(ctx)
}
