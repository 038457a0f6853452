// Package mongostore is the MongoDB implementation of store.Store.
package mongostore

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/countervalue/market-cache/pairid"
	"github.com/countervalue/market-cache/store"
)

const (
	connectTimeout = 10 * time.Second

	pairExchangesCollection = "pairExchanges"
	exchangesCollection     = "exchanges"
	marketCapCollection     = "marketcap_coins"
	metaCollection          = "meta"

	// the meta collection holds a single bookkeeping document
	metaKey = "meta_1"
)

// Store persists engine data in MongoDB. Connect before use; the type
// also satisfies core.Interface so the registry drives its lifecycle.
type Store struct {
	uri    string
	client *mongo.Client
	db     *mongo.Database
}

// New creates a disconnected store for the given connection URI. The
// database name is taken from the URI path.
func New(uri string) *Store {
	return &Store{uri: uri}
}

// Start implements core.Interface: it connects and ensures indexes.
func (s *Store) Start(ctx context.Context) error {
	return s.Connect(ctx)
}

// Stop implements core.Interface
func (s *Store) Stop() {
	if s.client == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := s.client.Disconnect(ctx); err != nil {
		log.Printf("Mongo store: disconnect failed: %v", err)
	}
}

// Connect dials MongoDB, pings it and creates the indexes.
func (s *Store) Connect(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	dbName, err := databaseName(s.uri)
	if err != nil {
		return err
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(s.uri))
	if err != nil {
		return fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("mongo ping: %w", err)
	}

	s.client = client
	s.db = client.Database(dbName)
	if err := s.ensureIndexes(ctx); err != nil {
		return err
	}
	log.Printf("Mongo store: connected to database %s", dbName)
	return nil
}

// databaseName extracts the database from the URI path, defaulting to
// ledger-countervalue when the URI carries none.
func databaseName(uri string) (string, error) {
	parsed, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("invalid mongo URI: %w", err)
	}
	name := strings.TrimPrefix(parsed.Path, "/")
	if name == "" {
		name = "ledger-countervalue"
	}
	return name, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)

	_, err := s.db.Collection(pairExchangesCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: unique},
		{Keys: bson.D{{Key: "from_to", Value: 1}}},
		{Keys: bson.D{{Key: "latestDate", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("pairExchanges indexes: %w", err)
	}

	_, err = s.db.Collection(exchangesCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "id", Value: 1}}, Options: unique,
	})
	if err != nil {
		return fmt.Errorf("exchanges index: %w", err)
	}

	_, err = s.db.Collection(marketCapCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "day", Value: 1}}, Options: unique,
	})
	if err != nil {
		return fmt.Errorf("marketcap index: %w", err)
	}
	return nil
}

// InsertPairExchangeData implements store.Store. Records already present
// are left untouched so previously derived fields survive.
func (s *Store) InsertPairExchangeData(ctx context.Context, records []store.PairExchangeRecord) error {
	if len(records) == 0 {
		return nil
	}
	models := make([]mongo.WriteModel, 0, len(records))
	for _, record := range records {
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"id": record.ID}).
			SetUpdate(bson.M{"$setOnInsert": record}).
			SetUpsert(true))
	}
	_, err := s.db.Collection(pairExchangesCollection).
		BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return fmt.Errorf("insert pair exchanges: %w", err)
	}
	return nil
}

// UpdateLiveRates implements store.Store
func (s *Store) UpdateLiveRates(ctx context.Context, updates []store.LiveRate) error {
	if len(updates) == 0 {
		return nil
	}
	now := time.Now().UTC()
	models := make([]mongo.WriteModel, 0, len(updates))
	for _, update := range updates {
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"id": update.PairExchangeID}).
			SetUpdate(bson.M{"$set": bson.M{
				"latest":     update.Rate,
				"latestDate": now,
			}}))
	}
	_, err := s.db.Collection(pairExchangesCollection).
		BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return fmt.Errorf("update live rates: %w", err)
	}
	return s.touchMeta(ctx, "lastLiveRatesSync", now)
}

// UpdateHisto implements store.Store
func (s *Store) UpdateHisto(ctx context.Context, id string, g pairid.Granularity, histo store.Histo) error {
	field := "histo_daily"
	if g == pairid.Hourly {
		field = "histo_hourly"
	}
	_, err := s.db.Collection(pairExchangesCollection).UpdateOne(ctx,
		bson.M{"id": id},
		bson.M{"$set": bson.M{field: histo}})
	if err != nil {
		return fmt.Errorf("update histo %s: %w", id, err)
	}
	return nil
}

// UpdatePairExchangeStats implements store.Store. Only the non-nil
// statistic fields make it into the $set document.
func (s *Store) UpdatePairExchangeStats(ctx context.Context, id string, stats store.PairExchangeStats) error {
	set := bson.M{}
	if stats.YesterdayVolume != nil {
		set["yesterdayVolume"] = *stats.YesterdayVolume
	}
	if stats.OldestDayAgo != nil {
		set["oldestDayAgo"] = *stats.OldestDayAgo
	}
	if stats.HasHistoryFor1Year != nil {
		set["hasHistoryFor1Year"] = *stats.HasHistoryFor1Year
	}
	if stats.HasHistoryFor30LastDays != nil {
		set["hasHistoryFor30LastDays"] = *stats.HasHistoryFor30LastDays
	}
	if stats.HistoryLoadedAtDaily != nil {
		set["historyLoadedAt_daily"] = *stats.HistoryLoadedAtDaily
	}
	if stats.HistoryLoadedAtHourly != nil {
		set["historyLoadedAt_hourly"] = *stats.HistoryLoadedAtHourly
	}
	if stats.LatestDate != nil {
		set["latestDate"] = *stats.LatestDate
	}
	if len(set) == 0 {
		return nil
	}
	_, err := s.db.Collection(pairExchangesCollection).UpdateOne(ctx,
		bson.M{"id": id}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("update stats %s: %w", id, err)
	}
	return nil
}

// UpdateExchanges implements store.Store
func (s *Store) UpdateExchanges(ctx context.Context, exchanges []store.Exchange) error {
	if len(exchanges) == 0 {
		return nil
	}
	models := make([]mongo.WriteModel, 0, len(exchanges))
	for _, exchange := range exchanges {
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"id": exchange.ID}).
			SetReplacement(exchange).
			SetUpsert(true))
	}
	_, err := s.db.Collection(exchangesCollection).
		BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return fmt.Errorf("update exchanges: %w", err)
	}
	return nil
}

// UpdateMarketCapCoins implements store.Store
func (s *Store) UpdateMarketCapCoins(ctx context.Context, day string, coins []string) error {
	_, err := s.db.Collection(marketCapCollection).UpdateOne(ctx,
		bson.M{"day": day},
		bson.M{"$set": bson.M{"day": day, "coins": coins}},
		options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("update market cap coins: %w", err)
	}
	return s.touchMeta(ctx, "lastMarketCapSync", time.Now().UTC())
}

// QueryPairExchangesByPairs implements store.Store
func (s *Store) QueryPairExchangesByPairs(ctx context.Context, pairs []store.Pair, filterWithHistory bool) ([]store.PairExchangeRecord, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	keys := make([]string, 0, len(pairs))
	for _, pair := range pairs {
		keys = append(keys, pair.Key())
	}
	filter := bson.M{"from_to": bson.M{"$in": keys}}
	if filterWithHistory {
		filter["hasHistoryFor30LastDays"] = true
	}

	opts := options.Find().SetSort(bson.D{
		{Key: "hasHistoryFor1Year", Value: -1},
		{Key: "yesterdayVolume", Value: -1},
	})
	cursor, err := s.db.Collection(pairExchangesCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("query pair exchanges: %w", err)
	}
	var records []store.PairExchangeRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("decode pair exchanges: %w", err)
	}
	return records, nil
}

// QueryPairExchangeByID implements store.Store
func (s *Store) QueryPairExchangeByID(ctx context.Context, id string) (*store.PairExchangeRecord, error) {
	var record store.PairExchangeRecord
	err := s.db.Collection(pairExchangesCollection).
		FindOne(ctx, bson.M{"id": id}).Decode(&record)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query pair exchange %s: %w", id, err)
	}
	return &record, nil
}

// QueryPairExchangeIDs implements store.Store. Mongo sorts null
// latestDate values first on a descending sort, so nulls are ordered
// explicitly after the dated records.
func (s *Store) QueryPairExchangeIDs(ctx context.Context) ([]string, error) {
	collection := s.db.Collection(pairExchangesCollection)
	projection := options.Find().
		SetProjection(bson.M{"id": 1}).
		SetSort(bson.D{{Key: "latestDate", Value: -1}})

	dated, err := s.queryIDs(ctx, collection, bson.M{"latestDate": bson.M{"$ne": nil}}, projection)
	if err != nil {
		return nil, err
	}
	undated, err := s.queryIDs(ctx, collection, bson.M{"latestDate": nil}, options.Find().SetProjection(bson.M{"id": 1}))
	if err != nil {
		return nil, err
	}
	return append(dated, undated...), nil
}

func (s *Store) queryIDs(ctx context.Context, collection *mongo.Collection, filter bson.M, opts *options.FindOptions) ([]string, error) {
	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("query pair exchange ids: %w", err)
	}
	var docs []struct {
		ID string `bson:"id"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode pair exchange ids: %w", err)
	}
	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		ids = append(ids, doc.ID)
	}
	return ids, nil
}

// QueryExchanges implements store.Store
func (s *Store) QueryExchanges(ctx context.Context) ([]store.Exchange, error) {
	cursor, err := s.db.Collection(exchangesCollection).Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("query exchanges: %w", err)
	}
	var exchanges []store.Exchange
	if err := cursor.All(ctx, &exchanges); err != nil {
		return nil, fmt.Errorf("decode exchanges: %w", err)
	}
	return exchanges, nil
}

// QueryMarketCapCoinsForDay implements store.Store
func (s *Store) QueryMarketCapCoinsForDay(ctx context.Context, day string) ([]string, error) {
	var snapshot store.MarketCapSnapshot
	err := s.db.Collection(marketCapCollection).
		FindOne(ctx, bson.M{"day": day}).Decode(&snapshot)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query market cap coins: %w", err)
	}
	return snapshot.Coins, nil
}

// StatusDB implements store.Store
func (s *Store) StatusDB(ctx context.Context) error {
	count, err := s.db.Collection(pairExchangesCollection).
		EstimatedDocumentCount(ctx)
	if err != nil {
		return fmt.Errorf("status check: %w", err)
	}
	if count == 0 {
		return store.ErrEmptyStore
	}
	return nil
}

// GetMeta implements store.Store
func (s *Store) GetMeta(ctx context.Context) (store.Meta, error) {
	var doc struct {
		Meta store.Meta `bson:",inline"`
	}
	err := s.db.Collection(metaCollection).
		FindOne(ctx, bson.M{"key": metaKey}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return store.Meta{}, nil
	}
	if err != nil {
		return store.Meta{}, fmt.Errorf("get meta: %w", err)
	}
	return doc.Meta, nil
}

func (s *Store) touchMeta(ctx context.Context, field string, at time.Time) error {
	_, err := s.db.Collection(metaCollection).UpdateOne(ctx,
		bson.M{"key": metaKey},
		bson.M{"$set": bson.M{field: at}},
		options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("touch meta %s: %w", field, err)
	}
	return nil
}
