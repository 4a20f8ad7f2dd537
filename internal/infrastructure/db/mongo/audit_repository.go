package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/printproxy/console/internal/core/domain"
	"github.com/printproxy/console/internal/core/ports"
)

const (
	auditCollection   = "audit_entries"
	defaultAuditLimit = 100
	maxAuditLimit     = 1000
)

// AuditRepository implements ports.AuditRepository using MongoDB.
type AuditRepository struct {
	db *mongo.Database
}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository(db *mongo.Database) *AuditRepository {
	return &AuditRepository{db: db}
}

var _ ports.AuditRepository = (*AuditRepository)(nil)

type auditDocument struct {
	SessionID string    `bson:"session_id,omitempty"`
	Username  string    `bson:"username,omitempty"`
	Action    string    `bson:"action"`
	Method    string    `bson:"method,omitempty"`
	Path      string    `bson:"path,omitempty"`
	Status    int       `bson:"status,omitempty"`
	RequestID string    `bson:"request_id,omitempty"`
	ErrorKind string    `bson:"error_kind,omitempty"`
	Message   string    `bson:"message,omitempty"`
	Timestamp time.Time `bson:"timestamp"`
}

// EnsureIndexes creates the indexes used by List. Safe to call on every start.
func (r *AuditRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.db.Collection(auditCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "username", Value: 1}, {Key: "timestamp", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("audit indexes: %w", err)
	}
	return nil
}

// Insert persists one entry to the audit_entries collection.
func (r *AuditRepository) Insert(ctx context.Context, entry *domain.AuditEntry) error {
	ts := entry.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	doc := auditDocument{
		SessionID: entry.SessionID,
		Username:  entry.Username,
		Action:    entry.Action,
		Method:    entry.Method,
		Path:      entry.Path,
		Status:    entry.Status,
		RequestID: entry.RequestID,
		ErrorKind: string(entry.ErrorKind),
		Message:   entry.Message,
		Timestamp: ts.UTC(),
	}
	_, err := r.db.Collection(auditCollection).InsertOne(ctx, doc)
	return err
}

func (r *AuditRepository) List(ctx context.Context, f domain.AuditFilter) ([]domain.AuditEntry, error) {
	filter := bson.M{}
	if f.Username != "" {
		filter["username"] = f.Username
	}
	if f.ErrorKind != "" {
		filter["error_kind"] = string(f.ErrorKind)
	}
	if !f.Since.IsZero() {
		filter["timestamp"] = bson.M{"$gte": f.Since.UTC()}
	}

	limit := f.Limit
	if limit <= 0 {
		limit = defaultAuditLimit
	}
	if limit > maxAuditLimit {
		limit = maxAuditLimit
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(int64(limit))

	cur, err := r.db.Collection(auditCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []auditDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	out := make([]domain.AuditEntry, 0, len(docs))
	for _, d := range docs {
		out = append(out, domain.AuditEntry{
			SessionID: d.SessionID,
			Username:  d.Username,
			Action:    d.Action,
			Method:    d.Method,
			Path:      d.Path,
			Status:    d.Status,
			RequestID: d.RequestID,
			ErrorKind: domain.ErrorKind(d.ErrorKind),
			Message:   d.Message,
			Timestamp: d.Timestamp,
		})
	}
	return out, nil
}
