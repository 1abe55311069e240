package service

import (
	"context"
	"io"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Notifier is the fire-and-forget notification side channel. Failures are the
// implementation's problem; callers never treat a notify error as fatal.
type Notifier interface {
	SendToUser(ctx context.Context, userID string, payload map[string]any)
	SendToRole(ctx context.Context, role string, payload map[string]any)
}

// PushProvider delivers best-effort push intents for recipients with no live
// connection. No delivery guarantee.
type PushProvider interface {
	SendPush(ctx context.Context, userID string, payload map[string]any)
}

// StoredObject is the reference returned by the external object store.
type StoredObject struct {
	URL string `json:"url"`
	ID  string `json:"id"`
}

// ObjectStore handles binary uploads out-of-band; messages keep only the
// returned reference.
type ObjectStore interface {
	Upload(ctx context.Context, name string, r io.Reader) (*StoredObject, error)
	Destroy(ctx context.Context, objectID string) error
}

// LogNotifier logs notifications instead of delivering them. Stands in for
// the HR platform's notification service in development and tests.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) SendToUser(_ context.Context, userID string, payload map[string]any) {
	n.logger.Info("notify user", zap.String("user_id", userID), zap.Any("payload", payload))
}

func (n *LogNotifier) SendToRole(_ context.Context, role string, payload map[string]any) {
	n.logger.Info("notify role", zap.String("role", role), zap.Any("payload", payload))
}

// LogPushProvider records push intents in the log.
type LogPushProvider struct {
	logger *zap.Logger
}

func NewLogPushProvider(logger *zap.Logger) *LogPushProvider {
	return &LogPushProvider{logger: logger}
}

func (p *LogPushProvider) SendPush(_ context.Context, userID string, payload map[string]any) {
	p.logger.Info("push intent queued", zap.String("user_id", userID), zap.Any("payload", payload))
}

// LocalObjectStore fabricates stable references without moving bytes, for
// development and tests.
type LocalObjectStore struct {
	baseURL string
	logger  *zap.Logger
}

func NewLocalObjectStore(baseURL string, logger *zap.Logger) *LocalObjectStore {
	return &LocalObjectStore{baseURL: baseURL, logger: logger}
}

func (s *LocalObjectStore) Upload(_ context.Context, name string, r io.Reader) (*StoredObject, error) {
	size, err := io.Copy(io.Discard, r)
	if err != nil {
		return nil, err
	}
	id := uuid.New().String()
	s.logger.Info("object stored",
		zap.String("object_id", id),
		zap.String("name", name),
		zap.Int64("size", size),
	)
	return &StoredObject{URL: s.baseURL + "/" + id, ID: id}, nil
}

func (s *LocalObjectStore) Destroy(_ context.Context, objectID string) error {
	s.logger.Info("object destroyed", zap.String("object_id", objectID))
	return nil
}
