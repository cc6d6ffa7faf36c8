package services

import (
	"time"

	"github.com/patrickmn/go-cache"
)

const (
	defaultWatchTTL   = 15 * time.Minute
	defaultPendingTTL = 10 * time.Minute
)

// WatchService tracks two kinds of short-lived phone-keyed state: activation
// watches (inbound SMS arriving during a provisioning workflow should land
// in the workflow's chat thread) and pending delivery reports for recent
// outbound sends.
type WatchService struct {
	watches *cache.Cache
	pending *cache.Cache
}

// NewWatchService creates an empty watch service.
func NewWatchService() *WatchService {
	return &WatchService{
		watches: cache.New(defaultWatchTTL, 5*time.Minute),
		pending: cache.New(defaultPendingTTL, 5*time.Minute),
	}
}

// WatchActivation routes inbound SMS for the phone into the given chat
// thread until the TTL lapses or the watch is completed.
func (s *WatchService) WatchActivation(phone, threadRef string, ttl time.Duration) {
	if ttl <= 0 {
		ttl = defaultWatchTTL
	}
	s.watches.Set(phone, threadRef, ttl)
}

// ActivationThread returns the watched thread for a phone, if any.
func (s *WatchService) ActivationThread(phone string) (string, bool) {
	v, ok := s.watches.Get(phone)
	if !ok {
		return "", false
	}
	return v.(string), true
}

// CompleteActivation removes a watch before its expiry.
func (s *WatchService) CompleteActivation(phone string) {
	s.watches.Delete(phone)
}

// TrackDelivery records that a delivery report is expected for the phone,
// and which thread should hear about it.
func (s *WatchService) TrackDelivery(phone, threadRef string) {
	s.pending.Set(phone, threadRef, defaultPendingTTL)
}

// ResolveDelivery consumes the pending entry for a phone. The second return
// is false when no send was awaiting a report.
func (s *WatchService) ResolveDelivery(phone string) (string, bool) {
	v, ok := s.pending.Get(phone)
	if !ok {
		return "", false
	}
	s.pending.Delete(phone)
	return v.(string), true
}
