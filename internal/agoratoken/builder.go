package agoratoken

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// Role selects which RTC privileges a token grants.
type Role int

const (
	// RolePublisher can join and publish audio, video and data streams.
	RolePublisher Role = iota + 1
	// RoleSubscriber can only join the channel.
	RoleSubscriber
)

// DefaultTTL is applied when the caller does not specify a token lifetime.
const DefaultTTL = time.Hour

var ErrEmptyChannel = errors.New("channel name is required")

// BuildRTCToken mints a media-channel token scoped to exactly one
// (channel, uid, role) tuple. The uid must already be validated; zero is
// never accepted here because Agora treats it as the wildcard identity.
func BuildRTCToken(appID, appCert, channel string, uid uint32, role Role, ttl time.Duration) (string, error) {
	if channel == "" {
		return "", ErrEmptyChannel
	}
	if uid == 0 {
		return "", errors.New("uid 0 is reserved")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	expire := uint32(ttl / time.Second)

	token := New(appID, appCert, expire)
	svc := NewRTCService(channel, strconv.FormatUint(uint64(uid), 10))
	svc.AddPrivilege(PrivJoinChannel, expire)
	if role == RolePublisher {
		svc.AddPrivilege(PrivPublishAudioStream, expire)
		svc.AddPrivilege(PrivPublishVideoStream, expire)
		svc.AddPrivilege(PrivPublishDataStream, expire)
	}
	token.AddService(svc)

	out, err := token.Build()
	if err != nil {
		return "", fmt.Errorf("build rtc token: %w", err)
	}
	return out, nil
}

// BuildRTMToken mints a signaling login token for one user id. RTM user ids
// are opaque strings, so no numeric validation applies.
func BuildRTMToken(appID, appCert, userID string, ttl time.Duration) (string, error) {
	if userID == "" {
		return "", errors.New("user id is required")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	expire := uint32(ttl / time.Second)

	token := New(appID, appCert, expire)
	svc := NewRTMService(userID)
	svc.AddPrivilege(PrivLogin, expire)
	token.AddService(svc)

	out, err := token.Build()
	if err != nil {
		return "", fmt.Errorf("build rtm token: %w", err)
	}
	return out, nil
}
